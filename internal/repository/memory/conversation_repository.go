package memory

import (
	"time"

	"friendlist-be/pkg/assistant/conversation"

	"github.com/patrickmn/go-cache"
)

// ConversationRepository keeps live conversations in process memory. Entries
// expire after ttl of inactivity; Touch extends them.
type ConversationRepository struct {
	cache *cache.Cache
}

func NewConversationRepository(ttl time.Duration) *ConversationRepository {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &ConversationRepository{
		cache: cache.New(ttl, 10*time.Minute),
	}
}

func (r *ConversationRepository) Save(conv *conversation.Conversation) {
	r.cache.Set(conv.ID(), conv, cache.DefaultExpiration)
}

func (r *ConversationRepository) Get(id string) (*conversation.Conversation, bool) {
	if x, found := r.cache.Get(id); found {
		return x.(*conversation.Conversation), true
	}
	return nil, false
}

// Touch re-saves the conversation so its expiry restarts.
func (r *ConversationRepository) Touch(conv *conversation.Conversation) {
	r.Save(conv)
}

func (r *ConversationRepository) Delete(id string) {
	r.cache.Delete(id)
}

func (r *ConversationRepository) Count() int {
	return r.cache.ItemCount()
}
