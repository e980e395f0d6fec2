package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"friendlist-be/internal/dto"
	"friendlist-be/internal/pkg/logger"
	"friendlist-be/internal/repository/memory"
	"friendlist-be/pkg/assistant/conversation"
	"friendlist-be/pkg/assistant/grammar"
	"friendlist-be/pkg/assistant/prompt"
	"friendlist-be/pkg/auth"
	"friendlist-be/pkg/llm"
	"friendlist-be/pkg/venue"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

var ErrConversationNotFound = errors.New("conversation not found")

type IAssistantService interface {
	Start(ctx context.Context, session *auth.Session) (conversation.Snapshot, error)
	Get(ctx context.Context, session *auth.Session, id string) (conversation.Snapshot, error)
	Submit(ctx context.Context, session *auth.Session, id string, req *dto.SubmitTurnRequest) (*dto.SubmitTurnResponse, error)
	Accept(ctx context.Context, session *auth.Session, id, messageID string) (*dto.DecisionResponse, error)
	Reject(ctx context.Context, session *auth.Session, id, messageID string) (*dto.DecisionResponse, error)
	CommitRecommendation(ctx context.Context, session *auth.Session, id, messageID string, index int) (*dto.DecisionResponse, error)
	Clear(ctx context.Context, session *auth.Session, id string) (conversation.Snapshot, error)
}

type assistantService struct {
	repo      *memory.ConversationRepository
	items     IItemService
	grounder  conversation.Grounder
	provider  llm.LLMProvider
	parser    *grammar.Parser
	modelOpts []llm.Option
	logger    logger.ILogger
}

func NewAssistantService(
	repo *memory.ConversationRepository,
	items IItemService,
	grounder conversation.Grounder,
	provider llm.LLMProvider,
	log logger.ILogger,
	modelOpts ...llm.Option,
) IAssistantService {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &assistantService{
		repo:      repo,
		items:     items,
		grounder:  grounder,
		provider:  provider,
		parser:    grammar.NewParser(log),
		modelOpts: modelOpts,
		logger:    log,
	}
}

func (s *assistantService) Start(ctx context.Context, session *auth.Session) (conversation.Snapshot, error) {
	if session == nil {
		return conversation.Snapshot{}, conversation.ErrSessionExpired
	}

	conv := conversation.New(session, conversation.Dependencies{
		Grounder: s.grounder,
		Provider: s.provider,
		Parser:   s.parser,
		Sink:     &itemSink{items: s.items},
		Logger:   s.logger,
	}, conversation.WithModelOptions(s.modelOpts...))
	s.repo.Save(conv)

	s.logger.Info("AssistantService", "Conversation started", map[string]interface{}{
		"conversation_id": conv.ID(),
		"subject":         session.Subject,
	})
	return conv.Snapshot(), nil
}

func (s *assistantService) Get(ctx context.Context, session *auth.Session, id string) (conversation.Snapshot, error) {
	conv, err := s.find(session, id)
	if err != nil {
		return conversation.Snapshot{}, err
	}
	return conv.Snapshot(), nil
}

func (s *assistantService) Submit(ctx context.Context, session *auth.Session, id string, req *dto.SubmitTurnRequest) (*dto.SubmitTurnResponse, error) {
	conv, err := s.find(session, id)
	if err != nil {
		return nil, err
	}

	reply, err := conv.Submit(ctx, req.Text)
	if err != nil {
		return nil, err
	}
	s.repo.Touch(conv)

	return &dto.SubmitTurnResponse{Reply: reply, Conversation: conv.Snapshot()}, nil
}

func (s *assistantService) Accept(ctx context.Context, session *auth.Session, id, messageID string) (*dto.DecisionResponse, error) {
	conv, err := s.find(session, id)
	if err != nil {
		return nil, err
	}
	msg, err := conv.Accept(ctx, messageID)
	if err != nil {
		return nil, err
	}
	return &dto.DecisionResponse{Message: msg, Conversation: conv.Snapshot()}, nil
}

func (s *assistantService) Reject(ctx context.Context, session *auth.Session, id, messageID string) (*dto.DecisionResponse, error) {
	conv, err := s.find(session, id)
	if err != nil {
		return nil, err
	}
	msg, err := conv.Reject(messageID)
	if err != nil {
		return nil, err
	}
	return &dto.DecisionResponse{Message: msg, Conversation: conv.Snapshot()}, nil
}

func (s *assistantService) CommitRecommendation(ctx context.Context, session *auth.Session, id, messageID string, index int) (*dto.DecisionResponse, error) {
	conv, err := s.find(session, id)
	if err != nil {
		return nil, err
	}
	msg, err := conv.CommitRecommendation(ctx, messageID, index)
	if err != nil {
		return nil, err
	}
	return &dto.DecisionResponse{Message: msg, Conversation: conv.Snapshot()}, nil
}

func (s *assistantService) Clear(ctx context.Context, session *auth.Session, id string) (conversation.Snapshot, error) {
	conv, err := s.find(session, id)
	if err != nil {
		return conversation.Snapshot{}, err
	}
	conv.Clear()
	return conv.Snapshot(), nil
}

// find returns the conversation only to the subject that started it, carrying
// the caller's current session forward.
func (s *assistantService) find(session *auth.Session, id string) (*conversation.Conversation, error) {
	conv, ok := s.repo.Get(id)
	if !ok || !conv.Renew(session) {
		return nil, ErrConversationNotFound
	}
	return conv, nil
}

// itemSink lets a conversation mutate the shared list through the item service.
type itemSink struct {
	items IItemService
}

func (k *itemSink) Items(ctx context.Context) ([]prompt.ListItem, error) {
	items, err := k.items.List(ctx, dto.ItemFilter{ShowDone: true})
	if err != nil {
		return nil, err
	}
	return lo.Map(items, func(it *dto.ItemResponse, _ int) prompt.ListItem {
		return prompt.ListItem{ID: it.Id.String(), Text: it.Text, Category: it.Category}
	}), nil
}

func (k *itemSink) Add(ctx context.Context, d conversation.Draft) error {
	_, err := k.items.Create(ctx, &dto.CreateItemRequest{
		Text:     d.Text,
		Category: string(d.Category),
		Link:     d.Link,
		Place:    d.Place,
	})
	return err
}

func (k *itemSink) Update(ctx context.Context, id, text string, category venue.Category) error {
	itemID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("item id %q: %w", id, err)
	}

	req := &dto.UpdateItemRequest{}
	if t := strings.TrimSpace(text); t != "" {
		req.Text = &t
	}
	if category != "" {
		c := string(category)
		req.Category = &c
	}
	_, err = k.items.Update(ctx, itemID, req)
	return err
}

func (k *itemSink) Delete(ctx context.Context, id string) (bool, error) {
	itemID, err := uuid.Parse(id)
	if err != nil {
		return false, fmt.Errorf("item id %q: %w", id, err)
	}
	return k.items.Delete(ctx, itemID)
}
