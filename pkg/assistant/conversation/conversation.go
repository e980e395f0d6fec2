// Package conversation holds one assistant conversation: its transcript, the
// proposals and recommendation sets the model produced, and the decisions the
// user made about them.
//
// A turn runs grounding, prompt assembly, the model call and reply parsing
// outside the lock. Only one turn may be in flight at a time; a second Submit is
// refused, never queued.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"friendlist-be/internal/pkg/logger"
	"friendlist-be/internal/pkg/metrics"
	"friendlist-be/pkg/assistant/grammar"
	"friendlist-be/pkg/assistant/prompt"
	"friendlist-be/pkg/auth"
	"friendlist-be/pkg/grounding"
	"friendlist-be/pkg/llm"

	"github.com/google/uuid"
)

var (
	ErrTurnInFlight           = errors.New("a reply is still being generated")
	ErrMessageNotFound        = errors.New("message not found")
	ErrNoProposal             = errors.New("message carries no proposal")
	ErrRecommendationNotFound = errors.New("recommendation not found")
	ErrEmptyInput             = errors.New("message is empty")
	ErrSessionExpired         = errors.New("session expired")
	ErrTurnDiscarded          = errors.New("conversation was cleared before the reply arrived")
)

const moduleName = "Conversation"

type Dependencies struct {
	Grounder Grounder
	Provider llm.LLMProvider
	Parser   *grammar.Parser
	Sink     Sink
	Filter   Filter
	Logger   logger.ILogger
}

type Option func(*Conversation)

// WithModelOptions sets the options passed on every model call.
func WithModelOptions(opts ...llm.Option) Option {
	return func(c *Conversation) {
		c.modelOpts = opts
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Conversation) {
		c.now = now
	}
}

func WithID(id string) Option {
	return func(c *Conversation) {
		if id != "" {
			c.id = id
		}
	}
}

type Conversation struct {
	id        string
	session   *auth.Session
	deps      Dependencies
	modelOpts []llm.Option
	now       func() time.Time

	// decisions serializes accept, reject and commit so each is applied once.
	decisions sync.Mutex

	mu          sync.Mutex
	messages    []*Message
	inFlight    bool
	generation  uint64
	searchQuery string
	updatedAt   time.Time
}

// Snapshot is a copy of the conversation state safe to hand out.
type Snapshot struct {
	ID          string    `json:"id"`
	Subject     string    `json:"subject"`
	Messages    []Message `json:"messages"`
	InFlight    bool      `json:"in_flight"`
	SearchQuery string    `json:"search_query,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func New(session *auth.Session, deps Dependencies, opts ...Option) *Conversation {
	if deps.Logger == nil {
		deps.Logger = logger.NewNopLogger()
	}
	if deps.Parser == nil {
		deps.Parser = grammar.NewParser(deps.Logger)
	}
	c := &Conversation{
		id:      uuid.NewString(),
		session: session,
		deps:    deps,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.updatedAt = c.now()
	return c
}

func (c *Conversation) ID() string {
	return c.id
}

func (c *Conversation) Session() *auth.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// Renew replaces the stored session with a later one for the same subject, so a
// conversation can outlive the token it was started with.
func (c *Conversation) Renew(session *auth.Session) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if session == nil || c.session == nil || session.Subject != c.session.Subject {
		return false
	}
	if session.ExpiresAt.After(c.session.ExpiresAt) {
		c.session = session
	}
	return true
}

func (c *Conversation) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	msgs := make([]Message, len(c.messages))
	for i, m := range c.messages {
		msgs[i] = m.clone()
	}
	snap := Snapshot{
		ID:          c.id,
		Messages:    msgs,
		InFlight:    c.inFlight,
		SearchQuery: c.searchQuery,
		UpdatedAt:   c.updatedAt,
	}
	if c.session != nil {
		snap.Subject = c.session.Subject
	}
	return snap
}

// Submit runs one assistant turn for text and returns the assistant message it
// appended. Gateway failures are not errors: they produce the generic apology.
func (c *Conversation) Submit(ctx context.Context, text string) (*Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyInput
	}

	c.mu.Lock()
	if c.session.Expired(c.now()) {
		c.mu.Unlock()
		return nil, ErrSessionExpired
	}
	if c.inFlight {
		c.mu.Unlock()
		metrics.TurnsTotal.WithLabelValues("refused").Inc()
		return nil, ErrTurnInFlight
	}
	c.inFlight = true
	history := c.historyLocked()
	gen := c.generation
	c.appendLocked(&Message{Role: RoleUser, Content: text})
	c.mu.Unlock()

	start := time.Now()
	defer func() {
		c.mu.Lock()
		c.inFlight = false
		c.mu.Unlock()
		metrics.TurnDuration.Observe(time.Since(start).Seconds())
	}()

	reply, outcome := c.runTurn(ctx, text, history)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.generation != gen {
		metrics.TurnsTotal.WithLabelValues("dropped").Inc()
		c.deps.Logger.Info(moduleName, "Dropped reply for cleared transcript", map[string]interface{}{
			"conversation_id": c.id,
		})
		return nil, ErrTurnDiscarded
	}

	c.appendLocked(reply)
	metrics.TurnsTotal.WithLabelValues(outcome).Inc()

	out := reply.clone()
	return &out, nil
}

func (c *Conversation) runTurn(ctx context.Context, text string, history []llm.Message) (*Message, string) {
	items, err := c.deps.Sink.Items(ctx)
	if err != nil {
		c.deps.Logger.Warn(moduleName, "Could not load list for prompt", map[string]interface{}{
			"conversation_id": c.id,
			"error":           err.Error(),
		})
		items = nil
	}

	var ground grounding.Result
	if c.deps.Grounder != nil {
		ground = c.deps.Grounder.Ground(ctx, text)
	}

	messages := prompt.Build(prompt.Input{
		Items:     items,
		Grounding: ground,
		History:   history,
		UserText:  text,
	})

	resp, err := c.deps.Provider.Complete(ctx, messages, c.modelOpts...)
	if err != nil {
		c.deps.Logger.Error(moduleName, "Model call failed", map[string]interface{}{
			"conversation_id": c.id,
			"error":           err.Error(),
		})
		return &Message{Role: RoleAssistant, Content: MsgGatewayFailure}, "gateway_error"
	}

	result := c.deps.Parser.Parse(resp.Content)
	metrics.RepliesParsedTotal.WithLabelValues(string(result.Kind)).Inc()

	msg := &Message{Role: RoleAssistant, Content: result.Display}
	switch result.Kind {
	case grammar.KindProposal:
		msg.Proposal = result.Proposal
		msg.ProposalStatus = StatusPending
	case grammar.KindRecommendations:
		msg.Recommendations = result.Recommendations
	}
	return msg, "replied"
}

// Accept applies the pending proposal on messageID. Accepting a decided proposal
// returns the message unchanged. An edit or delete whose reference does not
// resolve to a current item is inert and leaves the proposal pending.
func (c *Conversation) Accept(ctx context.Context, messageID string) (*Message, error) {
	c.decisions.Lock()
	defer c.decisions.Unlock()

	c.mu.Lock()
	msg := c.findLocked(messageID)
	if msg == nil {
		c.mu.Unlock()
		return nil, ErrMessageNotFound
	}
	if msg.Proposal == nil {
		c.mu.Unlock()
		return nil, ErrNoProposal
	}
	if msg.ProposalStatus != StatusPending {
		out := msg.clone()
		c.mu.Unlock()
		return &out, nil
	}
	proposal := *msg.Proposal
	c.mu.Unlock()

	confirmation, applied, err := c.apply(ctx, proposal)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	msg = c.findLocked(messageID)
	if msg == nil {
		return nil, ErrMessageNotFound
	}
	if applied {
		msg.ProposalStatus = StatusAccepted
		metrics.ProposalDecisionsTotal.WithLabelValues(string(proposal.Action), "accepted").Inc()
		if confirmation != "" {
			c.appendLocked(&Message{Role: RoleAssistant, Content: confirmation})
		}
	}
	out := msg.clone()
	return &out, nil
}

func (c *Conversation) apply(ctx context.Context, p grammar.Proposal) (string, bool, error) {
	switch p.Action {
	case grammar.ActionAdd:
		err := c.deps.Sink.Add(ctx, Draft{Text: p.Text, Category: p.Category, Link: p.Link, Place: p.Place})
		if err != nil {
			return "", false, fmt.Errorf("add item: %w", err)
		}
		return fmt.Sprintf("Added \"%s\" to your list!", p.Text), true, nil

	case grammar.ActionEdit:
		id, ok := c.resolve(ctx, p.EditItemID)
		if !ok {
			return "", false, nil
		}
		if err := c.deps.Sink.Update(ctx, id, p.Text, p.Category); err != nil {
			return "", false, fmt.Errorf("update item: %w", err)
		}
		return MsgUpdated, true, nil

	case grammar.ActionDelete:
		id, ok := c.resolve(ctx, p.EditItemID)
		if !ok {
			return "", false, nil
		}
		if _, err := c.deps.Sink.Delete(ctx, id); err != nil {
			return "", false, fmt.Errorf("delete item: %w", err)
		}
		return fmt.Sprintf("Removed \"%s\" from your list.", p.Text), true, nil

	case grammar.ActionSearch:
		c.mu.Lock()
		c.searchQuery = p.Text
		c.mu.Unlock()
		if c.deps.Filter != nil {
			c.deps.Filter.ApplySearch(p.Text)
		}
		return "", true, nil
	}
	return "", false, nil
}

// resolve maps a model-supplied reference to a full item id. The model only sees
// short prefixes, so a reference matches an item id exactly or as its unique prefix.
func (c *Conversation) resolve(ctx context.Context, ref string) (string, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", false
	}

	items, err := c.deps.Sink.Items(ctx)
	if err != nil {
		c.deps.Logger.Warn(moduleName, "Could not load list to resolve reference", map[string]interface{}{
			"reference": ref,
			"error":     err.Error(),
		})
		return "", false
	}

	var match string
	matches := 0
	for _, it := range items {
		if it.ID == ref {
			return it.ID, true
		}
		if strings.HasPrefix(it.ID, ref) {
			match = it.ID
			matches++
		}
	}
	if matches != 1 {
		c.deps.Logger.Info(moduleName, "Unresolved item reference", map[string]interface{}{
			"reference": ref,
			"matches":   matches,
		})
		return "", false
	}
	return match, true
}

// Reject marks the pending proposal rejected and asks the user what to change.
func (c *Conversation) Reject(messageID string) (*Message, error) {
	c.decisions.Lock()
	defer c.decisions.Unlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	msg := c.findLocked(messageID)
	if msg == nil {
		return nil, ErrMessageNotFound
	}
	if msg.Proposal == nil {
		return nil, ErrNoProposal
	}
	if msg.ProposalStatus == StatusPending {
		msg.ProposalStatus = StatusRejected
		metrics.ProposalDecisionsTotal.WithLabelValues(string(msg.Proposal.Action), "rejected").Inc()
		c.appendLocked(&Message{Role: RoleAssistant, Content: MsgRejected})
	}
	out := msg.clone()
	return &out, nil
}

// CommitRecommendation adds recommendation index of messageID to the list once.
func (c *Conversation) CommitRecommendation(ctx context.Context, messageID string, index int) (*Message, error) {
	c.decisions.Lock()
	defer c.decisions.Unlock()

	c.mu.Lock()
	msg := c.findLocked(messageID)
	if msg == nil {
		c.mu.Unlock()
		return nil, ErrMessageNotFound
	}
	if index < 0 || index >= len(msg.Recommendations) {
		c.mu.Unlock()
		return nil, ErrRecommendationNotFound
	}
	if msg.RecommendationAdded(index) {
		out := msg.clone()
		c.mu.Unlock()
		return &out, nil
	}
	rec := msg.Recommendations[index]
	c.mu.Unlock()

	err := c.deps.Sink.Add(ctx, Draft{Text: rec.Text, Category: rec.Category, Link: rec.Link, Place: rec.Place})
	if err != nil {
		return nil, fmt.Errorf("add recommendation: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	msg = c.findLocked(messageID)
	if msg == nil {
		return nil, ErrMessageNotFound
	}
	if !msg.RecommendationAdded(index) {
		msg.AddedRecommendations = append(msg.AddedRecommendations, index)
		c.updatedAt = c.now()
	}
	out := msg.clone()
	return &out, nil
}

// Clear empties the transcript. Stored items are not touched. A reply still in
// flight is discarded when it lands.
func (c *Conversation) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.messages = nil
	c.searchQuery = ""
	c.generation++
	c.updatedAt = c.now()
}

func (c *Conversation) historyLocked() []llm.Message {
	out := make([]llm.Message, len(c.messages))
	for i, m := range c.messages {
		out[i] = llm.Message{Role: string(m.Role), Content: m.Content}
	}
	return out
}

func (c *Conversation) appendLocked(m *Message) {
	m.ID = uuid.NewString()
	m.CreatedAt = c.now()
	c.messages = append(c.messages, m)
	c.updatedAt = m.CreatedAt
}

func (c *Conversation) findLocked(id string) *Message {
	for _, m := range c.messages {
		if m.ID == id {
			return m
		}
	}
	return nil
}
