package conversation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"friendlist-be/internal/pkg/logger"
	"friendlist-be/pkg/assistant/grammar"
	"friendlist-be/pkg/assistant/prompt"
	"friendlist-be/pkg/auth"
	"friendlist-be/pkg/grounding"
	"friendlist-be/pkg/llm"
	"friendlist-be/pkg/venue"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fence = "```"

type update struct {
	ID       string
	Text     string
	Category venue.Category
}

type memorySink struct {
	mu      sync.Mutex
	items   []prompt.ListItem
	adds    []Draft
	updates []update
	deletes []string
}

func (s *memorySink) Items(context.Context) ([]prompt.ListItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]prompt.ListItem(nil), s.items...), nil
}

func (s *memorySink) Add(_ context.Context, d Draft) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.adds = append(s.adds, d)
	s.items = append([]prompt.ListItem{{ID: uuid.NewString(), Text: d.Text, Category: d.Category}}, s.items...)
	return nil
}

func (s *memorySink) Update(_ context.Context, id, text string, category venue.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates = append(s.updates, update{ID: id, Text: text, Category: category})
	return nil
}

func (s *memorySink) Delete(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletes = append(s.deletes, id)
	return true, nil
}

type scriptedProvider struct {
	mu      sync.Mutex
	replies []string
	err     error
	calls   [][]llm.Message
	started chan struct{}
	release chan struct{}
}

func (p *scriptedProvider) Complete(_ context.Context, history []llm.Message, _ ...llm.Option) (*llm.Response, error) {
	p.mu.Lock()
	p.calls = append(p.calls, history)
	idx := len(p.calls) - 1
	p.mu.Unlock()

	if p.started != nil {
		p.started <- struct{}{}
	}
	if p.release != nil {
		<-p.release
	}
	if p.err != nil {
		return nil, p.err
	}
	return &llm.Response{Content: p.replies[idx%len(p.replies)]}, nil
}

func (p *scriptedProvider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	res, err := p.Complete(ctx, history, opts...)
	if err != nil {
		return "", err
	}
	return res.Content, nil
}

func (p *scriptedProvider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return p.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, opts...)
}

type staticGrounder struct {
	result grounding.Result
	calls  []string
}

func (g *staticGrounder) Ground(_ context.Context, text string) grounding.Result {
	g.calls = append(g.calls, text)
	return g.result
}

type recordingFilter struct {
	queries []string
}

func (f *recordingFilter) ApplySearch(q string) {
	f.queries = append(f.queries, q)
}

func testSession() *auth.Session {
	now := time.Now()
	return &auth.Session{Subject: "friends", IssuedAt: now, ExpiresAt: now.Add(time.Hour)}
}

type harness struct {
	conv     *Conversation
	sink     *memorySink
	provider *scriptedProvider
	grounder *staticGrounder
	filter   *recordingFilter
}

func newHarness(provider *scriptedProvider, sink *memorySink) *harness {
	if sink == nil {
		sink = &memorySink{}
	}
	h := &harness{
		sink:     sink,
		provider: provider,
		grounder: &staticGrounder{},
		filter:   &recordingFilter{},
	}
	h.conv = New(testSession(), Dependencies{
		Grounder: h.grounder,
		Provider: provider,
		Parser:   grammar.NewParser(logger.NewNopLogger()),
		Sink:     sink,
		Filter:   h.filter,
		Logger:   logger.NewNopLogger(),
	})
	return h
}

func TestSubmit_RecommendationsCommitByIndex(t *testing.T) {
	reply := "Here are some great options:\n" + fence + `recommendations
[
  {"text": "Death & Co", "category": "Nightlife"},
  {"text": "Please Don't Tell", "category": "Nightlife"},
  {"text": "Amor y Amargo", "category": "Nightlife"}
]
` + fence
	h := newHarness(&scriptedProvider{replies: []string{reply}}, nil)
	h.grounder.result = grounding.Result{Venues: []grounding.Venue{
		{Name: "Death & Co", Type: "Bar"},
		{Name: "Please Don't Tell", Type: "Bar"},
		{Name: "Amor y Amargo", Type: "Bar"},
	}}

	msg, err := h.conv.Submit(context.Background(), "best cocktail bars in East Village")
	require.NoError(t, err)

	assert.Equal(t, []string{"best cocktail bars in East Village"}, h.grounder.calls)
	require.Len(t, h.provider.calls, 1)
	assert.Contains(t, h.provider.calls[0][0].Content, "GOOGLE PLACES API RESULTS")

	assert.Equal(t, "Here are some great options:", msg.Content)
	require.Len(t, msg.Recommendations, 3)
	assert.Nil(t, msg.Proposal)

	updated, err := h.conv.CommitRecommendation(context.Background(), msg.ID, 1)
	require.NoError(t, err)

	assert.Equal(t, []int{1}, updated.AddedRecommendations)
	assert.False(t, updated.RecommendationAdded(0))
	assert.False(t, updated.RecommendationAdded(2))
	require.Len(t, h.sink.adds, 1)
	assert.Equal(t, "Please Don't Tell", h.sink.adds[0].Text)

	again, err := h.conv.CommitRecommendation(context.Background(), msg.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, again.AddedRecommendations)
	assert.Len(t, h.sink.adds, 1)

	_, err = h.conv.CommitRecommendation(context.Background(), msg.ID, 3)
	assert.ErrorIs(t, err, ErrRecommendationNotFound)
}

func TestAccept_AddIsIdempotent(t *testing.T) {
	reply := "Found it!\n" + fence + `action
{"action": "add", "text": "Carbone", "category": "Food", "place": {"name": "Carbone", "type": "Restaurant", "priceRange": "$$$$"}}
` + fence
	h := newHarness(&scriptedProvider{replies: []string{reply}}, nil)

	msg, err := h.conv.Submit(context.Background(), "add Carbone")
	require.NoError(t, err)
	require.NotNil(t, msg.Proposal)
	assert.Equal(t, StatusPending, msg.ProposalStatus)
	assert.Equal(t, "Found it!", msg.Content)

	accepted, err := h.conv.Accept(context.Background(), msg.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusAccepted, accepted.ProposalStatus)

	require.Len(t, h.sink.adds, 1)
	assert.Equal(t, "Carbone", h.sink.adds[0].Text)
	assert.Equal(t, venue.CategoryFood, h.sink.adds[0].Category)
	require.NotNil(t, h.sink.adds[0].Place)
	assert.Equal(t, "$$$$", h.sink.adds[0].Place.PriceRange)

	snap := h.conv.Snapshot()
	require.Len(t, snap.Messages, 3)
	assert.Equal(t, `Added "Carbone" to your list!`, snap.Messages[2].Content)

	_, err = h.conv.Accept(context.Background(), msg.ID)
	require.NoError(t, err)
	assert.Len(t, h.sink.adds, 1)
	assert.Len(t, h.conv.Snapshot().Messages, 3)
}

func TestSubmit_RefusedWhileInFlight(t *testing.T) {
	provider := &scriptedProvider{
		replies: []string{"Sure thing."},
		started: make(chan struct{}, 4),
		release: make(chan struct{}),
	}
	h := newHarness(provider, nil)

	done := make(chan error, 1)
	go func() {
		_, err := h.conv.Submit(context.Background(), "first")
		done <- err
	}()
	<-provider.started

	_, err := h.conv.Submit(context.Background(), "second")
	assert.ErrorIs(t, err, ErrTurnInFlight)

	snap := h.conv.Snapshot()
	assert.True(t, snap.InFlight)
	require.Len(t, snap.Messages, 1)
	assert.Equal(t, "first", snap.Messages[0].Content)

	close(provider.release)
	require.NoError(t, <-done)

	_, err = h.conv.Submit(context.Background(), "third")
	require.NoError(t, err)
	assert.Len(t, h.conv.Snapshot().Messages, 4)
}

func TestSubmit_GatewayFailure(t *testing.T) {
	h := newHarness(&scriptedProvider{err: errors.New("upstream 502")}, nil)

	msg, err := h.conv.Submit(context.Background(), "add Carbone")
	require.NoError(t, err)
	assert.Equal(t, MsgGatewayFailure, msg.Content)
	assert.Nil(t, msg.Proposal)
	assert.False(t, h.conv.Snapshot().InFlight)
}

func TestSubmit_HistoryExcludesNewTurn(t *testing.T) {
	h := newHarness(&scriptedProvider{replies: []string{"one", "two"}}, nil)

	_, err := h.conv.Submit(context.Background(), "hello")
	require.NoError(t, err)
	_, err = h.conv.Submit(context.Background(), "again")
	require.NoError(t, err)

	second := h.provider.calls[1]
	require.Len(t, second, 4)
	assert.Equal(t, llm.Message{Role: "user", Content: "hello"}, second[1])
	assert.Equal(t, llm.Message{Role: "assistant", Content: "one"}, second[2])
	assert.Equal(t, llm.Message{Role: "user", Content: "again"}, second[3])
}

func TestAccept_EditAndDelete(t *testing.T) {
	itemID := "3f2a9c1e-7d4b-4e0a-9b1c-1234567890ab"
	sink := &memorySink{items: []prompt.ListItem{
		{ID: itemID, Text: "Carbone", Category: venue.CategoryFood},
		{ID: "abcd0001-0000", Text: "Dup A"},
		{ID: "abcd0002-0000", Text: "Dup B"},
	}}

	tests := []struct {
		name        string
		reply       string
		wantStatus  ProposalStatus
		wantMessage string
		check       func(t *testing.T, s *memorySink)
	}{
		{
			name:        "edit by short id",
			reply:       `{"action": "edit", "text": "Carbone NYC", "category": "food", "editItemId": "3f2a9c1e"}`,
			wantStatus:  StatusAccepted,
			wantMessage: MsgUpdated,
			check: func(t *testing.T, s *memorySink) {
				require.Len(t, s.updates, 1)
				assert.Equal(t, update{ID: itemID, Text: "Carbone NYC", Category: venue.CategoryFood}, s.updates[0])
			},
		},
		{
			name:        "delete by full id",
			reply:       `{"action": "delete", "text": "Carbone", "editItemId": "` + itemID + `"}`,
			wantStatus:  StatusAccepted,
			wantMessage: `Removed "Carbone" from your list.`,
			check: func(t *testing.T, s *memorySink) {
				assert.Equal(t, []string{itemID}, s.deletes)
			},
		},
		{
			name:       "edit without reference is inert",
			reply:      `{"action": "edit", "text": "Carbone"}`,
			wantStatus: StatusPending,
			check: func(t *testing.T, s *memorySink) {
				assert.Empty(t, s.updates)
			},
		},
		{
			name:       "unknown reference is inert",
			reply:      `{"action": "delete", "text": "Ghost", "editItemId": "ffffffff"}`,
			wantStatus: StatusPending,
			check: func(t *testing.T, s *memorySink) {
				assert.Empty(t, s.deletes)
			},
		},
		{
			name:       "ambiguous prefix is inert",
			reply:      `{"action": "delete", "text": "Dup", "editItemId": "abcd"}`,
			wantStatus: StatusPending,
			check: func(t *testing.T, s *memorySink) {
				assert.Empty(t, s.deletes)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &memorySink{items: append([]prompt.ListItem(nil), sink.items...)}
			h := newHarness(&scriptedProvider{replies: []string{"On it.\n" + fence + "action\n" + tt.reply + "\n" + fence}}, s)

			msg, err := h.conv.Submit(context.Background(), "change it")
			require.NoError(t, err)
			require.NotNil(t, msg.Proposal)

			res, err := h.conv.Accept(context.Background(), msg.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, res.ProposalStatus)

			msgs := h.conv.Snapshot().Messages
			if tt.wantMessage != "" {
				require.Len(t, msgs, 3)
				assert.Equal(t, tt.wantMessage, msgs[2].Content)
			} else {
				assert.Len(t, msgs, 2)
			}
			tt.check(t, s)
		})
	}
}

func TestAccept_SearchForwardsQuery(t *testing.T) {
	reply := fence + "action\n" + `{"action": "search", "text": "sushi"}` + "\n" + fence
	h := newHarness(&scriptedProvider{replies: []string{reply}}, nil)

	msg, err := h.conv.Submit(context.Background(), "show me sushi places")
	require.NoError(t, err)

	res, err := h.conv.Accept(context.Background(), msg.ID)
	require.NoError(t, err)

	assert.Equal(t, StatusAccepted, res.ProposalStatus)
	assert.Equal(t, []string{"sushi"}, h.filter.queries)

	snap := h.conv.Snapshot()
	assert.Equal(t, "sushi", snap.SearchQuery)
	assert.Len(t, snap.Messages, 2)
}

func TestReject(t *testing.T) {
	reply := fence + "action\n" + `{"action": "add", "text": "Carbone", "category": "Food"}` + "\n" + fence
	h := newHarness(&scriptedProvider{replies: []string{reply}}, nil)

	msg, err := h.conv.Submit(context.Background(), "add Carbone")
	require.NoError(t, err)

	res, err := h.conv.Reject(msg.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, res.ProposalStatus)

	msgs := h.conv.Snapshot().Messages
	require.Len(t, msgs, 3)
	assert.Equal(t, MsgRejected, msgs[2].Content)

	res, err = h.conv.Accept(context.Background(), msg.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, res.ProposalStatus)
	assert.Empty(t, h.sink.adds)

	_, err = h.conv.Reject(msgs[0].ID)
	assert.ErrorIs(t, err, ErrNoProposal)
	_, err = h.conv.Reject("missing")
	assert.ErrorIs(t, err, ErrMessageNotFound)
}

func TestClear_DropsInFlightReply(t *testing.T) {
	provider := &scriptedProvider{
		replies: []string{"late reply"},
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	sink := &memorySink{items: []prompt.ListItem{{ID: "keep-me", Text: "Carbone"}}}
	h := newHarness(provider, sink)

	done := make(chan error, 1)
	go func() {
		_, err := h.conv.Submit(context.Background(), "hello")
		done <- err
	}()
	<-provider.started

	h.conv.Clear()
	close(provider.release)

	assert.ErrorIs(t, <-done, ErrTurnDiscarded)
	snap := h.conv.Snapshot()
	assert.Empty(t, snap.Messages)
	assert.False(t, snap.InFlight)

	items, _ := sink.Items(context.Background())
	assert.Len(t, items, 1)
}

func TestSubmit_Guards(t *testing.T) {
	h := newHarness(&scriptedProvider{replies: []string{"hi"}}, nil)
	_, err := h.conv.Submit(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyInput)

	expired := &auth.Session{Subject: "friends", ExpiresAt: time.Now().Add(-time.Minute)}
	conv := New(expired, Dependencies{Provider: h.provider, Sink: h.sink})
	_, err = conv.Submit(context.Background(), "hello")
	assert.ErrorIs(t, err, ErrSessionExpired)
	assert.Empty(t, conv.Snapshot().Messages)
}

func TestRenew_ExtendsExpiredSession(t *testing.T) {
	h := newHarness(&scriptedProvider{replies: []string{"hi"}}, nil)
	stale := &auth.Session{Subject: "friends", ExpiresAt: time.Now().Add(-time.Minute)}
	conv := New(stale, Dependencies{Grounder: h.grounder, Provider: h.provider, Sink: h.sink})

	_, err := conv.Submit(context.Background(), "hello")
	require.ErrorIs(t, err, ErrSessionExpired)

	assert.False(t, conv.Renew(&auth.Session{Subject: "someone-else", ExpiresAt: time.Now().Add(time.Hour)}))
	assert.False(t, conv.Renew(nil))

	require.True(t, conv.Renew(testSession()))
	reply, err := conv.Submit(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "hi", reply.Content)

	// An older token never replaces a fresher one.
	require.True(t, conv.Renew(stale))
	assert.False(t, conv.Session().Expired(time.Now()))
}
