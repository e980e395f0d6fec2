package service

import (
	"context"
	"testing"
	"time"

	"friendlist-be/internal/dto"
	"friendlist-be/internal/repository/memory"
	"friendlist-be/pkg/assistant/conversation"
	"friendlist-be/pkg/auth"
	"friendlist-be/pkg/llm"
	"friendlist-be/pkg/localstore"
	"friendlist-be/pkg/venue"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fence = "```"

type cannedProvider struct {
	reply string
	calls int
}

func (p *cannedProvider) Complete(context.Context, []llm.Message, ...llm.Option) (*llm.Response, error) {
	p.calls++
	return &llm.Response{Content: p.reply}, nil
}

func (p *cannedProvider) Chat(ctx context.Context, h []llm.Message, opts ...llm.Option) (string, error) {
	res, err := p.Complete(ctx, h, opts...)
	if err != nil {
		return "", err
	}
	return res.Content, nil
}

func (p *cannedProvider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return p.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, opts...)
}

func newTestAssistant(t *testing.T, reply string) (IAssistantService, IItemService) {
	t.Helper()
	local, err := localstore.Open("")
	require.NoError(t, err)
	items := NewItemService(ItemServiceDeps{Local: local})
	svc := NewAssistantService(memory.NewConversationRepository(time.Hour), items, nil, &cannedProvider{reply: reply}, nil)
	return svc, items
}

func session(subject string) *auth.Session {
	return &auth.Session{Subject: subject, IssuedAt: time.Now(), ExpiresAt: time.Now().Add(time.Hour)}
}

func TestAssistantService_AcceptAddsToItemList(t *testing.T) {
	ctx := context.Background()
	reply := "Found it!\n" + fence + "action\n" +
		`{"action": "add", "text": "Carbone", "category": "Food", "place": {"name": "Carbone", "type": "Restaurant"}}` +
		"\n" + fence
	svc, items := newTestAssistant(t, reply)
	me := session("friends")

	snap, err := svc.Start(ctx, me)
	require.NoError(t, err)

	turn, err := svc.Submit(ctx, me, snap.ID, &dto.SubmitTurnRequest{Text: "add Carbone"})
	require.NoError(t, err)
	require.NotNil(t, turn.Reply.Proposal)
	assert.Len(t, turn.Conversation.Messages, 2)

	res, err := svc.Accept(ctx, me, snap.ID, turn.Reply.ID)
	require.NoError(t, err)
	assert.Equal(t, conversation.StatusAccepted, res.Message.ProposalStatus)

	list, err := items.List(ctx, dto.ItemFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Carbone", list[0].Text)
	assert.Equal(t, venue.CategoryFood, list[0].Category)
	require.NotNil(t, list[0].Place)
	assert.Equal(t, "Restaurant", list[0].Place.Type)
}

func TestAssistantService_EditResolvesShortID(t *testing.T) {
	ctx := context.Background()
	svc, items := newTestAssistant(t, "")
	created, err := items.Create(ctx, &dto.CreateItemRequest{Text: "Carbone", Category: "Food"})
	require.NoError(t, err)

	short := created.Id.String()[:8]
	reply := fence + "action\n" + `{"action": "edit", "text": "Carbone NYC", "category": "Food", "editItemId": "` + short + `"}` + "\n" + fence
	svc = NewAssistantService(memory.NewConversationRepository(time.Hour), items, nil, &cannedProvider{reply: reply}, nil)

	me := session("friends")
	snap, err := svc.Start(ctx, me)
	require.NoError(t, err)
	turn, err := svc.Submit(ctx, me, snap.ID, &dto.SubmitTurnRequest{Text: "rename Carbone"})
	require.NoError(t, err)

	_, err = svc.Accept(ctx, me, snap.ID, turn.Reply.ID)
	require.NoError(t, err)

	list, err := items.List(ctx, dto.ItemFilter{ShowDone: true})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Carbone NYC", list[0].Text)
}

func TestAssistantService_ConversationScopedToSubject(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestAssistant(t, "hi")

	snap, err := svc.Start(ctx, session("friends"))
	require.NoError(t, err)

	_, err = svc.Get(ctx, session("someone-else"), snap.ID)
	assert.ErrorIs(t, err, ErrConversationNotFound)
	_, err = svc.Get(ctx, session("friends"), "missing")
	assert.ErrorIs(t, err, ErrConversationNotFound)

	_, err = svc.Start(ctx, nil)
	assert.ErrorIs(t, err, conversation.ErrSessionExpired)
}

func TestAssistantService_ClearKeepsItems(t *testing.T) {
	ctx := context.Background()
	reply := fence + "recommendations\n" + `[{"text": "Joe's Pizza", "category": "Food"}]` + "\n" + fence
	svc, items := newTestAssistant(t, reply)
	me := session("friends")

	snap, err := svc.Start(ctx, me)
	require.NoError(t, err)
	turn, err := svc.Submit(ctx, me, snap.ID, &dto.SubmitTurnRequest{Text: "pizza?"})
	require.NoError(t, err)

	_, err = svc.CommitRecommendation(ctx, me, snap.ID, turn.Reply.ID, 0)
	require.NoError(t, err)

	cleared, err := svc.Clear(ctx, me, snap.ID)
	require.NoError(t, err)
	assert.Empty(t, cleared.Messages)

	list, err := items.List(ctx, dto.ItemFilter{})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestAssistantService_SubmitUsesCallerSession(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestAssistant(t, "hi")

	shortLived := &auth.Session{Subject: "friends", IssuedAt: time.Now(), ExpiresAt: time.Now().Add(50 * time.Millisecond)}
	snap, err := svc.Start(ctx, shortLived)
	require.NoError(t, err)
	time.Sleep(100 * time.Millisecond)

	_, err = svc.Submit(ctx, shortLived, snap.ID, &dto.SubmitTurnRequest{Text: "hello"})
	assert.ErrorIs(t, err, conversation.ErrSessionExpired)

	turn, err := svc.Submit(ctx, session("friends"), snap.ID, &dto.SubmitTurnRequest{Text: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "hi", turn.Reply.Content)
}
