package grammar

import (
	"testing"

	"friendlist-be/internal/pkg/logger"
	"friendlist-be/pkg/venue"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestParser() *Parser {
	return NewParser(logger.NewNopLogger())
}

func TestParse_FencedRecommendations(t *testing.T) {
	raw := "Here are some great options:\n```recommendations\n" +
		`[{"text":"Death & Co","category":"Nightlife","place":{"name":"Death & Co","type":"Bar","rating":4.6,"reviewCount":2100}},` +
		`{"text":"Amor y Amargo","category":"nightlife"},` +
		`{"text":"PDT","category":"Bars"}]` +
		"\n```"

	res := newTestParser().Parse(raw)

	require.Equal(t, KindRecommendations, res.Kind)
	assert.Nil(t, res.Proposal)
	require.Len(t, res.Recommendations, 3)
	assert.Equal(t, "Here are some great options:", res.Display)
	assert.NotContains(t, res.Display, "```")

	assert.Equal(t, "Death & Co", res.Recommendations[0].Text)
	require.NotNil(t, res.Recommendations[0].Place)
	assert.Equal(t, 4.6, *res.Recommendations[0].Place.Rating)
	assert.Equal(t, 2100, *res.Recommendations[0].Place.ReviewCount)
	assert.Equal(t, venue.CategoryNightlife, res.Recommendations[1].Category)
	assert.Equal(t, venue.CategoryOther, res.Recommendations[2].Category)
}

func TestParse_FencedAction(t *testing.T) {
	raw := "Found it! Here's what I found about Carbone:\n```action\n" +
		`{"action":"add","text":"Carbone","category":"Food","link":"https://www.google.com/maps/search/?api=1&query=Carbone",` +
		`"place":{"name":"Carbone","type":"Restaurant","neighborhood":"Greenwich Village","priceRange":"$$$$"}}` +
		"\n```"

	res := newTestParser().Parse(raw)

	require.Equal(t, KindProposal, res.Kind)
	require.NotNil(t, res.Proposal)
	assert.Empty(t, res.Recommendations)
	assert.Equal(t, ActionAdd, res.Proposal.Action)
	assert.Equal(t, "Carbone", res.Proposal.Text)
	assert.Equal(t, venue.CategoryFood, res.Proposal.Category)
	assert.Equal(t, "Greenwich Village", res.Proposal.Place.Neighborhood)
	assert.Equal(t, "Found it! Here's what I found about Carbone:", res.Display)
}

func TestParse_Precedence(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{
			name: "both fenced",
			raw: "Options:\n```action\n{\"action\":\"add\",\"text\":\"Carbone\"}\n```\n" +
				"```recommendations\n[{\"text\":\"Via Carota\"}]\n```",
		},
		{
			name: "bare array and fenced action",
			raw:  "Try [{\"text\":\"Via Carota\",\"category\":\"Food\"}] or\n```action\n{\"action\":\"add\",\"text\":\"Carbone\"}\n```",
		},
		{
			name: "both bare",
			raw:  "{\"action\":\"add\",\"text\":\"Carbone\"} and [{\"text\":\"Via Carota\"}]",
		},
	}

	p := newTestParser()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := p.Parse(tt.raw)
			assert.Equal(t, KindRecommendations, res.Kind)
			assert.Nil(t, res.Proposal)
			require.Len(t, res.Recommendations, 1)
			assert.Equal(t, "Via Carota", res.Recommendations[0].Text)
		})
	}
}

func TestParse_MalformedFenceFallsBackToPlainText(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"trailing comma", "Here you go:\n```recommendations\n[{\"text\": \"Carbone\",}\n```"},
		{"truncated value", "Sure:\n```action\n{\"action\": \"add\", \"text\": }\n```"},
		{"not json", "```recommendations\nnot json at all\n```"},
		{"extra closing bracket", "Here\n```recommendations\n[{\"text\":\"A\"}]]\n```"},
		{"extra closing brace", "Sure\n```action\n{\"action\":\"add\",\"text\":\"Carbone\"}}\n```"},
		{"valid object inside broken array", "Options:\n```recommendations\n[{\"text\":\"Lucali\"} {\"text\":\"Via Carota\"}]\n```"},
	}

	p := newTestParser()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := p.Parse(tt.raw)
			assert.Equal(t, KindPlainText, res.Kind)
			assert.Equal(t, tt.raw, res.Display)
			assert.Nil(t, res.Proposal)
			assert.Nil(t, res.Recommendations)
		})
	}
}

func TestParse_MalformedFenceDoesNotHideLaterLiteral(t *testing.T) {
	raw := "```recommendations\n[{\"text\":\"A\"}]]\n```\nOr try [{\"text\":\"Lucali\"}]"

	res := newTestParser().Parse(raw)

	require.Equal(t, KindRecommendations, res.Kind)
	require.Len(t, res.Recommendations, 1)
	assert.Equal(t, "Lucali", res.Recommendations[0].Text)
}

func TestParse_RejectedRecommendationsFenceLeftOutOfActionDisplay(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty array", "Adding it.\n```recommendations\n[]\n```\n```action\n{\"action\":\"add\",\"text\":\"Carbone\"}\n```"},
		{"malformed array", "Adding it.\n```recommendations\n[{\"text\":}]\n```\n```action\n{\"action\":\"add\",\"text\":\"Carbone\"}\n```"},
	}

	p := newTestParser()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := p.Parse(tt.raw)
			require.Equal(t, KindProposal, res.Kind)
			assert.Equal(t, "Carbone", res.Proposal.Text)
			assert.Equal(t, "Adding it.", res.Display)
		})
	}
}

func TestParse_BareFallbacks(t *testing.T) {
	tests := []struct {
		name        string
		raw         string
		wantKind    Kind
		wantDisplay string
	}{
		{
			name:        "anchored array",
			raw:         "Here are a few:\n[{\"text\": \"Attaboy\", \"category\": \"Nightlife\"}, {\"text\": \"Double Chicken Please\"}]\nEnjoy!",
			wantKind:    KindRecommendations,
			wantDisplay: "Here are a few: Enjoy!",
		},
		{
			name:        "keyword array",
			raw:         "recommendations: [ {\"category\": \"Food\", \"text\": \"Lucali\"} ] hope that helps",
			wantKind:    KindRecommendations,
			wantDisplay: "hope that helps",
		},
		{
			name:        "anchored action with nested place",
			raw:         "Got it. {\"action\": \"delete\", \"text\": \"Carbone\", \"editItemId\": \"1a2b3c4d\", \"place\": {\"name\": \"Carbone\"}} Done?",
			wantKind:    KindProposal,
			wantDisplay: "Got it. Done?",
		},
		{
			name:        "plain text",
			raw:         "Which neighborhood are you thinking about?",
			wantKind:    KindPlainText,
			wantDisplay: "Which neighborhood are you thinking about?",
		},
		{
			name:        "array without text key",
			raw:         "Numbers [1, 2, 3] are not places",
			wantKind:    KindPlainText,
			wantDisplay: "Numbers [1, 2, 3] are not places",
		},
		{
			name:        "unknown action",
			raw:         "```action\n{\"action\": \"dance\", \"text\": \"Carbone\"}\n```",
			wantKind:    KindPlainText,
			wantDisplay: "```action\n{\"action\": \"dance\", \"text\": \"Carbone\"}\n```",
		},
	}

	p := newTestParser()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := p.Parse(tt.raw)
			assert.Equal(t, tt.wantKind, res.Kind)
			assert.Equal(t, tt.wantDisplay, res.Display)
		})
	}
}

func TestParse_EditProposalKeepsReference(t *testing.T) {
	raw := "Updating it:\n```action\n{\"action\":\"EDIT\",\"text\":\"Carbone (dinner)\",\"category\":\"Food\",\"editItemId\":\"9f8e7d6c\"}\n```"

	res := newTestParser().Parse(raw)

	require.Equal(t, KindProposal, res.Kind)
	assert.Equal(t, ActionEdit, res.Proposal.Action)
	assert.Equal(t, "9f8e7d6c", res.Proposal.EditItemID)
}

func TestParse_BracketsInsideStrings(t *testing.T) {
	raw := "Picks:\n[{\"text\": \"Bar ]Goto[\", \"place\": {\"name\": \"Bar Goto\", \"tips\": \"ask for the [secret] menu }\"}}]\nThat's all."

	res := newTestParser().Parse(raw)

	require.Equal(t, KindRecommendations, res.Kind)
	require.Len(t, res.Recommendations, 1)
	assert.Equal(t, "Bar ]Goto[", res.Recommendations[0].Text)
	assert.Equal(t, "ask for the [secret] menu }", res.Recommendations[0].Place.Tips)
	assert.Equal(t, "Picks: That's all.", res.Display)
}

func TestParse_NumericStringsInPlace(t *testing.T) {
	raw := "```recommendations\n[{\"text\":\"Katz's\",\"place\":{\"name\":\"Katz's\",\"type\":\"Deli\",\"rating\":\"4.5\",\"reviewCount\":\"12,345\"}}]\n```"

	res := newTestParser().Parse(raw)

	require.Equal(t, KindRecommendations, res.Kind)
	place := res.Recommendations[0].Place
	require.NotNil(t, place)
	assert.Equal(t, 4.5, *place.Rating)
	assert.Equal(t, 12345, *place.ReviewCount)
}

func TestBalancedEnd(t *testing.T) {
	tests := []struct {
		in    string
		open  byte
		close byte
		want  int
	}{
		{`[1,2]`, '[', ']', 5},
		{`[[1],[2,[3]]] tail`, '[', ']', 13},
		{`{"a":{"b":[1]}} x`, '{', '}', 15},
		{`["]"] rest`, '[', ']', 5},
		{`["\"]"]`, '[', ']', 7},
		{`[1,2`, '[', ']', -1},
		{`x[1]`, '[', ']', -1},
		{``, '[', ']', -1},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, BalancedEnd(tt.in, tt.open, tt.close), "BalancedEnd(%q)", tt.in)
	}
}

func TestIndexFold(t *testing.T) {
	assert.Equal(t, 4, indexFold("Ok: RECOMMENDATIONS [", "recommendations"))
	assert.Equal(t, -1, indexFold("nothing here", "action"))
	assert.Equal(t, 6, indexFold("café action", "action"))
}
