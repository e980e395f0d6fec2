package prompt

import (
	"fmt"
	"strings"
	"testing"

	"friendlist-be/pkg/grounding"
	"friendlist-be/pkg/llm"
	"friendlist-be/pkg/venue"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestFormatItems(t *testing.T) {
	items := []ListItem{
		{ID: "3f2a9c1e-7d4b-4e0a-9b1c-1234567890ab", Text: "Carbone", Category: venue.CategoryFood},
		{ID: "abc", Text: "Death & Co", Category: venue.CategoryNightlife},
		{Text: "No id yet", Category: venue.CategoryOther},
	}

	got := FormatItems(items)

	assert.Equal(t, strings.Join([]string{
		`- "Carbone" (Food) [id:3f2a9c1e]`,
		`- "Death & Co" (Nightlife) [id:abc]`,
		`- "No id yet" (Other)`,
	}, "\n"), got)
}

func TestFormatItems_Caps(t *testing.T) {
	items := make([]ListItem, 20)
	for i := range items {
		items[i] = ListItem{ID: fmt.Sprintf("id-%02d", i), Text: fmt.Sprintf("item %d", i), Category: venue.CategoryOther}
	}
	lines := strings.Split(FormatItems(items), "\n")
	assert.Len(t, lines, MaxListItems)
	assert.Contains(t, lines[MaxListItems-1], "item 14")
}

func TestFormatVenues(t *testing.T) {
	got := FormatVenues([]grounding.Venue{
		{Name: "Carbone", Type: "Restaurant", Address: "181 Thompson St", Rating: ptr(4.6), ReviewCount: ptr(3120), PriceRange: "$$$$", MapsURL: "https://maps/carbone"},
		{Name: "Unknown", Type: "Place", Address: "Somewhere", MapsURL: "https://maps/unknown"},
	})

	want := "\n\nGOOGLE PLACES API RESULTS (use this real data!):\n" +
		"- Carbone (Restaurant) - 181 Thompson St\n   Rating: 4.6/5 (3120 reviews)\n   Price: $$$$\n   Maps: https://maps/carbone\n" +
		"- Unknown (Place) - Somewhere\n   Rating: N/A\n   Price: N/A\n   Maps: https://maps/unknown"
	assert.Equal(t, want, got)
	assert.Empty(t, FormatVenues(nil))
}

func TestFormatPages(t *testing.T) {
	got := FormatPages([]grounding.Page{
		{Title: "Eater", URL: "https://eater.com", Content: "Carbone"},
		{URL: "https://untitled.example", Content: "Via Carota"},
	})
	assert.Equal(t, "\n\nCONTENT FROM URL (Eater):\nCarbone\n\nCONTENT FROM URL (https://untitled.example):\nVia Carota", got)
}

func TestBuild(t *testing.T) {
	history := make([]llm.Message, 0, 8)
	for i := 0; i < 8; i++ {
		role := llm.RoleUser
		if i%2 == 1 {
			role = llm.RoleAssistant
		}
		history = append(history, llm.Message{Role: role, Content: fmt.Sprintf("turn %d", i)})
	}

	in := Input{
		Items:     []ListItem{{ID: "12345678abcd", Text: "Carbone", Category: venue.CategoryFood}},
		Grounding: grounding.Result{Pages: []grounding.Page{{Title: "List", Content: "Via Carota"}}},
		History:   history,
		UserText:  "add the places from that list",
	}
	msgs := Build(in)

	require.Len(t, msgs, 1+MaxHistory+1)
	assert.Equal(t, llm.RoleSystem, msgs[0].Role)
	assert.Equal(t, "turn 2", msgs[1].Content)
	assert.Equal(t, "turn 7", msgs[MaxHistory].Content)
	assert.Equal(t, llm.Message{Role: llm.RoleUser, Content: "add the places from that list"}, msgs[len(msgs)-1])

	system := msgs[0].Content
	assert.Contains(t, system, "CURRENT LIST:\n- \"Carbone\" (Food) [id:12345678]\n\nCONTENT FROM URL (List):\nVia Carota\n\nYOUR JOB:")
	assert.Contains(t, system, "```action\n{")
	assert.Contains(t, system, "```recommendations\n[")
	assert.NotContains(t, system, "'''")

	assert.Equal(t, msgs, Build(in), "assembly is deterministic")
}

func TestSystemPrompt_EmptyList(t *testing.T) {
	assert.Contains(t, SystemPrompt(nil, grounding.Result{}), "CURRENT LIST:\n(empty)\n\nYOUR JOB:")
}
