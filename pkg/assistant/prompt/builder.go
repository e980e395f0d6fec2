// Package prompt assembles the chat history sent to the model for one turn.
package prompt

import (
	"fmt"
	"strconv"
	"strings"

	"friendlist-be/pkg/grounding"
	"friendlist-be/pkg/llm"
	"friendlist-be/pkg/venue"

	"github.com/samber/lo"
)

const (
	MaxListItems   = 15
	MaxHistory     = 6
	shortIDLength  = 8
	emptyListLabel = "(empty)"
)

// ListItem is the slice of an item the model gets to see.
type ListItem struct {
	ID       string
	Text     string
	Category venue.Category
}

type Input struct {
	Items     []ListItem
	Grounding grounding.Result
	History   []llm.Message
	UserText  string
}

// Build returns the system message, the most recent transcript turns and the new
// user message, in that order.
func Build(in Input) []llm.Message {
	history := in.History
	if len(history) > MaxHistory {
		history = history[len(history)-MaxHistory:]
	}

	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: SystemPrompt(in.Items, in.Grounding)})
	messages = append(messages, history...)
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: in.UserText})
	return messages
}

func SystemPrompt(items []ListItem, ground grounding.Result) string {
	list := FormatItems(items)
	if list == "" {
		list = emptyListLabel
	}
	return strings.Replace(systemTemplate, "{{CONTEXT}}", list+FormatVenues(ground.Venues)+FormatPages(ground.Pages), 1)
}

// FormatItems renders up to MaxListItems items, one per line, with the short id
// the model uses to reference them.
func FormatItems(items []ListItem) string {
	if len(items) > MaxListItems {
		items = items[:MaxListItems]
	}
	lines := lo.Map(items, func(it ListItem, _ int) string {
		line := fmt.Sprintf("- \"%s\" (%s)", it.Text, it.Category)
		if it.ID != "" {
			line += fmt.Sprintf(" [id:%s]", ShortID(it.ID))
		}
		return line
	})
	return strings.Join(lines, "\n")
}

func ShortID(id string) string {
	if len(id) <= shortIDLength {
		return id
	}
	return id[:shortIDLength]
}

func FormatVenues(venues []grounding.Venue) string {
	if len(venues) == 0 {
		return ""
	}
	entries := lo.Map(venues, func(v grounding.Venue, _ int) string {
		rating := "N/A"
		if v.Rating != nil && *v.Rating != 0 {
			reviews := 0
			if v.ReviewCount != nil {
				reviews = *v.ReviewCount
			}
			rating = fmt.Sprintf("%s/5 (%d reviews)", strconv.FormatFloat(*v.Rating, 'f', -1, 64), reviews)
		}
		price := lo.Ternary(v.PriceRange != "", v.PriceRange, "N/A")
		return fmt.Sprintf("- %s (%s) - %s\n   Rating: %s\n   Price: %s\n   Maps: %s", v.Name, v.Type, v.Address, rating, price, v.MapsURL)
	})
	return "\n\nGOOGLE PLACES API RESULTS (use this real data!):\n" + strings.Join(entries, "\n")
}

func FormatPages(pages []grounding.Page) string {
	var b strings.Builder
	for _, p := range pages {
		title := lo.Ternary(p.Title != "", p.Title, p.URL)
		fmt.Fprintf(&b, "\n\nCONTENT FROM URL (%s):\n%s", title, p.Content)
	}
	return b.String()
}
