// Package grammar turns a raw model reply into a typed result: a list of
// recommendations, a single proposed list action, or plain text.
//
// Every structure is looked for in three tiers. A labeled code fence comes first,
// then the same label used as a bare keyword followed by a balanced JSON literal,
// then an anchor on the literal's own shape. Recommendations always win over actions.
package grammar

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"friendlist-be/internal/pkg/logger"
	"friendlist-be/pkg/venue"
)

type Kind string

const (
	KindPlainText       Kind = "text"
	KindProposal        Kind = "proposal"
	KindRecommendations Kind = "recommendations"
)

type Action string

const (
	ActionAdd    Action = "add"
	ActionEdit   Action = "edit"
	ActionDelete Action = "delete"
	ActionSearch Action = "search"
)

func (a Action) Valid() bool {
	switch a {
	case ActionAdd, ActionEdit, ActionDelete, ActionSearch:
		return true
	}
	return false
}

// Proposal is a single list operation suggested by the model. EditItemID is the
// (possibly shortened) id of the target item for edit and delete.
type Proposal struct {
	Action     Action           `json:"action"`
	Text       string           `json:"text"`
	Category   venue.Category   `json:"category"`
	Link       string           `json:"link,omitempty"`
	Place      *venue.PlaceInfo `json:"place,omitempty"`
	EditItemID string           `json:"editItemId,omitempty"`
}

type Recommendation struct {
	Text     string           `json:"text"`
	Category venue.Category   `json:"category"`
	Link     string           `json:"link,omitempty"`
	Place    *venue.PlaceInfo `json:"place,omitempty"`
}

// Result is the tagged union produced for every reply. Proposal is set only for
// KindProposal and Recommendations only for KindRecommendations. Display is the
// reply with the matched block removed.
type Result struct {
	Kind            Kind
	Display         string
	Proposal        *Proposal
	Recommendations []Recommendation
}

const moduleName = "Grammar"

const (
	labelRecommendations = "recommendations"
	labelAction          = "action"
)

var (
	recommendationsFence  = regexp.MustCompile("```recommendations\\s*([\\s\\S]*?)\\s*```")
	actionFence           = regexp.MustCompile("```action\\s*([\\s\\S]*?)\\s*```")
	recommendationsAnchor = regexp.MustCompile(`\[\s*\{\s*"text"`)
	actionAnchor          = regexp.MustCompile(`\{\s*"action"`)

	errNoEntries     = errors.New("no usable entries")
	errMissingAction = errors.New("missing or unknown action")
)

type Parser struct {
	logger logger.ILogger
}

func NewParser(log logger.ILogger) *Parser {
	return &Parser{logger: log}
}

// Parse never fails; anything it cannot read is plain text.
func (p *Parser) Parse(raw string) Result {
	recs, display, rejected, ok := p.parseRecommendations(raw)
	if ok {
		return Result{Kind: KindRecommendations, Display: display, Recommendations: recs}
	}

	// A recommendations fence that was read and rejected is not searched again
	// for an action, and is left out of the action's display.
	rest := raw
	if rejected.ok {
		rest = raw[:rejected.start] + "\n" + raw[rejected.end:]
	}
	if proposal, display, ok := p.parseProposal(rest); ok {
		return Result{Kind: KindProposal, Display: display, Proposal: proposal}
	}
	return Result{Kind: KindPlainText, Display: raw}
}

type extraction struct {
	tier    string
	payload []byte
	display string
}

// span is the byte range of a matched fence in the reply.
type span struct {
	start, end int
	ok         bool
}

func (s span) contains(pos int) bool {
	return s.ok && pos >= s.start && pos < s.end
}

// parseRecommendations also reports the span of a recommendations fence that
// matched but produced nothing usable.
func (p *Parser) parseRecommendations(raw string) ([]Recommendation, string, span, bool) {
	exs, fence := p.candidates(raw, labelRecommendations, recommendationsFence, recommendationsAnchor, '[', ']')
	for _, ex := range exs {
		recs, err := decodeRecommendations(ex.payload)
		if err != nil {
			p.mismatch(labelRecommendations, ex.tier, err)
			continue
		}
		return recs, ex.display, span{}, true
	}
	return nil, "", fence, false
}

func (p *Parser) parseProposal(raw string) (*Proposal, string, bool) {
	exs, _ := p.candidates(raw, labelAction, actionFence, actionAnchor, '{', '}')
	for _, ex := range exs {
		proposal, err := decodeProposal(ex.payload)
		if err != nil {
			p.mismatch(labelAction, ex.tier, err)
			continue
		}
		return proposal, ex.display, true
	}
	return nil, "", false
}

// candidates yields the syntactically valid JSON slices for label in tier order.
// Once a fence for label matched, the fallback tiers never read inside it: a
// fence body that does not parse must not be mined for a smaller literal.
func (p *Parser) candidates(raw, label string, fence, anchor *regexp.Regexp, open, close byte) ([]extraction, span) {
	var out []extraction
	ex, matched, ok := p.fenced(raw, label, fence)
	if ok {
		out = append(out, ex)
	}
	if ex, ok := p.afterKeyword(raw, label, open, close, matched); ok {
		out = append(out, ex)
	}
	if ex, ok := p.anchored(raw, label, anchor, open, close, matched); ok {
		out = append(out, ex)
	}
	return out, matched
}

func (p *Parser) fenced(raw, label string, fence *regexp.Regexp) (extraction, span, bool) {
	loc := fence.FindStringSubmatchIndex(raw)
	if loc == nil {
		return extraction{}, span{}, false
	}
	matched := span{start: loc[0], end: loc[1], ok: true}
	body := raw[loc[2]:loc[3]]
	if err := validJSON(body); err != nil {
		p.discard(label, "fence", err)
		return extraction{}, matched, false
	}
	return extraction{
		tier:    "fence",
		payload: []byte(body),
		display: strings.TrimSpace(raw[:loc[0]] + raw[loc[1]:]),
	}, matched, true
}

func (p *Parser) afterKeyword(raw, label string, open, close byte, skip span) (extraction, bool) {
	for from := 0; from < len(raw); {
		rel := indexFold(raw[from:], label)
		if rel < 0 {
			return extraction{}, false
		}
		idx := from + rel
		after := idx + len(label)
		bracket := strings.IndexByte(raw[after:], open)
		if bracket < 0 {
			return extraction{}, false
		}
		start := after + bracket
		if skip.contains(start) {
			if skip.end <= idx {
				return extraction{}, false
			}
			from = skip.end
			continue
		}

		literal, end, ok := sliceBalanced(raw, start, open, close)
		if !ok {
			return extraction{}, false
		}
		if err := validJSON(literal); err != nil {
			p.discard(label, "keyword", err)
			return extraction{}, false
		}
		return extraction{
			tier:    "keyword",
			payload: []byte(literal),
			display: strings.TrimSpace(raw[:idx] + raw[end:]),
		}, true
	}
	return extraction{}, false
}

func (p *Parser) anchored(raw, label string, anchor *regexp.Regexp, open, close byte, skip span) (extraction, bool) {
	loc := anchor.FindStringIndex(raw)
	if loc != nil && skip.contains(loc[0]) {
		loc = anchor.FindStringIndex(raw[skip.end:])
		if loc != nil {
			loc[0] += skip.end
			loc[1] += skip.end
		}
	}
	if loc == nil {
		return extraction{}, false
	}
	literal, end, ok := sliceBalanced(raw, loc[0], open, close)
	if !ok {
		return extraction{}, false
	}
	if err := validJSON(literal); err != nil {
		p.discard(label, "anchor", err)
		return extraction{}, false
	}
	return extraction{
		tier:    "anchor",
		payload: []byte(literal),
		display: strings.TrimSpace(strings.TrimSpace(raw[:loc[0]]) + " " + strings.TrimSpace(raw[end:])),
	}, true
}

func (p *Parser) discard(label, tier string, err error) {
	if p.logger == nil {
		return
	}
	p.logger.Warn(moduleName, "Discarding unreadable reply block", map[string]interface{}{
		"label": label,
		"tier":  tier,
		"error": err.Error(),
	})
}

// mismatch records well-formed JSON of the wrong shape, which is routine for the
// keyword tier.
func (p *Parser) mismatch(label, tier string, err error) {
	if p.logger == nil {
		return
	}
	p.logger.Debug(moduleName, "Skipping reply block of unexpected shape", map[string]interface{}{
		"label": label,
		"tier":  tier,
		"error": err.Error(),
	})
}

func validJSON(s string) error {
	var v interface{}
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return fmt.Errorf("invalid json: %w", err)
	}
	return nil
}

// indexFold is a byte-offset safe case-insensitive search for an ASCII needle.
func indexFold(s, needle string) int {
	for i := 0; i+len(needle) <= len(s); i++ {
		if strings.EqualFold(s[i:i+len(needle)], needle) {
			return i
		}
	}
	return -1
}

func decodeRecommendations(payload []byte) ([]Recommendation, error) {
	var entries []map[string]interface{}
	if err := json.Unmarshal(payload, &entries); err != nil {
		return nil, fmt.Errorf("recommendations are not an array of objects: %w", err)
	}

	recs := make([]Recommendation, 0, len(entries))
	for _, e := range entries {
		text := stringField(e, "text")
		if text == "" {
			continue
		}
		recs = append(recs, Recommendation{
			Text:     text,
			Category: venue.NormalizeCategory(stringField(e, "category")),
			Link:     stringField(e, "link"),
			Place:    placeField(e["place"]),
		})
	}
	if len(recs) == 0 {
		return nil, errNoEntries
	}
	return recs, nil
}

func decodeProposal(payload []byte) (*Proposal, error) {
	var obj map[string]interface{}
	if err := json.Unmarshal(payload, &obj); err != nil {
		return nil, fmt.Errorf("action is not an object: %w", err)
	}

	action := Action(strings.ToLower(stringField(obj, "action")))
	if !action.Valid() {
		return nil, errMissingAction
	}

	return &Proposal{
		Action:     action,
		Text:       stringField(obj, "text"),
		Category:   venue.NormalizeCategory(stringField(obj, "category")),
		Link:       stringField(obj, "link"),
		Place:      placeField(obj["place"]),
		EditItemID: stringField(obj, "editItemId"),
	}, nil
}

func stringField(obj map[string]interface{}, key string) string {
	switch v := obj[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return ""
}

func placeField(v interface{}) *venue.PlaceInfo {
	obj, ok := v.(map[string]interface{})
	if !ok {
		return nil
	}

	place := &venue.PlaceInfo{
		Name:         stringField(obj, "name"),
		Type:         stringField(obj, "type"),
		Neighborhood: stringField(obj, "neighborhood"),
		Address:      stringField(obj, "address"),
		Description:  stringField(obj, "description"),
		KnownFor:     stringField(obj, "knownFor"),
		PriceRange:   stringField(obj, "priceRange"),
		Tips:         stringField(obj, "tips"),
	}
	if rating, ok := numberField(obj, "rating"); ok {
		place.Rating = &rating
	}
	if count, ok := numberField(obj, "reviewCount"); ok {
		n := int(count)
		place.ReviewCount = &n
	}

	if *place == (venue.PlaceInfo{}) {
		return nil
	}
	return place
}

// numberField accepts both JSON numbers and numeric strings; models emit either.
func numberField(obj map[string]interface{}, key string) (float64, bool) {
	switch v := obj[key].(type) {
	case float64:
		return v, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(strings.ReplaceAll(v, ",", "")), 64)
		if err == nil {
			return f, true
		}
	}
	return 0, false
}
