package conversation

import (
	"time"

	"friendlist-be/pkg/assistant/grammar"
	"friendlist-be/pkg/venue"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type ProposalStatus string

const (
	StatusPending  ProposalStatus = "pending"
	StatusAccepted ProposalStatus = "accepted"
	StatusRejected ProposalStatus = "rejected"
)

const (
	MsgGatewayFailure = "Sorry, I had trouble processing that. Could you try again?"
	MsgRejected       = "No problem! Tell me what to change - different name, category, or details?"
	MsgUpdated        = "Updated the item!"
)

// Message is one transcript entry. Only ProposalStatus and AddedRecommendations
// change after the message is appended.
type Message struct {
	ID                   string                   `json:"id"`
	Role                 Role                     `json:"role"`
	Content              string                   `json:"content"`
	CreatedAt            time.Time                `json:"created_at"`
	Proposal             *grammar.Proposal        `json:"proposal,omitempty"`
	ProposalStatus       ProposalStatus           `json:"proposalStatus,omitempty"`
	Recommendations      []grammar.Recommendation `json:"recommendations,omitempty"`
	AddedRecommendations []int                    `json:"addedRecommendations,omitempty"`
}

func (m *Message) RecommendationAdded(index int) bool {
	for _, i := range m.AddedRecommendations {
		if i == index {
			return true
		}
	}
	return false
}

func (m *Message) clone() Message {
	out := *m
	if m.Proposal != nil {
		p := *m.Proposal
		p.Place = clonePlace(p.Place)
		out.Proposal = &p
	}
	if m.Recommendations != nil {
		out.Recommendations = make([]grammar.Recommendation, len(m.Recommendations))
		for i, r := range m.Recommendations {
			r.Place = clonePlace(r.Place)
			out.Recommendations[i] = r
		}
	}
	if m.AddedRecommendations != nil {
		out.AddedRecommendations = append([]int(nil), m.AddedRecommendations...)
	}
	return out
}

func clonePlace(p *venue.PlaceInfo) *venue.PlaceInfo {
	if p == nil {
		return nil
	}
	c := *p
	if p.Rating != nil {
		r := *p.Rating
		c.Rating = &r
	}
	if p.ReviewCount != nil {
		n := *p.ReviewCount
		c.ReviewCount = &n
	}
	return &c
}
