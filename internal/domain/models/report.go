// internal/domain/models/report.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Report is a submitted incident record moving through verification and
// dispatch.
//
// NOTE:
//   - ResponderIDs is an append-only ownership trail: every responder that
//     has ever owned the report, in order. The last element is the current
//     owner (see CurrentResponder). Ownership is appended only by the
//     matching engine and the forwarding protocol.
//   - EmployeeIDs is likewise append-only. While the report is assigning,
//     the last element is the employee currently responsible for it.
//   - VotedBy holds the session ids that have already voted, enforcing one
//     vote per session.
type Report struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SessionID   string             `bson:"session_id" json:"session_id"`
	UserID      string             `bson:"user_id,omitempty" json:"user_id,omitempty"`
	Category    string             `bson:"category" json:"category"`
	Description string             `bson:"description" json:"description"`
	Phone       string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Image       string             `bson:"image,omitempty" json:"image,omitempty"`
	Location    GeoPoint           `bson:"location" json:"location"`

	Severity string `bson:"severity" json:"severity"`
	Status   string `bson:"status" json:"status"`

	ResponderIDs   []primitive.ObjectID `bson:"responder_ids,omitempty" json:"responder_ids,omitempty"`
	EmployeeIDs    []primitive.ObjectID `bson:"employee_ids,omitempty" json:"employee_ids,omitempty"`
	ResponderNotes string               `bson:"responder_notes,omitempty" json:"responder_notes,omitempty"`

	Upvotes   int      `bson:"upvotes" json:"upvotes"`
	Downvotes int      `bson:"downvotes" json:"downvotes"`
	VotedBy   []string `bson:"voted_by,omitempty" json:"-"`

	Duplicates int `bson:"duplicates" json:"duplicates"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// CurrentResponder returns the responder currently owning the report
// (the last element of the ownership trail) and whether one exists.
func (r *Report) CurrentResponder() (primitive.ObjectID, bool) {
	if len(r.ResponderIDs) == 0 {
		return primitive.NilObjectID, false
	}
	return r.ResponderIDs[len(r.ResponderIDs)-1], true
}

// CurrentEmployee returns the employee currently responsible for the report
// (the last element of the employee trail) and whether one exists.
func (r *Report) CurrentEmployee() (primitive.ObjectID, bool) {
	if len(r.EmployeeIDs) == 0 {
		return primitive.NilObjectID, false
	}
	return r.EmployeeIDs[len(r.EmployeeIDs)-1], true
}

// HasVoted reports whether the given session has already voted on the report.
func (r *Report) HasVoted(sessionID string) bool {
	for _, s := range r.VotedBy {
		if s == sessionID {
			return true
		}
	}
	return false
}
