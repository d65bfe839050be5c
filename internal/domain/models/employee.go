// internal/domain/models/employee.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Employee is an individual unit within a responder that executes a task.
//
// Invariant: ReportIDAssigned is set if and only if Status is busy and the
// employee is mid-task. The assignment protocol is the only writer of these
// two fields and always changes them together in one conditional update.
type Employee struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Email       string             `bson:"email" json:"email"`
	Phone       string             `bson:"phone,omitempty" json:"phone,omitempty"`
	ResponderID primitive.ObjectID `bson:"responder_id" json:"responder_id"`
	Department  string             `bson:"department" json:"department"`

	Status           string              `bson:"status" json:"status"` // idle | busy
	ReportIDAssigned *primitive.ObjectID `bson:"report_id_assigned,omitempty" json:"report_id_assigned,omitempty"`
	Location         *GeoPoint           `bson:"location,omitempty" json:"location,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
