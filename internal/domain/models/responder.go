// internal/domain/models/responder.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Responder is an organizational unit (e.g. a fire department branch) that
// owns reports and dispatches its employees to them.
//
// Location carries a 2dsphere index so the matching engine and forwarding
// protocol can run nearest-first queries against it.
type Responder struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name       string             `bson:"name" json:"name"`
	Email      string             `bson:"email" json:"email"`
	Phone      string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Department string             `bson:"department" json:"department"`
	Location   GeoPoint           `bson:"location" json:"location"`

	// EmployeeIDs is the roster of employees belonging to this responder.
	EmployeeIDs []primitive.ObjectID `bson:"employee_ids,omitempty" json:"employee_ids,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
