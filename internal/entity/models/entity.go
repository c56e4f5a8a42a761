// Package models defines the verifiable-entity record. Doctors and businesses
// are owned by the surrounding CRUD platform; this service reads them and
// writes back only the three aggregate verification fields.
package models

import (
	"time"

	"caretrust/pkg/domain"
)

// Entity is a doctor or business whose aggregate compliance status this
// service computes.
type Entity struct {
	ID   domain.EntityID
	Kind domain.EntityKind
	Name string
	// Email is where expiry reminders are addressed.
	Email string

	IsVerified                  bool
	VerificationStatusReason    string
	VerificationStatusUpdatedAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// VerificationUpdate is the only write this service performs on an entity.
type VerificationUpdate struct {
	IsVerified bool
	Reason     string
	UpdatedAt  time.Time
}
