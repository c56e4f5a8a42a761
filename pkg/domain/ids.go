// Package domain holds the typed identifiers and closed enums shared across
// feature packages. Keeping them here avoids import cycles between stores,
// services and handlers.
package domain

import (
	"github.com/google/uuid"

	dErrors "caretrust/pkg/domain-errors"
)

// EntityID identifies a verifiable entity (doctor or business).
type EntityID uuid.UUID

// DocumentID identifies a compliance document.
type DocumentID uuid.UUID

// NewEntityID returns a fresh random entity ID.
func NewEntityID() EntityID { return EntityID(uuid.New()) }

// NewDocumentID returns a fresh random document ID.
func NewDocumentID() DocumentID { return DocumentID(uuid.New()) }

func (id EntityID) String() string { return uuid.UUID(id).String() }
func (id EntityID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

func (id DocumentID) String() string { return uuid.UUID(id).String() }
func (id DocumentID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

// ParseEntityID parses and validates an entity ID from its string form.
// IDs must be valid, non-empty, non-nil UUIDs.
func ParseEntityID(s string) (EntityID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return EntityID{}, err
	}
	return EntityID(u), nil
}

// ParseDocumentID parses and validates a document ID from its string form.
func ParseDocumentID(s string) (DocumentID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return DocumentID{}, err
	}
	return DocumentID(u), nil
}

func parseUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must be a valid UUID")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must not be the nil UUID")
	}
	return u, nil
}
