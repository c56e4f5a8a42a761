package domain

import dErrors "caretrust/pkg/domain-errors"

// EntityKind distinguishes the two verifiable entity populations. The required
// document set and the expiry-status vocabulary differ per kind.
type EntityKind string

const (
	KindDoctor   EntityKind = "doctor"
	KindBusiness EntityKind = "business"
)

// Kinds lists all entity kinds in a stable order.
func Kinds() []EntityKind { return []EntityKind{KindDoctor, KindBusiness} }

// Valid reports whether the kind is one of the closed set.
func (k EntityKind) Valid() bool {
	return k == KindDoctor || k == KindBusiness
}

// ParseEntityKind validates a kind received at a trust boundary.
func ParseEntityKind(s string) (EntityKind, error) {
	k := EntityKind(s)
	if !k.Valid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "entity kind must be doctor or business")
	}
	return k, nil
}
