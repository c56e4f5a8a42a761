// Package registry holds the static compliance document-type catalogue.
// The required set differs between doctors and businesses; everything else in
// the verification pipeline is driven off this table, so it is the single
// place a new document type gets added.
package registry

import (
	"caretrust/pkg/domain"
	dErrors "caretrust/pkg/domain-errors"
)

// TypeDefinition describes one document type for one entity kind.
type TypeDefinition struct {
	Key         string
	DisplayName string
	// Required document types gate aggregate verification: every one of them
	// must have a verified, unexpired document on file.
	Required bool
	// AutoExpiry marks documents that go stale on a validity clock.
	AutoExpiry bool
	// ValidityYears is only meaningful when AutoExpiry is set.
	ValidityYears int
}

// Registry is the per-kind document type catalogue. It is immutable after
// construction; a single instance is shared process-wide.
type Registry struct {
	byKind map[domain.EntityKind][]TypeDefinition
	index  map[domain.EntityKind]map[string]TypeDefinition
}

// New builds the default registry with the doctor and business catalogues.
func New() *Registry {
	r := &Registry{
		byKind: map[domain.EntityKind][]TypeDefinition{
			domain.KindDoctor:   doctorTypes,
			domain.KindBusiness: businessTypes,
		},
		index: make(map[domain.EntityKind]map[string]TypeDefinition),
	}
	for kind, defs := range r.byKind {
		idx := make(map[string]TypeDefinition, len(defs))
		for _, def := range defs {
			idx[def.Key] = def
		}
		r.index[kind] = idx
	}
	return r
}

// All returns every document type definition for the kind, in catalogue order.
func (r *Registry) All(kind domain.EntityKind) []TypeDefinition {
	return r.byKind[kind]
}

// Required returns the required document types for the kind, in catalogue order.
func (r *Registry) Required(kind domain.EntityKind) []TypeDefinition {
	defs := r.byKind[kind]
	required := make([]TypeDefinition, 0, len(defs))
	for _, def := range defs {
		if def.Required {
			required = append(required, def)
		}
	}
	return required
}

// Lookup resolves a document type key for the kind.
func (r *Registry) Lookup(kind domain.EntityKind, key string) (TypeDefinition, error) {
	def, ok := r.index[kind][key]
	if !ok {
		return TypeDefinition{}, dErrors.Newf(dErrors.CodeInvalidInput,
			"unknown document type %q for kind %q", key, kind)
	}
	return def, nil
}

// DisplayName resolves a key to its display name, falling back to the raw key
// for types the catalogue does not know. Notification and reason strings use
// this so an unknown stored key never breaks a read path.
func (r *Registry) DisplayName(kind domain.EntityKind, key string) string {
	if def, ok := r.index[kind][key]; ok {
		return def.DisplayName
	}
	return key
}
