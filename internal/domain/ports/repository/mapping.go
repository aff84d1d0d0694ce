package repository

import (
	"context"

	"telegram-sms-bridge/internal/domain/model"
)

// MappingRepository persists number/room bindings. Every operation is a
// single-row atomic read or write; conflict and miss are the only expected
// failure modes.
type MappingRepository interface {
	// Save inserts a new mapping. Returns domain.ErrAlreadyExists when the
	// number is already bound to a room.
	Save(ctx context.Context, m *model.Mapping) error

	// Remove deletes at most one mapping within room whose number or alias
	// equals identifier (exact match), oldest first when several share an
	// alias. Reports whether a row was deleted; a miss is not an error.
	Remove(ctx context.Context, room, identifier string) (bool, error)

	// Find returns mappings matching the non-empty filters, combined with
	// AND. No filters means an empty result, never an error.
	Find(ctx context.Context, number, room string) ([]*model.Mapping, error)

	// ListByRoom returns the room's mappings in insertion order.
	ListByRoom(ctx context.Context, room string) ([]*model.Mapping, error)
}
