package model

import (
	"strings"
	"time"

	"telegram-sms-bridge/internal/domain"

	"github.com/google/uuid"
)

// Mapping binds one phone number to exactly one chat room. A room may carry
// any number of mappings, but a number belongs to at most one room at a time
// (enforced by the store's unique constraint).
type Mapping struct {
	ID        string
	Number    string
	Alias     string
	Room      string
	CreatedAt time.Time
}

// NewMapping validates the fields and assigns a fresh ID.
func NewMapping(number, alias, room string) (*Mapping, error) {
	number = strings.TrimSpace(number)
	alias = strings.TrimSpace(alias)
	room = strings.TrimSpace(room)
	if number == "" || alias == "" || room == "" {
		return nil, domain.ErrInvalidArgument
	}
	return &Mapping{
		ID:        uuid.NewString(),
		Number:    number,
		Alias:     alias,
		Room:      room,
		CreatedAt: time.Now().UTC(),
	}, nil
}
