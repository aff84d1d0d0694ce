package usecase

import (
	"context"

	"telegram-sms-bridge/internal/domain/model"
	"telegram-sms-bridge/internal/domain/ports/repository"

	"github.com/rs/zerolog"
)

// CorrespondentUseCase manages the number/room mappings behind the admin
// commands. All room scoping happens here; handlers only pass the room the
// command was issued in.
type CorrespondentUseCase struct {
	repo repository.MappingRepository
	log  *zerolog.Logger
}

func NewCorrespondentUseCase(repo repository.MappingRepository, logger *zerolog.Logger) *CorrespondentUseCase {
	return &CorrespondentUseCase{repo: repo, log: logger}
}

// Add registers a new correspondent for room. Returns
// domain.ErrAlreadyExists when the number is already bound somewhere.
func (uc *CorrespondentUseCase) Add(ctx context.Context, room, alias, number string) (*model.Mapping, error) {
	m, err := model.NewMapping(number, alias, room)
	if err != nil {
		return nil, err
	}
	if err := uc.repo.Save(ctx, m); err != nil {
		return nil, err
	}
	uc.log.Info().Str("alias", alias).Str("number", number).Str("room", room).
		Msg("registered new SMS correspondent")
	return m, nil
}

// Remove deletes the correspondent in room whose number or alias equals
// identifier. Reports whether a row existed; a miss is not an error, so the
// command stays idempotent.
func (uc *CorrespondentUseCase) Remove(ctx context.Context, room, identifier string) (bool, error) {
	removed, err := uc.repo.Remove(ctx, room, identifier)
	if err != nil {
		return false, err
	}
	uc.log.Info().Str("identifier", identifier).Str("room", room).Bool("removed", removed).
		Msg("removed SMS correspondent")
	return removed, nil
}

// List returns the room's correspondents in insertion order.
func (uc *CorrespondentUseCase) List(ctx context.Context, room string) ([]*model.Mapping, error) {
	return uc.repo.ListByRoom(ctx, room)
}
