package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"telegram-sms-bridge/internal/domain/ports/adapter"
	"telegram-sms-bridge/internal/domain/ports/repository"

	"github.com/rs/zerolog"
)

// BridgePrefix marks messages the bridge itself posted into a room. Outbound
// relay skips them so SMS replies are never echoed back out.
const BridgePrefix = "<sms>"

// defaultCommandMarker is used when the bot config leaves the command
// marker unset. Commands are never relayed.
const defaultCommandMarker = "/"

// RelayUseCase implements both relay directions. Outbound is best-effort
// fan-out with per-number failure isolation; inbound is single-delivery with
// failure surfaced to the webhook.
type RelayUseCase struct {
	repo          repository.MappingRepository
	sms           adapter.SMSProvider
	chat          adapter.ChatBotAdapter
	commandMarker string
	sendTimeout   time.Duration
	log           *zerolog.Logger
}

func NewRelayUseCase(
	repo repository.MappingRepository,
	sms adapter.SMSProvider,
	commandMarker string,
	sendTimeout time.Duration,
	logger *zerolog.Logger,
) *RelayUseCase {
	if commandMarker == "" {
		commandMarker = defaultCommandMarker
	}
	if sendTimeout <= 0 {
		sendTimeout = 10 * time.Second
	}
	return &RelayUseCase{
		repo:          repo,
		sms:           sms,
		commandMarker: commandMarker,
		sendTimeout:   sendTimeout,
		log:           logger,
	}
}

// BindChat attaches the chat adapter. The bot adapter is constructed after
// the relay (it needs the relay for outbound messages), so the chat side is
// bound late, before anything starts serving.
func (uc *RelayUseCase) BindChat(chat adapter.ChatBotAdapter) {
	uc.chat = chat
}

// RelayOutbound forwards a room message to every number mapped to the room.
// A provider rejection for one number is logged and counted but never stops
// the rest of the batch.
func (uc *RelayUseCase) RelayOutbound(ctx context.Context, room, sender, body string) error {
	if strings.HasPrefix(body, uc.commandMarker) || strings.HasPrefix(body, BridgePrefix) {
		return nil
	}

	mappings, err := uc.repo.ListByRoom(ctx, room)
	if err != nil {
		return fmt.Errorf("list mappings for room %s: %w", room, err)
	}
	if len(mappings) == 0 {
		uc.log.Debug().Str("room", room).Msg("no SMS correspondents in room, nothing to relay")
		return nil
	}

	uc.log.Info().Str("room", room).Int("numbers", len(mappings)).Msg("forwarding message")
	text := fmt.Sprintf("%s: %s", sender, body)
	for _, m := range mappings {
		sendCtx, cancel := context.WithTimeout(ctx, uc.sendTimeout)
		err := uc.sms.Send(sendCtx, m.Number, text)
		cancel()
		if err != nil {
			uc.log.Error().Err(err).
				Str("number", m.Number).Str("alias", m.Alias).Str("room", room).
				Msg("failed to send SMS")
			continue
		}
		uc.log.Debug().Str("number", m.Number).Str("alias", m.Alias).Msg("sent SMS")
	}
	return nil
}

// RelayInbound delivers an inbound SMS into its mapped room. An unmapped
// sender is dropped with a log record; a chat delivery failure is returned
// to the caller since there is no other way to notify the SMS sender.
func (uc *RelayUseCase) RelayInbound(ctx context.Context, number, body string) (bool, error) {
	mappings, err := uc.repo.Find(ctx, number, "")
	if err != nil {
		return false, fmt.Errorf("find mapping for %s: %w", number, err)
	}
	if len(mappings) == 0 {
		uc.log.Info().Str("number", number).Msg("no room mapping for number, dropping message")
		return false, nil
	}

	m := mappings[0]
	if uc.chat == nil {
		return false, fmt.Errorf("deliver to room %s: chat adapter not bound", m.Room)
	}
	text := fmt.Sprintf("%s %s: %s", BridgePrefix, m.Alias, body)
	if err := uc.chat.SendMessage(ctx, m.Room, text); err != nil {
		return false, fmt.Errorf("deliver to room %s: %w", m.Room, err)
	}
	uc.log.Debug().Str("number", number).Str("room", m.Room).Msg("delivered inbound SMS")
	return true, nil
}
