package telegram

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-sms-bridge/internal/domain"
	"telegram-sms-bridge/internal/infra/metrics"
)

type commandHandler func(ctx context.Context, message *tgbotapi.Message) error

// commandRoutes defines all available bot commands and their handlers.
// Every command mutates or reads the mapping store, so all of them sit
// behind the adminOnly middleware.
func (b *Bot) commandRoutes() map[string]commandHandler {
	return map[string]commandHandler{
		"addsms":    b.adminOnly(b.handleAddSMSCommand),
		"removesms": b.adminOnly(b.handleRemoveSMSCommand),
		"listsms":   b.adminOnly(b.handleListSMSCommand),
	}
}

// adminOnly rejects callers whose Telegram ID is not on the configured
// allow-list. An empty list rejects everyone.
func (b *Bot) adminOnly(next commandHandler) commandHandler {
	return func(ctx context.Context, message *tgbotapi.Message) error {
		if _, isAdmin := b.adminIDsMap[message.From.ID]; !isAdmin {
			metrics.IncAdminCommand("/"+message.Command(), "unauthorized")
			return b.reply(message.Chat.ID, "You are not authorized to configure this bridge.")
		}
		metrics.IncAdminCommand("/"+message.Command(), "authorized")
		return next(ctx, message)
	}
}

// handleAddSMSCommand handles /addsms <alias> <number>.
func (b *Bot) handleAddSMSCommand(ctx context.Context, message *tgbotapi.Message) error {
	args := strings.Fields(message.CommandArguments())
	if len(args) != 2 {
		return b.reply(message.Chat.ID, "Usage: /addsms <alias> <number>")
	}
	alias, number := args[0], args[1]
	room := strconv.FormatInt(message.Chat.ID, 10)

	if _, err := b.correspondents.Add(ctx, room, alias, number); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return b.reply(message.Chat.ID, fmt.Sprintf("%s is already mapped to a room.", number))
		}
		if errors.Is(err, domain.ErrInvalidArgument) {
			return b.reply(message.Chat.ID, "Usage: /addsms <alias> <number>")
		}
		b.log.Error().Err(err).Str("number", number).Msg("failed to add correspondent")
		return b.reply(message.Chat.ID, "Failed to add correspondent.")
	}
	return b.reply(message.Chat.ID, fmt.Sprintf("Added %s (%s)", alias, number))
}

// handleRemoveSMSCommand handles /removesms <number-or-alias>. Removal is
// scoped to the room the command was issued in.
func (b *Bot) handleRemoveSMSCommand(ctx context.Context, message *tgbotapi.Message) error {
	identifier := strings.TrimSpace(message.CommandArguments())
	if identifier == "" {
		return b.reply(message.Chat.ID, "Usage: /removesms <number or alias>")
	}
	room := strconv.FormatInt(message.Chat.ID, 10)

	removed, err := b.correspondents.Remove(ctx, room, identifier)
	if err != nil {
		b.log.Error().Err(err).Str("identifier", identifier).Msg("failed to remove correspondent")
		return b.reply(message.Chat.ID, "Failed to remove correspondent.")
	}
	if !removed {
		return b.reply(message.Chat.ID, fmt.Sprintf("No correspondent %s in this room.", identifier))
	}
	return b.reply(message.Chat.ID, fmt.Sprintf("Removed %s", identifier))
}

// handleListSMSCommand handles /listsms.
func (b *Bot) handleListSMSCommand(ctx context.Context, message *tgbotapi.Message) error {
	room := strconv.FormatInt(message.Chat.ID, 10)
	mappings, err := b.correspondents.List(ctx, room)
	if err != nil {
		b.log.Error().Err(err).Str("room", room).Msg("failed to list correspondents")
		return b.reply(message.Chat.ID, "Failed to list correspondents.")
	}
	if len(mappings) == 0 {
		return b.reply(message.Chat.ID, "No SMS correspondents in this room.")
	}

	var sb strings.Builder
	sb.WriteString("Current SMS correspondents:\n")
	for _, m := range mappings {
		sb.WriteString(fmt.Sprintf("<b>%s</b>: <code>%s</code>\n", html.EscapeString(m.Alias), html.EscapeString(m.Number)))
	}
	return b.SendHTML(ctx, room, sb.String())
}
