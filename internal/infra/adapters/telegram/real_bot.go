package telegram

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"telegram-sms-bridge/internal/config"
	"telegram-sms-bridge/internal/domain/ports/adapter"
	red "telegram-sms-bridge/internal/infra/redis"
	"telegram-sms-bridge/internal/usecase"
)

// botAPI is the slice of tgbotapi.BotAPI the adapter needs; tests swap in a
// fake.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetUpdatesChan(cfg tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Ensure interface compliance
var _ adapter.ChatBotAdapter = (*Bot)(nil)

// Bot polls Telegram updates, routes admin commands and forwards ordinary
// room messages to the outbound relay. It also implements the
// ChatBotAdapter port used by the inbound relay, with the Telegram chat ID
// (decimal string) as the room identifier.
type Bot struct {
	api            botAPI
	correspondents *usecase.CorrespondentUseCase
	relay          *usecase.RelayUseCase
	rateLimiter    *red.RateLimiter

	adminIDsMap   map[int64]struct{}
	updateWorkers int
	cancelPolling context.CancelFunc
	log           *zerolog.Logger
}

func NewBot(
	cfg *config.BotConfig,
	correspondents *usecase.CorrespondentUseCase,
	relay *usecase.RelayUseCase,
	rateLimiter *red.RateLimiter,
	logger *zerolog.Logger,
) (*Bot, error) {
	if cfg == nil {
		return nil, errors.New("bot config is nil")
	}
	if correspondents == nil || relay == nil {
		return nil, errors.New("bot use cases are nil")
	}

	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, err
	}

	adminMap := map[int64]struct{}{}
	for _, id := range cfg.AdminIDs {
		adminMap[id] = struct{}{}
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = 5
	}

	return &Bot{
		api:            api,
		correspondents: correspondents,
		relay:          relay,
		rateLimiter:    rateLimiter,
		adminIDsMap:    adminMap,
		updateWorkers:  workers,
		log:            logger,
	}, nil
}

func (b *Bot) StartPolling(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)

	ctx, cancel := context.WithCancel(ctx)
	b.cancelPolling = cancel

	var wg sync.WaitGroup
	updateChan := make(chan tgbotapi.Update, 100)

	for i := 0; i < b.updateWorkers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case up := <-updateChan:
					if err := b.handleUpdate(ctx, up); err != nil {
						b.log.Error().Err(err).Int("worker", id).Msg("update handling failed")
					}
				}
			}
		}(i)
	}

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			close(updateChan)
			wg.Wait()
			return ctx.Err()
		case up := <-updates:
			updateChan <- up
		}
	}
}

func (b *Bot) StopPolling() {
	if b.cancelPolling != nil {
		b.cancelPolling()
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) error {
	msg := update.Message
	if msg == nil || msg.From == nil || msg.Chat == nil {
		return nil
	}

	if msg.IsCommand() {
		command := msg.Command()
		if b.rateLimiter != nil {
			allowed, err := b.rateLimiter.Allow(ctx, red.UserCommandKey(msg.From.ID, command), 20, time.Minute)
			if err != nil {
				b.log.Warn().Err(err).Msg("rate limit check failed")
			} else if !allowed {
				return b.reply(msg.Chat.ID, "Rate limit exceeded. Please try again later.")
			}
		}
		route, ok := b.commandRoutes()[command]
		if !ok {
			return nil
		}
		return route(ctx, msg)
	}

	// Only plain text is relayed; media, stickers and the like are skipped.
	if msg.Text == "" {
		return nil
	}
	room := strconv.FormatInt(msg.Chat.ID, 10)
	b.log.Debug().Str("room", room).Str("text", msg.Text).Msg("handling room message")
	return b.relay.RelayOutbound(ctx, room, senderName(msg.From), msg.Text)
}

// SendMessage implements the adapter port; room is the chat ID rendered in
// decimal.
func (b *Bot) SendMessage(ctx context.Context, room string, text string) error {
	chatID, err := strconv.ParseInt(room, 10, 64)
	if err != nil {
		return errors.New("invalid room identifier: " + room)
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	_, err = b.api.Send(tgbotapi.NewMessage(chatID, text))
	return err
}

// SendHTML sends an HTML-formatted message into room.
func (b *Bot) SendHTML(ctx context.Context, room string, html string) error {
	chatID, err := strconv.ParseInt(room, 10, 64)
	if err != nil {
		return errors.New("invalid room identifier: " + room)
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	msg := tgbotapi.NewMessage(chatID, html)
	msg.ParseMode = tgbotapi.ModeHTML
	_, err = b.api.Send(msg)
	return err
}

func (b *Bot) reply(chatID int64, text string) error {
	_, err := b.api.Send(tgbotapi.NewMessage(chatID, text))
	return err
}

func senderName(u *tgbotapi.User) string {
	if u.UserName != "" {
		return u.UserName
	}
	return u.FirstName
}
