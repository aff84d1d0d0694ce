package adapter

import "context"

// ChatBotAdapter is the outbound port into the chat host. Room identifiers
// are opaque strings owned by the concrete adapter.
type ChatBotAdapter interface {
	SendMessage(ctx context.Context, room string, text string) error
	SendHTML(ctx context.Context, room string, html string) error
}
