package adapter

import "context"

// SMSProvider sends one message to one destination number. The source number
// is part of the provider's configuration.
type SMSProvider interface {
	Send(ctx context.Context, to string, body string) error
}
