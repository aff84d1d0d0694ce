package usecase

import (
	"context"
	"sync"

	"telegram-sms-bridge/internal/domain"
	"telegram-sms-bridge/internal/domain/model"
	"telegram-sms-bridge/internal/domain/ports/repository"
)

// --- In-memory mapping repository ---

type memMappingRepo struct {
	mu       sync.Mutex
	mappings []*model.Mapping
}

var _ repository.MappingRepository = (*memMappingRepo)(nil)

func newMemMappingRepo() *memMappingRepo {
	return &memMappingRepo{}
}

func (r *memMappingRepo) Save(ctx context.Context, m *model.Mapping) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.mappings {
		if existing.Number == m.Number {
			return domain.ErrAlreadyExists
		}
	}
	cp := *m
	r.mappings = append(r.mappings, &cp)
	return nil
}

func (r *memMappingRepo) Remove(ctx context.Context, room, identifier string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, m := range r.mappings {
		if m.Room == room && (m.Number == identifier || m.Alias == identifier) {
			r.mappings = append(r.mappings[:i], r.mappings[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (r *memMappingRepo) Find(ctx context.Context, number, room string) ([]*model.Mapping, error) {
	if number == "" && room == "" {
		return []*model.Mapping{}, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*model.Mapping{}
	for _, m := range r.mappings {
		if number != "" && m.Number != number {
			continue
		}
		if room != "" && m.Room != room {
			continue
		}
		cp := *m
		out = append(out, &cp)
	}
	return out, nil
}

func (r *memMappingRepo) ListByRoom(ctx context.Context, room string) ([]*model.Mapping, error) {
	return r.Find(ctx, "", room)
}

// --- Fake SMS provider ---

type sentSMS struct {
	To   string
	Body string
}

type fakeSMSProvider struct {
	mu      sync.Mutex
	sent    []sentSMS
	failFor map[string]error // destination number -> error
}

func newFakeSMSProvider() *fakeSMSProvider {
	return &fakeSMSProvider{failFor: map[string]error{}}
}

func (p *fakeSMSProvider) Send(ctx context.Context, to, body string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err, ok := p.failFor[to]; ok {
		return err
	}
	p.sent = append(p.sent, sentSMS{To: to, Body: body})
	return nil
}

// --- Fake chat adapter ---

type roomMessage struct {
	Room string
	Text string
}

type fakeChatAdapter struct {
	mu       sync.Mutex
	messages []roomMessage
	sendErr  error
}

func (c *fakeChatAdapter) SendMessage(ctx context.Context, room, text string) error {
	if c.sendErr != nil {
		return c.sendErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, roomMessage{Room: room, Text: text})
	return nil
}

func (c *fakeChatAdapter) SendHTML(ctx context.Context, room, html string) error {
	return c.SendMessage(ctx, room, html)
}
