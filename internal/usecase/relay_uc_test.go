package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newRelayFixture(t *testing.T) (*RelayUseCase, *memMappingRepo, *fakeSMSProvider, *fakeChatAdapter) {
	t.Helper()
	repo := newMemMappingRepo()
	sms := newFakeSMSProvider()
	chat := &fakeChatAdapter{}
	logger := zerolog.Nop()
	uc := NewRelayUseCase(repo, sms, "/", time.Second, &logger)
	uc.BindChat(chat)
	return uc, repo, sms, chat
}

func addMapping(t *testing.T, repo *memMappingRepo, room, alias, number string) {
	t.Helper()
	ucLogger := zerolog.Nop()
	if _, err := NewCorrespondentUseCase(repo, &ucLogger).Add(context.Background(), room, alias, number); err != nil {
		t.Fatalf("add mapping %s: %v", alias, err)
	}
}

func TestRelayOutbound_FanOut(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	uc, repo, sms, _ := newRelayFixture(t)
	addMapping(t, repo, "R1", "Al", "+15551230000")
	addMapping(t, repo, "R1", "Bo", "+15551230001")

	if err := uc.RelayOutbound(ctx, "R1", "U1", "hello"); err != nil {
		t.Fatalf("RelayOutbound: %v", err)
	}

	if len(sms.sent) != 2 {
		t.Fatalf("expected 2 sends, got %d", len(sms.sent))
	}
	want := []sentSMS{
		{To: "+15551230000", Body: "U1: hello"},
		{To: "+15551230001", Body: "U1: hello"},
	}
	for i, w := range want {
		if sms.sent[i] != w {
			t.Fatalf("send %d: want %+v got %+v", i, w, sms.sent[i])
		}
	}
}

func TestRelayOutbound_PartialFailure(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	uc, repo, sms, _ := newRelayFixture(t)
	addMapping(t, repo, "R1", "Al", "+15551230000")
	addMapping(t, repo, "R1", "Bo", "+15551230001")
	sms.failFor["+15551230000"] = errors.New("provider rejected")

	if err := uc.RelayOutbound(ctx, "R1", "U1", "hello"); err != nil {
		t.Fatalf("RelayOutbound should tolerate a per-number failure, got %v", err)
	}

	if len(sms.sent) != 1 {
		t.Fatalf("expected the second send to go through, got %d sends", len(sms.sent))
	}
	if sms.sent[0].To != "+15551230001" || sms.sent[0].Body != "U1: hello" {
		t.Fatalf("unexpected surviving send: %+v", sms.sent[0])
	}
}

func TestRelayOutbound_EmptyRoom(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	uc, _, sms, _ := newRelayFixture(t)

	if err := uc.RelayOutbound(ctx, "R1", "U1", "hello"); err != nil {
		t.Fatalf("RelayOutbound on empty room: %v", err)
	}
	if len(sms.sent) != 0 {
		t.Fatalf("expected no sends, got %d", len(sms.sent))
	}
}

func TestRelayOutbound_FiltersCommandsAndEchoes(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	uc, repo, sms, _ := newRelayFixture(t)
	addMapping(t, repo, "R1", "Al", "+15551230000")

	for _, body := range []string{"/listsms", BridgePrefix + " Al: reply"} {
		if err := uc.RelayOutbound(ctx, "R1", "U1", body); err != nil {
			t.Fatalf("RelayOutbound(%q): %v", body, err)
		}
	}
	if len(sms.sent) != 0 {
		t.Fatalf("commands and bridged replies must not be relayed, got %d sends", len(sms.sent))
	}
}

func TestRelayOutbound_CustomCommandMarker(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := newMemMappingRepo()
	sms := newFakeSMSProvider()
	logger := zerolog.Nop()
	uc := NewRelayUseCase(repo, sms, "!", time.Second, &logger)
	uc.BindChat(&fakeChatAdapter{})
	addMapping(t, repo, "R1", "Al", "+15551230000")

	if err := uc.RelayOutbound(ctx, "R1", "U1", "!listsms"); err != nil {
		t.Fatalf("RelayOutbound(!listsms): %v", err)
	}
	if len(sms.sent) != 0 {
		t.Fatalf("marker-prefixed message must not be relayed, got %d sends", len(sms.sent))
	}

	// "/" is plain text on a host whose marker is "!".
	if err := uc.RelayOutbound(ctx, "R1", "U1", "/not a command here"); err != nil {
		t.Fatalf("RelayOutbound(/...): %v", err)
	}
	if len(sms.sent) != 1 {
		t.Fatalf("expected the slash message to relay, got %d sends", len(sms.sent))
	}
}

func TestRelayInbound_Delivered(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	uc, repo, _, chat := newRelayFixture(t)
	addMapping(t, repo, "R1", "Al", "+15551230000")

	delivered, err := uc.RelayInbound(ctx, "+15551230000", "ok")
	if err != nil {
		t.Fatalf("RelayInbound: %v", err)
	}
	if !delivered {
		t.Fatal("expected delivery to the mapped room")
	}
	if len(chat.messages) != 1 {
		t.Fatalf("expected 1 chat message, got %d", len(chat.messages))
	}
	got := chat.messages[0]
	if got.Room != "R1" {
		t.Fatalf("delivered to wrong room: %s", got.Room)
	}
	if got.Text != BridgePrefix+" Al: ok" {
		t.Fatalf("unexpected message body: %q", got.Text)
	}
}

func TestRelayInbound_UnmappedNumberDropped(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	uc, _, _, chat := newRelayFixture(t)

	delivered, err := uc.RelayInbound(ctx, "+15559990000", "hi")
	if err != nil {
		t.Fatalf("an unmapped sender is a drop, not an error: %v", err)
	}
	if delivered {
		t.Fatal("expected no delivery for an unmapped number")
	}
	if len(chat.messages) != 0 {
		t.Fatalf("expected no chat messages, got %d", len(chat.messages))
	}
}

func TestRelayInbound_DeliveryFailureSurfaced(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	uc, repo, _, chat := newRelayFixture(t)
	addMapping(t, repo, "R1", "Al", "+15551230000")
	chat.sendErr = errors.New("room gone")

	delivered, err := uc.RelayInbound(ctx, "+15551230000", "ok")
	if err == nil {
		t.Fatal("expected a chat delivery failure to be surfaced")
	}
	if delivered {
		t.Fatal("delivered must be false on failure")
	}
}
