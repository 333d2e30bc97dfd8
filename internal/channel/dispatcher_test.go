package channel_test

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"

	"github.com/flemzord/voxscribe/internal/channel"
	"github.com/flemzord/voxscribe/internal/channel/channeltest"
	"github.com/flemzord/voxscribe/pkg/message"
)

func TestDispatcher_RegisterAndGet(t *testing.T) {
	t.Parallel()
	d := channel.NewDispatcher()
	ch := channeltest.NewMockChannel("telegram", nil)

	if err := d.Register("telegram", ch); err != nil {
		t.Fatalf("Register: %v", err)
	}
	got, ok := d.Get("telegram")
	if !ok || got != ch {
		t.Error("Get returned wrong channel instance")
	}
	if _, ok := d.Get("missing"); ok {
		t.Error("Get should report false for unknown channels")
	}
}

func TestDispatcher_RegisterDuplicate(t *testing.T) {
	t.Parallel()
	d := channel.NewDispatcher()
	ch := channeltest.NewMockChannel("telegram", nil)

	_ = d.Register("telegram", ch)
	if err := d.Register("telegram", ch); !errors.Is(err, channel.ErrDuplicateChannel) {
		t.Errorf("expected ErrDuplicateChannel, got %v", err)
	}
}

func TestDispatcher_ReplyRoutesByChannel(t *testing.T) {
	t.Parallel()
	d := channel.NewDispatcher()
	tg := channeltest.NewMockChannel("telegram", nil)
	other := channeltest.NewMockChannel("other", nil)
	_ = d.Register("telegram", tg)
	_ = d.Register("other", other)

	r := message.Reply{Channel: "telegram", ChatID: "1", ReplyToID: "5", Text: "hi"}
	if err := d.Reply(context.Background(), r); err != nil {
		t.Fatalf("Reply: %v", err)
	}

	if got := tg.Replies(); len(got) != 1 || got[0] != r {
		t.Errorf("telegram replies = %+v", got)
	}
	if got := other.Replies(); len(got) != 0 {
		t.Errorf("other channel should receive nothing, got %+v", got)
	}
}

func TestDispatcher_ReplyUnknownChannel(t *testing.T) {
	t.Parallel()
	d := channel.NewDispatcher()
	err := d.Reply(context.Background(), message.Reply{Channel: "nope"})
	if !errors.Is(err, channel.ErrNoChannel) {
		t.Errorf("expected ErrNoChannel, got %v", err)
	}
}

func TestDispatcher_Channels(t *testing.T) {
	t.Parallel()
	d := channel.NewDispatcher()
	_ = d.Register("telegram", channeltest.NewMockChannel("telegram", nil))
	_ = d.Register("discord", channeltest.NewMockChannel("discord", nil))

	if got := d.Channels(); !slices.Equal(got, []string{"discord", "telegram"}) {
		t.Errorf("Channels() = %v", got)
	}
}

func TestDispatcher_ConcurrentAccess(t *testing.T) {
	t.Parallel()
	d := channel.NewDispatcher()
	ch := channeltest.NewMockChannel("telegram", nil)
	_ = d.Register("telegram", ch)

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = d.Reply(context.Background(), message.Reply{Channel: "telegram", Text: "x"})
			_ = d.Channels()
		}()
	}
	wg.Wait()

	if n := len(ch.Replies()); n != 50 {
		t.Errorf("replies = %d, want 50", n)
	}
}
