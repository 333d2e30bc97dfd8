// Package channeltest provides test doubles for the channel package.
package channeltest

import (
	"context"
	"sync"

	"github.com/flemzord/voxscribe/internal/channel"
	"github.com/flemzord/voxscribe/internal/core"
	"github.com/flemzord/voxscribe/pkg/message"
)

var _ channel.Channel = (*MockChannel)(nil)

// MockChannel records replies and lets tests inject voice events through
// SimulateVoice.
type MockChannel struct {
	name      string
	allowList *channel.AllowList

	mu      sync.Mutex
	inbox   func(ev message.VoiceEvent)
	replies []message.Reply

	// ReplyFunc, if set, is called instead of the default recording behavior.
	ReplyFunc func(ctx context.Context, r message.Reply) error
}

// NewMockChannel creates a MockChannel. Pass nil for allowList to deny all
// events.
func NewMockChannel(name string, allowList *channel.AllowList) *MockChannel {
	return &MockChannel{
		name:      name,
		allowList: allowList,
	}
}

// ModuleInfo implements core.Module.
func (m *MockChannel) ModuleInfo() core.ModuleInfo {
	return core.ModuleInfo{
		ID: core.ModuleID("channel." + m.name),
		New: func() core.Module {
			return NewMockChannel(m.name, m.allowList)
		},
	}
}

// Reply records r, or delegates to ReplyFunc when set.
func (m *MockChannel) Reply(ctx context.Context, r message.Reply) error {
	if m.ReplyFunc != nil {
		return m.ReplyFunc(ctx, r)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replies = append(m.replies, r)
	return nil
}

// SetVoiceInbox implements channel.Channel.
func (m *MockChannel) SetVoiceInbox(fn func(ev message.VoiceEvent)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inbox = fn
}

// SimulateVoice pushes ev through the allow-list into the inbox, tagging it
// with the channel name.
func (m *MockChannel) SimulateVoice(ev message.VoiceEvent) error {
	m.mu.Lock()
	inbox := m.inbox
	m.mu.Unlock()

	if !m.allowList.IsAllowed(ev.Sender, ev.Chat) {
		return channel.ErrDenied
	}
	if inbox == nil {
		return channel.ErrNoInbox
	}
	ev.Channel = m.name
	inbox(ev)
	return nil
}

// Replies returns a copy of every recorded reply.
func (m *MockChannel) Replies() []message.Reply {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]message.Reply(nil), m.replies...)
}

// Reset clears recorded replies.
func (m *MockChannel) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replies = nil
}
