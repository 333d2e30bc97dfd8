// Package channel defines the bridge between messaging platforms and the
// voice pipeline: the Channel interface, reply dispatching, allow-list
// filtering and reply chunking.
package channel

import (
	"context"

	"github.com/flemzord/voxscribe/internal/core"
	"github.com/flemzord/voxscribe/pkg/message"
)

// Channel is the bridge between a messaging platform and the voice pipeline.
// Every concrete channel (Telegram, ...) implements this interface.
//
// A channel receives voice messages from its platform, checks the
// allow-list, and pushes them to the pipeline through the voice inbox. It
// delivers text answers through Reply.
type Channel interface {
	core.Module
	Replier

	// SetVoiceInbox gives the channel the function that accepts voice
	// events. It is called during wiring, before Start(). The function
	// must not block on processing.
	SetVoiceInbox(fn func(ev message.VoiceEvent))
}

// Replier sends a text reply to the platform.
type Replier interface {
	Reply(ctx context.Context, r message.Reply) error
}
