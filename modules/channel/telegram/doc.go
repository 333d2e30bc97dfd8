// Package telegram implements the Telegram Bot API channel for voxscribe.
//
// It turns voice notes into message.VoiceEvent values and sends transcripts
// back as plain-text replies:
//
//   - Inbound conversion of voice notes, with the audio fetched lazily
//     through getFile and the file endpoint
//   - Reply dispatch with splitting at the 4096 UTF-16 unit limit
//   - Two delivery modes: long-polling (default) and webhook
//
// The module registers itself as "channel.telegram" via init() and follows
// the Configure → Provision → Validate → Start → Stop lifecycle.
//
// No external Telegram library is used; the module talks to the Bot API
// via net/http + encoding/json.
package telegram
