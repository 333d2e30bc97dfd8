package channel

import (
	"strings"

	"github.com/flemzord/voxscribe/pkg/message"
)

// Wildcard allows every sender when present in the user or group list.
const Wildcard = "*"

// AllowList controls which users and groups may submit voice messages.
// An empty or nil AllowList denies everyone; configure Wildcard to open
// the channel to all.
type AllowList struct {
	all    bool
	users  map[string]struct{}
	groups map[string]struct{}
}

// NewAllowList creates an AllowList with O(1) lookups. Keys are trimmed and
// lowercased at construction time so that IsAllowed can use direct map lookups.
func NewAllowList(users, groups []string) *AllowList {
	a := &AllowList{
		users:  make(map[string]struct{}, len(users)),
		groups: make(map[string]struct{}, len(groups)),
	}
	for _, u := range users {
		if normalize(u) == Wildcard {
			a.all = true
			continue
		}
		a.users[normalize(u)] = struct{}{}
	}
	for _, g := range groups {
		if normalize(g) == Wildcard {
			a.all = true
			continue
		}
		a.groups[normalize(g)] = struct{}{}
	}
	return a
}

// IsAllowed reports whether the event's sender or chat is permitted.
//
// Rules:
//   - Wildcard configured → allow.
//   - Sender ID matches a user entry → allow.
//   - Chat ID matches a group entry → allow.
//   - Otherwise, including an empty list → deny.
func (a *AllowList) IsAllowed(sender message.Sender, chat message.Chat) bool {
	if a == nil {
		return false
	}
	if a.all {
		return true
	}
	if _, ok := a.users[normalize(sender.ID)]; ok {
		return true
	}
	if _, ok := a.groups[normalize(chat.ID)]; ok {
		return true
	}
	return false
}

// IsOpen reports whether the list admits everyone.
func (a *AllowList) IsOpen() bool {
	return a != nil && a.all
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
