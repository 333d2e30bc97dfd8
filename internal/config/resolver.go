package config

import (
	"cmp"
	"slices"

	"github.com/flemzord/voxscribe/internal/core"
)

// loadRank orders namespaces so that services exist before the modules
// that consume them start: storage, then recognizers, then the HTTP
// gateway, then channels.
var loadRank = map[string]int{
	"history": 0,
	"stt":     1,
	"gateway": 2,
	"channel": 3,
}

// Resolve returns the configured module IDs in load order: by namespace
// rank, then alphabetically. Unknown namespaces load last.
func Resolve(cfg *Config) []string {
	ids := make([]string, 0, len(cfg.Modules))
	for id := range cfg.Modules {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(a, b string) int {
		if c := cmp.Compare(rank(a), rank(b)); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})
	return ids
}

func rank(id string) int {
	if r, ok := loadRank[core.Namespace(id)]; ok {
		return r
	}
	return len(loadRank)
}
