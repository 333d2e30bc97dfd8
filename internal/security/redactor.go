// Package security keeps secrets out of logs and throttles abusive senders.
package security

import (
	"regexp"
	"strings"
	"sync"
)

// RedactPlaceholder is the replacement string for redacted secrets.
const RedactPlaceholder = "***REDACTED***"

// secretKeyPattern matches map keys that likely contain secrets.
var secretKeyPattern = regexp.MustCompile(`(?i)(secret|token|password|auth_data|authorization|key|credential)`)

// Redactor replaces secret values in strings and maps with RedactPlaceholder.
// Patterns catch known token formats; literals catch values loaded at
// runtime. Named literals can be replaced, which suits rotating secrets
// like OAuth access tokens. All methods are safe for concurrent use.
type Redactor struct {
	mu       sync.RWMutex
	patterns []*regexp.Regexp
	literals []string
	named    map[string]string
}

// NewRedactor creates a Redactor pre-loaded with DefaultPatterns.
func NewRedactor() *Redactor {
	return &Redactor{
		patterns: DefaultPatterns(),
	}
}

// AddPattern adds a compiled regex pattern to the redactor.
func (r *Redactor) AddPattern(pattern *regexp.Regexp) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.patterns = append(r.patterns, pattern)
}

// AddLiteral adds a literal secret value that should be redacted on sight.
// Empty strings are ignored.
func (r *Redactor) AddLiteral(secret string) {
	if secret == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.literals = append(r.literals, secret)
}

// SetLiteral sets the secret stored under name, replacing the previous
// value. An empty value removes the entry.
func (r *Redactor) SetLiteral(name, secret string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if secret == "" {
		delete(r.named, name)
		return
	}
	if r.named == nil {
		r.named = make(map[string]string)
	}
	r.named[name] = secret
}

// Redact replaces all known secret patterns and literal values in s
// with RedactPlaceholder.
func (r *Redactor) Redact(s string) string {
	if s == "" {
		return s
	}

	r.mu.RLock()
	patterns := r.patterns
	literals := make([]string, 0, len(r.literals)+len(r.named))
	literals = append(literals, r.literals...)
	for _, v := range r.named {
		literals = append(literals, v)
	}
	r.mu.RUnlock()

	// Literals first: a pattern could rewrite part of a literal and hide
	// the rest from the exact match.
	for _, lit := range literals {
		if strings.Contains(s, lit) {
			s = strings.ReplaceAll(s, lit, RedactPlaceholder)
		}
	}

	for _, p := range patterns {
		s = p.ReplaceAllString(s, RedactPlaceholder)
	}

	return s
}

// RedactMap walks a map and replaces values whose keys look like secret
// names. Used when displaying the resolved configuration.
func (r *Redactor) RedactMap(m map[string]any) {
	for k, v := range m {
		if secretKeyPattern.MatchString(k) {
			if s, ok := v.(string); ok && s != "" {
				m[k] = RedactPlaceholder
				continue
			}
		}
		switch val := v.(type) {
		case map[string]any:
			r.RedactMap(val)
		case []any:
			for _, item := range val {
				if sub, ok := item.(map[string]any); ok {
					r.RedactMap(sub)
				}
			}
		case string:
			if redacted := r.Redact(val); redacted != val {
				m[k] = redacted
			}
		}
	}
}

// DefaultPatterns returns compiled patterns for the token formats that
// cross this process: Telegram bot tokens (also inside api.telegram.org
// URLs), Authorization header values, and JWT/JWE access tokens.
func DefaultPatterns() []*regexp.Regexp {
	return []*regexp.Regexp{
		// Telegram bot token: <bot id>:<35 char hash>
		regexp.MustCompile(`\d{6,12}:[A-Za-z0-9_-]{30,}`),
		// Authorization header values
		regexp.MustCompile(`(?i)\b(Bearer|Basic)\s+[A-Za-z0-9._~+/=-]{16,}`),
		// JWT / JWE compact serialization
		regexp.MustCompile(`eyJ[A-Za-z0-9_-]{10,}(\.[A-Za-z0-9_-]*){2,4}`),
	}
}
