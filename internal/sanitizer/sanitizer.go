// Package sanitizer applies an ordered list of regex patterns to text,
// replacing every match with a single fixed replacement token. It never
// inspects or reverses what it replaces; that asymmetry is intentional
// (see the vault package for the bidirectional counterpart).
package sanitizer

import (
	"regexp"

	"agentfirewall/internal/logging"
	"agentfirewall/internal/vault"
	"agentfirewall/internal/walker"
)

// DefaultReplacement is used when a Sanitizer is constructed without an
// explicit replacement token.
const DefaultReplacement = "[REDACTED]"

// RawPattern is a caller-supplied pattern before compilation: a name for
// logging/debugging and the regex source text. Hosts load these from
// configuration; this package never parses configuration itself.
type RawPattern struct {
	Name  string
	Regex string
}

// Sanitizer holds a compiled, ordered pattern list and the token every
// match is replaced with.
type Sanitizer struct {
	patterns    []PatternDef
	replacement string
	logger      logging.Logger
	enabled     bool
	useDefaults bool
}

// Option configures a Sanitizer at construction time.
type Option func(*Sanitizer)

// WithReplacement overrides DefaultReplacement.
func WithReplacement(token string) Option {
	return func(s *Sanitizer) { s.replacement = token }
}

// WithLogger supplies the logger invalid patterns are reported to. If not
// given, a logging.Noop logger is used.
func WithLogger(l logging.Logger) Option {
	return func(s *Sanitizer) { s.logger = l }
}

// WithEnabled wires the `sanitization.enabled` master switch. A disabled
// Sanitizer's Sanitize/SanitizeObject are the identity function, so a
// firewall built on top of it falls back to vault-only scrubbing without
// needing to know the sanitizer is off.
func WithEnabled(enabled bool) Option {
	return func(s *Sanitizer) { s.enabled = enabled }
}

// WithDefaultPatterns wires the `sanitization.useDefaultPatterns` toggle.
// Disabling it means New starts from an empty pattern list instead of
// DefaultPatterns(), so only caller-supplied patterns apply.
func WithDefaultPatterns(useDefaults bool) Option {
	return func(s *Sanitizer) { s.useDefaults = useDefaults }
}

// New builds a Sanitizer from raw, caller-supplied patterns appended after
// DefaultPatterns() (unless WithDefaultPatterns(false) is given, in which
// case DefaultPatterns() is omitted entirely). A pattern whose regex fails
// to compile is skipped with a logged warning; construction never aborts
// because of one bad pattern, since a host reloading configuration should
// not lose sanitization entirely over a single typo.
func New(extra []RawPattern, opts ...Option) *Sanitizer {
	s := &Sanitizer{
		replacement: DefaultReplacement,
		logger:      logging.Noop(),
		enabled:     true,
		useDefaults: true,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.useDefaults {
		s.patterns = DefaultPatterns()
	}

	for _, raw := range extra {
		re, err := regexp.Compile(raw.Regex)
		if err != nil {
			s.logger.Printf("dropping invalid pattern %q: %v", raw.Name, err)
			continue
		}
		s.patterns = append(s.patterns, PatternDef{Name: raw.Name, Regex: re})
	}

	return s
}

// Sanitize replaces every pattern match in text with the Sanitizer's
// replacement token, applying patterns in list order. A Sanitizer built
// with WithEnabled(false) returns text unchanged, so the firewall falls
// back to vault-only scrubbing.
func (s *Sanitizer) Sanitize(text string) string {
	if text == "" || !s.enabled {
		return text
	}
	out := text
	for _, p := range s.patterns {
		out = p.Regex.ReplaceAllString(out, s.replacement)
	}
	return out
}

// SanitizeObject applies Sanitize to every string leaf of a structured value.
func (s *Sanitizer) SanitizeObject(value any) any {
	return walker.Walk(value, s.Sanitize)
}

// ScrubAndSanitize first scrubs vault secrets back into placeholder form,
// then sanitizes what remains. Running scrub first means a literal secret
// value never has the chance to accidentally match a sanitization pattern
// and get replaced by the generic token instead of its own placeholder,
// which would make it unrecoverable by Vault.Inject.
func ScrubAndSanitize(v *vault.Vault, s *Sanitizer, text string) string {
	return s.Sanitize(v.Scrub(text))
}

// ScrubAndSanitizeObject is the structured-value counterpart of
// ScrubAndSanitize, walking once through vault scrubbing and once through
// sanitization.
func ScrubAndSanitizeObject(v *vault.Vault, s *Sanitizer, value any) any {
	return s.SanitizeObject(v.ScrubObject(value))
}

// PatternNames returns the configured pattern names in application order,
// for diagnostics.
func (s *Sanitizer) PatternNames() []string {
	out := make([]string, len(s.patterns))
	for i, p := range s.patterns {
		out[i] = p.Name
	}
	return out
}
