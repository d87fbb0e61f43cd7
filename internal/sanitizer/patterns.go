package sanitizer

import "regexp"

// PatternDef is one sanitization rule: a compiled pattern plus the metadata
// an operator sees in logs and config dumps. Unlike the richer anonymization
// pipeline this package's patterns are descended from, every match is
// replaced by a single fixed token — there is no per-category fake-value
// generation and no reverse map, since scrubbing here is one-way.
type PatternDef struct {
	Name  string
	Regex *regexp.Regexp
	Note  string
}

// defaultPatternSource holds the name/regex/note triples compiled into
// DefaultPatterns. Keeping the raw strings here (rather than calling
// regexp.MustCompile at package scope) lets NewSanitizer's construction-time
// compile step also exercise a caller-supplied list through the same path.
var defaultPatternSource = []struct {
	name  string
	regex string
	note  string
}{
	{
		name:  "private_key",
		regex: `(?s)-----BEGIN\s+(?:RSA\s+|DSA\s+|EC\s+|OPENSSH\s+|PGP\s+)?PRIVATE KEY-----.*?-----END\s+(?:RSA\s+|DSA\s+|EC\s+|OPENSSH\s+|PGP\s+)?PRIVATE KEY-----`,
		note:  "PEM private key block",
	},
	{
		name:  "env_assignment",
		regex: `(?im)^([A-Z][A-Z0-9_]*(?:KEY|TOKEN|SECRET|PASSWORD|PASS|CREDENTIAL)[A-Z0-9_]*)\s*=\s*\S+`,
		note:  "shell-style KEY=value assignment of a credential-shaped variable",
	},
	{
		name:  "json_secret_field",
		regex: `(?i)"(api[_-]?key|token|secret|password|access[_-]?key|client[_-]?secret)"\s*:\s*"[^"]+"`,
		note:  "JSON object field with a credential-shaped key",
	},
	{
		name:  "cli_flag_secret",
		regex: `(?i)--(api[_-]?key|token|secret|password)[=\s]+\S+`,
		note:  "command-line flag carrying a credential value",
	},
	{
		name:  "bearer_token",
		regex: `(?i)\bBearer\s+[A-Za-z0-9._~+/=-]{8,}`,
		note:  "HTTP Authorization: Bearer header value",
	},
	{
		name:  "provider_prefixed_key",
		regex: `\b(?:sk-[A-Za-z0-9]{16,}|sk-live-[A-Za-z0-9]{8,}|sk_live_[A-Za-z0-9]{8,}|pk_live_[A-Za-z0-9]{8,}|rk_live_[A-Za-z0-9]{8,}|ghp_[A-Za-z0-9]{36}|github_pat_[A-Za-z0-9_]{20,}|xox[baprs]-[A-Za-z0-9-]{10,}|xapp-[A-Za-z0-9-]{10,}|gsk_[A-Za-z0-9]{20,}|AIza[A-Za-z0-9_-]{35}|pplx-[A-Za-z0-9]{20,}|npm_[A-Za-z0-9]{36}|AKIA[0-9A-Z]{16}|SG\.[A-Za-z0-9_-]{20,}\.[A-Za-z0-9_-]{20,})\b`,
		note:  "provider-prefixed API key (OpenAI, GitHub, Slack, Google, npm, AWS, SendGrid, ...)",
	},
	{
		name:  "jwt",
		regex: `\beyJ[A-Za-z0-9_-]+\.eyJ[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+\b`,
		note:  "JSON Web Token",
	},
	{
		name:  "database_uri",
		regex: `\b(?:postgres(?:ql)?|mysql|mongodb(?:\+srv)?|redis|amqp)://[^:\s]+:[^@\s]+@\S+`,
		note:  "database or broker connection URI with embedded credentials",
	},
	{
		name:  "generic_id_token_pair",
		regex: `(?i)\b[A-Za-z0-9_-]{2,32}:[A-Za-z0-9._~+/=-]{16,}\b`,
		note:  "generic id:token pair (catch-all, lowest priority)",
	},
}

// DefaultPatterns returns a freshly compiled copy of the built-in pattern
// list, ordered most-specific first so a narrower credential pattern is
// never shadowed by the generic id:token catch-all.
func DefaultPatterns() []PatternDef {
	out := make([]PatternDef, 0, len(defaultPatternSource))
	for _, p := range defaultPatternSource {
		re, err := regexp.Compile(p.regex)
		if err != nil {
			// The built-in list is a compile-time constant; a failure here
			// is a programming error, not a runtime condition to recover from.
			panic("sanitizer: built-in pattern " + p.name + " failed to compile: " + err.Error())
		}
		out = append(out, PatternDef{Name: p.name, Regex: re, Note: p.note})
	}
	return out
}
