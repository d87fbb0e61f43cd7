// Package firewall wires the gatekeeper, vault and sanitizer subsystems
// into the four entry points a host calls on the tool-call and
// message-emission path of an agent.
package firewall

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"agentfirewall/internal/gatekeeper"
	"agentfirewall/internal/logging"
	"agentfirewall/internal/sanitizer"
	"agentfirewall/internal/vault"
)

// Firewall is the facade a host holds for the lifetime of one session. It
// is immutable once built; a configuration change produces a new Firewall
// rather than mutating this one, per the Lifecycle the three subsystems
// share.
type Firewall struct {
	gate        *gatekeeper.Gatekeeper
	vault       *vault.Vault
	sanitizer   *sanitizer.Sanitizer
	logger      logging.Logger
	opaqueNames bool
}

// Option configures a Firewall at construction time.
type Option func(*Firewall)

// WithLogger supplies the sink block/scrub decisions are reported to.
func WithLogger(l logging.Logger) Option {
	return func(f *Firewall) { f.logger = l }
}

// WithOpaqueVaultNames wires the `opaqueVaultNames` configuration option:
// when enabled, BuildAgentPromptHint advertises placeholders as
// {{SECRET_1}}..{{SECRET_N}} in vault construction order instead of their
// real names, so the agent never even sees the meaningful placeholder
// names (e.g. "STRIPE_KEY" hinting at which service is wired up).
func WithOpaqueVaultNames(opaque bool) Option {
	return func(f *Firewall) { f.opaqueNames = opaque }
}

// New builds a Firewall from its three compiled subsystems.
func New(gate *gatekeeper.Gatekeeper, v *vault.Vault, s *sanitizer.Sanitizer, opts ...Option) *Firewall {
	f := &Firewall{gate: gate, vault: v, sanitizer: s, logger: logging.Noop()}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// BeforeToolCall runs on a tool call before it executes. It checks the
// call against the gatekeeper's rules using the parameters exactly as the
// agent supplied them (placeholders and all, so rules match against call
// shape rather than raw secret values), then — only if allowed — injects
// real secret values from the vault in place of any {{NAME}} placeholders,
// producing the parameters the tool itself should actually receive.
//
// When the call is blocked, resolvedParams is nil and reason explains why.
func (f *Firewall) BeforeToolCall(toolName string, params map[string]any) (resolvedParams map[string]any, allowed bool, reason string) {
	allowed, reason = f.gate.Check(toolName, params)
	if !allowed {
		f.logger.Printf("before_tool_call blocked: tool=%q reason=%q", toolName, reason)
		return nil, false, reason
	}

	injected := f.vault.InjectParams(params)
	resolved, ok := injected.(map[string]any)
	if !ok {
		// params was a map[string]any going in; Walk preserves container
		// type, so this only happens if the caller passed something else.
		return nil, false, fmt.Sprintf("tool call parameters for %q were not an object", toolName)
	}
	return resolved, true, ""
}

// OnToolResultPersist runs on a tool's result before it is written into
// conversation history. It scrubs any real secret values back into
// placeholder form and sanitizes anything else that looks like a leaked
// credential, so history never holds plaintext secrets.
func (f *Firewall) OnToolResultPersist(result any) any {
	before := canonicalJSON(result)
	scrubbed := sanitizer.ScrubAndSanitizeObject(f.vault, f.sanitizer, result)
	if canonicalJSON(scrubbed) != before {
		f.logger.Printf("tool result scrubbed before persisting")
	}
	return scrubbed
}

// OnMessageSending runs on an outgoing agent message (to the user or to
// any other external sink) before it leaves the process. It applies the
// same scrub-then-sanitize pipeline as OnToolResultPersist.
func (f *Firewall) OnMessageSending(message string) string {
	before := message
	scrubbed := sanitizer.ScrubAndSanitize(f.vault, f.sanitizer, message)
	if scrubbed != before {
		f.logger.Printf("outgoing message scrubbed before sending")
	}
	return scrubbed
}

// BuildAgentPromptHint returns a short, static hint describing which vault
// placeholders the agent may reference by name, without ever revealing
// their values. Names are listed in vault construction order (the order an
// operator declared them in, which is the only order with any meaning
// here — alphabetizing would just be noise). When the Firewall was built
// with WithOpaqueVaultNames(true), the real names are never surfaced at
// all: the agent sees {{SECRET_1}}..{{SECRET_N}} instead. Intended to be
// appended to a host's system prompt.
func (f *Firewall) BuildAgentPromptHint() string {
	names := f.vault.PlaceholderNames()
	if len(names) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("You may reference the following secret values by placeholder name; ")
	b.WriteString("never write out their actual values, only the placeholder itself:")
	for i, name := range names {
		if f.opaqueNames {
			name = "SECRET_" + strconv.Itoa(i+1)
		}
		b.WriteString(" {{")
		b.WriteString(name)
		b.WriteString("}}")
	}
	return b.String()
}

// canonicalJSON serializes v for change-comparison purposes. encoding/json
// already sorts map[string]any keys on Marshal, so two structurally equal
// values always serialize identically regardless of map iteration order.
func canonicalJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		// Only non-JSON-able values (channels, funcs) fail here, which
		// never legitimately appear in a tool result or message body.
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
