package gatekeeper

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"agentfirewall/internal/logging"
)

// Gatekeeper resolves tool calls against a compiled, immutable rule table
// and a per-session circuit breaker. One instance is built per session
// (per spec's Lifecycle) and never mutated afterward; config changes
// produce a fresh instance rather than mutating this one.
type Gatekeeper struct {
	aliases   map[string]string
	toolGroup map[string]string // canonical tool name -> group it belongs to
	defaultRS compiledRuleSet
	tools     map[string]compiledRuleSet // canonical tool name OR group name -> rule set
	breaker   *breaker
	logger    logging.Logger
	nowMillis func() int64
}

// Option configures a Gatekeeper at construction time.
type Option func(*Gatekeeper)

// WithLogger supplies the sink block decisions and dropped patterns are
// reported to.
func WithLogger(l logging.Logger) Option {
	return func(g *Gatekeeper) { g.logger = l }
}

// withClock overrides the wall clock used by the breaker; exposed for
// tests that need deterministic sliding-window behavior.
func withClock(f func() int64) Option {
	return func(g *Gatekeeper) { g.nowMillis = f }
}

// New compiles cfg into an immutable Gatekeeper. Invalid regex patterns
// anywhere in cfg are dropped with a logged warning rather than failing
// construction.
func New(cfg RulesConfig, opts ...Option) *Gatekeeper {
	g := &Gatekeeper{
		aliases:   cfg.Aliases,
		toolGroup: make(map[string]string, len(cfg.Groups)),
		tools:     make(map[string]compiledRuleSet, len(cfg.Tools)),
		logger:    logging.Noop(),
		nowMillis: func() int64 { return time.Now().UnixMilli() },
	}
	for _, opt := range opts {
		opt(g)
	}

	g.defaultRS = compileRuleSet(cfg.Default, "default", g.logger)
	g.breaker = newBreaker(cfg.Breaker)

	for group, members := range cfg.Groups {
		for _, tool := range members {
			g.toolGroup[tool] = group
		}
	}

	for name, rs := range cfg.Tools {
		merged := mergeRuleSets(cfg.Default, rs)
		g.tools[name] = compileRuleSet(merged, "tool "+name, g.logger)
	}

	return g
}

// canonicalName resolves a raw tool name through the alias table.
func (g *Gatekeeper) canonicalName(name string) string {
	if canon, ok := g.aliases[name]; ok {
		return canon
	}
	return name
}

// resolveRuleSet finds the compiled rule set governing a canonical tool
// name: a tool-specific rule set first, then its group's rule set, then
// the default.
func (g *Gatekeeper) resolveRuleSet(canonical string) compiledRuleSet {
	if rs, ok := g.tools[canonical]; ok {
		return rs
	}
	if group, ok := g.toolGroup[canonical]; ok {
		if rs, ok := g.tools[group]; ok {
			return rs
		}
	}
	return g.defaultRS
}

// Check evaluates a tool call against the resolved rule set and the
// circuit breaker, returning whether it is allowed and, if not, the
// message to surface. reason is empty when allowed is true.
func (g *Gatekeeper) Check(toolName string, params map[string]any) (allowed bool, reason string) {
	correlationID := uuid.New().String()
	canonical := g.canonicalName(toolName)
	now := g.nowMillis()

	if g.breaker.isTripped(now) {
		reason = "tool calls suspended for this session after repeated blocked calls"
		g.logger.Printf("[%s] suspended: tool=%q", correlationID, toolName)
		return false, reason
	}

	rs := g.resolveRuleSet(canonical)
	allowed, reason = evaluate(rs, params)

	if !allowed {
		tripped := g.breaker.recordBlock(now)
		g.logger.Printf("[%s] blocked: tool=%q reason=%q", correlationID, toolName, reason)
		if tripped {
			action := g.breaker.cfg.Action
			g.logger.Printf("[%s] circuit breaker tripped (action=%s)", correlationID, action)
		}
		return false, reason
	}

	return true, ""
}

// evaluate runs deny-then-allow, call-level-then-parameter-level, exactly
// as spec.md §4.4 step 1 requires: call-level deny/allow patterns are
// matched against a stable serialization of the whole parameter map P
// (so a pattern can reference a parameter name or span more than one
// parameter's value), while parameter-level rules still match against
// that one parameter's own value. A deny match anywhere blocks
// immediately; an allow list, if present, requires at least one match
// before anything else is considered acceptable.
func evaluate(rs compiledRuleSet, params map[string]any) (bool, string) {
	serialized := serializeParams(params)
	values := stringifyParams(params)

	for _, re := range rs.deny {
		if re.MatchString(serialized) {
			return false, rs.blockMessage
		}
	}

	if len(rs.allow) > 0 {
		matched := false
		for _, re := range rs.allow {
			if re.MatchString(serialized) {
				matched = true
				break
			}
		}
		if !matched {
			return false, rs.blockMessage
		}
	}

	for name, value := range values {
		rule, ok := lookupParameterRule(rs.parameters, name)
		if !ok {
			continue
		}
		for _, re := range rule.deny {
			if re.MatchString(value) {
				return false, rs.blockMessage
			}
		}
		if len(rule.allow) > 0 {
			matched := false
			for _, re := range rule.allow {
				if re.MatchString(value) {
					matched = true
					break
				}
			}
			if !matched {
				return false, rs.blockMessage
			}
		}
	}

	return true, ""
}

func lookupParameterRule(parameters map[string]compiledParameterRule, name string) (compiledParameterRule, bool) {
	for _, key := range parameterLookupKeys(name) {
		if rule, ok := parameters[key]; ok {
			return rule, true
		}
	}
	return compiledParameterRule{}, false
}

// serializeParams renders the whole parameter map to a single stable
// string for call-level pattern matching. encoding/json sorts map keys on
// Marshal, so the same parameter set always serializes identically
// regardless of map iteration order.
func serializeParams(params map[string]any) string {
	data, err := json.Marshal(params)
	if err != nil {
		// Only non-JSON-able values (channels, funcs) fail here, which
		// never legitimately appear as tool call parameters.
		return fmt.Sprintf("%v", params)
	}
	return string(data)
}

// stringifyParams renders every parameter value to a string for pattern
// matching. Non-string values use fmt's default formatting, matching the
// teacher's general habit of formatting values with %v rather than
// hand-rolling per-type conversions.
func stringifyParams(params map[string]any) map[string]string {
	out := make(map[string]string, len(params))
	for name, value := range params {
		if s, ok := value.(string); ok {
			out[name] = s
			continue
		}
		out[name] = fmt.Sprintf("%v", value)
	}
	return out
}
