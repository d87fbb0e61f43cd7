// Package gatekeeper resolves a tool call (name + parameters) against a
// configured rule set and a per-session circuit breaker, returning whether
// the call is allowed and, if not, the message to surface to the agent.
package gatekeeper

// ParameterRule narrows a ToolRuleSet to a single named parameter. Deny
// patterns are checked first: any match blocks the call outright. Allow
// patterns, when non-empty, make the rule a closed list: the parameter
// value must match at least one of them or the call is blocked.
type ParameterRule struct {
	Deny  []string
	Allow []string
}

// ToolRuleSet is the full rule configuration for one tool (or tool group).
// Deny and Allow apply across every parameter value on the call; Parameters
// layers additional rules onto individual named parameters.
type ToolRuleSet struct {
	Deny         []string
	Allow        []string
	Parameters   map[string]ParameterRule
	BlockMessage string
}

// RulesConfig is the full, as-authored rule configuration: a default rule
// set applied to every tool, per-tool and per-group overrides, and the
// tables used to resolve a raw tool name to the rule set that governs it.
type RulesConfig struct {
	// Aliases maps an alternate tool name to its canonical name, e.g. a
	// provider renames "bash" to "run_shell" without the rules author
	// having to duplicate every rule under the new name.
	Aliases map[string]string

	// Groups maps a group name to the canonical tool names it contains.
	// A tool found in a group inherits that group's rule set (merged over
	// Default) when it has no rule set of its own under Tools.
	Groups map[string][]string

	// Default is merged under every tool's resolved rule set.
	Default ToolRuleSet

	// Tools maps a canonical tool name OR a group name to its rule set.
	Tools map[string]ToolRuleSet

	Breaker BreakerConfig
}
