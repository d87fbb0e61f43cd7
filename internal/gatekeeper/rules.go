package gatekeeper

import (
	"regexp"

	"agentfirewall/internal/logging"
)

type compiledParameterRule struct {
	deny  []*regexp.Regexp
	allow []*regexp.Regexp
}

type compiledRuleSet struct {
	deny         []*regexp.Regexp
	allow        []*regexp.Regexp
	parameters   map[string]compiledParameterRule
	blockMessage string
}

const defaultBlockMessage = "blocked by firewall rule"

// compilePatterns compiles every pattern in patterns, skipping (and
// logging) any that fail to compile rather than aborting the whole rule
// set over one typo in a config file.
func compilePatterns(patterns []string, context string, logger logging.Logger) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			logger.Printf("dropping invalid pattern %q in %s: %v", p, context, err)
			continue
		}
		out = append(out, re)
	}
	return out
}

func compileParameterRule(name string, r ParameterRule, logger logging.Logger) compiledParameterRule {
	return compiledParameterRule{
		deny:  compilePatterns(r.Deny, "parameter "+name+" deny", logger),
		allow: compilePatterns(r.Allow, "parameter "+name+" allow", logger),
	}
}

func compileRuleSet(rs ToolRuleSet, context string, logger logging.Logger) compiledRuleSet {
	params := make(map[string]compiledParameterRule, len(rs.Parameters))
	for name, r := range rs.Parameters {
		params[name] = compileParameterRule(name, r, logger)
	}
	msg := rs.BlockMessage
	if msg == "" {
		msg = defaultBlockMessage
	}
	return compiledRuleSet{
		deny:         compilePatterns(rs.Deny, context+" deny", logger),
		allow:        compilePatterns(rs.Allow, context+" allow", logger),
		parameters:   params,
		blockMessage: msg,
	}
}

// mergeRuleSets layers override on top of base. Deny lists are
// security-additive: override's deny patterns are appended to base's, so a
// more specific rule set can only add restrictions, never silently drop
// one inherited from Default. Allow lists are capability-opening: a
// non-empty override allow list replaces base's entirely, since an allow
// list narrows a tool to an explicit set of acceptable values and a more
// specific rule set is assumed to know the full acceptable set it wants.
// Parameter rules are merged per parameter name using the same two rules.
// BlockMessage: override's replaces base's when non-empty (it is never
// empty after compileRuleSet, so a raw, pre-merge variant is used here).
func mergeRuleSets(base, override ToolRuleSet) ToolRuleSet {
	merged := ToolRuleSet{
		Deny:       append(append([]string{}, base.Deny...), override.Deny...),
		Allow:      base.Allow,
		Parameters: make(map[string]ParameterRule, len(base.Parameters)+len(override.Parameters)),
	}
	if len(override.Allow) > 0 {
		merged.Allow = override.Allow
	}

	for name, r := range base.Parameters {
		merged.Parameters[name] = r
	}
	for name, r := range override.Parameters {
		baseRule := merged.Parameters[name]
		mergedRule := ParameterRule{
			Deny:  append(append([]string{}, baseRule.Deny...), r.Deny...),
			Allow: baseRule.Allow,
		}
		if len(r.Allow) > 0 {
			mergedRule.Allow = r.Allow
		}
		merged.Parameters[name] = mergedRule
	}

	merged.BlockMessage = base.BlockMessage
	if override.BlockMessage != "" {
		merged.BlockMessage = override.BlockMessage
	}

	return merged
}
