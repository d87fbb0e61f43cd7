package gatekeeper

// DefaultRulesConfig returns the security baseline SPEC_FULL.md §6 ships:
// the tool group table, the tool-name alias table, and default rules for
// the handful of tools with well-known high-risk shapes (exec, read,
// write, web_fetch, sessions_send, sessions_spawn). A host with no rules
// of its own gets this baseline rather than an all-permitting Gatekeeper;
// see MergeRulesConfig for how a host's own RulesConfig layers on top of
// it.
func DefaultRulesConfig() RulesConfig {
	return RulesConfig{
		Aliases: map[string]string{
			"bash":        "exec",
			"shell":       "exec",
			"run":         "exec",
			"execute":     "exec",
			"cmd":         "exec",
			"command":     "exec",
			"apply-patch": "apply_patch",
		},
		Groups: map[string][]string{
			"group:fs":         {"read", "write", "edit", "apply_patch"},
			"group:runtime":    {"exec", "process"},
			"group:web":        {"web_search", "web_fetch"},
			"group:memory":     {"memory_search", "memory_get"},
			"group:sessions":   {"sessions_list", "sessions_history", "sessions_send", "sessions_spawn", "subagents", "session_status"},
			"group:ui":         {"browser", "canvas"},
			"group:automation": {"cron", "gateway"},
			"group:messaging":  {"message"},
		},
		Tools: map[string]ToolRuleSet{
			// exec, read and write deliberately carry no call-level
			// Allow/Deny of their own: call-level patterns match against a
			// stable JSON serialization of the whole parameter map (see
			// evaluate in gatekeeper.go), which always starts with `{`, so
			// an anchored "starts with a safe prefix" pattern can never
			// match there. The equivalent restriction belongs on the
			// parameter itself, where it matches the parameter's own raw
			// value.
			"exec": {
				Parameters: map[string]ParameterRule{
					// A closed allow list: only commands starting with one
					// of these prefixes pass at all. An empty allow list
					// with no match already blocks everything else; see
					// evaluate's deny-then-allow order in gatekeeper.go.
					"command": {
						Allow: []string{
							`^echo\s`,
							`^ls(\s|$)`,
							`^pwd\s*$`,
							`^cat\s`,
							`^git\s`,
							`^go\s`,
							`^npm\s`,
							`^python3?\s`,
							`^node\s`,
						},
						Deny: execCommandDenyPatterns,
					},
				},
			},
			"read": {
				Parameters: map[string]ParameterRule{
					"file_path": {Allow: []string{`^\./`, `^/workspace/`}, Deny: readPathDenyPatterns},
					"filePath":  {Allow: []string{`^\./`, `^/workspace/`}, Deny: readPathDenyPatterns},
				},
			},
			"write": {
				Parameters: map[string]ParameterRule{
					"file_path": {Allow: []string{`^\./`, `^/workspace/`}, Deny: writePathDenyPatterns},
					"filePath":  {Allow: []string{`^\./`, `^/workspace/`}, Deny: writePathDenyPatterns},
				},
			},
			"web_fetch": {
				Parameters: map[string]ParameterRule{
					"url": {Deny: webFetchURLDenyPatterns},
				},
			},
			// sessions_send/sessions_spawn use a call-level deny instead:
			// `.*` matches any substring, including inside the JSON
			// object's braces, so the anchoring problem above doesn't
			// apply to a pattern with no anchor at all.
			"sessions_send":  {Deny: []string{`.*`}},
			"sessions_spawn": {Deny: []string{`.*`}},
		},
	}
}

// MergeRulesConfig layers override on top of base for the tool group,
// alias and per-tool-name maps: an entry override defines replaces base's
// entry of the same key outright (a host naming "sessions_send" in its
// own Tools is assumed to know the full rule set it wants for it, not
// just an addition to the shipped deny-all), while a key only base has is
// kept unchanged. This is how a host "explicitly unlocks" a tool the
// baseline denies by default: define that tool's rule set directly rather
// than relying on ToolRuleSet-level merging, which can only ever add deny
// patterns (see mergeRuleSets). Default and Breaker are taken from
// override whenever override sets anything in them, else from base.
func MergeRulesConfig(base, override RulesConfig) RulesConfig {
	merged := RulesConfig{
		Aliases: mergeStringMap(base.Aliases, override.Aliases),
		Groups:  mergeGroupMap(base.Groups, override.Groups),
		Tools:   mergeToolMap(base.Tools, override.Tools),
		Default: base.Default,
		Breaker: base.Breaker,
	}
	if len(override.Default.Deny) > 0 || len(override.Default.Allow) > 0 || len(override.Default.Parameters) > 0 {
		merged.Default = override.Default
	}
	if override.Breaker.MaxBlocked > 0 {
		merged.Breaker = override.Breaker
	}
	return merged
}

func mergeStringMap(base, override map[string]string) map[string]string {
	out := make(map[string]string, len(base)+len(override))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range override {
		out[k] = v
	}
	return out
}

func mergeGroupMap(base, override map[string][]string) map[string][]string {
	out := make(map[string][]string, len(base)+len(override))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range override {
		out[k] = v
	}
	return out
}

func mergeToolMap(base, override map[string]ToolRuleSet) map[string]ToolRuleSet {
	out := make(map[string]ToolRuleSet, len(base)+len(override))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range override {
		out[k] = v
	}
	return out
}

// execCommandDenyPatterns flag additional dangerous shapes inside an
// already allow-listed exec command: deleting outside /tmp, piping a
// remote script straight into a shell, and reading dotenv files. RE2 (the
// regexp engine Go's regexp package implements) has no lookahead, so
// "outside /tmp" is approximated by enumerating the common absolute roots
// rm -rf is actually dangerous against rather than excluding /tmp from a
// single pattern.
var execCommandDenyPatterns = []string{
	`rm\s+-rf\s+/(bin|boot|dev|etc|home|lib|proc|root|sbin|sys|usr|var)(/|\s|$)`,
	`rm\s+-rf\s+/\s*$`,
	`(curl|wget)\s[^|]*\|\s*(sh|bash)`,
	`cat\s+\S*\.env\S*`,
}

// readPathDenyPatterns are the paths read should never resolve even when
// the allow list would otherwise admit them.
var readPathDenyPatterns = []string{
	`\.ssh/`,
	`\.env`,
	`/etc/shadow`,
	`/etc/passwd`,
	`\.aws/`,
	`/proc/`,
}

// writePathDenyPatterns extends readPathDenyPatterns with the additional
// system directories spec.md §6 calls out for write specifically.
var writePathDenyPatterns = append(append([]string{}, readPathDenyPatterns...),
	`/etc/`, `/usr/`, `/proc/`, `/sys/`,
)

// webFetchURLDenyPatterns block SSRF-favorite targets: loopback and
// link-local addresses (v4 and v6), RFC1918 private ranges, the common
// cloud metadata endpoint, decimal/hex/octal-encoded loopback, and
// non-http(s) schemes that can reach the local filesystem or odd
// protocol handlers.
var webFetchURLDenyPatterns = []string{
	`://(127\.|0\.0\.0\.0)`,
	`://\[?::1\]?`,
	`://(169\.254\.|\[?fe80:)`,
	`://10\.`,
	`://172\.(1[6-9]|2[0-9]|3[01])\.`,
	`://192\.168\.`,
	`://0x7f`,
	`://2130706433`,
	`://0177\.`,
	`^file://`,
	`^gopher://`,
	`^dict://`,
}
