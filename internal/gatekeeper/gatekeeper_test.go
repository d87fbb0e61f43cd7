package gatekeeper

import "testing"

func TestCheck_DefaultAllowsUnknownTool(t *testing.T) {
	g := New(RulesConfig{})
	allowed, reason := g.Check("read_file", map[string]any{"path": "/tmp/x"})
	if !allowed {
		t.Errorf("expected allow, got blocked: %q", reason)
	}
}

func TestCheck_DefaultDenyPatternBlocks(t *testing.T) {
	g := New(RulesConfig{
		Default: ToolRuleSet{Deny: []string{`rm\s+-rf`}},
	})
	allowed, reason := g.Check("run_shell", map[string]any{"cmd": "rm -rf /"})
	if allowed {
		t.Error("expected block for rm -rf")
	}
	if reason == "" {
		t.Error("expected non-empty block reason")
	}
}

func TestCheck_ToolSpecificOverrideAddsDeny(t *testing.T) {
	cfg := RulesConfig{
		Default: ToolRuleSet{Deny: []string{`secret`}},
		Tools: map[string]ToolRuleSet{
			"write_file": {Deny: []string{`\.env`}},
		},
	}
	g := New(cfg)

	// Default deny still applies to the overridden tool.
	allowed, _ := g.Check("write_file", map[string]any{"content": "contains secret"})
	if allowed {
		t.Error("expected inherited default deny to still block")
	}

	// Tool-specific deny also applies.
	allowed, _ = g.Check("write_file", map[string]any{"path": ".env"})
	if allowed {
		t.Error("expected tool-specific deny to block")
	}

	// A call matching neither should pass.
	allowed, _ = g.Check("write_file", map[string]any{"path": "notes.txt"})
	if !allowed {
		t.Error("expected unrelated call to be allowed")
	}
}

func TestCheck_AllowListRestrictsToMatchingValues(t *testing.T) {
	g := New(RulesConfig{
		Tools: map[string]ToolRuleSet{
			// Call-level patterns match against a serialized form of the
			// whole parameter map, not a bare parameter value, so this is
			// deliberately unanchored.
			"fetch_url": {Allow: []string{`https://api\.example\.com/`}},
		},
	})

	allowed, _ := g.Check("fetch_url", map[string]any{"url": "https://api.example.com/data"})
	if !allowed {
		t.Error("expected matching allow-listed URL to be permitted")
	}

	allowed, _ = g.Check("fetch_url", map[string]any{"url": "https://evil.example/data"})
	if allowed {
		t.Error("expected non-matching URL to be blocked by allow list")
	}
}

func TestCheck_CallLevelDenyMatchesAcrossParameterNameAndValue(t *testing.T) {
	g := New(RulesConfig{
		Tools: map[string]ToolRuleSet{
			// This pattern can only match the call's serialized form: it
			// references the parameter name "dest" together with a value
			// that lives under a different parameter, "host".
			"connect": {Deny: []string{`"dest":"admin".*"host":"169\.254`}},
		},
	})

	allowed, _ := g.Check("connect", map[string]any{"dest": "admin", "host": "169.254.169.254"})
	if allowed {
		t.Error("expected call-level deny spanning two parameters to block the call")
	}

	allowed, _ = g.Check("connect", map[string]any{"dest": "admin", "host": "example.com"})
	if !allowed {
		t.Error("expected call not matching the combined pattern to be allowed")
	}
}

func TestCheck_ParameterLevelDeny(t *testing.T) {
	g := New(RulesConfig{
		Tools: map[string]ToolRuleSet{
			"set_env": {
				Parameters: map[string]ParameterRule{
					"value": {Deny: []string{`(?i)password`}},
				},
			},
		},
	})

	allowed, _ := g.Check("set_env", map[string]any{"name": "X", "value": "my-password-123"})
	if allowed {
		t.Error("expected parameter-level deny to block")
	}

	allowed, _ = g.Check("set_env", map[string]any{"name": "X", "value": "harmless"})
	if !allowed {
		t.Error("expected unrelated value to be allowed")
	}
}

func TestCheck_ParameterRuleMatchesSnakeAndCamelCase(t *testing.T) {
	g := New(RulesConfig{
		Tools: map[string]ToolRuleSet{
			"api_call": {
				Parameters: map[string]ParameterRule{
					"api_key": {Deny: []string{`sk-live`}},
				},
			},
		},
	})

	// The call uses camelCase; the rule was authored as snake_case.
	allowed, _ := g.Check("api_call", map[string]any{"apiKey": "sk-live-abc"})
	if allowed {
		t.Error("expected camelCase parameter name to resolve to the snake_case rule")
	}
}

func TestCheck_AliasResolvesToCanonicalRuleSet(t *testing.T) {
	g := New(RulesConfig{
		Aliases: map[string]string{"bash": "run_shell"},
		Tools: map[string]ToolRuleSet{
			"run_shell": {Deny: []string{`rm\s+-rf`}},
		},
	})

	allowed, _ := g.Check("bash", map[string]any{"cmd": "rm -rf /"})
	if allowed {
		t.Error("expected alias to resolve to the canonical rule set")
	}
}

func TestCheck_GroupInheritsSharedRuleSet(t *testing.T) {
	g := New(RulesConfig{
		Groups: map[string][]string{"filesystem": {"read_file", "write_file"}},
		Tools: map[string]ToolRuleSet{
			"filesystem": {Deny: []string{`/etc/passwd`}},
		},
	})

	allowed, _ := g.Check("read_file", map[string]any{"path": "/etc/passwd"})
	if allowed {
		t.Error("expected group rule set to govern a tool with no rule set of its own")
	}

	allowed, _ = g.Check("write_file", map[string]any{"path": "/etc/passwd"})
	if allowed {
		t.Error("expected group rule set to govern every member tool")
	}
}

func TestCheck_CustomBlockMessage(t *testing.T) {
	g := New(RulesConfig{
		Tools: map[string]ToolRuleSet{
			"run_shell": {Deny: []string{`rm\s+-rf`}, BlockMessage: "destructive shell commands are not permitted"},
		},
	})
	_, reason := g.Check("run_shell", map[string]any{"cmd": "rm -rf /"})
	if reason != "destructive shell commands are not permitted" {
		t.Errorf("reason = %q, want custom block message", reason)
	}
}

func TestCheck_CircuitBreakerSuspendsAfterThreshold(t *testing.T) {
	var clock int64
	g := New(RulesConfig{
		Default: ToolRuleSet{Deny: []string{`secret`}},
		Breaker: BreakerConfig{MaxBlocked: 2, WindowMillis: 60000, Action: ActionSuspend},
	}, withClock(func() int64 { return clock }))

	allowed, _ := g.Check("a", map[string]any{"x": "secret"})
	if allowed {
		t.Fatal("expected first call to be blocked by the deny rule")
	}
	clock += 1000

	allowed, _ = g.Check("a", map[string]any{"x": "secret"})
	if allowed {
		t.Fatal("expected second call to be blocked by the deny rule")
	}
	clock += 1000

	// Breaker has now seen 2 blocked calls within the window and tripped;
	// a call that would otherwise be allowed should now be suspended too.
	allowed, reason := g.Check("a", map[string]any{"x": "harmless"})
	if allowed {
		t.Errorf("expected suspension after breaker trip, got allowed (reason=%q)", reason)
	}
}

func TestCheck_CircuitBreakerRecoversOnceWindowElapses(t *testing.T) {
	var clock int64
	g := New(RulesConfig{
		Default: ToolRuleSet{Deny: []string{`secret`}},
		Breaker: BreakerConfig{MaxBlocked: 2, WindowMillis: 60000, Action: ActionSuspend},
	}, withClock(func() int64 { return clock }))

	g.Check("a", map[string]any{"x": "secret"})
	clock += 1000
	g.Check("a", map[string]any{"x": "secret"})

	// Tripped immediately after the second blocked call, same as above.
	allowed, _ := g.Check("a", map[string]any{"x": "harmless"})
	if allowed {
		t.Fatal("expected breaker to be tripped right after the threshold is hit")
	}

	// Advance well past the window: both blocked timestamps are now stale,
	// so the breaker must re-derive an untripped state on its own, with no
	// explicit reset call.
	clock += 61000
	allowed, reason := g.Check("a", map[string]any{"x": "harmless"})
	if !allowed {
		t.Errorf("expected breaker to recover once its window elapsed, got blocked (reason=%q)", reason)
	}
}

func TestCheck_CircuitBreakerWarnDoesNotSuspend(t *testing.T) {
	var clock int64
	g := New(RulesConfig{
		Default: ToolRuleSet{Deny: []string{`secret`}},
		Breaker: BreakerConfig{MaxBlocked: 1, WindowMillis: 60000, Action: ActionWarn},
	}, withClock(func() int64 { return clock }))

	g.Check("a", map[string]any{"x": "secret"})
	clock += 1000

	allowed, _ := g.Check("a", map[string]any{"x": "harmless"})
	if !allowed {
		t.Error("expected warn action not to suspend subsequent allowed calls")
	}
}

func TestCheck_InvalidPatternIsDroppedNotFatal(t *testing.T) {
	var logged []string
	logger := testLogger(func(format string, args ...any) {
		logged = append(logged, format)
	})

	g := New(RulesConfig{
		Default: ToolRuleSet{Deny: []string{"(", `secret`}},
	}, WithLogger(logger))

	if len(logged) == 0 {
		t.Error("expected a warning for the invalid pattern")
	}

	allowed, _ := g.Check("a", map[string]any{"x": "secret"})
	if allowed {
		t.Error("expected the still-valid pattern to keep blocking")
	}
}

type testLogger func(format string, args ...any)

func (f testLogger) Printf(format string, args ...any) { f(format, args...) }
