package main

import (
	"fmt"

	"agentfirewall/internal/firewall"
	"agentfirewall/internal/gatekeeper"
	"agentfirewall/internal/logging"
	"agentfirewall/internal/sanitizer"
	"agentfirewall/internal/vault"
)

// buildFirewall compiles a config into a fresh, immutable Firewall. Every
// call produces brand-new Gatekeeper/Vault/Sanitizer instances rather than
// mutating any previous ones, matching the session-scoped, rebuild-on-
// change lifecycle the three subsystems share.
func buildFirewall(cfg *config, logger logging.Logger) (*firewall.Firewall, error) {
	entries, err := cfg.vaultEntries()
	if err != nil {
		return nil, fmt.Errorf("building vault: %w", err)
	}
	v := vault.New(entries)

	s := sanitizer.New(cfg.sanitizerPatterns(),
		sanitizer.WithReplacement(orDefault(cfg.Sanitizer.Replacement, sanitizer.DefaultReplacement)),
		sanitizer.WithLogger(logger),
		sanitizer.WithEnabled(boolOrDefault(cfg.Sanitizer.Enabled, true)),
		sanitizer.WithDefaultPatterns(boolOrDefault(cfg.Sanitizer.UseDefaultPatterns, true)),
	)

	gate := gatekeeper.New(cfg.rulesConfig(), gatekeeper.WithLogger(logger))

	return firewall.New(gate, v, s, firewall.WithLogger(logger)), nil
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
