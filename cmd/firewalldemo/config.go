package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"agentfirewall/internal/gatekeeper"
	"agentfirewall/internal/sanitizer"
	"agentfirewall/internal/vault"
)

// config is the reference harness's on-disk configuration shape. It is the
// only place in this module that knows about YAML; internal/gatekeeper,
// internal/vault and internal/sanitizer all take already-built Go values.
type config struct {
	Vault struct {
		Entries []struct {
			Name  string `yaml:"name"`
			Value string `yaml:"value"`
		} `yaml:"entries"`

		// EncryptedFile, if set, is loaded instead of (or merged with)
		// Entries, decrypted using a key derived from KeyEnvVar.
		EncryptedFile string `yaml:"encryptedFile"`
		KeyEnvVar     string `yaml:"keyEnvVar"`
	} `yaml:"vault"`

	Sanitizer struct {
		// Enabled is the sanitization.enabled master switch; nil (unset)
		// means enabled, matching DefaultEnabled's default in the
		// sanitizer package itself.
		Enabled     *bool  `yaml:"enabled"`
		Replacement string `yaml:"replacement"`
		// UseDefaultPatterns is the sanitization.useDefaultPatterns
		// toggle; nil (unset) means true, same reasoning as Enabled.
		UseDefaultPatterns *bool `yaml:"useDefaultPatterns"`
		Patterns           []struct {
			Name  string `yaml:"name"`
			Regex string `yaml:"regex"`
		} `yaml:"patterns"`
	} `yaml:"sanitizer"`

	Rules struct {
		// UseBuiltinDefaults layers gatekeeper.DefaultRulesConfig() under
		// this section before the rest of it is applied; nil (unset)
		// means true, so a host that configures nothing still gets the
		// shipped security baseline rather than a wide-open gatekeeper.
		UseBuiltinDefaults *bool                  `yaml:"useBuiltinDefaults"`
		Aliases            map[string]string      `yaml:"aliases"`
		Groups             map[string][]string    `yaml:"groups"`
		Default            yamlRuleSet            `yaml:"default"`
		Tools              map[string]yamlRuleSet `yaml:"tools"`
		Breaker            struct {
			MaxBlocked   int    `yaml:"maxBlocked"`
			WindowMillis int64  `yaml:"windowMillis"`
			Action       string `yaml:"action"`
		} `yaml:"breaker"`
	} `yaml:"rules"`
}

// boolOrDefault returns *v, or fallback when v is nil (the YAML key was
// left unset).
func boolOrDefault(v *bool, fallback bool) bool {
	if v == nil {
		return fallback
	}
	return *v
}

type yamlRuleSet struct {
	Deny         []string                    `yaml:"deny"`
	Allow        []string                    `yaml:"allow"`
	BlockMessage string                       `yaml:"blockMessage"`
	Parameters   map[string]yamlParameterRule `yaml:"parameters"`
}

type yamlParameterRule struct {
	Deny  []string `yaml:"deny"`
	Allow []string `yaml:"allow"`
}

func loadConfig(path string) (*config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	var cfg config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return &cfg, nil
}

func (c *config) vaultEntries() ([]vault.Entry, error) {
	entries := make([]vault.Entry, 0, len(c.Vault.Entries))
	for _, e := range c.Vault.Entries {
		entries = append(entries, vault.Entry{Name: e.Name, Value: e.Value})
	}

	if c.Vault.EncryptedFile == "" {
		return entries, nil
	}

	passphrase := os.Getenv(c.Vault.KeyEnvVar)
	key, err := vault.DeriveKey(passphrase)
	if err != nil {
		return nil, fmt.Errorf("deriving vault key from %s: %w", c.Vault.KeyEnvVar, err)
	}
	fromFile, err := vault.LoadEncryptedFile(c.Vault.EncryptedFile, key)
	if err != nil {
		return nil, fmt.Errorf("loading encrypted vault file: %w", err)
	}
	return append(entries, fromFile...), nil
}

func (c *config) sanitizerPatterns() []sanitizer.RawPattern {
	out := make([]sanitizer.RawPattern, 0, len(c.Sanitizer.Patterns))
	for _, p := range c.Sanitizer.Patterns {
		out = append(out, sanitizer.RawPattern{Name: p.Name, Regex: p.Regex})
	}
	return out
}

func (c *config) rulesConfig() gatekeeper.RulesConfig {
	tools := make(map[string]gatekeeper.ToolRuleSet, len(c.Rules.Tools))
	for name, rs := range c.Rules.Tools {
		tools[name] = rs.toToolRuleSet()
	}

	action := gatekeeper.ActionWarn
	if c.Rules.Breaker.Action == string(gatekeeper.ActionSuspend) {
		action = gatekeeper.ActionSuspend
	}

	authored := gatekeeper.RulesConfig{
		Aliases: c.Rules.Aliases,
		Groups:  c.Rules.Groups,
		Default: c.Rules.Default.toToolRuleSet(),
		Tools:   tools,
		Breaker: gatekeeper.BreakerConfig{
			MaxBlocked:   c.Rules.Breaker.MaxBlocked,
			WindowMillis: c.Rules.Breaker.WindowMillis,
			Action:       action,
		},
	}

	if !boolOrDefault(c.Rules.UseBuiltinDefaults, true) {
		return authored
	}
	return gatekeeper.MergeRulesConfig(gatekeeper.DefaultRulesConfig(), authored)
}

func (rs yamlRuleSet) toToolRuleSet() gatekeeper.ToolRuleSet {
	params := make(map[string]gatekeeper.ParameterRule, len(rs.Parameters))
	for name, p := range rs.Parameters {
		params[name] = gatekeeper.ParameterRule{Deny: p.Deny, Allow: p.Allow}
	}
	return gatekeeper.ToolRuleSet{
		Deny:         rs.Deny,
		Allow:        rs.Allow,
		Parameters:   params,
		BlockMessage: rs.BlockMessage,
	}
}
