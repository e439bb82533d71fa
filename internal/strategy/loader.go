package strategy

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads the strategy YAML and returns the validated config plus the
// raw bytes. KnownFields(true) turns typos and unused fields into load
// errors instead of silently ignored parameters.
func Load(path string) (*Config, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, data, err
	}
	return cfg, data, nil
}

// Parse decodes and validates strategy YAML from memory.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, err
	}

	if cfg.Risk.Profile != "" {
		profile, ok := Profile(cfg.Risk.Profile)
		if !ok {
			return nil, ValidationError{"risk.profile", "unknown profile " + cfg.Risk.Profile}
		}
		if cfg.Risk.StopLossPct != 0 || cfg.Risk.MaxDrawdownPct != 0 ||
			cfg.Risk.RecoveryPct != 0 || cfg.Risk.Leverage != 0 {
			return nil, ValidationError{"risk", "profile and explicit risk fields are mutually exclusive"}
		}
		ne := cfg.Risk.NetExposure
		cfg.Risk = profile
		if ne != 0 {
			cfg.Risk.NetExposure = ne
		}
		cfg.Risk.Profile = ""
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Hash returns the SHA-256 of the config's canonical JSON encoding.
// Structs, not maps, keep field order and therefore the hash stable.
func Hash(cfg *Config) (string, error) {
	jsonBytes, err := json.Marshal(cfg)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(jsonBytes)
	return hex.EncodeToString(sum[:]), nil
}
