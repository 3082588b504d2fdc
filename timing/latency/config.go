package latency

import (
	"encoding/json"
	"fmt"
	"os"
)

// TimingConfig holds latency values, in cycles, for each instruction class.
// They only feed statistics; they never change what a step computes.
type TimingConfig struct {
	// ALULatency is the latency for op and op-imm instructions. Default: 1.
	ALULatency uint64 `json:"alu_latency"`

	// UpperLatency is the latency for lui and auipc. Default: 1.
	UpperLatency uint64 `json:"upper_latency"`

	// BranchLatency is the latency for branch comparisons. Default: 1.
	BranchLatency uint64 `json:"branch_latency"`

	// JumpLatency is the latency for jal and jalr. Default: 1.
	JumpLatency uint64 `json:"jump_latency"`

	// LoadLatency is the base latency of a load before any data cache
	// penalty. Default: 2.
	LoadLatency uint64 `json:"load_latency"`

	// StoreLatency is the base latency of a store. Default: 1.
	StoreLatency uint64 `json:"store_latency"`

	// SystemLatency is the latency for system instructions. Default: 1.
	SystemLatency uint64 `json:"system_latency"`

	// DefaultLatency applies to unrecognized opcodes. Default: 1.
	DefaultLatency uint64 `json:"default_latency"`
}

// DefaultTimingConfig returns a TimingConfig with a classic in-order
// single-issue profile.
func DefaultTimingConfig() *TimingConfig {
	return &TimingConfig{
		ALULatency:     1,
		UpperLatency:   1,
		BranchLatency:  1,
		JumpLatency:    1,
		LoadLatency:    2,
		StoreLatency:   1,
		SystemLatency:  1,
		DefaultLatency: 1,
	}
}

// LoadConfig loads a TimingConfig from a JSON file. Fields missing from the
// file keep their default values.
func LoadConfig(path string) (*TimingConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read timing config file: %w", err)
	}

	config := DefaultTimingConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse timing config: %w", err)
	}

	return config, nil
}

// SaveConfig writes a TimingConfig to a JSON file.
func (c *TimingConfig) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize timing config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write timing config file: %w", err)
	}

	return nil
}

// Validate checks that all latency values are valid (> 0).
func (c *TimingConfig) Validate() error {
	checks := []struct {
		name  string
		value uint64
	}{
		{"alu_latency", c.ALULatency},
		{"upper_latency", c.UpperLatency},
		{"branch_latency", c.BranchLatency},
		{"jump_latency", c.JumpLatency},
		{"load_latency", c.LoadLatency},
		{"store_latency", c.StoreLatency},
		{"system_latency", c.SystemLatency},
		{"default_latency", c.DefaultLatency},
	}
	for _, check := range checks {
		if check.value == 0 {
			return fmt.Errorf("%s must be > 0", check.name)
		}
	}
	return nil
}

// Clone returns a deep copy of the TimingConfig.
func (c *TimingConfig) Clone() *TimingConfig {
	clone := *c
	return &clone
}
