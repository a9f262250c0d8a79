// Package experiment defines the shared configuration schema for running
// a driver simulation, whether supplied by cmd/driver flags or loaded from
// a YAML batch file by cmd/experiment. The built-in defaults mirror
// simulation_runner.py's configuration table.
package experiment

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ReplicaSetting configures one replica's failure/recovery model.
type ReplicaSetting struct {
	ID               int     `yaml:"id"`
	Weight           int     `yaml:"weight"`
	FailureProb      float64 `yaml:"failure_prob"`
	RecoveryDelayMin int64   `yaml:"recovery_delay_min"`
	RecoveryDelayMax int64   `yaml:"recovery_delay_max"`
}

// Config is one named run of the protocol against a cluster.
type Config struct {
	Name          string           `yaml:"name"`
	RetryLimit    int              `yaml:"retry_limit"`
	RetryPeriodMs int              `yaml:"retry_period_ms"`
	AckTimeoutMs  int              `yaml:"ack_timeout_ms"`
	NumUpdates    int              `yaml:"num_updates"`
	Replicas      []ReplicaSetting `yaml:"replicas"`
}

// BatchFile is the top-level shape cmd/experiment loads from YAML.
type BatchFile struct {
	Configs []Config `yaml:"configs"`
}

// LoadBatchFile reads and parses a YAML batch configuration file.
func LoadBatchFile(path string) (BatchFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return BatchFile{}, fmt.Errorf("read batch file: %w", err)
	}
	var bf BatchFile
	if err := yaml.Unmarshal(data, &bf); err != nil {
		return BatchFile{}, fmt.Errorf("parse batch file: %w", err)
	}
	return bf, nil
}

// DefaultConfigs returns the built-in configuration table used when
// cmd/experiment is run without a --config file, mirroring
// simulation_runner.py's hand-written scenarios.
func DefaultConfigs() []Config {
	return []Config{
		{
			Name: "stress_test", RetryLimit: 1, RetryPeriodMs: 5, AckTimeoutMs: 2, NumUpdates: 5,
			Replicas: []ReplicaSetting{
				{ID: 1, FailureProb: 0.4, Weight: 10, RecoveryDelayMin: 30, RecoveryDelayMax: 50},
				{ID: 2, FailureProb: 0.5, Weight: 5, RecoveryDelayMin: 40, RecoveryDelayMax: 60},
				{ID: 3, FailureProb: 0.6, Weight: 2, RecoveryDelayMin: 50, RecoveryDelayMax: 70},
			},
		},
		{
			Name: "higher_retry", RetryLimit: 5, RetryPeriodMs: 20, AckTimeoutMs: 10, NumUpdates: 5,
			Replicas: []ReplicaSetting{
				{ID: 1, FailureProb: 0.4, Weight: 10, RecoveryDelayMin: 30, RecoveryDelayMax: 50},
				{ID: 2, FailureProb: 0.5, Weight: 5, RecoveryDelayMin: 40, RecoveryDelayMax: 60},
				{ID: 3, FailureProb: 0.6, Weight: 2, RecoveryDelayMin: 50, RecoveryDelayMax: 70},
			},
		},
		{
			Name: "low_retry_high_failure", RetryLimit: 3, RetryPeriodMs: 10, AckTimeoutMs: 5, NumUpdates: 5,
			Replicas: []ReplicaSetting{
				{ID: 1, FailureProb: 0.2, Weight: 10, RecoveryDelayMin: 15, RecoveryDelayMax: 25},
				{ID: 2, FailureProb: 0.3, Weight: 7, RecoveryDelayMin: 20, RecoveryDelayMax: 30},
				{ID: 3, FailureProb: 0.5, Weight: 2, RecoveryDelayMin: 25, RecoveryDelayMax: 35},
			},
		},
		{
			Name: "reliable", RetryLimit: 3, RetryPeriodMs: 10, AckTimeoutMs: 5, NumUpdates: 5,
			Replicas: []ReplicaSetting{
				{ID: 1, FailureProb: 0.05, Weight: 10, RecoveryDelayMin: 5, RecoveryDelayMax: 15},
				{ID: 2, FailureProb: 0.1, Weight: 9, RecoveryDelayMin: 8, RecoveryDelayMax: 18},
				{ID: 3, FailureProb: 0.1, Weight: 8, RecoveryDelayMin: 10, RecoveryDelayMax: 20},
			},
		},
		{
			Name: "weight_fallback_test", RetryLimit: 3, RetryPeriodMs: 10, AckTimeoutMs: 6, NumUpdates: 5,
			Replicas: []ReplicaSetting{
				{ID: 1, FailureProb: 0.1, Weight: 10, RecoveryDelayMin: 10, RecoveryDelayMax: 25},
				{ID: 2, FailureProb: 0.5, Weight: 3, RecoveryDelayMin: 10, RecoveryDelayMax: 20},
				{ID: 3, FailureProb: 0.5, Weight: 2, RecoveryDelayMin: 10, RecoveryDelayMax: 20},
			},
		},
	}
}
