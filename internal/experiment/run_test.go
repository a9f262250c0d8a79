package experiment

import "testing"

func TestRunReliableConfigUsuallyRestoresLatestVersion(t *testing.T) {
	cfg := Config{
		Name: "test", RetryLimit: 5, RetryPeriodMs: 0, AckTimeoutMs: 50, NumUpdates: 2,
		Replicas: []ReplicaSetting{
			{ID: 1, FailureProb: 0, Weight: 10, RecoveryDelayMin: 1, RecoveryDelayMax: 1},
			{ID: 2, FailureProb: 0, Weight: 9, RecoveryDelayMin: 1, RecoveryDelayMax: 1},
			{ID: 3, FailureProb: 0, Weight: 8, RecoveryDelayMin: 1, RecoveryDelayMax: 1},
		},
	}

	restored, expected, err := Run(cfg, 1, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if restored == nil {
		t.Fatal("expected a restore result with zero failure probability")
	}
	if restored.Version != expected.Version {
		t.Fatalf("expected restored version %d to match latest %d", restored.Version, expected.Version)
	}
}

func TestDefaultConfigsAreNonEmpty(t *testing.T) {
	configs := DefaultConfigs()
	if len(configs) == 0 {
		t.Fatal("expected built-in default configurations")
	}
	for _, c := range configs {
		if len(c.Replicas) == 0 {
			t.Fatalf("configuration %s has no replicas", c.Name)
		}
	}
}
