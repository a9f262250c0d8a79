package experiment

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"filestore-consensus/internal/artifact"
	"filestore-consensus/internal/clock"
	"filestore-consensus/internal/coordinator"
	"filestore-consensus/internal/replica"
)

// Run builds a cluster from cfg, distributes an initial file, applies
// cfg.NumUpdates sequential client updates (each followed by a long-retry
// sweep for stragglers), then restores. It mirrors
// original_source/src/main.py's run_simulation.
func Run(cfg Config, baseSeed int64, longRetryLimit int) (*coordinator.RestoreResult, artifact.Artifact, error) {
	replicas := make([]*replica.Replica, len(cfg.Replicas))
	for i, s := range cfg.Replicas {
		replicas[i] = replica.New(replica.Config{
			ID:               s.ID,
			Weight:           s.Weight,
			FailureProb:      s.FailureProb,
			RecoveryDelayMin: s.RecoveryDelayMin,
			RecoveryDelayMax: s.RecoveryDelayMax,
		}, rand.New(rand.NewSource(baseSeed+int64(s.ID))), nil)
	}

	clk := clock.System{}
	coord := coordinator.New(replicas, clk, nil)
	ctx := context.Background()

	initial := artifact.New("initial_file.txt", []byte("This is the initial content."), 1)
	if !coord.Validate(initial) {
		return nil, initial, fmt.Errorf("initial file failed validation")
	}
	for _, r := range replicas {
		r.Store(initial, "client")
	}

	current := initial
	rnd := rand.New(rand.NewSource(baseSeed))
	for i := 0; i < cfg.NumUpdates; i++ {
		waitMs := 10 + rnd.Intn(21)
		time.Sleep(time.Duration(waitMs) * time.Millisecond)

		current = artifact.New(current.Name, []byte(fmt.Sprintf("update #%d content", i+1)), current.Version+1)
		coord.UpdateConsensus(ctx, current, cfg.AckTimeoutMs, cfg.RetryLimit, cfg.RetryPeriodMs)
		coord.RetryUnresponsive(ctx, current, longRetryLimit, time.Duration(cfg.RetryPeriodMs)*time.Millisecond)
	}

	result, ok := coord.RestoreConsensus(ctx, cfg.RetryLimit, cfg.RetryPeriodMs)
	if !ok {
		return nil, current, nil
	}
	return &result, current, nil
}
