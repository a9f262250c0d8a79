// Package coordinator implements the two-phase consensus protocol that
// drives a set of replicas through best-effort update propagation and,
// later, majority-by-content-hash restore with a weighted-sum fallback.
package coordinator

import (
	"context"
	"log"
	"sync"
	"time"

	"filestore-consensus/internal/artifact"
	"filestore-consensus/internal/clock"
	"filestore-consensus/internal/replica"
)

// clientSender is the identity the coordinator presents to replicas.
const clientSender = "client"

// RestoreResult is the reconciled artifact returned by RestoreConsensus.
type RestoreResult struct {
	Version int
	Content []byte
	Name    string
}

// Coordinator owns a fixed set of replicas (by reference) and drives the
// update and restore protocols against them. Replicas own their own
// artifact state exclusively; the coordinator only tracks which replicas
// are unresponsive (exhausted their per-update retry budget) or unavailable
// (additionally exhausted their long-retry budget).
type Coordinator struct {
	replicas []*replica.Replica
	clock    clock.Clock
	logger   *log.Logger

	// Sleep is the delay function used between protocol rounds. It defaults
	// to time.Sleep; tests substitute a no-op or fast-forwarding stub.
	Sleep func(time.Duration)

	mu           sync.Mutex
	unresponsive map[*replica.Replica]struct{}
	unavailable  map[*replica.Replica]struct{}
}

// New creates a Coordinator over replicas, preserving their given order for
// every subsequent iteration and tie-break.
func New(replicas []*replica.Replica, clk clock.Clock, logger *log.Logger) *Coordinator {
	if logger == nil {
		logger = log.Default()
	}
	ordered := make([]*replica.Replica, len(replicas))
	copy(ordered, replicas)
	return &Coordinator{
		replicas:     ordered,
		clock:        clk,
		logger:       logger,
		Sleep:        time.Sleep,
		unresponsive: make(map[*replica.Replica]struct{}),
		unavailable:  make(map[*replica.Replica]struct{}),
	}
}

// Validate reports whether a is acceptable for propagation.
func (c *Coordinator) Validate(a artifact.Artifact) bool {
	ok, reason := a.Validate(artifact.DefaultMaxSize)
	if !ok {
		c.logger.Printf("coordinator: validation failed - %s", reason)
	}
	return ok
}

// Replicas returns the coordinator's full, ordered replica set.
func (c *Coordinator) Replicas() []*replica.Replica {
	out := make([]*replica.Replica, len(c.replicas))
	copy(out, c.replicas)
	return out
}

// Unresponsive returns the replicas that UpdateConsensus or
// RestoreConsensus marked as having exhausted their retry budget and that
// RetryUnresponsive has not since recovered or moved to Unavailable. The
// set is not cleared when a new UpdateConsensus or RestoreConsensus call
// begins.
func (c *Coordinator) Unresponsive() []*replica.Replica {
	c.mu.Lock()
	defer c.mu.Unlock()
	return setToSlice(c.unresponsive)
}

// Unavailable returns the replicas that additionally exhausted their
// long-retry budget and are permanently out for this session.
func (c *Coordinator) Unavailable() []*replica.Replica {
	c.mu.Lock()
	defer c.mu.Unlock()
	return setToSlice(c.unavailable)
}

func setToSlice(m map[*replica.Replica]struct{}) []*replica.Replica {
	out := make([]*replica.Replica, 0, len(m))
	for r := range m {
		out = append(out, r)
	}
	return out
}

func (c *Coordinator) markUnresponsive(r *replica.Replica) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.unresponsive[r] = struct{}{}
}

func (c *Coordinator) unresponsiveCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.unresponsive)
}

// UpdateConsensus drives every replica toward acknowledging a, retrying
// per-replica up to retryLimit times with retryPeriodMs between rounds and
// ackTimeoutMs to wait for each ACK. It returns true iff every replica
// acknowledged; replicas that exhausted their retry budget are left in
// Unresponsive. See spec.md §4.3.1 for the exact per-replica retry
// semantics this implements.
//
// Resolution of an ambiguity in the reference algorithm: a replica is moved
// into Unresponsive the moment its retry count reaches retryLimit (checked
// at the top of every round), rather than only when the whole outer loop is
// about to exit. This guarantees invariant 5 (a failed UpdateConsensus
// always leaves at least one replica in Unresponsive) and avoids a replica
// being silently dropped from both the remaining set and Unresponsive — see
// DESIGN.md.
func (c *Coordinator) UpdateConsensus(ctx context.Context, a artifact.Artifact, ackTimeoutMs, retryLimit, retryPeriodMs int) bool {
	c.logger.Printf("coordinator: starting update for %s, version %d", a.Name, a.Version)

	// now is captured once for the whole call and reused for every attempt
	// across every round, matching the reference algorithm: a replica that
	// goes DOWN early in this call cannot recover mid-call, only via a
	// separate RetryUnresponsive invocation.
	now := c.clock.NowMillis()

	remaining := c.Replicas()
	retries := make(map[*replica.Replica]int, len(remaining))
	acked := make(map[*replica.Replica]struct{}, len(remaining))

	for len(remaining) > 0 {
		if ctx.Err() != nil {
			c.logger.Printf("coordinator: update cancelled, marking remaining replicas unresponsive")
			for _, r := range remaining {
				c.markUnresponsive(r)
			}
			remaining = nil
			break
		}

		var toAttempt []*replica.Replica
		for _, r := range remaining {
			if retries[r] >= retryLimit {
				c.logger.Printf("replica %d: max retries reached, marking unresponsive", r.ID())
				c.markUnresponsive(r)
				continue
			}
			toAttempt = append(toAttempt, r)
		}

		type outcome struct {
			r     *replica.Replica
			acked bool
		}
		results := make([]outcome, len(toAttempt))
		var wg sync.WaitGroup
		for i, r := range toAttempt {
			wg.Add(1)
			go func(i int, r *replica.Replica) {
				defer wg.Done()
				results[i] = outcome{r: r, acked: c.attemptUpdate(ctx, r, a, now, ackTimeoutMs)}
			}(i, r)
		}
		wg.Wait()

		var stillRemaining []*replica.Replica
		for _, o := range results {
			if o.acked {
				acked[o.r] = struct{}{}
				continue
			}
			retries[o.r]++
			stillRemaining = append(stillRemaining, o.r)
		}
		remaining = stillRemaining

		if len(remaining) > 0 {
			c.Sleep(time.Duration(retryPeriodMs) * time.Millisecond)
		}
	}

	success := len(acked) == len(c.replicas)
	if success {
		c.logger.Printf("coordinator: all replicas acknowledged, update successful")
	} else {
		c.logger.Printf("coordinator: some replicas did not acknowledge")
	}
	return success
}

// attemptUpdate calls Update on r with the caller's frozen now_ms and, if
// applied, waits up to ackTimeoutMs for a non-empty ACK, polling at
// roughly 1ms granularity. It returns whether r is to be considered
// acknowledged for this attempt.
func (c *Coordinator) attemptUpdate(ctx context.Context, r *replica.Replica, a artifact.Artifact, now int64, ackTimeoutMs int) bool {
	if !r.Update(a, now, clientSender) {
		return false
	}

	start := c.clock.NowMillis()
	for {
		if ack := r.SendAck(); ack.Status != "" {
			return true
		}
		if c.clock.NowMillis()-start >= int64(ackTimeoutMs) {
			return false
		}
		select {
		case <-ctx.Done():
			return false
		default:
		}
		c.Sleep(time.Millisecond)
	}
}

// RetryUnresponsive runs up to longRetryLimit rounds attempting to bring
// replicas in Unresponsive back up to date, sleeping retryInterval between
// rounds. Replicas that are still unresponsive after the budget is
// exhausted are moved into Unavailable for the remainder of the session.
// See spec.md §4.3.2.
func (c *Coordinator) RetryUnresponsive(ctx context.Context, a artifact.Artifact, longRetryLimit int, retryInterval time.Duration) {
	for round := 0; round < longRetryLimit; round++ {
		if ctx.Err() != nil {
			break
		}
		snapshot := c.Unresponsive()
		if len(snapshot) == 0 {
			break
		}
		c.logger.Printf("coordinator: long-retry round %d for %d unresponsive replicas", round+1, len(snapshot))

		for _, r := range snapshot {
			now := c.clock.NowMillis()
			if !r.Update(a, now, clientSender) {
				continue
			}
			if ack := r.SendAck(); ack.Status != "" {
				c.mu.Lock()
				delete(c.unresponsive, r)
				c.mu.Unlock()
				c.logger.Printf("replica %d: recovered via long-retry", r.ID())
			}
		}

		if c.unresponsiveCount() > 0 && round < longRetryLimit-1 {
			c.Sleep(retryInterval)
		}
	}

	c.mu.Lock()
	for r := range c.unresponsive {
		c.unavailable[r] = struct{}{}
		c.logger.Printf("replica %d: permanently unavailable for this session", r.ID())
	}
	c.unresponsive = make(map[*replica.Replica]struct{})
	c.mu.Unlock()
}

// collected pairs a replica's weight with the response it returned during
// restore collection.
type collected struct {
	weight   int
	response replica.RetrieveResponse
}

// RestoreConsensus collects up to retryLimit rounds of Retrieve responses
// from every replica — including ones already in Unavailable, since
// Retrieve is independent of operational state (spec.md §4.2) — then
// reconciles them by majority-by-content-hash with a weighted-sum
// fallback. See spec.md §4.3.3.
func (c *Coordinator) RestoreConsensus(ctx context.Context, retryLimit, retryPeriodMs int) (RestoreResult, bool) {
	c.logger.Printf("coordinator: starting restore")

	remaining := c.Replicas()

	retries := make(map[*replica.Replica]int, len(remaining))
	var all []collected

	for round := 0; round < retryLimit && len(remaining) > 0; round++ {
		if ctx.Err() != nil {
			break
		}
		c.logger.Printf("coordinator: restore attempt %d", round+1)

		type outcome struct {
			r    *replica.Replica
			resp replica.RetrieveResponse
			ok   bool
		}
		results := make([]outcome, len(remaining))
		var wg sync.WaitGroup
		for i, r := range remaining {
			wg.Add(1)
			go func(i int, r *replica.Replica) {
				defer wg.Done()
				resp, ok := r.Retrieve()
				results[i] = outcome{r: r, resp: resp, ok: ok}
			}(i, r)
		}
		wg.Wait()

		var stillRemaining []*replica.Replica
		for _, o := range results {
			if o.ok {
				all = append(all, collected{weight: o.r.Weight(), response: o.resp})
				continue
			}
			retries[o.r]++
			if retries[o.r] >= retryLimit {
				c.markUnresponsive(o.r)
				continue
			}
			stillRemaining = append(stillRemaining, o.r)
		}
		remaining = stillRemaining

		if len(remaining) > 0 && round < retryLimit-1 {
			c.Sleep(time.Duration(retryPeriodMs) * time.Millisecond)
		}
	}

	if len(all) == 0 {
		c.logger.Printf("coordinator: no files retrieved from any replica")
		return RestoreResult{}, false
	}

	totalServers := len(c.replicas) - c.unresponsiveCount()
	return reconcile(all, totalServers)
}
