// Package replica implements the single-artifact replica state machine:
// READY/DOWN transitions, the update/store/ack/retrieve operations, and the
// probabilistic failure and recovery model a coordinator drives during the
// update and restore protocols.
package replica

import (
	"log"
	"math/rand"
	"sync"

	"filestore-consensus/internal/artifact"
)

// retrieveFailureProb is the fixed probability that Retrieve simulates an
// independent read-path failure, regardless of operational state.
const retrieveFailureProb = 0.2

// clientSender is the only sender identity Store and Update accept.
const clientSender = "client"

// Config carries the construction parameters for a Replica.
type Config struct {
	ID               int
	Weight           int
	FailureProb      float64
	RecoveryDelayMin int64 // inclusive, milliseconds
	RecoveryDelayMax int64 // inclusive, milliseconds
	MaxArtifactSize  int   // 0 means artifact.DefaultMaxSize
}

// Ack is the non-empty acknowledgement record SendAck always produces.
type Ack struct {
	Status   string
	ServerID int
}

// RetrieveResponse is what Retrieve returns when it has an artifact to
// offer and the simulated read draw did not fail.
type RetrieveResponse struct {
	ServerID int
	Version  int
	Content  []byte
	Name     string
}

// Replica holds at most one artifact and models a single cluster node.
// A zero Replica is not usable; construct with New.
type Replica struct {
	cfg    Config
	rng    *rand.Rand
	logger *log.Logger

	mu           sync.Mutex
	stored       *artifact.Artifact
	operational  bool
	recoveryAtMs int64
}

// New creates an operational Replica with no stored artifact. rng is the
// replica's private, seedable random source for failure and recovery-delay
// draws (spec §5, "Randomness" — must be injectable for reproducible tests).
func New(cfg Config, rng *rand.Rand, logger *log.Logger) *Replica {
	if logger == nil {
		logger = log.Default()
	}
	return &Replica{
		cfg:         cfg,
		rng:         rng,
		logger:      logger,
		operational: true,
	}
}

// ID returns the replica's unique identifier.
func (r *Replica) ID() int { return r.cfg.ID }

// Weight returns the replica's trust weight, used in restore reconciliation.
func (r *Replica) Weight() int { return r.cfg.Weight }

func (r *Replica) maxSize() int {
	if r.cfg.MaxArtifactSize > 0 {
		return r.cfg.MaxArtifactSize
	}
	return artifact.DefaultMaxSize
}

// Store sets the stored artifact unconditionally — it is the
// cluster-bootstrapping primitive and performs no version check. It returns
// false and leaves the replica unchanged when sender is not "client" or the
// artifact fails validation, and true once the artifact is stored.
func (r *Replica) Store(a artifact.Artifact, sender string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if sender != clientSender {
		r.logger.Printf("replica %d: store rejected - unauthorized sender", r.cfg.ID)
		return false
	}
	if ok, reason := a.Validate(r.maxSize()); !ok {
		r.logger.Printf("replica %d: store rejected - %s", r.cfg.ID, reason)
		return false
	}

	stored := a
	r.stored = &stored
	r.logger.Printf("replica %d: file stored, version %d, hash %s", r.cfg.ID, a.Version, a.Hash())
	return true
}

// Update applies a new artifact version, subject to the DOWN/READY
// transition, sender and validation checks, the monotonic-version rule, and
// a probabilistic induced-failure draw. See spec.md §4.2 for the exact
// precondition order, which this preserves.
func (r *Replica) Update(a artifact.Artifact, nowMs int64, sender string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.operational {
		if nowMs >= r.recoveryAtMs {
			r.operational = true
			r.logger.Printf("replica %d: recovered and operational", r.cfg.ID)
		} else {
			r.logger.Printf("replica %d: not operational", r.cfg.ID)
			return false
		}
	}

	if sender != clientSender {
		r.logger.Printf("replica %d: update rejected - unauthorized sender", r.cfg.ID)
		return false
	}

	if ok, reason := a.Validate(r.maxSize()); !ok {
		r.logger.Printf("replica %d: update rejected - %s", r.cfg.ID, reason)
		return false
	}

	if r.stored != nil && a.Version <= r.stored.Version {
		r.logger.Printf("replica %d: update rejected - version %d is not newer than current version %d",
			r.cfg.ID, a.Version, r.stored.Version)
		return false
	}

	if r.rng.Float64() < r.cfg.FailureProb {
		delay := r.cfg.RecoveryDelayMin
		if r.cfg.RecoveryDelayMax > r.cfg.RecoveryDelayMin {
			delay += int64(r.rng.Intn(int(r.cfg.RecoveryDelayMax-r.cfg.RecoveryDelayMin) + 1))
		}
		r.operational = false
		r.recoveryAtMs = nowMs + delay
		r.logger.Printf("replica %d: failed to apply the update, recovering at %d ms", r.cfg.ID, r.recoveryAtMs)
		return false
	}

	stored := a
	r.stored = &stored
	r.logger.Printf("replica %d: file updated successfully, version %d, hash %s", r.cfg.ID, a.Version, a.Hash())
	return true
}

// SendAck always returns a non-empty acknowledgement. Real coordination
// relies on the caller having observed Update return true first; the ACK
// carries no payload beyond identity (spec.md §4.2).
func (r *Replica) SendAck() Ack {
	r.logger.Printf("replica %d: ack sent", r.cfg.ID)
	return Ack{Status: "received", ServerID: r.cfg.ID}
}

// Retrieve returns the stored artifact, independent of operational state,
// unless either the stored artifact is absent or a fixed-probability
// simulated read failure is drawn.
func (r *Replica) Retrieve() (RetrieveResponse, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.rng.Float64() < retrieveFailureProb {
		r.logger.Printf("replica %d: simulated read failure, no file returned", r.cfg.ID)
		return RetrieveResponse{}, false
	}

	if r.stored == nil {
		r.logger.Printf("replica %d: no valid file available", r.cfg.ID)
		return RetrieveResponse{}, false
	}

	r.logger.Printf("replica %d: returning file, version %d, hash %s", r.cfg.ID, r.stored.Version, r.stored.Hash())
	return RetrieveResponse{
		ServerID: r.cfg.ID,
		Version:  r.stored.Version,
		Content:  r.stored.Content,
		Name:     r.stored.Name,
	}, true
}
