package replica

import (
	"io"
	"log"
	"math/rand"
	"testing"

	"filestore-consensus/internal/artifact"
)

func discardLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func newTestReplica(cfg Config, seed int64) *Replica {
	return New(cfg, rand.New(rand.NewSource(seed)), discardLogger())
}

func TestStoreRejectsNonClientSender(t *testing.T) {
	r := newTestReplica(Config{ID: 1, Weight: 1}, 1)
	a := artifact.New("f.txt", []byte("A"), 1)

	if r.Store(a, "attacker") {
		t.Fatal("expected store from non-client sender to be rejected")
	}
	if r.stored != nil {
		t.Fatal("expected no artifact to be stored")
	}
}

func TestStoreBootstrapsWithoutVersionCheck(t *testing.T) {
	r := newTestReplica(Config{ID: 1, Weight: 1}, 1)
	a1 := artifact.New("f.txt", []byte("A"), 5)
	if !r.Store(a1, "client") {
		t.Fatal("expected initial store to succeed")
	}

	// Store is the bootstrap primitive: it sets unconditionally, even to an
	// older version, unlike Update.
	a0 := artifact.New("f.txt", []byte("older"), 1)
	if !r.Store(a0, "client") {
		t.Fatal("expected store to overwrite unconditionally regardless of version")
	}
}

func TestStoreRejectsInvalidArtifact(t *testing.T) {
	r := newTestReplica(Config{ID: 1, Weight: 1}, 1)
	bad := artifact.New("f.bin", []byte("A"), 1)
	if r.Store(bad, "client") {
		t.Fatal("expected store of non-.txt artifact to be rejected")
	}
}

func TestUpdateRejectsEqualOrOlderVersion(t *testing.T) {
	r := newTestReplica(Config{ID: 1, Weight: 1, FailureProb: 0}, 1)
	v1 := artifact.New("f.txt", []byte("A"), 1)
	r.Store(v1, "client")

	if r.Update(artifact.New("f.txt", []byte("B"), 1), 0, "client") {
		t.Fatal("expected update with equal version to be rejected")
	}
	if r.Update(artifact.New("f.txt", []byte("B"), 0), 0, "client") {
		t.Fatal("expected update with older version to be rejected")
	}
}

func TestUpdateIsNoopWhenRepeated(t *testing.T) {
	r := newTestReplica(Config{ID: 1, Weight: 1, FailureProb: 0}, 1)
	v1 := artifact.New("f.txt", []byte("A"), 1)
	r.Store(v1, "client")

	v2 := artifact.New("f.txt", []byte("B"), 2)
	if !r.Update(v2, 0, "client") {
		t.Fatal("expected first update to succeed")
	}
	if r.Update(v2, 0, "client") {
		t.Fatal("expected applying the same update twice to be a no-op on the second call")
	}
}

func TestUpdateTransitionsToDownOnInducedFailure(t *testing.T) {
	// seed chosen so the first Float64() draw is < 1.0 is guaranteed since
	// FailureProb is 1.0 — any seed triggers the failure branch.
	r := newTestReplica(Config{
		ID: 2, Weight: 1, FailureProb: 1.0,
		RecoveryDelayMin: 5, RecoveryDelayMax: 5,
	}, 1)
	v1 := artifact.New("f.txt", []byte("A"), 1)
	r.Store(v1, "client")

	v2 := artifact.New("f.txt", []byte("B"), 2)
	if r.Update(v2, 100, "client") {
		t.Fatal("expected induced failure to make Update return false")
	}

	// Down for exactly one observation before recoveryAtMs.
	if r.Update(v2, 104, "client") {
		t.Fatal("expected replica to still be down before recovery time")
	}
	// At or after recovery time, it becomes READY again and the update is
	// reevaluated. FailureProb is still 1.0, so it goes down again
	// immediately; the READY transition is observed through the new
	// recovery time, which only the failure draw after the DOWN check sets.
	r.Update(v2, 105, "client")
	if r.recoveryAtMs != 110 {
		t.Fatalf("expected a fresh outage ending at 105+5=110, got %d", r.recoveryAtMs)
	}
}

func TestRecoveryWithZeroWidthDelayWindow(t *testing.T) {
	r := newTestReplica(Config{
		ID: 3, Weight: 1, FailureProb: 1.0,
		RecoveryDelayMin: 0, RecoveryDelayMax: 0,
	}, 1)
	v1 := artifact.New("f.txt", []byte("A"), 1)
	r.Store(v1, "client")

	v2 := artifact.New("f.txt", []byte("B"), 2)
	if r.Update(v2, 100, "client") {
		t.Fatal("expected induced failure")
	}
	if r.recoveryAtMs != 100 {
		t.Fatalf("expected recovery at exactly now_ms+0=100, got %d", r.recoveryAtMs)
	}
}

func TestSendAckAlwaysNonEmpty(t *testing.T) {
	r := newTestReplica(Config{ID: 7, Weight: 1}, 1)
	ack := r.SendAck()
	if ack.Status == "" || ack.ServerID != 7 {
		t.Fatalf("expected non-empty ack identifying server 7, got %+v", ack)
	}
}

func TestHashInvariantHoldsAfterStoreAndUpdate(t *testing.T) {
	r := newTestReplica(Config{ID: 1, Weight: 1, FailureProb: 0}, 1)
	a := artifact.New("f.txt", []byte("content"), 1)
	r.Store(a, "client")
	if r.stored.Hash() != a.Hash() {
		t.Fatal("stored hash must match sha256 of stored content")
	}

	b := artifact.New("f.txt", []byte("updated content"), 2)
	if !r.Update(b, 0, "client") {
		t.Fatal("expected update to succeed")
	}
	if r.stored.Hash() != b.Hash() {
		t.Fatal("stored hash must match sha256 of updated content")
	}
}
