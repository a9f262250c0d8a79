package artifact

import (
	"bytes"
	"strings"
	"testing"
)

func TestValidateExtension(t *testing.T) {
	a := New("report.csv", []byte("hello"), 1)
	ok, reason := a.Validate(DefaultMaxSize)
	if ok {
		t.Fatalf("expected validation failure for non-.txt name, got ok with reason %q", reason)
	}

	a = New("report.txt", []byte("hello"), 1)
	ok, reason = a.Validate(DefaultMaxSize)
	if !ok {
		t.Fatalf("expected valid .txt artifact, got rejected: %s", reason)
	}
}

func TestValidateSizeBoundary(t *testing.T) {
	atLimit := New("f.txt", bytes.Repeat([]byte("a"), 100_000), 1)
	if ok, reason := atLimit.Validate(DefaultMaxSize); !ok {
		t.Fatalf("expected artifact at exactly max_size to be valid, got: %s", reason)
	}

	overLimit := New("f.txt", bytes.Repeat([]byte("a"), 100_001), 1)
	if ok, _ := overLimit.Validate(DefaultMaxSize); ok {
		t.Fatal("expected artifact one byte over max_size to be rejected")
	}
}

func TestHashIdentityIgnoresNameAndVersion(t *testing.T) {
	a := New("a.txt", []byte("same content"), 1)
	b := New("b.txt", []byte("same content"), 7)
	if a.Hash() != b.Hash() {
		t.Fatal("expected artifacts with identical content to share a hash regardless of name/version")
	}

	c := New("a.txt", []byte("different content"), 1)
	if a.Hash() == c.Hash() {
		t.Fatal("expected artifacts with different content to have different hashes")
	}
}

func TestSizeIsByteLength(t *testing.T) {
	a := New("f.txt", []byte("12345"), 1)
	if a.Size() != 5 {
		t.Fatalf("expected size 5, got %d", a.Size())
	}
}

func TestValidateReasonMentionsExtension(t *testing.T) {
	a := New("f.bin", []byte("x"), 1)
	_, reason := a.Validate(DefaultMaxSize)
	if !strings.Contains(reason, ".txt") {
		t.Fatalf("expected rejection reason to mention .txt, got %q", reason)
	}
}
