// Package artifact defines the versioned file-like value that the cluster
// keeps consistent across replicas.
//
// An Artifact is immutable once constructed: Size and Hash are derived from
// Content at construction time rather than recomputed on every access.
package artifact

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// DefaultMaxSize is the largest artifact, in bytes, that Validate accepts
// unless a caller supplies a different limit.
const DefaultMaxSize = 100_000

// requiredExtension is the only file extension the cluster will store.
const requiredExtension = ".txt"

// Artifact is a named, versioned byte payload plus its derived size and
// content hash.
type Artifact struct {
	Name    string
	Content []byte
	Version int
	size    int
	hash    string
}

// New builds an Artifact, computing Size and Hash from content once.
func New(name string, content []byte, version int) Artifact {
	sum := sha256.Sum256(content)
	return Artifact{
		Name:    name,
		Content: content,
		Version: version,
		size:    len(content),
		hash:    hex.EncodeToString(sum[:]),
	}
}

// Size returns the byte length of Content.
func (a Artifact) Size() int {
	return a.size
}

// Hash returns the hex SHA-256 digest of Content. Equality for
// reconciliation purposes is defined by Hash, not by Name or Version.
func (a Artifact) Hash() string {
	return a.hash
}

// Validate reports whether a is acceptable for storage: the name must end
// in ".txt" and the size must not exceed maxSize. It is pure — it never
// mutates a or reads external state.
func (a Artifact) Validate(maxSize int) (bool, string) {
	if !strings.HasSuffix(a.Name, requiredExtension) {
		return false, "file must have a .txt extension"
	}
	if a.size > maxSize {
		return false, fmt.Sprintf("file size exceeds the limit of %d bytes (actual: %d bytes)", maxSize, a.size)
	}
	return true, "file is valid"
}
