package coordinator

import (
	"crypto/sha256"
	"encoding/hex"
)

// contentHash identifies a restore response by the sha256 of its content,
// matching artifact.Artifact's identity rule (name and version are not
// part of equality).
func contentHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// group accumulates the replicas that reported an identical content hash
// during restore collection.
type group struct {
	hash           string
	totalWeight    int
	count          int
	representative collected
}

// reconcile applies majority-by-content-hash reconciliation over collected
// restore responses, falling back to the group with the greatest summed
// weight when no group holds a strict majority of totalServers. Groups are
// considered in first-seen order so ties are broken deterministically by
// arrival order, matching the stable per-round, per-replica iteration order
// the caller collected responses in.
func reconcile(all []collected, totalServers int) (RestoreResult, bool) {
	order := make([]string, 0, len(all))
	groups := make(map[string]*group, len(all))

	for _, c := range all {
		h := contentHash(c.response.Content)
		g, ok := groups[h]
		if !ok {
			g = &group{hash: h, representative: c}
			groups[h] = g
			order = append(order, h)
		}
		g.count++
		g.totalWeight += c.weight
	}

	for _, h := range order {
		g := groups[h]
		if totalServers > 0 && g.count*2 > totalServers {
			return toResult(g.representative), true
		}
	}

	var best *group
	for _, h := range order {
		g := groups[h]
		if best == nil || g.totalWeight > best.totalWeight {
			best = g
		}
	}
	return toResult(best.representative), true
}

func toResult(c collected) RestoreResult {
	return RestoreResult{
		Version: c.response.Version,
		Content: c.response.Content,
		Name:    c.response.Name,
	}
}
