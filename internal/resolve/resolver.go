package resolve

import (
	"log"
	"strings"

	"github.com/scrypster/castgraph/pkg/types"
)

// MatchType tags how a candidate duplicate pair was found.
type MatchType string

const (
	// MatchExactNormalized means both names normalize to the same string.
	MatchExactNormalized MatchType = "exact_normalized"

	// MatchFuzzy means the similarity score cleared the threshold.
	MatchFuzzy MatchType = "fuzzy"

	// MatchAlias means one name appears among the other's aliases, or one
	// normalized name contains the other as a whole.
	MatchAlias MatchType = "alias"
)

// Match is a transient candidate duplicate pairing produced during one
// resolution pass. It is never persisted.
type Match struct {
	A     *types.Entity
	B     *types.Entity
	Score float64
	Type  MatchType
}

// DefaultThreshold is the similarity score at or above which two same-type
// entities become a candidate match.
const DefaultThreshold = 0.85

// Resolver deduplicates batches of extracted entities.
type Resolver struct {
	// Threshold overrides DefaultThreshold when > 0.
	Threshold float64
}

func (r *Resolver) threshold() float64 {
	if r.Threshold > 0 {
		return r.Threshold
	}
	return DefaultThreshold
}

// Resolve deduplicates the batch. Entities are partitioned by declared
// type (a person and an organization can never collapse into one), every
// unordered same-type pair is scored, candidate matches are grouped into
// clusters with a union-find so that A~B and B~C implies one cluster, and
// each cluster merges into a single representative entity. Entities with
// no name are dropped with a logged warning. The output preserves input
// order of each cluster's representative and is never longer than the
// input.
func (r *Resolver) Resolve(entities []*types.Entity) []*types.Entity {
	resolved, _ := r.ResolveWithMap(entities)
	return resolved
}

// ResolveWithMap is Resolve plus a remap from every surviving input entity
// ID to the ID of its cluster representative. Callers use it to rewrite
// relationship and insight references after merging. Singleton entities map
// to themselves; dropped malformed entities do not appear.
func (r *Resolver) ResolveWithMap(entities []*types.Entity) ([]*types.Entity, map[string]string) {
	valid := make([]*types.Entity, 0, len(entities))
	for _, entity := range entities {
		if entity == nil || strings.TrimSpace(entity.Name) == "" {
			log.Printf("resolver: WARNING - dropping malformed entity with missing name (id=%q)", idOf(entity))
			continue
		}
		valid = append(valid, entity)
	}

	// Partition by type, remembering input order for tie-breaking.
	byType := make(map[string][]*types.Entity)
	typeOrder := make([]string, 0)
	for _, entity := range valid {
		if _, seen := byType[entity.Type]; !seen {
			typeOrder = append(typeOrder, entity.Type)
		}
		byType[entity.Type] = append(byType[entity.Type], entity)
	}

	idMap := make(map[string]string, len(valid))
	resolved := make([]*types.Entity, 0, len(valid))
	for _, entityType := range typeOrder {
		resolved = append(resolved, r.resolvePartition(byType[entityType], idMap)...)
	}
	return resolved, idMap
}

// resolvePartition deduplicates entities that share one declared type,
// recording every member ID → representative ID in idMap.
func (r *Resolver) resolvePartition(entities []*types.Entity, idMap map[string]string) []*types.Entity {
	if len(entities) == 1 {
		recordMapping(idMap, entities[0], entities[0])
		return entities
	}
	if len(entities) == 0 {
		return entities
	}

	uf := newUnionFind(len(entities))
	for i := 0; i < len(entities); i++ {
		for j := i + 1; j < len(entities); j++ {
			if match := r.matchPair(entities[i], entities[j]); match != nil {
				uf.union(i, j)
			}
		}
	}

	// Collect clusters preserving first-seen order.
	clusters := make(map[int][]int)
	roots := make([]int, 0)
	for i := range entities {
		root := uf.find(i)
		if _, seen := clusters[root]; !seen {
			roots = append(roots, root)
		}
		clusters[root] = append(clusters[root], i)
	}

	result := make([]*types.Entity, 0, len(roots))
	for _, root := range roots {
		members := make([]*types.Entity, 0, len(clusters[root]))
		for _, idx := range clusters[root] {
			members = append(members, entities[idx])
		}
		if len(members) == 1 {
			recordMapping(idMap, members[0], members[0])
			result = append(result, members[0])
			continue
		}
		merged := mergeCluster(members)
		for _, member := range members {
			recordMapping(idMap, member, merged)
		}
		result = append(result, merged)
	}
	return result
}

func recordMapping(idMap map[string]string, member, representative *types.Entity) {
	if member.ID != "" && representative.ID != "" {
		idMap[member.ID] = representative.ID
	}
}

// matchPair reports whether two same-type entities are candidate
// duplicates, and how. Returns nil when they are distinct.
func (r *Resolver) matchPair(a, b *types.Entity) *Match {
	normA := Normalize(a.Name)
	normB := Normalize(b.Name)

	if normA != "" && normA == normB {
		return &Match{A: a, B: b, Score: 1.0, Type: MatchExactNormalized}
	}
	if aliasMatch(a, b, normA, normB) {
		return &Match{A: a, B: b, Score: 1.0, Type: MatchAlias}
	}
	if score := Similarity(a.Name, b.Name); score >= r.threshold() {
		return &Match{A: a, B: b, Score: score, Type: MatchFuzzy}
	}
	return nil
}

// aliasMatch reports whether one entity's name appears among the other's
// aliases, or one normalized name contains the other as a whole name.
func aliasMatch(a, b *types.Entity, normA, normB string) bool {
	for _, alias := range a.Aliases {
		if n := Normalize(alias); n != "" && n == normB {
			return true
		}
	}
	for _, alias := range b.Aliases {
		if n := Normalize(alias); n != "" && n == normA {
			return true
		}
	}
	// Token-boundary containment catches "Apple" in "Apple Computer"
	// without pairing "apple" with "pineapple".
	if normA != "" && normB != "" {
		if containsTokens(normA, normB) || containsTokens(normB, normA) {
			return true
		}
	}
	return false
}

// containsTokens reports whether needle appears in haystack as a
// contiguous run of whole tokens.
func containsTokens(haystack, needle string) bool {
	if haystack == needle {
		return true
	}
	return strings.HasPrefix(haystack, needle+" ") ||
		strings.HasSuffix(haystack, " "+needle) ||
		strings.Contains(haystack, " "+needle+" ")
}

// mergeCluster merges duplicate entities into one representative. The
// member with the highest confidence keeps its id and name (first-seen
// wins ties); merged confidence is the max, not an average, so one strong
// detection is not diluted by weak duplicates. Descriptions concatenate
// deduplicated; aliases union every other member's name and alias list.
func mergeCluster(members []*types.Entity) *types.Entity {
	keeper := members[0]
	for _, member := range members[1:] {
		if member.Confidence > keeper.Confidence {
			keeper = member
		}
	}

	merged := *keeper
	merged.Aliases = append([]string(nil), keeper.Aliases...)

	descriptions := make([]string, 0, len(members))
	seenDesc := make(map[string]bool)
	seenAlias := make(map[string]bool)
	seenUnit := make(map[string]bool)

	// Alias dedup is case-folded on the raw strings, not on normalized
	// forms: "Apple" must survive as an alias of "Apple Inc." even though
	// both normalize identically.
	canonicalKey := strings.ToLower(keeper.Name)
	for _, alias := range keeper.Aliases {
		seenAlias[strings.ToLower(alias)] = true
	}

	var unitIDs []string
	for _, member := range members {
		if member.Description != "" && !seenDesc[member.Description] {
			seenDesc[member.Description] = true
			descriptions = append(descriptions, member.Description)
		}

		candidates := append([]string{member.Name}, member.Aliases...)
		for _, candidate := range candidates {
			key := strings.ToLower(strings.TrimSpace(candidate))
			if key == "" || key == canonicalKey || seenAlias[key] {
				continue
			}
			seenAlias[key] = true
			merged.Aliases = append(merged.Aliases, candidate)
		}

		for _, unitID := range member.UnitIDs {
			if !seenUnit[unitID] {
				seenUnit[unitID] = true
				unitIDs = append(unitIDs, unitID)
			}
		}
	}

	merged.Description = strings.Join(descriptions, " | ")
	merged.UnitIDs = unitIDs
	return &merged
}

func idOf(entity *types.Entity) string {
	if entity == nil {
		return ""
	}
	return entity.ID
}

// unionFind is a disjoint-set over partition indices with path compression
// and union by rank. Explicit grouping guarantees deterministic transitive
// closure over the pairwise matches.
type unionFind struct {
	parent []int
	rank   []int
}

func newUnionFind(n int) *unionFind {
	uf := &unionFind{
		parent: make([]int, n),
		rank:   make([]int, n),
	}
	for i := range uf.parent {
		uf.parent[i] = i
	}
	return uf
}

func (uf *unionFind) find(x int) int {
	for uf.parent[x] != x {
		uf.parent[x] = uf.parent[uf.parent[x]]
		x = uf.parent[x]
	}
	return x
}

func (uf *unionFind) union(a, b int) {
	rootA, rootB := uf.find(a), uf.find(b)
	if rootA == rootB {
		return
	}
	if uf.rank[rootA] < uf.rank[rootB] {
		rootA, rootB = rootB, rootA
	}
	uf.parent[rootB] = rootA
	if uf.rank[rootA] == uf.rank[rootB] {
		uf.rank[rootA]++
	}
}
