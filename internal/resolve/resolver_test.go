package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrypster/castgraph/pkg/types"
)

func entity(id, name, entityType string, confidence float64) *types.Entity {
	return &types.Entity{ID: id, Name: name, Type: entityType, Confidence: confidence}
}

func TestResolveAppleScenario(t *testing.T) {
	r := &Resolver{}
	input := []*types.Entity{
		entity("e1", "Apple Inc.", types.EntityTypeOrganization, 0.9),
		entity("e2", "Apple", types.EntityTypeOrganization, 0.85),
		entity("e3", "Microsoft", types.EntityTypeOrganization, 0.95),
	}

	out := r.Resolve(input)
	require.Len(t, out, 2)

	var apple, microsoft *types.Entity
	for _, e := range out {
		switch e.Name {
		case "Apple Inc.":
			apple = e
		case "Microsoft":
			microsoft = e
		}
	}
	require.NotNil(t, apple, "merged entity should keep the higher-confidence name")
	require.NotNil(t, microsoft)

	assert.Equal(t, "e1", apple.ID)
	assert.Equal(t, 0.9, apple.Confidence)
	assert.Equal(t, []string{"Apple"}, apple.Aliases)

	assert.Equal(t, 0.95, microsoft.Confidence)
	assert.Empty(t, microsoft.Aliases)
}

func TestResolveNeverMergesAcrossTypes(t *testing.T) {
	r := &Resolver{}
	input := []*types.Entity{
		entity("e1", "Tesla", types.EntityTypeOrganization, 0.9),
		entity("e2", "Tesla", types.EntityTypePerson, 0.8),
	}

	out := r.Resolve(input)
	require.Len(t, out, 2, "identical names of different types must not merge")

	typesSeen := map[string]bool{}
	for _, e := range out {
		typesSeen[e.Type] = true
	}
	assert.True(t, typesSeen[types.EntityTypeOrganization])
	assert.True(t, typesSeen[types.EntityTypePerson])
}

func TestResolveTransitiveClosure(t *testing.T) {
	r := &Resolver{}
	// A~B (exact normalized) and B~C (alias) should produce one cluster
	// even though A and C alone might not pair.
	a := entity("a", "International Business Machines Corporation", types.EntityTypeOrganization, 0.7)
	b := entity("b", "International Business Machines", types.EntityTypeOrganization, 0.8)
	c := entity("c", "IBM", types.EntityTypeOrganization, 0.9)
	c.Aliases = []string{"International Business Machines"}

	out := r.Resolve([]*types.Entity{a, b, c})
	require.Len(t, out, 1)
	assert.Equal(t, "c", out[0].ID, "highest confidence member keeps its id")
	assert.Equal(t, "IBM", out[0].Name)
	assert.Equal(t, 0.9, out[0].Confidence)
	assert.Contains(t, out[0].Aliases, "International Business Machines")
}

func TestResolveMergeSemantics(t *testing.T) {
	r := &Resolver{}
	a := entity("a", "Anthropic", types.EntityTypeOrganization, 0.6)
	a.Description = "AI safety company"
	a.UnitIDs = []string{"unit:ep1:0"}
	b := entity("b", "Anthropic LLC", types.EntityTypeOrganization, 0.9)
	b.Description = "Maker of Claude"
	b.UnitIDs = []string{"unit:ep1:2"}
	c := entity("c", "anthropic", types.EntityTypeOrganization, 0.5)
	c.Description = "AI safety company" // duplicate text, deduplicated on merge

	out := r.Resolve([]*types.Entity{a, b, c})
	require.Len(t, out, 1)

	merged := out[0]
	assert.Equal(t, "b", merged.ID)
	assert.Equal(t, "Anthropic LLC", merged.Name)
	assert.Equal(t, 0.9, merged.Confidence, "confidence is the max, never averaged")
	assert.Equal(t, "AI safety company | Maker of Claude", merged.Description)
	assert.Equal(t, []string{"Anthropic"}, merged.Aliases,
		"aliases union member names minus the canonical, deduplicated by normalized form")
	assert.Equal(t, []string{"unit:ep1:0", "unit:ep1:2"}, merged.UnitIDs)
}

func TestResolveConfidenceTieKeepsFirstSeen(t *testing.T) {
	r := &Resolver{}
	a := entity("a", "OpenAI", types.EntityTypeOrganization, 0.8)
	b := entity("b", "OpenAI Inc", types.EntityTypeOrganization, 0.8)

	out := r.Resolve([]*types.Entity{a, b})
	require.Len(t, out, 1)
	assert.Equal(t, "a", out[0].ID)
}

func TestResolveDropsMalformedEntities(t *testing.T) {
	r := &Resolver{}
	input := []*types.Entity{
		entity("e1", "", types.EntityTypeOrganization, 0.9),
		entity("e2", "   ", types.EntityTypePerson, 0.9),
		nil,
		entity("e4", "Valid", types.EntityTypeConcept, 0.9),
	}

	out := r.Resolve(input)
	require.Len(t, out, 1)
	assert.Equal(t, "e4", out[0].ID)
}

func TestResolveCardinality(t *testing.T) {
	r := &Resolver{}
	input := []*types.Entity{
		entity("e1", "Stripe", types.EntityTypeOrganization, 0.9),
		entity("e2", "Stripe Inc", types.EntityTypeOrganization, 0.8),
		entity("e3", "Patrick Collison", types.EntityTypePerson, 0.9),
		entity("e4", "John Collison", types.EntityTypePerson, 0.9),
		entity("e5", "payments", types.EntityTypeConcept, 0.7),
	}

	out := r.Resolve(input)
	assert.LessOrEqual(t, len(out), len(input))

	// Distinct people stay distinct.
	people := 0
	for _, e := range out {
		if e.Type == types.EntityTypePerson {
			people++
		}
	}
	assert.Equal(t, 2, people)
}

func TestResolveSingletonsPassThroughUnchanged(t *testing.T) {
	r := &Resolver{}
	solo := entity("e1", "Microsoft", types.EntityTypeOrganization, 0.95)
	solo.Description = "original description"

	out := r.Resolve([]*types.Entity{solo})
	require.Len(t, out, 1)
	assert.Same(t, solo, out[0], "singleton clusters pass through without copying")
}

func TestMatchTypes(t *testing.T) {
	r := &Resolver{}

	exact := r.matchPair(
		entity("a", "Apple Inc.", types.EntityTypeOrganization, 0.9),
		entity("b", "apple", types.EntityTypeOrganization, 0.8),
	)
	require.NotNil(t, exact)
	assert.Equal(t, MatchExactNormalized, exact.Type)

	fuzzy := r.matchPair(
		entity("a", "Microsoft", types.EntityTypeOrganization, 0.9),
		entity("b", "Microsofl", types.EntityTypeOrganization, 0.8),
	)
	require.NotNil(t, fuzzy)
	assert.Equal(t, MatchFuzzy, fuzzy.Type)

	withAlias := entity("a", "Big Blue", types.EntityTypeOrganization, 0.9)
	withAlias.Aliases = []string{"IBM"}
	alias := r.matchPair(withAlias, entity("b", "IBM", types.EntityTypeOrganization, 0.8))
	require.NotNil(t, alias)
	assert.Equal(t, MatchAlias, alias.Type)

	none := r.matchPair(
		entity("a", "Google", types.EntityTypeOrganization, 0.9),
		entity("b", "Greenpeace", types.EntityTypeOrganization, 0.8),
	)
	assert.Nil(t, none)
}

func TestUnionFind(t *testing.T) {
	uf := newUnionFind(5)
	uf.union(0, 1)
	uf.union(1, 2)
	uf.union(3, 4)

	assert.Equal(t, uf.find(0), uf.find(2))
	assert.Equal(t, uf.find(3), uf.find(4))
	assert.NotEqual(t, uf.find(0), uf.find(3))
}

func TestResolveWithMapRemapsMergedIDs(t *testing.T) {
	r := &Resolver{}

	apple := entity("e1", "Apple Inc.", types.EntityTypeOrganization, 0.9)
	appleShort := entity("e2", "Apple", types.EntityTypeOrganization, 0.7)
	microsoft := entity("e3", "Microsoft", types.EntityTypeOrganization, 0.8)

	resolved, idMap := r.ResolveWithMap([]*types.Entity{apple, appleShort, microsoft})
	require.Len(t, resolved, 2)

	assert.Equal(t, "e1", idMap["e1"], "representative maps to itself")
	assert.Equal(t, "e1", idMap["e2"], "merged member maps to representative")
	assert.Equal(t, "e3", idMap["e3"], "singleton maps to itself")
	assert.Len(t, idMap, 3)
}
