package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func urlResult(domain, page, link string) Result {
	return Result{Domain: domain, URL: page, Payload: link, Type: TypeURL}
}

func emailResult(domain, page, email string) Result {
	return Result{Domain: domain, URL: page, Payload: email, Type: TypeEmail}
}

func TestAddBuildsNodesEdgesAndCache(t *testing.T) {
	s := NewStore()

	require.NoError(t, s.Add(urlResult("example.com", "https://example.com/", "https://www.example.com/about/")))
	require.NoError(t, s.Add(emailResult("example.com", "https://example.com", "a@x.com")))

	nodes, edges := s.GetStats()
	assert.Equal(t, 3, nodes)
	assert.Equal(t, 2, edges)

	assert.True(t, s.HasEdge("example.com/about", "example.com"))
	assert.True(t, s.HasEdge("example.com", "a@x.com"))
	assert.Equal(t, []string{"a@x.com"}, s.OfType(TypeEmail))
	assert.ElementsMatch(t, []string{"example.com", "example.com/about"}, s.OfType(TypeURL))

	node, ok := s.Node("a@x.com")
	require.True(t, ok)
	assert.Equal(t, "example.com", node.Domain)
	assert.Equal(t, TypeEmail, node.Type)
}

func TestAddIsIdempotent(t *testing.T) {
	s := NewStore()
	r := emailResult("example.com", "https://example.com/contact", "a@x.com")

	require.NoError(t, s.Add(r))
	require.True(t, s.SetWeight("a@x.com", "example.com/contact", 0.7))
	require.NoError(t, s.Add(r))

	nodes, edges := s.GetStats()
	assert.Equal(t, 2, nodes)
	assert.Equal(t, 1, edges)

	// re-adding must not reset an already scored weight
	w, ok := s.Weight("example.com/contact", "a@x.com")
	require.True(t, ok)
	assert.Equal(t, 0.7, w)
}

func TestAddLeavesCallerCopyUntouched(t *testing.T) {
	s := NewStore()
	r := urlResult("example.com", "https://example.com", "https://www.example.com/about/")

	require.NoError(t, s.Add(r))
	assert.Equal(t, "https://www.example.com/about/", r.Payload)
	assert.Equal(t, "example.com/about", Normalize(r).Payload)
}

func TestAddRejectsIncompleteResults(t *testing.T) {
	s := NewStore()
	assert.ErrorIs(t, s.Add(Result{Domain: "x.com", URL: "x.com", Type: TypeEmail}), ErrInvalidResult)
	assert.ErrorIs(t, s.Add(Result{Domain: "x.com", Payload: "a@x.com", Type: TypeEmail}), ErrInvalidResult)

	nodes, edges := s.GetStats()
	assert.Zero(t, nodes)
	assert.Zero(t, edges)
}

func TestCacheFollowsTypeChanges(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Add(Result{Domain: "x.com", URL: "x.com", Payload: "thing", Type: "phone"}))
	require.NoError(t, s.Add(Result{Domain: "x.com", URL: "x.com", Payload: "thing", Type: "handle"}))

	assert.Empty(t, s.OfType("phone"))
	assert.Equal(t, []string{"thing"}, s.OfType("handle"))
	assert.NotContains(t, s.Types(), "phone")
}

func buildPair() (*Store, *Store) {
	a := NewStore()
	_ = a.Add(urlResult("test.com", "http://www.test.com/welcome", "http://www.test.com/hello"))
	_ = a.Add(emailResult("test.com", "http://www.test.com/hello", "fake.email@gmail.com"))

	b := NewStore()
	_ = b.Add(urlResult("nice-website.com", "nice-website.com/fake", "nice-website.com/fake"))
	_ = b.Add(emailResult("nice-website.com", "nice-website.com/fake", "bigemail@gmail.com"))
	return a, b
}

func TestMerge(t *testing.T) {
	a, b := buildPair()
	a.Merge(b)

	nodes, edges := a.GetStats()
	assert.Equal(t, 5, nodes)
	assert.Equal(t, 4, edges)
	assert.Len(t, a.OfType(TypeURL), 3)
	assert.Len(t, a.OfType(TypeEmail), 2)
}

func TestMergeIsCommutative(t *testing.T) {
	a1, b1 := buildPair()
	a1.Merge(b1)

	a2, b2 := buildPair()
	b2.Merge(a2)

	assert.Equal(t, a1.Nodes(), b2.Nodes())
	assert.Equal(t, a1.Edges(), b2.Edges())
	assert.Equal(t, a1.Snapshot().Cache, b2.Snapshot().Cache)
}

func TestMergeCollapsesDuplicates(t *testing.T) {
	a, _ := buildPair()
	c, _ := buildPair()
	a.Merge(c)
	a.Merge(a)
	a.Merge(nil)

	nodes, edges := a.GetStats()
	assert.Equal(t, 3, nodes)
	assert.Equal(t, 2, edges)
}

func TestSnapshotRoundTrip(t *testing.T) {
	a, b := buildPair()
	a.Merge(b)
	require.True(t, a.SetWeight("test.com/hello", "fake.email@gmail.com", 0.25))

	restored, err := FromSnapshot(a.Snapshot())
	require.NoError(t, err)

	assert.Equal(t, a.Nodes(), restored.Nodes())
	assert.Equal(t, a.Edges(), restored.Edges())
	assert.Equal(t, a.Snapshot().Cache, restored.Snapshot().Cache)
}

func TestFromSnapshotRejectsDanglingEdge(t *testing.T) {
	_, err := FromSnapshot(Snapshot{
		Nodes: []Node{{ID: "a.com", Domain: "a.com", Type: TypeURL}},
		Edges: []Edge{{Source: "a.com", Target: "b.com"}},
	})
	require.Error(t, err)
}

func TestFromSnapshotRejectsInconsistentCache(t *testing.T) {
	_, err := FromSnapshot(Snapshot{
		Nodes: []Node{{ID: "a.com", Domain: "a.com", Type: TypeURL}},
		Cache: map[string][]string{TypeEmail: {"a.com"}},
	})
	require.Error(t, err)
}

func TestNodeLink(t *testing.T) {
	a, _ := buildPair()
	nl := a.NodeLink()

	assert.False(t, nl.Directed)
	assert.Len(t, nl.Nodes, 3)
	assert.Len(t, nl.Links, 2)
	for _, link := range nl.Links {
		assert.LessOrEqual(t, link.Source, link.Target)
	}
}
