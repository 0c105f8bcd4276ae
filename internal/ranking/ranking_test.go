package ranking

import (
	"testing"

	"github.com/alvmarrod/graph-weaver/internal/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func add(t *testing.T, s *graph.Store, domain, page, payload, typ string) {
	t.Helper()
	require.NoError(t, s.Add(graph.Result{Domain: domain, URL: page, Payload: payload, Type: typ}))
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "johndoe", NormalizeName("John.Doe@x.com"))
	assert.Equal(t, "abc", NormalizeName("a_b-c+tag@x.com")[:3])
	assert.Equal(t, "plain", NormalizeName("Plain"))
}

func TestDomainToken(t *testing.T) {
	assert.Equal(t, "mail.com", DomainToken(graph.Node{ID: "a@Mail.com", Domain: "site.com"}))
	assert.Equal(t, "site.com", DomainToken(graph.Node{ID: "+123456", Domain: "site.com"}))
}

func TestFitTFIDF(t *testing.T) {
	m := FitTFIDF([][]string{{"a", "b"}, {"a"}})

	require.Len(t, m.rows, 2)
	assert.InDelta(t, 1.0, m.Score(1, "a"), 1e-9)
	assert.Greater(t, m.Score(0, "b"), m.Score(0, "a"))
	assert.InDelta(t, 1.0, m.Score(0, "a")*m.Score(0, "a")+m.Score(0, "b")*m.Score(0, "b"), 1e-9)
	assert.Zero(t, m.Score(1, "b"))
	assert.Zero(t, m.Score(5, "a"))
}

func TestFitPrior(t *testing.T) {
	p := FitPrior([][]string{{"gmail.com", "x.com"}, {"gmail.com"}})
	assert.InDelta(t, 2.0/3.0, p["gmail.com"], 1e-9)
	assert.InDelta(t, 1.0/3.0, p["x.com"], 1e-9)
	assert.Zero(t, p["missing.com"])
}

func TestBuildCorpusSkipsURLOnlyPages(t *testing.T) {
	s := graph.NewStore()
	add(t, s, "a.com", "a.com", "a.com/next", graph.TypeURL)
	add(t, s, "a.com", "a.com/contact", "Jane.Roe@mail.com", graph.TypeEmail)

	c := BuildCorpus(s)
	require.Equal(t, 1, c.Len())
	assert.Equal(t, "a.com/contact", c.URLs[0])
	assert.Equal(t, []string{"janeroe"}, c.Names[0])
	assert.Equal(t, []string{"mail.com"}, c.Domains[0])
	assert.Equal(t, 0, c.Index["a.com/contact"])
}

func sharedEmailGraph(t *testing.T) *graph.Store {
	s := graph.NewStore()
	add(t, s, "a.com", "https://a.com/p", "shared@mail.com", graph.TypeEmail)
	add(t, s, "a.com", "https://a.com/p", "other@z.com", graph.TypeEmail)
	add(t, s, "b.org", "https://b.org/q", "shared@mail.com", graph.TypeEmail)
	add(t, s, "a.com", "https://a.com/p", "https://b.org/q", graph.TypeURL)
	return s
}

func TestAssignWeightsSharedEmailPriorTerm(t *testing.T) {
	// alpha 0 isolates the domain prior: identical and non-zero on both edges
	s := sharedEmailGraph(t)
	AssignWeights(s, 0)

	wa, ok := s.Weight("a.com/p", "shared@mail.com")
	require.True(t, ok)
	wb, ok := s.Weight("b.org/q", "shared@mail.com")
	require.True(t, ok)
	assert.InDelta(t, 2.0/3.0, wa, 1e-9)
	assert.InDelta(t, wa, wb, 1e-12)

	// alpha 1 isolates TF-IDF, which depends on each URL's own row
	AssignWeights(s, 1)
	wa, _ = s.Weight("a.com/p", "shared@mail.com")
	wb, _ = s.Weight("b.org/q", "shared@mail.com")
	assert.InDelta(t, 1.0, wb, 1e-9)
	assert.Less(t, wa, wb)
}

func TestAssignWeightsBounds(t *testing.T) {
	for _, alpha := range []float64{0, 0.3, 0.5, 1} {
		s := sharedEmailGraph(t)
		AssignWeights(s, alpha)

		for _, e := range s.Edges() {
			assert.GreaterOrEqual(t, e.Weight, 0.0)
			assert.LessOrEqual(t, e.Weight, 1.0+1e-12)
		}

		// page to page edges carry no lexical signal
		w, ok := s.Weight("a.com/p", "b.org/q")
		require.True(t, ok)
		assert.Zero(t, w)
	}
}

func TestAssignWeightsRecomputesFromScratch(t *testing.T) {
	s := sharedEmailGraph(t)
	AssignWeights(s, 0.5)
	first, _ := s.Weight("b.org/q", "shared@mail.com")

	add(t, s, "b.org", "https://b.org/q", "more@mail.com", graph.TypeEmail)
	AssignWeights(s, 0.5)
	second, _ := s.Weight("b.org/q", "shared@mail.com")

	assert.NotEqual(t, first, second)
}

func TestPageRank(t *testing.T) {
	s := sharedEmailGraph(t)
	AssignWeights(s, 0.5)
	ranks := PageRank(s, DefaultPageRankOptions())

	require.Len(t, ranks, 4)
	var total float64
	for _, r := range ranks {
		assert.Greater(t, r, 0.0)
		total += r
	}
	assert.InDelta(t, 1.0, total, 1e-6)

	// the email found on two pages outranks the one found on a single page
	assert.Greater(t, ranks["shared@mail.com"], ranks["other@z.com"])
}

func TestPageRankEmptyGraph(t *testing.T) {
	assert.Empty(t, PageRank(graph.NewStore(), DefaultPageRankOptions()))
}

func TestTopNPerDomain(t *testing.T) {
	s := graph.NewStore()
	add(t, s, "a.com", "https://a.com", "https://a.com/one", graph.TypeURL)
	add(t, s, "a.com", "https://a.com", "https://a.com/two", graph.TypeURL)
	add(t, s, "a.com", "https://a.com/one", "x@mail.com", graph.TypeEmail)
	add(t, s, "a.com", "https://a.com/one", "y@mail.com", graph.TypeEmail)
	add(t, s, "b.org", "https://b.org", "z@mail.com", graph.TypeEmail)

	clusters := TopNPerDomain(s, 2, DefaultOptions())

	require.Len(t, clusters, 2)
	assert.Equal(t, "a.com", clusters[0].Domain)
	assert.Len(t, clusters[0].Items, 2)
	assert.Equal(t, "a.com/one", clusters[0].Items[0])
	assert.Equal(t, "b.org", clusters[1].Domain)
	assert.Equal(t, []string{"b.org"}, clusters[1].Items)

	for _, c := range clusters {
		for _, id := range c.Items {
			node, ok := s.Node(id)
			require.True(t, ok)
			assert.Equal(t, graph.TypeURL, node.Type)
		}
	}
}
