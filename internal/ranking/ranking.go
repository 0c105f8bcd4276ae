package ranking

import (
	"sort"

	"github.com/alvmarrod/graph-weaver/internal/graph"
	"github.com/sirupsen/logrus"
)

// Options configures a ranking pass
type Options struct {
	Alpha    float64 // blend between TF-IDF (alpha) and domain prior (1 - alpha)
	PageRank PageRankOptions
}

// DefaultOptions returns alpha 0.5 with the default PageRank options
func DefaultOptions() Options {
	return Options{Alpha: 0.5, PageRank: DefaultPageRankOptions()}
}

// Cluster is the ranked top of one domain
type Cluster struct {
	Domain string   `json:"domain"`
	Items  []string `json:"items"`
}

// AssignWeights recomputes every edge weight from scratch.
// An edge between a contributing URL row and a non-URL neighbour gets
// alpha*tfidf(row, name) + (1-alpha)*prior(domain); every other edge gets 0.
func AssignWeights(s *graph.Store, alpha float64) *Corpus {
	corpus := BuildCorpus(s)
	tfidf := FitTFIDF(corpus.Names)
	prior := FitPrior(corpus.Domains)

	s.ResetWeights()

	scored := 0
	for row, url := range corpus.URLs {
		for _, neighbor := range s.Neighbors(url) {
			node, ok := s.Node(neighbor)
			if !ok || node.Type == graph.TypeURL {
				continue
			}
			weight := alpha*tfidf.Score(row, NormalizeName(neighbor)) + (1-alpha)*prior[DomainToken(node)]
			s.SetWeight(url, neighbor, weight)
			scored++
		}
	}

	logrus.Debugf("Scored %d edges across %d corpus rows", scored, corpus.Len())
	return corpus
}

// Rank assigns edge weights and then runs weighted PageRank over the whole graph
func Rank(s *graph.Store, opts Options) map[string]float64 {
	AssignWeights(s, opts.Alpha)
	return PageRank(s, opts.PageRank)
}

// TopNPerDomain ranks the graph and returns, for every domain, its n highest
// ranked URL nodes. Clusters are sorted by domain; ties in rank are broken by id.
func TopNPerDomain(s *graph.Store, n int, opts Options) []Cluster {
	ranks := Rank(s, opts)

	clusters := make(map[string][]string)
	for _, id := range s.OfType(graph.TypeURL) {
		node, ok := s.Node(id)
		if !ok {
			continue
		}
		clusters[node.Domain] = append(clusters[node.Domain], id)
	}

	domains := make([]string, 0, len(clusters))
	for domain := range clusters {
		domains = append(domains, domain)
	}
	sort.Strings(domains)

	result := make([]Cluster, 0, len(domains))
	for _, domain := range domains {
		members := clusters[domain]
		sort.SliceStable(members, func(i, j int) bool {
			if ranks[members[i]] != ranks[members[j]] {
				return ranks[members[i]] > ranks[members[j]]
			}
			return members[i] < members[j]
		})
		if n >= 0 && len(members) > n {
			members = members[:n]
		}
		result = append(result, Cluster{Domain: domain, Items: members})
	}

	return result
}
