package ranking

import (
	"strings"

	"github.com/alvmarrod/graph-weaver/internal/graph"
)

// Corpus holds the two parallel per-URL rows scored by the ranking pass.
// Row i of Names and Domains belongs to URLs[i].
type Corpus struct {
	URLs    []string
	Names   [][]string
	Domains [][]string
	Index   map[string]int // url -> row
}

// BuildCorpus collects, for every URL node with at least one non-URL neighbour,
// the normalized neighbour names and their domain tokens.
func BuildCorpus(s *graph.Store) *Corpus {
	c := &Corpus{Index: make(map[string]int)}

	for _, url := range s.OfType(graph.TypeURL) {
		var names, domains []string
		for _, neighbor := range s.Neighbors(url) {
			node, ok := s.Node(neighbor)
			if !ok || node.Type == graph.TypeURL {
				continue
			}
			names = append(names, NormalizeName(neighbor))
			domains = append(domains, DomainToken(node))
		}
		if len(names) == 0 {
			// Linked only to other pages: nothing lexical to score
			continue
		}

		c.Index[url] = len(c.URLs)
		c.URLs = append(c.URLs, url)
		c.Names = append(c.Names, names)
		c.Domains = append(c.Domains, domains)
	}

	return c
}

// Len returns the number of contributing rows
func (c *Corpus) Len() int {
	return len(c.URLs)
}

var nameSeparators = strings.NewReplacer(".", "", "_", "", "-", "", "+", "", " ", "")

// NormalizeName reduces an entity id to the token used for TF-IDF.
// For emails that is the local part, separators stripped and case-folded:
// John.Doe@x.com -> johndoe
func NormalizeName(id string) string {
	local := id
	if at := strings.LastIndex(id, "@"); at >= 0 {
		local = id[:at]
	}
	return strings.ToLower(nameSeparators.Replace(local))
}

// DomainToken returns the domain part of an entity: what follows "@" for emails,
// the owning site's domain otherwise.
func DomainToken(node graph.Node) string {
	if at := strings.LastIndex(node.ID, "@"); at >= 0 && at < len(node.ID)-1 {
		return strings.ToLower(node.ID[at+1:])
	}
	return strings.ToLower(node.Domain)
}
