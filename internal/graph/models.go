package graph

// Entity type tokens known to the crawler. Extractors may introduce others.
const (
	TypeURL   = "url"
	TypeEmail = "email"
)

// Result is a single typed entity extracted from a fetched page
type Result struct {
	Domain  string // owning site's netloc
	URL     string // page the entity was found on
	Payload string // extracted value: a URL, an email address, ...
	Type    string // entity type token
}

// Node is a graph vertex identified by its canonical string
type Node struct {
	ID     string `json:"id"`
	Domain string `json:"domain"`
	Type   string `json:"type"`
}

// Edge is an undirected link between an entity and the page it was found on
type Edge struct {
	Source string  `json:"source"`
	Target string  `json:"target"`
	Weight float64 `json:"weight"`
}

// edgeKey orders the endpoints so (u, v) and (v, u) collapse to one edge
type edgeKey struct {
	a, b string
}

func makeEdgeKey(u, v string) edgeKey {
	if v < u {
		u, v = v, u
	}
	return edgeKey{a: u, b: v}
}

// Snapshot is the serializable form of a Store
type Snapshot struct {
	Nodes []Node              `json:"nodes"`
	Edges []Edge              `json:"edges"`
	Cache map[string][]string `json:"cache"`
}

// NodeLink mirrors the node-link JSON layout used by common graph tooling
type NodeLink struct {
	Directed   bool           `json:"directed"`
	Multigraph bool           `json:"multigraph"`
	Graph      map[string]any `json:"graph"`
	Nodes      []Node         `json:"nodes"`
	Links      []Edge         `json:"links"`
}
