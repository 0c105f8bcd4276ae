package graph

import (
	"errors"
	"sort"
	"sync"

	"github.com/alvmarrod/graph-weaver/internal/weburl"
)

// ErrInvalidResult is returned by Add for results missing a page URL or payload
var ErrInvalidResult = errors.New("invalid result: page url and payload are required")

// Store holds the typed entity graph in memory.
// Nodes, edges and the per-type cache are owned together so the cache can never
// drift from the node attributes.
type Store struct {
	nodes     map[string]*Node               // id -> node
	edges     map[edgeKey]*Edge              // ordered endpoints -> edge
	adjacency map[string]map[string]struct{} // id -> neighbour ids
	cache     map[string]map[string]struct{} // type token -> node ids
	mu        sync.RWMutex
}

// NewStore creates an empty graph store
func NewStore() *Store {
	return &Store{
		nodes:     make(map[string]*Node),
		edges:     make(map[edgeKey]*Edge),
		adjacency: make(map[string]map[string]struct{}),
		cache:     make(map[string]map[string]struct{}),
	}
}

// Normalize returns the form of r that Add stores. URL payloads are reduced to
// their canonical base URL; r itself is left untouched.
func Normalize(r Result) Result {
	if r.Type == TypeURL {
		r.Payload = weburl.Canonical(r.Payload)
	}
	return r
}

// Add inserts a result: the page node, the entity node and the edge between them.
// Re-adding an existing result changes nothing, including an already scored weight.
func (s *Store) Add(r Result) error {
	r = Normalize(r)

	v := weburl.Canonical(r.URL)
	u := r.Payload
	if v == "" || u == "" || r.Type == "" {
		return ErrInvalidResult
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.upsertNode(v, r.Domain, TypeURL, true)
	s.upsertNode(u, r.Domain, r.Type, false)
	s.upsertEdge(u, v, 0)
	return nil
}

// upsertNode inserts a node or updates its attributes, keeping the cache in step.
// The page a result was found on owns its domain attribute; an entity only
// fills the domain in when the node has none yet.
// Caller must hold the write lock.
func (s *Store) upsertNode(id, domain, typ string, ownsDomain bool) {
	node, exists := s.nodes[id]
	if !exists {
		node = &Node{ID: id}
		s.nodes[id] = node
		s.adjacency[id] = make(map[string]struct{})
	} else if node.Type != typ {
		if bucket := s.cache[node.Type]; bucket != nil {
			delete(bucket, id)
			if len(bucket) == 0 {
				delete(s.cache, node.Type)
			}
		}
	}

	if domain != "" && (ownsDomain || node.Domain == "") {
		node.Domain = domain
	}
	node.Type = typ

	bucket := s.cache[typ]
	if bucket == nil {
		bucket = make(map[string]struct{})
		s.cache[typ] = bucket
	}
	bucket[id] = struct{}{}
}

// upsertEdge creates the (u, v) edge if missing. Existing weights are kept.
// Caller must hold the write lock and both endpoints must exist.
func (s *Store) upsertEdge(u, v string, weight float64) {
	key := makeEdgeKey(u, v)
	if _, exists := s.edges[key]; exists {
		return
	}
	s.edges[key] = &Edge{Source: key.a, Target: key.b, Weight: weight}
	s.adjacency[u][v] = struct{}{}
	s.adjacency[v][u] = struct{}{}
}

// Merge folds other into s: union of nodes, edges and cache buckets.
// Edges present on both sides keep the weight already held by s.
func (s *Store) Merge(other *Store) {
	if other == nil || other == s {
		return
	}
	snap := other.Snapshot()

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, n := range snap.Nodes {
		s.upsertNode(n.ID, n.Domain, n.Type, false)
	}
	for _, e := range snap.Edges {
		s.upsertEdge(e.Source, e.Target, e.Weight)
	}
}

// Node returns a copy of the node with the given id
func (s *Store) Node(id string) (Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	node, exists := s.nodes[id]
	if !exists {
		return Node{}, false
	}
	return *node, true
}

// HasEdge reports whether u and v are linked
func (s *Store) HasEdge(u, v string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, exists := s.edges[makeEdgeKey(u, v)]
	return exists
}

// Weight returns the weight of the (u, v) edge
func (s *Store) Weight(u, v string) (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	edge, exists := s.edges[makeEdgeKey(u, v)]
	if !exists {
		return 0, false
	}
	return edge.Weight, true
}

// SetWeight overwrites the weight of an existing edge
func (s *Store) SetWeight(u, v string, weight float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	edge, exists := s.edges[makeEdgeKey(u, v)]
	if !exists {
		return false
	}
	edge.Weight = weight
	return true
}

// ResetWeights sets every edge weight back to 0
func (s *Store) ResetWeights() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, edge := range s.edges {
		edge.Weight = 0
	}
}

// Neighbors returns the sorted ids adjacent to id
func (s *Store) Neighbors(id string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedKeys(s.adjacency[id])
}

// OfType returns the sorted ids registered in the cache bucket for typ
func (s *Store) OfType(typ string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedKeys(s.cache[typ])
}

// Types returns the sorted type tokens present in the cache
func (s *Store) Types() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	types := make([]string, 0, len(s.cache))
	for typ := range s.cache {
		types = append(types, typ)
	}
	sort.Strings(types)
	return types
}

// Nodes returns copies of all nodes sorted by id
func (s *Store) Nodes() []Node {
	s.mu.RLock()
	defer s.mu.RUnlock()

	nodes := make([]Node, 0, len(s.nodes))
	for _, node := range s.nodes {
		nodes = append(nodes, *node)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })
	return nodes
}

// Edges returns copies of all edges sorted by endpoints
func (s *Store) Edges() []Edge {
	s.mu.RLock()
	defer s.mu.RUnlock()

	edges := make([]Edge, 0, len(s.edges))
	for _, edge := range s.edges {
		edges = append(edges, *edge)
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].Source != edges[j].Source {
			return edges[i].Source < edges[j].Source
		}
		return edges[i].Target < edges[j].Target
	})
	return edges
}

// GetStats returns current graph statistics
func (s *Store) GetStats() (nodeCount, edgeCount int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.nodes), len(s.edges)
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
