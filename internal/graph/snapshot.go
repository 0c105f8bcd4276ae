package graph

import (
	"fmt"
)

// Snapshot returns an immutable copy of nodes, edges and the type cache
func (s *Store) Snapshot() Snapshot {
	snap := Snapshot{
		Nodes: s.Nodes(),
		Edges: s.Edges(),
		Cache: make(map[string][]string),
	}
	for _, typ := range s.Types() {
		snap.Cache[typ] = s.OfType(typ)
	}
	return snap
}

// FromSnapshot rebuilds a Store from a snapshot.
// Cache entries are checked against the node attributes they claim.
func FromSnapshot(snap Snapshot) (*Store, error) {
	s := NewStore()

	for _, n := range snap.Nodes {
		if n.ID == "" {
			return nil, fmt.Errorf("snapshot node with empty id")
		}
		s.upsertNode(n.ID, n.Domain, n.Type, true)
	}

	for _, e := range snap.Edges {
		if _, ok := s.nodes[e.Source]; !ok {
			return nil, fmt.Errorf("snapshot edge %s-%s: unknown node %s", e.Source, e.Target, e.Source)
		}
		if _, ok := s.nodes[e.Target]; !ok {
			return nil, fmt.Errorf("snapshot edge %s-%s: unknown node %s", e.Source, e.Target, e.Target)
		}
		s.upsertEdge(e.Source, e.Target, e.Weight)
	}

	for typ, ids := range snap.Cache {
		for _, id := range ids {
			node, ok := s.nodes[id]
			if !ok || node.Type != typ {
				return nil, fmt.Errorf("snapshot cache entry %s in bucket %q does not match node attributes", id, typ)
			}
		}
	}

	return s, nil
}

// NodeLink serializes the store into node-link form (nodes with attributes, links with weights)
func (s *Store) NodeLink() NodeLink {
	return NodeLink{
		Directed:   false,
		Multigraph: false,
		Graph:      map[string]any{},
		Nodes:      s.Nodes(),
		Links:      s.Edges(),
	}
}
