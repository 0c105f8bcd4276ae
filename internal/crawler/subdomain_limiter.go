package crawler

import (
	"sync"

	"github.com/alvmarrod/graph-weaver/internal/weburl"
)

// SubdomainLimiter caps how many distinct hosts of one registered domain may enter the frontier.
// A limit of 0 means unlimited.
type SubdomainLimiter struct {
	maxPerRoot int
	mu         sync.Mutex
	hosts      map[string]map[string]bool // registered domain -> hosts
}

// NewSubdomainLimiter creates a new subdomain limiter
func NewSubdomainLimiter(maxPerRoot int) *SubdomainLimiter {
	return &SubdomainLimiter{
		maxPerRoot: maxPerRoot,
		hosts:      make(map[string]map[string]bool),
	}
}

// Allow registers the host of url and reports whether it fits under the cap.
// Hosts already registered are always allowed.
func (sl *SubdomainLimiter) Allow(url string) bool {
	if sl.maxPerRoot <= 0 {
		return true
	}

	host := weburl.Domain(url)
	root := weburl.RootDomain(weburl.Host(url))

	sl.mu.Lock()
	defer sl.mu.Unlock()

	set := sl.hosts[root]
	if set == nil {
		set = make(map[string]bool)
		sl.hosts[root] = set
	}
	if set[host] {
		return true
	}
	if len(set) >= sl.maxPerRoot {
		return false
	}

	set[host] = true
	return true
}
