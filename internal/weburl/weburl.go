package weburl

import (
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// withScheme makes scheme-less and protocol-relative input parseable as an absolute URL
func withScheme(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "//") {
		return "http:" + raw
	}
	if !strings.Contains(raw, "://") {
		return "http://" + raw
	}
	return raw
}

// Canonical reduces a URL to its graph identity: netloc + path, with the scheme,
// a leading "www.", the query, the fragment and any trailing slash removed.
// Example: https://www.example.com/about/?q=1#top -> example.com/about
func Canonical(raw string) string {
	parsed, err := url.Parse(withScheme(raw))
	if err != nil || parsed.Host == "" {
		// Not a URL we can take apart; fall back to plain string trimming
		s := strings.TrimSpace(raw)
		if i := strings.Index(s, "://"); i >= 0 {
			s = s[i+3:]
		}
		if i := strings.IndexAny(s, "?#"); i >= 0 {
			s = s[:i]
		}
		return strings.TrimRight(stripWWW(s), "/")
	}

	return strings.TrimRight(stripWWW(strings.ToLower(parsed.Host))+parsed.EscapedPath(), "/")
}

func stripWWW(host string) string {
	for strings.HasPrefix(host, "www.") {
		host = host[len("www."):]
	}
	return host
}

// Absolute returns a fetchable form of a possibly scheme-less URL
func Absolute(raw string) string {
	return withScheme(raw)
}

// Scheme returns the lower-cased scheme of a URL, or "" when it has none
func Scheme(raw string) string {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	return strings.ToLower(parsed.Scheme)
}

// Path returns the path component of a URL
func Path(raw string) string {
	parsed, err := url.Parse(withScheme(raw))
	if err != nil {
		return ""
	}
	return parsed.Path
}

// Host extracts the lower-cased hostname (domain/subdomain) from a URL string
func Host(raw string) string {
	parsed, err := url.Parse(withScheme(raw))
	if err != nil {
		return ""
	}
	return strings.ToLower(parsed.Hostname())
}

// Domain returns the owning site's netloc as used for the node "domain" attribute.
// The "www." prefix is dropped so it lines up with canonical node ids.
func Domain(raw string) string {
	parsed, err := url.Parse(withScheme(raw))
	if err != nil {
		return ""
	}
	return stripWWW(strings.ToLower(parsed.Host))
}

// Split breaks a hostname into its registered domain (eTLD+1) and subdomain.
// Example: blog.example.co.uk -> ("example.co.uk", "blog")
func Split(host string) (registered, subdomain string) {
	host = strings.TrimSuffix(strings.ToLower(host), ".")
	registered, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		// IPs, localhost and bare suffixes have no registrable part
		return host, ""
	}
	subdomain = strings.TrimSuffix(strings.TrimSuffix(host, registered), ".")
	return registered, subdomain
}

// RootDomain extracts the registered domain of a host
// Example: blog.example.com -> example.com
func RootDomain(host string) string {
	registered, _ := Split(host)
	return registered
}
