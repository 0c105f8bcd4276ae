package crawler

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/alvmarrod/graph-weaver/internal/config"
	"github.com/alvmarrod/graph-weaver/internal/weburl"
)

// File extensions that never lead to crawlable pages (archives, media, office docs, ...)
var ignoredExtensions = toSet(
	// archives
	"7z", "7zip", "bz2", "rar", "tar", "tgz", "xz", "zip", "gz",
	// images
	"mng", "pct", "bmp", "gif", "jpg", "jpeg", "png", "pst", "psp", "tif", "tiff", "ai", "drw", "dxf",
	"eps", "ps", "svg", "cdr", "ico", "webp",
	// audio
	"mp3", "wma", "ogg", "wav", "ra", "aac", "mid", "au", "aiff",
	// video
	"3gp", "asf", "asx", "avi", "mov", "mp4", "mpg", "qt", "rm", "swf", "wmv", "m4a", "m4v", "flv", "webm",
	// office suites
	"xls", "xlsx", "ppt", "pptx", "pps", "doc", "docx", "odt", "ods", "odg", "odp",
	// other
	"css", "pdf", "exe", "bin", "rss", "dmg", "iso", "apk", "jar", "js",
)

// Suffixes that look like file extensions but are website TLDs
var websiteTLDs = toSet(
	"com", "org", "net", "io", "dev", "co", "edu", "gov", "mil", "int", "info", "biz", "app", "ai",
	"me", "us", "uk", "de", "fr", "es", "it", "nl", "eu", "ca", "au", "jp", "cn", "ru", "br", "in",
	"tv", "xyz", "site", "tech", "blog", "shop", "page", "online", "cloud",
)

var extensionPattern = regexp.MustCompile(`\.([A-Za-z0-9]{2,4})$`)

func toSet(items ...string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[item] = true
	}
	return set
}

// Filter decides which discovered URLs may enter the frontier.
// It remembers every URL it has let through, in canonical form.
type Filter struct {
	domain    string
	subdomain string
	patterns  []*regexp.Regexp
	seen      map[string]bool
}

// NewFilter compiles the admission rules
func NewFilter(cfg config.FilterConfig) (*Filter, error) {
	f := &Filter{
		domain:    strings.ToLower(strings.TrimSpace(cfg.Domain)),
		subdomain: strings.ToLower(strings.TrimSpace(cfg.Subdomain)),
		seen:      make(map[string]bool),
	}

	for _, p := range cfg.Patterns {
		re, err := regexp.Compile(`^(?:` + p + `)`)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", config.ErrInvalidPattern, p, err)
		}
		f.patterns = append(f.patterns, re)
	}

	return f, nil
}

// Filter returns the admitted candidates in their original order
func (f *Filter) Filter(candidates []string) []string {
	var admitted []string

	for _, raw := range candidates {
		if reason := f.reject(raw); reason != "" {
			logrus.Debugf("Filter dropped %s: %s", raw, reason)
			continue
		}

		f.seen[weburl.Canonical(raw)] = true
		admitted = append(admitted, raw)
	}

	return admitted
}

// MarkSeen registers a URL without running the pipeline (seeds)
func (f *Filter) MarkSeen(raw string) {
	f.seen[weburl.Canonical(raw)] = true
}

// reject runs the pipeline and returns the first failing stage, or "" when the URL passes
func (f *Filter) reject(raw string) string {
	switch scheme := weburl.Scheme(raw); scheme {
	case "http", "https":
	default:
		return fmt.Sprintf("scheme %q not allowed", scheme)
	}

	if !f.allowedDomain(raw) {
		return "outside allowed domain"
	}

	if IsIgnoredExtension(weburl.Path(raw)) {
		return "ignored file extension"
	}

	if !f.matchesPattern(weburl.Path(raw)) {
		return "no pattern matched"
	}

	if f.seen[weburl.Canonical(raw)] {
		return "already seen"
	}

	return ""
}

func (f *Filter) allowedDomain(raw string) bool {
	if f.domain == "" && f.subdomain == "" {
		return true
	}

	registered, subdomain := weburl.Split(weburl.Host(raw))
	// www is not a subdomain for identity purposes
	if subdomain == "www" {
		subdomain = ""
	}
	return registered == f.domain && subdomain == f.subdomain
}

func (f *Filter) matchesPattern(path string) bool {
	if len(f.patterns) == 0 {
		return true
	}
	for _, re := range f.patterns {
		if re.MatchString(path) {
			return true
		}
	}
	return false
}

// IsIgnoredExtension checks if a path ends in a non-page file extension
func IsIgnoredExtension(path string) bool {
	m := extensionPattern.FindStringSubmatch(path)
	if m == nil {
		return false
	}

	ext := strings.ToLower(m[1])
	if websiteTLDs[ext] {
		return false
	}
	return ignoredExtensions[ext]
}
