package extract

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alvmarrod/graph-weaver/internal/fetch"
	"github.com/alvmarrod/graph-weaver/internal/graph"
)

func page(url, body string) *fetch.Response {
	return &fetch.Response{URL: url, StatusCode: http.StatusOK, Body: []byte(body)}
}

func payloads(results []graph.Result) []string {
	out := make([]string, 0, len(results))
	for _, r := range results {
		out = append(out, r.Payload)
	}
	return out
}

func TestURLExtractor(t *testing.T) {
	resp := page("https://www.example.com/blog/", `<html><body>
		<a href="/about">About</a>
		<a href="post-1#comments">Post</a>
		<a href="https://other.org/x">Other</a>
		<a href="https://other.org/x">Again</a>
		<a href="mailto:someone@example.com">Mail</a>
		<a href="javascript:void(0)">JS</a>
		<a href="#top">Top</a>
		<a>No href</a>
	</body></html>`)

	results, err := NewURLExtractor().Extract(resp)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"https://www.example.com/about",
		"https://www.example.com/blog/post-1",
		"https://other.org/x",
	}, payloads(results))

	for _, r := range results {
		assert.Equal(t, graph.TypeURL, r.Type)
		assert.Equal(t, "example.com", r.Domain)
		assert.Equal(t, resp.URL, r.URL)
	}
}

func TestEmailExtractor(t *testing.T) {
	resp := page("https://example.com/contact", `<html><body>
		<p>Write to John.Doe@Example.com or sales@shop.co.uk.</p>
		<p>Duplicate: john.doe@example.com</p>
		<a href="mailto:hidden@mail.org?subject=hi">Contact</a>
	</body></html>`)

	results, err := NewEmailExtractor().Extract(resp)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{
		"john.doe@example.com",
		"sales@shop.co.uk",
		"hidden@mail.org",
	}, payloads(results))

	for _, r := range results {
		assert.Equal(t, graph.TypeEmail, r.Type)
		assert.Equal(t, "example.com", r.Domain)
	}
}

func TestEmailExtractorAdjacentElements(t *testing.T) {
	resp := page("https://acme.com/team", `<html><body><table><tr>`+
		`<td>john@acme.com</td><td>Sales</td></tr></table>`+
		`<p>jane@acme.org</p><p>Support</p>`+
		`<script>var x = "bot@tracker.io";</script>`+
		`</body></html>`)

	results, err := NewEmailExtractor().Extract(resp)
	require.NoError(t, err)
	assert.Equal(t, []string{"john@acme.com", "jane@acme.org"}, payloads(results))
}

func TestEmailExtractorNoMatches(t *testing.T) {
	results, err := NewEmailExtractor().Extract(page("https://example.com", "<p>nothing here</p>"))
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRegistryLookup(t *testing.T) {
	r := DefaultRegistry()
	assert.Equal(t, []string{"email", "url"}, r.Names())

	selected, err := r.Lookup([]string{"email", "email"})
	require.NoError(t, err)
	require.Len(t, selected, 2)
	assert.Equal(t, graph.TypeURL, selected[0].ID())
	assert.Equal(t, graph.TypeEmail, selected[1].ID())

	selected, err = r.Lookup(nil)
	require.NoError(t, err)
	require.Len(t, selected, 1)

	_, err = r.Lookup([]string{"phone"})
	assert.ErrorIs(t, err, ErrUnknownExtractor)
}
