// Package main provides the graph-weaver CLI.
//
// graph-weaver crawls the web from seed URLs, extracts typed entities (links,
// email addresses) into a weighted graph and ranks them per domain.
//
// Usage:
//
//	weaver crawl --seed example.com
//	weaver rank -n 5
//	weaver serve --addr :8080
package main

func main() {
	Execute()
}
