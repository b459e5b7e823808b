// Package main provides the harvest command-line client.
//
// harvest crawls a site from a seed URL and prints the formatted record.
//
// Usage:
//
//	harvest crawl <url>
//	harvest records list --db harvest.db
//
// See --help for all available options.
package main

func main() {
	Execute()
}
