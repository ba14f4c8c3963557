// Package main provides the entry point for the wikirun CLI.
//
// Wikirun plays the Wikipedia race: starting from one article, it
// repeatedly follows the hyperlink whose surrounding text is most
// semantically similar to the target article, until it arrives or gives
// up.
//
// Usage:
//
//	wikirun run <start> <target>
//	wikirun history
//
// See --help for all available options.
package main

// main is the entry point for wikirun.
func main() {
	Execute()
}
