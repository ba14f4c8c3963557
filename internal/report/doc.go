// Package report renders race results for terminal display and sharing.
//
// Three formats are provided: a human-readable text report (default),
// JSON for tooling, and GitHub-flavored Markdown for sharing a run.
package report
