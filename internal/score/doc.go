// Package score ranks link candidates by semantic similarity to a target.
//
// The scorer embeds each candidate's context snippet, compares it to a
// fixed target embedding by cosine similarity, and orders candidates best
// first. Embeddings are memoized on the exact context string: identical
// snippets, whether on one page or across the whole run, are embedded at
// most once for the lifetime of the scorer.
package score
