// Package extract turns raw article HTML into link candidates.
//
// A candidate pairs the target article title with a short snippet of the
// prose surrounding the anchor. The snippet is what the scorer embeds, so
// its quality directly drives hop selection: a link inside a rich sentence
// carries far more signal than the bare anchor text.
//
// Extraction is a pure function of the input document. Candidates are
// returned in document order and deduplicated on title, keeping the first
// occurrence; downstream truncation and tie-breaking both rely on this
// ordering being stable.
package extract
