// Package solver runs the greedy semantic traversal between two articles.
//
// Starting from one page, the engine repeatedly follows the outgoing link
// whose surrounding prose is most similar to the target's name, until the
// target is reached, a page yields no unvisited links, or the step budget
// runs out. This is a heuristic best-first walk, not a shortest-path
// search: the graph is discovered page by page as the walk proceeds, and
// the engine never backtracks.
package solver
