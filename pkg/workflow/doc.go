/*
Package workflow turns the flat answer map into the automation graph.

Two entry points exist. AppendStep grows a graph one node at a time and is used for
irreversible progress. Assembler.Regenerate rebuilds the whole graph from the answers
and a cursor; it is a pure function, so a live preview can be recomputed after every
answer without stale partial graphs surviving.

Every graph has a single start and a single end. Nodes have one incoming edge and one
outgoing edge, except conditions which fan out into a true and a false branch. The end
node is the sink of every branch.
*/
package workflow
