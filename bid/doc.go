// Package bid implements content-addressed node identity: the 128-bit BID,
// its 48-bit Bref alias, anchor/title slug normalization, and the NodeKey
// union used to triangulate "the same node" across renames and moves.
package bid
