// Package dat implements an associative container over byte-string keys
// using a double-array trie: two parallel integer arrays (base/check)
// encode the branching structure of the trie, while keys that diverge
// from every other key in storage are folded into a single entry in an
// auxiliary tail pool instead of being spelled out cell by cell.
//
// The layout follows the scheme described by Aoe (1989) and later
// popularized by libdatrie: a cell s has a child on symbol c at
// base[s]+c exactly when check[base[s]+c] == s. Unused cells are
// threaded onto a doubly linked free ring anchored at cell 1, and
// unused tail slots are threaded onto a singly linked free chain.
//
// Keys are arbitrary []byte; values are generic and supplied by the
// caller through a Type descriptor that configures the key alphabet
// and optional duplication/destruction/codec hooks.
package dat
