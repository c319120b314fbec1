// Package btree walks version 1 B-trees.
//
// Two kinds of tree appear in files written by older libraries: group trees,
// whose leaves point at symbol table nodes listing a group's members, and
// chunk trees, which map the coordinates of each stored chunk of a dataset
// to its address, on-disk size and filter mask.
package btree
