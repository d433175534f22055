// Package grouping turns a list of ImageInfo records into the audit's
// findings: oversized files, duplicate names, capture-day buckets and
// perceptual similarity clusters.
//
// Everything here is a pure function of its input.
//
// Similarity is computed over all pairs of hashed files (O(n²) Hamming
// comparisons) and clusters are the connected components of the resulting
// graph, found with an iterative depth-first search.
package grouping
