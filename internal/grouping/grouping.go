package grouping

import (
	"sort"
	"strconv"

	"image-audit/internal/mediatypes"
)

// DefaultSimilarityThreshold is the largest Hamming distance at which two
// hashes are considered similar.
const DefaultSimilarityThreshold = 30

// Rules holds the thresholds used by Oversized and Similar.
type Rules struct {
	MaxBytes            int64
	MaxWidth            int // 0 disables the check
	MaxHeight           int // 0 disables the check
	SimilarityThreshold int
}

// IsOversized reports whether f breaks any of the size rules. Dimension
// rules apply only when set and when the dimension is known.
func (r Rules) IsOversized(f mediatypes.ImageInfo) bool {
	if f.Bytes > r.MaxBytes {
		return true
	}
	if r.MaxWidth > 0 && f.Width != nil && *f.Width > r.MaxWidth {
		return true
	}
	if r.MaxHeight > 0 && f.Height != nil && *f.Height > r.MaxHeight {
		return true
	}
	return false
}

// Oversized returns the files that break the size rules, in input order.
func Oversized(files []mediatypes.ImageInfo, rules Rules) []mediatypes.ImageInfo {
	out := make([]mediatypes.ImageInfo, 0)
	for _, f := range files {
		if rules.IsOversized(f) {
			out = append(out, f)
		}
	}
	return out
}

// DuplicateNames groups files sharing a base name. Only names held by two or
// more files are returned.
func DuplicateNames(files []mediatypes.ImageInfo) []mediatypes.FileGroup {
	buckets := make(map[string][]string)
	for _, f := range files {
		buckets[f.Name] = append(buckets[f.Name], f.Path)
	}
	return collect(buckets, 2)
}

// ByDay groups files by capture day. Files without a day are left out;
// single-file days are kept.
func ByDay(files []mediatypes.ImageInfo) []mediatypes.FileGroup {
	buckets := make(map[string][]string)
	for _, f := range files {
		if f.Date == nil {
			continue
		}
		buckets[*f.Date] = append(buckets[*f.Date], f.Path)
	}
	return collect(buckets, 1)
}

// collect turns buckets into groups with sorted paths, ordered by descending
// size then ascending name.
func collect(buckets map[string][]string, minSize int) []mediatypes.FileGroup {
	groups := make([]mediatypes.FileGroup, 0, len(buckets))
	for name, paths := range buckets {
		if len(paths) < minSize {
			continue
		}
		sort.Strings(paths)
		groups = append(groups, mediatypes.FileGroup{Name: name, Paths: paths})
	}
	sort.Slice(groups, func(i, j int) bool {
		if len(groups[i].Paths) != len(groups[j].Paths) {
			return len(groups[i].Paths) > len(groups[j].Paths)
		}
		return groups[i].Name < groups[j].Name
	})
	return groups
}

// Similar clusters files whose hashes are within threshold of each other,
// transitively. Files without a hash are ignored and files with no neighbour
// never form a group. Clusters are named group-1, group-2, ... in the order
// their first member appears in files.
//
// Hashes of different lengths come from different tool versions and are
// never compared.
func Similar(files []mediatypes.ImageInfo, threshold int) []mediatypes.FileGroup {
	nodes := make([]mediatypes.ImageInfo, 0, len(files))
	for _, f := range files {
		if f.PHash != nil {
			nodes = append(nodes, f)
		}
	}

	adjacency := make([][]int, len(nodes))
	for i := 0; i < len(nodes); i++ {
		for j := i + 1; j < len(nodes); j++ {
			a, b := *nodes[i].PHash, *nodes[j].PHash
			if len(a) == len(b) && Hamming(a, b) <= threshold {
				adjacency[i] = append(adjacency[i], j)
				adjacency[j] = append(adjacency[j], i)
			}
		}
	}

	groups := make([]mediatypes.FileGroup, 0)
	visited := make([]bool, len(nodes))
	stack := make([]int, 0, len(nodes))

	for start := range nodes {
		if visited[start] || len(adjacency[start]) == 0 {
			continue
		}

		var paths []string
		visited[start] = true
		stack = append(stack[:0], start)
		for len(stack) > 0 {
			n := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			paths = append(paths, nodes[n].Path)

			for _, next := range adjacency[n] {
				if !visited[next] {
					visited[next] = true
					stack = append(stack, next)
				}
			}
		}

		sort.Strings(paths)
		groups = append(groups, mediatypes.FileGroup{
			Name:  "group-" + strconv.Itoa(len(groups)+1),
			Paths: paths,
		})
	}

	return groups
}
