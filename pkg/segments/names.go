// Package segments maps anonymous cluster labels to human segment names by
// ranking centroids. This is presentation, not part of the clustering
// contract: labels stay the algorithm's, only the names are derived.
package segments

import (
	"fmt"
	"sort"
)

// rankedNames in descending order of attractiveness. Runs with more
// clusters than names fall back to a numbered segment.
var rankedNames = []string{
	"Champions",
	"Loyal Customers",
	"At Risk",
	"Hibernating",
}

// Names assigns a name per cluster label by ranking centroids on high
// standardized monetary value and low standardized recency. The returned
// slice is indexed by cluster label.
func Names(centroids [][3]float64) []string {
	order := make([]int, len(centroids))
	for i := range order {
		order[i] = i
	}
	// recency is dimension 0, monetary is dimension 2
	score := func(c [3]float64) float64 { return c[2] - c[0] }
	sort.SliceStable(order, func(a, b int) bool {
		return score(centroids[order[a]]) > score(centroids[order[b]])
	})

	names := make([]string, len(centroids))
	for rank, label := range order {
		if rank < len(rankedNames) {
			names[label] = rankedNames[rank]
		} else {
			names[label] = fmt.Sprintf("Segment %d", rank+1)
		}
	}
	return names
}
