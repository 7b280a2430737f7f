// Package cluster implements seeded k-means over standardized RFM vectors.
// Initialization is k-means++, distance is Euclidean in 3-D, and the whole
// run is driven by one rand.Source so identical seed and input give
// identical labels.
package cluster

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"rfm-segmentation/pkg/models"

	"github.com/sirupsen/logrus"
)

// ErrEmptyInput is returned when there are no vectors to cluster.
var ErrEmptyInput = errors.New("no vectors to cluster")

// convergenceTol bounds centroid movement; below it the partition is
// treated as stable even if a point is still oscillating between
// equidistant centroids.
const convergenceTol = 1e-4

// Result carries the per-point labels (aligned with the input slice), the
// final centroids, and how the iteration ended.
type Result struct {
	Labels     []int
	Centroids  [][3]float64
	K          int // effective K, possibly reduced
	Iterations int
	Converged  bool
}

type point [3]float64

func toPoint(v models.ScaledVector) point {
	return point{v.Recency, v.Frequency, v.Monetary}
}

func sqDist(a, b point) float64 {
	var s float64
	for i := range a {
		d := a[i] - b[i]
		s += d * d
	}
	return s
}

// Run partitions the vectors into at most k clusters. When there are
// fewer distinct points than k, k is reduced to that count and the
// reduction is logged, not failed. Hitting maxIter returns the best
// assignment found with Converged=false.
func Run(vectors []models.ScaledVector, k int, seed int64, maxIter int) (Result, error) {
	if len(vectors) == 0 {
		return Result{}, ErrEmptyInput
	}
	if k <= 0 {
		return Result{}, fmt.Errorf("k must be positive, got %d", k)
	}
	if maxIter <= 0 {
		return Result{}, fmt.Errorf("max iterations must be positive, got %d", maxIter)
	}

	points := make([]point, len(vectors))
	for i, v := range vectors {
		points[i] = toPoint(v)
	}

	if distinct := countDistinct(points); k > distinct {
		logrus.WithFields(logrus.Fields{"requested": k, "effective": distinct}).
			Warn("fewer distinct customers than clusters, reducing k")
		k = distinct
	}

	rng := rand.New(rand.NewSource(seed))
	centroids := seedCentroids(points, k, rng)
	labels := make([]int, len(points))
	for i := range labels {
		labels[i] = -1
	}

	res := Result{K: k}
	for iter := 1; iter <= maxIter; iter++ {
		res.Iterations = iter

		changed := 0
		for i, p := range points {
			best := nearest(p, centroids)
			if best != labels[i] {
				labels[i] = best
				changed++
			}
		}

		shift := recompute(points, labels, centroids)

		if changed == 0 || shift < convergenceTol {
			res.Converged = true
			break
		}
	}
	if !res.Converged {
		logrus.WithField("iterations", res.Iterations).
			Warn("k-means hit the iteration cap without converging")
	}

	res.Labels = labels
	res.Centroids = make([][3]float64, k)
	for i, c := range centroids {
		res.Centroids[i] = c
	}
	return res, nil
}

func countDistinct(points []point) int {
	seen := make(map[point]struct{}, len(points))
	for _, p := range points {
		seen[p] = struct{}{}
	}
	return len(seen)
}

// seedCentroids implements k-means++: the first centroid is uniform, each
// subsequent one is sampled with probability proportional to the squared
// distance to the nearest centroid chosen so far.
func seedCentroids(points []point, k int, rng *rand.Rand) []point {
	centroids := make([]point, 0, k)
	centroids = append(centroids, points[rng.Intn(len(points))])

	d2 := make([]float64, len(points))
	for len(centroids) < k {
		var total float64
		for i, p := range points {
			d2[i] = sqDist(p, centroids[0])
			for _, c := range centroids[1:] {
				if d := sqDist(p, c); d < d2[i] {
					d2[i] = d
				}
			}
			total += d2[i]
		}
		if total == 0 {
			// all remaining mass sits on already-chosen points; any
			// unchosen point works (k <= distinct guarantees one exists)
			centroids = append(centroids, firstUnchosen(points, centroids))
			continue
		}
		target := rng.Float64() * total
		idx := len(points) - 1
		for i, d := range d2 {
			target -= d
			if target <= 0 {
				idx = i
				break
			}
		}
		centroids = append(centroids, points[idx])
	}
	return centroids
}

func firstUnchosen(points []point, centroids []point) point {
	chosen := make(map[point]struct{}, len(centroids))
	for _, c := range centroids {
		chosen[c] = struct{}{}
	}
	for _, p := range points {
		if _, ok := chosen[p]; !ok {
			return p
		}
	}
	return points[0]
}

// recompute moves each centroid to the mean of its assigned points and
// returns the largest squared shift. A centroid that lost every point is
// relocated to the point currently farthest from its own centroid.
func recompute(points []point, labels []int, centroids []point) float64 {
	k := len(centroids)
	sums := make([]point, k)
	counts := make([]int, k)
	for i, p := range points {
		l := labels[i]
		for d := range p {
			sums[l][d] += p[d]
		}
		counts[l]++
	}

	var maxShift float64
	for c := 0; c < k; c++ {
		var next point
		if counts[c] == 0 {
			next = points[farthestPoint(points, labels, centroids)]
		} else {
			for d := range next {
				next[d] = sums[c][d] / float64(counts[c])
			}
		}
		if shift := sqDist(centroids[c], next); shift > maxShift {
			maxShift = shift
		}
		centroids[c] = next
	}
	return maxShift
}

func farthestPoint(points []point, labels []int, centroids []point) int {
	best, bestD := 0, -1.0
	for i, p := range points {
		if d := sqDist(p, centroids[labels[i]]); d > bestD {
			best, bestD = i, d
		}
	}
	return best
}

func nearest(p point, centroids []point) int {
	best, bestD := 0, math.MaxFloat64
	for c, cent := range centroids {
		if d := sqDist(p, cent); d < bestD {
			best, bestD = c, d
		}
	}
	return best
}
