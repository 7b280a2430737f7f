// Package pipeline sequences the segmentation stages over an in-memory
// batch: normalize, aggregate, scale, cluster, name. Each stage consumes
// the previous stage's table; there is no feedback and no shared state.
package pipeline

import (
	"context"
	"fmt"
	"sort"
	"time"

	"rfm-segmentation/pkg/cluster"
	"rfm-segmentation/pkg/models"
	"rfm-segmentation/pkg/normalizer"
	"rfm-segmentation/pkg/rfm"
	"rfm-segmentation/pkg/scaler"
	"rfm-segmentation/pkg/segments"

	"github.com/schollz/progressbar/v3"
	"github.com/sirupsen/logrus"
)

const stageCount = 4 // clean, aggregate, scale, cluster

// Result is the full outcome of one batch run: the output table plus the
// intermediate statistics that make the run reproducible and reportable.
type Result struct {
	Rows       []models.SegmentRow
	Summaries  []models.SegmentSummary
	Snapshot   time.Time
	Cleaning   normalizer.Report
	Scaling    scaler.Params
	Centroids  [][3]float64
	K          int
	Iterations int
	Converged  bool
}

// Run executes the whole pipeline over raw records from any source. The
// records are consumed once; every run recomputes from scratch.
func Run(ctx context.Context, records []models.RawRecord, cfg models.Config) (*Result, error) {
	bar := progressbar.Default(stageCount)
	res := &Result{}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	txs, report, err := normalizer.Clean(records, cfg.DropDuplicates)
	if err != nil {
		return nil, fmt.Errorf("normalize: %w", err)
	}
	res.Cleaning = report
	_ = bar.Add(1)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	vectors, snapshot, err := rfm.Aggregate(txs)
	if err != nil {
		return nil, fmt.Errorf("aggregate: %w", err)
	}
	res.Snapshot = snapshot
	_ = bar.Add(1)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	scaled, params := scaler.Scale(vectors)
	res.Scaling = params
	_ = bar.Add(1)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cl, err := cluster.Run(scaled, cfg.K, cfg.Seed, cfg.MaxIterations)
	if err != nil {
		return nil, fmt.Errorf("cluster: %w", err)
	}
	res.Centroids = cl.Centroids
	res.K = cl.K
	res.Iterations = cl.Iterations
	res.Converged = cl.Converged
	_ = bar.Add(1)

	var names []string
	if cfg.NameSegments {
		names = segments.Names(cl.Centroids)
	}

	res.Rows = make([]models.SegmentRow, len(vectors))
	for i, v := range vectors {
		row := models.SegmentRow{
			CustomerID: v.CustomerID,
			Recency:    v.Recency,
			Frequency:  v.Frequency,
			Monetary:   v.Monetary,
			Cluster:    cl.Labels[i],
		}
		if names != nil {
			row.Segment = names[cl.Labels[i]]
		}
		res.Rows[i] = row
	}
	res.Summaries = summarize(res.Rows, cl.K)

	if cfg.Verbose {
		logrus.WithFields(logrus.Fields{
			"customers":  len(res.Rows),
			"k":          res.K,
			"iterations": res.Iterations,
			"converged":  res.Converged,
		}).Info("pipeline complete")
	}
	return res, nil
}

func summarize(rows []models.SegmentRow, k int) []models.SegmentSummary {
	out := make([]models.SegmentSummary, k)
	for c := range out {
		out[c].Cluster = c
	}
	for _, r := range rows {
		s := &out[r.Cluster]
		s.Segment = r.Segment
		s.Customers++
		s.AvgRecency += float64(r.Recency)
		s.AvgFrequency += float64(r.Frequency)
		s.AvgMonetary += r.Monetary
	}
	for c := range out {
		if n := float64(out[c].Customers); n > 0 {
			out[c].AvgRecency /= n
			out[c].AvgFrequency /= n
			out[c].AvgMonetary /= n
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Customers > out[j].Customers })
	return out
}
