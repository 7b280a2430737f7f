// Package rfm collapses a cleaned transaction table into one
// recency/frequency/monetary row per customer.
package rfm

import (
	"errors"
	"sort"
	"time"

	"rfm-segmentation/pkg/models"

	"github.com/sirupsen/logrus"
)

// ErrEmptyInput is returned when the transaction set is empty. The
// normalizer already guards this; the aggregator refuses independently so
// it is safe to call on its own.
var ErrEmptyInput = errors.New("empty transaction set")

type group struct {
	last     time.Time
	invoices map[string]struct{}
	rows     int // rows without an invoice id, each one transaction
	monetary float64
}

// SnapshotDate is one day past the latest timestamp in the set, so the
// most recent purchaser has recency 1, never 0.
func SnapshotDate(txs []models.Transaction) (time.Time, error) {
	if len(txs) == 0 {
		return time.Time{}, ErrEmptyInput
	}
	max := txs[0].Timestamp
	for _, tx := range txs[1:] {
		if tx.Timestamp.After(max) {
			max = tx.Timestamp
		}
	}
	return max.AddDate(0, 0, 1), nil
}

// Aggregate computes one RFMVector per distinct customer, against the
// data-derived snapshot date. Frequency counts distinct invoice ids;
// a row without an invoice id counts as one transaction of its own.
// Results are sorted by customer id so output order is reproducible.
func Aggregate(txs []models.Transaction) ([]models.RFMVector, time.Time, error) {
	snapshot, err := SnapshotDate(txs)
	if err != nil {
		return nil, time.Time{}, err
	}

	groups := make(map[string]*group)
	for _, tx := range txs {
		g, ok := groups[tx.CustomerID]
		if !ok {
			g = &group{invoices: make(map[string]struct{})}
			groups[tx.CustomerID] = g
		}
		if tx.Timestamp.After(g.last) {
			g.last = tx.Timestamp
		}
		if tx.InvoiceID != "" {
			g.invoices[tx.InvoiceID] = struct{}{}
		} else {
			g.rows++
		}
		g.monetary += tx.Amount
	}

	out := make([]models.RFMVector, 0, len(groups))
	for id, g := range groups {
		out = append(out, models.RFMVector{
			CustomerID: id,
			Recency:    int(snapshot.Sub(g.last).Hours() / 24),
			Frequency:  len(g.invoices) + g.rows,
			Monetary:   g.monetary,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CustomerID < out[j].CustomerID })

	logrus.WithFields(logrus.Fields{
		"customers": len(out),
		"snapshot":  snapshot.Format("2006-01-02"),
	}).Info("rfm aggregation complete")
	return out, snapshot, nil
}
