// Package normalizer turns raw source rows into typed, validated
// transactions. Rules apply in a fixed order: missing customer id, amount
// coercion (and the non-positive exclusion), timestamp coercion, then
// exact-duplicate removal.
package normalizer

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"rfm-segmentation/pkg/models"

	"github.com/sirupsen/logrus"
)

// ErrNoValidTransactions is returned when cleaning leaves zero rows;
// downstream stages must not run on an empty table.
var ErrNoValidTransactions = errors.New("no valid transactions after cleaning")

// timestampLayouts are tried in order. RFC3339 first because the SQL
// loader emits it; the rest cover the CSV datasets.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"01/02/2006 15:04",
	"01/02/2006",
}

// Report counts rows dropped per rule during one Clean call.
type Report struct {
	Input        int
	Output       int
	MissingID    int
	BadAmount    int // failed coercion or amount <= 0
	BadTimestamp int
	Duplicates   int
}

// CanonicalKey normalizes a customer identifier so that numeric keys that
// differ only in formatting ("0123", " 123") group as one customer.
func CanonicalKey(id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return ""
	}
	if n, err := strconv.ParseUint(id, 10, 64); err == nil {
		return strconv.FormatUint(n, 10)
	}
	return id
}

func parseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("non-finite amount")
	}
	return v, nil
}

func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", s)
}

// Clean applies the validation rules and returns the surviving
// transactions plus per-rule drop counts. It fails with
// ErrNoValidTransactions when nothing survives.
func Clean(records []models.RawRecord, dropDuplicates bool) ([]models.Transaction, Report, error) {
	rep := Report{Input: len(records)}
	out := make([]models.Transaction, 0, len(records))
	seen := make(map[string]struct{}, len(records))

	for _, rec := range records {
		key := CanonicalKey(rec.CustomerID)
		if key == "" {
			rep.MissingID++
			continue
		}
		amount, err := parseAmount(rec.Amount)
		if err != nil || amount <= 0 {
			rep.BadAmount++
			continue
		}
		ts, err := parseTimestamp(rec.Timestamp)
		if err != nil {
			rep.BadTimestamp++
			continue
		}
		tx := models.Transaction{
			CustomerID: key,
			Amount:     amount,
			Timestamp:  ts,
			InvoiceID:  strings.TrimSpace(rec.InvoiceID),
		}
		if dropDuplicates {
			dup := fmt.Sprintf("%s|%s|%d|%s",
				tx.CustomerID, strconv.FormatFloat(tx.Amount, 'g', -1, 64),
				tx.Timestamp.UnixNano(), tx.InvoiceID)
			if _, ok := seen[dup]; ok {
				rep.Duplicates++
				continue
			}
			seen[dup] = struct{}{}
		}
		out = append(out, tx)
	}

	rep.Output = len(out)
	logrus.WithFields(logrus.Fields{
		"input":         rep.Input,
		"output":        rep.Output,
		"missing_id":    rep.MissingID,
		"bad_amount":    rep.BadAmount,
		"bad_timestamp": rep.BadTimestamp,
		"duplicates":    rep.Duplicates,
	}).Info("cleaning complete")

	if len(out) == 0 {
		return nil, rep, ErrNoValidTransactions
	}
	return out, rep, nil
}
