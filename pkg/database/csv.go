package database

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"rfm-segmentation/pkg/models"

	"github.com/sirupsen/logrus"
)

// ErrMissingColumn signals that a required column could not be resolved
// from the CSV header under any of its accepted aliases.
var ErrMissingColumn = errors.New("missing required column")

// columnAliases maps each canonical field to the header spellings seen in
// the wild (case-insensitive, surrounding whitespace ignored). Resolved
// once against the header row, never per-row.
var columnAliases = map[string][]string{
	"customer_id": {"customer_id", "customer id", "customerid", "custid", "customer"},
	"amount":      {"amount", "transaction amount", "transaction_amount", "totalsum", "total", "price", "unitprice"},
	"timestamp":   {"timestamp", "date", "invoicedate", "invoice date", "transaction date", "eventdate", "event_date"},
	"invoice_id":  {"invoice_id", "invoice", "invoiceno", "invoice no", "invoiceid"},
}

var requiredColumns = []string{"customer_id", "amount", "timestamp"}

// resolveHeader maps canonical field names to column indexes. invoice_id
// is optional; the other three are contract violations when absent.
func resolveHeader(header []string) (map[string]int, error) {
	byAlias := make(map[string]int, len(header))
	for i, h := range header {
		byAlias[strings.ToLower(strings.TrimSpace(h))] = i
	}

	cols := make(map[string]int, len(columnAliases))
	for canonical, aliases := range columnAliases {
		for _, a := range aliases {
			if i, ok := byAlias[a]; ok {
				cols[canonical] = i
				break
			}
		}
	}
	for _, req := range requiredColumns {
		if _, ok := cols[req]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, req)
		}
	}
	return cols, nil
}

// ReadCSV loads raw records from a CSV file with a header row.
func ReadCSV(path string) ([]models.RawRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readCSV(f)
}

func readCSV(r io.Reader) ([]models.RawRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty file", ErrMissingColumn)
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols, err := resolveHeader(header)
	if err != nil {
		return nil, err
	}

	field := func(row []string, canonical string) string {
		i, ok := cols[canonical]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var out []models.RawRecord
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(out)+2, err)
		}
		out = append(out, models.RawRecord{
			CustomerID: field(row, "customer_id"),
			Amount:     field(row, "amount"),
			Timestamp:  field(row, "timestamp"),
			InvoiceID:  field(row, "invoice_id"),
		})
	}

	logrus.WithField("rows", len(out)).Debug("csv loaded")
	return out, nil
}
