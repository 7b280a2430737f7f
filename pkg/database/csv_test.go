package database

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveHeader_Aliases(t *testing.T) {
	tests := []struct {
		name   string
		header []string
	}{
		{"retail dataset", []string{"Invoice", "StockCode", "Quantity", "InvoiceDate", "Price", "Customer ID"}},
		{"loader dataset", []string{"CustomerID", "Name", "Transaction Amount", "Date", "Category"}},
		{"snake case", []string{"customer_id", "amount", "timestamp", "invoice_id"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cols, err := resolveHeader(tt.header)
			require.NoError(t, err)
			for _, req := range requiredColumns {
				assert.Contains(t, cols, req)
			}
		})
	}
}

func TestResolveHeader_MissingRequired(t *testing.T) {
	_, err := resolveHeader([]string{"Customer ID", "Date"}) // no amount
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingColumn)
	assert.Contains(t, err.Error(), "amount")
}

func TestReadCSV_Rows(t *testing.T) {
	in := strings.Join([]string{
		"Customer ID,Transaction Amount,Date,Invoice",
		"17850,15.30,2024-03-01,536365",
		"13047,22.00,2024-03-02,536366",
		`13047,"9.90",2024-03-05,`,
	}, "\n")

	recs, err := readCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, "17850", recs[0].CustomerID)
	assert.Equal(t, "15.30", recs[0].Amount)
	assert.Equal(t, "2024-03-01", recs[0].Timestamp)
	assert.Equal(t, "536365", recs[0].InvoiceID)
	assert.Empty(t, recs[2].InvoiceID)
}

func TestReadCSV_EmptyFile(t *testing.T) {
	_, err := readCSV(strings.NewReader(""))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingColumn)
}

func TestReadCSV_ShortRow(t *testing.T) {
	in := "customer_id,amount,timestamp,invoice_id\n42,10.0\n"
	recs, err := readCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, recs, 1)
	// missing trailing fields come back empty, the normalizer drops them
	assert.Empty(t, recs[0].Timestamp)
}
