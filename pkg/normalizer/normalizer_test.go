package normalizer

import (
	"testing"
	"time"

	"rfm-segmentation/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(id, amount, ts string) models.RawRecord {
	return models.RawRecord{CustomerID: id, Amount: amount, Timestamp: ts}
}

func TestCanonicalKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"123", "123"},
		{" 123 ", "123"},
		{"0123", "123"},
		{"0", "0"},
		{"ABC-42", "ABC-42"},
		{"   ", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CanonicalKey(tt.in), "input %q", tt.in)
	}
}

func TestClean_RuleOrderAndCounts(t *testing.T) {
	records := []models.RawRecord{
		rec("1", "10.50", "2024-01-05"),
		rec("", "99", "2024-01-05"),       // rule 1: missing id
		rec("2", "abc", "2024-01-05"),     // rule 2: coercion failure
		rec("2", "-5", "2024-01-05"),      // rule 2: non-positive
		rec("2", "0", "2024-01-05"),       // rule 2: non-positive
		rec("3", "7", "not-a-date"),       // rule 3: bad timestamp
		rec("4", "1.25", "2024-02-01"),
		rec("4", "1.25", "2024-02-01"),    // rule 4: exact duplicate
	}

	txs, rep, err := Clean(records, true)
	require.NoError(t, err)

	assert.Equal(t, 8, rep.Input)
	assert.Equal(t, 2, rep.Output)
	assert.Equal(t, 1, rep.MissingID)
	assert.Equal(t, 3, rep.BadAmount)
	assert.Equal(t, 1, rep.BadTimestamp)
	assert.Equal(t, 1, rep.Duplicates)
	require.Len(t, txs, 2)
	assert.Equal(t, 10.50, txs[0].Amount)
	assert.Equal(t, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), txs[0].Timestamp)
}

func TestClean_KeepDuplicates(t *testing.T) {
	records := []models.RawRecord{
		rec("4", "1.25", "2024-02-01"),
		rec("4", "1.25", "2024-02-01"),
	}
	txs, rep, err := Clean(records, false)
	require.NoError(t, err)
	assert.Len(t, txs, 2)
	assert.Zero(t, rep.Duplicates)
}

func TestClean_MixedKeyTypesGroupTogether(t *testing.T) {
	records := []models.RawRecord{
		rec("123", "5", "2024-01-01"),
		rec("0123", "5", "2024-01-02"),
	}
	txs, _, err := Clean(records, true)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, txs[0].CustomerID, txs[1].CustomerID)
}

func TestClean_TimestampLayouts(t *testing.T) {
	records := []models.RawRecord{
		rec("1", "1", "2024-03-01T12:30:00Z"),
		rec("2", "1", "2024-03-01 12:30:00"),
		rec("3", "1", "2024-03-01"),
		rec("4", "1", "03/01/2024 12:30"),
	}
	txs, rep, err := Clean(records, true)
	require.NoError(t, err)
	assert.Len(t, txs, 4)
	assert.Zero(t, rep.BadTimestamp)
}

func TestClean_AllInvalid(t *testing.T) {
	records := []models.RawRecord{
		rec("", "1", "2024-01-01"),
		rec("1", "-3", "2024-01-01"),
	}
	_, _, err := Clean(records, true)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoValidTransactions)
}

func TestClean_EmptyInput(t *testing.T) {
	_, _, err := Clean(nil, true)
	assert.ErrorIs(t, err, ErrNoValidTransactions)
}
