package models

import (
	"time"
)

/*
LOAD → simple types for raw rows read from the source (MySQL or CSV).
*/

// RawRecord is a not-yet-validated row. Amount and Timestamp stay strings
// so that coercion, and the counting of its failures, happens in one place
// (the normalizer) regardless of source.
type RawRecord struct {
	CustomerID string
	Amount     string
	Timestamp  string
	InvoiceID  string // optional; empty means no invoice concept
}

// Transaction is one purchase event after the normalizer has typed and
// validated its fields.
type Transaction struct {
	CustomerID string // canonical key, see normalizer.CanonicalKey
	Amount     float64
	Timestamp  time.Time
	InvoiceID  string
}

/*
COMPUTE → per-customer outputs of the successive stages.
*/

// RFMVector is one row of the aggregated table, one per distinct customer.
type RFMVector struct {
	CustomerID string
	Recency    int     // days between snapshot date and last transaction, >= 1
	Frequency  int     // distinct invoices (or row count), >= 1
	Monetary   float64 // sum of amounts, > 0
}

// ScaledVector is the standardized 3-tuple fed to the clusterer.
type ScaledVector struct {
	CustomerID string
	Recency    float64
	Frequency  float64
	Monetary   float64
}

// SegmentRow is one row of the final output table.
type SegmentRow struct {
	CustomerID string
	Recency    int
	Frequency  int
	Monetary   float64
	Cluster    int
	Segment    string // human name, empty when naming is disabled
}

// SegmentSummary aggregates one cluster for the report.
type SegmentSummary struct {
	Cluster      int
	Segment      string
	Customers    int
	AvgRecency   float64
	AvgFrequency float64
	AvgMonetary  float64
}

/*
CONFIG → global parameters.
*/

// Config holds the parameters for a pipeline run. Defaults come from
// RFM_-prefixed environment variables; flags override.
type Config struct {
	DSN            string `envconfig:"DSN"`
	Table          string `envconfig:"TABLE" default:"Transactions"`
	CSVPath        string `envconfig:"CSV_PATH"`
	K              int    `envconfig:"K" default:"4"`
	Seed           int64  `envconfig:"SEED" default:"42"`
	MaxIterations  int    `envconfig:"MAX_ITERATIONS" default:"300"`
	DropDuplicates bool   `envconfig:"DROP_DUPLICATES" default:"true"`
	NameSegments   bool   `envconfig:"NAME_SEGMENTS" default:"true"`
	Verbose        bool   `envconfig:"VERBOSE"`
}
