package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"rfm-segmentation/pkg/models"

	_ "github.com/go-sql-driver/mysql"
	"github.com/sirupsen/logrus"
)

var tableNameRe = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// Open accepts a mariadb:// or mysql:// URL and converts it to the native
// MySQL driver DSN format.
func Open(dsn string) (*sql.DB, string, error) {
	mysqlDSN, err := toMySQLDSN(dsn)
	if err != nil {
		return nil, "", err
	}
	db, err := sql.Open("mysql", mysqlDSN)
	if err != nil {
		return nil, "", err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	return db, mysqlDSN, nil
}

func toMySQLDSN(dsn string) (string, error) {
	if strings.HasPrefix(dsn, "mariadb://") || strings.HasPrefix(dsn, "mysql://") {
		u, err := url.Parse(dsn)
		if err != nil {
			return "", fmt.Errorf("parse dsn: %w", err)
		}
		user := ""
		pass := ""
		if u.User != nil {
			user = u.User.Username()
			pw, _ := u.User.Password()
			pass = pw
		}
		host := u.Host
		db := strings.TrimPrefix(u.Path, "/")
		if user == "" || host == "" || db == "" {
			return "", fmt.Errorf("incomplete dsn (user/host/db)")
		}
		return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true&loc=UTC&interpolateParams=true",
			user, pass, host, db), nil
	}
	return dsn, nil
}

// LoadTransactions scans the whole transaction table and returns raw
// records; typing and validation are the normalizer's job. The table
// follows the loader schema: CustomerID, TransactionAmount, Date. There is
// no invoice column in the SQL schema, so frequency downstream falls back
// to row counting.
func LoadTransactions(ctx context.Context, db *sql.DB, tableName string) ([]models.RawRecord, error) {
	if !tableNameRe.MatchString(tableName) {
		return nil, fmt.Errorf("invalid table name %q", tableName)
	}

	q := fmt.Sprintf(`
		SELECT t.CustomerID, t.TransactionAmount, t.Date
		FROM %s t
	`, tableName)

	rows, err := db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.RawRecord
	for rows.Next() {
		var (
			customerID sql.NullString
			amount     sql.NullString
			date       sql.NullTime
		)
		if err := rows.Scan(&customerID, &amount, &date); err != nil {
			return nil, err
		}
		rec := models.RawRecord{
			CustomerID: customerID.String,
			Amount:     amount.String,
		}
		if date.Valid {
			rec.Timestamp = date.Time.UTC().Format(time.RFC3339)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{"table": tableName, "rows": len(out)}).
		Debug("transactions loaded")
	return out, nil
}
