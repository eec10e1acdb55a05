package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
)

// mysqlDuplicateKeyName is returned by MySQL when an index already exists.
const mysqlDuplicateKeyName = 1061

var summaryTables = []string{
	`CREATE TABLE IF NOT EXISTS overall_summary (
		date VARCHAR(10) PRIMARY KEY,
		total_orders INTEGER DEFAULT 0,
		total_sales DOUBLE PRECISION DEFAULT 0,
		total_sessions INTEGER DEFAULT 0,
		total_atc_sessions INTEGER DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS hour_wise_sales (
		date VARCHAR(10) NOT NULL,
		hour INTEGER NOT NULL,
		number_of_orders INTEGER DEFAULT 0,
		total_sales DOUBLE PRECISION DEFAULT 0,
		PRIMARY KEY (date, hour)
	)`,
	`CREATE TABLE IF NOT EXISTS hourly_sessions_summary (
		date VARCHAR(10) NOT NULL,
		hour INTEGER NOT NULL,
		number_of_sessions INTEGER DEFAULT 0,
		number_of_atc_sessions INTEGER DEFAULT 0,
		PRIMARY KEY (date, hour)
	)`,
	`CREATE TABLE IF NOT EXISTS sessions_summary (
		date VARCHAR(10) PRIMARY KEY,
		number_of_sessions INTEGER DEFAULT 0,
		number_of_atc_sessions INTEGER DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS shopify_orders (
		created_date VARCHAR(10),
		created_time VARCHAR(8),
		order_id VARCHAR(64),
		total_price DOUBLE PRECISION,
		order_app_name VARCHAR(128),
		product_id VARCHAR(64),
		line_item_price DOUBLE PRECISION,
		line_item_quantity INTEGER,
		payment_gateway_names VARCHAR(255)
	)`,
}

var summaryIndexes = []struct {
	name, table, columns string
}{
	{"idx_shopify_orders_created", "shopify_orders", "created_date, created_time"},
	{"idx_shopify_orders_order", "shopify_orders", "order_id"},
	{"idx_shopify_orders_product", "shopify_orders", "product_id"},
}

// TableCreator builds the summary tables the metrics engine reads from.
// It exists for local tenants and tests; production tenants are fed by the
// ingestion pipeline that owns these tables.
type TableCreator struct{}

// NewTableCreator creates a new TableCreator.
func NewTableCreator() *TableCreator {
	return &TableCreator{}
}

// CreateSchema creates every summary table and index that does not exist yet.
func (tc *TableCreator) CreateSchema(ctx context.Context, db *DB) error {
	for _, tableSQL := range summaryTables {
		if _, err := db.ExecContext(ctx, tableSQL); err != nil {
			return fmt.Errorf("failed to create table for query [%s]: %w", tableSQL, err)
		}
	}

	for _, idx := range summaryIndexes {
		indexSQL := fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s)", idx.name, idx.table, idx.columns)
		if db.Driver == DriverMySQL {
			// MySQL has no IF NOT EXISTS for indexes
			indexSQL = fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.table, idx.columns)
		}
		if _, err := db.ExecContext(ctx, indexSQL); err != nil {
			if isDuplicateIndex(err) {
				continue
			}
			return fmt.Errorf("failed to create index for query [%s]: %w", indexSQL, err)
		}
	}
	return nil
}

// SummaryTables lists the tables CreateSchema manages.
func (tc *TableCreator) SummaryTables() []string {
	return []string{"overall_summary", "hour_wise_sales", "hourly_sessions_summary", "sessions_summary", "shopify_orders"}
}

func isDuplicateIndex(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateKeyName
}
