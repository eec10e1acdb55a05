// Package database provides database helper functions
package database

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/AtRiskMedia/brandpulse-go/internal/infrastructure/observability/logging"
)

// TursoDSN builds the libsql connection string of a Turso database.
func TursoDSN(databaseURL, authToken string) string {
	if authToken == "" {
		return databaseURL
	}
	sep := "?"
	if strings.Contains(databaseURL, "?") {
		sep = "&"
	}
	return databaseURL + sep + "authToken=" + url.QueryEscape(authToken)
}

// MySQLDSN converts a mysql:// or mariadb:// URL into the go-sql-driver
// format. Anything else is returned unchanged.
func MySQLDSN(raw string) (string, error) {
	if !strings.HasPrefix(raw, "mysql://") && !strings.HasPrefix(raw, "mariadb://") {
		return raw, nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid mysql url: %w", err)
	}
	host := u.Host
	if u.Port() == "" {
		host += ":3306"
	}
	dbName := strings.TrimPrefix(u.Path, "/")

	var auth string
	if u.User != nil {
		pass, _ := u.User.Password()
		auth = u.User.Username() + ":" + pass + "@"
	}

	params := u.Query()
	params.Set("parseTime", "true")
	params.Set("interpolateParams", "true")
	return fmt.Sprintf("%stcp(%s)/%s?%s", auth, host, dbName, params.Encode()), nil
}

// CheckAndLogSlowQuery checks if a query duration exceeds threshold
// and logs it using the slow query channel if it does
func CheckAndLogSlowQuery(logger *logging.ChanneledLogger, query string, duration time.Duration, tenantID string, threshold time.Duration) {
	if threshold <= 0 {
		return
	}
	// connection setup regularly takes longer than a query
	if strings.HasPrefix(query, "DATABASE_") {
		threshold *= 3
	}

	if duration > threshold {
		logger.LogSlowQuery(query, duration, tenantID)
	}
}
