package metrics

import (
	"errors"
	"fmt"
)

var (
	// ErrTenantDatabaseUnavailable is returned when a tenant's database
	// connection cannot be resolved or a query against it fails.
	ErrTenantDatabaseUnavailable = errors.New("tenant database unavailable")

	// ErrCacheUnavailable marks a shared cache transport failure. It is
	// never surfaced to callers; the lookup degrades to a miss.
	ErrCacheUnavailable = errors.New("shared cache unavailable")

	// ErrMalformedCacheValue marks a cached value that failed to decode.
	ErrMalformedCacheValue = errors.New("malformed cache value")

	// ErrInconsistentCacheValue marks a decoded snapshot that fails Consistent.
	ErrInconsistentCacheValue = errors.New("inconsistent cache value")

	// ErrUnknownTenant is returned for a brand missing from the registry.
	ErrUnknownTenant = errors.New("unknown tenant")

	ErrInvalidWindow = errors.New("invalid time window")
	ErrUnknownMetric = errors.New("unknown metric")
	ErrInvalidOption = errors.New("invalid option")
)

// TenantDatabaseUnavailableError carries the tenant and the underlying cause.
type TenantDatabaseUnavailableError struct {
	Tenant TenantKey
	Err    error
}

func (e *TenantDatabaseUnavailableError) Error() string {
	return fmt.Sprintf("tenant %s: %v: %v", e.Tenant, ErrTenantDatabaseUnavailable, e.Err)
}

func (e *TenantDatabaseUnavailableError) Unwrap() []error {
	return []error{ErrTenantDatabaseUnavailable, e.Err}
}

// DatabaseUnavailable wraps err for tenant. An error that already carries
// ErrTenantDatabaseUnavailable is returned unchanged.
func DatabaseUnavailable(tenant TenantKey, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrTenantDatabaseUnavailable) {
		return err
	}
	return &TenantDatabaseUnavailableError{Tenant: tenant, Err: err}
}
