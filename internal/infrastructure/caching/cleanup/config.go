package cleanup

import (
	"time"

	"github.com/AtRiskMedia/brandpulse-go/pkg/config"
)

// Config holds cleanup worker configuration, sourced from the central config package.
type Config struct {
	CleanupInterval  time.Duration
	VerboseReporting bool
	MemoryTTL        time.Duration
}

// NewConfig creates a cleanup configuration from the resolved runtime config.
func NewConfig(cfg *config.Config) *Config {
	return &Config{
		CleanupInterval:  cfg.CleanupInterval,
		VerboseReporting: cfg.CleanupVerbose,
		MemoryTTL:        cfg.SnapshotMemoryTTL,
	}
}
