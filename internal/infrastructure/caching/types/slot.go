package types

import (
	"time"

	"github.com/AtRiskMedia/brandpulse-go/internal/domain/metrics"
)

// Slot is the observable state of a memory tier key: Hit, Pending or Empty.
type Slot interface {
	slot()
}

// Hit is a fresh resolved snapshot.
type Hit struct {
	Snapshot metrics.Snapshot
	StoredAt time.Time
}

// Pending is a shared cache fetch that has not resolved yet.
type Pending struct {
	Flight *Flight
}

// Empty means nothing usable is held for the key.
type Empty struct{}

func (Hit) slot()     {}
func (Pending) slot() {}
func (Empty) slot()   {}
