package metrics

// Direction classifies the sign of a change.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
	DirectionFlat Direction = "flat"
)

// flatEpsilon absorbs floating point noise around zero.
const flatEpsilon = 1e-4

// DeltaResult is the comparison of one metric across two periods.
type DeltaResult struct {
	Metric    Metric     `json:"metric"`
	Range     TimeWindow `json:"range"`
	Current   float64    `json:"current"`
	Previous  float64    `json:"previous"`
	Diff      float64    `json:"diff"`
	DiffPct   float64    `json:"diff_pct"`
	Direction Direction  `json:"direction"`
}

// ComputeDelta compares current against previous. The arithmetic does not
// depend on the metric.
func ComputeDelta(metric Metric, window TimeWindow, current, previous float64) DeltaResult {
	diff := current - previous

	var pct float64
	switch {
	case previous > 0:
		pct = diff * 100 / previous
	case current > 0:
		pct = 100
	}

	dir := DirectionFlat
	if diff > flatEpsilon {
		dir = DirectionUp
	} else if diff < -flatEpsilon {
		dir = DirectionDown
	}

	return DeltaResult{
		Metric:    metric,
		Range:     window,
		Current:   current,
		Previous:  previous,
		Diff:      diff,
		DiffPct:   pct,
		Direction: dir,
	}
}
