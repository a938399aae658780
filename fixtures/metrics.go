package fixtures

import (
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"
)

const (
	// MetricHours is how many hourly samples each series holds.
	MetricHours = 48

	FlowUnit     = "L/s"
	PressureUnit = "bar"

	// Documented value bounds of the synthetic series.
	FlowMin     = 40.0
	FlowMax     = 75.0
	PressureMin = 2.7
	PressureMax = 4.6
)

// MetricGenerator produces the synthetic flow/pressure series. The noise source
// is seedable so tests can reproduce a run.
type MetricGenerator struct {
	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

func NewMetricGenerator(seed int64, now func() time.Time) *MetricGenerator {
	if now == nil {
		now = time.Now
	}
	return &MetricGenerator{rng: rand.New(rand.NewSource(seed)), now: now}
}

// Generate returns MetricHours samples per series going backwards from now,
// flow and pressure interleaved, newest first.
func (g *MetricGenerator) Generate(projectID int) []Metric {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now().UTC().Truncate(time.Second)
	flowSensor := fmt.Sprintf("FLOW-TZ-WP-%04d", projectID)
	pressSensor := fmt.Sprintf("PRESS-TZ-WP-%04d", projectID)

	metrics := make([]Metric, 0, MetricHours*2)
	for h := 0; h < MetricHours; h++ {
		ts := now.Add(-time.Duration(h) * time.Hour)
		hf := float64(h)
		metrics = append(metrics,
			Metric{
				ID:         projectID*1000 + h*2,
				ProjectID:  projectID,
				SensorID:   flowSensor,
				MetricType: MetricFlow,
				Value:      round2(55 + math.Sin(hf/4)*15 + g.rng.Float64()*5),
				Unit:       FlowUnit,
				RecordedAt: ts,
			},
			Metric{
				ID:         projectID*1000 + h*2 + 1,
				ProjectID:  projectID,
				SensorID:   pressSensor,
				MetricType: MetricPressure,
				Value:      round2(3.5 + math.Sin(hf/6)*0.8 + g.rng.Float64()*0.3),
				Unit:       PressureUnit,
				RecordedAt: ts,
			},
		)
	}
	return metrics
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
