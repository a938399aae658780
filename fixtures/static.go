package fixtures

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"slices"
	"time"

	apperrors "github.com/jrsteele09/water-dashboard/internal/errors"
	"gopkg.in/yaml.v3"
)

//go:embed data/fixtures.yaml
var builtin []byte

// Option configures a Static source.
type Option func(*options)

type options struct {
	seed      int64
	seeded    bool
	now       func() time.Time
	generator *MetricGenerator
}

// WithSeed fixes the metric noise so runs are reproducible.
func WithSeed(seed int64) Option {
	return func(o *options) {
		o.seed = seed
		o.seeded = true
	}
}

// WithClock sets the clock used for alert ages and metric timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithGenerator replaces the metric generator. WithSeed is ignored when set.
func WithGenerator(g *MetricGenerator) Option {
	return func(o *options) {
		o.generator = g
	}
}

// document is the on-disk fixture layout.
type document struct {
	Projects []Project       `yaml:"projects"`
	Alerts   []alertDoc      `yaml:"alerts"`
	KPIs     KPIs            `yaml:"kpis"`
	Regions  []RegionSummary `yaml:"regions"`
}

// alertDoc lets a fixture give an alert an age instead of a fixed timestamp.
type alertDoc struct {
	Alert    `yaml:",inline"`
	HoursAgo *float64 `yaml:"hours_ago"`
}

// Static is an in-memory Source. Records are read-only after construction.
type Static struct {
	projects []Project
	alerts   []alertDoc
	kpis     KPIs
	regions  []RegionSummary
	now      func() time.Time
	metrics  *MetricGenerator
}

var _ Source = (*Static)(nil)

// NewStatic returns the built-in fixture set.
func NewStatic(opts ...Option) *Static {
	s, err := Parse(builtin, opts...)
	if err != nil {
		panic(fmt.Sprintf("fixtures: built-in data: %v", err))
	}
	return s
}

// LoadYAML reads a fixture file laid out like the built-in set.
func LoadYAML(path string, opts ...Option) (*Static, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading fixtures: %w", err)
	}
	s, err := Parse(data, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Parse builds a Static source from YAML fixture data.
func Parse(data []byte, opts ...Option) (*Static, error) {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if o.generator == nil {
		if !o.seeded {
			o.seed = time.Now().UnixNano()
		}
		o.generator = NewMetricGenerator(o.seed, o.now)
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding fixtures: %w", err)
	}
	seen := make(map[int]bool, len(doc.Projects))
	for _, p := range doc.Projects {
		if seen[p.ID] {
			return nil, fmt.Errorf("duplicate project id %d", p.ID)
		}
		seen[p.ID] = true
	}

	return &Static{
		projects: doc.Projects,
		alerts:   doc.Alerts,
		kpis:     doc.KPIs,
		regions:  doc.Regions,
		now:      o.now,
		metrics:  o.generator,
	}, nil
}

func (s *Static) ListProjects(ctx context.Context) ([]Project, error) {
	return slices.Clone(s.projects), nil
}

func (s *Static) GetProject(ctx context.Context, id int) (Project, error) {
	for _, p := range s.projects {
		if p.ID == id {
			return p, nil
		}
	}
	return Project{}, apperrors.Wrapf(apperrors.ErrNotFound, "project %d", id)
}

// ListAlerts resolves relative alert ages against the source clock on every call.
func (s *Static) ListAlerts(ctx context.Context) ([]Alert, error) {
	now := s.now().UTC().Truncate(time.Second)
	alerts := make([]Alert, 0, len(s.alerts))
	for _, a := range s.alerts {
		alert := a.Alert
		if a.HoursAgo != nil {
			alert.CreatedAt = now.Add(-time.Duration(*a.HoursAgo * float64(time.Hour)))
		}
		alerts = append(alerts, alert)
	}
	return alerts, nil
}

func (s *Static) KPISnapshot(ctx context.Context) (KPIs, error) {
	return s.kpis, nil
}

func (s *Static) RegionSummary(ctx context.Context) ([]RegionSummary, error) {
	return slices.Clone(s.regions), nil
}

// MetricsFor generates a fresh series for any project id, known or not.
func (s *Static) MetricsFor(ctx context.Context, projectID int) ([]Metric, error) {
	return s.metrics.Generate(projectID), nil
}
