// Package fixtures provides the dashboard's domain records from a pluggable
// Source. The mock service answers from a Source; so does the development backend.
package fixtures

import (
	"context"
	"time"
)

// Source is the read side of the dashboard data.
type Source interface {
	ListProjects(ctx context.Context) ([]Project, error)
	GetProject(ctx context.Context, id int) (Project, error)
	ListAlerts(ctx context.Context) ([]Alert, error)
	KPISnapshot(ctx context.Context) (KPIs, error)
	RegionSummary(ctx context.Context) ([]RegionSummary, error)
	MetricsFor(ctx context.Context, projectID int) ([]Metric, error)
}

type Project struct {
	ID                      int       `json:"id" yaml:"id"`
	Name                    string    `json:"name" yaml:"name"`
	ProjectCode             string    `json:"project_code" yaml:"project_code"`
	ProjectType             string    `json:"project_type" yaml:"project_type"`
	Status                  string    `json:"status" yaml:"status"`
	Region                  string    `json:"region" yaml:"region"`
	District                string    `json:"district,omitempty" yaml:"district"`
	Latitude                *float64  `json:"latitude,omitempty" yaml:"latitude"`
	Longitude               *float64  `json:"longitude,omitempty" yaml:"longitude"`
	DesignCapacityM3PerDay  float64   `json:"design_capacity_m3_per_day" yaml:"design_capacity_m3_per_day"`
	CurrentCapacityM3PerDay float64   `json:"current_capacity_m3_per_day" yaml:"current_capacity_m3_per_day"`
	PopulationServed        int       `json:"population_served" yaml:"population_served"`
	ConnectionCount         int       `json:"connection_count" yaml:"connection_count"`
	CreatedAt               time.Time `json:"created_at" yaml:"created_at"`
}

// HasLocation reports whether the project can be placed on the map.
func (p Project) HasLocation() bool {
	return p.Latitude != nil && p.Longitude != nil
}

type Alert struct {
	ID             int       `json:"id" yaml:"id"`
	ProjectID      int       `json:"project_id" yaml:"project_id"`
	Title          string    `json:"title" yaml:"title"`
	Message        string    `json:"message" yaml:"message"`
	Severity       string    `json:"severity" yaml:"severity"`
	Status         string    `json:"status" yaml:"status"`
	AlertType      string    `json:"alert_type" yaml:"alert_type"`
	MetricType     string    `json:"metric_type" yaml:"metric_type"`
	MetricValue    float64   `json:"metric_value" yaml:"metric_value"`
	ThresholdValue float64   `json:"threshold_value" yaml:"threshold_value"`
	CreatedAt      time.Time `json:"created_at" yaml:"created_at"`
}

type KPIs struct {
	TotalProjects             int     `json:"total_projects" yaml:"total_projects"`
	OperationalProjects       int     `json:"operational_projects" yaml:"operational_projects"`
	TotalPopulationServed     int     `json:"total_population_served" yaml:"total_population_served"`
	TotalConnections          int     `json:"total_connections" yaml:"total_connections"`
	AvgFlowRateLS             float64 `json:"avg_flow_rate_ls" yaml:"avg_flow_rate_ls"`
	AvgPressureBar            float64 `json:"avg_pressure_bar" yaml:"avg_pressure_bar"`
	ActiveAlerts              int     `json:"active_alerts" yaml:"active_alerts"`
	NRWPercentage             float64 `json:"nrw_percentage" yaml:"nrw_percentage"`
	WaterQualityCompliancePct float64 `json:"water_quality_compliance_pct" yaml:"water_quality_compliance_pct"`
}

type RegionSummary struct {
	Region           string `json:"region" yaml:"region"`
	ProjectCount     int    `json:"project_count" yaml:"project_count"`
	PopulationServed int    `json:"population_served" yaml:"population_served"`
}

// MetricType is the closed set of synthetic series.
type MetricType string

const (
	MetricFlow     MetricType = "flow"
	MetricPressure MetricType = "pressure"
)

type Metric struct {
	ID         int        `json:"id"`
	ProjectID  int        `json:"project_id"`
	SensorID   string     `json:"sensor_id"`
	MetricType MetricType `json:"metric_type"`
	Value      float64    `json:"value"`
	Unit       string     `json:"unit"`
	IsAnomaly  bool       `json:"is_anomaly"`
	RecordedAt time.Time  `json:"recorded_at"`
}
