package views

import (
	"context"
	"fmt"
	"sort"

	"github.com/wellirecord/connect/internal/dispatch"
	"github.com/wellirecord/connect/models"
	"github.com/wellirecord/connect/repositories"
)

// SystemsModel is the content of the systems view
type SystemsModel struct {
	Nodes    []*models.SystemNode      `json:"nodes"`
	ByStatus map[models.NodeStatus]int `json:"by_status"`
	ByType   map[models.NodeType]int   `json:"by_type"`
}

// Systems renders the connected systems registry
func (s *Set) Systems(ctx context.Context, _ dispatch.RenderContext) (*dispatch.Output, error) {
	nodes, err := s.repos.Systems.List(ctx, repositories.SystemFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to list systems: %w", err)
	}

	model := &SystemsModel{
		Nodes:    nodes,
		ByStatus: make(map[models.NodeStatus]int),
		ByType:   make(map[models.NodeType]int),
	}
	for _, n := range nodes {
		model.ByStatus[n.Status]++
		model.ByType[n.Type]++
	}

	return output(models.ViewSystems, "Connected Systems", model), nil
}

// TypeHealth is the average health of one node type
type TypeHealth struct {
	Type          models.NodeType `json:"type"`
	Nodes         int             `json:"nodes"`
	AverageHealth float64         `json:"average_health"`
}

// AnalyticsModel is the content of the analytics view
type AnalyticsModel struct {
	HealthByType     []TypeHealth                  `json:"health_by_type"`
	ActivityByStatus map[models.ActivityStatus]int `json:"activity_by_status"`
	ActivityByType   map[models.ActivityType]int   `json:"activity_by_type"`
}

// AverageHealthByType groups nodes by type, ordered by type name
func AverageHealthByType(nodes []*models.SystemNode) []TypeHealth {
	sums := make(map[models.NodeType]int)
	counts := make(map[models.NodeType]int)
	for _, n := range nodes {
		sums[n.Type] += n.HealthScore
		counts[n.Type]++
	}

	out := make([]TypeHealth, 0, len(counts))
	for t, c := range counts {
		out = append(out, TypeHealth{
			Type:          t,
			Nodes:         c,
			AverageHealth: float64(sums[t]) / float64(c),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out
}

// Analytics renders network-wide aggregates
func (s *Set) Analytics(ctx context.Context, _ dispatch.RenderContext) (*dispatch.Output, error) {
	nodes, err := s.repos.Systems.List(ctx, repositories.SystemFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to list systems: %w", err)
	}
	activities, err := s.repos.Activities.List(ctx, repositories.ActivityFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to list activity: %w", err)
	}

	model := &AnalyticsModel{
		HealthByType:     AverageHealthByType(nodes),
		ActivityByStatus: make(map[models.ActivityStatus]int),
		ActivityByType:   make(map[models.ActivityType]int),
	}
	for _, a := range activities {
		model.ActivityByStatus[a.Status]++
		model.ActivityByType[a.Type]++
	}

	return output(models.ViewAnalytics, "Network Analytics", model), nil
}

// Endpoint is an integration target as seen by developers
type Endpoint struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	IPAddress string            `json:"ip_address"`
	Version   string            `json:"version"`
	LatencyMs int               `json:"latency_ms"`
	Status    models.NodeStatus `json:"status"`
}

// DeveloperModel is the content of the developer view
type DeveloperModel struct {
	Endpoints      []Endpoint            `json:"endpoints"`
	SystemActivity []*models.ActivityLog `json:"system_activity"`
}

// Developer renders the integration console
func (s *Set) Developer(ctx context.Context, _ dispatch.RenderContext) (*dispatch.Output, error) {
	nodes, err := s.repos.Systems.List(ctx, repositories.SystemFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to list systems: %w", err)
	}
	activity, err := s.repos.Activities.List(ctx, repositories.ActivityFilter{
		Type:  models.ActivitySystem,
		Limit: s.feedLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list system activity: %w", err)
	}

	endpoints := make([]Endpoint, 0, len(nodes))
	for _, n := range nodes {
		endpoints = append(endpoints, Endpoint{
			ID:        n.ID,
			Name:      n.Name,
			IPAddress: n.IPAddress,
			Version:   n.Version,
			LatencyMs: n.LatencyMs,
			Status:    n.Status,
		})
	}

	return output(models.ViewDeveloper, "Developer Console", &DeveloperModel{
		Endpoints:      endpoints,
		SystemActivity: activity,
	}), nil
}

// SettingsModel is the content of the settings view
type SettingsModel struct {
	Languages       []models.Language `json:"languages"`
	DefaultLanguage models.Language   `json:"default_language"`
}

// Settings renders the supported languages
func (s *Set) Settings(context.Context, dispatch.RenderContext) (*dispatch.Output, error) {
	return output(models.ViewSettings, "Settings", &SettingsModel{
		Languages:       models.AllLanguages(),
		DefaultLanguage: s.defaultLanguage,
	}), nil
}
