package views

import (
	"context"
	"fmt"
	"time"

	"github.com/wellirecord/connect/internal/dispatch"
	"github.com/wellirecord/connect/models"
	"github.com/wellirecord/connect/repositories"
)

const (
	highLatencyThresholdMs = 150
	healthyScore           = 90
	goodHealthScore        = 95
	failedSyncWindow       = time.Hour
)

// Tone grades a displayed value
type Tone string

const (
	ToneGood     Tone = "good"
	ToneWarning  Tone = "warning"
	ToneCritical Tone = "critical"
)

// Severity grades a system card
type Severity string

const (
	SeverityOK       Severity = "ok"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// OperationalMetrics are the headline numbers of the operations center
type OperationalMetrics struct {
	AttentionNeeded int `json:"attention_needed"`
	HighLatency     int `json:"high_latency"`
	FailedSyncs     int `json:"failed_syncs"`
	HealthyNodes    int `json:"healthy_nodes"`
	TotalNodes      int `json:"total_nodes"`
}

// MetricCard is one headline tile
type MetricCard struct {
	Label   string `json:"label"`
	Value   string `json:"value"`
	Status  Tone   `json:"status"`
	Subtext string `json:"subtext"`
}

// SystemCard summarizes one node on the dashboard
type SystemCard struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Type         models.NodeType   `json:"type"`
	Status       models.NodeStatus `json:"status"`
	Region       string            `json:"region"`
	LatencyMs    int               `json:"latency_ms"`
	HealthScore  int               `json:"health_score"`
	HealthTone   Tone              `json:"health_tone"`
	Severity     Severity          `json:"severity"`
	LastSync     time.Time         `json:"last_sync"`
	ErrorMessage string            `json:"error_message,omitempty"`
}

// DashboardModel is the content of the dashboard view
type DashboardModel struct {
	Language       models.Language       `json:"language"`
	Metrics        OperationalMetrics    `json:"metrics"`
	Cards          []MetricCard          `json:"cards"`
	Systems        []SystemCard          `json:"systems"`
	RecentActivity []*models.ActivityLog `json:"recent_activity"`
}

// ComputeOperationalMetrics derives the headline numbers. Only
// data_transfer errors at or after since count as failed syncs.
func ComputeOperationalMetrics(systems []*models.SystemNode, activities []*models.ActivityLog, since time.Time) OperationalMetrics {
	m := OperationalMetrics{TotalNodes: len(systems)}

	for _, sys := range systems {
		if sys.IsDown() {
			m.AttentionNeeded++
		}
		if sys.Status == models.NodeStatusConnected && sys.LatencyMs > highLatencyThresholdMs {
			m.HighLatency++
		}
		if sys.HealthScore >= healthyScore {
			m.HealthyNodes++
		}
	}

	for _, a := range activities {
		if a.Type == models.ActivityDataTransfer && a.Status == models.ActivityError && !a.Timestamp.Before(since) {
			m.FailedSyncs++
		}
	}

	return m
}

// CardSeverity grades a node for its dashboard card
func CardSeverity(n *models.SystemNode) Severity {
	switch {
	case n.IsDown():
		return SeverityCritical
	case n.Status == models.NodeStatusSyncing:
		return SeverityWarning
	case n.Status == models.NodeStatusConnected && n.HealthScore < goodHealthScore:
		return SeverityWarning
	default:
		return SeverityOK
	}
}

// HealthTone grades a health score
func HealthTone(score int) Tone {
	switch {
	case score >= goodHealthScore:
		return ToneGood
	case score >= healthyScore:
		return ToneWarning
	default:
		return ToneCritical
	}
}

func metricCards(m OperationalMetrics) []MetricCard {
	toneIf := func(n int, bad Tone) Tone {
		if n > 0 {
			return bad
		}
		return ToneGood
	}

	return []MetricCard{
		{
			Label:   "Systems Needing Attention",
			Value:   fmt.Sprint(m.AttentionNeeded),
			Status:  toneIf(m.AttentionNeeded, ToneCritical),
			Subtext: "Error or Offline State",
		},
		{
			Label:   "High Latency Connections",
			Value:   fmt.Sprint(m.HighLatency),
			Status:  toneIf(m.HighLatency, ToneWarning),
			Subtext: fmt.Sprintf("> %dms Response Time", highLatencyThresholdMs),
		},
		{
			Label:   "Failed Syncs (1h)",
			Value:   fmt.Sprint(m.FailedSyncs),
			Status:  toneIf(m.FailedSyncs, ToneWarning),
			Subtext: "Retrying automatically...",
		},
		{
			Label:   "Healthy Nodes",
			Value:   fmt.Sprintf("%d/%d", m.HealthyNodes, m.TotalNodes),
			Status:  ToneGood,
			Subtext: "Operating Normally",
		},
	}
}

// Dashboard renders the operations center
func (s *Set) Dashboard(ctx context.Context, rc dispatch.RenderContext) (*dispatch.Output, error) {
	systems, err := s.repos.Systems.List(ctx, repositories.SystemFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to list systems: %w", err)
	}

	since := s.now().Add(-failedSyncWindow)
	failures, err := s.repos.Activities.List(ctx, repositories.ActivityFilter{
		Type:   models.ActivityDataTransfer,
		Status: models.ActivityError,
		Since:  since,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list sync failures: %w", err)
	}

	recent, err := s.repos.Activities.List(ctx, repositories.ActivityFilter{Limit: s.feedLimit})
	if err != nil {
		return nil, fmt.Errorf("failed to list activity: %w", err)
	}

	metrics := ComputeOperationalMetrics(systems, failures, since)

	cards := make([]SystemCard, 0, len(systems))
	for _, sys := range systems {
		cards = append(cards, SystemCard{
			ID:           sys.ID,
			Name:         sys.Name,
			Type:         sys.Type,
			Status:       sys.Status,
			Region:       sys.Region,
			LatencyMs:    sys.LatencyMs,
			HealthScore:  sys.HealthScore,
			HealthTone:   HealthTone(sys.HealthScore),
			Severity:     CardSeverity(sys),
			LastSync:     sys.LastSync,
			ErrorMessage: sys.ErrorMessage,
		})
	}

	lang := rc.Language
	if lang == "" {
		lang = s.defaultLanguage
	}

	return output(models.ViewDashboard, "System Operations Center", &DashboardModel{
		Language:       lang,
		Metrics:        metrics,
		Cards:          metricCards(metrics),
		Systems:        cards,
		RecentActivity: recent,
	}), nil
}
