package service

import (
	"strconv"
	"strings"

	"github.com/opsintel/backend/internal/models"
)

var (
	HeatmapDays   = []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}
	HeatmapBlocks = []string{"00-04", "04-08", "08-12", "12-16", "16-20", "20-24"}
)

// breachAlertPercent marks the SLA card as critical above this rate.
const breachAlertPercent = 15

type KPI struct {
	Key           string   `json:"key"`
	Label         string   `json:"label"`
	Value         float64  `json:"value"`
	Baseline      float64  `json:"baseline"`
	Unit          string   `json:"unit"`
	ChangePercent *float64 `json:"change_percent,omitempty"`
	Improvement   *bool    `json:"is_improvement,omitempty"`
	Alert         bool     `json:"alert"`
}

type BenchmarkRow struct {
	Metric   string  `json:"metric"`
	Current  float64 `json:"current"`
	Baseline float64 `json:"baseline"`
	Change   float64 `json:"change"`
}

type HeatCell struct {
	Intensity float64 `json:"intensity"`
	Level     string  `json:"level"`
}

type Heatmap struct {
	Days   []string     `json:"days"`
	Blocks []string     `json:"blocks"`
	Cells  [][]HeatCell `json:"cells"`
}

type StaffingRow struct {
	models.StaffingRecommendation
	GapLabel string `json:"gap_label"`
}

type Staffing struct {
	Rows             []StaffingRow `json:"rows"`
	TotalCurrent     float64       `json:"total_current"`
	TotalRecommended float64       `json:"total_recommended"`
	TotalGap         float64       `json:"total_gap"`
}

// Dashboard is the render-ready projection of one analysis result.
type Dashboard struct {
	DatasetID          string                     `json:"dataset_id"`
	ExecutiveSummary   string                     `json:"executive_summary"`
	PeriodLabel        string                     `json:"period_label"`
	KPIs               []KPI                      `json:"kpis"`
	Benchmarks         []BenchmarkRow             `json:"benchmarks"`
	Heatmap            Heatmap                    `json:"heatmap"`
	Staffing           Staffing                   `json:"staffing"`
	Shifts             []models.ShiftPerformance  `json:"shifts"`
	ROI                models.StaffingROI         `json:"staffing_roi"`
	Financial          models.FinancialImpact     `json:"financial_impact"`
	Bottlenecks        []string                   `json:"bottlenecks"`
	Capacity           []models.ChartDataPoint    `json:"capacity_utilization_distribution"`
	LossTrend          []models.TrendDataPoint    `json:"loss_trend"`
	RecommendedActions []models.RecommendedAction `json:"recommended_actions"`
	Exports            []string                   `json:"exports"`
}

func BuildDashboard(datasetID string, res models.AnalysisResult) Dashboard {
	return Dashboard{
		DatasetID:          datasetID,
		ExecutiveSummary:   res.ExecutiveSummary,
		PeriodLabel:        res.HistoricalComparison.PeriodLabel,
		KPIs:               BuildKPIs(res),
		Benchmarks:         BenchmarkRows(res),
		Heatmap:            BuildHeatmap(res.TemporalHeatmap),
		Staffing:           BuildStaffing(res.StaffingRecommendations),
		Shifts:             res.ShiftAnalysis,
		ROI:                res.StaffingROI,
		Financial:          res.FinancialImpact,
		Bottlenecks:        res.Bottlenecks,
		Capacity:           res.CapacityUtilizationDistribution,
		LossTrend:          res.LossTrend,
		RecommendedActions: res.RecommendedActions,
		Exports:            ExportTables(),
	}
}

func BuildKPIs(res models.AnalysisResult) []KPI {
	cmp := res.HistoricalComparison
	base := res.BaselineMetrics
	sum := res.SummaryMetrics

	return []KPI{
		{
			Key:           "sla_breach_rate",
			Label:         "SLA Breach Rate",
			Value:         sum.SLABreachRatePercent,
			Baseline:      base.SLABreachRatePercent,
			Unit:          "%",
			ChangePercent: ptr(cmp.BreachRateChangePercent),
			Improvement:   ptr(cmp.IsImprovement.BreachRate),
			Alert:         sum.SLABreachRatePercent > breachAlertPercent,
		},
		{
			Key:           "monthly_loss",
			Label:         "Est. Monthly Loss",
			Value:         res.FinancialImpact.EstimatedMonthlyLoss,
			Baseline:      base.EstimatedMonthlyLoss,
			Unit:          "USD",
			ChangePercent: ptr(cmp.LossChangePercent),
			Improvement:   ptr(cmp.IsImprovement.Loss),
		},
		{
			Key:           "avg_resolution",
			Label:         "Avg. Resolution",
			Value:         sum.AvgResolutionTimeHours,
			Baseline:      base.AvgResolutionTimeHours,
			Unit:          "h",
			ChangePercent: ptr(cmp.ResolutionTimeChangePercent),
			Improvement:   ptr(cmp.IsImprovement.ResolutionTime),
		},
		{
			Key:      "workflow_load",
			Label:    "Workflow Load",
			Value:    sum.TotalTicketsAnalyzed,
			Baseline: base.TotalTicketsAnalyzed,
			Unit:     "tickets",
		},
	}
}

func BenchmarkRows(res models.AnalysisResult) []BenchmarkRow {
	cmp := res.HistoricalComparison
	base := res.BaselineMetrics
	return []BenchmarkRow{
		{Metric: "SLA Breach Rate", Current: res.SummaryMetrics.SLABreachRatePercent, Baseline: base.SLABreachRatePercent, Change: cmp.BreachRateChangePercent},
		{Metric: "Resolution velocity", Current: res.SummaryMetrics.AvgResolutionTimeHours, Baseline: base.AvgResolutionTimeHours, Change: cmp.ResolutionTimeChangePercent},
		{Metric: "Monthly Loss", Current: res.FinancialImpact.EstimatedMonthlyLoss, Baseline: base.EstimatedMonthlyLoss, Change: cmp.LossChangePercent},
	}
}

// BuildHeatmap lays points onto the fixed day by block grid. Days match on
// their first three letters, case-insensitively; the first matching point
// wins and cells without a point are 0.
func BuildHeatmap(points []models.HeatmapDataPoint) Heatmap {
	grid := Heatmap{Days: HeatmapDays, Blocks: HeatmapBlocks}
	grid.Cells = make([][]HeatCell, len(HeatmapDays))
	for d, day := range HeatmapDays {
		row := make([]HeatCell, len(HeatmapBlocks))
		for b, block := range HeatmapBlocks {
			v := heatValue(points, day, block)
			row[b] = HeatCell{Intensity: v, Level: HeatLevel(v)}
		}
		grid.Cells[d] = row
	}
	return grid
}

func heatValue(points []models.HeatmapDataPoint, day, block string) float64 {
	want := dayKey(day)
	for _, p := range points {
		if dayKey(p.Day) == want && p.TimeBlock == block {
			return p.Intensity
		}
	}
	return 0
}

func dayKey(day string) string {
	d := strings.ToLower(strings.TrimSpace(day))
	if len(d) > 3 {
		d = d[:3]
	}
	return d
}

func HeatLevel(intensity float64) string {
	switch {
	case intensity == 0:
		return "none"
	case intensity < 3:
		return "low"
	case intensity < 6:
		return "moderate"
	case intensity < 8:
		return "high"
	default:
		return "severe"
	}
}

func BuildStaffing(recs []models.StaffingRecommendation) Staffing {
	out := Staffing{Rows: make([]StaffingRow, 0, len(recs))}
	for _, r := range recs {
		out.Rows = append(out.Rows, StaffingRow{StaffingRecommendation: r, GapLabel: GapLabel(r.Gap)})
		out.TotalCurrent += r.CurrentEstimatedAgents
		out.TotalRecommended += r.RecommendedAgents
		out.TotalGap += r.Gap
	}
	return out
}

// GapLabel reads a staffing gap as "+N Need", "N Excess" or "Aligned".
func GapLabel(gap float64) string {
	switch {
	case gap > 0:
		return "+" + formatFloat(gap) + " Need"
	case gap < 0:
		return formatFloat(-gap) + " Excess"
	default:
		return "Aligned"
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func ptr[T any](v T) *T {
	return &v
}
