package models

import (
	"encoding/json"
	"time"
)

type Status string

const (
	StatusIdle      Status = "IDLE"
	StatusAnalyzing Status = "ANALYZING"
	StatusCompleted Status = "COMPLETED"
	StatusError     Status = "ERROR"
)

// SyncState is pending until the first analysis, synced after it and empty
// once the slot has been reset.
type SyncState string

const (
	SyncPending SyncState = "pending"
	SyncSynced  SyncState = "synced"
	SyncEmpty   SyncState = "empty"
)

// GlobalID is the pseudo-dataset used for cross-period synthesis.
const GlobalID = "global"

type Dataset struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Timestamp time.Time `json:"timestamp"`
	Status    SyncState `json:"status"`
}

type ShiftPerformance struct {
	ShiftName            string  `json:"shift_name" validate:"required"`
	TicketVolume         float64 `json:"ticket_volume" validate:"gte=0"`
	BreachRatePercent    float64 `json:"breach_rate_percent" validate:"gte=0,lte=100"`
	AvgHandlingTimeHours float64 `json:"avg_handling_time_hours" validate:"gte=0"`
	StressScore          float64 `json:"stress_score" validate:"gte=0,lte=10"`
}

type StaffingRecommendation struct {
	ShiftName              string  `json:"shift_name" validate:"required"`
	CurrentEstimatedAgents float64 `json:"current_estimated_agents" validate:"gte=0"`
	RecommendedAgents      float64 `json:"recommended_agents" validate:"gte=0"`
	Gap                    float64 `json:"gap"`
	Justification          string  `json:"justification" validate:"required"`
}

type StaffingROI struct {
	EstimatedDelayReductionPercent float64 `json:"estimated_delay_reduction_percent"`
	SLAAdherenceImprovementPercent float64 `json:"sla_adherence_improvement_percent"`
	MonthlyRevenueLeakageSavings   float64 `json:"monthly_revenue_leakage_savings"`
	TotalOptimizedValue            float64 `json:"total_optimized_value"`
}

type FinancialImpact struct {
	EstimatedMonthlyLoss         float64 `json:"estimated_monthly_loss" validate:"gte=0"`
	RevenueLeakageAnalysis       string  `json:"revenue_leakage_analysis" validate:"required"`
	ManagementInvisibilityReason string  `json:"management_invisibility_reason" validate:"required"`
	BusinessRiskAssessment       string  `json:"business_risk_assessment" validate:"required"`
}

type SummaryMetrics struct {
	AvgResolutionTimeHours float64 `json:"avg_resolution_time_hours" validate:"gte=0"`
	SLABreachRatePercent   float64 `json:"sla_breach_rate_percent" validate:"gte=0,lte=100"`
	TotalTicketsAnalyzed   float64 `json:"total_tickets_analyzed" validate:"gte=0"`
	PeakVolumeHour         string  `json:"peak_volume_hour" validate:"required"`
}

type ImprovementFlags struct {
	ResolutionTime bool `json:"resolution_time"`
	BreachRate     bool `json:"breach_rate"`
	Loss           bool `json:"loss"`
}

type HistoricalComparison struct {
	PeriodLabel                 string           `json:"period_label" validate:"required"`
	ResolutionTimeChangePercent float64          `json:"resolution_time_change_percent"`
	BreachRateChangePercent     float64          `json:"breach_rate_change_percent"`
	LossChangePercent           float64          `json:"loss_change_percent"`
	IsImprovement               ImprovementFlags `json:"is_improvement"`
}

type BaselineMetrics struct {
	AvgResolutionTimeHours float64 `json:"avg_resolution_time_hours" validate:"gte=0"`
	SLABreachRatePercent   float64 `json:"sla_breach_rate_percent" validate:"gte=0,lte=100"`
	EstimatedMonthlyLoss   float64 `json:"estimated_monthly_loss" validate:"gte=0"`
	TotalTicketsAnalyzed   float64 `json:"total_tickets_analyzed" validate:"gte=0"`
}

type ChartDataPoint struct {
	Name  string  `json:"name" validate:"required"`
	Value float64 `json:"value"`
	Color string  `json:"color,omitempty"`
}

type TrendDataPoint struct {
	Date         string  `json:"date" validate:"required"`
	LossValue    float64 `json:"loss_value"`
	TicketVolume float64 `json:"ticket_volume" validate:"gte=0"`
}

type RecommendedAction struct {
	Insight        string `json:"insight" validate:"required"`
	Action         string `json:"action" validate:"required"`
	ExpectedImpact string `json:"expected_impact" validate:"required"`
}

type HeatmapDataPoint struct {
	Day       string  `json:"day" validate:"required"`
	TimeBlock string  `json:"time_block" validate:"required"`
	Intensity float64 `json:"intensity" validate:"gte=0,lte=10"`
}

// AnalysisResult is produced once per successful analysis call and is never
// mutated afterwards; callers replace or drop it as a whole.
type AnalysisResult struct {
	ExecutiveSummary                string                   `json:"executive_summary" validate:"required"`
	ShiftAnalysis                   []ShiftPerformance       `json:"shift_analysis" validate:"required,dive"`
	StaffingRecommendations         []StaffingRecommendation `json:"staffing_recommendations" validate:"required,dive"`
	StaffingROI                     StaffingROI              `json:"staffing_roi"`
	FinancialImpact                 FinancialImpact          `json:"financial_impact"`
	Bottlenecks                     []string                 `json:"bottlenecks" validate:"required,dive,required"`
	SummaryMetrics                  SummaryMetrics           `json:"summary_metrics"`
	HistoricalComparison            HistoricalComparison     `json:"historical_comparison"`
	BaselineMetrics                 BaselineMetrics          `json:"baseline_metrics"`
	CapacityUtilizationDistribution []ChartDataPoint         `json:"capacity_utilization_distribution" validate:"required,dive"`
	LossTrend                       []TrendDataPoint         `json:"loss_trend" validate:"required,dive"`
	RecommendedActions              []RecommendedAction      `json:"recommended_actions" validate:"required,dive"`
	TemporalHeatmap                 []HeatmapDataPoint       `json:"temporal_heatmap" validate:"required,dive"`
}

type WoWSummaryRow struct {
	Metric           string `json:"metric" validate:"required"`
	PreviousState    string `json:"previous_state" validate:"required"`
	CurrentState     string `json:"current_state" validate:"required"`
	TrendDescription string `json:"trend_description" validate:"required"`
	ImpactLevel      string `json:"impact_level" validate:"oneof=High Medium Low"`
}

type OutcomeNote struct {
	Area        string `json:"area" validate:"required"`
	Outcome     string `json:"outcome"`
	Cause       string `json:"cause"`
	Implication string `json:"implication"`
}

type RiskSignal struct {
	Signal  string `json:"signal" validate:"required"`
	Trigger string `json:"trigger"`
	Action  string `json:"action"`
}

type GlobalSynthesisResult struct {
	ManagementInsights   string          `json:"management_insights" validate:"required"`
	WoWSummaryTable      []WoWSummaryRow `json:"wow_summary_table" validate:"required,dive"`
	Positives            []OutcomeNote   `json:"positives" validate:"required,dive"`
	Negatives            []OutcomeNote   `json:"negatives" validate:"required,dive"`
	RiskSignals          []RiskSignal    `json:"risk_signals" validate:"required,dive"`
	StructuralAssessment string          `json:"structural_assessment" validate:"required"`
}

type ArchivedAnalysis struct {
	ID         string          `json:"id"`
	DatasetID  string          `json:"dataset_id"`
	Kind       string          `json:"kind"`
	Result     json.RawMessage `json:"result"`
	ArchivedAt time.Time       `json:"archived_at"`
}
