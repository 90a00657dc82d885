package ai

import (
	"context"
	"fmt"
	"math"

	"github.com/opsintel/backend/internal/models"
	"github.com/opsintel/backend/internal/utils"
)

// MockAnalyzer derives a stable, schema-valid result from a hash of the input.
// It is used when no AI credential is configured.
type MockAnalyzer struct {
	ModelVersion string
}

var (
	mockDays   = []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}
	mockBlocks = []string{"00-04", "04-08", "08-12", "12-16", "16-20", "20-24"}
	mockShifts = []string{"Morning", "Afternoon", "Evening"}
	mockPeaks  = []string{"09:00", "10:00", "14:00", "16:00"}
)

func (m MockAnalyzer) Analyze(ctx context.Context, content string) (models.AnalysisResult, error) {
	if content == "" {
		return models.AnalysisResult{}, ErrEmptyContent
	}
	if err := ctx.Err(); err != nil {
		return models.AnalysisResult{}, err
	}
	h := utils.Fingerprint(content)

	breach := float64(10 + h%40)
	resolution := float64(4+h%20) + 0.5
	loss := float64(5000 + (h/7)%45000)
	tickets := float64(20 + (h/11)%480)

	res := models.AnalysisResult{
		ExecutiveSummary: fmt.Sprintf("Mock analysis (%s): %.0f%% of tickets breach SLA; approval queues dominate idle time.", m.version(), breach),
		Bottlenecks:      []string{"Security review queue", "Manager approval latency"},
		StaffingROI: models.StaffingROI{
			EstimatedDelayReductionPercent: float64(10 + h%25),
			SLAAdherenceImprovementPercent: float64(5 + h%20),
			MonthlyRevenueLeakageSavings:   math.Round(loss * 0.4),
			TotalOptimizedValue:            math.Round(loss * 0.55),
		},
		FinancialImpact: models.FinancialImpact{
			EstimatedMonthlyLoss:         loss,
			RevenueLeakageAnalysis:       "Delayed access provisioning blocks billable work.",
			ManagementInvisibilityReason: "Idle time between workflow steps is not reported.",
			BusinessRiskAssessment:       "Sustained breaches erode customer trust.",
		},
		SummaryMetrics: models.SummaryMetrics{
			AvgResolutionTimeHours: resolution,
			SLABreachRatePercent:   breach,
			TotalTicketsAnalyzed:   tickets,
			PeakVolumeHour:         mockPeaks[int(h/13)%len(mockPeaks)],
		},
		HistoricalComparison: models.HistoricalComparison{
			PeriodLabel:                 "vs. inferred baseline",
			ResolutionTimeChangePercent: float64(int(h%21) - 10),
			BreachRateChangePercent:     float64(int((h/3)%21) - 10),
			LossChangePercent:           float64(int((h/5)%21) - 10),
		},
		BaselineMetrics: models.BaselineMetrics{
			AvgResolutionTimeHours: resolution + 1,
			SLABreachRatePercent:   math.Max(breach-5, 0),
			EstimatedMonthlyLoss:   math.Round(loss * 0.9),
			TotalTicketsAnalyzed:   tickets,
		},
		CapacityUtilizationDistribution: []models.ChartDataPoint{
			{Name: "Active handling", Value: 55},
			{Name: "Waiting on approval", Value: 30},
			{Name: "Idle", Value: 15},
		},
		RecommendedActions: []models.RecommendedAction{{
			Insight:        "Approvals stall overnight.",
			Action:         "Add an on-call approver for the evening shift.",
			ExpectedImpact: "Fewer breaches on access requests.",
		}},
	}
	cmp := res.HistoricalComparison
	res.HistoricalComparison.IsImprovement = models.ImprovementFlags{
		ResolutionTime: cmp.ResolutionTimeChangePercent < 0,
		BreachRate:     cmp.BreachRateChangePercent < 0,
		Loss:           cmp.LossChangePercent < 0,
	}

	for i, name := range mockShifts {
		s := uint64(i + 1)
		current := float64(2 + (h/s)%5)
		recommended := current + float64((h/(s*3))%3)
		res.ShiftAnalysis = append(res.ShiftAnalysis, models.ShiftPerformance{
			ShiftName:            name,
			TicketVolume:         math.Round(tickets / 3),
			BreachRatePercent:    math.Min(breach+float64(i*5), 100),
			AvgHandlingTimeHours: resolution / float64(i+1),
			StressScore:          float64((h / s) % 11),
		})
		res.StaffingRecommendations = append(res.StaffingRecommendations, models.StaffingRecommendation{
			ShiftName:              name,
			CurrentEstimatedAgents: current,
			RecommendedAgents:      recommended,
			Gap:                    recommended - current,
			Justification:          "Queue depth at shift start exceeds handling capacity.",
		})
	}
	for i := 0; i < 4; i++ {
		res.LossTrend = append(res.LossTrend, models.TrendDataPoint{
			Date:         fmt.Sprintf("Week %d", i+1),
			LossValue:    math.Round(loss * (0.8 + 0.05*float64(i))),
			TicketVolume: math.Round(tickets / 4),
		})
	}
	for d, day := range mockDays {
		for b, block := range mockBlocks {
			res.TemporalHeatmap = append(res.TemporalHeatmap, models.HeatmapDataPoint{
				Day:       day,
				TimeBlock: block,
				Intensity: float64((h >> uint((d*6+b)%48)) % 11),
			})
		}
	}
	return res, nil
}

func (m MockAnalyzer) Synthesize(ctx context.Context, periods []Period) (models.GlobalSynthesisResult, error) {
	if len(periods) < 2 {
		return models.GlobalSynthesisResult{}, ErrTooFewPeriods
	}
	if err := ctx.Err(); err != nil {
		return models.GlobalSynthesisResult{}, err
	}
	first := periods[0].Result
	last := periods[len(periods)-1].Result

	impact := "Low"
	delta := math.Abs(first.SummaryMetrics.SLABreachRatePercent - last.SummaryMetrics.SLABreachRatePercent)
	switch {
	case delta >= 10:
		impact = "High"
	case delta >= 5:
		impact = "Medium"
	}

	return models.GlobalSynthesisResult{
		ManagementInsights: fmt.Sprintf("Mock synthesis across %d periods (%s).", len(periods), m.version()),
		WoWSummaryTable: []models.WoWSummaryRow{{
			Metric:           "SLA Breach Rate",
			PreviousState:    formatNumber(last.SummaryMetrics.SLABreachRatePercent) + "%",
			CurrentState:     formatNumber(first.SummaryMetrics.SLABreachRatePercent) + "%",
			TrendDescription: "Breach rate shift between the latest and earliest period.",
			ImpactLevel:      impact,
		}},
		Positives:            []models.OutcomeNote{{Area: "Triage", Outcome: "Faster first response", Cause: "Stable L1 staffing", Implication: "Keep current rota"}},
		Negatives:            []models.OutcomeNote{{Area: "Approvals", Outcome: "Longer waits", Cause: "Single approver", Implication: "Breaches concentrate on access requests"}},
		RiskSignals:          []models.RiskSignal{{Signal: "Rising monthly loss", Trigger: "Loss above baseline two periods in a row", Action: "Review evening staffing"}},
		StructuralAssessment: "Capacity constraints are structural rather than seasonal.",
	}, nil
}

func (m MockAnalyzer) version() string {
	if m.ModelVersion == "" {
		return "mock-v1"
	}
	return m.ModelVersion
}
