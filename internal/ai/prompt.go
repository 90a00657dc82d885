package ai

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	analysisSystemPrompt  = "Expert Operations Planner. Produce strict JSON. Focus on accuracy and data-driven insights."
	synthesisSystemPrompt = "Operational Analyst synthesizing capacity trends across multiple weeks."
)

func analysisUserPrompt(content string) string {
	var b strings.Builder
	b.WriteString("You are a stateless Enterprise Operational Intelligence Analyst.\n\n")
	b.WriteString("TASK: Analyze ONLY the provided IT workflow data.\n")
	b.WriteString("1. Extract core execution metrics (SLA, Volume, Resolution Velocity).\n")
	b.WriteString("2. Segment performance by Morning (08-12), Afternoon (12-16), Evening (16-20) shifts.\n")
	b.WriteString("3. Infer a realistic baseline from the variance in the provided data for benchmarking.\n\n")
	b.WriteString("STRICT DATA: ")
	b.WriteString(content)
	return b.String()
}

// SynthesisContext condenses each period to its breach rate and monthly loss.
func SynthesisContext(periods []Period) string {
	parts := make([]string, 0, len(periods))
	for _, p := range periods {
		parts = append(parts, fmt.Sprintf("PERIOD: %s\nSLA Breach: %s%%\nLoss: $%s",
			p.DatasetID,
			formatNumber(p.Result.SummaryMetrics.SLABreachRatePercent),
			formatNumber(p.Result.FinancialImpact.EstimatedMonthlyLoss),
		))
	}
	return strings.Join(parts, "\n\n")
}

func synthesisUserPrompt(periods []Period) string {
	return "Perform Global Operational Synthesis across multiple analyzed periods.\n" + SynthesisContext(periods)
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
