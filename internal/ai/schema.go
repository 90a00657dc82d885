package ai

import (
	"sort"

	"github.com/sashabaranov/go-openai/jsonschema"
)

// object builds a strict object definition where every property is required.
func object(props map[string]jsonschema.Definition) jsonschema.Definition {
	required := make([]string, 0, len(props))
	for k := range props {
		required = append(required, k)
	}
	sort.Strings(required)
	return jsonschema.Definition{
		Type:                 jsonschema.Object,
		Properties:           props,
		Required:             required,
		AdditionalProperties: false,
	}
}

func arrayOf(item jsonschema.Definition) jsonschema.Definition {
	return jsonschema.Definition{Type: jsonschema.Array, Items: &item}
}

func str(desc string) jsonschema.Definition {
	return jsonschema.Definition{Type: jsonschema.String, Description: desc}
}

func num(desc string) jsonschema.Definition {
	return jsonschema.Definition{Type: jsonschema.Number, Description: desc}
}

func boolean() jsonschema.Definition {
	return jsonschema.Definition{Type: jsonschema.Boolean}
}

var AnalysisSchema = object(map[string]jsonschema.Definition{
	"executive_summary": str("Executive summary focusing on capacity bottlenecks and staffing risks."),
	"shift_analysis": arrayOf(object(map[string]jsonschema.Definition{
		"shift_name":              str(""),
		"ticket_volume":           num(""),
		"breach_rate_percent":     num(""),
		"avg_handling_time_hours": num(""),
		"stress_score":            num("Capacity strain from 0 to 10."),
	})),
	"staffing_recommendations": arrayOf(object(map[string]jsonschema.Definition{
		"shift_name":               str(""),
		"current_estimated_agents": num(""),
		"recommended_agents":       num(""),
		"gap":                      num(""),
		"justification":            str(""),
	})),
	"staffing_roi": object(map[string]jsonschema.Definition{
		"estimated_delay_reduction_percent": num(""),
		"sla_adherence_improvement_percent": num(""),
		"monthly_revenue_leakage_savings":   num(""),
		"total_optimized_value":             num(""),
	}),
	"financial_impact": object(map[string]jsonschema.Definition{
		"estimated_monthly_loss":         num(""),
		"revenue_leakage_analysis":       str(""),
		"management_invisibility_reason": str(""),
		"business_risk_assessment":       str(""),
	}),
	"bottlenecks": arrayOf(str("")),
	"summary_metrics": object(map[string]jsonschema.Definition{
		"avg_resolution_time_hours": num(""),
		"sla_breach_rate_percent":   num(""),
		"total_tickets_analyzed":    num(""),
		"peak_volume_hour":          str(""),
	}),
	"historical_comparison": object(map[string]jsonschema.Definition{
		"period_label":                   str(""),
		"resolution_time_change_percent": num(""),
		"breach_rate_change_percent":     num(""),
		"loss_change_percent":            num(""),
		"is_improvement": object(map[string]jsonschema.Definition{
			"resolution_time": boolean(),
			"breach_rate":     boolean(),
			"loss":            boolean(),
		}),
	}),
	"baseline_metrics": object(map[string]jsonschema.Definition{
		"avg_resolution_time_hours": num(""),
		"sla_breach_rate_percent":   num(""),
		"estimated_monthly_loss":    num(""),
		"total_tickets_analyzed":    num(""),
	}),
	"capacity_utilization_distribution": arrayOf(object(map[string]jsonschema.Definition{
		"name":  str(""),
		"value": num(""),
	})),
	"loss_trend": arrayOf(object(map[string]jsonschema.Definition{
		"date":          str(""),
		"loss_value":    num(""),
		"ticket_volume": num(""),
	})),
	"recommended_actions": arrayOf(object(map[string]jsonschema.Definition{
		"insight":         str(""),
		"action":          str(""),
		"expected_impact": str(""),
	})),
	"temporal_heatmap": arrayOf(object(map[string]jsonschema.Definition{
		"day":        str("Mon..Sun"),
		"time_block": str("One of 00-04, 04-08, 08-12, 12-16, 16-20, 20-24."),
		"intensity":  num("Load intensity from 0 to 10."),
	})),
})

var outcomeSchema = object(map[string]jsonschema.Definition{
	"area":        str(""),
	"outcome":     str(""),
	"cause":       str(""),
	"implication": str(""),
})

var SynthesisSchema = object(map[string]jsonschema.Definition{
	"management_insights": str(""),
	"wow_summary_table": arrayOf(object(map[string]jsonschema.Definition{
		"metric":            str(""),
		"current_state":     str(""),
		"previous_state":    str(""),
		"trend_description": str(""),
		"impact_level": {
			Type: jsonschema.String,
			Enum: []string{"High", "Medium", "Low"},
		},
	})),
	"positives": arrayOf(outcomeSchema),
	"negatives": arrayOf(outcomeSchema),
	"risk_signals": arrayOf(object(map[string]jsonschema.Definition{
		"signal":  str(""),
		"trigger": str(""),
		"action":  str(""),
	})),
	"structural_assessment": str(""),
})
