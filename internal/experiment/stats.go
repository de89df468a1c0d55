package experiment

import (
	"github.com/samber/lo"

	"github.com/legalmt/hct/internal/translator"
)

// AblationStats is the aggregate summary spec.md §4.6 computes per
// ablation: sample counts, how often each round actually changed the
// text flowing through it, how often gating skipped a round, and the
// average of every legacy local metric across successful samples.
type AblationStats struct {
	TotalSamples      int                `json:"total_samples"`
	SuccessfulSamples int                `json:"successful_samples"`
	ModificationRates map[string]float64 `json:"modification_rates"`
	GatingRates       map[string]float64 `json:"gating_rates"`
	AverageMetrics    map[string]float64 `json:"average_metrics"`
}

// ComputeStats reduces one ablation's sample results to an
// AblationStats. Modification and gating rates are computed only over
// hierarchical samples that recorded the relevant round's trace entry;
// a baseline-only run (no r1/r2/r3 entries) yields zero rates rather
// than division by zero.
func ComputeStats(results []SampleResult) AblationStats {
	stats := AblationStats{
		TotalSamples:      len(results),
		ModificationRates: map[string]float64{},
		GatingRates:       map[string]float64{},
		AverageMetrics:    map[string]float64{},
	}

	var (
		r1ToR2Changed, r1ToR2Total int
		r2ToR3Changed, r2ToR3Total int
		r1ToR3Changed, r1ToR3Total int
		r2Gated, r2Total           int
		r3Gated, r3Total           int
		metricSums                 = map[string]float64{}
		metricCounts               = map[string]int{}
	)

	for _, sample := range results {
		if sample.Success {
			stats.SuccessfulSamples++
			for name, value := range sample.Metrics {
				metricSums[name] += value
				metricCounts[name]++
			}
		}

		r1, hasR1 := r1TraceOf(sample.Trace)
		r2, hasR2 := r2TraceOf(sample.Trace)
		r3, hasR3 := r3TraceOf(sample.Trace)

		if hasR1 && hasR2 {
			r1ToR2Total++
			if r1.Output != r2.Output {
				r1ToR2Changed++
			}
			r2Total++
			if r2.Gated {
				r2Gated++
			}
		}
		if hasR2 && hasR3 {
			r2ToR3Total++
			if r2.Output != r3.Output {
				r2ToR3Changed++
			}
			r3Total++
			if r3.Gated {
				r3Gated++
			}
		}
		if hasR1 && hasR3 {
			r1ToR3Total++
			if r1.Output != r3.Output {
				r1ToR3Changed++
			}
		}
	}

	stats.ModificationRates["r1_to_r2"] = rate(r1ToR2Changed, r1ToR2Total)
	stats.ModificationRates["r2_to_r3"] = rate(r2ToR3Changed, r2ToR3Total)
	stats.ModificationRates["r1_to_r3"] = rate(r1ToR3Changed, r1ToR3Total)
	stats.GatingRates["r2"] = rate(r2Gated, r2Total)
	stats.GatingRates["r3"] = rate(r3Gated, r3Total)

	stats.AverageMetrics = lo.MapValues(metricSums, func(sum float64, name string) float64 {
		return sum / float64(metricCounts[name])
	})

	return stats
}

func rate(numerator, denominator int) float64 {
	if denominator == 0 {
		return 0
	}
	return float64(numerator) / float64(denominator)
}

func r1TraceOf(trace map[string]any) (translator.R1Trace, bool) {
	if trace == nil {
		return translator.R1Trace{}, false
	}
	v, ok := trace["r1"].(translator.R1Trace)
	return v, ok
}

func r2TraceOf(trace map[string]any) (translator.R2Trace, bool) {
	if trace == nil {
		return translator.R2Trace{}, false
	}
	v, ok := trace["r2"].(translator.R2Trace)
	return v, ok
}

func r3TraceOf(trace map[string]any) (translator.R3Trace, bool) {
	if trace == nil {
		return translator.R3Trace{}, false
	}
	v, ok := trace["r3"].(translator.R3Trace)
	return v, ok
}
