package experiment

import "github.com/legalmt/hct/internal/translator"

// DeriveLayerResults projects two pseudo-ablations — "terminology" and
// "terminology_syntax" — out of a completed "full" ablation run, per
// spec.md §4.6: rather than re-running the pipeline, each pseudo
// ablation substitutes trace.r1.output / trace.r2.output as its
// prediction, sharing the full run's sample ids and carrying no trace
// of its own (the projection didn't run a translation, so it has
// nothing new to record). full must have been run with its trace
// populated or the projection yields an empty prediction (reported as
// a failed sample) for every entry.
func DeriveLayerResults(full []SampleResult) (terminology, terminologySyntax []SampleResult) {
	terminology = make([]SampleResult, len(full))
	terminologySyntax = make([]SampleResult, len(full))

	for i, sample := range full {
		terminology[i] = derivedResult(sample, traceRoundOutput(sample.Trace, "r1"))
		terminologySyntax[i] = derivedResult(sample, traceRoundOutput(sample.Trace, "r2"))
	}
	return terminology, terminologySyntax
}

func derivedResult(source SampleResult, prediction string) SampleResult {
	result := SampleResult{
		SampleID:   source.SampleID,
		Source:     source.Source,
		Target:     source.Target,
		Prediction: prediction,
		Metadata:   source.Metadata,
	}
	if prediction == "" {
		result.Success = false
		result.Error = "Empty translation result"
		result.Prediction = source.Source
		return result
	}
	result.Success = source.Success
	return result
}

func traceRoundOutput(trace map[string]any, round string) string {
	if trace == nil {
		return ""
	}
	entry, ok := trace[round]
	if !ok {
		return ""
	}
	switch v := entry.(type) {
	case translator.R1Trace:
		return v.Output
	case translator.R2Trace:
		return v.Output
	case translator.R3Trace:
		return v.Output
	case translator.BaselineTrace:
		return v.Output
	default:
		return ""
	}
}
