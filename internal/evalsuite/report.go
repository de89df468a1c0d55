package evalsuite

import "encoding/json"

// MultiReport is the full report JSON spec.md §4.8 describes:
// {ablation_name: {avg_scores, grouped_avg?, group_counts?}}, covering
// every ablation an experiment run produced.
type MultiReport map[string]Report

// Marshal renders r as indented JSON.
func (r MultiReport) Marshal() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}
