package experiment

import "encoding/json"

// privateTraceKeys lists the handle-shaped keys spec.md §4.6 requires
// the serializer to strip before a trace hits disk: "_llm_client",
// "_db", "_tm_db" and "config". internal/translator's Trace never
// actually holds any of these — every round trace is a plain struct of
// strings/floats/bools — so this pass is a defensive no-op for traces
// produced by this codebase, kept because the contract is explicit and
// a future round trace type could add a handle field without anyone
// noticing until serialization broke in production.
var privateTraceKeys = map[string]bool{
	"_llm_client": true,
	"_db":         true,
	"_tm_db":      true,
	"config":      true,
}

// CleanTrace returns a JSON-serializable copy of trace with every
// private-handle key removed at any depth. It round-trips through JSON
// first so that round trace structs (R1Trace, R2Trace, ...) are walked
// as plain maps rather than left opaque to the key scan. Those structs
// are themselves plain value types with no pointers or interfaces, so
// they cannot form a reference cycle; CleanTrace therefore does not
// track object identity the way a cycle-breaking pass over a
// dynamically typed trace would need to.
func CleanTrace(trace map[string]any) map[string]any {
	generic, err := roundTripJSON(trace)
	if err != nil {
		generic = trace
	}
	return cleanValue(generic).(map[string]any)
}

func roundTripJSON(trace map[string]any) (map[string]any, error) {
	data, err := json.Marshal(trace)
	if err != nil {
		return nil, err
	}
	var generic map[string]any
	if err := json.Unmarshal(data, &generic); err != nil {
		return nil, err
	}
	return generic, nil
}

func cleanValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, child := range val {
			if privateTraceKeys[k] {
				continue
			}
			out[k] = cleanValue(child)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, child := range val {
			out[i] = cleanValue(child)
		}
		return out
	default:
		return val
	}
}

// MarshalCleanTrace applies CleanTrace and serializes the result,
// the final step of the trace-cleaning contract before a result
// record is written to disk.
func MarshalCleanTrace(trace map[string]any) ([]byte, error) {
	return json.Marshal(CleanTrace(trace))
}
