package output

import (
	"encoding/json"
	"fmt"

	"github.com/itchyny/gojq"
)

// Filter runs a jq expression over data and returns every result.
func Filter(expr string, data any) ([]any, error) {
	query, err := gojq.Parse(expr)
	if err != nil {
		return nil, ErrUsageHint(fmt.Sprintf("Invalid jq expression: %v", err), "See https://jqlang.org/manual/")
	}
	code, err := gojq.Compile(query)
	if err != nil {
		return nil, ErrUsage(fmt.Sprintf("Invalid jq expression: %v", err))
	}

	var results []any
	iter := code.Run(toGeneric(data))
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if err, ok := v.(error); ok {
			if haltErr, ok := err.(*gojq.HaltError); ok && haltErr.Value() == nil {
				break
			}
			return nil, fmt.Errorf("jq: %w", err)
		}
		results = append(results, v)
	}
	return results, nil
}

func (w *Writer) writeFiltered(data any) error {
	results, err := Filter(w.opts.JQ, data)
	if err != nil {
		return err
	}
	for _, r := range results {
		if s, ok := r.(string); ok {
			fmt.Fprintln(w.opts.Writer, s)
			continue
		}
		b, err := json.Marshal(r)
		if err != nil {
			return err
		}
		fmt.Fprintln(w.opts.Writer, string(b))
	}
	return nil
}
