package store

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"time"

	"github.com/samber/lo"

	"socialite/internal/core"
)

// ApplyOps applies a compound op list to a normalized field map and
// returns the resulting map. The input is not mutated, so a failed op
// list leaves the caller's document untouched.
func ApplyOps(fields map[string]any, ops []core.Op, now time.Time) (map[string]any, error) {
	out := cloneFields(fields)

	for _, op := range ops {
		switch op.Kind {
		case core.OpSetAdd:
			value, err := NormalizeValue(op.Value, now)
			if err != nil {
				return nil, err
			}
			set := asSlice(out[op.Field])
			if !containsValue(set, value) {
				set = append(set, value)
			}
			out[op.Field] = set

		case core.OpSetRemove:
			value, err := NormalizeValue(op.Value, now)
			if err != nil {
				return nil, err
			}
			out[op.Field] = lo.Reject(asSlice(out[op.Field]), func(item any, _ int) bool {
				return reflect.DeepEqual(item, value)
			})

		case core.OpIncrement:
			out[op.Field] = asFloat(out[op.Field]) + op.Delta

		case core.OpAppend:
			value, err := NormalizeValue(op.Value, now)
			if err != nil {
				return nil, err
			}
			out[op.Field] = append(asSlice(out[op.Field]), value)

		default:
			return nil, fmt.Errorf("%w: unknown op kind %q", core.ErrStore, op.Kind)
		}
	}

	return out, nil
}

// SortDocuments orders docs by a field in place, using the normalized
// value ordering (strings lexicographic, numbers numeric).
func SortDocuments(docs []core.Document, field string, descending bool) {
	sort.SliceStable(docs, func(i, j int) bool {
		c := CompareValues(docs[i].Fields[field], docs[j].Fields[field])
		if descending {
			return c > 0
		}
		return c < 0
	})
}

// CompareValues compares two normalized field values.
func CompareValues(a, b any) int {
	av, aok := a.(string)
	bv, bok := b.(string)
	if aok && bok {
		return strings.Compare(av, bv)
	}

	af, aok := a.(float64)
	bf, bok := b.(float64)
	if aok && bok {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	}

	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func cloneFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(value any) any {
	switch v := value.(type) {
	case map[string]any:
		return cloneFields(v)
	case []any:
		return lo.Map(v, func(item any, _ int) any {
			return cloneValue(item)
		})
	default:
		return value
	}
}

func asSlice(value any) []any {
	if s, ok := value.([]any); ok {
		return s
	}
	return nil
}

func asFloat(value any) float64 {
	if f, ok := value.(float64); ok {
		return f
	}
	return 0
}

func containsValue(set []any, value any) bool {
	return lo.ContainsBy(set, func(item any) bool {
		return reflect.DeepEqual(item, value)
	})
}
