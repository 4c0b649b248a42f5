package codec

import (
	"fmt"
	"reflect"
	"sort"

	"fortio.org/safecast"
	pickle "github.com/kisielk/og-rek"

	"github.com/mesh-intelligence/pantry/pkg/types"
)

// Normalize maps a decoded object graph onto the closed Dataset variants:
//
//   - a non-empty list whose elements are all string-keyed maps becomes a
//     Table whose columns are the keys in first-seen order;
//   - a non-empty map whose values are all lists of one length becomes a
//     column-oriented Table;
//   - any other map becomes a Mapping, any other list a Sequence;
//   - everything else becomes a Scalar.
func Normalize(v any) (types.Dataset, error) {
	if d, ok := v.(types.Dataset); ok {
		return d, nil
	}

	v = NormalizeValue(v)

	if m, ok := v.(map[string]any); ok {
		return normalizeMap(m)
	}
	if items, ok := asList(v); ok {
		return normalizeList(items)
	}
	return types.NewScalar(v), nil
}

func normalizeList(items []any) (types.Dataset, error) {
	if len(items) == 0 {
		return types.NewSequence(nil), nil
	}

	records := make([]types.Record, 0, len(items))
	var columns []string
	seen := make(map[string]bool)
	for _, it := range items {
		m, ok := it.(map[string]any)
		if !ok {
			return types.NewSequence(items), nil
		}
		for _, k := range sortedKeys(m) {
			if !seen[k] {
				seen[k] = true
				columns = append(columns, k)
			}
		}
		records = append(records, types.Record(m))
	}
	return types.NewTable(columns, records)
}

func normalizeMap(m map[string]any) (types.Dataset, error) {
	keys := sortedKeys(m)
	if len(keys) == 0 {
		return types.NewMapping(nil, nil), nil
	}

	cols := make(map[string][]any, len(keys))
	n := -1
	for _, k := range keys {
		vals, ok := asList(m[k])
		if !ok || (n >= 0 && len(vals) != n) {
			return types.NewMapping(keys, m), nil
		}
		n = len(vals)
		cols[k] = vals
	}
	return types.NewTableFromColumns(keys, cols)
}

// NormalizeValue converts decoder-specific representations into the plain
// values the rest of pantry expects: string-keyed maps, []any lists, int64
// for integers that fit, nil for Python None. Typed slices other than
// []map[string]any are kept.
func NormalizeValue(v any) any {
	switch x := v.(type) {
	case nil, string, bool, float64, float32, int64, []byte:
		return x
	case pickle.None:
		return nil
	case pickle.Tuple:
		return NormalizeValue([]any(x))
	case int:
		return int64(x)
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case uint8:
		return int64(x)
	case uint16:
		return int64(x)
	case uint32:
		return int64(x)
	case uint:
		if n, err := safecast.Conv[int64](x); err == nil {
			return n
		}
		return x
	case uint64:
		if n, err := safecast.Conv[int64](x); err == nil {
			return n
		}
		return x
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = NormalizeValue(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = NormalizeValue(e)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[fmt.Sprint(k)] = NormalizeValue(e)
		}
		return out
	case []map[string]any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = NormalizeValue(e)
		}
		return out
	default:
		return v
	}
}

// asList reports whether v is a list and returns its elements. Typed
// slices such as []string or []float32 qualify; []byte and strings do not.
func asList(v any) ([]any, bool) {
	if items, ok := v.([]any); ok {
		return items, true
	}
	if _, ok := v.([]byte); ok {
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return nil, false
	}
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = NormalizeValue(rv.Index(i).Interface())
	}
	return out, true
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Plain converts a Dataset back into plain Go values: a Table becomes a
// list of records, a Mapping a map, a Sequence a list, a Scalar its value.
func Plain(d types.Dataset) any {
	switch x := d.(type) {
	case *types.Table:
		rows := x.Rows()
		out := make([]any, len(rows))
		for i, r := range rows {
			out[i] = map[string]any(r)
		}
		return out
	case *types.Mapping:
		out := make(map[string]any, x.Len())
		for _, k := range x.Keys() {
			out[k], _ = x.Get(k)
		}
		return out
	case *types.Sequence:
		return x.Items()
	case *types.Scalar:
		return x.Value()
	default:
		return nil
	}
}
