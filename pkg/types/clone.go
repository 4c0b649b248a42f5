package types

import (
	"maps"
	"reflect"
	"slices"
)

// cloneValue returns a deep copy of v's lists and maps so a caller holding
// the copy cannot reach a dataset's stored values. Scalars are returned as
// is.
func cloneValue(v any) any {
	switch x := v.(type) {
	case nil, string, bool, int64, float64:
		return x
	case []any:
		if x == nil {
			return x
		}
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = cloneValue(e)
		}
		return out
	case map[string]any:
		if x == nil {
			return x
		}
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = cloneValue(e)
		}
		return out
	case Record:
		return x.clone()
	case []byte:
		return slices.Clone(x)
	case []string:
		return slices.Clone(x)
	}
	return cloneReflect(reflect.ValueOf(v)).Interface()
}

// cloneReflect copies slices and maps of any other element type.
func cloneReflect(rv reflect.Value) reflect.Value {
	switch rv.Kind() {
	case reflect.Slice:
		if rv.IsNil() {
			return rv
		}
		out := reflect.MakeSlice(rv.Type(), rv.Len(), rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out.Index(i).Set(cloneElem(rv.Index(i)))
		}
		return out
	case reflect.Map:
		if rv.IsNil() {
			return rv
		}
		out := reflect.MakeMapWithSize(rv.Type(), rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out.SetMapIndex(iter.Key(), cloneElem(iter.Value()))
		}
		return out
	default:
		return rv
	}
}

func cloneElem(rv reflect.Value) reflect.Value {
	if rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return rv
		}
		c := reflect.ValueOf(cloneValue(rv.Interface()))
		out := reflect.New(rv.Type()).Elem()
		out.Set(c)
		return out
	}
	return cloneReflect(rv)
}

func (r Record) clone() Record {
	if r == nil {
		return nil
	}
	out := maps.Clone(r)
	for k, v := range out {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneItems(items []any) []any {
	if items == nil {
		return nil
	}
	out := make([]any, len(items))
	for i, e := range items {
		out[i] = cloneValue(e)
	}
	return out
}
