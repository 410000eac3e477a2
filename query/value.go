package query

import (
	"encoding/json"
	"reflect"
	"strings"
)

// kind orders values of different JSON types when sorting:
// null < number < string < bool < sequence < document.
type kind int

const (
	kindNull kind = iota
	kindNumber
	kindString
	kindBool
	kindArray
	kindObject
	kindOther
)

func kindOf(v any) kind {
	if v == nil {
		return kindNull
	}
	switch v.(type) {
	case string:
		return kindString
	case bool:
		return kindBool
	case map[string]any:
		return kindObject
	case []any:
		return kindArray
	case []byte:
		return kindOther
	}
	if _, ok := toFloat(v); ok {
		return kindNumber
	}
	switch reflect.TypeOf(v).Kind() {
	case reflect.Slice, reflect.Array:
		return kindArray
	case reflect.Map:
		return kindObject
	}
	return kindOther
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// toSlice returns the elements of a sequence value. Typed slices such as
// []string are accepted as well as []any.
func toSlice(v any) ([]any, bool) {
	if v == nil {
		return nil, false
	}
	if s, ok := v.([]any); ok {
		return s, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	if _, ok := v.([]byte); ok {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// equal reports deep, type-aware equality. Numbers of any Go numeric type
// compare by value; sequences compare element-wise; documents key-wise.
func equal(a, b any) bool {
	ka, kb := kindOf(a), kindOf(b)
	if ka != kb {
		return false
	}
	switch ka {
	case kindNull:
		return true
	case kindNumber:
		fa, _ := toFloat(a)
		fb, _ := toFloat(b)
		return fa == fb
	case kindString, kindBool:
		return a == b
	case kindArray:
		sa, _ := toSlice(a)
		sb, _ := toSlice(b)
		if len(sa) != len(sb) {
			return false
		}
		for i := range sa {
			if !equal(sa[i], sb[i]) {
				return false
			}
		}
		return true
	case kindObject:
		ma, okA := a.(map[string]any)
		mb, okB := b.(map[string]any)
		if !okA || !okB {
			return reflect.DeepEqual(a, b)
		}
		if len(ma) != len(mb) {
			return false
		}
		for k, va := range ma {
			vb, ok := mb[k]
			if !ok || !equal(va, vb) {
				return false
			}
		}
		return true
	}
	return reflect.DeepEqual(a, b)
}

// compareOrdered compares two values for the range operators. ok is false
// when the pair is not comparable (anything other than number/number or
// string/string).
func compareOrdered(a, b any) (c int, ok bool) {
	if fa, okA := toFloat(a); okA {
		fb, okB := toFloat(b)
		if !okB {
			return 0, false
		}
		return compareFloats(fa, fb), true
	}
	sa, okA := a.(string)
	sb, okB := b.(string)
	if okA && okB {
		return strings.Compare(sa, sb), true
	}
	return 0, false
}

// compareValues is a total order over present values used for sorting.
func compareValues(a, b any) int {
	ka, kb := kindOf(a), kindOf(b)
	if ka != kb {
		if ka < kb {
			return -1
		}
		return 1
	}
	switch ka {
	case kindNumber:
		fa, _ := toFloat(a)
		fb, _ := toFloat(b)
		return compareFloats(fa, fb)
	case kindString:
		return strings.Compare(a.(string), b.(string))
	case kindBool:
		ba, bb := a.(bool), b.(bool)
		switch {
		case ba == bb:
			return 0
		case !ba:
			return -1
		default:
			return 1
		}
	case kindArray:
		sa, _ := toSlice(a)
		sb, _ := toSlice(b)
		for i := 0; i < len(sa) && i < len(sb); i++ {
			if c := compareValues(sa[i], sb[i]); c != 0 {
				return c
			}
		}
		return compareInts(len(sa), len(sb))
	}
	// documents and null compare equal; the stable sort keeps their order
	return 0
}

func compareFloats(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareInts(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// IsScalar reports whether v is a string, number or bool.
func IsScalar(v any) bool {
	switch kindOf(v) {
	case kindString, kindNumber, kindBool:
		return true
	}
	return false
}
