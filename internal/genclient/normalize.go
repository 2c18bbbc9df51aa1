package genclient

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Text-bearing keys providers are known to use, in lookup order.
var textKeys = []string{"text", "content", "output_text", "message", "value"}

// Normalize flattens a heterogeneous provider payload into a single string.
// Payloads may arrive as strings, numbers, nested sequences, mappings with a
// conventional text-bearing key, or structs exposing a Text/Content field.
// A visited set keyed by object identity bounds recursion on self-referential
// structures. Unrecognized values fall back to their string representation.
func Normalize(raw any) string {
	var b strings.Builder
	flatten(reflect.ValueOf(raw), &b, make(map[uintptr]struct{}))
	return b.String()
}

func flatten(v reflect.Value, b *strings.Builder, visited map[uintptr]struct{}) {
	if !v.IsValid() {
		return
	}

	switch v.Kind() {
	case reflect.Interface, reflect.Pointer:
		if v.IsNil() {
			return
		}
		if v.Kind() == reflect.Pointer {
			if !enter(v.Pointer(), visited) {
				return
			}
		}
		flatten(v.Elem(), b, visited)

	case reflect.String:
		b.WriteString(v.String())

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		b.WriteString(strconv.FormatInt(v.Int(), 10))

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		b.WriteString(strconv.FormatUint(v.Uint(), 10))

	case reflect.Float32, reflect.Float64:
		b.WriteString(strconv.FormatFloat(v.Float(), 'g', -1, 64))

	case reflect.Bool:
		b.WriteString(strconv.FormatBool(v.Bool()))

	case reflect.Slice:
		if v.IsNil() || !enter(v.Pointer(), visited) {
			return
		}
		for i := 0; i < v.Len(); i++ {
			flatten(v.Index(i), b, visited)
		}

	case reflect.Array:
		for i := 0; i < v.Len(); i++ {
			flatten(v.Index(i), b, visited)
		}

	case reflect.Map:
		if v.IsNil() || v.Type().Key().Kind() != reflect.String {
			return
		}
		if !enter(v.Pointer(), visited) {
			return
		}
		for _, key := range textKeys {
			mv := v.MapIndex(reflect.ValueOf(key))
			if mv.IsValid() {
				flatten(mv, b, visited)
				return
			}
		}

	case reflect.Struct:
		for _, name := range []string{"Text", "Content"} {
			f := v.FieldByName(name)
			if f.IsValid() && f.CanInterface() {
				flatten(f, b, visited)
				return
			}
		}
		fmt.Fprintf(b, "%v", v.Interface())

	default:
		if v.CanInterface() {
			fmt.Fprintf(b, "%v", v.Interface())
		}
	}
}

func enter(ptr uintptr, visited map[uintptr]struct{}) bool {
	if _, seen := visited[ptr]; seen {
		return false
	}
	visited[ptr] = struct{}{}
	return true
}
