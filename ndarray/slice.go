package ndarray

import "reflect"

// normalize converts a slice of a named element type to its underlying
// basic type, e.g. []MyInt to []int64 when MyInt is an int64.
func normalize[T Element](values []T) any {
	var v any = values
	if KindOf(v) != Invalid {
		return v
	}
	rv := reflect.ValueOf(values)
	var basic reflect.Type
	switch rv.Type().Elem().Kind() {
	case reflect.Int8:
		basic = reflect.TypeOf([]int8(nil))
	case reflect.Int16:
		basic = reflect.TypeOf([]int16(nil))
	case reflect.Int32:
		basic = reflect.TypeOf([]int32(nil))
	case reflect.Int64:
		basic = reflect.TypeOf([]int64(nil))
	case reflect.Uint8:
		basic = reflect.TypeOf([]uint8(nil))
	case reflect.Uint16:
		basic = reflect.TypeOf([]uint16(nil))
	case reflect.Uint32:
		basic = reflect.TypeOf([]uint32(nil))
	case reflect.Uint64:
		basic = reflect.TypeOf([]uint64(nil))
	case reflect.Float32:
		basic = reflect.TypeOf([]float32(nil))
	case reflect.Float64:
		basic = reflect.TypeOf([]float64(nil))
	case reflect.String:
		basic = reflect.TypeOf([]string(nil))
	}
	out := reflect.MakeSlice(basic, rv.Len(), rv.Len())
	elem := basic.Elem()
	for i := 0; i < rv.Len(); i++ {
		out.Index(i).Set(rv.Index(i).Convert(elem))
	}
	return out.Interface()
}

func sliceLen(v any) int {
	switch s := v.(type) {
	case []int8:
		return len(s)
	case []int16:
		return len(s)
	case []int32:
		return len(s)
	case []int64:
		return len(s)
	case []uint8:
		return len(s)
	case []uint16:
		return len(s)
	case []uint32:
		return len(s)
	case []uint64:
		return len(s)
	case []float32:
		return len(s)
	case []float64:
		return len(s)
	case []string:
		return len(s)
	}
	return 0
}

func copySlice(v any) any {
	switch s := v.(type) {
	case []int8:
		return append([]int8{}, s...)
	case []int16:
		return append([]int16{}, s...)
	case []int32:
		return append([]int32{}, s...)
	case []int64:
		return append([]int64{}, s...)
	case []uint8:
		return append([]uint8{}, s...)
	case []uint16:
		return append([]uint16{}, s...)
	case []uint32:
		return append([]uint32{}, s...)
	case []uint64:
		return append([]uint64{}, s...)
	case []float32:
		return append([]float32{}, s...)
	case []float64:
		return append([]float64{}, s...)
	case []string:
		return append([]string{}, s...)
	}
	return nil
}

func subslice(v any, lo, hi int) any {
	switch s := v.(type) {
	case []int8:
		return s[lo:hi]
	case []int16:
		return s[lo:hi]
	case []int32:
		return s[lo:hi]
	case []int64:
		return s[lo:hi]
	case []uint8:
		return s[lo:hi]
	case []uint16:
		return s[lo:hi]
	case []uint32:
		return s[lo:hi]
	case []uint64:
		return s[lo:hi]
	case []float32:
		return s[lo:hi]
	case []float64:
		return s[lo:hi]
	case []string:
		return s[lo:hi]
	}
	return nil
}

func element(v any, i int) any {
	switch s := v.(type) {
	case []int8:
		return s[i]
	case []int16:
		return s[i]
	case []int32:
		return s[i]
	case []int64:
		return s[i]
	case []uint8:
		return s[i]
	case []uint16:
		return s[i]
	case []uint32:
		return s[i]
	case []uint64:
		return s[i]
	case []float32:
		return s[i]
	case []float64:
		return s[i]
	case []string:
		return s[i]
	}
	return nil
}

// appendSlice appends src to dst; both hold the same element type.
func appendSlice(dst, src any) any {
	switch d := dst.(type) {
	case []int8:
		return append(d, src.([]int8)...)
	case []int16:
		return append(d, src.([]int16)...)
	case []int32:
		return append(d, src.([]int32)...)
	case []int64:
		return append(d, src.([]int64)...)
	case []uint8:
		return append(d, src.([]uint8)...)
	case []uint16:
		return append(d, src.([]uint16)...)
	case []uint32:
		return append(d, src.([]uint32)...)
	case []uint64:
		return append(d, src.([]uint64)...)
	case []float32:
		return append(d, src.([]float32)...)
	case []float64:
		return append(d, src.([]float64)...)
	case []string:
		return append(d, src.([]string)...)
	}
	return nil
}
