package infer

import (
	"encoding/json"
	"math/big"
	"reflect"
	"sort"
	"strconv"
	"time"

	"github.com/siegeai/shapecast/shape"
	"github.com/valyala/fastjson"
)

type undefined struct{}

// Undefined stands for a value that is known to be missing, as opposed to null.
var Undefined any = undefined{}

// Member is one key of an Object.
type Member struct {
	Key   string
	Value any
}

// Object is an object whose key order is significant. Plain maps are analyzed with their
// keys sorted because Go maps carry no insertion order.
type Object []Member

func ParseSampleValue(v any) *shape.Node {
	return NewAnalyzer().ParseSampleValue(v)
}

func (a *Analyzer) ParseSampleValue(v any) *shape.Node {
	return a.analyze(wrap(v))
}

// wrap follows pointers down to the value they hold, except for the pointer types that are
// classified directly.
func wrap(v any) goValue {
	switch v.(type) {
	case *time.Time, *big.Int, *fastjson.Value:
		return goValue{v: v}
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return goValue{v: nil}
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return goValue{v: nil}
	}
	if rv.CanInterface() {
		return goValue{v: rv.Interface()}
	}
	return goValue{v: v}
}

type goValue struct {
	v any
}

func (g goValue) kind() valueKind {
	switch x := g.v.(type) {
	case nil:
		return valueNull
	case undefined:
		return valueUndefined
	case time.Time:
		return valueDate
	case *time.Time:
		if x == nil {
			return valueNull
		}
		return valueDate
	case big.Int:
		return valueBigInt
	case *big.Int:
		if x == nil {
			return valueNull
		}
		return valueBigInt
	case *fastjson.Value:
		if x == nil {
			return valueNull
		}
		return fastValue{v: x}.kind()
	case Object:
		return valueObject
	case string:
		return valueString
	case bool:
		return valueBool
	case json.Number:
		return valueNumber
	case []byte:
		return valueUnknown
	}

	rv := reflect.ValueOf(g.v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return valueNumber
	case reflect.String:
		return valueString
	case reflect.Bool:
		return valueBool
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return valueNull
		}
		return valueArray
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return valueUnknown
		}
		if rv.IsNil() {
			return valueNull
		}
		return valueObject
	}
	return valueUnknown
}

func (g goValue) number() (float64, bool) {
	if n, ok := g.v.(json.Number); ok {
		if _, err := n.Int64(); err == nil {
			return 0, true
		}
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return f, integral(f)
	}

	rv := reflect.ValueOf(g.v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		return f, integral(f)
	}
	return 0, false
}

func (g goValue) literal() string {
	switch x := g.v.(type) {
	case string:
		return quoteExample(x)
	case bool:
		return strconv.FormatBool(x)
	case json.Number:
		return x.String()
	case time.Time:
		return strconv.Quote(x.Format(time.RFC3339Nano))
	case *time.Time:
		return strconv.Quote(x.Format(time.RFC3339Nano))
	case *big.Int:
		return x.String() + "n"
	case big.Int:
		return x.String() + "n"
	case *fastjson.Value:
		return fastValue{v: x}.literal()
	}

	rv := reflect.ValueOf(g.v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10)
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'g', -1, 64)
	case reflect.String:
		return quoteExample(rv.String())
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool())
	}
	return ""
}

func (g goValue) len() int {
	if f, ok := g.v.(*fastjson.Value); ok {
		return fastValue{v: f}.len()
	}
	if xs, ok := g.v.([]any); ok {
		return len(xs)
	}
	return reflect.ValueOf(g.v).Len()
}

func (g goValue) index(i int) sample {
	if f, ok := g.v.(*fastjson.Value); ok {
		return fastValue{v: f}.index(i)
	}
	if xs, ok := g.v.([]any); ok {
		return wrap(xs[i])
	}
	return wrap(reflect.ValueOf(g.v).Index(i).Interface())
}

func (g goValue) visit(fn func(key string, v sample)) {
	switch x := g.v.(type) {
	case *fastjson.Value:
		fastValue{v: x}.visit(fn)
		return
	case Object:
		for _, m := range x {
			fn(m.Key, wrap(m.Value))
		}
		return
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fn(k, wrap(x[k]))
		}
		return
	}

	rv := reflect.ValueOf(g.v)
	if rv.Kind() != reflect.Map {
		return
	}
	keys := rv.MapKeys()
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	for _, k := range keys {
		fn(k.String(), wrap(rv.MapIndex(k).Interface()))
	}
}
