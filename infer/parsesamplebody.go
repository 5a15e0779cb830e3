package infer

import (
	"github.com/siegeai/shapecast/shape"
	"github.com/valyala/fastjson"
)

func ParseSampleBodyBytes(b []byte) (*shape.Node, error) {
	return NewAnalyzer().ParseSampleBodyBytes(b)
}

func ParseSampleBodyFastJson(v *fastjson.Value) *shape.Node {
	return NewAnalyzer().ParseSampleBodyFastJson(v)
}

func (a *Analyzer) ParseSampleBodyBytes(b []byte) (*shape.Node, error) {
	v, err := fastjson.ParseBytes(b)
	if err != nil {
		return nil, err
	}
	return a.ParseSampleBodyFastJson(v), nil
}

func (a *Analyzer) ParseSampleBodyFastJson(v *fastjson.Value) *shape.Node {
	if v == nil {
		return a.analyze(goValue{v: Undefined})
	}
	return a.analyze(fastValue{v: v})
}

type fastValue struct {
	v *fastjson.Value
}

func (f fastValue) kind() valueKind {
	switch f.v.Type() {
	case fastjson.TypeNull:
		return valueNull
	case fastjson.TypeObject:
		return valueObject
	case fastjson.TypeArray:
		return valueArray
	case fastjson.TypeString:
		return valueString
	case fastjson.TypeNumber:
		return valueNumber
	case fastjson.TypeTrue, fastjson.TypeFalse:
		return valueBool
	}
	return valueUnknown
}

func (f fastValue) number() (float64, bool) {
	n, err := f.v.Float64()
	if err != nil {
		return 0, false
	}
	return n, integral(n)
}

func (f fastValue) literal() string {
	switch f.v.Type() {
	case fastjson.TypeString:
		return quoteExample(string(f.v.GetStringBytes()))
	case fastjson.TypeNumber, fastjson.TypeTrue, fastjson.TypeFalse:
		return string(f.v.MarshalTo(nil))
	}
	return ""
}

func (f fastValue) len() int {
	return len(f.v.GetArray())
}

func (f fastValue) index(i int) sample {
	return fastValue{v: f.v.GetArray()[i]}
}

func (f fastValue) visit(fn func(key string, v sample)) {
	o, err := f.v.Object()
	if err != nil {
		return
	}
	// Visit walks keys in document order
	o.Visit(func(key []byte, v *fastjson.Value) {
		fn(string(key), fastValue{v: v})
	})
}
