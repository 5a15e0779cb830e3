package infer

import (
	"math"
	"strconv"

	"github.com/siegeai/shapecast/merge"
	"github.com/siegeai/shapecast/shape"
)

// DefaultSampleCap is the most array elements analyzed per array.
const DefaultSampleCap = 50

const maxExampleRunes = 32

// valueKind is the closed set every input value is classified into before analysis.
type valueKind int

const (
	valueUnknown valueKind = iota
	valueNull
	valueUndefined
	valueDate
	valueArray
	valueObject
	valueString
	valueNumber
	valueBool
	valueBigInt
)

// sample is a classified input value. Both fastjson trees and plain Go values are walked
// through it so the analysis below exists once.
type sample interface {
	kind() valueKind
	// number is only called for valueNumber.
	number() (f float64, integral bool)
	// literal is the example text for scalars, "" when there is none worth keeping.
	literal() string
	len() int
	index(i int) sample
	visit(fn func(key string, v sample))
}

type Analyzer struct {
	sampleCap int
	visited   int
}

type Option func(*Analyzer)

func WithSampleCap(n int) Option {
	return func(a *Analyzer) {
		if n > 0 {
			a.sampleCap = n
		}
	}
}

func NewAnalyzer(opts ...Option) *Analyzer {
	a := &Analyzer{sampleCap: DefaultSampleCap}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Visited is the number of values structurally analyzed so far.
func (a *Analyzer) Visited() int {
	return a.visited
}

func (a *Analyzer) analyze(v sample) *shape.Node {
	a.visited += 1

	switch v.kind() {
	case valueNull:
		return shape.New(shape.KindNull)
	case valueUndefined:
		return shape.New(shape.KindUndefined)
	case valueDate:
		return &shape.Node{Types: []shape.Kind{shape.KindDate}, Date: true, Example: literal(v)}
	case valueArray:
		return a.analyzeArray(v)
	case valueObject:
		return a.analyzeObject(v)
	case valueString:
		return &shape.Node{Types: []shape.Kind{shape.KindString}, Example: literal(v)}
	case valueNumber:
		if _, integral := v.number(); integral {
			return &shape.Node{Types: []shape.Kind{shape.KindInteger}, Example: literal(v)}
		}
		return &shape.Node{Types: []shape.Kind{shape.KindNumber}, Example: literal(v)}
	case valueBool:
		return &shape.Node{Types: []shape.Kind{shape.KindBoolean}, Example: literal(v)}
	case valueBigInt:
		return &shape.Node{Types: []shape.Kind{shape.KindBigInt}, Example: literal(v)}
	case valueUnknown:
		return shape.New(shape.KindUnknown)
	}
	return shape.New(shape.KindUnknown)
}

func (a *Analyzer) analyzeArray(v sample) *shape.Node {
	n := v.len()
	if n == 0 {
		return &shape.Node{Types: []shape.Kind{shape.KindArray}, EmptyArray: true}
	}

	step := max(1, n/a.sampleCap)
	items := make([]*shape.Node, 0, min(n, a.sampleCap))
	for i := 0; i < n && len(items) < a.sampleCap; i += step {
		items = append(items, a.analyze(v.index(i)))
	}

	res := &shape.Node{Types: []shape.Kind{shape.KindArray}, Items: merge.Nodes(items...)}
	if n > a.sampleCap {
		res.Example = &shape.Example{Len: n}
	}
	return res
}

func (a *Analyzer) analyzeObject(v sample) *shape.Node {
	fields := make([]shape.Field, 0)
	seen := make(map[string]int)
	v.visit(func(key string, child sample) {
		f := shape.Field{
			Key:      key,
			Node:     a.analyze(child),
			Required: present(child),
		}
		// a repeated key keeps its first position and its last value
		if i, ok := seen[key]; ok {
			fields[i] = f
			return
		}
		seen[key] = len(fields)
		fields = append(fields, f)
	})
	return &shape.Node{Types: []shape.Kind{shape.KindObject}, Fields: fields}
}

// present reports whether a property value counts towards the required set.
func present(v sample) bool {
	switch v.kind() {
	case valueNull, valueUndefined:
		return false
	case valueArray:
		return v.len() > 0
	}
	return true
}

func literal(v sample) *shape.Example {
	s := v.literal()
	if s == "" {
		return nil
	}
	return &shape.Example{Literal: s}
}

func integral(f float64) bool {
	return !math.IsInf(f, 0) && !math.IsNaN(f) && math.Trunc(f) == f
}

func quoteExample(s string) string {
	rs := []rune(s)
	if len(rs) > maxExampleRunes {
		s = string(rs[:maxExampleRunes]) + "..."
	}
	return strconv.Quote(s)
}
