package infer

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/siegeai/shapecast/shape"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseObjectEmpty(t *testing.T) {
	s, err := ParseSampleBodyBytes([]byte("{}"))
	require.NoError(t, err)
	assert.Equal(t, []shape.Kind{shape.KindObject}, s.Types)
	assert.Empty(t, s.Fields)
}

func TestParseObjectOneFieldString(t *testing.T) {
	s, err := ParseSampleBodyBytes([]byte(`{"field": "string-val"}`))
	require.NoError(t, err)
	require.Len(t, s.Fields, 1)

	f := s.Fields[0]
	assert.Equal(t, "field", f.Key)
	assert.True(t, f.Required)
	assert.Equal(t, []shape.Kind{shape.KindString}, f.Node.Types)
	require.NotNil(t, f.Node.Example)
	assert.Equal(t, `"string-val"`, f.Node.Example.Literal)
}

func TestParseObjectOneFieldNumber(t *testing.T) {
	s, err := ParseSampleBodyBytes([]byte(`{"int": 1234, "float": 12.5, "whole": 3.0, "exp": 1e3}`))
	require.NoError(t, err)

	assert.Equal(t, []string{"int", "float", "whole", "exp"}, s.Keys())
	kinds := make([]shape.Kind, 0)
	for _, f := range s.Fields {
		kinds = append(kinds, f.Node.Types[0])
	}
	assert.Equal(t, []shape.Kind{shape.KindInteger, shape.KindNumber, shape.KindInteger, shape.KindInteger}, kinds)
}

func TestParseObjectOneFieldBool(t *testing.T) {
	s, err := ParseSampleBodyBytes([]byte(`{"field": true}`))
	require.NoError(t, err)
	require.Len(t, s.Fields, 1)
	assert.Equal(t, []shape.Kind{shape.KindBoolean}, s.Fields[0].Node.Types)
	assert.Equal(t, "true", s.Fields[0].Node.Example.Literal)
}

func TestParseObjectOneFieldNull(t *testing.T) {
	s, err := ParseSampleBodyBytes([]byte(`{"field": null}`))
	require.NoError(t, err)
	require.Len(t, s.Fields, 1)
	assert.Equal(t, []shape.Kind{shape.KindNull}, s.Fields[0].Node.Types)
	assert.False(t, s.Fields[0].Required)
}

func TestParseObjectEmptyArrayNotRequired(t *testing.T) {
	s, err := ParseSampleBodyBytes([]byte(`{"tags": [], "ids": [1]}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"ids"}, s.RequiredKeys())

	tags, ok := s.Field("tags")
	require.True(t, ok)
	assert.True(t, tags.Node.EmptyArray)
	assert.Nil(t, tags.Node.Items)
}

func TestParseObjectKeepsDocumentOrder(t *testing.T) {
	s, err := ParseSampleBodyBytes([]byte(`{"zeta": 1, "alpha": 2, "mid": 3}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, s.Keys())
}

func TestParseObjectDuplicateKeyKeepsLastValue(t *testing.T) {
	s, err := ParseSampleBodyBytes([]byte(`{"a": 1, "b": 2, "a": "x"}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, s.Keys())
	assert.Equal(t, []shape.Kind{shape.KindString}, s.Fields[0].Node.Types)
}

func TestParseObjectReservedLookingKeys(t *testing.T) {
	s, err := ParseSampleBodyBytes([]byte(`{"__type": "x", "__properties": {}}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"__type", "__properties"}, s.Keys())
}

func TestParseArrayEmpty(t *testing.T) {
	s, err := ParseSampleBodyBytes([]byte("[]"))
	require.NoError(t, err)
	assert.Equal(t, []shape.Kind{shape.KindArray}, s.Types)
	assert.True(t, s.EmptyArray)
	assert.Nil(t, s.Items)
}

func TestParseArrayCompositeHomogeneous(t *testing.T) {
	s, err := ParseSampleBodyBytes([]byte(`[{"x": 1}, {"y": 2}]`))
	require.NoError(t, err)
	require.NotNil(t, s.Items)
	assert.Equal(t, []string{"x", "y"}, s.Items.Keys())
	assert.Empty(t, s.Items.RequiredKeys())
}

func TestParseArrayCompositeHeterogeneous(t *testing.T) {
	s, err := ParseSampleBodyBytes([]byte(`[{"a": 123}, null]`))
	require.NoError(t, err)
	require.NotNil(t, s.Items)

	k, ok := s.Items.Nullable()
	require.True(t, ok)
	assert.Equal(t, shape.KindObject, k)
	assert.Equal(t, []string{"a"}, s.Items.RequiredKeys())
}

func TestParseArrayUnion(t *testing.T) {
	s, err := ParseSampleBodyBytes([]byte(`[1, "a", true]`))
	require.NoError(t, err)
	assert.Equal(t, []shape.Kind{shape.KindInteger, shape.KindString, shape.KindBoolean}, s.Items.Types)
}

func TestParseInvalid(t *testing.T) {
	_, err := ParseSampleBodyBytes([]byte(`{"a": `))
	assert.Error(t, err)
}

func TestSamplingBound(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("[")
	for i := 0; i < 10000; i++ {
		if i > 0 {
			sb.WriteString(",")
		}
		fmt.Fprintf(&sb, "%d", i)
	}
	sb.WriteString("]")

	a := NewAnalyzer()
	s, err := a.ParseSampleBodyBytes([]byte(sb.String()))
	require.NoError(t, err)

	// the array itself plus at most 50 elements
	assert.LessOrEqual(t, a.Visited(), 1+DefaultSampleCap)
	assert.Equal(t, []shape.Kind{shape.KindInteger}, s.Items.Types)
	require.NotNil(t, s.Example)
	assert.Equal(t, 10000, s.Example.Len)
}

func TestSamplingStride(t *testing.T) {
	// 100 elements, stride 2: only even indexes are sampled
	xs := make([]any, 100)
	for i := range xs {
		if i%2 == 0 {
			xs[i] = "even"
		} else {
			xs[i] = 1
		}
	}

	a := NewAnalyzer()
	s := a.ParseSampleValue(xs)
	assert.Equal(t, []shape.Kind{shape.KindString}, s.Items.Types)
	assert.Equal(t, 51, a.Visited())
}

func TestSampleCapOption(t *testing.T) {
	a := NewAnalyzer(WithSampleCap(3))
	s := a.ParseSampleValue([]any{1, 2, 3, 4, 5, 6, 7})
	assert.Equal(t, 4, a.Visited())
	assert.Equal(t, 7, s.Example.Len)
}

func TestParseSampleValueKinds(t *testing.T) {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	cases := []struct {
		name string
		v    any
		want shape.Kind
	}{
		{"nil", nil, shape.KindNull},
		{"undefined", Undefined, shape.KindUndefined},
		{"date", now, shape.KindDate},
		{"date pointer", &now, shape.KindDate},
		{"bigint", big.NewInt(12), shape.KindBigInt},
		{"int", 3, shape.KindInteger},
		{"uint8", uint8(3), shape.KindInteger},
		{"float integral", 3.0, shape.KindInteger},
		{"float", 3.25, shape.KindNumber},
		{"json number int", json.Number("42"), shape.KindInteger},
		{"json number float", json.Number("4.2"), shape.KindNumber},
		{"string", "x", shape.KindString},
		{"bool", false, shape.KindBoolean},
		{"slice", []int{1}, shape.KindArray},
		{"map", map[string]int{"a": 1}, shape.KindObject},
		{"ordered object", Object{{Key: "a", Value: 1}}, shape.KindObject},
		{"int keys", map[int]string{1: "a"}, shape.KindUnknown},
		{"struct", struct{ A int }{1}, shape.KindUnknown},
		{"func", func() {}, shape.KindUnknown},
		{"channel", make(chan int), shape.KindUnknown},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			s := ParseSampleValue(c.v)
			assert.Equal(t, []shape.Kind{c.want}, s.Types)
		})
	}
}

func TestParseSampleValueDateIsAtomic(t *testing.T) {
	s := ParseSampleValue(map[string]any{"at": time.Now()})
	at, ok := s.Field("at")
	require.True(t, ok)
	assert.True(t, at.Node.Date)
	assert.Empty(t, at.Node.Fields)
	assert.True(t, at.Required)
}

func TestParseSampleValueUndefinedNotRequired(t *testing.T) {
	s := ParseSampleValue(Object{
		{Key: "b", Value: Undefined},
		{Key: "a", Value: "x"},
	})
	assert.Equal(t, []string{"b", "a"}, s.Keys())
	assert.Equal(t, []string{"a"}, s.RequiredKeys())
}

func TestParseSampleValueMapKeysSorted(t *testing.T) {
	s := ParseSampleValue(map[string]any{"c": 1, "a": 2, "b": 3})
	assert.Equal(t, []string{"a", "b", "c"}, s.Keys())
}

func TestParseSampleValueMatchesBytes(t *testing.T) {
	doc := `{"a": 1, "b": [{"c": "x", "d": null}], "e": 1.5}`

	fromBytes, err := ParseSampleBodyBytes([]byte(doc))
	require.NoError(t, err)

	var v any
	require.NoError(t, json.Unmarshal([]byte(doc), &v))
	fromValue := ParseSampleValue(v)

	assert.Equal(t, fromBytes.Keys(), fromValue.Keys())
	assert.Equal(t, fromBytes.RequiredKeys(), fromValue.RequiredKeys())
	for _, f := range fromBytes.Fields {
		g, ok := fromValue.Field(f.Key)
		require.True(t, ok)
		assert.Equal(t, f.Node.Types, g.Node.Types, f.Key)
	}
}

func TestExampleTruncated(t *testing.T) {
	s := ParseSampleValue(strings.Repeat("a", 100))
	require.NotNil(t, s.Example)
	assert.Equal(t, `"`+strings.Repeat("a", maxExampleRunes)+`..."`, s.Example.Literal)
}

func TestDeterministic(t *testing.T) {
	doc := []byte(`{"users": [{"id": 1, "tags": ["a"]}, {"id": 2, "name": null}], "next": null}`)
	a, err := ParseSampleBodyBytes(doc)
	require.NoError(t, err)
	b, err := ParseSampleBodyBytes(doc)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
