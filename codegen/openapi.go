package codegen

import (
	"encoding/json"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/siegeai/shapecast/shape"
)

// OpenAPI converts n into an OpenAPI 3.0 schema. The nullable pattern becomes a nullable
// schema and other unions become oneOf.
func OpenAPI(n *shape.Node) *openapi3.Schema {
	if n == nil || len(n.Types) == 0 {
		return &openapi3.Schema{}
	}

	if k, ok := n.Nullable(); ok {
		s := openAPISingle(n.Only(k))
		s.Nullable = true
		return s
	}

	if n.Union() {
		s := &openapi3.Schema{}
		for _, k := range n.Types {
			s.OneOf = append(s.OneOf, openAPISingle(n.Only(k)).NewRef())
		}
		return s
	}

	return openAPISingle(n)
}

func openAPISingle(n *shape.Node) *openapi3.Schema {
	var s *openapi3.Schema
	switch n.Types[0] {
	case shape.KindNull:
		return &openapi3.Schema{Nullable: true}
	case shape.KindString:
		s = &openapi3.Schema{Type: openapi3.TypeString}
	case shape.KindNumber:
		s = &openapi3.Schema{Type: openapi3.TypeNumber}
	case shape.KindInteger:
		s = &openapi3.Schema{Type: openapi3.TypeInteger}
	case shape.KindBoolean:
		s = &openapi3.Schema{Type: openapi3.TypeBoolean}
	case shape.KindBigInt:
		return &openapi3.Schema{Type: openapi3.TypeInteger, Format: "int64"}
	case shape.KindDate:
		s = &openapi3.Schema{Type: openapi3.TypeString, Format: "date-time"}
	case shape.KindArray:
		return openAPIArray(n)
	case shape.KindObject:
		return openAPIObject(n)
	default:
		// undefined, unknown and any accept everything
		return &openapi3.Schema{}
	}

	if n.Example != nil && n.Example.Literal != "" {
		var ex any
		if err := json.Unmarshal([]byte(n.Example.Literal), &ex); err == nil {
			s.Example = ex
		}
	}
	return s
}

func openAPIArray(n *shape.Node) *openapi3.Schema {
	items := &openapi3.Schema{}
	if n.Items != nil {
		items = OpenAPI(n.Items)
	}
	return &openapi3.Schema{Type: openapi3.TypeArray, Items: items.NewRef()}
}

func openAPIObject(n *shape.Node) *openapi3.Schema {
	ps := make(openapi3.Schemas, len(n.Fields))
	for _, f := range n.Fields {
		ps[f.Key] = OpenAPI(f.Node).NewRef()
	}
	return &openapi3.Schema{
		Type:       openapi3.TypeObject,
		Properties: ps,
		Required:   n.RequiredKeys(),
	}
}
