package codegen

import (
	"errors"
	"strings"

	"github.com/siegeai/shapecast/shape"
)

var ErrUnknownDialect = errors.New("unknown dialect")

// Dialect is the vocabulary one validation library needs. The structural walk in Render is
// shared, so two dialects always produce constructs of the same shape.
type Dialect struct {
	Name  string
	Atoms map[shape.Kind]string

	Array      string // wraps the item construct, one %s verb
	EmptyArray string

	ObjectOpen  string
	ObjectClose string
	EmptyObject string

	UnionOpen  string
	UnionSep   string
	UnionClose string

	Nullable string
	Optional string // appended to properties that are not required
	Required string // appended to properties that are required

	Fallback string
}

var Zod = Dialect{
	Name: "zod",
	Atoms: map[shape.Kind]string{
		shape.KindNull:      "z.null()",
		shape.KindUndefined: "z.undefined()",
		shape.KindString:    "z.string()",
		shape.KindNumber:    "z.number()",
		shape.KindInteger:   "z.number().int()",
		shape.KindBoolean:   "z.boolean()",
		shape.KindBigInt:    "z.bigint()",
		shape.KindDate:      "z.date()",
		shape.KindUnknown:   "z.unknown()",
		shape.KindAny:       "z.any()",
	},
	Array:       "z.array(%s)",
	EmptyArray:  "z.array(z.any())",
	ObjectOpen:  "z.object({",
	ObjectClose: "})",
	EmptyObject: "z.object({})",
	UnionOpen:   "z.union([",
	UnionSep:    ", ",
	UnionClose:  "])",
	Nullable:    ".nullable()",
	Optional:    ".optional()",
	Fallback:    "z.unknown()",
}

var Joi = Dialect{
	Name: "joi",
	Atoms: map[shape.Kind]string{
		shape.KindNull:      "Joi.valid(null)",
		shape.KindUndefined: "Joi.valid(undefined)",
		shape.KindString:    "Joi.string()",
		shape.KindNumber:    "Joi.number()",
		shape.KindInteger:   "Joi.number().integer()",
		shape.KindBoolean:   "Joi.boolean()",
		shape.KindBigInt:    "Joi.number().unsafe()",
		shape.KindDate:      "Joi.date()",
		shape.KindUnknown:   "Joi.any()",
		shape.KindAny:       "Joi.any()",
	},
	Array:       "Joi.array().items(%s)",
	EmptyArray:  "Joi.array().items(Joi.any())",
	ObjectOpen:  "Joi.object({",
	ObjectClose: "})",
	EmptyObject: "Joi.object()",
	UnionOpen:   "Joi.alternatives().try(",
	UnionSep:    ", ",
	UnionClose:  ")",
	Nullable:    ".allow(null)",
	Required:    ".required()",
	Fallback:    "Joi.any()",
}

var Dialects = []Dialect{Zod, Joi}

func DialectByName(name string) (Dialect, error) {
	for _, d := range Dialects {
		if strings.EqualFold(d.Name, name) {
			return d, nil
		}
	}
	return Dialect{}, ErrUnknownDialect
}
