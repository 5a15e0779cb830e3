package merge

import (
	"slices"

	"github.com/siegeai/shapecast/shape"
)

// Node merges two observations of the same position. Either side may be nil.
func Node(a, b *shape.Node) *shape.Node {
	if a == nil && b == nil {
		return nil
	}
	if a != nil && b == nil {
		return a
	}
	if a == nil && b != nil {
		return b
	}
	return Nodes(a, b)
}

// Nodes merges any number of observations into one representative node. Nil entries are
// ignored and the result is nil only when nothing remains. Operands are never modified.
func Nodes(ns ...*shape.Node) *shape.Node {
	ns = compact(ns)
	if len(ns) == 0 {
		return nil
	}
	if len(ns) == 1 {
		return ns[0]
	}

	kinds := unionKinds(ns)
	if len(kinds) == 1 {
		return structural(kinds[0], ns)
	}

	if len(kinds) == 2 && slices.Contains(kinds, shape.KindNull) {
		k := kinds[0]
		if k == shape.KindNull {
			k = kinds[1]
		}
		n := structural(k, carrying(k, ns))
		n.Types = []shape.Kind{k, shape.KindNull}
		return n
	}

	// genuine union, nothing below the type set is merged
	return &shape.Node{Types: kinds}
}

func compact(ns []*shape.Node) []*shape.Node {
	res := make([]*shape.Node, 0, len(ns))
	for _, n := range ns {
		if n != nil && len(n.Types) > 0 {
			res = append(res, n)
		}
	}
	return res
}

func unionKinds(ns []*shape.Node) []shape.Kind {
	res := make([]shape.Kind, 0, 2)
	for _, n := range ns {
		for _, k := range n.Types {
			if !slices.Contains(res, k) {
				res = append(res, k)
			}
		}
	}
	return res
}

func carrying(k shape.Kind, ns []*shape.Node) []*shape.Node {
	res := make([]*shape.Node, 0, len(ns))
	for _, n := range ns {
		if n.Has(k) {
			res = append(res, n)
		}
	}
	return res
}

func structural(k shape.Kind, ns []*shape.Node) *shape.Node {
	switch k {
	case shape.KindObject:
		return objects(ns)
	case shape.KindArray:
		return arrays(ns)
	case shape.KindDate:
		return &shape.Node{Types: []shape.Kind{shape.KindDate}, Date: true}
	default:
		return &shape.Node{Types: []shape.Kind{k}, Example: example(ns)}
	}
}

// fieldGroup collects the children seen for one key, in input order.
type fieldGroup struct {
	key      string
	nodes    []*shape.Node
	required int
}

func objects(ns []*shape.Node) *shape.Node {
	groups := make([]*fieldGroup, 0)
	index := make(map[string]*fieldGroup)

	for _, n := range ns {
		for _, f := range n.Fields {
			g, ok := index[f.Key]
			if !ok {
				g = &fieldGroup{key: f.Key}
				index[f.Key] = g
				groups = append(groups, g)
			}
			g.nodes = append(g.nodes, f.Node)
			if f.Required {
				g.required += 1
			}
		}
	}

	fields := make([]shape.Field, 0, len(groups))
	for _, g := range groups {
		fields = append(fields, shape.Field{
			Key:      g.key,
			Node:     Nodes(g.nodes...),
			Required: g.required == len(ns),
		})
	}

	return &shape.Node{Types: []shape.Kind{shape.KindObject}, Fields: fields}
}

func arrays(ns []*shape.Node) *shape.Node {
	items := make([]*shape.Node, 0, len(ns))
	var ex *shape.Example
	for _, n := range ns {
		if n.Items != nil {
			items = append(items, n.Items)
		}
		if ex == nil {
			ex = n.Example
		}
	}

	if len(items) == 0 {
		return &shape.Node{Types: []shape.Kind{shape.KindArray}, EmptyArray: true, Example: ex}
	}

	return &shape.Node{
		Types:   []shape.Kind{shape.KindArray},
		Items:   Nodes(items...),
		Example: ex,
	}
}

func example(ns []*shape.Node) *shape.Example {
	for _, n := range ns {
		if n.Example != nil {
			return n.Example
		}
	}
	return nil
}
