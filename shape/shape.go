package shape

import "slices"

// Kind is one member of a node's type set.
type Kind string

const (
	KindNull      Kind = "null"
	KindUndefined Kind = "undefined"
	KindString    Kind = "string"
	KindNumber    Kind = "number"
	KindInteger   Kind = "integer"
	KindBoolean   Kind = "boolean"
	KindBigInt    Kind = "bigint"
	KindDate      Kind = "date"
	KindArray     Kind = "array"
	KindObject    Kind = "object"
	KindUnknown   Kind = "unknown"
	KindAny       Kind = "any"
)

// Kinds lists every kind in a fixed order.
var Kinds = []Kind{
	KindNull, KindUndefined, KindString, KindNumber, KindInteger, KindBoolean,
	KindBigInt, KindDate, KindArray, KindObject, KindUnknown, KindAny,
}

// Node describes the structure of one JSON value, or of every value observed for the same
// logical position. Nodes are never modified once built.
//
// Fields and Required only mean something when Types includes KindObject; Items and
// EmptyArray only when it includes KindArray.
type Node struct {
	Types      []Kind
	Fields     []Field // insertion order of first observation
	Items      *Node
	EmptyArray bool
	Date       bool
	Example    *Example
}

type Field struct {
	Key      string
	Node     *Node
	Required bool
}

// Example is kept for annotations only and never drives a structural decision.
type Example struct {
	Literal string // JSON text of a sampled scalar
	Len     int    // element count of an array longer than the sample cap
}

func New(k Kind) *Node {
	return &Node{Types: []Kind{k}}
}

func (n *Node) Has(k Kind) bool {
	return n != nil && slices.Contains(n.Types, k)
}

// Union reports whether more than one kind was observed.
func (n *Node) Union() bool {
	return n != nil && len(n.Types) > 1
}

// Nullable reports whether the node is exactly {T, null} and returns T.
func (n *Node) Nullable() (Kind, bool) {
	if n == nil || len(n.Types) != 2 {
		return "", false
	}
	switch {
	case n.Types[0] == KindNull && n.Types[1] != KindNull:
		return n.Types[1], true
	case n.Types[1] == KindNull && n.Types[0] != KindNull:
		return n.Types[0], true
	}
	return "", false
}

func (n *Node) Field(key string) (Field, bool) {
	if n == nil {
		return Field{}, false
	}
	for _, f := range n.Fields {
		if f.Key == key {
			return f, true
		}
	}
	return Field{}, false
}

func (n *Node) Keys() []string {
	if n == nil {
		return nil
	}
	ks := make([]string, len(n.Fields))
	for i, f := range n.Fields {
		ks[i] = f.Key
	}
	return ks
}

func (n *Node) RequiredKeys() []string {
	if n == nil {
		return nil
	}
	ks := make([]string, 0, len(n.Fields))
	for _, f := range n.Fields {
		if f.Required {
			ks = append(ks, f.Key)
		}
	}
	return ks
}

// Only returns a shallow copy of n narrowed to the single kind k. Structure that does not
// belong to k is dropped.
func (n *Node) Only(k Kind) *Node {
	c := &Node{Types: []Kind{k}, Example: n.Example}
	switch k {
	case KindObject:
		c.Fields = n.Fields
	case KindArray:
		c.Items = n.Items
		c.EmptyArray = n.EmptyArray
	case KindDate:
		c.Date = true
	}
	return c
}
