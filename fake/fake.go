package fake

import "math/rand"

const letters = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// Generator produces random JSON-compatible documents. The same seed always produces the
// same sequence of documents.
type Generator struct {
	r        *rand.Rand
	maxDepth int
	maxKeys  int
	maxItems int
}

func New(seed int64) *Generator {
	return &Generator{
		r:        rand.New(rand.NewSource(seed)),
		maxDepth: 5,
		maxKeys:  12,
		maxItems: 8,
	}
}

// JSON returns a random object whose values are strings, numbers, booleans, nulls, nested
// objects and arrays.
func (g *Generator) JSON() map[string]any {
	return g.object(0)
}

// Records returns n objects that share a pool of keys, the way list endpoints do, with some
// keys missing or null in some records.
func (g *Generator) Records(n int) []any {
	keys := make([]string, 1+g.r.Intn(g.maxKeys))
	kinds := make([]int, len(keys))
	for i := range keys {
		keys[i] = g.String(1 + g.r.Intn(16))
		kinds[i] = g.r.Intn(4)
	}

	res := make([]any, n)
	for i := range res {
		obj := make(map[string]any, len(keys))
		for j, k := range keys {
			switch p := g.r.Intn(100); {
			case p < 10:
				continue
			case p < 20:
				obj[k] = nil
			default:
				obj[k] = g.scalar(kinds[j])
			}
		}
		res[i] = obj
	}
	return res
}

func (g *Generator) object(depth int) map[string]any {
	nkeys := 1 + g.r.Intn(g.maxKeys)
	obj := make(map[string]any, nkeys)
	for i := 0; i < nkeys; i++ {
		obj[g.String(1+g.r.Intn(32))] = g.value(depth + 1)
	}
	return obj
}

func (g *Generator) value(depth int) any {
	if depth >= g.maxDepth {
		return g.scalar(g.r.Intn(4))
	}
	switch p := g.r.Intn(100); {
	case p < 60:
		return g.scalar(g.r.Intn(4))
	case p < 70:
		return nil
	case p < 85:
		return g.object(depth)
	default:
		n := g.r.Intn(g.maxItems)
		xs := make([]any, n)
		kind := g.r.Intn(4)
		for i := range xs {
			if g.r.Intn(100) < 20 {
				xs[i] = g.object(depth + 1)
			} else {
				xs[i] = g.scalar(kind)
			}
		}
		return xs
	}
}

func (g *Generator) scalar(kind int) any {
	switch kind {
	case 0:
		return g.String(1 + g.r.Intn(32))
	case 1:
		return float64(g.r.Intn(10000))
	case 2:
		return g.r.Float64() * 1000
	default:
		return g.r.Intn(2) == 0
	}
}

func (g *Generator) String(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = letters[g.r.Intn(len(letters))]
	}
	return string(b)
}
