package codegen

import (
	"fmt"
	"strings"

	"github.com/siegeai/shapecast/capture"
	"github.com/siegeai/shapecast/infer"
	"github.com/siegeai/shapecast/shape"
)

const DefaultIndent = "  "

const noData = "// Error: No response data available\n"

type Options struct {
	Indent   string // one nesting level, DefaultIndent when empty
	Examples bool   // annotate constructs with sampled examples
}

// Generate renders the schema of a captured response. Missing payloads and upstream errors
// produce the dialect's fallback construct behind an explanatory comment; an error payload
// is never analyzed.
func Generate(b *capture.Body, d Dialect, opts Options) string {
	return GenerateWith(infer.NewAnalyzer(), b, d, opts)
}

// GenerateWith is Generate using a for the analysis.
func GenerateWith(a *infer.Analyzer, b *capture.Body, d Dialect, opts Options) string {
	if b.Failed() {
		return fmt.Sprintf("// Error: %s\n// %s\n%s", oneLine(b.Error), oneLine(b.Details), d.Fallback)
	}
	if b.Empty() {
		return noData + d.Fallback
	}
	return Render(a.ParseSampleBodyFastJson(b.Data), d, opts)
}

// GenerateValue is Generate for a decoded Go value.
func GenerateValue(v any, d Dialect, opts Options) string {
	if v == nil {
		return noData + d.Fallback
	}
	return Render(infer.ParseSampleValue(v), d, opts)
}

// Render never fails: nodes without a type render as the dialect's fallback.
func Render(n *shape.Node, d Dialect, opts Options) string {
	r := renderer{d: d, unit: opts.Indent, examples: opts.Examples}
	if r.unit == "" {
		r.unit = DefaultIndent
	}
	return r.annotate(r.node(n, ""))
}

type renderer struct {
	d        Dialect
	unit     string
	examples bool
}

// node returns the construct for n and the annotation that belongs after it. The caller
// places the annotation so property modifiers stay attached to the construct.
func (r *renderer) node(n *shape.Node, indent string) (string, string) {
	if n == nil || len(n.Types) == 0 {
		return r.d.Fallback, ""
	}
	note := r.note(n)

	if k, ok := n.Nullable(); ok {
		return r.single(n.Only(k), indent) + r.d.Nullable, note
	}

	if n.Union() {
		branches := make([]string, len(n.Types))
		for i, k := range n.Types {
			branches[i] = r.single(n.Only(k), indent)
		}
		return r.d.UnionOpen + strings.Join(branches, r.d.UnionSep) + r.d.UnionClose, note
	}

	return r.single(n, indent), note
}

func (r *renderer) single(n *shape.Node, indent string) string {
	switch k := n.Types[0]; k {
	case shape.KindArray:
		if n.Items == nil {
			return r.d.EmptyArray
		}
		return fmt.Sprintf(r.d.Array, r.annotate(r.node(n.Items, indent+r.unit)))
	case shape.KindObject:
		return r.object(n, indent)
	default:
		if a, ok := r.d.Atoms[k]; ok {
			return a
		}
		return r.d.Fallback
	}
}

func (r *renderer) object(n *shape.Node, indent string) string {
	if len(n.Fields) == 0 {
		return r.d.EmptyObject
	}

	inner := indent + r.unit
	lines := make([]string, len(n.Fields))
	for i, f := range n.Fields {
		expr, note := r.node(f.Node, inner)
		if f.Required {
			expr += r.d.Required
		} else {
			expr += r.d.Optional
		}
		lines[i] = inner + PropertyKey(f.Key) + ": " + r.annotate(expr, note)
	}

	var sb strings.Builder
	sb.WriteString(r.d.ObjectOpen)
	sb.WriteString("\n")
	sb.WriteString(strings.Join(lines, ",\n"))
	sb.WriteString("\n")
	sb.WriteString(indent)
	sb.WriteString(r.d.ObjectClose)
	return sb.String()
}

func (r *renderer) note(n *shape.Node) string {
	if !r.examples || n.Example == nil {
		return ""
	}
	switch {
	case n.Example.Literal != "":
		return "e.g. " + strings.ReplaceAll(n.Example.Literal, "*/", `*\/`)
	case n.Example.Len > 0:
		return fmt.Sprintf("%d items", n.Example.Len)
	}
	return ""
}

func (r *renderer) annotate(expr, note string) string {
	if note == "" {
		return expr
	}
	return expr + " /* " + note + " */"
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
