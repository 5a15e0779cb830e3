package apispec

import (
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/google/uuid"
	"github.com/siegeai/shapecast/capture"
	"github.com/siegeai/shapecast/codegen"
	"github.com/siegeai/shapecast/infer"
	"github.com/siegeai/shapecast/merge"
	"github.com/siegeai/shapecast/shape"
)

// Endpoint is the merged response shape of every exchange with the same method, path
// template and status.
type Endpoint struct {
	Method   string
	Path     string
	Status   int
	Params   openapi3.Parameters
	Response *shape.Node
}

// Template replaces integer and UUID path segments with numbered path parameters.
func Template(path string) (string, openapi3.Parameters) {
	var params openapi3.Parameters
	nparams := 1
	parts := strings.Split(path, "/")
	for i, p := range parts {
		if p == "" {
			continue
		}
		var schema *openapi3.Schema
		if _, err := strconv.Atoi(p); err == nil {
			schema = &openapi3.Schema{Type: openapi3.TypeInteger}
		} else if _, err := uuid.Parse(p); err == nil {
			schema = &openapi3.Schema{Type: openapi3.TypeString, Format: "uuid"}
		} else {
			continue
		}

		name := fmt.Sprintf("arg%d", nparams)
		parts[i] = "{" + name + "}"
		params = append(params, &openapi3.ParameterRef{Value: &openapi3.Parameter{
			Name:     name,
			In:       openapi3.ParameterInPath,
			Required: true,
			Schema:   schema.NewRef(),
		}})
		nparams += 1
	}
	return strings.Join(parts, "/"), params
}

type key struct {
	method string
	path   string
	status int
}

// Collect groups exchanges into endpoints, sorted by path, method and status. Exchanges
// without a usable JSON body are skipped.
func Collect(exchanges []*capture.Exchange) []Endpoint {
	groups := make(map[key]*Endpoint)
	observations := make(map[key][]*shape.Node)
	for _, e := range exchanges {
		b := e.Body()
		if b.Failed() || b.Empty() {
			continue
		}

		path, params := Template(pathOf(e.URL))
		k := key{method: e.Method, path: path, status: e.Status}
		if _, ok := groups[k]; !ok {
			groups[k] = &Endpoint{Method: e.Method, Path: path, Status: e.Status, Params: params}
		}
		observations[k] = append(observations[k], infer.ParseSampleBodyFastJson(b.Data))
	}

	res := make([]Endpoint, 0, len(groups))
	for k, ep := range groups {
		ep.Response = merge.Nodes(observations[k]...)
		res = append(res, *ep)
	}
	sort.Slice(res, func(i, j int) bool {
		if res[i].Path != res[j].Path {
			return res[i].Path < res[j].Path
		}
		if res[i].Method != res[j].Method {
			return res[i].Method < res[j].Method
		}
		return res[i].Status < res[j].Status
	})
	return res
}

func pathOf(u string) string {
	parsed, err := url.Parse(u)
	if err != nil || parsed.Path == "" {
		return "/"
	}
	return parsed.Path
}

// Document describes endpoints as an OpenAPI 3 document.
func Document(title string, endpoints []Endpoint) *openapi3.T {
	doc := &openapi3.T{
		OpenAPI: "3.0.0",
		Info:    &openapi3.Info{Title: title, Version: "0.0.1"},
		Paths:   openapi3.Paths{},
	}

	for _, ep := range endpoints {
		if !knownMethod(ep.Method) {
			continue
		}
		item, ok := doc.Paths[ep.Path]
		if !ok {
			item = &openapi3.PathItem{}
			doc.Paths[ep.Path] = item
		}

		op := item.GetOperation(ep.Method)
		if op == nil {
			op = openapi3.NewOperation()
			op.Parameters = ep.Params
			op.Responses = openapi3.Responses{}
			item.SetOperation(ep.Method, op)
		}

		status := ep.Status
		if status == 0 {
			status = http.StatusOK
		}
		rs := openapi3.NewResponse().
			WithDescription(http.StatusText(status)).
			WithJSONSchema(codegen.OpenAPI(ep.Response))
		op.Responses[strconv.Itoa(status)] = &openapi3.ResponseRef{Value: rs}
	}
	return doc
}

func knownMethod(m string) bool {
	switch m {
	case http.MethodConnect, http.MethodDelete, http.MethodGet, http.MethodHead, http.MethodOptions,
		http.MethodPatch, http.MethodPost, http.MethodPut, http.MethodTrace:
		return true
	}
	return false
}
