package capture

import (
	"encoding/json"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/valyala/fastjson"
)

const (
	FailedProcess  = "Failed to process JSON response"
	FailedRetrieve = "Failed to retrieve response body"

	maxOriginalBody = 1000
)

// Body is a captured response payload: either parsed Data or an Error with Details.
type Body struct {
	Data     *fastjson.Value
	Error    string
	Details  string
	Original string // leading part of a body that failed to parse
}

// Empty reports whether there is no payload to analyze.
func (b *Body) Empty() bool {
	return b == nil || (b.Error == "" && (b.Data == nil || b.Data.Type() == fastjson.TypeNull))
}

func (b *Body) Failed() bool {
	return b != nil && b.Error != ""
}

func (b *Body) MarshalJSON() ([]byte, error) {
	type wire struct {
		Data     json.RawMessage `json:"data,omitempty"`
		Error    string          `json:"error,omitempty"`
		Details  string          `json:"details,omitempty"`
		Original string          `json:"originalBody,omitempty"`
	}
	w := wire{Error: b.Error, Details: b.Details, Original: b.Original}
	if b.Data != nil {
		w.Data = b.Data.MarshalTo(nil)
	}
	return json.Marshal(w)
}

var xssiPrefix = regexp.MustCompile(`^\)]}'\s*\n?`)

// Preprocess strips the anti-XSSI prefix some APIs put in front of JSON and unwraps a body
// enclosed in parentheses.
func Preprocess(raw string) string {
	raw = xssiPrefix.ReplaceAllString(raw, "")
	if len(raw) >= 2 && strings.HasPrefix(raw, "(") && strings.HasSuffix(raw, ")") {
		raw = raw[1 : len(raw)-1]
	}
	return strings.TrimSpace(raw)
}

// ParseBody never fails: problems are reported through Body.Error and Body.Details.
func ParseBody(raw []byte) *Body {
	if len(raw) == 0 {
		return &Body{
			Error:   FailedRetrieve,
			Details: "Response body was not available or too large to process",
		}
	}

	v, err := fastjson.Parse(Preprocess(string(raw)))
	if err != nil {
		return &Body{
			Error:    FailedProcess,
			Details:  err.Error(),
			Original: truncate(string(raw), maxOriginalBody),
		}
	}
	return &Body{Data: v}
}

// IsJSON decides whether a response is worth parsing from its MIME type and, for text/plain
// bodies, its Content-Type header.
func IsJSON(mimeType, contentType string) bool {
	mt := strings.ToLower(strings.TrimSpace(strings.SplitN(mimeType, ";", 2)[0]))
	if mt == "application/json" || strings.HasSuffix(mt, "+json") {
		return true
	}
	return mt == "text/plain" && strings.Contains(strings.ToLower(contentType), "json")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
