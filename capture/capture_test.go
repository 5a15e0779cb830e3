package capture

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fastjson"
)

func TestPreprocess(t *testing.T) {
	assert.Equal(t, `{"a":1}`, Preprocess(")]}'\n{\"a\":1}"))
	assert.Equal(t, `{"a":1}`, Preprocess(`)]}' {"a":1}`))
	assert.Equal(t, `[1,2]`, Preprocess(`([1,2])`))
	assert.Equal(t, `{"a":1}`, Preprocess("  {\"a\":1}\n"))
	assert.Equal(t, `(`, Preprocess(`(`))
}

func TestParseBody(t *testing.T) {
	b := ParseBody([]byte(")]}'\n{\"a\": [1, 2]}"))
	require.False(t, b.Failed())
	assert.Equal(t, fastjson.TypeObject, b.Data.Type())
	assert.False(t, b.Empty())

	b = ParseBody([]byte(`{"a": `))
	assert.True(t, b.Failed())
	assert.Equal(t, FailedProcess, b.Error)
	assert.NotEmpty(t, b.Details)
	assert.Equal(t, `{"a": `, b.Original)

	b = ParseBody(nil)
	assert.True(t, b.Failed())
	assert.Equal(t, FailedRetrieve, b.Error)

	b = ParseBody([]byte(strings.Repeat("x", 5000)))
	assert.Len(t, b.Original, maxOriginalBody)

	// a multi-byte rune straddling the limit is dropped whole
	b = ParseBody([]byte(strings.Repeat("x", maxOriginalBody-1) + "é{"))
	assert.Len(t, b.Original, maxOriginalBody-1)
	assert.True(t, utf8.ValidString(b.Original))
}

func TestBodyEmpty(t *testing.T) {
	var b *Body
	assert.True(t, b.Empty())
	assert.True(t, ParseBody([]byte("null")).Empty())
	assert.False(t, ParseBody([]byte("0")).Empty())
	assert.False(t, ParseBody([]byte("{")).Empty())
}

func TestBodyMarshal(t *testing.T) {
	bs, err := json.Marshal(ParseBody([]byte(`{"a":1}`)))
	require.NoError(t, err)
	assert.JSONEq(t, `{"data": {"a": 1}}`, string(bs))

	bs, err = json.Marshal(&Body{Error: "e", Details: "d"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"error": "e", "details": "d"}`, string(bs))
}

func TestIsJSON(t *testing.T) {
	assert.True(t, IsJSON("application/json", ""))
	assert.True(t, IsJSON("application/json; charset=utf-8", ""))
	assert.True(t, IsJSON("application/problem+json", ""))
	assert.True(t, IsJSON("text/plain", "text/plain; format=json"))
	assert.False(t, IsJSON("text/plain", "text/plain"))
	assert.False(t, IsJSON("text/html", "application/json"))
}

func TestFilter(t *testing.T) {
	assert.Equal(t, FilterAll, ParseFilter("ALL"))
	assert.Equal(t, FilterFetch, ParseFilter(""))
	assert.Equal(t, FilterFetch, ParseFilter("bogus"))

	assert.True(t, FilterFetch.Allows("XHR"))
	assert.True(t, FilterFetch.Allows("fetch"))
	assert.False(t, FilterFetch.Allows("document"))
	assert.True(t, FilterAll.Allows("document"))
}

func jsonCapture(body string) Capture {
	return Capture{
		URL:      "https://api.example.com/widgets",
		Method:   "GET",
		Type:     "fetch",
		Status:   200,
		MimeType: "application/json",
		Body:     []byte(body),
	}
}

func TestStoreRequiresMonitoring(t *testing.T) {
	s := NewStore()
	_, err := s.Record("tab", jsonCapture(`{}`))
	assert.ErrorIs(t, err, ErrNotMonitoring)

	s.Start("tab", FilterFetch)
	id, err := s.Record("tab", jsonCapture(`{}`))
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	s.Stop("tab")
	_, err = s.Record("tab", jsonCapture(`{}`))
	assert.ErrorIs(t, err, ErrNotMonitoring)
	assert.False(t, s.State("tab").Monitoring)
}

func TestStoreFilter(t *testing.T) {
	s := NewStore()
	s.Start("tab", FilterFetch)

	c := jsonCapture(`{}`)
	c.Type = "Document"
	_, err := s.Record("tab", c)
	assert.ErrorIs(t, err, ErrFiltered)

	s.Stop("tab")
	s.Start("tab", FilterAll)
	_, err = s.Record("tab", c)
	assert.NoError(t, err)
	assert.Equal(t, MonitoringState{Monitoring: true, Filter: FilterAll}, s.State("tab"))
}

func TestStoreStartClearsOnlyWhenIdle(t *testing.T) {
	s := NewStore()
	s.Start("tab", FilterAll)
	_, err := s.Record("tab", jsonCapture(`{}`))
	require.NoError(t, err)

	s.Start("tab", FilterFetch)
	assert.Len(t, s.All("tab"), 1)
	assert.Equal(t, FilterAll, s.State("tab").Filter)

	s.Stop("tab")
	s.Start("tab", FilterAll)
	assert.Empty(t, s.All("tab"))
}

func TestStoreBodies(t *testing.T) {
	s := NewStore()
	s.Start("tab", FilterAll)

	ok, err := s.Record("tab", jsonCapture(`{"a": 1}`))
	require.NoError(t, err)
	bad, err := s.Record("tab", jsonCapture(`{"a": `))
	require.NoError(t, err)

	html := jsonCapture(`<html></html>`)
	html.MimeType = "text/html"
	skipped, err := s.Record("tab", html)
	require.NoError(t, err)

	e, err := s.Get("tab", ok)
	require.NoError(t, err)
	b := e.Body()
	require.NotNil(t, b)
	assert.Equal(t, 1, b.Data.GetInt("a"))

	e, err = s.Get("tab", bad)
	require.NoError(t, err)
	assert.Equal(t, FailedProcess, e.Body().Error)

	e, err = s.Get("tab", skipped)
	require.NoError(t, err)
	assert.Nil(t, e.Body())

	_, err = s.Get("tab", "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoreList(t *testing.T) {
	s := NewStore()
	s.Start("tab", FilterAll)
	for i := 0; i < 120; i++ {
		c := jsonCapture(fmt.Sprintf(`{"i": %d}`, i))
		c.URL = fmt.Sprintf("/items/%d", i)
		_, err := s.Record("tab", c)
		require.NoError(t, err)
	}

	p := s.List("tab", 0)
	assert.Equal(t, 3, p.TotalChunks)
	assert.Len(t, p.Requests, ChunkSize)
	assert.Equal(t, "/items/0", p.Requests[0].URL)

	p = s.List("tab", 2)
	assert.Len(t, p.Requests, 20)
	assert.Equal(t, "/items/100", p.Requests[0].URL)
	assert.Equal(t, 2, p.CurrentChunk)

	p = s.List("tab", 3)
	assert.Empty(t, p.Requests)

	p = s.List("nobody", 0)
	assert.Empty(t, p.Requests)
	assert.Equal(t, 0, p.TotalChunks)

	s.Clear("tab")
	assert.Empty(t, s.All("tab"))
	assert.True(t, s.State("tab").Monitoring)

	s.Delete("tab")
	assert.False(t, s.State("tab").Monitoring)
}

func TestExchangeMarshal(t *testing.T) {
	s := NewStore()
	s.now = func() time.Time { return time.UnixMilli(1700000000000) }
	s.Start("tab", FilterAll)
	id, err := s.Record("tab", jsonCapture(`{"a": 1}`))
	require.NoError(t, err)

	e, err := s.Get("tab", id)
	require.NoError(t, err)
	bs, err := json.Marshal(e)
	require.NoError(t, err)
	assert.JSONEq(t, fmt.Sprintf(`{
		"id": %q,
		"url": "https://api.example.com/widgets",
		"method": "GET",
		"type": "fetch",
		"status": 200,
		"mimeType": "application/json",
		"timestamp": 1700000000000,
		"responseBody": {"data": {"a": 1}}
	}`, id), string(bs))
}

func TestStoreConcurrent(t *testing.T) {
	s := NewStore()
	s.Start("tab", FilterAll)

	wg := sync.WaitGroup{}
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				_, _ = s.Record("tab", jsonCapture(`{"a": [1, 2, 3]}`))
				_ = s.List("tab", 0)
			}
		}()
	}
	wg.Wait()
	assert.Len(t, s.All("tab"), 200)
}
