package httpassembly

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http"
)

type HttpStreamFactory interface {
	New() HttpStream
}

// HttpStream receives the pairs of one connection in order. Both bodies are fully buffered
// and may be read after the call returns.
type HttpStream interface {
	ReassembledRequestResponse(req *http.Request, res *http.Response)
}

// pairer collects both directions of one connection and emits a pair as soon as the
// response has been read completely.
type pairer struct {
	stream HttpStream
	req    []byte
	res    []byte
}

func (p *pairer) add(fromClient bool, payload []byte) {
	if fromClient {
		// a new request closes the previous exchange
		if len(p.res) > 0 {
			p.flush()
		}
		p.req = append(p.req, payload...)
	} else {
		p.res = append(p.res, payload...)
	}
	p.emit(false)
}

// flush emits whatever pair can still be parsed and drops the rest.
func (p *pairer) flush() {
	p.emit(true)
	p.reset()
}

func (p *pairer) reset() {
	p.req = nil
	p.res = nil
}

// emit parses the buffered pair. Unless final, truncated input is kept for more data.
func (p *pairer) emit(final bool) {
	if len(p.req) == 0 || len(p.res) == 0 {
		return
	}

	r, err := http.ReadRequest(bufio.NewReader(bytes.NewReader(p.req)))
	if err != nil {
		p.fail("request", err, final)
		return
	}
	rb, err := io.ReadAll(r.Body)
	if err != nil {
		p.fail("request body", err, final)
		return
	}

	w, err := http.ReadResponse(bufio.NewReader(bytes.NewReader(p.res)), r)
	if err != nil {
		p.fail("response", err, final)
		return
	}
	if !final && closeDelimited(w) {
		return
	}
	wb, err := io.ReadAll(w.Body)
	if err != nil {
		p.fail("response body", err, final)
		return
	}

	r.Body = io.NopCloser(bytes.NewReader(rb))
	w.Body = io.NopCloser(bytes.NewReader(wb))
	p.reset()
	p.stream.ReassembledRequestResponse(r, w)
}

func (p *pairer) fail(what string, err error, final bool) {
	if incomplete(err) && !final {
		return
	}
	slog.Debug("could not parse "+what, "err", err, "req", len(p.req), "res", len(p.res))
	p.reset()
}

// closeDelimited reports whether the body of w only ends when the connection closes.
// Bodiless statuses already carry a zero ContentLength.
func closeDelimited(w *http.Response) bool {
	if w.Request != nil && w.Request.Method == http.MethodHead {
		return false
	}
	return w.ContentLength < 0 && len(w.TransferEncoding) == 0
}

func incomplete(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}
