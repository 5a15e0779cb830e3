package listener

import (
	"context"
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"sync"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/uuid"
	"github.com/siegeai/shapecast/apispec"
	"github.com/siegeai/shapecast/capture"
	"github.com/siegeai/shapecast/codegen"
	"github.com/siegeai/shapecast/httpassembly"
	"github.com/siegeai/shapecast/integrations/dashboard"
)

var ErrNoSession = errors.New("listener needs a session name")

// RequestType is the type recorded for every exchange seen on the wire.
const RequestType = "fetch"

// Publisher receives the schemas of a listening session.
type Publisher interface {
	Publish(ctx context.Context, update dashboard.Update) error
}

// Listener turns captured HTTP traffic into exchanges of one capture session.
type Listener struct {
	ID string

	source    PacketSource
	store     *capture.Store
	session   string
	port      layers.TCPPort
	assembler *httpassembly.HttpAssembler
}

type Option func(*Listener)

// WithPort keeps only segments to or from port.
func WithPort(port int) Option {
	return func(l *Listener) {
		l.port = layers.TCPPort(port)
	}
}

// NewListener starts monitoring session in store.
func NewListener(source PacketSource, store *capture.Store, session string, opts ...Option) (*Listener, error) {
	if session == "" {
		return nil, ErrNoSession
	}
	l := &Listener{
		ID:      uuid.NewString(),
		source:  source,
		store:   store,
		session: session,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.assembler = httpassembly.NewAssembler(&factory{l: l})
	store.Start(session, capture.FilterFetch)
	return l, nil
}

type factory struct {
	l *Listener
}

func (f *factory) New() httpassembly.HttpStream {
	return &stream{l: f.l}
}

type stream struct {
	l *Listener
}

func (s *stream) ReassembledRequestResponse(req *http.Request, res *http.Response) {
	s.l.handleRequestResponse(req, res)
}

// ListenJob feeds packets to the assembler until ctx is done or the source is drained.
func (l *Listener) ListenJob(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	packets := l.source.Packets()
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case packet, ok := <-packets:
			if !ok {
				closed := l.assembler.FlushAll()
				slog.Info("packet source drained", "closed", closed)
				return
			}
			if l.accept(packet) {
				l.assembler.Assemble(packet)
			}

		case <-ticker.C:
			flushed, closed := l.assembler.FlushOlderThan(time.Now().Add(-2 * time.Minute))
			slog.Debug("flushed idle connections", "flushed", flushed, "closed", closed)
		}
	}
}

func (l *Listener) accept(p gopacket.Packet) bool {
	if l.port == 0 {
		return true
	}
	tcp, ok := p.Layer(layers.LayerTypeTCP).(*layers.TCP)
	return ok && (tcp.SrcPort == l.port || tcp.DstPort == l.port)
}

func (l *Listener) handleRequestResponse(req *http.Request, res *http.Response) {
	slog.Debug("handling", "method", req.Method, "url", req.URL, "status", res.StatusCode)
	if 500 <= res.StatusCode && res.StatusCode < 600 {
		return
	}

	body, err := readAllEncoded(res.Header.Get("Content-Encoding"), res.Body)
	if err != nil {
		slog.Warn("could not read response body", "url", req.URL, "err", err)
		body = nil
	}

	contentType := res.Header.Get("Content-Type")
	mimeType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mimeType = contentType
	}

	c := capture.Capture{
		URL:         requestURL(req),
		Method:      req.Method,
		Type:        RequestType,
		Status:      res.StatusCode,
		MimeType:    mimeType,
		ContentType: contentType,
		Body:        body,
	}
	id, err := l.store.Record(l.session, c)
	if err != nil {
		slog.Debug("exchange dropped", "url", c.URL, "err", err)
		return
	}
	slog.Debug("exchange recorded", "id", id, "url", c.URL)
}

func requestURL(req *http.Request) string {
	if req.Host == "" {
		return req.URL.RequestURI()
	}
	return "http://" + req.Host + req.URL.RequestURI()
}

// PublishJob periodically pushes the session's schemas to p. Nothing is sent while no new
// exchange has been recorded.
func (l *Listener) PublishJob(ctx context.Context, wg *sync.WaitGroup, p Publisher, d codegen.Dialect, every time.Duration) {
	defer wg.Done()

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	published := ""
	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			latest := latestID(l.store.All(l.session))
			if latest == published {
				continue
			}
			update := dashboard.Update{ListenerID: l.ID, Dialect: d.Name, Schemas: l.Schemas(d)}
			if err := p.Publish(ctx, update); err != nil {
				slog.Warn("could not publish schemas", "err", err)
				continue
			}
			published = latest
			slog.Info("published schemas", "endpoints", len(update.Schemas))
		}
	}
}

func latestID(exchanges []*capture.Exchange) string {
	if len(exchanges) == 0 {
		return ""
	}
	return exchanges[len(exchanges)-1].ID
}

// Schemas renders one schema per endpoint, merging every JSON response observed for it.
func (l *Listener) Schemas(d codegen.Dialect) []dashboard.Schema {
	endpoints := apispec.Collect(l.store.All(l.session))
	res := make([]dashboard.Schema, len(endpoints))
	for i, ep := range endpoints {
		res[i] = dashboard.Schema{
			Method: ep.Method,
			URL:    ep.Path,
			Status: ep.Status,
			Source: codegen.Render(ep.Response, d, codegen.Options{}),
		}
	}
	return res
}
