package capture

import (
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/valyala/fastjson"
)

// ChunkSize is the number of exchanges returned per List page.
const ChunkSize = 50

var (
	ErrNotMonitoring = errors.New("session is not monitoring")
	ErrFiltered      = errors.New("request type excluded by filter")
	ErrNotFound      = errors.New("exchange not found")
)

type Filter string

const (
	FilterAll   Filter = "all"
	FilterFetch Filter = "fetch"
)

// ParseFilter defaults to FilterFetch for anything it does not recognize.
func ParseFilter(s string) Filter {
	if Filter(strings.ToLower(s)) == FilterAll {
		return FilterAll
	}
	return FilterFetch
}

func (f Filter) Allows(requestType string) bool {
	if f == FilterAll {
		return true
	}
	t := strings.ToLower(requestType)
	return t == "fetch" || t == "xhr"
}

type MonitoringState struct {
	Monitoring bool   `json:"isMonitoring"`
	Filter     Filter `json:"requestTypeFilter"`
}

// Capture is one observed request/response pair as handed over by a traffic source.
type Capture struct {
	URL         string `json:"url"`
	Method      string `json:"method"`
	Type        string `json:"type"`
	Status      int    `json:"status"`
	MimeType    string `json:"mimeType"`
	ContentType string `json:"contentType"`
	Body        []byte `json:"-"`
}

// Exchange is a recorded Capture. Its response body is kept as compact JSON and parsed
// again on every Body call, so callers never share a parsed tree.
type Exchange struct {
	ID        string
	URL       string
	Method    string
	Type      string
	Status    int
	MimeType  string
	Timestamp time.Time

	payload []byte
	failure *Body
}

// Body is nil when the response was not JSON.
func (e *Exchange) Body() *Body {
	if e.failure != nil {
		f := *e.failure
		return &f
	}
	if e.payload == nil {
		return nil
	}
	v, err := fastjson.ParseBytes(e.payload)
	if err != nil {
		return &Body{Error: FailedProcess, Details: err.Error()}
	}
	return &Body{Data: v}
}

func (e *Exchange) MarshalJSON() ([]byte, error) {
	type wire struct {
		ID        string `json:"id"`
		URL       string `json:"url"`
		Method    string `json:"method"`
		Type      string `json:"type,omitempty"`
		Status    int    `json:"status,omitempty"`
		MimeType  string `json:"mimeType,omitempty"`
		Timestamp int64  `json:"timestamp"`
		Response  *Body  `json:"responseBody,omitempty"`
	}
	return json.Marshal(wire{
		ID:        e.ID,
		URL:       e.URL,
		Method:    e.Method,
		Type:      e.Type,
		Status:    e.Status,
		MimeType:  e.MimeType,
		Timestamp: e.Timestamp.UnixMilli(),
		Response:  e.Body(),
	})
}

type Page struct {
	Requests     []*Exchange `json:"requests"`
	TotalChunks  int         `json:"totalChunks"`
	CurrentChunk int         `json:"currentChunk"`
}

type session struct {
	state     MonitoringState
	exchanges []*Exchange
	byID      map[string]*Exchange
}

func newSession() *session {
	return &session{
		state: MonitoringState{Filter: FilterFetch},
		byID:  make(map[string]*Exchange),
	}
}

// Store keeps monitoring state and captured exchanges per session. It is safe for
// concurrent use.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*session
	now      func() time.Time
}

func NewStore() *Store {
	return &Store{
		sessions: make(map[string]*session),
		now:      time.Now,
	}
}

func (s *Store) get(name string) *session {
	ss, ok := s.sessions[name]
	if !ok {
		ss = newSession()
		s.sessions[name] = ss
	}
	return ss
}

// Start begins monitoring and discards earlier exchanges. Starting a session that is
// already monitoring changes nothing.
func (s *Store) Start(name string, f Filter) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ss := s.get(name)
	if ss.state.Monitoring {
		return
	}
	ss.state = MonitoringState{Monitoring: true, Filter: f}
	ss.exchanges = nil
	ss.byID = make(map[string]*Exchange)
}

func (s *Store) Stop(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ss, ok := s.sessions[name]; ok {
		ss.state.Monitoring = false
	}
}

func (s *Store) State(name string) MonitoringState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if ss, ok := s.sessions[name]; ok {
		return ss.state
	}
	return MonitoringState{Filter: FilterFetch}
}

// Record stores c and returns its ID. Bodies are only parsed for JSON responses.
func (s *Store) Record(name string, c Capture) (string, error) {
	e := &Exchange{
		ID:       uuid.NewString(),
		URL:      c.URL,
		Method:   c.Method,
		Type:     c.Type,
		Status:   c.Status,
		MimeType: c.MimeType,
	}
	if IsJSON(c.MimeType, c.ContentType) {
		b := ParseBody(c.Body)
		if b.Failed() {
			e.failure = b
		} else {
			e.payload = b.Data.MarshalTo(nil)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ss, ok := s.sessions[name]
	if !ok || !ss.state.Monitoring {
		return "", ErrNotMonitoring
	}
	if !ss.state.Filter.Allows(c.Type) {
		return "", ErrFiltered
	}

	e.Timestamp = s.now()
	ss.exchanges = append(ss.exchanges, e)
	ss.byID[e.ID] = e
	return e.ID, nil
}

func (s *Store) Get(name, id string) (*Exchange, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if ss, ok := s.sessions[name]; ok {
		if e, ok := ss.byID[id]; ok {
			return e, nil
		}
	}
	return nil, ErrNotFound
}

// List returns one chunk of the session's exchanges in capture order. A chunk past the end
// yields an empty page.
func (s *Store) List(name string, chunk int) Page {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p := Page{Requests: []*Exchange{}, CurrentChunk: chunk}
	ss, ok := s.sessions[name]
	if !ok {
		return p
	}

	n := len(ss.exchanges)
	p.TotalChunks = (n + ChunkSize - 1) / ChunkSize
	if chunk < 0 || chunk >= p.TotalChunks {
		return p
	}

	lo := chunk * ChunkSize
	hi := min(lo+ChunkSize, n)
	p.Requests = append(p.Requests, ss.exchanges[lo:hi]...)
	return p
}

// All returns every exchange of the session in capture order.
func (s *Store) All(name string) []*Exchange {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ss, ok := s.sessions[name]
	if !ok {
		return nil
	}
	return append([]*Exchange(nil), ss.exchanges...)
}

func (s *Store) Clear(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ss, ok := s.sessions[name]; ok {
		ss.exchanges = nil
		ss.byID = make(map[string]*Exchange)
	}
}

// Delete forgets the session entirely.
func (s *Store) Delete(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, name)
}
