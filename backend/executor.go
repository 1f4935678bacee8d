// Package backend executes resolved request descriptors against the
// billing backend. It owns authorization header injection, retry policy,
// error-shape normalization, and the slot guard that protects workflow
// state from stale responses. It knows nothing about how descriptors were
// built and nothing about the UI.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/plancraft/plancraft/endpoint"
)

// Config holds the executor's tunables. Retry counts, backoff, and
// timeouts are deliberate implementation parameters, chosen here and
// overridable through service configuration.
type Config struct {
	BaseURL      string
	Timeout      time.Duration
	MaxRetries   int
	RetryWait    time.Duration
	RetryMaxWait time.Duration
	Debug        bool
}

// CallOptions carry the per-call inputs: the bearer token (explicitly
// passed, never pulled from ambient state), the structured body, and an
// optional slot ticket for race-guarded calls.
type CallOptions struct {
	AuthToken string
	Body      map[string]any
	Ticket    *Ticket
}

// ResponseEnvelope is the executor's successful result. Raw is the
// backend shape exactly as received; callers run it through the
// transformer to get the canonical shape.
type ResponseEnvelope struct {
	Status int
	Raw    map[string]any
}

type Executor struct {
	client     *resty.Client
	extractors []ErrorExtractor
	guard      *SlotGuard
	hooks      Hooks
	l          *slog.Logger
}

func NewExecutor(cfg Config, l *slog.Logger, hooks Hooks) *Executor {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.MaxRetries).
		SetRetryWaitTime(cfg.RetryWait).
		SetRetryMaxWaitTime(cfg.RetryMaxWait).
		SetDebug(cfg.Debug)

	// Only idempotent calls are retried, and only on transport failure:
	// a received error response is an answer, not an outage, and
	// replaying a POST/PUT/DELETE could duplicate side effects.
	client.AddRetryCondition(func(r *resty.Response, err error) bool {
		if err == nil {
			return false
		}
		return r != nil && r.Request != nil && r.Request.Method == http.MethodGet
	})

	return &Executor{
		client:     client,
		extractors: defaultExtractors(),
		guard:      NewSlotGuard(),
		hooks:      hooks,
		l:          l,
	}
}

// Guard exposes the executor's slot guard so callers can issue tickets
// and check them before applying results.
func (e *Executor) Guard() *SlotGuard {
	return e.guard
}

// AddExtractor appends an error-shape extractor to the normalization
// chain. Built-in shapes are tried first.
func (e *Executor) AddExtractor(fn ErrorExtractor) {
	e.extractors = append(e.extractors, fn)
}

// Execute issues the described request. Behavior:
//   - injects "Authorization: Bearer <token>" unless the descriptor is
//     public; a private descriptor with no token fails before any I/O
//   - binary payloads ([]byte values in the body) switch the encoding to
//     multipart form data automatically
//   - transport failures surface as NetworkError after retry exhaustion
//   - error responses are normalized through the extractor chain
func (e *Executor) Execute(ctx context.Context, desc endpoint.RequestDescriptor, opts CallOptions) (ResponseEnvelope, error) {
	if !desc.Public && opts.AuthToken == "" {
		return ResponseEnvelope{}, ErrAuthRequired
	}

	req := e.client.R().
		SetContext(ctx).
		SetQueryParams(desc.Query)

	if !desc.Public {
		req.SetAuthToken(opts.AuthToken)
	}

	e.attachBody(req, opts.Body)

	raw := map[string]any{}
	rawErr := map[string]any{}
	req.SetResult(&raw).SetError(&rawErr)

	slot := desc.SlotKey()
	var seq uint64
	if opts.Ticket != nil {
		slot = opts.Ticket.Slot
		seq = opts.Ticket.Seq
	}

	e.hooks.emitRequest(RequestEvent{
		Operation: string(desc.Operation),
		Method:    desc.Method,
		URL:       desc.URL,
		Slot:      slot,
		Seq:       seq,
	})

	start := time.Now()
	resp, err := req.Execute(desc.Method, desc.URL)
	duration := time.Since(start)

	stale := opts.Ticket != nil && !e.guard.Current(*opts.Ticket)
	ev := ResponseEvent{
		Operation: string(desc.Operation),
		Slot:      slot,
		Seq:       seq,
		Stale:     stale,
		Err:       err,
		Duration:  duration,
	}
	if resp != nil {
		ev.Status = resp.StatusCode()
	}
	e.hooks.emitResponse(ev)

	if err != nil {
		netErr := &NetworkError{Reason: classify(ctx, err), Err: err}
		e.l.Warn("backend call failed",
			"method", desc.Method,
			"url", desc.URL,
			"reason", string(netErr.Reason),
			"error", err.Error())
		return ResponseEnvelope{}, netErr
	}

	if resp.IsError() {
		return ResponseEnvelope{}, e.normalizeError(resp.StatusCode(), rawErr)
	}

	return ResponseEnvelope{Status: resp.StatusCode(), Raw: raw}, nil
}

// attachBody serializes the structured body, switching to multipart form
// data when any value is binary.
func (e *Executor) attachBody(req *resty.Request, body map[string]any) {
	if len(body) == 0 {
		return
	}

	if !hasBinary(body) {
		req.SetBody(body)
		return
	}

	fields := map[string]string{}
	for k, v := range body {
		if content, ok := v.([]byte); ok {
			req.SetFileReader(k, k, bytes.NewReader(content))
			continue
		}
		fields[k] = stringify(v)
	}
	req.SetMultipartFormData(fields)
}

func hasBinary(body map[string]any) bool {
	for _, v := range body {
		if _, ok := v.([]byte); ok {
			return true
		}
	}
	return false
}

func stringify(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case fmt.Stringer:
		return s.String()
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(encoded)
	}
}

// normalizeError runs the extractor chain over the backend's error
// payload. Unrecognized shapes degrade to UnparsedBackendError with the
// raw payload attached.
func (e *Executor) normalizeError(status int, raw map[string]any) error {
	for _, extract := range e.extractors {
		if detail, ok := extract(raw); ok {
			return &ErrorEnvelope{
				Status:        status,
				Kind:          kindForStatus(status),
				Message:       detail,
				BackendDetail: detail,
			}
		}
	}
	return &UnparsedBackendError{Status: status, Raw: raw}
}

func kindForStatus(status int) string {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return "auth"
	case status >= 400 && status < 500:
		return "request"
	default:
		return "server"
	}
}

func classify(ctx context.Context, err error) NetworkReason {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ReasonTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ReasonTimeout
	}
	return ReasonUnreachable
}
