package backend

import "time"

// RequestEvent is emitted just before a call is issued.
type RequestEvent struct {
	Operation string
	Method    string
	URL       string
	Slot      string
	Seq       uint64
}

// ResponseEvent is emitted after a call settles, whether it succeeded,
// failed, or was superseded by a newer call for the same slot.
type ResponseEvent struct {
	Operation string
	Slot      string
	Seq       uint64
	Status    int
	Stale     bool
	Err       error
	Duration  time.Duration
}

// Hooks are pure observation callbacks for presentation layers (spinners,
// toasts). The executor itself has no UI knowledge; nil hooks are skipped.
type Hooks struct {
	OnRequest  func(RequestEvent)
	OnResponse func(ResponseEvent)
}

func (h Hooks) emitRequest(ev RequestEvent) {
	if h.OnRequest != nil {
		h.OnRequest(ev)
	}
}

func (h Hooks) emitResponse(ev ResponseEvent) {
	if h.OnResponse != nil {
		h.OnResponse(ev)
	}
}
