package runtime

import (
	"go.uber.org/atomic"
)

type LinkState int32

const (
	Disconnected LinkState = iota
	Connecting
	Connected
	Reconnecting
	Stopped
)

var LinkStateToString = map[LinkState]string{
	Disconnected: "disconnected",
	Connecting:   "connecting",
	Connected:    "connected",
	Reconnecting: "reconnecting",
	Stopped:      "stopped",
}

func (s LinkState) String() string {
	if v, ok := LinkStateToString[s]; ok {
		return v
	}
	return "unknown"
}

// LinkStats is shared between a link worker and the status API. All fields are safe for concurrent use.
type LinkStats struct {
	state atomic.Int32

	Received   atomic.Uint64 // lines or messages read from the link
	Queued     atomic.Uint64 // items handed to the opposite worker
	Sent       atomic.Uint64 // items written or published on the link
	Ignored    atomic.Uint64
	Malformed  atomic.Uint64
	Failed     atomic.Uint64
	Reconnects atomic.Uint64
}

func (s *LinkStats) State() LinkState {
	return LinkState(s.state.Load())
}

func (s *LinkStats) SetState(state LinkState) LinkState {
	return LinkState(s.state.Swap(int32(state)))
}

type LinkStatus struct {
	Name       string `json:"name"`
	State      string `json:"state"`
	Received   uint64 `json:"received"`
	Queued     uint64 `json:"queued"`
	Sent       uint64 `json:"sent"`
	Ignored    uint64 `json:"ignored"`
	Malformed  uint64 `json:"malformed"`
	Failed     uint64 `json:"failed"`
	Reconnects uint64 `json:"reconnects"`
}

func (s *LinkStats) Snapshot(name string) LinkStatus {
	return LinkStatus{
		Name:       name,
		State:      s.State().String(),
		Received:   s.Received.Load(),
		Queued:     s.Queued.Load(),
		Sent:       s.Sent.Load(),
		Ignored:    s.Ignored.Load(),
		Malformed:  s.Malformed.Load(),
		Failed:     s.Failed.Load(),
		Reconnects: s.Reconnects.Load(),
	}
}
