package peripheral

import (
	"fmt"
	"strings"
)

// EventType marks what happened on the peripheral.
type EventType int

const (
	EventConnected EventType = iota
	EventDisconnected
	EventWriteAccepted
	EventWriteIgnored
	EventSubscribed
	EventUnsubscribed
	EventNotify
)

func (t EventType) String() string {
	switch t {
	case EventConnected:
		return "connected"
	case EventDisconnected:
		return "disconnected"
	case EventWriteAccepted:
		return "write accepted"
	case EventWriteIgnored:
		return "write ignored"
	case EventSubscribed:
		return "subscribed"
	case EventUnsubscribed:
		return "unsubscribed"
	case EventNotify:
		return "notify"
	default:
		return "unknown"
	}
}

// Event is one observable state change, delivered through the peripheral's
// event ring. Consumers that fall behind lose the oldest events, never the
// peripheral's forward progress.
type Event struct {
	Type           EventType
	Characteristic string // "open" or "encrypted"; empty for lifecycle events
	Peer           string // remote address, when known
	Payload        string // raw payload of a write event
	Value          string // stored/notified value after a state change
}

// Transcript renders the event as a stable one-line record. Test scenarios
// compare whole transcripts, so the field order here is part of the format.
func (e Event) Transcript() string {
	var b strings.Builder
	b.WriteString(e.Type.String())
	if e.Characteristic != "" {
		fmt.Fprintf(&b, " char=%s", e.Characteristic)
	}
	if e.Peer != "" {
		fmt.Fprintf(&b, " peer=%s", e.Peer)
	}
	if e.Type == EventWriteAccepted || e.Type == EventWriteIgnored {
		fmt.Fprintf(&b, " payload=%q", e.Payload)
	}
	if e.Value != "" {
		fmt.Fprintf(&b, " value=%q", e.Value)
	}
	return b.String()
}
