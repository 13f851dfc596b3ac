// Package peripheral implements the tester's device model: two GATT
// characteristics (open and encrypted) whose writes drive a shared tri-state
// indicator and an optional notification back to the subscribed client.
//
// The package is transport-agnostic. The GATT binding translates stack
// callbacks into calls on Peripheral; everything with decision logic lives
// here so it can be exercised without a radio.
package peripheral

import (
	"fmt"
	"strings"
	"sync"

	"github.com/cornelk/hashmap"
	"github.com/sirupsen/logrus"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/srg/blip/internal/indicator"
	"github.com/srg/blip/internal/ringchan"
	"github.com/srg/blip/pkg/config"
)

// Peripheral is the device singleton: the advertised name, the shared
// indicator, and the two characteristics. Created once at startup and never
// recreated.
//
// The GATT stack delivers write callbacks and notify sessions on separate
// goroutines, so a single mutex serializes dispatch: the indicator update,
// the stored-value update, and the notification enqueue of one write are
// atomic to any observer.
type Peripheral struct {
	mu     sync.Mutex
	logger *logrus.Logger
	driver indicator.Driver

	name  string
	color indicator.Color

	// chars preserves declaration order (open first), which is also the
	// GATT database order and the snapshot order.
	chars *orderedmap.OrderedMap[string, *Characteristic]

	// subs tracks notify-enabled per characteristic UUID. Owned by the
	// subscription path; the dispatcher only reads it.
	subs *hashmap.Map[string, bool]

	events *ringchan.RingChannel[Event]
}

// New creates the peripheral with both characteristics at their initial
// state: indicator off, values "LED off", no subscriptions.
func New(cfg *config.Config, driver indicator.Driver, logger *logrus.Logger) *Peripheral {
	if logger == nil {
		logger = logrus.New()
	}
	if driver == nil {
		driver = indicator.Nop{}
	}

	p := &Peripheral{
		logger: logger,
		driver: driver,
		name:   cfg.Name,
		color:  indicator.Off,
		chars:  orderedmap.New[string, *Characteristic](),
		subs:   hashmap.New[string, bool](),
		events: ringchan.New[Event](cfg.EventBuffer),
	}

	for _, c := range []*Characteristic{
		newCharacteristic(normalizeUUID(cfg.OpenCharUUID), CharOpen, false),
		newCharacteristic(normalizeUUID(cfg.EncryptedCharUUID), CharEncrypted, true),
	} {
		p.chars.Set(c.uuid, c)
		p.subs.Set(c.uuid, false)
	}

	// Drive the hardware to the known initial state before advertising.
	driver.SetColor(indicator.Off)

	return p
}

// Name returns the advertised device name.
func (p *Peripheral) Name() string { return p.name }

// Characteristics returns both characteristics in declaration order.
func (p *Peripheral) Characteristics() []*Characteristic {
	out := make([]*Characteristic, 0, p.chars.Len())
	for pair := p.chars.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Value)
	}
	return out
}

// Lookup resolves a characteristic by UUID.
func (p *Peripheral) Lookup(uuid string) (*Characteristic, bool) {
	return p.chars.Get(normalizeUUID(uuid))
}

// IndicatorState returns the current indicator color.
func (p *Peripheral) IndicatorState() indicator.Color {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.color
}

// Read returns the characteristic's current value. Always permitted at the
// application layer; the transport has already enforced the access policy.
func (p *Peripheral) Read(uuid string) (string, error) {
	c, ok := p.Lookup(uuid)
	if !ok {
		return "", fmt.Errorf("unknown characteristic %q", uuid)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return c.value, nil
}

// Write dispatches an inbound characteristic write: recognized payloads move
// the indicator and the stored value and, when the client has subscribed,
// queue a notification carrying the new value. Unrecognized payloads change
// nothing — the transport still acknowledges the write, the event is only
// logged.
//
// Side-effect order is fixed: indicator first (so a failed notification can
// never hide a physical change), then the stored value, then the
// notification. All three happen under one lock.
func (p *Peripheral) Write(uuid string, payload []byte, peer string) error {
	c, ok := p.Lookup(uuid)
	if !ok {
		return fmt.Errorf("unknown characteristic %q", uuid)
	}

	cmd := ParseCommand(payload)

	p.mu.Lock()
	defer p.mu.Unlock()

	switch cmd {
	case CmdTurnOn:
		if c.encrypted {
			p.setColor(indicator.Red)
			c.value = ValueRedOn
		} else {
			p.setColor(indicator.Green)
			c.value = ValueGreenOn
		}
	case CmdTurnOff:
		p.setColor(indicator.Off)
		c.value = ValueLEDOff
	default:
		p.logger.WithFields(logrus.Fields{
			"char":    c.name,
			"payload": string(payload),
		}).Warn("Received unexpected value")
		p.emit(Event{Type: EventWriteIgnored, Characteristic: c.name, Peer: peer, Payload: string(payload)})
		return nil
	}

	p.logger.WithFields(logrus.Fields{
		"char":  c.name,
		"led":   p.color.String(),
		"value": c.value,
	}).Info("Write applied")
	p.emit(Event{Type: EventWriteAccepted, Characteristic: c.name, Peer: peer, Payload: string(payload), Value: c.value})

	if enabled, _ := p.subs.Get(c.uuid); enabled {
		c.notifyQ.Send(c.value)
		p.emit(Event{Type: EventNotify, Characteristic: c.name, Value: c.value})
	}

	return nil
}

// SetNotify records a subscription change for the characteristic. The
// transport calls this when the client's notify session starts and ends.
func (p *Peripheral) SetNotify(uuid string, enabled bool) error {
	c, ok := p.Lookup(uuid)
	if !ok {
		return fmt.Errorf("unknown characteristic %q", uuid)
	}

	p.subs.Set(c.uuid, enabled)

	typ := EventSubscribed
	if !enabled {
		typ = EventUnsubscribed
	}
	p.logger.WithFields(logrus.Fields{"char": c.name, "enabled": enabled}).Debug("Subscription changed")
	p.emit(Event{Type: typ, Characteristic: c.name})
	return nil
}

// NotifyEnabled reports whether the client has enabled notifications for the
// characteristic.
func (p *Peripheral) NotifyEnabled(uuid string) bool {
	enabled, _ := p.subs.Get(normalizeUUID(uuid))
	return enabled
}

// Connected observes a central connecting. Pure observer: nothing is reset,
// a reconnecting client inherits prior values.
func (p *Peripheral) Connected(peer string) {
	p.logger.WithField("peer", peer).Info("Device connected")
	p.emit(Event{Type: EventConnected, Peer: peer})
}

// Disconnected observes a central disconnecting. Subscription flags are not
// touched here; the transport's notify session teardown clears them via
// SetNotify.
func (p *Peripheral) Disconnected(peer string) {
	p.logger.WithField("peer", peer).Info("Device disconnected")
	p.emit(Event{Type: EventDisconnected, Peer: peer})
}

// Events returns the event stream. Oldest events are dropped if the consumer
// falls behind; emitting is never fatal and never blocks.
func (p *Peripheral) Events() <-chan Event {
	return p.events.C()
}

// DrainEvents returns all currently buffered events without blocking.
func (p *Peripheral) DrainEvents() []Event {
	var out []Event
	for {
		e, ok := p.events.TryReceive()
		if !ok {
			return out
		}
		out = append(out, e)
	}
}

// setColor drives the indicator and records the state. Callers hold p.mu.
func (p *Peripheral) setColor(c indicator.Color) {
	p.color = c
	p.driver.SetColor(c)
}

func (p *Peripheral) emit(e Event) {
	p.events.Send(e)
}

// normalizeUUID lowercases a UUID so lookups are insensitive to the casing
// the stack reports.
func normalizeUUID(uuid string) string {
	return strings.ToLower(uuid)
}
