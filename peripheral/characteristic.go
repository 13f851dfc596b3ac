package peripheral

import (
	"github.com/srg/blip/internal/ringchan"
)

// Characteristic names, stable across logs, events, and snapshots.
const (
	CharOpen      = "open"
	CharEncrypted = "encrypted"
)

// notifyQueueCap bounds pending notifications per characteristic. A client
// slower than the writer loses the oldest values; the latest state always
// gets through.
const notifyQueueCap = 16

// Characteristic is one logical channel of the tester service. Two instances
// exist for the process lifetime: open and encrypted. They are siblings with
// independent values; writing one never mutates the other.
type Characteristic struct {
	uuid      string
	name      string
	encrypted bool

	// value is guarded by the owning Peripheral's mutex.
	value string

	notifyQ *ringchan.RingChannel[string]
}

func newCharacteristic(uuid, name string, encrypted bool) *Characteristic {
	return &Characteristic{
		uuid:      uuid,
		name:      name,
		encrypted: encrypted,
		value:     ValueLEDOff,
		notifyQ:   ringchan.New[string](notifyQueueCap),
	}
}

// UUID returns the characteristic's identity as configured.
func (c *Characteristic) UUID() string { return c.uuid }

// Name returns the logical name, "open" or "encrypted".
func (c *Characteristic) Name() string { return c.name }

// Encrypted reports whether the access policy requires an encrypted link.
// The transport enforces this before a write ever reaches the dispatcher.
func (c *Characteristic) Encrypted() bool { return c.encrypted }

// Notifications returns the channel the transport's notify session drains.
// Values appear here only for writes accepted while the subscription was
// enabled.
func (c *Characteristic) Notifications() <-chan string { return c.notifyQ.C() }
