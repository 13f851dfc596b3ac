// Package indicator abstracts the tester's physical indicator light.
//
// On the original hardware this is a NeoPixel; here the "LED" is rendered to a
// terminal so the peripheral can run anywhere. Drivers are synchronous and
// idempotent: re-driving the current color is allowed and has no side effect
// beyond the render itself.
package indicator

// Color is the tri-state indicator color.
type Color int

const (
	Off Color = iota
	Green
	Red
)

// String returns the lowercase color name used in logs and snapshots.
func (c Color) String() string {
	switch c {
	case Green:
		return "green"
	case Red:
		return "red"
	case Off:
		return "off"
	default:
		return "unknown"
	}
}

// Driver drives the physical (or emulated) indicator.
//
// SetColor must complete synchronously and quickly: it runs on transport
// callbacks and must not stall the stack's event processing. Hardware-level
// failures are not modeled, so there is no error return.
type Driver interface {
	SetColor(c Color)
}

// Nop is a Driver that discards all updates.
type Nop struct{}

func (Nop) SetColor(Color) {}
