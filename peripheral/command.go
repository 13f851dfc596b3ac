package peripheral

// Command is a parsed write payload. Produced per write event, consumed
// immediately, never stored.
type Command int

const (
	CmdUnrecognized Command = iota
	CmdTurnOn
	CmdTurnOff
)

// Wire payloads and characteristic value literals. Clients compare these
// exact strings, so they must never be derived or reformatted.
const (
	PayloadOn  = "ON"
	PayloadOff = "OFF"

	ValueLEDOff  = "LED off"
	ValueGreenOn = "Green LED on"
	ValueRedOn   = "Red LED on"
)

// ParseCommand maps a raw payload to a Command by exact string comparison.
// Anything outside the closed set is CmdUnrecognized; the caller ignores it
// rather than failing the transport-level write.
func ParseCommand(payload []byte) Command {
	switch string(payload) {
	case PayloadOn:
		return CmdTurnOn
	case PayloadOff:
		return CmdTurnOff
	default:
		return CmdUnrecognized
	}
}

func (c Command) String() string {
	switch c {
	case CmdTurnOn:
		return "turn_on"
	case CmdTurnOff:
		return "turn_off"
	default:
		return "unrecognized"
	}
}
