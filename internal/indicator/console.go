package indicator

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// Console renders the indicator as a colored block on a terminal.
//
// When the output is not a TTY (CI, piped output) the block degrades to a
// plain-text label so transcripts stay readable. Brightness mirrors the
// original hardware's 0-255 pixel brightness: the lower third renders faint,
// the upper third bold.
type Console struct {
	mu         sync.Mutex
	out        io.Writer
	isTerminal bool
	brightness uint8
}

// NewConsole creates a Console writing to out. Color output is enabled only
// when out is os.Stdout/os.Stderr attached to a terminal.
func NewConsole(out io.Writer, brightness uint8) *Console {
	isTerminal := false
	if f, ok := out.(*os.File); ok {
		isTerminal = term.IsTerminal(int(f.Fd()))
	}
	return &Console{
		out:        out,
		isTerminal: isTerminal,
		brightness: brightness,
	}
}

// SetColor renders the indicator state. Safe for concurrent use.
func (c *Console) SetColor(col Color) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.isTerminal {
		fmt.Fprintf(c.out, "LED: %s\n", col)
		return
	}

	attrs := []color.Attribute{c.fg(col)}
	switch {
	case c.brightness < 85:
		attrs = append(attrs, color.Faint)
	case c.brightness >= 170:
		attrs = append(attrs, color.Bold)
	}

	block := color.New(attrs...)
	block.EnableColor()
	fmt.Fprintf(c.out, "LED: %s %s\n", block.Sprint("●"), col)
}

func (c *Console) fg(col Color) color.Attribute {
	switch col {
	case Green:
		return color.FgGreen
	case Red:
		return color.FgRed
	default:
		return color.FgBlack
	}
}
