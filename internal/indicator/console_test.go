package indicator

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestColorString(t *testing.T) {
	tests := []struct {
		name     string
		color    Color
		expected string
	}{
		{name: "off", color: Off, expected: "off"},
		{name: "green", color: Green, expected: "green"},
		{name: "red", color: Red, expected: "red"},
		{name: "out of range", color: Color(42), expected: "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.color.String())
		})
	}
}

func TestConsole_PlainTextWhenNotTerminal(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, 127)

	c.SetColor(Green)
	c.SetColor(Off)

	assert.Equal(t, "LED: green\nLED: off\n", buf.String())
}

func TestConsole_SetColorIsRepeatable(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, 127)

	c.SetColor(Red)
	first := buf.String()
	c.SetColor(Red)

	// Same color twice just re-renders the same line.
	assert.Equal(t, first+first, buf.String())
}
