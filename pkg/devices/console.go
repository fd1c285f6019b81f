package devices

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"sync/atomic"
)

const DefaultGaugeWidth = 20

// ConsoleDisplay renders the node's view as text lines, one per redraw
type ConsoleDisplay struct {
	out        io.Writer
	gaugeWidth int
}

func NewConsoleDisplay(out io.Writer, gaugeWidth int) *ConsoleDisplay {
	if gaugeWidth <= 0 {
		gaugeWidth = DefaultGaugeWidth
	}

	return &ConsoleDisplay{out, gaugeWidth}
}

func (d *ConsoleDisplay) ShowStatus(status string) {
	fmt.Fprintf(d.out, "[%v]\n", status)
}

func (d *ConsoleDisplay) ShowMoisture(percentage int) {
	filled := GaugeFill(percentage, d.gaugeWidth)

	fmt.Fprintf(d.out, "Moisture: %v %% [%v%v]\n", percentage, strings.Repeat("#", filled), strings.Repeat(".", d.gaugeWidth-filled))
}

func (d *ConsoleDisplay) ShowPump(on bool) {
	label := "OFF"
	if on {
		label = "O N"
	}

	fmt.Fprintf(d.out, "Pump: %v\n", label)
}

// GaugeFill returns how much of a gauge of the given width a percentage
// fills, clamped to [0, width].
func GaugeFill(percentage, width int) int {
	filled := percentage * width / 100

	if filled < 0 {
		return 0
	}

	if filled > width {
		return width
	}

	return filled
}

// LineButton turns every line read from an input stream into one press.
// Each press is reported as held for a single sample, followed by a
// released sample.
type LineButton struct {
	presses atomic.Int64
	held    bool
}

// NewLineButton starts reading lines from in until it is exhausted.
func NewLineButton(in io.Reader) *LineButton {
	b := &LineButton{}

	go func() {
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			b.presses.Add(1)
		}
	}()

	return b
}

func (b *LineButton) Pressed() (bool, error) {
	if b.held {
		b.held = false

		return false, nil
	}

	if b.presses.Load() > 0 {
		b.presses.Add(-1)
		b.held = true

		return true, nil
	}

	return false, nil
}
