package services

// Edge turns level samples of a momentary control, taken once per tick,
// into press events. A press is a released sample followed by a held one.
type Edge struct {
	held bool
}

// Rising records the current sample and reports whether it is a press.
func (e *Edge) Rising(held bool) bool {
	pressed := held && !e.held
	e.held = held

	return pressed
}
