// Package devices contains the local hardware of a node: the pump relay, the
// analog moisture probe, the momentary override button and the display.
package devices

import "github.com/rs/zerolog"

// Pump drives the pump relay
type Pump interface {
	SetOn(on bool) error
}

// MoistureSensor samples the raw analog value of the soil moisture probe
type MoistureSensor interface {
	ReadRaw() (int, error)
}

// Button reports the current level of a momentary control, true while held
type Button interface {
	Pressed() (bool, error)
}

// Display renders the node's view of the feeder
type Display interface {
	ShowStatus(status string)
	ShowMoisture(percentage int)
	ShowPump(on bool)
}

// LoggingPump stands in for a relay on nodes without pump hardware
type LoggingPump struct {
	logger zerolog.Logger
}

func NewLoggingPump(logger zerolog.Logger) *LoggingPump {
	return &LoggingPump{
		logger: logger.With().Str("component", "Pump").Logger(),
	}
}

func (p *LoggingPump) SetOn(on bool) error {
	p.logger.Info().Bool("on", on).Msg("Pump switched")

	return nil
}

// StaticSensor always returns the same raw sample. Useful for bench setups.
type StaticSensor struct {
	Raw int
}

func (s StaticSensor) ReadRaw() (int, error) {
	return s.Raw, nil
}
