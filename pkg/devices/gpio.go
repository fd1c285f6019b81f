package devices

import (
	"errors"
	"fmt"

	"gobot.io/x/gobot/v2/drivers/gpio"
	"gobot.io/x/gobot/v2/drivers/i2c"
	"gobot.io/x/gobot/v2/platforms/raspi"
)

var (
	ErrNotConfigured = errors.New("not configured on this board")
)

// DigitalReader reads the level of a GPIO pin
type DigitalReader interface {
	DigitalRead(pin string) (int, error)
}

// AnalogReader reads a channel of an analog to digital converter
type AnalogReader interface {
	AnalogRead(pin string) (int, error)
}

// Board bundles the GPIO hardware of a Raspberry Pi based node: a relay for
// the pump, a push button and an ADS1115 converter for the moisture probe.
type Board struct {
	adaptor *raspi.Adaptor
	relay   *gpio.RelayDriver
	adc     *i2c.ADS1x15Driver
}

type BoardConfig struct {
	PumpPin   string
	ButtonPin string
	// Empty disables the converter, for nodes without a moisture probe
	SensorChannel string
}

func OpenBoard(cfg BoardConfig) (*Board, error) {
	adaptor := raspi.NewAdaptor()
	if err := adaptor.Connect(); err != nil {
		return nil, fmt.Errorf("could not connect to GPIO adaptor: %w", err)
	}

	b := &Board{adaptor: adaptor}

	if cfg.PumpPin != "" {
		b.relay = gpio.NewRelayDriver(adaptor, cfg.PumpPin)
		if err := b.relay.Start(); err != nil {
			_ = adaptor.Finalize()

			return nil, fmt.Errorf("could not start pump relay on pin %v: %w", cfg.PumpPin, err)
		}
	}

	if cfg.SensorChannel != "" {
		b.adc = i2c.NewADS1115Driver(adaptor)
		if err := b.adc.Start(); err != nil {
			_ = adaptor.Finalize()

			return nil, fmt.Errorf("could not start ADS1115 converter: %w", err)
		}
	}

	return b, nil
}

// Pump returns the relay, or ErrNotConfigured if the board has no pump pin.
func (b *Board) Pump() (Pump, error) {
	if b.relay == nil {
		return nil, fmt.Errorf("pump relay: %w", ErrNotConfigured)
	}

	return &RelayPump{relay: b.relay}, nil
}

func (b *Board) Adaptor() *raspi.Adaptor {
	return b.adaptor
}

func (b *Board) ADC() (AnalogReader, error) {
	if b.adc == nil {
		return nil, fmt.Errorf("ADS1115 converter: %w", ErrNotConfigured)
	}

	return b.adc, nil
}

func (b *Board) Close() error {
	if b.adc != nil {
		_ = b.adc.Halt()
	}

	return b.adaptor.Finalize()
}

// RelayPump switches the pump through a GPIO relay
type RelayPump struct {
	relay *gpio.RelayDriver
}

func (p *RelayPump) SetOn(on bool) error {
	if on {
		return p.relay.On()
	}

	return p.relay.Off()
}

// DigitalButton samples a push button on a GPIO pin
type DigitalButton struct {
	reader    DigitalReader
	pin       string
	activeLow bool
}

// NewDigitalButton creates a button. Buttons wired against a pull-up read
// low while pressed and need activeLow.
func NewDigitalButton(reader DigitalReader, pin string, activeLow bool) *DigitalButton {
	return &DigitalButton{reader, pin, activeLow}
}

func (b *DigitalButton) Pressed() (bool, error) {
	level, err := b.reader.DigitalRead(b.pin)
	if err != nil {
		return false, err
	}

	return (level != 0) != b.activeLow, nil
}

// AnalogSensor samples the moisture probe through an ADC channel
type AnalogSensor struct {
	reader  AnalogReader
	channel string
}

func NewAnalogSensor(reader AnalogReader, channel string) *AnalogSensor {
	return &AnalogSensor{reader, channel}
}

func (s *AnalogSensor) ReadRaw() (int, error) {
	return s.reader.AnalogRead(s.channel)
}
