package services

import (
	"context"
	"errors"
	"time"

	mqttapi "github.com/pojntfx/water-feeder/pkg/api/mqtt"
	"github.com/pojntfx/water-feeder/pkg/devices"
	"github.com/pojntfx/water-feeder/pkg/state"
	"github.com/pojntfx/water-feeder/pkg/transport"
	"github.com/rs/zerolog"
)

var (
	ErrUnexpectedTopic = errors.New("message on unexpected topic")
)

// FeederDevices is the local hardware of the sensor/actuator node
type FeederDevices struct {
	Pump    devices.Pump
	Sensor  devices.MoistureSensor
	Button  devices.Button
	Display devices.Display
}

// Feeder is the sensor/actuator node. It owns the pump, measures moisture,
// obeys pump commands from the monitor and reports its state on the data topic.
type Feeder struct {
	store     *state.Store
	topics    mqttapi.Topics
	channel   Channel
	scheduler *Scheduler

	devices     FeederDevices
	calibration devices.Calibration

	button Edge
	status transport.ConnectionState
	shown  bool

	logger zerolog.Logger
}

func NewFeeder(
	store *state.Store,
	topics mqttapi.Topics,
	channel Channel,
	scheduler *Scheduler,
	devices FeederDevices,
	calibration devices.Calibration,
	logger zerolog.Logger,
) *Feeder {
	return &Feeder{
		store:     store,
		topics:    topics,
		channel:   channel,
		scheduler: scheduler,

		devices:     devices,
		calibration: calibration,

		logger: logger.With().Str("component", "Feeder").Logger(),
	}
}

// HandleMessage applies a pump command from the monitor. Commands which
// can't be decoded or carry no pump directive are discarded without
// touching the pump.
func (f *Feeder) HandleMessage(ctx context.Context, topic string, payload []byte) {
	f.logger.Debug().Msgf("HandleMessage(topic=%v, payload=%s)", topic, payload)

	if topic != f.topics.Command {
		f.logger.Warn().Err(ErrUnexpectedTopic).Str("topic", topic).Msg("Discarding message")

		return
	}

	on, ok, err := mqttapi.DecodePumpCommand(payload)
	if err != nil {
		f.logger.Warn().Err(err).Bytes("payload", payload).Msg("Discarding malformed pump command")

		return
	}

	if !ok {
		f.logger.Warn().Bytes("payload", payload).Msg("Discarding command without pump directive")

		return
	}

	f.setPump(on)

	// Acknowledge with a snapshot on the next tick
	f.store.ForcePublish()
}

// Toggle flips the pump after a local button press.
func (f *Feeder) Toggle() {
	f.logger.Debug().Msg("Toggle()")

	f.setPump(!f.store.PumpOn)

	f.store.ForcePublish()
}

func (f *Feeder) setPump(on bool) {
	f.store.PumpOn = on

	if err := f.devices.Pump.SetOn(on); err != nil {
		f.logger.Error().Err(err).Bool("on", on).Msg("Could not switch pump")

		return
	}

	f.logger.Info().Bool("on", on).Msg("Pump switched")
}

// Step samples the moisture probe and the button, redraws the display and
// publishes a snapshot if one is due.
func (f *Feeder) Step(ctx context.Context, now time.Time) {
	f.showStatus()

	if raw, err := f.devices.Sensor.ReadRaw(); err != nil {
		f.logger.Warn().Err(err).Msg("Could not read moisture probe, keeping last reading")
	} else {
		f.store.Moisture = f.calibration.Percentage(raw)
	}

	if held, err := f.devices.Button.Pressed(); err != nil {
		f.logger.Warn().Err(err).Msg("Could not read button")
	} else if f.button.Rising(held) {
		f.Toggle()
	}

	f.devices.Display.ShowPump(f.store.PumpOn)
	f.devices.Display.ShowMoisture(f.store.Moisture)

	f.logger.Debug().Int("moisture", f.store.Moisture).Bool("pump", f.store.PumpOn).Msg("Sampled")

	f.scheduler.Run(f.store, now)
}

func (f *Feeder) showStatus() {
	status := f.channel.State()
	if f.shown && status == f.status {
		return
	}

	f.status = status
	f.shown = true

	f.devices.Display.ShowStatus(status.String())
}

// OpenFeeder subscribes to pump commands and switches the pump to the
// stored state, which is off after a restart.
func OpenFeeder(feeder *Feeder, ctx context.Context) error {
	if err := feeder.channel.Subscribe(feeder.topics.Command); err != nil {
		return err
	}

	if err := feeder.devices.Pump.SetOn(feeder.store.PumpOn); err != nil {
		return err
	}

	feeder.devices.Display.ShowPump(feeder.store.PumpOn)
	feeder.devices.Display.ShowMoisture(feeder.store.Moisture)

	return nil
}

// CloseFeeder switches the pump off.
func CloseFeeder(feeder *Feeder) error {
	feeder.store.PumpOn = false

	return feeder.devices.Pump.SetOn(false)
}
