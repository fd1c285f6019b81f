package services

import (
	"context"
	"encoding/json"
	"time"

	mqttapi "github.com/pojntfx/water-feeder/pkg/api/mqtt"
	"github.com/pojntfx/water-feeder/pkg/devices"
	"github.com/pojntfx/water-feeder/pkg/state"
	"github.com/pojntfx/water-feeder/pkg/transport"
	"github.com/rs/zerolog"
)

// Recorder keeps a log of the snapshots received from the feeder
type Recorder interface {
	Record(ctx context.Context, moisture int, pumpOn bool, at time.Time) error
}

// Monitor is the monitor/control node. It shows the feeder's last reported
// state and sends pump commands when the operator presses the button.
type Monitor struct {
	store   *state.Store
	topics  mqttapi.Topics
	channel Channel

	button   devices.Button
	display  devices.Display
	recorder Recorder

	edge   Edge
	status transport.ConnectionState
	shown  bool

	now    func() time.Time
	logger zerolog.Logger
}

// NewMonitor creates a monitor. recorder may be nil.
func NewMonitor(
	store *state.Store,
	topics mqttapi.Topics,
	channel Channel,
	button devices.Button,
	display devices.Display,
	recorder Recorder,
	logger zerolog.Logger,
) *Monitor {
	return &Monitor{
		store:   store,
		topics:  topics,
		channel: channel,

		button:   button,
		display:  display,
		recorder: recorder,

		now:    time.Now,
		logger: logger.With().Str("component", "Monitor").Logger(),
	}
}

// HandleMessage applies a snapshot from the feeder. The moisture is always
// redrawn; the pump button only if its state changed.
func (m *Monitor) HandleMessage(ctx context.Context, topic string, payload []byte) {
	m.logger.Debug().Msgf("HandleMessage(topic=%v, payload=%s)", topic, payload)

	if topic != m.topics.Data {
		m.logger.Warn().Err(ErrUnexpectedTopic).Str("topic", topic).Msg("Discarding message")

		return
	}

	update, err := mqttapi.DecodeMoistureData(payload)
	if err != nil {
		m.logger.Warn().Err(err).Bytes("payload", payload).Msg("Discarding malformed moisture data")

		return
	}

	if update.HasMoisture {
		m.store.Moisture = update.Moisture
		m.display.ShowMoisture(update.Moisture)
	}

	if update.HasPump && update.PumpOn != m.store.PumpOn {
		m.store.PumpOn = update.PumpOn
		m.display.ShowPump(update.PumpOn)
	}

	// Pump-only updates carry no reading
	if m.recorder != nil && update.HasMoisture {
		if err := m.recorder.Record(ctx, m.store.Moisture, m.store.PumpOn, m.now()); err != nil {
			m.logger.Warn().Err(err).Msg("Could not record snapshot")
		}
	}
}

// Toggle flips the desired pump state after a button press and sends it to
// the feeder. If the channel is down the command is lost.
func (m *Monitor) Toggle() {
	m.logger.Debug().Msg("Toggle()")

	on := m.store.TogglePump()
	m.display.ShowPump(on)

	payload, err := json.Marshal(mqttapi.PumpCommand{
		Pump: mqttapi.PumpValue(on),
	})
	if err != nil {
		m.logger.Error().Err(err).Msg("Could not encode pump command")

		return
	}

	if err := m.channel.Publish(m.topics.Command, payload, false); err != nil {
		m.logger.Warn().Err(err).Str("topic", m.topics.Command).Msg("Publish failed, pump command lost")

		return
	}

	m.logger.Info().Str("topic", m.topics.Command).RawJSON("payload", payload).Msg("Published pump command")
}

// Step samples the button and toggles the pump on a press.
func (m *Monitor) Step(ctx context.Context, now time.Time) {
	m.showStatus()

	held, err := m.button.Pressed()
	if err != nil {
		m.logger.Warn().Err(err).Msg("Could not read button")

		return
	}

	if m.edge.Rising(held) {
		m.Toggle()
	}
}

func (m *Monitor) showStatus() {
	status := m.channel.State()
	if m.shown && status == m.status {
		return
	}

	m.status = status
	m.shown = true

	m.display.ShowStatus(status.String())
}

// OpenMonitor subscribes to the feeder's data topic and draws the initial view.
func OpenMonitor(monitor *Monitor, ctx context.Context) error {
	if err := monitor.channel.Subscribe(monitor.topics.Data); err != nil {
		return err
	}

	monitor.display.ShowPump(monitor.store.PumpOn)
	monitor.display.ShowMoisture(monitor.store.Moisture)

	return nil
}
