package services

import (
	"encoding/json"
	"time"

	mqttapi "github.com/pojntfx/water-feeder/pkg/api/mqtt"
	"github.com/pojntfx/water-feeder/pkg/state"
	"github.com/rs/zerolog"
)

const DefaultPublishInterval = time.Minute

// Scheduler decides when the feeder publishes a snapshot of its state.
// Snapshots are debounced by the publish interval unless the store's publish
// timer was reset. Nothing is queued while the channel is down; the next
// successful publication only reports the then current state.
type Scheduler struct {
	channel  Channel
	topic    string
	interval time.Duration
	logger   zerolog.Logger
}

func NewScheduler(channel Channel, topic string, interval time.Duration, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		channel:  channel,
		topic:    topic,
		interval: interval,
		logger:   logger.With().Str("component", "Scheduler").Logger(),
	}
}

// Run publishes a snapshot of store to the data topic if one is due and
// returns whether it did.
func (s *Scheduler) Run(store *state.Store, now time.Time) bool {
	if !s.channel.Connected() {
		return false
	}

	if !store.PublishDue(now, s.interval) {
		return false
	}

	payload, err := json.Marshal(mqttapi.MoistureData{
		Moisture: store.Moisture,
		Pump:     mqttapi.PumpValue(store.PumpOn),
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("Could not encode moisture data")

		return false
	}

	store.MarkPublished(now)

	if err := s.channel.Publish(s.topic, payload, true); err != nil {
		s.logger.Warn().Err(err).Str("topic", s.topic).Msg("Publish failed, snapshot lost")

		return true
	}

	s.logger.Info().Str("topic", s.topic).RawJSON("payload", payload).Msg("Published moisture data")

	return true
}
