package services

import (
	"context"
	"time"

	"github.com/pojntfx/water-feeder/pkg/transport"
	"github.com/rs/zerolog"
)

// Channel is the publishing side of the transport link
type Channel interface {
	Connected() bool
	State() transport.ConnectionState
	Subscribe(topic string) error
	Publish(topic string, payload []byte, retain bool) error
}

// Transport is the transport link as seen by the control loop
type Transport interface {
	EnsureConnected(ctx context.Context) error
	Drain(handler transport.Handler) int
}

// Node is one side of the feeder: the sensor/actuator node or the monitor
type Node interface {
	// HandleMessage reconciles a message delivered by the peer
	HandleMessage(ctx context.Context, topic string, payload []byte)
	// Step samples the local inputs, runs local actions and publishes
	Step(ctx context.Context, now time.Time)
}

// ControlLoop drives a node with a fixed tick. Everything runs on the
// caller's goroutine; the loop only blocks while reconnecting and while
// sleeping at the end of a tick.
type ControlLoop struct {
	transport Transport
	node      Node
	tick      time.Duration
	logger    zerolog.Logger

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func NewControlLoop(transport Transport, node Node, tick time.Duration, logger zerolog.Logger) *ControlLoop {
	return &ControlLoop{
		transport: transport,
		node:      node,
		tick:      tick,
		logger:    logger.With().Str("component", "Loop").Logger(),

		now:   time.Now,
		sleep: sleepCtx,
	}
}

// Tick runs a single iteration: reconnect if needed, reconcile inbound
// messages, then sample, act and publish.
func (l *ControlLoop) Tick(ctx context.Context) error {
	if err := l.transport.EnsureConnected(ctx); err != nil {
		return err
	}

	if n := l.transport.Drain(func(topic string, payload []byte) {
		l.node.HandleMessage(ctx, topic, payload)
	}); n > 0 {
		l.logger.Debug().Int("messages", n).Msg("Drained inbound queue")
	}

	l.node.Step(ctx, l.now())

	return nil
}

// Run ticks until ctx is cancelled, sleeping for whatever is left of each tick.
func (l *ControlLoop) Run(ctx context.Context) error {
	l.logger.Info().Dur("tick", l.tick).Msg("Control loop started")

	for {
		start := l.now()

		if err := l.Tick(ctx); err != nil {
			return err
		}

		remaining := l.tick - l.now().Sub(start)
		if remaining <= 0 {
			if err := ctx.Err(); err != nil {
				return err
			}

			continue
		}

		if err := l.sleep(ctx, remaining); err != nil {
			return err
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
