package services

import (
	"context"
	"errors"
	"time"

	"github.com/pojntfx/water-feeder/pkg/transport"
)

var errFake = errors.New("fake failure")

type published struct {
	topic   string
	payload string
	retain  bool
}

type fakeChannel struct {
	state      transport.ConnectionState
	publishErr error

	subscribed []string
	published  []published
}

func (c *fakeChannel) Connected() bool {
	return c.state == transport.ChannelUp
}

func (c *fakeChannel) State() transport.ConnectionState {
	return c.state
}

func (c *fakeChannel) Subscribe(topic string) error {
	c.subscribed = append(c.subscribed, topic)

	return nil
}

func (c *fakeChannel) Publish(topic string, payload []byte, retain bool) error {
	if !c.Connected() {
		panic("publish while disconnected")
	}

	c.published = append(c.published, published{topic, string(payload), retain})

	return c.publishErr
}

type fakePump struct {
	calls []bool
	err   error
}

func (p *fakePump) SetOn(on bool) error {
	p.calls = append(p.calls, on)

	return p.err
}

type fakeSensor struct {
	raw int
	err error
}

func (s *fakeSensor) ReadRaw() (int, error) {
	return s.raw, s.err
}

// fakeButton replays a sequence of samples, then reports released
type fakeButton struct {
	samples []bool
}

func (b *fakeButton) Pressed() (bool, error) {
	if len(b.samples) == 0 {
		return false, nil
	}

	held := b.samples[0]
	b.samples = b.samples[1:]

	return held, nil
}

type fakeDisplay struct {
	statuses  []string
	moistures []int
	pumps     []bool
}

func (d *fakeDisplay) ShowStatus(status string) {
	d.statuses = append(d.statuses, status)
}

func (d *fakeDisplay) ShowMoisture(percentage int) {
	d.moistures = append(d.moistures, percentage)
}

func (d *fakeDisplay) ShowPump(on bool) {
	d.pumps = append(d.pumps, on)
}

type record struct {
	moisture int
	pumpOn   bool
	at       time.Time
}

type fakeRecorder struct {
	records []record
	err     error
}

func (r *fakeRecorder) Record(ctx context.Context, moisture int, pumpOn bool, at time.Time) error {
	r.records = append(r.records, record{moisture, pumpOn, at})

	return r.err
}
