package network

import (
	"context"
	"net"
	"time"

	"github.com/rs/zerolog"
)

const DefaultPollInterval = 500 * time.Millisecond

// Interface watches the association of a network interface. An empty name
// matches any non-loopback interface.
type Interface struct {
	name         string
	pollInterval time.Duration
	logger       zerolog.Logger

	interfaces func() ([]net.Interface, error)
	addrs      func(iface net.Interface) ([]net.Addr, error)
}

func NewInterface(name string, pollInterval time.Duration, logger zerolog.Logger) *Interface {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}

	return &Interface{
		name:         name,
		pollInterval: pollInterval,
		logger:       logger.With().Str("component", "Network").Logger(),

		interfaces: net.Interfaces,
		addrs: func(iface net.Interface) ([]net.Addr, error) {
			return iface.Addrs()
		},
	}
}

// Up reports whether the interface is up and has at least one address.
func (i *Interface) Up() bool {
	ifaces, err := i.interfaces()
	if err != nil {
		i.logger.Debug().Err(err).Msg("Could not list network interfaces")

		return false
	}

	for _, iface := range ifaces {
		if i.name != "" && iface.Name != i.name {
			continue
		}

		if i.name == "" && iface.Flags&net.FlagLoopback != 0 {
			continue
		}

		if iface.Flags&net.FlagUp == 0 {
			continue
		}

		addrs, err := i.addrs(iface)
		if err == nil && len(addrs) > 0 {
			return true
		}
	}

	return false
}

// Associate blocks until the interface is up, polling at the configured interval.
func (i *Interface) Associate(ctx context.Context) error {
	if i.Up() {
		return nil
	}

	i.logger.Info().Str("interface", i.name).Msg("Waiting for network link")

	ticker := time.NewTicker(i.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if i.Up() {
				i.logger.Info().Str("interface", i.name).Msg("Network link up")

				return nil
			}
		}
	}
}
