package network

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func fakeInterface(name string, ifaces []net.Interface, withAddrs map[string]bool) *Interface {
	i := NewInterface(name, time.Millisecond, zerolog.Nop())
	i.interfaces = func() ([]net.Interface, error) {
		return ifaces, nil
	}
	i.addrs = func(iface net.Interface) ([]net.Addr, error) {
		if withAddrs[iface.Name] {
			return []net.Addr{&net.IPNet{IP: net.IPv4(192, 168, 1, 10), Mask: net.CIDRMask(24, 32)}}, nil
		}

		return nil, nil
	}

	return i
}

func TestUpNamedInterface(t *testing.T) {
	ifaces := []net.Interface{
		{Name: "lo", Flags: net.FlagUp | net.FlagLoopback},
		{Name: "wlan0", Flags: net.FlagUp},
	}

	if !fakeInterface("wlan0", ifaces, map[string]bool{"wlan0": true}).Up() {
		t.Fatalf("expected wlan0 to be up")
	}

	if fakeInterface("wlan0", ifaces, map[string]bool{}).Up() {
		t.Fatalf("expected wlan0 without addresses to be down")
	}

	if fakeInterface("eth0", ifaces, map[string]bool{"wlan0": true}).Up() {
		t.Fatalf("expected missing interface to be down")
	}
}

func TestUpAnyInterfaceIgnoresLoopback(t *testing.T) {
	ifaces := []net.Interface{
		{Name: "lo", Flags: net.FlagUp | net.FlagLoopback},
		{Name: "eth0", Flags: 0},
	}

	if fakeInterface("", ifaces, map[string]bool{"lo": true, "eth0": true}).Up() {
		t.Fatalf("expected loopback and downed interfaces to be ignored")
	}
}

func TestUpListError(t *testing.T) {
	i := NewInterface("", time.Millisecond, zerolog.Nop())
	i.interfaces = func() ([]net.Interface, error) {
		return nil, errors.New("netlink unavailable")
	}

	if i.Up() {
		t.Fatalf("expected interface listing errors to report the link as down")
	}
}

func TestAssociateWaitsForLink(t *testing.T) {
	ifaces := []net.Interface{{Name: "wlan0", Flags: 0}}
	i := fakeInterface("wlan0", ifaces, map[string]bool{"wlan0": true})

	polls := 0
	i.interfaces = func() ([]net.Interface, error) {
		polls++
		if polls >= 3 {
			return []net.Interface{{Name: "wlan0", Flags: net.FlagUp}}, nil
		}

		return ifaces, nil
	}

	if err := i.Associate(context.Background()); err != nil {
		t.Fatalf("unexpected error during Associate: %v", err)
	}

	if polls < 3 {
		t.Fatalf("expected Associate to poll until the link came up, polled %v times", polls)
	}
}

func TestAssociateCancelled(t *testing.T) {
	i := fakeInterface("wlan0", []net.Interface{{Name: "wlan0"}}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := i.Associate(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
