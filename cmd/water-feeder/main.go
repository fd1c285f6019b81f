package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	mqttapi "github.com/pojntfx/water-feeder/pkg/api/mqtt"
	"github.com/pojntfx/water-feeder/pkg/config"
	"github.com/pojntfx/water-feeder/pkg/devices"
	"github.com/pojntfx/water-feeder/pkg/logging"
	"github.com/pojntfx/water-feeder/pkg/network"
	"github.com/pojntfx/water-feeder/pkg/services"
	"github.com/pojntfx/water-feeder/pkg/state"
	"github.com/pojntfx/water-feeder/pkg/transport"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
)

func main() {
	cfg, err := config.Parse(config.RoleFeeder, pflag.CommandLine, os.Args[1:])
	if err != nil {
		panic(err)
	}

	logger := logging.New("water-feeder", cfg.Verbose)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	hardware, closeHardware, err := openHardware(cfg.Hardware, logger)
	if err != nil {
		panic(err)
	}
	defer closeHardware()

	tlsConfig, err := transport.NewTLSConfig(cfg.Broker.CAFile, cfg.Broker.CertFile, cfg.Broker.KeyFile)
	if err != nil {
		panic(err)
	}

	client := mqtt.NewClient(transport.NewClientOptions(
		cfg.Broker.Endpoint,
		cfg.Broker.ThingName,
		tlsConfig,
		cfg.Broker.KeepAlive,
		cfg.Broker.ConnectTimeout,
	))

	link := transport.NewLink(
		client,
		network.NewInterface(cfg.Network.Interface, cfg.Network.PollInterval, logger),
		transport.Options{
			RetryDelay:     cfg.Broker.RetryDelay,
			ConnectTimeout: cfg.Broker.ConnectTimeout,
			QueueSize:      cfg.Topics.QueueSize,
		},
		logger,
	)
	defer link.Close()

	topics := mqttapi.NewTopics(cfg.Topics.Prefix, cfg.Topics.DeviceID)

	feeder := services.NewFeeder(
		state.NewStore(),
		topics,
		link,
		services.NewScheduler(link, topics.Data, cfg.Timing.PublishInterval, logger),
		hardware,
		devices.Calibration{
			DryValue: float64(cfg.Hardware.DryValue),
			Range:    float64(cfg.Hardware.Range),
		},
		logger,
	)

	if err := services.OpenFeeder(feeder, ctx); err != nil {
		panic(err)
	}
	defer func() {
		if err := services.CloseFeeder(feeder); err != nil {
			logger.Error().Err(err).Msg("Could not switch pump off")
		}
	}()

	logger.Info().
		Str("endpoint", cfg.Broker.Endpoint).
		Str("cmd", topics.Command).
		Str("data", topics.Data).
		Str("backend", cfg.Hardware.Backend).
		Msg("Water feeder started")

	if err := services.NewControlLoop(link, feeder, cfg.Timing.Tick, logger).Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		panic(err)
	}

	logger.Info().Msg("Shutting down")
}

func openHardware(cfg config.HardwareConfig, logger zerolog.Logger) (services.FeederDevices, func(), error) {
	hardware := services.FeederDevices{
		Pump:    devices.NewLoggingPump(logger),
		Sensor:  devices.StaticSensor{Raw: cfg.StaticRaw},
		Button:  devices.NewLineButton(os.Stdin),
		Display: devices.NewConsoleDisplay(os.Stdout, devices.DefaultGaugeWidth),
	}

	switch cfg.Backend {
	case config.BackendGPIO:
		board, err := devices.OpenBoard(devices.BoardConfig{
			PumpPin:       cfg.PumpPin,
			ButtonPin:     cfg.ButtonPin,
			SensorChannel: cfg.SensorChannel,
		})
		if err != nil {
			return services.FeederDevices{}, nil, err
		}

		closeBoard := func() {
			if err := board.Close(); err != nil {
				logger.Warn().Err(err).Msg("Could not close board")
			}
		}

		if hardware.Pump, err = board.Pump(); err != nil {
			closeBoard()

			return services.FeederDevices{}, nil, err
		}

		adc, err := board.ADC()
		if err != nil {
			closeBoard()

			return services.FeederDevices{}, nil, err
		}

		hardware.Sensor = devices.NewAnalogSensor(adc, cfg.SensorChannel)

		if cfg.ButtonPin != "" {
			hardware.Button = devices.NewDigitalButton(board.Adaptor(), cfg.ButtonPin, cfg.ButtonActiveLow)
		}

		return hardware, closeBoard, nil

	case config.BackendIoTee:
		board, err := devices.OpenIoTee(cfg.SerialDevice, cfg.Baud)
		if err != nil {
			return services.FeederDevices{}, nil, err
		}

		hardware.Pump = devices.NewIoTeePump(board)

		return hardware, board.Close, nil

	default:
		return hardware, func() {}, nil
	}
}
