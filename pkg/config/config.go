// Package config loads the settings of the feeder binaries. Values are taken,
// in increasing priority, from the role defaults, a YAML file, FEEDER_*
// environment variables and explicitly set command line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	mqttapi "github.com/pojntfx/water-feeder/pkg/api/mqtt"
	"github.com/pojntfx/water-feeder/pkg/utils"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

var (
	ErrUnknownBackend = errors.New("unknown hardware backend")
	ErrInvalidValue   = errors.New("invalid configuration value")
)

type Role int

const (
	RoleFeeder Role = iota
	RoleMonitor
	RoleCtl
)

const (
	BackendNone  = "none"
	BackendGPIO  = "gpio"
	BackendIoTee = "iotee"
)

type Config struct {
	Broker   BrokerConfig   `yaml:"broker"`
	Topics   TopicsConfig   `yaml:"topics"`
	Timing   TimingConfig   `yaml:"timing"`
	Network  NetworkConfig  `yaml:"network"`
	Hardware HardwareConfig `yaml:"hardware"`

	// Empty disables the reading history
	HistoryPath string `yaml:"history_path"`
	Verbose     bool   `yaml:"verbose"`
}

type BrokerConfig struct {
	Endpoint string `yaml:"endpoint"`
	// Used as the MQTT client id; a random one is used if empty
	ThingName string `yaml:"thing_name"`

	CAFile   string `yaml:"ca_file"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`

	KeepAlive      time.Duration `yaml:"keep_alive"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	RetryDelay     time.Duration `yaml:"retry_delay"`
}

type TopicsConfig struct {
	Prefix    string `yaml:"prefix"`
	DeviceID  string `yaml:"device_id"`
	QueueSize int    `yaml:"queue_size"`
}

type TimingConfig struct {
	Tick            time.Duration `yaml:"tick"`
	PublishInterval time.Duration `yaml:"publish_interval"`
}

type NetworkConfig struct {
	// Empty accepts any non-loopback interface
	Interface    string        `yaml:"interface"`
	PollInterval time.Duration `yaml:"poll_interval"`
}

type HardwareConfig struct {
	Backend string `yaml:"backend"`

	PumpPin         string `yaml:"pump_pin"`
	ButtonPin       string `yaml:"button_pin"`
	ButtonActiveLow bool   `yaml:"button_active_low"`
	SensorChannel   string `yaml:"sensor_channel"`

	SerialDevice string `yaml:"serial_device"`
	Baud         int    `yaml:"baud"`

	DryValue int `yaml:"dry_value"`
	Range    int `yaml:"range"`
	// Raw sample reported by the "none" backend
	StaticRaw int `yaml:"static_raw"`
}

// Default returns the built-in settings of a role.
func Default(role Role) Config {
	cfg := Config{
		Broker: BrokerConfig{
			Endpoint:  "ssl://localhost:8883",
			ThingName: "DevDayWaterFeeder",

			CAFile:   filepath.Join("crypto", "ca.pem"),
			CertFile: filepath.Join("crypto", "client.crt"),
			KeyFile:  filepath.Join("crypto", "client.key"),

			KeepAlive:      30 * time.Second,
			ConnectTimeout: 10 * time.Second,
			RetryDelay:     5 * time.Second,
		},
		Topics: TopicsConfig{
			Prefix:    mqttapi.DefaultTopicPrefix,
			DeviceID:  "DevDayWaterFeeder",
			QueueSize: 16,
		},
		Timing: TimingConfig{
			Tick:            time.Second,
			PublishInterval: time.Minute,
		},
		Network: NetworkConfig{
			PollInterval: 500 * time.Millisecond,
		},
		Hardware: HardwareConfig{
			Backend: BackendNone,

			PumpPin:         "11",
			ButtonPin:       "13",
			ButtonActiveLow: true,
			SensorChannel:   "0",

			SerialDevice: "/dev/ttyACM0",
			Baud:         115200,

			DryValue:  2100,
			Range:     600,
			StaticRaw: 2100,
		},
	}

	switch role {
	case RoleMonitor:
		cfg.Broker.ThingName = "DevDayFeederMonitor"
		cfg.Timing.Tick = 500 * time.Millisecond
		cfg.Hardware.PumpPin = ""
		cfg.Hardware.SensorChannel = ""
		cfg.HistoryPath = "feeder-history.db"
	case RoleCtl:
		cfg.Broker.ThingName = ""
	}

	return cfg
}

// Load reads a YAML file over cfg. Keys missing from the file keep their
// current value.
func Load(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %v: %w", path, err)
	}

	return nil
}

// ApplyEnv overrides cfg with the FEEDER_* environment variables which are set.
func ApplyEnv(cfg *Config) error {
	var err error

	str := func(key string, v *string) {
		*v = utils.GetStringEnvOrDefault(key, *v)
	}
	num := func(key string, v *int) {
		if err != nil {
			return
		}
		*v, err = utils.GetIntEnvOrDefault(key, *v)
	}
	dur := func(key string, v *time.Duration) {
		if err != nil {
			return
		}
		*v, err = utils.GetDurationEnvOrDefault(key, *v)
	}
	flag := func(key string, v *bool) {
		if err != nil {
			return
		}
		*v, err = utils.GetBoolEnvOrDefault(key, *v)
	}

	str("FEEDER_ENDPOINT", &cfg.Broker.Endpoint)
	str("FEEDER_THING_NAME", &cfg.Broker.ThingName)
	str("FEEDER_CA_FILE", &cfg.Broker.CAFile)
	str("FEEDER_CERT_FILE", &cfg.Broker.CertFile)
	str("FEEDER_KEY_FILE", &cfg.Broker.KeyFile)
	dur("FEEDER_KEEP_ALIVE", &cfg.Broker.KeepAlive)
	dur("FEEDER_CONNECT_TIMEOUT", &cfg.Broker.ConnectTimeout)
	dur("FEEDER_RETRY_DELAY", &cfg.Broker.RetryDelay)

	str("FEEDER_TOPIC_PREFIX", &cfg.Topics.Prefix)
	str("FEEDER_DEVICE_ID", &cfg.Topics.DeviceID)
	num("FEEDER_QUEUE_SIZE", &cfg.Topics.QueueSize)

	dur("FEEDER_TICK", &cfg.Timing.Tick)
	dur("FEEDER_PUBLISH_INTERVAL", &cfg.Timing.PublishInterval)

	str("FEEDER_INTERFACE", &cfg.Network.Interface)
	dur("FEEDER_POLL_INTERVAL", &cfg.Network.PollInterval)

	str("FEEDER_BACKEND", &cfg.Hardware.Backend)
	str("FEEDER_PUMP_PIN", &cfg.Hardware.PumpPin)
	str("FEEDER_BUTTON_PIN", &cfg.Hardware.ButtonPin)
	flag("FEEDER_BUTTON_ACTIVE_LOW", &cfg.Hardware.ButtonActiveLow)
	str("FEEDER_SENSOR_CHANNEL", &cfg.Hardware.SensorChannel)
	str("FEEDER_SERIAL_DEVICE", &cfg.Hardware.SerialDevice)
	num("FEEDER_BAUD", &cfg.Hardware.Baud)
	num("FEEDER_DRY_VALUE", &cfg.Hardware.DryValue)
	num("FEEDER_RANGE", &cfg.Hardware.Range)
	num("FEEDER_STATIC_RAW", &cfg.Hardware.StaticRaw)

	str("FEEDER_HISTORY_PATH", &cfg.HistoryPath)
	flag("FEEDER_VERBOSE", &cfg.Verbose)

	return err
}

// BindFlags registers a flag for every setting on fs, bound to cfg.
func BindFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.Broker.Endpoint, "endpoint", cfg.Broker.Endpoint, "MQTT broker endpoint to connect to")
	fs.StringVar(&cfg.Broker.ThingName, "thing-name", cfg.Broker.ThingName, "Thing name, used as the MQTT client ID (random if empty)")
	fs.StringVar(&cfg.Broker.CAFile, "ca-file", cfg.Broker.CAFile, "mTLS CA")
	fs.StringVar(&cfg.Broker.CertFile, "cert-file", cfg.Broker.CertFile, "mTLS certificate")
	fs.StringVar(&cfg.Broker.KeyFile, "key-file", cfg.Broker.KeyFile, "mTLS secret key")
	fs.DurationVar(&cfg.Broker.KeepAlive, "keep-alive", cfg.Broker.KeepAlive, "MQTT keep alive interval")
	fs.DurationVar(&cfg.Broker.ConnectTimeout, "connect-timeout", cfg.Broker.ConnectTimeout, "Amount of time after which a connection attempt is assumed to have failed")
	fs.DurationVar(&cfg.Broker.RetryDelay, "retry-delay", cfg.Broker.RetryDelay, "Amount of time to wait between connection attempts")

	fs.StringVar(&cfg.Topics.Prefix, "topic-prefix", cfg.Topics.Prefix, "Prefix of the cmd and data topics")
	fs.StringVar(&cfg.Topics.DeviceID, "device-id", cfg.Topics.DeviceID, "ID of the feeder in the cmd and data topics")
	fs.IntVar(&cfg.Topics.QueueSize, "queue-size", cfg.Topics.QueueSize, "Amount of inbound messages to buffer between ticks")

	fs.DurationVar(&cfg.Timing.Tick, "tick", cfg.Timing.Tick, "Duration of one control loop iteration")
	fs.DurationVar(&cfg.Timing.PublishInterval, "publish-interval", cfg.Timing.PublishInterval, "Minimum amount of time between two unforced snapshots")

	fs.StringVar(&cfg.Network.Interface, "interface", cfg.Network.Interface, "Network interface to wait for (any non-loopback interface if empty)")
	fs.DurationVar(&cfg.Network.PollInterval, "poll-interval", cfg.Network.PollInterval, "Interval in which the network interface is polled while down")

	fs.StringVar(&cfg.Hardware.Backend, "backend", cfg.Hardware.Backend, "Hardware backend to use (none, gpio or iotee)")
	fs.StringVar(&cfg.Hardware.PumpPin, "pump-pin", cfg.Hardware.PumpPin, "GPIO pin of the pump relay")
	fs.StringVar(&cfg.Hardware.ButtonPin, "button-pin", cfg.Hardware.ButtonPin, "GPIO pin of the push button")
	fs.BoolVar(&cfg.Hardware.ButtonActiveLow, "button-active-low", cfg.Hardware.ButtonActiveLow, "Whether the push button pulls its pin low")
	fs.StringVar(&cfg.Hardware.SensorChannel, "sensor-channel", cfg.Hardware.SensorChannel, "ADS1115 channel of the moisture probe")
	fs.StringVar(&cfg.Hardware.SerialDevice, "serial-device", cfg.Hardware.SerialDevice, "Serial device of the IoTee board")
	fs.IntVar(&cfg.Hardware.Baud, "baud", cfg.Hardware.Baud, "Baudrate to use to communicate with the IoTee board")
	fs.IntVar(&cfg.Hardware.DryValue, "dry-value", cfg.Hardware.DryValue, "Raw probe value in dry soil")
	fs.IntVar(&cfg.Hardware.Range, "range", cfg.Hardware.Range, "Raw probe value span between dry and wet soil")
	fs.IntVar(&cfg.Hardware.StaticRaw, "static-raw", cfg.Hardware.StaticRaw, "Raw probe value reported without hardware")

	fs.StringVar(&cfg.HistoryPath, "history-path", cfg.HistoryPath, "SQLite database to record received snapshots in (disabled if empty)")
	fs.BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "Whether to enable verbose logging")
}

// Parse builds the configuration of a role from args. fs may already carry
// flags of the caller; they are parsed alongside the settings.
func Parse(role Role, fs *pflag.FlagSet, args []string) (Config, error) {
	parsed := Default(role)
	BindFlags(fs, &parsed)

	configPath := fs.String("config", "", "YAML configuration file")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg := Default(role)
	if *configPath != "" {
		if err := Load(*configPath, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := ApplyEnv(&cfg); err != nil {
		return Config{}, err
	}

	// Replay the flags which were set explicitly onto the merged config
	overrides := pflag.NewFlagSet(fs.Name(), pflag.ContinueOnError)
	BindFlags(overrides, &cfg)

	var err error
	fs.Visit(func(f *pflag.Flag) {
		if err != nil || overrides.Lookup(f.Name) == nil {
			return
		}

		err = overrides.Set(f.Name, f.Value.String())
	})
	if err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Hardware.Backend {
	case BackendNone, BackendGPIO, BackendIoTee:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownBackend, c.Hardware.Backend)
	}

	if c.Timing.Tick <= 0 {
		return fmt.Errorf("%w: tick must be positive", ErrInvalidValue)
	}

	if c.Topics.QueueSize <= 0 {
		return fmt.Errorf("%w: queue size must be positive", ErrInvalidValue)
	}

	if c.Hardware.Range <= 0 {
		return fmt.Errorf("%w: range must be positive", ErrInvalidValue)
	}

	return nil
}
