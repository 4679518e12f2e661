// Package config loads the rig configuration: defaults, overlaid by an
// optional YAML file, overlaid by ATOMRIG_* environment variables.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

const (
	DefaultSerialPort = "/dev/ttyACM0"
	DefaultBaudRate   = 115200
	DefaultListenAddr = ":5000"
	DefaultColorCard  = "color_card.yaml"
	DefaultDataDir    = ".atomrig"
)

type Config struct {
	SerialPort string `yaml:"serial_port" env:"ATOMRIG_SERIAL_PORT"`
	BaudRate   int    `yaml:"baud_rate" env:"ATOMRIG_BAUD_RATE"`
	ListenAddr string `yaml:"listen_addr" env:"ATOMRIG_LISTEN_ADDR"`
	ColorCard  string `yaml:"color_card" env:"ATOMRIG_COLOR_CARD"`
	DataDir    string `yaml:"data_dir" env:"ATOMRIG_DATA_DIR"`
	LogFile    string `yaml:"log_file" env:"ATOMRIG_LOG_FILE"`
	LogLevel   string `yaml:"log_level" env:"ATOMRIG_LOG_LEVEL"`
	Sim        bool   `yaml:"sim" env:"ATOMRIG_SIM"`
	Seed       int64  `yaml:"seed"`

	Engine EngineConfig `yaml:"engine"`
}

// EngineConfig exposes the tick timing and the decay calibration
// constants. The alpha probability and event cap came out of field
// calibration; they have no physical derivation.
type EngineConfig struct {
	PollInterval     Duration `yaml:"poll_interval" env:"ATOMRIG_POLL_INTERVAL"`
	DecayInterval    Duration `yaml:"decay_interval" env:"ATOMRIG_DECAY_INTERVAL"`
	ColorSampleEvery Duration `yaml:"color_sample_every"`
	SettleDelay      Duration `yaml:"settle_delay"`
	AlphaProbability float64  `yaml:"alpha_probability"`
	EventCap         int      `yaml:"event_cap"`
}

// Duration reads from YAML and the environment as "100ms", "1.5s", etc.
type Duration time.Duration

func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	return d.UnmarshalText([]byte(s))
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

func DefaultConfig() *Config {
	return &Config{
		SerialPort: DefaultSerialPort,
		BaudRate:   DefaultBaudRate,
		ListenAddr: DefaultListenAddr,
		ColorCard:  DefaultColorCard,
		DataDir:    DefaultDataDir,
		LogLevel:   "info",
		Engine: EngineConfig{
			PollInterval:     Duration(100 * time.Millisecond),
			DecayInterval:    Duration(500 * time.Millisecond),
			ColorSampleEvery: Duration(1500 * time.Millisecond),
			SettleDelay:      Duration(500 * time.Millisecond),
			AlphaProbability: 0.3,
			EventCap:         2,
		},
	}
}

// Load reads a YAML config file over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overlays ATOMRIG_* environment variables.
func (c *Config) ApplyEnv() error {
	if err := env.Parse(c); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
