package config

import (
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"codeberg.org/mutker/kettlectl/internal/errors"
)

const DefaultLogLevel = "info"

type Config struct {
	// Sampling and timing (milliseconds)
	SampleInterval    int `mapstructure:"sample_interval"`
	PollInterval      int `mapstructure:"poll_interval"`
	PulseDuration     int `mapstructure:"pulse_duration"`
	TransitionTimeout int `mapstructure:"transition_timeout"`
	LedBlinkInterval  int `mapstructure:"led_blink_interval"`
	LongPress         int `mapstructure:"long_press"`

	// Change-significance thresholds (hundredths of a degree)
	TempDelta     int `mapstructure:"temp_delta"`
	SetpointDelta int `mapstructure:"setpoint_delta"`

	// EMA smoothing coefficient for analog samples
	FilterCoeff int `mapstructure:"filter_coeff"`

	// Batched reporting cadence (seconds)
	TempReportMin     int `mapstructure:"temp_report_min"`
	TempReportMax     int `mapstructure:"temp_report_max"`
	SetpointReportMin int `mapstructure:"setpoint_report_min"`
	SetpointReportMax int `mapstructure:"setpoint_report_max"`

	// Hardware
	GPIOChip   string `mapstructure:"gpio_chip"`
	StatePin   int    `mapstructure:"state_pin"`
	ButtonPin  int    `mapstructure:"button_pin"`
	PairPin    int    `mapstructure:"pair_pin"`
	LedPin     int    `mapstructure:"led_pin"`
	TargetADC  string `mapstructure:"target_adc"`
	CurrentADC string `mapstructure:"current_adc"`

	// Transport
	Broker      string `mapstructure:"broker"`
	TopicPrefix string `mapstructure:"topic_prefix"`

	// Storage
	Database  string `mapstructure:"database"`
	Telemetry bool   `mapstructure:"telemetry"`

	// Logging
	LogLevel string `mapstructure:"log_level"`
	Debug    bool   `mapstructure:"debug"`
	Verbose  bool   `mapstructure:"verbose"`
}

func Load() (*Config, error) {
	errFactory := errors.New()

	v := viper.New()
	setDefaults(v)

	flags := pflag.NewFlagSet("kettlectl", pflag.ContinueOnError)
	flags.Int("sample-interval", v.GetInt("sample_interval"), "Analog sample interval in milliseconds")
	flags.Int("poll-interval", v.GetInt("poll_interval"), "Digital input poll interval in milliseconds")
	flags.String("broker", v.GetString("broker"), "MQTT broker address")
	flags.String("database", v.GetString("database"), "Path to the state database")
	flags.Bool("telemetry", v.GetBool("telemetry"), "Record sample telemetry to the database")
	flags.String("log-level", v.GetString("log_level"), "Log level (debug, info, warning, error)")
	flags.Bool("debug", false, "Enable debugging mode")
	flags.Bool("verbose", false, "Enable verbose logging")
	if err := flags.Parse(os.Args[1:]); err != nil {
		return nil, errFactory.Wrap(errors.ErrBindFlags, err)
	}

	// Flags use dashes, config keys use underscores
	flags.Visit(func(f *pflag.Flag) {
		v.Set(strings.ReplaceAll(f.Name, "-", "_"), f.Value.String())
	})

	v.SetEnvPrefix("KETTLECTL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if path := os.Getenv("KETTLECTL_CONFIG"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("kettlectl")
		v.SetConfigType("toml")
		v.AddConfigPath("/etc")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, errFactory.WithMessage(errors.ErrReadConfig, "Failed to read config file").WithData(err.Error())
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("sample_interval", 1000)
	v.SetDefault("poll_interval", 50)
	v.SetDefault("pulse_duration", 200)
	v.SetDefault("transition_timeout", 5000)
	v.SetDefault("led_blink_interval", 500)
	v.SetDefault("long_press", 3000)
	v.SetDefault("temp_delta", 50)
	v.SetDefault("setpoint_delta", 100)
	v.SetDefault("filter_coeff", 8)
	v.SetDefault("temp_report_min", 5)
	v.SetDefault("temp_report_max", 300)
	v.SetDefault("setpoint_report_min", 10)
	v.SetDefault("setpoint_report_max", 3600)
	v.SetDefault("gpio_chip", "gpiochip0")
	v.SetDefault("state_pin", 17)
	v.SetDefault("button_pin", 27)
	v.SetDefault("pair_pin", 22)
	v.SetDefault("led_pin", 23)
	v.SetDefault("target_adc", "/sys/bus/iio/devices/iio:device0/in_voltage0_raw")
	v.SetDefault("current_adc", "/sys/bus/iio/devices/iio:device0/in_voltage1_raw")
	v.SetDefault("broker", "tcp://localhost:1883")
	v.SetDefault("topic_prefix", "kettle")
	v.SetDefault("database", "/var/lib/kettlectl/kettlectl.db")
	v.SetDefault("telemetry", false)
	v.SetDefault("log_level", DefaultLogLevel)
}

func (c *Config) Validate() error {
	errFactory := errors.New()

	if c.SampleInterval <= 0 || c.PollInterval <= 0 {
		return errFactory.WithData(errors.ErrInvalidInterval, c.SampleInterval)
	}
	if c.PulseDuration <= 0 || c.TransitionTimeout <= c.PulseDuration {
		return errFactory.WithMessage(errors.ErrInvalidInterval,
			"transition_timeout must exceed pulse_duration")
	}
	if c.TempDelta < 0 || c.SetpointDelta < 0 {
		return errFactory.WithMessage(errors.ErrInvalidConfig, "thresholds must be non-negative")
	}
	if c.FilterCoeff < 1 {
		return errFactory.WithMessage(errors.ErrInvalidConfig, "filter_coeff must be at least 1")
	}

	switch c.LogLevel {
	case "debug", "info", "warning", "error":
	default:
		return errFactory.WithData(errors.ErrInvalidLogLevel, c.LogLevel)
	}

	return nil
}
