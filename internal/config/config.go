package config

import (
	"os"
	"strings"

	"codeberg.org/mkern/printmond/internal/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultLogLevel = "info"

	defaultControlIntervalMS = 100
	defaultPredictIntervalS  = 5
	defaultLogIntervalS      = 5
	defaultHotendTarget      = 210.0
	defaultBedTarget         = 60.0
	defaultPulsesPerMM       = 100.0
	defaultUplinkBaud        = 115200
	defaultDropoutCycles     = 10
)

type Config struct {
	ControlIntervalMS int     `mapstructure:"control_interval_ms"`
	PredictIntervalS  int     `mapstructure:"predict_interval_s"`
	LogIntervalS      int     `mapstructure:"log_interval_s"`
	HotendTarget      float64 `mapstructure:"hotend_target"`
	BedTarget         float64 `mapstructure:"bed_target"`
	FlowTarget        float64 `mapstructure:"flow_target"`
	FlowControl       bool    `mapstructure:"flow_control"`
	PulsesPerMM       float64 `mapstructure:"pulses_per_mm"`
	DropoutCycles     int     `mapstructure:"dropout_cycles"`
	Monitor           bool    `mapstructure:"monitor"`
	Debug             bool    `mapstructure:"debug"`
	Verbose           bool    `mapstructure:"verbose"`
	LogLevel          string  `mapstructure:"log_level"`
	Telemetry         bool    `mapstructure:"telemetry"`
	TelemetryDB       string  `mapstructure:"database"`
	UplinkPort        string  `mapstructure:"uplink_port"`
	UplinkBaud        int     `mapstructure:"uplink_baud"`
	ModelPath         string  `mapstructure:"model_path"`
	CSVPath           string  `mapstructure:"csv_path"`
}

// Load reads configuration from flags, environment, and the TOML config
// file. Flags take precedence over the file, the file over defaults.
func Load() (*Config, error) {
	errFactory := errors.New()
	v := viper.New()

	setDefaults(v)

	fs := pflag.NewFlagSet("printmond", pflag.ContinueOnError)
	fs.Int("control-interval", defaultControlIntervalMS, "Control tick interval in milliseconds")
	fs.Int("predict-interval", defaultPredictIntervalS, "Quality prediction interval in seconds")
	fs.Int("log-interval", defaultLogIntervalS, "CSV logging interval in seconds")
	fs.Float64("hotend-target", defaultHotendTarget, "Hotend temperature setpoint")
	fs.Float64("bed-target", defaultBedTarget, "Bed temperature setpoint")
	fs.Bool("monitor", false, "Only monitor sensors, never drive actuators")
	fs.Bool("debug", false, "Enable debugging mode")
	fs.Bool("verbose", false, "Enable verbose logging")
	fs.String("log-level", DefaultLogLevel, "Log level (debug, info, warning, error)")
	fs.Bool("telemetry", false, "Enable local telemetry persistence")
	fs.String("database", "", "Path to the telemetry database")
	fs.String("uplink-port", "", "Serial port for the gateway uplink")
	fs.String("model-path", "", "Path to the quality model weight file")

	if err := fs.Parse(os.Args[1:]); err != nil {
		return nil, errFactory.Wrap(errors.ErrBindFlags, err)
	}

	flagKeys := map[string]string{
		"control-interval": "control_interval_ms",
		"predict-interval": "predict_interval_s",
		"log-interval":     "log_interval_s",
		"hotend-target":    "hotend_target",
		"bed-target":       "bed_target",
		"monitor":          "monitor",
		"debug":            "debug",
		"verbose":          "verbose",
		"log-level":        "log_level",
		"telemetry":        "telemetry",
		"database":         "database",
		"uplink-port":      "uplink_port",
		"model-path":       "model_path",
	}

	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	fs.Visit(func(f *pflag.Flag) {
		if key, ok := flagKeys[f.Name]; ok {
			v.Set(key, f.Value.String())
		}
	})

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
	}

	if err := validate(config); err != nil {
		return nil, err
	}

	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("control_interval_ms", defaultControlIntervalMS)
	v.SetDefault("predict_interval_s", defaultPredictIntervalS)
	v.SetDefault("log_interval_s", defaultLogIntervalS)
	v.SetDefault("hotend_target", defaultHotendTarget)
	v.SetDefault("bed_target", defaultBedTarget)
	v.SetDefault("flow_target", 0.0)
	v.SetDefault("flow_control", false)
	v.SetDefault("pulses_per_mm", defaultPulsesPerMM)
	v.SetDefault("dropout_cycles", defaultDropoutCycles)
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("uplink_baud", defaultUplinkBaud)
}

func readConfigFile(v *viper.Viper) error {
	errFactory := errors.New()

	if path := os.Getenv("PRINTMOND_CONFIG"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return errFactory.WithMessage(errors.ErrReadConfig, "Failed to read config file: "+err.Error())
		}
		return nil
	}

	v.SetConfigName("printmond")
	v.SetConfigType("toml")
	v.AddConfigPath("/etc")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return errFactory.WithMessage(errors.ErrReadConfig, "Failed to read config file: "+err.Error())
		}
	}

	return nil
}

func validate(config *Config) error {
	errFactory := errors.New()

	if config.ControlIntervalMS <= 0 {
		return errFactory.WithData(errors.ErrInvalidInterval, config.ControlIntervalMS)
	}
	if config.PredictIntervalS <= 0 {
		return errFactory.WithData(errors.ErrInvalidInterval, config.PredictIntervalS)
	}
	if config.PulsesPerMM <= 0 {
		return errFactory.WithData(errors.ErrInvalidConfig, "pulses_per_mm must be positive")
	}
	if config.DropoutCycles <= 0 {
		return errFactory.WithData(errors.ErrInvalidConfig, "dropout_cycles must be positive")
	}

	switch strings.ToLower(config.LogLevel) {
	case "debug", "info", "warning", "error":
	default:
		return errFactory.WithData(errors.ErrInvalidLogLevel, config.LogLevel)
	}

	if config.Telemetry && config.TelemetryDB == "" {
		return errFactory.WithMessage(errors.ErrMissingConfig, "telemetry enabled but no database path configured")
	}

	return nil
}
