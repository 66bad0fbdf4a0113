package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment overrides for values provisioned outside the config file.
const (
	EnvWifiSSID        = "CLIMESCOPE_WIFI_SSID"
	EnvWifiCredential  = "CLIMESCOPE_WIFI_CREDENTIAL"
	EnvPredictEndpoint = "CLIMESCOPE_PREDICT_ENDPOINT"
	EnvTelegramKey     = "CLIMESCOPE_TELEGRAM_KEY"
	EnvDatabasePass    = "CLIMESCOPE_DB_PASSWORD"
)

var validate = validator.New()

var ErrBreakerOutlastsInterval = errors.New("prediction.breaker.open_timeout must be shorter than prediction.interval")

type Log struct {
	Level string `yaml:"level" validate:"oneof=trace debug info warn warning error"`
}

type Link struct {
	Interface    string        `yaml:"interface"`
	SSID         string        `yaml:"ssid"`
	Credential   string        `yaml:"credential"`
	Attempts     int           `yaml:"attempts" validate:"gte=1"`
	PollInterval time.Duration `yaml:"poll_interval" validate:"gt=0"`
}

type Dashboard struct {
	Port           int           `yaml:"port" validate:"gte=1,lte=65535"`
	ReadTimeout    time.Duration `yaml:"read_timeout" validate:"gt=0"`
	RefreshSeconds int           `yaml:"refresh_seconds" validate:"gte=1"`
}

type Sensor struct {
	Driver           string  `yaml:"driver" validate:"oneof=bme280 simulated"`
	Bus              string  `yaml:"bus"`
	ClimateAddress   uint16  `yaml:"climate_address"`
	GasAddress       uint16  `yaml:"gas_address"`
	GasChannel       int     `yaml:"gas_channel" validate:"gte=0,lte=3"`
	ReferenceVoltage float64 `yaml:"reference_voltage" validate:"gt=0"`
	Resolution       int     `yaml:"resolution" validate:"gt=0"`
}

type Breaker struct {
	MaxFailures uint32        `yaml:"max_failures" validate:"gte=1"`
	OpenTimeout time.Duration `yaml:"open_timeout" validate:"gt=0"`
}

type Prediction struct {
	Endpoint string        `yaml:"endpoint" validate:"required,url"`
	Interval time.Duration `yaml:"interval" validate:"gt=0"`
	Timeout  time.Duration `yaml:"timeout" validate:"gt=0"`
	Breaker  Breaker       `yaml:"breaker"`
}

type Database struct {
	Enable   bool   `yaml:"enable"`
	Host     string `yaml:"host" validate:"required_if=Enable true"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	Port     string `yaml:"port"`
}

type History struct {
	Enable         bool          `yaml:"enable"`
	Listen         string        `yaml:"listen"`
	Window         time.Duration `yaml:"window" validate:"gt=0"`
	RecordInterval time.Duration `yaml:"record_interval" validate:"gt=0"`
	Retention      time.Duration `yaml:"retention" validate:"gt=0"`
}

type telegram struct {
	Key    string `yaml:"key" validate:"required_if=Enable true"`
	Debug  bool   `yaml:"debug"`
	Enable bool   `yaml:"enable"`
}

type MQTT struct {
	Enable   bool   `yaml:"enable"`
	Broker   string `yaml:"broker" validate:"required_if=Enable true"`
	Topic    string `yaml:"topic"`
	ClientID string `yaml:"client_id"`
}

type Config struct {
	Log        Log        `yaml:"log"`
	Link       Link       `yaml:"link"`
	Dashboard  Dashboard  `yaml:"dashboard"`
	Sensor     Sensor     `yaml:"sensor"`
	Prediction Prediction `yaml:"prediction"`
	Database   *Database  `yaml:"database"`
	History    History    `yaml:"history"`
	Telegram   telegram   `yaml:"telegram"`
	MQTT       MQTT       `yaml:"mqtt"`
}

// Default returns the configuration used for every key the file leaves out.
func Default() *Config {
	return &Config{
		Log: Log{Level: "info"},
		Link: Link{
			Attempts:     20,
			PollInterval: time.Second,
		},
		Dashboard: Dashboard{
			Port:           80,
			ReadTimeout:    2 * time.Second,
			RefreshSeconds: 5,
		},
		Sensor: Sensor{
			Driver:           "bme280",
			ClimateAddress:   0x76,
			GasAddress:       0x48,
			ReferenceVoltage: 3.3,
			Resolution:       4095,
		},
		Prediction: Prediction{
			Interval: 60 * time.Second,
			Timeout:  10 * time.Second,
			Breaker: Breaker{
				MaxFailures: 5,
				OpenTimeout: 30 * time.Second,
			},
		},
		Database: &Database{Port: "5432", Database: "climescope"},
		History: History{
			Listen:         ":8080",
			Window:         5 * time.Hour,
			RecordInterval: 5 * time.Minute,
			Retention:      14 * 24 * time.Hour,
		},
		MQTT: MQTT{
			Topic:    "climescope/cycles",
			ClientID: "climescope-node",
		},
	}
}

func NewConfig(f string) (*Config, error) {
	rawConf, err := os.ReadFile(f)
	if err != nil {
		return nil, fmt.Errorf("cannot open a Config: %w", err)
	}
	return Parse(rawConf)
}

// Parse unmarshals raw YAML over the defaults, applies environment overrides
// and validates the result.
func Parse(rawConf []byte) (*Config, error) {
	// a missing .env is the normal case on a provisioned device
	_ = godotenv.Load()

	conf := Default()
	if err := yaml.Unmarshal(rawConf, conf); err != nil {
		return nil, fmt.Errorf("cannot unmarshall a Config: %w", err)
	}
	if conf.Database == nil {
		conf.Database = Default().Database
	}
	conf.applyEnv()
	if err := validate.Struct(conf); err != nil {
		return nil, fmt.Errorf("invalid Config: %w", err)
	}
	// an open breaker must never swallow a scheduled cycle
	if conf.Prediction.Breaker.OpenTimeout >= conf.Prediction.Interval {
		return nil, fmt.Errorf("invalid Config: %w", ErrBreakerOutlastsInterval)
	}
	return conf, nil
}

func (c *Config) applyEnv() {
	override(&c.Link.SSID, EnvWifiSSID)
	override(&c.Link.Credential, EnvWifiCredential)
	override(&c.Prediction.Endpoint, EnvPredictEndpoint)
	override(&c.Telegram.Key, EnvTelegramKey)
	override(&c.Database.Password, EnvDatabasePass)
}

func override(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
