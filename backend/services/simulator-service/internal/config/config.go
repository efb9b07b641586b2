package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	libconfig "evtelemetry/backend/libs/config"
)

const defaultHTTPPort = "4111"

// HTTPConfig controls the query API listener.
type HTTPConfig struct {
	Port string `yaml:"port" env:"SIMULATOR_HTTP_PORT"`
}

// DatabaseConfig points at the Postgres instance holding vehicles and history.
type DatabaseConfig struct {
	DSN          string `yaml:"dsn" env:"SIMULATOR_POSTGRES_DSN"`
	MaxOpenConns int    `yaml:"maxOpenConns" env:"SIMULATOR_POSTGRES_MAX_OPEN_CONNS"`
}

// RedisConfig is optional; when Addr is set the active-session index lives in Redis.
type RedisConfig struct {
	Addr     string `yaml:"addr" env:"SIMULATOR_REDIS_ADDR"`
	Password string `yaml:"password" env:"SIMULATOR_REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"SIMULATOR_REDIS_DB"`
	TTL      int    `yaml:"ttlSeconds" env:"SIMULATOR_REDIS_TTL"`
}

// MQTTConfig configures the pub/sub broker.
type MQTTConfig struct {
	Broker           string `yaml:"broker" env:"SIMULATOR_MQTT_BROKER"`
	ClientID         string `yaml:"clientId" env:"SIMULATOR_MQTT_CLIENT_ID"`
	Username         string `yaml:"username" env:"SIMULATOR_MQTT_USERNAME"`
	Password         string `yaml:"password" env:"SIMULATOR_MQTT_PASSWORD"`
	QoS              int    `yaml:"qos" env:"SIMULATOR_MQTT_QOS"`
	PublishTimeoutMs int    `yaml:"publishTimeoutMs" env:"SIMULATOR_MQTT_PUBLISH_TIMEOUT_MS"`
}

// SimulationConfig tunes both engine variants.
type SimulationConfig struct {
	TickIntervalMs int     `yaml:"tickIntervalMs" env:"SIMULATOR_TICK_INTERVAL_MS"`
	Seed           int64   `yaml:"seed" env:"SIMULATOR_SEED"`
	ResumeSessions bool    `yaml:"resumeSessions" env:"SIMULATOR_RESUME_SESSIONS"`
	DefaultAmbient float64 `yaml:"defaultAmbient" env:"SIMULATOR_DEFAULT_AMBIENT"`
	PlainEnabled   bool    `yaml:"plainEnabled" env:"SIMULATOR_PLAIN_ENABLED"`
	CompareEnabled bool    `yaml:"compareEnabled" env:"SIMULATOR_COMPARE_ENABLED"`
}

// WebSocketConfig configures the live feed.
type WebSocketConfig struct {
	PingIntervalSeconds int `yaml:"pingIntervalSeconds" env:"SIMULATOR_WS_PING_INTERVAL"`
	WriteTimeoutSeconds int `yaml:"writeTimeoutSeconds" env:"SIMULATOR_WS_WRITE_TIMEOUT"`
}

// Config defines simulator service configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	MQTT       MQTTConfig       `yaml:"mqtt"`
	Simulation SimulationConfig `yaml:"simulation"`
	WebSocket  WebSocketConfig  `yaml:"websocket"`
}

// Default returns configuration with every optional field populated.
func Default() *Config {
	return &Config{
		HTTP: HTTPConfig{Port: defaultHTTPPort},
		MQTT: MQTTConfig{
			Broker:           "tcp://localhost:1883",
			ClientID:         "ev-simulator",
			PublishTimeoutMs: 2000,
		},
		Simulation: SimulationConfig{
			TickIntervalMs: 1000,
			ResumeSessions: true,
			DefaultAmbient: 25,
			PlainEnabled:   true,
			CompareEnabled: true,
		},
		WebSocket: WebSocketConfig{
			PingIntervalSeconds: 30,
			WriteTimeoutSeconds: 10,
		},
	}
}

// Load reads configuration via shared helper.
func Load() (*Config, error) {
	cfg := Default()

	if err := libconfig.LoadConfig(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required fields and ranges.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Database.DSN) == "" {
		return errors.New("config: database dsn required")
	}
	if strings.TrimSpace(c.MQTT.Broker) == "" {
		return errors.New("config: mqtt broker required")
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		return fmt.Errorf("config: mqtt qos must be 0, 1 or 2, got %d", c.MQTT.QoS)
	}
	if c.Simulation.TickIntervalMs < 0 {
		return fmt.Errorf("config: tick interval must not be negative, got %d", c.Simulation.TickIntervalMs)
	}
	return nil
}

// HTTPAddress returns :port style.
func (c *Config) HTTPAddress() string {
	port := strings.TrimSpace(c.HTTP.Port)
	if port == "" {
		port = defaultHTTPPort
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return fmt.Sprintf(":%s", port)
}

// TickInterval returns the engine period.
func (c *Config) TickInterval() time.Duration {
	if c.Simulation.TickIntervalMs <= 0 {
		return time.Second
	}
	return time.Duration(c.Simulation.TickIntervalMs) * time.Millisecond
}

// PublishTimeout bounds a single broker publish.
func (c *Config) PublishTimeout() time.Duration {
	if c.MQTT.PublishTimeoutMs <= 0 {
		return 2 * time.Second
	}
	return time.Duration(c.MQTT.PublishTimeoutMs) * time.Millisecond
}

// ActiveSessionTTL returns ttl for Redis session index keys; zero keeps them forever.
func (c *Config) ActiveSessionTTL() time.Duration {
	if c.Redis.TTL <= 0 {
		return 0
	}
	return time.Duration(c.Redis.TTL) * time.Second
}

// UseRedisIndex reports whether the active-session index should be kept in Redis.
func (c *Config) UseRedisIndex() bool {
	return c.Simulation.ResumeSessions && strings.TrimSpace(c.Redis.Addr) != ""
}

// PingInterval returns websocket ping interval.
func (c *Config) PingInterval() time.Duration {
	if c.WebSocket.PingIntervalSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.WebSocket.PingIntervalSeconds) * time.Second
}

// WriteTimeout returns websocket write timeout.
func (c *Config) WriteTimeout() time.Duration {
	if c.WebSocket.WriteTimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.WebSocket.WriteTimeoutSeconds) * time.Second
}
