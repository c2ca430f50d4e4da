package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
	Serial   SerialConfig   `yaml:"serial"`
}

type HTTPConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	MaxConns int32  `yaml:"max_conns"`
}

type RabbitMQConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

// SerialConfig describes the device link. An empty Port means the first
// discovered USB port is used.
type SerialConfig struct {
	Port          string `yaml:"port"`
	BaudRate      int    `yaml:"baud_rate"`
	ReadTimeoutMs int    `yaml:"read_timeout_ms"`
	QueueSize     int    `yaml:"queue_size"`
}

func (s SerialConfig) ReadTimeout() time.Duration {
	return time.Duration(s.ReadTimeoutMs) * time.Millisecond
}

func Default() Config {
	return Config{
		HTTP: HTTPConfig{ListenAddr: "127.0.0.1:3001"},
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "orders",
			Password: "orders",
			Database: "orders",
		},
		RabbitMQ: RabbitMQConfig{
			Host:     "localhost",
			Port:     5672,
			User:     "guest",
			Password: "guest",
		},
		Serial: SerialConfig{
			BaudRate:      9600,
			ReadTimeoutMs: 1000,
			QueueSize:     64,
		},
	}
}

// Load reads the YAML file at path on top of Default and then applies
// environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse yaml: %w", err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.HTTP.ListenAddr == "" {
		return errors.New("http.listen_addr is required")
	}
	if c.Serial.BaudRate <= 0 {
		return fmt.Errorf("serial.baud_rate must be positive, got %d", c.Serial.BaudRate)
	}
	if c.Serial.ReadTimeoutMs <= 0 {
		return fmt.Errorf("serial.read_timeout_ms must be positive, got %d", c.Serial.ReadTimeoutMs)
	}
	if c.Serial.QueueSize <= 0 {
		return fmt.Errorf("serial.queue_size must be positive, got %d", c.Serial.QueueSize)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	strs := map[string]*string{
		"SERIAL_PORT":       &cfg.Serial.Port,
		"LISTEN_ADDR":       &cfg.HTTP.ListenAddr,
		"DB_HOST":           &cfg.Database.Host,
		"DB_USER":           &cfg.Database.User,
		"DB_PASSWORD":       &cfg.Database.Password,
		"DB_NAME":           &cfg.Database.Database,
		"RABBITMQ_HOST":     &cfg.RabbitMQ.Host,
		"RABBITMQ_USER":     &cfg.RabbitMQ.User,
		"RABBITMQ_PASSWORD": &cfg.RabbitMQ.Password,
	}
	for key, dst := range strs {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}

	ints := map[string]*int{
		"DB_PORT":       &cfg.Database.Port,
		"RABBITMQ_PORT": &cfg.RabbitMQ.Port,
	}
	for key, dst := range ints {
		v, ok := os.LookupEnv(key)
		if !ok || v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
		*dst = n
	}

	return nil
}
