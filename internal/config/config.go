package config

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

type Config struct {
	Server    ServerConfig
	Store     StoreConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
	Log       LogConfig
	MQTT      MQTTConfig
}

type ServerConfig struct {
	Port        string
	Host        string
	Environment string
}

type StoreConfig struct {
	Driver string
}

type DatabaseConfig struct {
	URL      string
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string

	ConnectTimeout   time.Duration
	StatementTimeout time.Duration
	ConnectRetries   int
	RetryDelay       time.Duration
}

type JWTConfig struct {
	Secret    string
	ExpiresIn time.Duration
}

type RateLimitConfig struct {
	GeneralRPS   float64 // Requests per second for general endpoints
	GeneralBurst int     // Burst size for general endpoints
}

type CORSConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           time.Duration
}

type LogConfig struct {
	Level string
	File  string
}

type MQTTConfig struct {
	Broker      string
	ClientID    string
	Username    string
	Password    string
	StatusTopic string
	EventTopic  string
	QoS         int
}

// Enabled reports whether an MQTT broker is configured.
func (c MQTTConfig) Enabled() bool {
	return c.Broker != ""
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "3000")
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("ENVIRONMENT", "development")

	v.SetDefault("STORE_DRIVER", StoreDriverPostgres)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_NAME", "device_management")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_CONNECT_TIMEOUT", "5s")
	v.SetDefault("DB_STATEMENT_TIMEOUT", "45s")
	v.SetDefault("DB_CONNECT_RETRIES", 3)
	v.SetDefault("DB_RETRY_DELAY", "5s")

	v.SetDefault("JWT_SECRET", "your-secret-key")
	v.SetDefault("JWT_EXPIRES_IN", "168h")

	v.SetDefault("RATE_LIMIT_GENERAL_RPS", 20)
	v.SetDefault("RATE_LIMIT_GENERAL_BURST", 40)

	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	v.SetDefault("CORS_ALLOWED_METHODS", "GET,POST,PUT,PATCH,DELETE,OPTIONS")
	v.SetDefault("CORS_ALLOWED_HEADERS", "Content-Type,Authorization,Accept,X-Request-ID")
	v.SetDefault("CORS_EXPOSED_HEADERS", "X-Request-ID")
	v.SetDefault("CORS_ALLOW_CREDENTIALS", true)
	v.SetDefault("CORS_MAX_AGE", "24h")

	v.SetDefault("LOG_LEVEL", "debug")

	v.SetDefault("MQTT_CLIENT_ID", "iot-device-manager")
	v.SetDefault("MQTT_STATUS_TOPIC", "devices/+/status")
	v.SetDefault("MQTT_EVENT_TOPIC", "devices/%s/events")
	v.SetDefault("MQTT_QOS", 1)
}

// Load reads .env (when present) and the process environment, falling back to defaults.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		log.Printf("Warning: config file not found: %v. Falling back to environment variables only.", err)
	}

	config := &Config{
		Server: ServerConfig{
			Port:        v.GetString("SERVER_PORT"),
			Host:        v.GetString("SERVER_HOST"),
			Environment: v.GetString("ENVIRONMENT"),
		},
		Store: StoreConfig{
			Driver: v.GetString("STORE_DRIVER"),
		},
		Database: DatabaseConfig{
			URL:              v.GetString("DATABASE_URL"),
			Host:             v.GetString("DB_HOST"),
			Port:             v.GetString("DB_PORT"),
			User:             v.GetString("DB_USER"),
			Password:         v.GetString("DB_PASSWORD"),
			DBName:           v.GetString("DB_NAME"),
			SSLMode:          v.GetString("DB_SSLMODE"),
			ConnectTimeout:   v.GetDuration("DB_CONNECT_TIMEOUT"),
			StatementTimeout: v.GetDuration("DB_STATEMENT_TIMEOUT"),
			ConnectRetries:   v.GetInt("DB_CONNECT_RETRIES"),
			RetryDelay:       v.GetDuration("DB_RETRY_DELAY"),
		},
		JWT: JWTConfig{
			Secret:    v.GetString("JWT_SECRET"),
			ExpiresIn: v.GetDuration("JWT_EXPIRES_IN"),
		},
		RateLimit: RateLimitConfig{
			GeneralRPS:   v.GetFloat64("RATE_LIMIT_GENERAL_RPS"),
			GeneralBurst: v.GetInt("RATE_LIMIT_GENERAL_BURST"),
		},
		CORS: CORSConfig{
			AllowedOrigins:   splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
			AllowedMethods:   splitList(v.GetString("CORS_ALLOWED_METHODS")),
			AllowedHeaders:   splitList(v.GetString("CORS_ALLOWED_HEADERS")),
			ExposedHeaders:   splitList(v.GetString("CORS_EXPOSED_HEADERS")),
			AllowCredentials: v.GetBool("CORS_ALLOW_CREDENTIALS"),
			MaxAge:           v.GetDuration("CORS_MAX_AGE"),
		},
		Log: LogConfig{
			Level: v.GetString("LOG_LEVEL"),
			File:  v.GetString("LOG_FILE"),
		},
		MQTT: MQTTConfig{
			Broker:      v.GetString("MQTT_BROKER"),
			ClientID:    v.GetString("MQTT_CLIENT_ID"),
			Username:    v.GetString("MQTT_USERNAME"),
			Password:    v.GetString("MQTT_PASSWORD"),
			StatusTopic: v.GetString("MQTT_STATUS_TOPIC"),
			EventTopic:  v.GetString("MQTT_EVENT_TOPIC"),
			QoS:         v.GetInt("MQTT_QOS"),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate rejects settings the service cannot start with.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case StoreDriverPostgres, StoreDriverMemory:
	default:
		return fmt.Errorf("unsupported STORE_DRIVER %q", c.Store.Driver)
	}
	if c.JWT.Secret == "" {
		return errors.New("JWT_SECRET must not be empty")
	}
	if c.JWT.ExpiresIn <= 0 {
		return errors.New("JWT_EXPIRES_IN must be a positive duration")
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		return fmt.Errorf("MQTT_QOS must be 0, 1 or 2, got %d", c.MQTT.QoS)
	}
	return nil
}

// DSN returns DATABASE_URL when set, otherwise a keyword/value DSN built from DB_* parts.
// Connect and statement timeouts are always applied.
func (c *DatabaseConfig) DSN() string {
	connectSecs := int(c.ConnectTimeout / time.Second)
	statementMillis := c.StatementTimeout.Milliseconds()

	if c.URL != "" {
		u, err := url.Parse(c.URL)
		if err == nil && u.Scheme != "" {
			q := u.Query()
			if q.Get("connect_timeout") == "" && connectSecs > 0 {
				q.Set("connect_timeout", fmt.Sprint(connectSecs))
			}
			if q.Get("statement_timeout") == "" && statementMillis > 0 {
				q.Set("statement_timeout", fmt.Sprint(statementMillis))
			}
			u.RawQuery = q.Encode()
			return u.String()
		}
		return c.URL
	}

	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
	if connectSecs > 0 {
		dsn += fmt.Sprintf(" connect_timeout=%d", connectSecs)
	}
	if statementMillis > 0 {
		dsn += fmt.Sprintf(" statement_timeout=%d", statementMillis)
	}
	return dsn
}

// Redacted returns the DSN target without credentials, for logging.
func (c *DatabaseConfig) Redacted() string {
	if c.URL != "" {
		if u, err := url.Parse(c.URL); err == nil {
			return u.Redacted()
		}
		return "<unparseable DATABASE_URL>"
	}
	return fmt.Sprintf("%s:%s/%s", c.Host, c.Port, c.DBName)
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
