package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != "3000" {
		t.Errorf("port = %q, want 3000", cfg.Server.Port)
	}
	if cfg.Store.Driver != StoreDriverPostgres {
		t.Errorf("store = %q", cfg.Store.Driver)
	}
	if cfg.JWT.ExpiresIn != 168*time.Hour {
		t.Errorf("jwt ttl = %v, want 168h", cfg.JWT.ExpiresIn)
	}
	if cfg.Database.ConnectTimeout != 5*time.Second || cfg.Database.StatementTimeout != 45*time.Second {
		t.Errorf("db timeouts = %v / %v", cfg.Database.ConnectTimeout, cfg.Database.StatementTimeout)
	}
	if cfg.MQTT.Enabled() {
		t.Error("MQTT enabled without a broker")
	}
	if cfg.MQTT.StatusTopic != "devices/+/status" {
		t.Errorf("status topic = %q", cfg.MQTT.StatusTopic)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SERVER_PORT", "8081")
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("JWT_EXPIRES_IN", "2h")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("MQTT_BROKER", "tcp://localhost:1883")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != "8081" || cfg.Store.Driver != StoreDriverMemory {
		t.Errorf("server/store = %q/%q", cfg.Server.Port, cfg.Store.Driver)
	}
	if cfg.JWT.ExpiresIn != 2*time.Hour {
		t.Errorf("jwt ttl = %v", cfg.JWT.ExpiresIn)
	}
	if len(cfg.CORS.AllowedOrigins) != 2 || cfg.CORS.AllowedOrigins[1] != "https://b.example" {
		t.Errorf("origins = %v", cfg.CORS.AllowedOrigins)
	}
	if !cfg.MQTT.Enabled() {
		t.Error("MQTT should be enabled")
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Store: StoreConfig{Driver: StoreDriverMemory},
			JWT:   JWTConfig{Secret: "s", ExpiresIn: time.Hour},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"valid", func(*Config) {}, ""},
		{"unknown driver", func(c *Config) { c.Store.Driver = "mongo" }, "STORE_DRIVER"},
		{"empty secret", func(c *Config) { c.JWT.Secret = "" }, "JWT_SECRET"},
		{"zero ttl", func(c *Config) { c.JWT.ExpiresIn = 0 }, "JWT_EXPIRES_IN"},
		{"bad qos", func(c *Config) { c.MQTT.QoS = 3 }, "MQTT_QOS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.errMsg == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.errMsg) {
				t.Fatalf("Validate() error = %v, want mention of %s", err, tt.errMsg)
			}
		})
	}
}

func TestDSN(t *testing.T) {
	parts := DatabaseConfig{
		Host: "db", Port: "5432", User: "app", Password: "pw", DBName: "devices", SSLMode: "disable",
		ConnectTimeout: 5 * time.Second, StatementTimeout: 45 * time.Second,
	}
	dsn := parts.DSN()
	for _, want := range []string{"host=db", "dbname=devices", "connect_timeout=5", "statement_timeout=45000"} {
		if !strings.Contains(dsn, want) {
			t.Errorf("DSN %q missing %q", dsn, want)
		}
	}

	withURL := DatabaseConfig{
		URL:            "postgres://app:secret@db:5432/devices?sslmode=require",
		ConnectTimeout: 5 * time.Second,
	}
	dsn = withURL.DSN()
	if !strings.Contains(dsn, "connect_timeout=5") || !strings.Contains(dsn, "sslmode=require") {
		t.Errorf("URL DSN = %q", dsn)
	}
	if strings.Contains(withURL.Redacted(), "secret") {
		t.Errorf("Redacted() leaked password: %q", withURL.Redacted())
	}
}
