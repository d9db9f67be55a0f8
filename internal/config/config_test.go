package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"APP_ENV", "APP_PORT", "SIM_TICK_RATE", "MAX_TABLES", "TABLE_IDLE_SECONDS"} {
		t.Setenv(k, "")
	}

	cfg := Load()

	if cfg.Environment != "development" || cfg.Port != "8080" {
		t.Errorf("env=%q port=%q", cfg.Environment, cfg.Port)
	}
	if cfg.SimTickRate != 60 || cfg.MaxTables != 200 || cfg.TableIdleSeconds != 900 {
		t.Errorf("sim defaults = %+v", cfg)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("SIM_TICK_RATE", "120")
	t.Setenv("MAX_TABLES", "12")
	t.Setenv("JWT_SECRET", "s3cret")

	cfg := Load()

	if cfg.Environment != "production" || cfg.SimTickRate != 120 || cfg.MaxTables != 12 || cfg.JWTSecret != "s3cret" {
		t.Errorf("overrides not applied: %+v", cfg)
	}
}

func TestGetEnvIntFallsBackOnGarbage(t *testing.T) {
	t.Setenv("SIM_TICK_RATE", "fast")
	if got := getEnvInt("SIM_TICK_RATE", 60); got != 60 {
		t.Errorf("got %d, want fallback 60", got)
	}
}

func TestRuntimeAccessors(t *testing.T) {
	cfg := &Config{}
	if cfg.IdlePollInterval() != 15*time.Second || cfg.SnapshotTTL() != time.Hour {
		t.Errorf("unset defaults: poll=%v ttl=%v", cfg.IdlePollInterval(), cfg.SnapshotTTL())
	}

	cfg.Update(func(c *Config) {
		c.MaxTables = 3
		c.TableIdleSeconds = 30
		c.IdleWorkerPollInterval = 2
		c.SnapshotTTLMinutes = 5
	})

	if cfg.TableLimit() != 3 {
		t.Errorf("limit = %d", cfg.TableLimit())
	}
	if cfg.TableIdleTimeout() != 30*time.Second || cfg.IdlePollInterval() != 2*time.Second {
		t.Errorf("idle = %v poll = %v", cfg.TableIdleTimeout(), cfg.IdlePollInterval())
	}
	if cfg.SnapshotTTL() != 5*time.Minute {
		t.Errorf("ttl = %v", cfg.SnapshotTTL())
	}
}

func TestUpdateWhileReading(t *testing.T) {
	cfg := &Config{TableIdleSeconds: 900}
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 1000; i++ {
			cfg.TableIdleTimeout()
			cfg.TableLimit()
		}
	}()
	for i := 0; i < 1000; i++ {
		cfg.Update(func(c *Config) { c.TableIdleSeconds = i })
	}
	<-done
}
