package admin

import (
	"fmt"
	"log"
	"strconv"

	"github.com/jmoiron/sqlx"
	"github.com/playmatatu/billiards/internal/config"
	"github.com/playmatatu/billiards/internal/models"
)

// GetAllRuntimeConfig returns all runtime config entries
func GetAllRuntimeConfig(db *sqlx.DB) ([]models.RuntimeConfig, error) {
	configs := []models.RuntimeConfig{}
	err := db.Select(&configs, `
		SELECT key, value, value_type, description, updated_by, updated_at
		FROM runtime_config
		ORDER BY key
	`)
	return configs, err
}

// GetRuntimeConfigValue returns a single runtime config value
func GetRuntimeConfigValue(db *sqlx.DB, key string) (*models.RuntimeConfig, error) {
	var cfg models.RuntimeConfig
	err := db.Get(&cfg, `SELECT key, value, value_type, description, updated_by, updated_at FROM runtime_config WHERE key=$1`, key)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ValidateRuntimeValue checks value against the declared value type
func ValidateRuntimeValue(valueType, value string) error {
	switch valueType {
	case "int":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid integer value: %s", value)
		}
		if n < 0 {
			return fmt.Errorf("value must not be negative: %s", value)
		}
	case "float":
		if _, err := strconv.ParseFloat(value, 64); err != nil {
			return fmt.Errorf("invalid float value: %s", value)
		}
	case "bool":
		if value != "true" && value != "false" {
			return fmt.Errorf("invalid boolean value: %s (must be 'true' or 'false')", value)
		}
	}
	return nil
}

// UpdateRuntimeConfigValue updates a single runtime config value
func UpdateRuntimeConfigValue(db *sqlx.DB, key, value, adminPhone string) error {
	existing, err := GetRuntimeConfigValue(db, key)
	if err != nil {
		return fmt.Errorf("config key not found: %s", key)
	}
	if err := ValidateRuntimeValue(existing.ValueType, value); err != nil {
		return err
	}

	_, err = db.Exec(`
		UPDATE runtime_config SET value=$1, updated_by=$2, updated_at=NOW() WHERE key=$3
	`, value, adminPhone, key)
	return err
}

// ApplyRuntimeConfigToConfig loads runtime config from DB and applies overrides to the Config struct
func ApplyRuntimeConfigToConfig(db *sqlx.DB, cfg *config.Config) error {
	configs, err := GetAllRuntimeConfig(db)
	if err != nil {
		return err
	}

	applied := ApplyOverrides(cfg, configs)
	log.Printf("[CONFIG] Applied %d runtime config overrides from database", applied)
	return nil
}

// ApplyOverrides copies known runtime keys onto cfg and returns how many
// were applied. Values are written under the config lock, so running
// workers pick them up on their next read.
func ApplyOverrides(cfg *config.Config, configs []models.RuntimeConfig) int {
	applied := 0
	cfg.Update(func(c *config.Config) {
		for _, rc := range configs {
			v, err := strconv.Atoi(rc.Value)
			if err != nil || v < 0 {
				continue
			}
			switch rc.Key {
			case "max_tables":
				c.MaxTables = v
			case "table_idle_seconds":
				c.TableIdleSeconds = v
			case "snapshot_ttl_minutes":
				c.SnapshotTTLMinutes = v
			case "idle_worker_poll_interval":
				c.IdleWorkerPollInterval = v
			default:
				continue
			}
			applied++
		}
	})
	return applied
}
