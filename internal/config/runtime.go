package config

import "time"

// Update applies fn to the config while holding the write lock. Runtime
// overrides go through here so the simulator, idle worker and handlers
// can keep reading while an admin changes a value.
func (c *Config) Update(fn func(*Config)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(c)
}

// TableLimit is the maximum number of live tables; 0 means unlimited.
func (c *Config) TableLimit() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.MaxTables
}

// TableIdleTimeout is how long a table may sit without input.
func (c *Config) TableIdleTimeout() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return time.Duration(c.TableIdleSeconds) * time.Second
}

// IdlePollInterval is how often the idle worker looks for abandoned
// tables. Defaults to 15s when unset.
func (c *Config) IdlePollInterval() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.IdleWorkerPollInterval <= 0 {
		return 15 * time.Second
	}
	return time.Duration(c.IdleWorkerPollInterval) * time.Second
}

// SnapshotTTL is how long a table snapshot lives in Redis. Defaults to an
// hour when unset.
func (c *Config) SnapshotTTL() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.SnapshotTTLMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(c.SnapshotTTLMinutes) * time.Minute
}
