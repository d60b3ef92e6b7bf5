package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Summary returns the non-secret settings, used by the check command.
func (c *Config) Summary() map[string]any {
	return map[string]any{
		"app_port":          c.App.Port,
		"app_debug":         c.App.Debug,
		"mock_mode":         c.App.MockMode,
		"db_driver":         c.Database.Driver,
		"db_name":           c.Database.Name,
		"valkey_enabled":    c.Database.ValkeyEnabled,
		"ai_provider":       c.AI.Provider,
		"ai_model":          c.AI.Model,
		"calendar_provider": c.Calendar.Provider,
		"calendar_id":       c.Calendar.CalendarID,
		"webhook_async":     c.Webhook.Async,
	}
}

// Helpers
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		vLower := strings.ToLower(v)
		return vLower == "1" || vLower == "true" || vLower == "yes" || vLower == "on"
	}
	return fallback
}

// getEnvDuration accepts Go durations ("90s") or plain seconds ("90").
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	return fallback
}

func splitCSV(v string) []string {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
