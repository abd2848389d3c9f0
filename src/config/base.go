package config

import (
	"log"
	"os"

	"github.com/docsmith/docgen/src/data"
	"gorm.io/gorm"
)

// Base contains configuration shared by every service.
type Base struct {
	MySQLDSN string
	RedisURL string
}

// LoadBase loads shared configuration from the settings table with env
// fallbacks.
func LoadBase(db *gorm.DB) Base {
	if err := data.LoadSettings(db); err != nil {
		log.Printf("config: load settings: %v", err)
	}

	dsn, err := data.GetMySQLDSN()
	if err != nil {
		log.Printf("config: %v", err)
	}

	redisURL := GetSetting("redis_url", "REDIS_URL", "redis://localhost:6379/0")

	return Base{
		MySQLDSN: dsn,
		RedisURL: redisURL,
	}
}

// GetSetting retrieves a setting with env fallback
func GetSetting(name, envKey, defaultValue string) string {
	val := data.GetSetting(name)
	if val == "" {
		val = os.Getenv(envKey)
	}
	if val == "" {
		val = defaultValue
	}
	return val
}
