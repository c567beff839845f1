package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/stake-plus/questcomms/src/shared/data"
	"gorm.io/gorm"
)

type Config struct {
	Token        string
	QuestBaseURL string
	PollInterval time.Duration
	MySQLDSN     string
	RedisURL     string
}

func Load(db *gorm.DB) Config {
	// Load settings from database
	if err := data.LoadSettings(db); err != nil {
		log.Printf("Failed to load settings: %v", err)
	}

	// Get values from database with env fallbacks
	token := data.GetSetting("discord_token")
	if token == "" {
		token = os.Getenv("DISCORD_TOKEN")
	}

	questURL := data.GetSetting("quest_api_url")
	if questURL == "" {
		questURL = os.Getenv("QUEST_API_URL")
	}

	interval := 21 * time.Second
	if v := data.GetSetting("poll_interval"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			interval = time.Duration(secs) * time.Second
		}
	}

	return Config{
		Token:        token,
		QuestBaseURL: questURL,
		PollInterval: interval,
		MySQLDSN:     getenv("MYSQL_DSN", "questcomms:questcomms@tcp(127.0.0.1:3306)/questcomms"),
		RedisURL:     getenv("REDIS_URL", "redis://127.0.0.1:6379/0"),
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
