package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	MaxConcurrency int
	RateLimitMs    int
	MaxRetries     int
	ReviewsPerBank int
	BatchSize      int

	RulesPath       string
	RawCSVPath      string
	EnrichedCSVPath string
	InputCSVPath    string // when set, the scrape step is skipped and this file is read instead
	SentimentAPIURL string // when empty, the built-in lexicon scorer is used
	ChromeBin       string
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "postgres"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "postgres"),
		PostgresDB:       getEnv("POSTGRES_DB", "bank_reviews"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 3),
		RateLimitMs:    getEnvInt("RATE_LIMIT_MS", 2000),
		MaxRetries:     getEnvInt("MAX_RETRIES", 3),
		ReviewsPerBank: getEnvInt("REVIEWS_PER_BANK", 400),
		BatchSize:      getEnvInt("BATCH_SIZE", 100),

		RulesPath:       getEnv("RULES_PATH", "./configs/rules.yaml"),
		RawCSVPath:      getEnv("RAW_CSV_PATH", "./output/raw_reviews.csv"),
		EnrichedCSVPath: getEnv("ENRICHED_CSV_PATH", "./output/reviews_with_themes.csv"),
		InputCSVPath:    getEnv("INPUT_CSV_PATH", ""),
		SentimentAPIURL: getEnv("SENTIMENT_API_URL", ""),
		ChromeBin:       getEnv("CHROME_BIN", ""),
	}
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}
