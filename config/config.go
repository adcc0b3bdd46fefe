package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// StoreConfig configures the development store (cmd/devstore).
type StoreConfig struct {
	AppEnv         string
	LogLevel       string
	Port           string
	DatabaseDriver string
	DatabaseURL    string
	JWTSecret      string
	APIKey         string
	AllowedOrigins []string
	SeedCatalog    bool
}

// ClientConfig configures the client core (cmd/shopctl and embedders).
type ClientConfig struct {
	AppEnv             string
	LogLevel           string
	BaseURL            string
	APIKey             string
	Timeout            time.Duration
	HistoryConcurrency int
}

func LoadEnv() error {
	// A missing .env is normal outside local development; the process
	// environment is used as is.
	if err := godotenv.Load(); err != nil {
		return nil
	}
	return nil
}

// ValidateEnv checks the variables the development store cannot start without.
func ValidateEnv() error {
	var missing []string

	if os.Getenv("JWT_SECRET") == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if os.Getenv("API_KEY") == "" {
		missing = append(missing, "API_KEY")
	}
	driver := GetEnv("DB_DRIVER", "postgres")
	if driver == "postgres" && os.Getenv("DATABASE_URL") == "" {
		missing = append(missing, "DATABASE_URL")
	}

	if len(missing) > 0 {
		return fmt.Errorf("critical environment variables not set: %v", missing)
	}

	if driver != "postgres" && driver != "sqlite" {
		return fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}

	if os.Getenv("SMTP_HOST") == "" {
		log.Println("WARNING: SMTP_HOST not set - OTP codes will be written to the log")
	}
	if os.Getenv("CORS_ORIGINS") == "" {
		log.Println("WARNING: CORS_ORIGINS not set - defaulting to http://localhost:3000")
	}

	return nil
}

// ValidateClientEnv checks the variables the client core needs to reach the store.
func ValidateClientEnv() error {
	var missing []string

	if os.Getenv("STORE_URL") == "" {
		missing = append(missing, "STORE_URL")
	}
	if os.Getenv("STORE_API_KEY") == "" {
		missing = append(missing, "STORE_API_KEY")
	}

	if len(missing) > 0 {
		return fmt.Errorf("critical environment variables not set: %v", missing)
	}
	return nil
}

func LoadStore() StoreConfig {
	origins := splitList(os.Getenv("CORS_ORIGINS"))
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}

	return StoreConfig{
		AppEnv:         GetEnv("APP_ENV", "dev"),
		LogLevel:       GetEnv("LOG_LEVEL", "info"),
		Port:           GetEnv("PORT", "8080"),
		DatabaseDriver: GetEnv("DB_DRIVER", "postgres"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		APIKey:         os.Getenv("API_KEY"),
		AllowedOrigins: origins,
		SeedCatalog:    GetEnvBool("SEED_CATALOG", true),
	}
}

func LoadClient() ClientConfig {
	return ClientConfig{
		AppEnv:             GetEnv("APP_ENV", "dev"),
		LogLevel:           GetEnv("LOG_LEVEL", "info"),
		BaseURL:            strings.TrimRight(os.Getenv("STORE_URL"), "/"),
		APIKey:             os.Getenv("STORE_API_KEY"),
		Timeout:            GetEnvDuration("STORE_TIMEOUT", 15*time.Second),
		HistoryConcurrency: GetEnvInt("HISTORY_CONCURRENCY", 4),
	}
}

func GetEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func GetEnvInt(key string, defaultValue int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return defaultValue
	}
	return n
}

func GetEnvBool(key string, defaultValue bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}

	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultValue
	}
	return b
}

func GetEnvDuration(key string, defaultValue time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}

	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultValue
	}
	return d
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
