package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

type Config struct {
	ServiceName string
	ServerPort  int

	DatabaseURL string

	JWTAccessSecret  []byte
	JWTRefreshSecret []byte

	KafkaBrokers []string

	ESURL      string
	ESUser     string
	ESPassword string
	ESIndex    string

	LogLevel string

	// Marketplace rules. PlatformCommission is the platform's share of
	// every completed order; the remainder goes to the seller.
	PriceMin           float64
	PriceMax           float64
	MaxImages          int
	MaxImageSizeBytes  int64
	MaxFileSizeBytes   int64
	PlatformCommission float64
	PageSize           int
}

func Load() Config {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("notice: .env file not found: %v, using system environment", err)
	}

	return Config{
		ServiceName: EnvDefault("SERVICE_NAME", "fivemarket"),
		ServerPort:  EnvIntDefault("SERVER_PORT", 8080),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		JWTAccessSecret:  []byte(os.Getenv("JWT_SECRET")),
		JWTRefreshSecret: []byte(os.Getenv("JWT_REFRESH_SECRET")),

		KafkaBrokers: CSV(os.Getenv("KAFKA_BROKERS")),

		ESURL:      os.Getenv("ES_URL"),
		ESUser:     os.Getenv("ES_USER"),
		ESPassword: os.Getenv("ES_PASSWORD"),
		ESIndex:    EnvDefault("ES_INDEX", "resources"),

		LogLevel: EnvDefault("LOG_LEVEL", "info"),

		PriceMin:           EnvFloatDefault("PRICE_MIN", 0),
		PriceMax:           EnvFloatDefault("PRICE_MAX", 1000),
		MaxImages:          EnvIntDefault("MAX_IMAGES", 10),
		MaxImageSizeBytes:  int64(EnvIntDefault("MAX_IMAGE_SIZE_BYTES", 5*1024*1024)),
		MaxFileSizeBytes:   int64(EnvIntDefault("MAX_FILE_SIZE_BYTES", 50*1024*1024)),
		PlatformCommission: EnvFloatDefault("PLATFORM_COMMISSION", 0.20),
		PageSize:           EnvIntDefault("PAGE_SIZE", 20),
	}
}

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func EnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func EnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func EnvFloatDefault(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func MustNonEmpty(value, envName string) {
	if value == "" {
		log.Fatalf("missing required env %s", envName)
	}
}

func MustNonEmptyBytes(value []byte, envName string) {
	if len(value) == 0 {
		log.Fatalf("missing required env %s", envName)
	}
}
