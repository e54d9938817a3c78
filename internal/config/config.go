package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const DefaultQRISImageURL = "https://drive.google.com/file/d/1miIbSMHPMVaMH9RCSeoDWhrLalS4hpXf/view?usp=drivesdk"

type Config struct {
	ServiceName string
	ServerPort  int
	LogLevel    string

	APIURL     string
	APITimeout time.Duration

	StorageDSN   string
	StorageScope string

	KafkaBrokers []string

	ESURL      string
	ESUser     string
	ESPassword string
	ESIndex    string

	QRISImageURL string
	QRISSource   string

	SearchDebounce time.Duration
}

// Load reads .env (when present) and then the process environment.
func Load() Config {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}
	return FromEnv()
}

func FromEnv() Config {
	return Config{
		ServiceName: EnvDefault("SERVICE_NAME", "storefront"),
		ServerPort:  EnvIntDefault("SERVER_PORT", 8080),
		LogLevel:    EnvDefault("LOG_LEVEL", "info"),

		APIURL:     strings.TrimRight(os.Getenv("API_URL"), "/"),
		APITimeout: time.Duration(EnvIntDefault("API_TIMEOUT_SECONDS", 10)) * time.Second,

		StorageDSN:   EnvDefault("STORAGE_DSN", "storefront.db"),
		StorageScope: EnvDefault("STORAGE_SCOPE", "storefront"),

		KafkaBrokers: CSV(os.Getenv("KAFKA_BROKERS")),

		ESURL:      os.Getenv("ES_URL"),
		ESUser:     os.Getenv("ES_USER"),
		ESPassword: os.Getenv("ES_PASSWORD"),
		ESIndex:    EnvDefault("ES_INDEX", "product"),

		QRISImageURL: EnvDefault("QRIS_IMAGE_URL", DefaultQRISImageURL),
		QRISSource:   strings.ToLower(EnvDefault("QRIS_SOURCE", "static")),

		SearchDebounce: time.Duration(EnvIntDefault("SEARCH_DEBOUNCE_MS", 300)) * time.Millisecond,
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
