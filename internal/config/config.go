package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds service configuration.
type Config struct {
	DatabaseURL   string
	ServerAddr    string
	MigrationsDir string

	JWTSecret      string
	GoogleClientID string

	SMTPHost  string
	SMTPPort  string
	SMTPUser  string
	SMTPPass  string
	EmailFrom string

	CloudinaryCloudName    string
	CloudinaryAPIKey       string
	CloudinaryAPISecret    string
	CloudinaryUploadFolder string

	TradeAutoMessageOnAccept bool
	TradeAutoMessageText     string
}

// Load reads configuration from the environment, loading a local .env
// file first when one exists.
func Load() (*Config, error) {
	_ = godotenv.Load()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		user := getenv("POSTGRES_USER", "trueque")
		pass := getenv("POSTGRES_PASSWORD", "trueque_pass")
		db := getenv("POSTGRES_DB", "trueque")
		host := getenv("POSTGRES_HOST", "localhost")
		port := getenv("POSTGRES_PORT", "5432")
		sslmode := getenv("DATABASE_SSLMODE", "disable")
		dsn = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", user, pass, host, port, db, sslmode)
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return &Config{
		DatabaseURL:   dsn,
		ServerAddr:    getenv("SERVER_ADDR", "0.0.0.0:8080"),
		MigrationsDir: getenv("MIGRATIONS_DIR", "migrations"),

		JWTSecret:      secret,
		GoogleClientID: os.Getenv("GOOGLE_CLIENT_ID"),

		SMTPHost:  os.Getenv("SMTP_HOST"),
		SMTPPort:  getenv("SMTP_PORT", "587"),
		SMTPUser:  os.Getenv("SMTP_USER"),
		SMTPPass:  os.Getenv("SMTP_PASS"),
		EmailFrom: getenv("EMAIL_FROM", "no-reply@trueque.app"),

		CloudinaryCloudName:    os.Getenv("CLOUDINARY_CLOUD_NAME"),
		CloudinaryAPIKey:       os.Getenv("CLOUDINARY_API_KEY"),
		CloudinaryAPISecret:    os.Getenv("CLOUDINARY_API_SECRET"),
		CloudinaryUploadFolder: getenv("CLOUDINARY_UPLOAD_FOLDER", "trueque/items"),

		TradeAutoMessageOnAccept: parseBool(getenv("TRADE_AUTO_MESSAGE_ON_ACCEPT", "true"), true),
		TradeAutoMessageText:     getenv("TRADE_AUTO_MESSAGE_TEXT", "Trade accepted! Let's coordinate the exchange."),
	}, nil
}

func getenv(key, def string) string {
	val := os.Getenv(key)
	if val == "" {
		return def
	}
	return val
}

func parseBool(val string, def bool) bool {
	if val == "" {
		return def
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return def
	}
	return b
}
