package config

import (
	"os"      // For environment variables
	"strconv" // For string to int conversion

	"github.com/joho/godotenv" // For loading .env files
)

// Config holds the application configuration
type Config struct {
	AppPort    string // Application port
	DBUser     string // Database user
	DBPassword string // Database password
	DBHost     string // Database host
	DBPort     string // Database port
	DBName     string // Database name
	JWTSecret  string // JWT secret key
	RedisAddr  string // Redis server address
	RedisPass  string // Redis password
	RedisDB    int    // Redis database number
	CacheTTL   int    // Cache TTL in seconds
	IsProd     bool   // Is production environment
	LogLevel   string // Logrus level name

	Currency         string // Wallet currency code
	LedgerMaxRetries int    // Extra attempts for an atomic unit after a lock conflict

	PaymentBaseURL     string // Payment gateway API base URL
	PaymentSecretKey   string // Payment gateway secret key
	PaymentWebhookHash string // Shared secret sent by the gateway in the verif-hash header
	PaymentRedirectURL string // Where the gateway sends the member after checkout

	KycBaseURL   string // Identity provider API base URL
	KycPartnerID string // Identity provider partner id
	KycAPIKey    string // Identity provider API key

	SmsBaseURL  string // SMS provider API base URL
	SmsAPIKey   string // SMS provider API key
	SmsSenderID string // Sender name shown on one-time codes
}

// DSN builds the MySQL data source name
func (c *Config) DSN() string {
	return c.DBUser + ":" + c.DBPassword + "@tcp(" + c.DBHost + ":" + c.DBPort + ")/" + c.DBName + "?parseTime=true&loc=UTC"
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	_ = godotenv.Load() // Load .env file if present
	redisDB, _ := strconv.Atoi(os.Getenv("REDIS_DB"))
	return &Config{
		AppPort:    getEnv("APP_PORT", "3001"),         // Application port
		DBUser:     os.Getenv("DB_USER"),               // Database user
		DBPassword: os.Getenv("DB_PASSWORD"),           // Database password
		DBHost:     getEnv("DB_HOST", "127.0.0.1"),     // Database host
		DBPort:     getEnv("DB_PORT", "3306"),          // Database port
		DBName:     os.Getenv("DB_NAME"),               // Database name
		JWTSecret:  os.Getenv("JWT_SECRET"),            // JWT secret key
		RedisAddr:  os.Getenv("REDIS_ADDR"),            // Redis server address
		RedisPass:  os.Getenv("REDIS_PASS"),            // Redis password
		RedisDB:    redisDB,                            // Redis database number
		CacheTTL:   getEnvInt("CACHE_TTL_SECONDS", 60), // Cache TTL
		IsProd:     os.Getenv("IS_PROD") == "true",     // Is production environment
		LogLevel:   getEnv("LOG_LEVEL", "info"),        // Log level

		Currency:         getEnv("CURRENCY", "NGN"),
		LedgerMaxRetries: getEnvInt("LEDGER_MAX_RETRIES", 3),

		PaymentBaseURL:     getEnv("PAYMENT_BASE_URL", "https://api.flutterwave.com/v3"),
		PaymentSecretKey:   os.Getenv("PAYMENT_SECRET_KEY"),
		PaymentWebhookHash: os.Getenv("PAYMENT_WEBHOOK_HASH"),
		PaymentRedirectURL: os.Getenv("PAYMENT_REDIRECT_URL"),

		KycBaseURL:   getEnv("KYC_BASE_URL", "https://testapi.smileidentity.com/v1"),
		KycPartnerID: os.Getenv("KYC_PARTNER_ID"),
		KycAPIKey:    os.Getenv("KYC_API_KEY"),

		SmsBaseURL:  getEnv("TERMII_BASE_URL", "https://api.ng.termii.com/api"),
		SmsAPIKey:   os.Getenv("TERMII_API_KEY"),
		SmsSenderID: getEnv("TERMII_SENDER_ID", "DigiCoop"),
	}
}

// getEnv returns the variable or a fallback when unset
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getEnvInt parses an integer variable, falling back when unset or malformed
func getEnvInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}
