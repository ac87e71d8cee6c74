package config

import (
	"crypto/sha256"
	"encoding/hex"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	EmailProviderSendGrid = "sendgrid"
	EmailProviderSES      = "ses"
)

// Secret values shipped in sample env files. Treated as "not configured".
var placeholderSecrets = map[string]struct{}{
	"your-secret-key":           {},
	"your_recaptcha_secret_key": {},
	"your-recaptcha-secret-key": {},
	"changeme":                  {},
	"placeholder":               {},
	"xxx":                       {},
}

// SHA-256 digests of keys that were once shipped as compiled-in defaults.
// They are public and must never be accepted as a configured secret.
var revokedSecretDigests = map[string]struct{}{
	"dcb72dfc99da44e74b602ed8052113d152a574f8f153c24374259e47057e9b88": {},
}

type Config struct {
	Port     string
	GinMode  string
	LogLevel string
	// CAPTCHA
	CaptchaEnabled     bool
	RecaptchaSecretKey string
	RecaptchaVerifyURL string
	CaptchaTimeout     time.Duration
	// Email dispatch
	EmailProvider    string
	SendGridAPIKey   string
	AWSRegion        string
	EmailFromAddress string
	EmailFromName    string
	ContactEmailTo   string
	EmailTimeout     time.Duration
	// Attachment scanning, empty disables it
	ClamAVAddress string
	// HTTP
	CORSAllowedOrigins []string
	MaxRequestBytes    int64
}

func LoadConfig() (*Config, error) {
	// .env is only present locally; missing file is fine
	_ = godotenv.Load()

	cfg := &Config{
		Port:               getEnv("PORT", "8080"),
		GinMode:            getEnv("GIN_MODE", "debug"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		CaptchaEnabled:     getEnvBool("CAPTCHA_ENABLED", true),
		RecaptchaSecretKey: strings.TrimSpace(getEnv("RECAPTCHA_SECRET_KEY", "")),
		RecaptchaVerifyURL: getEnv("RECAPTCHA_VERIFY_URL", "https://www.google.com/recaptcha/api/siteverify"),
		CaptchaTimeout:     getEnvDuration("CAPTCHA_TIMEOUT", 10*time.Second),
		EmailProvider:      strings.ToLower(getEnv("EMAIL_PROVIDER", EmailProviderSendGrid)),
		SendGridAPIKey:     getEnv("SENDGRID_API_KEY", ""),
		AWSRegion:          getEnv("AWS_REGION", "eu-central-1"),
		EmailFromAddress:   getEnv("EMAIL_FROM_ADDRESS", "noreply@danskegas.com"),
		EmailFromName:      getEnv("EMAIL_FROM_NAME", "DanskeGas"),
		ContactEmailTo:     getEnv("CONTACT_EMAIL_TO", "contact@danskegas.com"),
		EmailTimeout:       getEnvDuration("EMAIL_TIMEOUT", 10*time.Second),
		ClamAVAddress:      getEnv("CLAMAV_ADDRESS", ""),
		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{
			"https://danskegas.com",
			"https://www.danskegas.com",
			"http://localhost:3000",
		}),
		MaxRequestBytes: int64(getEnvInt("MAX_REQUEST_BYTES", 10<<20)),
	}

	if cfg.CaptchaEnabled && !cfg.CaptchaSecretConfigured() {
		log.Println("WARNING: CAPTCHA is enabled but RECAPTCHA_SECRET_KEY is unset. Submissions will be rejected with a configuration error.")
	}
	if !cfg.CaptchaEnabled {
		log.Println("WARNING: CAPTCHA_ENABLED=false. Submissions are accepted without verification.")
	}
	if cfg.EmailProvider == EmailProviderSendGrid && cfg.SendGridAPIKey == "" {
		log.Println("WARNING: SENDGRID_API_KEY is missing. Email dispatch will fail.")
	}

	return cfg, nil
}

// CaptchaSecretConfigured reports whether the reCAPTCHA secret is set to
// something other than an empty or sample value.
func (c *Config) CaptchaSecretConfigured() bool {
	return SecretConfigured(c.RecaptchaSecretKey)
}

func (c *Config) IsProduction() bool {
	return c.GinMode == "release"
}

func SecretConfigured(secret string) bool {
	trimmed := strings.TrimSpace(secret)
	if trimmed == "" {
		return false
	}
	if _, placeholder := placeholderSecrets[strings.ToLower(trimmed)]; placeholder {
		return false
	}
	sum := sha256.Sum256([]byte(trimmed))
	_, revoked := revokedSecretDigests[hex.EncodeToString(sum[:])]
	return !revoked
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt returns an integer environment variable or fallback if not set/invalid
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

// getEnvBool returns a boolean environment variable or fallback if not set/invalid
func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}

// getEnvDuration accepts Go durations ("10s") or a bare number of seconds.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	if d, err := time.ParseDuration(value); err == nil && d > 0 {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimRight(strings.TrimSpace(item), "/"); item != "" {
			out = append(out, item)
		}
	}
	return out
}
