package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// parseEnv overlays configuration from environment variables. A local .env
// file is loaded first when present; a missing .env is not an error.
func parseEnv(config *Config) {
	_ = godotenv.Load()

	lookup := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}
	lookupInt := func(key string, dst *int) {
		if v, ok := os.LookupEnv(key); ok {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}

	lookup("ADDRESS", &config.EndpointAddr)
	lookup("DATABASE_DSN", &config.DatabaseDSN)
	lookup("SECRET_KEY", &config.SecretKey)
	lookup("TOKEN_ISSUER", &config.TokenIssuer)
	lookup("TOKEN_AUDIENCE", &config.TokenAudience)
	if v, ok := os.LookupEnv("TOKEN_VALIDITY"); ok {
		if d, err := time.ParseDuration(v); err == nil {
			config.TokenValidity = d
		}
	}
	lookupInt("BCRYPT_COST", &config.BcryptCost)
	lookup("SMTP_HOST", &config.SMTPHost)
	lookupInt("SMTP_PORT", &config.SMTPPort)
	lookup("SMTP_USERNAME", &config.SMTPUsername)
	lookup("SMTP_PASSWORD", &config.SMTPPassword)
	lookup("MAIL_FROM", &config.MailFrom)
	lookup("PUBLIC_BASE_URL", &config.PublicBaseURL)
}
