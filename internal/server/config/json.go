package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/maoji/memos-service/internal/flagx"
	"github.com/maoji/memos-service/internal/timex"
)

// jsonConfig mirrors Config for JSON unmarshalling. Duration fields accept
// either strings ("8760h") or integer nanoseconds via timex.Duration. Pointer
// fields distinguish "absent" from zero so the overlay only touches keys the
// file actually sets.
type jsonConfig struct {
	EndpointAddr  *string         `json:"endpoint_addr"`
	DatabaseDSN   *string         `json:"database_dsn"`
	SecretKey     *string         `json:"secret_key"`
	TokenIssuer   *string         `json:"token_issuer"`
	TokenAudience *string         `json:"token_audience"`
	TokenValidity *timex.Duration `json:"token_validity"`
	BcryptCost    *int            `json:"bcrypt_cost"`
	SMTPHost      *string         `json:"smtp_host"`
	SMTPPort      *int            `json:"smtp_port"`
	SMTPUsername  *string         `json:"smtp_username"`
	SMTPPassword  *string         `json:"smtp_password"`
	MailFrom      *string         `json:"mail_from"`
	PublicBaseURL *string         `json:"public_base_url"`
}

// parseJSON overlays values from the JSON file named by -c/-config, when
// present. Unreadable or invalid files panic: a requested config file that
// cannot be applied is a startup error, not something to run past.
func parseJSON(config *Config) {
	path := flagx.ConfigFileFlag()
	if path == "" {
		return
	}

	file, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &jsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	setInt := func(dst *int, src *int) {
		if src != nil {
			*dst = *src
		}
	}

	setString(&config.EndpointAddr, c.EndpointAddr)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.TokenIssuer, c.TokenIssuer)
	setString(&config.TokenAudience, c.TokenAudience)
	if c.TokenValidity != nil {
		config.TokenValidity = time.Duration(c.TokenValidity.Duration)
	}
	setInt(&config.BcryptCost, c.BcryptCost)
	setString(&config.SMTPHost, c.SMTPHost)
	setInt(&config.SMTPPort, c.SMTPPort)
	setString(&config.SMTPUsername, c.SMTPUsername)
	setString(&config.SMTPPassword, c.SMTPPassword)
	setString(&config.MailFrom, c.MailFrom)
	setString(&config.PublicBaseURL, c.PublicBaseURL)
}
