package relay

import (
	"strings"

	"github.com/nazarhussain/portfolio-courier/env"
)

/*
ENV-ONLY CONFIG (documented in README):
  Server:
    LISTEN_ADDR (default ":3000")
    LOG_LEVEL (debug/info/warn/error, default "info")
    LOG_FORMAT ("json" for JSON logs, default text)

  Mail (absence is a request-time configuration error, not a boot failure):
    SMTP_HOST, SMTP_PORT, SMTP_USER, SMTP_PASS, SMTP_SSL (true/false)
    CONTACT_TO                  // owner notification recipient
    FROM_ADDR (default SMTP_USER)
    SUBJECT_PREFIX (default "[Contact]")

  Abuse prevention:
    ALLOWED_ORIGINS="https://a.com,https://b.com"   // optional, "*" allowed
    MX_CHECK (default "true")
    ALLOW_JSON (default "true")
    ALLOW_FORM (default "true")
    MAX_BODY_KB (default 1024)  // 1MB

  Submission store:
    STORE_BACKEND ("file", "redis" or "memory", default "file")
    STORE_PATH (default "data/submissions.json")
    REDIS_ADDR (default "localhost:6379")
    REDIS_PASSWORD
    REDIS_DB (default 0)
*/

type SMTPConfig struct {
	Host string
	Port int
	User string
	Pass string
	SSL  bool
}

type Config struct {
	ListenAddr string

	SMTP          SMTPConfig
	ContactTo     string
	FromAddr      string
	SubjectPrefix string

	AllowedOrigins []string
	MXCheck        bool
	AllowJSON      bool
	AllowForm      bool
	MaxBodyKB      int

	StoreBackend  string
	StorePath     string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// MailConfigured reports whether the send path has everything it needs.
// Checked per request so a misconfigured deployment fails loudly instead
// of silently dropping messages.
func (c *Config) MailConfigured() bool {
	return c.SMTP.Host != "" && c.SMTP.User != "" && c.SMTP.Pass != "" && c.ContactTo != ""
}

var conf *Config

func GetConfig() *Config {
	if conf == nil {
		smtp := SMTPConfig{
			Host: env.Env("SMTP_HOST", ""),
			Port: env.EnvInt("SMTP_PORT", 587),
			User: env.Env("SMTP_USER", ""),
			Pass: env.Env("SMTP_PASS", ""),
			SSL:  env.EnvBool("SMTP_SSL", false),
		}
		conf = &Config{
			ListenAddr:     env.Env("LISTEN_ADDR", ":3000"),
			SMTP:           smtp,
			ContactTo:      env.Env("CONTACT_TO", ""),
			FromAddr:       env.Env("FROM_ADDR", smtp.User),
			SubjectPrefix:  env.Env("SUBJECT_PREFIX", "[Contact]"),
			AllowedOrigins: splitString(env.Env("ALLOWED_ORIGINS", "")),
			MXCheck:        env.EnvBool("MX_CHECK", true),
			AllowJSON:      env.EnvBool("ALLOW_JSON", true),
			AllowForm:      env.EnvBool("ALLOW_FORM", true),
			MaxBodyKB:      env.EnvInt("MAX_BODY_KB", 1024),
			StoreBackend:   env.Env("STORE_BACKEND", "file"),
			StorePath:      env.Env("STORE_PATH", "data/submissions.json"),
			RedisAddr:      env.Env("REDIS_ADDR", "localhost:6379"),
			RedisPassword:  env.Env("REDIS_PASSWORD", ""),
			RedisDB:        env.EnvInt("REDIS_DB", 0),
		}
	}
	return conf
}

func splitString(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
