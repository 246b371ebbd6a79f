package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all runtime configuration. It is built once at startup and
// passed by pointer to the components that need it; nothing mutates it afterwards.
type Config struct {
	AppPort        string
	AppEnv         string
	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string
	DynamoTables   DynamoTables
	JWTSecret      string
	JWTExpiry      time.Duration
	MailTransport  string // "smtp" | "sns"
	SMTPHost       string
	SMTPPort       string
	SMTPFrom       string
	SMTPUsername   string
	SMTPPassword   string
	SNSRegion      string
	SNSTopicARN    string
	AllowedOrigins []string // CORS allowed origins
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Users string
	Todos string
}

const (
	MailTransportSMTP = "smtp"
	MailTransportSNS  = "sns"
)

// Load reads configuration from the optional YAML file named by CONFIG_FILE,
// then from environment variables. Environment variables win.
func Load() (*Config, error) {
	file := map[string]string{}
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		var err error
		if file, err = readFile(path); err != nil {
			return nil, err
		}
	}
	get := func(key, fallback string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		if v, ok := file[key]; ok && v != "" {
			return v
		}
		return fallback
	}

	cfg := &Config{
		AppPort:        get("APP_PORT", "3000"),
		AppEnv:         get("APP_ENV", "development"),
		AWSRegion:      get("AWS_REGION", "us-east-1"),
		AWSEndpointURL: get("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: get("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   get("AWS_SECRET_ACCESS_KEY", ""),
		DynamoTables: DynamoTables{
			Users: get("DYNAMO_TABLE_USERS", "users"),
			Todos: get("DYNAMO_TABLE_TODOS", "todos"),
		},
		JWTSecret:      get("JWT_SECRET", ""),
		JWTExpiry:      time.Duration(atoi(get("JWT_EXPIRY_DAYS", ""), 30)) * 24 * time.Hour,
		MailTransport:  strings.ToLower(get("MAIL_TRANSPORT", MailTransportSMTP)),
		SMTPHost:       get("SMTP_HOST", "localhost"),
		SMTPPort:       get("SMTP_PORT", "1025"),
		SMTPFrom:       get("SMTP_FROM", "noreply@example.com"),
		SMTPUsername:   get("SMTP_USERNAME", ""),
		SMTPPassword:   get("SMTP_PASSWORD", ""),
		SNSRegion:      get("SNS_REGION", "us-east-1"),
		SNSTopicARN:    get("SNS_TOPIC_ARN", ""),
		AllowedOrigins: strings.Split(get("ALLOWED_ORIGINS", "*"), ","),
	}
	return cfg, cfg.Validate()
}

// Validate rejects configurations the server cannot run with.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	switch c.MailTransport {
	case MailTransportSMTP:
	case MailTransportSNS:
		if c.SNSTopicARN == "" {
			return errors.New("SNS_TOPIC_ARN is required when MAIL_TRANSPORT=sns")
		}
	default:
		return fmt.Errorf("unknown MAIL_TRANSPORT %q", c.MailTransport)
	}
	return nil
}

// readFile parses a flat YAML mapping of env-style keys, e.g.
//
//	APP_PORT: "8080"
//	JWT_EXPIRY_DAYS: 30
func readFile(path string) (map[string]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	raw := map[string]interface{}{}
	if err := yaml.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		if v == nil {
			continue
		}
		out[strings.ToUpper(k)] = fmt.Sprint(v)
	}
	return out, nil
}

func atoi(v string, fallback int) int {
	if v == "" {
		return fallback
	}
	if n, err := strconv.Atoi(v); err == nil && n > 0 {
		return n
	}
	return fallback
}
