package config

import (
	"fmt"
	"os"
	"strings"
)

type Config struct {
	AppLogLevel   string
	AppPolicyPath string
	DebugEnabled  bool
	DebugDataPath string

	CognitoUserPoolID   string
	CognitoClientID     string
	CognitoClientSecret string
	SESSourceEmail      string
	ProfileTableName    string
	CORSAllowedOrigin   string

	HTTPPort     string
	HTTPBasePath string

	NotifyOnSignup         bool
	NotifyOnSignin         bool
	NotifyOnAuthentication bool

	EmailVerificationEnabled           bool
	EmailVerificationForTriggerSources *[]string
	EmailVerificationWhitelist         *[]string
	SendGridApiHost                    string
	SendGridEmailVerificationApiKey    string
}

// Requirement names an option a binary cannot run without.
type Requirement string

const (
	RequireUserPoolID    Requirement = "APP_COGNITO_USER_POOL_ID"
	RequireClientID      Requirement = "APP_COGNITO_CLIENT_ID"
	RequireSourceEmail   Requirement = "APP_SES_SOURCE_EMAIL"
	RequireProfileTable  Requirement = "APP_PROFILE_TABLE_NAME"
	RequireAllowedOrigin Requirement = "APP_CORS_ALLOWED_ORIGIN"
	RequirePolicyPath    Requirement = "APP_POLICY_PATH"
)

// GatewayRequirements are the options needed by both the HTTP server and the
// proxy lambda.
var GatewayRequirements = []Requirement{
	RequireUserPoolID,
	RequireClientID,
	RequireSourceEmail,
	RequireAllowedOrigin,
}

// HookRequirements are the options needed by the profile sync hooks.
var HookRequirements = []Requirement{
	RequireUserPoolID,
	RequireSourceEmail,
	RequireProfileTable,
}

func New() (*Config, error) {
	cfg := &Config{
		AppLogLevel:   os.Getenv("APP_LOG_LEVEL"),
		AppPolicyPath: os.Getenv("APP_POLICY_PATH"),
		DebugEnabled:  os.Getenv("APP_DEBUG_ENABLED") == "true",
		DebugDataPath: os.Getenv("APP_DEBUG_DATA_PATH"),

		CognitoUserPoolID:   strings.TrimSpace(os.Getenv("APP_COGNITO_USER_POOL_ID")),
		CognitoClientID:     strings.TrimSpace(os.Getenv("APP_COGNITO_CLIENT_ID")),
		CognitoClientSecret: os.Getenv("APP_COGNITO_CLIENT_SECRET"),
		SESSourceEmail:      strings.TrimSpace(os.Getenv("APP_SES_SOURCE_EMAIL")),
		ProfileTableName:    strings.TrimSpace(os.Getenv("APP_PROFILE_TABLE_NAME")),
		CORSAllowedOrigin:   strings.TrimSpace(os.Getenv("APP_CORS_ALLOWED_ORIGIN")),

		HTTPPort:     os.Getenv("APP_HTTP_PORT"),
		HTTPBasePath: os.Getenv("APP_HTTP_BASE_PATH"),

		NotifyOnSignup:         boolEnv("APP_NOTIFY_ON_SIGNUP", true),
		NotifyOnSignin:         boolEnv("APP_NOTIFY_ON_SIGNIN", false),
		NotifyOnAuthentication: boolEnv("APP_NOTIFY_ON_AUTHENTICATION", true),

		EmailVerificationEnabled:        os.Getenv("APP_EMAIL_VERIFICATION_ENABLED") == "true",
		SendGridApiHost:                 os.Getenv("APP_SENDGRID_API_HOST"),
		SendGridEmailVerificationApiKey: os.Getenv("APP_SENDGRID_EMAIL_VERIFICATION_API_KEY"),
	}

	if wl := splitList(os.Getenv("APP_EMAIL_VERIFICATION_WHITELIST"), true); len(wl) > 0 {
		cfg.EmailVerificationWhitelist = &wl
	}

	sources := splitList(os.Getenv("APP_EMAIL_VERIFICATION_FOR_TRIGGER_SOURCES"), false)
	if len(sources) == 0 {
		sources = []string{"PreSignUp_SignUp"}
	}
	cfg.EmailVerificationForTriggerSources = &sources

	if cfg.SendGridApiHost == "" {
		cfg.SendGridApiHost = "https://api.sendgrid.com"
	}
	if cfg.HTTPPort == "" {
		cfg.HTTPPort = "5000"
	}
	if cfg.HTTPBasePath == "" {
		cfg.HTTPBasePath = "/auth"
	}
	cfg.HTTPBasePath = "/" + strings.Trim(cfg.HTTPBasePath, "/")

	if cfg.DebugEnabled {
		cfg.AppLogLevel = "debug"
	}

	return cfg, nil
}

// Validate returns a single error naming every required option that is empty.
func (c *Config) Validate(reqs ...Requirement) error {
	var missing []string
	for _, r := range reqs {
		if c.value(r) == "" {
			missing = append(missing, string(r))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

func (c *Config) value(r Requirement) string {
	switch r {
	case RequireUserPoolID:
		return c.CognitoUserPoolID
	case RequireClientID:
		return c.CognitoClientID
	case RequireSourceEmail:
		return c.SESSourceEmail
	case RequireProfileTable:
		return c.ProfileTableName
	case RequireAllowedOrigin:
		return c.CORSAllowedOrigin
	case RequirePolicyPath:
		return c.AppPolicyPath
	}
	return ""
}

// Load reads the environment and validates it in one step.
func Load(reqs ...Requirement) (*Config, error) {
	cfg, err := New()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(reqs...); err != nil {
		return nil, err
	}
	return cfg, nil
}

func boolEnv(key string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	}
	return fallback
}

func splitList(raw string, lower bool) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if lower {
			p = strings.ToLower(p)
		}
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
