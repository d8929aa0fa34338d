package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Server ServerConfig

	// Database configuration
	Database DatabaseConfig

	// JWT configuration
	JWT JWTConfig

	// Google OAuth configuration
	GoogleOAuth GoogleOAuthConfig

	// CORS configuration
	CORS CORSConfig

	// LLM provider configuration
	LLM LLMConfig

	// Chat behaviour
	Chat ChatConfig

	// Logging
	Log LogConfig

	// FrontendURL receives the OAuth redirect with the issued token
	FrontendURL string
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxConns     int32
	MinConns     int32
	MaxLifetime  time.Duration
	ConnTimeout  time.Duration
	QueryTimeout time.Duration
}

// JWTConfig holds JWT-related configuration
type JWTConfig struct {
	Secret         string
	AccessTokenTTL time.Duration
}

// GoogleOAuthConfig holds Google OAuth configuration
type GoogleOAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// CORSConfig holds CORS configuration
type CORSConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	AllowCredentials bool
}

// LLMConfig selects and configures the completion provider
type LLMConfig struct {
	Provider string
	APIKey   string
	Model    string
	BaseURL  string
}

// ChatConfig holds conversation settings
type ChatConfig struct {
	HistoryWindow int
}

// LogConfig holds logger settings
type LogConfig struct {
	Level  string
	Format string
}

var defaults = map[string]any{
	"SERVER_PORT":             "8080",
	"SERVER_READ_TIMEOUT":     5 * time.Second,
	"SERVER_WRITE_TIMEOUT":    90 * time.Second,
	"SERVER_IDLE_TIMEOUT":     120 * time.Second,
	"SERVER_SHUTDOWN_TIMEOUT": 5 * time.Second,

	"DB_HOST":          "localhost",
	"DB_PORT":          "5432",
	"DB_USER":          "postgres",
	"DB_PASSWORD":      "",
	"DB_NAME":          "postgres",
	"DB_SSLMODE":       "disable",
	"DB_MAX_CONNS":     5,
	"DB_MIN_CONNS":     0,
	"DB_MAX_LIFETIME":  time.Hour,
	"DB_CONN_TIMEOUT":  10 * time.Second,
	"DB_QUERY_TIMEOUT": 30 * time.Second,

	"JWT_SECRET":     "",
	"JWT_ACCESS_TTL": 7 * 24 * time.Hour,

	"GOOGLE_CLIENT_ID":     "",
	"GOOGLE_CLIENT_SECRET": "",
	"GOOGLE_REDIRECT_URL":  "http://localhost:8080/api/auth/google/callback",

	"CORS_ALLOWED_ORIGINS":   "*",
	"CORS_ALLOWED_METHODS":   "GET,POST,PUT,PATCH,DELETE,OPTIONS",
	"CORS_ALLOWED_HEADERS":   "*",
	"CORS_ALLOW_CREDENTIALS": true,

	"LLM_PROVIDER":      "openai",
	"LLM_API_KEY":       "",
	"LLM_MODEL":         "",
	"LLM_BASE_URL":      "",
	"OPENAI_API_KEY":    "",
	"ANTHROPIC_API_KEY": "",

	"CHAT_HISTORY_WINDOW": 20,

	"LOG_LEVEL":  "info",
	"LOG_FORMAT": "console",

	"FRONTEND_URL": "http://localhost:3000",
}

// Load loads configuration from .env, an optional config file and
// environment variables, in increasing precedence.
func Load(configFile string) (*Config, error) {
	if err := godotenv.Load("../.env"); err != nil {
		if err := godotenv.Load(".env"); err != nil {
			log.Debug().Err(err).Msg(".env file not found, using process environment")
		}
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", configFile, err)
		}
		log.Debug().Str("path", configFile).Msg("Read config file successfully")
	}

	config := fromViper(v)

	// Validate required configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

func fromViper(v *viper.Viper) *Config {
	provider := strings.ToLower(v.GetString("LLM_PROVIDER"))
	apiKey := v.GetString("LLM_API_KEY")
	if apiKey == "" {
		switch provider {
		case "anthropic":
			apiKey = v.GetString("ANTHROPIC_API_KEY")
		default:
			apiKey = v.GetString("OPENAI_API_KEY")
		}
	}

	return &Config{
		Server: ServerConfig{
			Port:            v.GetString("SERVER_PORT"),
			ReadTimeout:     v.GetDuration("SERVER_READ_TIMEOUT"),
			WriteTimeout:    v.GetDuration("SERVER_WRITE_TIMEOUT"),
			IdleTimeout:     v.GetDuration("SERVER_IDLE_TIMEOUT"),
			ShutdownTimeout: v.GetDuration("SERVER_SHUTDOWN_TIMEOUT"),
		},
		Database: DatabaseConfig{
			Host:         v.GetString("DB_HOST"),
			Port:         v.GetString("DB_PORT"),
			User:         v.GetString("DB_USER"),
			Password:     v.GetString("DB_PASSWORD"),
			Name:         v.GetString("DB_NAME"),
			SSLMode:      v.GetString("DB_SSLMODE"),
			MaxConns:     v.GetInt32("DB_MAX_CONNS"),
			MinConns:     v.GetInt32("DB_MIN_CONNS"),
			MaxLifetime:  v.GetDuration("DB_MAX_LIFETIME"),
			ConnTimeout:  v.GetDuration("DB_CONN_TIMEOUT"),
			QueryTimeout: v.GetDuration("DB_QUERY_TIMEOUT"),
		},
		JWT: JWTConfig{
			Secret:         v.GetString("JWT_SECRET"),
			AccessTokenTTL: v.GetDuration("JWT_ACCESS_TTL"),
		},
		GoogleOAuth: GoogleOAuthConfig{
			ClientID:     v.GetString("GOOGLE_CLIENT_ID"),
			ClientSecret: v.GetString("GOOGLE_CLIENT_SECRET"),
			RedirectURL:  v.GetString("GOOGLE_REDIRECT_URL"),
		},
		CORS: CORSConfig{
			AllowedOrigins:   splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
			AllowedMethods:   splitList(v.GetString("CORS_ALLOWED_METHODS")),
			AllowedHeaders:   splitList(v.GetString("CORS_ALLOWED_HEADERS")),
			AllowCredentials: v.GetBool("CORS_ALLOW_CREDENTIALS"),
		},
		LLM: LLMConfig{
			Provider: provider,
			APIKey:   apiKey,
			Model:    v.GetString("LLM_MODEL"),
			BaseURL:  v.GetString("LLM_BASE_URL"),
		},
		Chat: ChatConfig{
			HistoryWindow: v.GetInt("CHAT_HISTORY_WINDOW"),
		},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
		FrontendURL: strings.TrimRight(v.GetString("FRONTEND_URL"), "/"),
	}
}

// Validate checks the settings every command needs to reach the database
func (c *Config) Validate() error {
	if c.Database.Password == "" {
		return errors.New("DB_PASSWORD is required")
	}
	return nil
}

// ValidateServer checks the additional settings the HTTP server needs
func (c *Config) ValidateServer() error {
	errs := []error{c.Validate()}
	if c.JWT.Secret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	switch c.LLM.Provider {
	case "openai", "anthropic":
	default:
		errs = append(errs, fmt.Errorf("LLM_PROVIDER %q is not supported", c.LLM.Provider))
	}
	if c.LLM.APIKey == "" {
		errs = append(errs, fmt.Errorf("an API key is required for LLM provider %q", c.LLM.Provider))
	}
	if c.Chat.HistoryWindow <= 0 {
		errs = append(errs, errors.New("CHAT_HISTORY_WINDOW must be positive"))
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}

	// Check required Google OAuth configuration
	if !c.IsGoogleOAuthConfigured() {
		log.Warn().Msg("Google OAuth credentials not configured. Google login will not work.")
	}

	return nil
}

// GetDSN returns the database connection string
func (c *Config) GetDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s&connect_timeout=%d",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
		int(c.Database.ConnTimeout.Seconds()),
	)
}

// IsGoogleOAuthConfigured checks if Google OAuth is properly configured
func (c *Config) IsGoogleOAuthConfigured() bool {
	return c.GoogleOAuth.ClientID != "" && c.GoogleOAuth.ClientSecret != ""
}

// splitList parses a comma-separated value, dropping blanks.
func splitList(value string) []string {
	parts := []string{}
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			parts = append(parts, part)
		}
	}
	return parts
}
