package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Database     DatabaseConfig     `yaml:"database"`
	Auth         AuthConfig         `yaml:"auth"`
	JWT          JWTConfig          `yaml:"jwt"`
	Notification NotificationConfig `yaml:"notification"`
	Log          LogConfig          `yaml:"log"`
	Scheduler    SchedulerConfig    `yaml:"scheduler"`
	Jobs         JobsConfig         `yaml:"jobs"`
}

const (
	EnvironmentDevelopment = "development"
	EnvironmentProduction  = "production"
)

// ServerConfig contains HTTP and gRPC listener settings
type ServerConfig struct {
	Host        string `yaml:"host"`
	HTTPPort    int    `yaml:"http_port"`
	GRPCPort    int    `yaml:"grpc_port"`
	Environment string `yaml:"environment"`
	// ShutdownTimeoutSeconds bounds graceful shutdown, including in-flight
	// notification deliveries.
	ShutdownTimeoutSeconds int `yaml:"shutdown_timeout_seconds"`
}

func (s ServerConfig) IsProduction() bool {
	return strings.EqualFold(s.Environment, EnvironmentProduction)
}

func (s ServerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(s.ShutdownTimeoutSeconds) * time.Second
}

const (
	DatabaseDriverPostgres = "postgres"
	DatabaseDriverMemory   = "memory"
)

// DatabaseConfig selects the store. The memory driver ignores the rest.
type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"ssl_mode"`
	Migrate  bool   `yaml:"migrate"`
}

const (
	AuthProviderToken  = "token"
	AuthProviderStatic = "static"
)

type AuthConfig struct {
	Provider    string       `yaml:"provider"`
	StaticUsers []StaticUser `yaml:"static_users"`
}

// StaticUser is a fixed credential accepted by the static provider.
type StaticUser struct {
	Credential string `yaml:"credential"`
	UserID     string `yaml:"user_id"`
	Role       string `yaml:"role"`
}

// JWTConfig contains JWT token settings
type JWTConfig struct {
	Secret            string `yaml:"secret"`
	AccessTokenExpiry int    `yaml:"access_token_expiry_minutes"`
}

func (j JWTConfig) AccessTokenTTL() time.Duration {
	return time.Duration(j.AccessTokenExpiry) * time.Minute
}

const (
	ChannelLog   = "log"
	ChannelEmail = "email"
	ChannelPush  = "push"
)

type NotificationConfig struct {
	Channels               []string       `yaml:"channels"`
	DispatchTimeoutSeconds int            `yaml:"dispatch_timeout_seconds"`
	SendGrid               SendGridConfig `yaml:"sendgrid"`
	Firebase               FirebaseConfig `yaml:"firebase"`
}

func (n NotificationConfig) DispatchTimeout() time.Duration {
	return time.Duration(n.DispatchTimeoutSeconds) * time.Second
}

func (n NotificationConfig) Enabled(channel string) bool {
	for _, c := range n.Channels {
		if strings.EqualFold(c, channel) {
			return true
		}
	}
	return false
}

type SendGridConfig struct {
	APIKey    string `yaml:"api_key"`
	FromEmail string `yaml:"from_email"`
	FromName  string `yaml:"from_name"`
}

type FirebaseConfig struct {
	CredentialsFile string `yaml:"credentials_file"`
	ProjectID       string `yaml:"project_id"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

// SchedulerConfig contains cron schedule settings (with seconds field)
type SchedulerConfig struct {
	// Embedded runs the jobs inside the API server instead of the separate
	// cronjob binary. The memory database requires it.
	Embedded             bool   `yaml:"embedded"`
	RetryNotifications   string `yaml:"retry_notifications"`
	CompleteReservations string `yaml:"complete_reservations"`
}

type JobsConfig struct {
	BatchSize int `yaml:"batch_size"`
	// CompletionGraceMinutes is how long after its end time an approved or
	// active reservation is closed by the sweep.
	CompletionGraceMinutes int `yaml:"completion_grace_minutes"`
}

func (j JobsConfig) CompletionGrace() time.Duration {
	return time.Duration(j.CompletionGraceMinutes) * time.Minute
}

// Load reads configuration from a YAML file
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML, applies environment overrides and validates.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.overrideWithEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// overrideWithEnv overrides config values with environment variables
func (c *Config) overrideWithEnv() {
	// Server
	if val := os.Getenv("SERVER_HOST"); val != "" {
		c.Server.Host = val
	}
	if val := os.Getenv("SERVER_HTTP_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Server.HTTPPort)
	}
	if val := os.Getenv("SERVER_GRPC_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Server.GRPCPort)
	}
	if val := os.Getenv("SERVER_ENVIRONMENT"); val != "" {
		c.Server.Environment = val
	}

	// Database
	if val := os.Getenv("DB_DRIVER"); val != "" {
		c.Database.Driver = val
	}
	if val := os.Getenv("DB_HOST"); val != "" {
		c.Database.Host = val
	}
	if val := os.Getenv("DB_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Database.Port)
	}
	if val := os.Getenv("DB_USER"); val != "" {
		c.Database.User = val
	}
	if val := os.Getenv("DB_PASSWORD"); val != "" {
		c.Database.Password = val
	}
	if val := os.Getenv("DB_NAME"); val != "" {
		c.Database.Database = val
	}
	if val := os.Getenv("DB_SSL_MODE"); val != "" {
		c.Database.SSLMode = val
	}

	// Auth
	if val := os.Getenv("AUTH_PROVIDER"); val != "" {
		c.Auth.Provider = val
	}
	if val := os.Getenv("JWT_SECRET"); val != "" {
		c.JWT.Secret = val
	}

	// Notification
	if val := os.Getenv("SENDGRID_API_KEY"); val != "" {
		c.Notification.SendGrid.APIKey = val
	}
	if val := os.Getenv("FIREBASE_CREDENTIALS_FILE"); val != "" {
		c.Notification.Firebase.CredentialsFile = val
	}

	// Log
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = val
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		c.Log.Format = val
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks if the configuration is valid and fills defaults
func (c *Config) Validate() error {
	if c.Server.Environment == "" {
		c.Server.Environment = EnvironmentDevelopment
	}
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.Server.HTTPPort)
	}
	if c.Server.GRPCPort < 0 || c.Server.GRPCPort > 65535 {
		return fmt.Errorf("invalid gRPC port: %d", c.Server.GRPCPort)
	}
	if c.Server.GRPCPort != 0 && c.Server.GRPCPort == c.Server.HTTPPort {
		return fmt.Errorf("HTTP and gRPC ports must differ")
	}
	if c.Server.ShutdownTimeoutSeconds <= 0 {
		c.Server.ShutdownTimeoutSeconds = 15
	}

	if c.Database.Driver == "" {
		c.Database.Driver = DatabaseDriverPostgres
	}
	switch c.Database.Driver {
	case DatabaseDriverPostgres:
		if c.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
		if c.Database.User == "" {
			return fmt.Errorf("database user is required")
		}
		if c.Database.Database == "" {
			return fmt.Errorf("database name is required")
		}
		if c.Database.Port == 0 {
			c.Database.Port = 5432
		}
		if c.Database.SSLMode == "" {
			c.Database.SSLMode = "disable"
		}
	case DatabaseDriverMemory:
		if c.Server.IsProduction() {
			return fmt.Errorf("memory database is not allowed in production")
		}
	default:
		return fmt.Errorf("unknown database driver: %s", c.Database.Driver)
	}

	if c.Auth.Provider == "" {
		c.Auth.Provider = AuthProviderToken
	}
	switch c.Auth.Provider {
	case AuthProviderToken:
		if c.JWT.Secret == "" {
			return fmt.Errorf("JWT secret is required")
		}
		if len(c.JWT.Secret) < 32 {
			return fmt.Errorf("JWT secret must be at least 32 characters")
		}
	case AuthProviderStatic:
		if c.Server.IsProduction() {
			return fmt.Errorf("static auth provider is not allowed in production")
		}
		for _, u := range c.Auth.StaticUsers {
			if u.Credential == "" || u.UserID == "" {
				return fmt.Errorf("static users need a credential and a user_id")
			}
		}
	default:
		return fmt.Errorf("unknown auth provider: %s", c.Auth.Provider)
	}
	if c.JWT.AccessTokenExpiry <= 0 {
		c.JWT.AccessTokenExpiry = 60
	}

	if len(c.Notification.Channels) == 0 {
		c.Notification.Channels = []string{ChannelLog}
	}
	for _, ch := range c.Notification.Channels {
		switch strings.ToLower(ch) {
		case ChannelLog:
		case ChannelEmail:
			if c.Notification.SendGrid.APIKey == "" {
				return fmt.Errorf("SendGrid API key is required for the email channel")
			}
			if c.Notification.SendGrid.FromEmail == "" {
				return fmt.Errorf("sender address is required for the email channel")
			}
		case ChannelPush:
			if c.Notification.Firebase.CredentialsFile == "" {
				return fmt.Errorf("Firebase credentials file is required for the push channel")
			}
		default:
			return fmt.Errorf("unknown notification channel: %s", ch)
		}
	}
	if c.Notification.DispatchTimeoutSeconds <= 0 {
		c.Notification.DispatchTimeoutSeconds = 30
	}
	if c.Notification.SendGrid.FromName == "" {
		c.Notification.SendGrid.FromName = "ParkEase"
	}

	// Scheduler defaults
	if c.Scheduler.RetryNotifications == "" {
		c.Scheduler.RetryNotifications = "0 */5 * * * *" // every 5 minutes
	}
	if c.Scheduler.CompleteReservations == "" {
		c.Scheduler.CompleteReservations = "0 */15 * * * *" // every 15 minutes
	}

	if c.Jobs.BatchSize <= 0 {
		c.Jobs.BatchSize = 100
	}
	if c.Jobs.CompletionGraceMinutes < 0 {
		return fmt.Errorf("completion grace must not be negative")
	}

	return nil
}

// GetDatabaseConnectionString returns a PostgreSQL connection string
func (c *Config) GetDatabaseConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
		c.Database.SSLMode,
	)
}

func (c *Config) GetHTTPAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.HTTPPort)
}

// GetGRPCAddress returns "" when the gRPC listener is disabled.
func (c *Config) GetGRPCAddress() string {
	if c.Server.GRPCPort == 0 {
		return ""
	}
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.GRPCPort)
}
