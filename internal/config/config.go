package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Session     SessionConfig
	Reservation ReservationConfig
	SMTP        SMTPConfig
	RateLimit   RateLimitConfig
	CORS        CORSConfig
	MQTT        MQTTConfig
}

type ServerConfig struct {
	Port        string
	Host        string
	Environment string
	BaseURL     string
}

type DatabaseConfig struct {
	Driver   string // postgres or memory
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type SessionConfig struct {
	Secret       string
	TTLHours     int
	CookieName   string
	CookieSecure bool
}

const defaultTerms = `I will use checked out computers only for lab research work.
I will not install illegal software, malware, or software whose license does not allow research use.
I will not undermine the privacy or security of shared computers, including installing remote access or monitoring software.
I understand that shared computers may be wiped once my reservation ends, and I will delete sensitive data before then.
I accept the condition of checked out computers as-is and will contact {contact} with any concerns.`

type ReservationConfig struct {
	MaxReserveDays int
	Terms          string
	HelpContact    string
}

// RenderedTerms returns the checkout terms with the help contact filled in.
func (c *ReservationConfig) RenderedTerms() string {
	return strings.ReplaceAll(c.Terms, "{contact}", c.HelpContact)
}

type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

type RateLimitConfig struct {
	GeneralRPS   float64 // Requests per second for general endpoints
	GeneralBurst int     // Burst size for general endpoints
	AuthRPS      float64 // Requests per second for sign-in, registration and reset
	AuthBurst    int
}

type CORSConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           int
}

type MQTTConfig struct {
	Broker      string
	ClientID    string
	Username    string
	Password    string
	TopicPrefix string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("APP_BASE_URL", "http://localhost:8080")
	v.SetDefault("STORAGE_DRIVER", "postgres")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("SESSION_TTL_HOURS", 24)
	v.SetDefault("SESSION_COOKIE_NAME", "lab_session")
	v.SetDefault("MAX_RESERVE_DAYS", 14)
	v.SetDefault("RESERVATION_TERMS", defaultTerms)
	v.SetDefault("HELP_CONTACT", "the lab administrator")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("RATE_LIMIT_GENERAL_RPS", 20)
	v.SetDefault("RATE_LIMIT_GENERAL_BURST", 40)
	v.SetDefault("RATE_LIMIT_AUTH_RPS", 1)
	v.SetDefault("RATE_LIMIT_AUTH_BURST", 5)
	v.SetDefault("CORS_ALLOWED_METHODS", "GET,POST,PUT,OPTIONS")
	v.SetDefault("CORS_ALLOWED_HEADERS", "Origin,Content-Type,Authorization,X-Request-ID")
	v.SetDefault("CORS_EXPOSED_HEADERS", "X-Request-ID")
	v.SetDefault("CORS_MAX_AGE", 43200)
	v.SetDefault("MQTT_CLIENT_ID", "lab-checkout")
	v.SetDefault("MQTT_TOPIC_PREFIX", "lab")
}

func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(".env")
	v.AddConfigPath(".")
	if homeDir, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(homeDir)
	}
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		log.Printf("Warning: config file not found: %v. Falling back to environment variables only.", err)
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		Server: ServerConfig{
			Port:        v.GetString("SERVER_PORT"),
			Host:        v.GetString("SERVER_HOST"),
			Environment: v.GetString("ENVIRONMENT"),
			BaseURL:     strings.TrimRight(v.GetString("APP_BASE_URL"), "/"),
		},
		Database: DatabaseConfig{
			Driver:   strings.ToLower(v.GetString("STORAGE_DRIVER")),
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			DBName:   v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Session: SessionConfig{
			Secret:       v.GetString("JWT_SECRET"),
			TTLHours:     v.GetInt("SESSION_TTL_HOURS"),
			CookieName:   v.GetString("SESSION_COOKIE_NAME"),
			CookieSecure: v.GetBool("COOKIE_SECURE"),
		},
		Reservation: ReservationConfig{
			MaxReserveDays: v.GetInt("MAX_RESERVE_DAYS"),
			Terms:          v.GetString("RESERVATION_TERMS"),
			HelpContact:    v.GetString("HELP_CONTACT"),
		},
		SMTP: SMTPConfig{
			Host:     v.GetString("SMTP_HOST"),
			Port:     v.GetInt("SMTP_PORT"),
			User:     v.GetString("SMTP_USER"),
			Password: v.GetString("SMTP_PASSWORD"),
			From:     v.GetString("SMTP_FROM"),
		},
		RateLimit: RateLimitConfig{
			GeneralRPS:   v.GetFloat64("RATE_LIMIT_GENERAL_RPS"),
			GeneralBurst: v.GetInt("RATE_LIMIT_GENERAL_BURST"),
			AuthRPS:      v.GetFloat64("RATE_LIMIT_AUTH_RPS"),
			AuthBurst:    v.GetInt("RATE_LIMIT_AUTH_BURST"),
		},
		CORS: CORSConfig{
			AllowedOrigins:   splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
			AllowedMethods:   splitList(v.GetString("CORS_ALLOWED_METHODS")),
			AllowedHeaders:   splitList(v.GetString("CORS_ALLOWED_HEADERS")),
			ExposedHeaders:   splitList(v.GetString("CORS_EXPOSED_HEADERS")),
			AllowCredentials: v.GetBool("CORS_ALLOW_CREDENTIALS"),
			MaxAge:           v.GetInt("CORS_MAX_AGE"),
		},
		MQTT: MQTTConfig{
			Broker:      v.GetString("MQTT_BROKER"),
			ClientID:    v.GetString("MQTT_CLIENT_ID"),
			Username:    v.GetString("MQTT_USERNAME"),
			Password:    v.GetString("MQTT_PASSWORD"),
			TopicPrefix: v.GetString("MQTT_TOPIC_PREFIX"),
		},
	}
}

// splitList accepts comma separated env values.
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate reports settings the server cannot start without.
func (c *Config) Validate() error {
	var problems []string
	if c.Session.Secret == "" {
		problems = append(problems, "JWT_SECRET is required")
	}
	switch c.Database.Driver {
	case "postgres":
		if c.Database.Host == "" || c.Database.DBName == "" {
			problems = append(problems, "DB_HOST and DB_NAME are required for the postgres driver")
		}
	case "memory":
	default:
		problems = append(problems, fmt.Sprintf("unknown STORAGE_DRIVER %q", c.Database.Driver))
	}
	if c.Reservation.MaxReserveDays <= 0 {
		problems = append(problems, "MAX_RESERVE_DAYS must be positive")
	}
	if c.Session.TTLHours <= 0 {
		problems = append(problems, "SESSION_TTL_HOURS must be positive")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

func (c *SessionConfig) TTL() time.Duration {
	return time.Duration(c.TTLHours) * time.Hour
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}
