// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type SlackConfig struct {
	BotToken      string `yaml:"bot_token" validate:"required"`
	SigningSecret string `yaml:"signing_secret" validate:"required_if=Mode http"`
	AppToken      string `yaml:"app_token" validate:"required_if=Mode socket"`
	Mode          string `yaml:"mode" validate:"oneof=socket http"` // socket | http
	FocusChannel  string `yaml:"focus_channel" validate:"required"`
	BotID         string `yaml:"bot_id"`      // resolved via auth.test when empty
	BotUserID     string `yaml:"bot_user_id"` // resolved via auth.test when empty

	StartCommand   string `yaml:"start_command"`
	SessionTrigger string `yaml:"session_trigger"`
	CostCommand    string `yaml:"cost_command"`

	Workers int  `yaml:"workers" validate:"gte=1"` // event handlers; 1 keeps per-thread ordering
	Debug   bool `yaml:"debug"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type AdminConfig struct {
	Port int `yaml:"port" validate:"gte=0,lte=65535"`
}

type DatabaseConfig struct {
	Driver   string `yaml:"driver" validate:"oneof=postgres mysql sqlite"`
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	MaxConns int    `yaml:"max_conns" validate:"gte=1"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"` // event de-duplication window
}

type AIConfig struct {
	Provider         string        `yaml:"provider" validate:"oneof=openai gemini noop"`
	OpenAIKey        string        `yaml:"openai_key" validate:"required_if=Provider openai"`
	OpenAIBaseURL    string        `yaml:"openai_base_url"`
	GeminiKey        string        `yaml:"gemini_key" validate:"required_if=Provider gemini"`
	GeminiURL        string        `yaml:"gemini_url"`
	Model            string        `yaml:"model" validate:"required"`
	MaxTokens        int           `yaml:"max_tokens" validate:"gte=1"`
	Temperature      *float32      `yaml:"temperature" validate:"omitempty,gte=0,lte=2"`
	TopP             *float32      `yaml:"top_p" validate:"omitempty,gte=0,lte=1"`
	FrequencyPenalty *float32      `yaml:"frequency_penalty" validate:"omitempty,gte=-2,lte=2"`
	HistoryLimit     int           `yaml:"history_limit" validate:"gte=1"`
	ConcurrentLimit  int           `yaml:"concurrent_limit"` // max concurrent AI calls
	Timeout          time.Duration `yaml:"timeout"`
}

// DefaultSampling is used for any sampling value left unset.
const DefaultSampling float32 = 1.0

// Sampling returns temperature, top_p and frequency penalty with unset
// values replaced by DefaultSampling.
func (a AIConfig) Sampling() (temperature, topP, frequencyPenalty float32) {
	return orDefault(a.Temperature), orDefault(a.TopP), orDefault(a.FrequencyPenalty)
}

func orDefault(v *float32) float32 {
	if v == nil {
		return DefaultSampling
	}
	return *v
}

type PricingConfig struct {
	USDPer1KTokens float64 `yaml:"usd_per_1k_tokens" validate:"gte=0"`
}

type Config struct {
	Slack    SlackConfig    `yaml:"slack"`
	Log      LogConfig      `yaml:"log"`
	Admin    AdminConfig    `yaml:"admin"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	AI       AIConfig       `yaml:"ai"`
	Pricing  PricingConfig  `yaml:"pricing"`

	Runtime RuntimeConfig `yaml:"-"`
}

// LoadConfig reads the optional YAML file at path, loads .env into the
// process environment, applies environment overrides and defaults, and
// validates the result. A missing config file is not an error; the
// environment alone can carry every required value.
func LoadConfig(path string, dev bool) (*Config, error) {
	cfg, err := load(path)
	if err != nil {
		return nil, err
	}
	cfg.Runtime.Dev = dev
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDatabaseConfig loads the same sources as LoadConfig but only
// validates the database section, for tools that never talk to Slack or
// the completion API.
func LoadDatabaseConfig(path string) (*Config, error) {
	cfg, err := load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Database.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(b, &cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	// .env is optional, real environment wins over it
	_ = godotenv.Load()
	applyEnv(&cfg, os.LookupEnv)
	applyDefaults(&cfg)
	return &cfg, nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) {
		if v, ok := lookup(key); ok && v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}

	str("SLACK_BOT_TOKEN", &cfg.Slack.BotToken)
	str("SLACK_SIGNING_SECRET", &cfg.Slack.SigningSecret)
	str("SLACK_APP_TOKEN", &cfg.Slack.AppToken)
	str("SLACK_MODE", &cfg.Slack.Mode)
	str("SLACK_FOCUS_CHANNEL", &cfg.Slack.FocusChannel)
	str("SLACK_BOT_ID", &cfg.Slack.BotID)
	str("SLACK_BOT_USER_ID", &cfg.Slack.BotUserID)

	str("AI_PROVIDER", &cfg.AI.Provider)
	str("OPENAI_API_KEY", &cfg.AI.OpenAIKey)
	str("GEMINI_API_KEY", &cfg.AI.GeminiKey)
	str("AI_MODEL", &cfg.AI.Model)

	str("DATABASE_DRIVER", &cfg.Database.Driver)
	str("DATABASE_URL", &cfg.Database.URL)
	str("DATABASE_HOST", &cfg.Database.Host)
	num("DATABASE_PORT", &cfg.Database.Port)
	str("DATABASE_NAME", &cfg.Database.Name)
	str("DATABASE_USER", &cfg.Database.User)
	str("DATABASE_PASSWORD", &cfg.Database.Password)

	str("REDIS_URL", &cfg.Redis.URL)
	str("REDIS_PASSWORD", &cfg.Redis.Password)

	str("LOG_LEVEL", &cfg.Log.Level)
	str("LOG_FORMAT", &cfg.Log.Format)
	num("ADMIN_PORT", &cfg.Admin.Port)
}

func applyDefaults(cfg *Config) {
	if cfg.Slack.Mode == "" {
		cfg.Slack.Mode = "socket"
	}
	if cfg.Slack.StartCommand == "" {
		cfg.Slack.StartCommand = "/gpt_start"
	}
	if cfg.Slack.SessionTrigger == "" {
		cfg.Slack.SessionTrigger = "!session"
	}
	if cfg.Slack.CostCommand == "" {
		cfg.Slack.CostCommand = "!cost"
	}
	if cfg.Slack.Workers <= 0 {
		cfg.Slack.Workers = 1
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Admin.Port == 0 {
		cfg.Admin.Port = 8080
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "postgres"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "127.0.0.1"
	}
	if cfg.Database.Name == "" {
		cfg.Database.Name = "gpt"
	}
	if cfg.Database.MaxConns <= 0 {
		cfg.Database.MaxConns = 10
	}
	cfg.Redis.TTL = normalizeTTL(cfg.Redis.TTL)

	if cfg.AI.Provider == "" {
		cfg.AI.Provider = "openai"
	}
	if cfg.AI.Model == "" {
		cfg.AI.Model = "gpt-3.5-turbo"
	}
	if cfg.AI.MaxTokens <= 0 {
		cfg.AI.MaxTokens = 256
	}
	// zero is a legal sampling value; only unset fields get the default
	for _, f := range []**float32{&cfg.AI.Temperature, &cfg.AI.TopP, &cfg.AI.FrequencyPenalty} {
		if *f == nil {
			v := DefaultSampling
			*f = &v
		}
	}
	if cfg.AI.HistoryLimit <= 0 {
		cfg.AI.HistoryLimit = 10
	}
	if cfg.AI.Timeout <= 0 {
		cfg.AI.Timeout = 60 * time.Second
	}
	if cfg.Pricing.USDPer1KTokens == 0 {
		cfg.Pricing.USDPer1KTokens = 0.002
	}
}

func normalizeTTL(d time.Duration) time.Duration {
	if d <= 0 {
		return 10 * time.Minute
	}
	return d
}

// Validate checks required values and reports them by their YAML path.
func (c *Config) Validate() error {
	if err := formatErrors(newValidator().Struct(c), ""); err != nil {
		return err
	}
	return c.Database.checkCredentials()
}

// Validate checks the database section alone.
func (d DatabaseConfig) Validate() error {
	if err := formatErrors(newValidator().Struct(d), "database."); err != nil {
		return err
	}
	return d.checkCredentials()
}

func (d DatabaseConfig) checkCredentials() error {
	if d.URL == "" && d.Driver != "sqlite" && d.User == "" {
		return errors.New("database.url or database.user is required")
	}
	return nil
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// formatErrors turns validator errors into "path is required" style
// messages. prefix is prepended to each path.
func formatErrors(err error, prefix string) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		// Namespace is "Config.slack.bot_token"
		path := fe.Namespace()
		if i := strings.IndexByte(path, '.'); i >= 0 {
			path = path[i+1:]
		}
		path = prefix + path
		switch fe.Tag() {
		case "required", "required_if":
			msgs = append(msgs, path+" is required")
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of [%s]", path, fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s=%s", path, fe.Tag(), fe.Param()))
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}

// DSN returns the driver-specific data source name. An explicit URL wins;
// otherwise it is assembled from host, port, name and credentials. MySQL
// DSNs always carry parseTime=true so DATETIME columns scan into time.Time.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		if d.Driver == "mysql" {
			if mc, err := mysql.ParseDSN(d.URL); err == nil {
				mc.ParseTime = true
				return mc.FormatDSN()
			}
		}
		return d.URL
	}
	switch d.Driver {
	case "mysql":
		port := d.Port
		if port == 0 {
			port = 3306
		}
		mc := mysql.NewConfig()
		mc.User = d.User
		mc.Passwd = d.Password
		mc.Net = "tcp"
		mc.Addr = net.JoinHostPort(d.Host, strconv.Itoa(port))
		mc.DBName = d.Name
		mc.ParseTime = true
		return mc.FormatDSN()
	case "sqlite":
		return d.Name + ".db"
	default:
		port := d.Port
		if port == 0 {
			port = 5432
		}
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(d.User, d.Password),
			Host:     net.JoinHostPort(d.Host, strconv.Itoa(port)),
			Path:     "/" + d.Name,
			RawQuery: "sslmode=disable",
		}
		return u.String()
	}
}
