package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration required by the API process.
// All values come from env (an optional .env file is loaded first).
// No business logic should depend on raw environment variables.
type Config struct {
	App      AppConfig
	DB       DBConfig
	Redis    RedisConfig
	Ultravox UltravoxConfig
	Exotel   ExotelConfig
	Campaign CampaignConfig
}

type AppConfig struct {
	Env  string
	Port int

	// BaseURL is the public URL of this process, used to build the
	// provider callback URLs (bridge + status callback).
	BaseURL string

	// CORSOrigins is empty for allow-all (dashboard runs on a separate origin).
	CORSOrigins []string
}

type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string

	// SSLMode accepts: disable, require, verify-ca, verify-full
	SSLMode string
}

// RedisConfig is optional: when Host is empty the concurrent-call cap is
// disabled and the process runs without redis.
type RedisConfig struct {
	Host string
	Port int
}

type UltravoxConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

type ExotelConfig struct {
	SID      string
	APIKey   string
	APIToken string

	// CallerID is the exophone outbound calls originate from.
	CallerID string
	BaseURL  string
	Timeout  time.Duration
}

// CampaignConfig carries the dispatch and billing policy knobs.
type CampaignConfig struct {
	// MinBalance gates dispatch: below this many credits no lead is touched.
	MinBalance int64

	// PerMinuteRate is the billed cost in credits per started call minute.
	PerMinuteRate int64

	PollInterval  time.Duration
	IdleInterval  time.Duration
	ErrorInterval time.Duration

	// StuckCallTimeout fails leads left in calling state longer than this.
	// Zero disables the reaper.
	StuckCallTimeout time.Duration

	// MaxConcurrentCalls bounds in-flight calls via redis. Zero disables the cap.
	MaxConcurrentCalls int

	// SystemPrompt is the voice-AI prompt template; {name} is substituted
	// with the lead's name at dispatch time.
	SystemPrompt string
}

const (
	defaultUltravoxBaseURL = "https://api.ultravox.ai"
	defaultExotelBaseURL   = "https://api.in.exotel.com"
	defaultSystemPrompt    = "You are calling {name}. Your goal is to qualify the lead."
)

func Load() (Config, error) {
	_ = godotenv.Load()

	c := Config{}
	var parseErrs []error

	c.App.Env = strings.TrimSpace(os.Getenv("APP_ENV"))
	{
		n, err := mustInt("APP_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.App.Port = n
	}
	c.App.BaseURL = strings.TrimRight(strings.TrimSpace(os.Getenv("SERVER_BASE_URL")), "/")
	c.App.CORSOrigins = splitCSV(os.Getenv("CORS_ORIGINS"))

	c.DB.Host = strings.TrimSpace(os.Getenv("DB_HOST"))
	{
		n, err := mustInt("DB_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.DB.Port = n
	}
	c.DB.User = strings.TrimSpace(os.Getenv("DB_USER"))
	c.DB.Password = os.Getenv("DB_PASSWORD")
	c.DB.Name = strings.TrimSpace(os.Getenv("DB_NAME"))
	c.DB.SSLMode = strings.TrimSpace(os.Getenv("DB_SSLMODE"))

	c.Redis.Host = strings.TrimSpace(os.Getenv("REDIS_HOST"))
	if c.Redis.Host != "" {
		n, err := mustInt("REDIS_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.Redis.Port = n
	}

	c.Ultravox.APIKey = os.Getenv("ULTRAVOX_API_KEY")
	c.Ultravox.BaseURL = strings.TrimSpace(os.Getenv("ULTRAVOX_BASE_URL"))
	c.Ultravox.Timeout = optDuration("ULTRAVOX_TIMEOUT")

	c.Exotel.SID = strings.TrimSpace(os.Getenv("EXOTEL_SID"))
	c.Exotel.APIKey = os.Getenv("EXOTEL_API_KEY")
	c.Exotel.APIToken = os.Getenv("EXOTEL_API_TOKEN")
	c.Exotel.CallerID = strings.TrimSpace(os.Getenv("EXOTEL_PHONE_NUMBER"))
	c.Exotel.BaseURL = strings.TrimSpace(os.Getenv("EXOTEL_BASE_URL"))
	c.Exotel.Timeout = optDuration("EXOTEL_TIMEOUT")

	c.Campaign.MinBalance = optInt64("CAMPAIGN_MIN_BALANCE")
	c.Campaign.PerMinuteRate = optInt64("CAMPAIGN_PER_MINUTE_RATE")
	c.Campaign.PollInterval = optDuration("CAMPAIGN_POLL_INTERVAL")
	c.Campaign.IdleInterval = optDuration("CAMPAIGN_IDLE_INTERVAL")
	c.Campaign.ErrorInterval = optDuration("CAMPAIGN_ERROR_INTERVAL")
	c.Campaign.StuckCallTimeout = optDuration("CAMPAIGN_STUCK_CALL_TIMEOUT")
	{
		v := strings.TrimSpace(os.Getenv("CAMPAIGN_MAX_CONCURRENT_CALLS"))
		if v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				parseErrs = append(parseErrs, fmt.Errorf("CAMPAIGN_MAX_CONCURRENT_CALLS must be an integer, got %q", v))
			}
			c.Campaign.MaxConcurrentCalls = n
		}
	}
	c.Campaign.SystemPrompt = os.Getenv("SYSTEM_PROMPT")

	if err := joinErrors(parseErrs); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c *Config) Validate() error {
	var errs []error

	if c.App.Env == "" {
		errs = append(errs, errors.New("APP_ENV is required"))
	} else if !isValidEnv(c.App.Env) {
		errs = append(errs, fmt.Errorf("APP_ENV must be one of local, dev, staging, production, got %q", c.App.Env))
	}
	if c.App.Port <= 0 || c.App.Port > 65535 {
		errs = append(errs, fmt.Errorf("APP_PORT must be a valid port, got %d", c.App.Port))
	}
	if c.App.BaseURL == "" {
		errs = append(errs, errors.New("SERVER_BASE_URL is required (provider callbacks must reach this process)"))
	}

	if c.DB.Host == "" {
		errs = append(errs, errors.New("DB_HOST is required"))
	}
	if c.DB.Port <= 0 || c.DB.Port > 65535 {
		errs = append(errs, fmt.Errorf("DB_PORT must be a valid port, got %d", c.DB.Port))
	}
	if c.DB.User == "" {
		errs = append(errs, errors.New("DB_USER is required"))
	}
	if c.DB.Name == "" {
		errs = append(errs, errors.New("DB_NAME is required"))
	}
	if strings.TrimSpace(c.DB.SSLMode) == "" {
		if c.IsProduction() {
			errs = append(errs, errors.New("DB_SSLMODE is required in production"))
		} else {
			// Local-friendly default; production must be explicit.
			c.DB.SSLMode = "disable"
		}
	}
	if c.DB.SSLMode != "" && !isValidSSLMode(c.DB.SSLMode) {
		errs = append(errs, fmt.Errorf("DB_SSLMODE must be one of disable, require, verify-ca, verify-full, got %q", c.DB.SSLMode))
	}

	if c.Redis.Host != "" && (c.Redis.Port <= 0 || c.Redis.Port > 65535) {
		errs = append(errs, fmt.Errorf("REDIS_PORT must be a valid port, got %d", c.Redis.Port))
	}
	if c.Campaign.MaxConcurrentCalls > 0 && c.Redis.Host == "" {
		errs = append(errs, errors.New("CAMPAIGN_MAX_CONCURRENT_CALLS requires REDIS_HOST"))
	}

	if c.Ultravox.APIKey == "" {
		errs = append(errs, errors.New("ULTRAVOX_API_KEY is required"))
	}
	if c.Ultravox.BaseURL == "" {
		c.Ultravox.BaseURL = defaultUltravoxBaseURL
	}
	if c.Ultravox.Timeout <= 0 {
		c.Ultravox.Timeout = 15 * time.Second
	}

	if c.Exotel.SID == "" {
		errs = append(errs, errors.New("EXOTEL_SID is required"))
	}
	if c.Exotel.APIKey == "" {
		errs = append(errs, errors.New("EXOTEL_API_KEY is required"))
	}
	if c.Exotel.APIToken == "" {
		errs = append(errs, errors.New("EXOTEL_API_TOKEN is required"))
	}
	if c.Exotel.CallerID == "" {
		errs = append(errs, errors.New("EXOTEL_PHONE_NUMBER is required"))
	}
	if c.Exotel.BaseURL == "" {
		c.Exotel.BaseURL = defaultExotelBaseURL
	}
	if c.Exotel.Timeout <= 0 {
		c.Exotel.Timeout = 15 * time.Second
	}

	if c.Campaign.MinBalance <= 0 {
		c.Campaign.MinBalance = 10
	}
	if c.Campaign.PerMinuteRate <= 0 {
		c.Campaign.PerMinuteRate = 5
	}
	if c.Campaign.PollInterval <= 0 {
		c.Campaign.PollInterval = 5 * time.Second
	}
	if c.Campaign.IdleInterval <= 0 {
		c.Campaign.IdleInterval = 10 * time.Second
	}
	if c.Campaign.ErrorInterval <= 0 {
		c.Campaign.ErrorInterval = 10 * time.Second
	}
	if c.Campaign.StuckCallTimeout < 0 {
		errs = append(errs, errors.New("CAMPAIGN_STUCK_CALL_TIMEOUT must not be negative"))
	}
	if c.Campaign.MaxConcurrentCalls < 0 {
		errs = append(errs, errors.New("CAMPAIGN_MAX_CONCURRENT_CALLS must not be negative"))
	}
	if strings.TrimSpace(c.Campaign.SystemPrompt) == "" {
		c.Campaign.SystemPrompt = defaultSystemPrompt
	}

	return joinErrors(errs)
}

func (c Config) IsProduction() bool {
	return c.App.Env == "production"
}

func (c Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.App.Port)
}

func (c Config) PostgresDSN() string {
	// Avoid logging this string; it contains secrets.
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host,
		c.DB.Port,
		c.DB.User,
		c.DB.Password,
		c.DB.Name,
		c.DB.SSLMode,
	)
}

func (c Config) RedisAddr() string {
	if c.Redis.Host == "" {
		return ""
	}
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

func mustInt(key string) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	return n, nil
}

func optInt64(key string) int64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func optDuration(key string) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0
	}
	return d
}

func splitCSV(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func appendParseErr(errs []error, n int, err error) (int, []error) {
	if err != nil {
		errs = append(errs, err)
	}
	return n, errs
}

func isValidEnv(v string) bool {
	switch v {
	case "local", "dev", "staging", "production":
		return true
	default:
		return false
	}
}

func isValidSSLMode(v string) bool {
	switch v {
	case "disable", "require", "verify-ca", "verify-full":
		return true
	default:
		return false
	}
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	var b strings.Builder
	b.WriteString("config errors:\n")
	for _, e := range errs {
		b.WriteString("- ")
		b.WriteString(e.Error())
		b.WriteString("\n")
	}
	return errors.New(strings.TrimSpace(b.String()))
}
