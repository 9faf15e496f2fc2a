package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// BigTimeConfig holds credentials for the BigTime REST API. Either the firm
// token pair or the username/password pair must be set for the budget source
// to be enabled.
type BigTimeConfig struct {
	BaseURL  string
	APIToken string
	FirmID   string
	Username string
	Password string
}

// Configured reports whether either credential pair is present.
func (c BigTimeConfig) Configured() bool {
	return (c.APIToken != "" && c.FirmID != "") || (c.Username != "" && c.Password != "")
}

// AzureConfig holds the app registration used for Microsoft Graph calendar
// access.
type AzureConfig struct {
	TenantID     string
	ClientID     string
	ClientSecret string
}

// Configured reports whether all Graph credentials are present.
func (c AzureConfig) Configured() bool {
	return c.TenantID != "" && c.ClientID != "" && c.ClientSecret != ""
}

// Config holds all configuration for the application
type Config struct {
	Port           string
	AllowedOrigins []string
	LogLevel       string

	// Aggregation window and work-day shape
	WeeksAhead   int
	HoursPerDay  float64
	WorkDayStart float64 // hour of day, e.g. 8
	WorkDayEnd   float64 // hour of day, e.g. 17
	Timezone     string

	// Snapshot freshness and refresh schedule
	CacheTTL        time.Duration
	RefreshInterval time.Duration
	RefreshCron     string // takes precedence over RefreshInterval when set

	// Staff roster: either a YAML roster file or a flat email list
	StaffEmails []string
	RosterFile  string

	BigTime BigTimeConfig
	Azure   AzureConfig

	// WebSocket timeouts
	WSReadTimeout  time.Duration
	WSWriteTimeout time.Duration
	PingPeriod     time.Duration
	PongWait       time.Duration
	WriteWait      time.Duration
	MaxMessageSize int64
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	config := &Config{
		Port:           getEnv("PORT", "8080"),
		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "http://localhost:5173"), ","),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		Timezone:       getEnv("CALENDAR_TIMEZONE", "Eastern Standard Time"),
		RefreshCron:    getEnv("REFRESH_CRON", ""),
		RosterFile:     getEnv("ROSTER_FILE", ""),
		BigTime: BigTimeConfig{
			BaseURL:  getEnv("BIGTIME_BASE_URL", "https://iq.bigtime.net/BigtimeData/api/v2"),
			APIToken: getEnv("BIGTIME_API_TOKEN", ""),
			FirmID:   getEnv("BIGTIME_FIRM_ID", ""),
			Username: getEnv("BIGTIME_USERNAME", ""),
			Password: getEnv("BIGTIME_PASSWORD", ""),
		},
		Azure: AzureConfig{
			TenantID:     getEnv("AZURE_TENANT_ID", ""),
			ClientID:     getEnv("AZURE_CLIENT_ID", ""),
			ClientSecret: getEnv("AZURE_CLIENT_SECRET", ""),
		},
	}

	for _, u := range strings.Split(getEnv("STAFF_EMAILS", ""), ",") {
		if u = strings.TrimSpace(u); u != "" {
			config.StaffEmails = append(config.StaffEmails, u)
		}
	}

	weeksAhead, err := strconv.Atoi(getEnv("WEEKS_AHEAD", "2"))
	if err != nil {
		return nil, fmt.Errorf("invalid WEEKS_AHEAD: %w", err)
	}
	if weeksAhead < 1 {
		return nil, fmt.Errorf("WEEKS_AHEAD must be at least 1, got %d", weeksAhead)
	}
	config.WeeksAhead = weeksAhead

	hoursPerDay, err := strconv.ParseFloat(getEnv("HOURS_PER_DAY", "8"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid HOURS_PER_DAY: %w", err)
	}
	if hoursPerDay <= 0 || hoursPerDay > 24 {
		return nil, fmt.Errorf("HOURS_PER_DAY must be in (0, 24], got %v", hoursPerDay)
	}
	config.HoursPerDay = hoursPerDay

	workStart, err := strconv.ParseFloat(getEnv("WORK_DAY_START", "8"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid WORK_DAY_START: %w", err)
	}
	workEnd, err := strconv.ParseFloat(getEnv("WORK_DAY_END", "17"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid WORK_DAY_END: %w", err)
	}
	if workEnd <= workStart {
		return nil, fmt.Errorf("WORK_DAY_END (%v) must be after WORK_DAY_START (%v)", workEnd, workStart)
	}
	config.WorkDayStart = workStart
	config.WorkDayEnd = workEnd

	cacheTTL, err := strconv.Atoi(getEnv("CACHE_TTL", "300"))
	if err != nil {
		return nil, fmt.Errorf("invalid CACHE_TTL: %w", err)
	}
	config.CacheTTL = time.Duration(cacheTTL) * time.Second

	refreshInterval, err := strconv.Atoi(getEnv("REFRESH_INTERVAL", "300"))
	if err != nil {
		return nil, fmt.Errorf("invalid REFRESH_INTERVAL: %w", err)
	}
	config.RefreshInterval = time.Duration(refreshInterval) * time.Second

	// Parse WebSocket timeouts
	wsReadTimeout, err := strconv.Atoi(getEnv("WS_READ_TIMEOUT", "60"))
	if err != nil {
		return nil, fmt.Errorf("invalid WS_READ_TIMEOUT: %w", err)
	}
	config.WSReadTimeout = time.Duration(wsReadTimeout) * time.Second

	wsWriteTimeout, err := strconv.Atoi(getEnv("WS_WRITE_TIMEOUT", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid WS_WRITE_TIMEOUT: %w", err)
	}
	config.WSWriteTimeout = time.Duration(wsWriteTimeout) * time.Second

	// Calculate WebSocket constants
	config.PongWait = config.WSReadTimeout
	config.PingPeriod = (config.PongWait * 9) / 10 // Must be less than pongWait
	config.WriteWait = config.WSWriteTimeout
	config.MaxMessageSize = 512

	// Trim spaces from allowed origins
	for i, origin := range config.AllowedOrigins {
		config.AllowedOrigins[i] = strings.TrimSpace(origin)
	}

	return config, nil
}

// getEnv gets an environment variable with a fallback default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
