package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

func getEnv(key, defaultValue string) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	return value
}

func loadEnvString(key string, result *string) {
	s, ok := os.LookupEnv(key)

	if !ok {
		return
	}
	*result = s
}

func loadEnvUint(key string, result *uint) {
	s, ok := os.LookupEnv(key)

	if !ok {
		return
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return
	}
	*result = uint(n)
}

func loadEnvBool(key string, result *bool) {
	s, ok := os.LookupEnv(key)
	if !ok {
		return
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return
	}
	*result = b
}

func loadEnvDuration(key string, result *time.Duration) {
	s, ok := os.LookupEnv(key)
	if !ok {
		return
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return
	}
	*result = d
}

/* Configuration */

/* PgSQL Configuration */
type pgSqlConfig struct {
	Host     string `json:"host"`
	Port     uint   `json:"port"`
	Database string `json:"database"`
	SslMode  string `json:"ssl_mode"`
	User     string `json:"user"`
	Password string `json:"password"`
}

func (p pgSqlConfig) ConnStr() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s database=%s sslmode=%s", p.Host, p.Port, p.User, p.Password, p.Database, p.SslMode)
}

func defaultPgSql() pgSqlConfig {
	return pgSqlConfig{
		Host:     "localhost",
		Port:     5432,
		Database: "edlink",
		User:     "",
		Password: "",
		SslMode:  "disable",
	}
}

func (p *pgSqlConfig) loadFromEnv() {
	loadEnvString("POSTGRES_HOST", &p.Host)
	loadEnvUint("POSTGRES_PORT", &p.Port)
	loadEnvString("POSTGRES_DB_NAME", &p.Database)
	loadEnvString("POSTGRES_SSLMODE", &p.SslMode)
	loadEnvString("POSTGRES_USERNAME", &p.User)
	loadEnvString("POSTGRES_PASSWORD", &p.Password)
}

/* Listen Configuration */

type listenConfig struct {
	Host string `json:"host"`
	Port uint   `json:"port"`
}

func (l listenConfig) Addr() string {
	return fmt.Sprintf("%s:%d", l.Host, l.Port)
}

func defaultListenConfig() listenConfig {
	return listenConfig{
		Host: "127.0.0.1",
		Port: 8080,
	}
}

func (l *listenConfig) loadFromEnv() {
	loadEnvString("LISTEN_HOST", &l.Host)
	loadEnvUint("LISTEN_PORT", &l.Port)
}

type natsConfig struct {
	Host     string
	Port     uint
	Username string
	Password string
}

func (c *natsConfig) loadFromEnv() {
	loadEnvString("NATS_HOST", &c.Host)
	loadEnvUint("NATS_PORT", &c.Port)
	loadEnvString("NATS_USER", &c.Username)
	loadEnvString("NATS_PASSWORD", &c.Password)
}

func (c *natsConfig) URL() string {
	return fmt.Sprintf("nats://%s:%d", c.Host, c.Port)
}

func defaultNatsConfig() natsConfig {
	return natsConfig{
		Host:     "localhost",
		Port:     4222,
		Username: "",
		Password: "",
	}
}

type securityConfig struct {
	BackendApiKey string
}

func (s *securityConfig) loadFromEnv() {
	s.BackendApiKey = getEnv("BACKEND_API_KEY", "")
}

func defaultSecurityConfig() securityConfig {
	return securityConfig{
		BackendApiKey: "",
	}
}

type redisConfig struct {
	Host     string `json:"host"`
	Port     uint   `json:"port"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

func (r *redisConfig) loadFromEnv() {
	loadEnvString("REDIS_HOST", &r.Host)
	loadEnvUint("REDIS_PORT", &r.Port)
	loadEnvString("REDIS_PASSWORD", &r.Password)

	if dbStr := getEnv("REDIS_DB", "0"); dbStr != "" {
		if db, err := strconv.Atoi(dbStr); err == nil {
			r.DB = db
		}
	}
}

func defaultRedisConfig() redisConfig {
	return redisConfig{
		Host:     "localhost",
		Port:     6379,
		Password: "",
		DB:       0,
	}
}

type GCSConfig struct {
	ProjectID       string
	CredentialsFile string
	Bucket          string
}

func (g *GCSConfig) loadFromEnv() {
	g.ProjectID = getEnv("GCS_PROJECT_ID", "")
	g.CredentialsFile = getEnv("GCS_CREDENTIALS_FILE", "")
	g.Bucket = getEnv("GCS_STORAGE_BUCKET", "")
}

func defaultGcsConfig() GCSConfig {
	return GCSConfig{
		ProjectID:       "",
		CredentialsFile: "",
		Bucket:          "",
	}
}

/* Scraper Configuration */

// ScraperConfig holds every knob the browser pipeline recognizes. There is no
// dynamic option schema: anything not listed here is not configurable.
type ScraperConfig struct {
	BaseURL           string
	LoginPath         string
	Headless          bool
	NavigationTimeout time.Duration
	ActionTimeout     time.Duration
	TypeDelay         time.Duration
	SettleDelay       time.Duration
	OutputDir         string
	MaxConcurrentRuns uint
	UserAgent         string
}

func (s ScraperConfig) LoginURL() string {
	return s.BaseURL + s.LoginPath
}

// GroupTeamsURL returns the group listing page for a course code.
func (s ScraperConfig) GroupTeamsURL(courseCode string) string {
	return fmt.Sprintf("%s/panel/classes/%s/groupteams", s.BaseURL, courseCode)
}

func (s *ScraperConfig) loadFromEnv() {
	loadEnvString("SCRAPER_BASE_URL", &s.BaseURL)
	loadEnvString("SCRAPER_LOGIN_PATH", &s.LoginPath)
	loadEnvBool("SCRAPER_HEADLESS", &s.Headless)
	loadEnvDuration("SCRAPER_NAVIGATION_TIMEOUT", &s.NavigationTimeout)
	loadEnvDuration("SCRAPER_ACTION_TIMEOUT", &s.ActionTimeout)
	loadEnvDuration("SCRAPER_TYPE_DELAY", &s.TypeDelay)
	loadEnvDuration("SCRAPER_SETTLE_DELAY", &s.SettleDelay)
	loadEnvString("SCRAPER_OUTPUT_DIR", &s.OutputDir)
	loadEnvUint("SCRAPER_MAX_CONCURRENT_RUNS", &s.MaxConcurrentRuns)
	loadEnvString("SCRAPER_USER_AGENT", &s.UserAgent)
}

func defaultScraperConfig() ScraperConfig {
	return ScraperConfig{
		BaseURL:           "https://edlink.id",
		LoginPath:         "/login",
		Headless:          true,
		NavigationTimeout: 30 * time.Second,
		ActionTimeout:     10 * time.Second,
		TypeDelay:         100 * time.Millisecond,
		SettleDelay:       3 * time.Second,
		OutputDir:         "./output",
		MaxConcurrentRuns: 2,
		UserAgent:         "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
	}
}

type Config struct {
	Listen   listenConfig
	PgSql    pgSqlConfig
	Security securityConfig
	Nats     natsConfig
	Redis    redisConfig
	GCS      GCSConfig
	Scraper  ScraperConfig
}

func (c *Config) LoadFromEnv() {
	c.Listen.loadFromEnv()
	c.PgSql.loadFromEnv()
	c.Security.loadFromEnv()
	c.Nats.loadFromEnv()
	c.Redis.loadFromEnv()
	c.GCS.loadFromEnv()
	c.Scraper.loadFromEnv()
}

func DefaultConfig() Config {
	return Config{
		Listen:   defaultListenConfig(),
		PgSql:    defaultPgSql(),
		Security: defaultSecurityConfig(),
		Nats:     defaultNatsConfig(),
		Redis:    defaultRedisConfig(),
		GCS:      defaultGcsConfig(),
		Scraper:  defaultScraperConfig(),
	}
}
