package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	HTTPAddr        string
	CRMAPIURL       string
	DatabaseURL     string
	StorePath       string
	RabbitMQURL     string
	Mail            MailConfig
	SyncTimeout     time.Duration
	ResyncInterval  time.Duration
	LogLevel        string
	LogDevelopment  bool
	CORSOrigins     []string
	LeadsPageSize   int
	WriteRateLimit  int
	NotificationCap int
}

type MailConfig struct {
	Host      string
	Port      int
	User      string
	Password  string
	From      string
	Recipient string
}

// Enabled reports whether stage-change emails can be sent.
func (m MailConfig) Enabled() bool {
	return m.Host != "" && m.Recipient != ""
}

func defaultStorePath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "leadflow", "store.json")
	}
	return "leadflow-store.json"
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("crm_api_url", "http://localhost:3000/api")
	v.SetDefault("store_path", defaultStorePath())
	v.SetDefault("mail_port", 587)
	v.SetDefault("mail_from", "no-reply@leadflow.local")
	v.SetDefault("sync_timeout", "15s")
	v.SetDefault("resync_interval", "0s")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_development", false)
	v.SetDefault("leads_page_size", 200)
	v.SetDefault("write_rate_limit", 60)
	v.SetDefault("notification_cap", 200)
}

// Load reads .env (if present), an optional leadflow.yaml from configDir
// and the environment. Environment variables win.
func Load(configDir string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetConfigName("leadflow")
	v.SetConfigType("yaml")
	if configDir != "" {
		v.AddConfigPath(configDir)
	}
	v.AddConfigPath(".")
	v.AutomaticEnv()

	for _, key := range []string{
		"http_addr", "crm_api_url", "database_url", "store_path", "rabbitmq_url",
		"mail_host", "mail_port", "mail_user", "mail_pass", "mail_from",
		"stage_alert_recipient", "sync_timeout", "resync_interval", "log_level",
		"log_development", "cors_origins", "leads_page_size", "write_rate_limit",
		"notification_cap",
	} {
		if err := v.BindEnv(key, strings.ToUpper(key)); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &Config{
		HTTPAddr:    v.GetString("http_addr"),
		CRMAPIURL:   v.GetString("crm_api_url"),
		DatabaseURL: v.GetString("database_url"),
		StorePath:   v.GetString("store_path"),
		RabbitMQURL: v.GetString("rabbitmq_url"),
		Mail: MailConfig{
			Host:      v.GetString("mail_host"),
			Port:      v.GetInt("mail_port"),
			User:      v.GetString("mail_user"),
			Password:  v.GetString("mail_pass"),
			From:      v.GetString("mail_from"),
			Recipient: v.GetString("stage_alert_recipient"),
		},
		SyncTimeout:     v.GetDuration("sync_timeout"),
		ResyncInterval:  v.GetDuration("resync_interval"),
		LogLevel:        v.GetString("log_level"),
		LogDevelopment:  v.GetBool("log_development"),
		CORSOrigins:     splitList(v.GetString("cors_origins")),
		LeadsPageSize:   v.GetInt("leads_page_size"),
		WriteRateLimit:  v.GetInt("write_rate_limit"),
		NotificationCap: v.GetInt("notification_cap"),
	}
	return cfg, cfg.validate()
}

func (c *Config) validate() error {
	if c.CRMAPIURL == "" {
		return fmt.Errorf("CRM_API_URL is required")
	}
	if c.SyncTimeout <= 0 {
		return fmt.Errorf("SYNC_TIMEOUT must be positive, got %s", c.SyncTimeout)
	}
	if c.ResyncInterval < 0 {
		return fmt.Errorf("RESYNC_INTERVAL must not be negative, got %s", c.ResyncInterval)
	}
	if c.LeadsPageSize <= 0 {
		return fmt.Errorf("LEADS_PAGE_SIZE must be positive, got %d", c.LeadsPageSize)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
