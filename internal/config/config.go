package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/steadypath/steadypath/pkg/models"
)

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Host            string        `yaml:"host" json:"host"`
	Port            int           `yaml:"port" json:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" json:"shutdown_timeout"`
}

// Addr returns the listen address in host:port form.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// SMSProviderConfig holds credentials for one SMS gateway.
type SMSProviderConfig struct {
	URL    string `yaml:"url" json:"url"`
	APIKey string `yaml:"api_key" json:"api_key"`
	From   string `yaml:"from" json:"from"`
}

// EmailConfig holds both the transactional email API and the local SMTP
// compose fallback.
type EmailConfig struct {
	APIURL      string `yaml:"api_url" json:"api_url"`
	APIKey      string `yaml:"api_key" json:"api_key"`
	FromAddress string `yaml:"from_address" json:"from_address"`
	FromName    string `yaml:"from_name" json:"from_name"`
	SMTPHost    string `yaml:"smtp_host" json:"smtp_host"`
	SMTPPort    int    `yaml:"smtp_port" json:"smtp_port"`
	SMTPUser    string `yaml:"smtp_user" json:"smtp_user"`
	SMTPPass    string `yaml:"smtp_pass" json:"smtp_pass"`
}

// ChatConfig holds the chat-platform bot API settings and the deep-link
// fallback base.
type ChatConfig struct {
	APIBase      string `yaml:"api_base" json:"api_base"`
	BotToken     string `yaml:"bot_token" json:"bot_token"`
	DeepLinkBase string `yaml:"deep_link_base" json:"deep_link_base"`
}

// EscalationConfig tunes the orchestrator fan-out.
type EscalationConfig struct {
	ChannelTimeout time.Duration `yaml:"channel_timeout" json:"channel_timeout"`
	ContactStagger time.Duration `yaml:"contact_stagger" json:"contact_stagger"`
	ExportDir      string        `yaml:"export_dir" json:"export_dir"`
}

// Config represents the application configuration
type Config struct {
	Server   ServerConfig `yaml:"server" json:"server"`
	LogLevel string       `yaml:"log_level" json:"log_level"`
	Database struct {
		Path string `yaml:"path" json:"path"`
	} `yaml:"database" json:"database"`
	Contacts   []models.Contact `yaml:"contacts" json:"contacts"`
	Escalation EscalationConfig `yaml:"escalation" json:"escalation"`
	SMS        struct {
		Primary  SMSProviderConfig `yaml:"primary" json:"primary"`
		Fallback SMSProviderConfig `yaml:"fallback" json:"fallback"`
		Regional SMSProviderConfig `yaml:"regional" json:"regional"`
	} `yaml:"sms" json:"sms"`
	Email EmailConfig `yaml:"email" json:"email"`
	Chat  ChatConfig  `yaml:"chat" json:"chat"`
}

// LoadConfig loads the application configuration from defaults, an optional
// steadypath.yaml and environment overrides.
func LoadConfig() (*Config, error) {
	v := viper.New()

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.shutdown_timeout", 15*time.Second)
	v.SetDefault("log_level", "info")
	v.SetDefault("database.path", "steadypath.db")
	v.SetDefault("escalation.channel_timeout", 10*time.Second)
	v.SetDefault("escalation.contact_stagger", 400*time.Millisecond)
	v.SetDefault("escalation.export_dir", "exports")
	v.SetDefault("sms.primary.url", "https://api.sms-primary.example.com/v1/messages")
	v.SetDefault("sms.fallback.url", "https://gateway.sms-alt.example.net/send")
	v.SetDefault("sms.regional.url", "https://sms.regional.example.org/api/send")
	v.SetDefault("email.api_url", "https://api.mail.example.com/v3/send")
	v.SetDefault("email.from_address", "alerts@steadypath.local")
	v.SetDefault("email.from_name", "SteadyPath Alerts")
	v.SetDefault("email.smtp_port", 587)
	v.SetDefault("chat.api_base", "https://api.telegram.org")
	v.SetDefault("chat.deep_link_base", "https://t.me")

	v.SetConfigName("steadypath")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/steadypath")
	v.SetEnvPrefix("STEADYPATH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &Config{}
	cfg.Server = ServerConfig{
		Host:            v.GetString("server.host"),
		Port:            v.GetInt("server.port"),
		ShutdownTimeout: v.GetDuration("server.shutdown_timeout"),
	}
	cfg.LogLevel = v.GetString("log_level")
	cfg.Database.Path = v.GetString("database.path")
	cfg.Escalation = EscalationConfig{
		ChannelTimeout: v.GetDuration("escalation.channel_timeout"),
		ContactStagger: v.GetDuration("escalation.contact_stagger"),
		ExportDir:      v.GetString("escalation.export_dir"),
	}
	cfg.SMS.Primary = smsProvider(v, "sms.primary")
	cfg.SMS.Fallback = smsProvider(v, "sms.fallback")
	cfg.SMS.Regional = smsProvider(v, "sms.regional")
	cfg.Email = EmailConfig{
		APIURL:      v.GetString("email.api_url"),
		APIKey:      v.GetString("email.api_key"),
		FromAddress: v.GetString("email.from_address"),
		FromName:    v.GetString("email.from_name"),
		SMTPHost:    v.GetString("email.smtp_host"),
		SMTPPort:    v.GetInt("email.smtp_port"),
		SMTPUser:    v.GetString("email.smtp_user"),
		SMTPPass:    v.GetString("email.smtp_pass"),
	}
	cfg.Chat = ChatConfig{
		APIBase:      v.GetString("chat.api_base"),
		BotToken:     v.GetString("chat.bot_token"),
		DeepLinkBase: v.GetString("chat.deep_link_base"),
	}

	if err := v.UnmarshalKey("contacts", &cfg.Contacts); err != nil {
		return nil, fmt.Errorf("unmarshal contacts: %w", err)
	}
	if len(cfg.Contacts) == 0 {
		cfg.Contacts = defaultContacts()
	}
	return cfg, nil
}

func smsProvider(v *viper.Viper, prefix string) SMSProviderConfig {
	return SMSProviderConfig{
		URL:    v.GetString(prefix + ".url"),
		APIKey: v.GetString(prefix + ".api_key"),
		From:   v.GetString(prefix + ".from"),
	}
}

func defaultContacts() []models.Contact {
	return []models.Contact{
		{Label: "On-call counselor", PhoneNumber: "+15550100", Email: "oncall@steadypath.local", ChatHandle: "steadypath_oncall", IsPrimary: true},
		{Label: "Crisis line", PhoneNumber: "+15550199", Email: "crisis@steadypath.local", ChatHandle: "steadypath_crisis"},
	}
}
