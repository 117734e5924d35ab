package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Schedule    string           `yaml:"schedule"`
	WindowHours int              `yaml:"window_hours"`
	RunOnStart  bool             `yaml:"run_on_start"`
	Discord     DiscordConfig    `yaml:"discord"`
	Extractor   ExtractorConfig  `yaml:"extractor"`
	Summarizer  SummarizerConfig `yaml:"summarizer"`
	Publisher   PublisherConfig  `yaml:"publisher"`
	Log         LogConfig        `yaml:"log"`
}

type DiscordConfig struct {
	Token            string   `yaml:"token"`
	ChannelIDs       []string `yaml:"channel_ids"`
	SummaryChannelID string   `yaml:"summary_channel_id"`
	MessageLimit     int      `yaml:"message_limit"`
}

type ExtractorConfig struct {
	PageTimeout time.Duration `yaml:"page_timeout"`
	Workers     int           `yaml:"workers"`
	Jobs        JobsConfig    `yaml:"jobs"`
}

// JobsConfig configures the asynchronous batch-job API. An empty
// token leaves video and thread extraction disabled; those targets
// are then omitted from the digest rather than failed.
type JobsConfig struct {
	Token           string        `yaml:"token"`
	BaseURL         string        `yaml:"base_url"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	PollInterval    time.Duration `yaml:"poll_interval"`
	MaxPollAttempts int           `yaml:"max_poll_attempts"`
	VideoActor      string        `yaml:"video_actor"`
	ThreadActor     string        `yaml:"thread_actor"`
}

type SummarizerConfig struct {
	Type      string `yaml:"type"`
	Model     string `yaml:"model"`
	APIKey    string `yaml:"api_key"`
	MaxTokens int    `yaml:"max_tokens"`
}

type PublisherConfig struct {
	Type  string      `yaml:"type"`
	Email EmailConfig `yaml:"email"`
}

type EmailConfig struct {
	SMTPHost string   `yaml:"smtp_host"`
	SMTPPort int      `yaml:"smtp_port"`
	Username string   `yaml:"username"`
	Password string   `yaml:"password"`
	From     string   `yaml:"from"`
	To       []string `yaml:"to"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// Window returns the trailing message window as a duration.
func (c *Config) Window() time.Duration {
	return time.Duration(c.WindowHours) * time.Hour
}

var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR_NAME} patterns with environment variable values.
func expandEnvVars(s string) string {
	return envVarRegex.ReplaceAllStringFunc(s, func(match string) string {
		varName := strings.TrimSuffix(strings.TrimPrefix(match, "${"), "}")
		if val, ok := os.LookupEnv(varName); ok {
			return val
		}
		return match
	})
}

func setDefaults(cfg *Config) {
	if cfg.Schedule == "" {
		cfg.Schedule = "0 8 * * *"
	}
	if cfg.WindowHours == 0 {
		cfg.WindowHours = 48
	}
	if cfg.Discord.MessageLimit == 0 {
		cfg.Discord.MessageLimit = 100
	}
	if cfg.Extractor.PageTimeout == 0 {
		cfg.Extractor.PageTimeout = 10 * time.Second
	}
	if cfg.Extractor.Workers == 0 {
		cfg.Extractor.Workers = 5
	}
	if cfg.Extractor.Jobs.BaseURL == "" {
		cfg.Extractor.Jobs.BaseURL = "https://api.apify.com/v2"
	}
	if cfg.Extractor.Jobs.RequestTimeout == 0 {
		cfg.Extractor.Jobs.RequestTimeout = 30 * time.Second
	}
	if cfg.Extractor.Jobs.PollInterval == 0 {
		cfg.Extractor.Jobs.PollInterval = 3 * time.Second
	}
	if cfg.Extractor.Jobs.MaxPollAttempts == 0 {
		cfg.Extractor.Jobs.MaxPollAttempts = 40
	}
	if cfg.Summarizer.Type == "" {
		cfg.Summarizer.Type = "anthropic"
	}
	if cfg.Summarizer.Model == "" {
		cfg.Summarizer.Model = "claude-sonnet-4-20250514"
	}
	if cfg.Summarizer.MaxTokens == 0 {
		cfg.Summarizer.MaxTokens = 8192
	}
	if cfg.Publisher.Type == "" {
		cfg.Publisher.Type = "stdout"
	}
	if cfg.Publisher.Email.SMTPPort == 0 {
		cfg.Publisher.Email.SMTPPort = 587
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}

func validate(cfg *Config) error {
	if cfg.Discord.Token == "" {
		return fmt.Errorf("config: discord.token is required (set DISCORD_TOKEN env var)")
	}
	if len(cfg.Discord.ChannelIDs) == 0 {
		return fmt.Errorf("config: discord.channel_ids is required")
	}
	if cfg.Summarizer.Type != "anthropic" {
		return fmt.Errorf("config: unsupported summarizer type %q (supported: anthropic)", cfg.Summarizer.Type)
	}
	if cfg.Summarizer.APIKey == "" {
		return fmt.Errorf("config: summarizer.api_key is required (set ANTHROPIC_API_KEY env var)")
	}
	switch cfg.Publisher.Type {
	case "stdout", "email", "discord":
	default:
		return fmt.Errorf("config: unsupported publisher type %q (supported: stdout, email, discord)", cfg.Publisher.Type)
	}
	if cfg.Publisher.Type == "discord" && cfg.Discord.SummaryChannelID == "" {
		return fmt.Errorf("config: discord.summary_channel_id is required for discord publisher")
	}
	if cfg.Publisher.Type == "email" {
		if cfg.Publisher.Email.SMTPHost == "" {
			return fmt.Errorf("config: publisher.email.smtp_host is required for email publisher")
		}
		if len(cfg.Publisher.Email.To) == 0 {
			return fmt.Errorf("config: publisher.email.to is required for email publisher")
		}
		if cfg.Publisher.Email.From == "" {
			return fmt.Errorf("config: publisher.email.from is required for email publisher")
		}
	}
	if cfg.WindowHours < 0 {
		return fmt.Errorf("config: window_hours must not be negative")
	}
	return nil
}

// Load reads the config file, expands environment variables, applies
// defaults, and validates the configuration. Components receive this
// object by reference; nothing below the entry point reads ambient
// environment state directly.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
	}

	expanded := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse %s: %w", path, err)
	}

	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
