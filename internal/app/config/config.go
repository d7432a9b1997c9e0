package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	ListenAddr      string   `yaml:"listen_addr"`       // Address the HTTP API listens on.
	LogLevel        int      `yaml:"log_level"`         // Logging level (e.g., -4: debug, 0: info, etc.).
	RequestTimeout  Duration `yaml:"request_timeout"`   // Upper bound for handling a single ingestion request.
	PDFParseTimeout Duration `yaml:"pdf_parse_timeout"` // Upper bound for extracting text from one PDF attachment.
	Mailbox         Mailbox  `yaml:"mailbox"`           // Upstream IMAP mailbox settings.
}

// Duration accepts "30s"/"2m" style values in YAML.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}

	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

type Mailbox struct {
	Host     string `yaml:"host"`     // IMAP server hostname.
	Port     string `yaml:"port"`     // IMAP server port, usually 993.
	Login    string `yaml:"login"`    // Mailbox account username.
	Password string `yaml:"password"` // Mailbox account password.
	Folder   string `yaml:"folder"`   // Folder scanned on every request.
}

// Address returns the dialable host:port of the IMAP server.
func (m Mailbox) Address() string {
	return net.JoinHostPort(m.Host, m.Port)
}

const (
	defaultListenAddr      = ":3000"
	defaultFolder          = "physicalData"
	defaultRequestTimeout  = 2 * time.Minute
	defaultPDFParseTimeout = 30 * time.Second
)

func LoadConfig(cfgFilepath, envFilepath string) (Config, error) {
	var cfg Config

	if _, err := os.Stat(envFilepath); err == nil {
		if err = godotenv.Load(envFilepath); err != nil {
			return cfg, fmt.Errorf("unable to load environment variables from file: %w", err)
		}
	}

	fileBytes, err := os.ReadFile(cfgFilepath)
	if err != nil {
		switch {
		case errors.Is(err, os.ErrNotExist):
			return cfg, fmt.Errorf("configuration file at this cfgFilepath doesn't exist: %w", err)
		case errors.Is(err, os.ErrPermission):
			return cfg, fmt.Errorf("permission denied for accessing configuration file: %w", err)
		default:
			return cfg, fmt.Errorf("unexpected error during reading configuration file: %w", err)
		}
	}

	envExpanded := os.ExpandEnv(string(fileBytes))
	if err = yaml.Unmarshal([]byte(envExpanded), &cfg); err != nil {
		return cfg, fmt.Errorf("unable to unmarshal configuration file: %w", err)
	}

	cfg.applyDefaults()

	if err = cfg.validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.ListenAddr == "" {
		c.ListenAddr = defaultListenAddr
	}
	if c.Mailbox.Port == "" {
		c.Mailbox.Port = "993"
	}
	if c.Mailbox.Folder == "" {
		c.Mailbox.Folder = defaultFolder
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = Duration(defaultRequestTimeout)
	}
	if c.PDFParseTimeout <= 0 {
		c.PDFParseTimeout = Duration(defaultPDFParseTimeout)
	}
}

func (c *Config) validate() error {
	if c.Mailbox.Host == "" {
		return errors.New("mailbox host must be specified")
	}
	if c.Mailbox.Login == "" || c.Mailbox.Password == "" {
		return errors.New("mailbox credentials must be specified")
	}
	return nil
}
