package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	DefaultExternalProbeURL = "https://api.ipify.org?format=json"
	DefaultAdapterProbeURL  = "https://www.google.com/"
	DefaultHelpURL          = "https://developer.mozilla.org/en-US/docs/Learn_web_development/Howto/Tools_and_setup/set_up_a_local_testing_server"
	DefaultServeCommand     = "npx serve -l 5500 ."
	DefaultHealthBaseURL    = "http://localhost:3000"
)

// Config holds every tunable of a diagnostics run. Zero values are never valid; start from Default.
type Config struct {
	Origin            string `yaml:"origin"`
	LocalPorts        []int  `yaml:"localPorts" validate:"required,min=1,unique,dive,min=1,max=65535"`
	LocalPath         string `yaml:"localPath" validate:"required,startswith=/"`
	ExternalProbeURL  string `yaml:"externalProbeUrl" validate:"required,http_url"`
	AdapterProbeURL   string `yaml:"adapterProbeUrl" validate:"required,http_url"`
	PerPortTimeoutMs  int    `yaml:"perPortTimeoutMs" validate:"min=1"`
	ExternalTimeoutMs int    `yaml:"externalTimeoutMs" validate:"min=1"`
	AdapterTimeoutMs  int    `yaml:"adapterTimeoutMs" validate:"min=1"`
	Parallelism       int    `yaml:"parallelism" validate:"min=1,max=64"`
	HelpURL           string `yaml:"helpUrl" validate:"omitempty,http_url"`
	ServeCommand      string `yaml:"serveCommand"`
	HealthBaseURL     string `yaml:"healthBaseUrl" validate:"required,http_url"`
}

func Default() Config {
	return Config{
		LocalPorts:        []int{5500, 3000, 8080},
		LocalPath:         "/",
		ExternalProbeURL:  DefaultExternalProbeURL,
		AdapterProbeURL:   DefaultAdapterProbeURL,
		PerPortTimeoutMs:  2000,
		ExternalTimeoutMs: 4000,
		AdapterTimeoutMs:  3000,
		Parallelism:       4,
		HelpURL:           DefaultHelpURL,
		ServeCommand:      DefaultServeCommand,
		HealthBaseURL:     DefaultHealthBaseURL,
	}
}

func (c Config) PerPortTimeout() time.Duration {
	return time.Duration(c.PerPortTimeoutMs) * time.Millisecond
}

func (c Config) ExternalTimeout() time.Duration {
	return time.Duration(c.ExternalTimeoutMs) * time.Millisecond
}

func (c Config) AdapterTimeout() time.Duration {
	return time.Duration(c.AdapterTimeoutMs) * time.Millisecond
}

// Load overlays the YAML file at path onto the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

var (
	validatorOnce sync.Once
	validateInst  *validator.Validate
)

func validatorInstance() *validator.Validate {
	validatorOnce.Do(func() {
		validateInst = validator.New()
	})
	return validateInst
}

func (c Config) Validate() error {
	err := validatorInstance().Struct(c)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
}

// ResolveOrigin returns origin, or the working directory as a file URL when origin is empty.
func ResolveOrigin(origin string, cwd string) string {
	origin = strings.TrimSpace(origin)
	if origin != "" {
		return origin
	}
	abs, err := filepath.Abs(cwd)
	if err != nil {
		abs = cwd
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(abs) + "/"}
	return u.String()
}
