package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/nkiryanov/medorders/internal/apperrors"
	"github.com/nkiryanov/medorders/internal/logger"
	"github.com/nkiryanov/medorders/internal/service/upstream"
)

const (
	defaultLoggingLevel   = logger.LevelInfo
	defaultEnvironment    = logger.EnvProduction
	defaultRequestTimeout = upstream.DefaultTimeout
)

// Fixed paths appended to the configured base URLs
const (
	ordersPath = "/orders"
	alertPath  = "/alerts"
	updatePath = "/update"
)

type Config struct {
	// Base URLs of the orders, alert and update APIs
	OrdersAPIURL string `validate:"required,url"`
	AlertAPIURL  string `validate:"required,url"`
	UpdateAPIURL string `validate:"required,url"`

	// Timeout of every single request to the APIs
	RequestTimeout time.Duration `validate:"gt=0"`

	// Default logging level
	LogLevel string

	// Environment
	Environment string `validate:"oneof=dev prod"`

	// Prometheus Pushgateway to push run metrics to. Disabled if empty
	PushgatewayURL string `validate:"omitempty,url"`

	// JSON settings file with 'ApiSettings' section
	SettingsFile string
}

func NewConfig() *Config {
	return &Config{
		LogLevel:       defaultLoggingLevel,
		Environment:    defaultEnvironment,
		RequestTimeout: defaultRequestTimeout,
	}
}

// Load settings file in the 'appsettings.json' layout. Only non empty values are applied
func (c *Config) LoadSettingsFile(path string) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("can't read settings file: %w", err)
	}

	var settings struct {
		APISettings struct {
			OrdersAPIURL string `json:"OrdersApiUrl"`
			AlertAPIURL  string `json:"AlertApiUrl"`
			UpdateAPIURL string `json:"UpdateApiUrl"`
		} `json:"ApiSettings"`
	}
	if err := json.Unmarshal(data, &settings); err != nil {
		return fmt.Errorf("can't parse settings file %s: %w", path, err)
	}

	for dst, value := range map[*string]string{
		&c.OrdersAPIURL: settings.APISettings.OrdersAPIURL,
		&c.AlertAPIURL:  settings.APISettings.AlertAPIURL,
		&c.UpdateAPIURL: settings.APISettings.UpdateAPIURL,
	} {
		if value != "" {
			*dst = value
		}
	}

	return nil
}

// Load variable from '.env' file (should be located at working directory)
func (c *Config) LoadDotEnv(getwd func() (string, error)) error {
	wd, err := getwd()
	if err != nil {
		return err
	}

	envMap, err := godotenv.Read(filepath.Join(wd, ".env"))

	switch {
	case err == nil:
		return c.LoadEnv(func(key string) string {
			return envMap[key]
		})
	case errors.Is(err, os.ErrNotExist):
		return nil
	default:
		return err
	}
}

func (c *Config) LoadEnv(getenv func(string) string) error {
	// Set option to value if it not empty
	setString := func(o *string) func(value string) error {
		return func(value string) error {
			if value != "" {
				*o = value
			}
			return nil
		}
	}
	setDuration := func(o *time.Duration) func(value string) error {
		return func(value string) error {
			if value == "" {
				return nil
			}
			d, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			*o = d
			return nil
		}
	}

	envMap := map[string]func(string) error{
		"ORDERS_API_URL":  setString(&c.OrdersAPIURL),
		"ALERT_API_URL":   setString(&c.AlertAPIURL),
		"UPDATE_API_URL":  setString(&c.UpdateAPIURL),
		"REQUEST_TIMEOUT": setDuration(&c.RequestTimeout),
		"LOG_LEVEL":       setString(&c.LogLevel),
		"ENVIRONMENT":     setString(&c.Environment),
		"PUSHGATEWAY_URL": setString(&c.PushgatewayURL),
		"SETTINGS_FILE":   setString(&c.SettingsFile),
	}

	for key, parseFn := range envMap {
		if err := parseFn(getenv(key)); err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
	}

	return nil
}

func (c *Config) ParseFlags(args []string) error {
	fs := pflag.NewFlagSet("medorders", pflag.ContinueOnError)

	fs.StringVarP(&c.OrdersAPIURL, "orders-api", "o", c.OrdersAPIURL, "Orders API base URL")
	fs.StringVarP(&c.AlertAPIURL, "alert-api", "a", c.AlertAPIURL, "Alert API base URL")
	fs.StringVarP(&c.UpdateAPIURL, "update-api", "u", c.UpdateAPIURL, "Update API base URL")
	fs.DurationVarP(&c.RequestTimeout, "request-timeout", "t", c.RequestTimeout, "Timeout of a single API request")
	fs.StringVarP(&c.LogLevel, "log-level", "l", c.LogLevel, "Logging level (debug, info, warn, error)")
	fs.StringVarP(&c.Environment, "environment", "e", c.Environment, "Environment (dev, prod)")
	fs.StringVarP(&c.PushgatewayURL, "pushgateway", "p", c.PushgatewayURL, "Prometheus Pushgateway URL")
	fs.StringVarP(&c.SettingsFile, "settings", "c", c.SettingsFile, "JSON settings file")

	return fs.Parse(args)
}

// Validate checks the config is complete. Errors match apperrors.ErrConfiguration
func (c *Config) Validate() error {
	err := validator.New().Struct(c)
	if err == nil {
		return nil
	}

	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return fmt.Errorf("%w: %w", apperrors.ErrConfiguration, err)
	}

	fields := make([]string, 0, len(errs))
	for _, fe := range errs {
		fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("%w: invalid fields: %s", apperrors.ErrConfiguration, strings.Join(fields, ", "))
}

// Upstream builds client config with fixed paths appended
func (c *Config) Upstream() upstream.Config {
	return upstream.Config{
		OrdersURL: strings.TrimRight(c.OrdersAPIURL, "/") + ordersPath,
		AlertURL:  strings.TrimRight(c.AlertAPIURL, "/") + alertPath,
		UpdateURL: strings.TrimRight(c.UpdateAPIURL, "/") + updatePath,
		Timeout:   c.RequestTimeout,
	}
}
