package config

import (
	"fmt"
	validator "github.com/asaskevich/govalidator"
	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
	"os"
	"time"
)

const (
	defaultLogLevel      = "INFO"
	defaultManagementURL = "https://management.azure.com"
	defaultAPIVersion    = "2022-10-01"
	defaultListenAddr    = ":8080"
	defaultHTTPTimeout   = time.Minute

	envPrefix = "AMLCHECK"
)

type Config struct {
	Log struct {
		Level string `yaml:"level" envconfig:"LEVEL"`
	} `yaml:"log"`

	Azure struct {
		TenantID       string        `yaml:"tenant_id" envconfig:"TENANT_ID"`
		ClientID       string        `yaml:"client_id" envconfig:"CLIENT_ID"`
		ClientSecret   string        `yaml:"client_secret" envconfig:"CLIENT_SECRET"`
		SubscriptionID string        `yaml:"subscription_id" envconfig:"SUB_ID"`
		ResourceGroup  string        `yaml:"resource_group" envconfig:"RES_GROUP"`
		WorkspaceName  string        `yaml:"workspace_name" envconfig:"WS_NAME"`
		ManagementURL  string        `yaml:"management_url" envconfig:"MANAGEMENT_URL" valid:"url"`
		APIVersion     string        `yaml:"api_version" envconfig:"API_VERSION" valid:"matches(^[0-9]{4}-[0-9]{2}-[0-9]{2}(-preview)?$)"`
		HTTPTimeout    time.Duration `yaml:"http_timeout" envconfig:"HTTP_TIMEOUT"`
	} `yaml:"azure"`

	Server struct {
		ListenAddr string `yaml:"listen_addr" envconfig:"LISTEN_ADDR"`
	} `yaml:"server"`
}

func (c *Config) Validate() error {
	if c.Log.Level == "" {
		c.Log.Level = defaultLogLevel
	}

	if c.Azure.ManagementURL == "" {
		c.Azure.ManagementURL = defaultManagementURL
	}

	if c.Azure.APIVersion == "" {
		c.Azure.APIVersion = defaultAPIVersion
	}

	if c.Azure.HTTPTimeout <= 0 {
		c.Azure.HTTPTimeout = defaultHTTPTimeout
	}

	if c.Server.ListenAddr == "" {
		c.Server.ListenAddr = defaultListenAddr
	}

	// a partial service principal is always a mistake
	if (c.Azure.ClientID != "" || c.Azure.ClientSecret != "") && !c.HasClientCredentials() {
		return fmt.Errorf("tenant_id, client_id and client_secret must be provided together")
	}

	if valid, err := validator.ValidateStruct(c); !valid || err != nil {
		return fmt.Errorf("invalid configuration: %v", err)
	}

	return nil
}

// HasClientCredentials reports whether a full service principal is configured.
func (c *Config) HasClientCredentials() bool {
	return c.Azure.TenantID != "" && c.Azure.ClientID != "" && c.Azure.ClientSecret != ""
}

func (c *Config) Load(l *logrus.Logger, path string) error {
	if path != "" {
		l.WithField("config", path).Info("loading configuration file")

		configBytes, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to load configuration file at '%s': %v", path, err)
		}

		if err = yaml.Unmarshal(configBytes, c); err != nil {
			return fmt.Errorf("failed to parse configuration: %v", err)
		}
	}

	if err := envconfig.Process(envPrefix, c); err != nil {
		return fmt.Errorf("could not load environment: %v", err)
	}

	return nil
}
