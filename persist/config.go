package persist

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// StoreType identifies a persistence backend.
type StoreType string

const (
	FileSystemStoreType StoreType = "filesystem"
	S3StoreType         StoreType = "s3"
)

// StoreConfig selects and configures a persistence backend. It is intended
// to be loaded from a YAML file shipped alongside the deployment.
type StoreConfig struct {
	Type StoreType `yaml:"type"`

	// Path is the base directory for filesystem stores.
	Path string `yaml:"path,omitempty"`

	// S3 configures S3-compatible stores.
	S3 *S3Config `yaml:"s3,omitempty"`
}

// S3Config holds connection settings for an S3-compatible store. The secret
// key may be left empty in the file and supplied via environment variable
// instead, so credentials never need to live next to the config.
type S3Config struct {
	Endpoint        string `yaml:"endpoint"`
	Region          string `yaml:"region,omitempty"`
	Bucket          string `yaml:"bucket"`
	Prefix          string `yaml:"prefix,omitempty"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key,omitempty"`
	UseSSL          bool   `yaml:"use_ssl"`
}

// secretKeyEnvVar names the environment variable consulted when
// S3Config.SecretAccessKey is empty.
const secretKeyEnvVar = "SEALED_SECRETS_S3_SECRET_KEY"

// LoadStoreConfig reads a StoreConfig from a YAML file.
func LoadStoreConfig(path string) (*StoreConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read store config: %w", err)
	}

	var config StoreConfig
	if err = yaml.Unmarshal(raw, &config); err != nil {
		return nil, fmt.Errorf("failed to parse store config: %w", err)
	}
	if err = config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks the configuration for the selected backend.
func (c *StoreConfig) Validate() error {
	switch c.Type {
	case FileSystemStoreType:
		if c.Path == "" {
			return fmt.Errorf("filesystem store requires a path")
		}
	case S3StoreType:
		if c.S3 == nil {
			return fmt.Errorf("s3 store requires an s3 section")
		}
		if c.S3.Endpoint == "" || c.S3.Bucket == "" {
			return fmt.Errorf("s3 store requires endpoint and bucket")
		}
		if c.S3.SecretAccessKey == "" && os.Getenv(secretKeyEnvVar) == "" {
			return fmt.Errorf("s3 store requires a secret key in config or %s", secretKeyEnvVar)
		}
	default:
		return fmt.Errorf("unknown store type: %q", c.Type)
	}
	return nil
}

// secretKey resolves the S3 secret access key from config or environment.
func (c *S3Config) secretKey() string {
	if c.SecretAccessKey != "" {
		return c.SecretAccessKey
	}
	return os.Getenv(secretKeyEnvVar)
}
