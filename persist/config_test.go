package persist

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "store.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadStoreConfigFileSystem(t *testing.T) {
	path := writeConfig(t, `
type: filesystem
path: /var/lib/sealing/keys
`)

	config, err := LoadStoreConfig(path)
	require.NoError(t, err)
	require.Equal(t, FileSystemStoreType, config.Type)
	require.Equal(t, "/var/lib/sealing/keys", config.Path)
}

func TestLoadStoreConfigS3(t *testing.T) {
	path := writeConfig(t, `
type: s3
s3:
  endpoint: https://minio.internal:9000
  bucket: sealing-keys
  prefix: prod
  access_key_id: AKIA123
  secret_access_key: shhh
  use_ssl: true
`)

	config, err := LoadStoreConfig(path)
	require.NoError(t, err)
	require.Equal(t, S3StoreType, config.Type)
	require.Equal(t, "sealing-keys", config.S3.Bucket)
	require.Equal(t, "shhh", config.S3.secretKey())
}

func TestLoadStoreConfigS3SecretFromEnv(t *testing.T) {
	path := writeConfig(t, `
type: s3
s3:
  endpoint: http://localhost:9000
  bucket: sealing-keys
  access_key_id: AKIA123
`)

	t.Setenv(secretKeyEnvVar, "from-env")

	config, err := LoadStoreConfig(path)
	require.NoError(t, err)
	require.Equal(t, "from-env", config.S3.secretKey())
}

func TestLoadStoreConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"UnknownType", "type: carrier-pigeon\n"},
		{"FilesystemWithoutPath", "type: filesystem\n"},
		{"S3WithoutSection", "type: s3\n"},
		{"S3WithoutBucket", "type: s3\ns3:\n  endpoint: http://x:9000\n  access_key_id: a\n  secret_access_key: b\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadStoreConfig(writeConfig(t, tt.content))
			require.Error(t, err)
		})
	}
}

func TestLoadStoreConfigMissingFile(t *testing.T) {
	_, err := LoadStoreConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestNewStoreFactory(t *testing.T) {
	store, err := NewStore(&StoreConfig{Type: FileSystemStoreType, Path: t.TempDir()})
	require.NoError(t, err)
	require.Equal(t, "filesystem", store.GetType())
	require.NoError(t, store.Close())

	_, err = NewStore(nil)
	require.Error(t, err)
}
