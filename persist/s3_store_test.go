package persist

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	testAccessKey = "minioadmin"
	testSecretKey = "minioadmin"
)

func TestS3Store(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping S3 store test in short mode")
	}

	endpoint := os.Getenv("S3_MINIO_ENDPOINT")
	if len(endpoint) == 0 {
		// Use testcontainers for reliable container management
		ctx := context.Background()

		req := testcontainers.ContainerRequest{
			Image:        "minio/minio:latest",
			ExposedPorts: []string{"9000/tcp"},
			Env: map[string]string{
				"MINIO_ROOT_USER":     testAccessKey,
				"MINIO_ROOT_PASSWORD": testSecretKey,
			},
			Cmd:        []string{"server", "/data"},
			WaitingFor: wait.ForHTTP("/minio/health/live").WithPort("9000/tcp"),
		}

		minioContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
			ContainerRequest: req,
			Started:          true,
		})
		if err != nil {
			t.Skipf("could not start MinIO container: %v", err)
		}

		defer func() {
			if err = minioContainer.Terminate(ctx); err != nil {
				t.Logf("Warning: failed to terminate MinIO container: %v", err)
			}
		}()

		mappedPort, err := minioContainer.MappedPort(ctx, "9000")
		if err != nil {
			t.Fatalf("failed to get mapped port: %v", err)
		}
		endpoint = fmt.Sprintf("http://localhost:%s", mappedPort.Port())
	}

	store, err := NewS3Store(S3Config{
		Endpoint:        endpoint,
		Bucket:          "sealing-keys-test",
		Prefix:          "unit",
		AccessKeyID:     testAccessKey,
		SecretAccessKey: testSecretKey,
	})
	if err != nil {
		t.Fatalf("failed to create S3 store: %v", err)
	}
	defer store.Close()

	t.Run("Ping", func(t *testing.T) {
		if err := store.Ping(); err != nil {
			t.Errorf("ping failed: %v", err)
		}
		if store.GetType() != "s3" {
			t.Errorf("unexpected store type: %s", store.GetType())
		}
	})

	t.Run("EmptyStore", func(t *testing.T) {
		exists, err := store.KeysetExists()
		if err != nil {
			t.Fatalf("exists check failed: %v", err)
		}
		if exists {
			t.Error("fresh bucket should hold no keyset")
		}
	})

	var firstVersion string
	t.Run("SaveAndLoad", func(t *testing.T) {
		data := []byte("encrypted keyset blob")

		firstVersion, err = store.SaveKeyset(data, "")
		if err != nil {
			t.Fatalf("failed to save: %v", err)
		}
		if firstVersion == "" {
			t.Fatal("expected a non-empty version")
		}

		loaded, err := store.LoadKeyset()
		if err != nil {
			t.Fatalf("failed to load: %v", err)
		}
		if !bytes.Equal(loaded.Data, data) {
			t.Error("loaded data differs from saved data")
		}
		if loaded.Version != firstVersion {
			t.Errorf("version mismatch: saved %q, loaded %q", firstVersion, loaded.Version)
		}
	})

	t.Run("OptimisticVersioning", func(t *testing.T) {
		if _, err := store.SaveKeyset([]byte("conflict"), "stale"); err == nil {
			t.Error("expected version conflict")
		}

		second, err := store.SaveKeyset([]byte("second"), firstVersion)
		if err != nil {
			t.Fatalf("versioned save failed: %v", err)
		}
		if second == firstVersion {
			t.Error("version did not change after update")
		}
	})
}
