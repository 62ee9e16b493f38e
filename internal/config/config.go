// Package config loads service configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Storage backend selectors.
const (
	BackendGCS   = "gcs"
	BackendMinio = "minio"
)

// Config is the full service configuration.
type Config struct {
	ListenAddr string

	ProjectID    string
	VertexRegion string

	StorageBackend string
	Bucket         string
	StorageFolder  string

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioUseSSL    bool
	MinioPublicURL string

	FirestoreCollection string

	JWTSecret string

	AmapKey string
}

// Load reads configuration from the environment. A .env file in the working
// directory is merged in first without overriding real environment
// variables.
func Load() (Config, error) {
	// missing .env is fine outside local development
	_ = godotenv.Load()

	cfg := Config{
		ListenAddr:          getenv("LISTEN_ADDR", ":8080"),
		ProjectID:           os.Getenv("GCP_PROJECT_ID"),
		VertexRegion:        getenv("VERTEX_REGION", "us-central1"),
		StorageBackend:      getenv("STORAGE_BACKEND", BackendGCS),
		Bucket:              os.Getenv("STORAGE_BUCKET"),
		StorageFolder:       getenv("STORAGE_FOLDER", "original"),
		MinioEndpoint:       os.Getenv("MINIO_ENDPOINT"),
		MinioAccessKey:      os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey:      os.Getenv("MINIO_SECRET_KEY"),
		MinioUseSSL:         os.Getenv("MINIO_USE_SSL") == "true",
		MinioPublicURL:      os.Getenv("MINIO_PUBLIC_URL"),
		FirestoreCollection: getenv("FIRESTORE_COLLECTION", "collections"),
		JWTSecret:           os.Getenv("JWT_SECRET"),
		AmapKey:             os.Getenv("AMAP_KEY"),
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	var missing []string
	require := func(name, value string) {
		if value == "" {
			missing = append(missing, name)
		}
	}

	require("GCP_PROJECT_ID", c.ProjectID)
	require("STORAGE_BUCKET", c.Bucket)
	require("JWT_SECRET", c.JWTSecret)

	switch c.StorageBackend {
	case BackendGCS:
	case BackendMinio:
		require("MINIO_ENDPOINT", c.MinioEndpoint)
		require("MINIO_ACCESS_KEY", c.MinioAccessKey)
		require("MINIO_SECRET_KEY", c.MinioSecretKey)
		require("MINIO_PUBLIC_URL", c.MinioPublicURL)
	default:
		return fmt.Errorf("STORAGE_BACKEND must be %q or %q, got %q", BackendGCS, BackendMinio, c.StorageBackend)
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

func getenv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
