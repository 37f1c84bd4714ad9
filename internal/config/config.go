package config

import (
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port  string `envconfig:"PORT" default:"8080"`
	Debug bool   `envconfig:"DEBUG" default:"false"`

	DatabaseURL string `envconfig:"DATABASE_URL"`

	// DataDir is the root of the file-based pipeline store used by
	// the CLI commands.
	DataDir string `envconfig:"DATA_DIR" default:"ontology_workspace"`

	// Chunking defaults for sources without structural headings
	ChunkSize    int `envconfig:"CHUNK_SIZE" default:"3000"`
	ChunkOverlap int `envconfig:"CHUNK_OVERLAP" default:"200"`

	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Bucket    string `envconfig:"S3_BUCKET" default:"ontorag-artifacts"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`

	OpenRouterAPIKey  string `envconfig:"OPENROUTER_API_KEY"`
	OpenRouterModel   string `envconfig:"OPENROUTER_MODEL"`
	OpenRouterBaseURL string `envconfig:"OPENROUTER_BASE_URL"`

	// Namespace is the base IRI for generated ontology terms
	Namespace string `envconfig:"NAMESPACE" default:"http://www.example.com/biz/"`

	BlazegraphEndpoint string `envconfig:"BLAZEGRAPH_ENDPOINT"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("ONTORAG", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

func (c *Config) HasDatabase() bool {
	return c.DatabaseURL != ""
}

func (c *Config) HasS3() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

func (c *Config) HasOpenRouter() bool {
	return c.OpenRouterAPIKey != ""
}

func (c *Config) HasBlazegraph() bool {
	return c.BlazegraphEndpoint != ""
}
