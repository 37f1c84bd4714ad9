package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/ontorag/ontorag/internal/domain"
)

// ArtifactStoreConfig holds configuration for ArtifactStore
type ArtifactStoreConfig struct {
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	UsePathStyle    bool
}

// ArtifactStore publishes pipeline outputs (aggregated proposals and
// Turtle exports) to S3-compatible storage so downstream consumers can
// fetch them without touching the database.
type ArtifactStore struct {
	client            *s3.Client
	presignClient     *s3.PresignClient
	bucket            string
	downloadURLExpiry time.Duration
}

// NewArtifactStore creates an ArtifactStore with the given configuration
func NewArtifactStore(ctx context.Context, cfg ArtifactStoreConfig) (*ArtifactStore, error) {
	// Custom resolver for S3-compatible endpoints (MinIO, RustFS)
	customResolver := aws.EndpointResolverWithOptionsFunc(
		func(service, region string, options ...interface{}) (aws.Endpoint, error) {
			if cfg.Endpoint != "" {
				return aws.Endpoint{
					URL:               cfg.Endpoint,
					HostnameImmutable: true,
				}, nil
			}
			return aws.Endpoint{}, &aws.EndpointNotFoundError{}
		},
	)

	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		),
		config.WithEndpointResolverWithOptions(customResolver),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
	})

	return &ArtifactStore{
		client:            client,
		presignClient:     s3.NewPresignClient(client),
		bucket:            cfg.Bucket,
		downloadURLExpiry: 1 * time.Hour,
	}, nil
}

// ProposalKey returns the object key for a document's aggregated proposal
func ProposalKey(documentID string) string {
	return fmt.Sprintf("proposals/%s.json", documentID)
}

// TTLKey returns the object key for a document's Turtle export
func TTLKey(documentID string) string {
	return fmt.Sprintf("ttl/%s.ttl", documentID)
}

// PublishProposal uploads the aggregated proposal for a document
func (s *ArtifactStore) PublishProposal(ctx context.Context, documentID string, agg *domain.AggregatedProposal) error {
	payload, err := json.MarshalIndent(agg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal aggregated proposal: %w", err)
	}
	return s.putObject(ctx, ProposalKey(documentID), "application/json", payload)
}

// PublishTTL uploads the Turtle export for a document
func (s *ArtifactStore) PublishTTL(ctx context.Context, documentID string, ttl string) error {
	return s.putObject(ctx, TTLKey(documentID), "text/turtle", []byte(ttl))
}

func (s *ArtifactStore) putObject(ctx context.Context, key, contentType string, body []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
		Body:        bytes.NewReader(body),
	})
	if err != nil {
		return fmt.Errorf("failed to put object %s: %w", key, err)
	}
	return nil
}

// GenerateDownloadURL creates a presigned URL for downloading an artifact
func (s *ArtifactStore) GenerateDownloadURL(ctx context.Context, key string) (string, error) {
	input := &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}

	presignedReq, err := s.presignClient.PresignGetObject(ctx, input, func(opts *s3.PresignOptions) {
		opts.Expires = s.downloadURLExpiry
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate download URL: %w", err)
	}

	return presignedReq.URL, nil
}

// DeleteArtifacts removes all published artifacts for a document
func (s *ArtifactStore) DeleteArtifacts(ctx context.Context, documentID string) error {
	for _, key := range []string{ProposalKey(documentID), TTLKey(documentID)} {
		_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			return fmt.Errorf("failed to delete object %s: %w", key, err)
		}
	}
	return nil
}

// EnsureBucket creates the bucket if it doesn't exist
func (s *ArtifactStore) EnsureBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err == nil {
		return nil
	}

	_, err = s.client.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err != nil {
		return fmt.Errorf("failed to create bucket: %w", err)
	}

	return nil
}
