// Package s3 exports construction snapshots to an S3-compatible bucket
// (AWS S3 or MinIO) so sessions can be shared outside the engine process.
package s3

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"euclidcore/pkg/domain"
)

// Config holds explicit construction parameters (mostly for tests). For prod
// we rely primarily on environment variables.
type Config struct {
	Region          string
	Bucket          string
	Prefix          string // optional key prefix, e.g. "snapshots/"
	Endpoint        string // optional; if set enables custom endpoint (e.g. MinIO)
	AccessKeyID     string // optional (falls back to default credentials chain)
	SecretAccessKey string // optional
	SessionToken    string // optional
	PathStyle       bool
}

// Environment variables:
//   EUCLIDCORE_BLOB_S3_BUCKET=<bucket> (required)
//   EUCLIDCORE_BLOB_S3_REGION=<region> (default us-east-1)
//   EUCLIDCORE_BLOB_S3_PREFIX=<prefix> (optional)
//   EUCLIDCORE_BLOB_S3_ENDPOINT=<url> (optional, for MinIO)
//   EUCLIDCORE_BLOB_S3_PATH_STYLE=true|false (default false)
//   AWS_ACCESS_KEY_ID / AWS_SECRET_ACCESS_KEY / AWS_SESSION_TOKEN (optional)

// api is the slice of the S3 client the exporter uses, split out so tests can
// fake the backend.
type api interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, opts ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// Exporter writes one JSON snapshot object per session.
type Exporter struct {
	client  api
	presign func(ctx context.Context, key string, expiry time.Duration) (string, error)
	bucket  string
	prefix  string
}

// New creates a snapshot exporter from Config.
func New(ctx context.Context, cfg Config) (*Exporter, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken)))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, err
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.PathStyle {
			o.UsePathStyle = true
		}
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	ps := s3.NewPresignClient(client)
	presign := func(ctx context.Context, key string, expiry time.Duration) (string, error) {
		out, err := ps.PresignGetObject(ctx, &s3.GetObjectInput{Bucket: aws.String(cfg.Bucket), Key: aws.String(key)},
			func(po *s3.PresignOptions) { po.Expires = expiry })
		if err != nil {
			return "", err
		}
		return out.URL, nil
	}
	return &Exporter{client: client, presign: presign, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

// OpenFromEnv constructs an exporter from process environment.
func OpenFromEnv(ctx context.Context) (*Exporter, error) {
	bucket := os.Getenv("EUCLIDCORE_BLOB_S3_BUCKET")
	if bucket == "" {
		return nil, fmt.Errorf("EUCLIDCORE_BLOB_S3_BUCKET required for s3 export")
	}
	cfg := Config{
		Bucket:    bucket,
		Region:    os.Getenv("EUCLIDCORE_BLOB_S3_REGION"),
		Prefix:    os.Getenv("EUCLIDCORE_BLOB_S3_PREFIX"),
		Endpoint:  os.Getenv("EUCLIDCORE_BLOB_S3_ENDPOINT"),
		PathStyle: strings.EqualFold(os.Getenv("EUCLIDCORE_BLOB_S3_PATH_STYLE"), "true"),
	}
	return New(ctx, cfg)
}

func (e *Exporter) key(sessionID string) string {
	return e.prefix + sessionID + ".json"
}

// Export uploads the snapshot as a JSON object keyed by session id,
// overwriting any previous export for the same session.
func (e *Exporter) Export(ctx context.Context, sessionID string, space domain.ConstructionSpace) (string, error) {
	payload, err := json.Marshal(space)
	if err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}
	key := e.key(sessionID)
	_, err = e.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(e.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(payload),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("put snapshot: %w", err)
	}
	return key, nil
}

// Fetch downloads and validates an exported snapshot.
func (e *Exporter) Fetch(ctx context.Context, sessionID string) (domain.ConstructionSpace, error) {
	out, err := e.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(e.bucket),
		Key:    aws.String(e.key(sessionID)),
	})
	if err != nil {
		return domain.ConstructionSpace{}, fmt.Errorf("get snapshot: %w", err)
	}
	defer func() { _ = out.Body.Close() }()
	snapshot := domain.NewConstructionSpace()
	if err := json.NewDecoder(out.Body).Decode(&snapshot); err != nil {
		return domain.ConstructionSpace{}, fmt.Errorf("decode snapshot: %w", err)
	}
	if err := domain.ValidateSnapshot(snapshot); err != nil {
		return domain.ConstructionSpace{}, err
	}
	return snapshot, nil
}

// ListExports returns exported session ids, sorted.
func (e *Exporter) ListExports(ctx context.Context) ([]string, error) {
	var ids []string
	var token *string
	for {
		out, err := e.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(e.bucket),
			Prefix:            aws.String(e.prefix),
			ContinuationToken: token,
		})
		if err != nil {
			return nil, fmt.Errorf("list exports: %w", err)
		}
		for _, obj := range out.Contents {
			key := aws.ToString(obj.Key)
			key = strings.TrimPrefix(key, e.prefix)
			key = strings.TrimSuffix(key, ".json")
			if key != "" {
				ids = append(ids, key)
			}
		}
		if out.IsTruncated != nil && *out.IsTruncated && out.NextContinuationToken != nil {
			token = out.NextContinuationToken
			continue
		}
		break
	}
	sort.Strings(ids)
	return ids, nil
}

// ShareURL presigns a read link for an exported snapshot. Expiry defaults to
// 15 minutes.
func (e *Exporter) ShareURL(ctx context.Context, sessionID string, expiry time.Duration) (string, error) {
	if e.presign == nil {
		return "", fmt.Errorf("presigning not configured")
	}
	if expiry <= 0 {
		expiry = 15 * time.Minute
	}
	return e.presign(ctx, e.key(sessionID), expiry)
}
