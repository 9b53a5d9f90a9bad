package reliability

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"

	appconfig "github.com/aristath/helmsman/internal/config"
)

// ArchiveService uploads run-result documents to an S3-compatible bucket
// (AWS S3, Cloudflare R2, MinIO). It is optional; when no bucket is
// configured the rest of the application runs without it.
type ArchiveService struct {
	client   *s3.Client
	uploader *manager.Uploader
	bucket   string
	log      zerolog.Logger
}

// NewArchiveService builds the S3 client from the archive configuration.
// A custom endpoint switches the client to path-style addressing, which
// R2 and MinIO require.
func NewArchiveService(cfg appconfig.ArchiveConfig, log zerolog.Logger) (*ArchiveService, error) {
	if !cfg.Enabled {
		return nil, fmt.Errorf("archive not configured")
	}

	region := cfg.Region
	if region == "" {
		region = "auto"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load archive credentials: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &ArchiveService{
		client:   client,
		uploader: manager.NewUploader(client),
		bucket:   cfg.Bucket,
		log:      log.With().Str("service", "archive").Logger(),
	}, nil
}

// UploadResults uploads the results file under a date-stamped key and
// returns the key used.
func (s *ArchiveService) UploadResults(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open results file: %w", err)
	}
	defer f.Close()

	key := fmt.Sprintf("results/%s/%s",
		time.Now().UTC().Format("2006-01-02"),
		filepath.Base(path),
	)

	_, err = s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload results to archive: %w", err)
	}

	s.log.Info().
		Str("bucket", s.bucket).
		Str("key", key).
		Msg("Results archived")
	return key, nil
}

// ListArchived returns the keys under the results prefix, newest-first
// ordering is not guaranteed by S3 listing so callers sort if they care.
func (s *ArchiveService) ListArchived(ctx context.Context, limit int32) ([]string, error) {
	out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(s.bucket),
		Prefix:  aws.String("results/"),
		MaxKeys: aws.Int32(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list archived results: %w", err)
	}

	keys := make([]string, 0, len(out.Contents))
	for _, obj := range out.Contents {
		if obj.Key != nil {
			keys = append(keys, *obj.Key)
		}
	}
	return keys, nil
}
