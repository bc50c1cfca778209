// Package storage uploads rendered artifacts to S3-compatible object
// storage and derives the deterministic output keys downstream
// consumers depend on.
package storage

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"

	"astromatic/brands"
	"astromatic/config"
	"astromatic/errs"
)

// Uploader pushes files to one bucket and reports their public URLs.
type Uploader struct {
	uploader  *manager.Uploader
	bucket    string
	publicURL string
}

// NewUploader builds an uploader against the configured endpoint.
func NewUploader(ctx context.Context, env *config.Env) (*Uploader, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion("auto"),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(env.R2AccessKeyID, env.R2SecretAccessKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("load storage config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(env.R2Endpoint)
	})

	return &Uploader{
		uploader:  manager.NewUploader(client),
		bucket:    env.R2BucketName,
		publicURL: strings.TrimRight(env.R2PublicURL, "/"),
	}, nil
}

// Upload sends localPath to remoteKey and returns the public URL.
func (u *Uploader) Upload(ctx context.Context, localPath, remoteKey string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", errs.Wrap(errs.KindUpload, "failed to open artifact for upload", err,
			map[string]any{"path": localPath})
	}
	defer f.Close()

	log.Info().Str("bucket", u.bucket).Str("key", remoteKey).Msg("Uploading file to object storage...")

	_, err = u.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(remoteKey),
		Body:        f,
		ContentType: aws.String("video/mp4"),
	})
	if err != nil {
		return "", errs.Wrap(errs.KindUpload, "failed to upload artifact", err,
			map[string]any{"key": remoteKey})
	}

	publicURL := u.publicURL + "/" + remoteKey
	log.Info().Str("publicUrl", publicURL).Msg("File uploaded successfully.")
	return publicURL, nil
}

// OutputKey derives the storage key for a run's artifact:
// <folder>/outputs/<BRAND>_OUTPUT_<YYYYMMDD_HHMMSS>.mp4 in compact
// UTC. The format is a durable contract with downstream consumers.
func OutputKey(brand brands.Config, now time.Time) string {
	return fmt.Sprintf("%s/outputs/%s_OUTPUT_%s.mp4",
		brand.StorageFolder,
		strings.ToUpper(brand.ID),
		now.UTC().Format("20060102_150405"),
	)
}
