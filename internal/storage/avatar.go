// Package storage issues presigned S3 URLs for profile pictures, so clients
// upload straight to the bucket and only the object URL reaches the API.
package storage

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/oggyb/approach/internal/config"
	svcErr "github.com/oggyb/approach/internal/errors"
)

const defaultPresignTTL = 5 * time.Minute

// Upload is a presigned PUT. The client sends the file to URL with the
// given content type and then stores PublicURL as its avatar.
type Upload struct {
	URL       string    `json:"url"`
	Key       string    `json:"key"`
	PublicURL string    `json:"public_url"`
	ExpiresAt time.Time `json:"expires_at"`
}

type AvatarStore struct {
	presigner *s3.PresignClient
	bucket    string
	region    string
	ttl       time.Duration
	now       func() time.Time
}

// NewAvatarStore loads AWS credentials the default way (env, shared config,
// instance role) for the configured region.
func NewAvatarStore(ctx context.Context, cfg *config.Config) (*AvatarStore, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Storage.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewAvatarStoreWithClient(s3.NewFromConfig(awsCfg), cfg.Storage.Bucket, cfg.Storage.Region, cfg.Storage.PresignTTL), nil
}

func NewAvatarStoreWithClient(client *s3.Client, bucket, region string, ttl time.Duration) *AvatarStore {
	if ttl <= 0 {
		ttl = defaultPresignTTL
	}
	return &AvatarStore{
		presigner: s3.NewPresignClient(client),
		bucket:    bucket,
		region:    region,
		ttl:       ttl,
		now:       time.Now,
	}
}

// UploadURL presigns a PUT for userID's new avatar.
//
// Behavior:
//   - contentType must be an image/* type.
//   - fileName is reduced to its base name; the key is
//     avatars/<userID>/<timestamp>-<name>.
func (s *AvatarStore) UploadURL(ctx context.Context, userID, fileName, contentType string) (*Upload, error) {
	if !strings.HasPrefix(contentType, "image/") {
		return nil, svcErr.Invalid("content_type", "must be an image type")
	}
	name := sanitize(fileName)
	if name == "" {
		return nil, svcErr.Invalid("file_name", "must not be empty")
	}

	now := s.now().UTC()
	key := fmt.Sprintf("avatars/%s/%s-%s", userID, now.Format("20060102150405"), name)

	req, err := s.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(s.ttl))
	if err != nil {
		return nil, fmt.Errorf("presign upload: %w", err)
	}

	return &Upload{
		URL:       req.URL,
		Key:       key,
		PublicURL: s.PublicURL(key),
		ExpiresAt: now.Add(s.ttl),
	}, nil
}

// ReadURL presigns a GET for a private object.
func (s *AvatarStore) ReadURL(ctx context.Context, key string) (string, error) {
	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.ttl))
	if err != nil {
		return "", fmt.Errorf("presign read: %w", err)
	}
	return req.URL, nil
}

// PublicURL is the virtual-hosted-style URL of key.
func (s *AvatarStore) PublicURL(key string) string {
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
}

func sanitize(fileName string) string {
	name := path.Base(strings.ReplaceAll(strings.TrimSpace(fileName), "\\", "/"))
	if name == "." || name == "/" {
		return ""
	}
	return strings.ReplaceAll(name, " ", "_")
}
