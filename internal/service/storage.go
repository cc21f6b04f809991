package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/platewise/backend/config"
)

// PhotoStore archives uploaded dish photos to S3. Archiving is best effort;
// analysis never fails because the archive write did.
type PhotoStore struct {
	s3     *config.S3Config
	logger *zap.Logger
}

func NewPhotoStore(s3cfg *config.S3Config, logger *zap.Logger) *PhotoStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PhotoStore{s3: s3cfg, logger: logger}
}

// ArchiveDishPhoto uploads the raw photo bytes and returns a presigned URL
// valid for 24 hours.
func (p *PhotoStore) ArchiveDishPhoto(ctx context.Context, userID string, data []byte, contentType string) (string, error) {
	ext := extensionFor(contentType)
	key := fmt.Sprintf("dish-photos/%s/%s%s", userID, uuid.New().String(), ext)

	_, err := p.s3.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.s3.BucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload dish photo: %w", err)
	}

	url, err := p.s3.GeneratePresignedURL(ctx, key, 24*time.Hour)
	if err != nil {
		return "", fmt.Errorf("failed to presign dish photo: %w", err)
	}

	p.logger.Info("archived dish photo",
		zap.String("key", key),
		zap.Int("bytes", len(data)),
	)
	return url, nil
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/heic":
		return ".heic"
	default:
		return ".jpg"
	}
}
