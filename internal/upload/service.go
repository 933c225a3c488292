// Package upload provides storage of event images in an S3-compatible
// bucket, both as presigned URLs for direct browser uploads and as
// server-side puts for multipart form submissions.
package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// Allowed MIME types for event images.
const (
	MIMEImageJPEG = "image/jpeg"
	MIMEImagePNG  = "image/png"
)

// Validation errors
var (
	ErrUnsupportedType = errors.New("unsupported content type")
	ErrFileTooLarge    = errors.New("file size exceeds maximum allowed")
)

// AllowedMIMETypes maps allowed MIME types to their file extensions.
var AllowedMIMETypes = map[string]string{
	MIMEImageJPEG: ".jpg",
	MIMEImagePNG:  ".png",
}

// SignedURLRequest represents a request for a signed upload URL.
type SignedURLRequest struct {
	ContentType string // MIME type of the file
	SizeBytes   int64  // Size of the file in bytes
}

// SignedURLResponse contains the signed URL and object metadata.
type SignedURLResponse struct {
	URL       string    `json:"url"`        // Pre-signed PUT URL
	Key       string    `json:"key"`        // Object key in the bucket
	ExpiresAt time.Time `json:"expires_at"` // URL expiration time
}

// Service handles event image storage in an S3-compatible bucket.
type Service struct {
	s3Client      *s3.Client
	presignClient *s3.PresignClient
	bucketName    string
	publicBaseURL string
	maxSizeBytes  int64
	urlExpiry     time.Duration
	timeNow       func() time.Time // For testability
}

// ServiceConfig holds configuration for the upload service.
type ServiceConfig struct {
	BucketName      string
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string
	// PublicBaseURL is the base under which stored objects are served,
	// used to build the image URL persisted with the event.
	PublicBaseURL    string
	MaxSizeMB        int
	URLExpiryMinutes int // Default: 5 minutes
}

// NewService creates a new upload service with the given configuration.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.BucketName == "" {
		return nil, errors.New("bucket name is required")
	}
	if cfg.AccessKeyID == "" {
		return nil, errors.New("access key ID is required")
	}
	if cfg.SecretAccessKey == "" {
		return nil, errors.New("secret access key is required")
	}
	if cfg.Endpoint == "" {
		return nil, errors.New("endpoint is required")
	}

	if cfg.MaxSizeMB <= 0 {
		cfg.MaxSizeMB = 5
	}
	if cfg.URLExpiryMinutes <= 0 {
		cfg.URLExpiryMinutes = 5
	}

	// R2-compatible configuration: auto region, path-style addressing.
	s3Client := s3.New(s3.Options{
		Region: "auto",
		Credentials: aws.NewCredentialsCache(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
		BaseEndpoint: aws.String(cfg.Endpoint),
		UsePathStyle: true,
	})

	return &Service{
		s3Client:      s3Client,
		presignClient: s3.NewPresignClient(s3Client),
		bucketName:    cfg.BucketName,
		publicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
		maxSizeBytes:  int64(cfg.MaxSizeMB) * 1024 * 1024,
		urlExpiry:     time.Duration(cfg.URLExpiryMinutes) * time.Minute,
		timeNow:       time.Now,
	}, nil
}

// ValidateContentType checks if the content type is allowed.
func ValidateContentType(contentType string) error {
	if _, ok := AllowedMIMETypes[contentType]; !ok {
		return ErrUnsupportedType
	}
	return nil
}

// ValidateFileSize checks if the file size is within limits.
func (s *Service) ValidateFileSize(sizeBytes int64) error {
	if sizeBytes > s.maxSizeBytes {
		return ErrFileTooLarge
	}
	if sizeBytes <= 0 {
		return errors.New("file size must be positive")
	}
	return nil
}

// GenerateObjectKey creates a unique object key for an event image.
// Pattern: eventos/uuid.ext
func GenerateObjectKey(contentType string) (string, error) {
	ext, ok := AllowedMIMETypes[contentType]
	if !ok {
		return "", ErrUnsupportedType
	}
	return fmt.Sprintf("eventos/%s%s", uuid.New().String(), ext), nil
}

// GenerateSignedURL generates a pre-signed PUT URL for direct upload.
func (s *Service) GenerateSignedURL(ctx context.Context, req SignedURLRequest) (*SignedURLResponse, error) {
	if err := ValidateContentType(req.ContentType); err != nil {
		return nil, err
	}
	if err := s.ValidateFileSize(req.SizeBytes); err != nil {
		return nil, err
	}

	key, err := GenerateObjectKey(req.ContentType)
	if err != nil {
		return nil, err
	}

	putObjectInput := &s3.PutObjectInput{
		Bucket:        aws.String(s.bucketName),
		Key:           aws.String(key),
		ContentType:   aws.String(req.ContentType),
		ContentLength: aws.Int64(req.SizeBytes),
	}

	presignedReq, err := s.presignClient.PresignPutObject(ctx, putObjectInput, func(opts *s3.PresignOptions) {
		opts.Expires = s.urlExpiry
	})
	if err != nil {
		return nil, fmt.Errorf("failed to presign request: %w", err)
	}

	return &SignedURLResponse{
		URL:       presignedReq.URL,
		Key:       key,
		ExpiresAt: s.timeNow().Add(s.urlExpiry),
	}, nil
}

// Store uploads an image server-side and returns the public URL to
// persist with the event. Used by the multipart event creation path.
func (s *Service) Store(ctx context.Context, contentType string, sizeBytes int64, body io.Reader) (string, error) {
	if err := ValidateContentType(contentType); err != nil {
		return "", err
	}
	if err := s.ValidateFileSize(sizeBytes); err != nil {
		return "", err
	}

	key, err := GenerateObjectKey(contentType)
	if err != nil {
		return "", err
	}

	_, err = s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucketName),
		Key:           aws.String(key),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(sizeBytes),
		Body:          body,
	})
	if err != nil {
		return "", fmt.Errorf("failed to store object: %w", err)
	}

	return s.PublicURL(key), nil
}

// PublicURL builds the serving URL for a stored object key.
func (s *Service) PublicURL(key string) string {
	if s.publicBaseURL == "" {
		return key
	}
	return s.publicBaseURL + "/" + key
}
