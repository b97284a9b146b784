package services

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/dmitrijs2005/recipebook/internal/common"
	sc "github.com/dmitrijs2005/recipebook/internal/server/config"
	"github.com/dmitrijs2005/recipebook/internal/server/models"
	"github.com/google/uuid"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const imageURLValidity = 15 * time.Minute

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
)

// ImageUpload is a presigned PUT target for a recipe image. Path is what the
// client stores as the recipe image path once the upload succeeds.
type ImageUpload struct {
	Path string `json:"path"`
	URL  string `json:"url"`
}

// ImageService hands out presigned upload URLs on the S3-compatible image
// store.
type ImageService struct {
	config *sc.Config
}

func NewImageService(config *sc.Config) *ImageService {
	return &ImageService{config: config}
}

// imageKeyPrefix is the storage prefix UploadURL issues keys under for
// userID.
func imageKeyPrefix(userID string) string {
	return "recipes/" + userID + "/"
}

func newImageKey(userID string) string {
	d := time.Now()
	return fmt.Sprintf("%s%d/%02d/%v", imageKeyPrefix(userID), d.Year(), d.Month(), uuid.New())
}

// checkImagePath accepts a nil path or a key under the owner's upload
// prefix.
func checkImagePath(p *string, ownerID string) error {
	if p == nil {
		return nil
	}
	key := *p
	prefix := imageKeyPrefix(ownerID)
	if ownerID == "" || !strings.HasPrefix(key, prefix) || len(key) == len(prefix) ||
		strings.Contains(key, "..") || path.Clean(key) != key {
		return fmt.Errorf("%w: image path must come from an upload URL issued to the recipe owner", common.ErrValidation)
	}
	return nil
}

func (s *ImageService) getPresignClient(ctx context.Context) (*s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(s.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,
			s.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
		o.UsePathStyle = true
	})

	return newS3PresignClient(client), nil
}

// UploadURL returns a fresh storage key under the viewer's prefix and a
// presigned PUT URL for it.
func (s *ImageService) UploadURL(ctx context.Context, viewer models.Viewer) (*ImageUpload, error) {
	if !viewer.Authenticated() {
		return nil, common.ErrUnauthorized
	}

	presignClient, err := s.getPresignClient(ctx)
	if err != nil {
		return nil, err
	}

	bucket := s.config.S3Bucket
	key := newImageKey(viewer.ID)

	req, err := presignPutObject(presignClient, ctx, &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(imageURLValidity))
	if err != nil {
		return nil, err
	}

	return &ImageUpload{Path: key, URL: req.URL}, nil
}
