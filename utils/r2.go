// utils/r2.go
package utils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"vpay-gamification/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type R2Config struct {
	AccountID       string
	AccessKeyID     string
	AccessKeySecret string
	Bucket          string
	CDNBaseURL      string
	// Endpoint overrides the account endpoint (tests, S3-compatible stores).
	Endpoint string
}

// Enabled reports whether enough is configured to talk to R2.
func (c R2Config) Enabled() bool {
	return c.Bucket != "" && c.AccessKeyID != "" && (c.AccountID != "" || c.Endpoint != "")
}

// R2Publisher writes NFT badge metadata JSON to a Cloudflare R2 bucket.
type R2Publisher struct {
	client     *s3.Client
	bucket     string
	cdnBaseURL string
}

func NewR2Publisher(ctx context.Context, c R2Config) (*R2Publisher, error) {
	endpoint := c.Endpoint
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://%s.r2.cloudflarestorage.com", c.AccountID)
	}
	cdn := strings.TrimRight(c.CDNBaseURL, "/")
	if cdn == "" {
		cdn = endpoint + "/" + c.Bucket
	}

	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion("auto"),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			c.AccessKeyID, c.AccessKeySecret, "",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load R2 config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})
	return &R2Publisher{client: client, bucket: c.Bucket, cdnBaseURL: cdn}, nil
}

// badgeMetadata follows the common NFT metadata layout.
type badgeMetadata struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Image       string           `json:"image,omitempty"`
	Attributes  []badgeAttribute `json:"attributes"`
}

type badgeAttribute struct {
	TraitType string `json:"trait_type"`
	Value     any    `json:"value"`
}

// BadgeMetadataKey is the object key for one user's badge.
func BadgeMetadataKey(userID, code string) string {
	return fmt.Sprintf("badges/%s/%s.json", userID, strings.ToLower(code))
}

// PublishBadgeMetadata uploads the badge's metadata and returns its public URL.
func (p *R2Publisher) PublishBadgeMetadata(ctx context.Context, badge *models.NFTBadge, award *models.UserBadge) (string, error) {
	body, err := json.Marshal(badgeMetadata{
		Name:        badge.Name,
		Description: badge.Description,
		Image:       badge.ImageURL,
		Attributes: []badgeAttribute{
			{TraitType: "rarity", Value: string(badge.Rarity)},
			{TraitType: "code", Value: badge.Code},
			{TraitType: "earned_at", Value: award.EarnedAt.UTC().Format(time.RFC3339)},
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode badge metadata: %w", err)
	}

	key := BadgeMetadataKey(award.UserID, badge.Code)
	_, err = p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to R2: %w", err)
	}

	return fmt.Sprintf("%s/%s", p.cdnBaseURL, key), nil
}
