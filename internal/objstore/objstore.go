// Playlake - Music Streaming Event Lake ETL
// Copyright 2026 The Playlake Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playlake/playlake

// Package objstore provides the direct S3 operations the job needs outside
// the query engine: destination existence checks, overwrite-mode prefix
// deletion, partition-directory enumeration for the run manifest, and
// fixture upload in integration tests.
//
// The engine reads and writes table data itself through httpfs; this client
// only handles the listing and deleting the engine has no verbs for. It is
// constructed from the same explicit configuration object as the engine's
// storage secret, so both sides always see the same endpoint and
// credentials.
package objstore

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"

	"github.com/playlake/playlake/internal/config"
	"github.com/playlake/playlake/internal/logging"
)

// deleteBatchSize is the S3 DeleteObjects limit per request.
const deleteBatchSize = 1000

// Client wraps the AWS SDK S3 client for the job's storage operations.
type Client struct {
	s3       *s3.S3
	uploader *s3manager.Uploader
}

// New creates an S3 client from the explicit AWS configuration. Custom
// endpoints (MinIO and other S3-compatible stores) are honored the same way
// the engine's storage secret honors them.
func New(awsCfg *config.AWSConfig) (*Client, error) {
	sdkCfg := &aws.Config{
		Region:      aws.String(awsCfg.Region),
		Credentials: credentials.NewStaticCredentials(awsCfg.AccessKeyID, awsCfg.SecretAccessKey, ""),
	}
	if awsCfg.Endpoint != "" {
		endpoint := awsCfg.Endpoint
		if !strings.Contains(endpoint, "://") {
			scheme := "https://"
			if !awsCfg.UseSSL {
				scheme = "http://"
			}
			endpoint = scheme + endpoint
		}
		sdkCfg.Endpoint = aws.String(endpoint)
		if !awsCfg.UseSSL {
			sdkCfg.DisableSSL = aws.Bool(true)
		}
	}
	if awsCfg.URLStyle == "path" {
		sdkCfg.S3ForcePathStyle = aws.Bool(true)
	}

	sess, err := session.NewSession(sdkCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create object-storage session: %w", err)
	}

	return &Client{
		s3:       s3.New(sess),
		uploader: s3manager.NewUploader(sess),
	}, nil
}

// ListPrefix returns the keys of every object under the URL's prefix.
func (c *Client) ListPrefix(ctx context.Context, url string) ([]string, error) {
	bucket, prefix, err := ParseURL(url)
	if err != nil {
		return nil, err
	}

	var keys []string
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(prefix),
	}
	err = c.s3.ListObjectsV2PagesWithContext(ctx, input, func(page *s3.ListObjectsV2Output, _ bool) bool {
		for _, obj := range page.Contents {
			keys = append(keys, aws.StringValue(obj.Key))
		}
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", url, err)
	}
	return keys, nil
}

// HasPrefix reports whether any object exists under the URL's prefix.
// Used for the overwrite-off destination-exists check.
func (c *Client) HasPrefix(ctx context.Context, url string) (bool, error) {
	bucket, prefix, err := ParseURL(url)
	if err != nil {
		return false, err
	}

	out, err := c.s3.ListObjectsV2WithContext(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(bucket),
		Prefix:  aws.String(prefix),
		MaxKeys: aws.Int64(1),
	})
	if err != nil {
		return false, fmt.Errorf("failed to check %s: %w", url, err)
	}
	return len(out.Contents) > 0, nil
}

// DeletePrefix removes every object under the URL's prefix. Overwrite mode
// uses this to clear a remote destination before its write.
func (c *Client) DeletePrefix(ctx context.Context, url string) error {
	bucket, _, err := ParseURL(url)
	if err != nil {
		return err
	}

	keys, err := c.ListPrefix(ctx, url)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}

	for start := 0; start < len(keys); start += deleteBatchSize {
		end := start + deleteBatchSize
		if end > len(keys) {
			end = len(keys)
		}

		objects := make([]*s3.ObjectIdentifier, 0, end-start)
		for _, key := range keys[start:end] {
			objects = append(objects, &s3.ObjectIdentifier{Key: aws.String(key)})
		}

		_, err := c.s3.DeleteObjectsWithContext(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(bucket),
			Delete: &s3.Delete{Objects: objects, Quiet: aws.Bool(true)},
		})
		if err != nil {
			return fmt.Errorf("failed to delete objects under %s: %w", url, err)
		}
	}

	logging.Debug().Str("url", url).Int("objects", len(keys)).Msg("Cleared destination prefix")
	return nil
}

// Upload writes a single object at the URL. Integration tests use this to
// stage JSON fixtures before running the job against a local MinIO.
func (c *Client) Upload(ctx context.Context, url string, body []byte) error {
	bucket, key, err := ParseURL(url)
	if err != nil {
		return err
	}

	_, err = c.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(body),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", url, err)
	}
	return nil
}

// EnsureBucket creates the bucket if it does not already exist.
func (c *Client) EnsureBucket(ctx context.Context, bucket string) error {
	_, err := c.s3.HeadBucketWithContext(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)})
	if err == nil {
		return nil
	}

	if _, err := c.s3.CreateBucketWithContext(ctx, &s3.CreateBucketInput{Bucket: aws.String(bucket)}); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
	}
	return nil
}
