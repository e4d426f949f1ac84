package aws

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"stable-thought/core"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// objectAPI is the subset of the S3 client the store uses.
type objectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

type s3Store struct {
	s3Client objectAPI
	bucket   string
	prefix   string
}

// NewStore creates a new S3-based store using the default AWS credential chain.
// Objects are written under prefix inside bucketName.
func NewStore(ctx context.Context, bucketName, prefix string) (core.KVStore, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}

	return newStore(s3.NewFromConfig(cfg), bucketName, prefix), nil
}

func newStore(client objectAPI, bucketName, prefix string) *s3Store {
	return &s3Store{
		s3Client: client,
		bucket:   bucketName,
		prefix:   prefix,
	}
}

func (s *s3Store) objectKey(key string) (string, error) {
	// Keys must be plain names, not paths.
	if path.Base(key) != key {
		return "", fmt.Errorf("invalid key %q: must not be a path", key)
	}
	if key == "" || key == "." || key == ".." {
		return "", fmt.Errorf("invalid key %q: must not be empty or a dot directory", key)
	}
	if s.prefix == "" {
		return key, nil
	}
	return path.Join(s.prefix, key), nil
}

func (s *s3Store) Get(ctx context.Context, key string) ([]byte, error) {
	objKey, err := s.objectKey(key)
	if err != nil {
		return nil, err
	}

	resp, err := s.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objKey),
	})
	if err != nil {
		var nsk *s3types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, fmt.Errorf("get %s: %w", key, core.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get object %s: %w", objKey, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read object %s: %w", objKey, err)
	}
	return data, nil
}

func (s *s3Store) Set(ctx context.Context, key string, value []byte) error {
	objKey, err := s.objectKey(key)
	if err != nil {
		return err
	}

	_, err = s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(objKey),
		Body:        bytes.NewReader(value),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to put object %s: %w", objKey, err)
	}
	return nil
}

func (s *s3Store) Delete(ctx context.Context, key string) error {
	objKey, err := s.objectKey(key)
	if err != nil {
		return err
	}

	_, err = s.s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objKey),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object %s: %w", objKey, err)
	}
	return nil
}
