package aws

import (
	"blogfront/core"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/sirupsen/logrus"
)

// objectAPI is the subset of the S3 client used by the store.
type objectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// s3Store keeps each item as the object <clientID>/<key>.
type s3Store struct {
	s3Client objectAPI
	bucket   string
}

// NewStore creates a new S3-based store using the default AWS config chain.
func NewStore(ctx context.Context, bucketName string) (*s3Store, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}
	return &s3Store{s3Client: s3.NewFromConfig(cfg), bucket: bucketName}, nil
}

func (s *s3Store) objectKey(clientID, key string) (string, error) {
	if err := core.CheckKey(clientID); err != nil {
		return "", err
	}
	if err := core.CheckKey(key); err != nil {
		return "", err
	}
	return path.Join(clientID, key), nil
}

func (s *s3Store) GetItem(ctx context.Context, clientID, key string) (string, bool, error) {
	objKey, err := s.objectKey(clientID, key)
	if err != nil {
		return "", false, err
	}

	resp, err := s.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objKey),
	})
	if err != nil {
		var nsk *s3types.NoSuchKey
		if errors.As(err, &nsk) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to get item %s: %w", objKey, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", false, fmt.Errorf("failed to read item %s: %w", objKey, err)
	}
	return string(data), true, nil
}

func (s *s3Store) SetItem(ctx context.Context, clientID, key, value string) error {
	objKey, err := s.objectKey(clientID, key)
	if err != nil {
		return err
	}

	_, err = s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(objKey),
		Body:        strings.NewReader(value),
		ContentType: aws.String("text/plain; charset=utf-8"),
	})
	if err != nil {
		return fmt.Errorf("failed to put item %s: %w", objKey, err)
	}
	logrus.WithFields(logrus.Fields{"bucket": s.bucket, "key": objKey}).Debug("Item stored")
	return nil
}

func (s *s3Store) RemoveItem(ctx context.Context, clientID, key string) error {
	objKey, err := s.objectKey(clientID, key)
	if err != nil {
		return err
	}

	_, err = s.s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objKey),
	})
	if err != nil {
		return fmt.Errorf("failed to delete item %s: %w", objKey, err)
	}
	return nil
}
