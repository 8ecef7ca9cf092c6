package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/bnema/rewards-cli/internal/adapters/session"
	"github.com/bnema/rewards-cli/internal/domain"
	"github.com/bnema/rewards-cli/internal/ports"
)

const contentType = "application/json"

type objectClient interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Store keeps session artifacts as objects under <prefix>/<email>/<mode>.json.
type Store struct {
	client objectClient
	bucket string
	prefix string
}

var _ ports.SessionStore = (*Store)(nil)

// NewStore builds an S3 client from the default AWS chain. Static keys and
// a custom endpoint (MinIO, R2) override it when set.
func NewStore(ctx context.Context, settings domain.S3Settings) (*Store, error) {
	if settings.Bucket == "" {
		return nil, errors.New("s3 bucket is empty")
	}

	opts := []func(*awsconfig.LoadOptions) error{}
	if settings.Region != "" {
		opts = append(opts, awsconfig.WithRegion(settings.Region))
	}
	if settings.AccessKeyID != "" && settings.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			settings.AccessKeyID,
			settings.SecretAccessKey,
			"",
		)))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if settings.Endpoint != "" {
			o.BaseEndpoint = aws.String(settings.Endpoint)
			o.UsePathStyle = true
		}
	})

	return newStoreWithClient(client, settings.Bucket, settings.Prefix), nil
}

func newStoreWithClient(client objectClient, bucket, prefix string) *Store {
	return &Store{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/")}
}

func (s *Store) Load(ctx context.Context, email string, mode domain.DeviceMode) (domain.SessionState, error) {
	key, err := s.objectKey(email, mode)
	if err != nil {
		return domain.SessionState{}, err
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return domain.SessionState{}, domain.ErrSessionNotFound
		}
		return domain.SessionState{}, fmt.Errorf("get s3 object %s: %w", key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return domain.SessionState{}, fmt.Errorf("read s3 object %s: %w", key, err)
	}

	return session.Decode(data)
}

func (s *Store) Save(ctx context.Context, email string, mode domain.DeviceMode, state domain.SessionState) error {
	key, err := s.objectKey(email, mode)
	if err != nil {
		return err
	}
	data, err := session.Encode(state)
	if err != nil {
		return err
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("put s3 object %s: %w", key, err)
	}

	return nil
}

func (s *Store) objectKey(email string, mode domain.DeviceMode) (string, error) {
	key, err := session.Key(email, mode)
	if err != nil {
		return "", err
	}

	return path.Join(s.prefix, key+".json"), nil
}
