// Copyright (c) 2026 Nishisan. All rights reserved.
// Use of this source code is governed by the N-Vault License (Non-Commercial Evaluation)
// that can be found in the LICENSE file.

// Package mirror espelha backups comitados para um object storage off-site
// (S3 ou compatível). O espelhamento é assíncrono e best-effort: falhas são
// logadas e nunca afetam a response do protocolo.
package mirror

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/nishisan-dev/n-vault/internal/config"
)

// Mirror é a interface consumida pelos handlers do server.
type Mirror interface {
	// Put envia o arquivo local path para o objeto do usuário/nome.
	Put(ctx context.Context, userID uint32, name, path string) error
	// Delete remove o objeto do usuário/nome.
	Delete(ctx context.Context, userID uint32, name string) error
}

// s3API é o subconjunto do client S3 usado pelo mirror, para permitir
// fakes em teste.
type s3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Mirror implementa Mirror sobre o aws-sdk-go-v2.
type S3Mirror struct {
	client s3API
	bucket string
	prefix string
	logger *slog.Logger
}

// NewS3Mirror cria um S3Mirror a partir da configuração. Com access_key
// vazio usa a credential chain default do SDK; com endpoint configurado usa
// path-style addressing (MinIO e afins).
func NewS3Mirror(ctx context.Context, cfg config.MirrorConfig, logger *slog.Logger) (*S3Mirror, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Mirror{
		client: client,
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
		logger: logger.With("component", "mirror"),
	}, nil
}

// Put implementa Mirror.
func (m *S3Mirror) Put(ctx context.Context, userID uint32, name, localPath string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("opening %s for mirror: %w", localPath, err)
	}
	defer f.Close()

	key := m.key(userID, name)
	if _, err := m.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(m.bucket),
		Key:    aws.String(key),
		Body:   f,
	}); err != nil {
		return fmt.Errorf("uploading s3://%s/%s: %w", m.bucket, key, err)
	}

	m.logger.Debug("object uploaded", "key", key)
	return nil
}

// Delete implementa Mirror.
func (m *S3Mirror) Delete(ctx context.Context, userID uint32, name string) error {
	key := m.key(userID, name)
	if _, err := m.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(m.bucket),
		Key:    aws.String(key),
	}); err != nil {
		return fmt.Errorf("deleting s3://%s/%s: %w", m.bucket, key, err)
	}

	m.logger.Debug("object deleted", "key", key)
	return nil
}

// key monta a object key: {prefix}/{userId}/{filename}.
func (m *S3Mirror) key(userID uint32, name string) string {
	return path.Join(m.prefix, strconv.FormatUint(uint64(userID), 10), name)
}
