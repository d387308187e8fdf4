package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog"

	"github.com/bryanwahyu/automaton-epub/internal/domain/checks"
)

// Store keeps check reports in a MinIO bucket.
type Store struct {
	client     *minio.Client
	bucketName string
	region     string
	scheme     string
	log        zerolog.Logger

	// PresignTTL > 0 returns presigned URLs instead of public ones.
	PresignTTL time.Duration
}

var _ checks.ArtifactStore = (*Store)(nil)

// New buat koneksi MinIO
func New(ctx context.Context, log zerolog.Logger, endpoint, region, bucket, accessKey, secretKey string, useSSL bool) (*Store, error) {
	cli, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
		Region: region,
	})
	if err != nil {
		return nil, err
	}

	// pastikan bucket ada
	exists, err := cli.BucketExists(ctx, bucket)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := cli.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: region}); err != nil {
			return nil, err
		}
		log.Info().Str("bucket", bucket).Msg("bucket created")
	}

	scheme := "http"
	if useSSL {
		scheme = "https"
	}
	return &Store{client: cli, bucketName: bucket, region: region, scheme: scheme, log: log}, nil
}

// Upload implementasi ArtifactStore
func (s *Store) Upload(ctx context.Context, localPath, key string) (string, error) {
	_, err := s.client.FPutObject(ctx, s.bucketName, key, localPath, minio.PutObjectOptions{
		ContentType: contentTypeFor(localPath),
	})
	if err != nil {
		return "", fmt.Errorf("put %s: %w", key, err)
	}

	if s.PresignTTL > 0 {
		u, err := s.client.PresignedGetObject(ctx, s.bucketName, key, s.PresignTTL, nil)
		if err != nil {
			return "", fmt.Errorf("presign %s: %w", key, err)
		}
		return u.String(), nil
	}
	// URL publik (jika bucket public)
	return objectURL(s.scheme, s.client.EndpointURL().Host, s.bucketName, key), nil
}

// UploadAndCleanup upload file ke Minio dan hapus file lokal setelahnya
func (s *Store) UploadAndCleanup(ctx context.Context, localPath, key string) (string, error) {
	url, err := s.Upload(ctx, localPath, key)
	if err != nil {
		return "", err
	}

	// upload sudah berhasil, gagal hapus cukup di-log
	if removeErr := os.Remove(localPath); removeErr != nil {
		s.log.Warn().Err(removeErr).Str("path", localPath).Msg("failed to remove local file")
	}
	return url, nil
}

func contentTypeFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".log":
		return "text/plain; charset=utf-8"
	case ".json":
		return "application/json"
	case ".md":
		return "text/markdown; charset=utf-8"
	case ".html":
		return "text/html; charset=utf-8"
	case ".epub":
		return "application/epub+zip"
	default:
		return "application/octet-stream"
	}
}

func objectURL(scheme, host, bucket, key string) string {
	return fmt.Sprintf("%s://%s/%s/%s", scheme, host, bucket, key)
}
