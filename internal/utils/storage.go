package utils

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/ahmadqo/course-certificates/internal/config"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type StorageService struct {
	client   *minio.Client
	bucket   string
	endpoint string
	useSSL   bool
}

type UploadResult struct {
	FileURL   string
	ObjectKey string
	FileName  string
	FileSize  int64
}

// Background template hanya PNG/JPEG
var AllowedBackgroundTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
}

const MaxFileSize = 10 * 1024 * 1024 // 10 MB

var ErrObjectNotFound = errors.New("object not found")

func NewStorageService(cfg *config.MinIOConfig) (*StorageService, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.User, cfg.Password, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	// Pastikan bucket ada
	ctx := context.Background()
	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket: %w", err)
	}

	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	scheme := "http"
	if cfg.UseSSL {
		scheme = "https"
	}

	return &StorageService{
		client:   client,
		bucket:   cfg.Bucket,
		endpoint: fmt.Sprintf("%s://%s", scheme, cfg.Endpoint),
		useSSL:   cfg.UseSSL,
	}, nil
}

// UploadFile upload background template ke MinIO dan kembalikan URL + object key
func (s *StorageService) UploadFile(ctx context.Context, folder string, data []byte, contentType string) (*UploadResult, error) {
	ext, ok := AllowedBackgroundTypes[contentType]
	if !ok {
		return nil, fmt.Errorf("tipe file tidak diizinkan: %s", contentType)
	}

	if len(data) > MaxFileSize {
		return nil, fmt.Errorf("ukuran file melebihi batas maksimal 10MB")
	}

	// Generate nama file unik
	objectKey := fmt.Sprintf("%s/%s-%s%s",
		folder,
		time.Now().Format("20060102"),
		uuid.New().String()[:8],
		ext,
	)

	reader := bytes.NewReader(data)
	_, err := s.client.PutObject(ctx, s.bucket, objectKey, reader, int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return nil, fmt.Errorf("gagal upload file: %w", err)
	}

	return &UploadResult{
		FileURL:   s.ObjectURL(objectKey),
		ObjectKey: objectKey,
		FileName:  filepath.Base(objectKey),
		FileSize:  int64(len(data)),
	}, nil
}

// UploadPDF upload PDF sertifikat dengan nama tetap, upload ulang menimpa file lama
func (s *StorageService) UploadPDF(ctx context.Context, folder string, data []byte, fileName string) (string, error) {
	fileName = strings.ReplaceAll(fileName, " ", "-")
	fileName = strings.ReplaceAll(fileName, "/", "-")
	objectKey := folder + "/" + fileName

	reader := bytes.NewReader(data)
	_, err := s.client.PutObject(ctx, s.bucket, objectKey, reader, int64(len(data)), minio.PutObjectOptions{
		ContentType:        "application/pdf",
		ContentDisposition: fmt.Sprintf("attachment; filename=%q", fileName),
	})
	if err != nil {
		return "", fmt.Errorf("gagal upload PDF: %w", err)
	}

	return s.ObjectURL(objectKey), nil
}

// ReadObject membaca isi object. ref boleh berupa object key atau URL publik bucket ini.
func (s *StorageService) ReadObject(ctx context.Context, ref string) ([]byte, error) {
	key := s.ObjectKey(ref)
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("gagal membaca object %s: %w", key, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
		}
		return nil, fmt.Errorf("gagal membaca object %s: %w", key, err)
	}
	return data, nil
}

// DeleteFile hapus file dari MinIO
func (s *StorageService) DeleteFile(ctx context.Context, ref string) error {
	return s.client.RemoveObject(ctx, s.bucket, s.ObjectKey(ref), minio.RemoveObjectOptions{})
}

func (s *StorageService) ObjectURL(objectKey string) string {
	return fmt.Sprintf("%s/%s/%s", s.endpoint, s.bucket, objectKey)
}

// ObjectKey extract object key dari URL publik; ref yang sudah berupa key dikembalikan apa adanya
func (s *StorageService) ObjectKey(ref string) string {
	prefix := fmt.Sprintf("%s/%s/", s.endpoint, s.bucket)
	return strings.TrimPrefix(ref, prefix)
}
