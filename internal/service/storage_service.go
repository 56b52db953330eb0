package service

import (
	"context"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"reading_eval_backend/internal/config"
	"reading_eval_backend/internal/util"
	"reading_eval_backend/pkg/logger"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// StorageProvider 定义通用存储接口
type StorageProvider interface {
	Upload(ctx context.Context, filename string, reader io.Reader, size int64, contentType string) (string, error)
	SignedURL(ctx context.Context, filename string, expiry time.Duration) (string, error)
	GetURL(filename string) string
}

// LocalStorageProvider 本地存储实现，由 /uploads 静态路由提供下载
type LocalStorageProvider struct {
	Config *config.StorageConfig
}

func (p *LocalStorageProvider) Upload(ctx context.Context, filename string, reader io.Reader, size int64, contentType string) (string, error) {
	dst := filepath.Join(p.Config.LocalPath, filename)
	dir := filepath.Dir(dst)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", err
		}
	}

	out, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	defer out.Close()

	if _, err := io.Copy(out, reader); err != nil {
		return "", err
	}

	return p.GetURL(filename), nil
}

// SignedURL 本地存储不签名
func (p *LocalStorageProvider) SignedURL(ctx context.Context, filename string, expiry time.Duration) (string, error) {
	return p.GetURL(filename), nil
}

func (p *LocalStorageProvider) GetURL(filename string) string {
	return "/uploads/" + filename
}

// MinioStorageProvider MinIO存储实现
type MinioStorageProvider struct {
	Config *config.StorageConfig
	Client *minio.Client
}

func NewMinioStorageProvider(cfg *config.StorageConfig) (*MinioStorageProvider, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessID, cfg.MinioSecret, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		return nil, err
	}
	return &MinioStorageProvider{Config: cfg, Client: client}, nil
}

func (p *MinioStorageProvider) Upload(ctx context.Context, filename string, reader io.Reader, size int64, contentType string) (string, error) {
	_, err := p.Client.PutObject(ctx, p.Config.MinioBucket, filename, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", err
	}
	return p.GetURL(filename), nil
}

// SignedURL 生成限时下载链接，访问码表不能公开访问
func (p *MinioStorageProvider) SignedURL(ctx context.Context, filename string, expiry time.Duration) (string, error) {
	params := make(url.Values)
	params.Set("response-content-disposition", "attachment; filename=\""+filepath.Base(filename)+"\"")
	u, err := p.Client.PresignedGetObject(ctx, p.Config.MinioBucket, filename, expiry, params)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

func (p *MinioStorageProvider) GetURL(filename string) string {
	return "/" + p.Config.MinioBucket + "/" + filename
}

// StorageService 存储服务
type StorageService struct {
	Provider  StorageProvider
	SignedTTL time.Duration
}

func NewStorageService(cfg *config.Config) *StorageService {
	var provider StorageProvider
	if cfg.Storage.Type == util.StorageMinio {
		p, err := NewMinioStorageProvider(&cfg.Storage)
		if err != nil {
			logger.Log.Error("Failed to init minio storage, falling back to local", zap.Error(err))
		} else {
			provider = p
		}
	}

	if provider == nil {
		provider = &LocalStorageProvider{Config: &cfg.Storage}
	}

	ttl := time.Duration(cfg.Storage.SignedURLMinutes) * time.Minute
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &StorageService{Provider: provider, SignedTTL: ttl}
}

// Publish 上传并返回可下载链接
func (s *StorageService) Publish(ctx context.Context, filename string, reader io.Reader, size int64, contentType string) (string, error) {
	if _, err := s.Provider.Upload(ctx, filename, reader, size, contentType); err != nil {
		return "", err
	}
	return s.Provider.SignedURL(ctx, filename, s.SignedTTL)
}
