package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"lms_client/internal/config"
	"lms_client/internal/util"
	"lms_client/pkg/logger"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// ArtifactSaver 下载文件的落地位置
type ArtifactSaver interface {
	Save(ctx context.Context, name string, reader io.Reader, size int64, contentType string) (string, error)
}

// LocalSaver 保存到本地目录
type LocalSaver struct {
	Dir string
}

func (p *LocalSaver) Save(ctx context.Context, name string, reader io.Reader, size int64, contentType string) (string, error) {
	dst := filepath.Join(p.Dir, filepath.Base(name))
	if err := os.MkdirAll(p.Dir, 0o755); err != nil {
		return "", err
	}

	out, err := os.Create(dst)
	if err != nil {
		return "", err
	}

	_, err = io.Copy(out, reader)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		// 不留下写了一半的文件
		_ = os.Remove(dst)
		return "", err
	}
	return dst, nil
}

// MinioSaver 保存到 MinIO 桶
type MinioSaver struct {
	Bucket string
	Client *minio.Client
}

func NewMinioSaver(cfg *config.StorageConfig) (*MinioSaver, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessID, cfg.MinioSecret, ""),
		Secure: cfg.MinioSecure,
	})
	if err != nil {
		return nil, err
	}
	return &MinioSaver{Bucket: cfg.MinioBucket, Client: client}, nil
}

func (p *MinioSaver) Save(ctx context.Context, name string, reader io.Reader, size int64, contentType string) (string, error) {
	if size <= 0 {
		size = -1
	}
	_, err := p.Client.PutObject(ctx, p.Bucket, name, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("s3://%s/%s", p.Bucket, name), nil
}

// NewArtifactSaver minio 初始化失败时回落到本地目录
func NewArtifactSaver(cfg *config.Config) ArtifactSaver {
	if cfg.Storage.Type == util.StorageMinio {
		p, err := NewMinioSaver(&cfg.Storage)
		if err == nil {
			return p
		}
		logger.Log.Warn("minio unavailable, saving locally", zap.Error(err))
	}
	return &LocalSaver{Dir: cfg.Storage.LocalPath}
}
