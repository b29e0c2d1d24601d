package minio

import (
	"context"
	"io"

	"github.com/DRSN-tech/image-search-backend/pkg/e"
	"github.com/jimlawless/whereami"
	"github.com/minio/minio-go/v7"
)

// StorageRepo скачивает объекты из MinIO с сервисными учётными данными.
// Байты объекта отдаются без изменений.
type StorageRepo struct {
	mc *minio.Client
}

func NewStorageRepo(mc *minio.Client) *StorageRepo {
	return &StorageRepo{
		mc: mc,
	}
}

// Download возвращает содержимое объекта bucket/path.
func (s *StorageRepo) Download(ctx context.Context, bucket string, path string) ([]byte, error) {
	obj, err := s.mc.GetObject(ctx, bucket, path, minio.GetObjectOptions{})
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return data, nil
}
