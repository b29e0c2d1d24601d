package imagesource

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/DRSN-tech/image-search-backend/internal/cfg"
	"github.com/DRSN-tech/image-search-backend/internal/domain"
	"github.com/DRSN-tech/image-search-backend/internal/usecase"
	"github.com/DRSN-tech/image-search-backend/pkg/e"
	"github.com/DRSN-tech/image-search-backend/pkg/logger"
)

// storageObjectPathPrefix — префикс пути объектов собственного storage API.
// Сервисные учётные данные прикладываются только к таким запросам.
const storageObjectPathPrefix = "/storage/v1/object"

// referenceSource — один источник ссылки на изображение.
// Возвращает ссылку и признак её наличия; «не нашлось» не является ошибкой.
type referenceSource func(ctx context.Context, product *domain.Product) (string, bool, error)

// Resolver находит представительное изображение позиции каталога.
// Источники ссылки перебираются по приоритету, первый найденный выигрывает;
// затем ссылка скачивается подходящим транспортом.
type Resolver struct {
	productRepo usecase.ProductRepository
	storageRepo usecase.StorageRepository
	storageCfg  *cfg.StorageCfg
	httpClient  *http.Client
	logger      logger.Logger
}

func NewResolver(
	productRepo usecase.ProductRepository,
	storageRepo usecase.StorageRepository,
	storageCfg *cfg.StorageCfg,
	httpClient *http.Client,
	logger logger.Logger,
) *Resolver {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Resolver{
		productRepo: productRepo,
		storageRepo: storageRepo,
		storageCfg:  storageCfg,
		httpClient:  httpClient,
		logger:      logger,
	}
}

// ResolveImageBytes возвращает байты изображения позиции.
// e.ErrNoImageSource и e.ErrPlaceholderImage означают «пропустить позицию»,
// остальные ошибки — неудачу разрешения для этой позиции.
func (r *Resolver) ResolveImageBytes(ctx context.Context, product *domain.Product) ([]byte, error) {
	sources := []referenceSource{
		r.directReference,
		r.fallbackReference,
	}

	var imageURL string
	found := false
	for _, source := range sources {
		ref, ok, err := source(ctx, product)
		if err != nil {
			return nil, err
		}
		if ok {
			imageURL = ref
			found = true
			break
		}
	}

	if !found {
		return nil, e.ErrNoImageSource
	}

	if isPlaceholderURL(imageURL) {
		return nil, e.ErrPlaceholderImage
	}

	return r.fetch(ctx, imageURL)
}

// directReference — прямая ссылка на самой позиции каталога.
func (r *Resolver) directReference(_ context.Context, product *domain.Product) (string, bool, error) {
	if !product.HasImageURL() {
		return "", false, nil
	}

	return *product.ImageURL, true, nil
}

// fallbackReference — запасная таблица изображений, строка с минимальным sort_order.
func (r *Resolver) fallbackReference(ctx context.Context, product *domain.Product) (string, bool, error) {
	imageURL, err := r.productRepo.FirstFallbackImageURL(ctx, product.ID)
	if err != nil {
		return "", false, err
	}

	return imageURL, imageURL != "", nil
}

// fetch выбирает транспорт по виду ссылки: bucket/path скачивается из
// объектного хранилища, абсолютный URL — по HTTP.
func (r *Resolver) fetch(ctx context.Context, imageURL string) ([]byte, error) {
	if !looksLikeURL(imageURL) {
		bucket, path, err := splitStorageReference(imageURL)
		if err != nil {
			return nil, err
		}

		return r.storageRepo.Download(ctx, bucket, path)
	}

	return r.fetchHTTP(ctx, imageURL)
}

func (r *Resolver) fetchHTTP(ctx context.Context, imageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, err
	}

	// Сервисный ключ прикладывается только к своему storage API:
	// точное совпадение origin и префикса пути, иначе ключ утёк бы третьей стороне.
	if r.isOwnStorageURL(imageURL) {
		req.Header.Set("apikey", r.storageCfg.ServiceKey)
		req.Header.Set("Authorization", "Bearer "+r.storageCfg.ServiceKey)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("failed to download image (%d)", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

func (r *Resolver) isOwnStorageURL(imageURL string) bool {
	if r.storageCfg.APIBaseURL == "" || r.storageCfg.ServiceKey == "" {
		return false
	}

	target, err := url.Parse(imageURL)
	if err != nil {
		return false
	}

	base, err := url.Parse(r.storageCfg.APIBaseURL)
	if err != nil {
		return false
	}

	sameOrigin := target.Scheme == base.Scheme && target.Host == base.Host
	return sameOrigin && strings.HasPrefix(target.Path, storageObjectPathPrefix)
}

// splitStorageReference разбирает ссылку вида "bucket/path/to/object".
func splitStorageReference(ref string) (bucket string, path string, err error) {
	normalized := strings.TrimLeft(ref, "/")
	firstSlash := strings.IndexByte(normalized, '/')
	if firstSlash <= 0 || firstSlash == len(normalized)-1 {
		return "", "", fmt.Errorf("malformed storage reference: %q", ref)
	}

	return normalized[:firstSlash], normalized[firstSlash+1:], nil
}

func looksLikeURL(value string) bool {
	return strings.HasPrefix(value, "http://") || strings.HasPrefix(value, "https://")
}

// isPlaceholderURL отсекает стоковые заглушки «нет изображения»:
// их нельзя ни векторизовать, ни искать.
func isPlaceholderURL(imageURL string) bool {
	return strings.Contains(strings.ToLower(imageURL), "placeholder.com")
}
