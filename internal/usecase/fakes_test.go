package usecase

import (
	"context"
	"sync"

	"github.com/DRSN-tech/image-search-backend/internal/domain"
)

// fakeProductRepo — потокобезопасная заглушка: backfill обращается к ней
// из нескольких воркеров одновременно.
type fakeProductRepo struct {
	mu sync.Mutex

	products     []domain.Product
	listErr      error
	searchRes    []SearchMatch
	searchErr    error
	count        int64
	countErr     error
	updatedIDs   []string
	updateErr    error
	searchVector string
	searchLimit  int
}

func (f *fakeProductRepo) ListMissingEmbedding(ctx context.Context, limit int) ([]domain.Product, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	if limit < len(f.products) {
		return f.products[:limit], nil
	}
	return f.products, nil
}

func (f *fakeProductRepo) FirstFallbackImageURL(ctx context.Context, productID string) (string, error) {
	return "", nil
}

func (f *fakeProductRepo) UpdateEmbedding(ctx context.Context, productID string, vector string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.updateErr != nil {
		return f.updateErr
	}
	f.updatedIDs = append(f.updatedIDs, productID)
	return nil
}

func (f *fakeProductRepo) CountWithEmbedding(ctx context.Context) (int64, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	return f.count, nil
}

func (f *fakeProductRepo) SearchByEmbedding(ctx context.Context, vector string, matchCount int) ([]SearchMatch, error) {
	f.mu.Lock()
	f.searchVector = vector
	f.searchLimit = matchCount
	f.mu.Unlock()

	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.searchRes, nil
}

// fakeEmbedding отдаёт вектор по содержимому изображения.
type fakeEmbedding struct {
	byImage map[string]domain.Embedding
	err     error
}

func (f *fakeEmbedding) GetEmbedding(ctx context.Context, image []byte) (domain.Embedding, error) {
	if f.err != nil {
		return nil, f.err
	}
	if emb, ok := f.byImage[string(image)]; ok {
		return emb, nil
	}
	return domain.Embedding{}, nil
}

// fakeImageSource отдаёт байты изображения или ошибку по ID позиции.
type fakeImageSource struct {
	byProduct map[string][]byte
	errs      map[string]error
}

func (f *fakeImageSource) ResolveImageBytes(ctx context.Context, product *domain.Product) ([]byte, error) {
	if err, ok := f.errs[product.ID]; ok {
		return nil, err
	}
	if image, ok := f.byProduct[product.ID]; ok {
		return image, nil
	}
	return nil, nil
}

type fakeCache struct {
	count  int64
	hit    bool
	setArg *int64
}

func (f *fakeCache) GetEmbeddingCount(ctx context.Context) (int64, bool) {
	return f.count, f.hit
}

func (f *fakeCache) SetEmbeddingCount(ctx context.Context, count int64) {
	f.setArg = &count
}
