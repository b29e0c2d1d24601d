package usecase

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/DRSN-tech/image-search-backend/internal/cfg"
	"github.com/DRSN-tech/image-search-backend/internal/domain"
	"github.com/DRSN-tech/image-search-backend/pkg/e"
	"github.com/DRSN-tech/image-search-backend/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDim = 4

func validEmbedding() domain.Embedding {
	return domain.Embedding{0.1, 0.2, 0.3, 0.4}
}

func newTestBackfillUC(productRepo *fakeProductRepo, embedding *fakeEmbedding, imageSource *fakeImageSource) *BackfillUseCase {
	return NewBackfillUC(
		productRepo,
		nil,
		nil,
		embedding,
		imageSource,
		&cfg.BackfillCfg{Secret: "s", Concurrency: 4, ItemTimeout: 5 * time.Second},
		&cfg.EmbeddingCfg{Dim: testDim},
		logger.NewSlogLogger(),
	)
}

func makeProducts(n int) []domain.Product {
	products := make([]domain.Product, 0, n)
	for i := 0; i < n; i++ {
		products = append(products, domain.Product{ID: fmt.Sprintf("p%d", i+1), Name: fmt.Sprintf("product %d", i+1)})
	}
	return products
}

func TestBackfillRunMixedBatch(t *testing.T) {
	productRepo := &fakeProductRepo{products: makeProducts(3)}
	embedding := &fakeEmbedding{byImage: map[string]domain.Embedding{
		"img-1": validEmbedding(),
	}}
	imageSource := &fakeImageSource{
		byProduct: map[string][]byte{"p1": []byte("img-1")},
		errs: map[string]error{
			"p2": e.ErrNoImageSource,
			"p3": e.ErrPlaceholderImage,
		},
	}

	uc := newTestBackfillUC(productRepo, embedding, imageSource)

	report, err := uc.Run(context.Background(), NewBackfillReq(50, true))
	require.NoError(t, err)

	assert.Equal(t, 3, report.Processed)
	assert.Equal(t, 1, report.Updated)
	assert.Equal(t, 2, report.Skipped)
	assert.Empty(t, report.Errors)
	assert.True(t, report.DryRun)
}

func TestBackfillRunDimensionMismatch(t *testing.T) {
	productRepo := &fakeProductRepo{products: makeProducts(1)}
	embedding := &fakeEmbedding{byImage: map[string]domain.Embedding{
		"img-1": {0.1, 0.2}, // размерность 2 вместо 4
	}}
	imageSource := &fakeImageSource{byProduct: map[string][]byte{"p1": []byte("img-1")}}

	uc := newTestBackfillUC(productRepo, embedding, imageSource)

	report, err := uc.Run(context.Background(), NewBackfillReq(50, false))
	require.NoError(t, err)

	assert.Equal(t, 1, report.Processed)
	assert.Equal(t, 0, report.Updated)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, "p1", report.Errors[0].ID)
	assert.Contains(t, report.Errors[0].Error, "expected=4")
	assert.Contains(t, report.Errors[0].Error, "actual=2")

	// Вектор неверной размерности никогда не записывается.
	assert.Empty(t, productRepo.updatedIDs)
}

func TestBackfillRunEmptyEmbeddingIsSkip(t *testing.T) {
	productRepo := &fakeProductRepo{products: makeProducts(1)}
	// Бэкенд ответил успешно, но вектора нет — позиция пропускается без ошибки.
	embedding := &fakeEmbedding{byImage: map[string]domain.Embedding{}}
	imageSource := &fakeImageSource{byProduct: map[string][]byte{"p1": []byte("img-1")}}

	uc := newTestBackfillUC(productRepo, embedding, imageSource)

	report, err := uc.Run(context.Background(), NewBackfillReq(50, false))
	require.NoError(t, err)

	assert.Equal(t, 1, report.Skipped)
	assert.Empty(t, report.Errors)
	assert.Empty(t, productRepo.updatedIDs)
}

func TestBackfillRunFailureDoesNotAbortBatch(t *testing.T) {
	productRepo := &fakeProductRepo{products: makeProducts(2)}
	embedding := &fakeEmbedding{byImage: map[string]domain.Embedding{
		"img-2": validEmbedding(),
	}}
	imageSource := &fakeImageSource{
		byProduct: map[string][]byte{"p2": []byte("img-2")},
		errs:      map[string]error{"p1": fmt.Errorf("download timed out")},
	}

	uc := newTestBackfillUC(productRepo, embedding, imageSource)

	report, err := uc.Run(context.Background(), NewBackfillReq(50, true))
	require.NoError(t, err)

	assert.Equal(t, 2, report.Processed)
	assert.Equal(t, 1, report.Updated)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, "p1", report.Errors[0].ID)
	assert.Contains(t, report.Errors[0].Error, "download timed out")
}

func TestBackfillRunDryRunNeverWrites(t *testing.T) {
	productRepo := &fakeProductRepo{products: makeProducts(5)}
	embedding := &fakeEmbedding{byImage: map[string]domain.Embedding{"img": validEmbedding()}}

	byProduct := make(map[string][]byte)
	for _, p := range productRepo.products {
		byProduct[p.ID] = []byte("img")
	}
	imageSource := &fakeImageSource{byProduct: byProduct}

	uc := newTestBackfillUC(productRepo, embedding, imageSource)

	report, err := uc.Run(context.Background(), NewBackfillReq(50, true))
	require.NoError(t, err)

	assert.Equal(t, 5, report.Updated)
	assert.Empty(t, productRepo.updatedIDs)
}

func TestBackfillRunRespectsLimit(t *testing.T) {
	productRepo := &fakeProductRepo{products: makeProducts(10)}
	embedding := &fakeEmbedding{byImage: map[string]domain.Embedding{"img": validEmbedding()}}

	byProduct := make(map[string][]byte)
	for _, p := range productRepo.products {
		byProduct[p.ID] = []byte("img")
	}
	imageSource := &fakeImageSource{byProduct: byProduct}

	uc := newTestBackfillUC(productRepo, embedding, imageSource)

	report, err := uc.Run(context.Background(), NewBackfillReq(3, true))
	require.NoError(t, err)
	assert.Equal(t, 3, report.Processed)
}

func TestReduceReportDeterministicAndCapped(t *testing.T) {
	results := make([]itemResult, 0, 30)
	for i := 0; i < 30; i++ {
		results = append(results, itemResult{
			productID: fmt.Sprintf("p%d", i+1),
			outcome:   outcomeFailed,
			err:       fmt.Errorf("boom %d", i+1),
		})
	}

	report := reduceReport(results, false)

	assert.Equal(t, 30, report.Processed)
	// Ошибок в отчёте не больше лимита, и они идут в порядке позиций батча.
	require.Len(t, report.Errors, maxReportErrors)
	assert.Equal(t, "p1", report.Errors[0].ID)
	assert.Equal(t, "p20", report.Errors[maxReportErrors-1].ID)
}
