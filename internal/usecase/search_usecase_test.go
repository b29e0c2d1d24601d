package usecase

import (
	"context"
	"fmt"
	"testing"

	"github.com/DRSN-tech/image-search-backend/internal/cfg"
	"github.com/DRSN-tech/image-search-backend/internal/domain"
	"github.com/DRSN-tech/image-search-backend/pkg/e"
	"github.com/DRSN-tech/image-search-backend/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSearchUC(productRepo *fakeProductRepo, embedding *fakeEmbedding, cache *fakeCache) *SearchUseCase {
	return NewSearchUC(
		productRepo,
		embedding,
		cache,
		&cfg.SearchCfg{DefaultMatchCount: 20, MaxMatchCount: 50},
		&cfg.EmbeddingCfg{Dim: testDim},
		logger.NewSlogLogger(),
	)
}

func searchableEmbedding() *fakeEmbedding {
	return &fakeEmbedding{byImage: map[string]domain.Embedding{
		"query": validEmbedding(),
	}}
}

func TestSearchReturnsMatches(t *testing.T) {
	productRepo := &fakeProductRepo{
		searchRes: []SearchMatch{
			{ID: "p1", Name: "first", Price: 100, Similarity: 0.93},
			{ID: "p2", Name: "second", Price: 200, Similarity: 0.81},
		},
	}

	uc := newTestSearchUC(productRepo, searchableEmbedding(), &fakeCache{})

	res, err := uc.Search(context.Background(), NewSearchReq([]byte("query"), 10))
	require.NoError(t, err)

	require.Len(t, res.Results, 2)
	assert.Equal(t, "p1", res.Results[0].ID)
	assert.Empty(t, res.Warning)
	assert.Equal(t, 10, productRepo.searchLimit)
	assert.Equal(t, validEmbedding().VectorLiteral(), productRepo.searchVector)
}

func TestSearchEmptyEmbeddingIsServerError(t *testing.T) {
	uc := newTestSearchUC(&fakeProductRepo{}, &fakeEmbedding{byImage: map[string]domain.Embedding{}}, &fakeCache{})

	_, err := uc.Search(context.Background(), NewSearchReq([]byte("query"), 10))
	require.ErrorIs(t, err, e.ErrEmptyEmbedding)
}

func TestSearchDimensionMismatch(t *testing.T) {
	embedding := &fakeEmbedding{byImage: map[string]domain.Embedding{
		"query": {0.1, 0.2}, // размерность 2 вместо 4
	}}

	uc := newTestSearchUC(&fakeProductRepo{}, embedding, &fakeCache{})

	_, err := uc.Search(context.Background(), NewSearchReq([]byte("query"), 10))
	require.Error(t, err)

	var dimErr *e.DimensionError
	require.ErrorAs(t, err, &dimErr)
	assert.Equal(t, testDim, dimErr.Expected)
	assert.Equal(t, 2, dimErr.Actual)
}

func TestSearchMatchCountClamping(t *testing.T) {
	tests := []struct {
		requested int
		want      int
	}{
		{requested: 0, want: 20},
		{requested: -5, want: 20},
		{requested: 1, want: 1},
		{requested: 50, want: 50},
		{requested: 51, want: 20},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("requested=%d", tt.requested), func(t *testing.T) {
			productRepo := &fakeProductRepo{searchRes: []SearchMatch{{ID: "p1"}}}
			uc := newTestSearchUC(productRepo, searchableEmbedding(), &fakeCache{})

			_, err := uc.Search(context.Background(), NewSearchReq([]byte("query"), tt.requested))
			require.NoError(t, err)
			assert.Equal(t, tt.want, productRepo.searchLimit)
		})
	}
}

func TestSearchWarningOnEmptyStore(t *testing.T) {
	t.Run("no matches and no stored vectors", func(t *testing.T) {
		cache := &fakeCache{}
		productRepo := &fakeProductRepo{count: 0}

		uc := newTestSearchUC(productRepo, searchableEmbedding(), cache)

		res, err := uc.Search(context.Background(), NewSearchReq([]byte("query"), 10))
		require.NoError(t, err)

		assert.Empty(t, res.Results)
		assert.Equal(t, WarningStoreEmpty, res.Warning)

		// Счётчик закэширован после промаха.
		require.NotNil(t, cache.setArg)
		assert.Equal(t, int64(0), *cache.setArg)
	})

	t.Run("no matches but vectors exist", func(t *testing.T) {
		uc := newTestSearchUC(&fakeProductRepo{count: 7}, searchableEmbedding(), &fakeCache{})

		res, err := uc.Search(context.Background(), NewSearchReq([]byte("query"), 10))
		require.NoError(t, err)
		assert.Empty(t, res.Results)
		assert.Empty(t, res.Warning)
	})

	t.Run("cache hit short-circuits count query", func(t *testing.T) {
		productRepo := &fakeProductRepo{countErr: fmt.Errorf("count must not be called")}

		uc := newTestSearchUC(productRepo, searchableEmbedding(), &fakeCache{count: 3, hit: true})

		res, err := uc.Search(context.Background(), NewSearchReq([]byte("query"), 10))
		require.NoError(t, err)
		assert.Empty(t, res.Warning)
	})

	t.Run("count failure suppresses warning", func(t *testing.T) {
		productRepo := &fakeProductRepo{countErr: fmt.Errorf("db unavailable")}

		uc := newTestSearchUC(productRepo, searchableEmbedding(), &fakeCache{})

		res, err := uc.Search(context.Background(), NewSearchReq([]byte("query"), 10))
		require.NoError(t, err)
		assert.Empty(t, res.Warning)
	})
}
