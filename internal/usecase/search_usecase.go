package usecase

import (
	"context"

	"github.com/DRSN-tech/image-search-backend/internal/cfg"
	"github.com/DRSN-tech/image-search-backend/pkg/e"
	"github.com/DRSN-tech/image-search-backend/pkg/logger"
)

// WarningStoreEmpty отличает «ничего похожего не нашлось» от
// «хранилище векторов ещё не наполнено».
const WarningStoreEmpty = "No products have image_embedding populated yet. " +
	"Run a backfill to generate/store embeddings for product images."

// SearchUseCase выполняет поиск позиций каталога по изображению-запросу.
type SearchUseCase struct {
	productRepo ProductRepository
	embedding   EmbeddingInfra
	cacheRepo   CacheRepository
	searchCfg   *cfg.SearchCfg
	expectedDim int
	logger      logger.Logger
}

func NewSearchUC(
	productRepo ProductRepository,
	embedding EmbeddingInfra,
	cacheRepo CacheRepository,
	searchCfg *cfg.SearchCfg,
	embeddingCfg *cfg.EmbeddingCfg,
	logger logger.Logger,
) *SearchUseCase {
	return &SearchUseCase{
		productRepo: productRepo,
		embedding:   embedding,
		cacheRepo:   cacheRepo,
		searchCfg:   searchCfg,
		expectedDim: embeddingCfg.Dim,
		logger:      logger,
	}
}

// Search векторизует изображение-запрос и возвращает ближайшие позиции.
// В отличие от backfill здесь нет батча, поэтому любая ошибка фатальна для запроса.
func (s *SearchUseCase) Search(ctx context.Context, req *SearchReq) (*SearchRes, error) {
	const op = "SearchUseCase.Search"

	emb, err := s.embedding.GetEmbedding(ctx, req.Image)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	// Пустой вектор при успешном ответе бэкенда означает деградацию бэкенда,
	// а не ошибку клиента.
	if emb.IsEmpty() {
		return nil, e.Wrap(op, e.ErrEmptyEmbedding)
	}

	if emb.Dim() != s.expectedDim {
		return nil, e.Wrap(op, e.NewDimensionError(s.expectedDim, emb.Dim()))
	}

	matchCount := s.clampMatchCount(req.MatchCount)

	results, err := s.productRepo.SearchByEmbedding(ctx, emb.VectorLiteral(), matchCount)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	if len(results) == 0 && !s.storeHasEmbeddings(ctx) {
		return NewSearchRes([]SearchMatch{}, WarningStoreEmpty), nil
	}

	return NewSearchRes(results, ""), nil
}

// storeHasEmbeddings — дешёвая проверка «есть ли вообще сохранённые векторы».
// Счётчик кэшируется; ошибка подсчёта трактуется как «векторы есть»,
// чтобы не показывать ложное предупреждение.
func (s *SearchUseCase) storeHasEmbeddings(ctx context.Context) bool {
	if count, ok := s.cacheRepo.GetEmbeddingCount(ctx); ok {
		return count > 0
	}

	count, err := s.productRepo.CountWithEmbedding(ctx)
	if err != nil {
		s.logger.Warnf("embedding count check failed: %v", err)
		return true
	}

	s.cacheRepo.SetEmbeddingCount(ctx, count)
	return count > 0
}

func (s *SearchUseCase) clampMatchCount(requested int) int {
	if requested < 1 || requested > s.searchCfg.MaxMatchCount {
		return s.searchCfg.DefaultMatchCount
	}
	return requested
}
