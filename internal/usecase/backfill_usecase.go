package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/DRSN-tech/image-search-backend/internal/cfg"
	"github.com/DRSN-tech/image-search-backend/internal/domain"
	"github.com/DRSN-tech/image-search-backend/pkg/e"
	"github.com/DRSN-tech/image-search-backend/pkg/logger"
	transaction "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// maxReportErrors ограничивает список ошибок в отчёте,
// чтобы размер ответа не рос вместе с батчем.
const maxReportErrors = 20

type itemOutcome int

const (
	outcomeUpdated itemOutcome = iota
	outcomeSkipped
	outcomeFailed
)

// itemResult — исход обработки одной позиции. Отчёт сворачивается из слайса
// исходов по индексу позиции, поэтому не зависит от порядка завершения воркеров.
type itemResult struct {
	productID string
	outcome   itemOutcome
	err       error
}

// BackfillUseCase вычисляет и сохраняет векторы для позиций каталога без эмбеддинга.
type BackfillUseCase struct {
	productRepo ProductRepository
	outboxRepo  OutboxRepository
	dbPool      transaction.Transactional
	embedding   EmbeddingInfra
	imageSource ImageSourceInfra
	backfillCfg *cfg.BackfillCfg
	expectedDim int
	logger      logger.Logger
}

func NewBackfillUC(
	productRepo ProductRepository,
	outboxRepo OutboxRepository,
	dbPool transaction.Transactional,
	embedding EmbeddingInfra,
	imageSource ImageSourceInfra,
	backfillCfg *cfg.BackfillCfg,
	embeddingCfg *cfg.EmbeddingCfg,
	logger logger.Logger,
) *BackfillUseCase {
	return &BackfillUseCase{
		productRepo: productRepo,
		outboxRepo:  outboxRepo,
		dbPool:      dbPool,
		embedding:   embedding,
		imageSource: imageSource,
		backfillCfg: backfillCfg,
		expectedDim: embeddingCfg.Dim,
		logger:      logger,
	}
}

// Run обрабатывает до req.Limit позиций без вектора и возвращает отчёт.
// Ошибка одной позиции никогда не прерывает батч: она попадает в отчёт,
// остальные позиции обрабатываются дальше. Повторный запуск идемпотентен,
// поскольку выборка отфильтрована по отсутствию вектора.
func (b *BackfillUseCase) Run(ctx context.Context, req *BackfillReq) (*BackfillReport, error) {
	const op = "BackfillUseCase.Run"

	products, err := b.productRepo.ListMissingEmbedding(ctx, req.Limit)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	results := make([]itemResult, len(products))
	sem := make(chan struct{}, b.backfillCfg.Concurrency)

	var wg sync.WaitGroup
	for i, product := range products {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			itemCtx, cancel := context.WithTimeout(ctx, b.backfillCfg.ItemTimeout)
			defer cancel()

			results[i] = b.processItem(itemCtx, &product, req.DryRun)
		}()
	}
	wg.Wait()

	report := reduceReport(results, req.DryRun)
	b.logger.Infof(
		"backfill finished: processed=%d updated=%d skipped=%d errors=%d dry_run=%v",
		report.Processed, report.Updated, report.Skipped, len(report.Errors), report.DryRun,
	)

	return report, nil
}

// processItem проводит одну позицию через полный конвейер:
// изображение -> вектор -> валидация размерности -> литерал -> запись.
func (b *BackfillUseCase) processItem(ctx context.Context, product *domain.Product, dryRun bool) itemResult {
	image, err := b.imageSource.ResolveImageBytes(ctx, product)
	if err != nil {
		if errors.Is(err, e.ErrNoImageSource) || errors.Is(err, e.ErrPlaceholderImage) {
			return itemResult{productID: product.ID, outcome: outcomeSkipped}
		}
		return itemResult{productID: product.ID, outcome: outcomeFailed, err: err}
	}

	emb, err := b.embedding.GetEmbedding(ctx, image)
	if err != nil {
		return itemResult{productID: product.ID, outcome: outcomeFailed, err: err}
	}

	if emb.IsEmpty() {
		return itemResult{productID: product.ID, outcome: outcomeSkipped}
	}

	if emb.Dim() != b.expectedDim {
		return itemResult{
			productID: product.ID,
			outcome:   outcomeFailed,
			err:       e.NewDimensionError(b.expectedDim, emb.Dim()),
		}
	}

	if dryRun {
		return itemResult{productID: product.ID, outcome: outcomeUpdated}
	}

	if err := b.persistItem(ctx, product.ID, emb); err != nil {
		return itemResult{productID: product.ID, outcome: outcomeFailed, err: err}
	}

	return itemResult{productID: product.ID, outcome: outcomeUpdated}
}

// persistItem записывает вектор и outbox-событие в одной транзакции.
func (b *BackfillUseCase) persistItem(ctx context.Context, productID string, emb domain.Embedding) error {
	const op = "BackfillUseCase.persistItem"

	ctx, tx, err := transaction.NewTransaction(ctx, pgx.TxOptions{}, b.dbPool)
	if err != nil {
		return e.Wrap(op, err)
	}
	defer func() {
		if err != nil && tx.IsActive() {
			tx.Rollback(ctx)
		}
	}()
	ctx = context.WithValue(ctx, "tx", tx.Transaction())

	if err = b.productRepo.UpdateEmbedding(ctx, productID, emb.VectorLiteral()); err != nil {
		return e.Wrap(op, err)
	}

	payload, err := json.Marshal(map[string]any{
		"product_id":  productID,
		"dimension":   emb.Dim(),
		"occurred_at": time.Now().UTC().UnixNano(),
	})
	if err != nil {
		return e.Wrap(op, err)
	}

	if _, err = b.outboxRepo.Create(ctx, NewOutboxEvent(uuid.NewString(), EventTypeEmbeddingUpdated, productID, payload)); err != nil {
		return e.Wrap(op, err)
	}

	if err = tx.Commit(ctx); err != nil {
		return e.Wrap(op, err)
	}

	return nil
}

// reduceReport сворачивает исходы позиций в отчёт.
// Чистая функция: стратегия выполнения (последовательная или параллельная)
// на агрегацию не влияет.
func reduceReport(results []itemResult, dryRun bool) *BackfillReport {
	report := &BackfillReport{
		Processed: len(results),
		DryRun:    dryRun,
		Errors:    make([]ItemError, 0),
	}

	for _, res := range results {
		switch res.outcome {
		case outcomeUpdated:
			report.Updated++
		case outcomeSkipped:
			report.Skipped++
		case outcomeFailed:
			if len(report.Errors) < maxReportErrors {
				report.Errors = append(report.Errors, ItemError{ID: res.productID, Error: res.err.Error()})
			}
		}
	}

	return report
}
