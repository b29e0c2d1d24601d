package usecase

import (
	"context"

	"github.com/DRSN-tech/image-search-backend/internal/domain"
)

type ProductRepository interface {
	// ListMissingEmbedding возвращает до limit позиций без сохранённого вектора.
	ListMissingEmbedding(ctx context.Context, limit int) ([]domain.Product, error)
	// FirstFallbackImageURL возвращает запасную ссылку с минимальным sort_order,
	// либо пустую строку, если запасных изображений нет.
	FirstFallbackImageURL(ctx context.Context, productID string) (string, error)
	// UpdateEmbedding записывает векторный литерал позиции. Выполняется в транзакции.
	UpdateEmbedding(ctx context.Context, productID string, vector string) error
	// CountWithEmbedding возвращает число позиций с непустым вектором.
	CountWithEmbedding(ctx context.Context) (int64, error)
	// SearchByEmbedding выполняет поиск ближайших позиций по векторному литералу.
	SearchByEmbedding(ctx context.Context, vector string, matchCount int) ([]SearchMatch, error)
}

type OutboxRepository interface {
	// Create вставляет событие в outbox. Выполняется в транзакции.
	Create(ctx context.Context, event *OutboxEvent) (*OutboxEvent, error)
	GetAndMarkAsProcessing(ctx context.Context, limit int) ([]*OutboxEvent, error)
	MarkAsProcessed(ctx context.Context, id int64) error
}

type StorageRepository interface {
	// Download скачивает объект из хранилища с сервисными учётными данными.
	Download(ctx context.Context, bucket string, path string) ([]byte, error)
}

type CacheRepository interface {
	// GetEmbeddingCount возвращает закэшированный счётчик сохранённых векторов.
	// Второе значение — признак попадания в кэш; промах не является ошибкой.
	GetEmbeddingCount(ctx context.Context) (int64, bool)
	SetEmbeddingCount(ctx context.Context, count int64)
}
