package usecase

import (
	"context"

	"github.com/DRSN-tech/image-search-backend/internal/domain"
)

type EmbeddingInfra interface {
	// GetEmbedding запрашивает вектор изображения у внешнего бэкенда.
	// Пустой вектор — допустимый результат («нет пригодного эмбеддинга»), не ошибка.
	GetEmbedding(ctx context.Context, image []byte) (domain.Embedding, error)
}

type ImageSourceInfra interface {
	// ResolveImageBytes находит и скачивает представительное изображение позиции.
	// Возвращает e.ErrNoImageSource или e.ErrPlaceholderImage, когда позицию
	// следует пропустить без ошибки.
	ResolveImageBytes(ctx context.Context, product *domain.Product) ([]byte, error)
}

type MessageProducer interface {
	WriteRawMessage(ctx context.Context, req *WriteRawMessageReq) error
}
