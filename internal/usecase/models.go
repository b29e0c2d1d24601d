package usecase

import "time"

// BACKFILL USECASE

// BackfillReq — запрос на заполнение отсутствующих векторов.
// Limit ограничивает размер батча, DryRun отключает запись.
type BackfillReq struct {
	Limit  int
	DryRun bool
}

// ItemError — ошибка обработки одной позиции батча.
type ItemError struct {
	ID    string
	Error string
}

// BackfillReport — агрегированный итог одного запуска backfill.
// Формируется заново на каждый вызов и никуда не сохраняется.
type BackfillReport struct {
	Processed int
	Updated   int
	Skipped   int
	DryRun    bool
	Errors    []ItemError
}

// SEARCH USECASE

// SearchReq — запрос поиска по изображению.
type SearchReq struct {
	Image      []byte
	MatchCount int
}

// SearchMatch — одна позиция выдачи поиска по близости векторов.
type SearchMatch struct {
	ID         string
	Name       string
	Price      int64
	ImageURL   *string
	Similarity float64
}

// SearchRes — результат поиска. Warning заполняется, когда выдача пуста
// из-за того, что хранилище векторов ещё не наполнено.
type SearchRes struct {
	Results []SearchMatch
	Warning string
}

// OUTBOX

type OutboxStatus string

const (
	Pending    OutboxStatus = "pending"
	Processing OutboxStatus = "processing"
	Processed  OutboxStatus = "processed"
)

const EventTypeEmbeddingUpdated = "product.embedding.updated"

// OutboxEvent — событие для надёжной доставки в Kafka через транзакционный outbox.
type OutboxEvent struct {
	ID          int64
	EventID     string // uuid
	EventType   string
	ProductID   string // uuid
	Payload     []byte // JSON
	Status      OutboxStatus
	CreatedAt   time.Time
	ProcessedAt *time.Time
}

// WriteRawMessageReq — запрос на отправку готового payload в Kafka.
type WriteRawMessageReq struct {
	ProductID string
	Payload   []byte
}

// MAPPERS

func NewBackfillReq(limit int, dryRun bool) *BackfillReq {
	return &BackfillReq{
		Limit:  limit,
		DryRun: dryRun,
	}
}

func NewSearchReq(image []byte, matchCount int) *SearchReq {
	return &SearchReq{
		Image:      image,
		MatchCount: matchCount,
	}
}

func NewSearchRes(results []SearchMatch, warning string) *SearchRes {
	return &SearchRes{
		Results: results,
		Warning: warning,
	}
}

func NewOutboxEvent(eventID string, eventType string, productID string, payload []byte) *OutboxEvent {
	return &OutboxEvent{
		EventID:   eventID,
		EventType: eventType,
		ProductID: productID,
		Payload:   payload,
		Status:    Pending,
	}
}

func NewWriteRawMessageReq(productID string, payload []byte) *WriteRawMessageReq {
	return &WriteRawMessageReq{
		ProductID: productID,
		Payload:   payload,
	}
}
