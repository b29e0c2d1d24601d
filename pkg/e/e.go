package e

import "fmt"

var (
	// Внутренние ошибки с транзакциями
	ErrTransactionNotFound = fmt.Errorf("transaction not found")

	// Внутренние ошибки с векторами
	ErrEmptyEmbedding = fmt.Errorf("embedding is empty")

	// Ошибки разрешения изображения (не фатальные для батча)
	ErrNoImageSource    = fmt.Errorf("no image source found")
	ErrPlaceholderImage = fmt.Errorf("placeholder image reference")

	// 400 Bad Request
	ErrMissingImage         = fmt.Errorf("missing image")
	ErrUnsupportedMediaType = fmt.Errorf("unsupported media type")
	ErrStatusBadRequest     = fmt.Errorf("bad request")

	// 401 Unauthorized
	ErrUnauthorized = fmt.Errorf("unauthorized")

	// 500 Internal Server Error
	ErrMissingConfig       = fmt.Errorf("missing required configuration")
	ErrInternalServerError = fmt.Errorf("internal server error")
)

// BackendError — ошибка embedding-бэкенда с HTTP-статусом и сообщением из тела ответа.
type BackendError struct {
	Status  int
	Message string
}

func (b *BackendError) Error() string {
	return fmt.Sprintf("embedding backend error (%d): %s", b.Status, b.Message)
}

func NewBackendError(status int, message string) *BackendError {
	return &BackendError{Status: status, Message: message}
}

// DimensionError — несовпадение размерности вектора с ожидаемой конфигурацией.
type DimensionError struct {
	Expected int
	Actual   int
}

func (d *DimensionError) Error() string {
	return fmt.Sprintf("unexpected embedding dimension: expected=%d, actual=%d", d.Expected, d.Actual)
}

func NewDimensionError(expected, actual int) *DimensionError {
	return &DimensionError{Expected: expected, Actual: actual}
}

// Wrap оборачивает ошибку
func Wrap(msg string, err error) error {
	return fmt.Errorf("%s: %w", msg, err)
}
