package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/DRSN-tech/image-search-backend/internal/cfg"
	"github.com/DRSN-tech/image-search-backend/internal/domain"
	"github.com/DRSN-tech/image-search-backend/pkg/e"
	"github.com/DRSN-tech/image-search-backend/pkg/imgcodec"
	"github.com/DRSN-tech/image-search-backend/pkg/logger"
)

// maxErrorBodyLen ограничивает длину сообщения из сырого тела ошибки.
const maxErrorBodyLen = 500

// BackendClient — клиент внешнего бэкенда векторизации изображений.
// Один исходящий запрос на вызов, без ретраев и кэширования.
type BackendClient struct {
	httpClient *http.Client
	cfg        *cfg.EmbeddingCfg
	logger     logger.Logger
}

func NewBackendClient(cfg *cfg.EmbeddingCfg, logger logger.Logger) *BackendClient {
	return &BackendClient{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cfg:        cfg,
		logger:     logger,
	}
}

// backendRequest — тело запроса бэкенда векторизации.
type backendRequest struct {
	Image      string `json:"image"` // data-URL изображения
	TargetDim  int    `json:"target_dim"`
	UseFloat16 bool   `json:"use_float16"`
}

// GetEmbedding векторизует изображение через внешний бэкенд.
// Размерность здесь не проверяется: одна и та же точка обслуживает
// backfill и поиск, строгость выбирает вызывающий слой.
func (c *BackendClient) GetEmbedding(ctx context.Context, image []byte) (domain.Embedding, error) {
	const op = "BackendClient.GetEmbedding"

	body, err := json.Marshal(backendRequest{
		Image:      imgcodec.DataURL(image),
		TargetDim:  c.cfg.Dim,
		UseFloat16: false,
	})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.cfg.ApiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.ApiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	defer resp.Body.Close()

	// Тело читается целиком как текст, чтобы тело ошибки осталось доступным
	// даже когда это не JSON.
	rawText, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	parsed := safeJSONParse(rawText)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, e.Wrap(op, e.NewBackendError(resp.StatusCode, errorMessage(parsed, rawText)))
	}

	return extractEmbedding(parsed), nil
}

// errorMessage предпочитает строковое поле detail из разобранного тела,
// иначе берёт первые 500 символов сырого текста.
func errorMessage(parsed map[string]any, rawText []byte) string {
	if parsed != nil {
		if detail, ok := parsed["detail"].(string); ok {
			return detail
		}
	}

	msg := string(rawText)
	if len(msg) > maxErrorBodyLen {
		msg = msg[:maxErrorBodyLen]
	}

	return msg
}

// extractEmbedding достаёт числовой массив embedding из разобранного тела.
// Отсутствующее, нечисловое или не-массивное поле даёт пустой вектор:
// «нет пригодного эмбеддинга», не транспортная ошибка.
func extractEmbedding(parsed map[string]any) domain.Embedding {
	if parsed == nil {
		return domain.Embedding{}
	}

	raw, ok := parsed["embedding"].([]any)
	if !ok {
		return domain.Embedding{}
	}

	emb := make(domain.Embedding, 0, len(raw))
	for _, item := range raw {
		num, ok := item.(float64)
		if !ok {
			return domain.Embedding{}
		}
		emb = append(emb, num)
	}

	return emb
}

// safeJSONParse разбирает JSON-объект, возвращая nil при любой ошибке разбора.
func safeJSONParse(data []byte) map[string]any {
	var parsed map[string]any
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil
	}

	return parsed
}
