package http

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"github.com/DRSN-tech/image-search-backend/internal/cfg"
	"github.com/DRSN-tech/image-search-backend/internal/usecase"
	"github.com/DRSN-tech/image-search-backend/pkg/e"
	"github.com/DRSN-tech/image-search-backend/pkg/logger"
)

// secretHeader — общий секрет триггера backfill.
const secretHeader = "X-Backfill-Secret"

type BackfillHandler struct {
	backfillUC  usecase.BackfillUC
	backfillCfg *cfg.BackfillCfg
	logger      logger.Logger
}

func NewBackfillHandler(backfillUC usecase.BackfillUC, backfillCfg *cfg.BackfillCfg, logger logger.Logger) *BackfillHandler {
	return &BackfillHandler{backfillUC: backfillUC, backfillCfg: backfillCfg, logger: logger}
}

// backfillRequestBody — параметры из JSON-тела; query-параметры имеют приоритет.
type backfillRequestBody struct {
	Limit  *int  `json:"limit"`
	DryRun *bool `json:"dry_run"`
}

type itemErrorResponse struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

type backfillResponse struct {
	Processed int                 `json:"processed"`
	Updated   int                 `json:"updated"`
	Skipped   int                 `json:"skipped"`
	DryRun    bool                `json:"dry_run"`
	Errors    []itemErrorResponse `json:"errors"`
}

// runBackfill
//
//	@Summary		Заполнение отсутствующих векторов изображений
//	@Description	Вычисляет и сохраняет эмбеддинги для позиций каталога без вектора
//	@Tags			embeddings
//	@Accept			json
//	@Produce		json
//	@Param			X-Backfill-Secret	header	string	true	"Общий секрет триггера"
//	@Param			limit				query	int		false	"Размер батча (1-500, по умолчанию 50)"
//	@Param			dry_run				query	bool	false	"Прогон без записи"
//	@Success		200	{object}	backfillResponse	"Отчёт батча; ошибки отдельных позиций внутри"
//	@Failure		401	{object}	ErrorResponse		"Неверный секрет"
//	@Router			/embeddings/backfill [post]
func (h *BackfillHandler) runBackfill(w http.ResponseWriter, r *http.Request) {
	const (
		minLimit     = 1
		maxLimit     = 500
		defaultLimit = 50
	)

	// Секрет обязателен в конфигурации; пустое значение сюда не доходит,
	// но запрос без секрета отклоняется до любой работы.
	if h.backfillCfg.Secret == "" {
		WriteError(w, e.ErrMissingConfig)
		return
	}

	provided := r.Header.Get(secretHeader)
	if provided == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(h.backfillCfg.Secret)) != 1 {
		h.logger.Warnf("%d backfill trigger rejected: bad secret", http.StatusUnauthorized)
		WriteError(w, e.ErrUnauthorized)
		return
	}

	body := readBackfillBody(r)

	limit := defaultLimit
	if body != nil && body.Limit != nil {
		limit = *body.Limit
	}
	if fromQuery := parseOptionalInt(r.URL.Query().Get("limit")); fromQuery != nil {
		limit = *fromQuery
	}
	limit = clampInt(limit, minLimit, maxLimit)

	dryRun := false
	if body != nil && body.DryRun != nil {
		dryRun = *body.DryRun
	}
	if fromQuery := parseOptionalBool(r.URL.Query().Get("dry_run")); fromQuery != nil {
		dryRun = *fromQuery
	}

	report, err := h.backfillUC.Run(r.Context(), usecase.NewBackfillReq(limit, dryRun))
	if err != nil {
		h.logger.Errorf(err, "backfill run failed")
		WriteError(w, err)
		return
	}

	// Частично успешный батч — всё равно успешный запуск задания:
	// ошибки позиций лежат внутри отчёта, статус всегда 200.
	WriteSuccess(w, http.StatusOK, newBackfillResponse(report))
}

// readBackfillBody терпимо читает JSON-тело: пустое или некорректное тело
// равносильно отсутствию параметров.
func readBackfillBody(r *http.Request) *backfillRequestBody {
	if r.Body == nil {
		return nil
	}

	var body backfillRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return nil
	}

	return &body
}

func newBackfillResponse(report *usecase.BackfillReport) *backfillResponse {
	errors := make([]itemErrorResponse, 0, len(report.Errors))
	for _, itemErr := range report.Errors {
		errors = append(errors, itemErrorResponse{ID: itemErr.ID, Error: itemErr.Error})
	}

	return &backfillResponse{
		Processed: report.Processed,
		Updated:   report.Updated,
		Skipped:   report.Skipped,
		DryRun:    report.DryRun,
		Errors:    errors,
	}
}
