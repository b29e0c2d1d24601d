package http

import (
	"net/http"

	"github.com/DRSN-tech/image-search-backend/internal/usecase"
	"github.com/DRSN-tech/image-search-backend/pkg/logger"
)

type SearchHandler struct {
	searchUC usecase.SearchUC
	logger   logger.Logger
}

func NewSearchHandler(searchUC usecase.SearchUC, logger logger.Logger) *SearchHandler {
	return &SearchHandler{searchUC: searchUC, logger: logger}
}

type matchResponse struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Price      int64   `json:"price"`
	ImageURL   *string `json:"image_url"`
	Similarity float64 `json:"similarity"`
}

type searchResponse struct {
	Results []matchResponse `json:"results"`
	Warning string          `json:"warning,omitempty"`
}

// searchByImage
//
//	@Summary		Поиск позиций каталога по изображению
//	@Description	Принимает изображение (multipart-поле image, JSON image_base64 или сырое тело image/*) и возвращает ближайшие позиции
//	@Tags			products
//	@Accept			multipart/form-data
//	@Accept			json
//	@Produce		json
//	@Param			limit	query		int				false	"Число результатов (1-50, по умолчанию 20)"
//	@Success		200		{object}	searchResponse	"Ранжированная выдача; warning при ненаполненном хранилище"
//	@Failure		400		{object}	ErrorResponse	"Изображение отсутствует или кодировка не поддерживается"
//	@Failure		500		{object}	ErrorResponse	"Деградация бэкенда векторизации или несовпадение размерности"
//	@Router			/products/search [post]
func (h *SearchHandler) searchByImage(w http.ResponseWriter, r *http.Request) {
	const maxRequestSize = 25 << 20

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestSize)

	image, err := readImageBytes(r)
	if err != nil {
		h.logger.Warnf("%d search rejected: %s", http.StatusBadRequest, err.Error())
		WriteError(w, err)
		return
	}

	// Вне диапазона — ноль, usecase подставит значение по умолчанию.
	matchCount := 0
	if fromQuery := parseOptionalInt(r.URL.Query().Get("limit")); fromQuery != nil {
		matchCount = *fromQuery
	}

	res, err := h.searchUC.Search(r.Context(), usecase.NewSearchReq(image, matchCount))
	if err != nil {
		h.logger.Errorf(err, "image search failed")
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, newSearchResponse(res))
}

func newSearchResponse(res *usecase.SearchRes) *searchResponse {
	results := make([]matchResponse, 0, len(res.Results))
	for _, match := range res.Results {
		results = append(results, matchResponse{
			ID:         match.ID,
			Name:       match.Name,
			Price:      match.Price,
			ImageURL:   match.ImageURL,
			Similarity: match.Similarity,
		})
	}

	return &searchResponse{
		Results: results,
		Warning: res.Warning,
	}
}
