package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/DRSN-tech/image-search-backend/pkg/e"
	"github.com/DRSN-tech/image-search-backend/pkg/imgcodec"
)

type ErrorResponse struct {
	Code     int    `json:"code"`
	Message  string `json:"message"`
	Expected int    `json:"expected,omitempty"`
	Actual   int    `json:"actual,omitempty"`
}

func NewErrorResponse(code int, message string) *ErrorResponse {
	return &ErrorResponse{
		Code:    code,
		Message: message,
	}
}

func ToHTTPResponse(err error) (int, string) {
	switch {
	case errors.Is(err, e.ErrUnauthorized):
		return http.StatusUnauthorized, e.ErrUnauthorized.Error()
	case errors.Is(err, e.ErrMissingImage):
		return http.StatusBadRequest, e.ErrMissingImage.Error()
	case errors.Is(err, e.ErrUnsupportedMediaType):
		return http.StatusBadRequest, e.ErrUnsupportedMediaType.Error()
	case errors.Is(err, e.ErrStatusBadRequest):
		return http.StatusBadRequest, e.ErrStatusBadRequest.Error()
	case errors.Is(err, e.ErrMissingConfig):
		return http.StatusInternalServerError, e.ErrMissingConfig.Error()
	case errors.Is(err, e.ErrEmptyEmbedding):
		return http.StatusInternalServerError, e.ErrEmptyEmbedding.Error()
	default:
		return http.StatusInternalServerError, e.ErrInternalServerError.Error()
	}
}

func WriteError(w http.ResponseWriter, err error) {
	// Несовпадение размерности отдаёт ожидаемое и фактическое значения:
	// без них ошибку конфигурации бэкенда не диагностировать снаружи.
	var dimErr *e.DimensionError
	if errors.As(err, &dimErr) {
		resp := NewErrorResponse(http.StatusInternalServerError, dimErr.Error())
		resp.Expected = dimErr.Expected
		resp.Actual = dimErr.Actual
		writeJSON(w, http.StatusInternalServerError, resp)
		return
	}

	var backendErr *e.BackendError
	if errors.As(err, &backendErr) {
		writeJSON(w, http.StatusInternalServerError, NewErrorResponse(http.StatusInternalServerError, backendErr.Error()))
		return
	}

	code, msg := ToHTTPResponse(err)
	writeJSON(w, code, NewErrorResponse(code, msg))
}

func WriteSuccess(w http.ResponseWriter, status int, data interface{}) {
	writeJSON(w, status, data)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// readImageBytes принимает изображение-запрос ровно в одной из трёх кодировок:
// multipart-поле image, JSON с base64 (допустим data-URL префикс)
// или сырое тело с Content-Type image/*.
func readImageBytes(r *http.Request) ([]byte, error) {
	const maxMemory = 32 << 20

	contentType := r.Header.Get("Content-Type")

	switch {
	case strings.HasPrefix(contentType, "multipart/form-data"):
		if err := r.ParseMultipartForm(maxMemory); err != nil {
			return nil, e.Wrap(err.Error(), e.ErrStatusBadRequest)
		}

		file, _, err := r.FormFile("image")
		if err != nil {
			return nil, e.ErrMissingImage
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			return nil, e.Wrap(err.Error(), e.ErrStatusBadRequest)
		}
		return data, nil

	case strings.HasPrefix(contentType, "application/json"):
		var payload struct {
			ImageBase64 string `json:"image_base64"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			return nil, e.Wrap(err.Error(), e.ErrStatusBadRequest)
		}
		if payload.ImageBase64 == "" {
			return nil, e.ErrMissingImage
		}

		data, err := imgcodec.DecodeBase64(payload.ImageBase64)
		if err != nil {
			return nil, e.Wrap(err.Error(), e.ErrStatusBadRequest)
		}
		return data, nil

	case strings.HasPrefix(contentType, "image/"):
		data, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, e.Wrap(err.Error(), e.ErrStatusBadRequest)
		}
		if len(data) == 0 {
			return nil, e.ErrMissingImage
		}
		return data, nil

	default:
		return nil, e.ErrUnsupportedMediaType
	}
}

func clampInt(value, min, max int) int {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// parseOptionalInt возвращает nil для пустого или некорректного значения.
func parseOptionalInt(value string) *int {
	if value == "" {
		return nil
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return nil
	}

	return &parsed
}

// parseOptionalBool понимает true/1/yes и false/0/no, иначе возвращает nil.
func parseOptionalBool(value string) *bool {
	switch strings.ToLower(value) {
	case "true", "1", "yes":
		v := true
		return &v
	case "false", "0", "no":
		v := false
		return &v
	default:
		return nil
	}
}
