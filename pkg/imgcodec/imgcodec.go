// Package imgcodec определяет MIME-тип изображения по сигнатуре байтов
// и кодирует произвольные буферы в base64 порционно.
package imgcodec

import (
	"encoding/base64"
	"strings"
)

// DefaultMimeType возвращается для нераспознанных сигнатур.
// Бэкенд векторизации использует MIME только как транспортную подсказку,
// поэтому неизвестный формат не является ошибкой.
const DefaultMimeType = "image/jpeg"

// chunkSize — размер порции при кодировании больших буферов.
const chunkSize = 0x8000

// SniffMimeType классифицирует изображение по ведущим байтам.
// Поддерживаются PNG, JPEG, GIF и WEBP (контейнер RIFF).
func SniffMimeType(data []byte) string {
	if len(data) < 12 {
		return DefaultMimeType
	}

	switch {
	case data[0] == 0x89 && data[1] == 0x50 && data[2] == 0x4e && data[3] == 0x47:
		return "image/png"
	case data[0] == 0xff && data[1] == 0xd8 && data[2] == 0xff:
		return "image/jpeg"
	case data[0] == 0x47 && data[1] == 0x49 && data[2] == 0x46:
		return "image/gif"
	case data[0] == 0x52 && data[1] == 0x49 && data[2] == 0x46 && data[3] == 0x46 &&
		data[8] == 0x57 && data[9] == 0x45 && data[10] == 0x42 && data[11] == 0x50:
		return "image/webp"
	default:
		return DefaultMimeType
	}
}

// EncodeBase64 кодирует буфер в base64 порциями по chunkSize байт,
// чтобы не материализовывать промежуточную строку целиком.
func EncodeBase64(data []byte) string {
	var sb strings.Builder
	sb.Grow(base64.StdEncoding.EncodedLen(len(data)))

	enc := base64.NewEncoder(base64.StdEncoding, &sb)
	for off := 0; off < len(data); off += chunkSize {
		end := off + chunkSize
		if end > len(data) {
			end = len(data)
		}
		// ошибка strings.Builder невозможна
		enc.Write(data[off:end])
	}
	enc.Close()

	return sb.String()
}

// DecodeBase64 декодирует base64-строку, отбрасывая data-URL префикс, если он есть.
func DecodeBase64(value string) ([]byte, error) {
	if idx := strings.IndexByte(value, ','); idx >= 0 {
		value = value[idx+1:]
	}

	return base64.StdEncoding.DecodeString(strings.TrimSpace(value))
}

// DataURL собирает data-URL для передачи изображения в JSON-теле запроса.
func DataURL(data []byte) string {
	return "data:" + SniffMimeType(data) + ";base64," + EncodeBase64(data)
}
