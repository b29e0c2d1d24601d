package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Embedding — вектор фиксированной размерности, описывающий изображение.
type Embedding []float64

// Dim возвращает размерность вектора.
func (emb Embedding) Dim() int {
	return len(emb)
}

// IsEmpty сообщает, вернул ли бэкенд пригодный вектор.
// Пустой вектор — это «нет эмбеддинга», а не транспортная ошибка.
func (emb Embedding) IsEmpty() bool {
	return len(emb) == 0
}

// VectorLiteral кодирует вектор в текстовый литерал хранилища:
// компоненты с шестью знаками после запятой в квадратных скобках.
func (emb Embedding) VectorLiteral() string {
	var sb strings.Builder
	sb.Grow(len(emb)*10 + 2)

	sb.WriteByte('[')
	for i, v := range emb {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.FormatFloat(v, 'f', 6, 64))
	}
	sb.WriteByte(']')

	return sb.String()
}

// ParseVectorLiteral разбирает текстовый литерал обратно в вектор.
func ParseVectorLiteral(literal string) (Embedding, error) {
	trimmed := strings.TrimSpace(literal)
	if len(trimmed) < 2 || trimmed[0] != '[' || trimmed[len(trimmed)-1] != ']' {
		return nil, fmt.Errorf("malformed vector literal: %q", literal)
	}

	inner := trimmed[1 : len(trimmed)-1]
	if inner == "" {
		return Embedding{}, nil
	}

	parts := strings.Split(inner, ",")
	emb := make(Embedding, 0, len(parts))
	for _, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, fmt.Errorf("malformed vector component %q: %w", part, err)
		}
		emb = append(emb, v)
	}

	return emb, nil
}
