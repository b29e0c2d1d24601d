package domain

import "time"

// Product описывает позицию каталога.
// Каталогом управляет внешний сервис: здесь читаются идентификатор и ссылка
// на изображение, а записывается только вектор.
type Product struct {
	ID        string // uuid
	Name      string
	Price     int64 // Цена хранится в копейках
	ImageURL  *string
	CreatedAt time.Time
	UpdatedAt *time.Time
}

func NewProduct(id string, name string, price int64, imageURL *string) *Product {
	return &Product{
		ID:       id,
		Name:     name,
		Price:    price,
		ImageURL: imageURL,
	}
}

// HasImageURL сообщает, задана ли прямая непустая ссылка на изображение.
func (p *Product) HasImageURL() bool {
	return p.ImageURL != nil && *p.ImageURL != ""
}

// FallbackImage — запасная ссылка на изображение позиции.
// Используется, когда у продукта нет прямой ссылки; берётся строка
// с наименьшим SortOrder.
type FallbackImage struct {
	ProductID string
	ImageURL  string
	SortOrder int
}
