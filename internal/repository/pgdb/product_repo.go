package pgdb

import (
	"context"

	"github.com/DRSN-tech/image-search-backend/internal/domain"
	"github.com/DRSN-tech/image-search-backend/internal/usecase"
	"github.com/DRSN-tech/image-search-backend/pkg/e"
	"github.com/DRSN-tech/image-search-backend/pkg/tr"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
)

// ProductRepo реализует доступ к каталогу поверх PostgreSQL.
// Вектор хранится в pgvector-колонке image_embedding прямо на строке продукта.
type ProductRepo struct {
	pool *pgxpool.Pool
}

func NewProductRepo(pool *pgxpool.Pool) *ProductRepo {
	return &ProductRepo{
		pool: pool,
	}
}

// ListMissingEmbedding возвращает до limit позиций без сохранённого вектора.
// Фильтр по NULL делает повторные запуски backfill идемпотентными.
func (p *ProductRepo) ListMissingEmbedding(ctx context.Context, limit int) ([]domain.Product, error) {
	query := `
		SELECT id, name, price, image_url
		FROM products
		WHERE image_embedding IS NULL
		ORDER BY created_at
		LIMIT $1
	`

	rows, err := p.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	result := make([]domain.Product, 0, limit)
	for rows.Next() {
		var product domain.Product
		if err := rows.Scan(&product.ID, &product.Name, &product.Price, &product.ImageURL); err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}

		result = append(result, product)
	}

	if err := rows.Err(); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return result, nil
}

// FirstFallbackImageURL возвращает запасную ссылку с минимальным sort_order,
// либо пустую строку, если запасных изображений у позиции нет.
func (p *ProductRepo) FirstFallbackImageURL(ctx context.Context, productID string) (string, error) {
	query := `
		SELECT image_url
		FROM product_images
		WHERE product_id = $1
		ORDER BY sort_order ASC
		LIMIT 1
	`

	rows, err := p.pool.Query(ctx, query, productID)
	if err != nil {
		return "", e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	if !rows.Next() {
		return "", rows.Err()
	}

	var imageURL string
	if err := rows.Scan(&imageURL); err != nil {
		return "", e.Wrap(whereami.WhereAmI(), err)
	}

	return imageURL, nil
}

// UpdateEmbedding записывает векторный литерал позиции.
// Выполняется внутри транзакции, открытой usecase-слоем.
func (p *ProductRepo) UpdateEmbedding(ctx context.Context, productID string, vector string) error {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	query := `
		UPDATE products
		SET image_embedding = $1::vector, updated_at = NOW()
		WHERE id = $2
	`

	if _, err := tx.Exec(ctx, query, vector, productID); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// CountWithEmbedding возвращает число позиций с непустым вектором.
func (p *ProductRepo) CountWithEmbedding(ctx context.Context) (int64, error) {
	query := `SELECT COUNT(*) FROM products WHERE image_embedding IS NOT NULL`

	var count int64
	if err := p.pool.QueryRow(ctx, query).Scan(&count); err != nil {
		return 0, e.Wrap(whereami.WhereAmI(), err)
	}

	return count, nil
}

// SearchByEmbedding вызывает SQL-функцию поиска ближайших позиций.
// Схему выдачи владеет функция search_products_by_image_embedding.
func (p *ProductRepo) SearchByEmbedding(ctx context.Context, vector string, matchCount int) ([]usecase.SearchMatch, error) {
	query := `
		SELECT id, name, price, image_url, similarity
		FROM search_products_by_image_embedding($1::vector, $2)
	`

	rows, err := p.pool.Query(ctx, query, vector, matchCount)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	result := make([]usecase.SearchMatch, 0, matchCount)
	for rows.Next() {
		var match usecase.SearchMatch
		if err := rows.Scan(&match.ID, &match.Name, &match.Price, &match.ImageURL, &match.Similarity); err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}

		result = append(result, match)
	}

	if err := rows.Err(); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return result, nil
}
