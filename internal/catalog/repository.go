package catalog

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists canonical products.
type Repository interface {
	// Upsert inserts or updates by (supplier_id, sku) and reports whether
	// the product was newly created.
	Upsert(ctx context.Context, p Product) (bool, error)
	Deactivate(ctx context.Context, supplierID int64, sku string) error
	// ActiveSellable returns active products with a positive selling
	// price, the push run's candidate set.
	ActiveSellable(ctx context.Context) ([]Product, error)
	Count(ctx context.Context) (int, error)
	CountBySupplier(ctx context.Context) (map[int64]int, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository builds the pgx-backed repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const productColumns = `id, product_name, sku, model, brand, category_name, description,
	cost_price, retail_price, selling_price, margin_percentage,
	stock, total_stock, images, specifications,
	supplier_id, supplier_sku, active, use_case, exclude_from_consultation,
	created_at, updated_at`

func (r *repository) Upsert(ctx context.Context, p Product) (bool, error) {
	stock, err := json.Marshal(p.Stock)
	if err != nil {
		return false, fmt.Errorf("catalog: marshal stock: %w", err)
	}
	images, err := json.Marshal(p.Images)
	if err != nil {
		return false, fmt.Errorf("catalog: marshal images: %w", err)
	}
	specs, err := json.Marshal(p.Specifications)
	if err != nil {
		return false, fmt.Errorf("catalog: marshal specifications: %w", err)
	}

	const query = `
		INSERT INTO products (
			product_name, sku, model, brand, category_name, description,
			cost_price, retail_price, selling_price, margin_percentage,
			stock, total_stock, images, specifications,
			supplier_id, supplier_sku, active, use_case, exclude_from_consultation,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,now(),now())
		ON CONFLICT (supplier_id, sku) DO UPDATE SET
			product_name = EXCLUDED.product_name,
			model = EXCLUDED.model,
			brand = EXCLUDED.brand,
			category_name = EXCLUDED.category_name,
			description = EXCLUDED.description,
			cost_price = EXCLUDED.cost_price,
			retail_price = EXCLUDED.retail_price,
			selling_price = EXCLUDED.selling_price,
			margin_percentage = EXCLUDED.margin_percentage,
			stock = EXCLUDED.stock,
			total_stock = EXCLUDED.total_stock,
			images = EXCLUDED.images,
			specifications = EXCLUDED.specifications,
			supplier_sku = EXCLUDED.supplier_sku,
			active = EXCLUDED.active,
			use_case = EXCLUDED.use_case,
			exclude_from_consultation = EXCLUDED.exclude_from_consultation,
			updated_at = now()
		RETURNING (xmax = 0)`

	var inserted bool
	err = r.db.QueryRow(ctx, query,
		p.ProductName, p.SKU, p.Model, p.Brand, p.CategoryName, p.Description,
		p.CostPrice, p.RetailPrice, p.SellingPrice, p.MarginPercentage,
		stock, p.TotalStock, images, specs,
		p.SupplierID, p.SupplierSKU, p.Active, p.UseCase, p.ExcludeFromConsultation,
	).Scan(&inserted)
	if err != nil {
		return false, fmt.Errorf("catalog: upsert %s: %w", p.SKU, err)
	}
	return inserted, nil
}

func (r *repository) Deactivate(ctx context.Context, supplierID int64, sku string) error {
	_, err := r.db.Exec(ctx,
		`UPDATE products SET active = false, total_stock = 0, updated_at = now() WHERE supplier_id = $1 AND sku = $2`,
		supplierID, sku)
	if err != nil {
		return fmt.Errorf("catalog: deactivate %s: %w", sku, err)
	}
	return nil
}

func (r *repository) ActiveSellable(ctx context.Context) ([]Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE active AND selling_price > 0 ORDER BY id`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("catalog: active sellable: %w", err)
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (r *repository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM products`).Scan(&total); err != nil {
		return 0, fmt.Errorf("catalog: count: %w", err)
	}
	return total, nil
}

func (r *repository) CountBySupplier(ctx context.Context) (map[int64]int, error) {
	rows, err := r.db.Query(ctx, `SELECT supplier_id, COUNT(*) FROM products GROUP BY supplier_id`)
	if err != nil {
		return nil, fmt.Errorf("catalog: count by supplier: %w", err)
	}
	defer rows.Close()

	counts := make(map[int64]int)
	for rows.Next() {
		var supplierID int64
		var n int
		if err := rows.Scan(&supplierID, &n); err != nil {
			return nil, fmt.Errorf("catalog: scan count: %w", err)
		}
		counts[supplierID] = n
	}
	return counts, rows.Err()
}

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	var stock, images, specs []byte
	err := row.Scan(
		&p.ID, &p.ProductName, &p.SKU, &p.Model, &p.Brand, &p.CategoryName, &p.Description,
		&p.CostPrice, &p.RetailPrice, &p.SellingPrice, &p.MarginPercentage,
		&stock, &p.TotalStock, &images, &specs,
		&p.SupplierID, &p.SupplierSKU, &p.Active, &p.UseCase, &p.ExcludeFromConsultation,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return Product{}, fmt.Errorf("catalog: scan product: %w", err)
	}
	if len(stock) > 0 {
		if err := json.Unmarshal(stock, &p.Stock); err != nil {
			return Product{}, fmt.Errorf("catalog: decode stock: %w", err)
		}
	}
	if len(images) > 0 {
		if err := json.Unmarshal(images, &p.Images); err != nil {
			return Product{}, fmt.Errorf("catalog: decode images: %w", err)
		}
	}
	if len(specs) > 0 {
		if err := json.Unmarshal(specs, &p.Specifications); err != nil {
			return Product{}, fmt.Errorf("catalog: decode specifications: %w", err)
		}
	}
	return p, nil
}
