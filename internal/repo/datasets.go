package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/noah-isme/backend-sellerstats/internal/sellerstats"
)

// DatasetStore reads and writes the source tables an analysis runs over.
type DatasetStore struct {
	DB DB
}

// LoadDataset reads every seller, product and receipt. Sellers and products are
// ordered by key and receipts by insertion so that ranking ties are stable
// between runs.
func (s DatasetStore) LoadDataset(ctx context.Context) (*sellerstats.Dataset, error) {
	if s.DB == nil {
		return nil, errors.New("repo: dataset store not configured")
	}
	data := &sellerstats.Dataset{}

	rows, err := s.DB.Query(ctx, `SELECT id, first_name, last_name FROM sellers ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query sellers: %w", err)
	}
	data.Sellers, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (sellerstats.Seller, error) {
		var seller sellerstats.Seller
		err := row.Scan(&seller.ID, &seller.FirstName, &seller.LastName)
		return seller, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan sellers: %w", err)
	}

	rows, err = s.DB.Query(ctx, `SELECT sku, name, purchase_price::float8 FROM products ORDER BY sku`)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	data.Products, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (sellerstats.Product, error) {
		var product sellerstats.Product
		err := row.Scan(&product.SKU, &product.Name, &product.PurchasePrice)
		return product, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan products: %w", err)
	}

	rows, err = s.DB.Query(ctx, `SELECT id, COALESCE(receipt_id, ''), seller_id, total_amount::float8 FROM purchase_records ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query purchase records: %w", err)
	}
	positions := map[int64]int{}
	err = func() error {
		defer rows.Close()
		for rows.Next() {
			var (
				id     int64
				record sellerstats.PurchaseRecord
			)
			if err := rows.Scan(&id, &record.ReceiptID, &record.SellerID, &record.TotalAmount); err != nil {
				return err
			}
			positions[id] = len(data.PurchaseRecords)
			data.PurchaseRecords = append(data.PurchaseRecords, record)
		}
		return rows.Err()
	}()
	if err != nil {
		return nil, fmt.Errorf("scan purchase records: %w", err)
	}

	rows, err = s.DB.Query(ctx, `SELECT record_id, sku, sale_price::float8, quantity, discount::float8 FROM purchase_items ORDER BY record_id, position`)
	if err != nil {
		return nil, fmt.Errorf("query purchase items: %w", err)
	}
	err = func() error {
		defer rows.Close()
		for rows.Next() {
			var (
				recordID int64
				item     sellerstats.PurchaseItem
			)
			if err := rows.Scan(&recordID, &item.SKU, &item.SalePrice, &item.Quantity, &item.Discount); err != nil {
				return err
			}
			pos, ok := positions[recordID]
			if !ok {
				continue
			}
			data.PurchaseRecords[pos].Items = append(data.PurchaseRecords[pos].Items, item)
		}
		return rows.Err()
	}()
	if err != nil {
		return nil, fmt.Errorf("scan purchase items: %w", err)
	}
	return data, nil
}

// ImportDataset upserts sellers and products and appends the receipts in a
// single transaction. Receipts whose receipt_id already exists are skipped.
// It returns the number of receipts inserted.
func (s DatasetStore) ImportDataset(ctx context.Context, data *sellerstats.Dataset) (int, error) {
	if s.DB == nil {
		return 0, errors.New("repo: dataset store not configured")
	}
	if data == nil {
		return 0, errors.New("repo: dataset is nil")
	}
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin import: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	for _, seller := range data.Sellers {
		if _, err := tx.Exec(ctx, `INSERT INTO sellers (id, first_name, last_name) VALUES ($1, $2, $3)
			ON CONFLICT (id) DO UPDATE SET first_name = EXCLUDED.first_name, last_name = EXCLUDED.last_name`,
			seller.ID, seller.FirstName, seller.LastName); err != nil {
			return 0, fmt.Errorf("upsert seller %s: %w", seller.ID, err)
		}
	}
	for _, product := range data.Products {
		if _, err := tx.Exec(ctx, `INSERT INTO products (sku, name, purchase_price) VALUES ($1, $2, $3)
			ON CONFLICT (sku) DO UPDATE SET name = EXCLUDED.name, purchase_price = EXCLUDED.purchase_price`,
			product.SKU, product.Name, product.PurchasePrice); err != nil {
			return 0, fmt.Errorf("upsert product %s: %w", product.SKU, err)
		}
	}

	inserted := 0
	for i, record := range data.PurchaseRecords {
		var id int64
		err := tx.QueryRow(ctx, `INSERT INTO purchase_records (receipt_id, seller_id, total_amount) VALUES ($1, $2, $3)
			ON CONFLICT (receipt_id) DO NOTHING RETURNING id`,
			nullableText(record.ReceiptID), record.SellerID, record.TotalAmount).Scan(&id)
		if errors.Is(err, pgx.ErrNoRows) {
			continue
		}
		if err != nil {
			return 0, fmt.Errorf("insert purchase record %d: %w", i, err)
		}
		batch := &pgx.Batch{}
		for pos, item := range record.Items {
			batch.Queue(`INSERT INTO purchase_items (record_id, position, sku, sale_price, quantity, discount) VALUES ($1, $2, $3, $4, $5, $6)`,
				id, pos, item.SKU, item.SalePrice, item.Quantity, item.Discount)
		}
		if batch.Len() > 0 {
			if err := tx.SendBatch(ctx, batch).Close(); err != nil {
				return 0, fmt.Errorf("insert items of purchase record %d: %w", i, err)
			}
		}
		inserted++
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit import: %w", err)
	}
	return inserted, nil
}
