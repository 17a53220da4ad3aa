package database

import (
	"time"
)

const productColumns = "id, title, artist, genre, price, stock, image_url, created_at, updated_at"

func (db *PgStoreRepository) ListProducts() ([]Product, error) {
	rows, err := db.conn.Query(
		"SELECT " + productColumns + " FROM products ORDER BY created_at DESC",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(
			&p.Id,
			&p.Title,
			&p.Artist,
			&p.Genre,
			&p.Price,
			&p.Stock,
			&p.ImageUrl,
			&p.CreatedAt,
			&p.UpdatedAt,
		); err != nil {
			return nil, err
		}
		products = append(products, p)
	}

	return products, rows.Err()
}

func (db *PgStoreRepository) GetProductById(id int) (Product, error) {
	row := db.conn.QueryRow(
		"SELECT "+productColumns+" FROM products WHERE id = $1 LIMIT 1",
		id,
	)

	var p Product
	err := row.Scan(
		&p.Id,
		&p.Title,
		&p.Artist,
		&p.Genre,
		&p.Price,
		&p.Stock,
		&p.ImageUrl,
		&p.CreatedAt,
		&p.UpdatedAt,
	)

	return p, err
}

func (db *PgStoreRepository) CreateProduct(params CreateProductParams) (Product, error) {
	res := db.conn.QueryRow(
		"INSERT INTO products (title, artist, genre, price, stock, image_url, created_at, updated_at) "+
			"VALUES ($1, $2, $3, $4, $5, $6, $7, $7) RETURNING "+productColumns,
		params.Title,
		params.Artist,
		params.Genre,
		params.Price,
		params.Stock,
		params.ImageUrl,
		time.Now().UTC(),
	)

	var p Product
	err := res.Scan(
		&p.Id,
		&p.Title,
		&p.Artist,
		&p.Genre,
		&p.Price,
		&p.Stock,
		&p.ImageUrl,
		&p.CreatedAt,
		&p.UpdatedAt,
	)

	return p, err
}

func (db *PgStoreRepository) UpdateProductStock(id, stock int) (Product, error) {
	res := db.conn.QueryRow(
		"UPDATE products SET stock = $2, updated_at = $3 WHERE id = $1 RETURNING "+productColumns,
		id,
		stock,
		time.Now().UTC(),
	)

	var p Product
	err := res.Scan(
		&p.Id,
		&p.Title,
		&p.Artist,
		&p.Genre,
		&p.Price,
		&p.Stock,
		&p.ImageUrl,
		&p.CreatedAt,
		&p.UpdatedAt,
	)

	return p, err
}

func (db *PgStoreRepository) UpdateProductPrice(id int, price float64) (Product, error) {
	res := db.conn.QueryRow(
		"UPDATE products SET price = $2, updated_at = $3 WHERE id = $1 RETURNING "+productColumns,
		id,
		price,
		time.Now().UTC(),
	)

	var p Product
	err := res.Scan(
		&p.Id,
		&p.Title,
		&p.Artist,
		&p.Genre,
		&p.Price,
		&p.Stock,
		&p.ImageUrl,
		&p.CreatedAt,
		&p.UpdatedAt,
	)

	return p, err
}

func (db *PgStoreRepository) GetAnalyticsSnapshot() (AnalyticsSnapshot, error) {
	var snap AnalyticsSnapshot

	row := db.conn.QueryRow(
		"SELECT COUNT(*), COALESCE(SUM(stock), 0) FROM products",
	)
	if err := row.Scan(&snap.TotalProducts, &snap.TotalStock); err != nil {
		return AnalyticsSnapshot{}, err
	}

	row = db.conn.QueryRow("SELECT COUNT(*) FROM accounts")
	if err := row.Scan(&snap.TotalAccounts); err != nil {
		return AnalyticsSnapshot{}, err
	}

	row = db.conn.QueryRow(
		"SELECT COUNT(*), COALESCE(SUM(total), 0) FROM orders "+
			"WHERE created_at >= $1",
		time.Now().UTC().Truncate(24*time.Hour),
	)
	if err := row.Scan(&snap.OrdersToday, &snap.RevenueToday); err != nil {
		return AnalyticsSnapshot{}, err
	}

	return snap, nil
}
