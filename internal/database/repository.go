package database

type StoreRepository interface {
	Ping() error
	ListProducts() ([]Product, error)
	GetProductById(id int) (Product, error)
	CreateProduct(params CreateProductParams) (Product, error)
	UpdateProductStock(id, stock int) (Product, error)
	UpdateProductPrice(id int, price float64) (Product, error)
	GetAnalyticsSnapshot() (AnalyticsSnapshot, error)
}
