package database

import (
	"github.com/stretchr/testify/mock"
)

type MockStoreRepository struct {
	mock.Mock
}

func (m *MockStoreRepository) Ping() error {
	args := m.Called()
	return args.Error(0)
}
func (m *MockStoreRepository) ListProducts() ([]Product, error) {
	args := m.Called()
	return args.Get(0).([]Product), args.Error(1)
}
func (m *MockStoreRepository) GetProductById(id int) (Product, error) {
	args := m.Called(id)
	return args.Get(0).(Product), args.Error(1)
}
func (m *MockStoreRepository) CreateProduct(params CreateProductParams) (Product, error) {
	args := m.Called(params)
	return args.Get(0).(Product), args.Error(1)
}
func (m *MockStoreRepository) UpdateProductStock(id, stock int) (Product, error) {
	args := m.Called(id, stock)
	return args.Get(0).(Product), args.Error(1)
}
func (m *MockStoreRepository) UpdateProductPrice(id int, price float64) (Product, error) {
	args := m.Called(id, price)
	return args.Get(0).(Product), args.Error(1)
}
func (m *MockStoreRepository) GetAnalyticsSnapshot() (AnalyticsSnapshot, error) {
	args := m.Called()
	return args.Get(0).(AnalyticsSnapshot), args.Error(1)
}
