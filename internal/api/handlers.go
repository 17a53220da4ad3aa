package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"slices"

	"github.com/forbiddenlink/spiralsounds/internal/database"
	"github.com/forbiddenlink/spiralsounds/internal/realtime"
	"github.com/forbiddenlink/spiralsounds/internal/types"
	"github.com/gorilla/websocket"
)

type CreateProductRequest struct {
	Title    string  `json:"title"`
	Artist   string  `json:"artist"`
	Genre    string  `json:"genre"`
	Price    float64 `json:"price"`
	Stock    int     `json:"stock"`
	ImageUrl string  `json:"imageUrl"`
}

type UpdateStockRequest struct {
	ProductId int `json:"productId"`
	Stock     int `json:"stock"`
}

type UpdatePriceRequest struct {
	ProductId int     `json:"productId"`
	Price     float64 `json:"price"`
}

type SendNotificationRequest struct {
	UserId  int            `json:"userId"`
	Payload map[string]any `json:"payload"`
}

func (s *StoreApp) writeJson(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if v == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Printf("json encode: %v", err)
	}
}

func toProduct(p database.Product) types.Product {
	return types.Product{
		Id:        p.Id,
		Title:     p.Title,
		Artist:    p.Artist,
		Genre:     p.Genre,
		Price:     p.Price,
		Stock:     p.Stock,
		ImageUrl:  p.ImageUrl,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func (s *StoreApp) healthCheck(w http.ResponseWriter, _ *http.Request) {
	if err := s.db.Ping(); err != nil {
		s.log.Println("health check:", err)
		errResp := NewServiceUnavailableError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *StoreApp) listProducts(w http.ResponseWriter, _ *http.Request) {
	dbProducts, err := s.db.ListProducts()
	if err != nil {
		s.log.Println("list products:", err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	products := make([]types.Product, 0, len(dbProducts))
	for _, p := range dbProducts {
		products = append(products, toProduct(p))
	}

	s.writeJson(w, http.StatusOK, products)
}

func (s *StoreApp) createProduct(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if req.Title == "" || req.Artist == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	params := database.CreateProductParams{
		Title:    req.Title,
		Artist:   req.Artist,
		Genre:    req.Genre,
		Price:    req.Price,
		Stock:    req.Stock,
		ImageUrl: req.ImageUrl,
	}

	newProduct, err := s.db.CreateProduct(params)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	product := toProduct(newProduct)
	s.hub.BroadcastNewProduct(product)

	s.writeJson(w, http.StatusCreated, product)
}

func (s *StoreApp) updateStock(w http.ResponseWriter, r *http.Request) {
	var req UpdateStockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if req.ProductId <= 0 || req.Stock < 0 {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	cur, err := s.db.GetProductById(req.ProductId)
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewNotFoundError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	updated, err := s.db.UpdateProductStock(req.ProductId, req.Stock)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	key := realtime.ProductKey(updated.Id)
	s.hub.BroadcastStockUpdate(key, updated.Stock, cur.Stock)
	s.hub.BroadcastProductUpdate(key, map[string]any{"stock": updated.Stock})

	s.writeJson(w, http.StatusOK, toProduct(updated))
}

func (s *StoreApp) updatePrice(w http.ResponseWriter, r *http.Request) {
	var req UpdatePriceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if req.ProductId <= 0 || req.Price < 0 {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	cur, err := s.db.GetProductById(req.ProductId)
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewNotFoundError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	updated, err := s.db.UpdateProductPrice(req.ProductId, req.Price)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	key := realtime.ProductKey(updated.Id)
	s.hub.BroadcastPriceUpdate(key, updated.Price, cur.Price)
	s.hub.BroadcastProductUpdate(key, map[string]any{"price": updated.Price})

	s.writeJson(w, http.StatusOK, toProduct(updated))
}

func (s *StoreApp) sendNotification(w http.ResponseWriter, r *http.Request) {
	var req SendNotificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if req.UserId <= 0 || len(req.Payload) == 0 {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	// delivery is best effort: a user with no live connections is a no-op
	s.hub.SendNotification(req.UserId, req.Payload)

	s.writeJson(w, http.StatusAccepted, nil)
}

func (s *StoreApp) connectionStats(w http.ResponseWriter, _ *http.Request) {
	s.writeJson(w, http.StatusOK, s.hub.Stats())
}

// serveWs upgrades the connection and registers it with the hub. The
// token query parameter is optional: a missing or invalid token degrades
// to an anonymous connection rather than rejecting the upgrade.
func (s *StoreApp) serveWs(w http.ResponseWriter, r *http.Request) {
	var user *types.User
	if tokenString := r.URL.Query().Get("token"); tokenString != "" {
		claims, err := s.verifier.Verify(tokenString)
		if err != nil {
			s.log.Println("ws token rejected, continuing anonymously:", err)
		} else {
			user = &types.User{Id: claims.UserId, Username: claims.Username}
		}
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			// only allow connections from allowed origins
			origin := r.Header.Get("Origin")
			if origin == "" {
				// if no origin header, allow the request
				return true
			}

			return slices.Contains(s.allowedOrigins, origin)
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Println("error upgrading connection:", err)
		return
	}

	client := s.hub.Register(conn, user)
	go client.Write()
	go client.Read()
}
