package http

import (
	"time"

	"shop-api/internal/domain"
	"shop-api/internal/service"
)

type CustomerResponse struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

type SessionResponse struct {
	Customer    CustomerResponse `json:"customer"`
	AccessToken string           `json:"access_token"`
	ExpiresAt   string           `json:"expiresAt"`
}

type ProductResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       int64  `json:"price"`
	Stock       int    `json:"stock"`
	ImageURL    string `json:"imageUrl,omitempty"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
}

type OrderResponse struct {
	ID         int64               `json:"id"`
	CustomerID int64               `json:"customerId"`
	Reference  string              `json:"reference"`
	Status     domain.OrderStatus  `json:"status"`
	Total      int64               `json:"total"`
	Items      []OrderItemResponse `json:"items"`
	CreatedAt  string              `json:"createdAt"`
	UpdatedAt  string              `json:"updatedAt"`
}

type OrderItemResponse struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
	UnitPrice int64 `json:"unitPrice"`
}

func customerToResponse(customer *domain.Customer) CustomerResponse {
	return CustomerResponse{
		ID:        customer.ID,
		Name:      customer.Name,
		Email:     customer.Email,
		CreatedAt: customer.CreatedAt.Format(time.RFC3339),
		UpdatedAt: customer.UpdatedAt.Format(time.RFC3339),
	}
}

func sessionToResponse(session *service.Session) SessionResponse {
	return SessionResponse{
		Customer:    customerToResponse(session.Customer),
		AccessToken: session.AccessToken,
		ExpiresAt:   session.ExpiresAt.Format(time.RFC3339),
	}
}

func productToResponse(product *domain.Product, imageURL string) ProductResponse {
	return ProductResponse{
		ID:          product.ID,
		Name:        product.Name,
		Description: product.Description,
		Price:       product.Price,
		Stock:       product.Stock,
		ImageURL:    imageURL,
		CreatedAt:   product.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   product.UpdatedAt.Format(time.RFC3339),
	}
}

func orderToResponse(order *domain.Order) OrderResponse {
	resp := OrderResponse{
		ID:         order.ID,
		CustomerID: order.CustomerID,
		Reference:  order.Reference,
		Status:     order.Status,
		Total:      order.Total,
		Items:      make([]OrderItemResponse, len(order.Items)),
		CreatedAt:  order.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  order.UpdatedAt.Format(time.RFC3339),
	}
	for i := range order.Items {
		resp.Items[i] = OrderItemResponse{
			ProductID: order.Items[i].ProductID,
			Quantity:  order.Items[i].Quantity,
			UnitPrice: order.Items[i].UnitPrice,
		}
	}
	return resp
}
