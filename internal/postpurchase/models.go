package postpurchase

import (
	"time"

	"github.com/google/uuid"
)

// OrderStatus tracks an order through fulfillment.
type OrderStatus string

const (
	StatusPlaced         OrderStatus = "placed"
	StatusConfirmed      OrderStatus = "confirmed"
	StatusShipped        OrderStatus = "shipped"
	StatusOutForDelivery OrderStatus = "out_for_delivery"
	StatusDelivered      OrderStatus = "delivered"
	StatusCancelled      OrderStatus = "cancelled"
	StatusReturnPending  OrderStatus = "return_initiated"
	StatusReturned       OrderStatus = "returned"
)

// OrderItem is one line of a placed order.
type OrderItem struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	Size      string  `json:"size,omitempty"`
	Color     string  `json:"color,omitempty"`
}

// ReturnRequest records a return initiated against a delivered order.
type ReturnRequest struct {
	ID           string    `json:"id"`
	Reason       string    `json:"reason"`
	ProductIDs   []string  `json:"product_ids,omitempty"`
	RefundAmount float64   `json:"refund_amount"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

// ExchangeRequest records a size or color swap against a delivered order.
type ExchangeRequest struct {
	ID        string    `json:"id"`
	ProductID string    `json:"product_id"`
	NewSize   string    `json:"new_size,omitempty"`
	NewColor  string    `json:"new_color,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// Order is the persisted order record.
type Order struct {
	ID          string           `json:"id"`
	UserID      uuid.UUID        `json:"user_id"`
	Items       []OrderItem      `json:"items"`
	Total       float64          `json:"total"`
	Status      OrderStatus      `json:"status"`
	PlacedAt    time.Time        `json:"placed_at"`
	DeliveredAt *time.Time       `json:"delivered_at,omitempty"`
	Return      *ReturnRequest   `json:"return,omitempty"`
	Exchange    *ExchangeRequest `json:"exchange,omitempty"`
}

// TrackingEvent is one scan point in a shipment's journey.
type TrackingEvent struct {
	Status   string    `json:"status"`
	Location string    `json:"location,omitempty"`
	At       time.Time `json:"at"`
}

// Shipment carries courier tracking for an order.
type Shipment struct {
	OrderID           string          `json:"order_id"`
	TrackingID        string          `json:"tracking_id"`
	Carrier           string          `json:"carrier"`
	Status            string          `json:"status"`
	EstimatedDelivery *time.Time      `json:"estimated_delivery,omitempty"`
	Events            []TrackingEvent `json:"events"`
}

// Feedback is a post-delivery rating for an order.
type Feedback struct {
	ID            string    `json:"id"`
	OrderID       string    `json:"order_id"`
	UserID        uuid.UUID `json:"user_id"`
	Rating        int       `json:"rating"`
	Comment       string    `json:"comment,omitempty"`
	PointsAwarded int       `json:"points_awarded"`
	CreatedAt     time.Time `json:"created_at"`
}
