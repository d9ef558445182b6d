package postpurchase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	pkgerrors "github.com/retailgenie/orchestrator/pkg/errors"
	"github.com/retailgenie/orchestrator/pkg/logger"
)

const (
	returnWindowDays = 30
	feedbackPoints   = 50
)

type loyaltyAwarder interface {
	AwardLoyaltyPoints(ctx context.Context, userID uuid.UUID, points int) error
}

// ReturnInput initiates a return against a delivered order.
type ReturnInput struct {
	Reason     string   `json:"reason" validate:"required,min=3"`
	ProductIDs []string `json:"product_ids" validate:"omitempty,dive,required"`
}

// ExchangeInput swaps a delivered item for a new size or color.
type ExchangeInput struct {
	ProductID string `json:"product_id" validate:"required"`
	NewSize   string `json:"new_size" validate:"omitempty,max=10"`
	NewColor  string `json:"new_color" validate:"omitempty,max=40"`
	Reason    string `json:"reason" validate:"omitempty,max=500"`
}

// FeedbackInput rates a completed order.
type FeedbackInput struct {
	Rating  int    `json:"rating" validate:"required,gte=1,lte=5"`
	Comment string `json:"comment" validate:"omitempty,max=1000"`
}

// FeedbackResult reports the stored feedback and the loyalty points granted.
type FeedbackResult struct {
	Feedback      *Feedback `json:"feedback"`
	PointsAwarded int       `json:"points_awarded"`
}

// Service handles everything after checkout: status, tracking, returns,
// exchanges, and feedback.
type Service interface {
	GetOrder(ctx context.Context, userID uuid.UUID, orderID string) (*Order, error)
	ListOrders(ctx context.Context, userID uuid.UUID) ([]Order, error)
	ListReturnableOrders(ctx context.Context, userID uuid.UUID) ([]Order, error)
	TrackShipment(ctx context.Context, userID uuid.UUID, orderID string) (*Shipment, error)
	InitiateReturn(ctx context.Context, userID uuid.UUID, orderID string, input ReturnInput) (*Order, error)
	InitiateExchange(ctx context.Context, userID uuid.UUID, orderID string, input ExchangeInput) (*Order, error)
	SubmitFeedback(ctx context.Context, userID uuid.UUID, orderID string, input FeedbackInput) (*FeedbackResult, error)
}

type service struct {
	repo    Repository
	loyalty loyaltyAwarder
	logg    *logger.Logger
	now     func() time.Time
}

// ServiceParams collects the post-purchase dependencies. Loyalty is optional;
// without it feedback is stored but no points are granted.
type ServiceParams struct {
	Repo    Repository
	Loyalty loyaltyAwarder
	Logger  *logger.Logger
	Now     func() time.Time
}

// NewService builds the post-purchase service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("post-purchase repository is required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:    params.Repo,
		loyalty: params.Loyalty,
		logg:    params.Logger,
		now:     now,
	}, nil
}

func (s *service) GetOrder(ctx context.Context, userID uuid.UUID, orderID string) (*Order, error) {
	return s.ownedOrder(ctx, userID, orderID)
}

func (s *service) ListOrders(ctx context.Context, userID uuid.UUID) ([]Order, error) {
	return s.repo.ListOrdersByUser(ctx, userID)
}

func (s *service) ListReturnableOrders(ctx context.Context, userID uuid.UUID) ([]Order, error) {
	orders, err := s.repo.ListOrdersByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	returnable := []Order{}
	for _, order := range orders {
		if s.returnEligible(&order) == nil {
			returnable = append(returnable, order)
		}
	}
	return returnable, nil
}

func (s *service) TrackShipment(ctx context.Context, userID uuid.UUID, orderID string) (*Shipment, error) {
	if _, err := s.ownedOrder(ctx, userID, orderID); err != nil {
		return nil, err
	}
	return s.repo.GetShipment(ctx, orderID)
}

func (s *service) InitiateReturn(ctx context.Context, userID uuid.UUID, orderID string, input ReturnInput) (*Order, error) {
	order, err := s.ownedOrder(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	if err := s.returnEligible(order); err != nil {
		return nil, err
	}

	refund := order.Total
	var items []string
	if len(input.ProductIDs) > 0 {
		refund = 0
		for _, productID := range input.ProductIDs {
			item := findItem(order.Items, productID)
			if item == nil {
				return nil, pkgerrors.New(pkgerrors.CodeValidation,
					fmt.Sprintf("product %s is not part of this order", productID))
			}
			refund += item.Price * float64(item.Quantity)
			items = append(items, productID)
		}
	}

	order.Return = &ReturnRequest{
		ID:           uuid.NewString(),
		Reason:       strings.TrimSpace(input.Reason),
		ProductIDs:   items,
		RefundAmount: refund,
		Status:       "initiated",
		CreatedAt:    s.now().UTC(),
	}
	order.Status = StatusReturnPending

	if err := s.repo.UpdateOrder(ctx, order); err != nil {
		return nil, err
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithField(ctx, "order_id", order.ID), "postpurchase.return_initiated")
	}
	return order, nil
}

func (s *service) InitiateExchange(ctx context.Context, userID uuid.UUID, orderID string, input ExchangeInput) (*Order, error) {
	order, err := s.ownedOrder(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	if err := s.returnEligible(order); err != nil {
		return nil, err
	}
	if input.NewSize == "" && input.NewColor == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "a new size or color is required")
	}
	if findItem(order.Items, input.ProductID) == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product is not part of this order")
	}

	order.Exchange = &ExchangeRequest{
		ID:        uuid.NewString(),
		ProductID: input.ProductID,
		NewSize:   input.NewSize,
		NewColor:  input.NewColor,
		Reason:    strings.TrimSpace(input.Reason),
		Status:    "initiated",
		CreatedAt: s.now().UTC(),
	}

	if err := s.repo.UpdateOrder(ctx, order); err != nil {
		return nil, err
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithField(ctx, "order_id", order.ID), "postpurchase.exchange_initiated")
	}
	return order, nil
}

func (s *service) SubmitFeedback(ctx context.Context, userID uuid.UUID, orderID string, input FeedbackInput) (*FeedbackResult, error) {
	order, err := s.ownedOrder(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}

	exists, err := s.repo.FeedbackExists(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "feedback already submitted for this order")
	}

	fb := &Feedback{
		ID:            uuid.NewString(),
		OrderID:       order.ID,
		UserID:        userID,
		Rating:        input.Rating,
		Comment:       strings.TrimSpace(input.Comment),
		PointsAwarded: feedbackPoints,
		CreatedAt:     s.now().UTC(),
	}
	if err := s.repo.AppendFeedback(ctx, fb); err != nil {
		return nil, err
	}

	if s.loyalty != nil {
		if err := s.loyalty.AwardLoyaltyPoints(ctx, userID, feedbackPoints); err != nil {
			// Feedback is already stored; points failing to land is not worth
			// surfacing to the customer.
			if s.logg != nil {
				s.logg.Error(ctx, "postpurchase.loyalty_award_failed", err)
			}
		}
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithField(ctx, "order_id", order.ID), "postpurchase.feedback_received")
	}
	return &FeedbackResult{Feedback: fb, PointsAwarded: feedbackPoints}, nil
}

// ownedOrder loads an order and checks it belongs to the caller. A foreign
// order reads as not found so order IDs cannot be probed.
func (s *service) ownedOrder(ctx context.Context, userID uuid.UUID, orderID string) (*Order, error) {
	if strings.TrimSpace(orderID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	order, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

func (s *service) returnEligible(order *Order) error {
	if order.Status != StatusDelivered {
		return pkgerrors.New(pkgerrors.CodeValidation, "only delivered orders can be returned or exchanged")
	}
	if order.DeliveredAt == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "delivery date is missing for this order")
	}
	if s.now().Sub(*order.DeliveredAt) > returnWindowDays*24*time.Hour {
		return pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("the %d-day return window for this order has closed", returnWindowDays))
	}
	if order.Return != nil {
		return pkgerrors.New(pkgerrors.CodeConflict, "a return is already in progress for this order")
	}
	return nil
}

func findItem(items []OrderItem, productID string) *OrderItem {
	for i := range items {
		if items[i].ProductID == productID {
			return &items[i]
		}
	}
	return nil
}
