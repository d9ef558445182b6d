package postpurchase

import (
	"context"
	"sync"

	"github.com/google/uuid"
	pkgerrors "github.com/retailgenie/orchestrator/pkg/errors"
	"github.com/retailgenie/orchestrator/pkg/jsonstore"
)

// Repository persists orders, shipments, and feedback.
type Repository interface {
	GetOrder(ctx context.Context, orderID string) (*Order, error)
	ListOrdersByUser(ctx context.Context, userID uuid.UUID) ([]Order, error)
	UpdateOrder(ctx context.Context, order *Order) error
	GetShipment(ctx context.Context, orderID string) (*Shipment, error)
	FeedbackExists(ctx context.Context, orderID string) (bool, error)
	AppendFeedback(ctx context.Context, fb *Feedback) error
}

type orderDocument struct {
	Orders []Order `json:"orders"`
}

type shipmentDocument struct {
	Shipments []Shipment `json:"shipments"`
}

type feedbackDocument struct {
	Feedback []Feedback `json:"feedback"`
}

type fileRepository struct {
	mu        sync.RWMutex
	orderFile *jsonstore.File
	fbFile    *jsonstore.File
	orders    []Order
	shipments []Shipment
	feedback  []Feedback
}

// RepositoryPaths locates the flat-file documents backing the repository.
type RepositoryPaths struct {
	Orders    string
	Shipments string
	Feedback  string
}

// NewFileRepository loads the order, shipment, and feedback documents.
// Orders and shipments are seed data; only orders and feedback are written
// back.
func NewFileRepository(paths RepositoryPaths) (Repository, error) {
	orderFile, err := jsonstore.Open(paths.Orders)
	if err != nil {
		return nil, err
	}
	shipmentFile, err := jsonstore.Open(paths.Shipments)
	if err != nil {
		return nil, err
	}
	fbFile, err := jsonstore.Open(paths.Feedback)
	if err != nil {
		return nil, err
	}

	var orders orderDocument
	if err := orderFile.LoadOr(&orders); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load orders document")
	}
	var shipments shipmentDocument
	if err := shipmentFile.LoadOr(&shipments); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load shipments document")
	}
	var feedback feedbackDocument
	if err := fbFile.LoadOr(&feedback); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load feedback document")
	}

	return &fileRepository{
		orderFile: orderFile,
		fbFile:    fbFile,
		orders:    orders.Orders,
		shipments: shipments.Shipments,
		feedback:  feedback.Feedback,
	}, nil
}

func (r *fileRepository) GetOrder(_ context.Context, orderID string) (*Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for i := range r.orders {
		if r.orders[i].ID == orderID {
			order := r.orders[i]
			return &order, nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
}

func (r *fileRepository) ListOrdersByUser(_ context.Context, userID uuid.UUID) ([]Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matches := []Order{}
	for i := range r.orders {
		if r.orders[i].UserID == userID {
			matches = append(matches, r.orders[i])
		}
	}
	return matches, nil
}

func (r *fileRepository) UpdateOrder(_ context.Context, order *Order) error {
	if order == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "order is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.orders {
		if r.orders[i].ID == order.ID {
			r.orders[i] = *order
			if err := r.orderFile.Save(orderDocument{Orders: r.orders}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persist orders document")
			}
			return nil
		}
	}
	return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
}

func (r *fileRepository) GetShipment(_ context.Context, orderID string) (*Shipment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for i := range r.shipments {
		if r.shipments[i].OrderID == orderID {
			shipment := r.shipments[i]
			return &shipment, nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no shipment found for this order")
}

func (r *fileRepository) FeedbackExists(_ context.Context, orderID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for i := range r.feedback {
		if r.feedback[i].OrderID == orderID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fileRepository) AppendFeedback(_ context.Context, fb *Feedback) error {
	if fb == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "feedback is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.feedback = append(r.feedback, *fb)
	if err := r.fbFile.Save(feedbackDocument{Feedback: r.feedback}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persist feedback document")
	}
	return nil
}
