// Package orderstore is the order database collaborator. It answers order
// lookups for the order handler; the engine treats it as an external system
// that can be unavailable.
package orderstore

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// OrderStatus is the fulfillment state of an order.
type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusProcessing OrderStatus = "processing"
	StatusShipped    OrderStatus = "shipped"
	StatusDelivered  OrderStatus = "delivered"
	StatusCancelled  OrderStatus = "cancelled"
	StatusReturned   OrderStatus = "returned"
	StatusRefunded   OrderStatus = "refunded"
)

// Order is a customer order record.
type Order struct {
	OrderNumber    string
	CustomerEmail  string
	CustomerName   string
	ItemSummary    string
	TotalAmount    float64
	Status         OrderStatus
	TrackingNumber string
	OrderDate      time.Time
	ShippedDate    time.Time
	DeliveredDate  time.Time
}

// LookupResult is what an order lookup returns. Found false with a Message
// covers both missing orders and collaborator failures.
type LookupResult struct {
	Found   bool
	Order   *Order
	Message string
}

// Lookuper resolves order numbers to orders.
type Lookuper interface {
	Lookup(ctx context.Context, orderNumber string) (LookupResult, error)
}

// Store is an in-memory seeded order database.
type Store struct {
	mu     sync.RWMutex
	orders map[string]*Order
}

// New creates a store over the given orders. Pass SeedOrders() for demo data.
func New(orders []Order) *Store {
	s := &Store{orders: make(map[string]*Order, len(orders))}
	for i := range orders {
		o := orders[i]
		s.orders[strings.ToUpper(o.OrderNumber)] = &o
	}
	return s
}

// Lookup finds an order by its canonical number.
func (s *Store) Lookup(_ context.Context, orderNumber string) (LookupResult, error) {
	key := strings.ToUpper(strings.TrimSpace(orderNumber))

	s.mu.RLock()
	o, ok := s.orders[key]
	s.mu.RUnlock()

	if !ok {
		return LookupResult{
			Found:   false,
			Message: fmt.Sprintf("Order %s not found", orderNumber),
		}, nil
	}
	cp := *o
	return LookupResult{
		Found:   true,
		Order:   &cp,
		Message: fmt.Sprintf("Order %s found", orderNumber),
	}, nil
}

// Put inserts or replaces an order.
func (s *Store) Put(o Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := o
	s.orders[strings.ToUpper(o.OrderNumber)] = &cp
}

// StatusDescription renders a customer-facing description of the order state.
func StatusDescription(o *Order) string {
	switch o.Status {
	case StatusPending:
		return "Your order is being prepared."
	case StatusProcessing:
		return "Your order is being processed."
	case StatusShipped:
		if !o.ShippedDate.IsZero() {
			return fmt.Sprintf("Your order shipped on %s.", o.ShippedDate.Format("January 2, 2006"))
		}
		return "Your order shipped recently."
	case StatusDelivered:
		if !o.DeliveredDate.IsZero() {
			return fmt.Sprintf("Your order was delivered on %s.", o.DeliveredDate.Format("January 2, 2006"))
		}
		return "Your order was delivered."
	case StatusCancelled:
		return "Your order was cancelled."
	case StatusReturned:
		return "Your return was received."
	case StatusRefunded:
		return "Your refund has been processed."
	default:
		return fmt.Sprintf("Your order status is %s.", o.Status)
	}
}

// SeedOrders returns a small demo order book.
func SeedOrders() []Order {
	return []Order{
		{
			OrderNumber:    "ORD-2024-001",
			CustomerEmail:  "jane@example.com",
			CustomerName:   "Jane Doe",
			ItemSummary:    "Stainless blender",
			TotalAmount:    89.99,
			Status:         StatusShipped,
			TrackingNumber: "1Z999AA10123456784",
			OrderDate:      time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC),
			ShippedDate:    time.Date(2024, 5, 4, 16, 30, 0, 0, time.UTC),
		},
		{
			OrderNumber:   "ORD-2024-002",
			CustomerEmail: "sam@example.com",
			CustomerName:  "Sam Lee",
			ItemSummary:   "Espresso grinder",
			TotalAmount:   154.50,
			Status:        StatusProcessing,
			OrderDate:     time.Date(2024, 5, 10, 9, 15, 0, 0, time.UTC),
		},
		{
			OrderNumber:    "ORD-2024-003",
			CustomerEmail:  "jane@example.com",
			CustomerName:   "Jane Doe",
			ItemSummary:    "Ceramic dinner set",
			TotalAmount:    212.00,
			Status:         StatusDelivered,
			TrackingNumber: "9400100000000000000000001111",
			OrderDate:      time.Date(2024, 4, 20, 14, 45, 0, 0, time.UTC),
			ShippedDate:    time.Date(2024, 4, 22, 11, 0, 0, 0, time.UTC),
			DeliveredDate:  time.Date(2024, 4, 26, 18, 20, 0, 0, time.UTC),
		},
	}
}
