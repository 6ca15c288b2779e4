// Package store implements the persistence collaborators: a Postgres-backed
// ticket store and a Redis-backed session snapshot store. Both are optional;
// the engine runs degraded but fully functional without them.
package store

import (
	"context"
	"errors"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/helpdeskhq/support-router/tickets"
	"github.com/helpdeskhq/support-router/types"
)

// TicketStore persists tickets in Postgres through GORM.
type TicketStore struct {
	db *gorm.DB
}

// NewTicketStore connects to Postgres and migrates the tickets table.
func NewTicketStore(dsn string) (*TicketStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&tickets.Ticket{}); err != nil {
		return nil, err
	}
	return &TicketStore{db: db}, nil
}

// NewTicketStoreWithDB wraps an existing GORM handle (used by tests).
func NewTicketStoreWithDB(db *gorm.DB) *TicketStore {
	return &TicketStore{db: db}
}

// SaveTicket inserts a new ticket row.
func (s *TicketStore) SaveTicket(ctx context.Context, t *tickets.Ticket) error {
	return s.db.WithContext(ctx).Create(t).Error
}

// UpdateTicket writes the full ticket state back.
func (s *TicketStore) UpdateTicket(ctx context.Context, t *tickets.Ticket) error {
	return s.db.WithContext(ctx).Save(t).Error
}

// GetTicket loads a ticket by ID.
func (s *TicketStore) GetTicket(ctx context.Context, id string) (*tickets.Ticket, error) {
	var t tickets.Ticket
	if err := s.db.WithContext(ctx).First(&t, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.ErrTicketNotFound
		}
		return nil, err
	}
	return &t, nil
}

// ListByEmail returns a customer's tickets, newest first.
func (s *TicketStore) ListByEmail(ctx context.Context, email string) ([]tickets.Ticket, error) {
	var out []tickets.Ticket
	err := s.db.WithContext(ctx).
		Where("customer_email = ?", email).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}
