package ports

import (
	"context"
	"errors"
	"time"

	"leopards-connector/internal/features/salespersons/domain"
)

// ErrNotFound is returned by writes that target a missing record.
var ErrNotFound = errors.New("record not found")

// Repository persists employees, POS configs and order lines.
type Repository interface {
	SaveEmployee(ctx context.Context, e *domain.Employee) error
	// GetEmployee returns nil, nil when the employee does not exist.
	GetEmployee(ctx context.Context, id uint) (*domain.Employee, error)
	// CandidateEmployees returns active employees without a company or in companyID.
	CandidateEmployees(ctx context.Context, companyID uint) ([]domain.Employee, error)

	// SaveConfig upserts the config and replaces its employee lists.
	SaveConfig(ctx context.Context, cfg *domain.Config) error
	// GetConfig returns nil, nil when the config does not exist.
	GetConfig(ctx context.Context, id uint) (*domain.Config, error)

	CreateOrderLine(ctx context.Context, line *domain.OrderLine) error
	// SetLineSalesperson credits the line. It returns ErrNotFound for a missing line.
	SetLineSalesperson(ctx context.Context, lineID uint, employeeID *uint, name string) error
	// Report aggregates lines created in [from, to). Zero bounds are open.
	Report(ctx context.Context, from, to time.Time) ([]domain.ReportRow, error)
}

// SalespersonService is the primary port used by the HTTP handler.
type SalespersonService interface {
	SaveEmployee(ctx context.Context, e *domain.Employee) error
	SaveConfig(ctx context.Context, cfg *domain.Config) error
	CreateOrderLine(ctx context.Context, line *domain.OrderLine) error
	ForConfig(ctx context.Context, configID uint) ([]domain.Salesperson, error)
	AssignToLine(ctx context.Context, lineID, employeeID uint) error
	Report(ctx context.Context, from, to time.Time) ([]domain.ReportRow, error)
}
