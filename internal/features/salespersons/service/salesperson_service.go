package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"leopards-connector/internal/core/logger"
	"leopards-connector/internal/features/salespersons/domain"
	"leopards-connector/internal/features/salespersons/ports"

	"go.uber.org/zap"
)

var (
	// ErrEmployeeNotFound is returned when assigning an unknown or archived employee.
	ErrEmployeeNotFound = errors.New("employee not found")
	// ErrLineNotFound is returned when the order line does not exist.
	ErrLineNotFound = errors.New("order line not found")
	// ErrInvalidPeriod is returned when the report end precedes its start.
	ErrInvalidPeriod = errors.New("report end is before start")
)

// SalespersonService manages line salespersons of the POS.
type SalespersonService struct {
	repo   ports.Repository
	logger *zap.Logger
}

// NewSalespersonService creates a new SalespersonService.
func NewSalespersonService(repo ports.Repository) *SalespersonService {
	return &SalespersonService{repo: repo, logger: logger.Named("salespersons")}
}

// SaveEmployee stores an employee.
func (s *SalespersonService) SaveEmployee(ctx context.Context, e *domain.Employee) error {
	return s.repo.SaveEmployee(ctx, e)
}

// SaveConfig stores a POS config with its employee lists.
func (s *SalespersonService) SaveConfig(ctx context.Context, cfg *domain.Config) error {
	return s.repo.SaveConfig(ctx, cfg)
}

// CreateOrderLine stores a POS order line.
func (s *SalespersonService) CreateOrderLine(ctx context.Context, line *domain.OrderLine) error {
	return s.repo.CreateOrderLine(ctx, line)
}

// ForConfig returns the salespersons selectable on the config's lines. An unknown config yields none.
func (s *SalespersonService) ForConfig(ctx context.Context, configID uint) ([]domain.Salesperson, error) {
	cfg, err := s.repo.GetConfig(ctx, configID)
	if err != nil {
		return nil, fmt.Errorf("failed to load pos config: %w", err)
	}
	if cfg == nil {
		return []domain.Salesperson{}, nil
	}

	employees, err := s.repo.CandidateEmployees(ctx, cfg.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("failed to load employees: %w", err)
	}
	return domain.SelectSalespersons(*cfg, employees), nil
}

// AssignToLine credits the line to the employee. A zero employeeID clears the salesperson.
func (s *SalespersonService) AssignToLine(ctx context.Context, lineID, employeeID uint) error {
	var (
		id   *uint
		name string
	)
	if employeeID != 0 {
		e, err := s.repo.GetEmployee(ctx, employeeID)
		if err != nil {
			return fmt.Errorf("failed to load employee: %w", err)
		}
		if e == nil || !e.Active {
			return ErrEmployeeNotFound
		}
		id, name = &e.ID, e.Name
	}

	if err := s.repo.SetLineSalesperson(ctx, lineID, id, name); err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return ErrLineNotFound
		}
		return err
	}

	s.logger.Debug("Line salesperson set", zap.Uint("line_id", lineID), zap.String("salesperson", name))
	return nil
}

// Report aggregates lines by salesperson over [from, to). Zero bounds are open.
func (s *SalespersonService) Report(ctx context.Context, from, to time.Time) ([]domain.ReportRow, error) {
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return nil, ErrInvalidPeriod
	}
	return s.repo.Report(ctx, from, to)
}
