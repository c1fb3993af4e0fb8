package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"leopards-connector/internal/features/salespersons/domain"
	"leopards-connector/internal/features/salespersons/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// mockRepository is a testify mock of ports.Repository.
type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) SaveEmployee(ctx context.Context, e *domain.Employee) error {
	return m.Called(ctx, e).Error(0)
}

func (m *mockRepository) GetEmployee(ctx context.Context, id uint) (*domain.Employee, error) {
	args := m.Called(ctx, id)
	e, _ := args.Get(0).(*domain.Employee)
	return e, args.Error(1)
}

func (m *mockRepository) CandidateEmployees(ctx context.Context, companyID uint) ([]domain.Employee, error) {
	args := m.Called(ctx, companyID)
	employees, _ := args.Get(0).([]domain.Employee)
	return employees, args.Error(1)
}

func (m *mockRepository) SaveConfig(ctx context.Context, cfg *domain.Config) error {
	return m.Called(ctx, cfg).Error(0)
}

func (m *mockRepository) GetConfig(ctx context.Context, id uint) (*domain.Config, error) {
	args := m.Called(ctx, id)
	cfg, _ := args.Get(0).(*domain.Config)
	return cfg, args.Error(1)
}

func (m *mockRepository) CreateOrderLine(ctx context.Context, line *domain.OrderLine) error {
	return m.Called(ctx, line).Error(0)
}

func (m *mockRepository) SetLineSalesperson(ctx context.Context, lineID uint, employeeID *uint, name string) error {
	return m.Called(ctx, lineID, employeeID, name).Error(0)
}

func (m *mockRepository) Report(ctx context.Context, from, to time.Time) ([]domain.ReportRow, error) {
	args := m.Called(ctx, from, to)
	rows, _ := args.Get(0).([]domain.ReportRow)
	return rows, args.Error(1)
}

// TestForConfig verifies the lookup chain and the unknown config.
func TestForConfig(t *testing.T) {
	ctx := context.Background()

	t.Run("selects from candidates", func(t *testing.T) {
		repo := &mockRepository{}
		repo.On("GetConfig", ctx, uint(2)).Return(&domain.Config{ID: 2, CompanyID: 1, LineEmployeeIDs: []uint{4}}, nil)
		repo.On("CandidateEmployees", ctx, uint(1)).Return([]domain.Employee{
			{ID: 3, Name: "Ali", Active: true, ShowInPOSSalesperson: true},
			{ID: 4, Name: "Bilal", Active: true},
		}, nil)

		people, err := NewSalespersonService(repo).ForConfig(ctx, 2)
		require.NoError(t, err)
		require.Len(t, people, 1)
		assert.Equal(t, uint(4), people[0].ID)
		repo.AssertExpectations(t)
	})

	t.Run("unknown config", func(t *testing.T) {
		repo := &mockRepository{}
		repo.On("GetConfig", ctx, uint(9)).Return(nil, nil)

		people, err := NewSalespersonService(repo).ForConfig(ctx, 9)
		require.NoError(t, err)
		assert.NotNil(t, people)
		assert.Empty(t, people)
		repo.AssertNotCalled(t, "CandidateEmployees", mock.Anything, mock.Anything)
	})

	t.Run("repository failure", func(t *testing.T) {
		repo := &mockRepository{}
		repo.On("GetConfig", ctx, uint(2)).Return(&domain.Config{ID: 2}, nil)
		repo.On("CandidateEmployees", ctx, uint(0)).Return(nil, errors.New("db down"))

		_, err := NewSalespersonService(repo).ForConfig(ctx, 2)
		assert.ErrorContains(t, err, "db down")
	})
}

// TestAssignToLine verifies crediting, clearing and the not-found mappings.
func TestAssignToLine(t *testing.T) {
	ctx := context.Background()

	t.Run("credits active employee", func(t *testing.T) {
		repo := &mockRepository{}
		repo.On("GetEmployee", ctx, uint(4)).Return(&domain.Employee{ID: 4, Name: "Bilal", Active: true}, nil)
		repo.On("SetLineSalesperson", ctx, uint(10), mock.MatchedBy(func(id *uint) bool {
			return id != nil && *id == 4
		}), "Bilal").Return(nil)

		require.NoError(t, NewSalespersonService(repo).AssignToLine(ctx, 10, 4))
		repo.AssertExpectations(t)
	})

	t.Run("zero clears", func(t *testing.T) {
		repo := &mockRepository{}
		repo.On("SetLineSalesperson", ctx, uint(10), (*uint)(nil), "").Return(nil)

		require.NoError(t, NewSalespersonService(repo).AssignToLine(ctx, 10, 0))
		repo.AssertNotCalled(t, "GetEmployee", mock.Anything, mock.Anything)
	})

	t.Run("unknown employee", func(t *testing.T) {
		repo := &mockRepository{}
		repo.On("GetEmployee", ctx, uint(4)).Return(nil, nil)

		err := NewSalespersonService(repo).AssignToLine(ctx, 10, 4)
		assert.ErrorIs(t, err, ErrEmployeeNotFound)
	})

	t.Run("archived employee", func(t *testing.T) {
		repo := &mockRepository{}
		repo.On("GetEmployee", ctx, uint(4)).Return(&domain.Employee{ID: 4, Name: "Bilal"}, nil)

		err := NewSalespersonService(repo).AssignToLine(ctx, 10, 4)
		assert.ErrorIs(t, err, ErrEmployeeNotFound)
		repo.AssertNotCalled(t, "SetLineSalesperson", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("missing line", func(t *testing.T) {
		repo := &mockRepository{}
		repo.On("SetLineSalesperson", ctx, uint(10), (*uint)(nil), "").Return(ports.ErrNotFound)

		err := NewSalespersonService(repo).AssignToLine(ctx, 10, 0)
		assert.ErrorIs(t, err, ErrLineNotFound)
	})
}

// TestReport verifies the period check.
func TestReport(t *testing.T) {
	ctx := context.Background()
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	repo := &mockRepository{}
	repo.On("Report", ctx, from, to).Return([]domain.ReportRow{{SalespersonName: "Ali", Lines: 2}}, nil)
	svc := NewSalespersonService(repo)

	rows, err := svc.Report(ctx, from, to)
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	_, err = svc.Report(ctx, to, from)
	assert.ErrorIs(t, err, ErrInvalidPeriod)
	repo.AssertNumberOfCalls(t, "Report", 1)
}
