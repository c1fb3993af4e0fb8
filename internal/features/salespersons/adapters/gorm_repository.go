package adapters

import (
	"context"
	"errors"
	"fmt"
	"time"

	"leopards-connector/internal/features/salespersons/domain"
	"leopards-connector/internal/features/salespersons/ports"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// EmployeeModel is the persisted form of domain.Employee.
type EmployeeModel struct {
	ID                   uint   `gorm:"primaryKey"`
	Name                 string `gorm:"size:255;not null;index"`
	Active               bool   `gorm:"not null"`
	CompanyID            *uint  `gorm:"index"`
	ShowInPOSSalesperson bool   `gorm:"column:show_in_pos_salesperson;not null"`
}

func (EmployeeModel) TableName() string { return "employees" }

// ConfigModel is the persisted form of domain.Config without its employee lists.
type ConfigModel struct {
	ID           uint `gorm:"primaryKey"`
	CompanyID    uint `gorm:"not null"`
	POSHREnabled bool `gorm:"column:pos_hr_enabled;not null"`
}

func (ConfigModel) TableName() string { return "pos_configs" }

// ConfigEmployeeModel places an employee on one list of a config.
type ConfigEmployeeModel struct {
	ConfigID   uint   `gorm:"primaryKey"`
	EmployeeID uint   `gorm:"primaryKey"`
	Role       string `gorm:"primaryKey;size:16"`
}

func (ConfigEmployeeModel) TableName() string { return "pos_config_employees" }

// OrderLineModel is the persisted form of domain.OrderLine.
type OrderLineModel struct {
	ID                    uint            `gorm:"primaryKey"`
	OrderRef              string          `gorm:"size:128;index"`
	ProductName           string          `gorm:"size:255"`
	Qty                   float64         `gorm:"not null"`
	PriceSubtotal         decimal.Decimal `gorm:"type:numeric(14,2)"`
	SalespersonName       string          `gorm:"size:255"`
	SalespersonEmployeeID *uint
	CreatedAt             time.Time `gorm:"index"`
}

func (OrderLineModel) TableName() string { return "pos_order_lines" }

// Models returns the models to migrate for salespersons.
func Models() []any {
	return []any{&EmployeeModel{}, &ConfigModel{}, &ConfigEmployeeModel{}, &OrderLineModel{}}
}

func (m EmployeeModel) toDomain() domain.Employee {
	return domain.Employee{
		ID:                   m.ID,
		Name:                 m.Name,
		Active:               m.Active,
		CompanyID:            m.CompanyID,
		ShowInPOSSalesperson: m.ShowInPOSSalesperson,
	}
}

// GormRepository implements ports.Repository using GORM.
type GormRepository struct {
	db *gorm.DB
}

// NewGormRepository creates a new GormRepository.
func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

// SaveEmployee inserts or updates an employee.
func (r *GormRepository) SaveEmployee(ctx context.Context, e *domain.Employee) error {
	m := EmployeeModel{
		ID:                   e.ID,
		Name:                 e.Name,
		Active:               e.Active,
		CompanyID:            e.CompanyID,
		ShowInPOSSalesperson: e.ShowInPOSSalesperson,
	}
	if err := r.db.WithContext(ctx).Save(&m).Error; err != nil {
		return fmt.Errorf("failed to save employee: %w", err)
	}
	e.ID = m.ID
	return nil
}

// GetEmployee returns the employee or nil, nil when it does not exist.
func (r *GormRepository) GetEmployee(ctx context.Context, id uint) (*domain.Employee, error) {
	var m EmployeeModel
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get employee: %w", err)
	}
	e := m.toDomain()
	return &e, nil
}

// CandidateEmployees returns active employees that are shared or belong to companyID, ordered by name.
func (r *GormRepository) CandidateEmployees(ctx context.Context, companyID uint) ([]domain.Employee, error) {
	var models []EmployeeModel
	err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Where("company_id IS NULL OR company_id = ?", companyID).
		Order("name ASC").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}

	out := make([]domain.Employee, 0, len(models))
	for _, m := range models {
		out = append(out, m.toDomain())
	}
	return out, nil
}

// SaveConfig upserts the config and replaces its employee lists in one transaction.
func (r *GormRepository) SaveConfig(ctx context.Context, cfg *domain.Config) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m := ConfigModel{ID: cfg.ID, CompanyID: cfg.CompanyID, POSHREnabled: cfg.POSHREnabled}
		if err := tx.Save(&m).Error; err != nil {
			return fmt.Errorf("failed to save pos config: %w", err)
		}

		if err := tx.Where("config_id = ?", m.ID).Delete(&ConfigEmployeeModel{}).Error; err != nil {
			return fmt.Errorf("failed to reset pos config employees: %w", err)
		}

		var rows []ConfigEmployeeModel
		seen := map[ConfigEmployeeModel]bool{}
		add := func(role domain.Role, ids []uint) {
			for _, id := range ids {
				row := ConfigEmployeeModel{ConfigID: m.ID, EmployeeID: id, Role: string(role)}
				if id == 0 || seen[row] {
					continue
				}
				seen[row] = true
				rows = append(rows, row)
			}
		}
		add(domain.RoleLine, cfg.LineEmployeeIDs)
		add(domain.RoleBasic, cfg.BasicEmployeeIDs)
		add(domain.RoleAdvanced, cfg.AdvancedEmployeeIDs)
		add(domain.RoleMinimal, cfg.MinimalEmployeeIDs)

		if len(rows) > 0 {
			if err := tx.Create(&rows).Error; err != nil {
				return fmt.Errorf("failed to store pos config employees: %w", err)
			}
		}

		cfg.ID = m.ID
		return nil
	})
}

// GetConfig returns the config with its employee lists, or nil, nil when it does not exist.
func (r *GormRepository) GetConfig(ctx context.Context, id uint) (*domain.Config, error) {
	db := r.db.WithContext(ctx)

	var m ConfigModel
	if err := db.First(&m, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get pos config: %w", err)
	}

	var rows []ConfigEmployeeModel
	if err := db.Where("config_id = ?", id).Order("employee_id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load pos config employees: %w", err)
	}

	cfg := &domain.Config{ID: m.ID, CompanyID: m.CompanyID, POSHREnabled: m.POSHREnabled}
	for _, row := range rows {
		switch domain.Role(row.Role) {
		case domain.RoleLine:
			cfg.LineEmployeeIDs = append(cfg.LineEmployeeIDs, row.EmployeeID)
		case domain.RoleBasic:
			cfg.BasicEmployeeIDs = append(cfg.BasicEmployeeIDs, row.EmployeeID)
		case domain.RoleAdvanced:
			cfg.AdvancedEmployeeIDs = append(cfg.AdvancedEmployeeIDs, row.EmployeeID)
		case domain.RoleMinimal:
			cfg.MinimalEmployeeIDs = append(cfg.MinimalEmployeeIDs, row.EmployeeID)
		}
	}
	return cfg, nil
}

// CreateOrderLine inserts an order line.
func (r *GormRepository) CreateOrderLine(ctx context.Context, line *domain.OrderLine) error {
	m := OrderLineModel{
		OrderRef:              line.OrderRef,
		ProductName:           line.ProductName,
		Qty:                   line.Qty,
		PriceSubtotal:         line.PriceSubtotal,
		SalespersonName:       line.SalespersonName,
		SalespersonEmployeeID: line.SalespersonEmployeeID,
		CreatedAt:             line.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return fmt.Errorf("failed to create order line: %w", err)
	}
	line.ID = m.ID
	line.CreatedAt = m.CreatedAt
	return nil
}

// SetLineSalesperson credits the line to the employee, or clears it when employeeID is nil.
func (r *GormRepository) SetLineSalesperson(ctx context.Context, lineID uint, employeeID *uint, name string) error {
	res := r.db.WithContext(ctx).
		Model(&OrderLineModel{}).
		Where("id = ?", lineID).
		Updates(map[string]any{
			"salesperson_employee_id": employeeID,
			"salesperson_name":        name,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to update order line: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ports.ErrNotFound
	}
	return nil
}

type reportRow struct {
	SalespersonName string
	LineCount       int64
	Qty             float64
	Subtotal        decimal.Decimal
}

// Report aggregates order lines by salesperson name. Blank names fall into one group.
func (r *GormRepository) Report(ctx context.Context, from, to time.Time) ([]domain.ReportRow, error) {
	query := r.db.WithContext(ctx).
		Model(&OrderLineModel{}).
		Select("COALESCE(salesperson_name, '') AS salesperson_name, " +
			"COUNT(*) AS line_count, " +
			"COALESCE(SUM(qty), 0) AS qty, " +
			"COALESCE(SUM(price_subtotal), 0) AS subtotal")
	if !from.IsZero() {
		query = query.Where("created_at >= ?", from)
	}
	if !to.IsZero() {
		query = query.Where("created_at < ?", to)
	}

	var rows []reportRow
	err := query.
		Group("COALESCE(salesperson_name, '')").
		Order("salesperson_name ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to build salesperson report: %w", err)
	}

	out := make([]domain.ReportRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.ReportRow{
			SalespersonName: row.SalespersonName,
			Lines:           row.LineCount,
			Qty:             row.Qty,
			Subtotal:        row.Subtotal,
		})
	}
	return out, nil
}
