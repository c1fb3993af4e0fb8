package domain

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Role names an employee list of a POS config.
type Role string

const (
	// RoleLine lists the employees selectable as line salesperson.
	RoleLine Role = "line"
	// RoleBasic, RoleAdvanced and RoleMinimal are the POS-HR login lists.
	RoleBasic    Role = "basic"
	RoleAdvanced Role = "advanced"
	RoleMinimal  Role = "minimal"
)

// SourceEmployee marks salespersons backed by an employee record.
const SourceEmployee = "employee"

// Employee is a staff member that may be credited on POS lines.
type Employee struct {
	ID     uint   `json:"id"`
	Name   string `json:"name" validate:"required"`
	Active bool   `json:"active"`
	// CompanyID is nil for employees shared across companies.
	CompanyID            *uint `json:"company_id,omitempty"`
	ShowInPOSSalesperson bool  `json:"show_in_pos_salesperson"`
}

// Config is a POS shop configuration with its employee lists.
type Config struct {
	ID                  uint   `json:"id"`
	CompanyID           uint   `json:"company_id"`
	POSHREnabled        bool   `json:"pos_hr_enabled"`
	LineEmployeeIDs     []uint `json:"line_employee_ids"`
	BasicEmployeeIDs    []uint `json:"basic_employee_ids"`
	AdvancedEmployeeIDs []uint `json:"advanced_employee_ids"`
	MinimalEmployeeIDs  []uint `json:"minimal_employee_ids"`
}

// Allowed returns the explicitly allowed employee ids. explicit is false when the config
// names no list that applies, in which case the show_in_pos_salesperson flag decides.
func (c Config) Allowed() (ids map[uint]bool, explicit bool) {
	ids = map[uint]bool{}
	if len(c.LineEmployeeIDs) > 0 {
		for _, id := range c.LineEmployeeIDs {
			ids[id] = true
		}
		explicit = true
	}

	if !c.POSHREnabled {
		return ids, explicit
	}

	hr := map[uint]bool{}
	for _, list := range [][]uint{c.BasicEmployeeIDs, c.AdvancedEmployeeIDs, c.MinimalEmployeeIDs} {
		for _, id := range list {
			hr[id] = true
		}
	}
	if len(hr) == 0 {
		return ids, explicit
	}

	if !explicit {
		return hr, true
	}
	for id := range ids {
		if !hr[id] {
			delete(ids, id)
		}
	}
	return ids, true
}

// Candidate reports whether the employee belongs to the config's company scope.
func (c Config) Candidate(e Employee) bool {
	return e.Active && (e.CompanyID == nil || *e.CompanyID == c.CompanyID)
}

// Salesperson is an entry of the POS salesperson selector.
type Salesperson struct {
	ID     uint   `json:"id"`
	Name   string `json:"name"`
	Source string `json:"source"`
	Image  string `json:"image"`
}

// NewSalesperson builds the selector entry for an employee.
func NewSalesperson(e Employee) Salesperson {
	return Salesperson{
		ID:     e.ID,
		Name:   e.Name,
		Source: SourceEmployee,
		Image:  fmt.Sprintf("/web/image/hr.employee.public/%d/avatar_128", e.ID),
	}
}

// SelectSalespersons returns the employees selectable on cfg's POS lines, sorted by name.
func SelectSalespersons(cfg Config, employees []Employee) []Salesperson {
	allowed, explicit := cfg.Allowed()
	if explicit && len(allowed) == 0 {
		return []Salesperson{}
	}

	var picked []Employee
	for _, e := range employees {
		if !cfg.Candidate(e) {
			continue
		}
		if explicit && !allowed[e.ID] {
			continue
		}
		if !explicit && !e.ShowInPOSSalesperson {
			continue
		}
		picked = append(picked, e)
	}

	sort.SliceStable(picked, func(i, j int) bool {
		if picked[i].Name != picked[j].Name {
			return picked[i].Name < picked[j].Name
		}
		return picked[i].ID < picked[j].ID
	})

	out := make([]Salesperson, 0, len(picked))
	for _, e := range picked {
		out = append(out, NewSalesperson(e))
	}
	return out
}

// OrderLine is a POS order line with its salesperson.
type OrderLine struct {
	ID                    uint            `json:"id"`
	OrderRef              string          `json:"order_ref" validate:"required"`
	ProductName           string          `json:"product_name"`
	Qty                   float64         `json:"qty"`
	PriceSubtotal         decimal.Decimal `json:"price_subtotal"`
	SalespersonName       string          `json:"salesperson_name"`
	SalespersonEmployeeID *uint           `json:"salesperson_employee_id,omitempty"`
	CreatedAt             time.Time       `json:"created_at"`
}

// ReportRow aggregates the lines credited to one salesperson name.
// Lines without a salesperson are grouped under the empty name.
type ReportRow struct {
	SalespersonName string          `json:"salesperson_name"`
	Lines           int64           `json:"lines"`
	Qty             float64         `json:"qty"`
	Subtotal        decimal.Decimal `json:"subtotal"`
}
