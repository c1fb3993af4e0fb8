package adapters

import (
	"time"

	"leopards-connector/internal/features/shipments/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ShipmentModel is the persisted form of domain.Shipment.
type ShipmentModel struct {
	ID            uuid.UUID       `gorm:"type:varchar(36);primaryKey"`
	Reference     string          `gorm:"size:128;index"`
	TrackingRef   string          `gorm:"size:64;index"`
	LastStatus    string          `gorm:"size:255"`
	PendingCancel bool            `gorm:"index;not null;default:false"`
	ShipperID     *uuid.UUID      `gorm:"type:varchar(36)"`
	LabelKey      string          `gorm:"size:255"`
	Price         decimal.Decimal `gorm:"type:numeric(12,2)"`
	CreatedAt     time.Time
	UpdatedAt     time.Time `gorm:"index"`
}

func (ShipmentModel) TableName() string { return "shipments" }

func (m ShipmentModel) toDomain() domain.Shipment {
	return domain.Shipment{
		ID:            m.ID,
		Reference:     m.Reference,
		TrackingRef:   m.TrackingRef,
		LastStatus:    m.LastStatus,
		PendingCancel: m.PendingCancel,
		ShipperID:     m.ShipperID,
		LabelKey:      m.LabelKey,
		Price:         m.Price,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

func shipmentFromDomain(s *domain.Shipment) ShipmentModel {
	return ShipmentModel{
		ID:            s.ID,
		Reference:     s.Reference,
		TrackingRef:   s.TrackingRef,
		LastStatus:    s.LastStatus,
		PendingCancel: s.PendingCancel,
		ShipperID:     s.ShipperID,
		LabelKey:      s.LabelKey,
		Price:         s.Price,
	}
}

// ShipperModel is the persisted form of domain.Shipper.
type ShipperModel struct {
	ID             uuid.UUID `gorm:"type:varchar(36);primaryKey"`
	Name           string    `gorm:"size:255;not null"`
	Email          string    `gorm:"size:255"`
	Phone          string    `gorm:"size:64"`
	CNIC           string    `gorm:"size:32"`
	City           string    `gorm:"size:128"`
	Area           string    `gorm:"size:128"`
	Block          string    `gorm:"size:128"`
	ReturnCity     string    `gorm:"size:128"`
	ReturnAddress  string    `gorm:"size:512"`
	ShipperAddress string    `gorm:"size:512"`
	Settlement     bool
	IBAN           string `gorm:"size:64"`
	AccountNo      string `gorm:"size:64"`
	Street         string `gorm:"size:255"`
	Street2        string `gorm:"size:255"`
	State          string `gorm:"size:128"`
	Zip            string `gorm:"size:32"`
	Country        string `gorm:"size:128"`
	Active         bool   `gorm:"index"`
	CreatedAt      time.Time
}

func (ShipperModel) TableName() string { return "shippers" }

func (m ShipperModel) toDomain() domain.Shipper {
	return domain.Shipper{
		ID:             m.ID,
		Name:           m.Name,
		Email:          m.Email,
		Phone:          m.Phone,
		CNIC:           m.CNIC,
		City:           m.City,
		Area:           m.Area,
		Block:          m.Block,
		ReturnCity:     m.ReturnCity,
		ReturnAddress:  m.ReturnAddress,
		ShipperAddress: m.ShipperAddress,
		Settlement:     m.Settlement,
		IBAN:           m.IBAN,
		AccountNo:      m.AccountNo,
		Street:         m.Street,
		Street2:        m.Street2,
		State:          m.State,
		Zip:            m.Zip,
		Country:        m.Country,
		Active:         m.Active,
		CreatedAt:      m.CreatedAt,
	}
}

func shipperFromDomain(s *domain.Shipper) ShipperModel {
	return ShipperModel{
		ID:             s.ID,
		Name:           s.Name,
		Email:          s.Email,
		Phone:          s.Phone,
		CNIC:           s.CNIC,
		City:           s.City,
		Area:           s.Area,
		Block:          s.Block,
		ReturnCity:     s.ReturnCity,
		ReturnAddress:  s.ReturnAddress,
		ShipperAddress: s.ShipperAddress,
		Settlement:     s.Settlement,
		IBAN:           s.IBAN,
		AccountNo:      s.AccountNo,
		Street:         s.Street,
		Street2:        s.Street2,
		State:          s.State,
		Zip:            s.Zip,
		Country:        s.Country,
		Active:         s.Active,
	}
}

// EventModel is one row of the shipment timeline.
type EventModel struct {
	ID         uuid.UUID `gorm:"type:varchar(36);primaryKey"`
	ShipmentID uuid.UUID `gorm:"type:varchar(36);index;not null"`
	Body       string    `gorm:"type:text"`
	CreatedAt  time.Time `gorm:"index"`
}

func (EventModel) TableName() string { return "shipment_events" }

// LabelModel stores a slip in the database when no object store is configured.
type LabelModel struct {
	StorageKey  string `gorm:"size:255;primaryKey"`
	Name        string `gorm:"size:255"`
	ContentType string `gorm:"size:128"`
	Data        []byte
	CreatedAt   time.Time
}

func (LabelModel) TableName() string { return "shipment_labels" }

// Models lists the tables owned by this feature, for database.Migrate.
func Models() []any {
	return []any{&ShipmentModel{}, &ShipperModel{}, &EventModel{}, &LabelModel{}}
}
