package models

import (
	"github.com/clientms/backend/internal/domain/ledger"
	"github.com/shopspring/decimal"
)

// ClientModel is the persistence model for the Client aggregate.
// The payment ledger is embedded as a JSONB column so balance fields and
// history can be written in a single statement.
type ClientModel struct {
	AggregateModel
	ClientName     string                `gorm:"type:varchar(200);not null;index"`
	Project        string                `gorm:"type:varchar(200);not null"`
	Category       string                `gorm:"type:varchar(100)"`
	Phone          string                `gorm:"type:varchar(50);index"`
	Email          string                `gorm:"type:varchar(200)"`
	Amount         decimal.Decimal       `gorm:"type:decimal(18,2);not null"`
	Paid           decimal.Decimal       `gorm:"type:decimal(18,2);not null;default:0"`
	Due            decimal.Decimal       `gorm:"type:decimal(18,2);not null;default:0"`
	PaymentStatus  string                `gorm:"type:varchar(20);not null;index"`
	PaymentHistory ledger.PaymentRecords `gorm:"type:jsonb;not null;default:'[]'"`
}

// TableName specifies the table name
func (ClientModel) TableName() string {
	return "clients"
}

// ToDomain converts the persistence model to the domain aggregate
func (m *ClientModel) ToDomain() *ledger.Client {
	c := &ledger.Client{
		ClientName:     m.ClientName,
		Project:        m.Project,
		Category:       m.Category,
		Phone:          m.Phone,
		Email:          m.Email,
		Amount:         m.Amount,
		Paid:           m.Paid,
		Due:            m.Due,
		PaymentStatus:  ledger.PaymentStatus(m.PaymentStatus),
		PaymentHistory: m.PaymentHistory,
	}
	m.PopulateAggregateRoot(&c.BaseAggregateRoot)
	return c
}

// FromDomain populates the persistence model from the domain aggregate
func (m *ClientModel) FromDomain(c *ledger.Client) {
	m.FromDomainAggregateRoot(c.BaseAggregateRoot)
	m.ClientName = c.ClientName
	m.Project = c.Project
	m.Category = c.Category
	m.Phone = c.Phone
	m.Email = c.Email
	m.Amount = c.Amount
	m.Paid = c.Paid
	m.Due = c.Due
	m.PaymentStatus = c.PaymentStatus.String()
	m.PaymentHistory = c.PaymentHistory
}
