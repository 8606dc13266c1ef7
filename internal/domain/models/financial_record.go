package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RecordType string

const (
	RecordIncome  RecordType = "Income"
	RecordExpense RecordType = "Expense"
)

// FinancialRecord is an income or expense entry in the farm ledger.
type FinancialRecord struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	ReferenceNumber string             `bson:"referenceNumber" json:"referenceNumber"`
	Type            RecordType         `bson:"type" json:"type"`
	Category        string             `bson:"category" json:"category"`
	Description     string             `bson:"description" json:"description"`
	Amount          float64            `bson:"amount" json:"amount"`
	TaxAmount       float64            `bson:"taxAmount" json:"taxAmount"`
	NetAmount       float64            `bson:"netAmount" json:"netAmount"`
	PaymentMethod   string             `bson:"paymentMethod,omitempty" json:"paymentMethod,omitempty"`
	Date            time.Time          `bson:"date" json:"date"`
	RelatedEntity   string             `bson:"relatedEntity,omitempty" json:"relatedEntity,omitempty"`
	Notes           string             `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
}

func (r *FinancialRecord) Derive() {
	r.Date = StartOfDay(r.Date)
	r.Amount = Round(r.Amount, 2)
	r.TaxAmount = Round(r.TaxAmount, 2)
	r.NetAmount = Sum(2, r.Amount, -r.TaxAmount)
}
