package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OrderStatus string

const (
	OrderPending   OrderStatus = "Pending"
	OrderConfirmed OrderStatus = "Confirmed"
	OrderDelivered OrderStatus = "Delivered"
	OrderCancelled OrderStatus = "Cancelled"
)

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "Pending"
	PaymentPartial PaymentStatus = "Partial"
	PaymentPaid    PaymentStatus = "Paid"
)

type Customer struct {
	Name    string `bson:"name" json:"name"`
	Phone   string `bson:"phone,omitempty" json:"phone,omitempty"`
	Email   string `bson:"email,omitempty" json:"email,omitempty"`
	Address string `bson:"address,omitempty" json:"address,omitempty"`
}

type OrderItem struct {
	Product   string  `bson:"product" json:"product"`
	Quantity  float64 `bson:"quantity" json:"quantity"`
	Unit      string  `bson:"unit,omitempty" json:"unit,omitempty"`
	UnitPrice float64 `bson:"unitPrice" json:"unitPrice"`
	Total     float64 `bson:"total" json:"total"`
}

// SalesOrder is a customer order of farm products.
type SalesOrder struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	OrderNumber   string             `bson:"orderNumber" json:"orderNumber"`
	Customer      Customer           `bson:"customer" json:"customer"`
	Items         []OrderItem        `bson:"items" json:"items"`
	Subtotal      float64            `bson:"subtotal" json:"subtotal"`
	Discount      float64            `bson:"discount" json:"discount"`
	Tax           float64            `bson:"tax" json:"tax"`
	TotalAmount   float64            `bson:"totalAmount" json:"totalAmount"`
	AmountPaid    float64            `bson:"amountPaid" json:"amountPaid"`
	Balance       float64            `bson:"balance" json:"balance"`
	PaymentStatus PaymentStatus      `bson:"paymentStatus" json:"paymentStatus"`
	PaymentMethod string             `bson:"paymentMethod,omitempty" json:"paymentMethod,omitempty"`
	Status        OrderStatus        `bson:"status" json:"status"`
	OrderDate     time.Time          `bson:"orderDate" json:"orderDate"`
	DeliveryDate  *time.Time         `bson:"deliveryDate,omitempty" json:"deliveryDate,omitempty"`
	Notes         string             `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Derive recomputes line totals, order totals and payment status.
func (o *SalesOrder) Derive() {
	lineTotals := make([]float64, 0, len(o.Items))
	for i := range o.Items {
		o.Items[i].Total = MulRound(o.Items[i].Quantity, o.Items[i].UnitPrice, 2)
		lineTotals = append(lineTotals, o.Items[i].Total)
	}
	o.Subtotal = Sum(2, lineTotals...)
	o.TotalAmount = Sum(2, o.Subtotal, -o.Discount, o.Tax)
	if o.TotalAmount < 0 {
		o.TotalAmount = 0
	}
	o.Balance = Sum(2, o.TotalAmount, -o.AmountPaid)

	switch {
	case o.AmountPaid <= 0:
		o.PaymentStatus = PaymentPending
	case o.AmountPaid >= o.TotalAmount:
		o.PaymentStatus = PaymentPaid
	default:
		o.PaymentStatus = PaymentPartial
	}

	if o.Status == "" {
		o.Status = OrderPending
	}
}
