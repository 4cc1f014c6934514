package model

import (
	"time"
)

// Transaction is a single statement line read from an export file.
type Transaction struct {
	Date         time.Time
	ID           string
	Name         string // Raw transaction description
	MerchantName string // Cleaned merchant name
	AccountID    string
	Type         string // DEBIT, CHECK, PAYMENT, ATM ...
	Amount       float64
}

// Description returns the text that should be classified for this line.
func (t Transaction) Description() string {
	if t.MerchantName != "" {
		return t.MerchantName
	}
	return t.Name
}
