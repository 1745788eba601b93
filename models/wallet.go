package models

import (
	"errors"

	"github.com/shopspring/decimal"
)

type WalletTransaction struct {
	Type        string          `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Date        Date            `json:"date"`
}

type Wallet struct {
	Balance      decimal.Decimal     `json:"balance"`
	Transactions []WalletTransaction `json:"transactions"`
}

func (w Wallet) Validate() error {
	for _, t := range w.Transactions {
		if t.Type != "credit" && t.Type != "debit" {
			return errors.New("wallet transaction with unknown type " + t.Type)
		}
	}
	return nil
}
