package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// FallbackCategory is used when the extraction oracle returns a category
// outside the user's allowed set.
const FallbackCategory = "OTROS"

// DefaultCurrency is assumed when a message does not state one.
const DefaultCurrency = "ARS"

var (
	ErrUserExists        = errors.New("user already registered")
	ErrUnknownCategory   = errors.New("category not in catalog")
	ErrCategoryNotLinked = errors.New("category not linked to user")
	ErrInvalidValue      = errors.New("invalid expense value")
	ErrEmptyText         = errors.New("empty expense text")
	ErrEmptyCurrency     = errors.New("empty currency")
	ErrExpenseNotFound   = errors.New("expense not found")
)

// Expense is one recorded expense, derived from a single chat message.
// ID is the surrogate insertion-ordered key; (UserID, MessageID) is the
// identity scope used for edits and deletes.
type Expense struct {
	ID        int64
	MessageID int64
	ChatID    int64
	UserID    int64
	Date      time.Time
	Value     decimal.Decimal
	Category  string
	Currency  string
	Text      string
}

func (e Expense) Validate() error {
	if e.Value.IsNegative() {
		return ErrInvalidValue
	}
	if strings.TrimSpace(e.Text) == "" {
		return ErrEmptyText
	}
	if len(e.Text) > 500 {
		return errors.New("expense text too long (max 500 characters)")
	}
	if strings.TrimSpace(e.Category) == "" {
		return ErrUnknownCategory
	}
	if strings.TrimSpace(e.Currency) == "" {
		return ErrEmptyCurrency
	}
	return nil
}
