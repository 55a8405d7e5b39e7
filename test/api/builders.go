/*
Copyright 2024-2025 the Unikorn Authors.
Copyright 2026 Nscale.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package api

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ftrabucco/restassured-template-sub000/pkg/session"

	"k8s.io/utils/ptr"
)

func generateRandomName(prefix string) string {
	return fmt.Sprintf("%s-%s", prefix, strings.SplitN(uuid.NewString(), "-", 2)[0])
}

func GenerateTestID() string {
	return generateRandomName("test")
}

// NewIdentity returns a unique throwaway user, for tests that must not
// disturb the shared session.
func NewIdentity() session.Identity {
	id := GenerateTestID()

	return session.Identity{
		Name:     "Throwaway " + id,
		Email:    id + "@example.com",
		Password: "Thr0waway-" + id,
	}
}

func today() string {
	return time.Now().Format(time.DateOnly)
}

// Purchase is a card or cash purchase, optionally in installments.
type Purchase struct {
	Description  string  `json:"description"`
	Amount       float64 `json:"amount"`
	Date         string  `json:"date"`
	CategoryID   *int    `json:"categoryId,omitempty"`
	CardID       *string `json:"cardId,omitempty"`
	Installments *int    `json:"installments,omitempty"`
}

// PurchasePayloadBuilder builds purchase payloads for testing.
type PurchasePayloadBuilder struct {
	payload Purchase
}

// NewPurchasePayload creates a purchase with a unique description dated today.
func NewPurchasePayload() *PurchasePayloadBuilder {
	return &PurchasePayloadBuilder{
		payload: Purchase{
			Description: generateRandomName("purchase"),
			Amount:      1500.50,
			Date:        today(),
		},
	}
}

// WithDescription sets the description.
func (b *PurchasePayloadBuilder) WithDescription(description string) *PurchasePayloadBuilder {
	b.payload.Description = description
	return b
}

// WithAmount sets the amount.
func (b *PurchasePayloadBuilder) WithAmount(amount float64) *PurchasePayloadBuilder {
	b.payload.Amount = amount
	return b
}

// WithCard charges the purchase to a card in a number of installments.
func (b *PurchasePayloadBuilder) WithCard(cardID string, installments int) *PurchasePayloadBuilder {
	b.payload.CardID = ptr.To(cardID)
	b.payload.Installments = ptr.To(installments)

	return b
}

// WithCategory sets the category.
func (b *PurchasePayloadBuilder) WithCategory(categoryID int) *PurchasePayloadBuilder {
	b.payload.CategoryID = ptr.To(categoryID)
	return b
}

// Build returns the completed purchase payload.
func (b *PurchasePayloadBuilder) Build() Purchase {
	return b.payload
}

// OneTimeExpense is a single non-card expense.
type OneTimeExpense struct {
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Date        string  `json:"date"`
	CategoryID  *int    `json:"categoryId,omitempty"`
}

// NewOneTimeExpensePayload creates a one time expense dated today.
func NewOneTimeExpensePayload() OneTimeExpense {
	return OneTimeExpense{
		Description: generateRandomName("expense"),
		Amount:      250,
		Date:        today(),
	}
}

// RecurringExpense repeats monthly on a day of the month.
type RecurringExpense struct {
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	DayOfMonth  int     `json:"dayOfMonth"`
	CategoryID  *int    `json:"categoryId,omitempty"`
}

// NewRecurringExpensePayload creates a recurring expense due on the 10th.
func NewRecurringExpensePayload() RecurringExpense {
	return RecurringExpense{
		Description: generateRandomName("recurring"),
		Amount:      12000,
		DayOfMonth:  10,
	}
}

// AutomaticDebit is a recurring charge to a card.
type AutomaticDebit struct {
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	DayOfMonth  int     `json:"dayOfMonth"`
	CardID      string  `json:"cardId"`
}

// NewAutomaticDebitPayload creates a debit against an existing card.
func NewAutomaticDebitPayload(cardID string) AutomaticDebit {
	return AutomaticDebit{
		Description: generateRandomName("debit"),
		Amount:      4999.99,
		DayOfMonth:  15,
		CardID:      cardID,
	}
}

// Card is a credit or debit card.
type Card struct {
	Name       string  `json:"name"`
	Type       string  `json:"type"`
	Bank       *string `json:"bank,omitempty"`
	ClosingDay *int    `json:"closingDay,omitempty"`
}

// CardPayloadBuilder builds card payloads for testing.
type CardPayloadBuilder struct {
	payload Card
}

// NewCardPayload creates a debit card with a unique name.
func NewCardPayload() *CardPayloadBuilder {
	return &CardPayloadBuilder{
		payload: Card{
			Name: generateRandomName("card"),
			Type: "debit",
		},
	}
}

// WithName sets the card name.
func (b *CardPayloadBuilder) WithName(name string) *CardPayloadBuilder {
	b.payload.Name = name
	return b
}

// AsCredit makes the card a credit card closing on a day of the month.
func (b *CardPayloadBuilder) AsCredit(bank string, closingDay int) *CardPayloadBuilder {
	b.payload.Type = "credit"
	b.payload.Bank = ptr.To(bank)
	b.payload.ClosingDay = ptr.To(closingDay)

	return b
}

// Build returns the completed card payload.
func (b *CardPayloadBuilder) Build() Card {
	return b.payload
}
