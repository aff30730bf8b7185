package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ErrNoParticipants is returned for an item that is not shared with anyone.
var ErrNoParticipants = errors.New("item must have at least one participant")

// Item represents a single line on a receipt.
// The amount is split equally among the participants.
type Item struct {
	// Amount is the pre-tax price of the line.
	Amount decimal.Decimal

	// Participants share the item in the order they were listed.
	Participants []Participant

	// Note is the description of the line (e.g., "Pizza").
	Note string
}

// NewItem builds an item, rejecting an empty participant list.
func NewItem(note string, amount decimal.Decimal, participants ...Participant) (Item, error) {
	if len(participants) == 0 {
		return Item{}, fmt.Errorf("%q: %w", note, ErrNoParticipants)
	}
	return Item{
		Amount:       amount,
		Participants: append([]Participant(nil), participants...),
		Note:         note,
	}, nil
}

// PricePer returns each participant's equal share, rounded to cents.
// Rounding happens per item, so PricePer * len(Participants) may differ from
// Amount by a few cents.
func (i Item) PricePer() (decimal.Decimal, error) {
	if len(i.Participants) == 0 {
		return decimal.Zero, fmt.Errorf("%q: %w", i.Note, ErrNoParticipants)
	}
	return i.Amount.DivRound(decimal.NewFromInt(int64(len(i.Participants))), 2), nil
}

// Receipt is an ordered collection of items and the amount actually paid.
type Receipt struct {
	// Name labels the receipt and prefixes every charge note.
	Name string

	Items []Item

	// Total is the authoritative amount paid, including tax, tip and rounding.
	// It may differ from Subtotal.
	Total decimal.Decimal

	Date time.Time
}

// Subtotal returns the sum of all item amounts.
func (r *Receipt) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, item := range r.Items {
		sum = sum.Add(item.Amount)
	}
	return sum
}
