// Package charge delivers allocated charges to a sink: the console in dry-run
// mode or a payment gateway when executing.
package charge

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitcharge/internal/models"
)

// ErrNotChargeable is returned for receipt items that are not a single named participant.
var ErrNotChargeable = errors.New("item is not a single-participant charge")

// Charge is one finalized request: who to charge, how much, and the note.
type Charge struct {
	Handle string
	Amount decimal.Decimal
	Note   string
}

// Sink accepts finalized charges.
type Sink interface {
	Charge(ctx context.Context, c Charge) error
}

// FromReceipt converts an allocated receipt into charges, in receipt order.
// The payer and the everyone split are rejected: allocation never emits them.
func FromReceipt(allocated *models.Receipt) ([]Charge, error) {
	charges := make([]Charge, 0, len(allocated.Items))
	for i, item := range allocated.Items {
		if len(item.Participants) != 1 || item.Participants[0].Kind != models.KindNamed {
			return nil, fmt.Errorf("item %d %q: %w", i+1, item.Note, ErrNotChargeable)
		}
		charges = append(charges, Charge{
			Handle: item.Participants[0].Handle,
			Amount: item.Amount,
			Note:   item.Note,
		})
	}
	return charges, nil
}
