package calculator

import (
	"fmt"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/mmynk/splitcharge/internal/models"
)

// ParticipantTotal is what one participant owes across all of their charges.
type ParticipantTotal struct {
	Participant models.Participant
	Amount      decimal.Decimal
	Charges     int // Number of charge requests the amount is spread over
}

// Summary aggregates an allocated receipt.
type Summary struct {
	Totals []ParticipantTotal

	// Charged is the sum of every charge.
	Charged decimal.Decimal

	// Residual is Total - Charged. It is non-zero when the payer kept a share
	// or when per-item rounding left a few cents behind.
	Residual decimal.Decimal
}

// Summarize sums an allocated receipt per participant, in charge order.
// Every item must be a single-participant charge as produced by BatchReceipt.
func Summarize(allocated *models.Receipt) (*Summary, error) {
	index := make(map[models.Participant]int)
	var totals []ParticipantTotal

	for i, item := range allocated.Items {
		if len(item.Participants) != 1 {
			return nil, fmt.Errorf("item %d %q has %d participants, want 1", i+1, item.Note, len(item.Participants))
		}
		p := item.Participants[0]

		pos, exists := index[p]
		if !exists {
			pos = len(totals)
			index[p] = pos
			totals = append(totals, ParticipantTotal{Participant: p, Amount: decimal.Zero})
		}
		totals[pos].Amount = totals[pos].Amount.Add(item.Amount)
		totals[pos].Charges++
	}

	charged := decimal.Sum(decimal.Zero, lo.Map(totals, func(t ParticipantTotal, _ int) decimal.Decimal {
		return t.Amount
	})...)

	return &Summary{
		Totals:   totals,
		Charged:  charged,
		Residual: allocated.Total.Sub(charged),
	}, nil
}
