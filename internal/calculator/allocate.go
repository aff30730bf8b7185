package calculator

import (
	"errors"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitcharge/internal/models"
)

// DefaultMaxNoteLength is the longest note a single charge request may carry.
const DefaultMaxNoteLength = 250

var (
	// ErrAllocation is the parent of every error that aborts an allocation.
	ErrAllocation = errors.New("allocation failed")

	ErrZeroSubtotal             = fmt.Errorf("%w: subtotal cannot be zero", ErrAllocation)
	ErrNoChargeableParticipants = fmt.Errorf("%w: everyone split has no participants to charge", ErrAllocation)
	ErrNoteOverflow             = fmt.Errorf("%w: note line exceeds the maximum note length", ErrAllocation)
)

// Options controls how BatchReceipt builds charge notes.
type Options struct {
	// Itemized keeps the per-item lines in each note. When false every note
	// is just the receipt name.
	Itemized bool

	// MaxNoteLength caps the length of every note, in characters.
	// Zero means DefaultMaxNoteLength.
	MaxNoteLength int

	// Strict fails the allocation when a single line cannot fit in a note
	// instead of emitting an oversized one.
	Strict bool
}

// ChargeBundle accumulates item lines for one participant until the note cap is reached.
type ChargeBundle struct {
	Amount decimal.Decimal
	Notes  string
}

// BatchReceipt redistributes a receipt's total across its participants and
// merges each participant's items into as few charges as the note cap allows.
//
// Algorithm:
//   - ratio = total / subtotal scales every share so charges add up to the total
//   - each participant (except Me) gets one "$amount: note" line per item
//   - lines accumulate per participant; a new bundle starts when the note would overflow
//   - Everyone's lines are summed and split evenly across the remaining participants;
//     each participant pays that share once, on their first bundle
//
// The returned receipt has one single-participant item per bundle, ordered by
// first appearance of the participant and then by bundle. The input is not modified.
func BatchReceipt(receipt *models.Receipt, opts Options) (*models.Receipt, error) {
	ratio, err := reconcileRatio(receipt)
	if err != nil {
		return nil, err
	}

	share, err := everyoneShare(receipt, ratio)
	if err != nil {
		return nil, err
	}

	maxLen := opts.MaxNoteLength
	if maxLen <= 0 {
		maxLen = DefaultMaxNoteLength
	}
	footer := everyoneLine(share)
	limit := maxLen - utf8.RuneCountInString(footer)
	if opts.Itemized {
		limit -= utf8.RuneCountInString(receipt.Name) + 1
	}

	l := newLedger()
	for _, item := range receipt.Items {
		// PricePer cannot fail here: reconcileRatio validated every item.
		pricePer, _ := item.PricePer()
		adjusted := pricePer.Mul(ratio)
		line := itemLine(adjusted, item.Note)

		for _, p := range item.Participants {
			if p.IsMe() || p.IsEveryone() {
				continue
			}
			if utf8.RuneCountInString(line)+1 > limit {
				if opts.Strict {
					return nil, fmt.Errorf("%w: %q for %s", ErrNoteOverflow, item.Note, p)
				}
				slog.Warn("Note line exceeds maximum note length",
					"receipt", receipt.Name,
					"participant", p.String(),
					"note", item.Note,
					"max_note_length", maxLen,
				)
			}
			l.add(p, adjusted, line, limit)
		}
	}
	l.flush()

	var items []models.Item
	for _, p := range l.order {
		for i, bundle := range l.closed[p] {
			// The everyone share is charged once, on the first bundle.
			amount := bundle.Amount
			if i == 0 {
				amount = amount.Add(share)
			}
			notes := bundle.Notes + footer
			if opts.Itemized {
				notes = receipt.Name + "\n" + notes
			} else {
				notes = receipt.Name
			}
			items = append(items, models.Item{
				Amount:       amount.Round(2),
				Participants: []models.Participant{p},
				Note:         notes,
			})
		}
	}

	return &models.Receipt{
		Name:  receipt.Name,
		Items: items,
		Total: receipt.Total,
		Date:  receipt.Date,
	}, nil
}

// reconcileRatio validates the items and returns total / subtotal.
func reconcileRatio(receipt *models.Receipt) (decimal.Decimal, error) {
	for i, item := range receipt.Items {
		if len(item.Participants) == 0 {
			return decimal.Zero, fmt.Errorf("%w: item %d %q: %w", ErrAllocation, i+1, item.Note, models.ErrNoParticipants)
		}
	}
	subtotal := receipt.Subtotal()
	if subtotal.IsZero() {
		return decimal.Zero, ErrZeroSubtotal
	}
	return receipt.Total.Div(subtotal), nil
}

// everyoneShare returns what each named participant owes for items shared
// with Everyone. It is zero when no item is shared with Everyone.
func everyoneShare(receipt *models.Receipt, ratio decimal.Decimal) (decimal.Decimal, error) {
	total := decimal.Zero
	shared := false
	charged := make(map[models.Participant]struct{})

	for _, item := range receipt.Items {
		pricePer, _ := item.PricePer()
		for _, p := range item.Participants {
			switch {
			case p.IsEveryone():
				shared = true
				total = total.Add(pricePer.Mul(ratio))
			case !p.IsMe():
				charged[p] = struct{}{}
			}
		}
	}

	if !shared {
		return decimal.Zero, nil
	}
	if len(charged) == 0 {
		return decimal.Zero, ErrNoChargeableParticipants
	}
	return total.Div(decimal.NewFromInt(int64(len(charged)))), nil
}

// ledger keeps one open bundle per participant plus the bundles already
// closed, remembering the order participants were first seen.
type ledger struct {
	order  []models.Participant
	open   map[models.Participant]*ChargeBundle
	closed map[models.Participant][]ChargeBundle
}

func newLedger() *ledger {
	return &ledger{
		open:   make(map[models.Participant]*ChargeBundle),
		closed: make(map[models.Participant][]ChargeBundle),
	}
}

// add appends a line to p's open bundle, closing it first if the line would
// push the notes past limit. An empty bundle is never closed.
func (l *ledger) add(p models.Participant, amount decimal.Decimal, line string, limit int) {
	bundle, ok := l.open[p]
	if !ok {
		l.order = append(l.order, p)
		bundle = &ChargeBundle{Amount: decimal.Zero}
		l.open[p] = bundle
	}

	if bundle.Notes != "" && utf8.RuneCountInString(bundle.Notes)+utf8.RuneCountInString(line)+1 > limit {
		l.closed[p] = append(l.closed[p], *bundle)
		bundle = &ChargeBundle{Amount: decimal.Zero}
		l.open[p] = bundle
	}

	bundle.Amount = bundle.Amount.Add(amount)
	bundle.Notes += line
}

func (l *ledger) flush() {
	for _, p := range l.order {
		l.closed[p] = append(l.closed[p], *l.open[p])
		delete(l.open, p)
	}
}
