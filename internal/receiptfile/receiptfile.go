// Package receiptfile loads receipt records from JSON files.
//
// A record looks like:
//
//	{
//	  "name": "Dinner at Luigi's",
//	  "date": "2024-03-09",
//	  "total": 110.00,
//	  "aliases": {"Al": "alice-venmo", "Me": "me"},
//	  "items": [
//	    ["Pizza", ["Al", "bob"], 50.00],
//	    ["Soda", ["everyone"], 50.00]
//	  ]
//	}
package receiptfile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/mmynk/splitcharge/internal/models"
)

// DateLayout is the layout of the record's date field.
const DateLayout = "2006-01-02"

// ErrParse is the parent of every error caused by a malformed record.
var ErrParse = errors.New("malformed receipt record")

// ParseError reports which field of a record could not be parsed.
type ParseError struct {
	Field string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%v: %s: %v", ErrParse, e.Field, e.Err)
}

func (e *ParseError) Unwrap() []error {
	return []error{ErrParse, e.Err}
}

// Record is the on-disk shape of a receipt.
type Record struct {
	Name    string            `json:"name"    validate:"required"`
	Date    string            `json:"date"    validate:"required,datetime=2006-01-02"`
	Total   *decimal.Decimal  `json:"total"   validate:"required"`
	Aliases map[string]string `json:"aliases"`
	Items   []RecordItem      `json:"items"   validate:"required,min=1,dive"`
}

// RecordItem is a [note, participants, amount] triple.
type RecordItem struct {
	Note         string
	Participants []string `validate:"min=1"`
	Amount       decimal.Decimal
}

// UnmarshalJSON decodes the positional triple form.
func (ri *RecordItem) UnmarshalJSON(data []byte) error {
	var parts []json.RawMessage
	if err := json.Unmarshal(data, &parts); err != nil {
		return fmt.Errorf("item must be a [note, participants, amount] array: %w", err)
	}
	if len(parts) != 3 {
		return fmt.Errorf("item must have 3 elements, got %d", len(parts))
	}
	if err := json.Unmarshal(parts[0], &ri.Note); err != nil {
		return fmt.Errorf("item note: %w", err)
	}
	if err := json.Unmarshal(parts[1], &ri.Participants); err != nil {
		return fmt.Errorf("item %q participants: %w", ri.Note, err)
	}
	if err := ri.Amount.UnmarshalJSON(parts[2]); err != nil {
		return fmt.Errorf("item %q amount: %w", ri.Note, err)
	}
	return nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return strings.ToLower(f.Name)
		}
		return name
	})
	return v
}

// Load reads and parses the receipt file at path.
// defaultAliases are applied under the record's own aliases.
func Load(path string, defaultAliases map[string]string) (*models.Receipt, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read receipt file: %w", err)
	}
	return Parse(bytes.NewReader(data), defaultAliases)
}

// Parse decodes a record and resolves it into a receipt.
func Parse(r io.Reader, defaultAliases map[string]string) (*models.Receipt, error) {
	var record Record
	if err := json.NewDecoder(r).Decode(&record); err != nil {
		return nil, &ParseError{Field: "record", Err: err}
	}
	return record.Receipt(defaultAliases)
}

// Receipt validates the record and converts it into a receipt, resolving
// every participant label through the merged alias table.
func (rec *Record) Receipt(defaultAliases map[string]string) (*models.Receipt, error) {
	if err := validate.Struct(rec); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return nil, &ParseError{Field: fe.Namespace(), Err: fmt.Errorf("failed %q validation", fe.Tag())}
		}
		return nil, &ParseError{Field: "record", Err: err}
	}

	date, err := time.Parse(DateLayout, rec.Date)
	if err != nil {
		return nil, &ParseError{Field: "date", Err: err}
	}

	aliases := lo.Assign(defaultAliases, rec.Aliases)
	items := make([]models.Item, len(rec.Items))
	for i, ri := range rec.Items {
		participants := lo.Map(ri.Participants, func(raw string, _ int) models.Participant {
			return models.ResolveParticipant(aliases, raw)
		})
		item, err := models.NewItem(ri.Note, ri.Amount, participants...)
		if err != nil {
			return nil, &ParseError{Field: fmt.Sprintf("items[%d]", i), Err: err}
		}
		items[i] = item
	}

	return &models.Receipt{
		Name:  rec.Name,
		Items: items,
		Total: *rec.Total,
		Date:  date,
	}, nil
}
