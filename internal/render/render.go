// Package render prints receipts and allocation summaries as text tables.
package render

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/mmynk/splitcharge/internal/calculator"
	"github.com/mmynk/splitcharge/internal/models"
)

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetRowLine(true)
	return table
}

func money(amount decimal.Decimal) string {
	return "$" + amount.StringFixed(2)
}

// Receipt writes one row per item followed by the subtotal and total.
func Receipt(w io.Writer, receipt *models.Receipt) error {
	if _, err := fmt.Fprintf(w, "%s - %s\n", receipt.Name, receipt.Date.Format("2006-01-02")); err != nil {
		return err
	}

	table := newTable(w, "Participants", "Item", "Price")
	for _, item := range receipt.Items {
		names := lo.Map(item.Participants, func(p models.Participant, _ int) string {
			return p.String()
		})
		table.Append([]string{strings.Join(names, ", "), item.Note, money(item.Amount)})
	}
	table.Append([]string{"Subtotal", "", money(receipt.Subtotal())})
	table.Append([]string{"Total", "", money(receipt.Total)})
	table.Render()
	return nil
}

// Summary writes what each participant owes and what the payer keeps.
func Summary(w io.Writer, summary *calculator.Summary) {
	table := newTable(w, "Participant", "Charges", "Amount")
	for _, total := range summary.Totals {
		table.Append([]string{total.Participant.String(), strconv.Itoa(total.Charges), money(total.Amount)})
	}
	table.SetFooter([]string{"Charged", money(summary.Charged), "Residual " + money(summary.Residual)})
	table.Render()
}

// Aliases writes the alias book, one row per alias.
func Aliases(w io.Writer, aliases []models.Alias) {
	table := newTable(w, "Alias", "Handle", "Added")
	table.SetRowLine(false)
	for _, alias := range aliases {
		table.Append([]string{alias.Name, alias.Handle, time.Unix(alias.CreatedAt, 0).Format("2006-01-02")})
	}
	table.Render()
}
