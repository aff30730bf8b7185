package charge

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/gookit/color"
)

// DryRunSink prints charges instead of submitting them.
type DryRunSink struct {
	mu  sync.Mutex
	out io.Writer
}

// NewDryRunSink creates a sink that writes to out.
func NewDryRunSink(out io.Writer) *DryRunSink {
	return &DryRunSink{out: out}
}

// Charge writes the charge to the sink's writer.
func (s *DryRunSink) Charge(_ context.Context, c Charge) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	slog.Debug("Dry-run charge", "handle", c.Handle, "amount", c.Amount.StringFixed(2))
	_, err := fmt.Fprintf(s.out, "%s %s %s:\n%s\n\n",
		color.Bold.Sprint("Charging"),
		color.Cyan.Sprint(c.Handle),
		color.Green.Sprint("$"+c.Amount.StringFixed(2)),
		c.Note,
	)
	return err
}
