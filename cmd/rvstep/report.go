package main

import (
	"encoding/json"
	"io"

	"github.com/jeandeaual/go-locale"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/message"

	"github.com/sarchlab/rvstep/timing/cache"
	"github.com/sarchlab/rvstep/timing/core"
)

// TimingReport is the timing summary printed after a run.
type TimingReport struct {
	Program string            `json:"program"`
	Stats   core.Stats        `json:"stats"`
	CPI     float64           `json:"cpi"`
	DCache  *cache.Statistics `json:"dcache,omitempty"`
}

// NewTimingReport collects the statistics of c.
func NewTimingReport(program string, c *core.Core) TimingReport {
	stats := c.Stats()
	r := TimingReport{
		Program: program,
		Stats:   stats,
		CPI:     stats.CPI(),
	}
	if dc := c.DCache(); dc != nil {
		s := dc.Stats()
		r.DCache = &s
	}
	return r
}

// newPrinter returns a printer for the user's locale, falling back to
// en-US.
func newPrinter() *message.Printer {
	locales, err := locale.GetLocales()
	if err != nil {
		logrus.WithError(err).Debug("locale lookup failed")
	}

	if len(locales) == 0 {
		locales = []string{"en-US"}
	}

	return message.NewPrinter(message.MatchLanguage(locales...))
}

// WriteText prints the report with locale-aware number formatting.
func (r TimingReport) WriteText(w io.Writer, p *message.Printer) {
	_, _ = p.Fprintf(w, "\n")
	_, _ = p.Fprintf(w, "Program: %s\n", r.Program)
	_, _ = p.Fprintf(w, "Total Instructions: %d\n", r.Stats.Instructions)
	_, _ = p.Fprintf(w, "Total Cycles: %d\n", r.Stats.Cycles)
	_, _ = p.Fprintf(w, "CPI: %.2f\n", r.CPI)
	_, _ = p.Fprintf(w, "\n")
	_, _ = p.Fprintf(w, "Breakdown:\n")
	_, _ = p.Fprintf(w, "  Loads:    %d\n", r.Stats.Loads)
	_, _ = p.Fprintf(w, "  Stores:   %d\n", r.Stats.Stores)
	_, _ = p.Fprintf(w, "  Branches: %d\n", r.Stats.Branches)

	if r.DCache != nil {
		_, _ = p.Fprintf(w, "\n")
		_, _ = p.Fprintf(w, "D-Cache:\n")
		_, _ = p.Fprintf(w, "  Hits:      %d\n", r.DCache.Hits)
		_, _ = p.Fprintf(w, "  Misses:    %d\n", r.DCache.Misses)
		_, _ = p.Fprintf(w, "  Evictions: %d\n", r.DCache.Evictions)
		_, _ = p.Fprintf(w, "  Hit rate:  %.1f%%\n", 100*r.DCache.HitRate())
	}
}

// WriteJSON prints the report as indented JSON.
func (r TimingReport) WriteJSON(w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(r)
}
