// Package report renders an output document and run summary for the
// terminal. It is presentation only; every number it prints comes from the
// document as persisted.
package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/dqaudit/dqaudit/internal/document"
)

// Run statuses as rendered in the summary line.
const (
	StatusSuccess = "success"
	StatusPartial = "partial"
	StatusFailure = "failure"
)

const msgNoDocument = "No document available"

// Options configures rendering.
type Options struct {
	// NoColor disables ANSI colors, for piped output.
	NoColor bool
	// Sections limits rendering to the named sections; empty renders all.
	Sections []string
}

// Renderer writes human-readable report output.
type Renderer struct {
	w    io.Writer
	opts Options
}

// NewRenderer creates a renderer writing to w.
func NewRenderer(w io.Writer, opts Options) *Renderer {
	return &Renderer{w: w, opts: opts}
}

// Document renders the full document: metadata, instance counts, and one
// table per section.
func (r *Renderer) Document(doc *document.Document) {
	if doc == nil {
		fmt.Fprintln(r.w, msgNoDocument)

		return
	}

	r.header(doc)
	r.instanceCounts(doc)

	for _, name := range r.sectionNames(doc) {
		r.section(name, doc.Sections[name])
	}
}

// RunSummary renders the final status line and any warnings collected
// during the run.
func (r *Renderer) RunSummary(status string, warnings []string) {
	for _, warning := range warnings {
		r.paint(color.FgYellow, "warning: %s\n", warning)
	}

	switch status {
	case StatusSuccess:
		r.paint(color.FgGreen, "run status: %s\n", status)
	case StatusPartial:
		r.paint(color.FgYellow, "run status: %s\n", status)
	default:
		r.paint(color.FgRed, "run status: %s\n", status)
	}
}

func (r *Renderer) header(doc *document.Document) {
	fmt.Fprintf(r.w, "=== DATA QUALITY AUDIT ===\n")
	fmt.Fprintf(r.w, "run: %s\n", doc.Metadata.RunID)

	if !doc.Metadata.ComputedAt.IsZero() {
		fmt.Fprintf(r.w, "computed: %s\n", doc.Metadata.ComputedAt.Format("2006-01-02 15:04:05 MST"))
	}

	fmt.Fprintf(r.w, "duration: %.1fs\n", doc.Metadata.ExecutionTimeSeconds)

	if doc.Metadata.PartialRecompute {
		fmt.Fprintf(r.w, "recomputed sections: %s\n", strings.Join(doc.Metadata.RecomputedSections, ", "))
	}

	fmt.Fprintln(r.w)
}

func (r *Renderer) instanceCounts(doc *document.Document) {
	if len(doc.Metadata.InstanceCounts) == 0 {
		return
	}

	types := make([]string, 0, len(doc.Metadata.InstanceCounts))
	for t := range doc.Metadata.InstanceCounts {
		types = append(types, t)
	}

	sort.Strings(types)

	tbl := table.NewWriter()
	tbl.SetOutputMirror(r.w)
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"Type", "Total", "Unique", "Duplicates", "Skipped"})

	var grandTotal int64

	for _, t := range types {
		c := doc.Metadata.InstanceCounts[t]
		grandTotal += c.Total

		tbl.AppendRow(table.Row{
			t,
			humanize.Comma(c.Total),
			humanize.Comma(c.Unique),
			humanize.Comma(c.Duplicates),
			humanize.Comma(c.Skipped),
		})
	}

	tbl.AppendFooter(table.Row{"", humanize.Comma(grandTotal), "", "", ""})
	tbl.Render()
	fmt.Fprintln(r.w)
}

func (r *Renderer) sectionNames(doc *document.Document) []string {
	names := doc.SectionNames()

	if len(r.opts.Sections) == 0 {
		return names
	}

	wanted := make(map[string]bool, len(r.opts.Sections))
	for _, name := range r.opts.Sections {
		wanted[name] = true
	}

	filtered := names[:0]

	for _, name := range names {
		if wanted[name] {
			filtered = append(filtered, name)
		}
	}

	return filtered
}

func (r *Renderer) section(name string, metrics document.SectionMetrics) {
	fmt.Fprintf(r.w, "--- %s ---\n", strings.ToUpper(name))

	if hasData, ok := metrics[name+"_has_data"].(bool); ok && !hasData {
		if errMsg, ok := metrics["error"].(string); ok && errMsg != "" {
			r.paint(color.FgRed, "no data: %s\n\n", errMsg)
		} else {
			r.paint(color.FgRed, "no data\n\n")
		}

		return
	}

	keys := make([]string, 0, len(metrics))
	for key := range metrics {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	tbl := table.NewWriter()
	tbl.SetOutputMirror(r.w)
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"Metric", "Value"})

	for _, key := range keys {
		tbl.AppendRow(table.Row{key, formatValue(metrics[key])})
	}

	tbl.Render()
	fmt.Fprintln(r.w)
}

func (r *Renderer) paint(attr color.Attribute, format string, args ...any) {
	c := color.New(attr)
	if r.opts.NoColor {
		c.DisableColor()
	}

	c.Fprintf(r.w, format, args...)
}

// formatValue renders one metric value. Nil percentages print as "null" so
// "not measurable" stays distinct from zero.
func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case *float64:
		if val == nil {
			return "null"
		}

		return humanize.CommafWithDigits(*val, 2)
	case float64:
		return humanize.CommafWithDigits(val, 2)
	case int64:
		return humanize.Comma(val)
	case int:
		return humanize.Comma(int64(val))
	case bool:
		return fmt.Sprintf("%t", val)
	case string:
		return val
	default:
		return fmt.Sprintf("%v", val)
	}
}
