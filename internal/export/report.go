// Package export shapes a session summary into a shareable report.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"text/tabwriter"
	"time"

	"github.com/kndrckm/splitbill/internal/models"
)

// Report is the stable, serializable snapshot handed to renderers.
// People appear in session order.
type Report struct {
	SessionName     string                `json:"session_name"`
	GeneratedAt     time.Time             `json:"generated_at"`
	Bills           []BillLine            `json:"bills"`
	People          []models.PersonTotals `json:"people"`
	Settlements     []models.Settlement   `json:"settlements"`
	UnassignedItems int                   `json:"unassigned_items"`
	GrandTotal      float64               `json:"grand_total"`
}

// BillLine is the per-bill header shown above the breakdown.
type BillLine struct {
	Name          string  `json:"name"`
	Subtotal      float64 `json:"subtotal"`
	Tax           float64 `json:"tax"`
	ServiceCharge float64 `json:"service_charge"`
	Total         float64 `json:"total"`
}

// Build assembles a Report with every amount rounded to cents.
func Build(session *models.Session, summary models.Summary, now time.Time) Report {
	r := Report{
		SessionName:     session.Name,
		GeneratedAt:     now.UTC(),
		Bills:           make([]BillLine, 0, len(session.Bills)),
		People:          make([]models.PersonTotals, 0, len(summary.Totals)),
		Settlements:     make([]models.Settlement, 0, len(summary.Settlements)),
		UnassignedItems: summary.UnassignedItems,
	}

	for _, b := range session.Bills {
		r.Bills = append(r.Bills, BillLine{
			Name:          b.Name,
			Subtotal:      round(b.Subtotal),
			Tax:           round(b.Tax),
			ServiceCharge: round(b.ServiceCharge),
			Total:         round(b.Total),
		})
		r.GrandTotal += b.Total
	}
	r.GrandTotal = round(r.GrandTotal)

	for _, t := range summary.Totals {
		t.ItemTotal = round(t.ItemTotal)
		t.TaxShare = round(t.TaxShare)
		t.ServiceShare = round(t.ServiceShare)
		t.FinalTotal = round(t.FinalTotal)
		t.AmountPaid = round(t.AmountPaid)
		t.Balance = round(t.Balance)
		r.People = append(r.People, t)
	}

	for _, s := range summary.Settlements {
		s.Amount = round(s.Amount)
		r.Settlements = append(r.Settlements, s)
	}

	return r
}

// RenderJSON writes the report as indented JSON.
func RenderJSON(w io.Writer, r Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}

// RenderText writes the report as aligned plain text, suitable for pasting into a chat.
func RenderText(w io.Writer, r Report) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)

	fmt.Fprintf(tw, "%s\t\n", r.SessionName)
	if r.UnassignedItems > 0 {
		fmt.Fprintf(tw, "Warning: %d unassigned item(s) are not included\t\n", r.UnassignedItems)
	}
	fmt.Fprintln(tw, "\t")

	fmt.Fprintln(tw, "Bill\tSubtotal\tTax\tService\tTotal\t")
	for _, b := range r.Bills {
		fmt.Fprintf(tw, "%s\t%.2f\t%.2f\t%.2f\t%.2f\t\n", b.Name, b.Subtotal, b.Tax, b.ServiceCharge, b.Total)
	}
	fmt.Fprintf(tw, "All bills\t\t\t\t%.2f\t\n", r.GrandTotal)
	fmt.Fprintln(tw, "\t")

	fmt.Fprintln(tw, "Person\tItems\tTax\tService\tTotal\tPaid\tBalance\t")
	for _, p := range r.People {
		fmt.Fprintf(tw, "%s\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\t%+.2f\t\n",
			p.Name, p.ItemTotal, p.TaxShare, p.ServiceShare, p.FinalTotal, p.AmountPaid, p.Balance)
	}
	fmt.Fprintln(tw, "\t")

	if len(r.Settlements) == 0 {
		fmt.Fprintln(tw, "Nothing to settle\t")
	}
	for _, s := range r.Settlements {
		fmt.Fprintf(tw, "%s pays %s\t%.2f\t\n", s.From, s.To, s.Amount)
	}

	if err := tw.Flush(); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

func round(v float64) float64 {
	r := math.Round(v*100) / 100
	if r == 0 {
		return 0 // no "-0.00"
	}
	return r
}
