// Package export renders itineraries into printable documents.
package export

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/Rrens/trip-planner/internal/domain"
	"github.com/phpdave11/gofpdf"
	"github.com/skip2/go-qrcode"
)

const qrSize = 256

// ShareLink is the QR code content for an itinerary. Saved itineraries
// point at their history entry, unsaved ones carry a plain summary.
func ShareLink(baseURL string, it *domain.Itinerary) string {
	if it.ID != nil {
		return fmt.Sprintf("%s/api/planner/history/%d/", strings.TrimRight(baseURL, "/"), *it.ID)
	}
	days := 0
	if it.Preferences.Days != nil {
		days = *it.Preferences.Days
	}
	return fmt.Sprintf("%s, %d days, %s", it.Preferences.Destination, days, it.Preferences.Budget)
}

// PDF writes a one-page A4 summary of it to w
func PDF(w io.Writer, it *domain.Itinerary, baseURL string) error {
	qrPNG, err := qrcode.Encode(ShareLink(baseURL, it), qrcode.Medium, qrSize)
	if err != nil {
		return fmt.Errorf("failed to generate QR code: %w", err)
	}

	view := it.Payload.View()
	destination := view.Destination
	if destination == "" {
		destination = it.Preferences.Destination
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Itinerary: "+destination, true)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 18)
	pdf.Cell(0, 10, tr(destination))
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 11)
	pdf.Cell(0, 7, "Status: "+string(it.Status))
	pdf.Ln(7)
	if it.ID != nil {
		pdf.Cell(0, 7, fmt.Sprintf("Itinerary #%d", *it.ID))
		pdf.Ln(7)
	}
	if view.Days > 0 {
		pdf.Cell(0, 7, fmt.Sprintf("%d days, %s budget", view.Days, view.Budget))
		pdf.Ln(7)
	}
	pdf.Cell(0, 7, fmt.Sprintf("%d flight options, %d hotels", view.Flights, view.Hotels))
	pdf.Ln(7)
	if view.CO2Kg != nil {
		pdf.Cell(0, 7, fmt.Sprintf("Estimated footprint: %.0f kg CO2", *view.CO2Kg))
		pdf.Ln(7)
	}

	imageOpts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("qr", imageOpts, bytes.NewReader(qrPNG))
	pdf.ImageOptions("qr", 160, 15, 35, 35, false, imageOpts, 0, "")

	pdf.SetY(60)
	for _, day := range view.DayPlan {
		pdf.SetFont("Arial", "B", 12)
		pdf.Cell(0, 8, fmt.Sprintf("Day %d", day.Day))
		pdf.Ln(8)
		pdf.SetFont("Arial", "", 11)
		for _, label := range day.Labels() {
			pdf.MultiCell(0, 6, tr("- "+label), "", "L", false)
		}
		pdf.Ln(2)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to render PDF: %w", err)
	}
	return nil
}
