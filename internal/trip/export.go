package trip

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

const pageWidth = 170.0

// RenderPDF lays out an itinerary as an A4 document.
func RenderPDF(it *SavedItinerary) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	// Header
	pdf.SetFillColor(22, 60, 92)
	pdf.Rect(0, 0, 210, 30, "F")
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 18)
	pdf.SetXY(20, 8)
	pdf.CellFormat(pageWidth, 10, tr(it.Name), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetX(20)
	pdf.CellFormat(pageWidth, 6, tr(subtitle(it)), "", 1, "L", false, 0, "")

	pdf.SetY(38)
	pdf.SetTextColor(0, 0, 0)

	if it.Description != "" {
		pdf.SetFont("Helvetica", "I", 10)
		pdf.MultiCell(pageWidth, 5, tr(it.Description), "", "L", false)
		pdf.Ln(4)
	}

	row := func(label, value string) {
		if value == "" {
			return
		}
		pdf.SetFont("Helvetica", "", 9)
		pdf.SetTextColor(100, 100, 100)
		pdf.CellFormat(35, 6, label, "", 0, "L", false, 0, "")
		pdf.SetTextColor(20, 20, 20)
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(pageWidth-35, 6, tr(value), "", "L", false)
	}

	for _, day := range it.Days {
		pdf.SetFillColor(22, 60, 92)
		pdf.SetTextColor(255, 255, 255)
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(pageWidth, 8, tr(fmt.Sprintf("  Day %d - %s", day.Day, day.Location)), "", 1, "L", true, 0, "")
		pdf.SetTextColor(0, 0, 0)
		pdf.Ln(1)

		row("Stay", day.Accommodation)
		row("Travel", day.TravelInfo)
		if day.WeatherInfo != nil {
			row("Weather", strings.TrimSpace(day.WeatherInfo.Temperature+" "+strings.Join(day.WeatherInfo.Conditions, ", ")))
		}
		for _, ev := range day.LocalEvents {
			row("Event", ev.Name)
		}
		pdf.Ln(2)

		for i, a := range day.Activities {
			pdf.SetFont("Helvetica", "B", 10)
			pdf.MultiCell(pageWidth, 5, tr(fmt.Sprintf("%d. %s (%s)", i+1, a.Title, a.Type)), "", "L", false)
			pdf.SetFont("Helvetica", "", 9)
			pdf.SetTextColor(60, 60, 60)
			pdf.MultiCell(pageWidth, 5, tr(a.Description), "", "L", false)
			if a.Details != nil && a.Details.Location != "" {
				pdf.MultiCell(pageWidth, 5, tr("Where: "+a.Details.Location), "", "L", false)
			}
			if a.Notes != "" {
				pdf.MultiCell(pageWidth, 5, tr("Notes: "+a.Notes), "", "L", false)
			}
			pdf.SetTextColor(0, 0, 0)
			pdf.Ln(2)
		}
		pdf.Ln(3)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("rendering itinerary pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func subtitle(it *SavedItinerary) string {
	parts := []string{it.Destination}
	if it.Country != "" && !strings.EqualFold(it.Country, it.Destination) {
		parts = append(parts, it.Country)
	}
	s := strings.Join(parts, ", ")
	s += fmt.Sprintf(" | %d days", it.Duration)
	if it.Date != "" {
		s += " | " + it.Date
	}
	return s
}

// ExportPDF renders one of the user's itineraries.
func (s *Service) ExportPDF(ctx context.Context, userID, id string) ([]byte, *SavedItinerary, error) {
	it, err := s.repo.GetByUserAndID(ctx, userID, id)
	if err != nil {
		return nil, nil, err
	}
	doc, err := RenderPDF(it)
	if err != nil {
		return nil, nil, err
	}
	return doc, it, nil
}
