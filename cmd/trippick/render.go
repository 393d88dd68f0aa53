package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/Rrens/trip-planner/internal/domain"
	"github.com/Rrens/trip-planner/internal/export"
	"github.com/Rrens/trip-planner/internal/lifecycle"
	"github.com/rs/zerolog/log"
)

func displayName(p domain.Profile) string {
	if p.DisplayName != "" {
		return fmt.Sprintf("%s <%s>", p.DisplayName, p.Email)
	}
	return p.Email
}

// transitions logs every lifecycle change at debug level
func (a *app) transitions(s lifecycle.Snapshot) {
	state := "none"
	if s.State != nil {
		state = s.State.String()
	}
	log.Debug().Str("state", state).Msg("Itinerary state changed")
}

func (a *app) printItinerary(it *domain.Itinerary, raw bool) error {
	if raw {
		var buf bytes.Buffer
		if err := json.Indent(&buf, it.Payload, "", "  "); err != nil {
			return fmt.Errorf("failed to format itinerary: %w", err)
		}
		fmt.Fprintln(a.out, buf.String())
		return nil
	}

	view := it.Payload.View()
	destination := view.Destination
	if destination == "" {
		destination = it.Preferences.Destination
	}

	fmt.Fprintf(a.out, "%s [%s]\n", destination, it.Status)
	if view.Days > 0 {
		fmt.Fprintf(a.out, "  %d days, %s budget\n", view.Days, view.Budget)
	}
	fmt.Fprintf(a.out, "  %d flight options, %d hotels\n", view.Flights, view.Hotels)
	if view.CO2Kg != nil {
		fmt.Fprintf(a.out, "  ~%.0f kg CO2\n", *view.CO2Kg)
	}
	for _, day := range view.DayPlan {
		fmt.Fprintf(a.out, "  Day %d: %s\n", day.Day, strings.Join(day.Labels(), ", "))
	}
	return nil
}

func (a *app) printHistory(entries []domain.ItinerarySummary) error {
	if len(entries) == 0 {
		fmt.Fprintln(a.out, "No saved itineraries")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDESTINATION\tDAYS\tSTATUS\tCREATED")
	for _, e := range entries {
		days := "-"
		if e.Preferences.Days != nil {
			days = fmt.Sprint(*e.Preferences.Days)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
			e.ID, e.Preferences.Destination, days, e.Status, e.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	return tw.Flush()
}

// writePDF exports it to path; an empty path is a no-op
func (a *app) writePDF(path string, it *domain.Itinerary) error {
	if path == "" {
		return nil
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := export.PDF(f, it, a.baseURL); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	fmt.Fprintf(a.out, "Wrote %s\n", path)
	return nil
}
