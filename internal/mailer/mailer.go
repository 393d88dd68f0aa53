// Package mailer delivers generated itineraries by email.
package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/Rrens/trip-planner/internal/config"
	"github.com/Rrens/trip-planner/internal/domain"
	"github.com/rs/zerolog/log"
)

const subject = "Your Trip Itinerary from Trip Pick"

// Mailer sends an itinerary to one recipient
type Mailer interface {
	SendItinerary(ctx context.Context, to string, prefs domain.Preferences, itinerary domain.Payload) error
}

// New returns an SMTP mailer when a host is configured, a log mailer otherwise
func New(cfg config.MailConfig) Mailer {
	if cfg.Host == "" {
		return LogMailer{}
	}
	return &SMTPMailer{cfg: cfg}
}

// LogMailer records deliveries in the log instead of sending them
type LogMailer struct{}

func (LogMailer) SendItinerary(ctx context.Context, to string, prefs domain.Preferences, itinerary domain.Payload) error {
	log.Info().Str("to", to).Str("destination", prefs.Destination).Msg("Itinerary email (not sent, no SMTP host)")
	return nil
}

// SMTPMailer sends plain-text mail through an SMTP relay
type SMTPMailer struct {
	cfg config.MailConfig
}

func (m *SMTPMailer) SendItinerary(ctx context.Context, to string, prefs domain.Preferences, itinerary domain.Payload) error {
	body, err := Compose(m.cfg.From, to, prefs, itinerary)
	if err != nil {
		return err
	}

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	addr := net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))
	done := make(chan error, 1)
	go func() {
		done <- smtp.SendMail(addr, auth, m.cfg.From, []string{to}, body)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("failed to send email: %w", err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("failed to send email: %w", ctx.Err())
	}
}

// Compose renders the message with headers
func Compose(from, to string, prefs domain.Preferences, itinerary domain.Payload) ([]byte, error) {
	prefsJSON, err := json.MarshalIndent(prefs, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to render preferences: %w", err)
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, itinerary, "", "  "); err != nil {
		pretty.Reset()
		pretty.Write(itinerary)
	}

	lines := []string{
		"From: " + from,
		"To: " + to,
		"Subject: " + subject,
		"Content-Type: text/plain; charset=utf-8",
		"",
		"Hello,",
		"",
		"Here is your generated trip itinerary from Trip Pick.",
		"",
		"Preferences:",
		string(prefsJSON),
		"",
		"Itinerary:",
		pretty.String(),
		"",
		"Enjoy your trip!",
	}
	return []byte(strings.Join(lines, "\r\n")), nil
}
