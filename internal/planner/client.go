// Package planner translates itinerary and account operations into gateway
// calls with a fixed wire contract. It holds no itinerary state of its own.
package planner

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Rrens/trip-planner/internal/domain"
	"github.com/Rrens/trip-planner/internal/gateway"
	"github.com/go-playground/validator/v10"
)

const (
	generatePath = "/api/planner/generate/"
	savePath     = "/api/planner/save/"
	approvePath  = "/api/planner/approve/"
	historyPath  = "/api/planner/history/"
)

// Caller sends one backend request; *gateway.Gateway implements it
type Caller interface {
	Call(ctx context.Context, req gateway.Request) (*gateway.Response, error)
}

// GenerateResult is a freshly generated itinerary
type GenerateResult struct {
	Payload    domain.Payload
	EmailSent  bool
	EmailError string
}

// SaveResult carries the server-assigned id of a saved itinerary
type SaveResult struct {
	ID         int64
	EmailSent  bool
	EmailError string
}

// CallOption tunes a single generate or save call
type CallOption func(*callOptions)

type callOptions struct {
	email string
}

// WithEmail asks the backend to mail the itinerary to the given address
func WithEmail(email string) CallOption {
	return func(o *callOptions) {
		o.email = strings.TrimSpace(email)
	}
}

// Client is the itinerary service client
type Client struct {
	gw       Caller
	validate *validator.Validate
}

// NewClient creates a client sending its calls through gw
func NewClient(gw Caller) *Client {
	return &Client{
		gw:       gw,
		validate: newValidator(),
	}
}

// Generate requests a new itinerary for prefs. Anonymous callers are allowed.
func (c *Client) Generate(ctx context.Context, prefs domain.Preferences, opts ...CallOption) (*GenerateResult, error) {
	if err := c.checkPreferences(prefs); err != nil {
		return nil, err
	}
	o := applyOptions(opts)

	resp, err := c.gw.Call(ctx, gateway.Request{
		Method: http.MethodPost,
		Path:   generatePath,
		Body:   domain.GenerateRequest{Preferences: prefs, Email: o.email},
		Auth:   gateway.AuthOptional,
	})
	if err != nil {
		return nil, err
	}

	var out domain.GenerateResponse
	if err := resp.Decode(&out); err != nil {
		return nil, err
	}

	raw := []byte(out.Itinerary)
	if out.Itinerary.IsEmpty() {
		raw = resp.Body
	}
	payload, err := domain.NormalizePayload(raw)
	if err != nil {
		return nil, domain.NewError(domain.KindMalformedResponse, "generate returned no itinerary", err)
	}
	if payload.IsEmpty() {
		return nil, domain.NewError(domain.KindMalformedResponse, "generate returned an empty itinerary", nil)
	}

	return &GenerateResult{
		Payload:    payload,
		EmailSent:  out.EmailSent,
		EmailError: deref(out.EmailError),
	}, nil
}

// Save persists a generated itinerary and returns the id the server assigned
func (c *Client) Save(ctx context.Context, prefs domain.Preferences, payload domain.Payload, opts ...CallOption) (*SaveResult, error) {
	if err := c.checkPreferences(prefs); err != nil {
		return nil, err
	}
	if payload.IsEmpty() {
		return nil, domain.NewError(domain.KindInvalidInput, "itinerary payload is required", nil)
	}
	o := applyOptions(opts)

	resp, err := c.gw.Call(ctx, gateway.Request{
		Method: http.MethodPost,
		Path:   savePath,
		Body:   domain.SaveRequest{Preferences: prefs, Itinerary: payload, Email: o.email},
		Auth:   gateway.AuthRequired,
	})
	if err != nil {
		return nil, err
	}

	var out struct {
		ID         *int64  `json:"id"`
		EmailSent  bool    `json:"email_sent"`
		EmailError *string `json:"email_error"`
	}
	if err := resp.Decode(&out); err != nil {
		return nil, err
	}
	if out.ID == nil {
		return nil, domain.NewError(domain.KindMalformedResponse, "save response has no id", nil)
	}

	return &SaveResult{
		ID:         *out.ID,
		EmailSent:  out.EmailSent,
		EmailError: deref(out.EmailError),
	}, nil
}

// Approve flips a saved itinerary to APPROVED
func (c *Client) Approve(ctx context.Context, id int64) (domain.Status, error) {
	if id <= 0 {
		return "", domain.NewError(domain.KindInvalidInput, "itinerary id is required", nil)
	}

	resp, err := c.gw.Call(ctx, gateway.Request{
		Method: http.MethodPost,
		Path:   approvePath,
		Body:   domain.ApproveRequest{ItineraryID: id, NewStatus: domain.StatusApproved},
		Auth:   gateway.AuthRequired,
	})
	if err != nil {
		return "", err
	}

	var out domain.ApproveResponse
	if err := resp.Decode(&out); err != nil {
		return "", err
	}
	if out.Status != domain.StatusApproved {
		return "", domain.NewError(domain.KindMalformedResponse,
			fmt.Sprintf("approve answered status %q", out.Status), nil)
	}

	return out.Status, nil
}

// FetchHistory lists the caller's saved itineraries in the order the server returns them
func (c *Client) FetchHistory(ctx context.Context) ([]domain.ItinerarySummary, error) {
	resp, err := c.gw.Call(ctx, gateway.Request{
		Method: http.MethodGet,
		Path:   historyPath,
		Auth:   gateway.AuthRequired,
	})
	if err != nil {
		return nil, err
	}

	var entries []domain.ItinerarySummary
	if err := resp.Decode(&entries); err != nil {
		return nil, err
	}

	for i := range entries {
		if entries[i].Itinerary.IsEmpty() {
			continue
		}
		payload, err := domain.NormalizePayload(entries[i].Itinerary)
		if err != nil {
			return nil, domain.NewError(domain.KindMalformedResponse,
				fmt.Sprintf("history entry %d has an invalid itinerary", entries[i].ID), err)
		}
		entries[i].Itinerary = payload
	}

	return entries, nil
}

// DeleteItinerary removes a history entry. An id the server no longer knows
// counts as deleted.
func (c *Client) DeleteItinerary(ctx context.Context, id int64) error {
	if id <= 0 {
		return domain.NewError(domain.KindInvalidInput, "itinerary id is required", nil)
	}

	_, err := c.gw.Call(ctx, gateway.Request{
		Method: http.MethodDelete,
		Path:   fmt.Sprintf("%s%d/", historyPath, id),
		Auth:   gateway.AuthRequired,
	})
	if err != nil && !isNotFound(err) {
		return err
	}
	return nil
}

func (c *Client) checkPreferences(prefs domain.Preferences) error {
	if err := c.validate.Struct(prefs); err != nil {
		return invalidInput(err)
	}
	return nil
}

func isNotFound(err error) bool {
	return errors.Is(err, &domain.Error{Kind: domain.KindServerRejected, Code: http.StatusNotFound})
}

func applyOptions(opts []CallOption) callOptions {
	var o callOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
