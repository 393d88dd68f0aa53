package planner

import (
	"context"
	"net/http"
	"strings"

	"github.com/Rrens/trip-planner/internal/credstore"
	"github.com/Rrens/trip-planner/internal/domain"
	"github.com/Rrens/trip-planner/internal/gateway"
	"github.com/Rrens/trip-planner/internal/security"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
)

const (
	loginPath    = "/api/accounts/login/"
	registerPath = "/api/accounts/register/"
	logoutPath   = "/api/accounts/logout/"
)

// Accounts runs the sign-in, registration and sign-out flows. Together with
// the gateway these are the only writers of the credential store.
type Accounts struct {
	gw       Caller
	store    credstore.Store
	validate *validator.Validate
}

// NewAccounts creates the account flows over gw and store
func NewAccounts(gw Caller, store credstore.Store) *Accounts {
	return &Accounts{
		gw:       gw,
		store:    store,
		validate: newValidator(),
	}
}

// loginReply accepts both token spellings used by the backend
type loginReply struct {
	AccessToken  string `json:"access_token"`
	Access       string `json:"access"`
	RefreshToken string `json:"refresh_token"`
	Refresh      string `json:"refresh"`
	Email        string `json:"email"`
	FullName     string `json:"full_name"`
}

// SignIn exchanges email and password for credentials and stores them
func (a *Accounts) SignIn(ctx context.Context, email, password string) (domain.Profile, error) {
	input := domain.UserLogin{Email: strings.TrimSpace(email), Password: password}
	if err := a.validate.Struct(input); err != nil {
		return domain.Profile{}, invalidInput(err)
	}

	resp, err := a.gw.Call(ctx, gateway.Request{
		Method: http.MethodPost,
		Path:   loginPath,
		Body:   input,
		Auth:   gateway.AuthNone,
	})
	if err != nil {
		return domain.Profile{}, err
	}

	var reply loginReply
	if err := resp.Decode(&reply); err != nil {
		return domain.Profile{}, err
	}

	creds := domain.Credentials{
		AccessToken:  firstNonEmpty(reply.AccessToken, reply.Access),
		RefreshToken: firstNonEmpty(reply.RefreshToken, reply.Refresh),
		Profile: domain.Profile{
			Email:       reply.Email,
			DisplayName: reply.FullName,
		},
	}
	if creds.AccessToken == "" {
		return domain.Profile{}, domain.NewError(domain.KindMalformedResponse, "login response has no access token", nil)
	}

	if creds.Profile.Email == "" || creds.Profile.DisplayName == "" {
		// display only; the signature is not checked
		if claims, err := security.PeekClaims(creds.AccessToken); err == nil {
			creds.Profile.Email = firstNonEmpty(creds.Profile.Email, claims.Email)
			creds.Profile.DisplayName = firstNonEmpty(creds.Profile.DisplayName, claims.FullName)
		}
	}
	if creds.Profile.Email == "" {
		creds.Profile.Email = input.Email
	}

	if err := a.store.Save(ctx, creds); err != nil {
		return domain.Profile{}, domain.NewError(domain.KindCredentialStore, "failed to store credentials", err)
	}

	return creds.Profile, nil
}

// Register creates an account. It does not sign the user in.
func (a *Accounts) Register(ctx context.Context, input domain.UserCreate) error {
	input.Email = strings.TrimSpace(input.Email)
	input.FullName = strings.TrimSpace(input.FullName)
	if err := a.validate.Struct(input); err != nil {
		return invalidInput(err)
	}

	_, err := a.gw.Call(ctx, gateway.Request{
		Method: http.MethodPost,
		Path:   registerPath,
		Body:   input,
		Auth:   gateway.AuthNone,
	})
	return err
}

// SignOut revokes the refresh credential server-side when possible and
// always clears the local store.
func (a *Accounts) SignOut(ctx context.Context) error {
	creds, err := a.store.Load(ctx)
	if err != nil {
		return domain.NewError(domain.KindCredentialStore, "failed to load credentials", err)
	}

	if creds.RefreshToken != "" {
		_, err := a.gw.Call(ctx, gateway.Request{
			Method: http.MethodPost,
			Path:   logoutPath,
			Body:   domain.RefreshRequest{Refresh: creds.RefreshToken},
			Auth:   gateway.AuthNone,
		})
		if err != nil {
			log.Debug().Err(err).Msg("Server logout failed, clearing local session anyway")
		}
	}

	if err := a.store.Clear(ctx); err != nil {
		return domain.NewError(domain.KindCredentialStore, "failed to clear credentials", err)
	}
	return nil
}

// Profile returns the stored profile and whether a session is present
func (a *Accounts) Profile(ctx context.Context) (domain.Profile, bool, error) {
	creds, err := a.store.Load(ctx)
	if err != nil {
		return domain.Profile{}, false, domain.NewError(domain.KindCredentialStore, "failed to load credentials", err)
	}
	if creds.Anonymous() {
		return domain.Profile{}, false, nil
	}
	return creds.Profile, true, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
