package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	googleOAuth2 "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"

	"github.com/nyra-health/nyra-coach/internal/config"
	"github.com/nyra-health/nyra-coach/internal/dto"
	"github.com/nyra-health/nyra-coach/internal/middleware"
	"github.com/nyra-health/nyra-coach/internal/utils"
)

const oauthStateCookie = "nyra_oauth_state"

// GoogleProfileFetcher exchanges an authorization code for the Google profile
type GoogleProfileFetcher func(ctx context.Context, code string) (*dto.GoogleUserInfo, error)

// GoogleAuthHandler handles Google OAuth authentication
type GoogleAuthHandler struct {
	users        UserStore
	oauth2Config *oauth2.Config
	config       *config.Config
	fetchProfile GoogleProfileFetcher
}

// NewGoogleAuthHandler creates a new GoogleAuthHandler instance
func NewGoogleAuthHandler(users UserStore, cfg *config.Config) *GoogleAuthHandler {
	oauth2Config := &oauth2.Config{
		ClientID:     cfg.GoogleOAuth.ClientID,
		ClientSecret: cfg.GoogleOAuth.ClientSecret,
		RedirectURL:  cfg.GoogleOAuth.RedirectURL,
		Scopes: []string{
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: google.Endpoint,
	}

	h := &GoogleAuthHandler{
		users:        users,
		oauth2Config: oauth2Config,
		config:       cfg,
	}
	h.fetchProfile = h.exchangeAndFetch
	return h
}

// WithProfileFetcher replaces the Google code exchange, for tests
func (h *GoogleAuthHandler) WithProfileFetcher(f GoogleProfileFetcher) *GoogleAuthHandler {
	h.fetchProfile = f
	return h
}

// GoogleLogin initiates Google OAuth login
// @Summary Google OAuth login
// @Description Initiate Google OAuth login flow. The state is also set as a cookie and checked on callback
// @Tags authentication
// @Produce json
// @Success 200 {object} dto.GoogleLoginResponse "Google OAuth URL"
// @Router /api/auth/google/login [get]
func (h *GoogleAuthHandler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	// Generate state parameter for CSRF protection
	state := uuid.New().String()

	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/api/auth/google",
		Expires:  time.Now().Add(10 * time.Minute),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})

	authURL := h.oauth2Config.AuthCodeURL(state, oauth2.AccessTypeOffline)
	utils.WriteJSONResponse(w, http.StatusOK, dto.GoogleLoginResponse{AuthURL: authURL, State: state})
}

// GoogleCallback handles Google OAuth callback
// @Summary Google OAuth callback
// @Description Handle Google OAuth callback with authorization code, then redirect to the frontend with a JWT
// @Tags authentication
// @Param code query string true "Authorization code from Google"
// @Param state query string true "State parameter for CSRF protection"
// @Success 302 "Redirect to the frontend with token"
// @Failure 400 {object} dto.ErrorResponse "Invalid request data"
// @Failure 401 {object} dto.ErrorResponse "Invalid authorization code"
// @Failure 403 {object} dto.ErrorResponse "Email not verified"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /api/auth/google/callback [get]
func (h *GoogleAuthHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")
	if code == "" {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Missing authorization code", "Authorization code is required")
		return
	}

	cookie, err := r.Cookie(oauthStateCookie)
	if err != nil || state == "" || cookie.Value != state {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Invalid state", "OAuth state does not match")
		return
	}
	http.SetCookie(w, &http.Cookie{Name: oauthStateCookie, Value: "", Path: "/api/auth/google", MaxAge: -1})

	userInfo, err := h.fetchProfile(r.Context(), code)
	if err != nil {
		log.Warn().Err(err).Msg("Google code exchange failed")
		utils.WriteErrorResponse(w, http.StatusUnauthorized, "Invalid authorization code", "Could not verify Google login")
		return
	}
	if userInfo.Email == "" {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Missing email", "Google account has no email address")
		return
	}
	// accounts are linked by email, so the address must be proven
	if !userInfo.Verified {
		log.Warn().Str("email", userInfo.Email).Msg("Rejected Google login with unverified email")
		utils.WriteErrorResponse(w, http.StatusForbidden, "Email not verified", "Google account email is not verified")
		return
	}

	var avatar *string
	if userInfo.Picture != "" {
		avatar = &userInfo.Picture
	}
	user, err := h.users.UpsertGoogleUser(r.Context(), userInfo.Email, userInfo.Name, avatar)
	if err != nil {
		log.Error().Err(err).Str("email", userInfo.Email).Msg("Failed to upsert Google user")
		utils.WriteErrorResponse(w, http.StatusInternalServerError, "Failed to create user", "Could not save user")
		return
	}

	jwtToken, err := middleware.GenerateToken(user.ID, user.Email, &h.config.JWT)
	if err != nil {
		log.Error().Err(err).Msg("Failed to sign JWT")
		utils.WriteErrorResponse(w, http.StatusInternalServerError, "Failed to generate token", "Could not issue token")
		return
	}

	params := url.Values{}
	params.Set("token", jwtToken)
	params.Set("user_id", user.ID)
	params.Set("email", user.Email)
	params.Set("name", user.Name)
	params.Set("provider", user.LoginMethod)
	log.Info().Str("user_id", user.ID).Msg("Google login succeeded")
	http.Redirect(w, r, h.config.FrontendURL+"/auth/callback?"+params.Encode(), http.StatusFound)
}

// exchangeAndFetch trades the code for a token and fetches the Google profile
func (h *GoogleAuthHandler) exchangeAndFetch(ctx context.Context, code string) (*dto.GoogleUserInfo, error) {
	token, err := h.oauth2Config.Exchange(ctx, code)
	if err != nil {
		return nil, err
	}

	service, err := googleOAuth2.NewService(ctx, option.WithTokenSource(h.oauth2Config.TokenSource(ctx, token)))
	if err != nil {
		return nil, err
	}

	userInfo, err := service.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	if userInfo == nil {
		return nil, errors.New("empty Google user info")
	}

	verified := false
	if userInfo.VerifiedEmail != nil {
		verified = *userInfo.VerifiedEmail
	}

	return &dto.GoogleUserInfo{
		ID:       userInfo.Id,
		Email:    userInfo.Email,
		Name:     userInfo.Name,
		Picture:  userInfo.Picture,
		Verified: verified,
	}, nil
}
