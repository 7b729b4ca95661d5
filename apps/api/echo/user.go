package echoapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"

	"github.com/roboclub/backend/core"
	"github.com/roboclub/backend/core/user"
)

const oauthStateCookie = "oauthstate"

type userApi struct {
	conf     *core.Config
	svc      user.ServiceInterface
	validate *validator.Validate
	oauthCfg *oauth2.Config
}

func registerUserAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := userApi{
		conf:     deps.Conf,
		svc:      deps.UserSvc,
		validate: deps.Validate,
		oauthCfg: newGoogleOAuthConfig(deps.Conf),
	}

	ug := g.Group("/users")

	// un-authed endpoints
	ug.POST("/register", api.register)
	ug.POST("/login", api.login)
	ug.GET("/oauth/google", api.oauthLogin)
	ug.GET("/oauth/google/callback", api.oauthCallback)

	// authed endpoints
	ag := ug.Group("", jwt)
	ag.POST("/token-refresh", api.refreshToken)
	ag.GET("/me", api.me)

	g.GET("/leaderboard", api.leaderboard)
}

func newGoogleOAuthConfig(conf *core.Config) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     conf.OAuth.GoogleClientID,
		ClientSecret: conf.OAuth.GoogleClientSecret,
		RedirectURL:  conf.OAuth.RedirectURL,
		Scopes: []string{
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: oauth2.Endpoint{
			AuthURL:  "https://accounts.google.com/o/oauth2/auth",
			TokenURL: "https://oauth2.googleapis.com/token",
		},
	}
}

// Handlers

func (api *userApi) register(ctx echo.Context) error {
	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}
	if err := data.Validate(ctx.Request().Context(), api.validate, api.svc); err != nil {
		return err
	}

	usr, err := api.svc.Register(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "registering user")
	}

	return ctx.JSON(http.StatusCreated, usr)
}

func (api *userApi) login(ctx echo.Context) error {
	var data user.Credentials
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Credentials")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	claims, err := authenticate(ctx, api.conf, api.svc, data.Email, data.Password)
	if err != nil {
		return errors.Wrap(err, "authenticating")
	}
	token, err := GenerateToken(claims)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}

	return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
}

func (api *userApi) oauthLogin(ctx echo.Context) error {
	state := uuid.New().String()
	ctx.SetCookie(&http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Expires:  time.Now().Add(10 * time.Minute),
		HttpOnly: true,
	})
	return ctx.Redirect(http.StatusTemporaryRedirect, api.oauthCfg.AuthCodeURL(state))
}

func (api *userApi) oauthCallback(ctx echo.Context) error {
	cookie, err := ctx.Cookie(oauthStateCookie)
	if err != nil || cookie.Value == "" || cookie.Value != ctx.QueryParam("state") {
		return core.NewValidationError(errors.New("invalid oauth state"))
	}

	reqCtx := ctx.Request().Context()
	oauthToken, err := api.oauthCfg.Exchange(reqCtx, ctx.QueryParam("code"))
	if err != nil {
		return core.NewValidationError(errors.New("oauth code exchange failed"))
	}

	resp, err := api.oauthCfg.Client(reqCtx, oauthToken).Get("https://www.googleapis.com/oauth2/v2/userinfo")
	if err != nil {
		return errors.Wrap(err, "fetching userinfo")
	}
	defer resp.Body.Close()

	var info googleUserInfo
	if err = json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return errors.Wrap(err, "decoding userinfo")
	}

	usr, err := api.svc.FederatedLogin(reqCtx, user.FederatedUser{
		Email: info.Email,
		Name:  info.Name,
		Image: info.Picture,
	})
	if err != nil {
		return errors.Wrap(err, "logging in federated user")
	}

	token, err := GenerateToken(GetUserClaims(api.conf, usr))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
}

func (api *userApi) refreshToken(ctx echo.Context) error {
	token, err := refreshToken(ctx, api.conf, api.svc)
	if err != nil {
		return errors.Wrap(err, "refreshing token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
}

func (api *userApi) me(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) leaderboard(ctx echo.Context) error {
	entries, err := api.svc.Leaderboard(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying leaderboard")
	}
	if entries == nil {
		entries = []user.LeaderboardEntry{}
	}
	return ctx.JSON(http.StatusOK, entries)
}
