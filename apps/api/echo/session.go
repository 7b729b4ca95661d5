package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/roboclub/backend/core"
	"github.com/roboclub/backend/core/session"
	"github.com/roboclub/backend/core/user"
)

type sessionApi struct {
	svc      session.ServiceInterface
	usrSvc   user.ServiceInterface
	validate *validator.Validate
}

func registerSessionAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := sessionApi{
		svc:      deps.SessionSvc,
		usrSvc:   deps.UserSvc,
		validate: deps.Validate,
	}

	sg := g.Group("/sessions")

	// un-authed endpoints
	sg.GET("", api.query)
	sg.GET("/:id", api.retrieve)

	// authed endpoints
	sg.POST("", api.create, jwt, mentorMiddleware())
	sg.DELETE("/:id", api.destroy, jwt, mentorMiddleware())
	sg.POST("/:id/join", api.join, jwt)

	pg := g.Group("/participations", jwt)
	pg.POST("/award", api.award, mentorMiddleware())
}

// Handlers

func (api *sessionApi) query(ctx echo.Context) error {
	sessions, err := api.svc.Query(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying sessions")
	}
	if sessions == nil {
		sessions = []session.Session{}
	}
	return ctx.JSON(http.StatusOK, sessions)
}

func (api *sessionApi) retrieve(ctx echo.Context) error {
	detail, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == session.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "getting session")
	}
	return ctx.JSON(http.StatusOK, detail)
}

func (api *sessionApi) create(ctx echo.Context) error {
	var data session.NewSession
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSession")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	s, err := api.svc.Create(ctx.Request().Context(), actor, data)
	if err != nil {
		if errors.Cause(err) == session.ErrNotMentor {
			return errHttpForbidden
		}
		return errors.Wrap(err, "creating session")
	}
	return ctx.JSON(http.StatusCreated, s)
}

func (api *sessionApi) destroy(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	if err = api.svc.Delete(ctx.Request().Context(), ctx.Param("id"), actor); err != nil {
		switch errors.Cause(err) {
		case session.ErrNotFound:
			return errHttpNotFound
		case session.ErrNotOwner, session.ErrNotMentor:
			return errHttpForbidden
		}
		return errors.Wrap(err, "deleting session")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Session deleted."})
}

func (api *sessionApi) join(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	if err = api.svc.Join(ctx.Request().Context(), ctx.Param("id"), actor); err != nil {
		switch errors.Cause(err) {
		case session.ErrNotFound:
			return errHttpNotFound
		case session.ErrAlreadyJoined:
			return core.NewValidationError(session.ErrAlreadyJoined)
		}
		return errors.Wrap(err, "joining session")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Session joined."})
}

func (api *sessionApi) award(ctx echo.Context) error {
	var data session.PointsAward
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PointsAward")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	p, err := api.svc.AwardPoints(ctx.Request().Context(), actor, data)
	if err != nil {
		switch errors.Cause(err) {
		case session.ErrNotFound, session.ErrUserNotFound:
			return errHttpNotFound
		case session.ErrNotMentor, session.ErrNotOwner:
			return errHttpForbidden
		}
		return errors.Wrap(err, "awarding points")
	}
	return ctx.JSON(http.StatusOK, p)
}
