package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/roboclub/backend/core/feedback"
	"github.com/roboclub/backend/core/user"
)

type feedbackApi struct {
	svc      feedback.ServiceInterface
	usrSvc   user.ServiceInterface
	validate *validator.Validate
}

func registerFeedbackAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := feedbackApi{
		svc:      deps.FeedbackSvc,
		usrSvc:   deps.UserSvc,
		validate: deps.Validate,
	}

	fg := g.Group("/feedback")
	fg.GET("/:sessionId", api.query)
	fg.POST("", api.create, jwt)
}

// Handlers

func (api *feedbackApi) query(ctx echo.Context) error {
	fbs, err := api.svc.BySession(ctx.Request().Context(), ctx.Param("sessionId"))
	if err != nil {
		return errors.Wrap(err, "querying feedback")
	}
	if fbs == nil {
		fbs = []feedback.Feedback{}
	}
	return ctx.JSON(http.StatusOK, fbs)
}

func (api *feedbackApi) create(ctx echo.Context) error {
	var data feedback.NewFeedback
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewFeedback")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	fb, err := api.svc.Submit(ctx.Request().Context(), actor, data)
	if err != nil {
		return errors.Wrap(err, "submitting feedback")
	}
	return ctx.JSON(http.StatusCreated, fb)
}
