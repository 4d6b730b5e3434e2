package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/anonto42/litreview/internal/models"
	"github.com/anonto42/litreview/internal/services"
	"github.com/anonto42/litreview/pkg/apperror"
)

// failTo flashes err and redirects to target. Domain errors show their own
// message, anything else is logged and replaced by a generic one.
func failTo(c echo.Context, logger *zap.Logger, err error, target string) error {
	if apperror.As(err) == nil || errors.Is(err, apperror.ErrInternal) {
		logger.Error("request failed",
			zap.String("method", c.Request().Method),
			zap.String("path", c.Path()),
			zap.Error(err))
	}
	addFlash(c, FlashError, apperror.UserMessage(err))
	return redirectAfter(c, target)
}

// ErrorHandler answers errors that handlers return instead of redirecting.
func ErrorHandler(e *echo.Echo, logger *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		de := apperror.As(err)
		if de == nil {
			e.DefaultHTTPErrorHandler(err, c)
			return
		}
		if c.Response().Committed {
			return
		}

		status := http.StatusBadRequest
		switch de.Code {
		case apperror.CodeNotFound:
			status = http.StatusNotFound
		case apperror.CodeForbidden:
			status = http.StatusForbidden
		case apperror.CodeUnauthorized:
			status = http.StatusUnauthorized
		case apperror.CodeConflict, apperror.CodeDuplicateFollow, apperror.CodeAlreadyReviewed:
			status = http.StatusConflict
		case apperror.CodeInternal:
			status = http.StatusInternalServerError
			logger.Error("internal error", zap.String("path", c.Path()), zap.Error(err))
		}
		if err := c.String(status, apperror.UserMessage(err)); err != nil {
			logger.Warn("write error response", zap.Error(err))
		}
	}
}

// redirectAfter answers 303 to POSTs so the browser follows with a GET.
func redirectAfter(c echo.Context, target string) error {
	if c.Request().Method == http.MethodGet {
		return c.Redirect(http.StatusFound, target)
	}
	return c.Redirect(http.StatusSeeOther, target)
}

// succeedTo flashes a success message and redirects to target.
func succeedTo(c echo.Context, message, target string) error {
	addFlash(c, FlashSuccess, message)
	return redirectAfter(c, target)
}

func paramID(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		return 0, apperror.NewNotFound("This page doesn't exist.")
	}
	return uint(id), nil
}

// imageUpload opens the optional "image" file field. The returned closer is never nil.
func imageUpload(c echo.Context) (*services.ImageUpload, func(), error) {
	noop := func() {}
	fh, err := c.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, noop, nil
		}
		return nil, noop, apperror.NewValidationError("image: the upload could not be read",
			map[string]string{"image": "the upload could not be read"})
	}
	if fh.Size == 0 {
		return nil, noop, nil
	}
	f, err := fh.Open()
	if err != nil {
		return nil, noop, apperror.NewInternalError(err)
	}
	return &services.ImageUpload{Filename: fh.Filename, Content: f}, func() { f.Close() }, nil
}

func bindForm(c echo.Context, form any) error {
	if err := c.Bind(form); err != nil {
		return apperror.NewValidationError("The form could not be read.", nil)
	}
	return nil
}

// bindReviewForm binds a review form. The rating is read separately so a
// missing one stays nil.
func bindReviewForm(c echo.Context, form *models.ReviewForm) error {
	if err := bindForm(c, form); err != nil {
		return err
	}
	raw := strings.TrimSpace(c.FormValue("rating"))
	if raw == "" {
		return nil
	}
	rating, err := strconv.Atoi(raw)
	if err != nil {
		return apperror.NewValidationError("rating: must be a whole number",
			map[string]string{"rating": "must be a whole number"})
	}
	form.Rating = &rating
	return nil
}
