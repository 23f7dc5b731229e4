package handlers

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	apperrors "stockbank/internal/errors"
	"stockbank/internal/logger"
	"stockbank/internal/pagination"
	"stockbank/internal/uuid"
	appvalidator "stockbank/internal/validator"
)

// getUserID extracts the authenticated user ID from the Gin context.
// Returns ErrUnauthorized if not present.
func getUserID(c *gin.Context) (string, error) {
	userID := c.GetString("userID")
	if userID == "" {
		return "", apperrors.ErrUnauthorized
	}
	return userID, nil
}

// parsePathID reads a UUID path parameter.
// Returns ErrInvalidInput if the parameter is not a valid UUID.
func parsePathID(c *gin.Context, param string) (string, error) {
	id := c.Param(param)
	if !uuid.IsValid(id) {
		return "", apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid "+param)
	}
	return id, nil
}

// bindPage binds page and page_size query parameters.
func bindPage(c *gin.Context) (pagination.PageRequest, error) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		return page, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
	}
	page.Defaults()
	return page, nil
}

// parseDateRange reads optional from/to query parameters (RFC3339 or
// YYYY-MM-DD). Missing bounds default to the last 30 days.
func parseDateRange(c *gin.Context) (time.Time, time.Time, error) {
	to := time.Now()
	from := to.AddDate(0, 0, -30)

	if v := c.Query("from"); v != "" {
		t, err := parseTime(v)
		if err != nil {
			return from, to, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid from date")
		}
		from = t
	}
	if v := c.Query("to"); v != "" {
		t, err := parseTime(v)
		if err != nil {
			return from, to, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid to date")
		}
		to = t
	}
	if from.After(to) {
		return from, to, apperrors.WithMessage(apperrors.ErrInvalidInput, "from must not be after to")
	}
	return from, to, nil
}

func parseTime(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", v)
}

// respondWithError writes the error envelope for err and attaches err to the
// context so ErrorHandler can count it. Non-AppErrors are logged and reported
// as INTERNAL_ERROR.
func respondWithError(c *gin.Context, err error) {
	appErr := apperrors.From(err)
	if appErr == apperrors.ErrInternalServer || appErr.Internal != nil {
		logger.Get().Errorw("request failed",
			"code", appErr.Code,
			"error", err.Error(),
			"method", c.Request.Method,
			"path", c.FullPath(),
		)
	}

	_ = c.Error(err)
	c.JSON(appErr.StatusCode, ErrorResponse{
		Error: ErrorDetail{Code: appErr.Code, Message: appErr.Message},
	})
}

// invalidInput wraps a binding error as ErrInvalidInput. A failed amount tag
// maps to ErrInvalidAmount so it reports the same code as the domain check.
func invalidInput(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			if fe.Tag() == appvalidator.TagDecimalGTE0 {
				return apperrors.WithMessage(apperrors.ErrInvalidAmount, fe.Field()+" must be a non-negative amount within range")
			}
		}
	}
	return apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
}
