package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"pawcare_app/internal/gateway"
	"pawcare_app/internal/services"
)

// CustomErrorHandler maps domain errors to JSON responses. Gateway failures
// carry a transient flag so checkout callers can decide whether the customer
// should retry.
func CustomErrorHandler(err error, c echo.Context) {
	code := http.StatusInternalServerError
	message := "Something went wrong. Please try again later."
	transient := false

	var he *echo.HTTPError
	var ge *gateway.Error

	switch {
	case errors.As(err, &he):
		code = he.Code
		if msg, ok := he.Message.(string); ok && msg != "" {
			message = msg
		}
	case errors.As(err, &ge):
		code, message, transient = gatewayStatus(ge)
	case errors.Is(err, services.ErrUnknownOrder):
		code = http.StatusNotFound
		message = "No payment record exists for this order"
	case errors.Is(err, services.ErrInvalidAmount),
		errors.Is(err, services.ErrUnsupportedCurrency):
		code = http.StatusBadRequest
		message = err.Error()
	case errors.Is(err, gorm.ErrRecordNotFound):
		code = http.StatusNotFound
		message = "Resource not found"
	}

	// Log the error
	c.Logger().Error(err)

	if c.Response().Committed {
		return
	}

	body := map[string]interface{}{"error": message}
	if transient {
		body["transient"] = true
	}
	if err := c.JSON(code, body); err != nil {
		c.Logger().Error(err)
	}
}

func gatewayStatus(ge *gateway.Error) (int, string, bool) {
	switch ge.Kind {
	case gateway.KindNetwork:
		return http.StatusServiceUnavailable, "Payment provider is unreachable, please retry", true
	case gateway.KindRateLimited:
		return http.StatusServiceUnavailable, "Payment provider is busy, please retry", true
	case gateway.KindAuth:
		return http.StatusBadGateway, "Payment provider rejected our credentials", false
	case gateway.KindNotFound:
		return http.StatusNotFound, "Payment provider does not know this resource", false
	default:
		return http.StatusUnprocessableEntity, "Payment provider rejected the request", false
	}
}
