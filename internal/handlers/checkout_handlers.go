package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"pawcare_app/internal/models"
	"pawcare_app/internal/services"
)

type CheckoutHandler struct {
	db         *gorm.DB
	orders     *services.OrderService
	reconciler *services.PaymentReconciler
	gatewayTag models.PaymentGateway
}

func NewCheckoutHandler(db *gorm.DB, orders *services.OrderService, reconciler *services.PaymentReconciler, gatewayTag models.PaymentGateway) *CheckoutHandler {
	return &CheckoutHandler{db: db, orders: orders, reconciler: reconciler, gatewayTag: gatewayTag}
}

// StartCheckout books a service case and opens a payment for it.
func (h *CheckoutHandler) StartCheckout(c echo.Context) error {
	var req CheckoutRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid JSON payload")
	}

	var customer models.Customer
	if err := h.db.First(&customer, req.CustomerID).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Customer not found")
	}

	var offering models.ServiceOffering
	if err := h.db.First(&offering, req.ServiceOfferingID).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Service offering not found")
	}
	if !offering.IsActive {
		return echo.NewHTTPError(http.StatusBadRequest, "Service offering is not available")
	}

	serviceCase := models.ServiceCase{
		CustomerID:        customer.ID,
		ServiceOfferingID: offering.ID,
		Notes:             req.Notes,
		ScheduledAt:       req.ScheduledAt,
		PaymentStatus:     models.CasePaymentPending,
	}
	if err := h.db.Create(&serviceCase).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create service case")
	}

	record, err := h.orders.CreateOrder(c.Request().Context(), services.CreateOrderInput{
		Amount:          offering.Price,
		Currency:        offering.Currency,
		ServiceCaseID:   serviceCase.ID,
		CustomerName:    customer.Name,
		CustomerEmail:   customer.Email,
		CustomerContact: customer.Phone,
	})
	if err != nil {
		// The case stays pending with no order attached; the customer can
		// retry checkout against it.
		return err
	}

	return c.JSON(http.StatusOK, CheckoutResponse{
		CaseID:   serviceCase.ID,
		OrderID:  record.ExternalOrderID,
		Amount:   record.Amount,
		Currency: record.Currency,
		Status:   string(record.Status),
	})
}

// VerifyPayment handles the client-submitted confirmation after the gateway
// redirect. The signature is checked by the reconciler; this path races the
// webhook for the same order and either may win.
func (h *CheckoutHandler) VerifyPayment(c echo.Context) error {
	var req VerifyRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid JSON payload")
	}
	if req.OrderID == "" || req.PaymentID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "order id and payment id are required")
	}

	raw, _ := json.Marshal(req)
	ev := services.PaymentEvent{
		OrderID:   req.OrderID,
		PaymentID: req.PaymentID,
		Signature: req.Signature,
		Outcome:   services.DeclaredSuccess,
		Source:    services.SourceCallback,
		Gateway:   h.gatewayTag,
		Raw:       raw,
	}

	result, err := h.reconciler.ApplyEvent(c.Request().Context(), ev)
	if err != nil {
		if errors.Is(err, services.ErrUnknownOrder) {
			return echo.NewHTTPError(http.StatusNotFound, "Unknown order")
		}
		return err
	}

	resp := VerifyResponse{Status: string(result.Record.Status)}
	switch result.Outcome {
	case services.OutcomeTransitioned, services.OutcomeAlreadyApplied:
		resp.Verified = result.Record.Status == models.PaymentCompleted
		return c.JSON(http.StatusOK, resp)
	case services.OutcomeConflict:
		return c.JSON(http.StatusConflict, resp)
	default: // rejected
		return c.JSON(http.StatusOK, resp)
	}
}
