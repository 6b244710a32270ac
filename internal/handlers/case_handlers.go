package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"pawcare_app/internal/models"
	"pawcare_app/internal/services"
)

type CaseHandler struct {
	db     *gorm.DB
	orders *services.OrderService
}

func NewCaseHandler(db *gorm.DB, orders *services.OrderService) *CaseHandler {
	return &CaseHandler{db: db, orders: orders}
}

// ListCases returns service cases, optionally filtered by customer.
func (h *CaseHandler) ListCases(c echo.Context) error {
	query := h.db.Model(&models.ServiceCase{}).Preload("Customer").Preload("Offering")

	if customerStr := c.QueryParam("customer_id"); customerStr != "" {
		customerID, err := strconv.ParseUint(customerStr, 10, 32)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid customer id")
		}
		query = query.Where("customer_id = ?", uint(customerID))
	}
	if status := c.QueryParam("payment_status"); status != "" {
		query = query.Where("payment_status = ?", status)
	}

	var cases []models.ServiceCase
	if err := query.Order("id desc").Limit(100).Find(&cases).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch cases")
	}
	return c.JSON(http.StatusOK, cases)
}

// GetCase returns one case with its payment history and ledger entries.
func (h *CaseHandler) GetCase(c echo.Context) error {
	caseID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid case id")
	}

	var serviceCase models.ServiceCase
	if err := h.db.Preload("Customer").Preload("Offering").Preload("History").First(&serviceCase, uint(caseID)).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Case not found")
	}

	var records []models.PaymentRecord
	h.db.Where("service_case_id = ?", serviceCase.ID).Order("id desc").Find(&records)

	return c.JSON(http.StatusOK, map[string]interface{}{
		"case":     serviceCase,
		"payments": records,
	})
}

// CreatePaymentLink issues a hosted checkout link for an unpaid case.
func (h *CaseHandler) CreatePaymentLink(c echo.Context) error {
	caseID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid case id")
	}

	var serviceCase models.ServiceCase
	if err := h.db.Preload("Customer").Preload("Offering").First(&serviceCase, uint(caseID)).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Case not found")
	}
	if serviceCase.PaymentStatus == models.CasePaymentPaid {
		return echo.NewHTTPError(http.StatusBadRequest, "Case is already paid")
	}

	description := fmt.Sprintf("Payment for %s", serviceCase.Offering.Name)
	record, err := h.orders.CreatePaymentLink(c.Request().Context(), services.CreateOrderInput{
		Amount:          serviceCase.Offering.Price,
		Currency:        serviceCase.Offering.Currency,
		ServiceCaseID:   serviceCase.ID,
		CustomerName:    serviceCase.Customer.Name,
		CustomerEmail:   serviceCase.Customer.Email,
		CustomerContact: serviceCase.Customer.Phone,
	}, description)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, PaymentLinkResponse{
		OrderID:  record.ExternalOrderID,
		LinkID:   record.PaymentLinkID,
		LinkURL:  record.PaymentLinkURL,
		Amount:   record.Amount,
		Currency: record.Currency,
	})
}
