package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"pawcare_app/internal/models"
)

// CatalogHandler covers the plain collaborator reads/writes around the
// payment core: customers and the priced service catalog.
type CatalogHandler struct {
	db *gorm.DB
}

func NewCatalogHandler(db *gorm.DB) *CatalogHandler {
	return &CatalogHandler{db: db}
}

// ListOfferings returns the active service catalog.
func (h *CatalogHandler) ListOfferings(c echo.Context) error {
	var offerings []models.ServiceOffering
	if err := h.db.Where("is_active = ?", true).Order("category, name").Find(&offerings).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch offerings")
	}
	return c.JSON(http.StatusOK, offerings)
}

// CreateCustomer registers a pet owner.
func (h *CatalogHandler) CreateCustomer(c echo.Context) error {
	var customer models.Customer
	if err := c.Bind(&customer); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid JSON payload")
	}
	if customer.Email == "" || customer.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Name and email are required")
	}
	if err := h.db.Create(&customer).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create customer")
	}
	return c.JSON(http.StatusCreated, customer)
}

// GetCustomer returns one customer with their cases.
func (h *CatalogHandler) GetCustomer(c echo.Context) error {
	customerID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid customer id")
	}

	var customer models.Customer
	if err := h.db.Preload("ServiceCases").First(&customer, uint(customerID)).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Customer not found")
	}
	return c.JSON(http.StatusOK, customer)
}
