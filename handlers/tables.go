package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"table-reservation-api/apperrors"
	"table-reservation-api/models"
	"table-reservation-api/repository"
	"table-reservation-api/services"
)

type TableHandler struct {
	tables *services.TableService
}

func NewTableHandler(tables *services.TableService) *TableHandler {
	return &TableHandler{tables: tables}
}

type TableRequest struct {
	TableNumber    *int                  `json:"tableNumber" binding:"omitempty,min=1"`
	Name           *string               `json:"name" binding:"omitempty,max=100"`
	Capacity       *int                  `json:"capacity" binding:"omitempty,min=1,max=20"`
	Location       *models.TableLocation `json:"location" binding:"omitempty,table_location"`
	PricePerPerson *float64              `json:"pricePerPerson" binding:"omitempty,min=0"`
	Status         *models.TableStatus   `json:"status" binding:"omitempty,table_status"`
	Features       []string              `json:"features" binding:"omitempty,dive,max=50"`
	IsActive       *bool                 `json:"isActive"`
}

func (r TableRequest) input() services.TableInput {
	return services.TableInput{
		TableNumber:    r.TableNumber,
		Name:           r.Name,
		Capacity:       r.Capacity,
		Location:       r.Location,
		PricePerPerson: r.PricePerPerson,
		Status:         r.Status,
		Features:       r.Features,
		IsActive:       r.IsActive,
	}
}

// List returns tables, optionally filtered by location, size and activity
func (h *TableHandler) List(c *gin.Context) {
	filter := repository.TableFilter{
		Location:   models.TableLocation(c.Query("location")),
		ActiveOnly: c.Query("active") == "true",
	}
	if filter.Location != "" && !filter.Location.Valid() {
		respondError(c, apperrors.Validation("location %q is not valid", filter.Location))
		return
	}
	if raw := c.Query("minCapacity"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			respondError(c, apperrors.Validation("minCapacity must be a positive number"))
			return
		}
		filter.MinCapacity = n
	}
	tables, err := h.tables.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(tables), "tables": tables})
}

func (h *TableHandler) Create(c *gin.Context) {
	var req TableRequest
	if !bindJSON(c, &req) {
		return
	}
	table, err := h.tables.Create(c.Request.Context(), req.input())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Table created", "table": table})
}

func (h *TableHandler) Update(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req TableRequest
	if !bindJSON(c, &req) {
		return
	}
	table, err := h.tables.Update(c.Request.Context(), id, req.input())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Table updated", "table": table})
}

func (h *TableHandler) Delete(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := h.tables.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Table deleted"})
}
