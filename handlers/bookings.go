package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"table-reservation-api/apperrors"
	"table-reservation-api/middleware"
	"table-reservation-api/models"
	"table-reservation-api/repository"
	"table-reservation-api/services"
	"table-reservation-api/statemachine"
)

type BookingHandler struct {
	bookings *services.BookingService
}

func NewBookingHandler(bookings *services.BookingService) *BookingHandler {
	return &BookingHandler{bookings: bookings}
}

// Payment fields are checked by the verifier so their absence is reported
// the same way as a bad proof.
type CreateBookingRequest struct {
	Name            string   `json:"name" binding:"required,max=100"`
	Email           string   `json:"email" binding:"required,email"`
	Phone           string   `json:"phone" binding:"required,max=20"`
	NumberOfGuests  int      `json:"numberOfGuests" binding:"required,min=1,max=20"`
	Date            string   `json:"date" binding:"required,booking_date"`
	Time            string   `json:"time" binding:"required,booking_time"`
	TableNumber     *int     `json:"tableNumber" binding:"omitempty,min=1"`
	Area            string   `json:"area" binding:"omitempty,table_location"`
	SpecialRequests string   `json:"specialRequests" binding:"max=500"`
	OrderID         string   `json:"orderId"`
	PaymentID       string   `json:"paymentId"`
	Signature       string   `json:"signature"`
	Amount          *float64 `json:"amount"`
}

type TransitionRequest struct {
	Status             models.BookingStatus `json:"status" binding:"required,booking_status"`
	TableNumber        *int                 `json:"tableNumber" binding:"omitempty,min=1"`
	CancellationReason string               `json:"cancellationReason" binding:"max=500"`
}

type AssignTableRequest struct {
	TableNumber int `json:"tableNumber" binding:"required,min=1"`
}

type CancelRequest struct {
	CancellationReason string `json:"cancellationReason" binding:"required,max=500"`
}

// Create books a table after verifying the payment
func (h *BookingHandler) Create(c *gin.Context) {
	var req CreateBookingRequest
	if !bindJSON(c, &req) {
		return
	}
	booking, err := h.bookings.Create(c.Request.Context(), middleware.CurrentUser(c), services.CreateBookingInput{
		Name:            req.Name,
		Email:           req.Email,
		Phone:           req.Phone,
		NumberOfGuests:  req.NumberOfGuests,
		Date:            req.Date,
		Time:            req.Time,
		TableNumber:     req.TableNumber,
		Area:            req.Area,
		SpecialRequests: req.SpecialRequests,
		OrderID:         req.OrderID,
		PaymentID:       req.PaymentID,
		Signature:       req.Signature,
		Amount:          req.Amount,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "Booking confirmed",
		"booking": booking,
	})
}

// List returns the caller's bookings, or every booking for admins
func (h *BookingHandler) List(c *gin.Context) {
	filter := repository.BookingFilter{
		Status: models.BookingStatus(c.Query("status")),
		Date:   c.Query("date"),
	}
	if filter.Status != "" && !filter.Status.Valid() {
		respondError(c, apperrors.Validation("status %q is not a valid booking status", filter.Status))
		return
	}
	if raw := c.Query("tableNumber"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			respondError(c, apperrors.Validation("tableNumber must be a number"))
			return
		}
		filter.TableNumber = &n
	}

	caller := middleware.CurrentUser(c)
	bookings, err := h.bookings.List(c.Request.Context(), caller, filter)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := gin.H{"count": len(bookings), "bookings": bookings}
	if caller.IsAdmin() {
		summary := map[models.BookingStatus]int{}
		var revenue float64
		for _, b := range bookings {
			summary[b.Status]++
			if b.PaymentStatus == models.PaymentPaid {
				revenue += b.PaymentAmount
			}
		}
		resp["statusSummary"] = summary
		resp["paidRevenue"] = revenue
	}
	c.JSON(http.StatusOK, resp)
}

func (h *BookingHandler) Get(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	booking, err := h.bookings.Get(c.Request.Context(), middleware.CurrentUser(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"booking":           booking,
		"validNextStatuses": statemachine.ValidTransitionsFrom(booking.Status),
		"terminal":          statemachine.IsTerminal(booking.Status),
		"holdsTable":        booking.TableNumber != nil && booking.Status.Holding(),
	})
}

// Transition moves a booking through its lifecycle (admin only)
func (h *BookingHandler) Transition(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req TransitionRequest
	if !bindJSON(c, &req) {
		return
	}
	booking, err := h.bookings.Transition(c.Request.Context(), middleware.CurrentUser(c), id, services.TransitionInput{
		Status:             req.Status,
		TableNumber:        req.TableNumber,
		CancellationReason: req.CancellationReason,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Booking " + string(booking.Status),
		"booking": booking,
	})
}

// AssignTable seats a confirmed booking at a table (admin only)
func (h *BookingHandler) AssignTable(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req AssignTableRequest
	if !bindJSON(c, &req) {
		return
	}
	booking, err := h.bookings.AssignTable(c.Request.Context(), middleware.CurrentUser(c), id, req.TableNumber)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Table assigned", "booking": booking})
}

// Cancel lets the owner cancel a pending or confirmed booking
func (h *BookingHandler) Cancel(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req CancelRequest
	if !bindJSON(c, &req) {
		return
	}
	booking, err := h.bookings.Cancel(c.Request.Context(), middleware.CurrentUser(c), id, req.CancellationReason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Booking cancelled", "booking": booking})
}

func (h *BookingHandler) Delete(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := h.bookings.Delete(c.Request.Context(), middleware.CurrentUser(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Booking deleted"})
}

// Lifecycle documents the booking state machine (public)
func Lifecycle(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"states":      []models.BookingStatus{models.BookingPending, models.BookingConfirmed, models.BookingCompleted, models.BookingCancelled},
		"transitions": statemachine.GetAllTransitions(),
		"holding":     models.HoldingStatuses,
		"note":        "New paid bookings start as confirmed. A table slot is held while a booking is pending or confirmed.",
	})
}
