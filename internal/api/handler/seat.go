package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-isolation-booking/internal/application"
	"github.com/sanosuguru/go-isolation-booking/internal/domain/seat"
	"github.com/sanosuguru/go-isolation-booking/internal/domain/transaction"
)

// SessionHeader はクライアントがセッションIDを指定するためのヘッダー
const SessionHeader = "X-Session-ID"

type SeatHandler struct {
	booking BookingServiceInterface
	status  StatusServiceInterface
}

func NewSeatHandler(b BookingServiceInterface, s StatusServiceInterface) *SeatHandler {
	return &SeatHandler{booking: b, status: s}
}

type BookSeatRequest struct {
	IsolationLevel string `json:"isolation_level" example:"ReadCommitted"`
}

type SeatResponse struct {
	ID         string     `json:"seat_id" example:"A1"`
	Status     string     `json:"status" example:"available"`
	Price      string     `json:"price" example:"25.00"`
	ReservedBy *string    `json:"reserved_by"`
	ReservedAt *time.Time `json:"reserved_at"`
	BookedBy   *string    `json:"booked_by"`
	BookedAt   *time.Time `json:"booked_at"`
}

type BookingResponse struct {
	Outcome            string `json:"outcome" example:"booked"`
	Message            string `json:"message"`
	SessionID          string `json:"session_id" example:"3f9a1c2b"`
	SeatID             string `json:"seat_id" example:"A1"`
	Owner              string `json:"owner,omitempty"`
	RequestedIsolation string `json:"requested_isolation" example:"ReadUncommitted"`
	EffectiveIsolation string `json:"effective_isolation,omitempty" example:"ReadCommitted"`
	Retryable          bool   `json:"retryable"`
	InitialStatus      string `json:"initial_status,omitempty"`
	RecheckStatus      string `json:"recheck_status,omitempty"`
}

func toSeatResponse(s *seat.Seat) SeatResponse {
	return SeatResponse{
		ID: s.ID, Status: string(s.Status), Price: s.Price.StringFixed(2),
		ReservedBy: s.ReservedBy, ReservedAt: s.ReservedAt,
		BookedBy: s.BookedBy, BookedAt: s.BookedAt,
	}
}

func toBookingResponse(r *application.BookingResult) BookingResponse {
	resp := BookingResponse{
		Outcome: string(r.Outcome), Message: r.Message,
		SessionID: r.SessionID, SeatID: r.SeatID, Owner: r.Owner,
		RequestedIsolation: r.Requested.String(),
		Retryable:          r.Outcome.Retryable(),
	}
	if r.Effective.IsValid() {
		resp.EffectiveIsolation = r.Effective.String()
	}
	if r.Initial != nil {
		resp.InitialStatus = string(r.Initial.Status)
	}
	if r.Recheck != nil {
		resp.RecheckStatus = string(r.Recheck.Status)
	}
	return resp
}

// Get godoc
// @Summary 座席の状態を取得
// @Description ポーリング用のスナップショット（一貫性の保証なし）
// @Tags seat
// @Produce json
// @Success 200 {object} SeatResponse
// @Failure 404 {object} map[string]string
// @Router /seat [get]
func (h *SeatHandler) Get(c echo.Context) error {
	s, err := h.status.SeatSnapshot(c.Request().Context())
	if err != nil {
		if errors.Is(err, seat.ErrSeatNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}
	return c.JSON(http.StatusOK, toSeatResponse(s))
}

// Book godoc
// @Summary 座席を予約
// @Description 指定した分離レベルで available → reserving → booked を実行します
// @Tags seat
// @Accept json
// @Produce json
// @Param X-Session-ID header string false "セッションID（省略時は自動生成）"
// @Param request body BookSeatRequest false "分離レベル"
// @Success 200 {object} BookingResponse
// @Failure 400 {object} map[string]string
// @Failure 409 {object} BookingResponse "競合によるロールバック"
// @Router /seat/book [post]
func (h *SeatHandler) Book(c echo.Context) error {
	var req BookSeatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	level, err := transaction.ParseIsolationLevel(req.IsolationLevel)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	sessionID := c.Request().Header.Get(SessionHeader)
	if sessionID == "" {
		sessionID = application.NewSessionID()
	}

	result, err := h.booking.Book(c.Request().Context(), application.BookInput{
		SessionID: sessionID, Isolation: level,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}
	return c.JSON(statusForOutcome(result.Outcome), toBookingResponse(result))
}

// Reset godoc
// @Summary 座席をリセット
// @Description 座席を available に戻します（冪等）
// @Tags seat
// @Produce json
// @Success 200 {object} map[string]string
// @Router /seat/reset [post]
func (h *SeatHandler) Reset(c echo.Context) error {
	if err := h.booking.Reset(c.Request().Context()); err != nil {
		if errors.Is(err, seat.ErrSeatNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "座席をリセットしました"})
}
