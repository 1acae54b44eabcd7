package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/sanosuguru/go-isolation-booking/internal/application"
	"github.com/sanosuguru/go-isolation-booking/internal/domain/transaction"
)

type TransferHandler struct {
	transfer   TransferServiceInterface
	status     StatusServiceInterface
	accountIDs []string
}

// NewTransferHandler は TransferHandler を作成する
// accountIDs は ids 未指定の残高照会で使う口座
func NewTransferHandler(t TransferServiceInterface, s StatusServiceInterface, accountIDs []string) *TransferHandler {
	return &TransferHandler{transfer: t, status: s, accountIDs: accountIDs}
}

// TransferRequest は省略可能。空なら設定済みの送金を実行する
type TransferRequest struct {
	From           string           `json:"from" validate:"required_with=To Amount,max=64" example:"Virat"`
	To             string           `json:"to" validate:"required_with=From Amount,max=64" example:"Rohit"`
	Amount         *decimal.Decimal `json:"amount" validate:"required_with=From To" example:"100"`
	IsolationLevel string           `json:"isolation_level" example:"ReadCommitted"`
}

type TransferResponse struct {
	Outcome            string `json:"outcome" example:"transferred"`
	Message            string `json:"message"`
	From               string `json:"from"`
	To                 string `json:"to"`
	Amount             string `json:"amount" example:"100.00"`
	EffectiveIsolation string `json:"effective_isolation,omitempty"`
}

type BalancesResponse struct {
	Balances map[string]string `json:"balances"`
}

func toTransferResponse(r *application.TransferResult) TransferResponse {
	resp := TransferResponse{
		Outcome: string(r.Outcome), Message: r.Message,
		From: r.From, To: r.To, Amount: r.Amount.StringFixed(2),
	}
	if r.Effective.IsValid() {
		resp.EffectiveIsolation = r.Effective.String()
	}
	return resp
}

// Create godoc
// @Summary 送金を実行
// @Description 出金と入金を1つのトランザクションで実行します。ボディ省略時は設定済みの口座と金額を使います
// @Tags transfers
// @Accept json
// @Produce json
// @Param request body TransferRequest false "送金内容"
// @Success 200 {object} TransferResponse
// @Failure 400 {object} map[string]string
// @Failure 422 {object} TransferResponse "残高不足"
// @Router /transfers [post]
func (h *TransferHandler) Create(c echo.Context) error {
	var req TransferRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	level, err := transaction.ParseIsolationLevel(req.IsolationLevel)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	var result *application.TransferResult
	if req.From == "" {
		result, err = h.transfer.ExecuteTransfer(ctx)
	} else {
		result, err = h.transfer.Transfer(ctx, application.TransferInput{
			From: req.From, To: req.To, Amount: *req.Amount, Isolation: level,
		})
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}
	return c.JSON(statusForOutcome(result.Outcome), toTransferResponse(result))
}

// Balances godoc
// @Summary 口座残高を取得
// @Tags transfers
// @Produce json
// @Param ids query string false "カンマ区切りの口座ID" example(Virat,Rohit)
// @Success 200 {object} BalancesResponse
// @Router /balances [get]
func (h *TransferHandler) Balances(c echo.Context) error {
	ids := h.accountIDs
	if raw := c.QueryParam("ids"); raw != "" {
		ids = nil
		for _, id := range strings.Split(raw, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
	}
	balances, err := h.status.Balances(c.Request().Context(), ids)
	if err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}
	resp := BalancesResponse{Balances: make(map[string]string, len(balances))}
	for id, b := range balances {
		resp.Balances[id] = b.StringFixed(2)
	}
	return c.JSON(http.StatusOK, resp)
}
