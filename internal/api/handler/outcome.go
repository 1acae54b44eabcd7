package handler

import (
	"net/http"

	"github.com/sanosuguru/go-isolation-booking/internal/application"
)

// statusForOutcome は結果種別をHTTPステータスに対応付ける
func statusForOutcome(o application.Outcome) int {
	switch o {
	case application.OutcomeBooked, application.OutcomeTransferred:
		return http.StatusOK
	case application.OutcomeConflict,
		application.OutcomeLostRace,
		application.OutcomeReservationLost,
		application.OutcomeSerializationFailure,
		application.OutcomeDebitFailed,
		application.OutcomeCreditFailed:
		return http.StatusConflict
	case application.OutcomeNotFound:
		return http.StatusNotFound
	case application.OutcomeInsufficientFunds:
		return http.StatusUnprocessableEntity
	case application.OutcomeInvalidInput:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
