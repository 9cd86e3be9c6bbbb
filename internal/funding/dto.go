package funding

import "time"

// StatusResponse represents the API response for funding checks.
type StatusResponse struct {
	Address      string    `json:"address"`
	Balance      uint64    `json:"balance_lamports"`
	Threshold    uint64    `json:"threshold_lamports"`
	BelowMinimum bool      `json:"below_minimum"`
	ToppedUp     bool      `json:"topped_up"`
	TopUpAmount  uint64    `json:"top_up_lamports,omitempty"`
	TopUpRequest string    `json:"top_up_request,omitempty"`
	CheckedAt    time.Time `json:"checked_at"`
}

// ToResponse maps a Result to its API representation.
func ToResponse(result Result) StatusResponse {
	return StatusResponse{
		Address:      result.Address,
		Balance:      result.Balance,
		Threshold:    result.Threshold,
		BelowMinimum: result.Balance < result.Threshold,
		ToppedUp:     result.ToppedUp,
		TopUpAmount:  result.TopUpAmount,
		TopUpRequest: result.TopUpRequest,
		CheckedAt:    result.CheckedAt,
	}
}
