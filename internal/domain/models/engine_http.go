package models

// Requests for the engine HTTP endpoints. Defined in domain for consistency
// with the rest of the models.

type SignalHistoryRequest struct {
	N int `query:"n" json:"n" default:"20" validate:"gte=1,lte=500"`
}

type ClosePositionRequest struct {
	Note string `json:"note" validate:"omitempty,max=200"`
}

type PromotePatternRequest struct {
	ID string `param:"id" json:"id" validate:"required"`
}
