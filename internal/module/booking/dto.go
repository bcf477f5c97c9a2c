package booking

// StayRequest is the booking form: the dates of the stay and the terms box.
type StayRequest struct {
	CheckIn     string `json:"check_in" form:"check_in" binding:"required"`
	CheckOut    string `json:"check_out" form:"check_out" binding:"required"`
	MaxNights   int    `json:"max_nights" form:"max_nights" binding:"omitempty,min=1,max=30"`
	AcceptTerms bool   `json:"accept_terms" form:"accept_terms"`
}

// PaymentRequest is the card form posted for a stay.
type PaymentRequest struct {
	CheckIn    string `json:"check_in" form:"check_in" binding:"required"`
	CheckOut   string `json:"check_out" form:"check_out" binding:"required"`
	CardNumber string `json:"card_number" form:"card_number" binding:"required"`
	Expiration string `json:"expiration" form:"expiration" binding:"required"`
	CVV        string `json:"cvv" form:"cvv" binding:"required"`
}

// CreateBookingRequest is the JSON booking API body.
type CreateBookingRequest struct {
	RoomID string `json:"room_id" binding:"required"`
	PaymentRequest
}
