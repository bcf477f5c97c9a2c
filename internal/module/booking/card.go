package booking

import (
	"strconv"
	"strings"
	"time"

	"github.com/simp-lee/hotelweb/internal/domain"
)

// Card is a payment card as the backend booking call expects it. Nothing is
// charged by this client.
type Card struct {
	Number     string // digits only
	Expiration string // MM/YY
	CVV        string
}

// FormatCardNumber keeps the digits of raw, at most 16, grouped by four:
// "4111111111111111" becomes "4111 1111 1111 1111".
func FormatCardNumber(raw string) string {
	digits := onlyDigits(raw)
	if len(digits) > 16 {
		digits = digits[:16]
	}
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && i%4 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// MaskCardNumber hides all but the last four digits.
func MaskCardNumber(number string) string {
	digits := onlyDigits(number)
	if len(digits) <= 4 {
		return digits
	}
	return strings.Repeat("•", len(digits)-4) + digits[len(digits)-4:]
}

// ParseCard validates the card fields posted by the payment form. Spaces and
// dashes in the number are ignored. The card must not have expired at now:
// a card is valid through the last day of its expiration month.
func ParseCard(number, expiration, cvv string, now time.Time) (Card, error) {
	digits := strings.NewReplacer(" ", "", "-", "").Replace(number)
	if onlyDigits(digits) != digits || len(digits) < 13 || len(digits) > 16 {
		return Card{}, domain.NewAppError(domain.CodeValidation, "Card number must have 13 to 16 digits", nil)
	}

	month, year, ok := parseExpiration(expiration)
	if !ok {
		return Card{}, domain.NewAppError(domain.CodeValidation, "Expiration must be a valid MM/YY date", nil)
	}
	// First instant after the expiration month.
	end := time.Date(2000+year, time.Month(month)+1, 1, 0, 0, 0, 0, now.Location())
	if !now.Before(end) {
		return Card{}, domain.NewAppError(domain.CodeValidation, "Card has expired", nil)
	}

	cvv = strings.TrimSpace(cvv)
	if len(cvv) != 3 || onlyDigits(cvv) != cvv {
		return Card{}, domain.NewAppError(domain.CodeValidation, "CVV must have 3 digits", nil)
	}

	return Card{
		Number:     digits,
		Expiration: strings.TrimSpace(expiration),
		CVV:        cvv,
	}, nil
}

func parseExpiration(s string) (month, year int, ok bool) {
	mm, yy, found := strings.Cut(strings.TrimSpace(s), "/")
	if !found || len(mm) != 2 || len(yy) != 2 {
		return 0, 0, false
	}
	month, err := strconv.Atoi(mm)
	if err != nil || month < 1 || month > 12 {
		return 0, 0, false
	}
	year, err = strconv.Atoi(yy)
	if err != nil || year < 0 {
		return 0, 0, false
	}
	return month, year, true
}

func onlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
