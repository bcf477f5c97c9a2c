package booking

import (
	"testing"
	"time"

	"github.com/simp-lee/hotelweb/internal/domain"
)

func TestFormatCardNumber(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"4111", "4111"},
		{"41111", "4111 1"},
		{"4111111111111111", "4111 1111 1111 1111"},
		{"4111-1111 1111abc1111", "4111 1111 1111 1111"},
		{"41111111111111119999", "4111 1111 1111 1111"},
	}
	for _, tt := range tests {
		if got := FormatCardNumber(tt.in); got != tt.want {
			t.Errorf("FormatCardNumber(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMaskCardNumber(t *testing.T) {
	if got := MaskCardNumber("4111 1111 1111 1234"); got != "••••••••••••1234" {
		t.Errorf("unexpected mask %q", got)
	}
	if got := MaskCardNumber("12"); got != "12" {
		t.Errorf("short numbers are kept, got %q", got)
	}
}

func TestParseCard(t *testing.T) {
	now := time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		number     string
		expiration string
		cvv        string
		wantErr    string
	}{
		{"valid grouped", "4111 1111 1111 1111", "12/27", "123", ""},
		{"valid 13 digits", "4222222222222", "04/26", "999", ""},
		{"current month still valid", "4111111111111111", "03/26", "123", ""},
		{"too short", "4111 1111 1111", "12/27", "123", "Card number must have 13 to 16 digits"},
		{"too long", "4111 1111 1111 1111 1", "12/27", "123", "Card number must have 13 to 16 digits"},
		{"letters", "4111 1111 1111 111x", "12/27", "123", "Card number must have 13 to 16 digits"},
		{"bad month", "4111111111111111", "13/27", "123", "Expiration must be a valid MM/YY date"},
		{"month zero", "4111111111111111", "00/27", "123", "Expiration must be a valid MM/YY date"},
		{"no slash", "4111111111111111", "1227", "123", "Expiration must be a valid MM/YY date"},
		{"expired", "4111111111111111", "02/26", "123", "Card has expired"},
		{"short cvv", "4111111111111111", "12/27", "12", "CVV must have 3 digits"},
		{"letter cvv", "4111111111111111", "12/27", "12a", "CVV must have 3 digits"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			card, err := ParseCard(tt.number, tt.expiration, tt.cvv, now)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if len(card.Number) < 13 || card.Number != onlyDigits(card.Number) {
					t.Errorf("expected bare digits, got %q", card.Number)
				}
				return
			}
			if !domain.IsValidation(err) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if msg := domain.UserMessage(err, ""); msg != tt.wantErr {
				t.Errorf("message = %q, want %q", msg, tt.wantErr)
			}
		})
	}
}
