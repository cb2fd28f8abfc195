package handler

import (
	"errors"
	"net/http"
	"testing"

	"github.com/iho/pairpoints/internal/domain"
)

func TestMapDomainError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", domain.ErrPointsOutOfRange, http.StatusBadRequest},
		{"not found", domain.ErrConnectionNotFound, http.StatusNotFound},
		{"permission", domain.ErrUnauthorized, http.StatusUnauthorized},
		{"business rule", domain.ErrTimeoutActive, http.StatusConflict},
		{"daily limit", domain.ErrDailyLimitExceeded, http.StatusConflict},
		{"transient", domain.ErrStoreUnavailable, http.StatusServiceUnavailable},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mapDomainError(tt.err); got != tt.want {
				t.Fatalf("mapDomainError(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestParseIntQuery(t *testing.T) {
	req, _ := http.NewRequest(http.MethodGet, "/?limit=42&bad=x", nil)

	if got := parseIntQuery(req, "limit", 20); got != 42 {
		t.Fatalf("expected 42, got %d", got)
	}
	if got := parseIntQuery(req, "missing", 20); got != 20 {
		t.Fatalf("expected default 20, got %d", got)
	}
	if got := parseIntQuery(req, "bad", 7); got != 7 {
		t.Fatalf("expected default 7 for unparsable value, got %d", got)
	}
}
