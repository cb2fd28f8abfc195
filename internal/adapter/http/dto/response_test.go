package dto

import (
	"testing"
	"time"

	"github.com/iho/pairpoints/internal/domain"
	"github.com/iho/pairpoints/internal/usecase"
)

func TestAccountFromDomain(t *testing.T) {
	now := time.Now()
	partner := "acc-2"
	account := &domain.Account{
		ID:          "acc-1",
		DisplayName: "Alex",
		Balance:     7,
		PairingCode: "A1B2C3",
		PartnerID:   &partner,
		CreatedAt:   now,
	}

	resp := AccountFromDomain(account)
	if resp.ID != account.ID || resp.Balance != 7 || resp.PairingCode != "A1B2C3" {
		t.Fatalf("unexpected account response: %+v", resp)
	}
	if resp.PartnerID == nil || *resp.PartnerID != partner {
		t.Fatalf("expected partner id %s, got %v", partner, resp.PartnerID)
	}
	if resp.LastTimeoutUsedAt != nil {
		t.Fatalf("expected nil last timeout, got %v", resp.LastTimeoutUsedAt)
	}
}

func TestTransactionFromDomain(t *testing.T) {
	now := time.Now()
	msg := "thanks"
	txn := &domain.Transaction{
		ID:           "txn-1",
		SenderID:     "acc-1",
		ReceiverID:   "acc-2",
		Points:       -3,
		Kind:         domain.KindDeduct,
		Message:      &msg,
		ConnectionID: "conn-1",
		CreatedAt:    now,
	}

	resp := TransactionFromDomain(txn)
	if resp.ID != txn.ID || resp.Points != -3 || resp.Kind != "DEDUCT" {
		t.Fatalf("unexpected transaction response: %+v", resp)
	}
	if resp.Message == nil || *resp.Message != msg {
		t.Fatalf("expected message %q, got %v", msg, resp.Message)
	}

	list := TransactionsFromDomain([]*domain.Transaction{txn})
	if len(list) != 1 || list[0].ID != txn.ID {
		t.Fatalf("TransactionsFromDomain returned %+v", list)
	}
}

func TestTimeoutFromDomain(t *testing.T) {
	started := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	timeout := &domain.Timeout{
		ID:           "to-1",
		UserID:       "acc-1",
		ConnectionID: "conn-1",
		StartedAt:    started,
		Active:       true,
	}

	resp := TimeoutFromDomain(timeout, started.Add(10*time.Minute))
	if !resp.Active {
		t.Fatal("expected timeout to be in effect at 10 minutes")
	}
	if resp.RemainingSeconds != 20*60 {
		t.Fatalf("expected 1200 remaining seconds, got %d", resp.RemainingSeconds)
	}
	if resp.DurationSeconds != int64(domain.TimeoutDuration.Seconds()) {
		t.Fatalf("unexpected duration %d", resp.DurationSeconds)
	}

	resp = TimeoutFromDomain(timeout, started.Add(31*time.Minute))
	if resp.Active || resp.RemainingSeconds != 0 {
		t.Fatalf("expected elapsed timeout, got %+v", resp)
	}
}

func TestConsistencyResponseFromResults(t *testing.T) {
	results := []*usecase.ConsistencyResult{
		{AccountID: "acc-1", CachedBalance: 7, ComputedBalance: 7, Consistent: true},
		{AccountID: "acc-2", CachedBalance: 9, ComputedBalance: 5, Consistent: false},
	}

	resp := ConsistencyResponseFromResults(results, false)
	if resp.Consistent {
		t.Fatal("expected inconsistent report")
	}
	if len(resp.Mismatches) != 1 || resp.Mismatches[0].AccountID != "acc-2" {
		t.Fatalf("expected only the drifted account, got %+v", resp.Mismatches)
	}

	resp = ConsistencyResponseFromResults(results[:1], true)
	if !resp.Consistent || len(resp.Mismatches) != 0 {
		t.Fatalf("expected clean report, got %+v", resp)
	}
}
