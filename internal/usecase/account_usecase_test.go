package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/iho/pairpoints/internal/domain"
	"github.com/iho/pairpoints/internal/usecase"
	"github.com/iho/pairpoints/internal/usecase/mocks"
)

func newAccountUseCase() (*usecase.AccountUseCase, *mocks.MockAccountRepository, *mocks.MockConnectionRepository, *mocks.MockTransactionRepository) {
	accRepo := mocks.NewMockAccountRepository()
	connRepo := mocks.NewMockConnectionRepository()
	txnRepo := mocks.NewMockTransactionRepository()

	uc := usecase.NewAccountUseCase(
		&mocks.MockTransactionManager{},
		accRepo,
		connRepo,
		txnRepo,
		&mocks.MockIDGenerator{},
	)

	return uc, accRepo, connRepo, txnRepo
}

func TestAccountUseCase_CreateAccount(t *testing.T) {
	t.Run("creates account with pairing code", func(t *testing.T) {
		uc, _, _, _ := newAccountUseCase()

		account, err := uc.CreateAccount(context.Background(), usecase.CreateAccountInput{
			DisplayName: "Alice",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if account.Balance != 0 {
			t.Fatalf("expected zero starting balance, got %d", account.Balance)
		}
		if !domain.ValidPairingCode(account.PairingCode) {
			t.Fatalf("expected valid pairing code, got %q", account.PairingCode)
		}
		if account.Paired() {
			t.Fatal("new account must be unpaired")
		}
	})

	t.Run("rejects empty display name", func(t *testing.T) {
		uc, _, _, _ := newAccountUseCase()

		_, err := uc.CreateAccount(context.Background(), usecase.CreateAccountInput{})
		if !errors.Is(err, domain.ErrInvalidDisplayName) {
			t.Fatalf("expected ErrInvalidDisplayName, got %v", err)
		}
	})

	t.Run("redraws pairing code on collision", func(t *testing.T) {
		uc, accRepo, _, _ := newAccountUseCase()

		var codes []string
		accRepo.CreateFunc = func(ctx context.Context, account *domain.Account) error {
			codes = append(codes, account.PairingCode)
			if len(codes) == 1 {
				return domain.ErrPairingCodeTaken
			}
			return nil
		}

		account, err := uc.CreateAccount(context.Background(), usecase.CreateAccountInput{
			DisplayName: "Alice",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(codes) != 2 {
			t.Fatalf("expected two insert attempts, got %d", len(codes))
		}
		if codes[0] == codes[1] {
			t.Fatalf("expected a fresh code after collision, got %q twice", codes[0])
		}
		if account.PairingCode != codes[1] {
			t.Fatalf("account carries code %q, stored %q", account.PairingCode, codes[1])
		}
	})

	t.Run("gives up after repeated collisions", func(t *testing.T) {
		uc, accRepo, _, _ := newAccountUseCase()

		attempts := 0
		accRepo.CreateFunc = func(ctx context.Context, account *domain.Account) error {
			attempts++
			return domain.ErrPairingCodeTaken
		}

		_, err := uc.CreateAccount(context.Background(), usecase.CreateAccountInput{
			DisplayName: "Alice",
		})
		if !errors.Is(err, domain.ErrPairingCodeTaken) {
			t.Fatalf("expected ErrPairingCodeTaken, got %v", err)
		}
		if attempts != 3 {
			t.Fatalf("expected 3 insert attempts, got %d", attempts)
		}
	})

	t.Run("other create failures are not retried", func(t *testing.T) {
		uc, accRepo, _, _ := newAccountUseCase()

		boom := fmt.Errorf("connection reset")
		attempts := 0
		accRepo.CreateFunc = func(ctx context.Context, account *domain.Account) error {
			attempts++
			return boom
		}

		_, err := uc.CreateAccount(context.Background(), usecase.CreateAccountInput{
			DisplayName: "Alice",
		})
		if !errors.Is(err, boom) {
			t.Fatalf("expected create error, got %v", err)
		}
		if attempts != 1 {
			t.Fatalf("expected a single insert attempt, got %d", attempts)
		}
	})
}

func TestAccountUseCase_GetAccountByPairingCode(t *testing.T) {
	uc, accRepo, _, _ := newAccountUseCase()
	accRepo.Seed(&domain.Account{ID: "acc-1", DisplayName: "Alice", PairingCode: "ABC123"})

	t.Run("resolves valid code", func(t *testing.T) {
		account, err := uc.GetAccountByPairingCode(context.Background(), "ABC123")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if account.ID != "acc-1" {
			t.Fatalf("expected acc-1, got %s", account.ID)
		}
	})

	t.Run("malformed code short-circuits", func(t *testing.T) {
		accRepo.GetByPairingCodeFunc = func(ctx context.Context, code string) (*domain.Account, error) {
			t.Fatal("repository must not be queried for a malformed code")
			return nil, nil
		}
		defer func() { accRepo.GetByPairingCodeFunc = nil }()

		_, err := uc.GetAccountByPairingCode(context.Background(), "abc")
		if !errors.Is(err, domain.ErrAccountNotFound) {
			t.Fatalf("expected ErrAccountNotFound, got %v", err)
		}
	})
}

func TestAccountUseCase_RegisterConnection(t *testing.T) {
	t.Run("pairs both accounts", func(t *testing.T) {
		uc, accRepo, _, _ := newAccountUseCase()
		accRepo.Seed(
			&domain.Account{ID: "acc-1", DisplayName: "Alice"},
			&domain.Account{ID: "acc-2", DisplayName: "Bob"},
		)

		conn, err := uc.RegisterConnection(context.Background(), "acc-1", "acc-2")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !conn.Active {
			t.Fatal("expected active connection")
		}

		a, _ := accRepo.GetByID(context.Background(), "acc-1")
		b, _ := accRepo.GetByID(context.Background(), "acc-2")
		if !a.Paired() || *a.PartnerID != "acc-2" {
			t.Fatalf("expected acc-1 paired with acc-2, got %+v", a.PartnerID)
		}
		if !b.Paired() || *b.PartnerID != "acc-1" {
			t.Fatalf("expected acc-2 paired with acc-1, got %+v", b.PartnerID)
		}
	})

	t.Run("rejects self pairing", func(t *testing.T) {
		uc, _, _, _ := newAccountUseCase()

		_, err := uc.RegisterConnection(context.Background(), "acc-1", "acc-1")
		if !errors.Is(err, domain.ErrSameAccount) {
			t.Fatalf("expected ErrSameAccount, got %v", err)
		}
	})
}

func TestAccountUseCase_CheckConsistency(t *testing.T) {
	t.Run("consistent ledger", func(t *testing.T) {
		uc, accRepo, _, txnRepo := newAccountUseCase()
		accRepo.Seed(&domain.Account{ID: "acc-1", Balance: 7})
		seedTxn(t, txnRepo, "acc-1", 10)
		seedTxn(t, txnRepo, "acc-1", -3)

		results, consistent, err := uc.CheckConsistency(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !consistent {
			t.Fatalf("expected consistent ledger, got %+v", results)
		}
	})

	t.Run("detects drifted balance", func(t *testing.T) {
		uc, accRepo, _, txnRepo := newAccountUseCase()
		accRepo.Seed(&domain.Account{ID: "acc-1", Balance: 9})
		seedTxn(t, txnRepo, "acc-1", 5)

		results, consistent, err := uc.CheckConsistency(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if consistent {
			t.Fatal("expected drift to be detected")
		}
		if len(results) != 1 || results[0].ComputedBalance != 5 || results[0].CachedBalance != 9 {
			t.Fatalf("unexpected results %+v", results[0])
		}
	})
}

var txnSeq int

func seedTxn(t *testing.T, repo *mocks.MockTransactionRepository, receiverID string, points int64) {
	t.Helper()

	kind := domain.KindGive
	if points < 0 {
		kind = domain.KindDeduct
	}

	txnSeq++
	err := repo.Create(context.Background(), nil, &domain.Transaction{
		ID:         fmt.Sprintf("txn-%d", txnSeq),
		SenderID:   "seed-sender",
		ReceiverID: receiverID,
		Points:     points,
		Kind:       kind,
	})
	if err != nil {
		t.Fatalf("seed transaction: %v", err)
	}
}
