package usecase

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/iho/pairpoints/internal/domain"
	"github.com/iho/pairpoints/internal/infrastructure/metrics"
)

// LedgerUseCase applies signed point transfers between the two members of a
// connection. Balance mutation happens only here, inside a single store
// transaction.
type LedgerUseCase struct {
	txManager       TransactionManager
	accountRepo     AccountRepository
	connectionRepo  ConnectionRepository
	transactionRepo TransactionRepository
	guard           TimeoutGuard
	idGen           IDGenerator
	retrier         Retrier
	notifier        Notifier
	publisher       Publisher
	metrics         *metrics.Metrics
}

// NewLedgerUseCase creates a new LedgerUseCase.
func NewLedgerUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	connectionRepo ConnectionRepository,
	transactionRepo TransactionRepository,
	guard TimeoutGuard,
	idGen IDGenerator,
	retrier Retrier,
	notifier Notifier,
	publisher Publisher,
	metrics *metrics.Metrics,
) *LedgerUseCase {
	return &LedgerUseCase{
		txManager:       txManager,
		accountRepo:     accountRepo,
		connectionRepo:  connectionRepo,
		transactionRepo: transactionRepo,
		guard:           guard,
		idGen:           idGen,
		retrier:         retrier,
		notifier:        notifier,
		publisher:       publisher,
		metrics:         metrics,
	}
}

// ApplyTransferInput represents input for applying a point transfer.
type ApplyTransferInput struct {
	SenderID     string
	ReceiverID   string
	Points       int64
	Kind         domain.TransactionKind
	Message      *string
	ConnectionID string
}

// ApplyTransfer validates and applies one signed point transfer. The store
// transaction creates the immutable transaction record and moves the
// receiver's cached balance by the signed points, all-or-nothing. A DEDUCT
// may drive the balance negative; no clamping.
func (uc *LedgerUseCase) ApplyTransfer(ctx context.Context, input ApplyTransferInput) (*domain.Transaction, error) {
	// 0. Validate shape before touching the store.
	if input.SenderID == input.ReceiverID {
		uc.countError(domain.ErrSameAccount)
		return nil, domain.ErrSameAccount
	}

	if err := input.Kind.ValidatePoints(input.Points); err != nil {
		uc.countError(err)
		return nil, err
	}

	if input.Message != nil && len([]rune(*input.Message)) > domain.MaxMessageLength {
		uc.countError(domain.ErrMessageTooLong)
		return nil, domain.ErrMessageTooLong
	}

	// 1. Verify the connection and membership.
	conn, err := uc.connectionRepo.GetByID(ctx, input.ConnectionID)
	if err != nil {
		return nil, err
	}

	if !conn.Active {
		return nil, domain.ErrConnectionInactive
	}

	if !conn.HasMember(input.SenderID) || !conn.HasMember(input.ReceiverID) {
		return nil, domain.ErrNotConnectionMember
	}

	// 2. Advisory timeout guard. Read at call time, not held as a lock across
	// the store transaction; a timeout becoming active in between is an
	// accepted race.
	disabled, err := uc.guard.TransactionsDisabled(ctx, input.ConnectionID)
	if err != nil {
		return nil, err
	}

	if disabled {
		uc.countError(domain.ErrTimeoutActive)
		return nil, domain.ErrTimeoutActive
	}

	// 3. Atomic apply, retried on transient store failures. Safe to
	// re-attempt: balances are re-read under lock before the delta is applied.
	var (
		txn      *domain.Transaction
		receiver *domain.Account
	)

	err = uc.retrier.Retry(ctx, func() error {
		var applyErr error
		txn, receiver, applyErr = uc.apply(ctx, input)
		return applyErr
	})
	if err != nil {
		uc.countError(err)
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.TransfersCreated.WithLabelValues(string(input.Kind)).Inc()
		uc.metrics.TransferPoints.Observe(float64(input.Points))
	}

	// 4. Fire-and-forget side effects. Never roll back the committed transfer.
	uc.notifyReceiver(ctx, txn, receiver)
	uc.publish(ctx, domain.AccountTopic(receiver.ID), receiver)
	uc.publish(ctx, domain.ConnectionTransactionsTopic(conn.ID), txn)

	return txn, nil
}

func (uc *LedgerUseCase) apply(ctx context.Context, input ApplyTransferInput) (*domain.Transaction, *domain.Account, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	// Lock both accounts in sorted id order (deadlock prevention).
	ids := []string{input.SenderID, input.ReceiverID}
	sort.Strings(ids)

	accounts, err := uc.accountRepo.GetByIDsForUpdate(txCtx, tx, ids)
	if err != nil {
		return nil, nil, err
	}

	if len(accounts) != len(ids) {
		return nil, nil, domain.ErrAccountNotFound
	}

	var receiver *domain.Account
	for _, a := range accounts {
		if a.ID == input.ReceiverID {
			receiver = a
		}
	}

	if receiver == nil {
		return nil, nil, domain.ErrAccountNotFound
	}

	now := time.Now().UTC()

	txn := &domain.Transaction{
		ID:           uc.idGen.Generate(),
		SenderID:     input.SenderID,
		ReceiverID:   input.ReceiverID,
		Points:       input.Points,
		Kind:         input.Kind,
		Message:      input.Message,
		ConnectionID: input.ConnectionID,
		CreatedAt:    now,
	}

	if err := txn.Validate(); err != nil {
		return nil, nil, err
	}

	if err := uc.transactionRepo.Create(txCtx, tx, txn); err != nil {
		return nil, nil, err
	}

	// Only the receiver's stored balance moves; the sender's side of the
	// exchange lives in the transaction log.
	newBalance := receiver.Balance + input.Points
	if err := uc.accountRepo.UpdateBalance(txCtx, tx, receiver.ID, newBalance, now); err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, nil, err
	}

	receiver.Balance = newBalance
	receiver.UpdatedAt = now

	return txn, receiver, nil
}

func (uc *LedgerUseCase) notifyReceiver(ctx context.Context, txn *domain.Transaction, receiver *domain.Account) {
	kind := domain.NotifyPointsReceived
	if txn.Kind == domain.KindDeduct {
		kind = domain.NotifyPointsDeducted
	}

	payload := domain.PointsReceivedPayload{
		TransactionID: txn.ID,
		SenderID:      txn.SenderID,
		Points:        txn.Points,
		Kind:          string(txn.Kind),
		NewBalance:    receiver.Balance,
	}
	if txn.Message != nil {
		payload.Message = *txn.Message
	}

	uc.notifier.Notify(ctx, receiver.ID, kind, payload)
}

func (uc *LedgerUseCase) publish(ctx context.Context, topic string, snapshot any) {
	if uc.publisher == nil {
		return
	}

	if err := uc.publisher.Publish(ctx, topic, snapshot); err != nil {
		// Stream delivery is best-effort; the committed transfer stands.
		slog.Warn("change stream publish failed", "topic", topic, "error", err)
	}
}

func (uc *LedgerUseCase) countError(err error) {
	if uc.metrics != nil {
		uc.metrics.TransferErrors.WithLabelValues(metrics.ErrorLabel(err)).Inc()
	}
}

// GetTransaction retrieves a transaction by ID.
func (uc *LedgerUseCase) GetTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	return uc.transactionRepo.GetByID(ctx, id)
}

// ListTransactionsInput represents input for listing transactions.
type ListTransactionsInput struct {
	ConnectionID string
	AccountID    string
	Limit        int
	Offset       int
}

// ListTransactions lists transactions for a connection or an account, newest
// first. Ordering by creation time is a display concern only.
func (uc *LedgerUseCase) ListTransactions(ctx context.Context, input ListTransactionsInput) ([]*domain.Transaction, error) {
	if input.Limit <= 0 {
		input.Limit = 20
	}

	if input.Limit > 100 {
		input.Limit = 100
	}

	if input.ConnectionID != "" {
		return uc.transactionRepo.ListByConnection(ctx, input.ConnectionID, input.Limit, input.Offset)
	}

	return uc.transactionRepo.ListByAccount(ctx, input.AccountID, input.Limit, input.Offset)
}
