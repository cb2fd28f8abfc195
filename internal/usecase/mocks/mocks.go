package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/iho/pairpoints/internal/domain"
	"github.com/iho/pairpoints/internal/usecase"
)

// MockAccountRepository is a mock implementation of AccountRepository.
type MockAccountRepository struct {
	mu       sync.RWMutex
	accounts map[string]*domain.Account

	CreateFunc                func(ctx context.Context, account *domain.Account) error
	GetByIDFunc               func(ctx context.Context, id string) (*domain.Account, error)
	GetByPairingCodeFunc      func(ctx context.Context, code string) (*domain.Account, error)
	GetByIDForUpdateFunc      func(ctx context.Context, tx usecase.Transaction, id string) (*domain.Account, error)
	GetByIDsForUpdateFunc     func(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Account, error)
	UpdateBalanceFunc         func(ctx context.Context, tx usecase.Transaction, id string, balance int64, updatedAt time.Time) error
	UpdateLastTimeoutUsedFunc func(ctx context.Context, tx usecase.Transaction, id string, usedAt time.Time) error
	SetPartnerFunc            func(ctx context.Context, tx usecase.Transaction, id, partnerID string, updatedAt time.Time) error
	ListFunc                  func(ctx context.Context, limit, offset int) ([]*domain.Account, error)
}

func NewMockAccountRepository() *MockAccountRepository {
	return &MockAccountRepository{
		accounts: make(map[string]*domain.Account),
	}
}

// Seed stores an account directly, bypassing Create hooks.
func (m *MockAccountRepository) Seed(accounts ...*domain.Account) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, acc := range accounts {
		m.accounts[acc.ID] = acc
	}
}

func (m *MockAccountRepository) Create(ctx context.Context, account *domain.Account) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, account)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[account.ID] = account
	return nil
}

func (m *MockAccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if acc, ok := m.accounts[id]; ok {
		return acc, nil
	}
	return nil, domain.ErrAccountNotFound
}

func (m *MockAccountRepository) GetByPairingCode(ctx context.Context, code string) (*domain.Account, error) {
	if m.GetByPairingCodeFunc != nil {
		return m.GetByPairingCodeFunc(ctx, code)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, acc := range m.accounts {
		if acc.PairingCode == code {
			return acc, nil
		}
	}
	return nil, domain.ErrAccountNotFound
}

func (m *MockAccountRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Account, error) {
	if m.GetByIDForUpdateFunc != nil {
		return m.GetByIDForUpdateFunc(ctx, tx, id)
	}
	return m.GetByID(ctx, id)
}

func (m *MockAccountRepository) GetByIDsForUpdate(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Account, error) {
	if m.GetByIDsForUpdateFunc != nil {
		return m.GetByIDsForUpdateFunc(ctx, tx, ids)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var accounts []*domain.Account
	for _, id := range ids {
		if acc, ok := m.accounts[id]; ok {
			accounts = append(accounts, acc)
		}
	}
	return accounts, nil
}

func (m *MockAccountRepository) UpdateBalance(ctx context.Context, tx usecase.Transaction, id string, balance int64, updatedAt time.Time) error {
	if m.UpdateBalanceFunc != nil {
		return m.UpdateBalanceFunc(ctx, tx, id, balance, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if acc, ok := m.accounts[id]; ok {
		acc.Balance = balance
		acc.UpdatedAt = updatedAt
	}
	return nil
}

func (m *MockAccountRepository) UpdateLastTimeoutUsed(ctx context.Context, tx usecase.Transaction, id string, usedAt time.Time) error {
	if m.UpdateLastTimeoutUsedFunc != nil {
		return m.UpdateLastTimeoutUsedFunc(ctx, tx, id, usedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if acc, ok := m.accounts[id]; ok {
		t := usedAt
		acc.LastTimeoutUsedAt = &t
		acc.UpdatedAt = usedAt
	}
	return nil
}

func (m *MockAccountRepository) SetPartner(ctx context.Context, tx usecase.Transaction, id, partnerID string, updatedAt time.Time) error {
	if m.SetPartnerFunc != nil {
		return m.SetPartnerFunc(ctx, tx, id, partnerID, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if acc, ok := m.accounts[id]; ok {
		p := partnerID
		acc.PartnerID = &p
		acc.UpdatedAt = updatedAt
	}
	return nil
}

func (m *MockAccountRepository) List(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	accounts := make([]*domain.Account, 0, len(m.accounts))
	for _, acc := range m.accounts {
		accounts = append(accounts, acc)
	}
	if offset >= len(accounts) {
		return nil, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(accounts) {
		end = len(accounts)
	}
	return accounts[offset:end], nil
}

// MockConnectionRepository is a mock implementation of ConnectionRepository.
type MockConnectionRepository struct {
	mu          sync.RWMutex
	connections map[string]*domain.Connection

	CreateFunc             func(ctx context.Context, tx usecase.Transaction, conn *domain.Connection) error
	GetByIDFunc            func(ctx context.Context, id string) (*domain.Connection, error)
	GetActiveByAccountFunc func(ctx context.Context, accountID string) (*domain.Connection, error)
}

func NewMockConnectionRepository() *MockConnectionRepository {
	return &MockConnectionRepository{
		connections: make(map[string]*domain.Connection),
	}
}

func (m *MockConnectionRepository) Seed(conns ...*domain.Connection) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range conns {
		m.connections[c.ID] = c
	}
}

func (m *MockConnectionRepository) Create(ctx context.Context, tx usecase.Transaction, conn *domain.Connection) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, conn)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connections[conn.ID] = conn
	return nil
}

func (m *MockConnectionRepository) GetByID(ctx context.Context, id string) (*domain.Connection, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if conn, ok := m.connections[id]; ok {
		return conn, nil
	}
	return nil, domain.ErrConnectionNotFound
}

func (m *MockConnectionRepository) GetActiveByAccount(ctx context.Context, accountID string) (*domain.Connection, error) {
	if m.GetActiveByAccountFunc != nil {
		return m.GetActiveByAccountFunc(ctx, accountID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, conn := range m.connections {
		if conn.Active && conn.HasMember(accountID) {
			return conn, nil
		}
	}
	return nil, domain.ErrNotPaired
}

// MockTransactionRepository is a mock implementation of TransactionRepository.
type MockTransactionRepository struct {
	mu           sync.RWMutex
	transactions map[string]*domain.Transaction
	order        []string

	CreateFunc              func(ctx context.Context, tx usecase.Transaction, txn *domain.Transaction) error
	GetByIDFunc             func(ctx context.Context, id string) (*domain.Transaction, error)
	ListByConnectionFunc    func(ctx context.Context, connectionID string, limit, offset int) ([]*domain.Transaction, error)
	ListByAccountFunc       func(ctx context.Context, accountID string, limit, offset int) ([]*domain.Transaction, error)
	SumPointsForAccountFunc func(ctx context.Context, accountID string) (int64, error)
}

func NewMockTransactionRepository() *MockTransactionRepository {
	return &MockTransactionRepository{
		transactions: make(map[string]*domain.Transaction),
	}
}

func (m *MockTransactionRepository) Create(ctx context.Context, tx usecase.Transaction, txn *domain.Transaction) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, txn)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transactions[txn.ID] = txn
	m.order = append(m.order, txn.ID)
	return nil
}

// Count returns the number of stored transactions.
func (m *MockTransactionRepository) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.transactions)
}

func (m *MockTransactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if txn, ok := m.transactions[id]; ok {
		return txn, nil
	}
	return nil, domain.ErrTransactionNotFound
}

func (m *MockTransactionRepository) ListByConnection(ctx context.Context, connectionID string, limit, offset int) ([]*domain.Transaction, error) {
	if m.ListByConnectionFunc != nil {
		return m.ListByConnectionFunc(ctx, connectionID, limit, offset)
	}
	return m.list(func(t *domain.Transaction) bool { return t.ConnectionID == connectionID }, limit, offset), nil
}

func (m *MockTransactionRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Transaction, error) {
	if m.ListByAccountFunc != nil {
		return m.ListByAccountFunc(ctx, accountID, limit, offset)
	}
	return m.list(func(t *domain.Transaction) bool {
		return t.SenderID == accountID || t.ReceiverID == accountID
	}, limit, offset), nil
}

func (m *MockTransactionRepository) SumPointsForAccount(ctx context.Context, accountID string) (int64, error) {
	if m.SumPointsForAccountFunc != nil {
		return m.SumPointsForAccountFunc(ctx, accountID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var sum int64
	for _, txn := range m.transactions {
		if txn.ReceiverID == accountID {
			sum += txn.Points
		}
	}
	return sum, nil
}

// list returns matches newest-first, mirroring the repository ordering.
func (m *MockTransactionRepository) list(match func(*domain.Transaction) bool, limit, offset int) []*domain.Transaction {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Transaction
	for i := len(m.order) - 1; i >= 0; i-- {
		txn := m.transactions[m.order[i]]
		if match(txn) {
			out = append(out, txn)
		}
	}
	if offset >= len(out) {
		return nil
	}
	end := offset + limit
	if limit <= 0 || end > len(out) {
		end = len(out)
	}
	return out[offset:end]
}

// MockTimeoutRepository is a mock implementation of TimeoutRepository.
type MockTimeoutRepository struct {
	mu       sync.RWMutex
	timeouts map[string]*domain.Timeout

	CreateFunc                         func(ctx context.Context, tx usecase.Transaction, timeout *domain.Timeout) error
	GetByIDFunc                        func(ctx context.Context, id string) (*domain.Timeout, error)
	GetActiveByConnectionFunc          func(ctx context.Context, connectionID string) (*domain.Timeout, error)
	GetActiveByConnectionForUpdateFunc func(ctx context.Context, tx usecase.Transaction, connectionID string) (*domain.Timeout, error)
	DeactivateFunc                     func(ctx context.Context, id string, now time.Time) (bool, error)
	DeactivateTxFunc                   func(ctx context.Context, tx usecase.Transaction, id string, now time.Time) (bool, error)
	ListByUserFunc                     func(ctx context.Context, userID string, limit, offset int) ([]*domain.Timeout, error)
}

func NewMockTimeoutRepository() *MockTimeoutRepository {
	return &MockTimeoutRepository{
		timeouts: make(map[string]*domain.Timeout),
	}
}

func (m *MockTimeoutRepository) Seed(timeouts ...*domain.Timeout) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range timeouts {
		m.timeouts[t.ID] = t
	}
}

func (m *MockTimeoutRepository) Create(ctx context.Context, tx usecase.Transaction, timeout *domain.Timeout) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, timeout)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timeouts[timeout.ID] = timeout
	return nil
}

func (m *MockTimeoutRepository) GetByID(ctx context.Context, id string) (*domain.Timeout, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if t, ok := m.timeouts[id]; ok {
		return t, nil
	}
	return nil, domain.ErrTimeoutNotFound
}

func (m *MockTimeoutRepository) GetActiveByConnection(ctx context.Context, connectionID string) (*domain.Timeout, error) {
	if m.GetActiveByConnectionFunc != nil {
		return m.GetActiveByConnectionFunc(ctx, connectionID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, t := range m.timeouts {
		if t.Active && t.ConnectionID == connectionID {
			return t, nil
		}
	}
	return nil, domain.ErrTimeoutNotFound
}

func (m *MockTimeoutRepository) GetActiveByConnectionForUpdate(ctx context.Context, tx usecase.Transaction, connectionID string) (*domain.Timeout, error) {
	if m.GetActiveByConnectionForUpdateFunc != nil {
		return m.GetActiveByConnectionForUpdateFunc(ctx, tx, connectionID)
	}
	return m.GetActiveByConnection(ctx, connectionID)
}

func (m *MockTimeoutRepository) Deactivate(ctx context.Context, id string, now time.Time) (bool, error) {
	if m.DeactivateFunc != nil {
		return m.DeactivateFunc(ctx, id, now)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.timeouts[id]
	if !ok || !t.Active || !t.Expired(now) {
		return false, nil
	}
	t.Active = false
	return true, nil
}

func (m *MockTimeoutRepository) DeactivateTx(ctx context.Context, tx usecase.Transaction, id string, now time.Time) (bool, error) {
	if m.DeactivateTxFunc != nil {
		return m.DeactivateTxFunc(ctx, tx, id, now)
	}
	return m.Deactivate(ctx, id, now)
}

func (m *MockTimeoutRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.Timeout, error) {
	if m.ListByUserFunc != nil {
		return m.ListByUserFunc(ctx, userID, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Timeout
	for _, t := range m.timeouts {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out, nil
}

// MockTransaction is a mock store transaction.
type MockTransaction struct {
	CommitFunc   func(ctx context.Context) error
	RollbackFunc func(ctx context.Context) error

	Committed  bool
	RolledBack bool
}

func (m *MockTransaction) Commit(ctx context.Context) error {
	if m.CommitFunc != nil {
		return m.CommitFunc(ctx)
	}
	m.Committed = true
	return nil
}

func (m *MockTransaction) Rollback(ctx context.Context) error {
	if m.RollbackFunc != nil {
		return m.RollbackFunc(ctx)
	}
	m.RolledBack = true
	return nil
}

// MockTransactionManager is a mock implementation of TransactionManager.
type MockTransactionManager struct {
	BeginFunc func(ctx context.Context) (usecase.Transaction, error)
}

func (m *MockTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}
	return &MockTransaction{}, nil
}

// MockRetrier runs the operation once, no backoff.
type MockRetrier struct {
	RetryFunc func(ctx context.Context, operation func() error) error
}

func (m *MockRetrier) Retry(ctx context.Context, operation func() error) error {
	if m.RetryFunc != nil {
		return m.RetryFunc(ctx, operation)
	}
	return operation()
}

// MockIDGenerator returns sequential IDs.
type MockIDGenerator struct {
	mu      sync.Mutex
	counter int

	GenerateFunc func() string
}

func (m *MockIDGenerator) Generate() string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	return "01MOCK" + string(rune('A'+m.counter%26)) + "0000000000000000000"
}

// NotifyCall records one Notify invocation.
type NotifyCall struct {
	AccountID string
	Kind      string
	Payload   any
}

// MockNotifier records notifications.
type MockNotifier struct {
	mu    sync.Mutex
	Calls []NotifyCall

	NotifyFunc func(ctx context.Context, accountID, kind string, payload any)
}

func (m *MockNotifier) Notify(ctx context.Context, accountID, kind string, payload any) {
	if m.NotifyFunc != nil {
		m.NotifyFunc(ctx, accountID, kind, payload)
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, NotifyCall{AccountID: accountID, Kind: kind, Payload: payload})
}

// CallsFor returns recorded notifications for an account.
func (m *MockNotifier) CallsFor(accountID string) []NotifyCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []NotifyCall
	for _, c := range m.Calls {
		if c.AccountID == accountID {
			out = append(out, c)
		}
	}
	return out
}

// PublishCall records one Publish invocation.
type PublishCall struct {
	Topic    string
	Snapshot any
}

// MockPublisher records change-stream publishes.
type MockPublisher struct {
	mu    sync.Mutex
	Calls []PublishCall

	PublishFunc func(ctx context.Context, topic string, snapshot any) error
}

func (m *MockPublisher) Publish(ctx context.Context, topic string, snapshot any) error {
	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, topic, snapshot)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, PublishCall{Topic: topic, Snapshot: snapshot})
	return nil
}

// Topics returns the topics published so far, in order.
func (m *MockPublisher) Topics() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.Calls))
	for _, c := range m.Calls {
		out = append(out, c.Topic)
	}
	return out
}

// MockTimeoutGuard is a mock implementation of TimeoutGuard.
type MockTimeoutGuard struct {
	Disabled bool
	Err      error

	TransactionsDisabledFunc func(ctx context.Context, connectionID string) (bool, error)
}

func (m *MockTimeoutGuard) TransactionsDisabled(ctx context.Context, connectionID string) (bool, error) {
	if m.TransactionsDisabledFunc != nil {
		return m.TransactionsDisabledFunc(ctx, connectionID)
	}
	return m.Disabled, m.Err
}

// MockCache is an in-memory Cache. TTLs are recorded but never enforced.
type MockCache struct {
	mu      sync.RWMutex
	entries map[string]string
	TTLs    map[string]time.Duration

	GetFunc    func(ctx context.Context, key string) (string, error)
	SetFunc    func(ctx context.Context, key, value string, ttl time.Duration) error
	DeleteFunc func(ctx context.Context, key string) error
}

func NewMockCache() *MockCache {
	return &MockCache{
		entries: make(map[string]string),
		TTLs:    make(map[string]time.Duration),
	}
}

func (m *MockCache) Get(ctx context.Context, key string) (string, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, key)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.entries[key], nil
}

func (m *MockCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if m.SetFunc != nil {
		return m.SetFunc(ctx, key, value, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = value
	m.TTLs[key] = ttl
	return nil
}

func (m *MockCache) Delete(ctx context.Context, key string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	delete(m.TTLs, key)
	return nil
}
