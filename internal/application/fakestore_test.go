package application

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sanosuguru/go-isolation-booking/internal/domain/account"
	"github.com/sanosuguru/go-isolation-booking/internal/domain/seat"
	"github.com/sanosuguru/go-isolation-booking/internal/domain/transaction"
)

// fakeStore は READ COMMITTED 相当のメモリ上のストア
// 行ロックは書き込み時に取得してコミットまたはロールバックまで保持する。
// ロック待ちのあとの条件は最新のコミット済みの値で再評価する（PostgreSQL の UPDATE と同じ）。
type fakeStore struct {
	mu       sync.Mutex
	seats    map[string]seat.Seat
	accounts map[string]decimal.Decimal
	locks    map[string]chan struct{}
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		seats:    map[string]seat.Seat{"A1": *seat.NewSeat("A1", decimal.RequireFromString("25.00"))},
		accounts: map[string]decimal.Decimal{},
		locks:    map[string]chan struct{}{},
	}
}

func (s *fakeStore) lockFor(key string) chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[key]
	if !ok {
		l = make(chan struct{}, 1)
		s.locks[key] = l
	}
	return l
}

func (s *fakeStore) seatSnapshot(id string) (seat.Seat, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.seats[id]
	return st, ok
}

func (s *fakeStore) Begin(_ context.Context, level transaction.IsolationLevel) (transaction.Tx, error) {
	return &fakeTx{
		store:    s,
		level:    level,
		seats:    map[string]seat.Seat{},
		accounts: map[string]decimal.Decimal{},
		held:     map[string]bool{},
	}, nil
}

type fakeTx struct {
	store    *fakeStore
	level    transaction.IsolationLevel
	seats    map[string]seat.Seat
	accounts map[string]decimal.Decimal
	held     map[string]bool
	done     bool
}

func (t *fakeTx) acquire(ctx context.Context, key string) error {
	if t.held[key] {
		return nil
	}
	select {
	case t.store.lockFor(key) <- struct{}{}:
		t.held[key] = true
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *fakeTx) release() {
	for key := range t.held {
		<-t.store.lockFor(key)
	}
	t.held = map[string]bool{}
	t.done = true
}

func (t *fakeTx) Commit() error {
	if t.done {
		return errors.New("transaction already closed")
	}
	t.store.mu.Lock()
	for id, st := range t.seats {
		t.store.seats[id] = st
	}
	for id, b := range t.accounts {
		t.store.accounts[id] = b
	}
	t.store.mu.Unlock()
	t.release()
	return nil
}

func (t *fakeTx) Rollback() error {
	if t.done {
		return nil
	}
	t.release()
	return nil
}

func (t *fakeTx) EffectiveIsolation(context.Context) (transaction.IsolationLevel, error) {
	if t.level == transaction.ReadUncommitted {
		return transaction.ReadCommitted, nil
	}
	return t.level, nil
}

// seat.Repository

type fakeSeatRepo struct{ store *fakeStore }

func (r *fakeSeatRepo) view(tx transaction.Tx, id string) (seat.Seat, bool) {
	if ftx, ok := tx.(*fakeTx); ok {
		if st, ok := ftx.seats[id]; ok {
			return st, true
		}
	}
	return r.store.seatSnapshot(id)
}

func (r *fakeSeatRepo) GetByID(_ context.Context, id string) (*seat.Seat, error) {
	st, ok := r.store.seatSnapshot(id)
	if !ok {
		return nil, seat.ErrSeatNotFound
	}
	return &st, nil
}

func (r *fakeSeatRepo) Get(_ context.Context, tx transaction.Tx, id string) (*seat.Seat, error) {
	st, ok := r.view(tx, id)
	if !ok {
		return nil, seat.ErrSeatNotFound
	}
	return &st, nil
}

func (r *fakeSeatRepo) update(ctx context.Context, tx transaction.Tx, id string, apply func(*seat.Seat) bool) (int64, error) {
	ftx := tx.(*fakeTx)
	if err := ftx.acquire(ctx, "seat:"+id); err != nil {
		return 0, err
	}
	st, ok := r.view(tx, id)
	if !ok || !apply(&st) {
		return 0, nil
	}
	ftx.seats[id] = st
	return 1, nil
}

func (r *fakeSeatRepo) MarkReserving(ctx context.Context, tx transaction.Tx, id, sessionID string, at time.Time) (int64, error) {
	return r.update(ctx, tx, id, func(st *seat.Seat) bool {
		if st.Status != seat.StatusAvailable {
			return false
		}
		st.Status = seat.StatusReserving
		st.ReservedBy = &sessionID
		st.ReservedAt = &at
		return true
	})
}

func (r *fakeSeatRepo) MarkBooked(ctx context.Context, tx transaction.Tx, id, sessionID string, at time.Time) (int64, error) {
	return r.update(ctx, tx, id, func(st *seat.Seat) bool {
		if st.ReservedBy == nil || *st.ReservedBy != sessionID {
			return false
		}
		st.Status = seat.StatusBooked
		st.BookedBy = &sessionID
		st.BookedAt = &at
		st.ReservedBy = nil
		st.ReservedAt = nil
		return true
	})
}

func (r *fakeSeatRepo) Reset(ctx context.Context, tx transaction.Tx, id string) (int64, error) {
	return r.update(ctx, tx, id, func(st *seat.Seat) bool {
		st.Reset()
		return true
	})
}

// account.Repository

type fakeAccountRepo struct {
	store *fakeStore
	// failCredit が true なら入金先が存在しないかのように振る舞う
	failCredit bool
}

func (r *fakeAccountRepo) view(tx transaction.Tx, id string) (decimal.Decimal, bool) {
	if ftx, ok := tx.(*fakeTx); ok {
		if b, ok := ftx.accounts[id]; ok {
			return b, true
		}
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	b, ok := r.store.accounts[id]
	return b, ok
}

func (r *fakeAccountRepo) Get(_ context.Context, tx transaction.Tx, id string) (*account.Account, error) {
	b, ok := r.view(tx, id)
	if !ok {
		return nil, account.ErrAccountNotFound
	}
	return &account.Account{ID: id, Balance: b}, nil
}

func (r *fakeAccountRepo) Debit(ctx context.Context, tx transaction.Tx, id string, amount decimal.Decimal) (int64, error) {
	ftx := tx.(*fakeTx)
	if err := ftx.acquire(ctx, "account:"+id); err != nil {
		return 0, err
	}
	b, ok := r.view(tx, id)
	if !ok || b.LessThan(amount) {
		return 0, nil
	}
	ftx.accounts[id] = b.Sub(amount)
	return 1, nil
}

func (r *fakeAccountRepo) Credit(ctx context.Context, tx transaction.Tx, id string, amount decimal.Decimal) (int64, error) {
	ftx := tx.(*fakeTx)
	if err := ftx.acquire(ctx, "account:"+id); err != nil {
		return 0, err
	}
	b, ok := r.view(tx, id)
	if !ok || r.failCredit {
		return 0, nil
	}
	ftx.accounts[id] = b.Add(amount)
	return 1, nil
}

func (r *fakeAccountRepo) Balances(_ context.Context, ids []string) (map[string]decimal.Decimal, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := make(map[string]decimal.Decimal, len(ids))
	for _, id := range ids {
		if b, ok := r.store.accounts[id]; ok {
			out[id] = b
		}
	}
	return out, nil
}
