package credit

import (
	"context"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/rmoralesc/movilpos-backend/pkg/errors"
	"github.com/rmoralesc/movilpos-backend/pkg/redis"
)

const lockScope = "credit-account"

// accountLock serializes restore-then-deduct sequences per customer. The
// owner token makes release safe: a holder whose lease expired cannot delete
// a lock someone else has since acquired.
type accountLock struct {
	store redis.LockStore
	ttl   time.Duration
}

type leasedLock struct {
	store redis.LockStore
	key   string
	owner string
}

func (l accountLock) acquire(ctx context.Context, customerID uuid.UUID) (*leasedLock, error) {
	key := l.store.LockKey(lockScope, customerID.String())
	owner := uuid.NewString()
	ok, err := l.store.SetNX(ctx, key, owner, l.ttl)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquiring credit lock")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "another credit operation is in progress for this customer")
	}
	return &leasedLock{store: l.store, key: key, owner: owner}, nil
}

func (l *leasedLock) release(ctx context.Context) {
	current, err := l.store.Get(ctx, l.key)
	if err != nil || current != l.owner {
		return
	}
	_ = l.store.Del(ctx, l.key)
}
