package credit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rmoralesc/movilpos-backend/pkg/config"
	"github.com/rmoralesc/movilpos-backend/pkg/db/models"
	"github.com/rmoralesc/movilpos-backend/pkg/enums"
	pkgerrors "github.com/rmoralesc/movilpos-backend/pkg/errors"
	"github.com/rmoralesc/movilpos-backend/pkg/logger"
	"github.com/rmoralesc/movilpos-backend/pkg/redis"
)

// Ref ties a ledger mutation back to the document that caused it.
type Ref struct {
	SaleID *uuid.UUID
	SwapID *uuid.UUID
}

// Service owns the store-credit ledger. Every balance write goes through a
// compare-and-swap on the account version and leaves a CreditEntry behind.
type Service struct {
	repo       Repository
	lock       accountLock
	log        *logger.Logger
	casRetries int
}

// NewService wires the credit service. The lock store may be nil, in which
// case WithAccountLock runs its callback without cross-process serialization
// (single-instance deployments and tests).
func NewService(repo Repository, locks redis.LockStore, cfg config.SalesConfig, log *logger.Logger) (*Service, error) {
	if repo == nil {
		return nil, errors.New("credit: repository is required")
	}
	if log == nil {
		return nil, errors.New("credit: logger is required")
	}
	retries := cfg.CreditCASRetry
	if retries < 1 {
		retries = 1
	}
	ttl := cfg.CreditLockTTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Service{
		repo:       repo,
		lock:       accountLock{store: locks, ttl: ttl},
		log:        log,
		casRetries: retries,
	}, nil
}

// Balance returns the customer's current store credit, zero when the
// customer has no account yet.
func (s *Service) Balance(ctx context.Context, customerID uuid.UUID) (decimal.Decimal, error) {
	account, err := s.repo.GetAccount(ctx, customerID)
	if appErr := pkgerrors.As(err); appErr != nil && appErr.Code() == pkgerrors.CodeNotFound {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, err
	}
	return account.Balance, nil
}

// Entries returns the most recent ledger entries for the customer.
func (s *Service) Entries(ctx context.Context, customerID uuid.UUID, limit int) ([]models.CreditEntry, error) {
	return s.repo.ListEntries(ctx, customerID, limit)
}

// Deduct removes credit from the customer's balance. It fails with
// CodeInsufficientCredit when the balance cannot cover the amount, and with
// CodeConflict when concurrent writers exhaust the retry budget.
func (s *Service) Deduct(ctx context.Context, customerID uuid.UUID, amount decimal.Decimal, ref Ref) (*models.CreditEntry, error) {
	return s.mutate(ctx, customerID, amount, enums.CreditEntryDeduct, ref)
}

// Restore adds credit back onto the customer's balance, creating the account
// on first use.
func (s *Service) Restore(ctx context.Context, customerID uuid.UUID, amount decimal.Decimal, ref Ref) (*models.CreditEntry, error) {
	return s.mutate(ctx, customerID, amount, enums.CreditEntryRestore, ref)
}

// WithAccountLock runs fn while holding the customer's credit lock, so a
// restore immediately followed by a deduct (the sale edit flow) cannot
// interleave with another cashier's operation on the same account.
func (s *Service) WithAccountLock(ctx context.Context, customerID uuid.UUID, fn func(ctx context.Context) error) error {
	if s.lock.store == nil {
		return fn(ctx)
	}
	lease, err := s.lock.acquire(ctx, customerID)
	if err != nil {
		return err
	}
	defer lease.release(ctx)
	return fn(ctx)
}

func (s *Service) mutate(ctx context.Context, customerID uuid.UUID, amount decimal.Decimal, typ enums.CreditEntryType, ref Ref) (*models.CreditEntry, error) {
	if !amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "credit amount must be positive")
	}

	for attempt := 0; attempt < s.casRetries; attempt++ {
		account, err := s.loadAccount(ctx, customerID, typ)
		if err != nil {
			return nil, err
		}

		var next decimal.Decimal
		switch typ {
		case enums.CreditEntryDeduct:
			next = account.Balance.Sub(amount)
			if next.IsNegative() {
				return nil, pkgerrors.New(pkgerrors.CodeInsufficientCredit,
					fmt.Sprintf("balance %s cannot cover %s", account.Balance, amount))
			}
		case enums.CreditEntryRestore:
			next = account.Balance.Add(amount)
		default:
			return nil, pkgerrors.New(pkgerrors.CodeInternal, "unknown credit entry type")
		}

		ok, err := s.repo.UpdateBalanceCAS(ctx, customerID, account.Version, next)
		if err != nil {
			return nil, err
		}
		if !ok {
			retryCtx := s.log.WithFields(ctx, map[string]any{
				"customer_id": customerID.String(),
				"attempt":     attempt + 1,
			})
			s.log.Warn(retryCtx, "credit balance version moved, retrying")
			continue
		}

		entry := &models.CreditEntry{
			CustomerID:   customerID,
			SaleID:       ref.SaleID,
			SwapID:       ref.SwapID,
			Type:         typ,
			Amount:       amount,
			BalanceAfter: next,
		}
		if err := s.repo.InsertEntry(ctx, entry); err != nil {
			return nil, err
		}
		return entry, nil
	}

	return nil, pkgerrors.New(pkgerrors.CodeConflict, "credit balance is being modified concurrently, try again")
}

func (s *Service) loadAccount(ctx context.Context, customerID uuid.UUID, typ enums.CreditEntryType) (*models.CreditAccount, error) {
	if typ == enums.CreditEntryRestore {
		return s.repo.EnsureAccount(ctx, customerID)
	}
	account, err := s.repo.GetAccount(ctx, customerID)
	if appErr := pkgerrors.As(err); appErr != nil && appErr.Code() == pkgerrors.CodeNotFound {
		return nil, pkgerrors.New(pkgerrors.CodeInsufficientCredit, "customer has no store credit")
	}
	return account, err
}
