// Package billing covers the Telegram Stars purchase flow: invoice
// payloads, pre-checkout validation, exactly-once confirmation, and the
// cached balance read.
package billing

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/ebisa/bunamatch/internal/app"
	"github.com/ebisa/bunamatch/internal/apperr"
	"github.com/ebisa/bunamatch/internal/db"
	"github.com/ebisa/bunamatch/internal/repository"
)

// payloadPattern binds an invoice to a user and an issue time:
// plan_standard_<telegram id>_<unix seconds>.
var payloadPattern = regexp.MustCompile(`^plan_standard_(\d+)_(\d+)$`)

// payloadMaxAge is how long an issued invoice stays payable.
const payloadMaxAge = time.Hour

// Service validates and settles Stars purchases.
type Service struct {
	appCtx   *app.AppContext
	ledger   *repository.LedgerRepository
	payments *repository.PaymentRepository
}

// NewService creates the billing service.
func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:   appCtx,
		ledger:   repository.NewLedgerRepository(appCtx.DB),
		payments: repository.NewPaymentRepository(appCtx.DB),
	}
}

// InvoicePayload issues a fresh payload for the standard package.
func (s *Service) InvoicePayload(userID int64) string {
	return fmt.Sprintf("plan_standard_%d_%d", userID, time.Now().Unix())
}

// CheckoutRequest is the slice of a payment Telegram asks us to approve
// or that it reports as settled.
type CheckoutRequest struct {
	Payload   string
	Currency  string
	Amount    int
	Requester int64
}

// Preauthorize decides a pre-checkout query. The returned reason is
// user-facing and empty exactly when ok is true. Rejecting here is the
// last chance to stop a bad charge; Telegram settles anything approved.
func (s *Service) Preauthorize(req CheckoutRequest) (bool, string) {
	if req.Currency != s.appCtx.Config.Billing.Currency {
		return false, "Unsupported payment currency."
	}
	uid, issued, err := parsePayload(req.Payload)
	if err != nil {
		return false, "Invalid payment information. Please request a new invoice."
	}
	if uid != req.Requester {
		return false, "Payment verification failed."
	}
	if time.Since(issued) > payloadMaxAge {
		return false, "This payment request has expired. Please request a new invoice."
	}
	if req.Amount != s.appCtx.Config.Billing.PackStars {
		return false, "Payment amount mismatch."
	}
	return true, ""
}

// ConfirmResult reports a settled purchase. Duplicate marks a replayed
// charge id: nothing was credited and NewBalance is the current balance.
type ConfirmResult struct {
	Duplicate  bool
	Added      int
	NewBalance int
}

// Confirm settles a successful payment exactly once, keyed by the
// provider charge id. Replays are acknowledged without a second credit.
func (s *Service) Confirm(ctx context.Context, chargeID string, req CheckoutRequest) (*ConfirmResult, error) {
	uid, _, err := parsePayload(req.Payload)
	if err != nil || uid != req.Requester || req.Currency != s.appCtx.Config.Billing.Currency {
		return nil, apperr.ErrInvalidPayload
	}

	cfg := s.appCtx.Config.Billing
	err = s.payments.ConfirmPayment(ctx, &db.StarsPayment{
		UserID:            uid,
		ChargeID:          chargeID,
		Payload:           req.Payload,
		Currency:          req.Currency,
		TotalAmount:       req.Amount,
		SearchesPurchased: cfg.PackSearches,
	})
	duplicate := errors.Is(err, apperr.ErrDuplicatePayment)
	if err != nil && !duplicate {
		return nil, err
	}

	if !duplicate {
		_ = s.appCtx.RedisCache.InvalidateBalance(ctx, uid)
		s.appCtx.Logger.Info("payment confirmed",
			"user_id", uid,
			"charge_id", chargeID,
			"stars", req.Amount,
			"searches", cfg.PackSearches,
		)
	} else {
		s.appCtx.Logger.Warn("duplicate payment ignored", "user_id", uid, "charge_id", chargeID)
	}

	balance, err := s.Balance(ctx, uid)
	if err != nil {
		return nil, err
	}
	added := cfg.PackSearches
	if duplicate {
		added = 0
	}
	return &ConfirmResult{Duplicate: duplicate, Added: added, NewBalance: balance}, nil
}

// Balance returns the user's credit balance, served from Redis when
// fresh and recomputed from the ledger on a miss.
func (s *Service) Balance(ctx context.Context, userID int64) (int, error) {
	if balance, ok, err := s.appCtx.RedisCache.GetBalance(ctx, userID); err == nil && ok {
		return balance, nil
	} else if err != nil {
		s.appCtx.Logger.Warn("balance cache read failed", "user_id", userID, "err", err)
	}

	balance, err := s.ledger.Balance(ctx, userID)
	if err != nil {
		return 0, err
	}
	if err := s.appCtx.RedisCache.UpdateBalance(ctx, userID, balance); err != nil {
		s.appCtx.Logger.Warn("balance cache write failed", "user_id", userID, "err", err)
	}
	return balance, nil
}

func parsePayload(payload string) (int64, time.Time, error) {
	m := payloadPattern.FindStringSubmatch(payload)
	if m == nil {
		return 0, time.Time{}, apperr.ErrInvalidPayload
	}
	uid, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, time.Time{}, apperr.ErrInvalidPayload
	}
	ts, err := strconv.ParseInt(m[2], 10, 64)
	if err != nil {
		return 0, time.Time{}, apperr.ErrInvalidPayload
	}
	return uid, time.Unix(ts, 0), nil
}
