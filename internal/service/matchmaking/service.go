// Package matchmaking owns the search lifecycle: credit-gated enqueue,
// voluntary cancel, and the opportunistic finder that pairs a new
// applicant with the best already-waiting counterpart.
package matchmaking

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/ebisa/bunamatch/internal/app"
	"github.com/ebisa/bunamatch/internal/apperr"
	"github.com/ebisa/bunamatch/internal/db"
	"github.com/ebisa/bunamatch/internal/matching"
	"github.com/ebisa/bunamatch/internal/repository"
)

// Service implements search start/cancel and the match finder.
type Service struct {
	appCtx     *app.AppContext
	users      *repository.UserRepository
	queue      *repository.QueueRepository
	sessions   *repository.SessionRepository
	ledger     *repository.LedgerRepository
	moderation *repository.ModerationRepository
}

// NewService creates the matchmaking service with dependencies from AppContext.
func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:     appCtx,
		users:      repository.NewUserRepository(appCtx.DB),
		queue:      repository.NewQueueRepository(appCtx.DB),
		sessions:   repository.NewSessionRepository(appCtx.DB),
		ledger:     repository.NewLedgerRepository(appCtx.DB),
		moderation: repository.NewModerationRepository(appCtx.DB, appCtx.Config.Moderation.ReportBanThreshold),
	}
}

// Match describes a committed pairing.
type Match struct {
	Session    *db.ChatSession
	PartnerID  int64
	DistanceKm float64
}

// SearchOutcome is the result of StartSearch. Match is nil when the user
// was enqueued without finding a counterpart.
type SearchOutcome struct {
	Match   *Match
	Balance int
}

// StartSearch debits one credit and enqueues the user, then runs the
// finder once. The credit is consumed per attempt, win or lose; a later
// cancel does not refund it.
//
// Preconditions, checked in order: not banned (ban-check failure denies
// service), registration completed, no active session, not already
// queued, balance >= 1.
func (s *Service) StartSearch(ctx context.Context, userID int64) (*SearchOutcome, error) {
	banned, err := s.moderation.IsBanned(ctx, userID)
	if err != nil {
		// Cannot verify: deny, never default to "not banned".
		return nil, fmt.Errorf("ban check unavailable: %w", err)
	}
	if banned {
		return nil, apperr.ErrBanned
	}

	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil || user.RegistrationStep != db.RegStepCompleted {
		return nil, apperr.ErrNotRegistered
	}

	session, err := s.sessions.ActiveSessionFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	if session != nil {
		return nil, apperr.ErrAlreadyInSession
	}

	queued, err := s.queue.InQueue(ctx, userID)
	if err != nil {
		return nil, err
	}
	if queued {
		return nil, apperr.ErrAlreadySearching
	}

	if err := s.ledger.Debit(ctx, userID, 1, "Used for match search"); err != nil {
		return nil, err
	}
	_ = s.appCtx.RedisCache.InvalidateBalance(ctx, userID)

	entry := &db.QueueEntry{
		UserID:    user.TelegramID,
		Gender:    user.Gender,
		Age:       user.Age,
		Latitude:  user.Latitude,
		Longitude: user.Longitude,
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
	}
	if err := s.queue.Enqueue(ctx, entry); err != nil {
		return nil, err
	}

	balance, err := s.ledger.Balance(ctx, userID)
	if err != nil {
		s.appCtx.Logger.Error("balance read after debit failed", "user_id", userID, "err", err)
	}

	match, err := s.findMatch(ctx, entry)
	if err != nil {
		// The entry stays queued; a later arrival can still find it.
		s.appCtx.Logger.Error("find match failed", "user_id", userID, "err", err)
		return &SearchOutcome{Balance: balance}, nil
	}

	return &SearchOutcome{Match: match, Balance: balance}, nil
}

// CancelSearch removes the user's queue entry. Racing a concurrent match
// is resolved by whoever commits first; losing the race just means the
// user is no longer searching.
func (s *Service) CancelSearch(ctx context.Context, userID int64) error {
	removed, err := s.queue.Dequeue(ctx, userID)
	if err != nil {
		return err
	}
	if !removed {
		return apperr.ErrNotSearching
	}
	return nil
}

// findMatch runs one finder pass for a fresh queue entry. At most one
// match per invocation; no background sweep exists, so an entry that
// finds nobody waits for a future applicant's pass to discover it.
func (s *Service) findMatch(ctx context.Context, entry *db.QueueEntry) (*Match, error) {
	// No coordinate means infinite distance: never matches, and the
	// candidate query symmetrically skips coordinate-less entries.
	if entry.Latitude == nil || entry.Longitude == nil {
		return nil, nil
	}

	cfg := s.appCtx.Config
	lo, hi := matching.AgeWindow(entry.Age, cfg.Match.MinAge, cfg.Match.MaxAge)

	candidates, err := s.queue.Candidates(ctx, entry.UserID, db.OppositeGender(entry.Gender), lo, hi)
	if err != nil {
		return nil, err
	}

	type scored struct {
		entry db.QueueEntry
		dist  float64
	}
	var survivors []scored
	for _, c := range candidates {
		d := matching.Distance(*entry.Latitude, *entry.Longitude, *c.Latitude, *c.Longitude)
		if d <= cfg.Match.RadiusKm {
			survivors = append(survivors, scored{entry: c, dist: d})
		}
	}
	if len(survivors) == 0 {
		return nil, nil
	}

	// Candidates arrive ordered by wait time; a stable sort on distance
	// keeps earliest-waiting first among equidistant entries.
	sort.SliceStable(survivors, func(i, j int) bool {
		return survivors[i].dist < survivors[j].dist
	})

	best := survivors[0]

	// The query filtered one direction only. The window formula is not
	// symmetric, so the winner's own window must be re-checked before
	// committing.
	if !matching.InWindow(best.entry.Age, entry.Age, cfg.Match.MinAge, cfg.Match.MaxAge) {
		return nil, nil
	}

	session, err := s.sessions.CreateMatch(ctx, entry, &best.entry)
	if errors.Is(err, apperr.ErrNoLongerSearching) {
		// The counterpart cancelled (or got matched) mid-flight; the
		// transaction rolled back and our entry is still queued.
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	s.appCtx.Logger.Info("match created",
		"session_id", session.ID,
		"user1", session.User1ID,
		"user2", session.User2ID,
		"distance_km", best.dist,
	)

	return &Match{
		Session:    session,
		PartnerID:  best.entry.UserID,
		DistanceKm: best.dist,
	}, nil
}
