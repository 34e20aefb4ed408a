// Package chat handles everything inside an active anonymous session:
// message relay, the one-shot username reveal, leaving, and reporting.
package chat

import (
	"context"
	"strings"

	"github.com/ebisa/bunamatch/internal/app"
	"github.com/ebisa/bunamatch/internal/apperr"
	"github.com/ebisa/bunamatch/internal/db"
	"github.com/ebisa/bunamatch/internal/repository"
	"github.com/ebisa/bunamatch/internal/sealed"
)

// Service relays messages between matched users.
type Service struct {
	appCtx     *app.AppContext
	users      *repository.UserRepository
	sessions   *repository.SessionRepository
	moderation *repository.ModerationRepository
	sealer     *sealed.Sealer
}

// NewService creates the chat service. The sealer key comes from config;
// a missing key is a deployment error surfaced at startup, not here.
func NewService(appCtx *app.AppContext, sealer *sealed.Sealer) *Service {
	return &Service{
		appCtx:     appCtx,
		users:      repository.NewUserRepository(appCtx.DB),
		sessions:   repository.NewSessionRepository(appCtx.DB),
		moderation: repository.NewModerationRepository(appCtx.DB, appCtx.Config.Moderation.ReportBanThreshold),
		sealer:     sealer,
	}
}

// RelayResult tells the caller where to deliver the sanitized text.
type RelayResult struct {
	SessionID uint64
	To        int64
	Text      string
}

// ShareResult carries the revealed handle and its recipient.
type ShareResult struct {
	SessionID uint64
	To        int64
	Username  string
}

// LeaveResult identifies the counterpart to notify about the ended chat.
type LeaveResult struct {
	SessionID uint64
	To        int64
}

// ReportOutcome describes a filed report. The reported user's session
// ends as part of filing; To is the counterpart for the closure notice.
type ReportOutcome struct {
	Report *db.Report
	To     int64
}

// Relay validates and sanitizes an inbound chat message, stores a sealed
// moderation copy, and returns the plaintext addressed to the counterpart.
// The moderation copy is mandatory: if it cannot be written the message
// is not relayed.
func (s *Service) Relay(ctx context.Context, from int64, text string) (*RelayResult, error) {
	session, err := s.sessions.ActiveSessionFor(ctx, from)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, apperr.ErrNoActiveSession
	}

	text = sanitize(text)
	if text == "" {
		return nil, apperr.ErrEmptyMessage
	}

	box, err := s.sealer.Seal(text)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.StoreSealedMessage(ctx, session.ID, from, box); err != nil {
		return nil, err
	}

	return &RelayResult{
		SessionID: session.ID,
		To:        session.Counterpart(from),
		Text:      text,
	}, nil
}

// ShareUsername reveals the sender's Telegram handle to the counterpart.
// Allowed once per user per session; a user without a handle cannot share.
func (s *Service) ShareUsername(ctx context.Context, from int64) (*ShareResult, error) {
	session, err := s.sessions.ActiveSessionFor(ctx, from)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, apperr.ErrNoActiveSession
	}

	shared, err := s.sessions.HasShared(ctx, session.ID, from)
	if err != nil {
		return nil, err
	}
	if shared {
		return nil, apperr.ErrAlreadyShared
	}

	user, err := s.users.Get(ctx, from)
	if err != nil {
		return nil, err
	}
	if user == nil || user.Username == "" {
		return nil, apperr.ErrNoUsername
	}

	to := session.Counterpart(from)
	if err := s.sessions.RecordShare(ctx, session.ID, from, to); err != nil {
		return nil, err
	}

	return &ShareResult{SessionID: session.ID, To: to, Username: user.Username}, nil
}

// Leave ends the caller's active session. Ending is idempotent at the
// storage layer, so a racing leave from both sides is harmless.
func (s *Service) Leave(ctx context.Context, from int64) (*LeaveResult, error) {
	session, err := s.sessions.ActiveSessionFor(ctx, from)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, apperr.ErrNoActiveSession
	}

	if err := s.sessions.EndSession(ctx, session.ID); err != nil {
		return nil, err
	}

	return &LeaveResult{SessionID: session.ID, To: session.Counterpart(from)}, nil
}

// Report files a report against the counterpart and then ends the
// session. The report write happens first; if it fails the session
// stays open and the caller may retry.
func (s *Service) Report(ctx context.Context, from int64, category, details string) (*ReportOutcome, error) {
	session, err := s.sessions.ActiveSessionFor(ctx, from)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, apperr.ErrNoActiveSession
	}

	category = strings.TrimSpace(category)
	if category == "" {
		return nil, apperr.ErrEmptyCategory
	}

	to := session.Counterpart(from)
	report, err := s.moderation.RecordReport(ctx, from, to, session.ID, category, details)
	if err != nil {
		return nil, err
	}

	if err := s.sessions.EndSession(ctx, session.ID); err != nil {
		// Report is already on file; log and keep going.
		s.appCtx.Logger.Error("end session after report failed", "session_id", session.ID, "err", err)
	}

	s.appCtx.Logger.Info("report filed",
		"report_id", report.ID,
		"reporter", from,
		"reported", to,
		"category", category,
	)

	return &ReportOutcome{Report: report, To: to}, nil
}

// sanitize strips control characters and trims surrounding whitespace.
// Telegram already limits message length; only the obviously hostile
// bytes are removed here.
func sanitize(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if r == '\n' || r == '\t' || r >= 0x20 {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}
