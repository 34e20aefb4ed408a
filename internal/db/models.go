package db

import (
	"time"
)

// Gender values. The matching model is strictly binary: the only valid
// pairing is male with female.
const (
	GenderMale   = "male"
	GenderFemale = "female"
)

// OppositeGender returns the only gender a user of gender g can match with.
func OppositeGender(g string) string {
	if g == GenderMale {
		return GenderFemale
	}
	return GenderMale
}

// Registration steps stored on User.
const (
	RegStepNew       = "new"
	RegStepCompleted = "completed"
)

// Credit transaction types.
const (
	TxInitialFree   = "initial_free"
	TxSearchUsed    = "search_used"
	TxStarsPurchase = "stars_purchase"
	TxAdminGrant    = "admin_grant"
)

// Report categories.
const (
	ReportUnderage      = "underage"
	ReportFalseIdentity = "false_identity"
	ReportSexualContent = "sexual_content"
	ReportHarassment    = "harassment"
	ReportSafetyConcern = "safety_concern"
	ReportHateSpeech    = "hate_speech"
)

// Report statuses.
const (
	ReportPending     = "pending"
	ReportReviewed    = "reviewed"
	ReportActionTaken = "action_taken"
)

// SystemActorID marks bans applied automatically rather than by an admin.
const SystemActorID int64 = 0

// User is a registered account. TelegramID is the external identity and
// never changes; gender is immutable after registration. Searches is the
// cached credit balance and must always equal the sum of the user's
// CreditTransaction amounts.
type User struct {
	TelegramID       int64  `gorm:"primaryKey;autoIncrement:false"`
	Username         string `gorm:"size:64"`
	FirstName        string `gorm:"size:255"`
	LastName         string `gorm:"size:255"`
	Age              int    `gorm:"not null;index"`
	Gender           string `gorm:"size:8;not null;index"`
	Latitude         *float64
	Longitude        *float64
	Searches         int       `gorm:"not null;default:0"`
	RegistrationStep string    `gorm:"size:50;default:new"`
	TermsAccepted    bool      `gorm:"default:false"`
	CreatedAt        time.Time `gorm:"autoCreateTime"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime"`
}

// QueueEntry is one searching user. The unique index on UserID enforces
// at most one entry per user; attributes are snapshotted at enqueue time.
type QueueEntry struct {
	ID             uint64 `gorm:"primaryKey;autoIncrement"`
	UserID         int64  `gorm:"uniqueIndex;not null"`
	Gender         string `gorm:"size:8;not null;index:idx_queue_gender_age,priority:1"`
	Age            int    `gorm:"not null;index:idx_queue_gender_age,priority:2"`
	Latitude       *float64
	Longitude      *float64
	Username       string    `gorm:"size:64"`
	FirstName      string    `gorm:"size:255"`
	LastName       string    `gorm:"size:255"`
	HasPriority    bool      `gorm:"default:false"`
	SearchingSince time.Time `gorm:"autoCreateTime"`
}

// ChatSession is an anonymous two-party conversation. Rows are retained
// after termination with IsActive=false. At most one active session may
// exist per user; CreateMatch's transaction is the enforcement point.
type ChatSession struct {
	ID          uint64 `gorm:"primaryKey;autoIncrement"`
	User1ID     int64  `gorm:"not null;index:idx_active_user1,priority:2"`
	User2ID     int64  `gorm:"not null;index:idx_active_user2,priority:2"`
	User1Gender string `gorm:"size:8"`
	User2Gender string `gorm:"size:8"`
	IsActive    bool   `gorm:"not null;default:true;index:idx_active_user1,priority:1;index:idx_active_user2,priority:1"`
	StartedAt   time.Time `gorm:"autoCreateTime"`
	EndedAt     *time.Time
}

// Counterpart returns the other participant's id, or 0 if userID is not a
// participant.
func (s *ChatSession) Counterpart(userID int64) int64 {
	switch userID {
	case s.User1ID:
		return s.User2ID
	case s.User2ID:
		return s.User1ID
	}
	return 0
}

// MatchHistory records that a pair has ever been matched. The pair is
// stored ordered (User1ID < User2ID) so the unique index covers the
// unordered pair; rows are append-only and independent of sessions.
type MatchHistory struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	User1ID   int64     `gorm:"not null;uniqueIndex:idx_pair,priority:1"`
	User2ID   int64     `gorm:"not null;uniqueIndex:idx_pair,priority:2"`
	MatchedAt time.Time `gorm:"autoCreateTime"`
}

func (MatchHistory) TableName() string { return "match_history" }

// OrderPair normalizes an unordered user pair for MatchHistory storage.
func OrderPair(a, b int64) (int64, int64) {
	if a > b {
		return b, a
	}
	return a, b
}

// Report is a safety report filed by one session participant against the
// other. Never deleted; status moves pending -> reviewed/action_taken.
type Report struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement"`
	ReporterID int64     `gorm:"not null"`
	ReportedID int64     `gorm:"not null;index"`
	SessionID  uint64    `gorm:"not null"`
	Category   string    `gorm:"size:32;not null"`
	Details    string    `gorm:"size:1024"`
	Status     string    `gorm:"size:16;not null;default:pending;index"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
}

// BannedUser presence is authoritative: a listed user is rejected from
// every core operation. BannedBy is SystemActorID for automatic bans.
type BannedUser struct {
	UserID   int64     `gorm:"primaryKey;autoIncrement:false"`
	BannedBy int64     `gorm:"not null"`
	Reason   string    `gorm:"size:512"`
	BannedAt time.Time `gorm:"autoCreateTime"`
}

// CreditTransaction is an append-only ledger row. Amount is signed.
type CreditTransaction struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement"`
	UserID      int64     `gorm:"not null;index:idx_user_date,priority:1"`
	Amount      int       `gorm:"not null"`
	Type        string    `gorm:"size:32;not null"`
	Description string    `gorm:"size:255"`
	CreatedAt   time.Time `gorm:"autoCreateTime;index:idx_user_date,priority:2"`
}

// StarsPayment is one confirmed external payment. The unique ChargeID is
// the replay guard: a charge id can credit the ledger exactly once.
type StarsPayment struct {
	ID                uint64    `gorm:"primaryKey;autoIncrement"`
	UserID            int64     `gorm:"not null;index"`
	ChargeID          string    `gorm:"size:128;not null;uniqueIndex"`
	Payload           string    `gorm:"size:128;not null"`
	Currency          string    `gorm:"size:8;not null"`
	TotalAmount       int       `gorm:"not null"`
	SearchesPurchased int       `gorm:"not null"`
	Status            string    `gorm:"size:16;not null;default:completed"`
	CreatedAt         time.Time `gorm:"autoCreateTime"`
}

// UsernameShare records a voluntary identity disclosure. The unique
// (session, sharer) index allows at most one share per participant per
// session.
type UsernameShare struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	SessionID uint64    `gorm:"not null;uniqueIndex:idx_session_sharer,priority:1"`
	SharedBy  int64     `gorm:"not null;uniqueIndex:idx_session_sharer,priority:2"`
	SharedTo  int64     `gorm:"not null"`
	SharedAt  time.Time `gorm:"autoCreateTime"`
}

// UserState is the per-user conversation state machine row. Each request
// handler is stateless; whatever step a user is in lives here, with an
// opaque JSON blob for step data.
type UserState struct {
	UserID    int64     `gorm:"primaryKey;autoIncrement:false"`
	State     string    `gorm:"size:100;not null"`
	Data      string    `gorm:"size:2048"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// AdminAction is an audit row for every operator action.
type AdminAction struct {
	ID           uint64    `gorm:"primaryKey;autoIncrement"`
	AdminID      int64     `gorm:"not null;index"`
	ActionType   string    `gorm:"size:50;not null"`
	TargetUserID int64     `gorm:"index"`
	Details      string    `gorm:"size:512"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
}

// SealedMessage is the moderation copy of a relayed chat message. Only
// the ciphertext is stored; the counterpart still receives plaintext.
type SealedMessage struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	SessionID uint64    `gorm:"not null;index"`
	SenderID  int64     `gorm:"not null"`
	Box       []byte    `gorm:"not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}
