// Package profile drives registration and profile editing. Both are
// multi-turn conversations; the step a user is on lives in a per-user
// state row so a restart never loses progress.
package profile

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ebisa/bunamatch/internal/app"
	"github.com/ebisa/bunamatch/internal/apperr"
	"github.com/ebisa/bunamatch/internal/db"
	"github.com/ebisa/bunamatch/internal/repository"
)

// Conversation states persisted between updates.
const (
	StateRegTerms     = "reg_terms"
	StateRegFirstName = "reg_first_name"
	StateRegLastName  = "reg_last_name"
	StateRegAge       = "reg_age"
	StateRegGender    = "reg_gender"
	StateRegLocation  = "reg_location"

	StateEditFirstName = "editing_first_name"
	StateEditLastName  = "editing_last_name"
	StateEditAge       = "editing_age"
	StateEditLocation  = "editing_location"
)

// Prompt tells the dispatcher what to ask for next.
type Prompt string

const (
	PromptNone         Prompt = ""
	PromptNeedUsername Prompt = "need_username"
	PromptTerms        Prompt = "terms"
	PromptFirstName    Prompt = "first_name"
	PromptLastName     Prompt = "last_name"
	PromptAge          Prompt = "age"
	PromptGender       Prompt = "gender"
	PromptLocation     Prompt = "location"
	PromptDone         Prompt = "done"
)

var (
	namePattern     = regexp.MustCompile(`^[A-Za-z ]{2,50}$`)
	usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]{5,32}$`)
)

// Service manages registration and edit conversations.
type Service struct {
	appCtx *app.AppContext
	users  *repository.UserRepository
	states *repository.StateRepository
}

// NewService creates the profile service.
func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx: appCtx,
		users:  repository.NewUserRepository(appCtx.DB),
		states: repository.NewStateRepository(appCtx.DB),
	}
}

// State returns the user's current conversation state, "" when idle.
func (s *Service) State(ctx context.Context, userID int64) (string, error) {
	state, _, err := s.states.Get(ctx, userID)
	return state, err
}

// Begin starts registration. A public @username is required up front
// because the username-share feature is meaningless without one.
// Already-registered users get PromptDone.
func (s *Service) Begin(ctx context.Context, userID int64, username string) (Prompt, error) {
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return PromptNone, err
	}
	if user != nil && user.RegistrationStep == db.RegStepCompleted {
		if username != "" && username != user.Username {
			if err := s.users.SyncUsername(ctx, userID, username); err != nil {
				return PromptNone, err
			}
		}
		return PromptDone, nil
	}

	if !usernamePattern.MatchString(username) {
		return PromptNeedUsername, nil
	}

	if err := s.states.Set(ctx, userID, StateRegTerms, nil); err != nil {
		return PromptNone, err
	}
	return PromptTerms, nil
}

// AcceptTerms advances past the terms gate.
func (s *Service) AcceptTerms(ctx context.Context, userID int64) (Prompt, error) {
	state, _, err := s.states.Get(ctx, userID)
	if err != nil {
		return PromptNone, err
	}
	if state != StateRegTerms {
		return PromptNone, apperr.ErrInvalidInput
	}
	if err := s.states.Set(ctx, userID, StateRegFirstName, nil); err != nil {
		return PromptNone, err
	}
	return PromptFirstName, nil
}

// TextOutcome is the result of feeding free text into the conversation.
// Next is the follow-up prompt; EditedField is set when an edit state
// consumed the text; Invalid carries a user-facing validation message.
type TextOutcome struct {
	Next        Prompt
	EditedField string
	Invalid     string
}

// HandleText consumes one free-text answer for whatever state the user
// is in. Callers must only invoke it when State reports a text-consuming
// state; anything else returns ErrInvalidInput.
func (s *Service) HandleText(ctx context.Context, userID int64, text string) (*TextOutcome, error) {
	state, data, err := s.states.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if data == nil {
		data = map[string]string{}
	}
	text = strings.TrimSpace(text)

	switch state {
	case StateRegFirstName:
		if !namePattern.MatchString(text) {
			return &TextOutcome{Invalid: "Please enter a valid first name (letters only, 2-50 characters)."}, nil
		}
		data["first_name"] = text
		if err := s.states.Set(ctx, userID, StateRegLastName, data); err != nil {
			return nil, err
		}
		return &TextOutcome{Next: PromptLastName}, nil

	case StateRegLastName:
		if !namePattern.MatchString(text) {
			return &TextOutcome{Invalid: "Please enter a valid last name (letters only, 2-50 characters)."}, nil
		}
		data["last_name"] = text
		if err := s.states.Set(ctx, userID, StateRegAge, data); err != nil {
			return nil, err
		}
		return &TextOutcome{Next: PromptAge}, nil

	case StateRegAge:
		age, ok := s.parseAge(text)
		if !ok {
			return &TextOutcome{Invalid: s.ageError()}, nil
		}
		data["age"] = strconv.Itoa(age)
		if err := s.states.Set(ctx, userID, StateRegGender, data); err != nil {
			return nil, err
		}
		return &TextOutcome{Next: PromptGender}, nil

	case StateEditFirstName:
		if !namePattern.MatchString(text) {
			return &TextOutcome{Invalid: "Please enter a valid first name (letters only, 2-50 characters)."}, nil
		}
		return s.finishEdit(ctx, userID, "first_name", text)

	case StateEditLastName:
		if !namePattern.MatchString(text) {
			return &TextOutcome{Invalid: "Please enter a valid last name (letters only, 2-50 characters)."}, nil
		}
		return s.finishEdit(ctx, userID, "last_name", text)

	case StateEditAge:
		age, ok := s.parseAge(text)
		if !ok {
			return &TextOutcome{Invalid: s.ageError()}, nil
		}
		return s.finishEdit(ctx, userID, "age", age)

	default:
		return nil, apperr.ErrInvalidInput
	}
}

// SetGender records the gender choice during registration. Gender is
// immutable afterwards, so no edit state exists for it.
func (s *Service) SetGender(ctx context.Context, userID int64, gender string) (Prompt, error) {
	state, data, err := s.states.Get(ctx, userID)
	if err != nil {
		return PromptNone, err
	}
	if state != StateRegGender {
		return PromptNone, apperr.ErrInvalidInput
	}
	if gender != db.GenderMale && gender != db.GenderFemale {
		return PromptNone, apperr.ErrInvalidInput
	}
	if data == nil {
		data = map[string]string{}
	}
	data["gender"] = gender
	if err := s.states.Set(ctx, userID, StateRegLocation, data); err != nil {
		return PromptNone, err
	}
	return PromptLocation, nil
}

// LocationOutcome is the result of a shared location: either a finished
// registration (Completed true, InitialCredits granted) or an updated
// position on an existing profile.
type LocationOutcome struct {
	Completed      bool
	InitialCredits int
	User           *db.User
}

// HandleLocation consumes a shared live position. During registration it
// is the final step and creates the account; for a registered user it
// refreshes the stored coordinates, whether or not an edit was pending.
func (s *Service) HandleLocation(ctx context.Context, userID int64, username string, lat, lon float64) (*LocationOutcome, error) {
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return nil, apperr.ErrInvalidInput
	}

	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user != nil && user.RegistrationStep == db.RegStepCompleted {
		if err := s.users.UpdateLocation(ctx, userID, lat, lon); err != nil {
			return nil, err
		}
		if err := s.states.Clear(ctx, userID); err != nil {
			return nil, err
		}
		user.Latitude, user.Longitude = &lat, &lon
		return &LocationOutcome{User: user}, nil
	}

	state, data, err := s.states.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if state != StateRegLocation {
		return nil, apperr.ErrInvalidInput
	}
	if !usernamePattern.MatchString(username) {
		return nil, apperr.ErrNoUsername
	}

	age, err := strconv.Atoi(data["age"])
	if err != nil {
		return nil, fmt.Errorf("corrupt registration data for user %d: %w", userID, err)
	}
	created := &db.User{
		TelegramID:       userID,
		Username:         username,
		FirstName:        data["first_name"],
		LastName:         data["last_name"],
		Age:              age,
		Gender:           data["gender"],
		Latitude:         &lat,
		Longitude:        &lon,
		RegistrationStep: db.RegStepCompleted,
		TermsAccepted:    true,
	}
	initial := s.appCtx.Config.Credits.InitialFree
	if err := s.users.CreateRegistered(ctx, created, initial); err != nil {
		return nil, err
	}
	if err := s.states.Clear(ctx, userID); err != nil {
		return nil, err
	}
	_ = s.appCtx.RedisCache.InvalidateBalance(ctx, userID)

	s.appCtx.Logger.Info("registration completed",
		"user_id", userID,
		"age", age,
		"gender", created.Gender,
	)
	return &LocationOutcome{Completed: true, InitialCredits: initial, User: created}, nil
}

// BeginEdit puts the user into an edit state. Editing location just
// prompts for a new shared position, which HandleLocation applies.
func (s *Service) BeginEdit(ctx context.Context, userID int64, field string) (Prompt, error) {
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return PromptNone, err
	}
	if user == nil || user.RegistrationStep != db.RegStepCompleted {
		return PromptNone, apperr.ErrNotRegistered
	}

	switch field {
	case "first_name":
		return PromptFirstName, s.states.Set(ctx, userID, StateEditFirstName, nil)
	case "last_name":
		return PromptLastName, s.states.Set(ctx, userID, StateEditLastName, nil)
	case "age":
		return PromptAge, s.states.Set(ctx, userID, StateEditAge, nil)
	case "location":
		return PromptLocation, s.states.Set(ctx, userID, StateEditLocation, nil)
	default:
		return PromptNone, apperr.ErrInvalidInput
	}
}

// CancelConversation drops any pending state, e.g. on /start.
func (s *Service) CancelConversation(ctx context.Context, userID int64) error {
	return s.states.Clear(ctx, userID)
}

func (s *Service) finishEdit(ctx context.Context, userID int64, column string, value any) (*TextOutcome, error) {
	if err := s.users.UpdateField(ctx, userID, column, value); err != nil {
		return nil, err
	}
	if err := s.states.Clear(ctx, userID); err != nil {
		return nil, err
	}
	return &TextOutcome{EditedField: column}, nil
}

func (s *Service) parseAge(text string) (int, bool) {
	age, err := strconv.Atoi(text)
	if err != nil {
		return 0, false
	}
	cfg := s.appCtx.Config.Match
	if age < cfg.MinAge || age > cfg.MaxAge {
		return 0, false
	}
	return age, true
}

func (s *Service) ageError() string {
	cfg := s.appCtx.Config.Match
	return fmt.Sprintf("Please enter a valid age between %d and %d.", cfg.MinAge, cfg.MaxAge)
}
