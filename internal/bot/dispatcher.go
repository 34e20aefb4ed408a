// Package bot turns webhook updates into service calls and service
// results into outbound Telegram messages. All delivery happens after
// the underlying state change committed; a failed send is logged and
// never rolls anything back.
package bot

import (
	"context"
	"errors"
	"fmt"

	"github.com/ebisa/bunamatch/internal/app"
	"github.com/ebisa/bunamatch/internal/apperr"
	"github.com/ebisa/bunamatch/internal/repository"
	"github.com/ebisa/bunamatch/internal/service/billing"
	"github.com/ebisa/bunamatch/internal/service/chat"
	"github.com/ebisa/bunamatch/internal/service/matchmaking"
	"github.com/ebisa/bunamatch/internal/service/profile"
	"github.com/ebisa/bunamatch/internal/telegram"
)

const (
	msgBanned      = "🚫 Your account has been suspended for violating our community guidelines."
	msgUnavailable = "⚠️ Service temporarily unavailable. Please try again in a moment."
	msgTerms       = "☕ Welcome to Buna Match!\n\n" +
		"Before we start, please accept our community guidelines:\n" +
		"• Be respectful to your matches\n" +
		"• No harassment or hate speech\n" +
		"• You must be 18 or older\n" +
		"• Reports are reviewed and may lead to a ban"
	msgNeedUsername = "Please set a public @username in your Telegram settings first, then send /start again. " +
		"Your match needs it if you choose to share your contact."
)

// Dispatcher routes decoded events to services and delivers replies.
type Dispatcher struct {
	appCtx     *app.AppContext
	tg         *telegram.Client
	match      *matchmaking.Service
	chat       *chat.Service
	billing    *billing.Service
	profile    *profile.Service
	moderation *repository.ModerationRepository
}

// NewDispatcher wires the dispatcher.
func NewDispatcher(appCtx *app.AppContext, tg *telegram.Client, match *matchmaking.Service,
	chatSvc *chat.Service, billingSvc *billing.Service, profileSvc *profile.Service) *Dispatcher {
	return &Dispatcher{
		appCtx:     appCtx,
		tg:         tg,
		match:      match,
		chat:       chatSvc,
		billing:    billingSvc,
		profile:    profileSvc,
		moderation: repository.NewModerationRepository(appCtx.DB, appCtx.Config.Moderation.ReportBanThreshold),
	}
}

// HandleUpdate processes one raw webhook body. It never returns an
// error: the webhook must always be acknowledged with 200, otherwise
// Telegram redelivers the update in a loop.
func (d *Dispatcher) HandleUpdate(ctx context.Context, raw []byte) {
	ev, err := ParseUpdate(raw)
	if err != nil {
		d.appCtx.Logger.Warn("unparseable update dropped", "err", err)
		return
	}
	if ev == nil {
		return
	}
	m := ev.meta()

	// Payment callbacks are settled before the ban gate: money already
	// in flight must be answered or credited even for a banned account.
	switch e := ev.(type) {
	case PreCheckoutEvent:
		d.onPreCheckout(ctx, e)
		return
	case PaymentConfirmedEvent:
		d.onPaymentConfirmed(ctx, e)
		return
	}

	// Ack the callback before any gating so the client spinner never
	// hangs on a rejected press.
	if m.CallbackID != "" {
		if err := d.tg.AnswerCallbackQuery(ctx, m.CallbackID); err != nil {
			d.appCtx.Logger.Warn("answer callback failed", "err", err)
		}
	}

	banned, err := d.moderation.IsBanned(ctx, m.UserID)
	if err != nil {
		d.appCtx.Logger.Error("ban check failed", "user_id", m.UserID, "err", err)
		d.send(ctx, m.ChatID, msgUnavailable, nil)
		return
	}
	if banned {
		d.send(ctx, m.ChatID, msgBanned, telegram.ReplyKeyboardRemove{RemoveKeyboard: true})
		return
	}

	switch e := ev.(type) {
	case StartEvent:
		d.onStart(ctx, e)
	case AcceptTermsEvent:
		d.onAcceptTerms(ctx, e)
	case GenderEvent:
		d.onGender(ctx, e)
	case LocationEvent:
		d.onLocation(ctx, e)
	case TextEvent:
		d.onText(ctx, e)
	case StartSearchEvent:
		d.onStartSearch(ctx, e)
	case CancelSearchEvent:
		d.onCancelSearch(ctx, e)
	case ShareUsernameEvent:
		d.onShareUsername(ctx, e)
	case LeaveSessionEvent:
		d.onLeave(ctx, e)
	case ReportMenuEvent:
		d.send(ctx, e.ChatID, "Why are you reporting this user? Reporting ends the chat.", reportKeyboard())
	case ReportEvent:
		d.onReport(ctx, e)
	case CancelReportEvent:
		d.send(ctx, e.ChatID, "Report cancelled. You are still in the chat.", chatKeyboard())
	case ShowBalanceEvent:
		d.onShowBalance(ctx, e)
	case StartPaymentEvent:
		d.onStartPayment(ctx, e)
	case EditProfileEvent:
		d.send(ctx, e.ChatID, "What would you like to update?", editProfileKeyboard())
	case BeginEditEvent:
		d.onBeginEdit(ctx, e)
	case BackToMenuEvent:
		d.send(ctx, e.ChatID, "What would you like to do?", mainMenuKeyboard())
	default:
		d.appCtx.Logger.Warn("unhandled event", "type", fmt.Sprintf("%T", ev))
	}
}

func (d *Dispatcher) onStart(ctx context.Context, e StartEvent) {
	prompt, err := d.profile.Begin(ctx, e.UserID, e.Username)
	if err != nil {
		d.fail(ctx, e.Meta, err)
		return
	}
	switch prompt {
	case profile.PromptDone:
		d.send(ctx, e.ChatID, "☕ Welcome back! What would you like to do?", mainMenuKeyboard())
	case profile.PromptNeedUsername:
		d.send(ctx, e.ChatID, msgNeedUsername, nil)
	case profile.PromptTerms:
		d.send(ctx, e.ChatID, msgTerms, termsKeyboard())
	}
}

func (d *Dispatcher) onAcceptTerms(ctx context.Context, e AcceptTermsEvent) {
	prompt, err := d.profile.AcceptTerms(ctx, e.UserID)
	if errors.Is(err, apperr.ErrInvalidInput) {
		// Stale button press, e.g. after registration finished.
		return
	}
	if err != nil {
		d.fail(ctx, e.Meta, err)
		return
	}
	d.sendPrompt(ctx, e.ChatID, prompt)
}

func (d *Dispatcher) onGender(ctx context.Context, e GenderEvent) {
	prompt, err := d.profile.SetGender(ctx, e.UserID, e.Gender)
	if errors.Is(err, apperr.ErrInvalidInput) {
		return
	}
	if err != nil {
		d.fail(ctx, e.Meta, err)
		return
	}
	d.sendPrompt(ctx, e.ChatID, prompt)
}

func (d *Dispatcher) onLocation(ctx context.Context, e LocationEvent) {
	out, err := d.profile.HandleLocation(ctx, e.UserID, e.Username, e.Latitude, e.Longitude)
	switch {
	case errors.Is(err, apperr.ErrInvalidInput):
		return
	case errors.Is(err, apperr.ErrNoUsername):
		d.send(ctx, e.ChatID, msgNeedUsername, nil)
		return
	case err != nil:
		d.fail(ctx, e.Meta, err)
		return
	}

	if out.Completed {
		text := fmt.Sprintf(
			"🎉 You're all set, %s! You have %d free searches to get started.\n\nTap %s when you're ready to meet someone.",
			out.User.FirstName, out.InitialCredits, btnFindMatch)
		d.send(ctx, e.ChatID, text, mainMenuKeyboard())
		return
	}
	d.send(ctx, e.ChatID, "📍 Location updated.", mainMenuKeyboard())
}

// onText resolves the three meanings of free text: a pending
// conversation answer, a chat message, or noise outside both.
func (d *Dispatcher) onText(ctx context.Context, e TextEvent) {
	state, err := d.profile.State(ctx, e.UserID)
	if err != nil {
		d.fail(ctx, e.Meta, err)
		return
	}

	switch state {
	case profile.StateRegFirstName, profile.StateRegLastName, profile.StateRegAge,
		profile.StateEditFirstName, profile.StateEditLastName, profile.StateEditAge:
		out, err := d.profile.HandleText(ctx, e.UserID, e.Text)
		if err != nil {
			d.fail(ctx, e.Meta, err)
			return
		}
		switch {
		case out.Invalid != "":
			d.send(ctx, e.ChatID, out.Invalid, nil)
		case out.EditedField != "":
			d.send(ctx, e.ChatID, "✅ Profile updated.", mainMenuKeyboard())
		default:
			d.sendPrompt(ctx, e.ChatID, out.Next)
		}
		return

	case profile.StateRegTerms:
		d.send(ctx, e.ChatID, msgTerms, termsKeyboard())
		return
	case profile.StateRegGender:
		d.sendPrompt(ctx, e.ChatID, profile.PromptGender)
		return
	case profile.StateRegLocation, profile.StateEditLocation:
		d.sendPrompt(ctx, e.ChatID, profile.PromptLocation)
		return
	}

	res, err := d.chat.Relay(ctx, e.UserID, e.Text)
	switch {
	case errors.Is(err, apperr.ErrNoActiveSession):
		d.send(ctx, e.ChatID, "You're not in a chat right now. Tap "+btnFindMatch+" to find someone!", mainMenuKeyboard())
	case errors.Is(err, apperr.ErrEmptyMessage):
		// Nothing left after sanitizing; drop silently.
	case err != nil:
		d.fail(ctx, e.Meta, err)
	default:
		d.send(ctx, res.To, "💬 "+res.Text, chatKeyboard())
	}
}

func (d *Dispatcher) onStartSearch(ctx context.Context, e StartSearchEvent) {
	out, err := d.match.StartSearch(ctx, e.UserID)
	if err != nil {
		d.fail(ctx, e.Meta, err)
		return
	}

	if out.Match == nil {
		text := fmt.Sprintf("🔍 Searching for your coffee friend... (%d searches left)\n\nI'll message you the moment someone matches!", out.Balance)
		d.send(ctx, e.ChatID, text, searchingKeyboard())
		return
	}

	const matched = "☕ It's a match! You're now chatting anonymously.\n\n" +
		"Everything you type here goes to your match. Share your username whenever you feel comfortable."
	d.send(ctx, e.ChatID, matched, chatKeyboard())
	d.send(ctx, out.Match.PartnerID, matched, chatKeyboard())
}

func (d *Dispatcher) onCancelSearch(ctx context.Context, e CancelSearchEvent) {
	err := d.match.CancelSearch(ctx, e.UserID)
	if errors.Is(err, apperr.ErrNotSearching) {
		d.send(ctx, e.ChatID, "You're not searching right now.", mainMenuKeyboard())
		return
	}
	if err != nil {
		d.fail(ctx, e.Meta, err)
		return
	}
	d.send(ctx, e.ChatID, "Search cancelled.", mainMenuKeyboard())
}

func (d *Dispatcher) onShareUsername(ctx context.Context, e ShareUsernameEvent) {
	res, err := d.chat.ShareUsername(ctx, e.UserID)
	if err != nil {
		d.fail(ctx, e.Meta, err)
		return
	}
	d.send(ctx, res.To, fmt.Sprintf("🎁 Your match shared their username: @%s", res.Username), chatKeyboard())
	d.send(ctx, e.ChatID, "✅ Your username has been shared with your match.", chatKeyboard())
}

func (d *Dispatcher) onLeave(ctx context.Context, e LeaveSessionEvent) {
	res, err := d.chat.Leave(ctx, e.UserID)
	if err != nil {
		d.fail(ctx, e.Meta, err)
		return
	}
	d.send(ctx, e.ChatID, "👋 You left the chat. See you at the next match!", mainMenuKeyboard())
	d.send(ctx, res.To, "Your match has left the chat.", mainMenuKeyboard())
}

func (d *Dispatcher) onReport(ctx context.Context, e ReportEvent) {
	out, err := d.chat.Report(ctx, e.UserID, e.Category, "")
	if err != nil {
		d.fail(ctx, e.Meta, err)
		return
	}
	d.send(ctx, e.ChatID, "🙏 Thank you. The report has been filed and the chat is closed.", mainMenuKeyboard())
	// The counterpart learns the chat ended, never that they were reported.
	d.send(ctx, out.To, "Your match has left the chat.", mainMenuKeyboard())
}

func (d *Dispatcher) onShowBalance(ctx context.Context, e ShowBalanceEvent) {
	balance, err := d.billing.Balance(ctx, e.UserID)
	if err != nil {
		d.fail(ctx, e.Meta, err)
		return
	}
	d.send(ctx, e.ChatID, fmt.Sprintf("☕ You have %d searches left.", balance), buyKeyboard())
}

func (d *Dispatcher) onStartPayment(ctx context.Context, e StartPaymentEvent) {
	cfg := d.appCtx.Config.Billing
	payload := d.billing.InvoicePayload(e.UserID)
	err := d.tg.SendInvoice(ctx, e.ChatID,
		"Search Package",
		fmt.Sprintf("%d match searches", cfg.PackSearches),
		payload,
		cfg.Currency,
		[]telegram.LabeledPrice{{Label: fmt.Sprintf("%d searches", cfg.PackSearches), Amount: cfg.PackStars}},
	)
	if err != nil {
		d.appCtx.Logger.Error("send invoice failed", "user_id", e.UserID, "err", err)
		d.send(ctx, e.ChatID, msgUnavailable, nil)
	}
}

func (d *Dispatcher) onPreCheckout(ctx context.Context, e PreCheckoutEvent) {
	ok, reason := d.billing.Preauthorize(billing.CheckoutRequest{
		Payload:   e.Payload,
		Currency:  e.Currency,
		Amount:    e.Amount,
		Requester: e.UserID,
	})
	if err := d.tg.AnswerPreCheckoutQuery(ctx, e.QueryID, ok, reason); err != nil {
		d.appCtx.Logger.Error("answer pre-checkout failed", "user_id", e.UserID, "err", err)
	}
}

func (d *Dispatcher) onPaymentConfirmed(ctx context.Context, e PaymentConfirmedEvent) {
	res, err := d.billing.Confirm(ctx, e.ChargeID, billing.CheckoutRequest{
		Payload:   e.Payload,
		Currency:  e.Currency,
		Amount:    e.Amount,
		Requester: e.UserID,
	})
	if err != nil {
		// Money was taken; this needs an operator, not a retry loop.
		d.appCtx.Logger.Error("payment confirmation failed",
			"user_id", e.UserID, "charge_id", e.ChargeID, "err", err)
		d.send(ctx, e.ChatID, "⚠️ We received your payment but could not credit it automatically. Support has been notified.", nil)
		return
	}
	if res.Duplicate {
		d.send(ctx, e.ChatID, fmt.Sprintf("This payment was already credited. You have %d searches.", res.NewBalance), mainMenuKeyboard())
		return
	}
	d.send(ctx, e.ChatID,
		fmt.Sprintf("🎉 Payment received! %d searches added. You now have %d searches.", res.Added, res.NewBalance),
		mainMenuKeyboard())
}

func (d *Dispatcher) onBeginEdit(ctx context.Context, e BeginEditEvent) {
	prompt, err := d.profile.BeginEdit(ctx, e.UserID, e.Field)
	if errors.Is(err, apperr.ErrInvalidInput) {
		return
	}
	if err != nil {
		d.fail(ctx, e.Meta, err)
		return
	}
	d.sendPrompt(ctx, e.ChatID, prompt)
}

func (d *Dispatcher) sendPrompt(ctx context.Context, chatID int64, prompt profile.Prompt) {
	switch prompt {
	case profile.PromptFirstName:
		d.send(ctx, chatID, "What's your first name?", telegram.ReplyKeyboardRemove{RemoveKeyboard: true})
	case profile.PromptLastName:
		d.send(ctx, chatID, "And your last name?", nil)
	case profile.PromptAge:
		d.send(ctx, chatID, "How old are you?", nil)
	case profile.PromptGender:
		d.send(ctx, chatID, "What's your gender?", genderKeyboard())
	case profile.PromptLocation:
		d.send(ctx, chatID, "📍 Share your location so we can find matches near you.", locationKeyboard())
	}
}

// fail maps a service error to a user-facing reply. The full error goes
// to the log; the user sees only the mapped message.
func (d *Dispatcher) fail(ctx context.Context, m Meta, err error) {
	d.appCtx.Logger.Error("handler failed", "user_id", m.UserID, "err", err)
	d.send(ctx, m.ChatID, apperr.UserMessage(err), nil)
}

func (d *Dispatcher) send(ctx context.Context, chatID int64, text string, markup any) {
	if err := d.tg.SendMessage(ctx, chatID, text, markup); err != nil {
		d.appCtx.Logger.Warn("send failed", "chat_id", chatID, "err", err)
	}
}
