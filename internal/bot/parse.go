package bot

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ebisa/bunamatch/internal/telegram"
)

// Reply-keyboard button labels. These double as the protocol between
// the keyboards we send and the text messages that come back.
const (
	btnFindMatch     = "🔍 Find Match"
	btnMyBalance     = "☕ My Balance"
	btnEditProfile   = "✏️ Edit Profile"
	btnCancelSearch  = "🚫 Cancel Search"
	btnShareUsername = "📤 Share Username"
	btnReport        = "🚨 Report"
	btnLeaveChat     = "👋 Leave Chat"
)

// Callback data values for inline buttons.
const (
	cbAcceptTerms  = "accept_terms"
	cbGenderMale   = "gender_male"
	cbGenderFemale = "gender_female"
	cbBuySearches  = "buy_searches"
	cbCancelReport = "cancel_report"
	cbBackToMenu   = "back_to_menu"

	cbReportPrefix = "report_"
	cbEditPrefix   = "edit_"
)

// ParseUpdate decodes a raw webhook body into an Event. A nil event with
// a nil error means the update carries nothing this bot reacts to.
func ParseUpdate(raw []byte) (Event, error) {
	var u telegram.Update
	if err := json.Unmarshal(raw, &u); err != nil {
		return nil, fmt.Errorf("decode update: %w", err)
	}

	switch {
	case u.PreCheckoutQuery != nil:
		q := u.PreCheckoutQuery
		return PreCheckoutEvent{
			Meta:     Meta{UserID: q.From.ID, ChatID: q.From.ID, Username: q.From.Username},
			QueryID:  q.ID,
			Payload:  q.InvoicePayload,
			Currency: q.Currency,
			Amount:   q.TotalAmount,
		}, nil

	case u.CallbackQuery != nil:
		return parseCallback(u.CallbackQuery), nil

	case u.Message != nil:
		return parseMessage(u.Message), nil
	}
	return nil, nil
}

func parseMessage(m *telegram.Message) Event {
	if m.From == nil || m.From.IsBot || m.Chat.Type != "private" {
		return nil
	}
	meta := Meta{UserID: m.From.ID, ChatID: m.Chat.ID, Username: m.From.Username}

	if p := m.SuccessfulPayment; p != nil {
		return PaymentConfirmedEvent{
			Meta:     meta,
			ChargeID: p.TelegramPaymentChargeID,
			Payload:  p.InvoicePayload,
			Currency: p.Currency,
			Amount:   p.TotalAmount,
		}
	}
	if m.Location != nil {
		return LocationEvent{Meta: meta, Latitude: m.Location.Latitude, Longitude: m.Location.Longitude}
	}

	text := strings.TrimSpace(m.Text)
	switch text {
	case "":
		return nil
	case "/start":
		return StartEvent{Meta: meta}
	case btnFindMatch:
		return StartSearchEvent{Meta: meta}
	case btnCancelSearch:
		return CancelSearchEvent{Meta: meta}
	case btnMyBalance:
		return ShowBalanceEvent{Meta: meta}
	case btnEditProfile:
		return EditProfileEvent{Meta: meta}
	case btnShareUsername:
		return ShareUsernameEvent{Meta: meta}
	case btnReport:
		return ReportMenuEvent{Meta: meta}
	case btnLeaveChat:
		return LeaveSessionEvent{Meta: meta}
	}
	return TextEvent{Meta: meta, Text: text}
}

func parseCallback(q *telegram.CallbackQuery) Event {
	chatID := q.From.ID
	if q.Message != nil {
		chatID = q.Message.Chat.ID
	}
	meta := Meta{UserID: q.From.ID, ChatID: chatID, Username: q.From.Username, CallbackID: q.ID}

	switch data := q.Data; {
	case data == cbAcceptTerms:
		return AcceptTermsEvent{Meta: meta}
	case data == cbGenderMale:
		return GenderEvent{Meta: meta, Gender: "male"}
	case data == cbGenderFemale:
		return GenderEvent{Meta: meta, Gender: "female"}
	case data == cbBuySearches:
		return StartPaymentEvent{Meta: meta}
	case data == cbCancelReport:
		return CancelReportEvent{Meta: meta}
	case data == cbBackToMenu:
		return BackToMenuEvent{Meta: meta}
	case strings.HasPrefix(data, cbReportPrefix):
		return ReportEvent{Meta: meta, Category: strings.TrimPrefix(data, cbReportPrefix)}
	case strings.HasPrefix(data, cbEditPrefix):
		return BeginEditEvent{Meta: meta, Field: strings.TrimPrefix(data, cbEditPrefix)}
	}
	return nil
}
