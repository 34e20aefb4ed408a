package bot

// Meta is common to every event: who sent it, where to reply, and the
// callback id to acknowledge when the event came from a button press.
type Meta struct {
	UserID     int64
	ChatID     int64
	Username   string
	CallbackID string
}

// Event is one user intent decoded from a webhook update.
type Event interface {
	meta() Meta
}

func (m Meta) meta() Meta { return m }

// StartEvent is /start: show the menu or begin registration.
type StartEvent struct{ Meta }

// AcceptTermsEvent is the terms confirmation button.
type AcceptTermsEvent struct{ Meta }

// GenderEvent picks a gender during registration.
type GenderEvent struct {
	Meta
	Gender string
}

// LocationEvent is a shared position.
type LocationEvent struct {
	Meta
	Latitude  float64
	Longitude float64
}

// StartSearchEvent begins a match search.
type StartSearchEvent struct{ Meta }

// CancelSearchEvent leaves the queue.
type CancelSearchEvent struct{ Meta }

// TextEvent is free text: a registration answer, an edit answer, or a
// chat message depending on the user's current state.
type TextEvent struct {
	Meta
	Text string
}

// ShareUsernameEvent reveals the sender's handle to their match.
type ShareUsernameEvent struct{ Meta }

// LeaveSessionEvent ends the active chat.
type LeaveSessionEvent struct{ Meta }

// ReportMenuEvent opens the report category picker.
type ReportMenuEvent struct{ Meta }

// ReportEvent files a report with a chosen category.
type ReportEvent struct {
	Meta
	Category string
}

// CancelReportEvent dismisses the category picker.
type CancelReportEvent struct{ Meta }

// ShowBalanceEvent asks for the current credit balance.
type ShowBalanceEvent struct{ Meta }

// StartPaymentEvent requests a Stars invoice.
type StartPaymentEvent struct{ Meta }

// PreCheckoutEvent is Telegram asking for payment approval.
type PreCheckoutEvent struct {
	Meta
	QueryID  string
	Payload  string
	Currency string
	Amount   int
}

// PaymentConfirmedEvent is a settled charge.
type PaymentConfirmedEvent struct {
	Meta
	ChargeID string
	Payload  string
	Currency string
	Amount   int
}

// EditProfileEvent opens the edit menu.
type EditProfileEvent struct{ Meta }

// BeginEditEvent starts editing one profile field.
type BeginEditEvent struct {
	Meta
	Field string
}

// BackToMenuEvent returns to the main menu.
type BackToMenuEvent struct{ Meta }
