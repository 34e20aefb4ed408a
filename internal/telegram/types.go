package telegram

// Update is one inbound event from the Bot API webhook. Only the fields
// this bot consumes are declared.
type Update struct {
	UpdateID         int64             `json:"update_id"`
	Message          *Message          `json:"message"`
	CallbackQuery    *CallbackQuery    `json:"callback_query"`
	PreCheckoutQuery *PreCheckoutQuery `json:"pre_checkout_query"`
}

// Message is an inbound chat message.
type Message struct {
	MessageID         int64              `json:"message_id"`
	From              *UserRef           `json:"from"`
	Chat              Chat               `json:"chat"`
	Text              string             `json:"text"`
	Location          *Location          `json:"location"`
	SuccessfulPayment *SuccessfulPayment `json:"successful_payment"`
}

// UserRef identifies the Telegram account behind an update.
type UserRef struct {
	ID        int64  `json:"id"`
	IsBot     bool   `json:"is_bot"`
	FirstName string `json:"first_name"`
	Username  string `json:"username"`
}

type Chat struct {
	ID   int64  `json:"id"`
	Type string `json:"type"`
}

type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// SuccessfulPayment arrives after Telegram settles a charge.
type SuccessfulPayment struct {
	Currency                string `json:"currency"`
	TotalAmount             int    `json:"total_amount"`
	InvoicePayload          string `json:"invoice_payload"`
	TelegramPaymentChargeID string `json:"telegram_payment_charge_id"`
	ProviderPaymentChargeID string `json:"provider_payment_charge_id"`
}

// PreCheckoutQuery must be answered within 10 seconds or the payment fails.
type PreCheckoutQuery struct {
	ID             string  `json:"id"`
	From           UserRef `json:"from"`
	Currency       string  `json:"currency"`
	TotalAmount    int     `json:"total_amount"`
	InvoicePayload string  `json:"invoice_payload"`
}

type CallbackQuery struct {
	ID      string   `json:"id"`
	From    UserRef  `json:"from"`
	Message *Message `json:"message"`
	Data    string   `json:"data"`
}

// ReplyKeyboardMarkup is a persistent keyboard under the input field.
type ReplyKeyboardMarkup struct {
	Keyboard        [][]KeyboardButton `json:"keyboard"`
	ResizeKeyboard  bool               `json:"resize_keyboard"`
	OneTimeKeyboard bool               `json:"one_time_keyboard,omitempty"`
}

type KeyboardButton struct {
	Text            string `json:"text"`
	RequestLocation bool   `json:"request_location,omitempty"`
}

// ReplyKeyboardRemove drops the current reply keyboard.
type ReplyKeyboardRemove struct {
	RemoveKeyboard bool `json:"remove_keyboard"`
}

// InlineKeyboardMarkup attaches buttons to a single message.
type InlineKeyboardMarkup struct {
	InlineKeyboard [][]InlineKeyboardButton `json:"inline_keyboard"`
}

type InlineKeyboardButton struct {
	Text         string `json:"text"`
	CallbackData string `json:"callback_data,omitempty"`
	Pay          bool   `json:"pay,omitempty"`
}

// LabeledPrice is one invoice line item. Amount is in the smallest
// currency unit; for XTR that is whole Stars.
type LabeledPrice struct {
	Label  string `json:"label"`
	Amount int    `json:"amount"`
}
