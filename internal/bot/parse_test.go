package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStartCommand(t *testing.T) {
	raw := []byte(`{
		"update_id": 1,
		"message": {
			"message_id": 10,
			"from": {"id": 7, "is_bot": false, "first_name": "Abel", "username": "coffee_lover"},
			"chat": {"id": 7, "type": "private"},
			"text": "/start"
		}
	}`)

	ev, err := ParseUpdate(raw)
	require.NoError(t, err)
	start, ok := ev.(StartEvent)
	require.True(t, ok, "got %T", ev)
	assert.EqualValues(t, 7, start.UserID)
	assert.EqualValues(t, 7, start.ChatID)
	assert.Equal(t, "coffee_lover", start.Username)
}

func TestParseMenuButtons(t *testing.T) {
	tests := []struct {
		text string
		want any
	}{
		{btnFindMatch, StartSearchEvent{}},
		{btnCancelSearch, CancelSearchEvent{}},
		{btnMyBalance, ShowBalanceEvent{}},
		{btnEditProfile, EditProfileEvent{}},
		{btnShareUsername, ShareUsernameEvent{}},
		{btnReport, ReportMenuEvent{}},
		{btnLeaveChat, LeaveSessionEvent{}},
	}
	for _, tc := range tests {
		raw := []byte(`{
			"message": {
				"from": {"id": 7, "username": "u"},
				"chat": {"id": 7, "type": "private"},
				"text": "` + tc.text + `"
			}
		}`)
		ev, err := ParseUpdate(raw)
		require.NoError(t, err)
		assert.IsType(t, tc.want, ev, "button %q", tc.text)
	}
}

func TestParseFreeTextAndLocation(t *testing.T) {
	raw := []byte(`{
		"message": {
			"from": {"id": 7, "username": "u"},
			"chat": {"id": 7, "type": "private"},
			"text": "hello there"
		}
	}`)
	ev, err := ParseUpdate(raw)
	require.NoError(t, err)
	text, ok := ev.(TextEvent)
	require.True(t, ok)
	assert.Equal(t, "hello there", text.Text)

	raw = []byte(`{
		"message": {
			"from": {"id": 7, "username": "u"},
			"chat": {"id": 7, "type": "private"},
			"location": {"latitude": 9.03, "longitude": 38.74}
		}
	}`)
	ev, err = ParseUpdate(raw)
	require.NoError(t, err)
	loc, ok := ev.(LocationEvent)
	require.True(t, ok)
	assert.InDelta(t, 9.03, loc.Latitude, 1e-9)
	assert.InDelta(t, 38.74, loc.Longitude, 1e-9)
}

func TestParseCallbacks(t *testing.T) {
	raw := []byte(`{
		"callback_query": {
			"id": "cb123",
			"from": {"id": 7, "username": "u"},
			"message": {"chat": {"id": 7, "type": "private"}},
			"data": "report_harassment"
		}
	}`)
	ev, err := ParseUpdate(raw)
	require.NoError(t, err)
	report, ok := ev.(ReportEvent)
	require.True(t, ok)
	assert.Equal(t, "harassment", report.Category)
	assert.Equal(t, "cb123", report.CallbackID)

	raw = []byte(`{
		"callback_query": {
			"id": "cb124",
			"from": {"id": 7, "username": "u"},
			"data": "edit_first_name"
		}
	}`)
	ev, err = ParseUpdate(raw)
	require.NoError(t, err)
	edit, ok := ev.(BeginEditEvent)
	require.True(t, ok)
	assert.Equal(t, "first_name", edit.Field)
}

func TestParsePaymentUpdates(t *testing.T) {
	raw := []byte(`{
		"pre_checkout_query": {
			"id": "pcq1",
			"from": {"id": 7, "username": "u"},
			"currency": "XTR",
			"total_amount": 100,
			"invoice_payload": "plan_standard_7_1700000000"
		}
	}`)
	ev, err := ParseUpdate(raw)
	require.NoError(t, err)
	pre, ok := ev.(PreCheckoutEvent)
	require.True(t, ok)
	assert.Equal(t, "pcq1", pre.QueryID)
	assert.Equal(t, 100, pre.Amount)

	raw = []byte(`{
		"message": {
			"from": {"id": 7, "username": "u"},
			"chat": {"id": 7, "type": "private"},
			"successful_payment": {
				"currency": "XTR",
				"total_amount": 100,
				"invoice_payload": "plan_standard_7_1700000000",
				"telegram_payment_charge_id": "X1"
			}
		}
	}`)
	ev, err = ParseUpdate(raw)
	require.NoError(t, err)
	paid, ok := ev.(PaymentConfirmedEvent)
	require.True(t, ok)
	assert.Equal(t, "X1", paid.ChargeID)
	assert.Equal(t, "plan_standard_7_1700000000", paid.Payload)
}

func TestParseIgnoresNoise(t *testing.T) {
	for _, raw := range []string{
		`{"update_id": 1}`,
		`{"message": {"from": {"id": 7, "is_bot": true}, "chat": {"id": 7, "type": "private"}, "text": "hi"}}`,
		`{"message": {"from": {"id": 7}, "chat": {"id": -100, "type": "group"}, "text": "hi"}}`,
		`{"message": {"from": {"id": 7}, "chat": {"id": 7, "type": "private"}}}`,
		`{"callback_query": {"id": "x", "from": {"id": 7}, "data": "bogus"}}`,
	} {
		ev, err := ParseUpdate([]byte(raw))
		require.NoError(t, err)
		assert.Nil(t, ev, "update %s should be ignored", raw)
	}

	_, err := ParseUpdate([]byte(`{not json`))
	assert.Error(t, err)
}
