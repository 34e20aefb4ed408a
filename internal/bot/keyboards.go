package bot

import "github.com/ebisa/bunamatch/internal/telegram"

func mainMenuKeyboard() telegram.ReplyKeyboardMarkup {
	return telegram.ReplyKeyboardMarkup{
		Keyboard: [][]telegram.KeyboardButton{
			{{Text: btnFindMatch}},
			{{Text: btnMyBalance}, {Text: btnEditProfile}},
		},
		ResizeKeyboard: true,
	}
}

func searchingKeyboard() telegram.ReplyKeyboardMarkup {
	return telegram.ReplyKeyboardMarkup{
		Keyboard: [][]telegram.KeyboardButton{
			{{Text: btnCancelSearch}},
		},
		ResizeKeyboard: true,
	}
}

func chatKeyboard() telegram.ReplyKeyboardMarkup {
	return telegram.ReplyKeyboardMarkup{
		Keyboard: [][]telegram.KeyboardButton{
			{{Text: btnShareUsername}},
			{{Text: btnReport}, {Text: btnLeaveChat}},
		},
		ResizeKeyboard: true,
	}
}

func locationKeyboard() telegram.ReplyKeyboardMarkup {
	return telegram.ReplyKeyboardMarkup{
		Keyboard: [][]telegram.KeyboardButton{
			{{Text: "📍 Share Location", RequestLocation: true}},
		},
		ResizeKeyboard:  true,
		OneTimeKeyboard: true,
	}
}

func termsKeyboard() telegram.InlineKeyboardMarkup {
	return telegram.InlineKeyboardMarkup{
		InlineKeyboard: [][]telegram.InlineKeyboardButton{
			{{Text: "✅ I Accept", CallbackData: cbAcceptTerms}},
		},
	}
}

func genderKeyboard() telegram.InlineKeyboardMarkup {
	return telegram.InlineKeyboardMarkup{
		InlineKeyboard: [][]telegram.InlineKeyboardButton{
			{
				{Text: "👨 Male", CallbackData: cbGenderMale},
				{Text: "👩 Female", CallbackData: cbGenderFemale},
			},
		},
	}
}

func reportKeyboard() telegram.InlineKeyboardMarkup {
	return telegram.InlineKeyboardMarkup{
		InlineKeyboard: [][]telegram.InlineKeyboardButton{
			{{Text: "Underage user", CallbackData: cbReportPrefix + "underage"}},
			{{Text: "Fake identity", CallbackData: cbReportPrefix + "false_identity"}},
			{{Text: "Sexual content", CallbackData: cbReportPrefix + "sexual_content"}},
			{{Text: "Harassment", CallbackData: cbReportPrefix + "harassment"}},
			{{Text: "Safety concern", CallbackData: cbReportPrefix + "safety_concern"}},
			{{Text: "Hate speech", CallbackData: cbReportPrefix + "hate_speech"}},
			{{Text: "↩️ Cancel", CallbackData: cbCancelReport}},
		},
	}
}

func buyKeyboard() telegram.InlineKeyboardMarkup {
	return telegram.InlineKeyboardMarkup{
		InlineKeyboard: [][]telegram.InlineKeyboardButton{
			{{Text: "⭐ Buy more searches", CallbackData: cbBuySearches}},
		},
	}
}

func editProfileKeyboard() telegram.InlineKeyboardMarkup {
	return telegram.InlineKeyboardMarkup{
		InlineKeyboard: [][]telegram.InlineKeyboardButton{
			{{Text: "First name", CallbackData: cbEditPrefix + "first_name"}},
			{{Text: "Last name", CallbackData: cbEditPrefix + "last_name"}},
			{{Text: "Age", CallbackData: cbEditPrefix + "age"}},
			{{Text: "Location", CallbackData: cbEditPrefix + "location"}},
			{{Text: "↩️ Back", CallbackData: cbBackToMenu}},
		},
	}
}
