// Package reply holds the localized reply template catalog.
package reply

import (
	"strings"

	"github.com/sehatlabs/sehat/internal/domain"
)

// TemplateID names one reply text in the catalog.
type TemplateID string

const (
	TplWelcome          TemplateID = "welcome"
	TplLanguageSelect   TemplateID = "language_select"
	TplLanguageInvalid  TemplateID = "language_invalid"
	TplAskAge           TemplateID = "ask_age"
	TplAgeInvalid       TemplateID = "age_invalid"
	TplAskName          TemplateID = "ask_name"
	TplNameInvalid      TemplateID = "name_invalid"
	TplRegistrationDone TemplateID = "registration_done"

	TplMainMenu     TemplateID = "main_menu"
	TplGenericError TemplateID = "generic_error"
	TplResetDone    TemplateID = "reset_done"

	TplMedAskName       TemplateID = "med_ask_name"
	TplMedAskDosage     TemplateID = "med_ask_dosage"
	TplMedAskSchedule   TemplateID = "med_ask_schedule"
	TplMedSaved         TemplateID = "med_saved"
	TplMedFieldRequired TemplateID = "med_field_required"
	TplMedList          TemplateID = "med_list"
	TplMedListEmpty     TemplateID = "med_list_empty"
	TplMedDeletePick    TemplateID = "med_delete_pick"
	TplMedDeleted       TemplateID = "med_deleted"
	TplMedPickInvalid   TemplateID = "med_pick_invalid"

	TplHealthAsk   TemplateID = "health_ask"
	TplHealthSaved TemplateID = "health_saved"
	TplDoseTaken   TemplateID = "dose_taken"

	TplInteractionsNone     TemplateID = "interactions_none"
	TplInteractionsFallback TemplateID = "interactions_fallback"
	TplRecommendFallback    TemplateID = "recommend_fallback"

	TplProxyPrefix   TemplateID = "proxy_prefix"
	TplProxyNotFound TemplateID = "proxy_not_found"
)

// catalog maps template id -> language -> text. Placeholders use {name}
// syntax and are substituted by Render.
var catalog = map[TemplateID]map[domain.Language]string{
	TplWelcome: {
		domain.LangEN: "Welcome to Sehat Saathi! I will help you manage your medications over chat. Let's get you set up.",
		domain.LangHI: "सेहत साथी में आपका स्वागत है! मैं चैट पर आपकी दवाइयों का ध्यान रखने में मदद करूँगा। चलिए शुरू करते हैं।",
	},
	TplLanguageSelect: {
		domain.LangEN: "Which language would you like to use?\n1. English\n2. Hindi\nReply with 1 or 2.",
		domain.LangHI: "आप कौन सी भाषा चुनना चाहेंगे?\n1. English\n2. हिंदी\n1 या 2 भेजें।",
	},
	TplLanguageInvalid: {
		domain.LangEN: "Sorry, I did not understand. Please reply 1 for English or 2 for Hindi.",
		domain.LangHI: "माफ़ कीजिए, समझ नहीं आया। English के लिए 1 या हिंदी के लिए 2 भेजें।",
	},
	TplAskAge: {
		domain.LangEN: "Thank you! How old are you? Please reply with a number.",
		domain.LangHI: "धन्यवाद! आपकी उम्र क्या है? कृपया एक संख्या भेजें।",
	},
	TplAgeInvalid: {
		domain.LangEN: "Please send your age as a number between 1 and 120.",
		domain.LangHI: "कृपया अपनी उम्र 1 से 120 के बीच की संख्या में भेजें।",
	},
	TplAskName: {
		domain.LangEN: "And what is your name?",
		domain.LangHI: "और आपका नाम क्या है?",
	},
	TplNameInvalid: {
		domain.LangEN: "Please send me your name so I know what to call you.",
		domain.LangHI: "कृपया अपना नाम भेजें ताकि मैं आपको उसी नाम से बुला सकूँ।",
	},
	TplRegistrationDone: {
		domain.LangEN: "You are all set, {name}! Type help any time to see what I can do.",
		domain.LangHI: "सब तैयार है, {name}! किसी भी समय help लिखकर देखें कि मैं क्या कर सकता हूँ।",
	},
	TplMainMenu: {
		domain.LangEN: "Here is what I can do:\n1. Add medication\n2. List medications\n3. Delete a medication\n4. Check interactions\n5. Health advice\n6. Log a health reading\nYou can also send \"taken\" after taking a dose, or \"reset\" to start over.",
		domain.LangHI: "मैं यह कर सकता हूँ:\n1. दवा जोड़ें\n2. दवाइयों की सूची\n3. दवा हटाएँ\n4. दवाओं का मेल जाँचें\n5. सेहत की सलाह\n6. सेहत की रीडिंग दर्ज करें\nदवा लेने के बाद \"taken\" भेजें, या फिर से शुरू करने के लिए \"reset\" भेजें।",
	},
	TplGenericError: {
		domain.LangEN: "Sorry, something went wrong on my side. Please try again, or type help to see the menu.",
		domain.LangHI: "माफ़ कीजिए, मेरी तरफ से कुछ गड़बड़ हो गई। कृपया फिर से कोशिश करें, या help लिखें।",
	},
	TplResetDone: {
		domain.LangEN: "Okay, I have cleared our conversation. Send any message to start again.",
		domain.LangHI: "ठीक है, मैंने हमारी बातचीत साफ़ कर दी है। फिर से शुरू करने के लिए कोई भी संदेश भेजें।",
	},
	TplMedAskName: {
		domain.LangEN: "What is the name of the medication?",
		domain.LangHI: "दवा का नाम क्या है?",
	},
	TplMedAskDosage: {
		domain.LangEN: "What is the dosage for {name}? For example: 500mg.",
		domain.LangHI: "{name} की खुराक क्या है? जैसे: 500mg।",
	},
	TplMedAskSchedule: {
		domain.LangEN: "When do you take it? For example: morning and night.",
		domain.LangHI: "आप इसे कब लेते हैं? जैसे: सुबह और रात।",
	},
	TplMedSaved: {
		domain.LangEN: "Saved: {name}, {dosage}, {schedule}. I have added it to your list.",
		domain.LangHI: "सहेज लिया: {name}, {dosage}, {schedule}. मैंने इसे आपकी सूची में जोड़ दिया है।",
	},
	TplMedFieldRequired: {
		domain.LangEN: "Please send a short answer so I can note it down.",
		domain.LangHI: "कृपया एक छोटा जवाब भेजें ताकि मैं इसे दर्ज कर सकूँ।",
	},
	TplMedList: {
		domain.LangEN: "Your medications:\n{list}",
		domain.LangHI: "आपकी दवाइयाँ:\n{list}",
	},
	TplMedListEmpty: {
		domain.LangEN: "You have no medications saved yet. Send 1 to add one.",
		domain.LangHI: "अभी कोई दवा सहेजी नहीं गई है। जोड़ने के लिए 1 भेजें।",
	},
	TplMedDeletePick: {
		domain.LangEN: "Which one should I remove?\n{list}\nReply with its number.",
		domain.LangHI: "कौन सी हटाऊँ?\n{list}\nउसका नंबर भेजें।",
	},
	TplMedDeleted: {
		domain.LangEN: "Removed {name} from your list.",
		domain.LangHI: "{name} को आपकी सूची से हटा दिया है।",
	},
	TplMedPickInvalid: {
		domain.LangEN: "Please reply with one of the numbers from the list.",
		domain.LangHI: "कृपया सूची में से कोई एक नंबर भेजें।",
	},
	TplHealthAsk: {
		domain.LangEN: "Please send your reading, for example: bp 120/80 or sugar 110.",
		domain.LangHI: "कृपया अपनी रीडिंग भेजें, जैसे: bp 120/80 या sugar 110।",
	},
	TplHealthSaved: {
		domain.LangEN: "Noted: {value}. Thank you for keeping track!",
		domain.LangHI: "दर्ज कर लिया: {value}. ध्यान रखने के लिए धन्यवाद!",
	},
	TplDoseTaken: {
		domain.LangEN: "Well done! I have marked your dose as taken.",
		domain.LangHI: "बहुत अच्छे! मैंने आपकी खुराक ली हुई दर्ज कर दी है।",
	},
	TplInteractionsNone: {
		domain.LangEN: "Good news — I found no known interactions between your medications.",
		domain.LangHI: "अच्छी खबर — आपकी दवाओं के बीच कोई ज्ञात परस्पर प्रभाव नहीं मिला।",
	},
	TplInteractionsFallback: {
		domain.LangEN: "I could not check interactions right now. Please try again in a little while, or ask your pharmacist.",
		domain.LangHI: "अभी दवाओं का मेल जाँच नहीं पाया। थोड़ी देर बाद फिर कोशिश करें, या अपने फार्मासिस्ट से पूछें।",
	},
	TplRecommendFallback: {
		domain.LangEN: "I could not prepare advice right now. Please try again in a little while.",
		domain.LangHI: "अभी सलाह तैयार नहीं कर पाया। थोड़ी देर बाद फिर कोशिश करें।",
	},
	TplProxyPrefix: {
		domain.LangEN: "For {target}: {text}",
		domain.LangHI: "{target} के लिए: {text}",
	},
	TplProxyNotFound: {
		domain.LangEN: "I could not find anyone named {target}. Please check the name and try again.",
		domain.LangHI: "{target} नाम का कोई नहीं मिला। कृपया नाम जाँचकर फिर से भेजें।",
	},
}

// Render returns the text for a template in the requested language,
// substituting {key} placeholders from params. When the language has no
// variant, the English text is used.
func Render(id TemplateID, lang domain.Language, params map[string]string) string {
	variants, ok := catalog[id]
	if !ok {
		return ""
	}

	text, ok := variants[lang]
	if !ok || text == "" {
		text = variants[domain.LangEN]
	}

	if len(params) == 0 {
		return text
	}
	pairs := make([]string, 0, len(params)*2)
	for key, value := range params {
		pairs = append(pairs, "{"+key+"}", value)
	}
	return strings.NewReplacer(pairs...).Replace(text)
}
