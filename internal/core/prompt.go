package core

const (
	LangEnglish   = "english"
	LangMalayalam = "malayalam"
)

const personaPrompt = "You are an AI farming assistant for Kerala farmers. " +
	"Provide helpful, practical farming advice in simple language. "

// Context fragments keyed by page identifier. An unrecognized page falls
// back to the persona alone.
var contextPrompts = map[string]string{
	"weather":          "Focus on weather-related farming advice and next action recommendations based on current conditions.",
	"crop-recommender": "Help with crop selection and farming planning advice based on season, soil, and local conditions.",
	"farm-diary":       "Assist with recording farming activities, scheduling tasks, and providing reminders.",
	"pest-disease":     "Provide pest and disease identification, prevention, and control advice.",
	"fertilizer":       "Give fertilizer application and soil health advice.",
	"virtual-farm":     "Describe virtual farm progress and provide farming guidance.",
	"modern-farming":   "Provide modern farming techniques and technology recommendations.",
}

const malayalamInstruction = "Reply in Malayalam. "

// BuildSystemPrompt assembles persona + page context fragment + language
// instruction.
func BuildSystemPrompt(pageContext, language string) string {
	prompt := personaPrompt
	if fragment, ok := contextPrompts[pageContext]; ok {
		prompt += fragment + " "
	}
	if language == LangMalayalam {
		prompt += malayalamInstruction
	}
	return prompt
}

// Fixed apology appended to history when generation fails. Localized so the
// conversation keeps flowing in the farmer's language.
var apologyMessages = map[string]string{
	LangEnglish:   "I'm sorry, I encountered an error while processing your request. Please try again.",
	LangMalayalam: "ക്ഷമിക്കണം, നിങ്ങളുടെ അഭ്യർത്ഥന പ്രോസസ്സ് ചെയ്യുന്നതിൽ ഒരു പിശക് സംഭവിച്ചു. ദയവായി വീണ്ടും ശ്രമിക്കുക.",
}

// ApologyMessage returns the fixed localized apology for the language,
// defaulting to English.
func ApologyMessage(language string) string {
	if msg, ok := apologyMessages[language]; ok {
		return msg
	}
	return apologyMessages[LangEnglish]
}

// NoSpeechMessages are the localized "no speech" notices shown when a
// recording contains only silence. History is left untouched in that case.
var NoSpeechMessages = map[string]string{
	LangEnglish:   "I couldn't hear anything. Please try speaking again.",
	LangMalayalam: "ഒന്നും കേൾക്കാൻ കഴിഞ്ഞില്ല. ദയവായി വീണ്ടും സംസാരിക്കുക.",
}

// NoSpeechMessage returns the localized no-speech notice.
func NoSpeechMessage(language string) string {
	if msg, ok := NoSpeechMessages[language]; ok {
		return msg
	}
	return NoSpeechMessages[LangEnglish]
}
