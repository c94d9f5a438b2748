package domain

// LanguageAuto requests automatic language detection by the model.
const LanguageAuto = "auto"

// LanguageOption is one selectable transcription language.
type LanguageOption struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

var supportedLanguages = []LanguageOption{
	{Code: LanguageAuto, Name: "Auto detect"},
	{Code: "en", Name: "English"},
	{Code: "zh", Name: "Chinese"},
	{Code: "de", Name: "German"},
	{Code: "es", Name: "Spanish"},
	{Code: "ru", Name: "Russian"},
	{Code: "ko", Name: "Korean"},
	{Code: "fr", Name: "French"},
	{Code: "ja", Name: "Japanese"},
	{Code: "pt", Name: "Portuguese"},
	{Code: "tr", Name: "Turkish"},
	{Code: "pl", Name: "Polish"},
	{Code: "ca", Name: "Catalan"},
	{Code: "nl", Name: "Dutch"},
	{Code: "ar", Name: "Arabic"},
	{Code: "sv", Name: "Swedish"},
	{Code: "it", Name: "Italian"},
	{Code: "id", Name: "Indonesian"},
	{Code: "hi", Name: "Hindi"},
	{Code: "fi", Name: "Finnish"},
	{Code: "vi", Name: "Vietnamese"},
	{Code: "he", Name: "Hebrew"},
	{Code: "uk", Name: "Ukrainian"},
	{Code: "el", Name: "Greek"},
	{Code: "ms", Name: "Malay"},
	{Code: "cs", Name: "Czech"},
	{Code: "ro", Name: "Romanian"},
	{Code: "da", Name: "Danish"},
	{Code: "hu", Name: "Hungarian"},
	{Code: "ta", Name: "Tamil"},
	{Code: "no", Name: "Norwegian"},
	{Code: "th", Name: "Thai"},
}

// SupportedLanguages returns the selectable language list, auto first.
func SupportedLanguages() []LanguageOption {
	out := make([]LanguageOption, len(supportedLanguages))
	copy(out, supportedLanguages)
	return out
}

// IsSupportedLanguage reports whether code is auto or a known language.
func IsSupportedLanguage(code string) bool {
	for _, lang := range supportedLanguages {
		if lang.Code == code {
			return true
		}
	}
	return false
}
