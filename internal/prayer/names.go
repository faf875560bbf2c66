package prayer

// Supported display languages.
const (
	LangEnglish = "en"
	LangTurkish = "tr"
)

var turkishNames = map[Name]string{
	Fajr:    "İmsak",
	Sunrise: "Güneş",
	Dhuhr:   "Öğle",
	Asr:     "İkindi",
	Maghrib: "Akşam",
	Isha:    "Yatsı",
}

var shortNames = map[Name]string{
	Fajr:    "F",
	Sunrise: "S",
	Dhuhr:   "D",
	Asr:     "A",
	Maghrib: "M",
	Isha:    "I",
}

// DisplayName returns the name of n in lang. Unknown languages fall back to
// the English (API) spelling.
func DisplayName(n Name, lang string) string {
	if lang == LangTurkish {
		if s, ok := turkishNames[n]; ok {
			return s
		}
	}
	return string(n)
}

// ShortName maps a prayer name to a one-letter abbreviation.
func ShortName(n Name) string {
	if s, ok := shortNames[n]; ok {
		return s
	}
	return string(n)
}
