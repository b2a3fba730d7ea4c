package command

import (
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/m3rciful/maxbot/core/bot/format"
)

// Forecast is a canned weather entry.
type Forecast struct {
	City      string
	Temp      int
	Condition string
	Emoji     string
}

// forecasts is ordered for the "available cities" list.
var forecasts = []Forecast{
	{"Москва", -5, "snow", "❄️"},
	{"СПб", -8, "cloudy", "☁️"},
	{"Казань", -10, "clear", "☀️"},
	{"Екатеринбург", -15, "snow", "❄️"},
	{"Новосибирск", -20, "frosty", "🥶"},
	{"Сочи", 8, "rainy", "🌧"},
	{"Владивосток", -12, "windy", "💨"},
	{"Краснодар", 2, "overcast", "☁️"},
	{"Ростов", 0, "cloudy", "☁️"},
	{"Самара", -10, "snow", "❄️"},
}

var cityAliases = map[string]string{
	"moscow":           "москва",
	"saint petersburg": "спб",
	"st petersburg":    "спб",
	"spb":              "спб",
	"санкт-петербург":  "спб",
	"kazan":            "казань",
	"yekaterinburg":    "екатеринбург",
	"novosibirsk":      "новосибирск",
	"sochi":            "сочи",
	"vladivostok":      "владивосток",
	"krasnodar":        "краснодар",
	"rostov":           "ростов",
	"samara":           "самара",
}

// LookupForecast finds the forecast for a city name, case-insensitively.
func LookupForecast(name string) (Forecast, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	if alias, ok := cityAliases[key]; ok {
		key = alias
	}
	for _, f := range forecasts {
		if strings.ToLower(f.City) == key {
			return f, true
		}
	}
	return Forecast{}, false
}

// Cities returns the display names of every known city.
func Cities() []string {
	out := make([]string, len(forecasts))
	for i, f := range forecasts {
		out[i] = f.City
	}
	return out
}

// weatherText renders a forecast with randomised wind, humidity and pressure.
func weatherText(city string, f Forecast, intn func(int) int, now time.Time) string {
	wind := 2 + intn(10)
	humidity := 45 + intn(50)
	pressure := 740 + intn(40)
	return fmt.Sprintf("%s *Weather in %s*\n\n"+
		"**🌡 Temperature:** %d°C\n"+
		"**☁️ Conditions:** %s\n"+
		"**💨 Wind:** %d m/s\n"+
		"**💧 Humidity:** %d%%\n"+
		"**📊 Pressure:** %d mmHg\n\n"+
		"🕒 Updated: %s",
		f.Emoji, format.EscapeMarkdown(capitalize(city)), f.Temp, f.Condition, wind, humidity, pressure, now.Format("15:04"))
}

func unknownCityText(city string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "❌ *City '%s' not found*\n\nTry one of the available cities:\n", format.EscapeMarkdown(strings.TrimSpace(city)))
	for _, c := range Cities() {
		b.WriteString("• " + c + "\n")
	}
	b.WriteString("\nOr send /menu to return to the menu.")
	return b.String()
}

func capitalize(s string) string {
	s = strings.TrimSpace(s)
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
