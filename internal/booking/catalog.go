package booking

import (
	"fmt"
	"strings"
)

// cityOrder preserves directory definition order for deterministic matching.
var cityOrder = []string{
	"riyadh", "jeddah", "dammam", "makkah", "medina", "taif", "abha",
	"tabuk", "jazan", "hail", "al-ahsa", "khamis-mushait",
}

// serviceCenters maps lower-cased city name to its service centers.
var serviceCenters = map[string][]ServiceCenter{
	"riyadh": {
		{Name: "Lucid Service Center - Riyadh Downtown", City: "Riyadh", Address: "King Fahd Road, Riyadh 12345", Phone: "+966-11-123-4567"},
		{Name: "Lucid Service Center - Riyadh North", City: "Riyadh", Address: "Olaya Street, Riyadh 12346", Phone: "+966-11-123-4568"},
		{Name: "Lucid Service Center - Riyadh East", City: "Riyadh", Address: "King Abdullah Road, Riyadh 12347", Phone: "+966-11-123-4569"},
	},
	"jeddah": {
		{Name: "Lucid Service Center - Jeddah", City: "Jeddah", Address: "Tahlia Street, Jeddah 21414", Phone: "+966-12-234-5678"},
		{Name: "Lucid Service Center - Jeddah North", City: "Jeddah", Address: "King Abdulaziz Road, Jeddah 21415", Phone: "+966-12-234-5679"},
	},
	"dammam": {
		{Name: "Lucid Service Center - Dammam", City: "Dammam", Address: "King Saud Road, Dammam 31411", Phone: "+966-13-345-6789"},
		{Name: "Lucid Service Center - Dammam West", City: "Dammam", Address: "King Fahd Road, Dammam 31412", Phone: "+966-13-345-6790"},
	},
	"makkah": {
		{Name: "Lucid Service Center - Makkah", City: "Makkah", Address: "King Abdulaziz Road, Makkah 21955", Phone: "+966-12-345-6789"},
	},
	"medina": {
		{Name: "Lucid Service Center - Medina", City: "Medina", Address: "King Fahd Road, Medina 42351", Phone: "+966-14-456-7890"},
	},
	"taif": {
		{Name: "Lucid Service Center - Taif", City: "Taif", Address: "King Khalid Road, Taif 21944", Phone: "+966-12-567-8901"},
	},
	"abha": {
		{Name: "Lucid Service Center - Abha", City: "Abha", Address: "King Faisal Road, Abha 61321", Phone: "+966-17-678-9012"},
	},
	"tabuk": {
		{Name: "Lucid Service Center - Tabuk", City: "Tabuk", Address: "King Abdulaziz Road, Tabuk 71491", Phone: "+966-14-789-0123"},
	},
	"jazan": {
		{Name: "Lucid Service Center - Jazan", City: "Jazan", Address: "King Fahd Road, Jazan 45142", Phone: "+966-17-890-1234"},
	},
	"hail": {
		{Name: "Lucid Service Center - Hail", City: "Hail", Address: "King Khalid Road, Hail 81451", Phone: "+966-16-901-2345"},
	},
	"al-ahsa": {
		{Name: "Lucid Service Center - Al-Ahsa", City: "Al-Ahsa", Address: "King Fahd Road, Al-Ahsa 31982", Phone: "+966-13-012-3456"},
	},
	"khamis-mushait": {
		{Name: "Lucid Service Center - Khamis Mushait", City: "Khamis Mushait", Address: "King Abdullah Road, Khamis Mushait 61961", Phone: "+966-17-123-4567"},
	},
}

// AvailableTimeSlots is the static slot catalog. In a real system this would
// be computed from inventory.
var AvailableTimeSlots = []TimeSlot{
	{Time: "10 AM", Date: "July 17th", Available: true},
	{Time: "11 AM", Date: "July 17th", Available: true},
	{Time: "2 PM", Date: "July 17th", Available: true},
	{Time: "3 PM", Date: "July 17th", Available: true},
	{Time: "10 AM", Date: "July 18th", Available: true},
	{Time: "1 PM", Date: "July 18th", Available: true},
	{Time: "4 PM", Date: "July 18th", Available: true},
}

// CentersByCity returns the service centers for a city (case-insensitive).
func CentersByCity(city string) []ServiceCenter {
	return serviceCenters[strings.ToLower(city)]
}

// KnownCities lists the title-cased city names served by the directory.
func KnownCities() []string {
	seen := make(map[string]bool)
	var cities []string
	for _, key := range cityOrder {
		for _, center := range serviceCenters[key] {
			if !seen[center.City] {
				seen[center.City] = true
				cities = append(cities, center.City)
			}
		}
	}
	return cities
}

// CanonicalCity resolves a free-form city mention to the directory's
// title-cased name. Exact key matches resolve first; otherwise the mention is
// scanned for a directory city so display names ("Khamis Mushait") and
// decorated mentions ("Riyadh city") resolve too. Cities absent from the
// directory do not resolve.
func CanonicalCity(city string) (string, bool) {
	key := strings.ToLower(strings.TrimSpace(city))
	if centers, ok := serviceCenters[key]; ok && len(centers) > 0 {
		return centers[0].City, true
	}
	if found := FindCityInText(city); found != "" {
		return found, true
	}
	return "", false
}

// FindCityInText extracts the first directory city mentioned in the text
// using case-insensitive substring containment, in definition order. Both the
// directory key and the display name are matched; they differ for
// "khamis-mushait" / "Khamis Mushait".
func FindCityInText(text string) string {
	lower := strings.ToLower(text)
	for _, key := range cityOrder {
		if strings.Contains(lower, key) || strings.Contains(lower, strings.ToLower(serviceCenters[key][0].City)) {
			return serviceCenters[key][0].City
		}
	}
	return ""
}

// FormatAvailableSlots renders the first few catalog slots grouped by date,
// e.g. "July 17th: 10 AM, 11 AM; July 18th: 10 AM".
func FormatAvailableSlots() string {
	slotsByDate := make(map[string][]string)
	var dateOrder []string
	for _, slot := range AvailableTimeSlots[:3] {
		if _, ok := slotsByDate[slot.Date]; !ok {
			dateOrder = append(dateOrder, slot.Date)
		}
		slotsByDate[slot.Date] = append(slotsByDate[slot.Date], slot.Time)
	}

	formatted := make([]string, 0, len(dateOrder))
	for _, date := range dateOrder {
		formatted = append(formatted, fmt.Sprintf("%s: %s", date, strings.Join(slotsByDate[date], ", ")))
	}
	return strings.Join(formatted, "; ")
}

// FormatCentersForCity renders the center list for prompt interpolation.
func FormatCentersForCity(city string) string {
	if city == "" {
		return "No city selected yet."
	}
	centers := CentersByCity(city)
	if len(centers) == 0 {
		return fmt.Sprintf("No service centers available in %s.", city)
	}
	lines := make([]string, 0, len(centers))
	for _, center := range centers {
		lines = append(lines, fmt.Sprintf("- %s: %s", center.Name, center.Address))
	}
	return strings.Join(lines, "\n")
}

// SortedCityKeys returns the lower-cased directory keys in definition order.
// Exposed for tests that assert matching precedence.
func SortedCityKeys() []string {
	keys := make([]string, len(cityOrder))
	copy(keys, cityOrder)
	return keys
}

func init() {
	// The order slice and the map must stay in lockstep.
	if len(cityOrder) != len(serviceCenters) {
		panic("booking: cityOrder out of sync with serviceCenters")
	}
	for _, key := range cityOrder {
		if _, ok := serviceCenters[key]; !ok {
			panic("booking: cityOrder references unknown city " + key)
		}
	}
}
