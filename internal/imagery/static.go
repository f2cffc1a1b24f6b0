package imagery

import (
	"fmt"
	"hash/fnv"
	"strings"
)

const staticURLFormat = "https://images.unsplash.com/%s?auto=format&fit=crop&q=80&w=1920"

var countryImages = map[string][]string{
	"united states":  {"photo-1485871981521-5b1fd3805eee", "photo-1501466044931-62695aada8e9", "photo-1495344517868-8ebaf0a2044a"},
	"france":         {"photo-1502602898657-3e91760cbb34", "photo-1499856871958-5b9627545d1a", "photo-1520939817895-060bdaf4fe1b"},
	"italy":          {"photo-1552832230-c0197dd311b5", "photo-1523906834658-6e24ef2386f9", "photo-1534445867742-43195f401b6c"},
	"spain":          {"photo-1539037116277-4db20889f2d4", "photo-1511527661048-7fe73d85e9a4", "photo-1512753360435-329c4535a9a7"},
	"japan":          {"photo-1492571350019-22de08371fd3", "photo-1528360983277-13d401cdc186", "photo-1493976040374-85c8e12f0c0e"},
	"australia":      {"photo-1506973035872-a4ec16b8e8d9", "photo-1523482580672-f109ba8cb9be", "photo-1529108190281-9a4f620bc2d8"},
	"united kingdom": {"photo-1513635269975-59663e0ac1ad", "photo-1486299267070-83823f5448dd", "photo-1488747279002-c8523379faaa"},
	"germany":        {"photo-1467269204594-9661b134dd2b", "photo-1528728329032-2972f65dfb3f", "photo-1534313314376-a72289b6181e"},
	"china":          {"photo-1508804185872-d7badad00f7d", "photo-1474181487882-5abf3f0ba6c2", "photo-1547981609-4b6bfe67ca0b"},
}

var countryAliases = map[string]string{
	"usa":           "united states",
	"us":            "united states",
	"america":       "united states",
	"uk":            "united kingdom",
	"england":       "united kingdom",
	"britain":       "united kingdom",
	"great britain": "united kingdom",
	"deutschland":   "germany",
	"nippon":        "japan",
	"italia":        "italy",
	"españa":        "spain",
	"uae":           "united arab emirates",
}

var defaultImages = []string{
	"photo-1476514525535-07fb3b4ae5f1",
	"photo-1469854523086-cc02fe5d8800",
	"photo-1508672019048-805c876b67e2",
	"photo-1530521954074-e64f6810b32d",
	"photo-1528127269322-539801943592",
}

var regionSearchTerms = map[string]string{
	"africa":        "african landscape culture architecture safari",
	"asia":          "asian architecture temples culture landscape",
	"europe":        "european architecture landmarks cities culture",
	"oceania":       "oceania pacific islands beaches nature",
	"north_america": "north american landmarks cities nature",
	"south_america": "south american landmarks andes culture",
}

var countryRegions = map[string]string{
	"egypt": "africa", "kenya": "africa", "morocco": "africa", "south africa": "africa", "tanzania": "africa",
	"china": "asia", "india": "asia", "indonesia": "asia", "japan": "asia", "south korea": "asia",
	"thailand": "asia", "vietnam": "asia", "united arab emirates": "asia", "singapore": "asia",
	"austria": "europe", "france": "europe", "germany": "europe", "greece": "europe", "italy": "europe",
	"netherlands": "europe", "portugal": "europe", "spain": "europe", "switzerland": "europe",
	"united kingdom": "europe", "ireland": "europe", "croatia": "europe",
	"australia": "oceania", "new zealand": "oceania", "fiji": "oceania",
	"canada": "north_america", "mexico": "north_america", "united states": "north_america",
	"argentina": "south_america", "brazil": "south_america", "chile": "south_america", "peru": "south_america",
	"colombia": "south_america",
}

func normalizeKey(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// canonicalCountry resolves aliases such as "usa" or "uk".
func canonicalCountry(s string) string {
	key := normalizeKey(s)
	if canonical, ok := countryAliases[key]; ok {
		return canonical
	}
	return key
}

func staticURL(id string) string {
	return fmt.Sprintf(staticURLFormat, id)
}

// pick chooses an element of ids deterministically from seed.
func pick(ids []string, seed string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(seed))
	return ids[int(h.Sum32()%uint32(len(ids)))] //nolint:gosec // len is small
}

// CountryImage returns a static image for a known country, or "".
func CountryImage(country, seed string) string {
	ids, ok := countryImages[canonicalCountry(country)]
	if !ok {
		return ""
	}
	return staticURL(pick(ids, seed))
}

// DefaultImage returns one of the generic travel images, chosen from seed.
func DefaultImage(seed string) string {
	return staticURL(pick(defaultImages, seed))
}

// IsStaticImage reports whether url came from the built-in tables rather than
// a photo search.
func IsStaticImage(url string) bool {
	const prefix, suffix = "https://images.unsplash.com/", "?auto=format&fit=crop&q=80&w=1920"
	if !strings.HasPrefix(url, prefix) || !strings.HasSuffix(url, suffix) {
		return false
	}
	id := strings.TrimSuffix(strings.TrimPrefix(url, prefix), suffix)
	for _, ids := range countryImages {
		for _, known := range ids {
			if known == id {
				return true
			}
		}
	}
	for _, known := range defaultImages {
		if known == id {
			return true
		}
	}
	return false
}
