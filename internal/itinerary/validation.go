package itinerary

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/wanderplan/wanderplan/internal/textgen"
)

// Model responses are decoded into untyped values, checked with the Is*
// predicates, and only then converted into typed values.

// IsValidRoutingPlan reports whether x has the shape of a routing plan:
// a country, a start location, a numeric totalDays and a non-empty days array
// of valid routing days. Day 1 may carry a null or string travel_from_previous;
// later days must carry a string.
func IsValidRoutingPlan(x any) bool {
	m, ok := x.(map[string]any)
	if !ok {
		return false
	}
	if !isString(m["country"]) || !isString(m["startLocation"]) {
		return false
	}
	if _, ok := m["totalDays"].(float64); !ok {
		return false
	}
	for _, key := range []string{"recommendedSeasons", "languages"} {
		if v, present := m[key]; present && v != nil && !isStringArray(v) {
			return false
		}
	}

	days, ok := m["days"].([]any)
	if !ok || len(days) == 0 {
		return false
	}
	for i, d := range days {
		if !isValidRoutingDay(d, i == 0) {
			return false
		}
	}
	return true
}

func isValidRoutingDay(x any, first bool) bool {
	m, ok := x.(map[string]any)
	if !ok {
		return false
	}
	if !isNonEmptyString(m["main_city"]) || !isNonEmptyString(m["suggested_accommodation"]) {
		return false
	}

	travel, present := m["travel_from_previous"]
	switch {
	case first:
		if present && travel != nil && !isString(travel) {
			return false
		}
	default:
		if !isString(travel) {
			return false
		}
	}

	if w, present := m["weather_info"]; present && w != nil {
		wm, ok := w.(map[string]any)
		if !ok {
			return false
		}
		if t, present := wm["temperature"]; present && t != nil && !isString(t) {
			return false
		}
		if c, present := wm["conditions"]; present && c != nil && !isStringArray(c) {
			return false
		}
	}

	if e, present := m["local_events"]; present && e != nil {
		events, ok := e.([]any)
		if !ok {
			return false
		}
		for _, ev := range events {
			em, ok := ev.(map[string]any)
			if !ok || !isString(em["event_name"]) {
				return false
			}
			if d, present := em["event_description"]; present && d != nil && !isString(d) {
				return false
			}
		}
	}
	return true
}

// IsValidDayActivities reports whether x is an object holding an activities
// array whose entries are all valid activities.
func IsValidDayActivities(x any) bool {
	m, ok := x.(map[string]any)
	if !ok {
		return false
	}
	activities, ok := m["activities"].([]any)
	if !ok {
		return false
	}
	for _, a := range activities {
		if !IsValidActivity(a) {
			return false
		}
	}
	return true
}

// IsValidActivity reports whether x has a non-empty title and description and
// a type from the closed enum.
func IsValidActivity(x any) bool {
	m, ok := x.(map[string]any)
	if !ok {
		return false
	}
	if !isNonEmptyString(m["title"]) || !isNonEmptyString(m["description"]) {
		return false
	}
	t, ok := m["type"].(string)
	if !ok || !ActivityType(t).Valid() {
		return false
	}
	if d, present := m["details"]; present && d != nil {
		if _, ok := d.(map[string]any); !ok {
			return false
		}
	}
	return true
}

// ValidateDays checks the pipeline invariants on an edited or generated day
// list: contiguous numbering from 1 and valid activities.
func ValidateDays(days []ItineraryDay) error {
	for i, d := range days {
		if d.Day != i+1 {
			return &ValidationError{Message: "day numbers must be contiguous starting at 1", Payload: d.Day, Err: ErrInvalidInput}
		}
		for _, a := range d.Activities {
			if strings.TrimSpace(a.Title) == "" || strings.TrimSpace(a.Description) == "" {
				return &ValidationError{Message: "activities require a title and description", Payload: a.ID, Err: ErrInvalidInput}
			}
			if !a.Type.Valid() {
				return &ValidationError{Message: "unknown activity type", Payload: a.Type, Err: ErrInvalidInput}
			}
		}
	}
	return nil
}

func decodeResponse(raw string) (any, error) {
	var v any
	if err := json.Unmarshal([]byte(textgen.StripCodeFences(raw)), &v); err != nil {
		return nil, &ResponseParseError{Message: "model response is not valid JSON", Raw: raw, Err: err}
	}
	return v, nil
}

func routingPlanFrom(x any) RoutingPlan {
	m, _ := x.(map[string]any)
	days, _ := m["days"].([]any)

	plan := RoutingPlan{
		Country:       str(m, "country"),
		StartLocation: str(m, "startLocation"),
		TotalDays:     int(num(m, "totalDays")),
		Metadata: Metadata{
			RecommendedSeasons: strs(m, "recommendedSeasons"),
			TimeZone:           str(m, "timeZone"),
			Currency:           str(m, "currency"),
			Languages:          strs(m, "languages"),
		},
		Days: make([]RoutingDay, 0, len(days)),
	}

	for i, d := range days {
		dm, _ := d.(map[string]any)
		day := RoutingDay{
			Day:                    i + 1,
			MainCity:               strings.TrimSpace(str(dm, "main_city")),
			SuggestedAccommodation: strings.TrimSpace(str(dm, "suggested_accommodation")),
			LocalEvents:            eventsFrom(dm["local_events"]),
		}
		if i > 0 {
			travel := str(dm, "travel_from_previous")
			day.TravelFromPrevious = &travel
		}
		if wm, ok := dm["weather_info"].(map[string]any); ok {
			day.WeatherInfo = &WeatherInfo{
				Temperature: str(wm, "temperature"),
				Conditions:  strs(wm, "conditions"),
			}
		}
		plan.Days = append(plan.Days, day)
	}
	return plan
}

func eventsFrom(x any) []Event {
	list, _ := x.([]any)
	if len(list) == 0 {
		return nil
	}
	events := make([]Event, 0, len(list))
	for _, e := range list {
		em, _ := e.(map[string]any)
		events = append(events, Event{
			Name:        str(em, "event_name"),
			Description: str(em, "event_description"),
		})
	}
	return events
}

func activityFrom(x any) Activity {
	m, _ := x.(map[string]any)
	a := Activity{
		Type:        ActivityType(str(m, "type")),
		Title:       strings.TrimSpace(str(m, "title")),
		Description: strings.TrimSpace(str(m, "description")),
	}

	if dm, ok := m["details"].(map[string]any); ok {
		details := ActivityDetails{
			Rating:                scalar(dm["rating"]),
			Price:                 firstNonEmpty(scalar(dm["price"]), scalar(dm["price_range"])),
			Duration:              scalar(dm["duration"]),
			Location:              scalar(dm["location"]),
			Website:               scalar(dm["website"]),
			WeatherConsiderations: scalar(dm["weather_considerations"]),
			SeasonalNotes:         scalar(dm["seasonal_notes"]),
			Tags:                  strs(dm, "tags"),
		}
		a.Details = &details
	}
	return a
}

func isString(v any) bool {
	_, ok := v.(string)
	return ok
}

func isNonEmptyString(v any) bool {
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) != ""
}

func isStringArray(v any) bool {
	list, ok := v.([]any)
	if !ok {
		return false
	}
	for _, item := range list {
		if !isString(item) {
			return false
		}
	}
	return true
}

func str(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func num(m map[string]any, key string) float64 {
	f, _ := m[key].(float64)
	return f
}

func strs(m map[string]any, key string) []string {
	list, _ := m[key].([]any)
	if len(list) == 0 {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

// scalar renders a JSON string, number or bool as a string; models are
// inconsistent about e.g. "rating": 4.5 vs "rating": "4.5/5".
func scalar(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
