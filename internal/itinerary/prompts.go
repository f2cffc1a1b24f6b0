package itinerary

import (
	"encoding/json"
	"fmt"
	"strings"
)

const systemPrompt = `You are an expert travel planner. You write accurate, practical and specific travel plans.

When planning:
- Country context: respect local customs, visa-free movement between cities and realistic transport options.
- Weather and seasonality: account for the climate of the travel period and suggest indoor alternatives where needed.
- Local events and culture: include festivals, markets and seasonal events when they fall in the travel period.
- Practical details: opening hours, typical prices, booking requirements and travel times.
- Never duplicate an attraction, restaurant or activity anywhere in the itinerary.

Always answer with a single valid JSON object and nothing else. Trip-level answers include
"country", "startLocation", "totalDays", "recommendedSeasons", "timeZone", "currency" and "languages".`

const normalizationPrompt = `You clean up travel planning input. The user message is a JSON object with the keys
"destination", "dates", "duration", "interests" and "additionalInfo" (null when not provided).

Return a JSON object with exactly these keys:
- "destination": the corrected, properly capitalised destination, including the country when helpful
- "dates": the travel period as "Month YYYY" or a date range, or null if no dates were given
- "suggestedName": a short, catchy name for the trip
- "corrections": an array of {"original", "corrected", "reason"} objects, one per change you made

Examples of corrections:
- "new yerk" -> "New York" (spelling)
- "aug" -> "August 2024" (expanded month)
- "paris frannce" -> "Paris, France" (spelling and formatting)

If nothing needed correcting, return an empty "corrections" array.`

const activityTypeList = "dining, exploration, event, accommodation"

func normalizationInput(req TripRequest) string {
	payload := map[string]any{
		"destination":    req.Destination,
		"dates":          nullable(req.Dates),
		"duration":       req.Duration,
		"interests":      nullable(req.Interests),
		"additionalInfo": nullable(req.AdditionalInfo),
	}
	b, _ := json.Marshal(payload) //nolint:errchkjson // map of strings and ints
	return string(b)
}

func nullable(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}

func routingPrompt(req RouteRequest) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Create a %d-day travel routing plan for: %s.\n", req.Days, req.Destination)
	b.WriteString("Every day must have a distinct main focus. Do not send the traveler back and forth between cities.\n")

	if req.Dates != "" {
		fmt.Fprintf(&b, "\nTravel period: %s\n", req.Dates)
		b.WriteString("Consider the expected weather, local events and seasonal opening hours during this period.\n")
	}
	if req.Interests != "" {
		fmt.Fprintf(&b, "\nTraveler interests: %s\n", req.Interests)
		b.WriteString("Prioritize cities and areas that match these interests.\n")
	}
	if req.AdditionalInfo != "" {
		fmt.Fprintf(&b, "\nAdditional requirements: %s\n", req.AdditionalInfo)
	}

	fmt.Fprintf(&b, `
Return a JSON object with:
- "country": the main country of the trip
- "startLocation": the first city
- "totalDays": %d
- "recommendedSeasons", "languages": arrays of strings
- "timeZone", "currency": strings
- "days": an array of exactly %d objects, in travel order, each with
  - "main_city": the city the traveler spends the day in
  - "suggested_accommodation": the neighbourhood or area to stay in
  - "travel_from_previous": how to get there from the previous day's city (null for the first day, "No travel required" when staying)
  - "weather_info": {"temperature": string, "conditions": [string]}
  - "local_events": [{"event_name": string, "event_description": string}]

Optimize the route to minimize travel time between consecutive days.`, req.Days, req.Days)

	return b.String()
}

func dayPrompt(req DayRequest) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Generate a detailed day %d itinerary for %s.\n", req.Day, req.City)
	b.WriteString("Suggest only places that are not used on any other day of the trip.\n")

	if req.Dates != "" {
		fmt.Fprintf(&b, "\nTravel period: %s. Account for the weather and any events on this day.\n", req.Dates)
	}
	if req.PreviousCity != "" {
		fmt.Fprintf(&b, "\nComing from: %s\n", req.PreviousCity)
	}
	if req.TravelInfo != "" {
		fmt.Fprintf(&b, "Travel details: %s\n", req.TravelInfo)
	}
	fmt.Fprintf(&b, "Accommodation area: %s\n", req.Accommodation)
	if req.Interests != "" {
		fmt.Fprintf(&b, "\nTraveler interests: %s\n", req.Interests)
	}
	if req.AdditionalInfo != "" {
		fmt.Fprintf(&b, "\nAdditional requirements: %s\n", req.AdditionalInfo)
	}

	fmt.Fprintf(&b, `
Return a JSON object with an "activities" array of %d to %d items. Each item has:
- "title": the name of the place or activity
- "type": one of %s
- "description": two or three sentences on what to do there
- "details": {"rating", "price", "duration", "location", "website", "weather_considerations", "seasonal_notes", "tags": [string]}`,
		MinActivitiesPerDay, MaxActivitiesPerDay, activityTypeList)

	return b.String()
}

func singleActivityPrompt(prompt, location, timeOfDay string) string {
	return fmt.Sprintf(`Generate a travel activity in %s based on: %s.
The traveler wants to do this in the %s.
Include specific details about location, timing, and practical information.

Return a JSON object with "title", "type" (one of %s), "description" and
"details": {"rating", "price", "duration", "location", "website", "weather_considerations", "seasonal_notes", "tags": [string]}.`,
		location, prompt, timeOfDay, activityTypeList)
}
