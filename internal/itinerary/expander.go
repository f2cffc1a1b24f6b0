package itinerary

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/wanderplan/wanderplan/internal/provider/resilience"
	"github.com/wanderplan/wanderplan/internal/telemetry"
	"github.com/wanderplan/wanderplan/internal/textgen"
)

const minActivityPromptLength = 10

// ExpandDay generates the activities of one day. The response must hold at
// least MinActivitiesPerDay valid activities or the whole call is retried;
// extra activities beyond MaxActivitiesPerDay are dropped.
func (s *Service) ExpandDay(ctx context.Context, req DayRequest) ([]Activity, error) {
	ctx, span := telemetry.Tracer(tracerName).Start(ctx, "itinerary.ExpandDay")
	defer span.End()
	span.SetAttributes(attribute.Int("itinerary.day", req.Day), attribute.String("itinerary.city", req.City))

	prompt := dayPrompt(req)

	activities, err := resilience.Retry(ctx, s.retry, func(ctx context.Context, _ int) ([]Activity, error) {
		raw, err := s.gen.Generate(ctx, textgen.Request{
			Operation: OpExpandDay,
			System:    systemPrompt,
			Prompt:    prompt,
			JSON:      true,
		})
		if err != nil {
			return nil, err
		}

		parsed, err := decodeResponse(raw)
		if err != nil {
			return nil, err
		}
		if !IsValidDayActivities(parsed) {
			return nil, &ValidationError{Message: fmt.Sprintf("invalid activities for day %d", req.Day), Payload: parsed}
		}

		list, _ := parsed.(map[string]any)["activities"].([]any)
		if len(list) < MinActivitiesPerDay {
			return nil, &ValidationError{
				Message: fmt.Sprintf("day %d has %d activities, want at least %d", req.Day, len(list), MinActivitiesPerDay),
				Payload: parsed,
			}
		}
		if len(list) > MaxActivitiesPerDay {
			list = list[:MaxActivitiesPerDay]
		}

		out := make([]Activity, 0, len(list))
		for _, item := range list {
			a := activityFrom(item)
			a.ID = s.activityID(req.Day)
			out = append(out, a)
		}
		return out, nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("expanding day %d: %w", req.Day, err)
	}
	return activities, nil
}

// GenerateSingleActivity creates one ad-hoc activity for currentLocation from
// a free-text prompt, independently of a full generation run.
func (s *Service) GenerateSingleActivity(ctx context.Context, prompt, currentLocation string) (*Activity, error) {
	prompt = strings.TrimSpace(prompt)
	currentLocation = NormalizeLocation(currentLocation)

	if prompt == "" || currentLocation == "" {
		return nil, invalidInput("prompt and current location are required", nil)
	}
	if len(prompt) < minActivityPromptLength {
		return nil, invalidInput("Could you provide more details about what you'd like to do?", prompt)
	}

	userPrompt := singleActivityPrompt(prompt, currentLocation, TimeOfDay(prompt))

	activity, err := resilience.Retry(ctx, s.retry, func(ctx context.Context, _ int) (*Activity, error) {
		raw, err := s.gen.Generate(ctx, textgen.Request{
			Operation: OpSingleActivity,
			System:    systemPrompt,
			Prompt:    userPrompt,
			JSON:      true,
		})
		if err != nil {
			return nil, err
		}

		parsed, err := decodeResponse(raw)
		if err != nil {
			return nil, err
		}
		// Some models nest the object under "activity".
		if m, ok := parsed.(map[string]any); ok {
			if inner, ok := m["activity"]; ok {
				parsed = inner
			}
		}
		if !IsValidActivity(parsed) {
			return nil, &ValidationError{Message: "invalid activity structure", Payload: parsed}
		}

		a := activityFrom(parsed)
		return &a, nil
	})
	if err != nil {
		return nil, &ServiceError{Message: "failed to generate activity", Err: err}
	}

	activity.ID = "ai-" + strconv.FormatInt(s.now().UnixMilli(), 10) + "-" + randomSuffix()
	activity.ImageURL = s.images.ImageFor(ctx, activityPlace(*activity, currentLocation), currentLocation)

	return activity, nil
}

var timeOfDayKeywords = []struct {
	period   string
	keywords []string
}{
	{"morning", []string{"morning", "breakfast", "sunrise", "early", "brunch"}},
	{"evening", []string{"evening", "dinner", "night", "sunset", "late", "bar"}},
	{"afternoon", []string{"afternoon", "lunch", "midday", "noon"}},
}

// TimeOfDay infers morning, afternoon or evening from a free-text prompt,
// defaulting to afternoon.
func TimeOfDay(prompt string) string {
	words := strings.FieldsFunc(strings.ToLower(prompt), func(r rune) bool {
		return (r < 'a' || r > 'z') && r != '\''
	})
	for _, group := range timeOfDayKeywords {
		for _, w := range words {
			for _, k := range group.keywords {
				if w == k {
					return group.period
				}
			}
		}
	}
	return "afternoon"
}

func (s *Service) activityID(day int) string {
	return fmt.Sprintf("activity-%d-%d-%s", day, s.now().UnixMilli(), randomSuffix())
}

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

func randomSuffix() string {
	b := make([]byte, 9)
	for i := range b {
		b[i] = base36[rand.IntN(len(base36))]
	}
	return string(b)
}

// activityPlace is the image query for an activity: its own location when the
// model gave one, otherwise "title, city".
func activityPlace(a Activity, city string) string {
	if a.Details != nil && a.Details.Location != "" {
		return a.Details.Location
	}
	return a.Title + ", " + city
}
