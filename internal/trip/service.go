package trip

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wanderplan/wanderplan/internal/api/models"
	"github.com/wanderplan/wanderplan/internal/itinerary"
)

// Validation constants.
const (
	MaxNameLength        = 120
	MaxDescriptionLength = 2000
)

// CreateInput holds the fields of a new saved itinerary.
type CreateInput struct {
	Name           string
	Description    string
	Destination    string
	Country        string
	Date           string
	NormalizedDate string
	Duration       int
	Days           []itinerary.ItineraryDay
	Metadata       *itinerary.Metadata
}

// InputFromItinerary builds a CreateInput from a generated itinerary.
func InputFromItinerary(it *itinerary.Itinerary) CreateInput {
	md := it.Metadata
	return CreateInput{
		Name:           it.Name,
		Destination:    it.Destination,
		Country:        it.Country,
		Date:           it.Date,
		NormalizedDate: it.Normalized.Dates,
		Duration:       it.Duration,
		Days:           it.Days,
		Metadata:       &md,
	}
}

// UpdateInput holds optional changes to a saved itinerary. A non-nil Days
// replaces every day.
type UpdateInput struct {
	Name        *string
	Description *string
	Date        *string
	Days        []itinerary.ItineraryDay
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// Service provides saved itinerary operations.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a new saved itinerary service.
func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{repo: repo, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List retrieves a user's itineraries, newest first.
func (s *Service) List(ctx context.Context, userID string, opts ListOptions) (*ListResult, error) {
	return s.repo.List(ctx, userID, opts)
}

// Get retrieves one of the user's itineraries.
func (s *Service) Get(ctx context.Context, userID, id string) (*SavedItinerary, error) {
	return s.repo.GetByUserAndID(ctx, userID, id)
}

// Create stores a new itinerary for userID. The submitted days are also
// kept as the original generated version.
func (s *Service) Create(ctx context.Context, userID string, in CreateInput) (*SavedItinerary, error) {
	if in.Duration == 0 {
		in.Duration = len(in.Days)
	}
	if fieldErrors := validateCreate(in); len(fieldErrors) > 0 {
		return nil, &ValidationError{Errors: fieldErrors}
	}

	now := s.now().UTC()
	it := &SavedItinerary{
		ID:             "itn_" + strings.ReplaceAll(uuid.New().String(), "-", "")[:22],
		UserID:         userID,
		Name:           in.Name,
		Description:    in.Description,
		Destination:    in.Destination,
		Country:        in.Country,
		Date:           in.Date,
		NormalizedDate: in.NormalizedDate,
		Duration:       in.Duration,
		Days:           copyDays(in.Days),
		OriginalDays:   copyDays(in.Days),
		Metadata:       in.Metadata,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.repo.Create(ctx, it); err != nil {
		return nil, fmt.Errorf("saving itinerary: %w", err)
	}
	return it, nil
}

// Save persists a freshly generated itinerary for userID.
func (s *Service) Save(ctx context.Context, userID string, gen *itinerary.Itinerary) (*SavedItinerary, error) {
	return s.Create(ctx, userID, InputFromItinerary(gen))
}

// Update applies in to an itinerary owned by userID.
func (s *Service) Update(ctx context.Context, userID, id string, in UpdateInput) (*SavedItinerary, error) {
	it, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if fieldErrors := validateUpdate(in, it.Duration); len(fieldErrors) > 0 {
		return nil, &ValidationError{Errors: fieldErrors}
	}

	if in.Name != nil {
		it.Name = *in.Name
	}
	if in.Description != nil {
		it.Description = *in.Description
	}
	if in.Date != nil {
		it.Date = *in.Date
	}
	if in.Days != nil {
		it.Days = copyDays(in.Days)
	}
	it.UpdatedAt = s.now().UTC()

	if err := s.repo.Update(ctx, it); err != nil {
		return nil, err
	}
	return it, nil
}

// ResetDays restores the generated days of an itinerary owned by userID.
func (s *Service) ResetDays(ctx context.Context, userID, id string) (*SavedItinerary, error) {
	it, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	it.Days = copyDays(it.OriginalDays)
	it.UpdatedAt = s.now().UTC()

	if err := s.repo.Update(ctx, it); err != nil {
		return nil, err
	}
	return it, nil
}

// Delete deletes an itinerary. It fails with ErrNotOwner when the
// itinerary belongs to someone else.
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.owned(ctx, userID, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) owned(ctx context.Context, userID, id string) (*SavedItinerary, error) {
	it, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrTripNotFound) {
			return nil, ErrTripNotFound
		}
		return nil, err
	}
	if it.UserID != userID {
		return nil, ErrNotOwner
	}
	return it, nil
}

func validateCreate(in CreateInput) []models.FieldError {
	var errs []models.FieldError

	errs = append(errs, validateName(in.Name)...)
	if strings.TrimSpace(in.Destination) == "" {
		errs = append(errs, models.FieldError{Field: "destination", Message: "is required"})
	}
	if in.Duration < 1 || in.Duration > itinerary.MaxDays {
		errs = append(errs, models.FieldError{Field: "duration", Message: fmt.Sprintf("must be between 1 and %d", itinerary.MaxDays)})
	}
	if len(in.Description) > MaxDescriptionLength {
		errs = append(errs, models.FieldError{Field: "description", Message: "must be at most 2000 characters"})
	}
	errs = append(errs, validateDays(in.Days)...)
	errs = append(errs, validateDayCount(in.Days, in.Duration)...)

	return errs
}

// validateUpdate checks in against the stored itinerary. Edits replace the
// days of a trip but never change how long it is.
func validateUpdate(in UpdateInput, duration int) []models.FieldError {
	var errs []models.FieldError

	if in.Name != nil {
		errs = append(errs, validateName(*in.Name)...)
	}
	if in.Description != nil && len(*in.Description) > MaxDescriptionLength {
		errs = append(errs, models.FieldError{Field: "description", Message: "must be at most 2000 characters"})
	}
	if in.Days != nil {
		errs = append(errs, validateDays(in.Days)...)
		errs = append(errs, validateDayCount(in.Days, duration)...)
	}

	return errs
}

func validateName(name string) []models.FieldError {
	if strings.TrimSpace(name) == "" {
		return []models.FieldError{{Field: "name", Message: "is required"}}
	}
	if len(name) > MaxNameLength {
		return []models.FieldError{{Field: "name", Message: "must be at most 120 characters"}}
	}
	return nil
}

func validateDays(days []itinerary.ItineraryDay) []models.FieldError {
	if len(days) == 0 {
		return []models.FieldError{{Field: "days", Message: "must contain at least one day"}}
	}
	if err := itinerary.ValidateDays(days); err != nil {
		return []models.FieldError{{Field: "days", Message: err.Error()}}
	}
	return nil
}

func validateDayCount(days []itinerary.ItineraryDay, duration int) []models.FieldError {
	if len(days) == 0 || len(days) == duration {
		return nil
	}
	return []models.FieldError{{
		Field:   "days",
		Message: fmt.Sprintf("must contain exactly %d days, got %d", duration, len(days)),
	}}
}

// ValidationError represents validation errors.
type ValidationError struct {
	Errors []models.FieldError
}

func (e *ValidationError) Error() string {
	return "validation failed"
}
