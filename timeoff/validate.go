package timeoff

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/warp/dayoff/generic"
)

// =============================================================================
// INTAKE INPUTS
// =============================================================================

// SubmitInput is what a user fills in to request days off.
type SubmitInput struct {
	StartDate time.Time `validate:"required"`
	EndDate   time.Time `validate:"required,gtefield=StartDate"`
	Category  Category  `validate:"omitempty,oneof=vacation additional"`
	Reason    string    `validate:"min=10,max=500"`
}

// UserInput creates or updates a user.
type UserInput struct {
	Name                string `validate:"required,max=100"`
	Email               string `validate:"required,email"`
	Role                Role   `validate:"required,oneof=admin user"`
	AllocatedVacation   int    `validate:"gte=0"`
	AllocatedAdditional int    `validate:"gte=0"`
}

// HolidayInput adds a holiday on a single date, or on every date of a
// recurrence rule within Years.
type HolidayInput struct {
	Name  string    `validate:"min=3,max=100"`
	Date  time.Time `validate:"required_without=RRule"`
	RRule string    `validate:"required_without=Date"`
	Years []int     `validate:"required_with=RRule,dive,gte=1900,lte=9999"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// =============================================================================
// VALIDATION
// =============================================================================

// Normalize trims the reason before validation.
func (in SubmitInput) Normalize() SubmitInput {
	in.Reason = strings.TrimSpace(in.Reason)
	return in
}

// Validate checks the submission intake rules. End before start is reported
// as generic.ErrInvalidPeriod; every other failure as *generic.ValidationError.
func (in SubmitInput) Validate() error {
	if !in.StartDate.IsZero() && !in.EndDate.IsZero() &&
		generic.DateOf(in.EndDate).Before(generic.DateOf(in.StartDate)) {
		return fmt.Errorf("%w: %s > %s", generic.ErrInvalidPeriod,
			generic.DateOf(in.StartDate), generic.DateOf(in.EndDate))
	}
	return structErrors(validate.Struct(in))
}

// Proposal converts the input into calendar days.
func (in SubmitInput) Proposal() Proposal {
	return Proposal{
		StartDate: generic.DateOf(in.StartDate),
		EndDate:   generic.DateOf(in.EndDate),
		Category:  in.Category.Resolve(),
	}
}

func (in UserInput) Validate() error {
	return structErrors(validate.Struct(in))
}

func (in HolidayInput) Validate() error {
	if err := structErrors(validate.Struct(in)); err != nil {
		return err
	}
	if in.RRule != "" {
		if err := generic.ValidateRecurrence(in.RRule); err != nil {
			return &generic.ValidationError{Fields: []generic.FieldError{{Field: "RRule", Message: err.Error()}}}
		}
	}
	return nil
}

// structErrors turns validator output into a *generic.ValidationError.
func structErrors(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate: %w", err)
	}
	out := &generic.ValidationError{}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, generic.FieldError{Field: fe.Field(), Message: describe(fe)})
	}
	return out
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_without", "required_with":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "gte":
		return fmt.Sprintf("must be >= %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be <= %s", fe.Param())
	case "gtefield":
		return "must not be before " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	case "email":
		return "must be a valid email address"
	}
	return "failed " + fe.Tag()
}
