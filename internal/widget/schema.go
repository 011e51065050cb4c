package widget

import (
	"errors"
	"reflect"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// MaxCharacters is the upper bound on feedback length, in code points.
const MaxCharacters = 400

// counterThreshold is the remaining allowance below which the counter shows.
const counterThreshold = 50

// StarCount is the number of icons in the rating control.
const StarCount = 5

// DefaultRating is the rating a fresh form starts with.
const DefaultRating = 3

// Form field names, as used in markup and event payloads.
const (
	FieldName     = "name"
	FieldEmail    = "email"
	FieldFeedback = "feedback"
	FieldRating   = "rating"
)

// Fields lists the form fields in display order.
var Fields = []string{FieldName, FieldEmail, FieldFeedback, FieldRating}

// Values is the mutable content of the feedback form.
type Values struct {
	Name     string `json:"name" validate:"min=2"`
	Email    string `json:"email" validate:"min=1,email"`
	Feedback string `json:"feedback" validate:"min=1,max=400"`
	Rating   int    `json:"rating" validate:"gte=1,lte=5"`
}

// DefaultValues returns the values a form is initialized with.
func DefaultValues() Values {
	return Values{Rating: DefaultRating}
}

// structFields maps form field names to Values struct field names, which is
// what partial validation matches on.
var structFields = map[string]string{
	FieldName:     "Name",
	FieldEmail:    "Email",
	FieldFeedback: "Feedback",
	FieldRating:   "Rating",
}

// messages keyed by field then failing tag.
var messages = map[string]map[string]string{
	FieldName: {
		"min": "Name must be at least 2 characters",
	},
	FieldEmail: {
		"min":   "String must contain at least 1 character(s)",
		"email": "Invalid email address.",
	},
	FieldFeedback: {
		"min": "String must contain at least 1 character(s)",
		"max": "Feedback is too long.",
	},
	FieldRating: {
		"gte": "Please provide a rating between 1 and 5",
		"lte": "Rating cannot exceed 5 stars",
	},
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// FieldErrors maps a field name to its validation message.
// An empty map means the values are valid.
type FieldErrors map[string]string

// Validate checks every field of v against the schema.
func Validate(v Values) FieldErrors {
	return toFieldErrors(validate.Struct(v))
}

// ValidateField checks a single field of v. Unknown field names validate
// nothing and return an empty result.
func ValidateField(v Values, field string) FieldErrors {
	sf, ok := structFields[field]
	if !ok {
		return FieldErrors{}
	}
	return toFieldErrors(validate.StructPartial(v, sf))
}

func toFieldErrors(err error) FieldErrors {
	out := FieldErrors{}
	if err == nil {
		return out
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		// only reachable with a non-struct argument
		out[""] = err.Error()
		return out
	}
	for _, fe := range verrs {
		field := fe.Field()
		if _, seen := out[field]; seen {
			continue
		}
		msg := messages[field][fe.Tag()]
		if msg == "" {
			msg = "Invalid value."
		}
		out[field] = msg
	}
	return out
}

// CounterText returns the character counter shown under the feedback input
// for a feedback of length n. It is empty until fewer than 50 characters
// remain.
func CounterText(n int) string {
	remaining := MaxCharacters - n
	if remaining >= counterThreshold {
		return ""
	}
	return strconv.Itoa(remaining) + " / " + strconv.Itoa(MaxCharacters) + " characters left"
}

// StarStates reports which of the rating icons render filled for value.
func StarStates(value int) [StarCount]bool {
	var out [StarCount]bool
	for i := range out {
		out[i] = i < value
	}
	return out
}

// capLength truncates s to at most limit code points, as an input control with
// a maxlength attribute would.
func capLength(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	n := 0
	for i := range s {
		if n == limit {
			return s[:i]
		}
		n++
	}
	return s
}
