package crud

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Kind selects how a field is coerced when a payload is built.
type Kind int

const (
	KindText Kind = iota
	KindNumber
	KindEnum
	// KindPhoto is a single inline image kept as a data URL.
	KindPhoto
	// KindImages is a list of hosted image URLs plus files staged in the form.
	KindImages
)

// Option is one dropdown choice.
type Option struct {
	Label string `json:"label"`
	Value any    `json:"value"`
}

// RuleContext is what a rule may look at besides the value itself.
type RuleContext struct {
	Editing bool
	Staged  int
}

// Rule returns a user-facing message when v is invalid, "" otherwise.
type Rule func(v any, rc RuleContext) string

// Field describes one editable attribute of a resource.
type Field struct {
	Name    string
	Aliases []string
	// Key is the payload key; Name is used when empty.
	Key     string
	Label   string
	Kind    Kind
	Default any
	Options []string
	Rules   []Rule
	// Lookup loads dropdown options from another list.
	Lookup func(ctx context.Context) ([]Option, error)
	// Resolve maps server image paths to absolute URLs.
	Resolve func(string) string
	// MaxFiles caps hosted plus staged images for KindImages.
	MaxFiles int
	// MaxBytes caps a KindPhoto upload.
	MaxBytes int
	// Omit keeps the field out of the payload.
	Omit bool
}

func (f Field) key() string {
	if f.Key != "" {
		return f.Key
	}
	return f.Name
}

func (f Field) zero() any {
	if f.Default != nil {
		return f.Default
	}
	switch f.Kind {
	case KindNumber:
		return float64(0)
	case KindImages:
		return []string{}
	default:
		return ""
	}
}

// fromServer converts a decoded backend value to the form's representation.
func (f Field) fromServer(v any) any {
	switch f.Kind {
	case KindNumber:
		return ToNumber(v)
	case KindImages:
		urls := ToStrings(v)
		if f.Resolve != nil {
			for i, u := range urls {
				urls[i] = f.Resolve(u)
			}
		}
		return urls
	default:
		return ToString(v)
	}
}

// toPayload applies the numeric coercion rule and trims text.
func (f Field) toPayload(v any) any {
	switch f.Kind {
	case KindNumber:
		return ToNumber(v)
	case KindImages:
		return ToStrings(v)
	case KindPhoto:
		return ToString(v)
	default:
		return strings.TrimSpace(ToString(v))
	}
}

func (f Field) check(v any, rc RuleContext) string {
	for _, rule := range f.Rules {
		if msg := rule(v, rc); msg != "" {
			return msg
		}
	}
	return ""
}

var validate = validator.New()

func blank(v any) bool {
	switch t := v.(type) {
	case []string:
		return len(t) == 0
	default:
		return strings.TrimSpace(ToString(v)) == ""
	}
}

// Required rejects blank values.
func Required(msg string) Rule {
	return func(v any, _ RuleContext) string {
		if blank(v) {
			return msg
		}
		return ""
	}
}

// RequiredOnCreate is Required for new records only.
func RequiredOnCreate(msg string) Rule {
	return func(v any, rc RuleContext) string {
		if rc.Editing {
			return ""
		}
		return Required(msg)(v, rc)
	}
}

// NonZero rejects values that coerce to 0, which is how an unselected numeric
// dropdown looks.
func NonZero(msg string) Rule {
	return func(v any, _ RuleContext) string {
		if ToNumber(v) == 0 {
			return msg
		}
		return ""
	}
}

// OptionalURL accepts blank values or absolute URLs.
func OptionalURL(msg string) Rule {
	return func(v any, _ RuleContext) string {
		s := strings.TrimSpace(ToString(v))
		if s == "" {
			return ""
		}
		if err := validate.Var(s, "url"); err != nil {
			return msg
		}
		return ""
	}
}

// OneOf rejects non-blank values outside options.
func OneOf(options []string, msg string) Rule {
	return func(v any, _ RuleContext) string {
		s := strings.TrimSpace(ToString(v))
		if s == "" {
			return ""
		}
		for _, o := range options {
			if o == s {
				return ""
			}
		}
		return msg
	}
}

// MaxLen rejects text longer than n runes.
func MaxLen(n int, msg string) Rule {
	return func(v any, _ RuleContext) string {
		if len([]rune(strings.TrimSpace(ToString(v)))) > n {
			return msg
		}
		return ""
	}
}

// MinImages counts hosted URLs plus staged files.
func MinImages(n int, msg string) Rule {
	return func(v any, rc RuleContext) string {
		if len(ToStrings(v))+rc.Staged < n {
			return msg
		}
		return ""
	}
}

// MinImagesOnCreate counts staged files only, and only for new records.
func MinImagesOnCreate(n int, msg string) Rule {
	return func(_ any, rc RuleContext) string {
		if rc.Editing || rc.Staged >= n {
			return ""
		}
		return msg
	}
}
