package dialogue

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// Kind names the input shape a step expects.
type Kind string

const (
	KindText           Kind = "text"
	KindNumber         Kind = "number"
	KindContact        Kind = "contact"
	KindRoleChoice     Kind = "role_choice"
	KindCategoryChoice Kind = "category_choice"
	KindTextOrSkip     Kind = "text_or_skip"
	KindNumberOrSkip   Kind = "number_or_skip"
	KindUnknown        Kind = "unknown"
)

// minTextLen is the minimum trimmed length accepted for free-text fields.
const minTextLen = 2

// Contact is a structured contact payload attached to an inbound message.
// OwnerID is the Telegram identity the contact card belongs to.
type Contact struct {
	Phone   string
	OwnerID int64
}

// Input is the validator's view of one inbound message.
type Input struct {
	SenderID int64
	Text     string
	Contact  *Contact
}

// Labels carries the configured button captions the validator matches
// fixed-choice input against. Matching is exact string equality.
type Labels struct {
	RoleClient string
	RoleDriver string
	Categories []string
	Skip       string
}

// ExpectedKind maps a dialogue position to the input shape it accepts.
// Unrecognized positions map to KindUnknown, which always validates, so a
// confused position can never hard-block the user.
func ExpectedKind(state State, step Step) Kind {
	switch state {
	case StateRoleSelection:
		return KindRoleChoice
	case StateBasicInfo:
		switch step {
		case StepFirstName, StepLastName:
			return KindText
		case StepBirthYear:
			return KindNumber
		case StepPhone:
			return KindContact
		}
	case StateFirstOrder:
		switch step {
		case StepFromLocation:
			return KindText
		case StepToLocation, StepDescription:
			return KindTextOrSkip
		case StepPrice:
			return KindNumberOrSkip
		}
	case StateFirstOffer:
		switch step {
		case StepVehicleModel, StepCurrentLocation:
			return KindText
		case StepVehicleCategory:
			return KindCategoryChoice
		}
	}
	return KindUnknown
}

// Validator checks inbound messages against the expected shape of the
// current step using the configured labels.
type Validator struct {
	labels Labels
}

// NewValidator builds a Validator around the given fixed-choice labels.
func NewValidator(labels Labels) *Validator {
	return &Validator{labels: labels}
}

// Validate reports whether the input is acceptable for the given position.
func (v *Validator) Validate(state State, step Step, in Input) bool {
	switch ExpectedKind(state, step) {
	case KindText:
		// The skip label never satisfies a required text field.
		return validText(in.Text) && !v.IsSkip(in.Text)
	case KindNumber:
		return validNumber(in.Text)
	case KindContact:
		return in.Contact != nil && in.Contact.OwnerID == in.SenderID && in.Contact.Phone != ""
	case KindRoleChoice:
		return in.Text == v.labels.RoleClient || in.Text == v.labels.RoleDriver
	case KindCategoryChoice:
		for _, c := range v.labels.Categories {
			if in.Text == c {
				return true
			}
		}
		return false
	case KindTextOrSkip:
		return in.Text == v.labels.Skip || validText(in.Text)
	case KindNumberOrSkip:
		return in.Text == v.labels.Skip || validNumber(in.Text)
	default:
		// Fail open for unknown positions.
		return true
	}
}

// IsSkip reports whether the input is the configured skip label.
func (v *Validator) IsSkip(text string) bool {
	return v.labels.Skip != "" && text == v.labels.Skip
}

func validText(text string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(text)) >= minTextLen
}

// validNumber requires the whole trimmed string to parse as an integer;
// numeric prefixes with trailing garbage are rejected.
func validNumber(text string) bool {
	_, err := strconv.Atoi(strings.TrimSpace(text))
	return err == nil
}

// NormalizePhone strips formatting from a phone number, keeping digits and a
// single leading plus sign.
func NormalizePhone(raw string) string {
	var b strings.Builder
	for i, r := range strings.TrimSpace(raw) {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
			continue
		}
		if r == '+' && i == 0 {
			b.WriteRune(r)
		}
	}
	return b.String()
}
