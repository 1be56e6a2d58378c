package dialogue

import "testing"

var testLabels = Labels{
	RoleClient: "📦 I have cargo",
	RoleDriver: "🚚 I drive",
	Categories: []string{"Van", "Flatbed"},
	Skip:       "Skip ➡️",
}

func TestValidateText(t *testing.T) {
	v := NewValidator(testLabels)
	cases := []struct {
		text string
		ok   bool
	}{
		{"John", true},
		{"Li", true},
		{"Ли", true}, // two runes, multibyte
		{"J", false},
		{"  J  ", false},
		{"", false},
		{"   ", false},
	}
	for _, tc := range cases {
		in := Input{SenderID: 1, Text: tc.text}
		if got := v.Validate(StateBasicInfo, StepFirstName, in); got != tc.ok {
			t.Fatalf("text %q: got %v, expected %v", tc.text, got, tc.ok)
		}
	}

	// The skip label is long enough to pass the length check but is never
	// valid input for a required text field.
	if v.Validate(StateBasicInfo, StepFirstName, Input{SenderID: 1, Text: testLabels.Skip}) {
		t.Fatal("skip label accepted for required name field")
	}
	if v.Validate(StateFirstOffer, StepVehicleModel, Input{SenderID: 1, Text: testLabels.Skip}) {
		t.Fatal("skip label accepted for required vehicle field")
	}
}

func TestValidateNumber(t *testing.T) {
	v := NewValidator(testLabels)
	cases := []struct {
		text string
		ok   bool
	}{
		{"1990", true},
		{" 1990 ", true},
		{"-5", true},
		{"1990s", false},
		{"about 1990", false},
		{"", false},
	}
	for _, tc := range cases {
		in := Input{SenderID: 1, Text: tc.text}
		if got := v.Validate(StateBasicInfo, StepBirthYear, in); got != tc.ok {
			t.Fatalf("number %q: got %v, expected %v", tc.text, got, tc.ok)
		}
	}
}

func TestValidateContact(t *testing.T) {
	v := NewValidator(testLabels)

	own := Input{SenderID: 7, Contact: &Contact{Phone: "+48123", OwnerID: 7}}
	if !v.Validate(StateBasicInfo, StepPhone, own) {
		t.Fatal("own contact rejected")
	}

	foreign := Input{SenderID: 7, Contact: &Contact{Phone: "+48123", OwnerID: 8}}
	if v.Validate(StateBasicInfo, StepPhone, foreign) {
		t.Fatal("forwarded contact accepted")
	}

	typed := Input{SenderID: 7, Text: "+48123456789"}
	if v.Validate(StateBasicInfo, StepPhone, typed) {
		t.Fatal("typed phone accepted without contact payload")
	}
}

func TestValidateRoleChoice(t *testing.T) {
	v := NewValidator(testLabels)

	if !v.Validate(StateRoleSelection, StepNone, Input{Text: testLabels.RoleDriver}) {
		t.Fatal("driver label rejected")
	}
	if v.Validate(StateRoleSelection, StepNone, Input{Text: "driver"}) {
		t.Fatal("free-typed role accepted")
	}
}

func TestValidateCategoryChoice(t *testing.T) {
	v := NewValidator(testLabels)

	if !v.Validate(StateFirstOffer, StepVehicleCategory, Input{Text: "Flatbed"}) {
		t.Fatal("known category rejected")
	}
	if v.Validate(StateFirstOffer, StepVehicleCategory, Input{Text: "Submarine"}) {
		t.Fatal("unknown category accepted")
	}
}

func TestValidateSkippableSteps(t *testing.T) {
	v := NewValidator(testLabels)

	if !v.Validate(StateFirstOrder, StepToLocation, Input{Text: testLabels.Skip}) {
		t.Fatal("skip label rejected for to_location")
	}
	if !v.Validate(StateFirstOrder, StepPrice, Input{Text: testLabels.Skip}) {
		t.Fatal("skip label rejected for price")
	}
	if !v.Validate(StateFirstOrder, StepPrice, Input{Text: "250"}) {
		t.Fatal("valid price rejected")
	}
	if v.Validate(StateFirstOrder, StepPrice, Input{Text: "cheap"}) {
		t.Fatal("non-numeric price accepted")
	}
	// from_location is required and must not accept the skip label
	if v.Validate(StateFirstOrder, StepFromLocation, Input{Text: testLabels.Skip}) {
		t.Fatal("skip accepted for required from_location")
	}
}

func TestValidateUnknownPositionFailsOpen(t *testing.T) {
	v := NewValidator(testLabels)
	if !v.Validate(StateCompleted, StepNone, Input{Text: "anything"}) {
		t.Fatal("unknown position should validate")
	}
}

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		raw      string
		expected string
	}{
		{"+48 123-456-789", "+48123456789"},
		{"(48) 123 456 789", "48123456789"},
		{"  +1 (555) 000-1111 ", "+15550001111"},
		{"48+123", "48123"},
	}
	for _, tc := range cases {
		if got := NormalizePhone(tc.raw); got != tc.expected {
			t.Fatalf("NormalizePhone(%q) = %q, expected %q", tc.raw, got, tc.expected)
		}
	}
}
