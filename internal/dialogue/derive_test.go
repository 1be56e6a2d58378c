package dialogue

import (
	"testing"

	"github.com/okhomin/freightbot/internal/model"
)

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }

func clientRecord() *model.User {
	return &model.User{
		ID:        1,
		Role:      string(model.RoleClient),
		FirstName: strPtr("Anna"),
		LastName:  strPtr("Kovac"),
		BirthYear: intPtr(1990),
		Phone:     strPtr("+48123456789"),
	}
}

func TestDeriveNilAndUnsetRole(t *testing.T) {
	cases := []struct {
		name string
		rec  *model.User
	}{
		{"nil record", nil},
		{"unset role", &model.User{ID: 1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			pos := Derive(tc.rec, StepPrice)
			if pos.State != StateRoleSelection || pos.Step != StepNone {
				t.Fatalf("got %+v, expected role_selection", pos)
			}
		})
	}
}

func TestDeriveBasicInfoChecklist(t *testing.T) {
	cases := []struct {
		name     string
		mutate   func(*model.User)
		hint     Step
		expected Step
	}{
		{"first field missing", func(u *model.User) { u.FirstName = nil }, StepNone, StepFirstName},
		{"middle field missing", func(u *model.User) { u.BirthYear = nil }, StepNone, StepBirthYear},
		{"phone missing", func(u *model.User) { u.Phone = nil }, StepNone, StepPhone},
		{"later hint rejected", func(u *model.User) { u.LastName = nil }, StepPhone, StepLastName},
		{"earlier hint accepted", func(u *model.User) { u.Phone = nil }, StepFirstName, StepFirstName},
		{"same hint accepted", func(u *model.User) { u.BirthYear = nil }, StepBirthYear, StepBirthYear},
		{"foreign hint rejected", func(u *model.User) { u.Phone = nil }, StepPrice, StepPhone},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := clientRecord()
			tc.mutate(rec)
			pos := Derive(rec, tc.hint)
			if pos.State != StateBasicInfo {
				t.Fatalf("state = %s, expected basic_info", pos.State)
			}
			if pos.Step != tc.expected {
				t.Fatalf("step = %s, expected %s", pos.Step, tc.expected)
			}
		})
	}
}

func TestDeriveFlowState(t *testing.T) {
	rec := clientRecord()
	pos := Derive(rec, StepNone)
	if pos.State != StateFirstOrder || pos.Step != StepFromLocation {
		t.Fatalf("client got %+v, expected first_order/from_location", pos)
	}

	rec.Role = string(model.RoleDriver)
	pos = Derive(rec, StepNone)
	if pos.State != StateFirstOffer || pos.Step != StepVehicleModel {
		t.Fatalf("driver got %+v, expected first_offer/vehicle_model", pos)
	}
}

func TestDeriveFlowHint(t *testing.T) {
	rec := clientRecord()

	pos := Derive(rec, StepDescription)
	if pos.Step != StepDescription {
		t.Fatalf("valid hint dropped: got %s", pos.Step)
	}

	// Hint from another state restarts the flow.
	pos = Derive(rec, StepVehicleModel)
	if pos.Step != StepFromLocation {
		t.Fatalf("foreign hint accepted: got %s", pos.Step)
	}
}

func TestDeriveCompleted(t *testing.T) {
	rec := clientRecord()
	rec.RegistrationCompleted = true
	pos := Derive(rec, StepPrice)
	if pos.State != StateCompleted || pos.Step != StepNone {
		t.Fatalf("got %+v, expected completed", pos)
	}
}

func TestDeriveIsPure(t *testing.T) {
	rec := clientRecord()
	rec.Phone = nil
	first := Derive(rec, StepBirthYear)
	for i := 0; i < 10; i++ {
		if got := Derive(rec, StepBirthYear); got != first {
			t.Fatalf("derive not deterministic: %+v vs %+v", got, first)
		}
	}
}
