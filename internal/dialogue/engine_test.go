package dialogue

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/okhomin/freightbot/internal/model"
)

type fakeRecords struct {
	users   map[int64]*model.User
	saveErr error
	getErr  error
}

func newFakeRecords() *fakeRecords {
	return &fakeRecords{users: make(map[int64]*model.User)}
}

func (f *fakeRecords) Get(_ context.Context, id int64) (*model.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.users[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeRecords) Create(_ context.Context, id int64) (*model.User, error) {
	if _, ok := f.users[id]; !ok {
		f.users[id] = &model.User{ID: id}
	}
	cp := *f.users[id]
	return &cp, nil
}

func (f *fakeRecords) Save(_ context.Context, u *model.User) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	cp := *u
	f.users[u.ID] = &cp
	return nil
}

type fakeSessions struct {
	sessions map[int64]*Session
	setErr   error
	getErr   error
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{sessions: make(map[int64]*Session)}
}

func copySession(s *Session) *Session {
	cp := *s
	cp.Data = make(map[string]string, len(s.Data))
	for k, v := range s.Data {
		cp.Data[k] = v
	}
	return &cp
}

func (f *fakeSessions) Get(_ context.Context, id int64) (*Session, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	s, ok := f.sessions[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return copySession(s), nil
}

func (f *fakeSessions) Set(_ context.Context, id int64, s *Session) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.sessions[id] = copySession(s)
	return nil
}

func (f *fakeSessions) Delete(_ context.Context, id int64) error {
	delete(f.sessions, id)
	return nil
}

type fakeOrders struct {
	created []*model.Order
	keys    map[string]bool
	err     error
}

func newFakeOrders() *fakeOrders {
	return &fakeOrders{keys: make(map[string]bool)}
}

func (f *fakeOrders) Create(_ context.Context, o *model.Order) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	if f.keys[o.IdempotencyKey] {
		return false, nil
	}
	f.keys[o.IdempotencyKey] = true
	cp := *o
	f.created = append(f.created, &cp)
	return true, nil
}

type fakePrompter struct {
	steps []Position
	dones []Outcome
}

func (f *fakePrompter) Step(_ context.Context, _ int64, pos Position) error {
	f.steps = append(f.steps, pos)
	return nil
}

func (f *fakePrompter) Done(_ context.Context, _ int64, out Outcome) error {
	f.dones = append(f.dones, out)
	return nil
}

func (f *fakePrompter) lastStep(t *testing.T) Position {
	t.Helper()
	if len(f.steps) == 0 {
		t.Fatal("no step prompts recorded")
	}
	return f.steps[len(f.steps)-1]
}

type fixture struct {
	engine   *Engine
	records  *fakeRecords
	sessions *fakeSessions
	orders   *fakeOrders
	prompter *fakePrompter
}

func newFixture() *fixture {
	records := newFakeRecords()
	sessions := newFakeSessions()
	orders := newFakeOrders()
	return &fixture{
		engine:   NewEngine(records, sessions, orders, testLabels),
		records:  records,
		sessions: sessions,
		orders:   orders,
		prompter: &fakePrompter{},
	}
}

func (fx *fixture) send(t *testing.T, userID int64, text string) bool {
	t.Helper()
	consumed, err := fx.engine.Handle(context.Background(), Message{UserID: userID, Text: text}, fx.prompter)
	if err != nil {
		t.Fatalf("Handle(%q): %v", text, err)
	}
	return consumed
}

func (fx *fixture) sendContact(t *testing.T, userID int64, phone string, ownerID int64) {
	t.Helper()
	msg := Message{UserID: userID, Contact: &Contact{Phone: phone, OwnerID: ownerID}}
	if _, err := fx.engine.Handle(context.Background(), msg, fx.prompter); err != nil {
		t.Fatalf("Handle(contact): %v", err)
	}
}

func TestEngineFreshClientFullFlow(t *testing.T) {
	fx := newFixture()
	const userID = 1

	// Unrecognized first message re-prompts role selection.
	if !fx.send(t, userID, "hello") {
		t.Fatal("fresh user message not consumed")
	}
	if pos := fx.prompter.lastStep(t); pos.State != StateRoleSelection {
		t.Fatalf("expected role prompt, got %+v", pos)
	}

	fx.send(t, userID, testLabels.RoleClient)
	if pos := fx.prompter.lastStep(t); pos.Step != StepFirstName {
		t.Fatalf("expected first_name prompt, got %+v", pos)
	}

	fx.send(t, userID, "Anna")
	fx.send(t, userID, "Kovac")
	fx.send(t, userID, "1990")
	if pos := fx.prompter.lastStep(t); pos.Step != StepPhone {
		t.Fatalf("expected phone prompt, got %+v", pos)
	}

	// Typed phone at the contact step is rejected and re-prompted.
	fx.send(t, userID, "+48 123 456 789")
	if pos := fx.prompter.lastStep(t); pos.Step != StepPhone {
		t.Fatalf("typed phone advanced the step: %+v", pos)
	}

	fx.sendContact(t, userID, "+48 123-456-789", userID)
	if pos := fx.prompter.lastStep(t); pos.State != StateFirstOrder || pos.Step != StepFromLocation {
		t.Fatalf("expected first_order/from_location, got %+v", pos)
	}

	rec := fx.records.users[userID]
	if rec.Phone == nil || *rec.Phone != "+48123456789" {
		t.Fatalf("phone not normalized: %v", rec.Phone)
	}

	fx.send(t, userID, "Warsaw")
	fx.send(t, userID, testLabels.Skip) // to_location skipped
	fx.send(t, userID, "Pallet of bricks")

	seqBefore := fx.sessions.sessions[userID].Seq
	fx.send(t, userID, "250")

	if len(fx.prompter.dones) != 1 {
		t.Fatalf("expected one completion notice, got %d", len(fx.prompter.dones))
	}
	out := fx.prompter.dones[0]
	if out.Role != model.RoleClient || out.Order == nil {
		t.Fatalf("unexpected outcome: %+v", out)
	}

	if len(fx.orders.created) != 1 {
		t.Fatalf("expected one order, got %d", len(fx.orders.created))
	}
	order := fx.orders.created[0]
	if order.FromLocation != "Warsaw" || order.ToLocation != "" ||
		order.Description != "Pallet of bricks" || order.Price != 250 {
		t.Fatalf("order fields wrong: %+v", order)
	}
	if order.Reference == "" {
		t.Fatal("order missing reference")
	}
	// The key binds the order to the transition it was created by, so a
	// redelivery of the same final message reuses it.
	if order.IdempotencyKey != fmt.Sprintf("%d:%d", userID, seqBefore) {
		t.Fatalf("idempotency key %s not derived from transition %d:%d",
			order.IdempotencyKey, userID, seqBefore)
	}

	rec = fx.records.users[userID]
	if !rec.RegistrationCompleted {
		t.Fatal("registration not completed")
	}
	if _, ok := fx.sessions.sessions[userID]; ok {
		t.Fatal("session not deleted after completion")
	}

	// Completed users are no longer consumed by the dialogue.
	if fx.send(t, userID, "hello again") {
		t.Fatal("completed user message consumed")
	}
}

func TestEngineStaleSessionRecovery(t *testing.T) {
	fx := newFixture()
	const userID = 2

	fx.records.users[userID] = &model.User{
		ID:        userID,
		Role:      string(model.RoleDriver),
		FirstName: strPtr("Igor"),
		LastName:  strPtr("Bondar"),
		BirthYear: intPtr(1985),
	}
	// Session claims a position far ahead of what the record supports.
	fx.sessions.sessions[userID] = &Session{
		State: StateFirstOffer,
		Step:  StepCurrentLocation,
		Data:  map[string]string{"vehicle_model": "Scania R450"},
		Seq:   4,
	}

	fx.send(t, userID, "Berlin")

	pos := fx.prompter.lastStep(t)
	if pos.State != StateBasicInfo || pos.Step != StepPhone {
		t.Fatalf("expected reconciled basic_info/phone, got %+v", pos)
	}

	sess := fx.sessions.sessions[userID]
	if sess.State != StateBasicInfo || sess.Step != StepPhone {
		t.Fatalf("session not reconciled: %+v", sess)
	}
	if len(sess.Data) != 0 {
		t.Fatalf("cross-state data survived reconcile: %v", sess.Data)
	}
	if sess.Seq != 4 {
		t.Fatalf("seq lost during reconcile: %d", sess.Seq)
	}
}

func TestEngineRecordSaveFailureDoesNotAdvance(t *testing.T) {
	fx := newFixture()
	const userID = 3

	fx.records.users[userID] = &model.User{ID: userID, Role: string(model.RoleClient)}
	fx.sessions.sessions[userID] = &Session{State: StateBasicInfo, Step: StepFirstName, Data: map[string]string{}}

	fx.records.saveErr = errors.New("pg down")
	_, err := fx.engine.Handle(context.Background(), Message{UserID: userID, Text: "Anna"}, fx.prompter)
	if err == nil {
		t.Fatal("expected error from failed save")
	}

	if fx.records.users[userID].FirstName != nil {
		t.Fatal("record mutated despite save failure")
	}
	sess := fx.sessions.sessions[userID]
	if sess.State != StateBasicInfo || sess.Step != StepFirstName {
		t.Fatalf("session advanced despite save failure: %+v", sess)
	}
	if len(fx.prompter.steps) != 0 {
		t.Fatal("prompt sent despite save failure")
	}

	// Recovery: the next attempt succeeds from the same step.
	fx.records.saveErr = nil
	fx.send(t, userID, "Anna")
	if pos := fx.prompter.lastStep(t); pos.Step != StepLastName {
		t.Fatalf("expected last_name after recovery, got %+v", pos)
	}
}

func TestEngineSessionWriteFailureKeepsRecordAuthoritative(t *testing.T) {
	fx := newFixture()
	const userID = 4

	fx.records.users[userID] = &model.User{ID: userID, Role: string(model.RoleClient)}
	fx.sessions.sessions[userID] = &Session{State: StateBasicInfo, Step: StepFirstName, Data: map[string]string{}}

	fx.sessions.setErr = errors.New("redis down")
	_, err := fx.engine.Handle(context.Background(), Message{UserID: userID, Text: "Anna"}, fx.prompter)
	if err == nil {
		t.Fatal("expected error from failed session write")
	}

	// The field write committed before the session write.
	if fx.records.users[userID].FirstName == nil {
		t.Fatal("record write lost")
	}

	// Simulate the stale session expiring; derivation picks up from the
	// record and the dialogue continues at last_name.
	fx.sessions.setErr = nil
	delete(fx.sessions.sessions, userID)
	fx.send(t, userID, "Kovac")
	if pos := fx.prompter.lastStep(t); pos.Step != StepBirthYear {
		t.Fatalf("expected birth_year after reconcile, got %+v", pos)
	}
	if got := fx.records.users[userID].LastName; got == nil || *got != "Kovac" {
		t.Fatalf("last name not saved: %v", got)
	}
}

func TestEngineDuplicateOrderDelivery(t *testing.T) {
	fx := newFixture()
	const userID = 5

	fx.records.users[userID] = clientRecord()
	fx.records.users[userID].ID = userID
	fx.sessions.sessions[userID] = &Session{
		State: StateFirstOrder,
		Step:  StepPrice,
		Data: map[string]string{
			"from_location": "Warsaw",
			"to_location":   "Berlin",
			"description":   "Steel coils",
		},
		Seq: 5,
	}
	// A previous delivery of this same transition already created the order.
	fx.orders.keys[fmt.Sprintf("%d:5", userID)] = true

	fx.send(t, userID, "300")

	if len(fx.orders.created) != 0 {
		t.Fatalf("duplicate transition created %d orders", len(fx.orders.created))
	}
	if len(fx.prompter.dones) != 1 {
		t.Fatal("completion notice not sent for replayed transition")
	}
	if !fx.records.users[userID].RegistrationCompleted {
		t.Fatal("registration not completed after replay")
	}
}

func TestEngineSkipOnlyAtSkippableSteps(t *testing.T) {
	fx := newFixture()
	const userID = 10

	fx.records.users[userID] = clientRecord()
	fx.records.users[userID].ID = userID

	// The origin is required; the skip label re-prompts and commits nothing.
	fx.send(t, userID, testLabels.Skip)
	if pos := fx.prompter.lastStep(t); pos.Step != StepFromLocation {
		t.Fatalf("skip advanced the required origin step: %+v", pos)
	}
	if data := fx.sessions.sessions[userID].Data; len(data) != 0 {
		t.Fatalf("skip committed data at required step: %v", data)
	}

	fx.send(t, userID, "Warsaw")
	fx.send(t, userID, testLabels.Skip)
	fx.send(t, userID, testLabels.Skip)
	fx.send(t, userID, testLabels.Skip)

	if len(fx.orders.created) != 1 {
		t.Fatalf("expected one order, got %d", len(fx.orders.created))
	}
	order := fx.orders.created[0]
	if order.FromLocation != "Warsaw" {
		t.Fatalf("origin lost: %+v", order)
	}
	if order.ToLocation != "" || order.Description != "" || order.Price != 0 {
		t.Fatalf("skipped fields not empty: %+v", order)
	}
}

func TestEngineDriverOfferFlow(t *testing.T) {
	fx := newFixture()
	const userID = 6

	fx.records.users[userID] = &model.User{
		ID:        userID,
		Role:      string(model.RoleDriver),
		FirstName: strPtr("Igor"),
		LastName:  strPtr("Bondar"),
		BirthYear: intPtr(1985),
		Phone:     strPtr("+49111222333"),
	}

	fx.send(t, userID, "Scania R450")
	fx.send(t, userID, "Submarine") // not a configured category
	if pos := fx.prompter.lastStep(t); pos.Step != StepVehicleCategory {
		t.Fatalf("invalid category advanced the step: %+v", pos)
	}
	fx.send(t, userID, "Flatbed")
	fx.send(t, userID, "Hamburg")

	rec := fx.records.users[userID]
	if rec.VehicleModel == nil || *rec.VehicleModel != "Scania R450" {
		t.Fatalf("vehicle model not saved: %v", rec.VehicleModel)
	}
	if rec.VehicleCategory == nil || *rec.VehicleCategory != "Flatbed" {
		t.Fatalf("vehicle category not saved: %v", rec.VehicleCategory)
	}
	if rec.CurrentLocation == nil || *rec.CurrentLocation != "Hamburg" {
		t.Fatalf("current location not saved: %v", rec.CurrentLocation)
	}
	if !rec.RegistrationCompleted {
		t.Fatal("driver registration not completed")
	}
	if len(fx.orders.created) != 0 {
		t.Fatal("driver flow created an order")
	}
	if len(fx.prompter.dones) != 1 || fx.prompter.dones[0].Role != model.RoleDriver {
		t.Fatalf("unexpected driver outcome: %+v", fx.prompter.dones)
	}
}

func TestEngineRestartReprompts(t *testing.T) {
	fx := newFixture()
	const userID = 7

	fx.records.users[userID] = &model.User{ID: userID, Role: string(model.RoleClient), FirstName: strPtr("Anna")}

	msg := Message{UserID: userID, Restart: true}
	consumed, err := fx.engine.Handle(context.Background(), msg, fx.prompter)
	if err != nil {
		t.Fatalf("restart: %v", err)
	}
	if !consumed {
		t.Fatal("restart not consumed mid-registration")
	}
	if pos := fx.prompter.lastStep(t); pos.State != StateBasicInfo || pos.Step != StepLastName {
		t.Fatalf("restart prompted %+v, expected basic_info/last_name", pos)
	}
}

func TestEngineCompletedUserCleansLeftoverSession(t *testing.T) {
	fx := newFixture()
	const userID = 8

	rec := clientRecord()
	rec.ID = userID
	rec.RegistrationCompleted = true
	fx.records.users[userID] = rec
	fx.sessions.sessions[userID] = &Session{State: StateFirstOrder, Step: StepPrice, Data: map[string]string{}}

	if fx.send(t, userID, "hello") {
		t.Fatal("completed user message consumed")
	}
	if _, ok := fx.sessions.sessions[userID]; ok {
		t.Fatal("leftover session not cleaned up")
	}
}

func TestEngineSessionReadFailureDegradesToRecord(t *testing.T) {
	fx := newFixture()
	const userID = 9

	fx.records.users[userID] = &model.User{ID: userID, Role: string(model.RoleClient), FirstName: strPtr("Anna")}

	// Session reads fail throughout; the engine degrades to an absent
	// session and derives the position from the record alone.
	fx.sessions.getErr = errors.New("redis timeout")
	fx.send(t, userID, "Kovac")
	if pos := fx.prompter.lastStep(t); pos.Step != StepBirthYear {
		t.Fatalf("expected birth_year, got %+v", pos)
	}
	if got := fx.records.users[userID].LastName; got == nil || *got != "Kovac" {
		t.Fatalf("last name not saved: %v", got)
	}
}
