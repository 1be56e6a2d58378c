package dialogue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/okhomin/freightbot/core/logger"
	"github.com/okhomin/freightbot/internal/model"
)

// RecordStore is the durable per-user record interface consumed by the engine.
type RecordStore interface {
	Get(ctx context.Context, id int64) (*model.User, error)
	Create(ctx context.Context, id int64) (*model.User, error)
	Save(ctx context.Context, u *model.User) error
}

// SessionStore is the ephemeral TTL session interface. Get returns
// model.ErrNotFound when no entry exists; entries may expire at any time.
type SessionStore interface {
	Get(ctx context.Context, id int64) (*Session, error)
	Set(ctx context.Context, id int64, s *Session) error
	Delete(ctx context.Context, id int64) error
}

// OrderStore persists shipment requests. Create reports created=false when an
// order with the same idempotency key already exists.
type OrderStore interface {
	Create(ctx context.Context, o *model.Order) (bool, error)
}

// Outcome describes a finished dialogue for the completion notice.
type Outcome struct {
	Role  model.Role
	Order *model.Order
}

// Prompter emits the prompt for a dialogue position. Implementations own all
// presentation: texts, keyboards, and input affordances.
type Prompter interface {
	Step(ctx context.Context, userID int64, pos Position) error
	Done(ctx context.Context, userID int64, out Outcome) error
}

// Message is one inbound user message as seen by the engine.
type Message struct {
	UserID  int64
	Text    string
	Contact *Contact
	// Restart forces re-derivation and a fresh prompt for the derived step,
	// recovering users from a confused or stuck dialogue.
	Restart bool
}

// Engine orchestrates derive -> validate -> commit -> advance. It is the only
// component that mutates user records and dialogue sessions.
type Engine struct {
	records   RecordStore
	sessions  SessionStore
	orders    OrderStore
	validator *Validator
	labels    Labels
}

// NewEngine wires the transition engine over its stores.
func NewEngine(records RecordStore, sessions SessionStore, orders OrderStore, labels Labels) *Engine {
	return &Engine{
		records:   records,
		sessions:  sessions,
		orders:    orders,
		validator: NewValidator(labels),
		labels:    labels,
	}
}

// Resolve computes the current canonical position for a user without mutating
// anything. Used by callers that need to check position before acting.
func (e *Engine) Resolve(ctx context.Context, userID int64) (Position, error) {
	rec, err := e.records.Get(ctx, userID)
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		return Position{}, fmt.Errorf("resolve record: %w", err)
	}
	return Derive(rec, e.sessionHint(ctx, userID)), nil
}

// Handle processes one inbound message. It returns consumed=false when the
// dialogue is inert for this user (registration completed) and the message
// should fall through to ordinary command handlers. A non-nil error means a
// store write failed and the current step was not advanced.
func (e *Engine) Handle(ctx context.Context, msg Message, out Prompter) (bool, error) {
	rec, err := e.resolveRecord(ctx, msg.UserID)
	if err != nil {
		return true, err
	}

	sess := e.loadSession(ctx, msg.UserID)
	pos := Derive(rec, sess.Step)

	if pos.State == StateCompleted {
		if sess.State != "" {
			// Leftover session for a completed user; clean it up silently.
			if err := e.sessions.Delete(ctx, msg.UserID); err != nil {
				logger.Warn(ctx, "dialogue", "session.delete_failed",
					slog.Int64("user_id", msg.UserID),
					slog.String("err", err.Error()),
				)
			}
		}
		return false, nil
	}

	// Reconcile on every message: the record may have been mutated
	// out-of-band and the session may be stale or missing.
	if sess.State != pos.State || sess.Step != pos.Step {
		logger.Debug(ctx, "dialogue", "session.reconciled",
			slog.Int64("user_id", msg.UserID),
			slog.String("state", string(pos.State)),
			slog.String("step", string(pos.Step)),
			slog.String("stored_state", string(sess.State)),
			slog.String("stored_step", string(sess.Step)),
		)
		data := sess.Data
		if sess.State != pos.State {
			data = make(map[string]string)
		}
		sess = &Session{State: pos.State, Step: pos.Step, Data: data, Seq: sess.Seq}
		if err := e.sessions.Set(ctx, msg.UserID, sess); err != nil {
			return true, fmt.Errorf("persist reconciled session: %w", err)
		}
	}

	if msg.Restart {
		return true, out.Step(ctx, msg.UserID, pos)
	}

	in := Input{SenderID: msg.UserID, Text: strings.TrimSpace(msg.Text), Contact: msg.Contact}
	if !e.validator.Validate(pos.State, pos.Step, in) {
		logger.Debug(ctx, "dialogue", "input.rejected",
			slog.Int64("user_id", msg.UserID),
			slog.String("state", string(pos.State)),
			slog.String("step", string(pos.Step)),
			slog.String("kind", string(ExpectedKind(pos.State, pos.Step))),
		)
		// Idempotent re-prompt; the step pointer never moves on bad input.
		return true, out.Step(ctx, msg.UserID, pos)
	}

	switch pos.State {
	case StateRoleSelection:
		return e.commitRole(ctx, rec, sess, in, out)
	case StateBasicInfo:
		return e.commitBasicInfo(ctx, rec, sess, pos.Step, in, out)
	case StateFirstOrder:
		return e.commitOrderStep(ctx, rec, sess, pos.Step, in, out)
	case StateFirstOffer:
		return e.commitOfferStep(ctx, rec, sess, pos.Step, in, out)
	}

	// Unrecognized state: fail open, pass the message through.
	return false, nil
}

func (e *Engine) resolveRecord(ctx context.Context, userID int64) (*model.User, error) {
	rec, err := e.records.Get(ctx, userID)
	if errors.Is(err, model.ErrNotFound) {
		rec, err = e.records.Create(ctx, userID)
		if err == nil {
			logger.Info(ctx, "dialogue", "record.created",
				slog.Int64("user_id", userID),
			)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("resolve record: %w", err)
	}
	return rec, nil
}

// loadSession reads and sanitizes the stored session. Read failures degrade
// to an absent session: the position is re-derivable from the record.
func (e *Engine) loadSession(ctx context.Context, userID int64) *Session {
	sess, err := e.sessions.Get(ctx, userID)
	if err != nil {
		if !errors.Is(err, model.ErrNotFound) {
			logger.Warn(ctx, "dialogue", "session.load_failed",
				slog.Int64("user_id", userID),
				slog.String("err", err.Error()),
			)
		}
		sess = &Session{}
	}
	if !sess.Sanitize() && sess.State != "" {
		logger.Warn(ctx, "dialogue", "session.sanitized",
			slog.Int64("user_id", userID),
		)
	}
	return sess
}

func (e *Engine) sessionHint(ctx context.Context, userID int64) Step {
	sess, err := e.sessions.Get(ctx, userID)
	if err != nil {
		return StepNone
	}
	sess.Sanitize()
	return sess.Step
}

func (e *Engine) commitRole(ctx context.Context, rec *model.User, sess *Session, in Input, out Prompter) (bool, error) {
	role := model.RoleClient
	if in.Text == e.labels.RoleDriver {
		role = model.RoleDriver
	}
	rec.Role = string(role)
	if err := e.records.Save(ctx, rec); err != nil {
		return true, fmt.Errorf("save role: %w", err)
	}

	next := Position{State: StateBasicInfo, Step: StepFirstName}
	if err := e.advance(ctx, rec.ID, sess, next, nil); err != nil {
		return true, err
	}
	logger.Info(ctx, "dialogue", "role.selected",
		slog.Int64("user_id", rec.ID),
		slog.String("role", string(role)),
	)
	return true, out.Step(ctx, rec.ID, next)
}

// commitBasicInfo writes the collected field directly to the record; each
// basic-info field is durable the moment its step succeeds, which is what
// makes this state re-derivable after session loss.
func (e *Engine) commitBasicInfo(ctx context.Context, rec *model.User, sess *Session, step Step, in Input, out Prompter) (bool, error) {
	switch step {
	case StepFirstName:
		rec.FirstName = &in.Text
	case StepLastName:
		rec.LastName = &in.Text
	case StepBirthYear:
		year, err := strconv.Atoi(in.Text)
		if err != nil {
			return true, out.Step(ctx, rec.ID, Position{State: StateBasicInfo, Step: step})
		}
		rec.BirthYear = &year
	case StepPhone:
		phone := NormalizePhone(in.Contact.Phone)
		rec.Phone = &phone
	}
	if err := e.records.Save(ctx, rec); err != nil {
		return true, fmt.Errorf("save %s: %w", step, err)
	}

	next := Position{State: StateBasicInfo, Step: nextStep(StateBasicInfo, step)}
	if next.Step == StepNone {
		// Phone collected; the shared profile is complete.
		next = Position{State: StateFirstOrder, Step: StepFromLocation}
		if rec.IsDriver() {
			next = Position{State: StateFirstOffer, Step: StepVehicleModel}
		}
	}
	if err := e.advance(ctx, rec.ID, sess, next, nil); err != nil {
		return true, err
	}
	return true, out.Step(ctx, rec.ID, next)
}

func (e *Engine) commitOrderStep(ctx context.Context, rec *model.User, sess *Session, step Step, in Input, out Prompter) (bool, error) {
	value := in.Text
	// Only skippable steps store the skip label as an empty value; required
	// steps keep the text exactly as validated.
	switch ExpectedKind(StateFirstOrder, step) {
	case KindTextOrSkip, KindNumberOrSkip:
		if e.validator.IsSkip(value) {
			value = ""
		}
	}
	sess.Data[string(step)] = value

	next := nextStep(StateFirstOrder, step)
	if next != StepNone {
		pos := Position{State: StateFirstOrder, Step: next}
		if err := e.advance(ctx, rec.ID, sess, pos, sess.Data); err != nil {
			return true, err
		}
		return true, out.Step(ctx, rec.ID, pos)
	}

	order := &model.Order{
		Reference:    uuid.NewString(),
		ClientID:     rec.ID,
		FromLocation: sess.Data[string(StepFromLocation)],
		ToLocation:   sess.Data[string(StepToLocation)],
		Description:  sess.Data[string(StepDescription)],
		Price:        parsePrice(sess.Data[string(StepPrice)]),
		// Dedupe across message redelivery: same user, same transition.
		IdempotencyKey: fmt.Sprintf("%d:%d", rec.ID, sess.Seq),
	}
	created, err := e.orders.Create(ctx, order)
	if err != nil {
		return true, fmt.Errorf("create order: %w", err)
	}
	if !created {
		logger.Warn(ctx, "dialogue", "order.duplicate",
			slog.Int64("user_id", rec.ID),
			slog.String("idempotency_key", order.IdempotencyKey),
		)
	}

	if err := e.complete(ctx, rec); err != nil {
		return true, err
	}
	logger.Info(ctx, "dialogue", "order.created",
		slog.Int64("user_id", rec.ID),
		slog.String("reference", order.Reference),
		slog.Bool("duplicate", !created),
	)
	return true, out.Done(ctx, rec.ID, Outcome{Role: model.RoleClient, Order: order})
}

func (e *Engine) commitOfferStep(ctx context.Context, rec *model.User, sess *Session, step Step, in Input, out Prompter) (bool, error) {
	sess.Data[string(step)] = in.Text

	next := nextStep(StateFirstOffer, step)
	if next != StepNone {
		pos := Position{State: StateFirstOffer, Step: next}
		if err := e.advance(ctx, rec.ID, sess, pos, sess.Data); err != nil {
			return true, err
		}
		return true, out.Step(ctx, rec.ID, pos)
	}

	vehicle := sess.Data[string(StepVehicleModel)]
	category := sess.Data[string(StepVehicleCategory)]
	location := sess.Data[string(StepCurrentLocation)]
	rec.VehicleModel = &vehicle
	rec.VehicleCategory = &category
	rec.CurrentLocation = &location

	if err := e.complete(ctx, rec); err != nil {
		return true, err
	}
	logger.Info(ctx, "dialogue", "offer.completed",
		slog.Int64("user_id", rec.ID),
		slog.String("vehicle_category", category),
	)
	return true, out.Done(ctx, rec.ID, Outcome{Role: model.RoleDriver})
}

// advance overwrites the session for the next position. The record write this
// step depended on has already committed; if the session write fails here the
// next message re-derives from the record, so no half-applied transition can
// strand the user.
func (e *Engine) advance(ctx context.Context, userID int64, sess *Session, pos Position, data map[string]string) error {
	if data == nil || sess.State != pos.State {
		data = make(map[string]string)
	}
	next := &Session{State: pos.State, Step: pos.Step, Data: data, Seq: sess.Seq + 1}
	if err := e.sessions.Set(ctx, userID, next); err != nil {
		return fmt.Errorf("advance session to %s/%s: %w", pos.State, pos.Step, err)
	}
	*sess = *next
	return nil
}

// complete marks registration finished and drops the session. Order matters:
// the record flag commits first, session deletion is recoverable.
func (e *Engine) complete(ctx context.Context, rec *model.User) error {
	rec.RegistrationCompleted = true
	if err := e.records.Save(ctx, rec); err != nil {
		rec.RegistrationCompleted = false
		return fmt.Errorf("complete registration: %w", err)
	}
	if err := e.sessions.Delete(ctx, rec.ID); err != nil {
		logger.Warn(ctx, "dialogue", "session.delete_failed",
			slog.Int64("user_id", rec.ID),
			slog.String("err", err.Error()),
		)
	}
	return nil
}

func parsePrice(raw string) int {
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return n
}
