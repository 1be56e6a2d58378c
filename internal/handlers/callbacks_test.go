package handlers

import (
	"context"
	"errors"
	"testing"

	coreconfig "github.com/okhomin/freightbot/core/config"
	"github.com/okhomin/freightbot/internal/dialogue"
	"github.com/okhomin/freightbot/internal/model"
	"github.com/okhomin/freightbot/internal/texts"

	tele "gopkg.in/telebot.v4"
)

// fakeTeleCtx implements the slice of tele.Context the skip callback touches;
// everything else panics through the nil embedded interface.
type fakeTeleCtx struct {
	tele.Context

	sender   *tele.User
	callback *tele.Callback
	store    map[string]any

	sent     []string
	responds []*tele.CallbackResponse
}

func (f *fakeTeleCtx) Get(key string) any { return f.store[key] }

func (f *fakeTeleCtx) Set(key string, val any) {
	if f.store == nil {
		f.store = make(map[string]any)
	}
	f.store[key] = val
}

func (f *fakeTeleCtx) Update() tele.Update      { return tele.Update{} }
func (f *fakeTeleCtx) Sender() *tele.User       { return f.sender }
func (f *fakeTeleCtx) Chat() *tele.Chat         { return nil }
func (f *fakeTeleCtx) Callback() *tele.Callback { return f.callback }

func (f *fakeTeleCtx) Respond(resp ...*tele.CallbackResponse) error {
	f.responds = append(f.responds, resp...)
	return nil
}

func (f *fakeTeleCtx) Send(what interface{}, _ ...interface{}) error {
	if s, ok := what.(string); ok {
		f.sent = append(f.sent, s)
	}
	return nil
}

type stubRecords struct {
	user *model.User
	err  error
}

func (s stubRecords) Get(context.Context, int64) (*model.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.user, nil
}

func (s stubRecords) Create(context.Context, int64) (*model.User, error) {
	return s.Get(context.Background(), 0)
}

func (s stubRecords) Save(context.Context, *model.User) error { return s.err }

type stubSessions struct{}

func (stubSessions) Get(context.Context, int64) (*dialogue.Session, error) {
	return nil, model.ErrNotFound
}
func (stubSessions) Set(context.Context, int64, *dialogue.Session) error { return nil }
func (stubSessions) Delete(context.Context, int64) error                 { return nil }

type stubOrders struct{}

func (stubOrders) Create(context.Context, *model.Order) (bool, error) { return true, nil }

func skipApp(records dialogue.RecordStore) *App {
	labels := texts.LabelsFrom(coreconfig.DialogueConfig{})
	return &App{
		engine: dialogue.NewEngine(records, stubSessions{}, stubOrders{}, labels),
		labels: labels,
	}
}

func skipCtx(userID int64, step string) *fakeTeleCtx {
	return &fakeTeleCtx{
		sender:   &tele.User{ID: userID},
		callback: &tele.Callback{Data: "\f" + skipCallbackKey + "|" + step},
	}
}

func TestHandleSkipStoreFailureSendsNotice(t *testing.T) {
	app := skipApp(stubRecords{err: errors.New("pg down")})
	c := skipCtx(5, string(dialogue.StepToLocation))

	err := app.handleSkip(c)
	if err == nil {
		t.Fatal("expected error from failed resolve")
	}
	if len(c.sent) != 1 || c.sent[0] != texts.TryAgain {
		t.Fatalf("generic notice not sent, got %v", c.sent)
	}
}

func TestHandleSkipStalePress(t *testing.T) {
	completed := &model.User{ID: 5, Role: string(model.RoleClient), RegistrationCompleted: true}
	app := skipApp(stubRecords{user: completed})
	c := skipCtx(5, string(dialogue.StepToLocation))

	if err := app.handleSkip(c); err != nil {
		t.Fatalf("stale press: %v", err)
	}
	if len(c.responds) != 1 {
		t.Fatalf("expected one callback response, got %d", len(c.responds))
	}
	if len(c.sent) != 0 {
		t.Fatalf("stale press sent messages: %v", c.sent)
	}
}
