package handlers

import (
	"log/slog"

	"github.com/okhomin/freightbot/core/logger"
	coretelegram "github.com/okhomin/freightbot/core/telegram"
	"github.com/okhomin/freightbot/core/telegram/callbacks"
	tghelpers "github.com/okhomin/freightbot/core/telegram/helpers"
	"github.com/okhomin/freightbot/internal/dialogue"
	"github.com/okhomin/freightbot/internal/texts"

	tele "gopkg.in/telebot.v4"
)

func (a *App) registerCallbacks(reg *coretelegram.Registry) {
	_ = reg.RegisterCallback(skipCallbackKey, a.handleSkip)
}

// handleSkip processes the inline skip button. The payload names the step the
// button was rendered for; a press for any other step is stale and ignored.
// A valid press is fed through the engine as the skip label, so it follows
// the exact same validation and commit path as typed input.
func (a *App) handleSkip(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	userID := c.Sender().ID
	step := callbacks.CallbackPayload(c)

	pos, err := a.engine.Resolve(ctx, userID)
	if err != nil {
		_ = tghelpers.SendText(c, texts.TryAgain)
		return err
	}
	if string(pos.Step) != step {
		logger.Debug(ctx, "dialogue", "skip.stale",
			slog.Int64("user_id", userID),
			slog.String("step", step),
			slog.String("state", string(pos.State)),
		)
		return c.Respond(&tele.CallbackResponse{Text: "That step has already passed"})
	}

	prompter := &telegramPrompter{c: c, app: a}
	msg := dialogue.Message{UserID: userID, Text: a.labels.Skip}
	if _, err := a.engine.Handle(ctx, msg, prompter); err != nil {
		_ = tghelpers.SendText(c, texts.TryAgain)
		return err
	}
	return nil
}
