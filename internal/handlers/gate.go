package handlers

import (
	tghelpers "github.com/okhomin/freightbot/core/telegram/helpers"
	"github.com/okhomin/freightbot/internal/dialogue"
	"github.com/okhomin/freightbot/internal/texts"

	tele "gopkg.in/telebot.v4"
)

// dialogueGate feeds every plain message into the transition engine before
// any other text handling.
type dialogueGate struct {
	app *App
}

func messageFrom(c tele.Context) dialogue.Message {
	msg := dialogue.Message{
		UserID: c.Sender().ID,
		Text:   c.Text(),
	}
	if m := c.Message(); m != nil && m.Contact != nil {
		msg.Contact = &dialogue.Contact{
			Phone:   m.Contact.PhoneNumber,
			OwnerID: m.Contact.UserID,
		}
	}
	return msg
}

// Offer runs the engine for one update. The engine reports consumed=false for
// completed users; their messages fall through to command fallbacks.
func (g *dialogueGate) Offer(c tele.Context) (bool, error) {
	ctx := tghelpers.BuildContext(c)
	prompter := &telegramPrompter{c: c, app: g.app}

	consumed, err := g.app.engine.Handle(ctx, messageFrom(c), prompter)
	if err != nil {
		// The step was not advanced; a fresh attempt goes through the
		// same derivation, so a generic notice is enough.
		_ = tghelpers.SendText(c, texts.TryAgain)
		return true, err
	}
	return consumed, nil
}

// restart re-derives the position and re-prompts, recovering stuck users.
func (g *dialogueGate) restart(c tele.Context) (bool, error) {
	ctx := tghelpers.BuildContext(c)
	prompter := &telegramPrompter{c: c, app: g.app}

	msg := messageFrom(c)
	msg.Restart = true

	consumed, err := g.app.engine.Handle(ctx, msg, prompter)
	if err != nil {
		_ = tghelpers.SendText(c, texts.TryAgain)
		return true, err
	}
	return consumed, nil
}
