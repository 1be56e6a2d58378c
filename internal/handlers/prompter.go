package handlers

import (
	"context"

	tghelpers "github.com/okhomin/freightbot/core/telegram/helpers"
	"github.com/okhomin/freightbot/core/telegram/keyboard"
	"github.com/okhomin/freightbot/internal/dialogue"
	"github.com/okhomin/freightbot/internal/texts"

	tele "gopkg.in/telebot.v4"
)

// skipCallbackKey identifies the inline skip button; its payload carries the
// step the button was rendered for.
const skipCallbackKey = "dlg_skip"

const sharePhoneLabel = "📱 Share my number"

// telegramPrompter renders dialogue positions as Telegram messages with the
// matching input affordance. It is bound to the update being handled.
type telegramPrompter struct {
	c   tele.Context
	app *App
}

// Step sends the prompt for a position together with its keyboard.
func (p *telegramPrompter) Step(_ context.Context, _ int64, pos dialogue.Position) error {
	return tghelpers.SendWithKeyboard(p.c, texts.Prompt(pos), p.markupFor(pos))
}

// Done sends the completion notice and clears any reply keyboard. The client
// summary embeds user input, so it goes out as escaped MarkdownV2.
func (p *telegramPrompter) Done(_ context.Context, _ int64, out dialogue.Outcome) error {
	if out.Order != nil {
		return tghelpers.SendMDV2(p.c, texts.DoneClient(out.Order), keyboard.RemoveKeyboard())
	}
	return tghelpers.SendWithKeyboard(p.c, texts.DoneDriver, keyboard.RemoveKeyboard())
}

func (p *telegramPrompter) markupFor(pos dialogue.Position) *tele.ReplyMarkup {
	labels := p.app.labels
	switch dialogue.ExpectedKind(pos.State, pos.Step) {
	case dialogue.KindRoleChoice:
		return keyboard.ReplyButtons([]string{labels.RoleClient}, []string{labels.RoleDriver})
	case dialogue.KindContact:
		return keyboard.ContactRequest(sharePhoneLabel)
	case dialogue.KindCategoryChoice:
		return keyboard.ReplyButtons(keyboard.ChunkLabels(labels.Categories, 2)...)
	case dialogue.KindTextOrSkip, dialogue.KindNumberOrSkip:
		return keyboard.InlineButtons([]keyboard.InlineBtn{{
			Text:   labels.Skip,
			Unique: skipCallbackKey,
			Data:   string(pos.Step),
		}})
	default:
		return keyboard.RemoveKeyboard()
	}
}
