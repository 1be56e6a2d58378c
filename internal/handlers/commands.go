package handlers

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/okhomin/freightbot/core/buildinfo"
	"github.com/okhomin/freightbot/core/logger"
	coretelegram "github.com/okhomin/freightbot/core/telegram"
	"github.com/okhomin/freightbot/core/telegram/commands"
	tghelpers "github.com/okhomin/freightbot/core/telegram/helpers"
	"github.com/okhomin/freightbot/internal/texts"

	tele "gopkg.in/telebot.v4"
)

func (a *App) registerCommands(reg *coretelegram.Registry) {
	reg.RegisterCommand("/start", commands.Command{
		Handler:     a.handleStart,
		Description: "Begin or resume registration",
	})
	reg.RegisterCommand("/help", commands.Command{
		Handler:     a.handleHelp,
		Description: "How the bot works",
	})
	reg.RegisterCommand("/ping", commands.Command{
		Handler:     a.handlePing,
		Description: "Liveness check",
		AdminOnly:   true,
		Hidden:      true,
	})
}

// handleStart re-derives the user's position and prompts for it. For new
// users this creates the record and asks the first question; for stuck users
// it recovers the dialogue; completed users get the role-appropriate menu.
func (a *App) handleStart(c tele.Context) error {
	gate := &dialogueGate{app: a}
	consumed, err := gate.restart(c)
	if err != nil {
		return err
	}
	if !consumed {
		return tghelpers.SendText(c, a.menuText(c))
	}
	return nil
}

func (a *App) menuText(c tele.Context) string {
	ctx := tghelpers.BuildContext(c)
	rec, err := a.users.Get(ctx, c.Sender().ID)
	if err != nil {
		return texts.Welcome + "\n\n" + texts.Help
	}
	if rec.IsDriver() {
		return texts.MenuDriver
	}
	orders, err := a.orders.ByClient(ctx, rec.ID)
	if err != nil {
		logger.Warn(ctx, "handlers", "orders.list_failed",
			slog.Int64("user_id", rec.ID),
			slog.String("err", err.Error()),
		)
	}
	return texts.MenuClient(orders)
}

func (a *App) handleHelp(c tele.Context) error {
	return tghelpers.SendText(c, texts.Help)
}

func (a *App) handlePing(c tele.Context) error {
	uptime := logger.RoundMS(time.Since(a.startedAt))
	return tghelpers.SendText(c, fmt.Sprintf("pong %s (uptime %s)", buildinfo.Version, uptime))
}
