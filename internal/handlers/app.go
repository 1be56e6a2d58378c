// Package handlers wires the dialogue engine, repositories, and texts into
// Telegram routes.
package handlers

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	goredis "github.com/redis/go-redis/v9"

	coreconfig "github.com/okhomin/freightbot/core/config"
	coretelegram "github.com/okhomin/freightbot/core/telegram"
	"github.com/okhomin/freightbot/core/telegram/router"
	tgsender "github.com/okhomin/freightbot/core/telegram/sender"
	"github.com/okhomin/freightbot/internal/dialogue"
	"github.com/okhomin/freightbot/internal/session"
	"github.com/okhomin/freightbot/internal/storage"
	"github.com/okhomin/freightbot/internal/texts"

	tele "gopkg.in/telebot.v4"
)

// App holds the bot's wired components.
type App struct {
	cfg    *coreconfig.Config
	engine *dialogue.Engine
	users  *storage.Users
	orders *storage.Orders
	labels dialogue.Labels

	startedAt time.Time
}

// NewApp builds repositories and the dialogue engine over shared infrastructure.
func NewApp(cfg *coreconfig.Config, db *sqlx.DB, rdb *goredis.Client) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("handlers: nil config")
	}
	users := storage.NewUsers(db)
	orders := storage.NewOrders(db)
	sessions := session.New(rdb, session.WithTTL(cfg.Redis.SessionTTL))
	labels := texts.LabelsFrom(cfg.Dialogue)

	return &App{
		cfg:       cfg,
		engine:    dialogue.NewEngine(users, sessions, orders, labels),
		users:     users,
		orders:    orders,
		labels:    labels,
		startedAt: time.Now(),
	}, nil
}

// CoreConfig exposes the embedded core configuration.
func (a *App) CoreConfig() *coreconfig.Config {
	return a.cfg
}

// TelegramRunOptions assembles registry, middleware chain, and routes.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	reg := coretelegram.NewRegistry()
	a.registerCommands(reg)
	a.registerCallbacks(reg)

	reg.SetTextFallback(func(c tele.Context) error {
		return c.Send(texts.Unknown)
	})

	gate := &dialogueGate{app: a}

	routes := router.CommandRoutes(reg, router.CommandRouteOptions{
		IsAdmin: a.cfg.IsAdmin,
	})
	routes = append(routes, router.TextRoutes(gate, reg, router.TextOptions{})...)
	routes = append(routes, router.CallbackRoute(reg, router.CallbackOptions{}))

	return coretelegram.RunOptions{
		Config:      a.cfg,
		Registry:    reg,
		Middlewares: coretelegram.DefaultMiddlewares(a.cfg, nil),
		Routes:      routes,
		DispatcherOptions: tgsender.Options{
			MaxRetries: 2,
		},
	}, nil
}
