package router

import (
	"time"

	tg "github.com/okhomin/freightbot/core/telegram"
	"github.com/okhomin/freightbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// Gate is offered every non-command update first. It reports whether the
// update was consumed by an active dialogue.
type Gate interface {
	Offer(c tele.Context) (bool, error)
}

// TextOptions controls fallback behaviour for text/contact updates.
type TextOptions struct {
	UnknownText    tele.HandlerFunc
	UnknownContact tele.HandlerFunc
}

// TextRoutes builds handlers for text and contact routing. Commands resolve
// first so they stay reachable mid-dialogue; everything else is offered to
// the gate before fallbacks run.
func TextRoutes(gate Gate, reg *tg.Registry, opts TextOptions) []tg.Route {
	handler := func(c tele.Context) error {
		start := time.Now()
		text := c.Text()

		if reg != nil {
			if key, cmd, ok := reg.LookupCommand(text); ok && cmd.Handler != nil {
				name := normalizeHandlerName(key)
				return handleWithSummary(c, name, start, "", "", func() error {
					return cmd.Handler(c)
				})
			}
		}

		if gate != nil {
			consumed, gerr := gate.Offer(c)
			if consumed || gerr != nil {
				logHandlerSummary(c, "dialogue", start, "", "", gerr)
				return gerr
			}
		}

		if reg != nil {
			if fb := reg.TextFallback(); fb != nil {
				return handleWithSummary(c, "fallback", start, "", "", func() error {
					return fb(c)
				})
			}
		}

		if opts.UnknownText != nil {
			return handleWithSummary(c, "unknown_text", start, "", "", func() error {
				return opts.UnknownText(c)
			})
		}

		logHandlerSummary(c, "unknown_text", start, "skip", "ok", nil)
		return nil
	}

	contactHandler := func(c tele.Context) error {
		start := time.Now()
		if gate != nil {
			consumed, gerr := gate.Offer(c)
			if consumed || gerr != nil {
				logHandlerSummary(c, "dialogue_contact", start, "", "", gerr)
				return gerr
			}
		}
		if opts.UnknownContact != nil {
			return handleWithSummary(c, "unexpected_contact", start, "", "", func() error {
				return opts.UnknownContact(c)
			})
		}
		logHandlerSummary(c, "unexpected_contact", start, "skip", "ok", nil)
		return nil
	}

	return []tg.Route{
		{
			Endpoint: tele.OnText,
			Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(handler)),
		},
		{
			Endpoint: tele.OnContact,
			Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(contactHandler)),
		},
	}
}
