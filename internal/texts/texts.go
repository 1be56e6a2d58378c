// Package texts centralizes every user-facing string and the configured
// button labels of the dialogue.
package texts

import (
	"fmt"
	"strings"

	coreconfig "github.com/okhomin/freightbot/core/config"
	"github.com/okhomin/freightbot/core/telegram/format"
	"github.com/okhomin/freightbot/internal/dialogue"
	"github.com/okhomin/freightbot/internal/model"
)

const (
	Welcome = "Welcome to the freight marketplace! Let's set up your profile."
	Help    = "I connect cargo owners with drivers.\n\n" +
		"/start — begin or resume registration\n" +
		"/help — this message\n\n" +
		"Answer my questions one at a time; I will guide you through the rest."

	TryAgain = "Something went wrong on our side. Please send that again."

	Unknown = "I didn't catch that. Use /start to begin registration or /help for details."

	DoneDriver = "You're all set! We'll notify you when matching shipments appear."
)

const (
	promptRole            = "Are you shipping cargo or driving?"
	promptFirstName       = "What's your first name?"
	promptLastName        = "And your last name?"
	promptBirthYear       = "What year were you born? (numbers only)"
	promptPhone           = "Please share your phone number using the button below."
	promptFromLocation    = "Where does the cargo ship from?"
	promptToLocation      = "Where does it go? You can skip this for now."
	promptDescription     = "Describe the cargo. You can skip this for now."
	promptPrice           = "Your price in whole units? You can skip this for now."
	promptVehicleModel    = "What vehicle do you drive? (make and model)"
	promptVehicleCategory = "Pick your vehicle category."
	promptCurrentLocation = "Where are you based right now?"
)

var defaultLabels = dialogue.Labels{
	RoleClient: "📦 I have cargo",
	RoleDriver: "🚚 I drive",
	Categories: []string{"Van", "Box truck", "Flatbed", "Refrigerated", "Car carrier"},
	Skip:       "Skip ➡️",
}

// LabelsFrom merges configured label overrides over the defaults.
func LabelsFrom(cfg coreconfig.DialogueConfig) dialogue.Labels {
	labels := defaultLabels
	if v := strings.TrimSpace(cfg.RoleClientLabel); v != "" {
		labels.RoleClient = v
	}
	if v := strings.TrimSpace(cfg.RoleDriverLabel); v != "" {
		labels.RoleDriver = v
	}
	if v := strings.TrimSpace(cfg.SkipLabel); v != "" {
		labels.Skip = v
	}
	if len(cfg.Categories) > 0 {
		labels.Categories = cfg.Categories
	}
	return labels
}

// Prompt returns the question text for a dialogue position.
func Prompt(pos dialogue.Position) string {
	switch pos.State {
	case dialogue.StateRoleSelection:
		return promptRole
	case dialogue.StateBasicInfo:
		switch pos.Step {
		case dialogue.StepFirstName:
			return promptFirstName
		case dialogue.StepLastName:
			return promptLastName
		case dialogue.StepBirthYear:
			return promptBirthYear
		case dialogue.StepPhone:
			return promptPhone
		}
	case dialogue.StateFirstOrder:
		switch pos.Step {
		case dialogue.StepFromLocation:
			return promptFromLocation
		case dialogue.StepToLocation:
			return promptToLocation
		case dialogue.StepDescription:
			return promptDescription
		case dialogue.StepPrice:
			return promptPrice
		}
	case dialogue.StateFirstOffer:
		switch pos.Step {
		case dialogue.StepVehicleModel:
			return promptVehicleModel
		case dialogue.StepVehicleCategory:
			return promptVehicleCategory
		case dialogue.StepCurrentLocation:
			return promptCurrentLocation
		}
	}
	return Unknown
}

// DoneClient renders the order confirmation shown when a client finishes.
// The result is MarkdownV2; every order field is user input and escaped.
func DoneClient(order *model.Order) string {
	if order == nil {
		return "Your shipment request is in\\! We'll be in touch\\."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Your shipment request *%s* is in\\!\n\n", format.EscapeMarkdownV2(order.Reference))
	fmt.Fprintf(&b, "From: %s\n", format.EscapeMarkdownV2(order.FromLocation))
	if order.ToLocation != "" {
		fmt.Fprintf(&b, "To: %s\n", format.EscapeMarkdownV2(order.ToLocation))
	}
	if order.Description != "" {
		fmt.Fprintf(&b, "Cargo: %s\n", format.EscapeMarkdownV2(order.Description))
	}
	if order.Price > 0 {
		fmt.Fprintf(&b, "Price: %d\n", order.Price)
	}
	b.WriteString("\nDrivers will see it shortly\\.")
	return b.String()
}

const MenuDriver = "You're registered as a driver. We'll notify you when matching shipments appear.\n\n" + Help

// MenuClient renders the main-menu text for a registered cargo owner,
// including their most recent request when one exists.
func MenuClient(orders []model.Order) string {
	var b strings.Builder
	b.WriteString("You're registered as a cargo owner.\n")
	if len(orders) > 0 {
		fmt.Fprintf(&b, "Your latest request: %s\n", orders[0].Reference)
	}
	b.WriteString("\n" + Help)
	return b.String()
}
