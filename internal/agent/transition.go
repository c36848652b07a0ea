package agent

import (
	"github.com/kalam360/intake-agent/internal/intake"
	"github.com/kalam360/intake-agent/internal/session"
)

// TransitionMessage produces the message spoken or shown when the
// conversation switches modes, acknowledging how far the intake has come.
func TransitionMessage(data *session.Data) string {
	if data.ClientData.IsEmpty() {
		return "I'm here to help with your real estate needs. Let's get started!"
	}

	intro := "Thanks for the information so far! "
	if data.ClientData.FullName != "" {
		intro = "Thanks " + data.ClientData.FullName + "! "
	}

	switch {
	case data.CurrentStage == session.StageGreeting:
		return intro + "Let's start gathering your real estate needs."
	case data.ValidationInProgress:
		return intro + "I was just reviewing the information you've provided. Let's continue with that."
	case data.IntakeComplete:
		return intro + "We've completed the intake process. Is there anything else you'd like to add?"
	}

	switch sectionsWithData(data.ClientData) {
	case 0:
		return intro + "Let's start gathering your real estate needs."
	case 1:
		return intro + "We've started gathering your information. Let's continue with more details about your real estate needs."
	default:
		return intro + "We've made good progress. Let's continue gathering the remaining details about your real estate needs."
	}
}

func sectionsWithData(data intake.ClientData) int {
	count := 0
	if data.FullName != "" || data.Email != "" || data.Phone != "" {
		count++
	}
	if data.TransactionType != "" || data.Timeline != "" || data.Budget != "" {
		count++
	}
	if data.Location != "" || data.Bedrooms != "" || data.PropertyType != "" {
		count++
	}
	return count
}
