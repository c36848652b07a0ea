package agent

import (
	"regexp"
	"strings"

	"github.com/kalam360/intake-agent/internal/intake"
)

var (
	emailExtractPattern = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	phoneExtractPattern = regexp.MustCompile(`\+?[0-9][0-9\-\s().]{8,}[0-9]`)
)

// ExtractClientData pulls intake fields out of a free-form user message
// using keyword heuristics. The LLM carries the conversation; this pass just
// captures the unambiguous signals so validation can trigger.
func ExtractClientData(message string) intake.ClientData {
	var data intake.ClientData
	lower := strings.ToLower(message)

	// Transaction type
	switch {
	case strings.Contains(lower, "buy") || strings.Contains(lower, "purchase"):
		data.TransactionType = "buy"
	case strings.Contains(lower, "sell"):
		data.TransactionType = "sell"
	case strings.Contains(lower, "rent"):
		data.TransactionType = "rent"
	}

	// Financing
	if strings.Contains(lower, "pre-approved") || strings.Contains(lower, "preapproved") {
		preApproved := true
		data.PreApproval = &preApproved
	}
	switch {
	case strings.Contains(lower, "cash"):
		data.PaymentMethod = "cash"
	case strings.Contains(lower, "loan") || strings.Contains(lower, "mortgage") || strings.Contains(lower, "financing"):
		data.PaymentMethod = "loan"
	}

	// Contact details are the only fields with a recognizable shape
	if email := emailExtractPattern.FindString(message); email != "" {
		data.Email = email
	}
	if phone := phoneExtractPattern.FindString(message); phone != "" {
		digits := strings.Map(func(r rune) rune {
			if r >= '0' && r <= '9' || r == '+' {
				return r
			}
			return -1
		}, phone)
		if n := len(strings.TrimPrefix(digits, "+")); n >= 10 && n <= 15 {
			data.Phone = digits
		}
	}

	return data
}

// confirmationPhrases signal that the client accepts the validation summary.
var confirmationPhrases = []string{"yes", "correct", "that's right", "looks good"}

// isConfirmation reports whether a message confirms the summary.
func isConfirmation(message string) bool {
	lower := strings.ToLower(message)
	for _, phrase := range confirmationPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}
