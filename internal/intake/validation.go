package intake

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	phonePattern = regexp.MustCompile(`^\+?[0-9]{10,15}$`)
)

// timeframeTerms are words that make a timeline answer concrete enough.
var timeframeTerms = []string{"day", "week", "month", "year", "asap", "soon", "immediately"}

// ValidateContactInfo checks the contact section, returning a list of issues.
func ValidateContactInfo(data *ClientData) []string {
	var issues []string

	if data.FullName == "" {
		issues = append(issues, "Full name is missing")
	} else if len(data.FullName) < 3 {
		issues = append(issues, "Full name seems too short")
	}

	if data.Email == "" {
		issues = append(issues, "Email address is missing")
	} else if !emailPattern.MatchString(data.Email) {
		issues = append(issues, "Email address format appears invalid")
	}

	if data.Phone == "" {
		issues = append(issues, "Phone number is missing")
	} else if !phonePattern.MatchString(data.Phone) {
		issues = append(issues, "Phone number format appears invalid")
	}

	if data.PreferredContact == "" {
		issues = append(issues, "Preferred contact method is missing")
	} else {
		switch strings.ToLower(data.PreferredContact) {
		case "email", "phone", "text":
		default:
			issues = append(issues, "Preferred contact method should be email, phone, or text")
		}
	}

	return issues
}

// ValidatePropertyGoals checks the property goals section.
func ValidatePropertyGoals(data *ClientData) []string {
	var issues []string

	if data.TransactionType == "" {
		issues = append(issues, "Transaction type (buy/sell/rent) is missing")
	} else {
		switch strings.ToLower(data.TransactionType) {
		case "buy", "sell", "rent":
		default:
			issues = append(issues, "Transaction type should be buy, sell, or rent")
		}
	}

	if data.Timeline == "" {
		issues = append(issues, "Timeline information is missing")
	} else {
		timeline := strings.ToLower(data.Timeline)
		hasTimeframe := false
		for _, term := range timeframeTerms {
			if strings.Contains(timeline, term) {
				hasTimeframe = true
				break
			}
		}
		if !hasTimeframe {
			issues = append(issues, "Timeline information needs clarification with a timeframe")
		}
	}

	if data.Budget == "" {
		issues = append(issues, "Budget or target price information is missing")
	}

	return issues
}

// ValidateSearchCriteria checks the search criteria section.
// Only applies when the client is buying or renting.
func ValidateSearchCriteria(data *ClientData) []string {
	var issues []string

	switch strings.ToLower(data.TransactionType) {
	case "buy", "rent":
	default:
		return nil
	}

	if data.Location == "" {
		issues = append(issues, "Location preference is missing")
	}
	if data.Bedrooms == "" {
		issues = append(issues, "Number of bedrooms preference is missing")
	}
	if data.PropertyType == "" {
		issues = append(issues, "Property type preference is missing")
	}

	return issues
}

// ValidateFinancing checks the financing section. Only applies to buyers.
func ValidateFinancing(data *ClientData) []string {
	var issues []string

	if strings.ToLower(data.TransactionType) != "buy" {
		return nil
	}

	if data.PreApproval == nil {
		issues = append(issues, "Pre-approval status is missing")
	}

	if data.PaymentMethod == "" {
		issues = append(issues, "Payment method (cash/loan) is missing")
	} else {
		switch strings.ToLower(data.PaymentMethod) {
		case "cash", "loan", "mortgage", "financing":
		default:
			issues = append(issues, "Payment method should indicate cash or some form of financing/loan")
		}
	}

	return issues
}

// ValidateAll validates every intake section, returning a map of section
// name to its issues. An empty map means the data passed validation.
func ValidateAll(data *ClientData) map[string][]string {
	results := make(map[string][]string)

	if issues := ValidateContactInfo(data); len(issues) > 0 {
		results["Contact Information"] = issues
	}
	if issues := ValidatePropertyGoals(data); len(issues) > 0 {
		results["Property Goals"] = issues
	}
	if issues := ValidateSearchCriteria(data); len(issues) > 0 {
		results["Search Criteria"] = issues
	}
	if issues := ValidateFinancing(data); len(issues) > 0 {
		results["Financing"] = issues
	}

	return results
}

// sectionOrder keeps clarification questions in script order, since map
// iteration order is unspecified.
var sectionOrder = []string{"Contact Information", "Property Goals", "Search Criteria", "Financing"}

// GenerateClarificationQuestions turns validation issues into questions the
// agent can ask the client directly.
func GenerateClarificationQuestions(results map[string][]string) []string {
	var questions []string

	for _, section := range sectionOrder {
		issues, ok := results[section]
		if !ok {
			continue
		}
		for _, issue := range issues {
			lower := strings.ToLower(issue)
			switch {
			case strings.Contains(lower, "missing"):
				field := strings.ToLower(strings.SplitN(issue, " is ", 2)[0])
				questions = append(questions, fmt.Sprintf("I don't think I caught your %s. Could you please provide that information?", field))
			case strings.Contains(lower, "invalid") || strings.Contains(lower, "format"):
				field := strings.ToLower(strings.SplitN(issue, " format", 2)[0])
				questions = append(questions, fmt.Sprintf("The %s you provided doesn't seem to be in the right format. Could you please verify it?", field))
			case strings.Contains(lower, "clarification"):
				field := strings.ToLower(strings.SplitN(issue, " needs ", 2)[0])
				questions = append(questions, fmt.Sprintf("Could you please provide more specific details about your %s?", field))
			default:
				questions = append(questions, fmt.Sprintf("Regarding %s, %s. Could you please clarify?", strings.ToLower(section), lower))
			}
		}
	}

	return questions
}

// Summarize produces the client-facing summary of everything collected.
func Summarize(data *ClientData) string {
	var b strings.Builder
	b.WriteString("Here's a summary of the information you've provided:\n\n")

	b.WriteString("Contact Information:\n")
	writeLine(&b, "Name", data.FullName)
	writeLine(&b, "Email", data.Email)
	writeLine(&b, "Phone", data.Phone)
	writeLine(&b, "Preferred Contact Method", data.PreferredContact)
	b.WriteString("\n")

	b.WriteString("Property Goals:\n")
	writeLine(&b, "Transaction Type", data.TransactionType)
	writeLine(&b, "Timeline", data.Timeline)
	writeLine(&b, "Budget/Target Price", data.Budget)
	b.WriteString("\n")

	transactionType := strings.ToLower(data.TransactionType)
	if transactionType == "buy" || transactionType == "rent" {
		b.WriteString("Search Criteria:\n")
		writeLine(&b, "Location", data.Location)
		writeLine(&b, "Bedrooms", data.Bedrooms)
		writeLine(&b, "Property Type", data.PropertyType)
		writeLine(&b, "Must-Have Features", data.MustHaves)
		b.WriteString("\n")
	}

	if transactionType == "buy" {
		b.WriteString("Financing:\n")
		if data.PreApproval != nil {
			preApproval := "No"
			if *data.PreApproval {
				preApproval = "Yes"
			}
			writeLine(&b, "Pre-Approved", preApproval)
		}
		writeLine(&b, "Payment Method", data.PaymentMethod)
		b.WriteString("\n")
	}

	b.WriteString("Additional Information:\n")
	writeLine(&b, "Pets", data.Pets)
	writeLine(&b, "Accessibility Requirements", data.Accessibility)
	writeLine(&b, "Urgency Level", data.Urgency)
	writeLine(&b, "Additional Notes", data.AdditionalNotes)

	return b.String()
}

func writeLine(b *strings.Builder, label, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(b, "- %s: %s\n", label, value)
}
