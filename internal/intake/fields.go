package intake

// Field describes one entry in the intake form, with optional follow-up
// questions the agent can ask once the field is collected.
type Field struct {
	Name        string
	Description string
	FollowUp    []string
}

// Section groups related intake fields.
type Section struct {
	Name   string
	Fields []Field
}

// Sections is the intake script in the order the agent walks it.
var Sections = []Section{
	{
		Name: "Contact Information",
		Fields: []Field{
			{Name: "full_name", Description: "Full name"},
			{Name: "email", Description: "Email address"},
			{Name: "phone", Description: "Phone number"},
			{
				Name:        "preferred_contact",
				Description: "Preferred contact method (email, phone, text)",
				FollowUp:    []string{"What's the best time to reach you?"},
			},
		},
	},
	{
		Name: "Property Goals",
		Fields: []Field{
			{
				Name:        "transaction_type",
				Description: "Are you looking to buy, sell, or rent a property?",
				FollowUp:    []string{"Is this your first time buying/selling/renting?"},
			},
			{
				Name:        "timeline",
				Description: "What's your timeline for moving in or completing the transaction?",
				FollowUp:    []string{"Is there a specific reason for this timeline?"},
			},
			{
				Name:        "budget",
				Description: "What's your budget or target price range?",
				FollowUp:    []string{"How flexible are you with this budget?"},
			},
		},
	},
	{
		Name: "Search Criteria",
		Fields: []Field{
			{
				Name:        "location",
				Description: "What areas or neighborhoods are you interested in?",
				FollowUp:    []string{"Are you open to considering other areas?"},
			},
			{Name: "bedrooms", Description: "How many bedrooms are you looking for?"},
			{
				Name:        "property_type",
				Description: "What type of property are you interested in? (house, condo, townhouse, etc.)",
			},
			{
				Name:        "must_haves",
				Description: "What features are must-haves for your new property?",
				FollowUp:    []string{"Are there any deal-breakers we should know about?"},
			},
		},
	},
	{
		Name: "Financing",
		Fields: []Field{
			{
				Name:        "pre_approval",
				Description: "Have you been pre-approved for a mortgage?",
				FollowUp:    []string{"Would you like a referral to a trusted mortgage broker?"},
			},
			{
				Name:        "payment_method",
				Description: "Will you be paying with cash or financing with a loan?",
			},
		},
	},
	{
		Name: "Additional Information",
		Fields: []Field{
			{
				Name:        "pets",
				Description: "Do you have any pets that will be living with you?",
				FollowUp:    []string{"What type and how many?"},
			},
			{Name: "accessibility", Description: "Do you have any accessibility requirements?"},
			{Name: "urgency", Description: "How urgent is your need to buy/sell/rent?"},
			{
				Name:        "additional_notes",
				Description: "Is there anything else you'd like us to know about your situation or requirements?",
			},
		},
	},
}
