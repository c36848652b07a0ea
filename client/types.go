package client

// Mode is the interaction channel a session is currently using.
type Mode string

const (
	ModeText  Mode = "text"
	ModeVoice Mode = "voice"
)

// ClientData mirrors the backend's intake field set on the wire. Known
// fields cover the intake script; anything else lands in Extra.
type ClientData struct {
	// Contact Information
	FullName         string `json:"full_name,omitempty"`
	Email            string `json:"email,omitempty"`
	Phone            string `json:"phone,omitempty"`
	PreferredContact string `json:"preferred_contact,omitempty"`

	// Property Goals
	TransactionType string `json:"transaction_type,omitempty"`
	Timeline        string `json:"timeline,omitempty"`
	Budget          string `json:"budget,omitempty"`

	// Search Criteria
	Location     string `json:"location,omitempty"`
	Bedrooms     string `json:"bedrooms,omitempty"`
	PropertyType string `json:"property_type,omitempty"`
	MustHaves    string `json:"must_haves,omitempty"`

	// Financing
	PreApproval   *bool  `json:"pre_approval,omitempty"`
	PaymentMethod string `json:"payment_method,omitempty"`

	// Additional Information
	Pets            string `json:"pets,omitempty"`
	Accessibility   string `json:"accessibility,omitempty"`
	Urgency         string `json:"urgency,omitempty"`
	AdditionalNotes string `json:"additional_notes,omitempty"`

	// Extra holds fields outside the known intake set
	Extra map[string]string `json:"extra,omitempty"`
}

// Merge shallow-merges other into d, last write wins per key.
func (d *ClientData) Merge(other ClientData) {
	if other.FullName != "" {
		d.FullName = other.FullName
	}
	if other.Email != "" {
		d.Email = other.Email
	}
	if other.Phone != "" {
		d.Phone = other.Phone
	}
	if other.PreferredContact != "" {
		d.PreferredContact = other.PreferredContact
	}
	if other.TransactionType != "" {
		d.TransactionType = other.TransactionType
	}
	if other.Timeline != "" {
		d.Timeline = other.Timeline
	}
	if other.Budget != "" {
		d.Budget = other.Budget
	}
	if other.Location != "" {
		d.Location = other.Location
	}
	if other.Bedrooms != "" {
		d.Bedrooms = other.Bedrooms
	}
	if other.PropertyType != "" {
		d.PropertyType = other.PropertyType
	}
	if other.MustHaves != "" {
		d.MustHaves = other.MustHaves
	}
	if other.PreApproval != nil {
		v := *other.PreApproval
		d.PreApproval = &v
	}
	if other.PaymentMethod != "" {
		d.PaymentMethod = other.PaymentMethod
	}
	if other.Pets != "" {
		d.Pets = other.Pets
	}
	if other.Accessibility != "" {
		d.Accessibility = other.Accessibility
	}
	if other.Urgency != "" {
		d.Urgency = other.Urgency
	}
	if other.AdditionalNotes != "" {
		d.AdditionalNotes = other.AdditionalNotes
	}
	for k, v := range other.Extra {
		if d.Extra == nil {
			d.Extra = make(map[string]string)
		}
		d.Extra[k] = v
	}
}

// IsEmpty reports whether nothing has been collected yet.
func (d *ClientData) IsEmpty() bool {
	if d.PreApproval != nil || len(d.Extra) > 0 {
		return false
	}
	for _, v := range []string{
		d.FullName, d.Email, d.Phone, d.PreferredContact,
		d.TransactionType, d.Timeline, d.Budget,
		d.Location, d.Bedrooms, d.PropertyType, d.MustHaves,
		d.PaymentMethod, d.Pets, d.Accessibility, d.Urgency, d.AdditionalNotes,
	} {
		if v != "" {
			return false
		}
	}
	return true
}
