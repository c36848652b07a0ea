package intake

// ClientData is the structured set of real-estate preferences the agent
// collects. The known fields cover the intake script; anything the
// conversation surfaces outside that set lands in Extra.
type ClientData struct {
	// Contact Information
	FullName         string `json:"full_name,omitempty"`
	Email            string `json:"email,omitempty"`
	Phone            string `json:"phone,omitempty"`
	PreferredContact string `json:"preferred_contact,omitempty"`

	// Property Goals
	TransactionType string `json:"transaction_type,omitempty"` // buy, sell, rent
	Timeline        string `json:"timeline,omitempty"`
	Budget          string `json:"budget,omitempty"`

	// Search Criteria
	Location     string `json:"location,omitempty"`
	Bedrooms     string `json:"bedrooms,omitempty"`
	PropertyType string `json:"property_type,omitempty"`
	MustHaves    string `json:"must_haves,omitempty"`

	// Financing
	PreApproval   *bool  `json:"pre_approval,omitempty"`
	PaymentMethod string `json:"payment_method,omitempty"` // cash, loan

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

// FieldCount returns the number of known fields that have been collected.
// Extra fields do not count toward the validation trigger.
func (d *ClientData) FieldCount() int {
	count := 0
	for _, v := range []string{
		d.FullName, d.Email, d.Phone, d.PreferredContact,
		d.TransactionType, d.Timeline, d.Budget,
		d.Location, d.Bedrooms, d.PropertyType, d.MustHaves,
		d.PaymentMethod, d.Pets, d.Accessibility, d.Urgency, d.AdditionalNotes,
	} {
		if v != "" {
			count++
		}
	}
	if d.PreApproval != nil {
		count++
	}
	return count
}

// IsEmpty reports whether nothing has been collected yet.
func (d *ClientData) IsEmpty() bool {
	return d.FieldCount() == 0 && len(d.Extra) == 0
}

// boolPtr is a small helper for literal PreApproval values.
func boolPtr(v bool) *bool {
	return &v
}
