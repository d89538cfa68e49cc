package hazard

// Contact is an entry in the printable offline pack.
type Contact struct {
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
	URL   string `json:"url"`
}

// DefaultContacts returns the static emergency contact list.
func DefaultContacts() []Contact {
	return []Contact{
		{Name: "Emergency (Fire/Police/Ambulance)", Phone: "000", URL: "tel:000"},
		{Name: "NSW RFS Bush Fire Information Line", Phone: "1800679377", URL: "tel:1800679377"},
		{Name: "SES (Flood/Storm)", Phone: "132500", URL: "tel:132500"},
		{Name: "Bureau of Meteorology", URL: "https://www.bom.gov.au"},
	}
}
