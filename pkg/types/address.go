package types

// Address is a saved delivery address on a customer profile.
type Address struct {
	ID          string       `json:"id"`
	Street      string       `json:"street"`
	City        string       `json:"city"`
	State       string       `json:"state,omitempty"`
	PostalCode  string       `json:"postal_code,omitempty"`
	Country     string       `json:"country,omitempty"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
	IsDefault   bool         `json:"is_default"`
	Type        string       `json:"type"`
}
