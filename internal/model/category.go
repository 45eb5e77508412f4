package model

// Category labels todos. Color is assigned on the client and never sent.
type Category struct {
	ID    int    `json:"id" yaml:"id"`
	Text  string `json:"text" yaml:"text"`
	Color string `json:"color,omitempty" yaml:"color,omitempty"`
}
