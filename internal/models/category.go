package models

// Category represents a transaction category. Transactions reference it by a
// nullable category ID; a nil reference is the "unspecified" bucket in
// aggregations.
type Category struct {
	Base
	Name  string `gorm:"not null" json:"name"`
	Color string `json:"color"`
	Icon  string `json:"icon"`

	// Relationships
	Transactions []Transaction `gorm:"foreignKey:CategoryID" json:"transactions,omitempty"`
}
