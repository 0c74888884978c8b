package domain

import "strings"

// Category is the fixed classification assigned to every playbook.
type Category string

// Available categories.
const (
	CategorySales           Category = "Sales"
	CategoryMarketing       Category = "Marketing"
	CategoryCustomerSuccess Category = "Customer Success"
	CategoryProduct         Category = "Product"
	CategoryEngineering     Category = "Engineering"
	CategoryHR              Category = "HR"
	CategoryOperations      Category = "Operations"
	CategoryFinance         Category = "Finance"
	CategoryGeneral         Category = "General"
)

// Categories returns every category in display order.
func Categories() []Category {
	return []Category{
		CategorySales,
		CategoryMarketing,
		CategoryCustomerSuccess,
		CategoryProduct,
		CategoryEngineering,
		CategoryHR,
		CategoryOperations,
		CategoryFinance,
		CategoryGeneral,
	}
}

// IsValid returns true if the category is one of the enumerated values.
func (c Category) IsValid() bool {
	for _, known := range Categories() {
		if c == known {
			return true
		}
	}
	return false
}

// String returns the string representation.
func (c Category) String() string {
	return string(c)
}

// ParseCategory maps a free-text label onto a known category.
// Matching is case-insensitive and ignores surrounding whitespace, quotes and
// a trailing full stop, which LLM classifiers tend to add.
// Anything unrecognised, including the empty string, becomes CategoryGeneral.
func ParseCategory(label string) Category {
	cleaned := strings.TrimSpace(label)
	cleaned = strings.Trim(cleaned, "\"'`")
	cleaned = strings.TrimSuffix(cleaned, ".")
	cleaned = strings.TrimSpace(cleaned)

	for _, known := range Categories() {
		if strings.EqualFold(cleaned, string(known)) {
			return known
		}
	}
	return CategoryGeneral
}
