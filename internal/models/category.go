package models

// CategoryType represents the type of category
type CategoryType string

const (
	CategoryTypeIncome  CategoryType = "INCOME"
	CategoryTypeExpense CategoryType = "EXPENSE"
)

// Category classifies transactions. Categories nest at most one level.
type Category struct {
	Base
	UserID      string       `gorm:"type:uuid;not null;index;uniqueIndex:idx_categories_user_name,where:deleted_at IS NULL" json:"user_id"`
	Name        string       `gorm:"not null;uniqueIndex:idx_categories_user_name,where:deleted_at IS NULL" json:"name"`
	Type        CategoryType `gorm:"not null" json:"type"`
	Description string       `json:"description,omitempty"`
	Icon        string       `json:"icon,omitempty"`
	Color       string       `json:"color,omitempty"`
	ParentID    *string      `gorm:"type:uuid;index" json:"parent_id,omitempty"`

	Parent *Category `gorm:"foreignKey:ParentID" json:"-"`
}
