package domain

import "time"

// Category groups products by bag style.
type Category struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// CreateCategoryInput holds the parameters for creating a category.
type CreateCategoryInput struct {
	Name        string `json:"name" validate:"required,notblank,max=100"`
	Slug        string `json:"slug" validate:"omitempty,max=120"`
	Description string `json:"description" validate:"max=1000"`
}

// UpdateCategoryInput holds the parameters for updating a category.
type UpdateCategoryInput struct {
	Name        *string `json:"name" validate:"omitempty,notblank,max=100"`
	Slug        *string `json:"slug" validate:"omitempty,max=120"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
}

// DefaultCategories is served when the backend has no categories and is
// inserted by the seeder.
func DefaultCategories() []Category {
	return []Category{
		{ID: 1, Name: "Tote", Slug: "tote", Description: "Spacious bags with two parallel handles"},
		{ID: 2, Name: "Crossbody", Slug: "crossbody", Description: "Bags worn across the body with a long strap"},
		{ID: 3, Name: "Bucket", Slug: "bucket", Description: "Cylindrical shaped bags with a drawstring closure"},
		{ID: 4, Name: "Clutch", Slug: "clutch", Description: "Small handheld bags without handles"},
		{ID: 5, Name: "Shoulder", Slug: "shoulder", Description: "Bags carried on the shoulder with medium-length straps"},
		{ID: 6, Name: "Handbag", Slug: "handbag", Description: "General purpose bags with handles"},
	}
}
