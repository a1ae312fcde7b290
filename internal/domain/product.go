package domain

import (
	"sort"
	"strings"
	"time"
)

// Availability filter values.
const (
	AvailabilityAll       = "all"
	AvailabilityAvailable = "available"
	AvailabilitySoldOut   = "soldout"
)

// CategoryAll selects every category.
const CategoryAll = "All"

// Product represents a product in the catalog.
type Product struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Price            Money     `json:"price"`
	Image            string    `json:"image"`
	Category         string    `json:"category"`
	Tags             []string  `json:"tags"`
	IsNew            bool      `json:"is_new"`
	IsSoldOut        bool      `json:"is_sold_out"`
	Description      string    `json:"description"`
	Features         []string  `json:"features"`
	CareInstructions []string  `json:"care_instructions"`
	AdditionalImages []string  `json:"additional_images"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// LineItem returns the cart line a product is added as.
func (p *Product) LineItem() LineItem {
	return LineItem{ID: p.ID, Name: p.Name, Price: p.Price, Image: p.Image}
}

// CreateProductInput holds the parameters for creating a product.
type CreateProductInput struct {
	Name             string   `json:"name" validate:"required,notblank,max=255"`
	Price            Money    `json:"price"`
	Image            string   `json:"image" validate:"required,max=2048"`
	Category         string   `json:"category" validate:"required,notblank,max=100"`
	Tags             []string `json:"tags" validate:"omitempty,dive,notblank,max=50"`
	IsNew            bool     `json:"is_new"`
	IsSoldOut        bool     `json:"is_sold_out"`
	Description      string   `json:"description" validate:"max=5000"`
	Features         []string `json:"features"`
	CareInstructions []string `json:"care_instructions"`
	AdditionalImages []string `json:"additional_images"`
}

// UpdateProductInput holds the parameters for a partial product update.
type UpdateProductInput struct {
	Name             *string   `json:"name" validate:"omitempty,notblank,max=255"`
	Price            *Money    `json:"price"`
	Image            *string   `json:"image" validate:"omitempty,max=2048"`
	Category         *string   `json:"category" validate:"omitempty,notblank,max=100"`
	Tags             *[]string `json:"tags"`
	IsNew            *bool     `json:"is_new"`
	IsSoldOut        *bool     `json:"is_sold_out"`
	Description      *string   `json:"description" validate:"omitempty,max=5000"`
	Features         *[]string `json:"features"`
	CareInstructions *[]string `json:"care_instructions"`
	AdditionalImages *[]string `json:"additional_images"`
}

// Apply copies the set fields of in onto p.
func (in *UpdateProductInput) Apply(p *Product) {
	if in.Name != nil {
		p.Name = *in.Name
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.Image != nil {
		p.Image = *in.Image
	}
	if in.Category != nil {
		p.Category = *in.Category
	}
	if in.Tags != nil {
		p.Tags = *in.Tags
	}
	if in.IsNew != nil {
		p.IsNew = *in.IsNew
	}
	if in.IsSoldOut != nil {
		p.IsSoldOut = *in.IsSoldOut
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Features != nil {
		p.Features = *in.Features
	}
	if in.CareInstructions != nil {
		p.CareInstructions = *in.CareInstructions
	}
	if in.AdditionalImages != nil {
		p.AdditionalImages = *in.AdditionalImages
	}
}

// ProductFilter narrows a catalog listing.
type ProductFilter struct {
	Category     string
	Tags         []string
	Search       string
	Availability string
	Page         int
	PerPage      int
}

// IsValidAvailability checks an availability filter value. Empty means all.
func IsValidAvailability(a string) bool {
	switch a {
	case "", AvailabilityAll, AvailabilityAvailable, AvailabilitySoldOut:
		return true
	}
	return false
}

// Matches reports whether p passes every criterion of f.
func (f ProductFilter) Matches(p *Product) bool {
	if f.Category != "" && f.Category != CategoryAll && p.Category != f.Category {
		return false
	}
	if len(f.Tags) > 0 && !hasAnyTag(p.Tags, f.Tags) {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" && !matchesSearch(p, q) {
		return false
	}
	switch f.Availability {
	case AvailabilityAvailable:
		return !p.IsSoldOut
	case AvailabilitySoldOut:
		return p.IsSoldOut
	}
	return true
}

// Filter returns the products matching f, preserving order.
func (f ProductFilter) Filter(products []Product) []Product {
	out := make([]Product, 0, len(products))
	for i := range products {
		if f.Matches(&products[i]) {
			out = append(out, products[i])
		}
	}
	return out
}

func hasAnyTag(have, want []string) bool {
	for _, w := range want {
		for _, h := range have {
			if h == w {
				return true
			}
		}
	}
	return false
}

func matchesSearch(p *Product, q string) bool {
	if strings.Contains(strings.ToLower(p.Name), q) || strings.Contains(strings.ToLower(p.Category), q) {
		return true
	}
	for _, tag := range p.Tags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	return false
}

// SortNewestFirst orders products by creation time, newest first.
func SortNewestFirst(products []Product) {
	sort.SliceStable(products, func(i, j int) bool {
		return products[i].CreatedAt.After(products[j].CreatedAt)
	})
}

// DistinctTags returns the sorted set of tags used across products.
func DistinctTags(products []Product) []string {
	set := make(map[string]struct{})
	for _, p := range products {
		for _, tag := range p.Tags {
			if tag = strings.TrimSpace(tag); tag != "" {
				set[tag] = struct{}{}
			}
		}
	}
	tags := make([]string, 0, len(set))
	for tag := range set {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}
