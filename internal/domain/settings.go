package domain

// SocialLinks are the footer profile URLs.
type SocialLinks struct {
	Facebook  string `json:"facebook" validate:"omitempty,url"`
	Instagram string `json:"instagram" validate:"omitempty,url"`
	Twitter   string `json:"twitter" validate:"omitempty,url"`
}

// SiteSettings is the editable storefront configuration.
type SiteSettings struct {
	HeroImage      string      `json:"hero_image" validate:"omitempty,url"`
	HeroTitle      string      `json:"hero_title" validate:"required,notblank,max=200"`
	HeroSubtitle   string      `json:"hero_subtitle" validate:"max=500"`
	CompanyName    string      `json:"company_name" validate:"required,notblank,max=200"`
	CompanyEmail   string      `json:"company_email" validate:"omitempty,email"`
	CompanyPhone   string      `json:"company_phone" validate:"max=50"`
	CompanyAddress string      `json:"company_address" validate:"max=500"`
	SocialLinks    SocialLinks `json:"social_links"`
}

// DefaultSiteSettings are used until an admin saves settings.
func DefaultSiteSettings() SiteSettings {
	return SiteSettings{
		HeroImage:      "https://images.unsplash.com/photo-1631125915902-d8abe9225ff2?w=1200&q=80",
		HeroTitle:      "Handcrafted Crochet Bags",
		HeroSubtitle:   "Made with love, carried with pride",
		CompanyName:    "Cupid Crochy",
		CompanyEmail:   "hello@cupidcrochy.com",
		CompanyPhone:   "+880 1234 567890",
		CompanyAddress: "123 Craft Street, Dhaka, Bangladesh",
		SocialLinks: SocialLinks{
			Facebook:  "https://facebook.com",
			Instagram: "https://instagram.com",
			Twitter:   "https://twitter.com",
		},
	}
}
