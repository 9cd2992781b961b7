package models

import (
	"time"
)

// Product types.
const (
	TypeKnife = "knife"
	TypeTool  = "tool"
)

// Attribution identifies who created or last updated a record.
type Attribution struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Product is the unified catalog record covering both knives and tools.
// Prices are whole IDR. Dimensional fields are optional except blade and
// handle length, which the bulk-import validator requires.
type Product struct {
	ID               string            `json:"id"`
	Title            string            `json:"title"`
	Price            int               `json:"price"`
	Type             string            `json:"type"`
	Category         string            `json:"category"`
	Steel            string            `json:"steel"`
	HandleMaterial   string            `json:"handleMaterial"`
	BladeLengthCm    float64           `json:"bladeLengthCm"`
	HandleLengthCm   float64           `json:"handleLengthCm"`
	BladeThicknessMm float64           `json:"bladeThicknessMm"`
	WeightG          float64           `json:"weightG"`
	BladeStyle       string            `json:"bladeStyle"`
	HandleStyle      string            `json:"handleStyle"`
	Images           []string          `json:"images"`
	Description      string            `json:"description"`
	Specs            map[string]string `json:"specs"`
	CreatedBy        Attribution       `json:"createdBy"`
	UpdatedBy        Attribution       `json:"updatedBy"`
	CreatedAt        time.Time         `json:"createdAt"`
	UpdatedAt        time.Time         `json:"updatedAt"`
}

// EntityID returns the record id.
func (p *Product) EntityID() string { return p.ID }

// SetEntityID assigns the record id.
func (p *Product) SetEntityID(id string) { p.ID = id }

// Kind returns the product subtype used for metadata counts.
func (p *Product) Kind() string {
	if p.Type == TypeTool {
		return TypeTool
	}
	return TypeKnife
}

// IDPrefix returns the subtype prefix for generated ids.
func (p *Product) IDPrefix() string {
	if p.Type == TypeTool {
		return "t_"
	}
	return "k_"
}

// Stamps returns the creation and last-update timestamps.
func (p *Product) Stamps() (time.Time, time.Time) { return p.CreatedAt, p.UpdatedAt }

// SetStamps assigns the creation and last-update timestamps.
func (p *Product) SetStamps(created, updated time.Time) {
	p.CreatedAt = created
	p.UpdatedAt = updated
}

// MissingFields lists every required field the record lacks. An empty
// result means the record passes bulk-import validation.
func (p *Product) MissingFields() []string {
	var missing []string
	if p.Title == "" {
		missing = append(missing, "title")
	}
	if p.Category == "" {
		missing = append(missing, "category")
	}
	if p.Steel == "" {
		missing = append(missing, "steel")
	}
	if p.HandleMaterial == "" {
		missing = append(missing, "handleMaterial")
	}
	if p.BladeStyle == "" {
		missing = append(missing, "bladeStyle")
	}
	if p.HandleStyle == "" {
		missing = append(missing, "handleStyle")
	}
	if p.BladeLengthCm <= 0 {
		missing = append(missing, "bladeLengthCm")
	}
	if p.HandleLengthCm <= 0 {
		missing = append(missing, "handleLengthCm")
	}
	return missing
}
