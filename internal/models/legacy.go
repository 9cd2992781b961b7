package models

// LegacyProduct is the older, narrower record shape still served to API
// consumers written before the unified schema: one image, a single material
// pair under different names, and only the blade-length dimension.
type LegacyProduct struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Price       int     `json:"price"`
	Type        string  `json:"type"`
	Category    string  `json:"category"`
	Material    string  `json:"material"`
	Handle      string  `json:"handle"`
	BladeLength float64 `json:"blade_length"`
	Image       string  `json:"image"`
	Description string  `json:"description"`
}

// ToLegacy converts a unified product to the legacy shape. Fields unique to
// the unified schema are dropped; the image is the first of the list.
func ToLegacy(p Product) LegacyProduct {
	l := LegacyProduct{
		ID:          p.ID,
		Name:        p.Title,
		Price:       p.Price,
		Type:        p.Type,
		Category:    p.Category,
		Material:    p.Steel,
		Handle:      p.HandleMaterial,
		BladeLength: p.BladeLengthCm,
		Description: p.Description,
	}
	if len(p.Images) > 0 {
		l.Image = p.Images[0]
	}
	return l
}

// FromLegacy converts a legacy record into a partial unified record suitable
// for the normalizer, which fills the fields the legacy shape never carried.
func FromLegacy(l LegacyProduct) map[string]any {
	raw := map[string]any{
		"id":             l.ID,
		"title":          l.Name,
		"price":          l.Price,
		"type":           l.Type,
		"category":       l.Category,
		"steel":          l.Material,
		"handleMaterial": l.Handle,
		"bladeLengthCm":  l.BladeLength,
		"description":    l.Description,
	}
	if l.Image != "" {
		raw["images"] = []string{l.Image}
	}
	return raw
}
