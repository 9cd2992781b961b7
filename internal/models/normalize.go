package models

import (
	"math"
	"strconv"
)

// NormalizeProduct builds a fully-populated Product from an untrusted
// partial record. Every absent or malformed field becomes a type-appropriate
// default; the function never fails and never assigns ids or timestamps,
// those belong to the repository. Validation is the caller's job.
func NormalizeProduct(raw map[string]any) Product {
	p := Product{
		ID:               asString(raw["id"]),
		Title:            asString(raw["title"]),
		Price:            asInt(raw["price"]),
		Type:             asString(raw["type"]),
		Category:         asString(raw["category"]),
		Steel:            asString(raw["steel"]),
		HandleMaterial:   asString(raw["handleMaterial"]),
		BladeLengthCm:    asFloat(raw["bladeLengthCm"]),
		HandleLengthCm:   asFloat(raw["handleLengthCm"]),
		BladeThicknessMm: asFloat(raw["bladeThicknessMm"]),
		WeightG:          asFloat(raw["weightG"]),
		BladeStyle:       asString(raw["bladeStyle"]),
		HandleStyle:      asString(raw["handleStyle"]),
		Images:           asStringSlice(raw["images"]),
		Description:      asString(raw["description"]),
		Specs:            asStringMap(raw["specs"]),
		CreatedBy:        asAttribution(raw["createdBy"]),
		UpdatedBy:        asAttribution(raw["updatedBy"]),
	}
	if p.Type != TypeKnife && p.Type != TypeTool {
		p.Type = TypeKnife
	}
	return p
}

// NormalizeArticle builds a fully-populated Article from an untrusted
// partial record, under the same total-function contract as
// NormalizeProduct.
func NormalizeArticle(raw map[string]any) Article {
	a := Article{
		ID:          asString(raw["id"]),
		Type:        asString(raw["type"]),
		Title:       asString(raw["title"]),
		Excerpt:     asString(raw["excerpt"]),
		Content:     asString(raw["content"]),
		Image:       asString(raw["image"]),
		Icon:        asString(raw["icon"]),
		PublishDate: asString(raw["publishDate"]),
		ReadTime:    asString(raw["readTime"]),
		CreatedBy:   asAttribution(raw["createdBy"]),
		UpdatedBy:   asAttribution(raw["updatedBy"]),
	}
	if a.Type != ArticleNews && a.Type != ArticleKnowledge && a.Type != ArticleBlog {
		a.Type = ArticleNews
	}
	return a
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0
		}
		return int(n)
	case string:
		i, err := strconv.Atoi(n)
		if err != nil {
			return 0
		}
		return i
	}
	return 0
}

func asFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0
		}
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0
		}
		return f
	}
	return 0
}

func asStringSlice(v any) []string {
	switch list := v.(type) {
	case []string:
		out := make([]string, 0, len(list))
		return append(out, list...)
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return []string{}
}

func asStringMap(v any) map[string]string {
	out := map[string]string{}
	switch m := v.(type) {
	case map[string]string:
		for k, val := range m {
			out[k] = val
		}
	case map[string]any:
		for k, val := range m {
			if s, ok := val.(string); ok {
				out[k] = s
			}
		}
	}
	return out
}

func asAttribution(v any) Attribution {
	m, ok := v.(map[string]any)
	if !ok {
		return Attribution{}
	}
	return Attribution{
		Email: asString(m["email"]),
		Name:  asString(m["name"]),
	}
}
