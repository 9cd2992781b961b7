package models

import (
	"time"
)

// Article types.
const (
	ArticleNews      = "news"
	ArticleKnowledge = "knowledge"
	ArticleBlog      = "blog"
)

// KnowledgeIcons is the fixed vocabulary accepted for knowledge articles.
var KnowledgeIcons = []string{"guide", "steel", "care", "history", "technique"}

// Article is an editorial record: news items, knowledge-base entries and
// blog posts share one shape with per-type required fields.
type Article struct {
	ID          string      `json:"id"`
	Type        string      `json:"type"`
	Title       string      `json:"title"`
	Excerpt     string      `json:"excerpt"`
	Content     string      `json:"content"`
	Image       string      `json:"image"`
	Icon        string      `json:"icon"`
	PublishDate string      `json:"publishDate"`
	ReadTime    string      `json:"readTime"`
	CreatedBy   Attribution `json:"createdBy"`
	UpdatedBy   Attribution `json:"updatedBy"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// EntityID returns the record id.
func (a *Article) EntityID() string { return a.ID }

// SetEntityID assigns the record id.
func (a *Article) SetEntityID(id string) { a.ID = id }

// Kind returns the article type used for metadata counts.
func (a *Article) Kind() string {
	switch a.Type {
	case ArticleKnowledge, ArticleBlog:
		return a.Type
	}
	return ArticleNews
}

// IDPrefix returns the type prefix for generated ids.
func (a *Article) IDPrefix() string {
	switch a.Type {
	case ArticleKnowledge:
		return "k_"
	case ArticleBlog:
		return "b_"
	}
	return "n_"
}

// Stamps returns the creation and last-update timestamps.
func (a *Article) Stamps() (time.Time, time.Time) { return a.CreatedAt, a.UpdatedAt }

// SetStamps assigns the creation and last-update timestamps.
func (a *Article) SetStamps(created, updated time.Time) {
	a.CreatedAt = created
	a.UpdatedAt = updated
}

// MissingFields lists every required field the record lacks, applying the
// per-type rules: content and publish data for blogs, an image for news and
// blogs, a known icon for knowledge entries.
func (a *Article) MissingFields() []string {
	var missing []string
	if a.Title == "" {
		missing = append(missing, "title")
	}
	if a.Excerpt == "" {
		missing = append(missing, "excerpt")
	}
	switch a.Kind() {
	case ArticleNews:
		if a.Image == "" {
			missing = append(missing, "image")
		}
	case ArticleKnowledge:
		if !validIcon(a.Icon) {
			missing = append(missing, "icon")
		}
	case ArticleBlog:
		if a.Content == "" {
			missing = append(missing, "content")
		}
		if a.Image == "" {
			missing = append(missing, "image")
		}
		if a.PublishDate == "" {
			missing = append(missing, "publishDate")
		}
		if a.ReadTime == "" {
			missing = append(missing, "readTime")
		}
	}
	return missing
}

func validIcon(icon string) bool {
	for _, known := range KnowledgeIcons {
		if icon == known {
			return true
		}
	}
	return false
}
