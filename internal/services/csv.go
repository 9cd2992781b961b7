package services

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"bilah/internal/database"
)

// ImportMode selects how a CSV batch is applied to a collection.
type ImportMode string

// Import modes: append skips rows whose id already exists, update upserts,
// replace discards the collection and loads the CSV as the new content.
const (
	ModeAppend  ImportMode = "append"
	ModeUpdate  ImportMode = "update"
	ModeReplace ImportMode = "replace"
)

// ParseImportMode validates a mode string; the default is append.
func ParseImportMode(s string) (ImportMode, error) {
	switch ImportMode(s) {
	case ModeAppend, ModeUpdate, ModeReplace:
		return ImportMode(s), nil
	case "":
		return ModeAppend, nil
	}
	return "", fmt.Errorf("unknown import mode %q", s)
}

var productColumns = []string{
	"id", "title", "price", "type", "category", "images",
	"steel", "handleMaterial", "bladeLengthCm", "handleLengthCm",
	"bladeThicknessMm", "weightG", "bladeStyle", "handleStyle",
	"description", "specs", "createdAt", "updatedAt",
	"createdByName", "createdByEmail", "updatedByName", "updatedByEmail",
}

var articleColumns = []string{
	"id", "type", "title", "excerpt", "content", "image", "icon",
	"publishDate", "readTime", "createdAt", "updatedAt",
	"createdByName", "createdByEmail", "updatedByName", "updatedByEmail",
}

// ImportResult reports batch totals only. Per-row failures are logged
// server-side, never returned to the caller.
type ImportResult struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// CSVService implements fixed-layout CSV import and export for both
// catalog collections.
type CSVService struct {
	products *database.ProductRepository
	articles *database.ArticleRepository
	log      *zap.Logger
}

// NewCSVService wires the service to both repositories.
func NewCSVService(products *database.ProductRepository, articles *database.ArticleRepository, log *zap.Logger) *CSVService {
	return &CSVService{products: products, articles: articles, log: log}
}

// ImportProducts applies a product CSV in the given mode.
func (s *CSVService) ImportProducts(ctx context.Context, r io.Reader, mode ImportMode) (ImportResult, error) {
	rows, malformed := s.readRows(r, productColumns)
	raws := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		raws = append(raws, productRowToRaw(row))
	}
	return applyImport(ctx, s.products, raws, malformed, mode, s.log)
}

// ImportArticles applies an article CSV in the given mode.
func (s *CSVService) ImportArticles(ctx context.Context, r io.Reader, mode ImportMode) (ImportResult, error) {
	rows, malformed := s.readRows(r, articleColumns)
	raws := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		raws = append(raws, articleRowToRaw(row))
	}
	return applyImport(ctx, s.articles, raws, malformed, mode, s.log)
}

func applyImport[T any, PT interface {
	*T
	database.Entity
}](ctx context.Context, repo *database.Repository[T, PT], raws []map[string]any, malformed int, mode ImportMode, log *zap.Logger) (ImportResult, error) {
	switch mode {
	case ModeAppend:
		ids, err := repo.ExistingIDs(ctx)
		if err != nil {
			return ImportResult{}, err
		}
		kept := make([]map[string]any, 0, len(raws))
		for _, raw := range raws {
			if id, _ := raw["id"].(string); id != "" && ids[id] {
				log.Info("append import skipping existing id", zap.String("id", id))
				malformed++
				continue
			}
			kept = append(kept, raw)
		}
		n, err := repo.UpsertMany(ctx, kept)
		if err != nil {
			return ImportResult{}, err
		}
		return ImportResult{Imported: n, Skipped: malformed + len(kept) - n}, nil
	case ModeReplace:
		n, err := repo.ReplaceAll(ctx, raws)
		if err != nil {
			return ImportResult{}, err
		}
		return ImportResult{Imported: n, Skipped: malformed + len(raws) - n}, nil
	default: // ModeUpdate
		n, err := repo.UpsertMany(ctx, raws)
		if err != nil {
			return ImportResult{}, err
		}
		return ImportResult{Imported: n, Skipped: malformed + len(raws) - n}, nil
	}
}

// readRows decodes the CSV into column-keyed rows, skipping the header and
// counting malformed records instead of aborting.
func (s *CSVService) readRows(r io.Reader, columns []string) ([]map[string]string, int) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(columns)
	malformed := 0
	var rows []map[string]string
	first := true
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			s.log.Warn("skipping malformed csv row", zap.Error(err))
			malformed++
			continue
		}
		if first {
			first = false
			if record[0] == "id" {
				continue
			}
		}
		row := make(map[string]string, len(columns))
		for i, col := range columns {
			row[col] = record[i]
		}
		rows = append(rows, row)
	}
	return rows, malformed
}

func productRowToRaw(row map[string]string) map[string]any {
	raw := map[string]any{
		"id":               row["id"],
		"title":            row["title"],
		"price":            row["price"],
		"type":             row["type"],
		"category":         row["category"],
		"steel":            row["steel"],
		"handleMaterial":   row["handleMaterial"],
		"bladeLengthCm":    row["bladeLengthCm"],
		"handleLengthCm":   row["handleLengthCm"],
		"bladeThicknessMm": row["bladeThicknessMm"],
		"weightG":          row["weightG"],
		"bladeStyle":       row["bladeStyle"],
		"handleStyle":      row["handleStyle"],
		"description":      row["description"],
		"createdBy":        attributionRaw(row["createdByEmail"], row["createdByName"]),
		"updatedBy":        attributionRaw(row["updatedByEmail"], row["updatedByName"]),
	}
	if images := row["images"]; images != "" {
		raw["images"] = strings.Split(images, ";")
	}
	if specsJSON := row["specs"]; specsJSON != "" {
		specs := map[string]any{}
		if err := json.Unmarshal([]byte(specsJSON), &specs); err == nil {
			raw["specs"] = specs
		}
	}
	return raw
}

func articleRowToRaw(row map[string]string) map[string]any {
	return map[string]any{
		"id":          row["id"],
		"type":        row["type"],
		"title":       row["title"],
		"excerpt":     row["excerpt"],
		"content":     row["content"],
		"image":       row["image"],
		"icon":        row["icon"],
		"publishDate": row["publishDate"],
		"readTime":    row["readTime"],
		"createdBy":   attributionRaw(row["createdByEmail"], row["createdByName"]),
		"updatedBy":   attributionRaw(row["updatedByEmail"], row["updatedByName"]),
	}
}

func attributionRaw(email, name string) map[string]any {
	return map[string]any{"email": email, "name": name}
}

// ExportProducts writes the whole collection in the fixed column layout.
func (s *CSVService) ExportProducts(ctx context.Context, w io.Writer) error {
	products, err := s.products.ReadAll(ctx)
	if err != nil {
		return err
	}
	writer := csv.NewWriter(w)
	if err := writer.Write(productColumns); err != nil {
		return err
	}
	for _, p := range products {
		specs, _ := json.Marshal(p.Specs)
		record := []string{
			p.ID,
			p.Title,
			strconv.Itoa(p.Price),
			p.Type,
			p.Category,
			strings.Join(p.Images, ";"),
			p.Steel,
			p.HandleMaterial,
			formatFloat(p.BladeLengthCm),
			formatFloat(p.HandleLengthCm),
			formatFloat(p.BladeThicknessMm),
			formatFloat(p.WeightG),
			p.BladeStyle,
			p.HandleStyle,
			p.Description,
			string(specs),
			p.CreatedAt.Format(time.RFC3339),
			p.UpdatedAt.Format(time.RFC3339),
			p.CreatedBy.Name,
			p.CreatedBy.Email,
			p.UpdatedBy.Name,
			p.UpdatedBy.Email,
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// ExportArticles writes the whole collection in the fixed column layout.
func (s *CSVService) ExportArticles(ctx context.Context, w io.Writer) error {
	articles, err := s.articles.ReadAll(ctx)
	if err != nil {
		return err
	}
	writer := csv.NewWriter(w)
	if err := writer.Write(articleColumns); err != nil {
		return err
	}
	for _, a := range articles {
		record := []string{
			a.ID,
			a.Type,
			a.Title,
			a.Excerpt,
			a.Content,
			a.Image,
			a.Icon,
			a.PublishDate,
			a.ReadTime,
			a.CreatedAt.Format(time.RFC3339),
			a.UpdatedAt.Format(time.RFC3339),
			a.CreatedBy.Name,
			a.CreatedBy.Email,
			a.UpdatedBy.Name,
			a.UpdatedBy.Email,
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func formatFloat(f float64) string {
	if f == 0 {
		return ""
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
