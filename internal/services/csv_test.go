package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"bilah/internal/database"
	"bilah/internal/storage"
)

func newTestCSVService(t *testing.T) (*CSVService, *database.ProductRepository) {
	t.Helper()
	backend := storage.NewMemoryBackend(zap.NewNop())
	products := database.NewProductRepository(backend, zap.NewNop())
	articles := database.NewArticleRepository(backend, zap.NewNop())
	return NewCSVService(products, articles, zap.NewNop()), products
}

func productCSVRow(id, title string) []string {
	return []string{
		id, title, "200000", "knife", "Kitchen", "/a.jpg;/b.jpg",
		"D2", "G10", "15", "11",
		"3", "180", "Drop Point", "Ergonomic",
		"a working blade", `{"hrc":"60"}`, "", "",
		"Ayu", "ayu@bilah.id", "", "",
	}
}

func productCSV(t *testing.T, rows ...[]string) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	require.NoError(t, w.Write(productColumns))
	for _, row := range rows {
		require.NoError(t, w.Write(row))
	}
	w.Flush()
	require.NoError(t, w.Error())
	return &buf
}

func TestParseImportMode(t *testing.T) {
	mode, err := ParseImportMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeAppend, mode)

	mode, err = ParseImportMode("replace")
	require.NoError(t, err)
	assert.Equal(t, ModeReplace, mode)

	_, err = ParseImportMode("merge")
	assert.Error(t, err)
}

func TestImportProductsReplace(t *testing.T) {
	ctx := context.Background()
	svc, products := newTestCSVService(t)

	for i := 0; i < 5; i++ {
		_, err := products.UpsertOne(ctx, map[string]any{
			"title": "Old", "category": "Kitchen", "steel": "D2",
			"handleMaterial": "G10", "bladeStyle": "Drop Point", "handleStyle": "Ergonomic",
			"bladeLengthCm": 10.0, "handleLengthCm": 10.0,
		})
		require.NoError(t, err)
	}

	res, err := svc.ImportProducts(ctx, productCSV(t,
		productCSVRow("", "New A"),
		productCSVRow("", "New B"),
	), ModeReplace)
	require.NoError(t, err)
	assert.Equal(t, ImportResult{Imported: 2, Skipped: 0}, res)

	all, err := products.ReadAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestImportProductsAppendSkipsExistingIDs(t *testing.T) {
	ctx := context.Background()
	svc, products := newTestCSVService(t)

	_, err := svc.ImportProducts(ctx, productCSV(t,
		productCSVRow("k_keep", "Original"),
	), ModeAppend)
	require.NoError(t, err)

	res, err := svc.ImportProducts(ctx, productCSV(t,
		productCSVRow("k_keep", "Attempted Overwrite"),
		productCSVRow("", "Fresh"),
	), ModeAppend)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Imported)
	assert.Equal(t, 1, res.Skipped)

	kept, err := products.ReadByID(ctx, "k_keep")
	require.NoError(t, err)
	require.NotNil(t, kept)
	assert.Equal(t, "Original", kept.Title)
}

func TestImportProductsUpdateOverwrites(t *testing.T) {
	ctx := context.Background()
	svc, products := newTestCSVService(t)

	_, err := svc.ImportProducts(ctx, productCSV(t,
		productCSVRow("k_one", "Before"),
	), ModeAppend)
	require.NoError(t, err)

	res, err := svc.ImportProducts(ctx, productCSV(t,
		productCSVRow("k_one", "After"),
	), ModeUpdate)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Imported)

	all, err := products.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "After", all[0].Title)
}

func TestImportProductsCountsInvalidRows(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestCSVService(t)

	incomplete := productCSVRow("", "No Steel")
	incomplete[6] = "" // steel column

	res, err := svc.ImportProducts(ctx, productCSV(t,
		productCSVRow("", "Good"),
		incomplete,
	), ModeAppend)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Imported)
	assert.Equal(t, 1, res.Skipped)
}

func TestImportProductsCountsMalformedRecords(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestCSVService(t)

	buf := productCSV(t, productCSVRow("", "Good"))
	buf.WriteString("short,row\n")

	res, err := svc.ImportProducts(ctx, buf, ModeAppend)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Imported)
	assert.Equal(t, 1, res.Skipped)
}

func TestExportProducts(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestCSVService(t)

	_, err := svc.ImportProducts(ctx, productCSV(t,
		productCSVRow("k_export", "Chef Knife"),
	), ModeAppend)
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, svc.ExportProducts(ctx, &out))

	records, err := csv.NewReader(&out).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, productColumns, records[0])
	assert.Equal(t, "k_export", records[1][0])
	assert.Equal(t, "Chef Knife", records[1][1])
	assert.Equal(t, "/a.jpg;/b.jpg", records[1][5])
	assert.True(t, strings.Contains(records[1][15], `"hrc":"60"`))
}
