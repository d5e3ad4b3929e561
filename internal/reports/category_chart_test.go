package reports

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bcnelson/playfinder/pkg/models"
)

func TestCategoryChart(t *testing.T) {
	counts := []models.CategoryCount{
		{CategoryID: "1", Slug: "farms", Name: "Farms", Count: 3},
		{CategoryID: "2", Slug: "museums", Name: "Museums", Count: 0},
	}

	require.NotNil(t, CategoryChart(counts))

	var buf bytes.Buffer
	require.NoError(t, RenderCategoryChart(&buf, counts))

	html := buf.String()
	assert.Contains(t, html, "<html")
	assert.Contains(t, html, categoryChartTitle)
	assert.Contains(t, html, "Farms")
	assert.Contains(t, html, "Museums")
	assert.Contains(t, html, "3 category links across 2 categories")
}

func TestCategoryChartEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderCategoryChart(&buf, nil))
	assert.Contains(t, buf.String(), "0 category links across 0 categories")
}
