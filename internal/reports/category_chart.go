package reports

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/bcnelson/playfinder/pkg/models"
)

const categoryChartTitle = "Activities per category"

// CategoryChart builds a bar chart with one bar per category.
func CategoryChart(counts []models.CategoryCount) *charts.Bar {
	names := make([]string, len(counts))
	data := make([]opts.BarData, len(counts))
	total := 0
	for i, c := range counts {
		names[i] = c.Name
		data[i] = opts.BarData{Name: c.Slug, Value: c.Count}
		total += c.Count
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: categoryChartTitle,
			Width:     "900px",
			Height:    "500px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    categoryChartTitle,
			Subtitle: fmt.Sprintf("%d category links across %d categories", total, len(counts)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)

	bar.SetXAxis(names).AddSeries("Activities", data,
		charts.WithLabelOpts(opts.Label{
			Show:     opts.Bool(true),
			Position: "top",
		}),
	)

	return bar
}

// RenderCategoryChart writes the chart as a standalone HTML page.
func RenderCategoryChart(w io.Writer, counts []models.CategoryCount) error {
	if err := CategoryChart(counts).Render(w); err != nil {
		return fmt.Errorf("failed to render category chart: %w", err)
	}
	return nil
}
