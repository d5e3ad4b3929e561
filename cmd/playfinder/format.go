package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/bcnelson/playfinder/internal/storage"
	"github.com/bcnelson/playfinder/pkg/filters"
	"github.com/bcnelson/playfinder/pkg/models"
)

const (
	ColorReset  = "\033[0m"
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorBlue   = "\033[34m"
	ColorCyan   = "\033[36m"
	ColorBold   = "\033[1m"
	ColorDim    = "\033[2m"
)

type Formatter interface {
	FormatActivities(activities []filters.Ranked) string
	FormatActivity(activity filters.Ranked) string
	FormatCategories(categories []models.Category) string
	FormatMigrations(migrations []storage.MigrationStatus) string
	FormatUser(user models.User) string
	FormatError(err error) string
	FormatSuccess(message string) string
	FormatWarning(message string) string
	FormatInfo(message string) string
}

func NewFormatter(format string) Formatter {
	switch format {
	case "json":
		return &JSONFormatter{}
	case "table":
		return &TableFormatter{}
	default:
		return &HumanFormatter{}
	}
}

// JSON Formatter
type JSONFormatter struct{}

func (f *JSONFormatter) marshal(v interface{}) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return f.FormatError(err)
	}
	return string(data) + "\n"
}

func (f *JSONFormatter) FormatActivities(activities []filters.Ranked) string {
	if activities == nil {
		activities = []filters.Ranked{}
	}
	return f.marshal(activities)
}

func (f *JSONFormatter) FormatActivity(activity filters.Ranked) string {
	return f.marshal(activity)
}

func (f *JSONFormatter) FormatCategories(categories []models.Category) string {
	if categories == nil {
		categories = []models.Category{}
	}
	return f.marshal(categories)
}

func (f *JSONFormatter) FormatMigrations(migrations []storage.MigrationStatus) string {
	return f.marshal(migrations)
}

func (f *JSONFormatter) FormatUser(user models.User) string {
	return f.marshal(user)
}

func (f *JSONFormatter) FormatError(err error) string {
	data, _ := json.MarshalIndent(map[string]string{"error": err.Error(), "type": "error"}, "", "  ")
	return string(data) + "\n"
}

func (f *JSONFormatter) FormatSuccess(message string) string {
	return f.message("success", message)
}

func (f *JSONFormatter) FormatWarning(message string) string {
	return f.message("warning", message)
}

func (f *JSONFormatter) FormatInfo(message string) string {
	return f.message("info", message)
}

func (f *JSONFormatter) message(kind, message string) string {
	data, _ := json.MarshalIndent(map[string]string{"message": message, "type": kind}, "", "  ")
	return string(data) + "\n"
}

// Table Formatter
type TableFormatter struct{}

func (f *TableFormatter) FormatActivities(activities []filters.Ranked) string {
	if len(activities) == 0 {
		return "No activities found.\n"
	}

	var sb strings.Builder
	w := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)

	fmt.Fprintf(w, "ID\tName\tKind\tAges\tPrice\tSetting\tStarts\tDistance\n")
	fmt.Fprintf(w, "--\t----\t----\t----\t-----\t-------\t------\t--------\n")

	for _, r := range activities {
		a := r.Activity
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			truncateString(a.ID, 8),
			truncateString(a.Name, 30),
			a.Kind,
			ageRange(a),
			priceLabel(a),
			settingLabel(a),
			startLabel(a, "2006-01-02 15:04"),
			distanceLabel(r))
	}

	w.Flush()
	return sb.String()
}

func (f *TableFormatter) FormatActivity(r filters.Ranked) string {
	a := r.Activity

	var sb strings.Builder
	w := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)

	fmt.Fprintf(w, "Field\tValue\n")
	fmt.Fprintf(w, "-----\t-----\n")
	fmt.Fprintf(w, "ID\t%s\n", a.ID)
	fmt.Fprintf(w, "Name\t%s\n", a.Name)
	fmt.Fprintf(w, "Kind\t%s\n", a.Kind)
	fmt.Fprintf(w, "Address\t%s\n", a.Address)
	fmt.Fprintf(w, "Coordinates\t%.6f, %.6f\n", a.Latitude, a.Longitude)
	fmt.Fprintf(w, "Ages\t%s\n", ageRange(a))
	fmt.Fprintf(w, "Price\t%s\n", priceLabel(a))
	fmt.Fprintf(w, "Setting\t%s\n", settingLabel(a))
	if len(a.CategoryIDs) > 0 {
		fmt.Fprintf(w, "Categories\t%s\n", strings.Join(a.CategoryIDs, ", "))
	}
	if a.StartsAt != nil {
		fmt.Fprintf(w, "Starts\t%s\n", startLabel(a, "2006-01-02 15:04"))
	}
	if r.Distance != nil {
		fmt.Fprintf(w, "Distance\t%s\n", distanceLabel(r))
	}

	w.Flush()
	return sb.String()
}

func (f *TableFormatter) FormatCategories(categories []models.Category) string {
	if len(categories) == 0 {
		return "No categories found.\n"
	}

	var sb strings.Builder
	w := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)

	fmt.Fprintf(w, "ID\tSlug\tName\tOrder\n")
	fmt.Fprintf(w, "--\t----\t----\t-----\n")
	for _, c := range categories {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", truncateString(c.ID, 8), c.Slug, c.Name, c.SortOrder)
	}

	w.Flush()
	return sb.String()
}

func (f *TableFormatter) FormatMigrations(migrations []storage.MigrationStatus) string {
	var sb strings.Builder
	w := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)

	fmt.Fprintf(w, "ID\tName\tStatus\tApplied At\n")
	fmt.Fprintf(w, "--\t----\t------\t----------\n")
	for _, m := range migrations {
		status, appliedAt := "pending", "-"
		if m.Applied {
			status = "applied"
			appliedAt = m.AppliedAt.Format("2006-01-02 15:04")
		}
		fmt.Fprintf(w, "%03d\t%s\t%s\t%s\n", m.ID, m.Name, status, appliedAt)
	}

	w.Flush()
	return sb.String()
}

func (f *TableFormatter) FormatUser(user models.User) string {
	var sb strings.Builder
	w := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)

	fmt.Fprintf(w, "Field\tValue\n")
	fmt.Fprintf(w, "-----\t-----\n")
	fmt.Fprintf(w, "ID\t%s\n", user.ID)
	fmt.Fprintf(w, "Email\t%s\n", user.Email)
	fmt.Fprintf(w, "Name\t%s\n", user.DisplayName)
	fmt.Fprintf(w, "Admin\t%t\n", user.IsAdmin)

	w.Flush()
	return sb.String()
}

func (f *TableFormatter) FormatError(err error) string {
	return fmt.Sprintf("ERROR: %s\n", err.Error())
}

func (f *TableFormatter) FormatSuccess(message string) string {
	return fmt.Sprintf("SUCCESS: %s\n", message)
}

func (f *TableFormatter) FormatWarning(message string) string {
	return fmt.Sprintf("WARNING: %s\n", message)
}

func (f *TableFormatter) FormatInfo(message string) string {
	return fmt.Sprintf("INFO: %s\n", message)
}

// Human-Readable Formatter
type HumanFormatter struct{}

func (f *HumanFormatter) FormatActivities(activities []filters.Ranked) string {
	if len(activities) == 0 {
		return f.colorize(ColorDim, "No activities found.\n")
	}

	var sb strings.Builder
	sb.WriteString(f.colorize(ColorBold, fmt.Sprintf("Found %d activit%s:\n\n", len(activities), plural(len(activities), "y", "ies"))))

	for i, r := range activities {
		a := r.Activity
		sb.WriteString(fmt.Sprintf("%d. %s", i+1, f.colorize(ColorBold, a.Name)))
		if r.Distance != nil {
			sb.WriteString(f.colorize(ColorCyan, " ("+distanceLabel(r)+")"))
		}
		if a.IsFree {
			sb.WriteString(f.colorize(ColorGreen, " free"))
		}
		sb.WriteString("\n")

		details := []string{settingLabel(a), "ages " + ageRange(a)}
		if a.StartsAt != nil {
			details = append(details, startLabel(a, "Mon Jan 2, 15:04"))
		}
		sb.WriteString(f.colorize(ColorDim, "   "+strings.Join(details, " · ")+"\n"))
		if a.Address != "" {
			sb.WriteString(f.colorize(ColorDim, "   "+a.Address+"\n"))
		}
	}

	return sb.String()
}

func (f *HumanFormatter) FormatActivity(r filters.Ranked) string {
	a := r.Activity

	var sb strings.Builder
	sb.WriteString(f.colorize(ColorBold, fmt.Sprintf("%s\n", a.Name)))
	sb.WriteString(f.colorize(ColorDim, fmt.Sprintf("ID: %s (%s)\n", a.ID, a.Kind)))

	if a.Description != "" {
		sb.WriteString(fmt.Sprintf("\n%s\n", a.Description))
	}

	sb.WriteString("\n")
	if a.Address != "" {
		sb.WriteString(fmt.Sprintf("Address: %s\n", a.Address))
	}
	sb.WriteString(fmt.Sprintf("Coordinates: %.6f, %.6f\n", a.Latitude, a.Longitude))
	if r.Distance != nil {
		sb.WriteString(fmt.Sprintf("Distance: %s\n", f.colorize(ColorCyan, distanceLabel(r))))
	}
	sb.WriteString(fmt.Sprintf("Ages: %s\n", ageRange(a)))
	sb.WriteString(fmt.Sprintf("Price: %s\n", priceLabel(a)))
	sb.WriteString(fmt.Sprintf("Setting: %s\n", settingLabel(a)))
	if len(a.CategoryIDs) > 0 {
		sb.WriteString(fmt.Sprintf("Categories: %s\n", strings.Join(a.CategoryIDs, ", ")))
	}
	if a.StartsAt != nil {
		sb.WriteString(fmt.Sprintf("Starts: %s\n", startLabel(a, "Monday, January 2, 2006 at 3:04 PM")))
	}
	if a.EndsAt != nil {
		sb.WriteString(fmt.Sprintf("Ends: %s\n", a.EndsAt.Format("Monday, January 2, 2006 at 3:04 PM")))
	}
	if a.Website != "" {
		sb.WriteString(fmt.Sprintf("Website: %s\n", a.Website))
	}

	return sb.String()
}

func (f *HumanFormatter) FormatCategories(categories []models.Category) string {
	if len(categories) == 0 {
		return f.colorize(ColorDim, "No categories found.\n")
	}

	var sb strings.Builder
	sb.WriteString(f.colorize(ColorBold, fmt.Sprintf("Found %d categor%s:\n\n", len(categories), plural(len(categories), "y", "ies"))))
	for i, c := range categories {
		sb.WriteString(fmt.Sprintf("%d. %s %s\n", i+1, f.colorize(ColorBold, c.Name), f.colorize(ColorDim, "("+c.Slug+")")))
	}

	return sb.String()
}

func (f *HumanFormatter) FormatMigrations(migrations []storage.MigrationStatus) string {
	if len(migrations) == 0 {
		return f.colorize(ColorDim, "No migrations found.\n")
	}

	var sb strings.Builder
	sb.WriteString(f.colorize(ColorBold, "Migration Status:\n"))
	for _, m := range migrations {
		if m.Applied {
			sb.WriteString(f.colorize(ColorGreen, fmt.Sprintf("  ✓ %03d %s", m.ID, m.Name)))
			sb.WriteString(f.colorize(ColorDim, fmt.Sprintf(" (applied %s)\n", m.AppliedAt.Format("2006-01-02 15:04"))))
		} else {
			sb.WriteString(f.colorize(ColorYellow, fmt.Sprintf("  ○ %03d %s (pending)\n", m.ID, m.Name)))
		}
	}

	return sb.String()
}

func (f *HumanFormatter) FormatUser(user models.User) string {
	var sb strings.Builder

	sb.WriteString(f.colorize(ColorBold, fmt.Sprintf("User: %s", user.Email)))
	if user.IsAdmin {
		sb.WriteString(f.colorize(ColorYellow, " (Administrator)"))
	}
	sb.WriteString("\n")
	if user.DisplayName != "" {
		sb.WriteString(fmt.Sprintf("Name: %s\n", user.DisplayName))
	}
	sb.WriteString(fmt.Sprintf("ID: %s\n", user.ID))
	sb.WriteString(fmt.Sprintf("Created: %s\n", user.CreatedAt.Format("Monday, January 2, 2006")))

	return sb.String()
}

func (f *HumanFormatter) FormatError(err error) string {
	return f.colorize(ColorRed, fmt.Sprintf("✗ Error: %s\n", err.Error()))
}

func (f *HumanFormatter) FormatSuccess(message string) string {
	return f.colorize(ColorGreen, fmt.Sprintf("✓ %s\n", message))
}

func (f *HumanFormatter) FormatWarning(message string) string {
	return f.colorize(ColorYellow, fmt.Sprintf("! %s\n", message))
}

func (f *HumanFormatter) FormatInfo(message string) string {
	return f.colorize(ColorBlue, fmt.Sprintf("%s\n", message))
}

func (f *HumanFormatter) colorize(color, text string) string {
	if globalConfig.NoColor {
		return text
	}
	return color + text + ColorReset
}

// Utility functions

func ageRange(a models.Activity) string {
	switch {
	case a.AgeMin == nil && a.AgeMax == nil:
		return "all"
	case a.AgeMax == nil:
		return strconv.Itoa(*a.AgeMin) + "+"
	case a.AgeMin == nil:
		return "up to " + strconv.Itoa(*a.AgeMax)
	default:
		return fmt.Sprintf("%d-%d", *a.AgeMin, *a.AgeMax)
	}
}

func priceLabel(a models.Activity) string {
	switch {
	case a.IsFree:
		return "free"
	case a.PriceMin != nil && a.PriceMax != nil && *a.PriceMin != *a.PriceMax:
		return fmt.Sprintf("€%.2f-%.2f", *a.PriceMin, *a.PriceMax)
	case a.PriceMin != nil:
		return fmt.Sprintf("€%.2f", *a.PriceMin)
	case a.PriceMax != nil:
		return fmt.Sprintf("up to €%.2f", *a.PriceMax)
	default:
		return "N/A"
	}
}

func settingLabel(a models.Activity) string {
	switch {
	case a.IsIndoor && a.IsOutdoor:
		return "indoor & outdoor"
	case a.IsIndoor:
		return "indoor"
	case a.IsOutdoor:
		return "outdoor"
	default:
		return "N/A"
	}
}

func startLabel(a models.Activity, layout string) string {
	if a.StartsAt == nil {
		return "N/A"
	}
	return a.StartsAt.Local().Format(layout)
}

func distanceLabel(r filters.Ranked) string {
	if r.Distance == nil {
		return "N/A"
	}
	if *r.Distance < 1 {
		return fmt.Sprintf("%.0f m", *r.Distance*1000)
	}
	return fmt.Sprintf("%.1f km", *r.Distance)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

// Output prints v with the formatter selected by --format. Unknown types
// fall back to JSON.
func Output(formatter Formatter, v interface{}) {
	var output string

	switch data := v.(type) {
	case []filters.Ranked:
		output = formatter.FormatActivities(data)
	case filters.Ranked:
		output = formatter.FormatActivity(data)
	case []models.Category:
		output = formatter.FormatCategories(data)
	case []storage.MigrationStatus:
		output = formatter.FormatMigrations(data)
	case models.User:
		output = formatter.FormatUser(data)
	default:
		if b, err := json.MarshalIndent(data, "", "  "); err == nil {
			output = string(b) + "\n"
		} else {
			output = formatter.FormatError(fmt.Errorf("unable to format data: %v", data))
		}
	}

	fmt.Print(output)
}
