package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/bcnelson/playfinder/internal/storage"
	"github.com/bcnelson/playfinder/pkg/discovery"
	"github.com/bcnelson/playfinder/pkg/filters"
	"github.com/bcnelson/playfinder/pkg/geo"
	"github.com/bcnelson/playfinder/pkg/models"
)

const defaultNearbyKm = 10

var activitySwitches = []string{"indoor", "outdoor", "free", "help"}

func handleActivityCommand(args []string) {
	if len(args) == 0 || wantsHelp(args) {
		fmt.Printf(`Activity Commands

USAGE:
    playfinder activity <SUBCOMMAND> [OPTIONS]

SUBCOMMANDS:
    list                List venues and events matching the filters
    nearby              Like list, but requires --lat/--lng and sorts by distance
    show <id>           Show one activity
    import <file>       Create or update activities from a JSON array
    delete <id>         Delete an activity
    reindex             Rebuild the Redis geo index from the database

FILTER OPTIONS:
    --kind <venue|event>   Restrict to venues or events
    --lat <lat>            Your latitude
    --lng <lng>            Your longitude
    --max-distance <km>    Only activities within this distance
    --min-age <age>        Youngest child's age ("0" means no bound)
    --max-age <age>        Oldest child's age ("12" means no bound)
    --indoor, --outdoor    Only indoor or only outdoor (both means either)
    --free                 Only free activities
    --category <id|slug>   Only activities in this category
    --from <date>          Events starting on or after (YYYY-MM-DD or RFC3339)
    --to <date>            Events starting on or before
    --search <text>        Match name, description or address
    --sort <order>         distance, name or start
    --limit <n>            Page size (default 50)
    --offset <n>           Page offset

EXAMPLES:
    playfinder activity list --kind event --from 2026-07-01 --to 2026-07-31
    playfinder activity nearby --lat 52.0907 --lng 5.1214 --max-distance 5 --free
    playfinder --format json activity show 3f1c9a2e
    playfinder activity import ./activities.json
`)
		return
	}

	subcommand := args[0]
	subArgs := args[1:]

	switch subcommand {
	case "list":
		executeActivitySearch(parseFlags(subArgs, activitySwitches...), false)
	case "nearby":
		executeActivitySearch(parseFlags(subArgs, activitySwitches...), true)
	case "show":
		executeActivityShow(parseFlags(subArgs))
	case "import":
		executeActivityImport(parseFlags(subArgs))
	case "delete":
		executeActivityDelete(parseFlags(subArgs))
	case "reindex":
		executeActivityReindex()
	default:
		fmt.Printf("Unknown activity subcommand: %s\n", subcommand)
		fmt.Println("Run 'playfinder activity --help' for usage")
		os.Exit(1)
	}
}

// searchRequestFromFlags maps command-line filters onto a search request.
// Like the HTTP API, malformed numbers are passed through and ignored by the
// filter engine.
func searchRequestFromFlags(f commandFlags) (discovery.SearchRequest, error) {
	req := discovery.SearchRequest{
		Kind: models.ActivityKind(f.String("kind")),
		Criteria: filters.Criteria{
			Indoor:      f.Bool("indoor"),
			Outdoor:     f.Bool("outdoor"),
			Free:        f.Bool("free"),
			MinAge:      f.String("min-age"),
			MaxAge:      f.String("max-age"),
			MaxDistance: f.String("max-distance"),
			CategoryID:  f.String("category"),
			StartDate:   f.Time("from", false),
			EndDate:     f.Time("to", true),
		},
		Text:   f.String("search"),
		Sort:   f.String("sort"),
		Limit:  f.Int("limit", 50),
		Offset: f.Int("offset", 0),
	}

	if req.Kind != "" && req.Kind != models.KindVenue && req.Kind != models.KindEvent {
		return req, fmt.Errorf("invalid kind %q (must be venue or event)", req.Kind)
	}
	if !discovery.ValidSort(req.Sort) {
		return req, fmt.Errorf("invalid sort %q (must be distance, name or start)", req.Sort)
	}

	lat, hasLat := f.Float("lat")
	lng, hasLng := f.Float("lng")
	if hasLat && hasLng {
		origin, err := geo.NewPoint(lat, lng)
		if err != nil {
			return req, err
		}
		req.Origin = &origin
	}

	return req, nil
}

func executeActivitySearch(f commandFlags, nearby bool) {
	req, err := searchRequestFromFlags(f)
	if err != nil {
		fail("%v", err)
	}

	a := mustOpenApp(appOptions{})
	defer a.Close()

	if nearby {
		if req.Origin == nil {
			fail("nearby requires --lat and --lng")
		}
		if req.Criteria.MaxDistance == "" && a.config.Filters.DefaultMaxDistanceKm == 0 {
			req.Criteria.MaxDistance = strconv.Itoa(defaultNearbyKm)
		}
		if req.Sort == "" {
			req.Sort = discovery.SortDistance
		}
	}

	if req.Criteria.CategoryID != "" {
		category, err := a.categories.GetByID(context.Background(), req.Criteria.CategoryID)
		if err != nil {
			fail("unknown category %q", req.Criteria.CategoryID)
		}
		req.Criteria.CategoryID = category.ID
	}

	result, err := a.discovery.Search(context.Background(), req)
	if err != nil {
		fail("searching activities: %v", err)
	}

	formatter := NewFormatter(globalConfig.Format)
	Output(formatter, result.Activities)
	if globalConfig.Format == "human" && result.Total > len(result.Activities) {
		fmt.Print(formatter.FormatInfo(fmt.Sprintf("Showing %d of %d; use --offset for more", len(result.Activities), result.Total)))
	}
}

func executeActivityShow(f commandFlags) {
	if len(f.positional) == 0 {
		fail("activity show requires an id")
	}

	a := mustOpenApp(appOptions{})
	defer a.Close()

	var origin *geo.Point
	lat, hasLat := f.Float("lat")
	lng, hasLng := f.Float("lng")
	if hasLat && hasLng {
		if p, err := geo.NewPoint(lat, lng); err == nil {
			origin = &p
		}
	}

	ranked, err := a.discovery.Get(context.Background(), f.positional[0], origin)
	if err != nil {
		fail("getting activity: %v", err)
	}

	Output(NewFormatter(globalConfig.Format), ranked)
}

func executeActivityImport(f commandFlags) {
	if len(f.positional) == 0 {
		fail("activity import requires a JSON file")
	}

	inputs, err := readActivityFile(f.positional[0])
	if err != nil {
		fail("%v", err)
	}

	a := mustOpenApp(appOptions{})
	defer a.Close()

	ctx := context.Background()
	formatter := NewFormatter(globalConfig.Format)
	resolver := newCategoryResolver(a.categories)

	imported, failed := 0, 0
	for i, in := range inputs {
		if err := importActivity(ctx, a.discovery, resolver, in); err != nil {
			failed++
			fmt.Fprint(os.Stderr, formatter.FormatWarning(fmt.Sprintf("record %d (%s): %v", i+1, in.Name, err)))
			continue
		}
		imported++
	}

	fmt.Print(formatter.FormatSuccess(fmt.Sprintf("Imported %d of %d activities", imported, len(inputs))))
	if failed > 0 {
		os.Exit(1)
	}
}

func readActivityFile(path string) ([]discovery.ActivityInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var inputs []discovery.ActivityInput
	if err := json.Unmarshal(data, &inputs); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return inputs, nil
}

func importActivity(ctx context.Context, service *discovery.Service, resolver *categoryResolver, in discovery.ActivityInput) error {
	ids, err := resolver.resolve(ctx, in.CategoryIDs)
	if err != nil {
		return err
	}
	in.CategoryIDs = ids

	activity, err := in.Build()
	if err != nil {
		return err
	}
	return service.SaveActivity(ctx, activity)
}

// categoryResolver maps category ids or slugs in import files to stored
// category ids, creating categories that do not exist yet.
type categoryResolver struct {
	categories *storage.CategoryRepository
	known      map[string]string
}

func newCategoryResolver(categories *storage.CategoryRepository) *categoryResolver {
	return &categoryResolver{categories: categories, known: map[string]string{}}
}

func (r *categoryResolver) resolve(ctx context.Context, refs []string) ([]string, error) {
	ids := make([]string, 0, len(refs))
	for _, ref := range refs {
		if id, ok := r.known[ref]; ok {
			ids = append(ids, id)
			continue
		}

		category, err := r.categories.GetByID(ctx, ref)
		if errors.Is(err, storage.ErrNotFound) {
			category, err = models.NewCategory(ref, models.Slugify(ref))
			if err == nil {
				err = r.categories.Create(ctx, category)
			}
		}
		if err != nil {
			return nil, fmt.Errorf("category %q: %w", ref, err)
		}

		r.known[ref] = category.ID
		ids = append(ids, category.ID)
	}
	return ids, nil
}

func executeActivityDelete(f commandFlags) {
	if len(f.positional) == 0 {
		fail("activity delete requires an id")
	}

	a := mustOpenApp(appOptions{})
	defer a.Close()

	if err := a.discovery.DeleteActivity(context.Background(), f.positional[0]); err != nil {
		fail("deleting activity: %v", err)
	}
	fmt.Print(NewFormatter(globalConfig.Format).FormatSuccess("Activity deleted"))
}

func executeActivityReindex() {
	a := mustOpenApp(appOptions{})
	defer a.Close()

	n, err := a.discovery.Reindex(context.Background())
	if errors.Is(err, discovery.ErrIndexDisabled) {
		fail("the Redis geo index is not enabled or not reachable (see redis in %s)", getConfigPath())
	}
	if err != nil {
		fail("rebuilding geo index: %v", err)
	}
	fmt.Print(NewFormatter(globalConfig.Format).FormatSuccess(fmt.Sprintf("Indexed %d activities", n)))
}
