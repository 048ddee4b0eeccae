// Command results-view prints shared results as a table, filtered and sorted
// the same way the web results table does.
package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/ougirez/boptest/internal/domain"
	"github.com/ougirez/boptest/internal/resultsview"
	"github.com/ougirez/boptest/internal/resultsview/viewmodel"
)

type options struct {
	baseURL  string
	mine     bool
	token    string
	orderBy  string
	desc     bool
	pages    int
	pageSize int

	building string
	filters  resultsview.FilterValues
}

// boundFlag is an optional numeric flag: unset stays nil.
type boundFlag struct{ v **float64 }

func (b boundFlag) String() string {
	if b.v == nil || *b.v == nil {
		return ""
	}
	return strconv.FormatFloat(**b.v, 'g', -1, 64)
}

func (b boundFlag) Set(raw string) error {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%q is not a finite number", raw)
	}
	*b.v = &v
	return nil
}

type listFlag struct{ v *[]string }

func (l listFlag) String() string {
	if l.v == nil {
		return ""
	}
	return strings.Join(*l.v, ",")
}

func (l listFlag) Set(raw string) error {
	*l.v = append(*l.v, raw)
	return nil
}

// scenarioFlag collects key=value pairs.
type scenarioFlag struct{ v map[string]string }

func (s scenarioFlag) String() string {
	pairs := make([]string, 0, len(s.v))
	for k, v := range s.v {
		pairs = append(pairs, k+"="+v)
	}
	sort.Strings(pairs)
	return strings.Join(pairs, ",")
}

func (s scenarioFlag) Set(raw string) error {
	key, value, ok := strings.Cut(raw, "=")
	if !ok || key == "" {
		return fmt.Errorf("%q: want key=value", raw)
	}
	s.v[key] = value
	return nil
}

func main() {
	opts := options{filters: resultsview.FilterValues{Scenario: map[string]string{}}}
	flag.StringVar(&opts.baseURL, "api", "http://localhost:8080/api/v1", "API base url")
	flag.BoolVar(&opts.mine, "mine", false, "list your own results (needs -token)")
	flag.StringVar(&opts.token, "token", "", "auth token")
	flag.StringVar(&opts.orderBy, "sort", string(resultsview.ColumnDateRun), "column to sort by")
	flag.BoolVar(&opts.desc, "desc", true, "sort descending")
	flag.IntVar(&opts.pages, "pages", 1, "number of pages to load")
	flag.IntVar(&opts.pageSize, "limit", 50, "page size")

	flag.StringVar(&opts.building, "building", "", "building type name")
	flag.StringVar(&opts.filters.BoptestVersion, "version", "", "BOPTEST version")
	flag.Var(listFlag{&opts.filters.Tags}, "tag", "required tag, repeatable")
	flag.Var(scenarioFlag{opts.filters.Scenario}, "scenario", "scenario choice as key=value, repeatable")
	flag.Var(boundFlag{&opts.filters.Cost.Min}, "cost-min", "minimum cost")
	flag.Var(boundFlag{&opts.filters.Cost.Max}, "cost-max", "maximum cost")
	flag.Var(boundFlag{&opts.filters.Energy.Min}, "energy-min", "minimum energy use")
	flag.Var(boundFlag{&opts.filters.Energy.Max}, "energy-max", "maximum energy use")
	flag.Var(boundFlag{&opts.filters.ThermalDiscomfort.Min}, "thermal-min", "minimum thermal discomfort")
	flag.Var(boundFlag{&opts.filters.ThermalDiscomfort.Max}, "thermal-max", "maximum thermal discomfort")
	flag.Var(boundFlag{&opts.filters.AQDiscomfort.Min}, "aq-min", "minimum air quality discomfort")
	flag.Var(boundFlag{&opts.filters.AQDiscomfort.Max}, "aq-max", "maximum air quality discomfort")
	flag.Parse()

	if err := run(opts); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(opts options) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	endpoint := "/results/shared"
	if opts.mine {
		endpoint = "/results/mine"
	}
	fetcher := viewmodel.NewHTTPFetcher(opts.baseURL, endpoint, viewmodel.WithAuthToken(opts.token))

	facets, err := fetcher.FetchFacets(ctx)
	if err != nil {
		return fmt.Errorf("fetch facets: %w", err)
	}
	scenarios := resultsview.BuildingScenarios(facets)
	if opts.building != "" {
		if _, ok := scenarios[opts.building]; !ok {
			return fmt.Errorf("unknown building type %q, known: %s", opts.building, strings.Join(buildingNames(scenarios), ", "))
		}
	}
	choices := scenarioChoices(scenarios, opts.building)
	for key, value := range opts.filters.Scenario {
		if !contains(choices[key], value) {
			return fmt.Errorf("scenario %s=%q was never submitted", key, value)
		}
	}

	change := resultsview.FilterChange{BuildingTypeName: opts.building, Filters: opts.filters}
	vm := viewmodel.New(fetcher, opts.pageSize)
	if err := vm.Apply(ctx, resultsview.BuildFilterRequest(change, facets)); err != nil {
		return err
	}
	for i := 1; i < opts.pages && vm.Snapshot().HasNext; i++ {
		if err := vm.LoadMore(ctx); err != nil {
			return err
		}
	}

	order := resultsview.OrderAsc
	if opts.desc {
		order = resultsview.OrderDesc
	}
	snap := vm.Snapshot()
	rows := resultsview.FilterRows(snap.Rows, opts.building, opts.filters)
	rows = resultsview.StableSort(rows, resultsview.GetComparator(order, resultsview.Column(opts.orderBy)))

	printRows(rows)
	printMenu(rows, facets, choices, opts.building)
	if snap.HasNext {
		fmt.Printf("more results after cursor %d\n", *snap.NextCursor)
	}
	return nil
}

func buildingNames(scenarios map[string]map[string][]string) []string {
	names := make([]string, 0, len(scenarios))
	for name := range scenarios {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// scenarioChoices returns the scenario values of one building type, or of all
// of them when building is empty.
func scenarioChoices(scenarios map[string]map[string][]string, building string) map[string][]string {
	if building != "" {
		return scenarios[building]
	}
	var all map[string][]string
	for _, s := range scenarios {
		all = domain.MergeScenario(all, s)
	}
	return all
}

func contains(values []string, v string) bool {
	for _, have := range values {
		if have == v {
			return true
		}
	}
	return false
}

func metric(v float64) string {
	if math.IsNaN(v) {
		return "N/A"
	}
	return fmt.Sprintf("%.4f", v)
}

func printRows(rows []resultsview.Data) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tBUILDING\tDATE RUN\tCOST\tENERGY\tTHERMAL\tAQ\tEMISSIONS\tTIME RATIO\tSCENARIO")
	for _, row := range rows {
		var scenario []string
		for _, entry := range resultsview.BuildScenarioEntries(row.Scenario) {
			scenario = append(scenario, entry.Label+": "+entry.Value)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			row.ID, row.BuildingTypeName, row.DateRun.Format(time.RFC3339),
			metric(row.Cost), metric(row.Energy), metric(row.ThermalDiscomfort),
			metric(row.AQDiscomfort), metric(row.Emissions), metric(row.TimeRatio),
			strings.Join(scenario, "; "))
	}
	_ = w.Flush()
}

// printMenu prints the choices a filter menu would offer for the shown rows.
func printMenu(rows []resultsview.Data, facets []*domain.ResultFacet, choices map[string][]string, building string) {
	keys := make([]string, 0, len(choices))
	for key := range choices {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	menu := resultsview.SetupFilters(resultsview.GetFilterRanges(rows), keys)
	fmt.Printf("cost %g..%g, energy %g..%g, thermal discomfort %g..%g, aq discomfort %g..%g\n",
		*menu.Cost.Min, *menu.Cost.Max,
		*menu.Energy.Min, *menu.Energy.Max,
		*menu.ThermalDiscomfort.Min, *menu.ThermalDiscomfort.Max,
		*menu.AQDiscomfort.Min, *menu.AQDiscomfort.Max)

	for _, key := range keys {
		fmt.Printf("%s (%s): %s\n", resultsview.ScenarioLabel(key), resultsview.ScenarioAllLabel(key), strings.Join(choices[key], ", "))
	}
	if tags := resultsview.CreateTagOptions(rows); len(tags) > 0 {
		fmt.Printf("tags shown: %s\n", strings.Join(tags, ", "))
	}
	if tags := resultsview.FacetTagOptions(facets, building); len(tags) > 0 {
		fmt.Printf("tags submitted: %s\n", strings.Join(tags, ", "))
	}
	if versions := resultsview.CreateVersionOptions(rows); len(versions) > 0 {
		fmt.Printf("versions: %s\n", strings.Join(versions, ", "))
	}
}
