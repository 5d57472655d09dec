package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alexx-ftw/km77-scraper/internal/filter"
	"github.com/alexx-ftw/km77-scraper/internal/ui"
	"github.com/alexx-ftw/km77-scraper/pkg/models"
)

var (
	filterField    string
	filterValue    string
	minCV          float64
	maxAccel       float64
	minCylinders   int
	minGears       int
	discBrakes     bool
	steeringAssist bool
)

// filterCmd represents the filter command
var filterCmd = &cobra.Command{
	Use:   "filter",
	Short: "Query stored trims by their extracted spec and option fields",
	Example: `  # Trims with at least 200 CV that reach 100 km/h in under 7 seconds
  km77 filter --min-cv 200 --max-accel 7

  # Manual gearboxes with six or more gears and disc brakes on both axles
  km77 filter --min-gears 6 --disc-brakes

  # Exact field match
  km77 filter --field "Combustible" --value "Gasolina"`,
	Args: cobra.NoArgs,
	RunE: runFilter,
}

func init() {
	rootCmd.AddCommand(filterCmd)

	filterCmd.Flags().StringVar(&filterField, "field", "", "Field name for an exact match (requires --value)")
	filterCmd.Flags().StringVar(&filterValue, "value", "", "Field value for an exact match")
	filterCmd.Flags().Float64Var(&minCV, "min-cv", 0, "Minimum engine power in CV")
	filterCmd.Flags().Float64Var(&maxAccel, "max-accel", 0, "Maximum 0-100 km/h time in seconds")
	filterCmd.Flags().IntVar(&minCylinders, "min-cylinders", 0, "Minimum number of cylinders")
	filterCmd.Flags().IntVar(&minGears, "min-gears", 0, "Minimum number of gears")
	filterCmd.Flags().BoolVar(&discBrakes, "disc-brakes", false, "Require disc brakes on both axles")
	filterCmd.Flags().BoolVar(&steeringAssist, "steering-assist", false, "Require speed-dependent steering assistance")
}

func buildPredicates() ([]filter.Predicate, error) {
	var preds []filter.Predicate
	if filterField != "" || filterValue != "" {
		if filterField == "" || filterValue == "" {
			return nil, fmt.Errorf("--field and --value must be used together")
		}
		preds = append(preds, filter.ByField(filterField, filterValue))
	}
	if minCV > 0 {
		preds = append(preds, filter.MinPower(minCV))
	}
	if maxAccel > 0 {
		preds = append(preds, filter.MaxAcceleration(maxAccel))
	}
	if minCylinders > 0 {
		preds = append(preds, filter.MinCylinders(minCylinders))
	}
	if minGears > 0 {
		preds = append(preds, filter.MinGears(minGears))
	}
	if discBrakes {
		preds = append(preds, filter.DiscBrakes())
	}
	if steeringAssist {
		preds = append(preds, filter.SteeringAssist())
	}
	if len(preds) == 0 {
		return nil, fmt.Errorf("at least one filter flag is required")
	}
	return preds, nil
}

func runFilter(cmd *cobra.Command, args []string) error {
	preds, err := buildPredicates()
	if err != nil {
		return err
	}

	a := GetApp()
	makes, err := a.Store.LoadAll(cmd.Context())
	if err != nil {
		return err
	}

	var trims []*models.Trim
	for _, mk := range makes {
		for _, m := range mk.Models {
			trims = append(trims, m.Trims...)
		}
	}

	matched := filter.Apply(trims, preds...)
	for _, t := range matched {
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s  %s\n",
			ui.Bold(t.Model.Make.Name),
			t.Model.Name,
			ui.Stage(t.Name),
			ui.Info(t.Production))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s of %d trims matched\n",
		ui.Success(fmt.Sprintf("%d", len(matched))), len(trims))
	return nil
}
