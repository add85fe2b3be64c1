package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"

	"investment-dashboard/src/helpers"
	"investment-dashboard/src/models"
	"investment-dashboard/src/query"
	"investment-dashboard/src/render"

	"github.com/spf13/cobra"
)

func viewCmd(configPath *string) *cobra.Command {
	var raw models.MRawFilter
	var asJSON bool

	c := &cobra.Command{
		Use:   "view <name>",
		Short: "Load one view once and print its state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			ctrl, ok := a.Registry.Get(args[0])
			if !ok {
				return fmt.Errorf("unknown view %q (available: %v)", args[0], a.Registry.Names())
			}

			var state models.MViewState
			if filterGiven(cmd) {
				state, err = ctrl.ApplyRawFilter(cmd.Context(), withDefaults(cmd, raw, ctrl.State().Filter))
			} else {
				state, err = ctrl.Refresh(cmd.Context())
			}
			var ve *helpers.ValidationError
			if err != nil && !errors.As(err, &ve) {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				if encErr := enc.Encode(state); encErr != nil {
					return encErr
				}
			} else if renderErr := render.View(os.Stdout, state, render.DefaultTheme(render.IsTerminal(os.Stdout))); renderErr != nil {
				return renderErr
			}

			if ve != nil {
				return ve
			}
			if state.Status == models.ViewError {
				return errors.New("view failed to load")
			}
			return nil
		},
	}

	c.Flags().StringVar(&raw.County, "county", "", "County filter (Fulton, DeKalb, Clayton, Cobb, Atlanta or all)")
	c.Flags().StringVar(&raw.MinScore, "min-score", "", "Minimum investment score (0-100)")
	c.Flags().StringVar(&raw.Status, "status", "", "Property status filter")
	c.Flags().StringVar(&raw.Limit, "limit", "", "Page size (1-"+strconv.Itoa(query.MaxLimit)+")")
	c.Flags().StringVar(&raw.Offset, "offset", "", "Page offset")
	c.Flags().BoolVar(&asJSON, "json", false, "Print the state as JSON")
	return c
}

func filterGiven(cmd *cobra.Command) bool {
	for _, name := range []string{"county", "min-score", "status", "limit", "offset"} {
		if cmd.Flags().Changed(name) {
			return true
		}
	}
	return false
}

// withDefaults keeps the view's default filter for flags that were not given.
func withDefaults(cmd *cobra.Command, raw models.MRawFilter, current models.MFilterState) models.MRawFilter {
	flags := cmd.Flags()
	if !flags.Changed("county") {
		raw.County = current.County
	}
	if !flags.Changed("min-score") && current.MinScore != nil {
		raw.MinScore = strconv.Itoa(*current.MinScore)
	}
	if !flags.Changed("status") {
		raw.Status = current.Status
	}
	if !flags.Changed("limit") && current.Limit != 0 {
		raw.Limit = strconv.Itoa(current.Limit)
	}
	if !flags.Changed("offset") && current.Offset != 0 {
		raw.Offset = strconv.Itoa(current.Offset)
	}
	return raw
}
