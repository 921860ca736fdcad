package main

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"sorokinportal/internal/catalog"
)

func newCatalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect the course and pet catalog",
	}
	cmd.AddCommand(newCatalogValidateCmd(), newCatalogPetsCmd())
	return cmd
}

func newCatalogValidateCmd() *cobra.Command {
	var coursesPath, petsPath string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check the built-in catalog, or replacement YAML files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := loadCatalog(coursesPath, petsPath)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Catalog OK: %d subjects, %d courses, %d lessons, %d pets, %d eggs\n",
				len(cat.Subjects()), len(cat.Courses()), cat.TotalLessons(),
				len(cat.Pets.Pets()), len(cat.Pets.Eggs()))
			return nil
		},
	}

	cmd.Flags().StringVar(&coursesPath, "courses", "", "courses YAML to validate instead of the built-in one")
	cmd.Flags().StringVar(&petsPath, "pets", "", "pets YAML to validate instead of the built-in one")
	return cmd
}

func newCatalogPetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pets",
		Short: "List eggs with their drop rates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := catalog.Load()
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "EGG\tCOST\tRARITY\tWEIGHT\tPETS")
			for _, egg := range cat.Pets.Eggs() {
				name := egg.Emoji + " " + egg.Name
				if egg.Limited {
					name += " (limited)"
				}
				pool := cat.Pets.Pool(egg.ID)
				for i, weight := range egg.Weights {
					names := make([]string, 0, len(pool[weight.Rarity]))
					for _, pet := range pool[weight.Rarity] {
						names = append(names, fmt.Sprintf("%s x%.2f", pet.Name, pet.XPMultiplier))
					}
					sort.Strings(names)
					if i == 0 {
						fmt.Fprintf(w, "%s\t%d\t%s\t%d%%\t%s\n", name, egg.Cost, weight.Rarity, weight.Weight, strings.Join(names, ", "))
					} else {
						fmt.Fprintf(w, "\t\t%s\t%d%%\t%s\n", weight.Rarity, weight.Weight, strings.Join(names, ", "))
					}
				}
			}
			return w.Flush()
		},
	}
}

// loadCatalog parses the given files, falling back to the embedded data for any left empty
func loadCatalog(coursesPath, petsPath string) (*catalog.Catalog, error) {
	if coursesPath == "" && petsPath == "" {
		return catalog.Load()
	}

	builtin, err := catalog.RawData()
	if err != nil {
		return nil, err
	}
	courses, pets := builtin.Courses, builtin.Pets
	if coursesPath != "" {
		if courses, err = os.ReadFile(coursesPath); err != nil {
			return nil, fmt.Errorf("failed to read courses file: %w", err)
		}
	}
	if petsPath != "" {
		if pets, err = os.ReadFile(petsPath); err != nil {
			return nil, fmt.Errorf("failed to read pets file: %w", err)
		}
	}
	return catalog.Parse(courses, pets)
}
