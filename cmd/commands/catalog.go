package commands

import (
	"fmt"

	"github.com/saadbarghouth2-blip/kids-geo-dashboard/internal/gis/catalog"
)

// Catalog prints the builtin GIS service catalog and presets.
func Catalog() error {
	fmt.Println("Services:")
	for _, s := range catalog.Services() {
		fmt.Printf("  %-26s %-11s %s\n", s.ID, s.Kind, s.URL)
		if s.Description != "" {
			fmt.Printf("  %-26s %s\n", "", s.Description)
		}
	}
	fmt.Println("Presets:")
	for _, p := range catalog.Presets() {
		fmt.Printf("  %-12s %s %s\n", p.ID, p.Icon, p.Label)
	}
	return nil
}
