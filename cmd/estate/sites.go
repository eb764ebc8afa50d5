package main

import (
	"fmt"

	"github.com/fwojciec/estate"
)

// Run executes the sites command.
func (c *SitesCmd) Run(deps *Dependencies) error {
	for _, site := range deps.Registry.List() {
		ex, err := deps.Registry.Get(site)
		if err != nil {
			fmt.Fprintf(deps.Stderr, "error: %s\n", estate.ErrorMessage(err))
			return err
		}
		line := fmt.Sprintf("%s  %d seeds", site, len(ex.Seeds()))
		if src, ok := ex.(estate.SitemapSource); ok {
			base, _ := src.Sitemap()
			line += "  sitemap " + base
		}
		fmt.Fprintln(deps.Stdout, line)
	}
	return nil
}
