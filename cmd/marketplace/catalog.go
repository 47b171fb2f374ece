package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/wenwu/saas-platform/marketplace-service/internal/catalog"
	"github.com/wenwu/saas-platform/marketplace-service/internal/config"
	"github.com/wenwu/saas-platform/marketplace-service/internal/pricing"
)

var (
	catalogDir string
	catalogHub string
)

type catalogSummary struct {
	HubVendor    string        `yaml:"hub_vendor"`
	Company      string        `yaml:"company"`
	Integrations []string      `yaml:"integrations"`
	Categories   []string      `yaml:"categories"`
	Currency     string        `yaml:"currency"`
	Tiers        []tierSummary `yaml:"tiers"`
}

type tierSummary struct {
	ID             string   `yaml:"id"`
	Name           string   `yaml:"name"`
	Price          string   `yaml:"price"`
	SyncFrequency []string `yaml:"sync_frequency"`
}

func catalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect the integration catalog",
	}
	cmd.PersistentFlags().StringVar(&catalogDir, "dir", "", "catalog directory (defaults to CATALOG_DIR or the built-in catalog)")
	cmd.PersistentFlags().StringVar(&catalogHub, "hub", "", "hub vendor id (defaults to TEMPLATE_HUB_VENDOR)")

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print a summary of the catalog as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			provider, err := loadCatalog()
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(summarize(provider))
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Check that the catalog loads and every tier is reachable",
		RunE: func(cmd *cobra.Command, args []string) error {
			provider, err := loadCatalog()
			if err != nil {
				return err
			}
			tiers := provider.PricingTiers()
			for _, tier := range tiers {
				if len(tier.Criteria.SyncFrequency) == 0 {
					return fmt.Errorf("pricing tier %q has no sync frequencies and can never be selected", tier.ID)
				}
				for _, freq := range tier.Criteria.SyncFrequency {
					if got, ok := pricing.Resolve(tiers, freq); ok && got.ID != tier.ID {
						cmd.Printf("warning: sync frequency %q of tier %q resolves to %q\n", freq, tier.ID, got.ID)
					}
				}
			}
			cmd.Printf("catalog ok: %d integrations, %d pricing tiers\n", len(provider.SpokeIntegrations()), len(tiers))
			return nil
		},
	})

	return cmd
}

func loadCatalog() (*catalog.Provider, error) {
	cfg := config.Load()
	dir := cfg.Catalog.Dir
	if catalogDir != "" {
		dir = catalogDir
	}
	hub := cfg.Catalog.HubVendorID
	if catalogHub != "" {
		hub = catalogHub
	}
	return catalog.Load(catalog.OpenFS(dir), hub)
}

func summarize(p *catalog.Provider) catalogSummary {
	hub := p.HubVendor()
	pc := p.Pricing()

	s := catalogSummary{
		HubVendor:  hub.Name,
		Company:    p.Branding().CompanyName,
		Categories: p.Categories(),
		Currency:   pc.Currency,
	}
	for _, spoke := range hub.SpokeIntegrations {
		s.Integrations = append(s.Integrations, spoke.ID)
	}
	for _, t := range pc.Tiers {
		s.Tiers = append(s.Tiers, tierSummary{
			ID:            t.ID,
			Name:          t.Name,
			Price:         pricing.FormatPrice(t.Price, t.Interval),
			SyncFrequency: t.Criteria.SyncFrequency,
		})
	}
	return s
}
