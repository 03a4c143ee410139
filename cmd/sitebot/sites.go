package main

import (
	"fmt"
	"strconv"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/eringen/sitebot/metadata"
	"github.com/eringen/sitebot/site"
)

func newSitesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sites",
		Short: "Inspect hosted sites",
	}
	cmd.AddCommand(newSitesListCmd())
	return cmd
}

func newSitesListCmd() *cobra.Command {
	var owner int64
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List hosted sites, most recently updated first",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := loadConfig(cmd)
			if err != nil {
				return errors.Errorf("loading config: %w", err)
			}
			if cfg.DataDir == "" {
				cfg.DataDir = "sites"
			}
			store, err := metadata.Open(ctx, metadata.Backend(cfg.MetaBackend), cfg.DataDir, false)
			if err != nil {
				return err
			}
			defer store.Close()

			var sites []site.Site
			if cmd.Flags().Changed("owner") {
				sites, err = store.ListByOwner(ctx, site.UserID(owner))
			} else {
				sites, err = store.List(ctx)
			}
			if err != nil {
				return err
			}
			if len(sites) == 0 {
				pterm.Info.Println("no sites")
				return nil
			}

			base := cfg.BaseURL
			if base == "" {
				base = "http://localhost:3000"
			}
			data := pterm.TableData{{"ID", "OWNER", "SIZE", "CREATED", "UPDATED", "URL"}}
			for _, s := range sites {
				data = append(data, []string{
					s.ID,
					strconv.FormatInt(int64(s.Owner), 10),
					s.SizeLabel(),
					s.CreatedAt.Format("2006-01-02 15:04"),
					s.UpdatedAt.Format("2006-01-02 15:04"),
					s.URL(base),
				})
			}
			if err := pterm.DefaultTable.WithHasHeader().WithData(data).Render(); err != nil {
				return errors.Errorf("rendering table: %w", err)
			}
			pterm.Println(fmt.Sprintf("%d sites", len(sites)))
			return nil
		},
	}
	cmd.Flags().Int64Var(&owner, "owner", 0, "only list sites of this user id")
	addStoreFlags(cmd)
	return cmd
}
