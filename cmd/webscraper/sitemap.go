package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"webscraper/pkg/ui"
	"webscraper/pkg/webscraper"
)

var sitemapFile string

// sitemapCmd represents the sitemap command
var sitemapCmd = &cobra.Command{
	Use:   "sitemap",
	Short: "Manage sitemaps",
	Long: `Create, inspect, update and delete sitemaps.

A sitemap is the scraping configuration that scraping jobs run against.
Sitemap definitions are the JSON documents exported from the Web Scraper
browser extension.`,
}

var sitemapCreateCmd = &cobra.Command{
	Use:   "create --file sitemap.json",
	Short: "Create a sitemap from a JSON definition",
	Example: `  # Create from a file
  webscraper sitemap create --file sitemap.json

  # Read the definition from stdin
  cat sitemap.json | webscraper sitemap create --file -`,
	Args: cobra.NoArgs,
	RunE: runSitemapCreate,
}

var sitemapGetCmd = &cobra.Command{
	Use:   "get <sitemap-id>",
	Short: "Show a sitemap and its definition",
	Args:  cobra.ExactArgs(1),
	RunE:  runSitemapGet,
}

var sitemapListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all sitemaps",
	Args:  cobra.NoArgs,
	RunE:  runSitemapList,
}

var sitemapUpdateCmd = &cobra.Command{
	Use:   "update <sitemap-id> --file sitemap.json",
	Short: "Replace a sitemap definition",
	Args:  cobra.ExactArgs(1),
	RunE:  runSitemapUpdate,
}

var sitemapDeleteCmd = &cobra.Command{
	Use:   "delete <sitemap-id>",
	Short: "Delete a sitemap and its scraping jobs",
	Args:  cobra.ExactArgs(1),
	RunE:  runSitemapDelete,
}

func init() {
	rootCmd.AddCommand(sitemapCmd)
	sitemapCmd.AddCommand(sitemapCreateCmd)
	sitemapCmd.AddCommand(sitemapGetCmd)
	sitemapCmd.AddCommand(sitemapListCmd)
	sitemapCmd.AddCommand(sitemapUpdateCmd)
	sitemapCmd.AddCommand(sitemapDeleteCmd)

	for _, cmd := range []*cobra.Command{sitemapCreateCmd, sitemapUpdateCmd} {
		cmd.Flags().StringVarP(&sitemapFile, "file", "f", "", "sitemap definition file, - for stdin")
		_ = cmd.MarkFlagRequired("file")
	}
}

// readSitemapDefinition reads and checks a JSON sitemap definition
func readSitemapDefinition(cmd *cobra.Command) (webscraper.SitemapDefinition, error) {
	var (
		data []byte
		err  error
	)
	if sitemapFile == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(sitemapFile)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read sitemap definition: %w", err)
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("sitemap definition %s is not valid JSON", sitemapFile)
	}
	return webscraper.SitemapDefinition(data), nil
}

func runSitemapCreate(cmd *cobra.Command, args []string) error {
	definition, err := readSitemapDefinition(cmd)
	if err != nil {
		return err
	}

	client, _, err := newClient(nil)
	if err != nil {
		return err
	}

	created, err := client.CreateSitemap(cmd.Context(), definition)
	if err != nil {
		return fmt.Errorf("failed to create sitemap: %w", err)
	}

	return render(cmd, created, func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "Sitemap created: %d\n", created.ID)
		return err
	})
}

func runSitemapGet(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0], "sitemap")
	if err != nil {
		return err
	}

	client, _, err := newClient(nil)
	if err != nil {
		return err
	}

	sitemap, err := client.GetSitemap(cmd.Context(), id)
	if err != nil {
		return fmt.Errorf("failed to get sitemap %d: %w", id, err)
	}

	return render(cmd, sitemap, func(w io.Writer) error {
		fmt.Fprintf(w, "ID:    %d\n", sitemap.ID)
		fmt.Fprintf(w, "Name:  %s\n", sitemap.Name)
		if sitemap.Sitemap != "" {
			fmt.Fprintln(w, "Definition:")
			fmt.Fprintln(w, sitemap.Sitemap)
		}
		return nil
	})
}

func runSitemapList(cmd *cobra.Command, args []string) error {
	client, _, err := newClient(nil)
	if err != nil {
		return err
	}

	sitemaps, err := client.GetSitemaps().Collect(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list sitemaps: %w", err)
	}

	return render(cmd, sitemaps, func(w io.Writer) error {
		if len(sitemaps) == 0 {
			fmt.Fprintln(w, "No sitemaps found")
			return nil
		}

		table := newTable(w, "ID", "Name")
		for _, sitemap := range sitemaps {
			_ = table.Append([]string{strconv.Itoa(sitemap.ID), sitemap.Name})
		}
		return table.Render()
	})
}

func runSitemapUpdate(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0], "sitemap")
	if err != nil {
		return err
	}
	definition, err := readSitemapDefinition(cmd)
	if err != nil {
		return err
	}

	client, _, err := newClient(nil)
	if err != nil {
		return err
	}

	if err := client.UpdateSitemap(cmd.Context(), id, definition); err != nil {
		return fmt.Errorf("failed to update sitemap %d: %w", id, err)
	}
	ui.PrintSuccess(fmt.Sprintf("Sitemap updated: %d", id))
	return nil
}

func runSitemapDelete(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0], "sitemap")
	if err != nil {
		return err
	}

	client, _, err := newClient(nil)
	if err != nil {
		return err
	}

	if err := client.DeleteSitemap(cmd.Context(), id); err != nil {
		return fmt.Errorf("failed to delete sitemap %d: %w", id, err)
	}
	ui.PrintSuccess(fmt.Sprintf("Sitemap deleted: %d", id))
	return nil
}
