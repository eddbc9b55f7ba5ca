package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kalambet/fabula/internal/archive"
	"github.com/kalambet/fabula/internal/config"
	"github.com/kalambet/fabula/internal/storage"
	"github.com/kalambet/fabula/internal/timeline"
)

// --- events ---

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Manage timeline events",
}

var eventsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a timeline event",
	Long: `Add a timeline event.

Examples:
  fabula events add --title "Founding" --date "Year of Ash" --start 1997
  fabula events add --title "The Long Voyage" --date "Spring 1842" \
    --start 1842-04 --end 1842-09 --story "Stelo Vienas" \
    --characters "Ilse, Captain Brandt" --categories war`,
	RunE: func(cmd *cobra.Command, args []string) error {
		req := map[string]any{
			"title":      mustString(cmd, "title"),
			"date_text":  mustString(cmd, "date"),
			"start_date": mustString(cmd, "start"),
			"end_date":   mustString(cmd, "end"),
			"era":        mustString(cmd, "era"),
			"story":      mustString(cmd, "story"),
			"characters": timeline.SplitList(mustString(cmd, "characters")),
			"categories": timeline.SplitList(mustString(cmd, "categories")),
			"notes":      mustString(cmd, "notes"),
		}
		req["sort_index"], _ = cmd.Flags().GetInt("sort-index")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post(cmd.Context(), "/api/events", req)
		if err != nil {
			return err
		}

		var created storage.Event
		if err := decodeJSON(resp, &created); err != nil {
			return err
		}

		printSuccess("Added event %s (%s)", created.ID, created.Title)
		return nil
	},
}

var eventsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List timeline events",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		q := url.Values{}
		for flag, param := range map[string]string{
			"story": "story", "era": "era", "character": "character",
			"category": "category", "query": "q",
		} {
			if v := mustString(cmd, flag); v != "" {
				q.Set(param, v)
			}
		}

		path := "/api/events"
		if len(q) > 0 {
			path += "?" + q.Encode()
		}
		resp, err := client.get(cmd.Context(), path)
		if err != nil {
			return err
		}

		var events []storage.Event
		if err := decodeJSON(resp, &events); err != nil {
			return err
		}

		if len(events) == 0 {
			fmt.Println("No events found.")
			return nil
		}

		for _, e := range events {
			labels := e.DateText
			if e.Story != "" {
				labels += "  " + e.Story
			}
			fmt.Printf("%s  %s  %s\n",
				colorize(colorCyan, e.ID[:min(8, len(e.ID))]),
				colorize(colorBold, e.Title),
				labels,
			)
		}
		return nil
	},
}

var eventsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a single event as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/api/events/"+url.PathEscape(args[0]))
		if err != nil {
			return err
		}

		var event any
		if err := decodeJSON(resp, &event); err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(event)
	},
}

var eventsEditCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Update fields of an event",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		// Only explicitly set flags go into the patch, so untouched
		// fields keep their stored values.
		patch := map[string]any{}
		for flag, field := range map[string]string{
			"title": "title", "date": "date_text", "start": "start_date",
			"end": "end_date", "era": "era", "story": "story", "notes": "notes",
		} {
			if cmd.Flags().Changed(flag) {
				patch[field] = mustString(cmd, flag)
			}
		}
		for flag, field := range map[string]string{
			"characters": "characters", "categories": "categories",
		} {
			if cmd.Flags().Changed(flag) {
				patch[field] = timeline.SplitList(mustString(cmd, flag))
			}
		}
		if cmd.Flags().Changed("sort-index") {
			patch["sort_index"], _ = cmd.Flags().GetInt("sort-index")
		}

		if len(patch) == 0 {
			return fmt.Errorf("nothing to update: pass at least one field flag")
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.patch(cmd.Context(), "/api/events/"+url.PathEscape(args[0]), patch)
		if err != nil {
			return err
		}

		var updated storage.Event
		if err := decodeJSON(resp, &updated); err != nil {
			return err
		}

		printSuccess("Updated event %s (%s)", updated.ID, updated.Title)
		return nil
	},
}

var eventsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an event",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.delete(cmd.Context(), "/api/events/"+url.PathEscape(args[0]))
		if err != nil {
			return err
		}

		var result map[string]string
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		printSuccess("Deleted event %s", args[0])
		return nil
	},
}

func addEventFieldFlags(cmd *cobra.Command) {
	cmd.Flags().String("title", "", "event title")
	cmd.Flags().String("date", "", "freeform date label, e.g. 'Spring 1842'")
	cmd.Flags().String("start", "", "start date: YYYY, YYYY-MM, or YYYY-MM-DD")
	cmd.Flags().String("end", "", "end date, same format")
	cmd.Flags().String("era", "", "era label")
	cmd.Flags().String("story", "", "story label")
	cmd.Flags().String("characters", "", "comma-separated character names")
	cmd.Flags().String("categories", "", "comma-separated category tags")
	cmd.Flags().String("notes", "", "notes or plot summary")
	cmd.Flags().Int("sort-index", 0, "manual ordering override")
}

func init() {
	addEventFieldFlags(eventsAddCmd)
	addEventFieldFlags(eventsEditCmd)

	eventsListCmd.Flags().String("story", "", "filter by exact story label")
	eventsListCmd.Flags().String("era", "", "filter by exact era label")
	eventsListCmd.Flags().String("character", "", "filter by character name")
	eventsListCmd.Flags().String("category", "", "filter by category tag")
	eventsListCmd.Flags().String("query", "", "keyword filter over title, date label, and notes")

	eventsCmd.AddCommand(eventsAddCmd)
	eventsCmd.AddCommand(eventsListCmd)
	eventsCmd.AddCommand(eventsShowCmd)
	eventsCmd.AddCommand(eventsEditCmd)
	eventsCmd.AddCommand(eventsDeleteCmd)
}

func mustString(cmd *cobra.Command, name string) string {
	v, _ := cmd.Flags().GetString(name)
	return v
}

// --- data ---

var dataCmd = &cobra.Command{
	Use:   "data",
	Short: "Export or import the timeline",
}

var dataExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export all events as JSON or CSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		output := mustString(cmd, "output")
		format := mustString(cmd, "format")
		if format != "json" && format != "csv" {
			return fmt.Errorf("format must be json or csv")
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/api/export/"+format)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 400 {
			body, _ := io.ReadAll(resp.Body)
			return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(body))
		}

		var writer *os.File
		if output != "" {
			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("creating output file: %w", err)
			}
			defer f.Close()
			writer = f
		} else {
			writer = os.Stdout
		}

		if _, err := io.Copy(writer, resp.Body); err != nil {
			return fmt.Errorf("writing export: %w", err)
		}

		if output != "" {
			printSuccess("Timeline exported to %s", output)
		}
		return nil
	},
}

var dataImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import events from a JSON or CSV file",
	Long: `Import events from a JSON or CSV file.

By default the import replaces the whole timeline. Use --mode merge to
update events with matching ids and append the rest.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mode := mustString(cmd, "mode")
		if mode != "replace" && mode != "merge" {
			return fmt.Errorf("mode must be replace or merge")
		}

		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading file: %w", err)
		}

		// CSV files are parsed locally and re-encoded, so the server only
		// ever sees the JSON interchange format.
		payload := data
		if strings.HasSuffix(strings.ToLower(args[0]), ".csv") {
			events, err := archive.ReadCSV(bytes.NewReader(data))
			if err != nil {
				return fmt.Errorf("parsing CSV: %w", err)
			}
			payload, err = json.Marshal(events)
			if err != nil {
				return err
			}
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.postRaw(cmd.Context(), "/api/import/json?mode="+mode, "application/json", bytes.NewReader(payload))
		if err != nil {
			return err
		}

		var result struct {
			Status string `json:"status"`
			Mode   string `json:"mode"`
			Count  int    `json:"count"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		printSuccess("Imported %d events (%s)", result.Count, result.Mode)
		return nil
	},
}

func init() {
	dataExportCmd.Flags().String("output", "", "output file path (default: stdout)")
	dataExportCmd.Flags().String("format", "json", "export format: json or csv")
	dataImportCmd.Flags().String("mode", "replace", "import mode: replace or merge")
	dataCmd.AddCommand(dataExportCmd)
	dataCmd.AddCommand(dataImportCmd)
}

// --- profile ---

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage saga metadata",
}

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show saga metadata as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/api/profile")
		if err != nil {
			return err
		}

		var profile any
		if err := decodeJSON(resp, &profile); err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(profile)
	},
}

var profileSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a saga metadata field",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		body := map[string]any{key: value}
		resp, err := client.patch(cmd.Context(), "/api/profile", body)
		if err != nil {
			return err
		}

		var result map[string]string
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

func init() {
	profileCmd.AddCommand(profileShowCmd)
	profileCmd.AddCommand(profileSetCmd)
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		keys := config.ShowAll(cfg)
		for _, k := range keys {
			fmt.Printf("  %s = %s\n", colorize(colorBold, k.Key), k.Value)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
