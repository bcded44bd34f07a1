package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/zulandar/switchboard/internal/config"
	"github.com/zulandar/switchboard/internal/db"
	"github.com/zulandar/switchboard/internal/journal"
	"github.com/zulandar/switchboard/internal/ticket"
)

func newExportCmd() *cobra.Command {
	var configPath string
	var apiURL string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export bot state to the analytics archive",
		Long:  "Pulls tickets, complaints, and interactions from a running daemon's reporting API and writes them to the configured archive database.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, configPath, apiURL)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "switchboard.yaml", "path to config file")
	cmd.Flags().StringVar(&apiURL, "api", "", "reporting API base URL (default from config report.port)")
	return cmd
}

func runExport(cmd *cobra.Command, configPath, apiURL string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if apiURL == "" {
		apiURL = fmt.Sprintf("http://localhost:%d", cfg.Report.Port)
	}

	gdb, err := db.Connect(cfg.Archive)
	if err != nil {
		return err
	}
	if err := db.AutoMigrate(gdb); err != nil {
		return err
	}

	client := &http.Client{Timeout: 30 * time.Second}
	out := cmd.OutOrStdout()

	var ticketsBody struct {
		Tickets []ticket.Ticket `json:"tickets"`
	}
	if err := fetchJSON(client, apiURL+"/api/reports/tickets", &ticketsBody); err != nil {
		return err
	}
	if err := db.ExportTickets(gdb, ticketsBody.Tickets); err != nil {
		return err
	}
	fmt.Fprintf(out, "Exported %d tickets\n", len(ticketsBody.Tickets))

	var complaintsBody struct {
		Complaints []ticket.ComplaintRecord `json:"complaints"`
	}
	if err := fetchJSON(client, apiURL+"/api/reports/complaints", &complaintsBody); err != nil {
		return err
	}
	if err := db.ExportComplaints(gdb, complaintsBody.Complaints); err != nil {
		return err
	}
	fmt.Fprintf(out, "Exported %d complaints\n", len(complaintsBody.Complaints))

	var interactionsBody struct {
		Interactions []journal.Record `json:"interactions"`
	}
	if err := fetchJSON(client, apiURL+"/api/reports/interactions", &interactionsBody); err != nil {
		return err
	}
	if err := db.ExportInteractions(gdb, interactionsBody.Interactions); err != nil {
		return err
	}
	fmt.Fprintf(out, "Exported %d interactions\n", len(interactionsBody.Interactions))

	return nil
}

// fetchJSON GETs a reporting endpoint and decodes its body.
func fetchJSON(client *http.Client, url string, dest interface{}) error {
	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("sb: fetch %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("sb: fetch %s: status %d", url, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("sb: decode %s: %w", url, err)
	}
	return nil
}
