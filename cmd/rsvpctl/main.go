// Copyright (C) 2026 the quixsi maintainers
// See root-dir/LICENSE for more information

// rsvpctl manages the guest list of a running rsvp server. It always
// goes through the server's HTTP API, never the durable file, so the
// file keeps a single writer even while guests are submitting.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"github.com/quixsi/rsvp/internal/model"
)

var (
	serverURL string
	logger    *slog.Logger
)

func main() {
	logger = slog.New(tint.NewHandler(os.Stderr, &tint.Options{TimeFormat: time.Kitchen}))

	root := &cobra.Command{
		Use:           "rsvpctl",
		Short:         "Manage the guest list of a running rsvp server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&serverURL, "url", "http://127.0.0.1:8080", "base URL of the rsvp server")

	root.AddCommand(addCmd(), listCmd(), statsCmd(), exportCmd())

	if err := root.Execute(); err != nil {
		logger.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func addCmd() *cobra.Command {
	var email, plusOneName string
	var plusOneAllowance int

	cmd := &cobra.Command{
		Use:   "add NAME",
		Short: "Add a new guest with unanswered RSVP fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			form := url.Values{
				"name":               {args[0]},
				"email":              {email},
				"plus_one_name":      {plusOneName},
				"plus_one_allowance": {strconv.Itoa(plusOneAllowance)},
			}
			resp, err := http.PostForm(serverURL+"/api/guests", form)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			switch resp.StatusCode {
			case http.StatusCreated:
				var record model.Record
				if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
					return err
				}
				logger.Info("guest added", "name", record.Name, "plus-one-allowance", record.PlusOneAllowance)
				return nil
			case http.StatusConflict:
				return fmt.Errorf("guest %q already exists", args[0])
			default:
				return apiError(resp)
			}
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "guest's email address")
	cmd.Flags().StringVar(&plusOneName, "plus-one", "", "pre-seeded plus-one name")
	cmd.Flags().IntVar(&plusOneAllowance, "plus-one-allowance", 0, "how many plus ones the guest may bring")
	return cmd
}

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print all guests in guest-list order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := http.Get(serverURL + "/api/guests")
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				return apiError(resp)
			}

			var records []*model.Record
			if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
				return err
			}
			for _, r := range records {
				fmt.Fprintf(cmd.OutOrStdout(), "%-30s %-12s plus-one: %s\n",
					r.Name, r.Attending.String(), plusOneColumn(r))
			}
			logger.Info("guest list", "total", len(records))
			return nil
		},
	}
}

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print current attendance headcounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := http.Get(serverURL + "/api/attendance")
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				return apiError(resp)
			}

			var count model.AttendanceCount
			if err := json.NewDecoder(resp.Body).Decode(&count); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "attending: %d\nrehearsal: %d\nbrunch:    %d\n",
				count.Attending, count.Rehearsal, count.Brunch)
			return nil
		},
	}
}

func exportCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Download the durable CSV snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := http.Get(serverURL + "/api/export")
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				return apiError(resp)
			}

			out := cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				defer f.Close()
				out = f
			}
			n, err := io.Copy(out, resp.Body)
			if err != nil {
				return err
			}
			if output != "" {
				logger.Info("snapshot written", "file", output, "bytes", n)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the snapshot to a file instead of stdout")
	return cmd
}

func plusOneColumn(r *model.Record) string {
	if r.PlusOneName == "" {
		if r.PlusOneAllowance > 0 {
			return "(unnamed)"
		}
		return "-"
	}
	return fmt.Sprintf("%s (%s)", r.PlusOneName, r.PlusOneAttending.String())
}

func apiError(resp *http.Response) error {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil && payload.Error != "" {
		return fmt.Errorf("server responded %s: %s", resp.Status, payload.Error)
	}
	return errors.New("server responded " + resp.Status)
}
