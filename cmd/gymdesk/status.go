// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gymdesk Contributors

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/gymdesk/gymdesk/internal/config"
)

const statusTimeout = 2 * time.Second

// ProbeStatus is the result of one health probe.
type ProbeStatus struct {
	Probe  string `json:"probe"`
	OK     bool   `json:"ok"`
	Code   int    `json:"code,omitempty"`
	Detail string `json:"detail,omitempty"`
	Error  string `json:"error,omitempty"`
}

// statusConfig holds configuration for the status command.
type statusConfig struct {
	addr       string
	jsonOutput bool
}

// NewStatusCmd creates the status subcommand.
func NewStatusCmd() *cobra.Command {
	cfg := &statusConfig{}

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show health status of a running gymdesk server",
		Long: `Query the liveness and readiness probes of a running gymdesk server
on its metrics address and report whether it is running and ready.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd, cfg, http.DefaultClient)
		},
	}

	cmd.Flags().StringVar(&cfg.addr, "addr", "", "metrics address to query (default from config)")
	cmd.Flags().BoolVar(&cfg.jsonOutput, "json", false, "output status as JSON")

	return cmd
}

func runStatus(cmd *cobra.Command, cfg *statusConfig, client *http.Client) error {
	addr := cfg.addr
	if addr == "" {
		loaded, err := config.Read(loadOptions(cmd))
		if err != nil {
			return err
		}
		addr = loaded.Metrics.Addr
	}
	if addr == "" {
		return oops.Code("CONFIG_INVALID").With("key", "metrics.addr").Errorf("metrics address is not configured")
	}

	base := "http://" + addr
	if strings.Contains(addr, "://") {
		base = addr
	}

	statuses := []ProbeStatus{
		queryProbe(cmd.Context(), client, base, "liveness"),
		queryProbe(cmd.Context(), client, base, "readiness"),
	}

	if cfg.jsonOutput {
		data, err := json.MarshalIndent(statuses, "", "  ")
		if err != nil {
			return oops.With("operation", "format status").Wrap(err)
		}
		cmd.Println(string(data))
	} else {
		cmd.Print(formatStatusTable(addr, statuses))
	}

	for _, s := range statuses {
		if !s.OK {
			return oops.Code("SERVER_UNHEALTHY").With("probe", s.Probe).Errorf("%s probe failed", s.Probe)
		}
	}
	return nil
}

func queryProbe(ctx context.Context, client *http.Client, base, probe string) ProbeStatus {
	status := ProbeStatus{Probe: probe}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, statusTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/healthz/"+probe, nil)
	if err != nil {
		status.Error = err.Error()
		return status
	}
	resp, err := client.Do(req)
	if err != nil {
		status.Error = fmt.Sprintf("failed to connect: %v", err)
		return status
	}
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024)) //nolint:errcheck // detail is best effort
	status.Code = resp.StatusCode
	status.Detail = strings.TrimSpace(string(body))
	status.OK = resp.StatusCode == http.StatusOK
	return status
}

func formatStatusTable(addr string, statuses []ProbeStatus) string {
	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)

	_, _ = fmt.Fprintf(w, "SERVER\t%s\n", addr)
	_, _ = fmt.Fprintln(w, "PROBE\tSTATUS\tDETAIL")
	for _, s := range statuses {
		state := "ok"
		detail := s.Detail
		if !s.OK {
			state = "failing"
			if s.Error != "" {
				detail = s.Error
			}
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", s.Probe, state, detail)
	}
	_ = w.Flush()
	return b.String()
}
