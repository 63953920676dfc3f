package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/spf13/cobra"
)

// reportPaths maps the report command's names to analytics endpoints under /api/v1.
var reportPaths = map[string]string{
	"unified":            "/analytics",
	"overview":           "/analytics/overview",
	"patient-frequency":  "/analytics/patient-frequency",
	"doctor-performance": "/analytics/doctor-performance",
	"monthly-trends":     "/analytics/monthly-trends",
	"department-stats":   "/analytics/department-stats",
	"financial":          "/analytics/financial-report",
	"visit-stats":        "/analytics/visit-stats",
}

// exportIDs maps report names to catalogue IDs for XLSX export.
var exportIDs = map[string]string{
	"overview":           "overview",
	"patient-frequency":  "patient-frequency",
	"doctor-performance": "doctor-performance",
	"monthly-trends":     "monthly-trends",
	"department-stats":   "department-stats",
	"financial":          "financial-report",
	"visit-stats":        "visit-stats",
}

func reportNames() []string {
	names := make([]string, 0, len(reportPaths))
	for name := range reportPaths {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// reportClient fetches analytics from a running server.
type reportClient struct {
	http *resty.Client
}

func newReportClient(baseURL, token string, timeout time.Duration) *reportClient {
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/") + "/api/v1").
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		SetHeader("Accept", "application/json")
	if token != "" {
		client.SetAuthToken(token)
	}
	return &reportClient{http: client}
}

// Fetch returns the JSON body of the named report.
func (c *reportClient) Fetch(ctx context.Context, name string, params map[string]string) (json.RawMessage, error) {
	path, ok := reportPaths[name]
	if !ok {
		return nil, fmt.Errorf("unknown report %q (choose one of %s)", name, strings.Join(reportNames(), ", "))
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(nonEmpty(params)).
		Get(path)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", name, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetch %s: %s: %s", name, resp.Status(), strings.TrimSpace(resp.String()))
	}
	return json.RawMessage(resp.Body()), nil
}

// Export downloads the named report as an XLSX workbook into w.
func (c *reportClient) Export(ctx context.Context, name string, params map[string]string, w io.Writer) error {
	id, ok := exportIDs[name]
	if !ok {
		return fmt.Errorf("report %q has no spreadsheet export", name)
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(nonEmpty(params)).
		Get("/reports/" + id + "/export")
	if err != nil {
		return fmt.Errorf("export %s: %w", name, err)
	}
	if resp.IsError() {
		return fmt.Errorf("export %s: %s: %s", name, resp.Status(), strings.TrimSpace(resp.String()))
	}
	_, err = w.Write(resp.Body())
	return err
}

func nonEmpty(params map[string]string) map[string]string {
	out := make(map[string]string, len(params))
	for k, v := range params {
		if v != "" {
			out[k] = v
		}
	}
	return out
}

func reportCmd() *cobra.Command {
	var (
		server    string
		token     string
		timeRange string
		months    string
		startDate string
		endDate   string
		xlsxPath  string
		timeout   time.Duration
	)

	cmd := &cobra.Command{
		Use:       "report <name>",
		Short:     "Fetch a report from a running server",
		Long:      "Fetch a report from a running server. Reports: " + strings.Join(reportNames(), ", "),
		Args:      cobra.ExactArgs(1),
		ValidArgs: reportNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newReportClient(server, token, timeout)
			params := map[string]string{
				"timeRange": timeRange,
				"months":    months,
				"startDate": startDate,
				"endDate":   endDate,
			}

			if xlsxPath != "" {
				f, err := os.Create(xlsxPath)
				if err != nil {
					return err
				}
				defer f.Close()
				if err := client.Export(cmd.Context(), args[0], params, f); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", xlsxPath)
				return nil
			}

			body, err := client.Fetch(cmd.Context(), args[0], params)
			if err != nil {
				return err
			}
			var out bytes.Buffer
			if err := json.Indent(&out, body, "", "  "); err != nil {
				return fmt.Errorf("decode %s: %w", args[0], err)
			}
			out.WriteByte('\n')
			_, err = out.WriteTo(cmd.OutOrStdout())
			return err
		},
	}

	cmd.Flags().StringVar(&server, "server", "http://localhost:8000", "Base URL of the front desk server")
	cmd.Flags().StringVar(&token, "token", os.Getenv("FRONTDESK_TOKEN"), "Bearer token (defaults to $FRONTDESK_TOKEN)")
	cmd.Flags().StringVar(&timeRange, "range", "", "Range for the unified report: week, month, quarter or year")
	cmd.Flags().StringVar(&months, "months", "", "Number of months for monthly-trends")
	cmd.Flags().StringVar(&startDate, "start", "", "Financial report start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&endDate, "end", "", "Financial report end date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "Download the report as a spreadsheet to this path")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "Request timeout")
	return cmd
}
