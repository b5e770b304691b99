package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	wsdiscovery "github.com/quocson95/go-wsdiscovery"
)

var (
	timeoutMs    int
	outputFormat string
	strictParse  bool
	protocol     string
	urlPath      string
	everySource  bool
)

func init() {
	rootCmd.PersistentFlags().IntVar(&timeoutMs, "timeout", int(wsdiscovery.DefaultTimeout/time.Millisecond), "Receive window in milliseconds")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "output", "text", "Output format (text, json, yaml)")
	rootCmd.PersistentFlags().BoolVar(&strictParse, "strict", false, "Stop listening on a source at the first malformed reply")

	allCmd.Flags().BoolVar(&everySource, "every-source", false, "Report every interface that received replies")

	filterCmd.Flags().StringVar(&protocol, "protocol", "", "Regular expression the endpoint scheme must match")
	filterCmd.Flags().StringVar(&urlPath, "path", "", "Regular expression the endpoint path must match")

	rootCmd.AddCommand(allCmd)
	rootCmd.AddCommand(filterCmd)
	rootCmd.AddCommand(hostCmd)
}

var allCmd = &cobra.Command{
	Use:   "all",
	Short: "List every endpoint found",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := newDiscoverer()
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		if everySource {
			var reports []report
			for _, outcome := range d.DiscoverOutcomes(ctx) {
				reports = append(reports, outcomeReport(outcome))
			}
			return render(cmd.OutOrStdout(), outputFormat, reports)
		}
		return render(cmd.OutOrStdout(), outputFormat, []report{urlReport(d.DiscoverAll(ctx))})
	},
}

var filterCmd = &cobra.Command{
	Use:   "filter",
	Short: "List endpoints matching a scheme and path pattern",
	Example: `  # Only plain HTTP endpoints under /onvif
  wsdiscover filter --protocol http --path '/onvif/.*'`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := newDiscoverer()
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		outcome, ok := d.DiscoverFilteredOutcome(ctx, protocol, urlPath)
		return renderOutcome(cmd.OutOrStdout(), outcome, ok)
	},
}

var hostCmd = &cobra.Command{
	Use:   "host <ip>",
	Short: "List endpoints hosted on one IP address",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := newDiscoverer()
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		outcome, ok := d.DiscoverByHost(ctx, args[0])
		return renderOutcome(cmd.OutOrStdout(), outcome, ok)
	},
}

func newDiscoverer() (*wsdiscovery.Discoverer, error) {
	cfg := wsdiscovery.DefaultConfig()
	cfg.Timeout = time.Duration(timeoutMs) * time.Millisecond
	cfg.StrictParse = strictParse
	return wsdiscovery.NewDiscoverer(cfg)
}

type report struct {
	SourceIP  string   `json:"source_ip,omitempty" yaml:"source_ip,omitempty"`
	Endpoints []string `json:"endpoints" yaml:"endpoints"`
}

func outcomeReport(outcome *wsdiscovery.Outcome) report {
	return report{SourceIP: outcome.SourceIP(), Endpoints: outcome.Strings()}
}

func urlReport(urls []*url.URL) report {
	r := report{Endpoints: make([]string, 0, len(urls))}
	for _, u := range urls {
		r.Endpoints = append(r.Endpoints, u.String())
	}
	return r
}

func renderOutcome(w io.Writer, outcome *wsdiscovery.Outcome, ok bool) error {
	if !ok {
		return render(w, outputFormat, nil)
	}
	return render(w, outputFormat, []report{outcomeReport(outcome)})
}

func checkOutputFormat(format string) error {
	switch format {
	case "text", "json", "yaml":
		return nil
	}
	return fmt.Errorf("unknown output format %q", format)
}

func render(w io.Writer, format string, reports []report) error {
	if reports == nil {
		reports = []report{}
	}

	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(reports)
	case "yaml":
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(reports)
	case "text":
		total := 0
		for _, r := range reports {
			if r.SourceIP != "" {
				fmt.Fprintf(w, "Source %s:\n", r.SourceIP)
			}
			for _, endpoint := range r.Endpoints {
				fmt.Fprintf(w, "  %s\n", endpoint)
			}
			total += len(r.Endpoints)
		}
		if total == 0 {
			fmt.Fprintln(w, "No endpoints found")
		}
		return nil
	}
	return fmt.Errorf("unknown output format %q", format)
}
