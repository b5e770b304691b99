// Wsdiscover probes the local networks for WS-Discovery responders and
// prints the service endpoints they advertise.
//
// Usage:
//
//	wsdiscover [command] [flags]
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/golang/glog"
	"github.com/spf13/cobra"
)

func main() {
	defer glog.Flush()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "wsdiscover",
	Short: "Find WS-Discovery service endpoints on the local networks",
	Long: `Send a WS-Discovery Probe from every site-local IPv4 interface and
print the endpoint addresses (XAddrs) advertised in the replies.

Only the first interface that receives a usable reply is reported unless
--every-source is given.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := checkOutputFormat(outputFormat); err != nil {
			return err
		}
		// glog values come in through pflag; mark the go flag set parsed.
		return flag.CommandLine.Parse(nil)
	},
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().AddGoFlagSet(flag.CommandLine)
}
