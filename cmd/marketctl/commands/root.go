// Package commands implements marketctl, an operator CLI over the marketplace REST API.
package commands

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/vanshika/marketplace/internal/config"
	"github.com/vanshika/marketplace/internal/httpclient"
	"github.com/vanshika/marketplace/internal/logging"
	"github.com/vanshika/marketplace/internal/service"
)

// app carries what every subcommand needs once flags are parsed.
type app struct {
	client  *httpclient.Client
	out     io.Writer
	actor   string
	asJSON  bool
	apiURL  string
	timeout time.Duration
}

// Execute runs marketctl against os.Args.
func Execute() error {
	return NewRoot(os.Stdout).Execute()
}

// NewRoot builds the command tree writing results to out.
func NewRoot(out io.Writer) *cobra.Command {
	a := &app{out: out}

	root := &cobra.Command{
		Use:           "marketctl",
		Short:         "Operate the marketplace through its REST API",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if a.apiURL != "" {
				cfg.Client.BaseURL = strings.TrimRight(a.apiURL, "/")
			}
			if a.timeout > 0 {
				cfg.Client.Timeout = a.timeout
			}
			logger := logging.NewWithWriter(cmd.ErrOrStderr(), cfg.Logging)
			a.client = httpclient.New(cfg.Client, logger)
			return nil
		},
	}
	root.SetOut(out)

	root.PersistentFlags().StringVar(&a.apiURL, "api", "", "API base URL (default $MARKET_API_URL)")
	root.PersistentFlags().StringVar(&a.actor, "as", "", "id of the user performing the action")
	root.PersistentFlags().BoolVar(&a.asJSON, "json", false, "print raw JSON instead of tables")
	root.PersistentFlags().DurationVar(&a.timeout, "timeout", 0, "per-request timeout (default $MARKET_API_TIMEOUT)")

	root.AddCommand(
		healthCmd(a),
		listCmd(a),
		userCmd(a),
		productCmd(a),
		cartCmd(a),
		orderCmd(a),
		promoCmd(a),
		disputeCmd(a),
		kycCmd(a),
		payoutCmd(a),
		insightCmd(a),
		contentCmd(a),
	)
	return root
}

func (a *app) requireActor() (string, error) {
	if a.actor == "" {
		return "", fmt.Errorf("this command needs --as <userId>")
	}
	return a.actor, nil
}

// print writes v as indented JSON when --json is set, otherwise as a table of rows.
func (a *app) print(v any, header []string, rows [][]string) error {
	if a.asJSON {
		enc := json.NewEncoder(a.out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

// parseItems reads cart lines written as productId:quantity. A bare id means quantity 1.
func parseItems(specs []string) ([]service.CartItem, error) {
	items := make([]service.CartItem, 0, len(specs))
	for _, spec := range specs {
		id, qty, found := strings.Cut(spec, ":")
		if id == "" {
			return nil, fmt.Errorf("invalid item %q: missing product id", spec)
		}
		n := 1
		if found {
			v, err := strconv.Atoi(qty)
			if err != nil || v <= 0 {
				return nil, fmt.Errorf("invalid item %q: quantity must be a positive integer", spec)
			}
			n = v
		}
		items = append(items, service.CartItem{ProductID: id, Quantity: n})
	}
	return items, nil
}
