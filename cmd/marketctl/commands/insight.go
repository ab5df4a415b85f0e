package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/vanshika/marketplace/internal/recommend"
)

func insightCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "insight", Short: "Recommendations and the admin overview"}

	recs := &cobra.Command{
		Use:   "recommend <userId>",
		Short: "Show Top Picks and Sourced Near You for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.client.Recommendations(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			rows := scoredRows("top pick", r.TopPicks)
			rows = append(rows, scoredRows("near you", r.NearYou)...)
			return a.print(r, []string{"SECTION", "PRODUCT", "NAME", "SCORE"}, rows)
		},
	}

	overview := &cobra.Command{
		Use:   "overview",
		Short: "Platform totals for admins",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ov, err := a.client.Overview(cmd.Context())
			if err != nil {
				return err
			}
			rows := [][]string{
				{"users", strconv.Itoa(ov.Users)},
				{"buyers", strconv.Itoa(ov.Buyers)},
				{"vendors", strconv.Itoa(ov.Vendors)},
				{"products", strconv.Itoa(ov.Products)},
				{"orders", strconv.Itoa(ov.Orders)},
				{"open disputes", strconv.Itoa(ov.OpenDisputes)},
				{"pending kyc", strconv.Itoa(ov.PendingKYC)},
				{"gmv", ov.GMV.StringFixed(2) + " " + ov.Currency},
				{"escrow held", ov.EscrowHeld.StringFixed(2) + " " + ov.Currency},
				{"pending payouts", ov.PendingPayouts.StringFixed(2) + " " + ov.Currency},
			}
			return a.print(ov, []string{"METRIC", "VALUE"}, rows)
		},
	}

	cmd.AddCommand(recs, overview)
	return cmd
}

func scoredRows(section string, items []recommend.Scored) [][]string {
	rows := make([][]string, 0, len(items))
	for _, s := range items {
		rows = append(rows, []string{section, s.Product.ID, s.Product.Name, fmt.Sprintf("%.2f", s.Score)})
	}
	return rows
}

func contentCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "content", Short: "Published pages and deep links"}

	page := &cobra.Command{
		Use:   "page <slug>",
		Short: "Print a published page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.client.Page(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if a.asJSON {
				return a.print(p, nil, nil)
			}
			fmt.Fprintf(a.out, "# %s\n\n%s\n", p.Title, p.Body)
			return nil
		},
	}

	resolve := &cobra.Command{
		Use:   "resolve <path>",
		Short: "Resolve a front-end path to its view",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			route, err := a.client.ResolveView(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.print(route, []string{"VIEW", "PARAM"}, [][]string{{string(route.View), route.Param}})
		},
	}

	cmd.AddCommand(page, resolve)
	return cmd
}
