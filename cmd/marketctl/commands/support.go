package commands

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/vanshika/marketplace/internal/domain"
	"github.com/vanshika/marketplace/internal/service"
)

func disputeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "dispute", Short: "Buyer disputes and the support queue"}

	var reason string
	open := &cobra.Command{
		Use:   "open <orderId>",
		Short: "Open a dispute on an order as the acting buyer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := a.requireActor()
			if err != nil {
				return err
			}
			d, err := a.client.OpenDispute(cmd.Context(), service.OpenDisputeInput{OrderID: args[0], BuyerID: actor, Reason: reason})
			if err != nil {
				return err
			}
			return a.printDisputes(d)
		},
	}
	open.Flags().StringVar(&reason, "reason", "", "what went wrong")

	queue := &cobra.Command{
		Use:   "queue",
		Short: "Show unresolved disputes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			disputes, err := a.client.SupportQueue(cmd.Context())
			if err != nil {
				return err
			}
			return a.printDisputes(disputes...)
		},
	}

	var assignee string
	assign := &cobra.Command{
		Use:   "assign <disputeId>",
		Short: "Take a dispute into review",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := a.requireActor()
			if err != nil {
				return err
			}
			d, err := a.client.AssignDispute(cmd.Context(), actor, args[0], assignee)
			if err != nil {
				return err
			}
			return a.printDisputes(d)
		},
	}
	assign.Flags().StringVar(&assignee, "to", "", "staff member to assign (default: yourself)")

	var in service.ResolveDisputeInput
	var outcome string
	resolve := &cobra.Command{
		Use:   "resolve <disputeId>",
		Short: "Close a dispute with refund_buyer or release_vendor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := a.requireActor()
			if err != nil {
				return err
			}
			in.Outcome = domain.DisputeOutcome(outcome)
			d, err := a.client.ResolveDispute(cmd.Context(), actor, args[0], in)
			if err != nil {
				return err
			}
			return a.printDisputes(d)
		},
	}
	resolve.Flags().StringVar(&outcome, "outcome", "", "refund_buyer or release_vendor")
	resolve.Flags().StringVar(&in.Resolution, "note", "", "resolution notes")
	_ = resolve.MarkFlagRequired("outcome")

	cmd.AddCommand(open, queue, assign, resolve)
	return cmd
}

func (a *app) printDisputes(disputes ...domain.Dispute) error {
	rows := make([][]string, 0, len(disputes))
	for _, d := range disputes {
		rows = append(rows, []string{
			d.ID, d.OrderID, d.BuyerID, strings.Join(d.VendorIDs, ","), string(d.Status), d.AssignedTo, string(d.Outcome),
		})
	}
	var v any = disputes
	if len(disputes) == 1 {
		v = disputes[0]
	}
	return a.print(v, []string{"ID", "ORDER", "BUYER", "VENDORS", "STATUS", "ASSIGNED", "OUTCOME"}, rows)
}

func kycCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "kyc", Short: "Identity verification"}

	var in service.KYCInput
	submit := &cobra.Command{
		Use:   "submit",
		Short: "Submit a document for the acting user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := a.requireActor()
			if err != nil {
				return err
			}
			in.UserID = actor
			sub, err := a.client.SubmitKYC(cmd.Context(), in)
			if err != nil {
				return err
			}
			return a.printKYC(sub)
		},
	}
	submit.Flags().StringVar(&in.DocumentType, "doc-type", "", "nin, passport, drivers_license, ...")
	submit.Flags().StringVar(&in.DocumentNumber, "doc-number", "", "document number (stored masked)")
	_ = submit.MarkFlagRequired("doc-type")
	_ = submit.MarkFlagRequired("doc-number")

	pending := &cobra.Command{
		Use:   "pending",
		Short: "List submissions awaiting review",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			subs, err := a.client.PendingKYC(cmd.Context())
			if err != nil {
				return err
			}
			return a.printKYC(subs...)
		},
	}

	review := func(use string, approve bool) *cobra.Command {
		var notes string
		c := &cobra.Command{
			Use:   use + " <submissionId>",
			Short: use + " a pending submission (support or admin)",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				actor, err := a.requireActor()
				if err != nil {
					return err
				}
				sub, err := a.client.ReviewKYC(cmd.Context(), actor, args[0], service.KYCReviewInput{Approve: approve, Notes: notes})
				if err != nil {
					return err
				}
				return a.printKYC(sub)
			},
		}
		c.Flags().StringVar(&notes, "notes", "", "reviewer notes")
		return c
	}

	cmd.AddCommand(submit, pending, review("approve", true), review("reject", false))
	return cmd
}

func (a *app) printKYC(subs ...domain.KYCSubmission) error {
	rows := make([][]string, 0, len(subs))
	for _, s := range subs {
		rows = append(rows, []string{s.ID, s.UserID, s.DocumentType, s.DocumentNumber, string(s.Status), s.ReviewerID})
	}
	var v any = subs
	if len(subs) == 1 {
		v = subs[0]
	}
	return a.print(v, []string{"ID", "USER", "DOCUMENT", "NUMBER", "STATUS", "REVIEWER"}, rows)
}
