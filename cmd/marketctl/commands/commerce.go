package commands

import (
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/vanshika/marketplace/internal/domain"
	"github.com/vanshika/marketplace/internal/service"
)

func cartCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "cart", Short: "Price and place carts"}

	var itemSpecs []string
	var promo string
	quote := &cobra.Command{
		Use:   "quote",
		Short: "Price a cart without placing it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := parseItems(itemSpecs)
			if err != nil {
				return err
			}
			q, err := a.client.Quote(cmd.Context(), service.QuoteInput{Items: items, PromoCode: promo})
			if err != nil {
				return err
			}
			return a.print(q, []string{"SUBTOTAL", "SHIPPING", "DISCOUNT", "TOTAL", "CURRENCY", "PROMO"}, [][]string{{
				q.Subtotal.StringFixed(2), q.ShippingFee.StringFixed(2), q.Discount.StringFixed(2),
				q.Total.StringFixed(2), q.Currency, q.PromoCode,
			}})
		},
	}
	quote.Flags().StringArrayVar(&itemSpecs, "item", nil, "productId[:quantity], repeatable")
	quote.Flags().StringVar(&promo, "promo", "", "promotion code")

	var address string
	checkout := &cobra.Command{
		Use:   "checkout",
		Short: "Place an order as the acting buyer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := a.requireActor()
			if err != nil {
				return err
			}
			items, err := parseItems(itemSpecs)
			if err != nil {
				return err
			}
			order, err := a.client.Checkout(cmd.Context(), service.CheckoutInput{
				BuyerID:         actor,
				Items:           items,
				PromoCode:       promo,
				ShippingAddress: address,
			})
			if err != nil {
				return err
			}
			return a.printOrders(order)
		},
	}
	checkout.Flags().StringArrayVar(&itemSpecs, "item", nil, "productId[:quantity], repeatable")
	checkout.Flags().StringVar(&promo, "promo", "", "promotion code")
	checkout.Flags().StringVar(&address, "address", "", "shipping address")

	cmd.AddCommand(quote, checkout)
	return cmd
}

func orderCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "order", Short: "Escrow order lifecycle"}

	transition := func(action, short string) *cobra.Command {
		return &cobra.Command{
			Use:   action + " <orderId>",
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				actor, err := a.requireActor()
				if err != nil {
					return err
				}
				order, err := a.client.TransitionOrder(cmd.Context(), action, actor, args[0])
				if err != nil {
					return err
				}
				return a.printOrders(order)
			},
		}
	}

	mine := &cobra.Command{
		Use:   "mine",
		Short: "List the acting buyer's orders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := a.requireActor()
			if err != nil {
				return err
			}
			orders, err := a.client.OrdersForBuyer(cmd.Context(), actor)
			if err != nil {
				return err
			}
			return a.printOrders(orders...)
		},
	}

	cmd.AddCommand(
		transition("ship", "Mark a paid order shipped (vendor)"),
		transition("confirm", "Confirm delivery and release escrow (buyer)"),
		transition("cancel", "Cancel an unshipped order (buyer or admin)"),
		mine,
	)
	return cmd
}

func (a *app) printOrders(orders ...domain.Order) error {
	rows := make([][]string, 0, len(orders))
	for _, o := range orders {
		rows = append(rows, []string{
			o.ID, o.BuyerID, strconv.Itoa(len(o.Items)), o.Total.StringFixed(2), o.PromoCode,
			string(o.Status), string(o.EscrowStatus),
		})
	}
	var v any = orders
	if len(orders) == 1 {
		v = orders[0]
	}
	return a.print(v, []string{"ID", "BUYER", "ITEMS", "TOTAL", "PROMO", "STATUS", "ESCROW"}, rows)
}

func promoCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "promo", Short: "Promotion codes"}

	var in service.PromotionInput
	var promoType, value, expires string
	create := &cobra.Command{
		Use:   "create",
		Short: "Issue a promotion as the acting vendor or admin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := a.requireActor()
			if err != nil {
				return err
			}
			in.Type = domain.PromotionType(promoType)
			if in.Value, err = decimal.NewFromString(value); err != nil {
				return fmt.Errorf("invalid value %q: %w", value, err)
			}
			if expires != "" {
				if in.ExpiryDate, err = time.Parse(time.DateOnly, expires); err != nil {
					return fmt.Errorf("invalid expiry %q: want YYYY-MM-DD", expires)
				}
			}
			p, err := a.client.CreatePromotion(cmd.Context(), actor, in)
			if err != nil {
				return err
			}
			return a.printPromotions(p)
		},
	}
	create.Flags().StringVar(&in.Code, "code", "", "promotion code")
	create.Flags().StringVar(&in.Description, "description", "", "description")
	create.Flags().StringVar(&promoType, "type", string(domain.PromotionPercentage), "percentage or fixed")
	create.Flags().StringVar(&value, "value", "", "percent off or fixed amount")
	create.Flags().StringVar(&expires, "expires", "", "last valid day, YYYY-MM-DD")
	create.Flags().IntVar(&in.UsageLimit, "limit", 0, "maximum uses, 0 for unlimited")
	create.Flags().StringSliceVar(&in.ApplicableCategories, "category", nil, "restrict to categories")
	create.Flags().StringSliceVar(&in.ApplicableSubcategories, "subcategory", nil, "restrict to subcategories")
	create.Flags().StringSliceVar(&in.ApplicableVendors, "vendor", nil, "restrict to vendors")
	create.Flags().StringSliceVar(&in.ApplicableProductIDs, "product", nil, "restrict to products")
	_ = create.MarkFlagRequired("code")
	_ = create.MarkFlagRequired("value")

	show := &cobra.Command{
		Use:   "show",
		Short: "List promotions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			promos, err := a.client.Promotions().List(cmd.Context())
			if err != nil {
				return err
			}
			return a.printPromotions(promos...)
		},
	}

	cmd.AddCommand(create, show)
	return cmd
}

func (a *app) printPromotions(promos ...domain.Promotion) error {
	rows := make([][]string, 0, len(promos))
	for _, p := range promos {
		expiry := "-"
		if !p.ExpiryDate.IsZero() {
			expiry = p.ExpiryDate.Format(time.DateOnly)
		}
		limit := "unlimited"
		if p.UsageLimit > 0 {
			limit = strconv.Itoa(p.UsageLimit)
		}
		rows = append(rows, []string{
			p.ID, p.Code, string(p.Type), p.Value.String(), expiry,
			strconv.Itoa(p.UsageCount) + "/" + limit, strconv.FormatBool(p.Active),
		})
	}
	var v any = promos
	if len(promos) == 1 {
		v = promos[0]
	}
	return a.print(v, []string{"ID", "CODE", "TYPE", "VALUE", "EXPIRES", "USED", "ACTIVE"}, rows)
}

func payoutCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "payout", Short: "Vendor settlements"}

	paid := &cobra.Command{
		Use:   "paid <payoutId>",
		Short: "Mark a pending payout as paid (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := a.requireActor()
			if err != nil {
				return err
			}
			p, err := a.client.MarkPayoutPaid(cmd.Context(), actor, args[0])
			if err != nil {
				return err
			}
			return a.print(p, []string{"ID", "VENDOR", "ORDER", "AMOUNT", "STATUS"}, [][]string{{
				p.ID, p.VendorID, p.OrderID, p.Amount.StringFixed(2), string(p.Status),
			}})
		},
	}

	cmd.AddCommand(paid)
	return cmd
}
