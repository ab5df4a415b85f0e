package commands

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/vanshika/marketplace/internal/domain"
	"github.com/vanshika/marketplace/internal/service"
	"github.com/vanshika/marketplace/internal/store"
)

func healthCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the API and its store are reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.client.Ping(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "ok")
			return nil
		},
	}
}

func listCmd(a *app) *cobra.Command {
	names := []string{
		store.CollectionUsers, store.CollectionCategories, store.CollectionProducts, store.CollectionOrders,
		store.CollectionDisputes, store.CollectionPromotions, store.CollectionKYC, store.CollectionReviews,
		store.CollectionPayouts, store.CollectionPages,
	}
	return &cobra.Command{
		Use:       "list <collection>",
		Short:     "List the ids in a collection",
		Args:      cobra.ExactArgs(1),
		ValidArgs: names,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			switch args[0] {
			case store.CollectionUsers:
				return listIDs(ctx, a, a.client.Users())
			case store.CollectionCategories:
				return listIDs(ctx, a, a.client.Categories())
			case store.CollectionProducts:
				return listIDs(ctx, a, a.client.Products())
			case store.CollectionOrders:
				return listIDs(ctx, a, a.client.Orders())
			case store.CollectionDisputes:
				return listIDs(ctx, a, a.client.Disputes())
			case store.CollectionPromotions:
				return listIDs(ctx, a, a.client.Promotions())
			case store.CollectionKYC:
				return listIDs(ctx, a, a.client.KYC())
			case store.CollectionReviews:
				return listIDs(ctx, a, a.client.Reviews())
			case store.CollectionPayouts:
				return listIDs(ctx, a, a.client.Payouts())
			case store.CollectionPages:
				return listIDs(ctx, a, a.client.Pages())
			default:
				return fmt.Errorf("unknown collection %q", args[0])
			}
		},
	}
}

func listIDs[T domain.Entity](ctx context.Context, a *app, coll store.Collection[T]) error {
	items, err := coll.List(ctx)
	if err != nil {
		return err
	}
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.EntityID())
	}
	sort.Strings(ids)
	rows := make([][]string, 0, len(ids))
	for _, id := range ids {
		rows = append(rows, []string{id})
	}
	return a.print(items, []string{"ID"}, rows)
}

func userCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "user", Short: "Accounts"}

	var in service.RegisterInput
	var role string
	register := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Role = domain.Role(role)
			u, err := a.client.Register(cmd.Context(), in)
			if err != nil {
				return err
			}
			return a.printUsers(u)
		},
	}
	register.Flags().StringVar(&in.Name, "name", "", "display name")
	register.Flags().StringVar(&in.Email, "email", "", "login email")
	register.Flags().StringVar(&in.Password, "password", "", "password (min 8 characters)")
	register.Flags().StringVar(&role, "role", string(domain.RoleBuyer), "buyer, vendor, support or admin")
	register.Flags().StringVar(&in.Location, "location", "", "city")
	register.Flags().StringVar(&in.StoreName, "store", "", "store name (vendors)")
	_ = register.MarkFlagRequired("email")
	_ = register.MarkFlagRequired("password")

	var login service.LoginInput
	loginCmd := &cobra.Command{
		Use:   "login",
		Short: "Check credentials and print the account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := a.client.Login(cmd.Context(), login)
			if err != nil {
				return err
			}
			return a.printUsers(u)
		},
	}
	loginCmd.Flags().StringVar(&login.Email, "email", "", "login email")
	loginCmd.Flags().StringVar(&login.Password, "password", "", "password")

	setStatus := func(use string, status domain.UserStatus) *cobra.Command {
		return &cobra.Command{
			Use:   use + " <userId>",
			Short: "Set an account " + string(status) + " (admin)",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				actor, err := a.requireActor()
				if err != nil {
					return err
				}
				u, err := a.client.SetUserStatus(cmd.Context(), actor, args[0], status)
				if err != nil {
					return err
				}
				return a.printUsers(u)
			},
		}
	}

	cmd.AddCommand(register, loginCmd, setStatus("suspend", domain.UserSuspended), setStatus("activate", domain.UserActive))
	return cmd
}

func (a *app) printUsers(users ...domain.User) error {
	rows := make([][]string, 0, len(users))
	for _, u := range users {
		rows = append(rows, []string{u.ID, u.Name, u.Email, string(u.Role), string(u.KYCStatus), string(u.Status)})
	}
	var v any = users
	if len(users) == 1 {
		v = users[0]
	}
	return a.print(v, []string{"ID", "NAME", "EMAIL", "ROLE", "KYC", "STATUS"}, rows)
}

func productCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "product", Short: "Catalogue"}

	show := &cobra.Command{
		Use:   "show [productId]",
		Short: "Show one product, or all of them",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				p, err := a.client.Products().Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return a.printProducts(p)
			}
			products, err := a.client.Products().List(cmd.Context())
			if err != nil {
				return err
			}
			return a.printProducts(products...)
		},
	}

	var in service.ProductInput
	var price string
	var status string
	publish := &cobra.Command{
		Use:   "publish",
		Short: "List a new product for the acting vendor",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := a.requireActor()
			if err != nil {
				return err
			}
			if in.Price, err = decimal.NewFromString(price); err != nil {
				return fmt.Errorf("invalid price %q: %w", price, err)
			}
			in.VendorID = actor
			in.Status = domain.ProductStatus(status)
			p, err := a.client.CreateProduct(cmd.Context(), in)
			if err != nil {
				return err
			}
			return a.printProducts(p)
		},
	}
	publish.Flags().StringVar(&in.Name, "name", "", "product name")
	publish.Flags().StringVar(&in.Description, "description", "", "description")
	publish.Flags().StringVar(&in.Category, "category", "", "category name")
	publish.Flags().StringVar(&in.Subcategory, "subcategory", "", "subcategory name")
	publish.Flags().StringVar(&price, "price", "", "unit price")
	publish.Flags().IntVar(&in.Stock, "stock", 0, "units in stock")
	publish.Flags().StringVar(&in.Origin, "origin", "", "where the product is sourced")
	publish.Flags().StringVar(&status, "status", "", "active or draft (default active)")
	_ = publish.MarkFlagRequired("name")
	_ = publish.MarkFlagRequired("price")

	cmd.AddCommand(show, publish)
	return cmd
}

func (a *app) printProducts(products ...domain.Product) error {
	rows := make([][]string, 0, len(products))
	for _, p := range products {
		rows = append(rows, []string{
			p.ID, p.Name, p.Category, p.VendorID, p.Price.StringFixed(2),
			strconv.Itoa(p.Stock), strconv.FormatFloat(p.Rating, 'f', 1, 64), string(p.Status),
		})
	}
	var v any = products
	if len(products) == 1 {
		v = products[0]
	}
	return a.print(v, []string{"ID", "NAME", "CATEGORY", "VENDOR", "PRICE", "STOCK", "RATING", "STATUS"}, rows)
}
