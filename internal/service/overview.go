package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/vanshika/marketplace/internal/domain"
)

// Overview is the admin dashboard summary.
type Overview struct {
	Users          int             `json:"users"`
	Buyers         int             `json:"buyers"`
	Vendors        int             `json:"vendors"`
	Products       int             `json:"products"`
	Orders         int             `json:"orders"`
	OpenDisputes   int             `json:"openDisputes"`
	PendingKYC     int             `json:"pendingKyc"`
	GMV            decimal.Decimal `json:"gmv"`
	EscrowHeld     decimal.Decimal `json:"escrowHeld"`
	PendingPayouts decimal.Decimal `json:"pendingPayouts"`
	Currency       string          `json:"currency"`
}

// Overview gathers dashboard counts from every collection concurrently. GMV counts orders that
// were not cancelled or refunded; escrow held includes frozen funds.
func (s *Service) Overview(ctx context.Context) (Overview, error) {
	var (
		users    []domain.User
		products []domain.Product
		orders   []domain.Order
		disputes []domain.Dispute
		kyc      []domain.KYCSubmission
		payouts  []domain.Payout
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		users, err = s.store.Users().List(gctx)
		return wrapList("users", err)
	})
	g.Go(func() (err error) {
		products, err = s.store.Products().List(gctx)
		return wrapList("products", err)
	})
	g.Go(func() (err error) {
		orders, err = s.store.Orders().List(gctx)
		return wrapList("orders", err)
	})
	g.Go(func() (err error) {
		disputes, err = s.store.Disputes().List(gctx)
		return wrapList("disputes", err)
	})
	g.Go(func() (err error) {
		kyc, err = s.store.KYC().List(gctx)
		return wrapList("kyc", err)
	})
	g.Go(func() (err error) {
		payouts, err = s.store.Payouts().List(gctx)
		return wrapList("payouts", err)
	})
	if err := g.Wait(); err != nil {
		return Overview{}, err
	}

	ov := Overview{
		Users:          len(users),
		Products:       len(products),
		Orders:         len(orders),
		GMV:            decimal.Zero,
		EscrowHeld:     decimal.Zero,
		PendingPayouts: decimal.Zero,
		Currency:       s.settings.Currency,
	}
	for _, u := range users {
		switch u.Role {
		case domain.RoleBuyer:
			ov.Buyers++
		case domain.RoleVendor:
			ov.Vendors++
		}
	}
	for _, o := range orders {
		if o.Status != domain.OrderCancelled && o.Status != domain.OrderRefunded {
			ov.GMV = ov.GMV.Add(o.Total)
		}
		if o.EscrowStatus == domain.EscrowHeld || o.EscrowStatus == domain.EscrowFrozen {
			ov.EscrowHeld = ov.EscrowHeld.Add(o.Total)
		}
	}
	for _, d := range disputes {
		if d.Status != domain.DisputeResolved {
			ov.OpenDisputes++
		}
	}
	for _, k := range kyc {
		if k.Status == domain.KYCPending {
			ov.PendingKYC++
		}
	}
	for _, p := range payouts {
		if p.Status != domain.PayoutPaid {
			ov.PendingPayouts = ov.PendingPayouts.Add(p.Amount)
		}
	}
	return ov, nil
}

func wrapList(name string, err error) error {
	if err != nil {
		return fmt.Errorf("list %s: %w", name, err)
	}
	return nil
}
