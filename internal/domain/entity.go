package domain

// Entity is anything persisted by a data adapter. Ids are assigned by the service layer.
type Entity interface {
	EntityID() string
}

func (u User) EntityID() string          { return u.ID }
func (c Category) EntityID() string      { return c.ID }
func (p Product) EntityID() string       { return p.ID }
func (o Order) EntityID() string         { return o.ID }
func (d Dispute) EntityID() string       { return d.ID }
func (p Promotion) EntityID() string     { return p.ID }
func (k KYCSubmission) EntityID() string { return k.ID }
func (r Review) EntityID() string        { return r.ID }
func (p Payout) EntityID() string        { return p.ID }
func (p Page) EntityID() string          { return p.ID }
