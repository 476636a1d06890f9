package models

import "time"

// Deal represents a single deal displayed as a card on the pipeline board
type Deal struct {
	ID            string
	Title         string
	Description   string // markdown
	Amount        int64  // cents
	StageID       string
	StageName     string // denormalized, always server-computed
	Position      int
	Status        DealStatus
	Probability   int // percent, server-computed from stage and history
	Version       int64
	OwnerName     string
	ContactName   string
	OrgName       string
	ExpectedClose time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// DealDraft encapsulates all data needed to create a deal.
// Validation of required business fields happens in the form layer;
// the store only checks what it needs for placement.
type DealDraft struct {
	Title         string
	Description   string
	Amount        int64
	StageID       string
	OwnerName     string
	ContactName   string
	OrgName       string
	ExpectedClose time.Time
}

// DealPatch describes a partial update to a deal.
// Nil fields mean "leave unchanged".
type DealPatch struct {
	Title         *string
	Description   *string
	Amount        *int64
	Status        *DealStatus
	OwnerName     *string
	ContactName   *string
	OrgName       *string
	ExpectedClose *time.Time
}

// Apply writes the non-nil fields of the patch onto d and bumps UpdatedAt.
// Used for the optimistic local copy only; the server response is always
// taken verbatim on confirmation.
func (p DealPatch) Apply(d *Deal) {
	if p.Title != nil {
		d.Title = *p.Title
	}
	if p.Description != nil {
		d.Description = *p.Description
	}
	if p.Amount != nil {
		d.Amount = *p.Amount
	}
	if p.Status != nil {
		d.Status = *p.Status
	}
	if p.OwnerName != nil {
		d.OwnerName = *p.OwnerName
	}
	if p.ContactName != nil {
		d.ContactName = *p.ContactName
	}
	if p.OrgName != nil {
		d.OrgName = *p.OrgName
	}
	if p.ExpectedClose != nil {
		d.ExpectedClose = *p.ExpectedClose
	}
	d.UpdatedAt = time.Now()
}

// IsZero reports whether the patch carries no changes.
func (p DealPatch) IsZero() bool {
	return p.Title == nil && p.Description == nil && p.Amount == nil &&
		p.Status == nil && p.OwnerName == nil && p.ContactName == nil &&
		p.OrgName == nil && p.ExpectedClose == nil
}

// Clone returns a deep copy of the deal.
// Deals contain no reference fields, so a value copy is sufficient,
// but rollback snapshots go through here so that stays true by contract.
func (d *Deal) Clone() *Deal {
	if d == nil {
		return nil
	}
	c := *d
	return &c
}

// SearchText returns the concatenated text the board filter matches against.
func (d *Deal) SearchText() string {
	return d.Title + " " + d.Description + " " + d.ContactName + " " + d.OrgName
}
