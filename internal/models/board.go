package models

// Board is the aggregate of stages for one pipeline, each holding its
// ordered list of deals. Every deal belongs to exactly one stage list at
// any time; the mutation helpers below preserve that invariant as long as
// all membership changes go through them.
type Board struct {
	Stages []*Stage
	deals  map[string][]*Deal
}

// NewBoard creates a board from a stage list and a stage-id-keyed deal map.
// A nil deals map is treated as empty; stage lists missing from the map are
// created lazily on first access.
func NewBoard(stages []*Stage, deals map[string][]*Deal) *Board {
	if deals == nil {
		deals = make(map[string][]*Deal)
	}
	return &Board{Stages: stages, deals: deals}
}

// Stage returns the stage with the given id, or nil if it does not exist.
func (b *Board) Stage(stageID string) *Stage {
	for _, s := range b.Stages {
		if s.ID == stageID {
			return s
		}
	}
	return nil
}

// DealsForStage returns the ordered deal list for a stage.
// Returns an empty slice for unknown stages so callers can range safely.
func (b *Board) DealsForStage(stageID string) []*Deal {
	return b.deals[stageID]
}

// Find returns the deal with the given id along with its stage id and
// position inside that stage's list. Returns ErrDealNotFound if the deal is
// not on the board.
func (b *Board) Find(dealID string) (*Deal, string, int, error) {
	for _, s := range b.Stages {
		for i, d := range b.deals[s.ID] {
			if d != nil && d.ID == dealID {
				return d, s.ID, i, nil
			}
		}
	}
	return nil, "", 0, ErrDealNotFound
}

// Contains reports whether the deal id is present anywhere on the board.
func (b *Board) Contains(dealID string) bool {
	_, _, _, err := b.Find(dealID)
	return err == nil
}

// Remove takes the deal out of whichever stage list holds it and returns
// the deal together with the stage id and position it was removed from,
// so the caller can restore it exactly on rollback.
func (b *Board) Remove(dealID string) (*Deal, string, int, error) {
	d, stageID, idx, err := b.Find(dealID)
	if err != nil {
		return nil, "", 0, err
	}
	list := b.deals[stageID]
	b.deals[stageID] = append(list[:idx], list[idx+1:]...)
	b.renumber(stageID)
	return d, stageID, idx, nil
}

// InsertAt places the deal into the stage list at the given position.
// Positions past the end append. The deal's StageID and Position fields are
// updated to match its new location.
func (b *Board) InsertAt(stageID string, position int, d *Deal) error {
	if d == nil || d.ID == "" {
		return ErrMissingDealID
	}
	if b.Stage(stageID) == nil {
		return ErrStageNotFound
	}
	list := b.deals[stageID]
	if position < 0 {
		position = 0
	}
	if position > len(list) {
		position = len(list)
	}
	list = append(list, nil)
	copy(list[position+1:], list[position:])
	list[position] = d
	b.deals[stageID] = list
	d.StageID = stageID
	b.renumber(stageID)
	return nil
}

// Append places the deal at the end of the stage list.
func (b *Board) Append(stageID string, d *Deal) error {
	return b.InsertAt(stageID, len(b.deals[stageID]), d)
}

// MoveToStage relocates the deal to the end of the destination stage and
// returns the origin stage id and position for rollback. The no-op case
// (destination equals the deal's current stage) returns ErrSameStage and
// leaves the board untouched.
func (b *Board) MoveToStage(dealID, toStageID string) (fromStageID string, fromPos int, err error) {
	_, stageID, _, err := b.Find(dealID)
	if err != nil {
		return "", 0, err
	}
	if stageID == toStageID {
		return "", 0, ErrSameStage
	}
	if b.Stage(toStageID) == nil {
		return "", 0, ErrStageNotFound
	}
	d, fromStageID, fromPos, err := b.Remove(dealID)
	if err != nil {
		return "", 0, err
	}
	if err := b.Append(toStageID, d); err != nil {
		// Destination vanished between the checks - put the deal back.
		_ = b.InsertAt(fromStageID, fromPos, d)
		return "", 0, err
	}
	return fromStageID, fromPos, nil
}

// Replace swaps the stored deal with the same id for the given one,
// keeping its position. Used to reconcile an optimistic copy with the
// server's authoritative deal.
func (b *Board) Replace(d *Deal) error {
	if d == nil || d.ID == "" {
		return ErrMissingDealID
	}
	_, stageID, idx, err := b.Find(d.ID)
	if err != nil {
		return err
	}
	// The server may report a different stage than the local copy when a
	// concurrent move landed first; honor the server's placement.
	if d.StageID != "" && d.StageID != stageID && b.Stage(d.StageID) != nil {
		list := b.deals[stageID]
		b.deals[stageID] = append(list[:idx], list[idx+1:]...)
		b.renumber(stageID)
		return b.Append(d.StageID, d)
	}
	d.StageID = stageID
	d.Position = idx
	b.deals[stageID][idx] = d
	return nil
}

// DealCount returns the total number of deals across all stages.
func (b *Board) DealCount() int {
	total := 0
	for _, s := range b.Stages {
		total += len(b.deals[s.ID])
	}
	return total
}

// DealIDs returns the ids of every deal on the board, stage by stage.
func (b *Board) DealIDs() []string {
	var ids []string
	for _, s := range b.Stages {
		for _, d := range b.deals[s.ID] {
			if d != nil {
				ids = append(ids, d.ID)
			}
		}
	}
	return ids
}

// Clone returns a deep copy of the board. Stage and deal values are copied,
// so mutations of the clone never reach the original.
func (b *Board) Clone() *Board {
	stages := make([]*Stage, len(b.Stages))
	for i, s := range b.Stages {
		c := *s
		stages[i] = &c
	}
	deals := make(map[string][]*Deal, len(b.deals))
	for stageID, list := range b.deals {
		copied := make([]*Deal, len(list))
		for i, d := range list {
			copied[i] = d.Clone()
		}
		deals[stageID] = copied
	}
	return &Board{Stages: stages, deals: deals}
}

// renumber rewrites the Position field of every deal in the stage list to
// match its slice index.
func (b *Board) renumber(stageID string) {
	for i, d := range b.deals[stageID] {
		if d != nil {
			d.Position = i
		}
	}
}
