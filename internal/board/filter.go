package board

import (
	"strings"

	"github.com/aldema/pipeboard/internal/models"
)

// Filter projects the search query over a board: the result maps every stage
// id to the deals whose searchable text contains the query, case
// insensitively. An empty (or all-whitespace) query keeps everything. The
// returned lists share the board's deal pointers - the projection is a view,
// it never changes stored membership or order.
func Filter(b *models.Board, query string) map[string][]*models.Deal {
	view := make(map[string][]*models.Deal, len(b.Stages))
	needle := strings.ToLower(strings.TrimSpace(query))
	for _, s := range b.Stages {
		deals := b.DealsForStage(s.ID)
		if needle == "" {
			view[s.ID] = deals
			continue
		}
		var kept []*models.Deal
		for _, d := range deals {
			if d == nil {
				continue
			}
			if strings.Contains(strings.ToLower(d.SearchText()), needle) {
				kept = append(kept, d)
			}
		}
		view[s.ID] = kept
	}
	return view
}
