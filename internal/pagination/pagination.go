// Package pagination lays a roster out as pages of button rows.
package pagination

import (
	"fmt"
	"player-cards/internal/constants"
	"player-cards/internal/domain"
)

type Control struct {
	Label string `json:"label"`
	Token string `json:"token"`
}

type Grid struct {
	Rows       [][]Control `json:"rows"`
	Page       int         `json:"page"`
	TotalPages int         `json:"total_pages"`
}

type Request struct {
	Characters   []domain.Character
	UID          int64
	Owner        int64
	Page         int
	AllowRefresh bool
}

const (
	LabelPrevious = "<< Prev"
	LabelNext     = "Next >>"
	LabelRefresh  = "Refresh"
)

// Build lays out one character button per named character, four per row
// and three rows per page. The navigation row is added only when there is
// more than one page or a refresh is offered.
// Pages past the end yield no character rows but keep their navigation.
func Build(req Request) Grid {
	page := req.Page
	if page < 1 {
		page = 1
	}

	var buttons []Control
	for _, c := range req.Characters {
		if c.Name == "" {
			continue
		}
		buttons = append(buttons, Control{
			Label: c.Name,
			Token: CharacterToken(req.Owner, req.UID, c.Name).Encode(),
		})
	}
	grid := Grid{Rows: [][]Control{}, Page: page}
	if len(buttons) == 0 {
		return grid
	}

	var rows [][]Control
	for i := 0; i < len(buttons); i += constants.ButtonsPerRow {
		end := min(i+constants.ButtonsPerRow, len(buttons))
		rows = append(rows, buttons[i:end])
	}
	total := (len(rows) + constants.RowsPerPage - 1) / constants.RowsPerPage
	grid.TotalPages = total

	if page <= total {
		start := (page - 1) * constants.RowsPerPage
		end := min(start+constants.RowsPerPage, len(rows))
		grid.Rows = append(grid.Rows, rows[start:end]...)
	}

	var nav []Control
	if page > 1 {
		nav = append(nav, Control{Label: LabelPrevious, Token: PageToken(req.Owner, req.UID, page-1).Encode()})
	}
	if total > 1 {
		nav = append(nav, Control{Label: fmt.Sprintf("%d/%d", page, total), Token: DisabledToken(req.Owner, req.UID).Encode()})
	}
	if req.AllowRefresh {
		nav = append(nav, Control{Label: LabelRefresh, Token: RefreshToken(req.Owner, req.UID).Encode()})
	}
	if page < total {
		nav = append(nav, Control{Label: LabelNext, Token: PageToken(req.Owner, req.UID, page+1).Encode()})
	}
	if total > 1 || req.AllowRefresh {
		grid.Rows = append(grid.Rows, nav)
	}
	return grid
}

// RefreshOnly is the grid offered when no roster has been loaded yet.
func RefreshOnly(owner, uid int64) Grid {
	return Grid{
		Rows: [][]Control{{{Label: LabelRefresh, Token: RefreshToken(owner, uid).Encode()}}},
		Page: 1,
	}
}
