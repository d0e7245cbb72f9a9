package server

import (
	"player-cards/internal/pagination"
	"player-cards/internal/render"
	"player-cards/internal/service"
)

type ListCharactersRequest struct {
	UserID int64 `json:"user_id"`
	UID    int64 `json:"uid"`
	Page   int   `json:"page"`
}

type HandleActionRequest struct {
	UserID int64  `json:"user_id"`
	Token  string `json:"token"`
}

type GetCardRequest struct {
	UID       int64  `json:"uid"`
	Character string `json:"character"`
	Refresh   bool   `json:"refresh"`
}

type Control struct {
	Label string `json:"label"`
	Token string `json:"token"`
}

type Image struct {
	Filename string `json:"filename"`
	Caption  string `json:"caption,omitempty"`
	Data     []byte `json:"data"`
	Cached   bool   `json:"cached,omitempty"`
}

type ReplyResponse struct {
	Notice     string      `json:"notice,omitempty"`
	Alert      bool        `json:"alert,omitempty"`
	Controls   [][]Control `json:"controls,omitempty"`
	Page       int         `json:"page,omitempty"`
	TotalPages int         `json:"total_pages,omitempty"`
	Image      *Image      `json:"image,omitempty"`
}

type CardResponse struct {
	Payload *Payload `json:"payload"`
	Image   *Image   `json:"image,omitempty"`
}

func toReplyResponse(r *service.Reply) *ReplyResponse {
	resp := &ReplyResponse{Notice: r.Notice, Alert: r.Alert, Image: toImage(r.Image)}
	if r.Grid != nil {
		resp.Controls = toControls(r.Grid)
		resp.Page = r.Grid.Page
		resp.TotalPages = r.Grid.TotalPages
	}
	return resp
}

func toControls(g *pagination.Grid) [][]Control {
	rows := make([][]Control, 0, len(g.Rows))
	for _, row := range g.Rows {
		out := make([]Control, 0, len(row))
		for _, c := range row {
			out = append(out, Control{Label: c.Label, Token: c.Token})
		}
		rows = append(rows, out)
	}
	return rows
}

func toImage(res *render.Result) *Image {
	if res == nil {
		return nil
	}
	return &Image{Filename: res.Filename, Caption: res.Caption, Data: res.Image, Cached: res.Cached}
}
