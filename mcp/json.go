package mcp

import (
	"encoding/json"

	"github.com/dapbridge/mcp-debugger/internal/session"
)

type breakpointDTO struct {
	ID           int    `json:"id"`
	File         string `json:"file"`
	Line         int    `json:"line"`
	Condition    string `json:"condition,omitempty"`
	HitCondition string `json:"hit_condition,omitempty"`
	Verified     bool   `json:"verified"`
}

func breakpointsJSON(bps []*session.Breakpoint) string {
	dtos := make([]breakpointDTO, len(bps))
	for i, bp := range bps {
		dtos[i] = breakpointDTO{
			ID:           bp.ID,
			File:         bp.File,
			Line:         bp.Line,
			Condition:    bp.Condition,
			HitCondition: bp.HitCondition,
			Verified:     bp.Verified,
		}
	}
	out, err := json.Marshal(dtos)
	if err != nil {
		return "[]"
	}
	return string(out)
}
