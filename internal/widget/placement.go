// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package widget

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"golang.org/x/text/cases"
)

// Anchor is one of the nine named control positions, or Custom.
type Anchor string

const (
	AnchorTopLeft      Anchor = "Top Left"
	AnchorTopCenter    Anchor = "Top Center"
	AnchorTopRight     Anchor = "Top Right"
	AnchorMiddleLeft   Anchor = "Middle Left"
	AnchorCenter       Anchor = "Center"
	AnchorMiddleRight  Anchor = "Middle Right"
	AnchorBottomLeft   Anchor = "Bottom Left"
	AnchorBottomCenter Anchor = "Bottom Center"
	AnchorBottomRight  Anchor = "Bottom Right"
	AnchorCustom       Anchor = "Custom"
)

const inset = "5px"

var anchorStyles = map[Anchor]map[string]string{
	AnchorTopLeft:      {"top": inset, "left": inset},
	AnchorTopCenter:    {"top": inset, "left": "50%", "transform": "translateX(-50%)"},
	AnchorTopRight:     {"top": inset, "right": inset},
	AnchorMiddleLeft:   {"top": "50%", "left": inset, "transform": "translateY(-50%)"},
	AnchorCenter:       {"top": "50%", "left": "50%", "transform": "translate(-50%, -50%)"},
	AnchorMiddleRight:  {"top": "50%", "right": inset, "transform": "translateY(-50%)"},
	AnchorBottomLeft:   {"bottom": inset, "left": inset},
	AnchorBottomCenter: {"bottom": inset, "left": "50%", "transform": "translateX(-50%)"},
	AnchorBottomRight:  {"bottom": inset, "right": inset},
}

var fold = cases.Fold()

// ParseAnchor matches a named anchor case-insensitively.
func ParseAnchor(name string) (Anchor, bool) {
	want := fold.String(strings.Join(strings.Fields(name), " "))
	if want == fold.String(string(AnchorCustom)) {
		return AnchorCustom, true
	}
	for a := range anchorStyles {
		if fold.String(string(a)) == want {
			return a, true
		}
	}
	return "", false
}

// Placement positions one control.
type Placement struct {
	Anchor Anchor            `json:"anchor"`
	Custom map[string]string `json:"custom,omitempty"`
}

// Style returns the absolute-positioning declarations for the placement.
func (p Placement) Style() map[string]string {
	out := map[string]string{}
	src := anchorStyles[p.Anchor]
	if p.Anchor == AnchorCustom {
		src = p.Custom
	}
	for k, v := range src {
		out[k] = v
	}
	return out
}

// resolvePlacement builds a placement from an alignment name and optional
// custom offsets. Unknown names and unusable custom offsets fall back to def.
func resolvePlacement(align, pos string, def Anchor) (Placement, error) {
	a, ok := ParseAnchor(align)
	if !ok {
		return Placement{Anchor: def}, fmt.Errorf("unknown alignment %q", align)
	}
	if a != AnchorCustom {
		return Placement{Anchor: a}, nil
	}
	offsets, err := parseOffsets(pos)
	if err != nil {
		return Placement{Anchor: def}, err
	}
	return Placement{Anchor: AnchorCustom, Custom: offsets}, nil
}

func parseOffsets(pos string) (map[string]string, error) {
	if strings.TrimSpace(pos) == "" {
		return nil, fmt.Errorf("custom alignment without position")
	}
	raw := map[string]any{}
	if err := json.Unmarshal([]byte(pos), &raw); err != nil {
		return nil, fmt.Errorf("custom position: %w", err)
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		switch tv := v.(type) {
		case string:
			out[k] = tv
		case float64:
			out[k] = fmt.Sprintf("%gpx", tv)
		default:
			return nil, fmt.Errorf("custom position: unsupported value for %q", k)
		}
	}
	return out, nil
}
