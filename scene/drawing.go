package scene

import (
	"github.com/Roy-Kid/molvis/errors"
	"github.com/Roy-Kid/molvis/frame"
)

// Style is a peer-side visualization style
type Style string

// Supported visualization styles
const (
	StyleBallAndStick Style = "ball_and_stick"
	StyleSpacefill    Style = "spacefill"
	StyleWireframe    Style = "wireframe"
)

func (st Style) valid() bool {
	switch st {
	case StyleBallAndStick, StyleSpacefill, StyleWireframe:
		return true
	default:
		return false
	}
}

// DefaultBondRadius is applied when DrawOptions leaves BondRadius unset
const DefaultBondRadius = 0.1

// DrawOptions control how a frame is rendered. The zero value draws
// ball-and-stick with peer-default atom radius and DefaultBondRadius bonds.
type DrawOptions struct {
	// Style selects the visualization style; empty means ball_and_stick
	Style Style
	// AtomRadius scales all atoms; zero leaves the peer default
	AtomRadius float64
	// AtomRadii gives per-atom radii and takes precedence over AtomRadius
	AtomRadii []float64
	// BondRadius overrides the bond radius; nil means DefaultBondRadius
	BondRadius *float64
	// IncludeMetadata forwards frame metadata with the draw command
	IncludeMetadata bool
}

// styleParams validates the style and builds the shared options mapping
func (s *Scene) styleParams(method string, opts DrawOptions) (map[string]any, error) {
	style := opts.Style
	if style == "" {
		style = StyleBallAndStick
	}
	if !style.valid() {
		return nil, errors.Shapef(s.name, method, "unknown style %q", style)
	}

	var radius any
	switch {
	case opts.AtomRadii != nil:
		radius = opts.AtomRadii
	case opts.AtomRadius > 0:
		radius = opts.AtomRadius
	}

	bondRadius := DefaultBondRadius
	if opts.BondRadius != nil {
		bondRadius = *opts.BondRadius
	}

	return map[string]any{
		"style": string(style),
		"atoms": map[string]any{"radius": radius},
		"bonds": map[string]any{"radius": bondRadius},
	}, nil
}

// NewFrame starts a new drawable frame context on the peer. An empty name
// lets the peer pick one; clear controls whether prior content is removed.
func (s *Scene) NewFrame(name string, clear bool) error {
	var n any
	if name != "" {
		n = name
	}
	return s.fire("new_frame", map[string]any{"name": n, "clear": clear})
}

// DrawFrame normalizes a frame-like input and draws it on the current frame.
// Normalization and style validation happen strictly before the send: on any
// shape error nothing reaches the wire.
func (s *Scene) DrawFrame(src any, opts DrawOptions) error {
	f, err := frame.Normalize(src)
	if err != nil {
		return err
	}
	return s.drawNormalized("draw_frame", f, opts)
}

func (s *Scene) drawNormalized(method string, f *frame.Frame, opts DrawOptions) error {
	options, err := s.styleParams(method, opts)
	if err != nil {
		return err
	}
	frameData, buffers, err := s.packFrame(f, opts.IncludeMetadata)
	if err != nil {
		return err
	}
	params := map[string]any{
		"frameData": frameData,
		"options":   options,
	}
	return s.fire(method, params, buffers...)
}

// BoxOptions control simulation-box rendering
type BoxOptions struct {
	// Color is a hex color string; empty leaves the peer default
	Color string
	// LineWidth in pixels; zero means 1.0
	LineWidth float64
	// Visible defaults to true when nil
	Visible *bool
}

// DrawBox normalizes a box-like input and draws the simulation box
func (s *Scene) DrawBox(src any, opts BoxOptions) error {
	box, err := frame.NormalizeBox(src)
	if err != nil {
		return err
	}

	lineWidth := opts.LineWidth
	if lineWidth <= 0 {
		lineWidth = 1.0
	}
	visible := true
	if opts.Visible != nil {
		visible = *opts.Visible
	}
	var color any
	if opts.Color != "" {
		color = opts.Color
	}

	params := map[string]any{
		"boxData": box.Data(),
		"options": map[string]any{
			"color":     color,
			"lineWidth": lineWidth,
			"visible":   visible,
		},
	}
	return s.fire("draw_box", params)
}

// AtomsOptions control DrawAtoms rendering
type AtomsOptions struct {
	// Style selects the visualization style; empty means ball_and_stick
	Style Style
	// AtomRadius scales all atoms; zero leaves the peer default
	AtomRadius float64
	// AtomRadii gives per-atom radii and takes precedence over AtomRadius
	AtomRadii []float64
	// Color is a single color broadcast to every atom, or a per-atom list
	Color any
}

// DrawAtoms draws individual atom-like values (one or a list) as a
// single-block frame. Bonds are suppressed: bond radius is forced to zero.
func (s *Scene) DrawAtoms(atoms any, opts AtomsOptions) error {
	f, err := frame.NormalizeAtomList(atoms, opts.Color)
	if err != nil {
		return err
	}
	noBonds := 0.0
	return s.drawNormalized("draw_frame", f, DrawOptions{
		Style:      opts.Style,
		AtomRadius: opts.AtomRadius,
		AtomRadii:  opts.AtomRadii,
		BondRadius: &noBonds,
	})
}

// Clear removes all content from the peer's canvas
func (s *Scene) Clear() error {
	return s.fire("clear", map[string]any{})
}

// SetStyle sets global visualization style parameters
func (s *Scene) SetStyle(opts DrawOptions) error {
	options, err := s.styleParams("set_style", opts)
	if err != nil {
		return err
	}
	return s.fire("set_style", options)
}

// SetTheme sets the color theme
func (s *Scene) SetTheme(theme string) error {
	return s.fire("set_theme", map[string]any{"theme": theme})
}

// SetViewMode sets the camera view mode
func (s *Scene) SetViewMode(mode string) error {
	return s.fire("set_view_mode", map[string]any{"mode": mode})
}

// HighlightAtoms highlights the atoms at the given indices. Color, scale and
// opacity pass through to the peer; zero values leave peer defaults.
func (s *Scene) HighlightAtoms(indices []int, color string, scale, opacity float64) error {
	if len(indices) == 0 {
		return errors.EmptyInput(s.name, "highlight_atoms", "index list")
	}
	var c any
	if color != "" {
		c = color
	}
	params := map[string]any{
		"indices": indices,
		"color":   c,
		"scale":   scale,
		"opacity": opacity,
	}
	return s.fire("highlight_atoms", params)
}

// ClearHighlights removes all atom highlights
func (s *Scene) ClearHighlights() error {
	return s.fire("clear_highlights", map[string]any{})
}
