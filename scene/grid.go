package scene

import (
	"github.com/Roy-Kid/molvis/errors"
)

// GridOptions control the reference grid drawn under the molecular content
type GridOptions struct {
	// Size is the grid extent in scene units; zero means 10
	Size float64
	// Divisions is the number of grid cells per side; zero means 10
	Divisions int
	// Color is a hex color string; empty means peer default
	Color string
	// Opacity in [0,1]; zero means peer default
	Opacity float64
	// Visible defaults to true when nil
	Visible *bool
}

func (o GridOptions) params() map[string]any {
	size := o.Size
	if size <= 0 {
		size = 10
	}
	divisions := o.Divisions
	if divisions <= 0 {
		divisions = 10
	}
	visible := true
	if o.Visible != nil {
		visible = *o.Visible
	}
	params := map[string]any{
		"size":      size,
		"divisions": divisions,
		"visible":   visible,
	}
	if o.Color != "" {
		params["color"] = o.Color
	}
	if o.Opacity > 0 {
		params["opacity"] = o.Opacity
	}
	return params
}

// DrawGrid draws a reference grid with the given options
func (s *Scene) DrawGrid(opts GridOptions) error {
	return s.fire("draw_grid", opts.params())
}

// ShowGrid makes the grid visible
func (s *Scene) ShowGrid() error {
	return s.fire("show_grid", map[string]any{})
}

// HideGrid hides the grid
func (s *Scene) HideGrid() error {
	return s.fire("hide_grid", map[string]any{})
}

// ToggleGrid flips grid visibility
func (s *Scene) ToggleGrid() error {
	return s.fire("toggle_grid", map[string]any{})
}

// EnableGrid enables the grid subsystem with the given options
func (s *Scene) EnableGrid(opts GridOptions) error {
	return s.fire("enable_grid", opts.params())
}

// DisableGrid disables the grid subsystem
func (s *Scene) DisableGrid() error {
	return s.fire("disable_grid", map[string]any{})
}

// UpdateGridAppearance updates grid appearance without toggling it
func (s *Scene) UpdateGridAppearance(opts GridOptions) error {
	return s.fire("update_grid_appearance", opts.params())
}

// SetGridSize changes the grid extent
func (s *Scene) SetGridSize(size float64) error {
	if size <= 0 {
		return errors.Shapef(s.name, "set_grid_size", "size must be positive, got %v", size)
	}
	return s.fire("set_grid_size", map[string]any{"size": size})
}
