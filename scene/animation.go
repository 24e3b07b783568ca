package scene

import (
	"reflect"
	"strconv"

	"github.com/Roy-Kid/molvis/errors"
	"github.com/Roy-Kid/molvis/frame"
)

// TrajectoryOptions control trajectory playback rendering
type TrajectoryOptions struct {
	// FPS is the playback rate; zero means 30
	FPS float64
	// Loop restarts playback from the first frame after the last
	Loop bool
	// Style selects the visualization style; empty means ball_and_stick
	Style Style
	// AtomRadius scales all atoms; zero leaves the peer default
	AtomRadius float64
	// AtomRadii gives per-atom radii and takes precedence over AtomRadius
	AtomRadii []float64
	// BondRadius overrides the bond radius; nil means DefaultBondRadius
	BondRadius *float64
}

// DrawTrajectory normalizes every frame of a trajectory and sends it for
// playback. The input must be a non-empty slice of frame-like values; the
// first frame that fails normalization aborts the whole operation before
// anything is sent.
func (s *Scene) DrawTrajectory(frames any, opts TrajectoryOptions) error {
	const method = "draw_trajectory"

	list, err := frameSlice(frames)
	if err != nil {
		return errors.Shapef(s.name, method, "%v", err)
	}
	if len(list) == 0 {
		return errors.EmptyInput(s.name, method, "trajectory")
	}

	options, err := s.styleParams(method, DrawOptions{
		Style:      opts.Style,
		AtomRadius: opts.AtomRadius,
		AtomRadii:  opts.AtomRadii,
		BondRadius: opts.BondRadius,
	})
	if err != nil {
		return err
	}

	normalized := make([]any, len(list))
	for i, src := range list {
		f, err := frame.Normalize(src)
		if err != nil {
			return errors.Wrap(err, s.name, method, "normalize frame "+strconv.Itoa(i))
		}
		data := f.Data()
		delete(data, "metadata")
		normalized[i] = data
	}

	fps := opts.FPS
	if fps <= 0 {
		fps = 30
	}

	params := map[string]any{
		"frames":  normalized,
		"fps":     fps,
		"loop":    opts.Loop,
		"options": options,
	}
	return s.fire(method, params)
}

// PlayAnimation starts or resumes trajectory playback. A zero fps keeps the
// peer's current rate.
func (s *Scene) PlayAnimation(fps float64) error {
	var rate any
	if fps > 0 {
		rate = fps
	}
	return s.fire("play_animation", map[string]any{"fps": rate})
}

// PauseAnimation pauses trajectory playback
func (s *Scene) PauseAnimation() error {
	return s.fire("pause_animation", map[string]any{})
}

// SetAnimationFrame jumps playback to the given frame index
func (s *Scene) SetAnimationFrame(index int) error {
	if index < 0 {
		return errors.Shapef(s.name, "set_animation_frame",
			"frame index must be non-negative, got %d", index)
	}
	return s.fire("set_animation_frame", map[string]any{"index": index})
}

// frameSlice normalizes any slice of frame-like values into []any
func frameSlice(frames any) ([]any, error) {
	switch f := frames.(type) {
	case nil:
		return nil, errors.New("trajectory cannot be nil")
	case []any:
		return f, nil
	case []map[string]any:
		out := make([]any, len(f))
		for i, m := range f {
			out[i] = m
		}
		return out, nil
	case []*frame.Frame:
		out := make([]any, len(f))
		for i, m := range f {
			out[i] = m
		}
		return out, nil
	}

	rv := reflect.ValueOf(frames)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, errors.New("trajectory must be a slice of frame-like values")
	}
	out := make([]any, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		out[i] = rv.Index(i).Interface()
	}
	return out, nil
}
