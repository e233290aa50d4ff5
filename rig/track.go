// SPDX-License-Identifier: EPL-2.0

package rig

// Track is one decoder output: Frames rows of per-control values at the
// native embedding rate.
type Track struct {
	Controls []Control
	Frames   int
	Data     []float32
}

func (t *Track) Width() int { return len(t.Controls) }

// Row returns a view of frame i.
func (t *Track) Row(i int) []float32 {
	w := t.Width()
	return t.Data[i*w : (i+1)*w]
}

func (t *Track) Names() []string {
	out := make([]string, len(t.Controls))
	for i, c := range t.Controls {
		out[i] = c.Name
	}
	return out
}

// Filter returns a copy keeping only the controls keep accepts.
func (t *Track) Filter(keep func(Control) bool) *Track {
	var cols []int
	out := &Track{Frames: t.Frames}
	for i, c := range t.Controls {
		if keep(c) {
			cols = append(cols, i)
			out.Controls = append(out.Controls, c)
		}
	}

	out.Data = make([]float32, 0, t.Frames*len(cols))
	for f := range t.Frames {
		row := t.Row(f)
		for _, c := range cols {
			out.Data = append(out.Data, row[c])
		}
	}
	return out
}

// Tracks holds the decoder's face, blink and head outputs. All three share
// the same frame count.
type Tracks struct {
	Face  *Track
	Blink *Track
	Head  *Track
}

// Frames is the shared frame count.
func (t *Tracks) Frames() int {
	if all := t.All(); len(all) > 0 {
		return all[0].Frames
	}
	return 0
}

// All returns the tracks that are present, face first.
func (t *Tracks) All() []*Track {
	var out []*Track
	for _, tr := range []*Track{t.Face, t.Blink, t.Head} {
		if tr != nil {
			out = append(out, tr)
		}
	}
	return out
}

// Select applies the output options: MouthOnly keeps the speech regions of
// the face and drops head motion, blinks=false drops the blink track.
func (t *Tracks) Select(controls OutputControls, blinks bool) *Tracks {
	out := *t
	if controls == MouthOnly {
		if out.Face != nil {
			out.Face = out.Face.Filter(func(c Control) bool { return c.Region.Speech() })
		}
		out.Head = nil
	}
	if !blinks {
		out.Blink = nil
	}
	return &out
}
