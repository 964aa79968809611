package detection

import "fmt"

// NoSelection is the selected index when nothing is selected.
const NoSelection = -1

// FrameState holds the current frame's detections and the selected index.
// The detection list is only ever replaced as a whole; the selected index is
// always NoSelection or a valid index into it.
//
// The zero value is not ready to use; call NewFrameState.
type FrameState struct {
	detections []Detection
	selected   int
}

// NewFrameState returns an empty state with nothing selected.
func NewFrameState() *FrameState {
	return &FrameState{selected: NoSelection}
}

// Replace installs a new frame's detections and clears the selection.
func (s *FrameState) Replace(detections []Detection) {
	s.detections = append([]Detection(nil), detections...)
	s.selected = NoSelection
}

// SelectAt selects the first detection, in detector order, whose box strictly
// contains the point. A miss clears the selection. Returns the new index.
func (s *FrameState) SelectAt(x, y float64) int {
	s.selected = NoSelection
	for i, d := range s.detections {
		if d.Box.Contains(x, y) {
			s.selected = i
			break
		}
	}
	return s.selected
}

// SelectNext advances the selection cyclically; from NoSelection it enters at
// the first detection. No-op when there are no detections.
func (s *FrameState) SelectNext() int {
	n := len(s.detections)
	if n == 0 {
		return s.selected
	}
	s.selected = (s.selected + 1) % n
	return s.selected
}

// SelectPrevious retreats the selection cyclically; from NoSelection it
// enters at the last detection. No-op when there are no detections.
func (s *FrameState) SelectPrevious() int {
	n := len(s.detections)
	if n == 0 {
		return s.selected
	}
	if s.selected == NoSelection {
		s.selected = n - 1
	} else {
		s.selected = (s.selected - 1 + n) % n
	}
	return s.selected
}

// Current returns the selected detection, or false if nothing is selected.
func (s *FrameState) Current() (Detection, bool) {
	if s.selected == NoSelection {
		return Detection{}, false
	}
	return s.detections[s.selected], true
}

// SelectedIndex returns the selected index or NoSelection.
func (s *FrameState) SelectedIndex() int {
	return s.selected
}

// Len returns the number of detections in the current frame.
func (s *FrameState) Len() int {
	return len(s.detections)
}

// Detections returns a copy of the current frame's detections.
func (s *FrameState) Detections() []Detection {
	return append([]Detection(nil), s.detections...)
}

// Describe formats the current selection for diagnostic output.
func (s *FrameState) Describe() string {
	d, ok := s.Current()
	if !ok {
		return "No item selected"
	}
	return fmt.Sprintf("Selected #%d: %s (%.2f) %v", s.selected, d.Label, d.Confidence, d.Box)
}
