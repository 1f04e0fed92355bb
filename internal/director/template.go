package director

import (
	"fmt"
	"strings"
)

// Placement locates one scene inside a template in playback order.
type Placement struct {
	Index         int    // playback index across the whole template
	Key           string // "locationID/sceneID"
	LocationIndex int
	SceneIndex    int
	Scene         Scene
}

// SceneKey identifies a scene across the template; scene ids are only unique per location.
func SceneKey(locationID, sceneID string) string {
	return locationID + "/" + sceneID
}

// Scenes flattens the template in playback order: location order, then scene order.
func (t *Template) Scenes() []Placement {
	var out []Placement
	for li, loc := range t.Locations {
		for si, sc := range loc.Scenes {
			out = append(out, Placement{
				Index:         len(out),
				Key:           SceneKey(loc.ID, sc.ID),
				LocationIndex: li,
				SceneIndex:    si,
				Scene:         sc,
			})
		}
	}
	return out
}

// Recalculate refreshes every location total and the template total.
func (t *Template) Recalculate() {
	total := 0.0
	for li := range t.Locations {
		loc := &t.Locations[li]
		sum := 0.0
		for _, sc := range loc.Scenes {
			sum += sc.Duration
		}
		loc.TotalDuration = round1(sum)
		total += sum
	}
	t.TotalDuration = round1(total)
}

// Retime reassigns start/end times left to right keeping each scene's duration,
// then recalculates totals.
func (t *Template) Retime() {
	elapsed := 0.0
	for li := range t.Locations {
		for si := range t.Locations[li].Scenes {
			sc := &t.Locations[li].Scenes[si]
			sc.StartTime = elapsed
			sc.EndTime = round1(elapsed + sc.Duration)
			sc.Duration = round1(sc.EndTime - sc.StartTime)
			elapsed = sc.EndTime
		}
	}
	t.Recalculate()
}

// AddScene appends an empty scene to a location and retimes the template.
func (t *Template) AddScene(locIdx int, duration float64) (*Scene, error) {
	if locIdx < 0 || locIdx >= len(t.Locations) {
		return nil, fmt.Errorf("location index %d out of range", locIdx)
	}
	if duration <= 0 {
		return nil, fmt.Errorf("scene duration must be positive, got %.2f", duration)
	}
	loc := &t.Locations[locIdx]
	loc.Scenes = append(loc.Scenes, Scene{
		ID:       nextSceneID(loc.Scenes),
		Duration: round1(duration),
	})
	t.Retime()
	return &loc.Scenes[len(loc.Scenes)-1], nil
}

// ResizeScene changes one scene's duration and shifts everything after it.
func (t *Template) ResizeScene(locIdx, sceneIdx int, duration float64) error {
	if locIdx < 0 || locIdx >= len(t.Locations) {
		return fmt.Errorf("location index %d out of range", locIdx)
	}
	scenes := t.Locations[locIdx].Scenes
	if sceneIdx < 0 || sceneIdx >= len(scenes) {
		return fmt.Errorf("scene index %d out of range in location %s", sceneIdx, t.Locations[locIdx].ID)
	}
	if duration <= 0 {
		return fmt.Errorf("scene duration must be positive, got %.2f", duration)
	}
	scenes[sceneIdx].Duration = round1(duration)
	t.Retime()
	return nil
}

// FillScene binds trim/crop data to a scene and marks it filled.
func (t *Template) FillScene(key string, trim *TrimData) error {
	sc := t.sceneByKey(key)
	if sc == nil {
		return fmt.Errorf("scene %q not found", key)
	}
	if trim != nil {
		cp := *trim
		sc.TrimData = &cp
	}
	sc.Filled = true
	return nil
}

// SceneByKey returns a copy of the scene addressed by "locationID/sceneID".
func (t *Template) SceneByKey(key string) (Scene, bool) {
	sc := t.sceneByKey(key)
	if sc == nil {
		return Scene{}, false
	}
	return *sc, true
}

func (t *Template) sceneByKey(key string) *Scene {
	locID, sceneID, ok := strings.Cut(key, "/")
	if !ok {
		return nil
	}
	for li := range t.Locations {
		if t.Locations[li].ID != locID {
			continue
		}
		for si := range t.Locations[li].Scenes {
			if t.Locations[li].Scenes[si].ID == sceneID {
				return &t.Locations[li].Scenes[si]
			}
		}
	}
	return nil
}

func nextSceneID(scenes []Scene) string {
	taken := make(map[string]bool, len(scenes))
	for _, sc := range scenes {
		taken[sc.ID] = true
	}
	for n := len(scenes) + 1; ; n++ {
		id := fmt.Sprintf("scene-%d", n)
		if !taken[id] {
			return id
		}
	}
}
