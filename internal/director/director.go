package director

import (
	"fmt"
	"math"
	"regexp"
	"strings"
)

// DefaultTotalDuration is used when the scene supplier reports no usable total.
const DefaultTotalDuration = 30.0

var ordinalPrefix = regexp.MustCompile(`^\d+[\.\)]\s*`)

// Director lays out scene timing for a reel template.
type Director struct {
	MinSceneDuration float64 // Floor for every scene (seconds)
	MinContentScenes int     // Content scenes are padded up to this count
	IntroShare       float64 // Fraction of the total reserved for the hook
	MaxIntro         float64 // Upper bound for the hook window (seconds)
}

// NewDirector creates a Director with the reel defaults.
func NewDirector() *Director {
	return &Director{
		MinSceneDuration: 1.0,
		MinContentScenes: 3,
		IntroShare:       0.1,
		MaxIntro:         2.0,
	}
}

// BuildScenes lays out a reel with the default Director.
func BuildScenes(items []RawItem, totalDuration float64, introText, outroText *string) *Template {
	return NewDirector().BuildScenes(items, totalDuration, introText, outroText)
}

// BuildScenes turns supplier items into a timed template: a hook scene, one
// location per content item and a call-to-action scene. Times accumulate left
// to right; the outro absorbs whatever rounding left over. It is pure and
// deterministic.
func (d *Director) BuildScenes(items []RawItem, totalDuration float64, introText, outroText *string) *Template {
	if totalDuration <= 0 || math.IsNaN(totalDuration) || math.IsInf(totalDuration, 0) {
		totalDuration = DefaultTotalDuration
	}

	introTime := d.introWindow(totalDuration)
	outroTime := introTime
	contentTime := totalDuration - introTime - outroTime

	itemCount := len(items)
	if itemCount < d.MinContentScenes {
		itemCount = d.MinContentScenes
	}
	timePerItem := contentTime / float64(itemCount)

	tmpl := &Template{
		Type:      TypeReel,
		IntroText: nonEmpty(introText),
		OutroText: nonEmpty(outroText),
	}

	elapsed := 0.0
	hook := d.newScene("scene-1", elapsed, introTime, tmpl.IntroText, RoleHook)
	elapsed = hook.EndTime
	tmpl.Locations = append(tmpl.Locations, Location{ID: "intro", Name: "Intro", Scenes: []Scene{hook}})

	for i := 0; i < itemCount; i++ {
		var item RawItem
		if i < len(items) {
			item = items[i]
		}

		name := DisplayName(item.Text, i+1)
		duration := timePerItem
		if item.Duration > 0 && !math.IsInf(item.Duration, 0) {
			duration = item.Duration
		}

		sc := d.newScene("scene-1", elapsed, duration, &name, RoleNumbered)
		elapsed = sc.EndTime
		tmpl.Locations = append(tmpl.Locations, Location{
			ID:     fmt.Sprintf("location-%d", i+1),
			Name:   name,
			Scenes: []Scene{sc},
		})
	}

	remainder := totalDuration - elapsed
	cta := d.newScene("scene-1", elapsed, remainder, tmpl.OutroText, RoleCTA)
	tmpl.Locations = append(tmpl.Locations, Location{ID: "outro", Name: "Outro", Scenes: []Scene{cta}})

	tmpl.Recalculate()
	return tmpl
}

// introWindow is min(MaxIntro, total*IntroShare) rounded to whole seconds, at least one second.
func (d *Director) introWindow(total float64) float64 {
	intro := math.Round(math.Min(d.MaxIntro, total*d.IntroShare))
	return math.Max(d.MinSceneDuration, intro)
}

func (d *Director) newScene(id string, start, duration float64, text *string, role StyleRole) Scene {
	duration = math.Max(d.MinSceneDuration, round1(duration))
	end := round1(start + duration)
	return Scene{
		ID:          id,
		StartTime:   start,
		EndTime:     end,
		Duration:    round1(end - start),
		TextOverlay: text,
		TextStyle:   mustStyle(role),
	}
}

// DisplayName strips a leading ordinal ("1. ", "2) ") from supplier text.
// Empty results fall back to "Location n".
func DisplayName(text string, n int) string {
	name := strings.TrimSpace(ordinalPrefix.ReplaceAllString(strings.TrimSpace(text), ""))
	if name == "" {
		return fmt.Sprintf("Location %d", n)
	}
	return name
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func nonEmpty(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
