package director

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// durationTolerance absorbs one decimal of rounding in persisted documents.
const durationTolerance = 0.1

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// ValidateScene checks a scene's own invariants. Bounds against the bound
// clip's decoded duration are checked by the render pipeline.
func ValidateScene(sc Scene) error {
	if sc.ID == "" {
		return errors.New("scene id is empty")
	}
	if !(sc.Duration > 0) {
		return fmt.Errorf("scene %s: duration must be positive, got %.3f", sc.ID, sc.Duration)
	}
	if math.Abs((sc.EndTime-sc.StartTime)-sc.Duration) > durationTolerance {
		return fmt.Errorf("scene %s: duration %.3f does not match end-start %.3f",
			sc.ID, sc.Duration, sc.EndTime-sc.StartTime)
	}
	if sc.TrimData != nil {
		if err := structValidator().Struct(sc.TrimData); err != nil {
			return fmt.Errorf("scene %s: trimData: %s", sc.ID, describe(err))
		}
	}
	if sc.TextStyle != nil {
		if err := structValidator().Struct(sc.TextStyle); err != nil {
			return fmt.Errorf("scene %s: textStyle: %s", sc.ID, describe(err))
		}
	}
	return nil
}

// ValidateTemplate checks structure and aggregate timing of a template document.
func ValidateTemplate(t *Template) error {
	if t == nil {
		return errors.New("template is nil")
	}
	if t.Type == TypeCarousel {
		return errors.New("carousel templates have no media pipeline")
	}

	total := 0.0
	for _, loc := range t.Locations {
		seen := make(map[string]bool, len(loc.Scenes))
		sum := 0.0
		for _, sc := range loc.Scenes {
			if seen[sc.ID] {
				return fmt.Errorf("location %s: duplicate scene id %q", loc.ID, sc.ID)
			}
			seen[sc.ID] = true
			if err := ValidateScene(sc); err != nil {
				return fmt.Errorf("location %s: %w", loc.ID, err)
			}
			sum += sc.Duration
		}
		if math.Abs(sum-loc.TotalDuration) > durationTolerance {
			return fmt.Errorf("location %s: totalDuration %.2f is stale (scenes sum to %.2f)", loc.ID, loc.TotalDuration, sum)
		}
		total += sum
	}
	if math.Abs(total-t.TotalDuration) > durationTolerance {
		return fmt.Errorf("template totalDuration %.2f is stale (locations sum to %.2f)", t.TotalDuration, total)
	}
	return nil
}

func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s must satisfy %s=%s (got %v)", fe.Field(), fe.Tag(), fe.Param(), fe.Value()))
		} else {
			parts = append(parts, fmt.Sprintf("%s must satisfy %s (got %v)", fe.Field(), fe.Tag(), fe.Value()))
		}
	}
	return strings.Join(parts, "; ")
}
