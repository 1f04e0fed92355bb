package director

// TemplateType discriminates reels (locations/scenes) from carousels (flat slides).
type TemplateType string

const (
	TypeReel     TemplateType = "reel"
	TypeCarousel TemplateType = "carousel"
)

// Template is the aggregate root of a reel: ordered locations and their timing.
type Template struct {
	ID            string       `yaml:"id,omitempty" json:"id,omitempty"`
	Type          TemplateType `yaml:"type" json:"type"`
	Name          string       `yaml:"name,omitempty" json:"name,omitempty"`
	Locations     []Location   `yaml:"locations" json:"locations"`
	TotalDuration float64      `yaml:"totalDuration" json:"totalDuration"`
	IntroText     *string      `yaml:"introText,omitempty" json:"introText,omitempty"`
	OutroText     *string      `yaml:"outroText,omitempty" json:"outroText,omitempty"`
	CTALink       string       `yaml:"ctaLink,omitempty" json:"ctaLink,omitempty"`
	Slides        []Slide      `yaml:"slides,omitempty" json:"slides,omitempty"`
}

// Location groups scenes sharing one subject. Scene order is playback order.
type Location struct {
	ID            string  `yaml:"id" json:"id"`
	Name          string  `yaml:"name" json:"name"`
	Scenes        []Scene `yaml:"scenes" json:"scenes"`
	TotalDuration float64 `yaml:"totalDuration" json:"totalDuration"`
}

// Scene is one timed segment of the output video (seconds).
type Scene struct {
	ID          string     `yaml:"id" json:"id"`
	StartTime   float64    `yaml:"startTime" json:"startTime"`
	EndTime     float64    `yaml:"endTime" json:"endTime"`
	Duration    float64    `yaml:"duration" json:"duration"`
	TextOverlay *string    `yaml:"textOverlay,omitempty" json:"textOverlay,omitempty"`
	TextStyle   *TextStyle `yaml:"textStyle,omitempty" json:"textStyle,omitempty"`
	TrimData    *TrimData  `yaml:"trimData,omitempty" json:"trimData,omitempty"`
	Filled      bool       `yaml:"filled" json:"filled"`
}

// TrimData maps the user's source clip onto a scene.
// CropX/CropY are the normalized origin of the crop window, not its center.
type TrimData struct {
	InTime    float64 `yaml:"inTime" json:"inTime" validate:"gte=0"`
	OutTime   float64 `yaml:"outTime" json:"outTime" validate:"gtfield=InTime"`
	CropX     float64 `yaml:"cropX" json:"cropX" validate:"gte=0,lte=1"`
	CropY     float64 `yaml:"cropY" json:"cropY" validate:"gte=0,lte=1"`
	CropScale float64 `yaml:"cropScale" json:"cropScale" validate:"omitempty,gte=1"`
}

type EmojiPosition string

const (
	EmojiBefore EmojiPosition = "before"
	EmojiAfter  EmojiPosition = "after"
	EmojiBoth   EmojiPosition = "both"
)

type TextPosition string

const (
	PositionTop    TextPosition = "top"
	PositionCenter TextPosition = "center"
	PositionBottom TextPosition = "bottom"
)

type TextAlignment string

const (
	AlignLeft   TextAlignment = "left"
	AlignCenter TextAlignment = "center"
	AlignRight  TextAlignment = "right"
)

// TextStyle describes how a scene's overlay is drawn. FontSize is in output pixels.
type TextStyle struct {
	Role          StyleRole     `yaml:"role,omitempty" json:"role,omitempty"`
	FontFamily    string        `yaml:"fontFamily,omitempty" json:"fontFamily,omitempty"`
	FontSize      float64       `yaml:"fontSize,omitempty" json:"fontSize,omitempty" validate:"gte=0"`
	FontWeight    string        `yaml:"fontWeight,omitempty" json:"fontWeight,omitempty"`
	Color         string        `yaml:"color,omitempty" json:"color,omitempty"`
	Shadow        string        `yaml:"shadow,omitempty" json:"shadow,omitempty"`
	Emoji         string        `yaml:"emoji,omitempty" json:"emoji,omitempty"`
	EmojiPosition EmojiPosition `yaml:"emojiPosition,omitempty" json:"emojiPosition,omitempty" validate:"omitempty,oneof=before after both"`
	Position      TextPosition  `yaml:"position,omitempty" json:"position,omitempty" validate:"omitempty,oneof=top center bottom"`
	Alignment     TextAlignment `yaml:"alignment,omitempty" json:"alignment,omitempty" validate:"omitempty,oneof=left center right"`
}

// Slide is a carousel page: text over a static image.
type Slide struct {
	ID        string     `yaml:"id" json:"id"`
	ImageURL  string     `yaml:"imageUrl,omitempty" json:"imageUrl,omitempty"`
	Text      string     `yaml:"text,omitempty" json:"text,omitempty"`
	TextStyle *TextStyle `yaml:"textStyle,omitempty" json:"textStyle,omitempty"`
}

// RawItem is one entry from the scene supplier. Duration is optional and untrusted.
type RawItem struct {
	Text     string  `yaml:"text" json:"text"`
	Duration float64 `yaml:"duration,omitempty" json:"duration,omitempty"`
}

// Decorated returns the overlay text with the style's emoji affixed.
func (s Scene) Decorated() string {
	if s.TextOverlay == nil {
		return ""
	}
	text := *s.TextOverlay
	if s.TextStyle == nil || s.TextStyle.Emoji == "" {
		return text
	}
	emoji := s.TextStyle.Emoji
	switch s.TextStyle.EmojiPosition {
	case EmojiAfter:
		return text + " " + emoji
	case EmojiBoth:
		return emoji + " " + text + " " + emoji
	default:
		return emoji + " " + text
	}
}

// HasOverlay reports whether the scene burns in any text.
func (s Scene) HasOverlay() bool {
	return s.TextOverlay != nil && *s.TextOverlay != ""
}
