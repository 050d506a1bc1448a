// Package ui draws the viewer's panels: the HUD, the controls panel, the
// being inspector and overlay toggles. Panels are laid out from descriptors
// so that new fields only need metadata, not layout code.
package ui

import rl "github.com/gen2brain/raylib-go/raylib"

// WidgetType specifies how a field is rendered.
type WidgetType int

const (
	WidgetText        WidgetType = iota // Plain text with format string
	WidgetBar                           // Progress bar over Range
	WidgetCenteredBar                   // Bar growing from zero over Range
	WidgetSection                       // Section header
	WidgetSpacer                        // Vertical spacing
)

// FieldRange defines the value range for bar widgets.
type FieldRange struct {
	Min float32
	Max float32
}

// FieldDescriptor defines how to display a single value.
type FieldDescriptor struct {
	ID     string
	Label  string
	Widget WidgetType
	Format string // Printf format for text
	Range  FieldRange

	Getter     func(any) float32 // Numeric value extractor
	TextGetter func(any) string  // Text value extractor, preferred over Getter for text
}

// SectionDescriptor groups fields under a header.
type SectionDescriptor struct {
	Title   string
	Fields  []FieldDescriptor
	Visible func(any) bool // nil = always visible
}

// Theme holds UI styling constants.
type Theme struct {
	PanelBg         rl.Color
	PanelBorder     rl.Color
	SectionHeader   rl.Color
	LabelColor      rl.Color
	ValueColor      rl.Color
	BarBg           rl.Color
	BarFill         rl.Color
	BarFillLow      rl.Color
	BarFillMedium   rl.Color
	BarFillHigh     rl.Color
	BarFillNegative rl.Color
	BarFillPositive rl.Color
	Padding         int32
	LineHeight      int32
	LabelWidth      int32
	BarHeight       int32
	FontSize        int32
	HeaderFontSize  int32
}

// DefaultTheme returns the default UI theme.
func DefaultTheme() Theme {
	return Theme{
		PanelBg:         rl.Color{R: 18, G: 20, B: 26, A: 235},
		PanelBorder:     rl.Color{R: 60, G: 66, B: 80, A: 255},
		SectionHeader:   rl.Color{R: 240, G: 200, B: 90, A: 255},
		LabelColor:      rl.LightGray,
		ValueColor:      rl.RayWhite,
		BarBg:           rl.Color{R: 40, G: 42, B: 48, A: 255},
		BarFill:         rl.Color{R: 100, G: 150, B: 210, A: 255},
		BarFillLow:      rl.Color{R: 210, G: 90, B: 90, A: 255},
		BarFillMedium:   rl.Color{R: 210, G: 180, B: 90, A: 255},
		BarFillHigh:     rl.Color{R: 100, G: 200, B: 110, A: 255},
		BarFillNegative: rl.Color{R: 210, G: 100, B: 100, A: 255},
		BarFillPositive: rl.Color{R: 100, G: 200, B: 110, A: 255},
		Padding:         10,
		LineHeight:      16,
		LabelWidth:      78,
		BarHeight:       11,
		FontSize:        12,
		HeaderFontSize:  14,
	}
}
