package ui

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// Renderer draws widgets with consistent styling.
type Renderer struct {
	Theme Theme
}

// NewRenderer creates a renderer with the default theme.
func NewRenderer() *Renderer {
	return &Renderer{Theme: DefaultTheme()}
}

// DrawPanel draws a panel background with border.
func (r *Renderer) DrawPanel(x, y, width, height int32) {
	rl.DrawRectangle(x, y, width, height, r.Theme.PanelBg)
	rl.DrawRectangleLines(x, y, width, height, r.Theme.PanelBorder)
}

// DrawSectionHeader draws a section header and returns the next Y position.
func (r *Renderer) DrawSectionHeader(x, y int32, title string) int32 {
	rl.DrawText(title, x, y, r.Theme.HeaderFontSize, r.Theme.SectionHeader)
	return y + r.Theme.LineHeight + 2
}

// DrawLabelValue draws a label and value on one line.
func (r *Renderer) DrawLabelValue(x, y int32, label, value string) int32 {
	rl.DrawText(label+":", x, y, r.Theme.FontSize, r.Theme.LabelColor)
	rl.DrawText(value, x+r.Theme.LabelWidth, y, r.Theme.FontSize, r.Theme.ValueColor)
	return y + r.Theme.LineHeight
}

// DrawBar draws value as a fraction of [min, max].
func (r *Renderer) DrawBar(x, y int32, label string, value, minVal, maxVal float32, width int32) int32 {
	frac := float32(0)
	if maxVal > minVal {
		frac = clamp01((value - minVal) / (maxVal - minVal))
	}

	barX := x + r.Theme.LabelWidth
	barW := width - r.Theme.LabelWidth - 48

	rl.DrawText(label+":", x, y, r.Theme.FontSize, r.Theme.LabelColor)
	rl.DrawRectangle(barX, y+2, barW, r.Theme.BarHeight, r.Theme.BarBg)
	rl.DrawRectangle(barX, y+2, int32(float32(barW)*frac), r.Theme.BarHeight, r.levelColor(frac))
	rl.DrawText(fmt.Sprintf("%.2f", value), barX+barW+5, y, r.Theme.FontSize, r.Theme.ValueColor)

	return y + r.Theme.LineHeight + 2
}

// levelColor picks a fill by how full a bar is.
func (r *Renderer) levelColor(frac float32) rl.Color {
	switch {
	case frac < 0.3:
		return r.Theme.BarFillLow
	case frac < 0.6:
		return r.Theme.BarFillMedium
	default:
		return r.Theme.BarFillHigh
	}
}

// DrawCenteredBar draws a bar growing left or right from zero. The half
// width corresponds to max(|min|, |max|).
func (r *Renderer) DrawCenteredBar(x, y int32, label string, value, minVal, maxVal float32, width int32) int32 {
	barX := x + r.Theme.LabelWidth
	barW := width - r.Theme.LabelWidth - 48
	centreX := barX + barW/2

	rl.DrawText(label+":", x, y, r.Theme.FontSize, r.Theme.LabelColor)
	rl.DrawRectangle(barX, y+2, barW, r.Theme.BarHeight, r.Theme.BarBg)
	rl.DrawLine(centreX, y+2, centreX, y+2+r.Theme.BarHeight, rl.Gray)

	span := max(absf(minVal), absf(maxVal))
	if span > 0 {
		fillW := int32(float32(barW/2) * clamp01(absf(value)/span))
		if value < 0 {
			rl.DrawRectangle(centreX-fillW, y+2, fillW, r.Theme.BarHeight, r.Theme.BarFillNegative)
		} else {
			rl.DrawRectangle(centreX, y+2, fillW, r.Theme.BarHeight, r.Theme.BarFillPositive)
		}
	}
	rl.DrawText(fmt.Sprintf("%+.2f", value), barX+barW+5, y, r.Theme.FontSize, r.Theme.ValueColor)

	return y + r.Theme.LineHeight + 2
}

// DrawHeatStrip draws values in [-1, 1] as a row of coloured cells.
func (r *Renderer) DrawHeatStrip(x, y int32, label string, values []float32, width int32) int32 {
	rl.DrawText(label+":", x, y, r.Theme.FontSize, r.Theme.LabelColor)
	if len(values) == 0 {
		return y + r.Theme.LineHeight
	}
	stripX := x + r.Theme.LabelWidth
	cellW := max(1, (width-r.Theme.LabelWidth)/int32(len(values)))
	for i, v := range values {
		rl.DrawRectangle(stripX+int32(i)*cellW, y+2, cellW, r.Theme.BarHeight, HeatColor(v))
	}
	return y + r.Theme.LineHeight + 2
}

// HeatColor maps [-1, 1] to red through black to green.
func HeatColor(v float32) rl.Color {
	v = max(-1, min(1, v))
	if v < 0 {
		return rl.Color{R: uint8(-v * 230), G: 20, B: 20, A: 255}
	}
	return rl.Color{R: 20, G: uint8(v * 230), B: 20, A: 255}
}

// DrawField renders a field from its descriptor.
func (r *Renderer) DrawField(x, y int32, fd FieldDescriptor, data any, width int32) int32 {
	value := float32(0)
	if fd.Getter != nil {
		value = fd.Getter(data)
	}

	switch fd.Widget {
	case WidgetText:
		text := fmt.Sprintf(fd.Format, value)
		if fd.TextGetter != nil {
			text = fd.TextGetter(data)
		}
		return r.DrawLabelValue(x, y, fd.Label, text)
	case WidgetBar:
		return r.DrawBar(x, y, fd.Label, value, fd.Range.Min, fd.Range.Max, width)
	case WidgetCenteredBar:
		return r.DrawCenteredBar(x, y, fd.Label, value, fd.Range.Min, fd.Range.Max, width)
	case WidgetSection:
		return r.DrawSectionHeader(x, y, fd.Label)
	case WidgetSpacer:
		return y + 6
	}
	return y
}

// DrawSection renders a section header followed by its fields.
func (r *Renderer) DrawSection(x, y int32, sd SectionDescriptor, data any, width int32) int32 {
	if sd.Visible != nil && !sd.Visible(data) {
		return y
	}
	if sd.Title != "" {
		y = r.DrawSectionHeader(x, y, sd.Title)
	}
	for _, fd := range sd.Fields {
		y = r.DrawField(x, y, fd, data, width)
	}
	return y + 4
}

func clamp01(v float32) float32 {
	return max(0, min(1, v))
}

func absf(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
