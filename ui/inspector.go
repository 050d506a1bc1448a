package ui

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/neuralang/inspector"
	"github.com/pthm-cable/neuralang/neural"
	"github.com/pthm-cable/neuralang/telemetry"
)

// InspectorData holds everything shown for the selected being.
type InspectorData struct {
	Fields      []inspector.Field // Reflected component fields
	Senses      [3]int            // Rows gathered last tick: beings, food/obstructs, speechlets
	Output      []float32
	Activations *neural.Activations
	Lifetime    *telemetry.LifetimeStats
}

// Inspector renders the being inspection panel.
type Inspector struct {
	renderer *Renderer
	x, y     int32
	width    int32
	outputs  []neural.IODescriptor
}

// NewInspector creates a new inspector panel.
func NewInspector(x, y, width int32) *Inspector {
	return &Inspector{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
		outputs:  neural.OutputDescriptors(),
	}
}

// SetPosition updates the inspector position.
func (ins *Inspector) SetPosition(x, y int32) {
	ins.x, ins.y = x, y
}

var pooledLabels = [4]string{"Beings", "Food/walls", "Speech", "Self"}

// Draw renders the panel for the given data.
func (ins *Inspector) Draw(data InspectorData) int32 {
	r := ins.renderer
	pad := r.Theme.Padding
	x := ins.x + pad
	w := ins.width - 2*pad

	r.DrawPanel(ins.x, ins.y, ins.width, ins.height(data))
	y := ins.y + pad

	y = r.DrawSectionHeader(x, y, "Being")
	for _, f := range data.Fields {
		y = ins.drawField(x, y, f, w)
	}
	y = r.DrawLabelValue(x, y, "Senses", fmt.Sprintf("%d / %d / %d", data.Senses[0], data.Senses[1], data.Senses[2]))
	y += 4

	if len(data.Output) > 0 {
		y = r.DrawSectionHeader(x, y, "Outputs")
		for i, desc := range ins.outputs {
			if desc.Group == "speechlet" || i >= len(data.Output) {
				continue
			}
			y = r.DrawCenteredBar(x, y, desc.Label, data.Output[i], desc.Min, desc.Max, w)
		}
		if len(data.Output) > neural.OutSpeechlet {
			y = r.DrawHeatStrip(x, y, "Speechlet", data.Output[neural.OutSpeechlet:], w)
		}
		y += 4
	}

	if act := data.Activations; act != nil {
		y = r.DrawSectionHeader(x, y, "Encodings")
		for k, pooled := range act.Pooled {
			y = r.DrawHeatStrip(x, y, pooledLabels[k], pooled, w)
		}
		y = r.DrawHeatStrip(x, y, "Combined", act.Intermediate, w)
		y += 4
	}

	if lt := data.Lifetime; lt != nil {
		y = r.DrawSectionHeader(x, y, "Lifetime")
		y = r.DrawLabelValue(x, y, "Generation", fmt.Sprint(lt.Generation))
		y = r.DrawLabelValue(x, y, "Born", fmt.Sprintf("tick %d", lt.BirthTick))
		y = r.DrawLabelValue(x, y, "Eaten", fmt.Sprintf("%d (%d flesh)", lt.FoodsEaten, lt.FleshEaten))
		y = r.DrawLabelValue(x, y, "Built", fmt.Sprint(lt.ObstructsBuilt))
		y = r.DrawLabelValue(x, y, "Spoke/heard", fmt.Sprintf("%d / %d", lt.SpeechletsEmitted, lt.SpeechletsHeard))
		y = r.DrawLabelValue(x, y, "Peak energy", fmt.Sprintf("%.2f", lt.PeakEnergy))
	}
	return y
}

func (ins *Inspector) drawField(x, y int32, f inspector.Field, w int32) int32 {
	r := ins.renderer
	switch f.Widget {
	case inspector.WidgetBar:
		return r.DrawBar(x, y, f.Name, f.Value, f.Min, f.Max, w)
	case inspector.WidgetCentered:
		return r.DrawCenteredBar(x, y, f.Name, f.Value, f.Min, f.Max, w)
	default:
		return r.DrawLabelValue(x, y, f.Name, f.Text())
	}
}

// height estimates the panel height so the background is drawn first.
func (ins *Inspector) height(data InspectorData) int32 {
	t := ins.renderer.Theme
	line := t.LineHeight + 2
	rows := int32(len(data.Fields)) + 2
	if len(data.Output) > 0 {
		rows += 6
	}
	if data.Activations != nil {
		rows += 6
	}
	if data.Lifetime != nil {
		rows += 7
	}
	return rows*line + 2*t.Padding + 12
}

// DrawSelection outlines the selected being on screen.
func DrawSelection(sx, sy, radius float32) {
	rl.DrawCircleLines(int32(sx), int32(sy), radius+4, rl.Yellow)
}
