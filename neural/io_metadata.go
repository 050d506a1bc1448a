package neural

// IODescriptor describes a model input or output for UI display.
type IODescriptor struct {
	ID          string  // Unique identifier
	Label       string  // Display name
	Description string  // Tooltip/extended description
	Min         float32 // Minimum value
	Max         float32 // Maximum value
	IsCentered  bool    // True for centered bar display (e.g., -1 to +1)
	Group       string  // Logical grouping
}

// SelfInputDescriptors returns metadata for the self row, in row order.
func SelfInputDescriptors() []IODescriptor {
	return []IODescriptor{
		{ID: "border_x_dist", Label: "Border X", Description: "Distance to the nearest vertical border / FOV", Min: 0, Max: 1, Group: "self"},
		{ID: "border_x_rot", Label: "Border X rot", Description: "Heading offset toward the vertical border", Min: -4, Max: 4, IsCentered: true, Group: "self"},
		{ID: "border_y_dist", Label: "Border Y", Description: "Distance to the nearest horizontal border / FOV", Min: 0, Max: 1, Group: "self"},
		{ID: "border_y_rot", Label: "Border Y rot", Description: "Heading offset toward the horizontal border", Min: -4, Max: 4, IsCentered: true, Group: "self"},
		{ID: "energy", Label: "Energy", Description: "Energy / start energy", Min: 0, Max: 1, Group: "self"},
	}
}

// OutputDescriptors returns metadata for all model outputs, in output order.
func OutputDescriptors() []IODescriptor {
	out := []IODescriptor{
		{ID: "move", Label: "Move", Description: "Forward (+) or backward (-) speed", Min: -1, Max: 1, IsCentered: true, Group: "movement"},
		{ID: "rotate", Label: "Rotate", Description: "Turn, scaled by pi", Min: -1, Max: 1, IsCentered: true, Group: "movement"},
		{ID: "build", Label: "Build", Description: "Build an obstruct when > 0", Min: -1, Max: 1, IsCentered: true, Group: "action"},
		{ID: "speak", Label: "Speak", Description: "Emit a speechlet when > 0", Min: -1, Max: 1, IsCentered: true, Group: "action"},
	}
	for i := 0; i < SpeechletLen; i++ {
		id := string(rune('0' + i))
		out = append(out, IODescriptor{
			ID:          "s" + id,
			Label:       "S" + id,
			Description: "Speechlet component",
			Min:         -1,
			Max:         1,
			IsCentered:  true,
			Group:       "speechlet",
		})
	}
	return out
}

// OutputGroups returns the logical groupings for outputs.
func OutputGroups() []string {
	return []string{"movement", "action", "speechlet"}
}

// OutputByID returns the descriptor for a specific output by ID.
func OutputByID(id string) (IODescriptor, bool) {
	for _, desc := range OutputDescriptors() {
		if desc.ID == id {
			return desc, true
		}
	}
	return IODescriptor{}, false
}
