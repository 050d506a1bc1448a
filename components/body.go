package components

// Body holds physical properties of an entity.
// Speechlets grow their radius every tick; the other kinds keep a fixed radius.
type Body struct {
	Radius float32 `inspect:"label,fmt:%.1f"`
}
