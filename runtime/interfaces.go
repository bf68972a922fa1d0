package runtime

// Renderer receives the resolved parameters of every live drawable component
// once per frame. Actual rendering is a collaborator concern; the engine only
// guarantees call order (component declaration order) and parameter freshness
// per the component's update policy.
type Renderer interface {
	Draw(kind, name string, params map[string]any)
}

// NopRenderer discards draw calls. Default for headless runs.
type NopRenderer struct{}

func (NopRenderer) Draw(kind, name string, params map[string]any) {}

// InputEvent is one polled input occurrence (e.g. a pointer click).
type InputEvent struct {
	Kind   string // "click", "move", "key"
	X, Y   float64
	Button int
	Key    string
}

// InputSource is polled once per frame while a routine is active. It must not
// block: return whatever events arrived since the previous poll.
type InputSource interface {
	Poll() []InputEvent
}

// NopInput never reports events. Default for headless runs.
type NopInput struct{}

func (NopInput) Poll() []InputEvent { return nil }
