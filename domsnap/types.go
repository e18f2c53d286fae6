// Package domsnap extracts a serializable structural and presentational
// snapshot of a live rendered page: a depth-bounded DOM tree with computed
// styles, plus an inventory of interactive elements.
package domsnap

// MaxDepth bounds the snapshot recursion measured from the detected root.
// Branches deeper than this are cut, guarding against pathological trees.
const MaxDepth = 15

// Box is an element's rendered bounding box in CSS pixels.
type Box struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Positive reports whether the box has strictly positive area.
func (b Box) Positive() bool {
	return b.Width > 0 && b.Height > 0
}

// Style is the fixed-shape computed style record captured per node. Values
// come from the live rendered style, so they reflect cascade, inheritance
// and browser defaults exactly as rendered.
type Style struct {
	Display             string `json:"display,omitempty"`
	Position            string `json:"position,omitempty"`
	Width               string `json:"width,omitempty"`
	Height              string `json:"height,omitempty"`
	Margin              string `json:"margin,omitempty"`
	Padding             string `json:"padding,omitempty"`
	Color               string `json:"color,omitempty"`
	BackgroundColor     string `json:"backgroundColor,omitempty"`
	FontSize            string `json:"fontSize,omitempty"`
	FontWeight          string `json:"fontWeight,omitempty"`
	FontFamily          string `json:"fontFamily,omitempty"`
	TextAlign           string `json:"textAlign,omitempty"`
	Border              string `json:"border,omitempty"`
	BorderRadius        string `json:"borderRadius,omitempty"`
	BoxShadow           string `json:"boxShadow,omitempty"`
	FlexDirection       string `json:"flexDirection,omitempty"`
	JustifyContent      string `json:"justifyContent,omitempty"`
	AlignItems          string `json:"alignItems,omitempty"`
	Gap                 string `json:"gap,omitempty"`
	GridTemplateColumns string `json:"gridTemplateColumns,omitempty"`
	ZIndex              string `json:"zIndex,omitempty"`
	Overflow            string `json:"overflow,omitempty"`
	Opacity             string `json:"opacity,omitempty"`
}

// Node is one element in the snapshot tree. Children preserve DOM order.
type Node struct {
	Tag      string            `json:"tag"`
	ID       string            `json:"id,omitempty"`
	Classes  []string          `json:"classes,omitempty"`
	Attrs    map[string]string `json:"attrs,omitempty"`
	Style    Style             `json:"style"`
	Text     string            `json:"text,omitempty"`
	Box      Box               `json:"box"`
	Children []*Node           `json:"children,omitempty"`
}

// Snapshot is the extracted tree rooted at the detected application container.
type Snapshot struct {
	RootSelector string `json:"rootSelector"`
	Root         *Node  `json:"root"`
}

// InteractiveElement is one entry of the page's interactive inventory.
// Kind is "button", "input" or "link"; the other fields are kind-specific.
type InteractiveElement struct {
	Kind        string   `json:"kind"`
	Label       string   `json:"label,omitempty"`
	AriaLabel   string   `json:"ariaLabel,omitempty"`
	InputType   string   `json:"inputType,omitempty"`
	Placeholder string   `json:"placeholder,omitempty"`
	Name        string   `json:"name,omitempty"`
	Href        string   `json:"href,omitempty"`
	Classes     []string `json:"classes,omitempty"`
	Box         Box      `json:"box"`
}

// RawNode is the untrusted shape produced by the in-page serializer. The
// Go-side build pass re-applies the depth bound, the zero-box pruning and
// the single-text-child rule before anything is persisted.
type RawNode struct {
	Tag            string            `json:"tag"`
	ID             string            `json:"id"`
	Classes        []string          `json:"classes"`
	Attrs          map[string]string `json:"attrs"`
	Style          Style             `json:"style"`
	Box            Box               `json:"box"`
	ChildNodeCount int               `json:"childNodeCount"`
	SingleText     *string           `json:"singleText"`
	Children       []*RawNode        `json:"children"`
}
