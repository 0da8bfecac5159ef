package slides

import (
	"git.home.luguber.info/inful/deckbuilder/internal/coerce"
)

// Embed sizes used when a slide's embed has no explicit width or height.
const (
	DefaultEmbedWidth  = "1000px"
	DefaultEmbedHeight = "450px"
)

// SizedAsset is a media reference with optional display size.
type SizedAsset struct {
	Src    string
	Width  string
	Height string
}

// Image is a slide image with an optional caption.
type Image struct {
	SizedAsset
	Label string
}

// Footer is the image shown on every slide, optionally linked.
type Footer struct {
	Image
	Link string
}

// Fragment holds per-feature fragment directives.
type Fragment struct {
	Img     string
	Math    string
	Youtube string
	Embed   string
}

// Slide is one slide of the deck.
type Slide struct {
	ID       string
	Title    string
	Doc      string
	Include  string
	Math     string
	Img      []Image
	Youtube  SizedAsset
	Embed    SizedAsset
	Fragment Fragment
}

// TopSlide is a first-level slide owning its child slides.
type TopSlide struct {
	Slide
	Sub []Slide
}

// Plugin toggles optional reveal.js plugins.
type Plugin struct {
	Zoom      bool
	Notes     bool
	Search    bool
	Highlight bool
	// Math is derived from the slides; a value in the document is ignored.
	Math bool
}

func (SizedAsset) NodeType() *coerce.NodeType { return SizedAssetType }
func (Image) NodeType() *coerce.NodeType      { return ImageType }
func (Footer) NodeType() *coerce.NodeType     { return FooterType }
func (Fragment) NodeType() *coerce.NodeType   { return FragmentType }
func (Slide) NodeType() *coerce.NodeType      { return SlideType }
func (TopSlide) NodeType() *coerce.NodeType   { return TopSlideType }
func (Plugin) NodeType() *coerce.NodeType     { return PluginType }

// Node types, one per model record.
var (
	SizedAssetType = &coerce.NodeType{Name: "SizedAsset"}
	ImageType      = &coerce.NodeType{Name: "Image"}
	FooterType     = &coerce.NodeType{Name: "Footer"}
	FragmentType   = &coerce.NodeType{Name: "Fragment"}
	SlideType      = &coerce.NodeType{Name: "Slide"}
	TopSlideType   = &coerce.NodeType{Name: "TopSlide"}
	PluginType     = &coerce.NodeType{Name: "Plugin"}
	ConfigType     = &coerce.NodeType{Name: "Config"}
)

// The tables reference each other, so they are filled in init.
func init() {
	sizedFields := []coerce.Field{
		{Name: "src", Type: coerce.String()},
		{Name: "width", Type: coerce.Dimension()},
		{Name: "height", Type: coerce.Dimension()},
	}
	imageFields := append(clone(sizedFields), coerce.Field{Name: "label", Type: coerce.String()})
	footerFields := append(clone(imageFields), coerce.Field{Name: "link", Type: coerce.String()})

	SizedAssetType.Fields = sizedFields
	SizedAssetType.Finish = func(v coerce.Values) (coerce.Node, error) {
		return sizedAsset(v), nil
	}

	ImageType.Fields = imageFields
	ImageType.Finish = func(v coerce.Values) (coerce.Node, error) {
		return image(v), nil
	}

	FooterType.Fields = footerFields
	FooterType.Finish = func(v coerce.Values) (coerce.Node, error) {
		return Footer{Image: image(v), Link: v.String("link")}, nil
	}

	FragmentType.Fields = []coerce.Field{
		{Name: "img", Type: coerce.String()},
		{Name: "math", Type: coerce.String()},
		{Name: "youtube", Type: coerce.String()},
		{Name: "embed", Type: coerce.String()},
	}
	FragmentType.Finish = func(v coerce.Values) (coerce.Node, error) {
		return Fragment{
			Img:     v.String("img"),
			Math:    v.String("math"),
			Youtube: v.String("youtube"),
			Embed:   v.String("embed"),
		}, nil
	}

	slideFields := []coerce.Field{
		{Name: "id", Type: coerce.String()},
		{Name: "title", Type: coerce.String()},
		{Name: "doc", Type: coerce.String()},
		{Name: "include", Type: coerce.String()},
		{Name: "math", Type: coerce.String()},
		{Name: "img", Type: coerce.ListOf(ImageType)},
		{Name: "youtube", Type: coerce.NodeOf(SizedAssetType)},
		{Name: "embed", Type: coerce.NodeOf(SizedAssetType)},
		{Name: "fragment", Type: coerce.NodeOf(FragmentType)},
	}
	SlideType.Fields = slideFields
	SlideType.Finish = func(v coerce.Values) (coerce.Node, error) {
		return slide(v), nil
	}

	TopSlideType.Fields = append(clone(slideFields), coerce.Field{Name: "sub", Type: coerce.ListOf(SlideType)})
	TopSlideType.Finish = func(v coerce.Values) (coerce.Node, error) {
		return TopSlide{Slide: slide(v), Sub: coerce.ListAs[Slide](v, "sub")}, nil
	}

	PluginType.Fields = []coerce.Field{
		{Name: "zoom", Type: coerce.Bool(), Default: false},
		{Name: "notes", Type: coerce.Bool(), Default: true},
		{Name: "search", Type: coerce.Bool(), Default: false},
		{Name: "highlight", Type: coerce.Bool(), Default: true},
		{Name: "math", Type: coerce.Bool(), Default: false},
	}
	PluginType.Finish = func(v coerce.Values) (coerce.Node, error) {
		return Plugin{
			Zoom:      v.Bool("zoom"),
			Notes:     v.Bool("notes"),
			Search:    v.Bool("search"),
			Highlight: v.Bool("highlight"),
		}, nil
	}

	ConfigType.Fields = configFields()
	ConfigType.Finish = finishConfig
}

func clone(fields []coerce.Field) []coerce.Field {
	return append([]coerce.Field(nil), fields...)
}

func sizedAsset(v coerce.Values) SizedAsset {
	return SizedAsset{
		Src:    v.String("src"),
		Width:  v.Dimension("width"),
		Height: v.Dimension("height"),
	}
}

func image(v coerce.Values) Image {
	return Image{SizedAsset: sizedAsset(v), Label: v.String("label")}
}

func slide(v coerce.Values) Slide {
	embed := coerce.NodeAs[SizedAsset](v, "embed")
	if embed.Width == "" {
		embed.Width = DefaultEmbedWidth
	}
	if embed.Height == "" {
		embed.Height = DefaultEmbedHeight
	}
	return Slide{
		ID:       v.String("id"),
		Title:    v.String("title"),
		Doc:      v.String("doc"),
		Include:  v.String("include"),
		Math:     v.String("math"),
		Img:      coerce.ListAs[Image](v, "img"),
		Youtube:  coerce.NodeAs[SizedAsset](v, "youtube"),
		Embed:    embed,
		Fragment: coerce.NodeAs[Fragment](v, "fragment"),
	}
}
