package svgstyle

// property describes a presentation property.
type property struct {
	inherited bool
	initial   string
}

var properties = map[string]property{
	"alignment-baseline":          {false, "auto"},
	"baseline-shift":              {false, "baseline"},
	"clip":                        {false, "auto"},
	"clip-path":                   {false, "none"},
	"clip-rule":                   {true, "nonzero"},
	"color":                       {true, "black"},
	"color-interpolation":         {true, "sRGB"},
	"color-interpolation-filters": {true, "linearRGB"},
	"color-rendering":             {true, "auto"},
	"direction":                   {true, "ltr"},
	"display":                     {false, "inline"},
	"dominant-baseline":           {false, "auto"},
	"fill":                        {true, "black"},
	"fill-opacity":                {true, "1"},
	"fill-rule":                   {true, "nonzero"},
	"filter":                      {false, "none"},
	"flood-color":                 {false, "black"},
	"flood-opacity":               {false, "1"},
	"font-family":                 {true, "serif"},
	"font-size":                   {true, "medium"},
	"font-size-adjust":            {true, "none"},
	"font-stretch":                {true, "normal"},
	"font-style":                  {true, "normal"},
	"font-variant":                {true, "normal"},
	"font-weight":                 {true, "normal"},
	"image-rendering":             {true, "auto"},
	"isolation":                   {false, "auto"},
	"letter-spacing":              {true, "normal"},
	"lighting-color":              {false, "white"},
	"marker-end":                  {true, "none"},
	"marker-mid":                  {true, "none"},
	"marker-start":                {true, "none"},
	"mask":                        {false, "none"},
	"mix-blend-mode":              {false, "normal"},
	"opacity":                     {false, "1"},
	"overflow":                    {false, "visible"},
	"shape-rendering":             {true, "auto"},
	"stop-color":                  {false, "black"},
	"stop-opacity":                {false, "1"},
	"stroke":                      {true, "none"},
	"stroke-dasharray":            {true, "none"},
	"stroke-dashoffset":           {true, "0"},
	"stroke-linecap":              {true, "butt"},
	"stroke-linejoin":             {true, "miter"},
	"stroke-miterlimit":           {true, "4"},
	"stroke-opacity":              {true, "1"},
	"stroke-width":                {true, "1"},
	"text-anchor":                 {true, "start"},
	"text-decoration":             {false, "none"},
	"text-rendering":              {true, "auto"},
	"unicode-bidi":                {false, "normal"},
	"visibility":                  {true, "visible"},
	"word-spacing":                {true, "normal"},
	"writing-mode":                {true, "lr-tb"},
}

// IsInherited returns true for the properties inherited by default.
func IsInherited(name string) bool { return properties[name].inherited }

// Initial returns the initial value of the property name,
// or an empty string for an unknown property.
func Initial(name string) string { return properties[name].initial }
