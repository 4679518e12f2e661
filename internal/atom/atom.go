// Package atom holds the two electron-shell tables the rig works with:
// the chemically accurate configurations of the first 18 elements, used
// for element display and the excitation demo, and the display capacities
// of the LED ring, used to render the decaying population in mode 6.
// The two tables look similar but are not interchangeable.
package atom

import "fmt"

// Config is a four-shell electron configuration (K, L, M, N).
type Config struct {
	K, L, M, N int
}

func (c Config) String() string {
	return fmt.Sprintf("%d,%d,%d,%d", c.K, c.L, c.M, c.N)
}

func (c Config) Total() int {
	return c.K + c.L + c.M + c.N
}

// DefaultConfig is the fallback for unknown element names: a single
// ground-state electron.
var DefaultConfig = Config{K: 1}

var elements = map[string]Config{
	"Hydrogen":   {1, 0, 0, 0},
	"Helium":     {2, 0, 0, 0},
	"Lithium":    {2, 1, 0, 0},
	"Beryllium":  {2, 2, 0, 0},
	"Boron":      {2, 3, 0, 0},
	"Carbon":     {2, 4, 0, 0},
	"Nitrogen":   {2, 5, 0, 0},
	"Oxygen":     {2, 6, 0, 0},
	"Fluorine":   {2, 7, 0, 0},
	"Neon":       {2, 8, 0, 0},
	"Sodium":     {2, 8, 1, 0},
	"Magnesium":  {2, 8, 2, 0},
	"Aluminum":   {2, 8, 3, 0},
	"Silicon":    {2, 8, 4, 0},
	"Phosphorus": {2, 8, 5, 0},
	"Sulfur":     {2, 8, 6, 0},
	"Chlorine":   {2, 8, 7, 0},
	"Argon":      {2, 8, 8, 0},
}

// Names lists the supported elements in atomic-number order.
var Names = []string{
	"Hydrogen", "Helium", "Lithium", "Beryllium", "Boron", "Carbon",
	"Nitrogen", "Oxygen", "Fluorine", "Neon", "Sodium", "Magnesium",
	"Aluminum", "Silicon", "Phosphorus", "Sulfur", "Chlorine", "Argon",
}

// Lookup returns the electron configuration for an element name, or
// DefaultConfig when the name is unknown.
func Lookup(name string) Config {
	if c, ok := elements[name]; ok {
		return c
	}
	return DefaultConfig
}

// Known reports whether name is one of the 18 supported elements.
func Known(name string) bool {
	_, ok := elements[name]
	return ok
}

// Display capacities of the LED ring, inner to outer. These are not the
// chemical shell capacities; the ring has more positions in M and N than
// chemistry would allow.
const (
	DisplayCapK = 2
	DisplayCapL = 8
	DisplayCapM = 12
	DisplayCapN = 16
)

// FillDisplay distributes n electrons across the ring's display shells,
// filling inner shells first. Electrons beyond the total ring capacity
// are dropped.
func FillDisplay(n int) Config {
	if n < 0 {
		n = 0
	}
	var c Config
	c.K = min(n, DisplayCapK)
	n -= c.K
	c.L = min(n, DisplayCapL)
	n -= c.L
	c.M = min(n, DisplayCapM)
	n -= c.M
	c.N = min(n, DisplayCapN)
	return c
}
