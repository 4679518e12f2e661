// Package colorid matches color-sensor samples against a small calibrated
// palette loaded once at startup.
package colorid

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// NoMatch is returned when no calibrated color is close enough to the
// sample, or when the calibration table is empty.
const NoMatch = "None"

// matchThreshold is the maximum Euclidean RGB distance at which a
// calibrated color still counts as a match.
const matchThreshold = 120.0

// Reference is one calibrated color entry.
type Reference struct {
	Name string `yaml:"name" json:"name"`
	RGB  [3]int `yaml:"rgb" json:"rgb"`
}

// Table is a read-only calibration table.
type Table struct {
	refs []Reference
}

func New(refs []Reference) *Table {
	return &Table{refs: refs}
}

// Empty returns a table that classifies everything as NoMatch.
func Empty() *Table {
	return &Table{}
}

// Load reads a calibration file. YAML and JSON color cards both parse.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var refs []Reference
	if err := yaml.Unmarshal(data, &refs); err != nil {
		return nil, fmt.Errorf("parse color card %s: %w", path, err)
	}
	return &Table{refs: refs}, nil
}

func (t *Table) Len() int {
	return len(t.refs)
}

// Classify returns the name of the calibrated color nearest to the sample
// in RGB space, or NoMatch when the nearest entry is farther than the
// match threshold. Ties go to the earlier table entry.
func (t *Table) Classify(r, g, b int) string {
	best := NoMatch
	minDist := math.MaxFloat64
	for _, ref := range t.refs {
		dr := float64(r - ref.RGB[0])
		dg := float64(g - ref.RGB[1])
		db := float64(b - ref.RGB[2])
		dist := math.Sqrt(dr*dr + dg*dg + db*db)
		if dist < minDist {
			minDist = dist
			best = ref.Name
		}
	}
	if minDist > matchThreshold {
		return NoMatch
	}
	return best
}
