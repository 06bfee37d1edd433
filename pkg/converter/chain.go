package converter

import "github.com/edgeflare/smtconv/pkg/connect"

// Stage is a configured transformation and the alias it was configured under.
type Stage struct {
	Alias string
	Type  string
	Transformation
}

// Chain is an ordered list of stages applied as a left fold.
type Chain []Stage

// Apply runs rec through every stage in order. Once a stage returns nil the
// fold stops and no later stage is invoked. Stage errors are returned as-is.
func (c Chain) Apply(rec *connect.Record) (*connect.Record, error) {
	out, _, err := c.apply(rec)
	return out, err
}

// apply also reports the index of the stage that failed.
func (c Chain) apply(rec *connect.Record) (*connect.Record, int, error) {
	current := rec
	for i, stage := range c {
		if current == nil {
			return nil, i, nil
		}
		next, err := stage.Apply(current)
		if err != nil {
			return nil, i, err
		}
		current = next
	}
	return current, len(c), nil
}

// Aliases returns the stage aliases in order.
func (c Chain) Aliases() []string {
	out := make([]string, len(c))
	for i, s := range c {
		out[i] = s.Alias
	}
	return out
}
