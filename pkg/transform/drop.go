package transform

import (
	"github.com/edgeflare/smtconv/pkg/configdef"
	"github.com/edgeflare/smtconv/pkg/connect"
	"github.com/edgeflare/smtconv/pkg/converter"
)

// DropDef is empty: drop has no options.
var DropDef = configdef.New()

func init() {
	converter.RegisterTransformation("drop", "Drops every record",
		DropDef, func() converter.Transformation { return Drop{} })
}

// Drop discards every record.
type Drop struct{}

func (Drop) Configure(props configdef.Props) error {
	_, err := DropDef.Parse(props)
	return err
}

func (Drop) Apply(*connect.Record) (*connect.Record, error) { return nil, nil }
