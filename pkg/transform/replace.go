package transform

import (
	"fmt"
	"regexp"

	"github.com/edgeflare/smtconv/pkg/configdef"
	"github.com/edgeflare/smtconv/pkg/connect"
	"github.com/edgeflare/smtconv/pkg/converter"
)

// ReplaceDef declares the options of the replace transformation.
var ReplaceDef = configdef.New().
	MustDefine(configdef.Key{
		Name:         "topic.regex",
		Type:         configdef.TypeString,
		Default:      "",
		HasDefault:   true,
		Validator:    configdef.Regexp(),
		Importance:   configdef.ImportanceHigh,
		Doc:          "Regular expression matched against the topic",
		Group:        "topic",
		OrderInGroup: 0,
	}).
	MustDefine(configdef.Key{
		Name:         "topic.replacement",
		Type:         configdef.TypeString,
		Default:      "",
		HasDefault:   true,
		Importance:   configdef.ImportanceHigh,
		Doc:          "Replacement for topic.regex matches; may reference groups as $1",
		Group:        "topic",
		OrderInGroup: 1,
	}).
	MustDefine(configdef.Key{
		Name:       "renames",
		Type:       configdef.TypeList,
		Default:    "",
		HasDefault: true,
		Validator:  configdef.Pairs(),
		Importance: configdef.ImportanceMedium,
		Doc:        "Field renames as old:new pairs",
	}).
	MustDefine(configdef.Key{
		Name:       "exclude",
		Type:       configdef.TypeList,
		Default:    "",
		HasDefault: true,
		Importance: configdef.ImportanceMedium,
		Doc:        "Fields removed from map values",
	})

func init() {
	converter.RegisterTransformation("replace",
		"Rewrites the topic with a regular expression and renames or removes fields",
		ReplaceDef, func() converter.Transformation { return &Replace{} })
}

// ReplaceConfig holds the configuration for the replace transformation
type ReplaceConfig struct {
	// Topic replacement
	TopicRegex       string `mapstructure:"topic.regex"`
	TopicReplacement string `mapstructure:"topic.replacement"`

	// Field replacements, old:new
	Renames []string `mapstructure:"renames"`

	// Fields to remove
	Exclude []string `mapstructure:"exclude"`
}

// Validate validates the ReplaceConfig
func (c *ReplaceConfig) Validate() error {
	// Ensure at least one replacement type is configured
	if c.TopicRegex == "" && len(c.Renames) == 0 && len(c.Exclude) == 0 {
		return fmt.Errorf("at least one replacement configuration is required")
	}
	if c.TopicRegex == "" && c.TopicReplacement != "" {
		return fmt.Errorf("topic.replacement requires topic.regex")
	}
	return nil
}

// Type returns the type of the transformation
func (c *ReplaceConfig) Type() string {
	return "replace"
}

// Replace performs the configured topic and field replacements.
type Replace struct {
	config     ReplaceConfig
	topicRegex *regexp.Regexp
	renames    map[string]string
	exclude    map[string]bool
}

func (r *Replace) Configure(props configdef.Props) error {
	if err := decode(ReplaceDef, props, &r.config); err != nil {
		return err
	}
	if r.config.TopicRegex != "" {
		r.topicRegex = regexp.MustCompile(r.config.TopicRegex)
	}
	r.renames = configdef.ParsePairs(r.config.Renames)
	r.exclude = make(map[string]bool, len(r.config.Exclude))
	for _, field := range r.config.Exclude {
		r.exclude[field] = true
	}
	return nil
}

func (r *Replace) Apply(rec *connect.Record) (*connect.Record, error) {
	out := rec.Copy()

	if r.topicRegex != nil {
		out.Topic = r.topicRegex.ReplaceAllString(rec.Topic, r.config.TopicReplacement)
	}

	if len(r.renames) == 0 && len(r.exclude) == 0 {
		return out, nil
	}

	out.Value = r.replaceMapKeys(rec.Value)
	out.Schema = rec.Schema.WithoutFields(func(f connect.Field) bool {
		return r.exclude[f.Field]
	})
	if out.Schema != nil {
		for i, field := range out.Schema.Fields {
			if newName, exists := r.renames[field.Field]; exists {
				out.Schema.Fields[i].Field = newName
			}
		}
	}
	return out, nil
}

// replaceMapKeys creates a new map with excluded keys removed and the rest
// renamed. Non-map values are returned as-is.
func (r *Replace) replaceMapKeys(data any) any {
	m, ok := data.(map[string]any)
	if !ok {
		return data
	}

	newMap := make(map[string]any, len(m))
	for k, v := range m {
		if r.exclude[k] {
			continue
		}
		newKey := k
		if replacement, exists := r.renames[k]; exists {
			newKey = replacement
		}
		newMap[newKey] = v
	}
	return newMap
}
