package transform

import (
	"fmt"
	"path/filepath"
	"regexp"
	"slices"

	"github.com/edgeflare/smtconv/pkg/configdef"
	"github.com/edgeflare/smtconv/pkg/connect"
	"github.com/edgeflare/smtconv/pkg/converter"
)

// FilterDef declares the options of the filter transformation.
var FilterDef = configdef.New().
	MustDefine(configdef.Key{
		Name:       "topics",
		Type:       configdef.TypeList,
		Default:    "",
		HasDefault: true,
		Importance: configdef.ImportanceHigh,
		Doc:        "Keep only records whose topic matches one of these globs",
	}).
	MustDefine(configdef.Key{
		Name:       "exclude.topics",
		Type:       configdef.TypeList,
		Default:    "",
		HasDefault: true,
		Importance: configdef.ImportanceHigh,
		Doc:        "Drop records whose topic matches one of these globs",
	}).
	MustDefine(configdef.Key{
		Name:       "topic.pattern",
		Type:       configdef.TypeString,
		Default:    "",
		HasDefault: true,
		Validator:  configdef.Regexp(),
		Importance: configdef.ImportanceMedium,
		Doc:        "Keep only records whose topic matches this regular expression",
	}).
	MustDefine(configdef.Key{
		Name:       "match.field",
		Type:       configdef.TypeString,
		Default:    "",
		HasDefault: true,
		Importance: configdef.ImportanceMedium,
		Doc:        "Keep only records whose map value has this field set to one of match.values; nested fields use paths like after.status or items[0].sku",
	}).
	MustDefine(configdef.Key{
		Name:       "match.values",
		Type:       configdef.TypeList,
		Default:    "",
		HasDefault: true,
		Importance: configdef.ImportanceMedium,
		Doc:        "Accepted values of match.field, compared as strings",
	}).
	MustDefine(configdef.Key{
		Name:       "drop.null",
		Type:       configdef.TypeBool,
		Default:    false,
		HasDefault: true,
		Importance: configdef.ImportanceLow,
		Doc:        "Drop records with a nil value",
	})

func init() {
	converter.RegisterTransformation("filter",
		"Drops records that do not match topic, pattern or field criteria",
		FilterDef, func() converter.Transformation { return &Filter{} })
}

type FilterConfig struct {
	Topics        []string `mapstructure:"topics"`
	ExcludeTopics []string `mapstructure:"exclude.topics"`
	TopicPattern  string   `mapstructure:"topic.pattern"`
	MatchField    string   `mapstructure:"match.field"`
	MatchValues   []string `mapstructure:"match.values"`
	DropNull      bool     `mapstructure:"drop.null"`
}

func (c *FilterConfig) Validate() error {
	if len(c.Topics) == 0 && len(c.ExcludeTopics) == 0 &&
		c.TopicPattern == "" && c.MatchField == "" && !c.DropNull {
		return fmt.Errorf("at least one filter criteria required")
	}

	for _, glob := range slices.Concat(c.Topics, c.ExcludeTopics) {
		if _, err := filepath.Match(glob, ""); err != nil {
			return fmt.Errorf("invalid topic glob %q: %w", glob, err)
		}
	}

	if (c.MatchField == "") != (len(c.MatchValues) == 0) {
		return fmt.Errorf("match.field and match.values must be set together")
	}
	return nil
}

func (c *FilterConfig) Type() string {
	return "filter"
}

// Filter drops every record that fails one of its criteria.
type Filter struct {
	config     FilterConfig
	topicRegex *regexp.Regexp
}

func (f *Filter) Configure(props configdef.Props) error {
	if err := decode(FilterDef, props, &f.config); err != nil {
		return err
	}
	if f.config.TopicPattern != "" {
		f.topicRegex = regexp.MustCompile(f.config.TopicPattern)
	}
	return nil
}

func (f *Filter) Apply(rec *connect.Record) (*connect.Record, error) {
	if f.config.DropNull && rec.Value == nil {
		return nil, nil
	}

	// Filter by excluded topics
	if matchesAny(f.config.ExcludeTopics, rec.Topic) {
		return nil, nil
	}

	// Filter by included topics
	if len(f.config.Topics) > 0 && !matchesAny(f.config.Topics, rec.Topic) {
		return nil, nil
	}

	if f.topicRegex != nil && !f.topicRegex.MatchString(rec.Topic) {
		return nil, nil
	}

	if f.config.MatchField != "" {
		fields, ok := rec.Fields()
		if !ok {
			return nil, nil
		}
		value, exists := lookup(fields, f.config.MatchField)
		if !exists || !slices.Contains(f.config.MatchValues, fmt.Sprint(value)) {
			return nil, nil
		}
	}

	return rec, nil
}

// matchesAny checks if topic matches one of the globs
func matchesAny(globs []string, topic string) bool {
	for _, glob := range globs {
		if glob == "*" || glob == topic {
			return true
		}
		if matched, _ := filepath.Match(glob, topic); matched {
			return true
		}
	}
	return false
}
