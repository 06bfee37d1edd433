package transform

import (
	"testing"

	"github.com/edgeflare/smtconv/internal/testutil"
	"github.com/edgeflare/smtconv/pkg/configdef"
	"github.com/edgeflare/smtconv/pkg/connect"
	"github.com/edgeflare/smtconv/pkg/converter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadOrder(t *testing.T) *connect.Record {
	t.Helper()
	rec, err := testutil.LoadRecord("orders.json")
	require.NoError(t, err, "Failed to load record fixture")
	return rec
}

func configured(t *testing.T, tr converter.Transformation, props configdef.Props) converter.Transformation {
	t.Helper()
	require.NoError(t, tr.Configure(props))
	return tr
}

func TestBuiltinsRegistered(t *testing.T) {
	for _, name := range []string{"extract", "filter", "replace", "insert", "case", "drop"} {
		p, err := converter.DefaultRegistry().Lookup(name)
		require.NoError(t, err, name)
		assert.Equal(t, converter.KindTransformation, p.Kind)
		assert.NotNil(t, p.Schema, name)
		assert.Implements(t, (*converter.Transformation)(nil), p.New())
	}
}

func TestExtract(t *testing.T) {
	testCases := []struct {
		name   string
		props  configdef.Props
		want   any
		fields []string
	}{
		{
			name:  "Extract multi fields of different types",
			props: configdef.Props{"fields": "email,id"},
			want: map[string]any{
				"email": "annek@noanswer.org",
				"id":    float64(1), // JSON numbers are decoded as float64
			},
			fields: []string{"id", "email"},
		},
		{
			name:   "Extract only one field",
			props:  configdef.Props{"fields": []string{"email"}},
			want:   map[string]any{"email": "annek@noanswer.org"},
			fields: []string{"email"},
		},
		{
			name:  "Unwrap a single field",
			props: configdef.Props{"field": "status"},
			want:  "paid",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := loadOrder(t)
			tr := configured(t, &Extract{}, tc.props)

			out, err := tr.Apply(rec)
			require.NoError(t, err)
			assert.Equal(t, tc.want, out.Value)
			assert.Len(t, rec.Value, 4, "input must not be modified")

			if tc.fields == nil {
				require.NotNil(t, out.Schema)
				assert.Equal(t, connect.TypeString, out.Schema.Type)
				return
			}
			var names []string
			for _, f := range out.Schema.Fields {
				names = append(names, f.Field)
			}
			assert.Equal(t, tc.fields, names)
		})
	}

	t.Run("nil value passes through", func(t *testing.T) {
		tr := configured(t, &Extract{}, configdef.Props{"field": "id"})
		rec := connect.NewRecord("t", nil, nil)
		out, err := tr.Apply(rec)
		require.NoError(t, err)
		assert.Same(t, rec, out)
	})

	t.Run("non-map value fails", func(t *testing.T) {
		tr := configured(t, &Extract{}, configdef.Props{"field": "id"})
		_, err := tr.Apply(connect.NewRecord("t", nil, "plain"))
		assert.Error(t, err)
	})

	t.Run("invalid configurations", func(t *testing.T) {
		assert.Error(t, (&Extract{}).Configure(configdef.Props{}))
		assert.Error(t, (&Extract{}).Configure(configdef.Props{"field": "a", "fields": "b"}))
		assert.ErrorIs(t, (&Extract{}).Configure(configdef.Props{"fields": ""}), configdef.ErrInvalidValue)
		assert.ErrorIs(t, (&Extract{}).Configure(configdef.Props{"unknown": "x"}), configdef.ErrUnknownOption)
	})
}

func TestFilter(t *testing.T) {
	testCases := []struct {
		name  string
		props configdef.Props
		topic string
		value any
		keep  bool
	}{
		{"include glob matches", configdef.Props{"topics": "shop.*"}, "shop.orders", "v", true},
		{"include glob misses", configdef.Props{"topics": "shop.*"}, "billing.invoices", "v", false},
		{"exact topic", configdef.Props{"topics": "shop.orders"}, "shop.orders", "v", true},
		{"exclude wins", configdef.Props{"topics": "*", "exclude.topics": "shop.audit"}, "shop.audit", "v", false},
		{"pattern matches", configdef.Props{"topic.pattern": `^shop\.(orders|refunds)$`}, "shop.refunds", "v", true},
		{"pattern misses", configdef.Props{"topic.pattern": `^shop\.orders$`}, "shop.refunds", "v", false},
		{"drop null", configdef.Props{"drop.null": "true"}, "shop.orders", nil, false},
		{"keep non null", configdef.Props{"drop.null": true}, "shop.orders", "v", true},
		{"field matches", configdef.Props{"match.field": "status", "match.values": "paid,shipped"}, "shop.orders", map[string]any{"status": "paid"}, true},
		{"field value differs", configdef.Props{"match.field": "status", "match.values": "shipped"}, "shop.orders", map[string]any{"status": "paid"}, false},
		{"nested field matches", configdef.Props{"match.field": "after.status", "match.values": "paid"}, "shop.orders", map[string]any{"after": map[string]any{"status": "paid"}}, true},
		{"nested field missing", configdef.Props{"match.field": "after.status", "match.values": "paid"}, "shop.orders", map[string]any{"before": map[string]any{"status": "paid"}}, false},
		{"field on non-map", configdef.Props{"match.field": "status", "match.values": "paid"}, "shop.orders", "paid", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tr := configured(t, &Filter{}, tc.props)
			rec := connect.NewRecord(tc.topic, nil, tc.value)

			out, err := tr.Apply(rec)
			require.NoError(t, err)
			if tc.keep {
				assert.Same(t, rec, out)
			} else {
				assert.Nil(t, out)
			}
		})
	}

	t.Run("invalid configurations", func(t *testing.T) {
		assert.Error(t, (&Filter{}).Configure(configdef.Props{}))
		assert.Error(t, (&Filter{}).Configure(configdef.Props{"topics": "[a"}))
		assert.ErrorIs(t, (&Filter{}).Configure(configdef.Props{"topic.pattern": "("}), configdef.ErrInvalidValue)
		assert.Error(t, (&Filter{}).Configure(configdef.Props{"match.field": "status"}))
	})
}

func TestReplace(t *testing.T) {
	t.Run("topic regex", func(t *testing.T) {
		tr := configured(t, &Replace{}, configdef.Props{
			"topic.regex":       `^shop\.(.*)$`,
			"topic.replacement": "archive.$1",
		})
		rec := loadOrder(t)
		out, err := tr.Apply(rec)
		require.NoError(t, err)
		assert.Equal(t, "archive.orders", out.Topic)
		assert.Equal(t, "shop.orders", rec.Topic)
	})

	t.Run("renames and excludes", func(t *testing.T) {
		tr := configured(t, &Replace{}, configdef.Props{
			"renames": "id:order_id, email:customer_email",
			"exclude": "total",
		})
		rec := loadOrder(t)
		out, err := tr.Apply(rec)
		require.NoError(t, err)

		assert.Equal(t, map[string]any{
			"order_id":       float64(1),
			"customer_email": "annek@noanswer.org",
			"status":         "paid",
		}, out.Value)

		var names []string
		for _, f := range out.Schema.Fields {
			names = append(names, f.Field)
		}
		assert.Equal(t, []string{"order_id", "customer_email", "status"}, names)
		assert.Equal(t, "id", rec.Schema.Fields[0].Field, "input schema must not be modified")
	})

	t.Run("invalid configurations", func(t *testing.T) {
		assert.Error(t, (&Replace{}).Configure(configdef.Props{}))
		assert.ErrorIs(t, (&Replace{}).Configure(configdef.Props{"renames": "id"}), configdef.ErrInvalidValue)
		assert.Error(t, (&Replace{}).Configure(configdef.Props{"topic.replacement": "x"}))
	})
}

func TestInsert(t *testing.T) {
	tr := configured(t, &Insert{}, configdef.Props{
		"static.field":    "source",
		"static.value":    "smtconv",
		"topic.field":     "topic",
		"timestamp.field": "ts",
		"uuid.field":      "event_id",
	})
	rec := loadOrder(t)

	out, err := tr.Apply(rec)
	require.NoError(t, err)

	fields, ok := out.Fields()
	require.True(t, ok)
	assert.Equal(t, "smtconv", fields["source"])
	assert.Equal(t, "shop.orders", fields["topic"])
	assert.Equal(t, rec.Timestamp.UnixMilli(), fields["ts"])
	assert.Len(t, fields["event_id"], 36)
	assert.Len(t, rec.Value, 4, "input must not be modified")

	_, ok = out.Schema.Field("event_id")
	assert.True(t, ok)
	assert.Len(t, out.Schema.Fields, 8)

	t.Run("nil value passes through", func(t *testing.T) {
		rec := connect.NewRecord("t", nil, nil)
		out, err := tr.Apply(rec)
		require.NoError(t, err)
		assert.Same(t, rec, out)
	})

	t.Run("invalid configurations", func(t *testing.T) {
		assert.Error(t, (&Insert{}).Configure(configdef.Props{}))
		assert.Error(t, (&Insert{}).Configure(configdef.Props{"static.value": "x"}))
	})
}

func TestCase(t *testing.T) {
	upper := configured(t, &Case{}, configdef.Props{})
	out, err := upper.Apply(connect.NewRecord("t", nil, "abc"))
	require.NoError(t, err)
	assert.Equal(t, "ABC", out.Value)

	lower := configured(t, &Case{}, configdef.Props{"mode": "LOWER", "fields": "status"})
	out, err = lower.Apply(connect.NewRecord("t", nil, map[string]any{"status": "PAID", "id": 1}))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"status": "paid", "id": 1}, out.Value)

	rec := connect.NewRecord("t", nil, 42)
	out, err = upper.Apply(rec)
	require.NoError(t, err)
	assert.Same(t, rec, out)

	assert.ErrorIs(t, (&Case{}).Configure(configdef.Props{"mode": "title"}), configdef.ErrInvalidValue)
}

func TestDrop(t *testing.T) {
	tr := configured(t, Drop{}, configdef.Props{})
	out, err := tr.Apply(loadOrder(t))
	require.NoError(t, err)
	assert.Nil(t, out)

	assert.ErrorIs(t, Drop{}.Configure(configdef.Props{"x": "y"}), configdef.ErrUnknownOption)
}
