package configdef

import "time"

// Values holds parsed options keyed by full option name.
type Values map[string]any

func (v Values) String(name string) string {
	s, _ := v[name].(string)
	return s
}

func (v Values) Int(name string) int {
	n, _ := v[name].(int)
	return n
}

func (v Values) Long(name string) int64 {
	n, _ := v[name].(int64)
	return n
}

func (v Values) Float(name string) float64 {
	f, _ := v[name].(float64)
	return f
}

func (v Values) Bool(name string) bool {
	b, _ := v[name].(bool)
	return b
}

func (v Values) List(name string) []string {
	l, _ := v[name].([]string)
	return l
}

func (v Values) Duration(name string) time.Duration {
	d, _ := v[name].(time.Duration)
	return d
}

func (v Values) Password(name string) Password {
	p, _ := v[name].(Password)
	return p
}

// Has reports whether name has a value (given or defaulted).
func (v Values) Has(name string) bool {
	_, ok := v[name]
	return ok
}

// WithPrefix returns the values under prefix with the prefix stripped.
func (v Values) WithPrefix(prefix string) Values {
	return Values(Props(v).WithPrefix(prefix))
}
