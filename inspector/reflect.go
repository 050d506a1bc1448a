// Package inspector extracts displayable fields from ECS components using
// their inspect struct tags.
package inspector

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Widget selects how a field is rendered.
type Widget int

const (
	WidgetAuto Widget = iota
	WidgetLabel
	WidgetBar
	WidgetCentered
	WidgetSkip
)

// Field is one numeric component field with rendering hints.
type Field struct {
	Name   string
	Value  float32
	Widget Widget
	Format string
	Min    float32
	Max    float32
}

// Text formats the field value.
func (f Field) Text() string {
	return fmt.Sprintf(f.Format, f.Value)
}

// ParseTag parses an inspect struct tag.
// Format: `inspect:"widget[,option:value...]"`
// Examples:
//
//	`inspect:"bar"`
//	`inspect:"bar,max:200"`
//	`inspect:"centered"`
//	`inspect:"label,fmt:%.1f"`
//	`inspect:"skip"`
func ParseTag(tag string) (Widget, map[string]string) {
	options := make(map[string]string)
	if tag == "" {
		return WidgetAuto, options
	}

	parts := strings.Split(tag, ",")
	var widget Widget
	switch strings.TrimSpace(parts[0]) {
	case "label":
		widget = WidgetLabel
	case "bar":
		widget = WidgetBar
	case "centered":
		widget = WidgetCentered
	case "skip":
		widget = WidgetSkip
	default:
		widget = WidgetAuto
	}

	for _, part := range parts[1:] {
		if k, v, ok := strings.Cut(strings.TrimSpace(part), ":"); ok {
			options[k] = v
		}
	}
	return widget, options
}

// ExtractFields returns the exported numeric fields of a component. Bars
// without a max option use defaultMax; centered bars without a min mirror max.
func ExtractFields(component any, defaultMax float32) []Field {
	v := reflect.ValueOf(component)
	if v.Kind() == reflect.Pointer {
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil
	}

	t := v.Type()
	var fields []Field
	for i := 0; i < v.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}

		widget, options := ParseTag(sf.Tag.Get("inspect"))
		if widget == WidgetSkip {
			continue
		}
		value, ok := floatValue(v.Field(i))
		if !ok {
			continue
		}
		if widget == WidgetAuto {
			widget = WidgetLabel
		}

		f := Field{
			Name:   sf.Name,
			Value:  value,
			Widget: widget,
			Format: options["fmt"],
			Min:    optFloat(options, "min", 0),
			Max:    optFloat(options, "max", defaultMax),
		}
		if widget == WidgetCentered {
			if _, ok := options["min"]; !ok {
				f.Min = -f.Max
			}
		}
		if f.Format == "" {
			f.Format = defaultFormat(v.Field(i).Kind())
		}
		fields = append(fields, f)
	}
	return fields
}

// floatValue converts numeric and bool kinds to float32.
func floatValue(v reflect.Value) (float32, bool) {
	switch v.Kind() {
	case reflect.Float32, reflect.Float64:
		return float32(v.Float()), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float32(v.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float32(v.Uint()), true
	case reflect.Bool:
		if v.Bool() {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

func defaultFormat(k reflect.Kind) string {
	if k == reflect.Float32 || k == reflect.Float64 {
		return "%.2f"
	}
	return "%.0f"
}

func optFloat(options map[string]string, key string, def float32) float32 {
	s, ok := options[key]
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(s, 32)
	if err != nil {
		return def
	}
	return float32(f)
}
