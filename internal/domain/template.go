package domain

import "regexp"

// placeholderPattern matches {{name}} where name is letters, digits or underscore.
var placeholderPattern = regexp.MustCompile(`\{\{(\w+)\}\}`)

// TemplateContext maps placeholder names to their rendered values.
// It is immutable once built.
type TemplateContext struct {
	values map[string]string
}

// NewTemplateContext builds the substitution variables from an event.
// Fields absent from the event are not keys, so their placeholders survive rendering.
func NewTemplateContext(ev *InvocationEvent) TemplateContext {
	fields := map[string]Scalar{
		"exchange": ev.Exchange,
		"ticker":   ev.Ticker,
		"close":    ev.Close,
		"time":     ev.Time,
	}

	values := make(map[string]string, len(fields))
	for name, v := range fields {
		if v.Present() {
			values[name] = v.String()
		}
	}
	return TemplateContext{values: values}
}

// Lookup returns the value for a placeholder name.
func (c TemplateContext) Lookup(name string) (string, bool) {
	v, ok := c.values[name]
	return v, ok
}

// Len returns the number of known placeholders
func (c TemplateContext) Len() int {
	return len(c.values)
}

// Render replaces every {{name}} with its value from ctx.
// Unknown placeholders are left verbatim.
func Render(template string, ctx TemplateContext) string {
	return placeholderPattern.ReplaceAllStringFunc(template, func(match string) string {
		if v, ok := ctx.Lookup(match[2 : len(match)-2]); ok {
			return v
		}
		return match
	})
}

// RenderBody renders the template carried by a decoded body.
func RenderBody(body *AlertBody, ctx TemplateContext) (string, error) {
	if body.Text == nil {
		return "", &RenderError{Err: ErrMissingTemplate}
	}
	return Render(*body.Text, ctx), nil
}
