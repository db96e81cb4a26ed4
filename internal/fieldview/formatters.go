package fieldview

import (
	"context"
	"fmt"
	"html"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/goliatone/go-patternbuilder/entity"
)

// Formatter renders one field delta.
type Formatter func(ctx context.Context, fc FormatContext) (string, error)

// FormatContext is the input of a formatter call.
type FormatContext struct {
	EntityType string
	Item       *entity.Item
	Instance   entity.FieldInstance
	Info       entity.FieldInfo
	Display    entity.Display
	Delta      int
	Value      entity.FieldItem
	Viewer     *Viewer
}

// Text returns the raw value column as a string.
func (fc FormatContext) Text() string {
	value, _ := fc.Value.String("value")
	return value
}

func (v *Viewer) registerDefaults() {
	v.formatters["text_default"] = formatTextDefault
	v.formatters["text_plain"] = formatTextPlain
	v.formatters["text_trimmed"] = formatTextTrimmed
	v.formatters["text_markdown"] = formatMarkdown
	v.formatters["link_default"] = formatLink
	v.formatters["link_url"] = formatLinkURL
	v.formatters["image"] = formatImage
	v.formatters["file_default"] = formatFile
	v.formatters["list_default"] = formatListLabel
	v.formatters["list_key"] = formatListKey
	v.formatters["number_default"] = formatNumber
	v.formatters["entity_label"] = formatEntityLabel
}

func formatTextDefault(_ context.Context, fc FormatContext) (string, error) {
	if safe, ok := fc.Value.String("safe_value"); ok {
		return safe, nil
	}
	return fc.Viewer.markup.Sanitize(fc.Text()), nil
}

func formatTextPlain(_ context.Context, fc FormatContext) (string, error) {
	return fc.Viewer.plain.Sanitize(fc.Text()), nil
}

func formatTextTrimmed(_ context.Context, fc FormatContext) (string, error) {
	text := fc.Text()
	limit, err := strconv.Atoi(fc.Display.Setting("trim_length"))
	if err != nil || limit <= 0 {
		limit = 600
	}
	if utf8.RuneCountInString(text) > limit {
		text = strings.TrimSpace(string([]rune(text)[:limit]))
	}
	return fc.Viewer.plain.Sanitize(text), nil
}

func formatMarkdown(_ context.Context, fc FormatContext) (string, error) {
	out, err := fc.Viewer.markdown.Convert(fc.Text())
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(fc.Viewer.markup.Sanitize(out)), nil
}

func formatLink(ctx context.Context, fc FormatContext) (string, error) {
	href, err := formatLinkURL(ctx, fc)
	if err != nil || href == "" {
		return "", err
	}
	title, _ := fc.Value.String("title")
	if strings.TrimSpace(title) == "" {
		title = href
	}
	return fmt.Sprintf(`<a href="%s">%s</a>`, html.EscapeString(href), html.EscapeString(title)), nil
}

func formatLinkURL(_ context.Context, fc FormatContext) (string, error) {
	raw, _ := fc.Value.String("url")
	if strings.TrimSpace(raw) == "" {
		return "", nil
	}
	if fc.Viewer.urls == nil {
		return raw, nil
	}
	options := map[string]any{}
	for key, value := range fc.Value {
		if key != "url" && key != "title" {
			options[key] = value
		}
	}
	return fc.Viewer.urls.URL(raw, options)
}

func formatImage(_ context.Context, fc FormatContext) (string, error) {
	uri, _ := fc.Value.String("uri")
	if strings.TrimSpace(uri) == "" {
		return "", nil
	}
	src := uri
	if fc.Viewer.urls != nil {
		var err error
		if style := fc.Display.Setting("image_style"); style != "" {
			src, err = fc.Viewer.urls.ImageStyleURL(style, uri)
		} else {
			src, err = fc.Viewer.urls.FileURL(uri)
		}
		if err != nil {
			return "", err
		}
	}
	alt, _ := fc.Value.String("alt")
	return fmt.Sprintf(`<img src="%s" alt="%s">`, html.EscapeString(src), html.EscapeString(alt)), nil
}

func formatFile(_ context.Context, fc FormatContext) (string, error) {
	uri, _ := fc.Value.String("uri")
	if strings.TrimSpace(uri) == "" {
		return "", nil
	}
	href := uri
	if fc.Viewer.urls != nil {
		var err error
		if href, err = fc.Viewer.urls.FileURL(uri); err != nil {
			return "", err
		}
	}
	name, _ := fc.Value.String("filename")
	if name == "" {
		name = uri[strings.LastIndex(uri, "/")+1:]
	}
	return fmt.Sprintf(`<a href="%s">%s</a>`, html.EscapeString(href), html.EscapeString(name)), nil
}

func formatListLabel(_ context.Context, fc FormatContext) (string, error) {
	key := fc.Text()
	if label, ok := fc.Info.AllowedLabel(key); ok && label != "" {
		return html.EscapeString(label), nil
	}
	return html.EscapeString(key), nil
}

func formatListKey(_ context.Context, fc FormatContext) (string, error) {
	return html.EscapeString(fc.Text()), nil
}

func formatNumber(_ context.Context, fc FormatContext) (string, error) {
	text := strings.TrimSpace(fc.Text())
	if text == "" {
		return "", nil
	}
	number, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return html.EscapeString(text), nil
	}
	scale, err := strconv.Atoi(fc.Display.Setting("scale"))
	if err != nil || scale < 0 {
		scale = 0
	}
	return html.EscapeString(strconv.FormatFloat(number, 'f', scale, 64)), nil
}

func formatEntityLabel(ctx context.Context, fc FormatContext) (string, error) {
	target, ok := fc.Value["entity"].(*entity.Item)
	if !ok || target == nil {
		id, _ := fc.Value.String("target_id")
		if id == "" {
			id = fc.Text()
		}
		if id == "" {
			return "", nil
		}
		target = fc.Viewer.loadTarget(ctx, fc.Info.TargetType, id)
		if target == nil {
			return html.EscapeString(id), nil
		}
	}
	if fc.Viewer.access != nil && !fc.Viewer.access.CanView(ctx, fc.Info.TargetType, target) {
		return "", nil
	}
	label := target.Label
	if label == "" {
		label = target.ID
	}
	return html.EscapeString(label), nil
}
