// Package messages serves localized UI strings from messages.json catalogs.
package messages

import (
	"embed"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"golang.org/x/text/language"
)

//go:embed locales/*/messages.json
var bundled embed.FS

// DefaultLocale is used when no catalog matches the requested locale.
const DefaultLocale = "en"

// Message is one catalog entry in messages.json format
type Message struct {
	Message      string                 `json:"message"`
	Description  string                 `json:"description,omitempty"`
	Placeholders map[string]Placeholder `json:"placeholders,omitempty"`
}

// Placeholder maps a named $name$ token to its content, usually a $N argument.
type Placeholder struct {
	Content string `json:"content"`
	Example string `json:"example,omitempty"`
}

// Catalog holds every loaded locale
type Catalog struct {
	locales  []string
	messages []map[string]Message
	matcher  language.Matcher
}

// Load reads the bundled catalogs. The default locale is always first so it
// wins when nothing else matches.
func Load() (*Catalog, error) {
	dirs, err := bundled.ReadDir("locales")
	if err != nil {
		return nil, fmt.Errorf("failed to list locales: %w", err)
	}

	names := []string{DefaultLocale}
	for _, d := range dirs {
		if d.IsDir() && d.Name() != DefaultLocale {
			names = append(names, d.Name())
		}
	}

	c := &Catalog{}
	tags := make([]language.Tag, 0, len(names))
	for _, name := range names {
		data, err := bundled.ReadFile(path.Join("locales", name, "messages.json"))
		if err != nil {
			return nil, fmt.Errorf("failed to read locale %s: %w", name, err)
		}
		var msgs map[string]Message
		if err := json.Unmarshal(data, &msgs); err != nil {
			return nil, fmt.Errorf("failed to parse locale %s: %w", name, err)
		}
		tag, err := language.Parse(normalize(name))
		if err != nil {
			return nil, fmt.Errorf("invalid locale name %s: %w", name, err)
		}
		c.locales = append(c.locales, name)
		c.messages = append(c.messages, msgs)
		tags = append(tags, tag)
	}
	c.matcher = language.NewMatcher(tags)
	return c, nil
}

// Locales lists the catalog names, default first.
func (c *Catalog) Locales() []string {
	out := make([]string, len(c.locales))
	copy(out, c.locales)
	return out
}

// Resolve returns the catalog name that best serves locale.
func (c *Catalog) Resolve(locale string) string {
	return c.locales[c.index(locale)]
}

func (c *Catalog) index(locale string) int {
	if locale == "" {
		return 0
	}
	tag, err := language.Parse(normalize(locale))
	if err != nil {
		return 0
	}
	_, idx, conf := c.matcher.Match(tag)
	if conf == language.No {
		return 0
	}
	return idx
}

// Format renders key for locale with positional arguments. Missing keys fall
// back to the default locale, then to the key itself.
func (c *Catalog) Format(locale, key string, args ...string) string {
	msg, ok := c.messages[c.index(locale)][key]
	if !ok {
		msg, ok = c.messages[0][key]
	}
	if !ok {
		return key
	}
	return msg.render(args)
}

func (m Message) render(args []string) string {
	text := m.Message
	if len(m.Placeholders) > 0 {
		text = replaceNamed(text, m.Placeholders)
	}
	return replacePositional(text, args)
}

// replaceNamed expands $name$ tokens. Names are case-insensitive.
func replaceNamed(text string, placeholders map[string]Placeholder) string {
	lookup := make(map[string]string, len(placeholders))
	for name, p := range placeholders {
		lookup[strings.ToLower(name)] = p.Content
	}

	var b strings.Builder
	for {
		start := strings.IndexByte(text, '$')
		if start < 0 {
			break
		}
		end := strings.IndexByte(text[start+1:], '$')
		if end < 0 {
			break
		}
		name := text[start+1 : start+1+end]
		content, ok := lookup[strings.ToLower(name)]
		if !ok {
			b.WriteString(text[:start+1])
			text = text[start+1:]
			continue
		}
		b.WriteString(text[:start])
		b.WriteString(content)
		text = text[start+end+2:]
	}
	b.WriteString(text)
	return b.String()
}

// replacePositional expands $1..$9 and $$.
func replacePositional(text string, args []string) string {
	var b strings.Builder
	for i := 0; i < len(text); i++ {
		if text[i] != '$' || i+1 >= len(text) {
			b.WriteByte(text[i])
			continue
		}
		next := text[i+1]
		switch {
		case next == '$':
			b.WriteByte('$')
			i++
		case next >= '1' && next <= '9':
			if n := int(next - '1'); n < len(args) {
				b.WriteString(args[n])
			}
			i++
		default:
			b.WriteByte('$')
		}
	}
	return b.String()
}

func normalize(locale string) string {
	return strings.ReplaceAll(locale, "_", "-")
}
