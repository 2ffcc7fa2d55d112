package i18n

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"text/template"

	"gopkg.in/yaml.v3"
)

//go:embed locales
var LocalesFS embed.FS

// Translator holds the message catalog for one language. Values are either
// fmt formats (T) or text/template bodies (Render).
type Translator struct {
	translations map[string]string
	templates    map[string]*template.Template
}

// NewTranslator loads locales/<langCode>.yaml from fsys.
func NewTranslator(fsys fs.FS, langCode string) (*Translator, error) {
	filePath := path.Join("locales", fmt.Sprintf("%s.yaml", langCode))
	data, err := fs.ReadFile(fsys, filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read translation file %s: %w", filePath, err)
	}
	return newTranslatorFromBytes(data)
}

func newTranslatorFromBytes(data []byte) (*Translator, error) {
	var translations map[string]string
	if err := yaml.Unmarshal(data, &translations); err != nil {
		return nil, fmt.Errorf("failed to parse translation file: %w", err)
	}
	t := &Translator{
		translations: translations,
		templates:    make(map[string]*template.Template, len(translations)),
	}
	for k, v := range translations {
		tpl, err := template.New(k).Option("missingkey=zero").Parse(v)
		if err != nil {
			return nil, fmt.Errorf("template %s: %w", k, err)
		}
		t.templates[k] = tpl
	}
	return t, nil
}

func (t *Translator) T(key string, args ...interface{}) string {
	format, ok := t.translations[key]
	if !ok {
		return key
	}
	if len(args) > 0 {
		return fmt.Sprintf(format, args...)
	}
	return format
}

// Render executes the template stored under key with data.
func (t *Translator) Render(key string, data map[string]string) (string, error) {
	tpl, ok := t.templates[key]
	if !ok {
		return "", fmt.Errorf("no template for %q", key)
	}
	var b bytes.Buffer
	if err := tpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("render %s: %w", key, err)
	}
	return b.String(), nil
}
