package serving

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"

	"bot-supervisor/core/logger"

	"github.com/Masterminds/sprig"
)

// TemplateSuffix marks files in the template dir that are rendered
const TemplateSuffix = ".tmpl"

// TemplateData is the value templates are executed against
type TemplateData struct {
	Env map[string]string
}

// EnvironMap converts KEY=VALUE pairs into a map
func EnvironMap(environ []string) map[string]string {
	env := make(map[string]string, len(environ))
	for _, kv := range environ {
		if key, value, ok := strings.Cut(kv, "="); ok {
			env[key] = value
		}
	}
	return env
}

// RenderTemplates renders every *.tmpl file of templateDir into configDir,
// dropping the suffix. Targets that already exist are left untouched.
// It returns the paths it wrote.
func RenderTemplates(templateDir, configDir string, data TemplateData) ([]string, error) {
	entries, err := os.ReadDir(templateDir)
	if errors.Is(err, fs.ErrNotExist) {
		logger.WithField("dir", templateDir).Debug("no template directory")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list templates in %s: %w", templateDir, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), TemplateSuffix) {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	var rendered []string
	for _, name := range names {
		target := filepath.Join(configDir, strings.TrimSuffix(name, TemplateSuffix))
		if _, err := os.Stat(target); err == nil {
			logger.WithField("path", target).Info("config exists, skipping template")
			continue
		}

		if err := renderTemplate(filepath.Join(templateDir, name), target, data); err != nil {
			return rendered, err
		}
		logger.WithField("path", target).Info("config rendered from template")
		rendered = append(rendered, target)
	}
	return rendered, nil
}

func renderTemplate(source, target string, data TemplateData) error {
	content, err := os.ReadFile(source)
	if err != nil {
		return fmt.Errorf("failed to read template %s: %w", source, err)
	}

	tmpl, err := template.New(filepath.Base(source)).
		Funcs(sprig.TxtFuncMap()).
		Option("missingkey=zero").
		Parse(string(content))
	if err != nil {
		return fmt.Errorf("failed to parse template %s: %w", source, err)
	}

	var out bytes.Buffer
	if err := tmpl.Execute(&out, data); err != nil {
		return fmt.Errorf("failed to render template %s: %w", source, err)
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}
	if err := os.WriteFile(target, out.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", target, err)
	}
	return nil
}
