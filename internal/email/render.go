package email

import (
	"regexp"

	"github.com/angelmondragon/saastools-backend/pkg/db/models"
)

var placeholderPattern = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_]+)\s*\}\}`)

// Rendered is a template with every known placeholder substituted.
type Rendered struct {
	Subject string
	HTML    string
	Text    string
}

// Render replaces each {{key}} with vars[key]. Unknown keys stay as written.
func Render(tpl *models.EmailTemplate, vars map[string]string) Rendered {
	return Rendered{
		Subject: substitute(tpl.Subject, vars),
		HTML:    substitute(tpl.HTML, vars),
		Text:    substitute(tpl.Text, vars),
	}
}

func substitute(input string, vars map[string]string) string {
	if input == "" || len(vars) == 0 {
		return input
	}
	return placeholderPattern.ReplaceAllStringFunc(input, func(match string) string {
		key := placeholderPattern.FindStringSubmatch(match)[1]
		if value, ok := vars[key]; ok {
			return value
		}
		return match
	})
}
