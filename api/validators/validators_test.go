package validators

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/saastools-backend/pkg/errors"
)

type toolBody struct {
	Name      string   `json:"name" validate:"required,notblank,max=20"`
	Slug      string   `json:"slug,omitempty" validate:"omitempty,slug"`
	Platforms []string `json:"platforms" validate:"required,min=1,dive,oneof=amazon flipkart"`
}

func details(t *testing.T, err error) map[string]string {
	t.Helper()
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeValidation, typed.Code())
	out, ok := typed.Details().(map[string]string)
	require.True(t, ok, "details %T", typed.Details())
	return out
}

func TestDecodeJSONBodyValid(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"name":"Keywords","slug":"keyword-research","platforms":["amazon"]}`))
	var body toolBody
	require.NoError(t, DecodeJSONBody(req, &body))
	assert.Equal(t, "keyword-research", body.Slug)
}

func TestDecodeJSONBodyFieldMessages(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"name":"   ","slug":"Bad Slug","platforms":["ebay"]}`))
	var body toolBody
	d := details(t, DecodeJSONBody(req, &body))
	assert.Equal(t, "is required", d["name"])
	assert.Equal(t, "must be lowercase letters, digits and hyphens", d["slug"])
	assert.Equal(t, "must be one of: amazon, flipkart", d["platforms[0]"])
}

func TestDecodeJSONBodyRejectsMalformedInput(t *testing.T) {
	cases := map[string]string{
		"empty":   ``,
		"syntax":  `{"name":`,
		"unknown": `{"name":"x","platforms":["amazon"],"extra":1}`,
		"type":    `{"name":5,"platforms":["amazon"]}`,
		"trailer": `{"name":"x","platforms":["amazon"]}{}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/", strings.NewReader(raw))
			var body toolBody
			err := DecodeJSONBody(req, &body)
			require.Error(t, err)
			assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
		})
	}
}

func TestDecodeJSONBodyTooLarge(t *testing.T) {
	raw := `{"name":"` + strings.Repeat("a", MaxBodyBytes) + `"}`
	req := httptest.NewRequest("POST", "/", strings.NewReader(raw))
	var body toolBody
	err := DecodeJSONBody(req, &body)
	require.Error(t, err)
	assert.Equal(t, "request body too large", pkgerrors.As(err).Message())
}

func TestQueryInt(t *testing.T) {
	bounds := IntRange{Default: 10, Min: 1, Max: 50}

	v, err := QueryInt(httptest.NewRequest("GET", "/", nil), "limit", bounds)
	require.NoError(t, err)
	assert.Equal(t, 10, v)

	v, err = QueryInt(httptest.NewRequest("GET", "/?limit=25", nil), "limit", bounds)
	require.NoError(t, err)
	assert.Equal(t, 25, v)

	_, err = QueryInt(httptest.NewRequest("GET", "/?limit=abc", nil), "limit", bounds)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	_, err = QueryInt(httptest.NewRequest("GET", "/?limit=51", nil), "limit", bounds)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "Priya Sharma", SanitizeString("  Priya \t\n  Sharma ", 0))
	assert.Equal(t, "abc", SanitizeString("a\x00b\x07c", 0))
	assert.Equal(t, "नमस्", SanitizeString("नमस्ते", 4))
	assert.Equal(t, "ab", SanitizeString("ab cd", 3))
}
