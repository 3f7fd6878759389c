package normalize

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/spigell/profile-featurizer/internal/schema"
	"github.com/spigell/profile-featurizer/internal/translate"
)

func str(s string) *string { return &s }

// dictionary translates known phrases and passes the rest through.
func dictionary(entries map[string]string) translate.Translator {
	return translate.Func(func(_ context.Context, text string, _ language.Tag) (string, error) {
		if out, ok := entries[text]; ok {
			return out, nil
		}
		return text, nil
	})
}

func TestNormalize(t *testing.T) {
	n := New(dictionary(map[string]string{
		"Ingeniero de Datos": "Data Engineer",
		"Universidad Nacional": "National University",
	}), language.English, nil)

	tests := []struct {
		name   string
		policy schema.Policy
		in     *string
		expect string
	}{
		{name: "company strips employment type", policy: schema.PolicyCompany, in: str("Acme  Corp Full-time"), expect: "acme corp"},
		{name: "company keeps punctuation", policy: schema.PolicyCompany, in: str("AT&T\tInc."), expect: "at&t inc."},
		{name: "company null", policy: schema.PolicyCompany, in: nil, expect: "none"},
		{name: "name tokens", policy: schema.PolicyName, in: str("Sr. Data-Engineer (Remote)"), expect: "sr,dataengineer,remote"},
		{name: "name translated", policy: schema.PolicyName, in: str("Ingeniero de Datos"), expect: "data,engineer"},
		{name: "name null", policy: schema.PolicyName, in: nil, expect: "none"},
		{name: "education phrase", policy: schema.PolicyEducation, in: str("  Universidad   Nacional "), expect: "national university"},
		{name: "position tokens", policy: schema.PolicyPosition, in: str("Data Engineer @ Acme's AI/ML team"), expect: "data,engineer,acme,'s,ai,ml,team"},
		{name: "position contraction", policy: schema.PolicyPosition, in: str("I don't stop"), expect: "i,do,n't,stop"},
		{name: "position null", policy: schema.PolicyPosition, in: nil, expect: "none"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := n.Normalize(context.Background(), tt.policy, tt.in)
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, tt.expect, *got)
		})
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	n := New(translate.Identity{}, language.English, nil)

	inputs := []string{
		"Acme Corp Full-time",
		"Senior   Data Engineer, ML",
		"Head of R&D's lab",
		"Master's degree in CS",
		"rock'n'roll don't",
		"",
	}

	for _, policy := range []schema.Policy{schema.PolicyCompany, schema.PolicyName, schema.PolicyEducation, schema.PolicyPosition} {
		for _, in := range inputs {
			once, err := n.Normalize(context.Background(), policy, str(in))
			require.NoError(t, err)
			twice, err := n.Normalize(context.Background(), policy, once)
			require.NoError(t, err)
			assert.Equal(t, *once, *twice, "policy %s input %q", policy, in)
		}
	}
}

func TestNormalizeNonePolicyKeepsCell(t *testing.T) {
	n := New(nil, language.English, nil)

	got, err := n.Normalize(context.Background(), schema.PolicyNone, nil)
	require.NoError(t, err)
	assert.Nil(t, got)

	raw := str("May 2019 – Present")
	got, err = n.Normalize(context.Background(), schema.PolicyNone, raw)
	require.NoError(t, err)
	assert.Same(t, raw, got)
}

func TestNormalizePropagatesTranslationFailure(t *testing.T) {
	boom := errors.New("boom")
	n := New(translate.Func(func(context.Context, string, language.Tag) (string, error) {
		return "", boom
	}), language.English, nil)

	_, err := n.Normalize(context.Background(), schema.PolicyEducation, str("x"))
	require.ErrorIs(t, err, boom)

	_, err = n.NormalizeColumn(context.Background(), schema.PolicyEducation, []*string{nil, str("x")})
	require.ErrorIs(t, err, boom)
}

func TestNormalizeColumn(t *testing.T) {
	n := New(translate.Func(func(_ context.Context, text string, _ language.Tag) (string, error) {
		return strings.ToUpper(text), nil
	}), language.English, nil)

	got, err := n.NormalizeColumn(context.Background(), schema.PolicyName, []*string{str("Data Engineer"), nil})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "data,engineer", *got[0])
	assert.Equal(t, "none", *got[1])
}

func TestNormalizeUnknownPolicy(t *testing.T) {
	n := New(nil, language.English, nil)
	_, err := n.Normalize(context.Background(), "stem", str("x"))
	assert.Error(t, err)
}
