package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCatalog(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

const validCatalog = `
id: signup
steps:
  - id: account
    ordinal: 1
    fields:
      - id: email
        required: true
        rules:
          - code: email-format
            message: enter a valid email
            expr: 'value matches "@"'
          - code: email-taken
            message: email already in use
            remote:
              operation: field-unique
              field: email
              expect: data.unique == true
  - id: base_plan
    ordinal: 2
    next: 'selected("tier-premium") ? "premium_addons" : "done"'
    fields:
      - id: tier_premium
        component:
          id: tier-premium
          kind: recurring
          unitPrice: "45.00"
  - id: premium_addons
    ordinal: 3
    visible: 'selected("tier-premium")'
    fields:
      - id: priority_support
        component:
          id: priority-support
          kind: recurring
          unitPrice: "9.50"
          prorated: true
`

func TestLoad_ValidCatalog(t *testing.T) {
	c, err := Load(writeCatalog(t, validCatalog))
	require.NoError(t, err)

	assert.Equal(t, "signup", c.ID)
	require.Len(t, c.Steps, 3)

	account, ok := c.Step("account")
	require.True(t, ok)
	require.Len(t, account.Fields, 1)
	require.Len(t, account.Fields[0].Rules, 2)
	assert.Equal(t, "field-unique", account.Fields[0].Rules[1].Remote.Operation)

	premium, ok := c.Step("premium_addons")
	require.True(t, ok)
	spec := premium.Fields[0].Component
	require.NotNil(t, spec)
	assert.Equal(t, "priority-support", spec.ID)
	assert.True(t, spec.UnitPrice.Equal(decimal.RequireFromString("9.50")))
	assert.True(t, spec.Prorated)
}

func TestLoad_Navigation(t *testing.T) {
	c, err := Load(writeCatalog(t, validCatalog))
	require.NoError(t, err)

	first, ok := c.First()
	require.True(t, ok)
	assert.Equal(t, "account", first.ID)

	after, ok := c.After("account")
	require.True(t, ok)
	assert.Equal(t, "base_plan", after.ID)

	_, ok = c.After("premium_addons")
	assert.False(t, ok)
}

func TestLoad_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			"missing file", "", "",
		},
		{
			"no steps",
			"id: empty\nsteps: []\n",
			"no steps",
		},
		{
			"duplicate step id",
			"id: c\nsteps:\n  - id: a\n    ordinal: 1\n  - id: a\n    ordinal: 2\n",
			`duplicate step id "a"`,
		},
		{
			"duplicate ordinal",
			"id: c\nsteps:\n  - id: a\n    ordinal: 1\n  - id: b\n    ordinal: 1\n",
			"share ordinal 1",
		},
		{
			"step id is done sentinel",
			"id: c\nsteps:\n  - id: done\n    ordinal: 1\n",
			"done sentinel",
		},
		{
			"duplicate field id",
			"id: c\nsteps:\n  - id: a\n    ordinal: 1\n    fields:\n      - id: f\n      - id: f\n",
			`duplicate field id "f"`,
		},
		{
			"rule with neither expr nor remote",
			"id: c\nsteps:\n  - id: a\n    ordinal: 1\n    fields:\n      - id: f\n        rules:\n          - code: r\n            message: m\n",
			"neither expr nor remote",
		},
		{
			"rule both local and remote",
			"id: c\nsteps:\n  - id: a\n    ordinal: 1\n    fields:\n      - id: f\n        rules:\n          - code: r\n            message: m\n            expr: 'true'\n            remote:\n              operation: field-unique\n              field: f\n              expect: 'true'\n",
			"both local and remote",
		},
		{
			"bad unit price",
			"id: c\nsteps:\n  - id: a\n    ordinal: 1\n    fields:\n      - id: f\n        component:\n          id: x\n          kind: recurring\n          unitPrice: \"twenty\"\n",
			"invalid unitPrice",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var err error
			if tt.name == "missing file" {
				_, err = Load(filepath.Join(t.TempDir(), "absent.yaml"))
			} else {
				_, err = Load(writeCatalog(t, tt.body))
			}
			require.Error(t, err)
			if tt.wantErr != "" {
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}
