package config

import (
	"reflect"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"gopkg.in/yaml.v2"
)

func TestBuiltinConfig(t *testing.T) {
	rawConfig := make(map[string]interface{})
	assert.Nil(t, yaml.Unmarshal(defaultConfigData, &rawConfig))

	knownFields := make(map[string]bool)
	rt := reflect.TypeOf(Configuration{})
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}

		jsonTag := field.Tag.Get("json")
		assert.NotEmpty(t, jsonTag)
		jsonField := strings.Split(jsonTag, ",")[0]
		knownFields[jsonField] = true

		if _, ok := rawConfig[jsonField]; !ok {
			assert.False(t, true, "default config missing field: %q", jsonField)
		}
	}

	for k := range rawConfig {
		_, ok := knownFields[k]
		assert.True(t, ok, "default config contains invalid field: %q", k)
	}
}

func TestDefaultConfig(t *testing.T) {
	// Will panic() on load failure because it should never happen at runtime.
	cfg := Default()
	assert.NotNil(t, cfg)
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	cases := map[string]struct {
		mutate  func(c *Configuration)
		wantErr string
	}{
		"default": {
			mutate: func(c *Configuration) {},
		},
		"empty-prompt": {
			mutate:  func(c *Configuration) { c.Prompt = "" },
			wantErr: "prompt",
		},
		"bad-color": {
			mutate:  func(c *Configuration) { c.Color = "sometimes" },
			wantErr: "color",
		},
		"negative-history": {
			mutate:  func(c *Configuration) { c.HistoryLimit = -1 },
			wantErr: "history_limit",
		},
		"alias-with-slash": {
			mutate:  func(c *Configuration) { c.Aliases["bin/ls"] = "ls" },
			wantErr: "aliases",
		},
		"empty-alias": {
			mutate:  func(c *Configuration) { c.Aliases["noop"] = "" },
			wantErr: "aliases",
		},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			if assert.Error(t, err) {
				assert.Contains(t, err.Error(), tc.wantErr)
			}
		})
	}
}

func TestUseColor(t *testing.T) {
	cases := map[string]struct {
		terminal bool
		want     bool
	}{
		"auto/terminal":  {terminal: true, want: true},
		"auto/pipe":      {terminal: false, want: false},
		"always/pipe":    {terminal: false, want: true},
		"never/terminal": {terminal: true, want: false},
		"unset/terminal": {terminal: true, want: true},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			cfg := &Configuration{Color: strings.Split(tn, "/")[0]}
			assert.Equal(t, tc.want, cfg.UseColor(tc.terminal))
		})
	}
}
