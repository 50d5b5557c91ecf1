package assemble

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapTable map[string]string

func (m mapTable) Lookup(name string) (string, bool) {
	body, ok := m[name]
	return body, ok
}

var table = mapTable{
	"a": "a() {\n  echo a\n}",
	"b": "b() {\n  echo b\n}",
	"c": "c() {\n  echo c\n}",
}

func TestAssemble(t *testing.T) {
	tests := []struct {
		name        string
		boilerplate string
		names       []string
		want        string
		wantMissing string
	}{
		{
			name:        "selection order is kept",
			boilerplate: "set -e",
			names:       []string{"c", "a", "b"},
			want:        "set -e\nc() {\n  echo c\n}\na() {\n  echo a\n}\nb() {\n  echo b\n}",
		},
		{
			name:        "repeated names are repeated",
			boilerplate: "set -e",
			names:       []string{"a", "a"},
			want:        "set -e\na() {\n  echo a\n}\na() {\n  echo a\n}",
		},
		{
			name:        "boilerplate is trimmed",
			boilerplate: "\n\n  set -e\n\n",
			names:       []string{"b"},
			want:        "set -e\nb() {\n  echo b\n}",
		},
		{
			name:        "empty boilerplate still leads the output",
			boilerplate: "",
			names:       []string{"a"},
			want:        "\na() {\n  echo a\n}",
		},
		{
			name:        "empty selection",
			boilerplate: "set -e",
			names:       nil,
			want:        "set -e",
		},
		{
			name:        "missing function",
			boilerplate: "set -e",
			names:       []string{"a", "nope", "b"},
			wantMissing: "nope",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Assemble(tt.boilerplate, table, tt.names)
			if tt.wantMissing != "" {
				var missing *MissingFunctionError
				require.True(t, errors.As(err, &missing), "want MissingFunctionError, got %v", err)
				assert.Equal(t, tt.wantMissing, missing.Name)
				assert.Empty(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRender(t *testing.T) {
	tests := []struct {
		name    string
		tmpl    Template
		body    string
		want    string
		wantErr bool
	}{
		{
			name: "single placeholder",
			tmpl: Template{Name: "install.sh.in", Text: "#!/bin/sh\n@FUNCS@\nmain \"$@\"\n", Placeholder: "@FUNCS@"},
			body: "f() {\n}",
			want: "#!/bin/sh\nf() {\n}\nmain \"$@\"\n",
		},
		{
			name: "every occurrence is replaced",
			tmpl: Template{Name: "t", Text: "@FUNCS@\n---\n@FUNCS@", Placeholder: "@FUNCS@"},
			body: "x",
			want: "x\n---\nx",
		},
		{
			name: "default placeholder",
			tmpl: Template{Name: "t", Text: "before\n" + DefaultPlaceholder + "\nafter"},
			body: "x",
			want: "before\nx\nafter",
		},
		{
			name:    "placeholder absent",
			tmpl:    Template{Name: "uninstall.sh.in", Text: "#!/bin/sh\n", Placeholder: "@FUNCS@"},
			body:    "x",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Render(tt.tmpl, tt.body)
			if tt.wantErr {
				var tmplErr *TemplateError
				require.True(t, errors.As(err, &tmplErr), "want TemplateError, got %v", err)
				assert.Equal(t, tt.tmpl.Name, tmplErr.Template)
				assert.Contains(t, err.Error(), tt.tmpl.Name)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuild(t *testing.T) {
	tmpl := Template{Name: "install.sh.in", Text: "#!/bin/sh\n%%\nmain\n", Placeholder: "%%"}

	t.Run("renders assembled body", func(t *testing.T) {
		got, err := Build("set -e", table, []string{"b", "a"}, tmpl)
		require.NoError(t, err)
		assert.Equal(t, "#!/bin/sh\nset -e\nb() {\n  echo b\n}\na() {\n  echo a\n}\nmain\n", got)
	})

	t.Run("identical inputs give identical output", func(t *testing.T) {
		first, err := Build("set -e", table, []string{"a", "c"}, tmpl)
		require.NoError(t, err)
		second, err := Build("set -e", table, []string{"a", "c"}, tmpl)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("missing function skips substitution", func(t *testing.T) {
		got, err := Build("set -e", table, []string{"a", "zzz"}, tmpl)
		var missing *MissingFunctionError
		require.True(t, errors.As(err, &missing))
		assert.Equal(t, "zzz", missing.Name)
		assert.Contains(t, err.Error(), "install.sh.in")
		assert.Empty(t, got)
	})

	t.Run("template without placeholder", func(t *testing.T) {
		_, err := Build("set -e", table, []string{"a"}, Template{Name: "bad.in", Text: "nothing", Placeholder: "%%"})
		var tmplErr *TemplateError
		require.True(t, errors.As(err, &tmplErr))
		assert.Equal(t, "bad.in", tmplErr.Template)
	})
}
