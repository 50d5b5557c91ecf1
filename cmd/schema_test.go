package cmd

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestRunSchema(t *testing.T) {
	tests := []struct {
		name    string
		format  string
		wantErr bool
		check   func(t *testing.T, out string)
	}{
		{
			name:   "yaml output",
			format: "yaml",
			check: func(t *testing.T, out string) {
				if !strings.Contains(out, "title: Manifest") {
					t.Error("Expected YAML output to contain the Manifest title")
				}
				if strings.Contains(out, `"$schema"`) {
					t.Error("Expected YAML format, but found JSON syntax")
				}
			},
		},
		{
			name:   "json output",
			format: "json",
			check: func(t *testing.T, out string) {
				var v map[string]interface{}
				if err := json.Unmarshal([]byte(out), &v); err != nil {
					t.Fatalf("output is not valid JSON: %v", err)
				}
				if v["title"] != "Manifest" {
					t.Errorf("title = %v, want Manifest", v["title"])
				}
			},
		},
		{
			name:    "unsupported format",
			format:  "typespec",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var output bytes.Buffer
			err := RunSchema(tt.format, &output)
			if tt.wantErr {
				if err == nil {
					t.Error("RunSchema() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("RunSchema() returned error: %v", err)
			}
			tt.check(t, output.String())
		})
	}
}
