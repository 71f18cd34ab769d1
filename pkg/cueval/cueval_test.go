// SPDX-License-Identifier: MPL-2.0

package cueval_test

import (
	"strings"
	"testing"

	"ucdist/pkg/cueval"
)

const testSchema = `
#Thing: {
	name:  string & =~"^[a-z]+$"
	count: int & >=0
}
`

type thing struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestParseAndDecode(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr bool
		errPart string
	}{
		{
			name: "valid document",
			data: `name: "widget"` + "\n" + `count: 3`,
		},
		{
			name:    "schema violation",
			data:    `name: "Widget!"` + "\n" + `count: 3`,
			wantErr: true,
		},
		{
			name:    "wrong type",
			data:    `name: "widget"` + "\n" + `count: "three"`,
			wantErr: true,
		},
		{
			name:    "syntax error",
			data:    `name: `,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := cueval.ParseAndDecode[thing](
				[]byte(testSchema),
				[]byte(tt.data),
				"#Thing",
				cueval.WithFilename("thing.cue"),
			)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !strings.Contains(err.Error(), "thing.cue") {
					t.Errorf("error should name the file: %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result.Value.Name != "widget" || result.Value.Count != 3 {
				t.Errorf("decoded value = %+v", result.Value)
			}
		})
	}
}

func TestParseAndDecode_FileSizeLimit(t *testing.T) {
	big := strings.Repeat("// padding\n", cueval.DefaultMaxFileSize/10)
	_, err := cueval.ParseAndDecode[thing]([]byte(testSchema), []byte(big), "#Thing")
	if err == nil || !strings.Contains(err.Error(), "exceeds maximum") {
		t.Errorf("expected file size error, got %v", err)
	}
}

func TestFormatError_Nil(t *testing.T) {
	if got := cueval.FormatError(nil, "x.cue"); got != nil {
		t.Errorf("FormatError(nil) = %v, want nil", got)
	}
}

func TestValidationError_Error(t *testing.T) {
	e := &cueval.ValidationError{FilePath: "distfile.cue", CUEPath: "product.dist_name", Message: "bad"}
	if got := e.Error(); got != "distfile.cue: product.dist_name: bad" {
		t.Errorf("Error() = %q", got)
	}

	e2 := &cueval.ValidationError{FilePath: "distfile.cue", Message: "bad"}
	if got := e2.Error(); got != "distfile.cue: bad" {
		t.Errorf("Error() = %q", got)
	}
}
