package importer

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/textproto"
	"testing"
)

// parseUpload builds a multipart form holding one "file" part per entry.
func parseUpload(t *testing.T, parts ...[2]string) []*multipart.FileHeader {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for i, p := range parts {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="file"; filename="export`+string(rune('a'+i))+`.json"`)
		if p[0] != "" {
			h.Set("Content-Type", p[0])
		}
		pw, err := w.CreatePart(h)
		if err != nil {
			t.Fatalf("CreatePart: %v", err)
		}
		_, _ = pw.Write([]byte(p[1]))
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	form, err := multipart.NewReader(&body, w.Boundary()).ReadForm(1 << 20)
	if err != nil {
		t.Fatalf("ReadForm: %v", err)
	}
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form.File["file"]
}

func TestSelect(t *testing.T) {
	cases := []struct {
		name     string
		parts    [][2]string
		expected error
	}{
		{"no file", nil, ErrNoFile},
		{"two files", [][2]string{{"application/json", "{}"}, {"application/json", "{}"}}, ErrMultipleFiles},
		{"plain text", [][2]string{{"text/plain", "{}"}}, ErrNotJSON},
		{"missing content type", [][2]string{{"", "{}"}}, ErrNotJSON},
		{"json", [][2]string{{"application/json", "{}"}}, nil},
		{"json with charset", [][2]string{{"application/json; charset=utf-8", "{}"}}, nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var files []*multipart.FileHeader
			if len(tc.parts) > 0 {
				files = parseUpload(t, tc.parts...)
			}

			fh, err := Select(files)
			if !errors.Is(err, tc.expected) {
				t.Fatalf("Select error = %v; want %v", err, tc.expected)
			}
			if tc.expected == nil && fh == nil {
				t.Fatalf("Select returned no file")
			}
		})
	}
}

func TestValidationMessages(t *testing.T) {
	cases := map[*ValidationError]string{
		ErrNoFile:        "Please select a file.",
		ErrMultipleFiles: "Please only select a single file",
		ErrNotJSON:       "Please select a json file",
	}
	for err, msg := range cases {
		if err.Error() != msg {
			t.Errorf("Error() = %q; want %q", err.Error(), msg)
		}
	}
}

func TestRead(t *testing.T) {
	doc := `{"Home & Work": {}}`
	fh := parseUpload(t, [2]string{"application/json", doc})[0]

	data, err := Read(fh, 0)
	if err != nil {
		t.Fatalf("Read returned error: %v", err)
	}
	if string(data) != doc {
		t.Fatalf("Read = %q; want %q", data, doc)
	}

	if _, err := Read(fh, 4); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("Read with small limit error = %v; want ErrTooLarge", err)
	}
}
