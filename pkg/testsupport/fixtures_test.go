package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFixtureJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "payload.json")
	if err := os.WriteFile(path, []byte(`{"id":42,"name":"chair"}`), 0644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	var got struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	}
	LoadFixtureJSON(t, path, &got)

	if got.ID != 42 || got.Name != "chair" {
		t.Errorf("unexpected decoded fixture: %+v", got)
	}
}

func TestCompareWithGolden_CreatesMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "golden", "out.json")

	CompareWithGolden(t, path, []byte(`{"a":1}`))

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected the golden file created: %v", err)
	}
	if string(data) != `{"a":1}` {
		t.Errorf("unexpected golden contents: %s", data)
	}

	// a second comparison against the created file passes
	CompareWithGolden(t, path, []byte(`{"a":1}`))
}

func TestWriteGolden_CreatesDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "c.golden")
	WriteGolden(t, path, []byte("payload"))

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected the file written: %v", err)
	}
	if string(data) != "payload" {
		t.Errorf("unexpected contents: %s", data)
	}
}

func TestPaths(t *testing.T) {
	if got := FixturePath("cart.json"); got != filepath.Join("testdata", "cart.json") {
		t.Errorf("unexpected fixture path %q", got)
	}
	if got := GoldenPath("cart.json"); got != filepath.Join("testdata", "golden", "cart.json") {
		t.Errorf("unexpected golden path %q", got)
	}
}
