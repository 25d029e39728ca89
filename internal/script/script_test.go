package script

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestSubtitleTextFallsBackToText(t *testing.T) {
	s := &Section{Text: "full narration"}
	if got := s.SubtitleText(); got != "full narration" {
		t.Errorf("got %q", got)
	}
	s.Subtitle = "short"
	if got := s.SubtitleText(); got != "short" {
		t.Errorf("got %q", got)
	}
}

func TestResolveDefaultsAndBaseDir(t *testing.T) {
	base := t.TempDir()
	abs := filepath.Join(base, "elsewhere", "pic.jpg")

	sc := &Script{Sections: []*Section{
		{Text: "a"},
		{Text: "b", ImagePath: "img/b.png", AudioPath: abs},
	}}
	sc.Resolve(base)

	tests := []struct {
		got, want string
	}{
		{sc.Sections[0].ImagePath, filepath.Join(base, "image_0.png")},
		{sc.Sections[0].AudioPath, filepath.Join(base, "audio_0.mp3")},
		{sc.Sections[1].ImagePath, filepath.Join(base, "img", "b.png")},
		{sc.Sections[1].AudioPath, abs},
	}
	for i, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("case %d: got %q, want %q", i, tt.got, tt.want)
		}
	}
}

func TestWriteReadScript(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "demo.yaml")

	in := &Script{
		Version: "1.0",
		Title:   "demo",
		Sections: []*Section{
			{Text: "こんにちは", Subtitle: "hello", VisualPrompt: "a cat", ImagePath: "one.png", AudioPath: "one.wav"},
			{Text: "second"},
		},
	}
	if err := WriteScript(in, path); err != nil {
		t.Fatal(err)
	}

	out, err := ReadScript(path)
	if err != nil {
		t.Fatal(err)
	}
	if out.Title != "demo" || len(out.Sections) != 2 {
		t.Fatalf("unexpected script %+v", out)
	}
	if out.Sections[0].Text != "こんにちは" || out.Sections[0].VisualPrompt != "a cat" {
		t.Errorf("section 0 = %+v", out.Sections[0])
	}
	if out.Sections[0].ImagePath != filepath.Join(dir, "one.png") {
		t.Errorf("image path %q", out.Sections[0].ImagePath)
	}
	if out.Sections[1].AudioPath != filepath.Join(dir, "audio_1.mp3") {
		t.Errorf("audio path %q", out.Sections[1].AudioPath)
	}
}

func TestReadScriptErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := ReadScript(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	empty := filepath.Join(dir, "empty.yaml")
	os.WriteFile(empty, []byte("version: \"1.0\"\nsections: []\n"), 0644)
	if _, err := ReadScript(empty); err == nil {
		t.Error("expected error for script without sections")
	}

	broken := filepath.Join(dir, "broken.yaml")
	os.WriteFile(broken, []byte("sections: [\n"), 0644)
	if _, err := ReadScript(broken); err == nil {
		t.Error("expected parse error")
	}
}

func TestGenerateScriptPath(t *testing.T) {
	path := GenerateScriptPath("scripts")
	if !strings.HasPrefix(filepath.Base(path), "script_") || filepath.Dir(path) != "scripts" {
		t.Errorf("unexpected path %s", path)
	}
}

func TestFindLatestScript(t *testing.T) {
	dir := t.TempDir()
	files := []string{
		filepath.Join(dir, "script_2026-02-12_10-00-00.yaml"),
		filepath.Join(dir, "script_2026-02-13_01-00-00.yaml"),
		filepath.Join(dir, "script_2026-02-11_15-30-00.yaml"),
	}
	for i, f := range files {
		os.WriteFile(f, []byte("test"), 0644)
		modTime := time.Now().Add(time.Duration(i) * time.Hour)
		os.Chtimes(f, modTime, modTime)
	}
	os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644)

	latest, err := FindLatestScript(dir)
	if err != nil {
		t.Fatalf("FindLatestScript failed: %v", err)
	}
	// The last file has the newest modification time.
	if latest != files[2] {
		t.Errorf("got %s, want %s", latest, files[2])
	}

	if _, err := FindLatestScript(t.TempDir()); err == nil {
		t.Error("expected error for directory without scripts")
	}
}

func TestFindLatestScriptMissingDir(t *testing.T) {
	_, err := FindLatestScript(filepath.Join(t.TempDir(), "nope"))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("want fs.ErrNotExist in chain, got %v", err)
	}
}

func TestCreateScaffold(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "scripts")
	path, err := CreateScaffold(dir, "episode", 3)
	if err != nil {
		t.Fatal(err)
	}

	latest, err := FindLatestScript(dir)
	if err != nil || latest != path {
		t.Fatalf("FindLatestScript = %q, %v; want %q", latest, err, path)
	}
	sc, err := ReadScript(path)
	if err != nil {
		t.Fatal(err)
	}
	if sc.Title != "episode" || len(sc.Sections) != 3 {
		t.Fatalf("unexpected scaffold %+v", sc)
	}
	if got := sc.Sections[2].ImagePath; got != filepath.Join(dir, "image_2.png") {
		t.Errorf("image path %q", got)
	}
	if sc.Sections[0].Text == "" {
		t.Error("placeholder narration missing")
	}

	if _, err := CreateScaffold(dir, "", 0); err == nil {
		t.Error("expected error for zero sections")
	}
}
