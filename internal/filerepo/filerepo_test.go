package filerepo_test

import (
	"strings"
	"testing"

	"github.com/spf13/afero"

	"satchel/internal/filerepo"
)

func newMemRepo() *filerepo.Repository {
	return filerepo.New(afero.NewMemMapFs(), "/data")
}

func TestValidFileName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Interstellar", "Interstellar"},
		{"A/B\\C", "A-B-C"},
		{`What? "Why": <Now>|*`, "What- -Why-- -Now---"},
		{"  padded  ", "padded"},
		{"tab\tname", "tab-name"},
	}
	for _, tc := range cases {
		if got := filerepo.ValidFileName(tc.in); got != tc.want {
			t.Errorf("ValidFileName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestMediaAndMetadataPaths(t *testing.T) {
	repo := newMemRepo()

	mediaPath := repo.MediaPath("server-1", "Movies", "Interstellar.mkv")
	if mediaPath != "/data/media/server-1/Movies/Interstellar.mkv" {
		t.Fatalf("unexpected media path: %s", mediaPath)
	}

	metaPath := repo.MetadataPath("server-1", "images", "item-1_Primary.png")
	if !strings.HasPrefix(metaPath, "/data/metadata/") {
		t.Fatalf("unexpected metadata path: %s", metaPath)
	}
}

func TestCombineAndParent(t *testing.T) {
	combined := filerepo.CombinePath("/data/media/Movies", "film.mkv")
	if combined != "/data/media/Movies/film.mkv" {
		t.Fatalf("unexpected combined path: %s", combined)
	}
	if parent := filerepo.ParentPath(combined); parent != "/data/media/Movies" {
		t.Fatalf("unexpected parent path: %s", parent)
	}
}

func TestWriteExistsSizeDelete(t *testing.T) {
	repo := newMemRepo()
	target := repo.MediaPath("server-1", "file.bin")

	exists, err := repo.Exists(target)
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if exists {
		t.Fatal("expected file to not exist yet")
	}

	written, err := repo.WriteFile(target, strings.NewReader("hello world"))
	if err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if written != 11 {
		t.Fatalf("expected 11 bytes written, got %d", written)
	}

	exists, err = repo.Exists(target)
	if err != nil || !exists {
		t.Fatalf("expected file to exist, exists=%v err=%v", exists, err)
	}

	size, err := repo.FileSize(target)
	if err != nil {
		t.Fatalf("FileSize failed: %v", err)
	}
	if size != 11 {
		t.Fatalf("expected size 11, got %d", size)
	}

	if err := repo.DeleteFile(target); err != nil {
		t.Fatalf("DeleteFile failed: %v", err)
	}
	if err := repo.DeleteFile(target); err != nil {
		t.Fatalf("DeleteFile on missing file should not error: %v", err)
	}
}

func TestDeleteDirectoryAndIsDirEmpty(t *testing.T) {
	repo := newMemRepo()
	dir := repo.MediaPath("server-1", "Movies", "Interstellar")

	empty, err := repo.IsDirEmpty(dir)
	if err != nil {
		t.Fatalf("IsDirEmpty failed: %v", err)
	}
	if !empty {
		t.Fatal("missing directory should count as empty")
	}

	if _, err := repo.WriteFile(filerepo.CombinePath(dir, "film.mkv"), strings.NewReader("x")); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	empty, err = repo.IsDirEmpty(dir)
	if err != nil {
		t.Fatalf("IsDirEmpty failed: %v", err)
	}
	if empty {
		t.Fatal("expected directory with file to be non-empty")
	}

	if err := repo.DeleteDirectory(dir); err != nil {
		t.Fatalf("DeleteDirectory failed: %v", err)
	}
	exists, err := repo.Exists(dir)
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if exists {
		t.Fatal("expected directory to be removed")
	}
}
