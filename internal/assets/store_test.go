package assets

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paperdeck/paperdeck/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir())
	require.NoError(t, err)
	return s
}

func TestValidateUsername(t *testing.T) {
	assert.NoError(t, ValidateUsername("alice"))
	assert.Error(t, ValidateUsername(""))
	assert.Error(t, ValidateUsername("../alice"))
	assert.Error(t, ValidateUsername("a/b"))
	assert.Error(t, ValidateUsername(`a\b`))
}

func TestValidateDirName(t *testing.T) {
	assert.NoError(t, ValidateDirName("alice/20240101000000_paper"))
	assert.Error(t, ValidateDirName(""))
	assert.Error(t, ValidateDirName("alice/../bob"))
	assert.Error(t, ValidateDirName(`alice\paper`))
}

func TestNewDirName(t *testing.T) {
	now := time.Date(2024, 3, 5, 14, 30, 9, 0, time.UTC)
	assert.Equal(t, "20240305143009_attention", NewDirName("attention", now))
	assert.Equal(t, "attention", DisplayName("20240305143009_attention"))
	assert.Equal(t, "plain", DisplayName("plain"))
}

func TestBaseName(t *testing.T) {
	assert.Equal(t, "paper", BaseName("paper.pdf"))
	assert.Equal(t, "paper.v2", BaseName("paper.v2.pdf"))
	assert.Equal(t, "paper", BaseName("paper"))
}

func TestCreateDirectoryCollision(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.CreateDirectory("alice", "20240101000000_paper"))

	err := s.CreateDirectory("alice", "20240101000000_paper")
	require.Error(t, err)
	assert.Equal(t, domain.KindStorage, domain.KindOf(err))
}

func TestSaveImageNaming(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.CreateDirectory("alice", "d"))

	name, err := s.SaveImage("alice", "d", domain.ElementTable, 1, []byte("png"))
	require.NoError(t, err)
	assert.Equal(t, "table-1.png", name)

	name, err = s.SaveImage("alice", "d", domain.ElementPicture, 3, []byte("png"))
	require.NoError(t, err)
	assert.Equal(t, "picture-3.png", name)

	images, err := s.ListImages("alice/d")
	require.NoError(t, err)
	assert.Equal(t, []string{"picture-3.png", "table-1.png"}, images)
}

func TestArtifactRoundTrip(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.CreateDirectory("alice", "d"))

	require.NoError(t, s.WriteArtifact("alice/d", "paper", domain.SuffixOrigin, "# Title"))

	name, content, err := s.FindArtifact("alice/d", domain.SuffixOrigin)
	require.NoError(t, err)
	assert.Equal(t, "paper_origin.md", name)
	assert.Equal(t, "# Title", content)

	_, _, err = s.FindArtifact("alice/d", domain.SuffixTrans)
	require.Error(t, err)
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))
}

func TestListFilesRequiresSinglePDF(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.CreateDirectory("alice", "d"))

	_, _, err := s.ListFiles("alice/d")
	require.Error(t, err)
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))

	require.NoError(t, s.SaveSource("alice", "d", "paper.pdf", strings.NewReader("%PDF")))
	require.NoError(t, s.WriteArtifact("alice/d", "paper", domain.SuffixOrigin, "x"))

	mdFiles, pdfFile, err := s.ListFiles("alice/d")
	require.NoError(t, err)
	assert.Equal(t, []string{"paper_origin.md"}, mdFiles)
	assert.Equal(t, "paper.pdf", pdfFile)
}

func TestListDirectoriesOrder(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.CreateDirectory("alice", "20240101000000_old"))
	require.NoError(t, s.CreateDirectory("alice", "20240201000000_new"))

	oldPath := filepath.Join(s.Root(), "alice", "20240101000000_old")
	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(oldPath, past, past))

	dirs, err := s.ListDirectories("alice")
	require.NoError(t, err)
	require.Len(t, dirs, 2)
	assert.Equal(t, "20240201000000_new", dirs[0].DirName)
	assert.Equal(t, "new", dirs[0].DisplayName)
	assert.Equal(t, "20240101000000_old", dirs[1].DirName)
}

func TestSaveMarkdown(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.CreateDirectory("alice", "d"))

	err := s.SaveMarkdown("alice/d", "notes.txt", "x")
	require.Error(t, err)
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))

	err = s.SaveMarkdown("alice/missing", "notes.md", "x")
	require.Error(t, err)
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))

	require.NoError(t, s.SaveMarkdown("alice/d", "notes.md", "# notes"))
	data, err := os.ReadFile(filepath.Join(s.Root(), "alice", "d", "notes.md"))
	require.NoError(t, err)
	assert.Equal(t, "# notes", string(data))
}

func TestDeleteBySuffix(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.CreateDirectory("alice", "d"))
	require.NoError(t, s.WriteArtifact("alice/d", "paper", domain.SuffixTrans, "x"))

	name, err := s.DeleteBySuffix("alice", "d", "_trans.md")
	require.NoError(t, err)
	assert.Equal(t, "paper_trans.md", name)

	_, err = s.DeleteBySuffix("alice", "d", "_trans.md")
	require.Error(t, err)
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))
}

func TestDeleteDirectory(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.CreateDirectory("alice", "d"))

	require.NoError(t, s.DeleteDirectory("alice", "d"))

	err := s.DeleteDirectory("alice", "d")
	require.Error(t, err)
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))
}

func TestWriteZip(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.CreateDirectory("alice", "d"))
	require.NoError(t, s.SaveSource("alice", "d", "paper.pdf", strings.NewReader("%PDF")))
	require.NoError(t, s.WriteArtifact("alice/d", "paper", domain.SuffixOrigin, "# T"))

	var buf bytes.Buffer
	require.NoError(t, s.WriteZip("alice", "d", &buf))

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)

	names := make([]string, 0, len(zr.File))
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	assert.ElementsMatch(t, []string{"paper.pdf", "paper_origin.md"}, names)
}

func TestFilePathContainment(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.CreateDirectory("alice", "d"))
	require.NoError(t, s.SaveSource("alice", "d", "paper.pdf", strings.NewReader("%PDF")))

	p, err := s.FilePath("alice/d/paper.pdf")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(p, s.Root()))

	_, err = s.FilePath("alice/../../etc/passwd")
	require.Error(t, err)
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))

	_, err = s.FilePath("alice/d/missing.pdf")
	require.Error(t, err)
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))
}

func TestUserDBPath(t *testing.T) {
	s := newTestStore(t)

	p, err := s.UserDBPath("alice")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(s.Root(), "alice", ChatDBFileName), p)
	assert.True(t, s.UserExists("alice"))
}
