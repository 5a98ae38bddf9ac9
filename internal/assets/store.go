package assets

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/paperdeck/paperdeck/internal/domain"
)

// ChatDBFileName is the per-user chat store file inside the user directory.
const ChatDBFileName = "chat_history.db"

// Store manages the on-disk layout of user directories, document directories,
// extracted images and markdown artifacts. Every path it touches is resolved
// through a single containment check against the root.
type Store struct {
	root string
}

// NewStore creates the asset root if needed and returns a store over it.
func NewStore(root string) (*Store, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, domain.WrapError(domain.KindStorage, err, "failed to resolve asset root")
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, domain.WrapError(domain.KindStorage, err, "failed to create asset root")
	}
	return &Store{root: abs}, nil
}

// Root returns the absolute asset root directory.
func (s *Store) Root() string { return s.root }

// ValidateUsername rejects empty names and any path-traversal characters.
func ValidateUsername(name string) error {
	if name == "" {
		return domain.Validationf("username is required")
	}
	if strings.Contains(name, "..") || strings.Contains(name, "/") || strings.Contains(name, `\`) {
		return domain.Validationf("invalid username")
	}
	return nil
}

// ValidateDirName rejects empty names, parent references and backslashes.
// Forward slashes are allowed: directory identifiers carry a user prefix.
func ValidateDirName(name string) error {
	if name == "" {
		return domain.Validationf("dir_name is required")
	}
	if strings.Contains(name, "..") || strings.Contains(name, `\`) {
		return domain.Validationf("invalid directory name")
	}
	return nil
}

// ValidateFileName rejects names that could escape their directory.
func ValidateFileName(name string) error {
	if name == "" {
		return domain.Validationf("file_name is required")
	}
	if strings.Contains(name, "..") || strings.Contains(name, "/") || strings.Contains(name, `\`) {
		return domain.Validationf("invalid file name")
	}
	return nil
}

// resolve joins parts under the root and verifies the result stays inside it.
func (s *Store) resolve(parts ...string) (string, error) {
	p := filepath.Join(append([]string{s.root}, parts...)...)
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", domain.Validationf("invalid file path")
	}
	if abs != s.root && !strings.HasPrefix(abs, s.root+string(os.PathSeparator)) {
		return "", domain.Validationf("invalid file path")
	}
	return abs, nil
}

// BaseName strips the extension from an upload or URL file name.
func BaseName(fileName string) string {
	return strings.TrimSuffix(fileName, filepath.Ext(fileName))
}

// NewDirName builds a directory identifier from a timestamp and base name.
func NewDirName(base string, now time.Time) string {
	return now.Format("20060102150405") + "_" + base
}

// DisplayName strips the leading timestamp from a directory name.
func DisplayName(dirName string) string {
	if _, rest, ok := strings.Cut(dirName, "_"); ok {
		return rest
	}
	return dirName
}

// UserExists reports whether the user's directory has been created.
func (s *Store) UserExists(username string) bool {
	p, err := s.resolve(username)
	if err != nil {
		return false
	}
	info, err := os.Stat(p)
	return err == nil && info.IsDir()
}

// CreateUser makes the user's root directory.
func (s *Store) CreateUser(username string) error {
	p, err := s.resolve(username)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(p, 0o755); err != nil {
		return domain.WrapError(domain.KindStorage, err, "failed to create user directory")
	}
	return nil
}

// UserDBPath returns the path of the user's chat store, creating the user
// directory if needed.
func (s *Store) UserDBPath(username string) (string, error) {
	if err := ValidateUsername(username); err != nil {
		return "", err
	}
	if err := s.CreateUser(username); err != nil {
		return "", err
	}
	return s.resolve(username, ChatDBFileName)
}

// CreateDirectory makes a new document directory for the user. Creation fails
// loudly if the directory already exists; identifiers are timestamp-derived
// and a collision means a concurrent ingestion of the same file.
func (s *Store) CreateDirectory(username, dirName string) error {
	if err := s.CreateUser(username); err != nil {
		return err
	}
	p, err := s.resolve(username, dirName)
	if err != nil {
		return err
	}
	if _, err := os.Stat(p); err == nil {
		return domain.Storagef("directory already exists: %s", dirName)
	}
	if err := os.Mkdir(p, 0o755); err != nil {
		return domain.WrapError(domain.KindStorage, err, "failed to create directory")
	}
	return nil
}

// SaveSource writes the original PDF into the document directory.
func (s *Store) SaveSource(username, dirName, fileName string, r io.Reader) error {
	if err := ValidateFileName(fileName); err != nil {
		return err
	}
	p, err := s.resolve(username, dirName, fileName)
	if err != nil {
		return err
	}
	f, err := os.Create(p)
	if err != nil {
		return domain.WrapError(domain.KindStorage, err, "failed to save PDF")
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		return domain.WrapError(domain.KindStorage, err, "failed to save PDF")
	}
	return nil
}

// SaveImage writes one extracted table or picture snapshot, named by kind and
// 1-based ordinal, and returns the file name.
func (s *Store) SaveImage(username, dirName string, kind domain.ElementKind, ordinal int, png []byte) (string, error) {
	name := fmt.Sprintf("%s-%d.png", kind, ordinal)
	p, err := s.resolve(username, dirName, name)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(p, png, 0o644); err != nil {
		return "", domain.WrapError(domain.KindStorage, err, "failed to save image %s", name)
	}
	return name, nil
}

// WriteArtifact writes (or overwrites) the markdown artifact for a suffix.
// dirName includes the user prefix.
func (s *Store) WriteArtifact(dirName, baseName string, suffix domain.ArtifactSuffix, content string) error {
	if err := ValidateDirName(dirName); err != nil {
		return err
	}
	fileName := baseName + string(suffix) + ".md"
	p, err := s.resolve(dirName, fileName)
	if err != nil {
		return err
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		return domain.WrapError(domain.KindStorage, err, "failed to write %s", fileName)
	}
	return nil
}

// FindArtifact locates the one markdown artifact carrying the suffix and
// returns its file name and content.
func (s *Store) FindArtifact(dirName string, suffix domain.ArtifactSuffix) (string, string, error) {
	if err := ValidateDirName(dirName); err != nil {
		return "", "", err
	}
	dirPath, err := s.resolve(dirName)
	if err != nil {
		return "", "", err
	}
	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return "", "", domain.NotFoundf("directory not found: %s", dirName)
	}
	want := strings.ToLower(string(suffix) + ".md")
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), want) {
			continue
		}
		content, err := os.ReadFile(filepath.Join(dirPath, e.Name()))
		if err != nil {
			return "", "", domain.WrapError(domain.KindStorage, err, "failed to read %s", e.Name())
		}
		return e.Name(), string(content), nil
	}
	return "", "", domain.NotFoundf("no %s.md artifact found in %s", suffix, dirName)
}

// ListImages returns the extracted table/picture image file names, sorted.
func (s *Store) ListImages(dirName string) ([]string, error) {
	dirPath, err := s.resolve(dirName)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return nil, domain.NotFoundf("directory not found: %s", dirName)
	}
	var names []string
	for _, e := range entries {
		name := e.Name()
		if !strings.HasSuffix(name, ".png") {
			continue
		}
		if strings.HasPrefix(name, "table") || strings.HasPrefix(name, "picture") {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// ListDirectories returns the user's document directories, newest first by
// modification time.
func (s *Store) ListDirectories(username string) ([]domain.DirectoryInfo, error) {
	if err := ValidateUsername(username); err != nil {
		return nil, err
	}
	userDir, err := s.resolve(username)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(userDir)
	if err != nil {
		return nil, domain.NotFoundf("user directory not found: %s", username)
	}

	type dirEntry struct {
		name  string
		mtime time.Time
	}
	var dirs []dirEntry
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		dirs = append(dirs, dirEntry{name: e.Name(), mtime: info.ModTime()})
	}
	sort.Slice(dirs, func(i, j int) bool { return dirs[i].mtime.After(dirs[j].mtime) })

	out := make([]domain.DirectoryInfo, 0, len(dirs))
	for _, d := range dirs {
		out = append(out, domain.DirectoryInfo{DirName: d.name, DisplayName: DisplayName(d.name)})
	}
	return out, nil
}

// ListFiles returns the markdown artifacts and the single source PDF of a
// directory. A directory must hold exactly one PDF.
func (s *Store) ListFiles(dirName string) ([]string, string, error) {
	if err := ValidateDirName(dirName); err != nil {
		return nil, "", err
	}
	dirPath, err := s.resolve(dirName)
	if err != nil {
		return nil, "", err
	}
	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return nil, "", domain.NotFoundf("directory not found: %s", dirName)
	}

	var mdFiles, pdfFiles []string
	for _, e := range entries {
		name := e.Name()
		switch strings.ToLower(filepath.Ext(name)) {
		case ".md":
			mdFiles = append(mdFiles, name)
		case ".pdf":
			pdfFiles = append(pdfFiles, name)
		}
	}
	if len(pdfFiles) != 1 {
		return nil, "", domain.Validationf("directory must contain exactly one PDF file")
	}
	sort.Strings(mdFiles)
	return mdFiles, pdfFiles[0], nil
}

// SaveMarkdown overwrites one markdown file inside an existing directory.
func (s *Store) SaveMarkdown(dirName, fileName, content string) error {
	if err := ValidateDirName(dirName); err != nil {
		return err
	}
	if err := ValidateFileName(fileName); err != nil {
		return err
	}
	if !strings.HasSuffix(strings.ToLower(fileName), ".md") {
		return domain.Validationf("file name must end with .md")
	}
	dirPath, err := s.resolve(dirName)
	if err != nil {
		return err
	}
	if info, err := os.Stat(dirPath); err != nil || !info.IsDir() {
		return domain.NotFoundf("directory not found: %s", dirName)
	}
	p := filepath.Join(dirPath, fileName)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		return domain.WrapError(domain.KindStorage, err, "failed to save %s", fileName)
	}
	return nil
}

// DeleteBySuffix removes the one file in the directory that ends with the
// given suffix and returns its name.
func (s *Store) DeleteBySuffix(username, dirName, suffix string) (string, error) {
	if err := ValidateUsername(username); err != nil {
		return "", err
	}
	if err := ValidateDirName(dirName); err != nil {
		return "", err
	}
	dirPath, err := s.resolve(username, dirName)
	if err != nil {
		return "", err
	}
	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return "", domain.NotFoundf("directory not found: %s", dirName)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), strings.ToLower(suffix)) {
			continue
		}
		if err := os.Remove(filepath.Join(dirPath, e.Name())); err != nil {
			return "", domain.WrapError(domain.KindStorage, err, "failed to delete %s", e.Name())
		}
		return e.Name(), nil
	}
	return "", domain.NotFoundf("no matching file found to delete")
}

// DeleteDirectory removes one document directory and everything in it.
func (s *Store) DeleteDirectory(username, dirName string) error {
	if err := ValidateUsername(username); err != nil {
		return err
	}
	if err := ValidateDirName(dirName); err != nil {
		return err
	}
	dirPath, err := s.resolve(username, dirName)
	if err != nil {
		return err
	}
	if info, err := os.Stat(dirPath); err != nil || !info.IsDir() {
		return domain.NotFoundf("directory not found: %s", dirName)
	}
	if err := os.RemoveAll(dirPath); err != nil {
		return domain.WrapError(domain.KindStorage, err, "failed to delete directory")
	}
	return nil
}

// WriteZip streams the document directory as a zip archive.
func (s *Store) WriteZip(username, dirName string, w io.Writer) error {
	if err := ValidateUsername(username); err != nil {
		return err
	}
	if err := ValidateDirName(dirName); err != nil {
		return err
	}
	dirPath, err := s.resolve(username, dirName)
	if err != nil {
		return err
	}
	if info, err := os.Stat(dirPath); err != nil || !info.IsDir() {
		return domain.NotFoundf("directory not found: %s", dirName)
	}

	zw := zip.NewWriter(w)
	err = filepath.WalkDir(dirPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(dirPath, path)
		if err != nil {
			return err
		}
		entry, err := zw.Create(filepath.ToSlash(rel))
		if err != nil {
			return err
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = io.Copy(entry, f)
		return err
	})
	if err != nil {
		return domain.WrapError(domain.KindStorage, err, "failed to build zip archive")
	}
	if err := zw.Close(); err != nil {
		return domain.WrapError(domain.KindStorage, err, "failed to finalize zip archive")
	}
	return nil
}

// FilePath resolves a served-content path and verifies the file exists.
func (s *Store) FilePath(rel string) (string, error) {
	p, err := s.resolve(rel)
	if err != nil {
		return "", err
	}
	if info, err := os.Stat(p); err != nil || info.IsDir() {
		return "", domain.NotFoundf("file not found")
	}
	return p, nil
}
