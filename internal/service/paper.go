package service

import (
	"context"
	"io"

	"github.com/rs/zerolog/log"

	"github.com/paperdeck/paperdeck/internal/assets"
	"github.com/paperdeck/paperdeck/internal/domain"
)

// PaperService covers the non-streaming directory operations: listing,
// artifact browsing, saving edited markdown, deletion and zip export.
type PaperService struct {
	assets *assets.Store
	cache  DirectoryCache
}

// NewPaperService creates the paper service. cache may be nil.
func NewPaperService(store *assets.Store, cache DirectoryCache) *PaperService {
	return &PaperService{assets: store, cache: cache}
}

// ListDirectories returns the user's document directories, newest first.
func (s *PaperService) ListDirectories(ctx context.Context, username string) ([]domain.DirectoryInfo, error) {
	if err := assets.ValidateUsername(username); err != nil {
		return nil, err
	}

	if s.cache != nil {
		if dirs, err := s.cache.Get(ctx, username); err == nil && dirs != nil {
			return dirs, nil
		}
	}

	dirs, err := s.assets.ListDirectories(username)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, username, dirs); err != nil {
			log.Warn().Err(err).Str("username", username).Msg("failed to cache directory listing")
		}
	}
	return dirs, nil
}

// ListFiles returns the markdown artifacts and the source PDF of a directory.
// dirName carries the user prefix.
func (s *PaperService) ListFiles(ctx context.Context, username, dirName string) ([]string, string, error) {
	if err := assets.ValidateUsername(username); err != nil {
		return nil, "", err
	}
	return s.assets.ListFiles(username + "/" + dirName)
}

// SaveMarkdown overwrites one markdown artifact from the editor.
func (s *PaperService) SaveMarkdown(ctx context.Context, dirName, fileName, content string) error {
	return s.assets.SaveMarkdown(dirName, fileName, content)
}

// DeleteArtifact removes the one file matching the suffix and returns its name.
func (s *PaperService) DeleteArtifact(ctx context.Context, username, dirName, suffix string) (string, error) {
	if suffix == "" {
		return "", domain.Validationf("suffix is required")
	}
	return s.assets.DeleteBySuffix(username, dirName, suffix)
}

// DeleteDirectory removes a whole document directory.
func (s *PaperService) DeleteDirectory(ctx context.Context, username, dirName string) error {
	if err := s.assets.DeleteDirectory(username, dirName); err != nil {
		return err
	}
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, username); err != nil {
			log.Warn().Err(err).Str("username", username).Msg("failed to invalidate directory cache")
		}
	}
	return nil
}

// WriteArchive streams the directory as a zip archive.
func (s *PaperService) WriteArchive(ctx context.Context, username, dirName string, w io.Writer) error {
	return s.assets.WriteZip(username, dirName, w)
}

// ContentPath resolves a served-content path under the asset root.
func (s *PaperService) ContentPath(rel string) (string, error) {
	if err := assets.ValidateDirName(rel); err != nil {
		return "", err
	}
	return s.assets.FilePath(rel)
}
