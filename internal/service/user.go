package service

import (
	"bufio"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/paperdeck/paperdeck/internal/assets"
	"github.com/paperdeck/paperdeck/internal/domain"
)

// AllowList is the set of usernames permitted to use the service, read from a
// plain text file with one name per line. A missing file means nobody is
// allowed.
type AllowList struct {
	path string

	mu    sync.RWMutex
	users map[string]struct{}
}

// NewAllowList loads the allow-list file at path.
func NewAllowList(path string) *AllowList {
	al := &AllowList{path: path}
	al.Reload()
	return al
}

// Reload re-reads the allow-list file.
func (a *AllowList) Reload() {
	users := make(map[string]struct{})

	f, err := os.Open(a.path)
	if err != nil {
		log.Warn().Err(err).Str("path", a.path).Msg("allow-list file not readable")
	} else {
		defer f.Close()
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			name := strings.TrimSpace(scanner.Text())
			if name == "" || strings.HasPrefix(name, "#") {
				continue
			}
			users[name] = struct{}{}
		}
	}

	a.mu.Lock()
	a.users = users
	a.mu.Unlock()
}

// Contains reports whether the username is on the list.
func (a *AllowList) Contains(username string) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	_, ok := a.users[username]
	return ok
}

// UserService answers existence checks and creates user directories, both
// gated on the allow-list.
type UserService struct {
	assets    *assets.Store
	allowList *AllowList
}

// NewUserService creates the user service.
func NewUserService(store *assets.Store, allowList *AllowList) *UserService {
	return &UserService{assets: store, allowList: allowList}
}

// EnsureAllowed validates the username and checks it against the allow-list.
func (s *UserService) EnsureAllowed(username string) error {
	if err := assets.ValidateUsername(username); err != nil {
		return err
	}
	if !s.allowList.Contains(username) {
		return domain.Unauthorizedf("user is not allowed: %s", username)
	}
	return nil
}

// Check reports whether the allowed user's directory already exists.
func (s *UserService) Check(username string) (bool, error) {
	if err := s.EnsureAllowed(username); err != nil {
		return false, err
	}
	return s.assets.UserExists(username), nil
}

// Create makes the allowed user's directory.
func (s *UserService) Create(username string) error {
	if err := s.EnsureAllowed(username); err != nil {
		return err
	}
	return s.assets.CreateUser(username)
}
