package devapi

import (
	"strings"
	"sync"
	"time"

	apperrors "github.com/jrsteele09/water-dashboard/internal/errors"
	"github.com/jrsteele09/water-dashboard/users"
)

type account struct {
	profile      users.Profile
	passwordHash string
}

// accountStore holds the backend's users with bcrypt password hashes.
type accountStore struct {
	lock    sync.RWMutex
	byEmail map[string]*account
	byID    map[int]*account
	nextID  int
	cost    int
}

func newAccountStore(dir *users.Directory, cost int) (*accountStore, error) {
	s := &accountStore{
		byEmail: make(map[string]*account),
		byID:    make(map[int]*account),
		nextID:  1,
		cost:    cost,
	}
	for _, identity := range dir.All() {
		hash, err := users.HashPasswordCost(identity.Password, cost)
		if err != nil {
			return nil, apperrors.Wrapf(err, "hashing password for %s", identity.Profile.Email)
		}
		s.put(&account{profile: identity.Profile, passwordHash: hash})
	}
	return s, nil
}

func (s *accountStore) put(a *account) {
	s.byEmail[strings.ToLower(a.profile.Email)] = a
	s.byID[a.profile.ID] = a
	if a.profile.ID >= s.nextID {
		s.nextID = a.profile.ID + 1
	}
}

// authenticate checks credentials. Unknown email and wrong password are the
// same failure.
func (s *accountStore) authenticate(email, password string) (users.Profile, error) {
	s.lock.RLock()
	var profile users.Profile
	var hash string
	a, ok := s.byEmail[strings.ToLower(strings.TrimSpace(email))]
	if ok {
		profile, hash = a.profile, a.passwordHash
	}
	s.lock.RUnlock()
	if !ok || !users.CheckPasswordHash(password, hash) {
		return users.Profile{}, apperrors.ErrInvalidCredential
	}
	return profile, nil
}

func (s *accountStore) get(id int) (users.Profile, bool) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	a, ok := s.byID[id]
	if !ok {
		return users.Profile{}, false
	}
	return a.profile, true
}

var errEmailTaken = apperrors.Wrapf(apperrors.ErrBadRequest, "email already registered")

// register adds a public account.
func (s *accountStore) register(email, fullName, password, region string, now time.Time) (users.Profile, error) {
	hash, err := users.HashPasswordCost(password, s.cost)
	if err != nil {
		return users.Profile{}, err
	}

	s.lock.Lock()
	defer s.lock.Unlock()
	key := strings.ToLower(strings.TrimSpace(email))
	if _, exists := s.byEmail[key]; exists {
		return users.Profile{}, errEmailTaken
	}
	p := users.Profile{
		ID:        s.nextID,
		Email:     key,
		FullName:  fullName,
		Role:      users.RolePublic,
		IsActive:  true,
		Region:    region,
		CreatedAt: now.UTC(),
	}
	s.put(&account{profile: p, passwordHash: hash})
	return p, nil
}

// setActive flips an account's active flag. It reports false for unknown ids.
func (s *accountStore) setActive(id int, active bool) bool {
	s.lock.Lock()
	defer s.lock.Unlock()
	a, ok := s.byID[id]
	if ok {
		a.profile.IsActive = active
	}
	return ok
}
