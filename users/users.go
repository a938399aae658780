package users

import (
	"sort"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Profile is the record returned by GET /users/me.
type Profile struct {
	ID        int       `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Role      Role      `json:"role"`
	IsActive  bool      `json:"is_active"`
	Region    string    `json:"region,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Identity is a demo account: its profile and the plain password it logs in with.
type Identity struct {
	Profile  Profile
	Password string
}

// Directory is a read-only set of identities keyed by lower-cased email.
type Directory struct {
	byEmail map[string]Identity
}

func NewDirectory(identities ...Identity) *Directory {
	d := &Directory{byEmail: make(map[string]Identity, len(identities))}
	for _, id := range identities {
		d.byEmail[strings.ToLower(id.Profile.Email)] = id
	}
	return d
}

// Lookup finds an identity by email, ignoring case.
func (d *Directory) Lookup(email string) (Identity, bool) {
	id, ok := d.byEmail[strings.ToLower(strings.TrimSpace(email))]
	return id, ok
}

// LookupExact finds an identity only when email matches its lower-cased
// address exactly, with no case folding or trimming.
func (d *Directory) LookupExact(email string) (Identity, bool) {
	id, ok := d.byEmail[email]
	return id, ok
}

// All returns every identity ordered by profile id.
func (d *Directory) All() []Identity {
	all := make([]Identity, 0, len(d.byEmail))
	for _, id := range d.byEmail {
		all = append(all, id)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Profile.ID < all[j].Profile.ID })
	return all
}

var demoCreatedAt = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

var demoDirectory = NewDirectory(
	Identity{Password: "minister123", Profile: Profile{ID: 1, Email: "minister@maji.go.tz", FullName: "Hon. Jumanne Sagini", Role: RoleMinister, IsActive: true, Region: "National", CreatedAt: demoCreatedAt}},
	Identity{Password: "ceo123", Profile: Profile{ID: 2, Email: "ceo@dawasa.go.tz", FullName: "Eng. Cyprian Luhemeja", Role: RoleCEO, IsActive: true, Region: "Dar es Salaam", CreatedAt: demoCreatedAt}},
	Identity{Password: "manager123", Profile: Profile{ID: 3, Email: "manager@dawasa.go.tz", FullName: "Amina Mwakasole", Role: RoleManager, IsActive: true, Region: "Dar es Salaam", CreatedAt: demoCreatedAt}},
	Identity{Password: "operator123", Profile: Profile{ID: 4, Email: "operator@dawasa.go.tz", FullName: "John Kihamba", Role: RoleOperator, IsActive: true, Region: "Dar es Salaam", CreatedAt: demoCreatedAt}},
	Identity{Password: "analyst123", Profile: Profile{ID: 5, Email: "analyst@maji.go.tz", FullName: "Fatuma Nassoro", Role: RoleAnalyst, IsActive: true, Region: "National", CreatedAt: demoCreatedAt}},
	Identity{Password: "public123", Profile: Profile{ID: 6, Email: "public@example.com", FullName: "Mwananchi User", Role: RolePublic, IsActive: true, CreatedAt: demoCreatedAt}},
)

// DemoDirectory returns the fixed demo accounts, one per role.
func DemoDirectory() *Directory {
	return demoDirectory
}

func HashPassword(password string) (string, error) {
	return HashPasswordCost(password, bcrypt.DefaultCost)
}

// HashPasswordCost hashes with an explicit bcrypt cost; tests use bcrypt.MinCost.
func HashPasswordCost(password string, cost int) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
