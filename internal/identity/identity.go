// Package identity resolves the current actor and the users that reports can be assigned to.
package identity

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aegiswhistle/aegis/pkg/models"
	"gopkg.in/yaml.v3"
)

// Directory is the set of known users, in file order.
type Directory struct {
	Users []models.User `yaml:"users"`
}

// Session carries the authenticated actor for one request or CLI invocation. Actor is nil when
// nobody is signed in.
type Session struct {
	Actor *models.User
}

// Anonymous is a session with no actor.
var Anonymous = Session{}

// Path returns the user directory file: <home>/users.yaml.
func Path(home string) string {
	return filepath.Join(home, "users.yaml")
}

// Demo returns the built-in directory used when no users.yaml exists.
func Demo() *Directory {
	return &Directory{Users: []models.User{
		{ID: "ethics-1", Name: "Emma Johnson", Email: "emma.johnson@aegis.example", Role: models.RoleEthicsOfficer},
		{ID: "inv-1", Name: "David Lee", Email: "david.lee@aegis.example", Role: models.RoleInvestigator},
		{ID: "inv-2", Name: "Jennifer Martinez", Email: "jennifer.martinez@aegis.example", Role: models.RoleInvestigator},
		{ID: "inv-3", Name: "Michael Chen", Email: "michael.chen@aegis.example", Role: models.RoleInvestigator},
		{ID: "admin-1", Name: "Admin User", Email: "admin@aegis.example", Role: models.RoleAdmin},
	}}
}

// Load reads <home>/users.yaml. A missing file yields the demo directory.
func Load(home string) (*Directory, error) {
	data, err := os.ReadFile(Path(home))
	if err != nil {
		if os.IsNotExist(err) {
			return Demo(), nil
		}
		return nil, err
	}
	var d Directory
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parse %s: %w", Path(home), err)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

// Save writes the directory to <home>/users.yaml.
func Save(home string, d *Directory) error {
	if err := os.MkdirAll(home, 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(d)
	if err != nil {
		return err
	}
	return os.WriteFile(Path(home), data, 0o644)
}

// Validate requires unique non-empty ids and known roles.
func (d *Directory) Validate() error {
	seen := make(map[string]bool, len(d.Users))
	for _, u := range d.Users {
		if strings.TrimSpace(u.ID) == "" {
			return fmt.Errorf("user %q has no id", u.Name)
		}
		if seen[u.ID] {
			return fmt.Errorf("duplicate user id %q", u.ID)
		}
		seen[u.ID] = true
		switch u.Role {
		case models.RoleEthicsOfficer, models.RoleInvestigator, models.RoleAdmin:
		default:
			return fmt.Errorf("user %s: unknown role %q", u.ID, u.Role)
		}
	}
	return nil
}

// Lookup returns the user with id, or nil.
func (d *Directory) Lookup(id string) *models.User {
	if d == nil {
		return nil
	}
	for i := range d.Users {
		if d.Users[i].ID == id {
			u := d.Users[i]
			return &u
		}
	}
	return nil
}

// ByName returns the first user whose display name matches exactly, or nil.
func (d *Directory) ByName(name string) *models.User {
	if d == nil {
		return nil
	}
	for i := range d.Users {
		if d.Users[i].Name == name {
			u := d.Users[i]
			return &u
		}
	}
	return nil
}

// Resolve looks a reference up by id first, then by display name.
func (d *Directory) Resolve(ref string) *models.User {
	if u := d.Lookup(ref); u != nil {
		return u
	}
	return d.ByName(ref)
}

// Investigators lists the users reports can be assigned to.
func (d *Directory) Investigators() []models.User {
	out := make([]models.User, 0)
	if d == nil {
		return out
	}
	for _, u := range d.Users {
		if u.Role == models.RoleInvestigator {
			out = append(out, u)
		}
	}
	return out
}

// SessionFor returns the session for the user id (Anonymous when id is unknown or empty).
func (d *Directory) SessionFor(id string) Session {
	if id == "" {
		return Anonymous
	}
	return Session{Actor: d.Lookup(id)}
}
