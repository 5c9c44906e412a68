// package models defines the data model for the flix movie catalog client
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Year is a birth or death year. The API sends either a number, a string or null.
type Year string

// UnmarshalJSON accepts numeric, string and null years.
func (y *Year) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*y = ""
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*y = Year(strings.TrimSpace(s))
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid year %s: %w", data, err)
	}
	if i, err := n.Int64(); err == nil {
		*y = Year(strconv.FormatInt(i, 10))
		return nil
	}
	*y = Year(n.String())
	return nil
}

// MarshalJSON writes an unknown year as null.
func (y Year) MarshalJSON() ([]byte, error) {
	if y == "" {
		return []byte("null"), nil
	}
	return json.Marshal(string(y))
}

// Director describes the director embedded in a [Movie].
type Director struct {
	Name  string `json:"Name"`
	Bio   string `json:"Bio"`
	Birth Year   `json:"Birth"`
	Death Year   `json:"Death"`
}

// Genre describes the genre embedded in a [Movie].
type Genre struct {
	Name        string `json:"Name"`
	Description string `json:"Description"`
}

// Movie is a read-only catalog entry.
type Movie struct {
	ID          string   `json:"_id"`
	Title       string   `json:"Title"`
	Description string   `json:"Description"`
	ImagePath   string   `json:"ImagePath"`
	Director    Director `json:"Director"`
	Genre       Genre    `json:"Genre"`
	Featured    bool     `json:"Featured"`
}

// User is the server-authoritative account record.
type User struct {
	ID             string   `json:"_id"`
	Username       string   `json:"Username"`
	Email          string   `json:"Email"`
	Birthday       string   `json:"Birthday,omitempty"`
	FavoriteMovies []string `json:"FavoriteMovies"`
}

// Clone returns a copy of u that shares no memory with it.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	c.FavoriteMovies = append([]string(nil), u.FavoriteMovies...)
	return &c
}

// HasFavorite reports whether id is one of the user's favorite movie identifiers.
func (u *User) HasFavorite(id string) bool {
	if u == nil {
		return false
	}
	for _, fav := range u.FavoriteMovies {
		if fav == id {
			return true
		}
	}
	return false
}

// Registration is the request body for creating an account.
type Registration struct {
	Username string `json:"Username"`
	Password string `json:"Password"`
	Email    string `json:"Email"`
	Birthday string `json:"Birthday,omitempty"`
}

// Validate checks the fields the API requires.
func (r Registration) Validate() error {
	switch {
	case strings.TrimSpace(r.Username) == "":
		return fmt.Errorf("username is required")
	case r.Password == "":
		return fmt.Errorf("password is required")
	case !strings.Contains(r.Email, "@"):
		return fmt.Errorf("email %q is not valid", r.Email)
	}
	return nil
}

// UserUpdate is the request body for a profile edit. Empty fields are left unchanged.
type UserUpdate struct {
	Username string `json:"Username,omitempty"`
	Password string `json:"Password,omitempty"`
	Email    string `json:"Email,omitempty"`
	Birthday string `json:"Birthday,omitempty"`
}

// IsEmpty reports whether the update would change nothing.
func (u UserUpdate) IsEmpty() bool {
	return u == UserUpdate{}
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

// Session is the locally persisted credential for the signed-in profile.
type Session struct {
	ID        string
	Username  string
	Token     string
	CreatedAt time.Time
	ExpiresAt *time.Time
}

// Expired reports whether the session carries a known expiry that has passed.
func (s *Session) Expired(now time.Time) bool {
	return s != nil && s.ExpiresAt != nil && !now.Before(*s.ExpiresAt)
}

// Favorites is the materialized favorites list.
//
// Every entry corresponds to an identifier in the source user's FavoriteMovies, in the same order.
// Identifiers without a catalog match are counted in Dropped.
type Favorites struct {
	Movies  []Movie  `json:"movies"`
	Dropped int      `json:"dropped"`
	Missing []string `json:"missing,omitempty"`
}

// IDs returns the identifiers of the materialized movies in order.
func (f Favorites) IDs() []string {
	ids := make([]string, len(f.Movies))
	for i, m := range f.Movies {
		ids[i] = m.ID
	}
	return ids
}

// Contains reports whether a movie with id is in the list.
func (f Favorites) Contains(id string) bool {
	for _, m := range f.Movies {
		if m.ID == id {
			return true
		}
	}
	return false
}

// Clone returns a copy of f that shares no memory with it.
func (f Favorites) Clone() Favorites {
	return Favorites{
		Movies:  append([]Movie(nil), f.Movies...),
		Dropped: f.Dropped,
		Missing: append([]string(nil), f.Missing...),
	}
}

// Materialize joins favoriteIDs against catalog.
//
// Each identifier maps to the first catalog entry with that ID; identifiers with no match are dropped and recorded.
// Duplicate identifiers are kept as the server sent them.
func Materialize(favoriteIDs []string, catalog []Movie) Favorites {
	index := make(map[string]int, len(catalog))
	for i, m := range catalog {
		if _, seen := index[m.ID]; !seen {
			index[m.ID] = i
		}
	}

	fav := Favorites{Movies: make([]Movie, 0, len(favoriteIDs))}
	for _, id := range favoriteIDs {
		i, ok := index[id]
		if !ok {
			fav.Dropped++
			fav.Missing = append(fav.Missing, id)
			continue
		}
		fav.Movies = append(fav.Movies, catalog[i])
	}
	return fav
}
