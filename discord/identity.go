package discord

import (
	"fmt"
	"sort"
	"strconv"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// User is the raw payload of the current-user endpoint.
type User struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	Discriminator string `json:"discriminator"`
	Avatar        string `json:"avatar"`
	GlobalName    string `json:"global_name"`
}

// Guild is the raw payload of one entry of the current-user-guilds endpoint.
type Guild struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Icon        string `json:"icon"`
	Owner       bool   `json:"owner"`
	Permissions string `json:"permissions"`
}

// Identity is the derived view of a user profile: a display name with a
// fallback to the technical handle, and a CDN reference for the avatar.
type Identity struct {
	ID          string
	DisplayName string
	AvatarRef   string
}

// Membership is the derived view of one guild.
type Membership struct {
	ID      string
	Name    string
	IconRef string
}

// Identity derives the presentation identity from the raw profile.
// DisplayName prefers the human-friendly global name and falls back to the
// username. AvatarRef is the CDN path of the uploaded avatar, or a default
// avatar selector derived deterministically from the numeric user ID.
func (u *User) Identity() Identity {
	name := u.GlobalName
	if name == "" {
		name = u.Username
	}
	return Identity{
		ID:          u.ID,
		DisplayName: name,
		AvatarRef:   u.avatarRef(),
	}
}

// avatarRef returns the CDN path for the user's avatar. Users without an
// uploaded avatar get one of the stock avatars: index (id >> 22) % 6 on the
// current username system, discriminator % 5 for legacy discriminators.
func (u *User) avatarRef() string {
	if u.Avatar != "" {
		return fmt.Sprintf("avatars/%s/%s", u.ID, u.Avatar)
	}
	var index uint64
	if u.Discriminator == "" || u.Discriminator == "0" {
		id, err := strconv.ParseUint(u.ID, 10, 64)
		if err == nil {
			index = (id >> 22) % 6
		}
	} else {
		disc, err := strconv.ParseUint(u.Discriminator, 10, 64)
		if err == nil {
			index = disc % 5
		}
	}
	return fmt.Sprintf("embed/avatars/%d", index)
}

// Membership derives the presentation view of a guild.
func (g Guild) Membership() Membership {
	m := Membership{
		ID:   g.ID,
		Name: g.Name,
	}
	if g.Icon != "" {
		m.IconRef = fmt.Sprintf("icons/%s/%s", g.ID, g.Icon)
	}
	return m
}

// Memberships derives Membership views for a list of guilds, sorted by
// name ascending with a locale-aware, case-insensitive collation. The
// input slice is left unmodified; provider order carries no meaning.
func Memberships(guilds []Guild, tag language.Tag) []Membership {
	out := make([]Membership, len(guilds))
	for i, g := range guilds {
		out[i] = g.Membership()
	}
	c := collate.New(tag, collate.Loose)
	sort.SliceStable(out, func(i, j int) bool {
		return c.CompareString(out[i].Name, out[j].Name) < 0
	})
	return out
}
