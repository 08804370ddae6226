package theme

import (
	"strconv"
	"time"
)

// MaxThemesPerStore is the hard platform limit on themes per store.
// Creating a 21st theme fails remotely, so capacity is enforced locally
// before every duplicate.
const MaxThemesPerStore = 20

// Role is the platform-assigned role of a theme.
type Role string

const (
	RoleLive        Role = "live"
	RoleUnpublished Role = "unpublished"
	RoleDevelopment Role = "development"
)

// Theme is a remote theme as reported by the store.
type Theme struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Role       Role      `json:"role"`
	Processing bool      `json:"processing"`
	CreatedAt  time.Time `json:"created_at"`
}

// IsLive reports whether the theme is the one currently served to shoppers.
func (t Theme) IsLive() bool {
	return t.Role == RoleLive
}

// PreviewURL returns the storefront preview URL for a theme on the given store.
func PreviewURL(store string, id int64) string {
	return "https://" + store + "?preview_theme_id=" + formatID(id)
}

// EditorURL returns the admin theme editor URL for a theme on the given store.
func EditorURL(store string, id int64) string {
	return "https://" + store + "/admin/themes/" + formatID(id) + "/editor"
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
