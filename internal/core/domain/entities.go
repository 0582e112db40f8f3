package domain

import (
	"time"
)

// Localized holds one text per language tag ("en", "es", "eu", ...).
type Localized map[string]string

// Get returns the text for lang, falling back to English and then to any
// available translation.
func (l Localized) Get(lang string) string {
	if v, ok := l[lang]; ok && v != "" {
		return v
	}
	if v, ok := l["en"]; ok && v != "" {
		return v
	}
	for _, v := range l {
		if v != "" {
			return v
		}
	}
	return ""
}

// City groups crags under a home city (e.g. Bilbao, Madrid).
type City struct {
	ID        string    `json:"id"`
	Slug      string    `json:"slug"`
	Name      Localized `json:"name"`
	Country   string    `json:"country"`
	Location  GeoPoint  `json:"location"`
	CreatedAt time.Time `json:"created_at"`
}

// Crag is an outdoor bouldering area.
type Crag struct {
	ID              string    `json:"id"`
	Slug            string    `json:"slug"`
	CityID          string    `json:"city_id"`
	Name            Localized `json:"name"`
	Description     Localized `json:"description,omitempty"`
	Location        GeoPoint  `json:"location"`
	ApproachMinutes int       `json:"approach_minutes"`
	Photo           *Photo    `json:"photo,omitempty"`
	Distance        *float64  `json:"distance,omitempty"` // computed field
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Route is a single boulder problem at a crag.
type Route struct {
	ID          string    `json:"id"`
	CragID      string    `json:"crag_id"`
	Slug        string    `json:"slug"`
	Name        string    `json:"name"`
	Grade       string    `json:"grade"`
	Description Localized `json:"description,omitempty"`
	Photo       *Photo    `json:"photo,omitempty"`
	TopoLine    TopoLine  `json:"topo_line,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Role is a flat permission level.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleEditor Role = "editor"
	RoleUser   Role = "user"
)

// Permission names an action guarded by RBAC.
type Permission string

const (
	PermCragWrite  Permission = "crag:write"
	PermRouteWrite Permission = "route:write"
	PermTopoWrite  Permission = "topo:write"
	PermRouteAdmin Permission = "route:delete"
	PermUserManage Permission = "user:manage"
)

// User is an authenticated account.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// TopoEvent is published when a route's topo line changes.
type TopoEvent struct {
	CragID   string    `json:"crag_id"`
	RouteID  string    `json:"route_id"`
	TopoLine TopoLine  `json:"topo_line"`
	Time     time.Time `json:"time"`
}

// OfflineBundle is the snapshot a client caches to browse a crag without signal.
type OfflineBundle struct {
	Crag        *Crag     `json:"crag"`
	Routes      []Route   `json:"routes"`
	Assets      []string  `json:"assets"`
	Version     string    `json:"version"`
	GeneratedAt time.Time `json:"generated_at"`
}
