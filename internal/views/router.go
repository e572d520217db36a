// Package views holds the section the site is showing. There is no URL routing
// and no history: one in-memory value, changed by Navigate.
package views

import (
	"strings"
	"sync"
)

// Section names a page of the site.
type Section string

const (
	Home       Section = "accueil"
	About      Section = "qui-sommes-nous"
	Ministries Section = "ministeres"
	Sermons    Section = "predications"
	Events     Section = "evenements"
	Blog       Section = "blog"
	Contact    Section = "contact"
	Admin      Section = "admin"
)

// MenuItem is one navigation entry.
type MenuItem struct {
	Section Section
	Label   string
}

var publicMenu = []MenuItem{
	{Home, "Accueil"},
	{About, "Qui sommes-nous"},
	{Ministries, "Ministères"},
	{Sermons, "Devenir disciple"},
	{Events, "Événements"},
	{Blog, "Blog"},
	{Contact, "Contact"},
}

var adminItem = MenuItem{Admin, "Admin"}

// ParseSection maps a section name to its Section. Unknown names fall back to Home.
func ParseSection(name string) Section {
	s := Section(strings.ToLower(strings.TrimSpace(name)))
	if s == Admin {
		return Admin
	}
	for _, item := range publicMenu {
		if item.Section == s {
			return s
		}
	}
	return Home
}

// AdminChecker is the session's fail-closed admin check.
type AdminChecker interface {
	IsAdmin() bool
}

// Ticket identifies a navigation state. A response carrying an outdated
// ticket belongs to a section the user already left.
type Ticket uint64

// Router is safe for concurrent use.
type Router struct {
	admin AdminChecker

	mu      sync.RWMutex
	current Section
	ticket  Ticket
}

// NewRouter starts on Home.
func NewRouter(admin AdminChecker) *Router {
	return &Router{admin: admin, current: Home}
}

func (r *Router) isAdmin() bool {
	return r.admin != nil && r.admin.IsAdmin()
}

// Navigate switches section and returns the one actually shown. Admin is only
// reachable while the session is admin; otherwise Home is shown.
func (r *Router) Navigate(s Section) Section {
	s = ParseSection(string(s))
	if s == Admin && !r.isAdmin() {
		s = Home
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if s != r.current {
		r.current = s
		r.ticket++
	}
	return s
}

// Sync leaves the admin section once the session is no longer admin.
func (r *Router) Sync() Section {
	r.mu.RLock()
	current := r.current
	r.mu.RUnlock()
	if current == Admin && !r.isAdmin() {
		return r.Navigate(Home)
	}
	return current
}

func (r *Router) Current() Section {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

// Ticket returns the current navigation ticket.
func (r *Router) Ticket() Ticket {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.ticket
}

// Valid reports whether no navigation happened since t was taken.
func (r *Router) Valid(t Ticket) bool {
	return r.Ticket() == t
}

// MenuItems lists the navigation, with Admin only for admins.
func (r *Router) MenuItems() []MenuItem {
	items := make([]MenuItem, len(publicMenu), len(publicMenu)+1)
	copy(items, publicMenu)
	if r.isAdmin() {
		items = append(items, adminItem)
	}
	return items
}
