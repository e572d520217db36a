package views

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

type adminFlag struct{ v atomic.Bool }

func (a *adminFlag) IsAdmin() bool { return a.v.Load() }

func TestParseSection(t *testing.T) {
	tests := map[string]Section{
		"accueil":         Home,
		"qui-sommes-nous": About,
		"ministeres":      Ministries,
		"predications":    Sermons,
		"evenements":      Events,
		"blog":            Blog,
		"contact":         Contact,
		"admin":           Admin,
		" Blog ":          Blog,
		"":                Home,
		"dons":            Home,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseSection(in), in)
	}
}

func TestNavigate_AdminGate(t *testing.T) {
	flag := &adminFlag{}
	r := NewRouter(flag)
	assert.Equal(t, Home, r.Current())

	assert.Equal(t, Home, r.Navigate(Admin))
	assert.Equal(t, Blog, r.Navigate(Blog))
	assert.Equal(t, Home, r.Navigate("nowhere"))

	flag.v.Store(true)
	assert.Equal(t, Admin, r.Navigate(Admin))

	flag.v.Store(false)
	assert.Equal(t, Home, r.Sync())
	assert.Equal(t, Home, r.Current())

	assert.Equal(t, Home, NewRouter(nil).Navigate(Admin))
}

func TestTickets(t *testing.T) {
	r := NewRouter(nil)
	ticket := r.Ticket()
	assert.True(t, r.Valid(ticket))

	r.Navigate(Home)
	assert.True(t, r.Valid(ticket), "staying on the same section keeps the ticket")

	r.Navigate(Blog)
	assert.False(t, r.Valid(ticket))
	assert.True(t, r.Valid(r.Ticket()))
}

func TestMenuItems(t *testing.T) {
	flag := &adminFlag{}
	r := NewRouter(flag)

	items := r.MenuItems()
	assert.Len(t, items, 7)
	for _, it := range items {
		assert.NotEqual(t, Admin, it.Section)
	}

	flag.v.Store(true)
	items = r.MenuItems()
	assert.Len(t, items, 8)
	assert.Equal(t, Admin, items[7].Section)

	items[0].Label = "changed"
	assert.Equal(t, "Accueil", r.MenuItems()[0].Label)
}

func TestConcurrentNavigation(t *testing.T) {
	r := NewRouter(nil)
	var wg sync.WaitGroup
	for _, s := range []Section{Home, About, Blog, Contact, Events} {
		wg.Add(1)
		go func(s Section) {
			defer wg.Done()
			for range 100 {
				r.Navigate(s)
				_ = r.Valid(r.Ticket())
			}
		}(s)
	}
	wg.Wait()
	assert.Contains(t, []Section{Home, About, Blog, Contact, Events}, r.Current())
}
