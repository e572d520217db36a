// Package session holds the signed-in identity and its profile for the client.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"chapel/internal/backend"
	"chapel/internal/models"

	"golang.org/x/sync/errgroup"
)

// ErrNotSignedIn is returned by operations that need an identity.
var ErrNotSignedIn = errors.New("not signed in")

const defaultLoadTimeout = 15 * time.Second

// AuthAPI is the part of the backend client the store drives.
type AuthAPI interface {
	SignIn(ctx context.Context, email, password string) (*backend.Session, error)
	SignUp(ctx context.Context, email, password, fullName string) (*backend.Session, error)
	SignOut(ctx context.Context) error
	SetToken(token string)
	CurrentUser(ctx context.Context) (*backend.User, *models.Profile, error)
	MyProfile(ctx context.Context) (*models.Profile, error)
	ListProfiles(ctx context.Context) ([]models.Profile, error)
}

// State is a read-only copy of the session.
type State struct {
	User    *backend.User
	Profile *models.Profile
	Token   string
	// Verified is set once a privileged read succeeded for this identity.
	Verified bool
	Loading  bool
}

// SignedIn reports whether an identity is present.
func (s State) SignedIn() bool { return s.User != nil }

// IsAdmin is false until the profile is loaded and the privileged read succeeded.
func (s State) IsAdmin() bool {
	return !s.Loading && s.Verified && s.Profile.IsAdmin()
}

// DisplayName is the profile's display name, else the identity email.
func (s State) DisplayName() string {
	if s.Profile != nil {
		return s.Profile.DisplayName()
	}
	if s.User != nil {
		return s.User.Email
	}
	return ""
}

func (s State) clone() State {
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	if s.Profile != nil {
		p := *s.Profile
		s.Profile = &p
	}
	return s
}

// Store is the single writer of session state. Observers read copies.
type Store struct {
	api         AuthAPI
	logger      *slog.Logger
	loadTimeout time.Duration

	mu      sync.RWMutex
	state   State
	gen     uint64
	loaded  chan struct{}
	subs    map[int]func(State)
	nextSub int

	wg sync.WaitGroup
}

// Option configures a Store.
type Option func(*Store)

func WithLogger(l *slog.Logger) Option { return func(s *Store) { s.logger = l } }

// WithLoadTimeout bounds the background profile load.
func WithLoadTimeout(d time.Duration) Option { return func(s *Store) { s.loadTimeout = d } }

// New creates a signed-out store.
func New(api AuthAPI, opts ...Option) *Store {
	s := &Store{
		api:         api,
		logger:      slog.Default(),
		loadTimeout: defaultLoadTimeout,
		loaded:      closedChan(),
		subs:        map[int]func(State){},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func closedChan() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

// SignIn authenticates and starts the background profile load.
// On failure the current state is left as it was.
func (s *Store) SignIn(ctx context.Context, email, password string) error {
	sess, err := s.api.SignIn(ctx, email, password)
	if err != nil {
		return err
	}
	s.begin(&sess.User, sess.AccessToken)
	return nil
}

// SignUp registers an account (role user) and signs it in.
func (s *Store) SignUp(ctx context.Context, email, password, displayName string) error {
	sess, err := s.api.SignUp(ctx, email, password, displayName)
	if err != nil {
		return err
	}
	s.begin(&sess.User, sess.AccessToken)
	return nil
}

// Restore resumes a session from a stored access token.
func (s *Store) Restore(ctx context.Context, token string) error {
	s.api.SetToken(token)
	user, _, err := s.api.CurrentUser(ctx)
	if err != nil {
		s.api.SetToken("")
		return err
	}
	s.begin(user, token)
	return nil
}

// SignOut clears the session. The remote revoke is best-effort.
func (s *Store) SignOut(ctx context.Context) {
	if err := s.api.SignOut(ctx); err != nil {
		s.logger.WarnContext(ctx, "remote sign-out failed", slog.String("error", err.Error()))
	}
	s.mu.Lock()
	s.gen++
	s.state = State{}
	s.loaded = closedChan()
	snap := s.state.clone()
	s.mu.Unlock()
	s.notify(snap)
}

// Refresh reloads the profile and re-verifies admin capability synchronously.
func (s *Store) Refresh(ctx context.Context) error {
	s.mu.Lock()
	if s.state.User == nil {
		s.mu.Unlock()
		return ErrNotSignedIn
	}
	s.gen++
	gen := s.gen
	s.state.Loading = true
	done := make(chan struct{})
	s.loaded = done
	s.mu.Unlock()

	return s.load(ctx, gen, done)
}

func (s *Store) begin(user *backend.User, token string) {
	u := *user
	done := make(chan struct{})

	s.mu.Lock()
	s.gen++
	gen := s.gen
	s.state = State{User: &u, Token: token, Loading: true}
	s.loaded = done
	snap := s.state.clone()
	s.mu.Unlock()
	s.notify(snap)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.loadTimeout)
		defer cancel()
		if err := s.load(ctx, gen, done); err != nil {
			s.logger.Warn("profile load failed", slog.String("user_id", u.ID), slog.String("error", err.Error()))
		}
	}()
}

// load fetches the profile and runs the privileged read concurrently.
// Results from a superseded generation are dropped.
func (s *Store) load(ctx context.Context, gen uint64, done chan struct{}) error {
	defer close(done)

	var (
		profile  *models.Profile
		verified bool
		g        errgroup.Group
	)
	g.Go(func() error {
		p, err := s.api.MyProfile(ctx)
		if err != nil {
			return err
		}
		profile = p
		return nil
	})
	g.Go(func() error {
		_, err := s.api.ListProfiles(ctx)
		verified = err == nil
		if err != nil && !backend.IsForbidden(err) {
			s.logger.DebugContext(ctx, "privileged read failed", slog.String("error", err.Error()))
		}
		return nil
	})
	err := g.Wait()

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return nil
	}
	s.state.Loading = false
	if err == nil {
		s.state.Profile = profile
		s.state.Verified = verified && profile.IsAdmin()
	} else {
		s.state.Verified = false
	}
	snap := s.state.clone()
	s.mu.Unlock()
	s.notify(snap)
	return err
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.clone()
}

// IsAdmin is the fail-closed admin check.
func (s *Store) IsAdmin() bool { return s.Snapshot().IsAdmin() }

// Loaded is closed once the in-flight profile load has finished.
func (s *Store) Loaded() <-chan struct{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Subscribe registers fn for every state change and returns its unsubscribe func.
// fn runs on the goroutine that made the change and must not block.
func (s *Store) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

// Wait blocks until background loads have returned.
func (s *Store) Wait() { s.wg.Wait() }

func (s *Store) notify(st State) {
	s.mu.RLock()
	fns := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.RUnlock()
	for _, fn := range fns {
		fn(st.clone())
	}
}
