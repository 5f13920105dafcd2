// Package account runs the sign-in, sign-up and profile flows on top of the
// api client and the local session store.
package account

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/harrisonrobin/steady/pkg/api"
	"github.com/harrisonrobin/steady/pkg/auth"
	"github.com/harrisonrobin/steady/pkg/model"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

var (
	// ErrProfileRequired means a first Google sign-in needs name, date of
	// birth and gender before the account can be created.
	ErrProfileRequired = errors.New("additional info required (name, dob, gender)")
	ErrNoToken         = errors.New("server did not return a session token")
	ErrNotSignedIn     = errors.New("not signed in")
	ErrCurrentPassword = errors.New("current password required")
)

// Remote is the account half of the api client.
type Remote interface {
	Login(ctx context.Context, email, password string) (*api.AuthResponse, error)
	Signup(ctx context.Context, req api.SignupRequest) (*api.AuthResponse, error)
	GoogleLogin(ctx context.Context, idToken string, extra *model.ProfileInfo) (*api.AuthResponse, error)
	Me(ctx context.Context) (*model.User, error)
	UpdateMe(ctx context.Context, upd api.ProfileUpdate) error
	ChangePassword(ctx context.Context, current, next, confirm string) error
	SetPassword(ctx context.Context, next, confirm string) error
}

// Session is where a signed-in credential is kept. *auth.SessionStore
// implements it.
type Session interface {
	Token() (*oauth2.Token, bool)
	User() *model.User
	Save(tok *oauth2.Token, user *model.User) error
	SetUser(user *model.User) error
	Clear() error
}

type Service struct {
	remote  Remote
	session Session
	log     *logrus.Entry
	now     func() time.Time
}

func NewService(remote Remote, session Session, log *logrus.Entry) *Service {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Service{
		remote:  remote,
		session: session,
		log:     log.WithField("component", "account"),
		now:     time.Now,
	}
}

func (s *Service) Login(ctx context.Context, email, password string) (*model.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrMissingFields
	}
	resp, err := s.remote.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	user := resp.User
	if user == nil {
		user = &model.User{Email: email}
	}
	return user, s.store(resp, user)
}

// Signup creates an account. The bool reports whether the server also
// signed the user in; otherwise Login is the next step.
func (s *Service) Signup(ctx context.Context, req api.SignupRequest) (*model.User, bool, error) {
	req.Email = strings.TrimSpace(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	if err := ValidateSignup(req, s.now()); err != nil {
		return nil, false, err
	}
	resp, err := s.remote.Signup(ctx, req)
	if err != nil {
		return nil, false, err
	}
	user := &model.User{
		Email:        req.Email,
		Name:         req.Name,
		Gender:       req.Gender,
		DOB:          req.DOB,
		AuthProvider: model.ProviderPassword,
	}
	if resp.User != nil {
		user = resp.User
	}
	if resp.BearerToken() == "" {
		return user, false, nil
	}
	return user, true, s.store(resp, user)
}

// GoogleLogin exchanges a Google ID token for a session. extra may be nil;
// ErrProfileRequired asks for it.
func (s *Service) GoogleLogin(ctx context.Context, idToken string, extra *model.ProfileInfo) (*model.User, error) {
	if extra != nil {
		if err := ValidateProfile(*extra, s.now()); err != nil {
			return nil, err
		}
	}
	resp, err := s.remote.GoogleLogin(ctx, idToken, extra)
	if err != nil {
		if needsProfile(err) {
			return nil, ErrProfileRequired
		}
		return nil, err
	}
	user := resp.User
	if user == nil {
		user = &model.User{AuthProvider: model.ProviderGoogle}
	}
	return user, s.store(resp, user)
}

func needsProfile(err error) bool {
	var apiErr *api.APIError
	return errors.As(err, &apiErr) &&
		apiErr.Status == http.StatusBadRequest &&
		strings.HasPrefix(strings.ToLower(apiErr.Message), "additional info required")
}

func (s *Service) store(resp *api.AuthResponse, user *model.User) error {
	raw := resp.BearerToken()
	if raw == "" {
		return ErrNoToken
	}
	if err := s.session.Save(auth.NewBearerToken(raw), user); err != nil {
		return err
	}
	s.log.WithField("email", user.Email).Info("signed in")
	return nil
}

func (s *Service) Logout() error {
	return s.session.Clear()
}

// SignedIn reports whether a usable credential is stored.
func (s *Service) SignedIn() bool {
	_, ok := s.session.Token()
	return ok
}

// Profile fetches the account record and refreshes the cached copy.
func (s *Service) Profile(ctx context.Context) (*model.User, error) {
	if !s.SignedIn() {
		return nil, ErrNotSignedIn
	}
	u, err := s.remote.Me(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.session.SetUser(u); err != nil {
		s.log.WithError(err).Warn("could not cache profile")
	}
	return u, nil
}

func (s *Service) UpdateName(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if err := ValidateName(name); err != nil {
		return err
	}
	if err := s.remote.UpdateMe(ctx, api.ProfileUpdate{Name: &name}); err != nil {
		return err
	}
	if u := s.session.User(); u != nil {
		u.Name = name
		if err := s.session.SetUser(u); err != nil {
			s.log.WithError(err).Warn("could not cache profile")
		}
	}
	return nil
}

// ChangePassword changes a password account's password, or gives a Google
// account its first one, in which case current is ignored.
func (s *Service) ChangePassword(ctx context.Context, current, next, confirm string) error {
	if err := ValidateNewPassword(next, confirm); err != nil {
		return err
	}
	u := s.session.User()
	if u == nil || u.AuthProvider == "" {
		var err error
		if u, err = s.Profile(ctx); err != nil {
			return err
		}
	}

	if u.AuthProvider == model.ProviderGoogle {
		if err := s.remote.SetPassword(ctx, next, confirm); err != nil {
			return err
		}
		u.AuthProvider = model.ProviderPassword
		if err := s.session.SetUser(u); err != nil {
			s.log.WithError(err).Warn("could not cache profile")
		}
		return nil
	}
	if current == "" {
		return ErrCurrentPassword
	}
	return s.remote.ChangePassword(ctx, current, next, confirm)
}
