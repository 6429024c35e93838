package cli

import (
	"log/slog"

	"github.com/roach88/errant/internal/boards"
	"github.com/roach88/errant/internal/config"
	"github.com/roach88/errant/internal/engine"
	"github.com/roach88/errant/internal/extract"
	"github.com/roach88/errant/internal/hosting"
	"github.com/roach88/errant/internal/store"
)

// Session holds the lazily-constructed collaborators of one command
// invocation. Each accessor connects at most once; commands that never touch
// a collaborator never pay for it (list-works doesn't read the secrets file).
type Session struct {
	opts *RootOptions

	cfg      *config.Config
	store    *store.Store
	host     hosting.Host
	provider boards.Provider
	registry *extract.Registry
}

// NewSession creates a session over the global flags.
func NewSession(opts *RootOptions) *Session {
	return &Session{opts: opts}
}

// Close releases everything the session opened.
func (s *Session) Close() {
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			slog.Error("error closing database", "error", err)
		}
	}
}

// Config loads and validates the secrets file on first use.
func (s *Session) Config() (*config.Config, error) {
	if s.cfg != nil {
		return s.cfg, nil
	}
	cfg, err := config.Load(s.opts.Secrets)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "load secrets", err)
	}
	s.cfg = cfg
	return cfg, nil
}

// Store opens the database on first use.
func (s *Session) Store() (*store.Store, error) {
	if s.store != nil {
		return s.store, nil
	}
	st, err := store.Open(s.opts.Database)
	if err != nil {
		return nil, WrapExitError(ExitFailure, "open database", err)
	}
	s.store = st
	return st, nil
}

// Host returns the image host client. Construction is cheap; the client
// authenticates on its first call.
func (s *Session) Host() (hosting.Host, error) {
	if s.host != nil {
		return s.host, nil
	}
	cfg, err := s.Config()
	if err != nil {
		return nil, err
	}
	s.host = hosting.NewImgur(hosting.ImgurCredentials{
		ClientID:     cfg.Imgur.ClientID,
		ClientSecret: cfg.Imgur.ClientSecret,
		RefreshToken: cfg.Imgur.RefreshToken,
	})
	return s.host, nil
}

// Boards returns the board provider client. Construction is cheap; the
// client authenticates on its first call.
func (s *Session) Boards() (boards.Provider, error) {
	if s.provider != nil {
		return s.provider, nil
	}
	cfg, err := s.Config()
	if err != nil {
		return nil, err
	}
	s.provider = boards.NewReddit(boards.RedditCredentials{
		ClientID:     cfg.Reddit.ClientID,
		ClientSecret: cfg.Reddit.ClientSecret,
		Username:     cfg.Reddit.Username,
		Password:     cfg.Reddit.Password,
		UserAgent:    cfg.Reddit.UserAgent,
	})
	return s.provider, nil
}

// Engine assembles the posting engine over the session's collaborators.
func (s *Session) Engine() (*engine.Engine, error) {
	st, err := s.Store()
	if err != nil {
		return nil, err
	}
	host, err := s.Host()
	if err != nil {
		return nil, err
	}
	provider, err := s.Boards()
	if err != nil {
		return nil, err
	}
	return engine.New(st, host, provider), nil
}

// Extractors returns the source-site extractor registry.
func (s *Session) Extractors() *extract.Registry {
	if s.registry == nil {
		s.registry = extract.NewRegistry(
			extract.NewArtStation(),
			extract.NewDirectImage(),
		)
	}
	return s.registry
}
