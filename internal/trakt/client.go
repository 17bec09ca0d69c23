package trakt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tsync/internal/models"
	"github.com/desertthunder/tsync/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	defaultAPIURL = "https://api.trakt.tv"
	authorizeURL  = "https://trakt.tv/oauth/authorize"
	apiVersion    = "2"

	// batchSize caps items per sync call so payloads stay well under API limits.
	batchSize = 100
)

// Client defines the remote sync operations the engine depends on.
//
// Fetch operations return immutable snapshots taken once per run; submit operations
// return one [SyncResponse] per dispatched chunk.
type Client interface {
	WatchedMovies(ctx context.Context, user *models.SyncUser) ([]WatchedMovie, error)
	CollectedMovies(ctx context.Context, user *models.SyncUser) ([]CollectedMovie, error)
	WatchedShows(ctx context.Context, user *models.SyncUser) ([]WatchedShow, error)
	CollectedShows(ctx context.Context, user *models.SyncUser) ([]CollectedShow, error)
	AddToCollection(ctx context.Context, user *models.SyncUser, items SyncItems) ([]SyncResponse, error)
	RemoveFromCollection(ctx context.Context, user *models.SyncUser, items SyncItems) ([]SyncResponse, error)
	AddToHistory(ctx context.Context, user *models.SyncUser, items SyncItems) ([]SyncResponse, error)
	RemoveFromHistory(ctx context.Context, user *models.SyncUser, items SyncItems) ([]SyncResponse, error)
}

// HTTPClient implements [Client] against the Trakt REST API.
//
// Requests are rate limited to one per second per API etiquette. Tokens are
// per-user and passed on each call rather than held by the client.
type HTTPClient struct {
	baseURL    string
	clientID   string
	oauth      *oauth2.Config
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *log.Logger
}

// New creates a Trakt client from application credentials.
func New(cfg shared.TraktConfig, logger *log.Logger) (*HTTPClient, error) {
	if cfg.ClientID == "" {
		return nil, fmt.Errorf("%w: trakt client_id must be set", shared.ErrInvalidConfig)
	}

	baseURL := cfg.APIURL
	if baseURL == "" {
		baseURL = defaultAPIURL
	}

	redirectURI := cfg.RedirectURI
	if redirectURI == "" {
		redirectURI = "http://localhost:3000/callback"
	}

	oauthConfig := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  redirectURI,
		Endpoint: oauth2.Endpoint{
			AuthURL:  authorizeURL,
			TokenURL: baseURL + "/oauth/token",
		},
	}

	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	return &HTTPClient{
		baseURL:    baseURL,
		clientID:   cfg.ClientID,
		oauth:      oauthConfig,
		httpClient: http.DefaultClient,
		limiter:    rate.NewLimiter(rate.Every(time.Second), 1),
		logger:     logger,
	}, nil
}

// OAuthConfig returns the OAuth2 config for the authorization-code flow.
func (c *HTTPClient) OAuthConfig() *oauth2.Config {
	return c.oauth
}

// AuthURL returns the authorization URL for user login.
func (c *HTTPClient) AuthURL(state string) string {
	return c.oauth.AuthCodeURL(state)
}

// do performs an authenticated request against the Trakt API.
func (c *HTTPClient) do(ctx context.Context, user *models.SyncUser, method, path string, body, result any) error {
	if !user.Authenticated() {
		return fmt.Errorf("%w: user %s has no access token", shared.ErrNotAuthenticated, user.Name)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	var reqBody *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+user.AccessToken)
	req.Header.Set("trakt-api-version", apiVersion)
	req.Header.Set("trakt-api-key", c.clientID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrRemoteUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%w: status %d", shared.ErrTokenExpired, resp.StatusCode)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return fmt.Errorf("%w: status %d", shared.ErrRemoteUnavailable, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("%w: status %d", shared.ErrRemoteRejected, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("%w: %v", shared.ErrDecodeFailure, err)
		}
	}

	return nil
}

// WatchedMovies fetches the user's watched-movies snapshot.
func (c *HTTPClient) WatchedMovies(ctx context.Context, user *models.SyncUser) ([]WatchedMovie, error) {
	var movies []WatchedMovie
	if err := c.do(ctx, user, http.MethodGet, "/sync/watched/movies", nil, &movies); err != nil {
		return nil, err
	}
	return movies, nil
}

// CollectedMovies fetches the user's collected-movies snapshot with file metadata.
func (c *HTTPClient) CollectedMovies(ctx context.Context, user *models.SyncUser) ([]CollectedMovie, error) {
	var movies []CollectedMovie
	if err := c.do(ctx, user, http.MethodGet, "/sync/collection/movies?extended=metadata", nil, &movies); err != nil {
		return nil, err
	}
	return movies, nil
}

// WatchedShows fetches the user's watched-shows snapshot, nested by season and episode.
func (c *HTTPClient) WatchedShows(ctx context.Context, user *models.SyncUser) ([]WatchedShow, error) {
	var shows []WatchedShow
	if err := c.do(ctx, user, http.MethodGet, "/sync/watched/shows", nil, &shows); err != nil {
		return nil, err
	}
	return shows, nil
}

// CollectedShows fetches the user's collected-shows snapshot, nested by season and episode.
func (c *HTTPClient) CollectedShows(ctx context.Context, user *models.SyncUser) ([]CollectedShow, error) {
	var shows []CollectedShow
	if err := c.do(ctx, user, http.MethodGet, "/sync/collection/shows?extended=metadata", nil, &shows); err != nil {
		return nil, err
	}
	return shows, nil
}

// AddToCollection submits collection additions in chunks.
func (c *HTTPClient) AddToCollection(ctx context.Context, user *models.SyncUser, items SyncItems) ([]SyncResponse, error) {
	return c.submit(ctx, user, "/sync/collection", items)
}

// RemoveFromCollection submits the structured collection-removal payload in chunks.
func (c *HTTPClient) RemoveFromCollection(ctx context.Context, user *models.SyncUser, items SyncItems) ([]SyncResponse, error) {
	return c.submit(ctx, user, "/sync/collection/remove", items)
}

// AddToHistory marks items watched in chunks.
func (c *HTTPClient) AddToHistory(ctx context.Context, user *models.SyncUser, items SyncItems) ([]SyncResponse, error) {
	return c.submit(ctx, user, "/sync/history", items)
}

// RemoveFromHistory removes watched state in chunks.
func (c *HTTPClient) RemoveFromHistory(ctx context.Context, user *models.SyncUser, items SyncItems) ([]SyncResponse, error) {
	return c.submit(ctx, user, "/sync/history/remove", items)
}

// UserSettings is the subset of /users/settings used for auth verification.
type UserSettings struct {
	User struct {
		Username string `json:"username"`
		Name     string `json:"name"`
	} `json:"user"`
}

// Settings fetches the authenticated user's Trakt account settings.
func (c *HTTPClient) Settings(ctx context.Context, user *models.SyncUser) (*UserSettings, error) {
	var settings UserSettings
	if err := c.do(ctx, user, http.MethodGet, "/users/settings", nil, &settings); err != nil {
		return nil, err
	}
	return &settings, nil
}

// submit posts a sync payload one chunk at a time and collects each chunk's response.
func (c *HTTPClient) submit(ctx context.Context, user *models.SyncUser, path string, items SyncItems) ([]SyncResponse, error) {
	chunks := chunkItems(items, batchSize)
	responses := make([]SyncResponse, 0, len(chunks))

	for _, chunk := range chunks {
		var resp SyncResponse
		if err := c.do(ctx, user, http.MethodPost, path, chunk, &resp); err != nil {
			return responses, err
		}
		responses = append(responses, resp)
	}

	return responses, nil
}

// chunkItems splits a payload into chunks of at most size items of a single kind.
func chunkItems(items SyncItems, size int) []SyncItems {
	var chunks []SyncItems

	for start := 0; start < len(items.Movies); start += size {
		end := min(start+size, len(items.Movies))
		chunks = append(chunks, SyncItems{Movies: items.Movies[start:end]})
	}

	for start := 0; start < len(items.Shows); start += size {
		end := min(start+size, len(items.Shows))
		chunks = append(chunks, SyncItems{Shows: items.Shows[start:end]})
	}

	return chunks
}
