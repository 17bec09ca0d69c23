package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/desertthunder/tsync/internal/server"
	"github.com/desertthunder/tsync/internal/shared"
	"github.com/urfave/cli/v3"
)

const loginTimeout = 5 * time.Minute

// AuthLogin runs the OAuth2 authorization-code flow for one configured user
// and saves the resulting tokens back to the config file.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")
	userName := cmd.String("user")

	if config, err := shared.LoadConfig(configPath); err == nil {
		r.config = config
		r.configPath = configPath
	}

	user, err := r.config.User(userName)
	if err != nil {
		return err
	}

	client, err := r.httpTrakt()
	if err != nil {
		return err
	}

	state, err := shared.GenerateState()
	if err != nil {
		return err
	}

	handler := server.NewOAuthHandler(client.OAuthConfig(), state)
	router := server.NewBasicRouter()
	router.Handle(http.MethodGet, "/callback", handler)

	addr := fmt.Sprintf("%s:%d", r.config.Server.Host, r.config.Server.Port)
	srv := &http.Server{Addr: addr, Handler: router}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			handler.Send(server.OAuthResult{})
			r.logger.Error("callback server failed", "error", err)
		}
	}()
	defer srv.Shutdown(context.Background())

	authURL := client.AuthURL(state)
	r.logger.Info("opening Trakt authorization page", "user", userName)
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warn("failed to open browser", "error", err)
		r.writePlain("Open this URL in your browser:\n%s\n", authURL)
	}

	var result server.OAuthResult
	select {
	case result = <-handler.Result():
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(loginTimeout):
		return fmt.Errorf("timed out waiting for the Trakt callback")
	}

	if result.Error() != nil {
		return fmt.Errorf("%w: %v", shared.ErrNotAuthenticated, result.Error())
	}
	if result.Token == nil {
		return fmt.Errorf("%w: callback server stopped before a token arrived", shared.ErrNotAuthenticated)
	}

	user.AccessToken = result.Token.AccessToken
	user.RefreshToken = result.Token.RefreshToken

	if err := shared.SaveConfig(r.configPath, r.config); err != nil {
		return fmt.Errorf("failed to save tokens: %w", err)
	}

	r.logger.Info("authentication successful", "user", userName)
	return r.writePlain("✓ %s is now authenticated with Trakt\n", userName)
}

// AuthStatus checks token validity for one or all users by calling the
// Trakt settings endpoint.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	users, err := r.users(cmd.String("user"))
	if err != nil {
		return err
	}

	client, err := r.httpTrakt()
	if err != nil {
		return err
	}

	for _, user := range users {
		if !user.Authenticated() {
			r.writePlain("✗ %s: not authenticated (run 'tsync auth login --user %s')\n", user.Name, user.Name)
			continue
		}

		settings, err := client.Settings(ctx, user)
		if err != nil {
			r.writePlain("✗ %s: token check failed: %v\n", user.Name, err)
			continue
		}

		r.writePlain("✓ %s: authenticated as %s\n", user.Name, settings.User.Username)
	}

	return nil
}
