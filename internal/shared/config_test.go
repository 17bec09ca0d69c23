package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "tsync.db" {
			t.Errorf("expected database path tsync.db, got %s", config.Database.Path)
		}

		if config.Server.Port != 3000 {
			t.Errorf("expected server port 3000, got %d", config.Server.Port)
		}

		if config.Trakt.APIURL != "https://api.trakt.tv" {
			t.Errorf("expected trakt api url https://api.trakt.tv, got %s", config.Trakt.APIURL)
		}

		if len(config.Users) != 1 || config.Users[0].Name != "default" {
			t.Errorf("expected one default user, got %+v", config.Users)
		}

		if !config.Users[0].SyncCollection || !config.Users[0].PostWatchedHistory {
			t.Error("default user should sync collection and post watched history")
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		if config.Database.Path != DefaultConfig().Database.Path {
			t.Error("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[trakt]
client_id = "test_client_id"
client_secret = "test_secret"
redirect_uri = "http://localhost:9090/callback"
api_url = "https://api.example.test"

[database]
path = "/custom/path.db"
max_open_conns = 20
max_idle_conns = 10

[server]
host = "0.0.0.0"
port = 8080

[[users]]
name = "alice"
access_token = "abc"
sync_collection = true
export_media_info = true
excluded_locations = ["/mnt/kids"]

[[users]]
name = "bob"
post_watched_history = true
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Trakt.ClientID != "test_client_id" {
			t.Errorf("expected trakt client_id test_client_id, got %s", config.Trakt.ClientID)
		}

		if config.Database.Path != "/custom/path.db" {
			t.Errorf("expected database path /custom/path.db, got %s", config.Database.Path)
		}

		if len(config.Users) != 2 {
			t.Fatalf("expected 2 users, got %d", len(config.Users))
		}

		if !config.Users[0].ExportMediaInfo || len(config.Users[0].ExcludedLocations) != 1 {
			t.Errorf("alice policy not loaded: %+v", config.Users[0])
		}
	})

	t.Run("SaveConfig Round Trip", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		config := DefaultConfig()
		config.Trakt.ClientID = "saved-id"
		config.Users[0].AccessToken = "saved-token"

		if err := SaveConfig(configPath, config); err != nil {
			t.Fatalf("failed to save config: %v", err)
		}

		loaded, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to reload config: %v", err)
		}

		if loaded.Trakt.ClientID != "saved-id" {
			t.Errorf("expected client_id saved-id, got %s", loaded.Trakt.ClientID)
		}

		if loaded.Users[0].AccessToken != "saved-token" {
			t.Errorf("expected user token saved-token, got %s", loaded.Users[0].AccessToken)
		}
	})

	t.Run("User Lookup", func(t *testing.T) {
		config := DefaultConfig()

		user, err := config.User("default")
		if err != nil {
			t.Fatalf("failed to find default user: %v", err)
		}

		// The pointer aliases the config slice so token updates persist on save.
		user.AccessToken = "updated"
		if config.Users[0].AccessToken != "updated" {
			t.Error("User() should return a pointer into the config")
		}

		if _, err := config.User("nobody"); !errors.Is(err, ErrUserNotFound) {
			t.Errorf("expected ErrUserNotFound, got %v", err)
		}
	})
}
