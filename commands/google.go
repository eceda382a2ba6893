package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
)

const (
	SHEETS = "https://www.googleapis.com/auth/spreadsheets"
	DRIVE  = "https://www.googleapis.com/auth/drive.readonly"
)

type version struct {
	revision string
	modified time.Time
}

// authorize returns an HTTP client using the cached OAuth2 token for the scope. Tokens are created
// by the 'authorise' command.
func authorize(credentials, scope, dir string) (*http.Client, error) {
	config, err := oauth2Config(credentials, scope)
	if err != nil {
		return nil, err
	}

	file := tokenFile(credentials, scope, dir)
	token, err := tokenFromFile(file)
	if err != nil {
		return nil, fmt.Errorf("no usable authorisation token in %v - run '%v authorise' (%v)", file, APP, err)
	}

	return config.Client(context.Background(), token), nil
}

func oauth2Config(credentials, scope string) (*oauth2.Config, error) {
	b, err := os.ReadFile(credentials)
	if err != nil {
		return nil, err
	}

	return google.ConfigFromJSON(b, scope)
}

// tokenFile returns the token cache file for a credentials file and scope
// e.g. <dir>/credentials.sheets.
func tokenFile(credentials, scope, dir string) string {
	_, file := filepath.Split(credentials)
	name := strings.TrimSuffix(file, filepath.Ext(file))

	switch {
	case strings.HasPrefix(scope, SHEETS):
		return filepath.Join(dir, fmt.Sprintf("%s.sheets", name))

	case strings.HasPrefix(scope, DRIVE):
		return filepath.Join(dir, fmt.Sprintf("%s.drive", name))

	default:
		return filepath.Join(dir, fmt.Sprintf("%s.tokens", name))
	}
}

func tokenFromFile(file string) (*oauth2.Token, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}

	defer f.Close()

	token := oauth2.Token{}
	if err := json.NewDecoder(f).Decode(&token); err != nil {
		return nil, err
	}

	return &token, nil
}

func saveToken(file string, token *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(file), 0700); err != nil {
		return err
	}

	f, err := os.OpenFile(file, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("unable to cache OAuth2 token (%v)", err)
	}

	defer f.Close()

	return json.NewEncoder(f).Encode(token)
}

// getVersion returns the most recent revision of a Drive file.
func getVersion(ctx context.Context, gdrive *drive.Service, fileId string) (*version, error) {
	page := ""
	latest := version{
		revision: "",
		modified: time.Time{},
	}

	for {
		call := drive.NewRevisionsService(gdrive).List(fileId).Fields("nextPageToken", "revisions(id,modifiedTime)").Context(ctx)
		if page != "" {
			call.PageToken(page)
		}

		revisions, err := call.Do()
		if err != nil {
			return nil, err
		}

		for _, revision := range revisions.Revisions {
			datetime, err := time.Parse(time.RFC3339, revision.ModifiedTime)
			if err != nil {
				return nil, err
			}

			if latest.modified.Before(datetime) {
				latest.revision = revision.Id
				latest.modified = datetime
			}
		}

		if page = revisions.NextPageToken; page == "" {
			break
		}
	}

	if latest.modified.IsZero() {
		return nil, fmt.Errorf("unable to identify latest revision for file ID %s", fileId)
	}

	return &latest, nil
}
