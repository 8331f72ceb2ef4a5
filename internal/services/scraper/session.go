package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/storage"
	"github.com/chromedp/chromedp"
)

// sessionFile is the on-disk session snapshot for one host.
func sessionFile(dir, host string) string {
	return filepath.Join(dir, "cookies_"+host+".json")
}

// sessionState is what persists between visits to a host: the cookie jar
// and a flat snapshot of the origin's local storage.
type sessionState struct {
	Cookies      []*network.CookieParam `json:"cookies"`
	LocalStorage map[string]string      `json:"local_storage,omitempty"`
}

// readSessionFile loads a host's snapshot. A missing file is not an
// error; a corrupt one is.
func readSessionFile(path string) (*sessionState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var state sessionState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to decode session file %s: %w", path, err)
	}
	return &state, nil
}

// writeSessionFile persists a snapshot, creating the directory if needed.
func writeSessionFile(path string, state *sessionState) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// restoreSession loads the host's snapshot, if any, into a fresh tab:
// cookies through CDP, local storage through a script that runs before
// the first document does.
func restoreSession(ctx context.Context, path string) error {
	state, err := readSessionFile(path)
	if err != nil {
		return err
	}
	if state == nil {
		return nil
	}

	if len(state.Cookies) > 0 {
		if err := network.SetCookies(state.Cookies).Do(ctx); err != nil {
			return err
		}
	}
	if len(state.LocalStorage) > 0 {
		if _, err := page.AddScriptToEvaluateOnNewDocument(localStorageSeedScript(state.LocalStorage)).Do(ctx); err != nil {
			return err
		}
	}
	return nil
}

// saveSession writes the tab's cookies and local storage back to the
// host's snapshot so the next visit resumes the same session.
func saveSession(ctx context.Context, path string) error {
	cookies, err := storage.GetCookies().Do(ctx)
	if err != nil {
		return err
	}

	state := &sessionState{Cookies: cookieParams(cookies)}

	// Local storage is best effort: a sandboxed or opaque origin denies
	// access, which must not fail the fetch.
	var local map[string]string
	if err := chromedp.Evaluate(localStorageDumpScript, &local).Do(ctx); err == nil && len(local) > 0 {
		state.LocalStorage = local
	}

	return writeSessionFile(path, state)
}

// cookieParams converts captured cookies into the settable form.
func cookieParams(cookies []*network.Cookie) []*network.CookieParam {
	params := make([]*network.CookieParam, 0, len(cookies))
	for _, c := range cookies {
		p := &network.CookieParam{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Secure:   c.Secure,
			HTTPOnly: c.HTTPOnly,
			SameSite: c.SameSite,
		}
		if c.Expires > 0 {
			t := cdp.TimeSinceEpoch(time.Unix(int64(c.Expires), 0))
			p.Expires = &t
		}
		params = append(params, p)
	}
	return params
}

const localStorageDumpScript = `(() => {
	const out = {};
	try {
		for (let i = 0; i < localStorage.length; i++) {
			const k = localStorage.key(i);
			out[k] = localStorage.getItem(k);
		}
	} catch (e) {}
	return out;
})()`

// localStorageSeedScript replays a snapshot into the origin before page
// scripts run.
func localStorageSeedScript(items map[string]string) string {
	blob, _ := json.Marshal(items)
	return fmt.Sprintf(`(() => {
	try {
		const items = %s;
		for (const k of Object.keys(items)) {
			localStorage.setItem(k, items[k]);
		}
	} catch (e) {}
})();`, blob)
}
