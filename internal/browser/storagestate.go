package browser

import (
	"encoding/json"
	"math"
	"os"
	"strings"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/rotisserie/eris"
)

// StorageState is a persisted login in the Playwright storage-state format.
type StorageState struct {
	Cookies []StoredCookie `json:"cookies"`
	Origins []StoredOrigin `json:"origins"`
}

// StoredCookie is one cookie. Expires is seconds since the epoch; -1 marks
// a session cookie.
type StoredCookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path"`
	Expires  float64 `json:"expires"`
	HTTPOnly bool    `json:"httpOnly"`
	Secure   bool    `json:"secure"`
	SameSite string  `json:"sameSite"`
}

// StoredOrigin holds the localStorage entries of one origin.
type StoredOrigin struct {
	Origin       string          `json:"origin"`
	LocalStorage []StoredKeyPair `json:"localStorage"`
}

// StoredKeyPair is one localStorage entry.
type StoredKeyPair struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// LoadStorageState reads a storage-state file. The returned error wraps
// fs.ErrNotExist when the file is missing.
func LoadStorageState(path string) (*StorageState, error) {
	if path == "" {
		return nil, eris.New("storage state path is empty")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "read storage state %s", path)
	}
	return ParseStorageState(data)
}

// ParseStorageState decodes storage-state JSON.
func ParseStorageState(data []byte) (*StorageState, error) {
	var s StorageState
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, eris.Wrap(err, "parse storage state")
	}
	return &s, nil
}

// CookieParams converts the stored cookies for network.SetCookies.
// Cookies without a name or domain are skipped.
func (s *StorageState) CookieParams() []*network.CookieParam {
	out := make([]*network.CookieParam, 0, len(s.Cookies))
	for _, c := range s.Cookies {
		if c.Name == "" || c.Domain == "" {
			continue
		}
		p := &network.CookieParam{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Secure:   c.Secure,
			HTTPOnly: c.HTTPOnly,
		}
		if p.Path == "" {
			p.Path = "/"
		}
		if ss, ok := sameSite(c.SameSite); ok {
			p.SameSite = ss
		}
		if c.Expires > 0 {
			sec, frac := math.Modf(c.Expires)
			t := cdp.TimeSinceEpoch(time.Unix(int64(sec), int64(frac*1e9)))
			p.Expires = &t
		}
		out = append(out, p)
	}
	return out
}

func sameSite(v string) (network.CookieSameSite, bool) {
	switch strings.ToLower(v) {
	case "strict":
		return network.CookieSameSiteStrict, true
	case "lax":
		return network.CookieSameSiteLax, true
	case "none":
		return network.CookieSameSiteNone, true
	default:
		return "", false
	}
}

// LocalStorageScript returns an init script that seeds localStorage for the
// matching origin on every new document, without overwriting keys the page
// already set. Empty when there is nothing to seed.
func (s *StorageState) LocalStorageScript() string {
	seed := make(map[string]map[string]string)
	for _, o := range s.Origins {
		if o.Origin == "" || len(o.LocalStorage) == 0 {
			continue
		}
		items := make(map[string]string, len(o.LocalStorage))
		for _, kv := range o.LocalStorage {
			items[kv.Name] = kv.Value
		}
		seed[strings.TrimRight(o.Origin, "/")] = items
	}
	if len(seed) == 0 {
		return ""
	}

	b, err := json.Marshal(seed)
	if err != nil {
		return ""
	}
	return `(() => {
  const seed = ` + string(b) + `;
  const items = seed[window.location.origin];
  if (!items) return;
  for (const [k, v] of Object.entries(items)) {
    try {
      if (window.localStorage.getItem(k) === null) window.localStorage.setItem(k, v);
    } catch (e) {}
  }
})();`
}
