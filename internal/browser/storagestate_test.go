package browser

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleState = `{
  "cookies": [
    {"name": "PHPSESSID", "value": "abc", "domain": ".zomato.com", "path": "/", "expires": -1, "httpOnly": true, "secure": true, "sameSite": "Lax"},
    {"name": "zat", "value": "tok", "domain": "www.zomato.com", "path": "", "expires": 1767225600.5, "httpOnly": false, "secure": true, "sameSite": "None"},
    {"name": "", "value": "skip", "domain": ".zomato.com"},
    {"name": "orphan", "value": "skip", "domain": ""}
  ],
  "origins": [
    {"origin": "https://www.zomato.com", "localStorage": [{"name": "resId", "value": "19595894"}, {"name": "theme", "value": "light"}]},
    {"origin": "https://empty.example", "localStorage": []}
  ]
}`

func TestParseStorageState_CookieParams(t *testing.T) {
	s, err := ParseStorageState([]byte(sampleState))
	require.NoError(t, err)

	cookies := s.CookieParams()
	require.Len(t, cookies, 2)

	session := cookies[0]
	assert.Equal(t, "PHPSESSID", session.Name)
	assert.Equal(t, ".zomato.com", session.Domain)
	assert.True(t, session.HTTPOnly)
	assert.True(t, session.Secure)
	assert.Equal(t, network.CookieSameSiteLax, session.SameSite)
	assert.Nil(t, session.Expires, "expires -1 is a session cookie")

	persistent := cookies[1]
	assert.Equal(t, "/", persistent.Path)
	assert.Equal(t, network.CookieSameSiteNone, persistent.SameSite)
	require.NotNil(t, persistent.Expires)
	assert.Equal(t, int64(1767225600), persistent.Expires.Time().Unix())
	assert.Equal(t, 500*time.Millisecond, time.Duration(persistent.Expires.Time().Nanosecond()))
}

func TestLocalStorageScript(t *testing.T) {
	s, err := ParseStorageState([]byte(sampleState))
	require.NoError(t, err)

	script := s.LocalStorageScript()
	assert.Contains(t, script, `"https://www.zomato.com":{"resId":"19595894","theme":"light"}`)
	assert.NotContains(t, script, "empty.example")
	assert.Contains(t, script, "window.location.origin")

	empty := &StorageState{}
	assert.Empty(t, empty.LocalStorageScript())
}

func TestLoadStorageState(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadStorageState(filepath.Join(dir, "missing.json"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist))

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0o600))
	_, err = LoadStorageState(bad)
	require.Error(t, err)
	assert.False(t, errors.Is(err, fs.ErrNotExist))

	good := filepath.Join(dir, "zomato_login.json")
	require.NoError(t, os.WriteFile(good, []byte(sampleState), 0o600))
	s, err := LoadStorageState(good)
	require.NoError(t, err)
	assert.Len(t, s.Cookies, 4)
	assert.Len(t, s.Origins, 2)

	_, err = LoadStorageState("")
	assert.Error(t, err)
}

func TestAllocatorOptions(t *testing.T) {
	base := len(allocatorOptions(Options{}))
	withPaths := allocatorOptions(Options{UserDataDir: "/tmp/profile", ExecPath: "/usr/bin/chromium"})
	assert.Len(t, withPaths, base+2)
}
