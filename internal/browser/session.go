// Package browser provides the Chrome session the portal navigator drives.
//
// This package handles Chrome/Chromium lifecycle management using ChromeDP:
// allocator flags, the browser context, and seeding the session with a
// persisted login so the portal opens already signed in.
//
// Key features:
//   - Exec allocator with automation indicators suppressed
//   - Cookies and localStorage restored from a storage-state file
//   - Single cancel function tearing down tab, browser and allocator
package browser

import (
	"context"
	"errors"
	"io/fs"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	apperrors "complaintsync/internal/errors"
)

// DefaultUserAgent matches a current desktop Chrome on Linux.
const DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Options configures the browser session.
type Options struct {
	Headless         bool
	UserDataDir      string // persistent profile, optional
	ExecPath         string // Chrome binary, optional
	UserAgent        string
	WindowWidth      int
	WindowHeight     int
	StorageStatePath string // persisted login, optional
	Logger           *zap.Logger
}

// Session is one running browser with a single tab.
type Session struct {
	ctx    context.Context
	cancel context.CancelFunc
	log    *zap.Logger
}

// NewSession starts Chrome and prepares the first tab.
//
// Flow:
//  1. Build exec allocator options from Options
//  2. Create the browser context with zap-backed ChromeDP logging
//  3. Start the browser
//  4. Install the stealth init script
//  5. Restore cookies and localStorage from the storage-state file, if present
//
// A missing storage-state file is logged and ignored; an unreadable or
// malformed one is a *errors.SessionError, as is any startup failure.
func NewSession(parent context.Context, opts Options) (*Session, error) {
	log := opts.Logger
	if log == nil {
		log = zap.L()
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.WindowWidth == 0 || opts.WindowHeight == 0 {
		opts.WindowWidth, opts.WindowHeight = 1920, 1080
	}

	log.Info("starting browser",
		zap.Bool("headless", opts.Headless),
		zap.String("user_data_dir", opts.UserDataDir),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(parent, allocatorOptions(opts)...)

	sugar := log.Sugar()
	ctx, tabCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(sugar.Debugf),
		chromedp.WithErrorf(sugar.Debugf),
	)
	cancel := func() {
		tabCancel()
		allocCancel()
	}

	// Running with no actions launches the browser and opens the tab.
	if err := chromedp.Run(ctx); err != nil {
		cancel()
		return nil, apperrors.NewSessionError("start browser", err)
	}

	init := []chromedp.Action{addInitScript(stealthScript)}

	state, err := LoadStorageState(opts.StorageStatePath)
	switch {
	case opts.StorageStatePath == "":
	case errors.Is(err, fs.ErrNotExist):
		log.Warn("storage state not found, starting without a saved login", zap.String("path", opts.StorageStatePath))
	case err != nil:
		cancel()
		return nil, apperrors.NewSessionError("load storage state", err)
	default:
		cookies := state.CookieParams()
		if len(cookies) > 0 {
			init = append(init, network.SetCookies(cookies))
		}
		if script := state.LocalStorageScript(); script != "" {
			init = append(init, addInitScript(script))
		}
		log.Info("restoring saved login",
			zap.String("path", opts.StorageStatePath),
			zap.Int("cookies", len(cookies)),
			zap.Int("origins", len(state.Origins)),
		)
	}

	if err := chromedp.Run(ctx, init...); err != nil {
		cancel()
		return nil, apperrors.NewSessionError("prepare tab", err)
	}

	log.Info("browser ready")
	return &Session{ctx: ctx, cancel: cancel, log: log}, nil
}

// Context returns the tab context for ChromeDP actions.
func (s *Session) Context() context.Context {
	return s.ctx
}

// Close shuts the browser down. Safe to call more than once.
func (s *Session) Close() {
	if s == nil || s.cancel == nil {
		return
	}
	s.cancel()
	s.cancel = nil
	s.log.Info("browser closed")
}

func allocatorOptions(opts Options) []chromedp.ExecAllocatorOption {
	o := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	o = append(o,
		chromedp.Flag("headless", opts.Headless),
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("enable-automation", false),
		chromedp.WindowSize(opts.WindowWidth, opts.WindowHeight),
		chromedp.UserAgent(opts.UserAgent),
	)
	if opts.UserDataDir != "" {
		o = append(o, chromedp.UserDataDir(opts.UserDataDir))
	}
	if opts.ExecPath != "" {
		o = append(o, chromedp.ExecPath(opts.ExecPath))
	}
	return o
}

func addInitScript(source string) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		_, err := page.AddScriptToEvaluateOnNewDocument(source).Do(ctx)
		return err
	})
}
