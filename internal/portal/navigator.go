// Package portal drives the partner portal's customer-issues inbox.
//
// The navigator is a small state machine over a single browser tab:
//
//	SELECT_OUTLET -> LIST_COMPLAINTS -> (OPEN_DETAIL -> EXTRACT -> CLOSE_DETAIL)*
//
// Every transition waits on a page condition with a bounded, backed-off
// poll (see WaitPolicy); nothing sleeps for a fixed time.
package portal

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	apperrors "complaintsync/internal/errors"
)

// Options configures a Navigator.
type Options struct {
	PortalURL         string
	Selectors         Selectors
	NavigationTimeout time.Duration

	Select WaitPolicy // outlet filter applied and list settled
	List   WaitPolicy // list visible again after closing a detail
	Detail WaitPolicy // detail text rendered
	Close  WaitPolicy // detail dismissed

	// Reload the inbox and reselect the outlet after every complaint.
	ReloadBetweenComplaints bool

	Logger *zap.Logger
}

// Navigator implements the outlet and complaint transitions with chromedp.
//
// Methods take the caller's context for cancellation; browser actions run
// on the tab context the navigator was created with.
type Navigator struct {
	tab     context.Context
	opts    Options
	sel     Selectors
	current string // outlet currently applied in the filter
	log     *zap.Logger

	// eval and run reach the browser. Tests replace them with a scripted page.
	eval func(ctx context.Context, script string, res any) error
	run  func(ctx context.Context, actions ...chromedp.Action) error
}

// New creates a Navigator on the given chromedp tab context.
func New(tab context.Context, opts Options) *Navigator {
	log := opts.Logger
	if log == nil {
		log = zap.L()
	}
	if opts.NavigationTimeout <= 0 {
		opts.NavigationTimeout = 60 * time.Second
	}
	return &Navigator{
		tab:  tab,
		opts: opts,
		sel:  opts.Selectors.WithDefaults(),
		log:  log,
		eval: evaluate,
		run:  chromedp.Run,
	}
}

// Open loads the inbox, waits for the document to finish loading, clears
// onboarding overlays and checks that the outlet filter is reachable. An
// unreachable filter usually means the saved login has expired.
func (n *Navigator) Open(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	n.log.Info("opening portal", zap.String("url", n.opts.PortalURL))

	if err := n.load(chromedp.Navigate(n.opts.PortalURL)); err != nil {
		return eris.Wrap(err, "navigate to portal")
	}

	err := Poll(n.tab, n.opts.Select, n.visible(n.sel.OutletDropdown))
	if err != nil {
		return eris.Wrap(err, "outlet filter not visible, login may have expired")
	}
	n.current = ""
	return nil
}

// load runs a navigation action and waits for the page to settle.
func (n *Navigator) load(nav chromedp.Action) error {
	navCtx, cancel := context.WithTimeout(n.tab, n.opts.NavigationTimeout)
	defer cancel()

	var ready bool
	err := n.run(navCtx,
		nav,
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Poll(readyStateScript, &ready,
			chromedp.WithPollingInterval(n.opts.Select.withDefaults().Interval)),
	)
	if err != nil {
		return err
	}

	var dismissed bool
	if err := n.eval(navCtx, dismissOverlaysScript, &dismissed); err != nil {
		n.log.Debug("overlay dismissal failed", zap.Error(err))
	}
	return nil
}

// SelectOutlet applies the outlet filter and waits for the complaint list
// to settle.
func (n *Navigator) SelectOutlet(ctx context.Context, outletID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p := n.opts.Select

	if err := Poll(n.tab, p, n.click(n.sel.OutletDropdown)); err != nil {
		return eris.Wrap(err, "open outlet dropdown")
	}

	if n.current != "" && n.current != outletID {
		var ok bool
		if err := n.eval(n.tab, clickTextScript(outletOption(n.current)), &ok); err != nil || !ok {
			n.log.Debug("previous outlet chip not found", zap.String("outlet", n.current))
		}
	}

	typeCtx, cancel := context.WithTimeout(n.tab, p.timeoutOr(15*time.Second))
	err := n.run(typeCtx,
		chromedp.WaitVisible(n.sel.OutletInput, chromedp.BySearch),
		chromedp.SetValue(n.sel.OutletInput, "", chromedp.BySearch),
		chromedp.SendKeys(n.sel.OutletInput, outletID, chromedp.BySearch),
	)
	cancel()
	if err != nil {
		return eris.Wrap(err, "type outlet id")
	}

	option := outletOption(outletID)
	if err := Poll(n.tab, p, func(ctx context.Context) (bool, error) {
		var ok bool
		err := n.eval(ctx, clickTextScript(option), &ok)
		return ok, err
	}); err != nil {
		return eris.Wrapf(err, "pick %q", option)
	}

	if err := Poll(n.tab, p, n.click(n.sel.ApplyButton)); err != nil {
		return eris.Wrap(err, "apply outlet filter")
	}

	count, err := PollStable(n.tab, n.opts.List, n.countProbe(), nil)
	if err != nil {
		return eris.Wrap(err, "complaint list did not settle")
	}

	n.current = outletID
	n.log.Debug("outlet selected", zap.String("outlet", outletID), zap.Int("entries", count))
	return nil
}

// ComplaintCount returns the number of complaint entries in the list.
func (n *Navigator) ComplaintCount(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	evalCtx, cancel := context.WithTimeout(n.tab, n.opts.Select.timeoutOr(15*time.Second))
	defer cancel()

	var count int
	if err := n.eval(evalCtx, countEntriesScript(n.sel.ComplaintEntry, n.sel.EntryText), &count); err != nil {
		return 0, eris.Wrap(err, "count complaints")
	}
	return count, nil
}

// OpenComplaint opens the detail view of entry i. Entries are located
// afresh so no handle from an earlier page state is reused.
func (n *Navigator) OpenComplaint(ctx context.Context, i int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p := n.opts.Detail

	before, err := n.detailText(n.tab)
	if err != nil {
		return eris.Wrap(err, "read list text")
	}

	var count int
	if err := n.eval(n.tab, clickEntryScript(n.sel.ComplaintEntry, n.sel.EntryText, i), &count); err != nil {
		return eris.Wrapf(err, "click complaint %d", i)
	}
	if count < 0 {
		return eris.Errorf("complaint index %d out of range", i)
	}

	// The order section is collapsed on some complaints.
	expand := WaitPolicy{Timeout: 3 * time.Second, Interval: p.Interval, MaxInterval: p.MaxInterval}
	if err := Poll(n.tab, expand, n.click(n.sel.OrderDetails)); err != nil && !errors.Is(err, ErrWaitTimeout) {
		n.log.Debug("order details not expanded", zap.Error(err))
	}

	// The detail has rendered once the pane is visible or the text has
	// changed and stopped changing.
	_, err = PollStable(n.tab, p, n.detailProbe(), func(v detailView) bool {
		return v.pane || v.text != before
	})
	if err != nil {
		return eris.Wrapf(err, "detail of complaint %d did not render", i)
	}
	return nil
}

// ReadComplaint returns the rendered text of the open detail view.
func (n *Navigator) ReadComplaint(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	evalCtx, cancel := context.WithTimeout(n.tab, n.opts.Detail.timeoutOr(15*time.Second))
	defer cancel()

	var text string
	if err := n.eval(evalCtx, innerTextScript(n.sel.DetailRoot), &text); err != nil {
		return "", eris.Wrap(err, "read detail text")
	}
	if strings.TrimSpace(text) == "" {
		return "", eris.New("detail text is empty")
	}
	return text, nil
}

// CloseComplaint dismisses the detail view and returns to the list. It is
// the compensating action after every complaint and is safe to call when no
// detail is open.
//
// With ReloadBetweenComplaints the inbox is reloaded and the outlet filter
// applied again. If that fails the list no longer belongs to the outlet and
// an *errors.OutletError is returned; the caller must not open further
// entries for it.
func (n *Navigator) CloseComplaint(ctx context.Context) error {
	keyCtx, cancel := context.WithTimeout(n.tab, n.opts.Close.timeoutOr(10*time.Second))
	err := n.run(keyCtx, chromedp.KeyEvent(kb.Escape))
	cancel()
	if err != nil {
		n.log.Debug("escape key failed", zap.Error(err))
	}

	listShown := n.visibleEntries()
	err = Poll(n.tab, n.opts.Close, listShown)
	if err != nil {
		var clicked bool
		if cerr := n.eval(n.tab, clickFirstVisibleScript(n.sel.CloseControl), &clicked); cerr == nil && clicked {
			n.log.Debug("closed detail with close control")
		}
		err = Poll(n.tab, n.opts.Close, listShown)
	}

	if n.opts.ReloadBetweenComplaints && n.current != "" {
		outlet := n.current
		n.current = ""
		if rerr := n.load(chromedp.Reload()); rerr != nil {
			return apperrors.NewOutletError(outlet, "reload inbox", rerr)
		}
		if serr := n.SelectOutlet(ctx, outlet); serr != nil {
			return apperrors.NewOutletError(outlet, "reselect outlet after reload", serr)
		}
		return nil
	}

	if err != nil {
		return eris.Wrap(err, "complaint list not visible after close")
	}
	return nil
}

// CurrentOutlet returns the outlet applied in the filter, if any.
func (n *Navigator) CurrentOutlet() string {
	return n.current
}

func evaluate(ctx context.Context, script string, res any) error {
	return chromedp.Run(ctx, chromedp.Evaluate(script, res))
}

func (n *Navigator) click(sel string) func(ctx context.Context) (bool, error) {
	return func(ctx context.Context) (bool, error) {
		var ok bool
		err := n.eval(ctx, clickFirstVisibleScript(sel), &ok)
		return ok, err
	}
}

func (n *Navigator) visible(sel string) func(ctx context.Context) (bool, error) {
	return func(ctx context.Context) (bool, error) {
		var ok bool
		err := n.eval(ctx, existsVisibleScript(sel), &ok)
		return ok, err
	}
}

func (n *Navigator) visibleEntries() func(ctx context.Context) (bool, error) {
	return func(ctx context.Context) (bool, error) {
		var ok bool
		err := n.eval(ctx, listVisibleScript(n.sel.ComplaintEntry, n.sel.EntryText), &ok)
		return ok, err
	}
}

func (n *Navigator) countProbe() func(ctx context.Context) (int, error) {
	return func(ctx context.Context) (int, error) {
		var count int
		err := n.eval(ctx, countEntriesScript(n.sel.ComplaintEntry, n.sel.EntryText), &count)
		return count, err
	}
}

func (n *Navigator) detailText(ctx context.Context) (string, error) {
	var text string
	err := n.eval(ctx, innerTextScript(n.sel.DetailRoot), &text)
	return text, err
}

type detailView struct {
	text string
	pane bool
}

func (n *Navigator) detailProbe() func(ctx context.Context) (detailView, error) {
	return func(ctx context.Context) (detailView, error) {
		var v detailView
		if n.sel.DetailPane != "" {
			if err := n.eval(ctx, existsVisibleScript(n.sel.DetailPane), &v.pane); err != nil {
				return v, err
			}
		}
		text, err := n.detailText(ctx)
		v.text = text
		return v, err
	}
}
