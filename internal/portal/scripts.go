package portal

import (
	"encoding/json"
	"strings"
)

// prelude is shared by every script. find accepts XPath (leading "/" or
// "(") or CSS.
const prelude = `
const find = (sel) => {
  if (sel.startsWith('/') || sel.startsWith('(')) {
    const r = document.evaluate(sel, document, null, XPathResult.ORDERED_NODE_SNAPSHOT_TYPE, null);
    const out = [];
    for (let i = 0; i < r.snapshotLength; i++) out.push(r.snapshotItem(i));
    return out;
  }
  return Array.from(document.querySelectorAll(sel));
};
const visible = (el) => !!(el && (el.offsetWidth || el.offsetHeight || el.getClientRects().length));
const textOf = (el) => (el.innerText || el.textContent || '');
`

// jsString encodes s as a JavaScript string literal.
func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func script(body string) string {
	return "(() => {" + prelude + strings.TrimSpace(body) + "\n})()"
}

func entriesExpr(sel, text string) string {
	return "find(" + jsString(sel) + ").filter(el => textOf(el).includes(" + jsString(text) + "))"
}

// countEntriesScript evaluates to the number of complaint entries.
func countEntriesScript(sel, text string) string {
	return script("return " + entriesExpr(sel, text) + ".length;")
}

// listVisibleScript evaluates to true when at least one entry is visible.
func listVisibleScript(sel, text string) string {
	return script("return " + entriesExpr(sel, text) + ".some(visible);")
}

// clickEntryScript clicks entry i and evaluates to the entry count, or -1
// when i is out of range. Entries are located afresh on every call.
func clickEntryScript(sel, text string, i int) string {
	b, _ := json.Marshal(i)
	return script(`
const entries = ` + entriesExpr(sel, text) + `;
const i = ` + string(b) + `;
if (i < 0 || i >= entries.length) return -1;
entries[i].scrollIntoView({block: 'center'});
entries[i].click();
return entries.length;`)
}

// clickTextScript clicks the innermost visible element whose text contains
// want and evaluates to whether one was found.
func clickTextScript(want string) string {
	return script(`
const want = ` + jsString(want) + `;
const hits = Array.from(document.querySelectorAll('body *')).filter(el =>
  visible(el) && textOf(el).includes(want) &&
  !Array.from(el.children).some(c => textOf(c).includes(want)));
if (hits.length === 0) return false;
hits[0].scrollIntoView({block: 'center'});
hits[0].click();
return true;`)
}

// clickFirstVisibleScript clicks the first visible match of sel.
func clickFirstVisibleScript(sel string) string {
	return script(`
const el = find(` + jsString(sel) + `).find(visible);
if (!el) return false;
el.scrollIntoView({block: 'center'});
el.click();
return true;`)
}

// existsVisibleScript evaluates to whether sel has a visible match.
func existsVisibleScript(sel string) string {
	return script("return find(" + jsString(sel) + ").some(visible);")
}

// innerTextScript evaluates to the rendered text of the first match of sel,
// or of the body when nothing matches.
func innerTextScript(sel string) string {
	return script(`
const el = find(` + jsString(sel) + `)[0] || document.body;
return textOf(el);`)
}

// dismissOverlaysScript hides dialogs and clicks dismiss controls left over
// from the portal's onboarding popups.
const dismissOverlaysScript = `(() => {
  document.querySelectorAll('[role="dialog"], .modal, .overlay, .popup').forEach(m => {
    if (m.style) m.style.display = 'none';
  });
  document.querySelectorAll('[aria-label*="close"], [aria-label*="dismiss"], .close, .dismiss').forEach(b => {
    if (b.click) b.click();
  });
  return true;
})()`

const readyStateScript = `document.readyState === "complete"`
