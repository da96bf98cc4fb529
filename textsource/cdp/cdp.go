// Package cdp reaches rich editors in a live Chrome page over the DevTools
// protocol.
package cdp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/chromedp/chromedp"
)

// flattenJS mirrors the contenteditable flattening rules: text nodes in
// document order, <br> and block boundaries as line breaks, offsets in code
// points. Inputs and textareas use their value.
const flattenJS = `(function(){
const BLOCK = new Set(["P","DIV","LI","UL","OL","BLOCKQUOTE","PRE","H1","H2","H3","H4","H5","H6","SECTION","ARTICLE"]);
function flatten(root){
  const parts = []; let n = 0; let pending = false; let text = "";
  function write(s){ if(!s) return; if(pending){ pending=false; text+="\n"; n++; } text+=s; n+=Array.from(s).length; }
  function brk(){ if(n===0 || text.endsWith("\n")) return; pending=true; }
  function walk(node, isRoot){
    if(node.nodeType===3){ if(node.data && pending){ pending=false; text+="\n"; n++; } parts.push({node, start:n, len:Array.from(node.data).length}); write(node.data); return; }
    if(node.nodeType!==1) return;
    if(node.tagName==="BR"){ write("\n"); return; }
    if(node.tagName==="SCRIPT"||node.tagName==="STYLE") return;
    const block = !isRoot && BLOCK.has(node.tagName);
    if(block) brk();
    for(const ch of node.childNodes) walk(ch, false);
    if(block) brk();
  }
  walk(root, true);
  return {text, parts};
}
return {flatten};
})()`

// Evaluator implements textsource.Evaluator against one browser tab.
type Evaluator struct {
	tab context.Context
}

// New wraps a context created by chromedp.NewContext.
func New(tab context.Context) *Evaluator {
	return &Evaluator{tab: tab}
}

// Options tunes the browser launched by Open.
type Options struct {
	Headless  bool
	NoSandbox bool
}

// Open launches Chrome, navigates to url, and returns an evaluator bound to
// the tab. cancel closes the browser.
func Open(ctx context.Context, url string, opt Options) (*Evaluator, context.CancelFunc, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opt.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if opt.NoSandbox {
		opts = append(opts, chromedp.NoSandbox)
	}
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	tab, cancelTab := chromedp.NewContext(allocCtx)
	cancel := func() {
		cancelTab()
		cancelAlloc()
	}
	if err := chromedp.Run(tab, chromedp.Navigate(url), chromedp.WaitReady("body")); err != nil {
		cancel()
		return nil, nil, fmt.Errorf("open %s: %w", url, err)
	}
	return New(tab), cancel, nil
}

func (e *Evaluator) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(e.tab)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	if err := chromedp.Run(runCtx, actions...); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return nil
}

func quote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func (e *Evaluator) Exists(ctx context.Context, selector string) (bool, error) {
	var ok bool
	expr := fmt.Sprintf(`document.querySelector(%s) !== null`, quote(selector))
	if err := e.run(ctx, chromedp.Evaluate(expr, &ok)); err != nil {
		return false, err
	}
	return ok, nil
}

func (e *Evaluator) InnerText(ctx context.Context, selector string) (string, error) {
	var text string
	expr := fmt.Sprintf(`(function(){
const el = document.querySelector(%s);
if(!el) throw new Error("element not found");
if("value" in el && (el.tagName==="INPUT"||el.tagName==="TEXTAREA")) return el.value;
return %s.flatten(el).text;
})()`, quote(selector), flattenJS)
	if err := e.run(ctx, chromedp.Evaluate(expr, &text)); err != nil {
		return "", err
	}
	return text, nil
}

func (e *Evaluator) ReplaceText(ctx context.Context, selector string, offset, length int, text string) error {
	var ok bool
	expr := fmt.Sprintf(`(function(){
const el = document.querySelector(%s);
if(!el) return false;
const off = %d, len = %d, ins = %s;
if(el.tagName==="INPUT"||el.tagName==="TEXTAREA"){
  const cps = Array.from(el.value);
  el.value = cps.slice(0, off).join("") + ins + cps.slice(off+len).join("");
} else {
  const end = off + len; let placed = false;
  for(const p of %s.flatten(el).parts){
    const pEnd = p.start + p.len;
    if(pEnd < off || p.start > end) continue;
    if(len > 0 && (pEnd === off || p.start === end)) continue;
    const cps = Array.from(p.node.data);
    const from = Math.max(off - p.start, 0), to = Math.min(end - p.start, cps.length);
    p.node.data = cps.slice(0, from).join("") + (placed ? "" : ins) + cps.slice(to).join("");
    placed = true;
  }
  if(!placed) return false;
}
el.dispatchEvent(new InputEvent("input", {bubbles: true, inputType: "insertReplacementText", data: ins}));
return true;
})()`, quote(selector), offset, length, quote(text), flattenJS)
	if err := e.run(ctx, chromedp.Evaluate(expr, &ok)); err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("replace in %s: span not found", selector)
	}
	return nil
}
