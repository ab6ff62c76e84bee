package script

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dshills/hookstorm/internal/hostapi"
	"github.com/dshills/hookstorm/internal/logging"
	"github.com/dshills/hookstorm/internal/words"
)

type fakeHook struct {
	kind    string
	name    string
	cmd     hostapi.CommandFunc
	pr      hostapi.PrintFunc
	srv     hostapi.ServerFunc
	timer   hostapi.TimerFunc
	removed bool
}

// fakeHost is an in-memory hostapi.Host. It records prints, issued commands,
// hook registrations, and deregistrations, and can replay events into the
// registered callbacks.
type fakeHost struct {
	printed  []string
	commands []string
	events   []string
	info     map[string]string

	nextID  hostapi.HookID
	hooks   map[hostapi.HookID]*fakeHook
	unhooks []hostapi.HookID

	regCount  int
	failOnReg int // 1-based registration index to refuse, 0 for never

	onCommand func(cmd string) // optional Command interception

	entrySeq    int
	entries     map[hostapi.EntryID]string
	entryRemove []hostapi.EntryID
}

func newFakeHost(configdir string) *fakeHost {
	return &fakeHost{
		info:    map[string]string{"configdir": configdir, "channel": "#test"},
		hooks:   make(map[hostapi.HookID]*fakeHook),
		entries: make(map[hostapi.EntryID]string),
	}
}

func (f *fakeHost) add(h *fakeHook) (hostapi.HookID, error) {
	f.regCount++
	if f.failOnReg != 0 && f.regCount >= f.failOnReg {
		return 0, errors.New("registration refused")
	}
	f.nextID++
	f.hooks[f.nextID] = h
	return f.nextID, nil
}

func (f *fakeHost) HookCommand(name string, priority int, help string, fn hostapi.CommandFunc) (hostapi.HookID, error) {
	return f.add(&fakeHook{kind: "command", name: strings.ToUpper(name), cmd: fn})
}

func (f *fakeHost) HookPrint(event string, priority int, fn hostapi.PrintFunc) (hostapi.HookID, error) {
	return f.add(&fakeHook{kind: "print", name: event, pr: fn})
}

func (f *fakeHost) HookPrintAttrs(event string, priority int, fn hostapi.PrintAttrsFunc) (hostapi.HookID, error) {
	return f.add(&fakeHook{kind: "print_attrs", name: event})
}

func (f *fakeHost) HookServer(event string, priority int, fn hostapi.ServerFunc) (hostapi.HookID, error) {
	return f.add(&fakeHook{kind: "server", name: event, srv: fn})
}

func (f *fakeHost) HookServerAttrs(event string, priority int, fn hostapi.ServerAttrsFunc) (hostapi.HookID, error) {
	return f.add(&fakeHook{kind: "server_attrs", name: event})
}

func (f *fakeHost) HookTimer(interval time.Duration, fn hostapi.TimerFunc) (hostapi.HookID, error) {
	return f.add(&fakeHook{kind: "timer", timer: fn})
}

func (f *fakeHost) Unhook(id hostapi.HookID) error {
	h, ok := f.hooks[id]
	if !ok || h.removed {
		return fmt.Errorf("unknown hook %d", id)
	}
	h.removed = true
	f.unhooks = append(f.unhooks, id)
	f.events = append(f.events, "unhook")
	return nil
}

func (f *fakeHost) Print(text string) {
	f.printed = append(f.printed, text)
	f.events = append(f.events, "print:"+text)
}

func (f *fakeHost) Command(cmd string) {
	f.commands = append(f.commands, cmd)
	if f.onCommand != nil {
		f.onCommand(cmd)
	}
}

func (f *fakeHost) Info(name string) string {
	return f.info[name]
}

func (f *fakeHost) AddPluginEntry(filename, name, desc, version string) (hostapi.EntryID, error) {
	f.entrySeq++
	id := hostapi.EntryID(fmt.Sprintf("entry-%d", f.entrySeq))
	f.entries[id] = name
	return id, nil
}

func (f *fakeHost) RemovePluginEntry(id hostapi.EntryID) {
	delete(f.entries, id)
	f.entryRemove = append(f.entryRemove, id)
	f.events = append(f.events, "rmentry")
}

// hook returns the first live registration matching kind and name.
func (f *fakeHost) hook(kind, name string) *fakeHook {
	for id := hostapi.HookID(1); id <= f.nextID; id++ {
		h, ok := f.hooks[id]
		if ok && !h.removed && h.kind == kind && h.name == name {
			return h
		}
	}
	return nil
}

func (f *fakeHost) timerHook() (hostapi.HookID, *fakeHook) {
	for id := hostapi.HookID(1); id <= f.nextID; id++ {
		h, ok := f.hooks[id]
		if ok && h.kind == "timer" {
			return id, h
		}
	}
	return 0, nil
}

func (f *fakeHost) printedContains(s string) bool {
	for _, line := range f.printed {
		if strings.Contains(line, s) {
			return true
		}
	}
	return false
}

// fireCommand tokenizes line and replays it into the named command hook.
func (f *fakeHost) fireCommand(t *testing.T, name, line string) hostapi.Eat {
	t.Helper()
	h := f.hook("command", strings.ToUpper(name))
	if h == nil {
		t.Fatalf("no command hook registered for %q", name)
	}
	var w, we hostapi.Words
	parts := strings.Fields(line)
	for i, p := range parts {
		w[i+1] = p
	}
	for i := range parts {
		we[i+1] = words.Join(parts, i)
	}
	return h.cmd(&w, &we)
}

func newTestBridge(t *testing.T) (*Bridge, *fakeHost) {
	t.Helper()
	host := newFakeHost(t.TempDir())
	b := New(host, logging.Nop())
	if err := b.Activate(); err != nil {
		t.Fatalf("Activate() error = %v", err)
	}
	return b, host
}

func writeScript(t *testing.T, b *Bridge, name, body string) string {
	t.Helper()
	dir := b.addonDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir addons: %v", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

func TestActivateRegistersCommandSurface(t *testing.T) {
	_, host := newTestBridge(t)

	for _, name := range []string{"", "LOAD", "UNLOAD", "RELOAD", "LUA"} {
		if host.hook("command", name) == nil {
			t.Errorf("command hook %q not registered", name)
		}
	}
	if !host.printedContains("Lua interface loaded") {
		t.Errorf("activation banner not printed, got %v", host.printed)
	}
}

func TestActivateRollbackOnFailure(t *testing.T) {
	host := newFakeHost(t.TempDir())
	host.failOnReg = 3
	b := New(host, logging.Nop())

	if err := b.Activate(); err == nil {
		t.Fatal("Activate() succeeded despite registration failure")
	}
	if got, want := len(host.unhooks), 2; got != want {
		t.Errorf("rolled back %d hooks, want %d", got, want)
	}
	if host.printedContains("Lua interface loaded") {
		t.Error("activation banner printed on failed activation")
	}
	if !host.printedContains("Failed to load Lua interface") {
		t.Errorf("failure not reported, got %v", host.printed)
	}
}

func TestLoadScript(t *testing.T) {
	b, host := newTestBridge(t)
	path := writeScript(t, b, "greet.lua", `
hs.register("greet", "1.0", "says hello")
print("hello from greet")
`)

	if !b.Load(path) {
		t.Fatal("Load() = false, want true")
	}
	if !host.printedContains("hello from greet") {
		t.Errorf("script output not captured, got %v", host.printed)
	}
	if len(host.entries) != 1 {
		t.Fatalf("plugin entries = %d, want 1", len(host.entries))
	}

	// Same resolved path loads only once.
	if b.Load(path) {
		t.Error("second Load() = true, want false")
	}
	if got := len(b.Plugins()); got != 1 {
		t.Errorf("active plugins = %d, want 1", got)
	}
}

func TestLoadRelativePathResolvesToAddonDir(t *testing.T) {
	b, _ := newTestBridge(t)
	writeScript(t, b, "rel.lua", `hs.register("rel")`)

	if !b.Load("rel.lua") {
		t.Fatal("Load() by bare filename = false, want true")
	}
}

func TestLoadWithoutRegisterFails(t *testing.T) {
	b, host := newTestBridge(t)
	path := writeScript(t, b, "anon.lua", `local x = 1`)

	if b.Load(path) {
		t.Fatal("Load() = true for script without hs.register")
	}
	if !host.printedContains("script information must be set with hs.register") {
		t.Errorf("missing-metadata failure not reported, got %v", host.printed)
	}
	if len(host.entries) != 0 {
		t.Error("plugin entry registered for failed load")
	}
	if got := len(b.Plugins()); got != 0 {
		t.Errorf("active plugins = %d, want 0", got)
	}
}

func TestLoadSyntaxErrorFails(t *testing.T) {
	b, host := newTestBridge(t)
	path := writeScript(t, b, "bad.lua", `this is not lua (`)

	if b.Load(path) {
		t.Fatal("Load() = true for unparsable script")
	}
	if !host.printedContains("Failed to load script") {
		t.Errorf("parse failure not reported, got %v", host.printed)
	}
}

func TestLoadFailureReleasesRegisteredHooks(t *testing.T) {
	b, host := newTestBridge(t)
	path := writeScript(t, b, "halfway.lua", `
hs.hook_command("LEAKY", function(word, word_eol, userdata)
	return hs.EAT_ALL
end)
error("top-level failure")
`)

	if b.Load(path) {
		t.Fatal("Load() = true for script that fails after hooking")
	}
	if host.hook("command", "LEAKY") != nil {
		t.Error("native command hook survived the failed load")
	}
	if got := len(b.hooks); got != 0 {
		t.Errorf("bridge hook index holds %d entries after failed load, want 0", got)
	}
	if got := len(host.unhooks); got != 1 {
		t.Errorf("native deregistrations = %d, want 1", got)
	}
	if got := len(b.Plugins()); got != 0 {
		t.Errorf("active plugins = %d, want 0", got)
	}
}

func TestCommandHookDispatch(t *testing.T) {
	b, host := newTestBridge(t)
	path := writeScript(t, b, "cmd.lua", `
hs.register("cmd")
hs.hook_command("HELLO", function(word, word_eol, userdata)
	print("arg: " .. word[2])
	return hs.EAT_ALL
end)
`)
	if !b.Load(path) {
		t.Fatal("Load() failed")
	}

	eat := host.fireCommand(t, "HELLO", "HELLO world")
	if eat != hostapi.EatAll {
		t.Errorf("eat = %d, want EatAll", eat)
	}
	if !host.printedContains("arg: world") {
		t.Errorf("callback output missing, got %v", host.printed)
	}
}

func TestPrintHookDerivesWordEOL(t *testing.T) {
	b, host := newTestBridge(t)
	path := writeScript(t, b, "texthook.lua", `
hs.register("texthook")
hs.hook_print("Channel Message", function(word, word_eol, userdata)
	print("eol1: " .. word_eol[1])
	print("eol2: " .. word_eol[2])
end)
`)
	if !b.Load(path) {
		t.Fatal("Load() failed")
	}

	h := host.hook("print", "Channel Message")
	if h == nil {
		t.Fatal("print hook not registered")
	}
	var w hostapi.Words
	w[1], w[2], w[3] = "nick", "hello", "world"
	h.pr(&w)

	if !host.printedContains("eol1: nick hello world") {
		t.Errorf("word_eol[1] wrong, got %v", host.printed)
	}
	if !host.printedContains("eol2: hello world") {
		t.Errorf("word_eol[2] wrong, got %v", host.printed)
	}
}

func TestHookCallbackNilReturnPropagates(t *testing.T) {
	b, host := newTestBridge(t)
	path := writeScript(t, b, "nilret.lua", `
hs.register("nilret")
hs.hook_command("PASS", function(word, word_eol, userdata) end)
`)
	if !b.Load(path) {
		t.Fatal("Load() failed")
	}

	if eat := host.fireCommand(t, "PASS", "PASS"); eat != hostapi.EatNone {
		t.Errorf("eat = %d, want EatNone for nil return", eat)
	}
}

func TestHookCallbackErrorReportedAndPropagates(t *testing.T) {
	b, host := newTestBridge(t)
	path := writeScript(t, b, "boom.lua", `
hs.register("boom")
hs.hook_command("BOOM", function(word, word_eol, userdata)
	error("kaboom")
end)
`)
	if !b.Load(path) {
		t.Fatal("Load() failed")
	}

	if eat := host.fireCommand(t, "BOOM", "BOOM"); eat != hostapi.EatNone {
		t.Errorf("eat = %d, want EatNone after callback error", eat)
	}
	if !host.printedContains("kaboom") {
		t.Errorf("callback error not reported, got %v", host.printed)
	}
}

func TestUnhookReturnsUserdata(t *testing.T) {
	b, host := newTestBridge(t)
	path := writeScript(t, b, "ud.lua", `
hs.register("ud")
local id = hs.hook_command("TEMP", function() end, {userdata = "my-data"})
local ud = hs.unhook(id)
print("got: " .. tostring(ud))
`)
	if !b.Load(path) {
		t.Fatal("Load() failed")
	}

	if !host.printedContains("got: my-data") {
		t.Errorf("userdata not returned from unhook, got %v", host.printed)
	}
	if got := len(host.unhooks); got != 1 {
		t.Errorf("native unhooks = %d, want 1", got)
	}
}

func TestUnhookUnknownHandleReported(t *testing.T) {
	b, host := newTestBridge(t)
	path := writeScript(t, b, "nohook.lua", `
hs.register("nohook")
hs.unhook(9999)
`)
	if !b.Load(path) {
		t.Fatal("Load() failed")
	}
	if !host.printedContains("hook not found") {
		t.Errorf("unknown handle not reported, got %v", host.printed)
	}
}

func TestTimerDemotion(t *testing.T) {
	b, host := newTestBridge(t)
	path := writeScript(t, b, "tick.lua", `
hs.register("tick")
ticks = 0
hs.hook_timer(1000, function(userdata)
	ticks = ticks + 1
	print("tick " .. ticks)
	return ticks < 2
end)
`)
	if !b.Load(path) {
		t.Fatal("Load() failed")
	}

	id, timer := host.timerHook()
	if timer == nil {
		t.Fatal("no timer registered")
	}

	if !timer.timer() {
		t.Fatal("first fire = false, want true (re-arm)")
	}
	if timer.timer() {
		t.Fatal("second fire = true, want false (stop)")
	}
	timer.removed = true // host disarms on false

	// The stopped timer was demoted; unload must not deregister it again.
	if !b.Unload("tick") {
		t.Fatal("Unload() failed")
	}
	for _, un := range host.unhooks {
		if un == id {
			t.Error("stopped timer was natively deregistered")
		}
	}
	if !host.printedContains("tick 1") || !host.printedContains("tick 2") {
		t.Errorf("timer output missing, got %v", host.printed)
	}
}

func TestUnloadRunsUnloadHooksBeforeDeregistration(t *testing.T) {
	b, host := newTestBridge(t)
	path := writeScript(t, b, "bye.lua", `
hs.register("bye")
hs.hook_command("NOOP", function() end)
hs.hook_unload(function(userdata)
	hs.prnt("goodbye")
end)
`)
	if !b.Load(path) {
		t.Fatal("Load() failed")
	}

	if !b.Unload("bye") {
		t.Fatal("Unload() failed")
	}

	goodbyeAt, unhookAt, rmentryAt := -1, -1, -1
	for i, ev := range host.events {
		switch {
		case ev == "print:goodbye" && goodbyeAt < 0:
			goodbyeAt = i
		case ev == "unhook" && i > goodbyeAt && unhookAt < 0:
			unhookAt = i
		case ev == "rmentry":
			rmentryAt = i
		}
	}
	if goodbyeAt < 0 {
		t.Fatal("unload hook did not run")
	}
	if unhookAt < 0 || unhookAt < goodbyeAt {
		t.Error("native deregistration did not follow the unload hook")
	}
	if rmentryAt < unhookAt {
		t.Error("plugin entry removed before hooks were released")
	}
}

func TestUnloadHookErrorDoesNotAbortTeardown(t *testing.T) {
	b, host := newTestBridge(t)
	path := writeScript(t, b, "badbye.lua", `
hs.register("badbye")
hs.hook_command("NOOP2", function() end)
hs.hook_unload(function(userdata) error("teardown boom") end)
hs.hook_unload(function(userdata) hs.prnt("second ran") end)
`)
	if !b.Load(path) {
		t.Fatal("Load() failed")
	}

	if !b.Unload("badbye") {
		t.Fatal("Unload() failed")
	}
	if !host.printedContains("Failed to run hook") {
		t.Errorf("unload hook failure not reported, got %v", host.printed)
	}
	if !host.printedContains("second ran") {
		t.Error("later unload hook skipped after earlier failure")
	}
	if len(host.entries) != 0 {
		t.Error("plugin entry survived teardown")
	}
}

func TestUnloadMatchesNamePathAndBasename(t *testing.T) {
	b, _ := newTestBridge(t)
	body := `hs.register("matchy")`

	path := writeScript(t, b, "matchy.lua", body)
	for _, key := range []string{"matchy", path, "matchy.lua"} {
		if !b.Load(path) {
			t.Fatalf("Load() failed for key %q", key)
		}
		if !b.Unload(key) {
			t.Errorf("Unload(%q) = false, want true", key)
		}
	}
	if b.Unload("matchy") {
		t.Error("Unload() = true with nothing loaded")
	}
}

func TestSelfUnloadFromCallbackCompletes(t *testing.T) {
	b, host := newTestBridge(t)
	path := writeScript(t, b, "selfie.lua", `
hs.register("selfie")
hs.hook_command("GO", function(word, word_eol, userdata)
	hs.command("SELFUNLOAD")
	print("survived self-unload")
	return hs.EAT_ALL
end)
`)
	if !b.Load(path) {
		t.Fatal("Load() failed")
	}
	p := b.Plugins()[0]
	host.onCommand = func(cmd string) {
		if cmd == "SELFUNLOAD" {
			if !b.Unload("selfie") {
				t.Error("Unload() from inside callback failed")
			}
		}
	}

	eat := host.fireCommand(t, "GO", "GO")
	if eat != hostapi.EatAll {
		t.Errorf("eat = %d, want EatAll from the completed callback", eat)
	}
	if !host.printedContains("survived self-unload") {
		t.Errorf("callback did not run to completion, got %v", host.printed)
	}
	if got := len(b.Plugins()); got != 0 {
		t.Errorf("active plugins = %d, want 0", got)
	}
	if len(host.entries) != 0 {
		t.Error("plugin entry survived self-unload")
	}
	if !p.state.IsClosed() {
		t.Error("namespace still open after the callback unwound")
	}
}

func TestReloadGetsFreshNamespace(t *testing.T) {
	b, host := newTestBridge(t)
	path := writeScript(t, b, "fresh.lua", `
hs.register("fresh")
if counter == nil then counter = 0 end
counter = counter + 1
print("counter " .. counter)
`)
	if !b.Load(path) {
		t.Fatal("Load() failed")
	}
	if b.Reload("nosuch") {
		t.Error("Reload() of unknown name = true, want false")
	}
	if !b.Reload("fresh") {
		t.Fatal("Reload() failed")
	}

	count := 0
	for _, line := range host.printed {
		if line == "counter 1" {
			count++
		}
	}
	if count != 2 {
		t.Errorf("got %d fresh-namespace runs, want 2 (printed %v)", count, host.printed)
	}
}

func TestListOutput(t *testing.T) {
	b, host := newTestBridge(t)

	b.List()
	if !host.printedContains("No Lua scripts loaded") {
		t.Errorf("empty list placeholder missing, got %v", host.printed)
	}

	path := writeScript(t, b, "listed.lua", `hs.register("listed", "2.1")`)
	if !b.Load(path) {
		t.Fatal("Load() failed")
	}
	host.printed = nil
	b.List()

	want := fmt.Sprintf("%-12s %-8s %-20s %-10s", "listed", "2.1", "listed.lua", "<none>")
	if !host.printedContains(want) {
		t.Errorf("list row %q missing, got %v", want, host.printed)
	}
	if host.printed[0] != "Name         Version  Filename             Description" {
		t.Errorf("list header = %q", host.printed[0])
	}
	if host.printed[len(host.printed)-1] != "" {
		t.Error("list output missing trailing blank line")
	}
}

func TestLuaExecEvaluatesExpression(t *testing.T) {
	_, host := newTestBridge(t)

	host.fireCommand(t, "LUA", "LUA EXEC 1 + 2")
	if !host.printedContains("3") {
		t.Errorf("expression result not printed, got %v", host.printed)
	}
}

func TestConsoleStatePersistsAcrossLines(t *testing.T) {
	_, host := newTestBridge(t)

	host.fireCommand(t, "LUA", "LUA EXEC stash = 41")
	host.fireCommand(t, "LUA", "LUA EXEC stash + 1")
	if !host.printedContains("42") {
		t.Errorf("console did not keep state, got %v", host.printed)
	}
}

func TestConsoleQueryRouting(t *testing.T) {
	_, host := newTestBridge(t)

	host.info["channel"] = ConsoleChannel
	eat := host.fireCommand(t, "", "greeting = 7")
	if eat != hostapi.EatAll {
		t.Errorf("console input eat = %d, want EatAll", eat)
	}
	if !host.printedContains(">>> greeting = 7") {
		t.Errorf("console echo missing, got %v", host.printed)
	}

	host.fireCommand(t, "", "greeting")
	if !host.printedContains("7") {
		t.Errorf("console result missing, got %v", host.printed)
	}

	host.info["channel"] = "#elsewhere"
	if eat := host.fireCommand(t, "", "hello there"); eat != hostapi.EatNone {
		t.Errorf("ordinary input eat = %d, want EatNone", eat)
	}
}

func TestLuaConsoleCommandOpensQuery(t *testing.T) {
	_, host := newTestBridge(t)

	host.fireCommand(t, "LUA", "LUA CONSOLE")
	found := false
	for _, cmd := range host.commands {
		if cmd == "QUERY "+ConsoleChannel {
			found = true
		}
	}
	if !found {
		t.Errorf("QUERY command not issued, got %v", host.commands)
	}
}

func TestLuaUnknownSubcommandShowsHelp(t *testing.T) {
	_, host := newTestBridge(t)

	if eat := host.fireCommand(t, "LUA", "LUA FROBNICATE"); eat != hostapi.EatAll {
		t.Errorf("eat = %d, want EatAll", eat)
	}
	found := false
	for _, cmd := range host.commands {
		if cmd == "HELP LUA" {
			found = true
		}
	}
	if !found {
		t.Errorf("HELP LUA not issued, got %v", host.commands)
	}
}

func TestLuaAboutPrintsVersion(t *testing.T) {
	_, host := newTestBridge(t)

	host.fireCommand(t, "LUA", "LUA ABOUT")
	if !host.printedContains("Lua interface version "+Version) {
		t.Errorf("about line missing, got %v", host.printed)
	}
}

func TestGenericLoadInterception(t *testing.T) {
	b, host := newTestBridge(t)
	writeScript(t, b, "generic.lua", `hs.register("generic")`)

	if eat := host.fireCommand(t, "LOAD", "LOAD notascript.txt"); eat != hostapi.EatNone {
		t.Errorf("non-.lua /LOAD eat = %d, want EatNone", eat)
	}
	if eat := host.fireCommand(t, "LOAD", "LOAD generic.lua"); eat != hostapi.EatAll {
		t.Errorf(".lua /LOAD eat = %d, want EatAll", eat)
	}
	if got := len(b.Plugins()); got != 1 {
		t.Errorf("active plugins = %d, want 1", got)
	}
	if eat := host.fireCommand(t, "UNLOAD", "UNLOAD generic.lua"); eat != hostapi.EatAll {
		t.Errorf(".lua /UNLOAD eat = %d, want EatAll", eat)
	}
	if got := len(b.Plugins()); got != 0 {
		t.Errorf("active plugins after unload = %d, want 0", got)
	}
}

func TestAutoloadSkipsDisabled(t *testing.T) {
	host := newFakeHost(t.TempDir())
	b := New(host, logging.Nop())

	dir := b.addonDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir addons: %v", err)
	}
	files := map[string]string{
		"alpha.lua":   `hs.register("alpha")`,
		"beta.lua":    `hs.register("beta")`,
		"notes.txt":   "not a script",
		"addons.toml": "disabled = [\"beta.lua\"]\n",
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	if err := b.Activate(); err != nil {
		t.Fatalf("Activate() error = %v", err)
	}

	if !host.printedContains("Autoloading alpha.lua") {
		t.Errorf("alpha not autoloaded, got %v", host.printed)
	}
	if !host.printedContains("Skipping beta.lua (disabled)") {
		t.Errorf("beta not skipped, got %v", host.printed)
	}
	if got := len(b.Plugins()); got != 1 {
		t.Errorf("active plugins = %d, want 1", got)
	}
}

func TestDeactivateTearsEverythingDown(t *testing.T) {
	b, host := newTestBridge(t)
	path := writeScript(t, b, "tidy.lua", `
hs.register("tidy")
hs.hook_command("TIDY", function() end)
`)
	if !b.Load(path) {
		t.Fatal("Load() failed")
	}
	host.fireCommand(t, "LUA", "LUA EXEC 1 + 1") // materialize the console

	b.Deactivate()

	if got := len(b.Plugins()); got != 0 {
		t.Errorf("active plugins = %d, want 0", got)
	}
	if len(host.entries) != 0 {
		t.Errorf("plugin entries survived: %v", host.entries)
	}
	for id, h := range host.hooks {
		if !h.removed {
			t.Errorf("hook %d still registered after deactivation", id)
		}
	}
}
