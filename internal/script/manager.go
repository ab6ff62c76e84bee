package script

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Load loads the script at path into a fresh namespace. The path is resolved
// per resolvePath; a script already loaded at the same resolved path is left
// alone. Reports whether a new script became active.
func (b *Bridge) Load(path string) bool {
	if path == "" {
		return false
	}
	resolved := b.resolvePath(path)
	if _, ok := b.plugins[resolved]; ok {
		b.log.Debug().Str("path", resolved).Err(ErrAlreadyLoaded).Msg("load skipped")
		return false
	}

	p := newPlugin(b, resolved)
	if !p.loadFile() {
		return false
	}
	b.plugins[resolved] = p
	b.order = append(b.order, resolved)
	b.log.Info().Str("path", resolved).Str("name", p.name).Msg("script loaded")
	return true
}

// Unload tears down the first active script matching name against its
// declared name, resolved path, or basename.
func (b *Bridge) Unload(name string) bool {
	p := b.findPlugin(name)
	if p == nil {
		b.log.Debug().Str("name", name).Err(ErrScriptNotFound).Msg("unload skipped")
		return false
	}
	b.removePlugin(p)
	p.destroy()
	b.log.Info().Str("path", p.path).Msg("script unloaded")
	return true
}

// Reload unloads a matching script and loads its file again into a fresh
// namespace. Reports whether the new load succeeded.
func (b *Bridge) Reload(name string) bool {
	p := b.findPlugin(name)
	if p == nil {
		return false
	}
	path := p.path
	b.removePlugin(p)
	p.destroy()
	return b.Load(path)
}

// findPlugin matches name against each active plugin's declared name, full
// path, and basename, in load order.
func (b *Bridge) findPlugin(name string) *Plugin {
	if name == "" {
		return nil
	}
	for _, path := range b.order {
		p, ok := b.plugins[path]
		if !ok {
			continue
		}
		if name == p.name || name == p.path || name == filepath.Base(p.path) {
			return p
		}
	}
	return nil
}

func (b *Bridge) removePlugin(p *Plugin) {
	delete(b.plugins, p.path)
	for i, path := range b.order {
		if path == p.path {
			b.order = append(b.order[:i], b.order[i+1:]...)
			return
		}
	}
}

// List prints the active-script table to the host, or a placeholder line
// when nothing is loaded.
func (b *Bridge) List() {
	if len(b.order) == 0 {
		b.out.Println("No Lua scripts loaded")
		return
	}

	b.host.Print("Name         Version  Filename             Description")
	b.host.Print("----         -------  --------             -----------")
	for _, p := range b.Plugins() {
		b.host.Print(p.describe())
	}
	b.host.Print("")
}

// manifest is the optional addons.toml sidecar controlling autoload.
type manifest struct {
	Disabled []string `toml:"disabled"`
}

// Autoload loads every script in the addon directory, in name order,
// skipping files listed as disabled in addons.toml. The working directory is
// switched to the addon dir for the duration, matching historical script
// expectations, and restored afterwards.
func (b *Bridge) Autoload() {
	dir := b.addonDir()
	entries, err := os.ReadDir(dir)
	if err != nil {
		b.log.Debug().Err(err).Str("dir", dir).Msg("no addon dir")
		return
	}

	disabled := make(map[string]bool)
	if data, err := os.ReadFile(filepath.Join(dir, "addons.toml")); err == nil {
		var m manifest
		if err := toml.Unmarshal(data, &m); err != nil {
			b.out.Println("Failed to read addons.toml: " + err.Error())
		}
		for _, name := range m.Disabled {
			disabled[name] = true
		}
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), Extension) {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	oldCwd, cwdErr := os.Getwd()
	if cwdErr == nil {
		if err := os.Chdir(dir); err != nil {
			cwdErr = err
		}
	}

	for _, name := range names {
		if disabled[name] {
			b.host.Print("Skipping " + name + " (disabled)")
			continue
		}
		b.host.Print("Autoloading " + name)
		b.Load(filepath.Join(dir, name))
	}

	if cwdErr == nil {
		if err := os.Chdir(oldCwd); err != nil {
			b.log.Warn().Err(err).Msg("restore cwd failed")
		}
	}
}
