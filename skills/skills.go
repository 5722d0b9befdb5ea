// Package skills discovers user-invocable skills from installed Claude
// Code plugins.
package skills

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/claudegram/claudegram/logger"
)

// Skill is one invocable skill exposed by an installed plugin.
type Skill struct {
	Name   string // e.g. "commit" or "tasks:build"
	Plugin string // plugin name without the marketplace suffix
	Slash  string // slash form, e.g. "/commit"
}

// installedPluginsFile mirrors ~/.claude/plugins/installed_plugins.json.
type installedPluginsFile struct {
	Plugins map[string][]pluginVersion `json:"plugins"`
}

type pluginVersion struct {
	InstallPath string `json:"installPath"`
}

// DefaultPluginsDir returns the Claude CLI's plugin directory.
func DefaultPluginsDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".claude", "plugins"), nil
}

// Discover scans installed plugins for skills. Plugins expose them three
// ways: skills/<name>/SKILL.md, commands/**/*.md (nested paths join with
// ":"), and skills/<group>/<name>/SKILL.md. Duplicate names keep the
// first occurrence. A missing manifest yields an empty list, not an
// error: the bridge works fine with no skills installed.
func Discover(pluginsDir string) ([]Skill, error) {
	log := logger.WithComponent("skills")

	manifest := filepath.Join(pluginsDir, "installed_plugins.json")
	data, err := os.ReadFile(manifest)
	if os.IsNotExist(err) {
		log.Warn("no installed_plugins.json found", "path", manifest)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var installed installedPluginsFile
	if err := json.Unmarshal(data, &installed); err != nil {
		return nil, err
	}

	// Sort plugin keys so duplicate resolution is deterministic
	keys := make([]string, 0, len(installed.Plugins))
	for key := range installed.Plugins {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var skills []Skill
	seen := make(map[string]bool)

	add := func(name, plugin string) {
		if name == "" || seen[name] {
			return
		}
		seen[name] = true
		skills = append(skills, Skill{Name: name, Plugin: plugin, Slash: "/" + name})
	}

	for _, key := range keys {
		versions := installed.Plugins[key]
		if len(versions) == 0 {
			continue
		}
		installPath := versions[len(versions)-1].InstallPath
		pluginName, _, _ := strings.Cut(key, "@")

		for _, name := range findSkillManifests(installPath, 1) {
			add(name, pluginName)
		}
		for _, name := range findCommandSkills(filepath.Join(installPath, "commands")) {
			add(name, pluginName)
		}
		for _, name := range findSkillManifests(installPath, 2) {
			add(name, pluginName)
		}
	}

	sort.Slice(skills, func(i, j int) bool { return skills[i].Name < skills[j].Name })

	log.Info("discovered skills", "count", len(skills), "plugins", len(installed.Plugins))
	return skills, nil
}

// findSkillManifests walks an install path looking for SKILL.md files at
// the given depth below a "skills" directory: depth 1 matches
// skills/<name>/SKILL.md, depth 2 matches skills/<group>/<name>/SKILL.md.
func findSkillManifests(installPath string, depth int) []string {
	var names []string

	filepath.WalkDir(installPath, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() || d.Name() != "SKILL.md" {
			return nil
		}

		dir := filepath.Dir(path)
		anchor := dir
		for i := 0; i < depth; i++ {
			anchor = filepath.Dir(anchor)
		}
		if filepath.Base(anchor) == "skills" {
			names = append(names, filepath.Base(dir))
		}
		return nil
	})

	sort.Strings(names)
	return names
}

// findCommandSkills lists command markdown files under a plugin's
// commands directory, joining nested path segments with ":".
func findCommandSkills(commandsDir string) []string {
	var names []string

	filepath.WalkDir(commandsDir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(d.Name(), ".md") {
			return nil
		}

		rel, err := filepath.Rel(commandsDir, path)
		if err != nil {
			return nil
		}
		rel = strings.TrimSuffix(rel, ".md")
		names = append(names, strings.Join(strings.Split(rel, string(filepath.Separator)), ":"))
		return nil
	})

	sort.Strings(names)
	return names
}
