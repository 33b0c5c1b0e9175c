package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"geminicli2api-go/internal/constants"
	"geminicli2api-go/internal/credential"
)

// storedCredential is one entry of the credentials directory. Records that
// fail to parse keep their name so list/remove can still address them.
type storedCredential struct {
	Name   string
	Path   string
	Record *credential.Record
	Err    error
}

// credentialsDir resolves the managed directory, defaulting to
// ~/.geminicli2api/credentials like the serverside loader expects.
func credentialsDir(override string) (string, error) {
	if override != "" {
		return override, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, "."+constants.AppName, "credentials"), nil
}

func credentialPath(dir, name string) string {
	return filepath.Join(dir, name+".json")
}

// listCredentials reads every *.json record in the directory, sorted by name.
// A missing directory is an empty list, not an error.
func listCredentials(dir string) ([]storedCredential, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read credentials directory: %w", err)
	}

	var out []storedCredential
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		item := storedCredential{
			Name: strings.TrimSuffix(entry.Name(), ".json"),
			Path: path,
		}
		data, err := os.ReadFile(path)
		if err != nil {
			item.Err = err
		} else if rec, err := credential.ParseRecord(data); err != nil {
			item.Err = err
		} else {
			item.Record = rec
		}
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// nextCredentialName picks the first free credential_<i> slot.
func nextCredentialName(dir string) string {
	for i := 1; ; i++ {
		name := fmt.Sprintf("credential_%d", i)
		if _, err := os.Stat(credentialPath(dir, name)); errors.Is(err, fs.ErrNotExist) {
			return name
		}
	}
}

// selectCredentials filters the listing by name; an empty filter keeps all.
func selectCredentials(all []storedCredential, names []string) ([]storedCredential, error) {
	if len(names) == 0 {
		return all, nil
	}
	byName := make(map[string]storedCredential, len(all))
	for _, c := range all {
		byName[c.Name] = c
	}
	out := make([]storedCredential, 0, len(names))
	for _, name := range names {
		c, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("credential %q not found", name)
		}
		out = append(out, c)
	}
	return out, nil
}

// exportLines renders minimized records as GEMINI_CREDENTIALS_<i> fragments.
// Unreadable records and ones without a refresh token are skipped with a
// warning so one bad file does not block the rest.
func exportLines(creds []storedCredential, format string, now time.Time, warn func(string)) ([]string, error) {
	compose := false
	switch format {
	case "env", "":
	case "compose":
		compose = true
	default:
		return nil, fmt.Errorf("unknown export format %q (expected env or compose)", format)
	}

	var lines []string
	if compose {
		lines = append(lines,
			"# Add to your docker-compose.yml environment section:",
			"environment:")
	} else {
		lines = append(lines,
			"# Gemini Credentials - Add to your .env file",
			fmt.Sprintf("# Exported at %s", now.UTC().Format(time.RFC3339)),
			"")
	}

	exported := 0
	for _, c := range creds {
		if c.Err != nil || c.Record == nil {
			warn(fmt.Sprintf("skipping credential %q: unreadable record", c.Name))
			continue
		}
		minimal, err := c.Record.MinimalJSON()
		if err != nil {
			warn(fmt.Sprintf("skipping credential %q: %v", c.Name, err))
			continue
		}
		exported++
		if compose {
			lines = append(lines, fmt.Sprintf("  - GEMINI_CREDENTIALS_%d='%s'", exported, minimal))
			continue
		}
		lines = append(lines,
			fmt.Sprintf("# %s (%s)", c.Name, orUnknown(c.Record.Email)),
			fmt.Sprintf("GEMINI_CREDENTIALS_%d='%s'", exported, minimal),
			"")
	}
	if exported == 0 {
		return nil, fmt.Errorf("no exportable credentials")
	}
	return lines, nil
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
