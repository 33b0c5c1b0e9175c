// Command authctl manages the OAuth credentials the gateway serves with:
// interactive login, listing, removal, and export as environment fragments.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"geminicli2api-go/internal/config"
	"geminicli2api-go/internal/credential"
	"geminicli2api-go/internal/oauth"
)

const usageText = `Usage: authctl auth <command> [options]

Commands:
  auth add [--name N] [--project P] [--no-browser]   Log in and store a credential
  auth list                                          List stored credentials
  auth remove <name>                                 Delete a stored credential
  auth export [--format env|compose] [-o FILE] [names...]
                                                     Export credentials as env fragments

All commands accept --dir to override the credentials directory
(default ~/.geminicli2api/credentials).
`

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) < 2 || args[0] != "auth" {
		fmt.Fprint(os.Stderr, usageText)
		return 1
	}
	switch args[1] {
	case "add":
		return cmdAdd(args[2:])
	case "list":
		return cmdList(args[2:])
	case "remove":
		return cmdRemove(args[2:])
	case "export":
		return cmdExport(args[2:])
	default:
		fmt.Fprint(os.Stderr, usageText)
		return 1
	}
}

// loadConfig picks up config.yaml plus env overrides so the CLI honors the
// same OAuth tuning as the server; broken config falls back to defaults.
func loadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v; using built-in defaults\n", err)
		return config.Default()
	}
	return cfg
}

func cmdAdd(args []string) int {
	fs := flag.NewFlagSet("auth add", flag.ContinueOnError)
	name := fs.String("name", "", "Custom name for the credential")
	project := fs.String("project", "", "Project ID to record alongside the credential")
	noBrowser := fs.Bool("no-browser", false, "Print the consent URL instead of opening a browser")
	dirFlag := fs.String("dir", "", "Credentials directory")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	dir, err := credentialsDir(*dirFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	cfg := loadConfig()
	var opts []oauth.ManagerOption
	if *noBrowser {
		opts = append(opts, oauth.WithBrowserOpener(func(string) error { return nil }))
	}
	mgr := oauth.NewManager(cfg.OAuth, opts...)

	fmt.Println("Starting OAuth authentication...")
	ctx := context.Background()
	tok, err := mgr.Authorize(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Authentication failed: %v\n", err)
		return 1
	}

	email, err := mgr.UserEmail(ctx, tok.AccessToken)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not fetch account email: %v\n", err)
	} else if email != "" {
		fmt.Printf("Authenticated as: %s\n", email)
	}

	credName := *name
	if credName == "" {
		credName = nextCredentialName(dir)
	}
	path := credentialPath(dir, credName)
	if _, statErr := os.Stat(path); statErr == nil {
		if !confirm(fmt.Sprintf("Credential '%s' already exists. Overwrite? [y/N]: ", credName)) {
			fmt.Println("Cancelled.")
			return 1
		}
	}

	rec := &credential.Record{
		ClientID:     cfg.OAuth.ClientID,
		ClientSecret: cfg.OAuth.ClientSecret,
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		Scopes:       append([]string(nil), cfg.OAuth.Scopes...),
		TokenURI:     cfg.OAuth.TokenURL,
		Expiry:       tok.Expiry,
		ProjectID:    *project,
		Email:        email,
		CreatedAt:    time.Now().UTC().Format(time.RFC3339),
	}
	data, err := rec.EncodeJSON()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: encode credential: %v\n", err)
		return 1
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		fmt.Fprintf(os.Stderr, "Error: create credentials directory: %v\n", err)
		return 1
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		fmt.Fprintf(os.Stderr, "Error: write credential: %v\n", err)
		return 1
	}

	fmt.Println("\nCredential saved successfully!")
	fmt.Printf("  Name: %s\n", credName)
	fmt.Printf("  Path: %s\n", path)
	if email != "" {
		fmt.Printf("  Email: %s\n", email)
	}
	return 0
}

func cmdList(args []string) int {
	fs := flag.NewFlagSet("auth list", flag.ContinueOnError)
	dirFlag := fs.String("dir", "", "Credentials directory")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	dir, err := credentialsDir(*dirFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	creds, err := listCredentials(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if len(creds) == 0 {
		fmt.Println("No credentials found.")
		fmt.Printf("\nCredentials directory: %s\n", dir)
		fmt.Println("Run 'authctl auth add' to add a credential.")
		return 0
	}

	fmt.Printf("Found %d credential(s):\n\n", len(creds))
	fmt.Printf("%-20s %-35s %-20s %-20s\n", "Name", "Email", "Project", "Expiry")
	fmt.Println(strings.Repeat("-", 97))
	for _, c := range creds {
		fmt.Printf("%-20s %-35s %-20s %-20s\n",
			c.Name, listEmail(c), listProject(c), listExpiry(c))
	}
	fmt.Printf("\nCredentials directory: %s\n", dir)
	return 0
}

func listEmail(c storedCredential) string {
	if c.Err != nil || c.Record == nil {
		return "error reading file"
	}
	email := orUnknown(c.Record.Email)
	if len(email) > 33 {
		email = email[:30] + "..."
	}
	return email
}

func listProject(c storedCredential) string {
	if c.Err != nil || c.Record == nil {
		return "error"
	}
	return orUnknown(c.Record.ProjectID)
}

func listExpiry(c storedCredential) string {
	if c.Err != nil || c.Record == nil {
		return "error"
	}
	if c.Record.Expiry.IsZero() {
		return "unknown"
	}
	return c.Record.Expiry.UTC().Format("2006-01-02 15:04")
}

func cmdRemove(args []string) int {
	fs := flag.NewFlagSet("auth remove", flag.ContinueOnError)
	dirFlag := fs.String("dir", "", "Credentials directory")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: authctl auth remove <name>")
		return 1
	}
	name := fs.Arg(0)

	dir, err := credentialsDir(*dirFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	path := credentialPath(dir, name)
	if _, err := os.Stat(path); err != nil {
		fmt.Printf("Credential '%s' not found.\n", name)
		return 1
	}
	if !confirm(fmt.Sprintf("Remove credential '%s'? [y/N]: ", name)) {
		fmt.Println("Cancelled.")
		return 0
	}
	if err := os.Remove(path); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to remove credential '%s': %v\n", name, err)
		return 1
	}
	fmt.Printf("Credential '%s' removed.\n", name)
	return 0
}

func cmdExport(args []string) int {
	fs := flag.NewFlagSet("auth export", flag.ContinueOnError)
	format := fs.String("format", "env", "Output format: env or compose")
	output := fs.String("o", "", "Output file (default stdout)")
	dirFlag := fs.String("dir", "", "Credentials directory")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	dir, err := credentialsDir(*dirFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	all, err := listCredentials(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if len(all) == 0 {
		fmt.Println("No credentials found to export.")
		return 1
	}
	selected, err := selectCredentials(all, fs.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	lines, err := exportLines(selected, *format, time.Now(), func(msg string) {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", msg)
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	body := strings.Join(lines, "\n") + "\n"
	if *output != "" {
		if err := os.WriteFile(*output, []byte(body), 0o600); err != nil {
			fmt.Fprintf(os.Stderr, "Error: write %s: %v\n", *output, err)
			return 1
		}
		fmt.Printf("Exported %d credential(s) to %s\n", len(selected), filepath.Clean(*output))
		return 0
	}
	fmt.Print(body)
	return 0
}

func confirm(prompt string) bool {
	fmt.Print(prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(line), "y")
}
