// Package allowlist holds the set of emails allowed to register, taken
// from the conference registration export at startup.
package allowlist

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// AllowList is immutable once built; concurrent reads need no locking.
type AllowList struct {
	emails map[string]struct{}
}

// New builds an AllowList from already known addresses.
func New(emails ...string) *AllowList {
	a := &AllowList{emails: make(map[string]struct{}, len(emails))}
	for _, e := range emails {
		if n := NormalizeEmail(e); n != "" {
			a.emails[n] = struct{}{}
		}
	}
	return a
}

// NormalizeEmail lower-cases and trims an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Contains reports whether email (normalized first) is on the list.
// A nil AllowList contains nothing.
func (a *AllowList) Contains(email string) bool {
	if a == nil {
		return false
	}
	_, ok := a.emails[NormalizeEmail(email)]
	return ok
}

func (a *AllowList) Len() int {
	if a == nil {
		return 0
	}
	return len(a.emails)
}

// Parse reads one address per line. Blank lines, "#" comments and lines
// without an "@" (such as a CSV header) are skipped; for CSV rows the first
// field that looks like an address is used.
func Parse(r io.Reader) (*AllowList, error) {
	a := New()

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if email := pickEmail(line); email != "" {
			a.emails[email] = struct{}{}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading allow-list: %w", err)
	}

	return a, nil
}

func pickEmail(line string) string {
	for _, field := range strings.Split(line, ",") {
		field = strings.Trim(strings.TrimSpace(field), `"'`)
		if strings.Contains(field, "@") {
			return NormalizeEmail(field)
		}
	}
	return ""
}
