//go:build !linux

package proctitle

import (
	"os"
	"strings"
)

// Set rewrites os.Args[0] only; there is no portable kernel facility
// off Linux.
func Set(title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil
	}
	if len(os.Args) > 0 {
		os.Args[0] = title
	}
	return nil
}
