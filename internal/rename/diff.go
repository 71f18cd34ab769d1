// SPDX-License-Identifier: MPL-2.0

package rename

import (
	"strings"

	"github.com/aymanbagabas/go-udiff"
)

// UnifiedDiff renders a dry-run change as a unified diff, labeled with the
// file's relative path on both sides. Returns "" for changes that were not
// captured in dry-run mode.
func UnifiedDiff(c FileChange) string {
	if c.Before == "" && c.After == "" {
		return ""
	}
	return strings.TrimSpace(udiff.Unified(
		"a/"+c.Path,
		"b/"+c.Path,
		c.Before,
		c.After,
	))
}
