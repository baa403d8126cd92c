package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/afero"

	"github.com/marcelocantos/dsh/internal/audit"
)

// RunAuditVerify checks the hash chain of the audit log at logPath.
func RunAuditVerify(w io.Writer, fsys afero.Fs, logPath string) int {
	if err := audit.Verify(fsys, logPath); err != nil {
		fmt.Fprintf(w, "audit verification FAILED: %v\n", err)
		return 1
	}
	fmt.Fprintln(w, "audit log integrity verified")
	return 0
}

// RunAuditTail prints the last n audit entries.
func RunAuditTail(w io.Writer, fsys afero.Fs, logPath string, n int) int {
	entries, err := audit.Tail(fsys, logPath, n)
	if err != nil {
		fmt.Fprintf(w, "dsh audit: %v\n", err)
		return 1
	}
	if len(entries) == 0 {
		fmt.Fprintln(w, "no audit entries")
		return 0
	}
	for _, e := range entries {
		data, _ := json.MarshalIndent(e, "", "  ")
		fmt.Fprintf(w, "%s\n", data)
	}
	return 0
}
