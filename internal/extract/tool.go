package extract

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/pontikos-lab/open-sight/internal/logger"
)

// DefaultToolName is the crystal-eye converter binary name searched on PATH
// when no explicit location is configured.
const DefaultToolName = "crystal-eye"

// EnvToolPath is the environment variable that overrides converter discovery.
const EnvToolPath = "CRYSTAL_EYE_PATH"

// ResolveToolPath locates the crystal-eye converter binary. Resolution order:
// the explicit override, the CRYSTAL_EYE_PATH environment variable, then a
// PATH search for the default binary name.
//
// Returns an empty string when the converter cannot be found. The warning is
// emitted exactly once, here at startup; matching files are then silently
// skipped for the rest of the run rather than reported per file.
func ResolveToolPath(override string, log logger.Logger) string {
	candidate := override
	if candidate == "" {
		candidate = os.Getenv(EnvToolPath)
	}
	if candidate == "" {
		candidate = DefaultToolName
	}

	if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
		log.LogInfo(fmt.Sprintf("crystal-eye found at: %s", candidate))
		return candidate
	}

	if resolved, err := exec.LookPath(candidate); err == nil {
		log.LogInfo(fmt.Sprintf("crystal-eye found at: %s", resolved))
		return resolved
	}

	log.LogWarn(fmt.Sprintf(
		"crystal-eye not found at: %s - only DICOM files will be processed, if any; use --tool-path or export %s=<path>",
		candidate, EnvToolPath))
	return ""
}
