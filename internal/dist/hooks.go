// SPDX-License-Identifier: MPL-2.0

package dist

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"ucdist/internal/recipe"

	"github.com/charmbracelet/log"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// HookEnv carries the variables exposed to hook scripts.
type HookEnv struct {
	// StagingRoot is exported as UCDIST_STAGING.
	StagingRoot string
	// OutputPath is exported as UCDIST_OUTPUT. It names the archive the
	// build will write, so post_stage hooks see it before assembly.
	OutputPath string
}

// RunHook executes a recipe hook script through the built-in POSIX
// interpreter, with the staging root as working directory. Hooks run in the
// same interpreter on every platform, so recipes stay portable.
//
// name is used in error messages ("post_stage", "post_build").
func RunHook(ctx context.Context, name, script string, env HookEnv, stdout, stderr io.Writer) error {
	if strings.TrimSpace(script) == "" {
		return nil
	}

	prog, err := syntax.NewParser().Parse(strings.NewReader(script), name)
	if err != nil {
		return fmt.Errorf("hook %s has a syntax error: %w", name, err)
	}

	vars := append(os.Environ(),
		"UCDIST_STAGING="+env.StagingRoot,
		"UCDIST_OUTPUT="+env.OutputPath,
	)

	runner, err := interp.New(
		interp.Dir(env.StagingRoot),
		interp.Env(expand.ListEnviron(vars...)),
		interp.StdIO(nil, stdout, stderr),
	)
	if err != nil {
		return fmt.Errorf("failed to initialize hook interpreter: %w", err)
	}

	log.Debug("running hook", "name", name)
	if err := runner.Run(ctx, prog); err != nil {
		return fmt.Errorf("hook %s failed: %w", name, err)
	}
	return nil
}

// ValidateHooks parses all hook scripts without executing them, so recipe
// errors surface at load time rather than mid-build.
func ValidateHooks(hooks recipe.Hooks) error {
	for name, script := range map[string]string{
		"post_stage": hooks.PostStage,
		"post_build": hooks.PostBuild,
	} {
		if strings.TrimSpace(script) == "" {
			continue
		}
		if _, err := syntax.NewParser().Parse(strings.NewReader(script), name); err != nil {
			return fmt.Errorf("hook %s has a syntax error: %w", name, err)
		}
	}
	return nil
}
