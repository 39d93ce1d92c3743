package cmd

import (
	"fmt"
	"runtime"

	"github.com/gimbal-ghost/gimbal-ghost/types"
)

// VersionCmd prints the build version
type VersionCmd struct{}

func (cmd *VersionCmd) Run(appCtx *types.AppContext) error {
	fmt.Printf("gimbal-ghost %s (%s/%s, %s)\n", appCtx.VersionString(), runtime.GOOS, runtime.GOARCH, runtime.Version())
	return nil
}
