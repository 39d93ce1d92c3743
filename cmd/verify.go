package cmd

import (
	"context"
	"fmt"

	"github.com/gimbal-ghost/gimbal-ghost/types"
	"github.com/gimbal-ghost/gimbal-ghost/ui"
	"github.com/gimbal-ghost/gimbal-ghost/video"
)

// VerifyCmd checks rendered overlays. Every file must exist and be non-empty, and
// with --probe ffprobe must be able to read its video stream.
type VerifyCmd struct {
	Files   []string `arg:"" name:"files" help:"Rendered overlay files to verify" type:"existingfile"`
	Probe   bool     `help:"Read each overlay with ffprobe"`
	FFprobe string   `name:"ffprobe" help:"ffprobe executable" default:"ffprobe"`
}

// Run verifies every file and fails when any of them is broken
func (cmd *VerifyCmd) Run(appCtx *types.AppContext) error {
	logger := appCtx.Log()
	fmt.Printf("%s\n", ui.InfoStyle.Render(fmt.Sprintf("Verifying %d files...", len(cmd.Files))))

	var verified, failed int

	for _, file := range cmd.Files {
		if !video.IsOverlayFile(file) {
			fmt.Printf("⚠️  %s is not a %s overlay, skipping\n", file, video.OutputExtension)
			continue
		}

		if err := video.ValidateOutput(file); err != nil {
			fmt.Printf("%s\n", ui.ErrorStyle.Render(fmt.Sprintf("❌ %v", err)))
			failed++
			continue
		}

		if !cmd.Probe {
			fmt.Printf("%s\n", ui.SuccessStyle.Render(fmt.Sprintf("✅ %s", file)))
			verified++
			continue
		}

		info, err := video.ProbeOutput(context.Background(), cmd.FFprobe, file)
		if err != nil {
			logger.Debugw("probe failed", "file", file, "error", err)
			fmt.Printf("%s\n", ui.ErrorStyle.Render(fmt.Sprintf("❌ %v", err)))
			failed++
			continue
		}
		fmt.Printf("%s\n", ui.SuccessStyle.Render(fmt.Sprintf("✅ %s (%s, %s, %.2fs)", file, info.Resolution, info.Codec, info.Duration)))
		verified++
	}

	fmt.Printf("\n%s\n", ui.InfoStyle.Render(fmt.Sprintf("✅ Verified: %d, ❌ Failed: %d", verified, failed)))
	if failed > 0 {
		return fmt.Errorf("%d overlays failed verification", failed)
	}
	return nil
}
