package cmd

import (
	"fmt"

	"github.com/gimbal-ghost/gimbal-ghost/sticks"
	"github.com/gimbal-ghost/gimbal-ghost/types"
	"github.com/gimbal-ghost/gimbal-ghost/ui"
)

// SticksCmd checks a sprite pack before it is used for rendering. Every grid
// coordinate needs a readable image, and neighbouring sprites that hash the same
// usually mean the pack was exported with a stuck pose.
type SticksCmd struct {
	Manifest  string `arg:"" name:"manifest" help:"Stick manifest to check (json or yaml)" type:"existingfile"`
	Threshold int    `help:"Hamming distance at or below which neighbouring sprites are flagged (-1 disables)" default:"0"`
}

// Run loads the manifest and reports every missing, unreadable or duplicated sprite
func (cmd *SticksCmd) Run(appCtx *types.AppContext) error {
	logger := appCtx.Log()

	manifest, err := sticks.LoadManifest(cmd.Manifest)
	if err != nil {
		return fmt.Errorf("failed to load manifest: %w", err)
	}

	fmt.Printf("%s\n", ui.InfoStyle.Render(fmt.Sprintf("Checking sprites of %q in %s...", manifest.Name, manifest.Directory)))

	result, err := sticks.CheckSprites(manifest, cmd.Threshold)
	if err != nil {
		return fmt.Errorf("failed to check sprites: %w", err)
	}
	logger.Infow("checked sprites", "manifest", cmd.Manifest, "checked", result.Checked, "issues", len(result.Issues))

	for _, issue := range result.Issues {
		fmt.Printf("%s\n", ui.ErrorStyle.Render(fmt.Sprintf("❌ %s: %s", issue.Path, issue.Problem)))
	}

	if result.OK() {
		fmt.Printf("%s\n", ui.SuccessStyle.Render(fmt.Sprintf("✅ All %d sprites look good", result.Checked)))
		return nil
	}

	fmt.Printf("\n%s\n", ui.InfoStyle.Render(fmt.Sprintf("Checked: %d, ❌ Issues: %d", result.Checked, len(result.Issues))))
	return fmt.Errorf("sprite pack has %d issues", len(result.Issues))
}
