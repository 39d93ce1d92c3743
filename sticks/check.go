package sticks

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/corona10/goimagehash"
)

// SpriteIssue describes one problem found in a sprite pack
type SpriteIssue struct {
	Path    string
	Problem string
}

// SpriteReport summarizes a sprite pack check
type SpriteReport struct {
	Checked int
	Issues  []SpriteIssue
}

// OK reports whether the check found no issues
func (r *SpriteReport) OK() bool { return len(r.Issues) == 0 }

// CheckSprites verifies every coordinate of the manifest grid has a decodable sprite and
// flags horizontally or vertically adjacent sprites whose difference hashes are within
// threshold of each other, which usually means the prerender step wrote the same pose twice.
// A negative threshold disables the similarity check.
func CheckSprites(manifest *StickManifest, threshold int) (*SpriteReport, error) {
	xs := GridPoints(manifest.Frames.X.Min, manifest.Frames.X.Max, manifest.Frames.X.Increment)
	ys := GridPoints(manifest.Frames.Y.Min, manifest.Frames.Y.Max, manifest.Frames.Y.Increment)
	if len(xs) == 0 || len(ys) == 0 {
		return nil, fmt.Errorf("manifest %q has an empty sprite grid", manifest.Name)
	}

	report := &SpriteReport{}
	hashes := make([][]*goimagehash.ImageHash, len(xs))

	for i, x := range xs {
		hashes[i] = make([]*goimagehash.ImageHash, len(ys))
		for j, y := range ys {
			path := manifest.FramePath(x, y)
			report.Checked++

			hash, err := spriteHash(path)
			if err != nil {
				report.Issues = append(report.Issues, SpriteIssue{Path: path, Problem: err.Error()})
				continue
			}
			hashes[i][j] = hash
		}
	}

	if threshold < 0 {
		return report, nil
	}

	for i := range xs {
		for j := range ys {
			current := hashes[i][j]
			if current == nil {
				continue
			}
			if i+1 < len(xs) {
				report.compare(current, hashes[i+1][j], manifest.FramePath(xs[i], ys[j]), manifest.FramePath(xs[i+1], ys[j]), threshold)
			}
			if j+1 < len(ys) {
				report.compare(current, hashes[i][j+1], manifest.FramePath(xs[i], ys[j]), manifest.FramePath(xs[i], ys[j+1]), threshold)
			}
		}
	}

	return report, nil
}

func (r *SpriteReport) compare(a, b *goimagehash.ImageHash, pathA, pathB string, threshold int) {
	if b == nil {
		return
	}
	distance, err := a.Distance(b)
	if err != nil {
		r.Issues = append(r.Issues, SpriteIssue{Path: pathA, Problem: fmt.Sprintf("failed to compare with %s: %v", pathB, err)})
		return
	}
	if distance <= threshold {
		r.Issues = append(r.Issues, SpriteIssue{
			Path:    pathA,
			Problem: fmt.Sprintf("looks identical to neighbour %s (distance %d)", pathB, distance),
		})
	}
}

// spriteHash decodes a sprite and calculates its difference hash
func spriteHash(path string) (*goimagehash.ImageHash, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sprite: %w", err)
	}
	defer func() { _ = file.Close() }()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode sprite: %w", err)
	}

	hash, err := goimagehash.DifferenceHash(img)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate sprite hash: %w", err)
	}
	return hash, nil
}
