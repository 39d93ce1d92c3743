package utils

import (
	"fmt"
	"os/exec"
	"runtime"
)

// Default executable names looked up in PATH
const (
	DefaultDecoder    = "blackbox_decode"
	DefaultCompositor = "ffmpeg"
)

// ValidateDependencies checks that the blackbox decoder and the compositor can be executed.
// Either argument may be a bare name looked up in PATH or a path to an executable.
func ValidateDependencies(decoder, compositor string) error {
	if _, err := exec.LookPath(decoder); err != nil {
		return fmt.Errorf("%s not found in PATH. %s", decoder, getDecoderInstructions())
	}

	if _, err := exec.LookPath(compositor); err != nil {
		return fmt.Errorf("%s not found in PATH. %s", compositor, getInstallationInstructions())
	}

	return nil
}

// getInstallationInstructions returns platform-specific ffmpeg installation instructions
func getInstallationInstructions() string {
	switch runtime.GOOS {
	case "darwin":
		return "Install with: brew install ffmpeg"
	case "linux":
		return "Install with: apt-get install ffmpeg (Ubuntu/Debian) or yum install ffmpeg (CentOS/RHEL)"
	case "windows":
		return "Download from https://ffmpeg.org/download.html and add to PATH"
	default:
		return "Download from https://ffmpeg.org/download.html"
	}
}

// getDecoderInstructions returns platform-specific blackbox-tools installation instructions
func getDecoderInstructions() string {
	switch runtime.GOOS {
	case "darwin":
		return "Install with: brew install blackbox-tools, or pass --decoder"
	case "windows":
		return "Download blackbox-tools from https://github.com/betaflight/blackbox-tools/releases and add to PATH, or pass --decoder"
	default:
		return "Build blackbox-tools from https://github.com/betaflight/blackbox-tools and add to PATH, or pass --decoder"
	}
}
