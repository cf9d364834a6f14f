package deps

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// RequiredEncoder is the AAC encoder the transcoder asks ffmpeg for.
const RequiredEncoder = "libfdk_aac"

const encoderProbeTimeout = 10 * time.Second

// commandContext is replaced in tests.
var commandContext = exec.CommandContext

// CheckFFmpegEncoder reports whether binary was built with libfdk_aac.
// Most distribution builds are not, and conversion then fails for every item.
func CheckFFmpegEncoder(ctx context.Context, binary string) Status {
	result := Status{
		Name:        "libfdk_aac",
		Command:     strings.TrimSpace(binary),
		Description: "HE-AAC encoder compiled into ffmpeg",
	}
	if result.Command == "" {
		result.Command = "ffmpeg"
	}

	ctx, cancel := context.WithTimeout(ctx, encoderProbeTimeout)
	defer cancel()
	output, err := commandContext(ctx, result.Command, "-hide_banner", "-encoders").Output()
	if err != nil {
		result.Detail = fmt.Sprintf("could not list encoders: %v", err)
		return result
	}
	for _, line := range strings.Split(string(output), "\n") {
		fields := strings.Fields(line)
		if len(fields) >= 2 && fields[1] == RequiredEncoder {
			result.Available = true
			return result
		}
	}
	result.Detail = fmt.Sprintf("%s lacks the %s encoder", result.Command, RequiredEncoder)
	return result
}
