package utils

import (
	"io"
	"os"

	"github.com/schollz/progressbar/v3"
)

// DescVerifying labels bundle verification progress
const DescVerifying = "Verifying"

// NewProgressBar creates a consistently styled progress bar on stderr,
// leaving stdout to reports.
//
// For unknown totals (total < 0) a spinner is rendered instead of a bar.
//
// Example:
//
//	bar := utils.NewProgressBar(len(bundles), utils.DescVerifying)
//	defer bar.Finish()
func NewProgressBar(total int, description string) *progressbar.ProgressBar {
	return NewProgressBarWriter(os.Stderr, total, description)
}

// NewProgressBarWriter creates a progress bar rendering to w
func NewProgressBarWriter(w io.Writer, total int, description string) *progressbar.ProgressBar {
	opts := []progressbar.Option{
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
	}

	if total < 0 {
		opts = append(opts,
			progressbar.OptionSpinnerType(14),
			progressbar.OptionSetRenderBlankState(true),
		)
	} else {
		opts = append(opts,
			progressbar.OptionShowIts(),
		)
	}

	return progressbar.NewOptions(total, opts...)
}
