package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"

	"downmix/internal/batch"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

const (
	statusLabelWidth = 20
	statusIndent     = "  "
)

func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	statusText := fmt.Sprintf("[%s]", statusKindLabel(kind))
	if message != "" {
		statusText += " " + message
	}
	base := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, label+":", statusText)
	if colorize {
		if color := statusKindColor(kind); color != "" {
			return color + base + ansiReset
		}
	}
	return base
}

func statusKindLabel(kind statusKind) string {
	switch kind {
	case statusOK:
		return "OK"
	case statusWarn:
		return "WARN"
	case statusError:
		return "ERROR"
	default:
		return "INFO"
	}
}

func statusKindColor(kind statusKind) string {
	switch kind {
	case statusOK:
		return ansiGreen
	case statusWarn:
		return ansiYellow
	case statusError:
		return ansiRed
	case statusInfo:
		return ansiBlue
	default:
		return ""
	}
}

func renderRunSummary(out io.Writer, summary batch.Summary, results []batch.FileResult, colorize bool) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, renderStatusLine("Candidates", statusInfo, fmt.Sprintf("%d", summary.Total), colorize))
	fmt.Fprintln(out, renderStatusLine(outcomeLabel(batch.OutcomeProcessed), statusOK, fmt.Sprintf("%d", summary.Processed), colorize))
	fmt.Fprintln(out, renderStatusLine(outcomeLabel(batch.OutcomeSkipped), statusInfo, fmt.Sprintf("%d", summary.Skipped), colorize))

	failedKind := statusOK
	if summary.Failed > 0 {
		failedKind = statusError
	}
	fmt.Fprintln(out, renderStatusLine(outcomeLabel(batch.OutcomeFailed), failedKind, fmt.Sprintf("%d", summary.Failed), colorize))
	fmt.Fprintln(out, renderStatusLine("Duration", statusInfo, summary.Duration.Round(time.Millisecond).String(), colorize))

	if summary.Failed == 0 {
		return
	}
	fmt.Fprintln(out)
	for _, result := range results {
		if result.Outcome != batch.OutcomeFailed {
			continue
		}
		detail := "unknown error"
		if result.Err != nil {
			detail = result.Err.Error()
		}
		fmt.Fprintln(out, renderStatusLine(shortPath(result.Path), statusError, detail, colorize))
	}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
