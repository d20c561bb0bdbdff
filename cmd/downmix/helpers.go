package main

import (
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"downmix/internal/batch"
	"downmix/internal/media/audio"
)

var labelCaser = cases.Title(language.Und)

func outcomeLabel(outcome batch.Outcome) string {
	return labelCaser.String(string(outcome))
}

func actionLabel(action audio.Action) string {
	return labelCaser.String(action.String())
}

func targetsLabel(targets []audio.Target) string {
	if len(targets) == 0 {
		return "none"
	}
	parts := make([]string, 0, len(targets))
	for _, target := range targets {
		parts = append(parts, string(target.Layout))
	}
	return strings.Join(parts, ", ")
}

func shortPath(path string) string {
	base := filepath.Base(path)
	dir := filepath.Base(filepath.Dir(path))
	if dir == "." || dir == string(filepath.Separator) {
		return base
	}
	return filepath.Join(dir, base)
}
