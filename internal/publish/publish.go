// Package publish writes tickets and feature requests as Markdown files.
// The files are a snapshot; the server stays the source of truth.
package publish

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Saurabhh-37/supportsync/internal/model"
)

type WriteOptions struct {
	Overwrite bool
}

type WriteResult struct {
	Written []string `json:"written"`
}

func WriteTicket(toDir string, t model.Ticket, opt WriteOptions) (WriteResult, error) {
	outDir, err := prepare(toDir, "tickets")
	if err != nil {
		return WriteResult{}, err
	}
	p := filepath.Join(outDir, strconv.Itoa(t.ID)+".md")
	if err := writeFile(p, []byte(RenderTicketMarkdown(t)), opt.Overwrite); err != nil {
		return WriteResult{}, err
	}
	return WriteResult{Written: []string{p}}, nil
}

func WriteFeature(toDir string, f model.FeatureRequest, opt WriteOptions) (WriteResult, error) {
	outDir, err := prepare(toDir, "features")
	if err != nil {
		return WriteResult{}, err
	}
	p := filepath.Join(outDir, strconv.Itoa(f.ID)+".md")
	if err := writeFile(p, []byte(RenderFeatureMarkdown(f)), opt.Overwrite); err != nil {
		return WriteResult{}, err
	}
	return WriteResult{Written: []string{p}}, nil
}

// WriteTickets writes tickets/index.md plus one page per ticket. It stops on
// the first error.
func WriteTickets(toDir string, ts []model.Ticket, opt WriteOptions) (WriteResult, error) {
	outDir, err := prepare(toDir, "tickets")
	if err != nil {
		return WriteResult{}, err
	}
	index := filepath.Join(outDir, "index.md")
	if err := writeFile(index, []byte(RenderTicketIndexMarkdown("Tickets", ts)), opt.Overwrite); err != nil {
		return WriteResult{}, err
	}
	written := []string{index}
	for _, t := range ts {
		res, err := WriteTicket(toDir, t, opt)
		if err != nil {
			return WriteResult{}, err
		}
		written = append(written, res.Written...)
	}
	return WriteResult{Written: written}, nil
}

func WriteFeatures(toDir string, fs []model.FeatureRequest, opt WriteOptions) (WriteResult, error) {
	outDir, err := prepare(toDir, "features")
	if err != nil {
		return WriteResult{}, err
	}
	index := filepath.Join(outDir, "index.md")
	if err := writeFile(index, []byte(RenderFeatureIndexMarkdown("Feature requests", fs)), opt.Overwrite); err != nil {
		return WriteResult{}, err
	}
	written := []string{index}
	for _, f := range fs {
		res, err := WriteFeature(toDir, f, opt)
		if err != nil {
			return WriteResult{}, err
		}
		written = append(written, res.Written...)
	}
	return WriteResult{Written: written}, nil
}

func prepare(toDir, sub string) (string, error) {
	toDir = strings.TrimSpace(toDir)
	if toDir == "" {
		return "", errors.New("missing --to")
	}
	outDir := filepath.Join(filepath.Clean(toDir), sub)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", err
	}
	return outDir, nil
}

func writeFile(path string, b []byte, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return errors.New("file exists (use --overwrite): " + path)
		}
	}
	return os.WriteFile(path, b, 0o644)
}
