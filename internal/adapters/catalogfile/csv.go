package catalogfile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/okian/lineup/internal/domain/model"
)

var (
	nameColumns      = []string{"dance", "act"}
	performerColumns = []string{"members", "performers"}
)

// readCSV expects a header row naming the act and performer columns.
// Performers are a comma separated list inside one cell.
func readCSV(r io.Reader, cfg config) ([]model.Act, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	nameCol := column(header, nameColumns)
	if nameCol < 0 {
		return nil, fmt.Errorf("%w: one of %v", ErrMissingColumn, nameColumns)
	}
	perfCol := column(header, performerColumns)
	if perfCol < 0 {
		return nil, fmt.Errorf("%w: one of %v", ErrMissingColumn, performerColumns)
	}

	var acts []model.Act
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line, err)
		}
		name := strings.TrimSpace(cell(rec, nameCol))
		if name == "" || cfg.skip(name) {
			continue
		}
		acts = append(acts, model.Act{
			Name:       name,
			Performers: splitPerformers(cell(rec, perfCol)),
		})
	}
	return acts, nil
}

func column(header []string, names []string) int {
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\uFEFF")))
		for _, n := range names {
			if h == n {
				return i
			}
		}
	}
	return -1
}

func cell(rec []string, i int) string {
	if i < len(rec) {
		return rec[i]
	}
	return ""
}

func splitPerformers(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
