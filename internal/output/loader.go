package output

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/unccx/edfgen/internal/domain"
)

// LoadPlatform reads a platform.csv file (processor_id,speed, with or
// without a header row) produced by a prior run, for --load-platform.
func LoadPlatform(path string) (domain.Platform, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.Platform{}, fmt.Errorf("open platform file %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return domain.Platform{}, fmt.Errorf("read platform file %s: %w", path, err)
	}

	var platform domain.Platform
	for _, rec := range records {
		if len(rec) < 2 {
			continue
		}
		speed, err := strconv.ParseInt(rec[1], 10, 64)
		if err != nil {
			continue // header row, e.g. "processor_id,speed"
		}
		platform.Processors = append(platform.Processors, domain.NewProcessor(rec[0], speed))
	}
	if len(platform.Processors) == 0 {
		return domain.Platform{}, fmt.Errorf("platform file %s contained no processor rows", path)
	}
	return platform, nil
}
