package cache

import (
	"iter"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Days enumerates the cached days for a symbol and interval in
// ascending order by scanning the on-disk layout. The sequence is lazy:
// directories are read as the consumer advances, and nothing is
// buffered beyond one directory listing. Malformed filenames are
// skipped without error.
func (c *FSCache) Days(symbol, interval string) iter.Seq[time.Time] {
	base := filepath.Join(c.Root, Sanitize(symbol), interval)
	return func(yield func(time.Time) bool) {
		for _, year := range subdirs(base) {
			for _, month := range subdirs(filepath.Join(base, year)) {
				entries, err := os.ReadDir(filepath.Join(base, year, month))
				if err != nil {
					continue
				}
				for _, e := range entries {
					name := e.Name()
					if e.IsDir() || !strings.HasSuffix(name, ".parquet") {
						continue
					}
					if len(name) < len("2006-01-02") {
						continue
					}
					day, err := time.Parse("2006-01-02", name[:len("2006-01-02")])
					if err != nil {
						continue
					}
					if !yield(day) {
						return
					}
				}
			}
		}
	}
}

// Expirations enumerates the cached option expiration dates for a
// symbol in ascending order. Directory names that are not dates are
// skipped.
func (c *FSCache) Expirations(symbol string) iter.Seq[string] {
	base := filepath.Join(c.Root, Sanitize(symbol), "options")
	return func(yield func(string) bool) {
		for _, name := range subdirs(base) {
			if _, err := time.Parse("2006-01-02", name); err != nil {
				continue
			}
			if !yield(name) {
				return
			}
		}
	}
}

// SnapshotTimes enumerates the historical snapshot instants cached for
// a symbol and expiration, ascending, derived from the metadata
// filenames under the historical buckets.
func (c *FSCache) SnapshotTimes(symbol, expiration string) iter.Seq[time.Time] {
	base := filepath.Join(c.optionsDir(symbol, expiration), "historical")
	return func(yield func(time.Time) bool) {
		for _, date := range subdirs(base) {
			day, err := time.Parse("2006-01-02", date)
			if err != nil {
				continue
			}
			entries, err := os.ReadDir(filepath.Join(base, date))
			if err != nil {
				continue
			}
			for _, e := range entries {
				name := e.Name()
				if !strings.HasPrefix(name, "metadata_") || !strings.HasSuffix(name, ".json") {
					continue
				}
				hhmmss := strings.TrimSuffix(strings.TrimPrefix(name, "metadata_"), ".json")
				tod, err := time.Parse("150405", hhmmss)
				if err != nil {
					continue
				}
				ts := time.Date(day.Year(), day.Month(), day.Day(),
					tod.Hour(), tod.Minute(), tod.Second(), 0, time.UTC)
				if !yield(ts) {
					return
				}
			}
		}
	}
}

// subdirs returns the sorted subdirectory names of dir, or nil when the
// directory cannot be read. os.ReadDir already sorts by name, which
// gives ascending order for zero-padded date segments.
func subdirs(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names
}
