package vcf

import (
	"fmt"
	"os"
	"sort"
	"strings"
)

// FileSuffixes lists the file name suffixes treated as compressed VCF input.
var FileSuffixes = []string{".vcf.gz", ".vcf.bgz"}

// IsVariantFile reports whether name carries a compressed VCF suffix.
func IsVariantFile(name string) bool {
	for _, s := range FileSuffixes {
		if strings.HasSuffix(name, s) {
			return true
		}
	}
	return false
}

// ListVariantFiles returns the names of compressed VCF files directly
// inside dir, sorted by name.
func ListVariantFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !IsVariantFile(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}
