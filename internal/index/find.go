package index

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/biogo/hts/bgzf"
)

// ErrIndexMissing is returned when a variant file has no usable companion index.
var ErrIndexMissing = errors.New("companion index (.csi or .tbi) not found")

// Suffixes lists the companion index suffixes looked for next to a file.
var Suffixes = []string{Suffix, ".tbi"}

// Find returns the path of the companion index of path. The index must
// exist and start with a CSI or tabix magic number.
func Find(path string) (string, error) {
	for _, suffix := range Suffixes {
		candidate := path + suffix
		if _, err := os.Stat(candidate); err != nil {
			continue
		}
		if err := checkMagic(candidate); err != nil {
			return "", err
		}
		return candidate, nil
	}
	return "", fmt.Errorf("%s: %w", path, ErrIndexMissing)
}

func checkMagic(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open index: %w", err)
	}
	defer f.Close()

	br, err := bgzf.NewReader(f, 1)
	if err != nil {
		return fmt.Errorf("%s: not a bgzf index: %w", path, err)
	}
	defer br.Close()

	magic := make([]byte, 4)
	if _, err := io.ReadFull(br, magic); err != nil {
		return fmt.Errorf("%s: read index magic: %w", path, err)
	}
	switch string(magic) {
	case "CSI\x01", "CSI\x02", "TBI\x01":
		return nil
	}
	return fmt.Errorf("%s: unrecognized index magic %q", path, magic)
}
