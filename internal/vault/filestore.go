package vault

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/go-logr/logr"

	"github.com/nand0san/panzer-go/internal/panzererr"
)

// defaultFilename is the credential file name used when none is
// configured, matching the reference implementation's on-disk name.
const defaultFilename = "panzer.tmp"

const bannerComment = "# credentials for the exchange gateway — generated, edit with care"

var lineRE = regexp.MustCompile(`^([A-Za-z0-9_]+)\s*=\s*"(.*)"$`)

// FileStore is the disk-backed, authoritative mirror of credential
// records: an ordered sequence of `NAME = "VALUE"` lines plus arbitrary
// comment lines, at $HOME/<filename>. Put never adds a second record for a
// name already present; records already duplicated in the file are kept,
// and Get returns the first. Unknown lines pass through verbatim.
type FileStore struct {
	path string
	log  logr.Logger
}

// NewFileStore returns a FileStore rooted at homeDir/filename. If filename
// is empty, defaultFilename is used.
func NewFileStore(homeDir, filename string, log logr.Logger) *FileStore {
	if filename == "" {
		filename = defaultFilename
	}
	return &FileStore{path: filepath.Join(homeDir, filename), log: log}
}

// Get returns the raw (possibly ciphertext) value stored under name, and
// whether it was found. A malformed line elsewhere in the file does not
// prevent Get from finding a well-formed one.
func (s *FileStore) Get(name string) (string, bool, error) {
	lines, err := s.readLines()
	if err != nil {
		return "", false, err
	}

	for _, l := range lines {
		n, v, ok := parseLine(l)
		if ok && n == name {
			return v, true, nil
		}
	}
	return "", false, nil
}

// Put writes name=value to disk, replacing the first existing line for
// name in place, or appending a new line if name is not present. Calling
// Put twice with identical arguments leaves the file byte-identical after
// the second call.
func (s *FileStore) Put(name, value string) error {
	lines, err := s.readLines()
	if err != nil {
		return err
	}

	newLine := formatLine(name, value)
	replaced := false
	for i, l := range lines {
		n, _, ok := parseLine(l)
		if ok && n == name {
			lines[i] = newLine
			replaced = true
			break
		}
	}
	if !replaced {
		lines = append(lines, newLine)
	}

	return s.writeLines(lines)
}

// readLines loads the credential file, creating it (with a banner comment)
// if it does not exist yet. Lines that fail to parse as either a comment
// or a NAME = "VALUE" pair are logged and passed through verbatim on the
// next rewrite rather than dropped.
func (s *FileStore) readLines() ([]string, error) {
	f, err := os.Open(s.path)
	if os.IsNotExist(err) {
		if werr := s.writeLines([]string{bannerComment}); werr != nil {
			return nil, werr
		}
		return []string{bannerComment}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("credential store: opening %s: %w", s.path, err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		raw := scanner.Text()
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			lines = append(lines, raw)
			continue
		}
		if _, _, ok := parseLine(raw); !ok {
			s.log.Error(&panzererr.CredentialParseError{Line: raw}, "credential store: ignoring malformed line")
		}
		lines = append(lines, raw)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("credential store: reading %s: %w", s.path, err)
	}

	return lines, nil
}

func (s *FileStore) writeLines(lines []string) error {
	var b strings.Builder
	for _, l := range lines {
		b.WriteString(l)
		b.WriteByte('\n')
	}
	return os.WriteFile(s.path, []byte(b.String()), 0o600)
}

func parseLine(line string) (name, value string, ok bool) {
	m := lineRE.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

func formatLine(name, value string) string {
	return fmt.Sprintf(`%s = "%s"`, name, value)
}
