// Package manifest reads the CSV manifest into validated sync rules.
//
// Problems with the file as a whole (extension, readability, syntax, header,
// column count) abort the load. Problems with a single row's values (overwrite
// flag, missing directories, excluded names) drop that row and loading continues.
package manifest

import (
	"encoding/csv"
	"io"
	"slices"
	"strings"

	"csvsync/internal/config"
	"csvsync/internal/dircache"
	"csvsync/internal/errors"
	"csvsync/internal/log"
	"csvsync/pkg/types"

	"github.com/spf13/afero"
)

// Extension is the only manifest extension accepted.
const Extension = ".csv"

// Header is the required header row, in order.
var Header = []string{"filename", "local_directory", "sync_directory", "overwrite_allowed"}

const utf8BOM = "\uFEFF"

// Manifest is the result of a successful load.
type Manifest struct {
	Path    string
	Rules   []types.SyncRule
	Dropped []types.DroppedRow
}

// Loader turns a manifest file into sync rules.
type Loader struct {
	fs   afero.Fs
	dirs *dircache.Cache
	cfg  *config.Config
}

// NewLoader creates a loader reading from fs and validating directories
// through dirs. A nil cfg means defaults.
func NewLoader(fs afero.Fs, dirs *dircache.Cache, cfg *config.Config) *Loader {
	if cfg == nil {
		cfg = config.New()
	}
	return &Loader{fs: fs, dirs: dirs, cfg: cfg}
}

// CheckPath rejects paths that do not name a .csv file.
func CheckPath(path string) error {
	if !strings.HasSuffix(path, Extension) {
		return errors.NewManifestError("The file must have a .csv extension", path, 0, errors.InvalidInput, nil)
	}
	return nil
}

// Load parses path. The returned error, if any, is a *errors.ManifestError.
func (l *Loader) Load(path string) (*Manifest, error) {
	if err := CheckPath(path); err != nil {
		return nil, err
	}

	f, err := l.fs.Open(path)
	if err != nil {
		return nil, errors.NewManifestError("Unable to read the CSV file", path, 0, errors.IOError, err)
	}
	defer f.Close()

	// LazyQuotes stays off: a bare quote in an unquoted field is a ParseError.
	r := csv.NewReader(f)
	// Column counts are checked per row below so the error names the row.
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err == io.EOF {
		return nil, errors.NewManifestError("CSV headers must be ["+strings.Join(Header, ", ")+"]", path, 1, errors.SchemaError, nil)
	}
	if err != nil {
		return nil, readError(path, err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], utf8BOM)
	}
	if !slices.Equal(header, Header) {
		return nil, errors.NewManifestError("CSV headers must be ["+strings.Join(Header, ", ")+"]", path, 1, errors.SchemaError, nil)
	}

	m := &Manifest{Path: path}
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, readError(path, err)
		}
		line, _ := r.FieldPos(0)

		if len(record) != len(Header) {
			return nil, errors.NewManifestError("Invalid number of columns in CSV file", path, line, errors.SchemaError, nil)
		}

		rule, reason, ok := l.row(record, line)
		if !ok {
			m.Dropped = append(m.Dropped, types.DroppedRow{Line: line, Reason: reason})
			continue
		}
		m.Rules = append(m.Rules, rule)
	}

	log.Debugf("Loaded %d rules from %s (%d rows dropped)", len(m.Rules), path, len(m.Dropped))
	return m, nil
}

// row validates one well-formed record. When ok is false the row has been
// reported and reason says why it was dropped.
func (l *Loader) row(record []string, line int) (rule types.SyncRule, reason string, ok bool) {
	filename := record[0]
	localDir := l.cfg.ExpandDir(record[1])
	syncDir := l.cfg.ExpandDir(record[2])

	overwrite, valid := parseOverwrite(record[3])
	if !valid {
		log.LogWithFields(log.F("line", line), log.F("value", record[3])).
			Warn("Skipping row with invalid overwrite_allowed value")
		return rule, "invalid overwrite_allowed value", false
	}

	if pattern, excluded := l.cfg.Excluded(filename); excluded {
		log.LogWithFields(log.F("line", line), log.F("pattern", pattern)).
			Warnf("Skipping excluded file: %s", filename)
		return rule, "excluded by " + pattern, false
	}

	if !l.dirs.Confirms(localDir) {
		log.LogWithFields(log.F("line", line)).Errorf("Local directory does not exist: %s", localDir)
		return rule, "local directory does not exist", false
	}
	if !l.dirs.Confirms(syncDir) {
		log.LogWithFields(log.F("line", line)).Errorf("Sync directory does not exist: %s", syncDir)
		return rule, "sync directory does not exist", false
	}

	return types.SyncRule{
		Filename:         filename,
		LocalDirectory:   localDir,
		SyncDirectory:    syncDir,
		OverwriteAllowed: overwrite,
		Line:             line,
	}, "", true
}

// parseOverwrite accepts y and n in either case.
func parseOverwrite(value string) (overwrite bool, ok bool) {
	switch strings.ToLower(value) {
	case "y":
		return true, true
	case "n":
		return false, true
	default:
		return false, false
	}
}

func readError(path string, err error) error {
	var parseErr *csv.ParseError
	if errors.As(err, &parseErr) {
		return errors.NewManifestError("Unable to parse the CSV file", path, parseErr.Line, errors.ParseError, parseErr.Err)
	}
	return errors.NewManifestError("Unable to read the CSV file", path, 0, errors.IOError, err)
}
