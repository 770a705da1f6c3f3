package decoder

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrDatabaseNotFound is returned when the database directory does not exist.
var ErrDatabaseNotFound = errors.New("database not found")

// TableFileExt is the extension of LevelDB sorted table files.
const TableFileExt = ".ldb"

// ListTableFiles returns the table files of dir in lexical order.
func ListTableFiles(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrDatabaseNotFound, dir)
	}
	if err != nil {
		return nil, fmt.Errorf("ListTableFiles: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrDatabaseNotFound, dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("ListTableFiles: read %s: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		if e.Type().IsRegular() && strings.HasSuffix(e.Name(), TableFileExt) {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	return files, nil
}

// HasTableFiles reports whether dir exists and holds at least one table file.
func HasTableFiles(dir string) bool {
	files, err := ListTableFiles(dir)
	return err == nil && len(files) > 0
}

// recordKind describes how records of one collection are located in a file.
type recordKind struct {
	name       string
	signatures [][]byte
	anchor     []byte
}

var (
	transactionKind = recordKind{name: "transactions", signatures: transactionSignature, anchor: amountAnchor}
	accountKind     = recordKind{name: "accounts", signatures: accountSignature, anchor: balanceAnchor}
)

// scan calls visit for every anchor occurrence in every table file of dir
// that carries all of the kind's signatures.
func (d *Decoder) scan(dir string, kind recordKind, r *Report, visit func(data []byte, idx int)) error {
	files, err := ListTableFiles(dir)
	if err != nil {
		return err
	}
	for _, path := range files {
		r.Files++
		data, err := d.readFile(path)
		if err != nil {
			d.log.Debug().Err(err).Str("file", path).Msg("Skipping unreadable table file")
			r.FilesSkipped++
			continue
		}
		if !containsAll(data, kind.signatures) {
			r.FilesSkipped++
			continue
		}
		forEachAnchor(data, kind.anchor, func(idx int) {
			r.Anchors++
			visit(data, idx)
		})
	}
	return nil
}

// forEachAnchor calls fn with the offset of every occurrence of anchor,
// overlapping occurrences included.
func forEachAnchor(data, anchor []byte, fn func(idx int)) {
	pos := 0
	for pos < len(data) {
		i := bytes.Index(data[pos:], anchor)
		if i < 0 {
			return
		}
		fn(pos + i)
		pos += i + 1
	}
}

func containsAll(data []byte, sigs [][]byte) bool {
	if len(data) == 0 {
		return false
	}
	for _, s := range sigs {
		if !bytes.Contains(data, s) {
			return false
		}
	}
	return true
}
