// Package images finds the page images extracted from the indexed manuals.
//
// Files follow the naming convention {documentStem}_page{N}_{index}.{ext},
// where N is the 1-based page number.
package images

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"path"
	"strings"

	"github.com/spf13/afero"
)

// Locator resolves related images against a directory.
type Locator struct {
	fs        afero.Fs
	dir       string
	urlPrefix string
}

// NewLocator creates a locator over dir. Returned references are urlPrefix
// joined with the file name.
func NewLocator(fsys afero.Fs, dir, urlPrefix string) *Locator {
	return &Locator{fs: fsys, dir: dir, urlPrefix: "/" + strings.Trim(urlPrefix, "/")}
}

// Stem returns the base name of document without its extension.
func Stem(document string) string {
	base := path.Base(strings.ReplaceAll(document, `\`, "/"))
	return strings.TrimSuffix(base, path.Ext(base))
}

// Related returns URLs of the images for the given document page, sorted by
// file name. File names are path-escaped. A missing directory yields no images.
func (l *Locator) Related(document string, page int) ([]string, error) {
	prefix := fmt.Sprintf("%s_page%d_", Stem(document), page)

	entries, err := afero.ReadDir(l.fs, l.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read image dir: %w", err)
	}

	var urls []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), prefix) {
			continue
		}
		urls = append(urls, l.urlPrefix+"/"+url.PathEscape(entry.Name()))
	}
	return urls, nil
}

// Dir returns the directory being searched.
func (l *Locator) Dir() string {
	return l.dir
}
