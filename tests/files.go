// Package tests downloads and caches the community Game Boy test ROM
// suites exercised by the integration tests.
package tests

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"

	"golang.org/x/sync/errgroup"
)

// suite is a downloadable archive of test ROMs.
type suite struct {
	name  string // directory name under tests/
	url   string
	strip string // archive top-level directory, renamed to name
}

var suites = []suite{
	{
		name:  "gb-test-roms",
		url:   "https://github.com/retrio/gb-test-roms/archive/refs/heads/master.zip",
		strip: "gb-test-roms-master",
	},
	{
		name:  "mooneye-test-suite",
		url:   "https://gekkio.fi/files/mooneye-test-suite/mts-20240926-1737-443f6e1/mts-20240926-1737-443f6e1.zip",
		strip: "mts-20240926-1737-443f6e1",
	},
}

func decompress(zipFile, dest, strip, name string) error {
	r, err := zip.OpenReader(zipFile)
	if err != nil {
		return err
	}
	defer r.Close()

	for _, f := range r.File {
		fname := strings.Replace(f.Name, strip, name, 1)
		fpath := filepath.Join(dest, fname)
		if !strings.HasPrefix(fpath, filepath.Clean(dest)+string(os.PathSeparator)) {
			return fmt.Errorf("%s: illegal file path", fpath)
		}

		if f.FileInfo().IsDir() {
			os.MkdirAll(fpath, os.ModePerm)
			continue
		}

		if err = os.MkdirAll(filepath.Dir(fpath), os.ModePerm); err != nil {
			return err
		}

		rc, err := f.Open()
		if err != nil {
			return err
		}

		outFile, err := os.OpenFile(fpath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, f.Mode())
		if err != nil {
			rc.Close()
			return err
		}

		_, err = io.Copy(outFile, rc)

		outFile.Close()
		rc.Close()

		if err != nil {
			return err
		}
	}

	return nil
}

func downloadSuite(s suite, dest string) error {
	resp, err := http.Get(s.url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: %s", s.url, resp.Status)
	}

	tmpf, err := os.CreateTemp("", s.name+"-*.zip")
	if err != nil {
		return err
	}
	defer os.Remove(tmpf.Name())

	if _, err := io.Copy(tmpf, resp.Body); err != nil {
		tmpf.Close()
		return err
	}
	tmpf.Close()

	if err := decompress(tmpf.Name(), dest, s.strip, s.name); err != nil {
		return fmt.Errorf("failed to decompress %s: %s", s.name, err)
	}
	return nil
}

// RomsPath returns the directory holding the test ROM suites, downloading
// the missing ones first.
func RomsPath(tb testing.TB) string {
	return sync.OnceValue(func() string {
		_, b, _, _ := runtime.Caller(0)
		testsDir := filepath.Dir(b)

		var g errgroup.Group
		g.SetLimit(len(suites))
		for _, s := range suites {
			s := s
			dir := filepath.Join(testsDir, s.name)
			if _, err := os.Stat(dir); !errors.Is(err, fs.ErrNotExist) {
				continue
			}
			g.Go(func() error {
				tb.Log(s.name, "not found, downloading...")
				if err := downloadSuite(s, testsDir); err != nil {
					return err
				}
				tb.Log(s.name, "downloaded in", dir)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			tb.Fatalf("failed to download test roms: %s", err)
		}

		return testsDir
	})()
}
