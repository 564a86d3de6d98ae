package payload

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// ArchiveDir packs a local module directory into a tar.gz for upload, so
// the remote interpreter can import the target module from the job
// directory. Paths inside the archive are relative to the directory's
// parent, keeping the package importable by its own name.
func ArchiveDir(localDir string) ([]byte, error) {
	root, err := filepath.Abs(localDir)
	if err != nil {
		return nil, errors.Wrapf(err, "archive %s", localDir)
	}
	base := filepath.Base(root)

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)

	err = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(filepath.Join(base, rel))

		hdr, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		hdr.Name = name
		if info.IsDir() {
			hdr.Name += "/"
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		if info.IsDir() || !info.Mode().IsRegular() {
			return nil
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = io.Copy(tw, f)
		return err
	})
	if err != nil {
		return nil, errors.Wrapf(err, "archive %s", localDir)
	}

	if err := tw.Close(); err != nil {
		return nil, errors.Wrapf(err, "archive %s", localDir)
	}
	if err := gz.Close(); err != nil {
		return nil, errors.Wrapf(err, "archive %s", localDir)
	}
	return buf.Bytes(), nil
}

// ExtractDir unpacks a tar.gz produced remotely into destDir, refusing
// entries that would escape it.
func ExtractDir(data []byte, destDir string) error {
	gz, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return errors.Wrapf(err, "extract to %s", destDir)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.Wrapf(err, "extract to %s", destDir)
		}

		target := filepath.Join(destDir, filepath.FromSlash(hdr.Name))
		rel, err := filepath.Rel(destDir, target)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return errors.Errorf("extract to %s: entry %q escapes destination", destDir, hdr.Name)
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return errors.Wrapf(err, "extract to %s", destDir)
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return errors.Wrapf(err, "extract to %s", destDir)
			}
			f, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, os.FileMode(hdr.Mode)&0o777)
			if err != nil {
				return errors.Wrapf(err, "extract to %s", destDir)
			}
			if _, err := io.Copy(f, tr); err != nil {
				f.Close()
				return errors.Wrapf(err, "extract to %s", destDir)
			}
			f.Close()
		}
	}
}
