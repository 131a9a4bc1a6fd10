// Package artifact seals output directories: content hashing, manifest
// writing, directory purging, and the byte-level A/B comparison the replay
// check rides on.
package artifact

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"ssslverify/internal/fault"
)

// ManifestName is the fixed manifest file name. The manifest always
// excludes itself from its own hash set.
const ManifestName = "MANIFEST.sha256"

// Style selects the manifest line encoding. Two styles occur in this
// system: the engine seals with the binary marker (`<hex> *<path>`), the
// capsule reseals with two spaces and no marker (`<hex>  <path>`).
type Style int

const (
	StyleBinary Style = iota
	StylePlain
)

// hashChunkSize bounds memory while hashing large artifacts.
const hashChunkSize = 1 << 20

// HashFile returns the lowercase hex SHA-256 of a file, streamed in 1 MiB
// chunks.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", &fault.MissingArtifact{Path: path}
		}
		return "", fmt.Errorf("open for hashing: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	buf := make([]byte, hashChunkSize)
	if _, err := io.CopyBuffer(h, f, buf); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// ListFiles returns every regular file under dir (excluding the manifest)
// as canonical forward-slash relative paths, sorted.
func ListFiles(dir string) ([]string, error) {
	var rel []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rp, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		rp = filepath.ToSlash(rp)
		if rp == ManifestName {
			return nil
		}
		rel = append(rel, rp)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	sort.Strings(rel)
	return rel, nil
}

// WriteManifest seals every regular file under dir.
func WriteManifest(dir string, style Style) error {
	rel, err := ListFiles(dir)
	if err != nil {
		return err
	}
	return WriteManifestFiles(dir, rel, style)
}

// WriteManifestFiles seals an explicit relative-path set under dir. Paths
// are sorted into canonical order regardless of input order; one line per
// file, newline-terminated, LF only.
func WriteManifestFiles(dir string, relPaths []string, style Style) error {
	sorted := append([]string(nil), relPaths...)
	sort.Strings(sorted)

	var b strings.Builder
	for _, rp := range sorted {
		digest, err := HashFile(filepath.Join(dir, filepath.FromSlash(rp)))
		if err != nil {
			return err
		}
		if style == StyleBinary {
			fmt.Fprintf(&b, "%s *%s\n", digest, rp)
		} else {
			fmt.Fprintf(&b, "%s  %s\n", digest, rp)
		}
	}
	if err := os.WriteFile(filepath.Join(dir, ManifestName), []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// CleanDir purges any pre-existing content at path and recreates it empty,
// so stale artifacts can never leak into a manifest or comparison.
func CleanDir(path string) error {
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("purge %s: %w", path, err)
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	return nil
}

// CompareDirs byte-compares two sealed directories: same relative path set,
// same sizes, same content digests. The manifest files participate like any
// other file. Any difference is reported as a ReplayMismatch with the first
// divergence named.
func CompareDirs(caseName, a, b string) error {
	aFiles, err := listAll(a)
	if err != nil {
		return err
	}
	bFiles, err := listAll(b)
	if err != nil {
		return err
	}

	if len(aFiles) != len(bFiles) {
		return &fault.ReplayMismatch{Case: caseName, Detail: fmt.Sprintf("file count %d vs %d", len(aFiles), len(bFiles))}
	}
	for i := range aFiles {
		if aFiles[i] != bFiles[i] {
			return &fault.ReplayMismatch{Case: caseName, Detail: fmt.Sprintf("path set differs: %s vs %s", aFiles[i], bFiles[i])}
		}
	}

	for _, rp := range aFiles {
		ap := filepath.Join(a, filepath.FromSlash(rp))
		bp := filepath.Join(b, filepath.FromSlash(rp))

		as, err := os.Stat(ap)
		if err != nil {
			return fmt.Errorf("stat %s: %w", ap, err)
		}
		bs, err := os.Stat(bp)
		if err != nil {
			return fmt.Errorf("stat %s: %w", bp, err)
		}
		if as.Size() != bs.Size() {
			return &fault.ReplayMismatch{Case: caseName, Detail: fmt.Sprintf("%s: size %d vs %d", rp, as.Size(), bs.Size())}
		}

		ah, err := HashFile(ap)
		if err != nil {
			return err
		}
		bh, err := HashFile(bp)
		if err != nil {
			return err
		}
		if ah != bh {
			return &fault.ReplayMismatch{Case: caseName, Detail: rp + ": content digest differs"}
		}
	}
	return nil
}

// listAll is ListFiles without the manifest exclusion.
func listAll(dir string) ([]string, error) {
	var rel []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rp, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		rel = append(rel, filepath.ToSlash(rp))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	sort.Strings(rel)
	return rel, nil
}
