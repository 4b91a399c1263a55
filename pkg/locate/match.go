package locate

import (
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/oasisinternationalholdingsinc-cyber/oasis-ledger-sub001/pkg/objstore"
)

// normalizePath converts backslash separators and strips leading slashes.
// Historical rows recorded paths from several client platforms.
func normalizePath(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	return strings.TrimLeft(p, "/")
}

// splitPath returns the containing directory ("" for bucket root, no
// trailing slash otherwise) and the bare filename.
func splitPath(p string) (dir, file string) {
	dir, file = path.Split(p)
	return strings.TrimSuffix(dir, "/"), file
}

// uuidPrefix extracts a leading canonical UUID from a filename, if one is
// present. Uploaded objects are keyed by instance id, so a UUID prefix is
// a stronger match signal than the rest of the name.
func uuidPrefix(file string) string {
	if len(file) < 36 {
		return ""
	}
	candidate := file[:36]
	if _, err := uuid.Parse(candidate); err != nil {
		return ""
	}
	return candidate
}

// stem returns the filename without its extension.
func stem(file string) string {
	return strings.TrimSuffix(file, path.Ext(file))
}

// matchSpec describes what the repair search is looking for.
type matchSpec struct {
	// file is the originally requested bare filename.
	file string
	// ext is the expected extension, including the dot.
	ext string
	// prefix is the leading UUID extracted from file, or "".
	prefix string
}

func newMatchSpec(file string) matchSpec {
	return matchSpec{
		file:   file,
		ext:    path.Ext(file),
		prefix: uuidPrefix(file),
	}
}

// bestMatch picks the repair candidate for spec out of merged directory
// listings, or nil when nothing matches.
//
// Filter: entries must carry the expected extension; with a UUID prefix
// only filenames starting with it count (case-insensitive), otherwise
// filenames containing the requested stem count. Tie-break: a filename
// containing "signed" wins, then the most recently updated entry.
// Pure function; the network calls around it live in Locator.
func bestMatch(entries []objstore.ObjectInfo, spec matchSpec) *objstore.ObjectInfo {
	wantStem := strings.ToLower(stem(spec.file))
	wantPrefix := strings.ToLower(spec.prefix)

	var best *objstore.ObjectInfo
	bestSigned := false
	for i := range entries {
		e := &entries[i]
		name := path.Base(e.Name)
		if spec.ext != "" && !strings.EqualFold(path.Ext(name), spec.ext) {
			continue
		}
		lower := strings.ToLower(name)
		if wantPrefix != "" {
			if !strings.HasPrefix(lower, wantPrefix) {
				continue
			}
		} else if !strings.Contains(lower, wantStem) {
			continue
		}

		signed := strings.Contains(lower, "signed")
		switch {
		case best == nil:
			best, bestSigned = e, signed
		case signed && !bestSigned:
			best, bestSigned = e, signed
		case signed == bestSigned && e.Updated.After(best.Updated):
			best = e
		}
	}
	return best
}

// resolutionsDir is the category folder whose casing drifted across
// storage hygiene passes.
const resolutionsDir = "resolutions"

// candidateDirs builds the ordered, de-duplicated set of directories the
// repair search will list: the original directory, the caller's
// alternates, and both casings of any "resolutions" path segment.
func candidateDirs(dir string, alternates []string) []string {
	seen := make(map[string]bool)
	var dirs []string
	add := func(d string) {
		d = strings.TrimSuffix(normalizePath(d), "/")
		if !seen[d] {
			seen[d] = true
			dirs = append(dirs, d)
		}
	}

	add(dir)
	for _, alt := range alternates {
		add(alt)
	}

	// Expand casing variants after the explicit set so exact recordings
	// keep priority.
	for _, d := range append([]string{dir}, alternates...) {
		segments := strings.Split(normalizePath(d), "/")
		for i, seg := range segments {
			if strings.EqualFold(seg, resolutionsDir) {
				for _, variant := range []string{resolutionsDir, "Resolutions"} {
					segments[i] = variant
					add(strings.Join(segments, "/"))
				}
				segments[i] = seg
			}
		}
	}

	return dirs
}
