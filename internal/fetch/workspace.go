package fetch

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/hbomb79/Reel/internal/media"
)

// workspace is the private directory owned by a single fetch job. No other
// job ever reads or writes inside it, and it is removed once the job ends.
type workspace struct {
	ID  uuid.UUID
	Dir string
}

// newWorkspace creates a fresh workspace beneath root. The directory is
// created with Mkdir (not MkdirAll) so that an existing directory is an
// error rather than something two jobs could end up sharing.
func newWorkspace(root string) (*workspace, error) {
	id := uuid.New()
	dir := filepath.Join(root, id.String())
	if err := os.Mkdir(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create workspace for job %s: %w", id, err)
	}

	return &workspace{ID: id, Dir: dir}, nil
}

// resolveArtifact finds the file in the workspace which the tool produced
// for the profile provided. When more than one candidate exists, the most
// recently modified is chosen; this only guards against auxiliary files the
// tool may leave behind, as the workspace is never shared.
func (ws *workspace) resolveArtifact(profile media.Profile) (string, error) {
	dirEntries, err := os.ReadDir(ws.Dir)
	if err != nil {
		return "", fmt.Errorf("failed to list workspace %s: %w", ws.Dir, err)
	}

	type candidate struct {
		path  string
		mtime int64
	}

	candidates := make([]candidate, 0, len(dirEntries))
	for _, entry := range dirEntries {
		if !entry.Type().IsRegular() || !strings.EqualFold(filepath.Ext(entry.Name()), profile.Extension()) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			// Vanished between listing and stat.
			continue
		}

		candidates = append(candidates, candidate{
			path:  filepath.Join(ws.Dir, entry.Name()),
			mtime: info.ModTime().UnixNano(),
		})
	}

	if len(candidates) == 0 {
		return "", &media.ArtifactMissingError{Profile: profile, Dir: ws.Dir}
	}

	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].mtime > candidates[j].mtime })
	return candidates[0].path, nil
}

// remove purges the workspace and everything in it. Failure is logged
// and otherwise ignored, as by this point the caller has its result.
func (ws *workspace) remove() {
	if err := os.RemoveAll(ws.Dir); err != nil {
		log.Warnf("Failed to clean up workspace %s for job %s: %v\n", ws.Dir, ws.ID, err)
		return
	}

	log.Verbosef("Removed workspace for job %s\n", ws.ID)
}
