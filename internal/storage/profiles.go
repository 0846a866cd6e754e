// Package storage persists profile documents and the settings document as
// plain JSON files in the data directory.
package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"dailies/internal/fsutil"
	"dailies/internal/model"
)

// SettingsFile is the name of the cross-profile settings document. It lives
// next to the profile documents and is never listed as a profile.
const SettingsFile = "system_settings.json"

const maxProfileNameLen = 60

// SaveContext describes the mutation behind a save so hooks (git sync) can
// write meaningful commit messages like "Complete task: Review PR".
type SaveContext struct {
	Filename  string // e.g. "3f2c….json"
	ProfileID string
	Operation string // add, update, complete, reopen, delete, toggle, import, reset
	ItemType  string // task, habit, label, profile
	ItemName  string
}

// ProfileDescriptor is what List reports for each stored profile.
type ProfileDescriptor struct {
	ID      string
	Name    string
	Path    string
	Corrupt bool
}

// Profiles reads and writes one JSON document per profile.
type Profiles struct {
	dir    string
	log    *zap.Logger
	now    func() time.Time
	onSave func(SaveContext)
}

// NewProfiles returns a store rooted at dir. The directory is created lazily
// on first write.
func NewProfiles(dir string, log *zap.Logger) *Profiles {
	if log == nil {
		log = zap.NewNop()
	}
	return &Profiles{dir: dir, log: log, now: time.Now}
}

// Dir returns the data directory.
func (p *Profiles) Dir() string { return p.dir }

// SetOnSave registers a hook called after every successful save.
func (p *Profiles) SetOnSave(fn func(SaveContext)) { p.onSave = fn }

// Path returns the document path for a profile id.
func (p *Profiles) Path(id string) string {
	return filepath.Join(p.dir, id+".json")
}

// ValidateID rejects ids that would escape the data directory or collide
// with bookkeeping files.
func ValidateID(id string) error {
	switch {
	case strings.TrimSpace(id) == "":
		return fmt.Errorf("%w: empty", ErrInvalidID)
	case id != filepath.Base(id), strings.ContainsAny(id, `/\`):
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	case strings.HasPrefix(id, "."), id+".json" == SettingsFile:
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}

func (p *Profiles) ensureDir() error {
	if err := os.MkdirAll(p.dir, fsutil.DirPerm); err != nil {
		return classifyIO("create data directory", err)
	}
	return nil
}

// List enumerates stored profiles sorted by name. It never fails: an
// unreadable or missing directory simply has no profiles.
func (p *Profiles) List() []ProfileDescriptor {
	entries, err := os.ReadDir(p.dir)
	if err != nil {
		if !os.IsNotExist(err) {
			p.log.Warn("list profiles", zap.String("dir", p.dir), zap.Error(err))
		}
		return []ProfileDescriptor{}
	}

	out := []ProfileDescriptor{}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || name == SettingsFile || filepath.Ext(name) != ".json" || strings.HasPrefix(name, ".") {
			continue
		}
		id := strings.TrimSuffix(name, ".json")
		desc := ProfileDescriptor{ID: id, Name: id, Path: filepath.Join(p.dir, name)}
		doc, err := p.Load(id)
		switch {
		case err == nil:
			if doc.Profile.Name != "" {
				desc.Name = doc.Profile.Name
			}
		case errors.Is(err, ErrCorrupt):
			desc.Corrupt = true
		default:
			p.log.Warn("read profile", zap.String("profile", id), zap.Error(err))
			continue
		}
		out = append(out, desc)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Create stores a new, empty profile document and returns its descriptor.
func (p *Profiles) Create(name string) (ProfileDescriptor, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return ProfileDescriptor{}, fmt.Errorf("profile name is required")
	}
	if len(name) > maxProfileNameLen {
		return ProfileDescriptor{}, fmt.Errorf("profile name too long (max %d)", maxProfileNameLen)
	}

	doc := NewDocument(model.Profile{ID: uuid.NewString(), Name: name})
	if err := p.SaveWithContext(doc.Profile.ID, doc, SaveContext{Operation: "add", ItemType: "profile", ItemName: name}); err != nil {
		return ProfileDescriptor{}, err
	}
	return ProfileDescriptor{ID: doc.Profile.ID, Name: name, Path: p.Path(doc.Profile.ID)}, nil
}

// NewDocument returns an empty document for profile, seeded with the
// default label so new tasks always land in an existing category.
func NewDocument(profile model.Profile) *model.ProfileDocument {
	doc := &model.ProfileDocument{
		Version: model.SchemaVersion,
		Profile: profile,
		Labels:  []model.Label{{ID: uuid.NewString(), Name: model.DefaultCategory}},
	}
	doc.Normalize()
	return doc
}

// Load reads a profile document. A missing file is ErrNotFound; a file that
// exists but does not decode is a *CorruptError.
func (p *Profiles) Load(id string) (*model.ProfileDocument, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}
	path := p.Path(id)

	// Writers replace the file by rename, so a plain read never sees a
	// partial document.
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, classifyIO("read profile "+id, err)
	}

	doc, err := decodeDocument(data)
	if err != nil {
		return nil, &CorruptError{ProfileID: id, Path: path, Err: err}
	}
	if doc.Profile.ID == "" {
		doc.Profile.ID = id
	}
	return doc, nil
}

// documentKeys are the top-level keys of a profile document. A JSON object
// carrying none of them is some other file.
var documentKeys = []string{"version", "profile", "tasks", "habits", "labels"}

// decodeDocument parses and sanity-checks a profile document. The input must
// be exactly one JSON object with at least one document key.
func decodeDocument(data []byte) (*model.ProfileDocument, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, errors.New("document is empty")
	}
	if data[0] != '{' {
		return nil, errors.New("document is not a JSON object")
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	known := false
	for _, k := range documentKeys {
		if _, ok := fields[k]; ok {
			known = true
			break
		}
	}
	if !known {
		return nil, fmt.Errorf("not a profile document: none of %s", strings.Join(documentKeys, ", "))
	}

	var doc model.ProfileDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	if doc.Version > model.SchemaVersion {
		return nil, fmt.Errorf("unsupported schema version %d (max %d)", doc.Version, model.SchemaVersion)
	}
	for i, t := range doc.Tasks {
		if strings.TrimSpace(t.ID) == "" {
			return nil, fmt.Errorf("task %d has no id", i)
		}
	}
	for i, h := range doc.Habits {
		if strings.TrimSpace(h.ID) == "" {
			return nil, fmt.Errorf("habit %d has no id", i)
		}
	}
	doc.Normalize()
	return &doc, nil
}

// Save overwrites a profile's document with doc.
func (p *Profiles) Save(id string, doc *model.ProfileDocument) error {
	return p.SaveWithContext(id, doc, SaveContext{Operation: "update", ItemType: "profile"})
}

// SaveWithContext is Save with a description of the mutation for the
// on-save hook. The previous snapshot is kept as <id>.json.bak.
func (p *Profiles) SaveWithContext(id string, doc *model.ProfileDocument, ctx SaveContext) error {
	if err := ValidateID(id); err != nil {
		return err
	}
	if doc == nil {
		return fmt.Errorf("save profile %s: nil document", id)
	}
	if err := p.ensureDir(); err != nil {
		return err
	}

	snapshot := *doc
	snapshot.Version = model.SchemaVersion
	snapshot.Profile.ID = id
	snapshot.Normalize()

	data, err := json.MarshalIndent(&snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("serialize profile %s: %w", id, err)
	}

	path := p.Path(id)
	err = fsutil.WithLock(path, func() error {
		fsutil.BestEffortBackup(path, fsutil.FilePerm)
		return fsutil.WriteFileAtomic(path, data, fsutil.FilePerm)
	})
	if err != nil {
		return classifyIO("write profile "+id, err)
	}

	if p.onSave != nil {
		ctx.Filename = filepath.Base(path)
		ctx.ProfileID = id
		p.onSave(ctx)
	}
	return nil
}

// Delete removes a profile's document and its bookkeeping files.
func (p *Profiles) Delete(id string) error {
	if err := ValidateID(id); err != nil {
		return err
	}
	path := p.Path(id)
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return classifyIO("delete profile "+id, err)
	}
	_ = os.Remove(path + ".bak")
	_ = os.Remove(path + ".lock")

	if p.onSave != nil {
		p.onSave(SaveContext{Filename: filepath.Base(path), ProfileID: id, Operation: "delete", ItemType: "profile"})
	}
	return nil
}

// Export returns a standalone copy of the profile document.
func (p *Profiles) Export(id string) ([]byte, error) {
	doc, err := p.Load(id)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(doc, "", "  ")
}

// ExportTo writes the exported document to path.
func (p *Profiles) ExportTo(id, path string) error {
	data, err := p.Export(id)
	if err != nil {
		return err
	}
	if err := fsutil.WriteFileAtomic(path, data, fsutil.FilePerm); err != nil {
		return classifyIO("export profile "+id, err)
	}
	return nil
}

// Import validates data as a profile document and stores it under a fresh
// id. Existing profiles are never overwritten.
func (p *Profiles) Import(data []byte) (ProfileDescriptor, error) {
	doc, err := decodeDocument(data)
	if err != nil {
		return ProfileDescriptor{}, fmt.Errorf("%w: %v", ErrInvalidImport, err)
	}

	id := uuid.NewString()
	for fileExists(p.Path(id)) {
		id = uuid.NewString()
	}
	doc.Profile.ID = id
	if strings.TrimSpace(doc.Profile.Name) == "" {
		doc.Profile.Name = "Imported " + p.now().Format("2006-01-02")
	}

	if err := p.SaveWithContext(id, doc, SaveContext{Operation: "import", ItemType: "profile", ItemName: doc.Profile.Name}); err != nil {
		return ProfileDescriptor{}, err
	}
	p.log.Info("profile imported", zap.String("profile", id), zap.Int("tasks", len(doc.Tasks)), zap.Int("habits", len(doc.Habits)))
	return ProfileDescriptor{ID: id, Name: doc.Profile.Name, Path: p.Path(id)}, nil
}

// RestoreBackup replaces a profile's document with its last good snapshot
// (<id>.json.bak). The broken file is kept as <id>.json.corrupt.<ts>.
func (p *Profiles) RestoreBackup(id string) (*model.ProfileDocument, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}
	path := p.Path(id)
	data, err := os.ReadFile(path + ".bak")
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: no backup for %s", ErrNotFound, id)
		}
		return nil, classifyIO("read backup "+id, err)
	}
	doc, err := decodeDocument(data)
	if err != nil {
		return nil, &CorruptError{ProfileID: id, Path: path + ".bak", Err: err}
	}

	p.moveAside(path)
	if err := p.SaveWithContext(id, doc, SaveContext{Operation: "restore", ItemType: "profile", ItemName: doc.Profile.Name}); err != nil {
		return nil, err
	}
	return doc, nil
}

// Reset moves a broken profile file aside and writes an empty document with
// the same id. The profile name is kept when it can still be read.
func (p *Profiles) Reset(id, name string) (*model.ProfileDocument, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}
	if strings.TrimSpace(name) == "" {
		name = id
	}
	p.moveAside(p.Path(id))

	doc := NewDocument(model.Profile{ID: id, Name: name})
	if err := p.SaveWithContext(id, doc, SaveContext{Operation: "reset", ItemType: "profile", ItemName: name}); err != nil {
		return nil, err
	}
	return doc, nil
}

func (p *Profiles) moveAside(path string) {
	if !fileExists(path) {
		return
	}
	corrupt := fmt.Sprintf("%s.corrupt.%s", path, p.now().Format("20060102-150405"))
	if err := os.Rename(path, corrupt); err != nil {
		p.log.Warn("move corrupt profile aside", zap.String("path", path), zap.Error(err))
		return
	}
	p.log.Info("corrupt profile preserved", zap.String("path", corrupt))
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil || !os.IsNotExist(err)
}
