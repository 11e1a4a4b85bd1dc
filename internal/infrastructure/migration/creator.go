package migration

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"text/template"
	"time"
)

var fileTemplate = template.Must(template.New("migration").Parse(`-- {{.Name}}{{if .Down}} (rollback){{end}}
-- Created: {{.Created}}
{{- if .Description}}
-- {{.Description}}
{{- end}}

`))

var migrationFile = regexp.MustCompile(`^(\d+)_([a-z0-9_]+)\.up\.sql$`)

// Migration is one up/down file pair
type Migration struct {
	Version uint
	Name    string
}

// String renders the file base name, e.g. 000002_outbox_and_jobs
func (m Migration) String() string {
	return fmt.Sprintf("%06d_%s", m.Version, m.Name)
}

// MigrationFile describes a freshly created pair
type MigrationFile struct {
	Migration
	Description string
	UpPath      string
	DownPath    string
}

// CreateMigration writes the next numbered up/down pair into dir
func CreateMigration(dir, name, description string) (*MigrationFile, error) {
	slug := sanitizeName(name)
	if slug == "" {
		return nil, fmt.Errorf("migration name %q has no usable characters", name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create migrations directory: %w", err)
	}

	existing, err := ListMigrations(dir)
	if err != nil {
		return nil, err
	}
	next := uint(1)
	if len(existing) > 0 {
		next = existing[len(existing)-1].Version + 1
	}

	mf := &MigrationFile{
		Migration:   Migration{Version: next, Name: slug},
		Description: description,
	}
	mf.UpPath = filepath.Join(dir, mf.String()+".up.sql")
	mf.DownPath = filepath.Join(dir, mf.String()+".down.sql")

	created := time.Now().UTC().Format(time.RFC3339)
	if err := writeMigrationFile(mf.UpPath, name, description, created, false); err != nil {
		return nil, err
	}
	if err := writeMigrationFile(mf.DownPath, name, description, created, true); err != nil {
		_ = os.Remove(mf.UpPath)
		return nil, err
	}
	return mf, nil
}

func writeMigrationFile(path, name, description, created string, down bool) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("create %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	return fileTemplate.Execute(f, struct {
		Name, Description, Created string
		Down                       bool
	}{name, description, created, down})
}

// sanitizeName lowercases name and collapses separators into single
// underscores; other characters are dropped
func sanitizeName(name string) string {
	var b strings.Builder
	pendingSep := false
	for _, c := range strings.ToLower(name) {
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9':
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(c)
		case c == ' ' || c == '-' || c == '_':
			pendingSep = true
		}
	}
	return b.String()
}

// ListMigrations returns the migrations in dir ordered by version. A missing
// directory has no migrations.
func ListMigrations(dir string) ([]Migration, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read migrations directory: %w", err)
	}

	var migrations []Migration
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		match := migrationFile.FindStringSubmatch(entry.Name())
		if match == nil {
			continue
		}
		version, err := strconv.ParseUint(match[1], 10, 32)
		if err != nil {
			continue
		}
		migrations = append(migrations, Migration{Version: uint(version), Name: match[2]})
	}
	sort.Slice(migrations, func(i, j int) bool { return migrations[i].Version < migrations[j].Version })
	return migrations, nil
}
