package registry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestParseCatalog tests parsing of catalog documents.
func TestParseCatalog(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		want    int
		wantErr string
	}{
		{
			name: "valid catalog",
			yaml: `framework: gdpr
controls:
  - id: "Art.15"
    title: "Right of Access"
    citation: "Regulation (EU) 2016/679, Article 15"
  - id: "Art.17"
    title: "Right to Erasure"
`,
			want: 2,
		},
		{
			name: "missing framework",
			yaml: `controls:
  - id: "Art.15"
    title: "Right of Access"
`,
			wantErr: "missing the framework name",
		},
		{
			name:    "no controls",
			yaml:    `framework: gdpr`,
			wantErr: "defines no controls",
		},
		{
			name: "control without id",
			yaml: `framework: gdpr
controls:
  - title: "Right of Access"
`,
			wantErr: "has no id",
		},
		{
			name: "control without title",
			yaml: `framework: gdpr
controls:
  - id: "Art.15"
`,
			wantErr: "has no title",
		},
		{
			name:    "malformed yaml",
			yaml:    "framework: [unclosed",
			wantErr: "failed to parse catalog",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			descriptors, err := ParseCatalog([]byte(tt.yaml))
			if tt.wantErr != "" {
				if err == nil {
					t.Fatalf("ParseCatalog() succeeded, want error containing %q", tt.wantErr)
				}
				if !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("ParseCatalog() error = %q, want it to contain %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseCatalog() failed: %v", err)
			}
			if len(descriptors) != tt.want {
				t.Errorf("ParseCatalog() returned %d descriptors, want %d", len(descriptors), tt.want)
			}
			for _, d := range descriptors {
				if d.Framework != "gdpr" {
					t.Errorf("descriptor %q has framework %q, want gdpr", d.ID, d.Framework)
				}
			}
		})
	}
}

// TestLoadCatalogDir tests loading a directory of catalog files.
func TestLoadCatalogDir(t *testing.T) {
	dir := t.TempDir()

	gdpr := `framework: gdpr
controls:
  - id: "Art.15"
    title: "Right of Access"
`
	soc2 := `framework: soc2
controls:
  - id: "CC6.1"
    title: "Logical Access Controls"
  - id: "CC7.2"
    title: "System Monitoring"
`
	if err := os.WriteFile(filepath.Join(dir, "gdpr.yaml"), []byte(gdpr), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "soc2.yml"), []byte(soc2), 0644); err != nil {
		t.Fatal(err)
	}
	// Non-catalog files are ignored.
	if err := os.WriteFile(filepath.Join(dir, "README.md"), []byte("# catalogs"), 0644); err != nil {
		t.Fatal(err)
	}

	descriptors, err := LoadCatalogDir(dir)
	if err != nil {
		t.Fatalf("LoadCatalogDir() failed: %v", err)
	}
	if len(descriptors) != 3 {
		t.Fatalf("LoadCatalogDir() returned %d descriptors, want 3", len(descriptors))
	}
}

// TestLoadCatalogDir_Empty verifies an empty directory is an error.
func TestLoadCatalogDir_Empty(t *testing.T) {
	dir := t.TempDir()

	if _, err := LoadCatalogDir(dir); err == nil {
		t.Fatal("LoadCatalogDir() on empty directory succeeded, want error")
	}
}

// TestLoadPath tests loading catalogs into a registry from file and
// directory paths.
func TestLoadPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gdpr.yaml")

	catalog := `framework: gdpr
controls:
  - id: "Art.15"
    title: "Right of Access"
  - id: "Art.17"
    title: "Right to Erasure"
`
	if err := os.WriteFile(path, []byte(catalog), 0644); err != nil {
		t.Fatal(err)
	}

	reg := New()
	if err := LoadPath(reg, path); err != nil {
		t.Fatalf("LoadPath(file) failed: %v", err)
	}
	if reg.Size() != 2 {
		t.Errorf("registry has %d controls, want 2", reg.Size())
	}

	reg = New()
	if err := LoadPath(reg, dir); err != nil {
		t.Fatalf("LoadPath(dir) failed: %v", err)
	}
	if reg.Size() != 2 {
		t.Errorf("registry has %d controls, want 2", reg.Size())
	}

	if err := LoadPath(New(), filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("LoadPath() on missing path succeeded, want error")
	}
}
