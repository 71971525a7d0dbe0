package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDomainFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestYAMLDirSourceLoadsDomains(t *testing.T) {
	dir := t.TempDir()
	writeDomainFile(t, dir, "dental.yaml", `
name: Dental Clinic
endpoint: https://dental.example.com/api
functions:
  - name: FindOpenSlots
    parameters:
      DateStart:
        type: date
        required: true
entities:
  - name: patientName
    type: name
triggers:
  - phrase: book
    intent: book_appointment
`)
	writeDomainFile(t, dir, "vision.yml", `
id: vision-care
name: Vision Clinic
`)
	writeDomainFile(t, dir, "README.md", "not a domain")

	src := NewYAMLDirSource(dir)
	domains, err := src.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, domains, 2)

	assert.Equal(t, "dental", domains[0].ID, "ID defaults to the file stem")
	assert.Equal(t, "Dental Clinic", domains[0].Name)
	require.Len(t, domains[0].Functions, 1)
	assert.True(t, domains[0].Functions[0].Parameters["DateStart"].Required)

	assert.Equal(t, "vision-care", domains[1].ID, "explicit ID wins over the file name")
}

func TestYAMLDirSourceRejectsUnknownKeys(t *testing.T) {
	dir := t.TempDir()
	writeDomainFile(t, dir, "dental.yaml", `
name: Dental Clinic
endponit: https://typo.example.com
`)

	src := NewYAMLDirSource(dir)
	_, err := src.Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dental.yaml")
}

func TestYAMLDirSourceMissingDirectory(t *testing.T) {
	src := NewYAMLDirSource(filepath.Join(t.TempDir(), "nope"))
	_, err := src.Load(context.Background())
	require.Error(t, err)
}
