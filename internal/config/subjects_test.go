package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCatalog_Default(t *testing.T) {
	t.Parallel()

	c, err := LoadCatalog("")
	require.NoError(t, err)
	assert.Len(t, c.Subjects, 6)

	tests := []struct {
		subject string
		want    string
	}{
		{"DBMS", "Database Management Systems, by Raghu Ramakrishnan and Johannes Gehrke"},
		{"dbms", "Database Management Systems, by Raghu Ramakrishnan and Johannes Gehrke"},
		{"Data Structures", "Data Structures and Algorithms in Java, by Robert Lafore"},
		{"Quantum Basket Weaving", UnknownTextbook},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, c.Textbook(tt.subject), tt.subject)
	}
}

func TestLoadCatalog_File(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "subjects.yaml")
	require.NoError(t, os.WriteFile(path, []byte("subjects:\n  - code: ML\n    textbook: Pattern Recognition\n"), 0o600))

	c, err := LoadCatalog(path)
	require.NoError(t, err)
	s, ok := c.Lookup("ml")
	require.True(t, ok)
	assert.Equal(t, "Pattern Recognition", s.Textbook)
}

func TestParseCatalog_Errors(t *testing.T) {
	t.Parallel()

	_, err := ParseCatalog([]byte("subjects: [ {textbook: x} ]"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "op=config.ParseCatalog")

	_, err = ParseCatalog([]byte("subjects: [unclosed"))
	require.Error(t, err)

	_, err = LoadCatalog(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestCatalog_NilSafe(t *testing.T) {
	t.Parallel()

	var c *Catalog
	assert.Equal(t, UnknownTextbook, c.Textbook("OS"))
}
